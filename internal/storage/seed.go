package storage

// SeedToInt64 bit-casts an optional uint64 seed for SQL engines without an unsigned 64-bit type.
func SeedToInt64(seed *uint64) *int64 {
	if seed == nil {
		return nil
	}
	v := int64(*seed)
	return &v
}

// SeedFromInt64 reverses SeedToInt64.
func SeedFromInt64(v *int64) *uint64 {
	if v == nil {
		return nil
	}
	seed := uint64(*v)
	return &seed
}
