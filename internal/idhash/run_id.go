package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(scenario|default_rate|portfolio_size|trial_count|return_type|alpha|seed|created_at)
// seed is the one the trials were drawn with, so unseeded runs with equal
// parameters and created_at still get distinct IDs.
// default_rate and alpha use the shortest exact float encoding.
// Returns hex-encoded hash (64 characters).
func ComputeRunID(
	scenario string,
	defaultRate float64,
	portfolioSize int,
	trialCount int,
	returnType string,
	alpha float64,
	seed uint64,
	createdAt int64,
) string {
	data := fmt.Sprintf("%s|%s|%d|%d|%s|%s|%s|%d",
		scenario,
		strconv.FormatFloat(defaultRate, 'g', -1, 64),
		portfolioSize,
		trialCount,
		returnType,
		strconv.FormatFloat(alpha, 'g', -1, 64),
		strconv.FormatUint(seed, 10),
		createdAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeComparisonID links the runs of one scenario comparison.
// Formula: SHA256(run_id_1|run_id_2|...), in the order given.
func ComputeComparisonID(runIDs ...string) string {
	h := sha256.New()
	for i, id := range runIDs {
		if i > 0 {
			h.Write([]byte{'|'})
		}
		h.Write([]byte(id))
	}
	return hex.EncodeToString(h.Sum(nil))
}
