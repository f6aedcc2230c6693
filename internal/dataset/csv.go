package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"mortgage-stress-lab/internal/domain"
)

// Required column names of a per-year loan table.
const (
	ColumnOrigUPB   = "orig_upb"
	ColumnNet       = "net"
	ColumnDefaulted = "defaulted"
)

// maxConcurrentFiles bounds parallel file reads in LoadFiles.
const maxConcurrentFiles = 4

// YearPaths returns one file path per year, formatting pattern with the year.
// Example: YearPaths("data", "%d.csv", []int{2020, 2021}).
func YearPaths(dir, pattern string, years []int) []string {
	paths := make([]string, len(years))
	for i, y := range years {
		paths[i] = filepath.Join(dir, fmt.Sprintf(pattern, y))
	}
	return paths
}

// LoadFiles reads every per-year table and concatenates the rows.
// Files are read concurrently; rows keep file order.
// Returns ErrDataLoad if any file is missing, malformed or lacks required columns.
func LoadFiles(ctx context.Context, paths []string) (*Dataset, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no dataset files given", ErrDataLoad)
	}

	parts := make([][]domain.LoanRecord, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFiles)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			loans, err := ReadFile(path)
			if err != nil {
				return err
			}
			parts[i] = loans
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	loans := make([]domain.LoanRecord, 0, total)
	for _, p := range parts {
		loans = append(loans, p...)
	}

	return New(loans), nil
}

// ReadFile reads one loan table. The vintage is taken from the file name
// when it is a plain year ("2021.csv"), otherwise 0.
func ReadFile(path string) ([]domain.LoanRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDataLoad, path, err)
	}
	defer f.Close()

	loans, err := ReadCSV(f, vintageFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return loans, nil
}

// ReadCSV decodes a loan table with a header row.
// Extra columns are ignored.
func ReadCSV(r io.Reader, vintage int) ([]domain.LoanRecord, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrDataLoad)
		}
		return nil, fmt.Errorf("%w: read header: %v", ErrDataLoad, err)
	}

	idx, err := columnIndexes(header)
	if err != nil {
		return nil, err
	}

	var loans []domain.LoanRecord
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrDataLoad, line, err)
		}

		loan, err := decodeRow(record, idx, vintage)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrDataLoad, line, err)
		}
		loans = append(loans, loan)
	}

	return loans, nil
}

type columns struct {
	origUPB   int
	net       int
	defaulted int
}

func columnIndexes(header []string) (columns, error) {
	idx := columns{origUPB: -1, net: -1, defaulted: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case ColumnOrigUPB:
			idx.origUPB = i
		case ColumnNet:
			idx.net = i
		case ColumnDefaulted:
			idx.defaulted = i
		}
	}

	var missing []string
	if idx.origUPB < 0 {
		missing = append(missing, ColumnOrigUPB)
	}
	if idx.net < 0 {
		missing = append(missing, ColumnNet)
	}
	if idx.defaulted < 0 {
		missing = append(missing, ColumnDefaulted)
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("%w: missing columns %s", ErrDataLoad, strings.Join(missing, ", "))
	}
	return idx, nil
}

func decodeRow(record []string, idx columns, vintage int) (domain.LoanRecord, error) {
	upb, err := strconv.ParseFloat(strings.TrimSpace(record[idx.origUPB]), 64)
	if err != nil {
		return domain.LoanRecord{}, fmt.Errorf("invalid %s %q", ColumnOrigUPB, record[idx.origUPB])
	}
	net, err := strconv.ParseFloat(strings.TrimSpace(record[idx.net]), 64)
	if err != nil {
		return domain.LoanRecord{}, fmt.Errorf("invalid %s %q", ColumnNet, record[idx.net])
	}
	flag, err := ParseDefaultFlag(record[idx.defaulted])
	if err != nil {
		return domain.LoanRecord{}, err
	}

	return domain.LoanRecord{
		Vintage:   vintage,
		OrigUPB:   upb,
		Net:       net,
		Defaulted: flag,
	}, nil
}

// ParseDefaultFlag parses a boolean default marker.
// Empty, "null", "nan", "none" and "na" yield DefaultFlagUnknown; the
// splitter rejects those rows. Any other unrecognized text is an error.
func ParseDefaultFlag(s string) (domain.DefaultFlag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "yes", "y":
		return domain.DefaultFlagDefaulted, nil
	case "false", "f", "0", "no", "n":
		return domain.DefaultFlagPaid, nil
	case "", "null", "nan", "none", "na":
		return domain.DefaultFlagUnknown, nil
	default:
		return domain.DefaultFlagUnknown, fmt.Errorf("invalid %s %q", ColumnDefaulted, s)
	}
}

func vintageFromPath(path string) int {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	year, err := strconv.Atoi(name)
	if err != nil {
		return 0
	}
	return year
}
