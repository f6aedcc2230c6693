package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"mortgage-stress-lab/internal/observability"
	"mortgage-stress-lab/internal/stress"
)

// WriteOptions selects optional report files.
type WriteOptions struct {
	Distribution bool // histogram_<scenario>.csv and normal_fit_<scenario>.csv
	Trials       bool // trials_<scenario>.csv
}

// WriteFiles writes report.md, metrics.csv and the optional per-scenario
// files into dir/<comparison_id[:12]>. cmp may be nil when only stored runs
// are available; per-scenario files are then skipped.
// Returns the written paths in write order.
func WriteFiles(dir string, r *Report, cmp *stress.Comparison, opts WriteOptions) ([]string, error) {
	outDir := filepath.Join(dir, shortID(r.ComparisonID))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	var written []string
	write := func(name, content string) error {
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	if err := write("report.md", RenderMarkdown(r)); err != nil {
		return written, err
	}
	if err := write("metrics.csv", RenderMetricsCSV(r)); err != nil {
		return written, err
	}

	if cmp != nil {
		for _, o := range cmp.Outcomes {
			name := string(o.Run.Scenario)
			if opts.Distribution && o.Distribution != nil {
				if err := write("histogram_"+name+".csv", RenderHistogramCSV(o.Distribution)); err != nil {
					return written, err
				}
				if err := write("normal_fit_"+name+".csv", RenderNormalFitCSV(o.Distribution)); err != nil {
					return written, err
				}
			}
			if opts.Trials {
				if err := write("trials_"+name+".csv", RenderTrialsCSV(o.Result)); err != nil {
					return written, err
				}
			}
		}
	}

	observability.RecordReportGenerated()
	return written, nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	if id == "" {
		return "unnamed"
	}
	return id
}
