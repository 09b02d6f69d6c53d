package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/firedrill-labs/firedrill/internal/engine"
)

// WriteCSVReport writes one row per metric series plus one per scenario.
func WriteCSVReport(w io.Writer, outcome *engine.Outcome) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"section", "name", "count", "avg", "min", "max", "p50", "p90", "p95", "p99", "success_rate"}); err != nil {
		return err
	}

	names := make([]string, 0, len(outcome.Summary.Metrics))
	for name := range outcome.Summary.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		stat := outcome.Summary.Metrics[name]
		if err := cw.Write([]string{
			"metric", name,
			fmt.Sprint(stat.Count),
			fmt.Sprintf("%.6f", stat.Avg),
			fmt.Sprintf("%.6f", stat.Min),
			fmt.Sprintf("%.6f", stat.Max),
			fmt.Sprintf("%.6f", stat.P50),
			fmt.Sprintf("%.6f", stat.P90),
			fmt.Sprintf("%.6f", stat.P95),
			fmt.Sprintf("%.6f", stat.P99),
			"",
		}); err != nil {
			return err
		}
	}

	scenarios := make([]string, 0, len(outcome.Summary.Scenarios))
	for name := range outcome.Summary.Scenarios {
		scenarios = append(scenarios, name)
	}
	sort.Strings(scenarios)
	for _, name := range scenarios {
		stats := outcome.Summary.Scenarios[name]
		if err := cw.Write([]string{
			"scenario", name,
			fmt.Sprint(stats.Total),
			"", "", "", "", "", "", "",
			fmt.Sprintf("%.2f", stats.SuccessRate),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
