// Package output renders run outcomes as console, JSON, JUnit XML, CSV and
// HTML reports, and streams live progress during a run.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/firedrill-labs/firedrill/internal/engine"
	"github.com/firedrill-labs/firedrill/internal/metrics"
)

// ColorScheme holds the colors the console report uses.
type ColorScheme struct {
	Title   *color.Color
	Passed  *color.Color
	Failed  *color.Color
	Label   *color.Color
	Warning *color.Color
}

// DefaultColorScheme returns the standard scheme. Colors are disabled when
// stdout is not a terminal.
func DefaultColorScheme() *ColorScheme {
	scheme := &ColorScheme{
		Title:   color.New(color.FgCyan, color.Bold),
		Passed:  color.New(color.FgGreen, color.Bold),
		Failed:  color.New(color.FgRed, color.Bold),
		Label:   color.New(color.FgYellow),
		Warning: color.New(color.FgYellow, color.Bold),
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		scheme.disable()
	}
	return scheme
}

func (s *ColorScheme) disable() {
	s.Title.DisableColor()
	s.Passed.DisableColor()
	s.Failed.DisableColor()
	s.Label.DisableColor()
	s.Warning.DisableColor()
}

// PrintReport writes the human-readable run report.
func PrintReport(w io.Writer, outcome *engine.Outcome, scheme *ColorScheme) {
	if scheme == nil {
		scheme = DefaultColorScheme()
	}

	fmt.Fprintf(w, "\n%s\n", scheme.Title.Sprintf("=== %s ===", outcome.Name))
	if outcome.Description != "" {
		fmt.Fprintf(w, "%s\n", outcome.Description)
	}
	if outcome.Environment != "" {
		fmt.Fprintf(w, "Environment:     %s\n", outcome.Environment)
	}
	fmt.Fprintf(w, "Run ID:          %s\n", outcome.ID)

	status := scheme.Passed.Sprint("PASSED")
	if !outcome.Passed() {
		status = scheme.Failed.Sprint("FAILED")
	}
	fmt.Fprintf(w, "Status:          %s\n", status)
	fmt.Fprintf(w, "Duration:        %.2fs\n", outcome.Duration.Seconds())

	s := outcome.Summary
	fmt.Fprintf(w, "Total Requests:  %d\n", s.TotalRequests)
	fmt.Fprintf(w, "Successful:      %d\n", s.SuccessCount)
	fmt.Fprintf(w, "Failed:          %d\n", s.ErrorCount)
	fmt.Fprintf(w, "Success Rate:    %.2f%%\n", s.SuccessRate)

	if rt, ok := s.Metrics[metrics.SeriesResponseTime]; ok && rt.Count > 0 {
		fmt.Fprintf(w, "\n%s\n", scheme.Label.Sprint("Response Time (s):"))
		fmt.Fprintf(w, "  Avg:  %.4f\n", rt.Avg)
		fmt.Fprintf(w, "  Min:  %.4f\n", rt.Min)
		fmt.Fprintf(w, "  Max:  %.4f\n", rt.Max)
		fmt.Fprintf(w, "  P50:  %.4f\n", rt.P50)
		fmt.Fprintf(w, "  P90:  %.4f\n", rt.P90)
		fmt.Fprintf(w, "  P95:  %.4f\n", rt.P95)
		fmt.Fprintf(w, "  P99:  %.4f\n", rt.P99)
	}

	if len(s.Scenarios) > 0 {
		fmt.Fprintf(w, "\n%s\n", scheme.Label.Sprint("Scenarios:"))
		names := make([]string, 0, len(s.Scenarios))
		for name := range s.Scenarios {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			return s.Scenarios[names[i]].Total > s.Scenarios[names[j]].Total
		})
		for _, name := range names {
			sc := s.Scenarios[name]
			fmt.Fprintf(w, "  - %s: total=%d, ok=%d, errors=%d, success=%.1f%%\n",
				name, sc.Total, sc.Successes, sc.Errors, sc.SuccessRate)
		}
	}

	if len(s.ErrorsByType) > 0 {
		fmt.Fprintf(w, "\n%s\n", scheme.Warning.Sprint("Errors:"))
		kinds := make([]string, 0, len(s.ErrorsByType))
		for kind := range s.ErrorsByType {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Fprintf(w, "  %s: %d\n", metrics.FriendlyErrorName(kind), s.ErrorsByType[kind])
		}
	}

	if len(outcome.ThresholdResults) > 0 {
		fmt.Fprintf(w, "\n%s\n", scheme.Label.Sprint("Thresholds:"))
		for _, r := range outcome.ThresholdResults {
			mark := scheme.Passed.Sprint("PASS")
			if !r.Passed {
				mark = scheme.Failed.Sprint("FAIL")
			}
			fmt.Fprintf(w, "  [%s] %s %s (actual %.4f)\n", mark, r.Metric, r.Expression, r.Actual)
			if r.Message != "" {
				fmt.Fprintf(w, "        %s\n", r.Message)
			}
		}
	}
	fmt.Fprintln(w)
}

// PrintJSONReport writes the outcome as indented JSON.
func PrintJSONReport(w io.Writer, outcome *engine.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(outcome)
}
