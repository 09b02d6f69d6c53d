package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/firedrill-labs/firedrill/internal/engine"
	"github.com/firedrill-labs/firedrill/internal/metrics"
	"github.com/firedrill-labs/firedrill/internal/threshold"
)

func sampleOutcome() *engine.Outcome {
	return &engine.Outcome{
		ID:           "01J8TESTRUN000000000000000",
		Name:         "checkout-load",
		Environment:  "staging",
		Status:       engine.StatusFailed,
		StartedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Duration:     90 * time.Second,
		DurationSecs: 90,
		Summary: metrics.Summary{
			TotalRequests: 1000,
			SuccessCount:  940,
			ErrorCount:    60,
			SuccessRate:   94,
			Metrics: map[string]metrics.Stat{
				metrics.SeriesResponseTime: {
					Count: 1000, Avg: 0.25, Min: 0.01, Max: 2.5,
					P50: 0.2, P90: 0.5, P95: 0.8, P99: 1.9,
				},
			},
			Scenarios: map[string]metrics.ScenarioStats{
				"browse":   {Total: 700, Successes: 700, SuccessRate: 100},
				"checkout": {Total: 300, Successes: 240, Errors: 60, SuccessRate: 80},
			},
		},
		ThresholdResults: []threshold.Result{
			{Metric: "response_time.p95", Expression: "< 0.5", Actual: 0.8, Passed: false},
			{Metric: "response_time.p50", Expression: "< 0.5", Actual: 0.2, Passed: true},
		},
	}
}

func noColorScheme() *ColorScheme {
	s := DefaultColorScheme()
	s.disable()
	return s
}

func TestPrintReportContents(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, sampleOutcome(), noColorScheme())
	out := buf.String()

	for _, want := range []string{
		"checkout-load",
		"FAILED",
		"Total Requests:  1000",
		"Success Rate:    94.00%",
		"P95:  0.8000",
		"browse: total=700",
		"[FAIL] response_time.p95 < 0.5",
		"[PASS] response_time.p50 < 0.5",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\n%s", want, out)
		}
	}
}

func TestPrintJSONReportRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSONReport(&buf, sampleOutcome()); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["status"] != "failed" {
		t.Errorf("status = %v, want failed", decoded["status"])
	}
	if decoded["id"] == "" {
		t.Error("id missing from JSON report")
	}
}

func TestWriteJUnitReport(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJUnitReport(&buf, sampleOutcome()); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		XMLName xml.Name `xml:"testsuites"`
		Suites  []struct {
			Tests    int `xml:"tests,attr"`
			Failures int `xml:"failures,attr"`
			Cases    []struct {
				Name    string `xml:"name,attr"`
				Failure *struct {
					Message string `xml:"message,attr"`
				} `xml:"failure"`
			} `xml:"testcase"`
		} `xml:"testsuite"`
	}
	if err := xml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid XML: %v", err)
	}
	if len(doc.Suites) != 1 {
		t.Fatalf("suites = %d, want 1", len(doc.Suites))
	}
	suite := doc.Suites[0]
	// 2 scenarios + 2 thresholds.
	if suite.Tests != 4 {
		t.Errorf("tests = %d, want 4", suite.Tests)
	}
	// checkout scenario + failed p95 threshold.
	if suite.Failures != 2 {
		t.Errorf("failures = %d, want 2", suite.Failures)
	}
}

func TestWriteCSVReport(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSVReport(&buf, sampleOutcome()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// header + 1 metric + 2 scenarios
	if len(lines) != 4 {
		t.Fatalf("lines = %d, want 4:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "metric,response_time,1000") {
		t.Errorf("metric row = %q", lines[1])
	}
}

func TestWriteHTMLReport(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTMLReport(&buf, sampleOutcome()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"<title>checkout-load - Performance Report</title>",
		`class="status failed"`,
		"checkout",
		"response_time.p95",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("html report missing %q", want)
		}
	}
}

func TestStreamerThrottles(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamer(&buf, time.Hour)
	snap := metrics.LiveSnapshot{Total: 10, Successes: 9, Failures: 1, SuccessRate: 90}
	s.OnSnapshot(snap)
	s.OnSnapshot(snap)
	s.OnSnapshot(snap)
	lines := strings.Count(buf.String(), "\n")
	if lines != 1 {
		t.Errorf("printed %d lines, want 1 within interval", lines)
	}
	if !strings.Contains(buf.String(), "requests=10") {
		t.Errorf("stream line = %q", buf.String())
	}
}
