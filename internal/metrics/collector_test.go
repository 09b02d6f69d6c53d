package metrics

import (
	"math"
	"sync"
	"testing"
	"time"
)

func sampleWith(scenario string, d time.Duration, success bool) Sample {
	return Sample{
		Scenario: scenario,
		Status:   200,
		Duration: d,
		Success:  success,
		Tags:     map[string]string{"scenario": scenario},
	}
}

func TestEmptyCollectorSummaryIsAllZero(t *testing.T) {
	summary := NewCollector().Summary()

	if summary.TotalRequests != 0 || summary.SuccessCount != 0 || summary.ErrorCount != 0 {
		t.Fatalf("expected zero counts, got %+v", summary)
	}
	if summary.SuccessRate != 0 {
		t.Fatalf("expected zero success rate, got %f", summary.SuccessRate)
	}
	if len(summary.Metrics) != 0 {
		t.Fatalf("expected no metric series, got %d", len(summary.Metrics))
	}
}

func TestSummaryBasicStats(t *testing.T) {
	c := NewCollector()
	durations := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
	for _, d := range durations {
		c.Add(sampleWith("checkout", d, true))
	}
	c.Add(sampleWith("checkout", 400*time.Millisecond, false))

	summary := c.Summary()
	if summary.TotalRequests != 4 {
		t.Fatalf("total = %d, want 4", summary.TotalRequests)
	}
	if summary.SuccessCount != 3 || summary.ErrorCount != 1 {
		t.Fatalf("successes/errors = %d/%d, want 3/1", summary.SuccessCount, summary.ErrorCount)
	}
	if summary.SuccessRate != 75.0 {
		t.Fatalf("success rate = %f, want 75", summary.SuccessRate)
	}

	rt := summary.Metrics[SeriesResponseTime]
	if rt.Count != 4 {
		t.Fatalf("response_time count = %d, want 4", rt.Count)
	}
	if math.Abs(rt.Avg-0.25) > 1e-9 {
		t.Errorf("avg = %f, want 0.25", rt.Avg)
	}
	if math.Abs(rt.Min-0.1) > 1e-9 || math.Abs(rt.Max-0.4) > 1e-9 {
		t.Errorf("min/max = %f/%f, want 0.1/0.4", rt.Min, rt.Max)
	}

	succ := summary.Metrics[SeriesSuccess]
	if math.Abs(succ.Avg-0.75) > 1e-9 {
		t.Errorf("success avg = %f, want 0.75", succ.Avg)
	}
}

func TestPercentilesMonotonicAndConstant(t *testing.T) {
	c := NewCollector()
	for i := 1; i <= 100; i++ {
		c.Add(sampleWith("s", time.Duration(i)*time.Millisecond, true))
	}
	rt := c.Summary().Metrics[SeriesResponseTime]
	if !(rt.P50 <= rt.P90 && rt.P90 <= rt.P95 && rt.P95 <= rt.P99) {
		t.Errorf("percentiles not monotonic: p50=%f p90=%f p95=%f p99=%f", rt.P50, rt.P90, rt.P95, rt.P99)
	}

	// A constant series must report the constant at every percentile.
	c2 := NewCollector()
	for i := 0; i < 10; i++ {
		c2.Add(sampleWith("s", 250*time.Millisecond, true))
	}
	rt2 := c2.Summary().Metrics[SeriesResponseTime]
	for name, p := range map[string]float64{"p50": rt2.P50, "p90": rt2.P90, "p95": rt2.P95, "p99": rt2.P99} {
		if math.Abs(p-0.25) > 1e-9 {
			t.Errorf("%s = %f, want 0.25", name, p)
		}
	}
}

func TestNearestRankIndex(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tests := []struct {
		p    float64
		want float64
	}{
		{50, 6},  // round(0.5*9) = 5 -> value 6
		{90, 9},  // round(0.9*9) = 8 -> value 9
		{99, 10}, // round(0.99*9) = 9 -> value 10
		{0, 1},
		{100, 10},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.p); got != tt.want {
			t.Errorf("percentile(%v) = %f, want %f", tt.p, got, tt.want)
		}
	}
}

func TestCustomMetricsAndTagBuckets(t *testing.T) {
	c := NewCollector()
	c.Add(Sample{
		Scenario: "browse",
		Status:   200,
		Duration: 50 * time.Millisecond,
		Success:  true,
		Tags:     map[string]string{"region": "eu", "scenario": "browse"},
		Custom:   map[string]float64{"payload_items": 12},
	})

	summary := c.Summary()
	if stat, ok := summary.Metrics["payload_items"]; !ok || stat.Count != 1 || stat.Avg != 12 {
		t.Fatalf("payload_items stat = %+v, present=%v", stat, ok)
	}

	bucket, ok := summary.ByTag["region:eu"]
	if !ok {
		t.Fatal("expected region:eu bucket")
	}
	if bucket["payload_items"].Count != 1 {
		t.Errorf("tag bucket missing custom metric: %+v", bucket)
	}
	if bucket[SeriesResponseTime].Count != 1 {
		t.Errorf("tag bucket missing response_time: %+v", bucket)
	}
}

func TestScenarioRollup(t *testing.T) {
	c := NewCollector()
	c.Add(sampleWith("a", time.Millisecond, true))
	c.Add(sampleWith("a", time.Millisecond, false))
	c.Add(sampleWith("b", time.Millisecond, true))

	scenarios := c.Summary().Scenarios
	a := scenarios["a"]
	if a.Total != 2 || a.Successes != 1 || a.Errors != 1 || a.SuccessRate != 50 {
		t.Errorf("scenario a rollup = %+v", a)
	}
	b := scenarios["b"]
	if b.Total != 1 || b.SuccessRate != 100 {
		t.Errorf("scenario b rollup = %+v", b)
	}
}

func TestConcurrentAddsAreAllRecorded(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	const writers, perWriter = 8, 250
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				c.Add(sampleWith("load", time.Millisecond, true))
			}
		}()
	}
	wg.Wait()

	summary := c.Summary()
	if summary.TotalRequests != writers*perWriter {
		t.Fatalf("total = %d, want %d", summary.TotalRequests, writers*perWriter)
	}
	if summary.Metrics[SeriesResponseTime].Count != writers*perWriter {
		t.Fatalf("series count = %d, want %d", summary.Metrics[SeriesResponseTime].Count, writers*perWriter)
	}
}

func TestLiveSnapshot(t *testing.T) {
	c := NewCollector()
	c.Start()
	c.Add(sampleWith("s", 10*time.Millisecond, true))
	c.Add(sampleWith("s", 10*time.Millisecond, false))

	snap := c.Live()
	if snap.Total != 2 || snap.Successes != 1 || snap.Failures != 1 {
		t.Fatalf("snapshot counts = %+v", snap)
	}
	if snap.SuccessRate != 50 {
		t.Errorf("success rate = %f, want 50", snap.SuccessRate)
	}
	if snap.P99Latency <= 0 {
		t.Errorf("expected live p99 > 0, got %s", snap.P99Latency)
	}
}

func TestFriendlyErrorName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"*executor.HTTPError", "HTTP error response"},
		{"*url.Error", "Request URL error"},
		{"", "Unknown error"},
		{"mypkg.WeirdThing", "Weird thing (mypkg)"},
	}
	for _, tt := range tests {
		if got := FriendlyErrorName(tt.in); got != tt.want {
			t.Errorf("FriendlyErrorName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
