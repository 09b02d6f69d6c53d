package metrics

import (
	"math"
	"sort"
)

// Stat is the aggregate of one metric series. An empty series yields the
// zero value rather than an error.
type Stat struct {
	Count int     `json:"count"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	P50   float64 `json:"p50"`
	P90   float64 `json:"p90"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

// TagStat is the per-tag rollup of one metric series. Percentiles are not
// broken out per tag.
type TagStat struct {
	Count int     `json:"count"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// ScenarioStats is the per-scenario request rollup.
type ScenarioStats struct {
	Total       int     `json:"total_requests"`
	Successes   int     `json:"success_count"`
	Errors      int     `json:"error_count"`
	SuccessRate float64 `json:"success_rate"`
}

// Summary is the drain-time aggregation of a whole run. It is a
// deterministic function of the final sample multiset.
type Summary struct {
	TotalRequests int                           `json:"total_requests"`
	SuccessCount  int                           `json:"success_count"`
	ErrorCount    int                           `json:"error_count"`
	SuccessRate   float64                       `json:"success_rate"`
	Metrics       map[string]Stat               `json:"metrics"`
	ByTag         map[string]map[string]TagStat `json:"by_tag,omitempty"`
	Scenarios     map[string]ScenarioStats      `json:"scenarios"`
	ErrorsByType  map[string]int64              `json:"errors_by_type,omitempty"`
}

// Summary computes the final aggregation over every recorded series. Call it
// once, after the scheduler reports completion; it sorts a copy of each
// series to compute nearest-rank percentiles.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary := Summary{
		TotalRequests: len(c.samples),
		SuccessCount:  int(c.successes),
		ErrorCount:    int(c.failures),
		Metrics:       make(map[string]Stat, len(c.series)),
		Scenarios:     make(map[string]ScenarioStats),
	}
	if summary.TotalRequests > 0 {
		summary.SuccessRate = float64(summary.SuccessCount) / float64(summary.TotalRequests) * 100
	}

	for name, values := range c.series {
		summary.Metrics[name] = computeStat(values)
	}

	if len(c.byTag) > 0 {
		summary.ByTag = make(map[string]map[string]TagStat, len(c.byTag))
		for tag, bucket := range c.byTag {
			stats := make(map[string]TagStat, len(bucket))
			for name, values := range bucket {
				stats[name] = computeTagStat(values)
			}
			summary.ByTag[tag] = stats
		}
	}

	for _, sample := range c.samples {
		stats := summary.Scenarios[sample.Scenario]
		stats.Total++
		if sample.Success {
			stats.Successes++
		} else {
			stats.Errors++
		}
		summary.Scenarios[sample.Scenario] = stats
	}
	for name, stats := range summary.Scenarios {
		if stats.Total > 0 {
			stats.SuccessRate = float64(stats.Successes) / float64(stats.Total) * 100
		}
		summary.Scenarios[name] = stats
	}

	if len(c.errorsByType) > 0 {
		summary.ErrorsByType = make(map[string]int64, len(c.errorsByType))
		for k, v := range c.errorsByType {
			summary.ErrorsByType[k] = v
		}
	}

	return summary
}

func computeStat(values []float64) Stat {
	if len(values) == 0 {
		return Stat{}
	}

	stat := Stat{Count: len(values), Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, v := range values {
		sum += v
		if v < stat.Min {
			stat.Min = v
		}
		if v > stat.Max {
			stat.Max = v
		}
	}
	stat.Avg = sum / float64(len(values))

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	stat.P50 = percentile(sorted, 50)
	stat.P90 = percentile(sorted, 90)
	stat.P95 = percentile(sorted, 95)
	stat.P99 = percentile(sorted, 99)
	return stat
}

func computeTagStat(values []float64) TagStat {
	if len(values) == 0 {
		return TagStat{}
	}
	stat := TagStat{Count: len(values), Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, v := range values {
		sum += v
		if v < stat.Min {
			stat.Min = v
		}
		if v > stat.Max {
			stat.Max = v
		}
	}
	stat.Avg = sum / float64(len(values))
	return stat
}

// percentile implements the nearest-rank statistic over an ascending series:
// index = round(p/100 * (n-1)).
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(math.Round(p / 100 * float64(len(sorted)-1)))
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
