package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Collector aggregates samples from concurrent iterations. All writes go
// through a single coarse lock; critical sections are short appends. The
// full Summary is only computed after the run has drained, so readers never
// race a snapshot against writers.
type Collector struct {
	mu           sync.Mutex
	samples      []Sample
	series       map[string][]float64
	byTag        map[string]map[string][]float64
	hist         *hdrhistogram.Histogram
	successes    int64
	failures     int64
	errorsByType map[string]int64
	start        time.Time
}

// NewCollector creates an empty collector. The live histogram tracks
// latencies from 1µs to 60s at 3 significant figures.
func NewCollector() *Collector {
	return &Collector{
		series:       make(map[string][]float64),
		byTag:        make(map[string]map[string][]float64),
		hist:         hdrhistogram.New(1, 60_000_000, 3),
		errorsByType: make(map[string]int64),
		start:        time.Now(),
	}
}

// Start marks the beginning of the run for rate calculations in live
// snapshots.
func (c *Collector) Start() {
	c.mu.Lock()
	c.start = time.Now()
	c.mu.Unlock()
}

// Add records one sample: the global response_time/success series, any
// custom metric series, and a replicated bucket per tag keyed
// "tagName:tagValue".
func (c *Collector) Add(sample Sample) {
	seconds := sample.Duration.Seconds()
	success := 0.0
	if sample.Success {
		success = 1.0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.appendLocked(SeriesResponseTime, seconds)
	c.appendLocked(SeriesSuccess, success)
	for name, value := range sample.Custom {
		c.appendLocked(name, value)
	}

	for tagName, tagValue := range sample.Tags {
		key := tagName + ":" + tagValue
		c.appendTagLocked(key, SeriesResponseTime, seconds)
		c.appendTagLocked(key, SeriesSuccess, success)
		for name, value := range sample.Custom {
			c.appendTagLocked(key, name, value)
		}
	}

	if sample.Success {
		c.successes++
	} else {
		c.failures++
		if sample.Err != nil {
			name := fmt.Sprintf("%T", sample.Err)
			if len(name) > 30 {
				name = name[len(name)-30:]
			}
			c.errorsByType[name]++
		}
	}

	if us := sample.Duration.Microseconds(); us > 0 {
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}

	c.samples = append(c.samples, sample)
}

func (c *Collector) appendLocked(name string, value float64) {
	c.series[name] = append(c.series[name], value)
}

func (c *Collector) appendTagLocked(tag, name string, value float64) {
	bucket, ok := c.byTag[tag]
	if !ok {
		bucket = make(map[string][]float64)
		c.byTag[tag] = bucket
	}
	bucket[name] = append(bucket[name], value)
}

// Count returns the number of recorded samples.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}

// LiveSnapshot is a cheap point-in-time view for streaming output while the
// run is still producing samples. Percentiles come from the HDR histogram,
// not from the exact drain-time computation.
type LiveSnapshot struct {
	Elapsed        time.Duration
	Total          int64
	Successes      int64
	Failures       int64
	SuccessRate    float64
	RequestsPerSec float64
	P50Latency     time.Duration
	P95Latency     time.Duration
	P99Latency     time.Duration
	MeanLatency    time.Duration
	ErrorsByType   map[string]int64
}

// Live returns the current streaming snapshot.
func (c *Collector) Live() LiveSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.start)
	total := c.successes + c.failures
	snap := LiveSnapshot{
		Elapsed:   elapsed,
		Total:     total,
		Successes: c.successes,
		Failures:  c.failures,
	}
	if total > 0 {
		snap.SuccessRate = float64(c.successes) / float64(total) * 100
	}
	if elapsed > 0 && total > 0 {
		snap.RequestsPerSec = float64(total) / elapsed.Seconds()
	}
	if c.hist.TotalCount() > 0 {
		snap.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		snap.P95Latency = time.Duration(c.hist.ValueAtQuantile(95)) * time.Microsecond
		snap.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
		snap.MeanLatency = time.Duration(c.hist.Mean()) * time.Microsecond
	}
	if len(c.errorsByType) > 0 {
		snap.ErrorsByType = make(map[string]int64, len(c.errorsByType))
		for k, v := range c.errorsByType {
			snap.ErrorsByType[k] = v
		}
	}
	return snap
}
