package metrics

import "time"

// Built-in series names recorded for every sample.
const (
	SeriesResponseTime = "response_time"
	SeriesSuccess      = "success"
)

// Sample is the result of one scenario iteration. It is created by the
// executor when the call completes and handed to the Collector, which owns
// it for the rest of the run.
type Sample struct {
	Scenario string
	Status   int
	Duration time.Duration
	Success  bool
	Tags     map[string]string
	Custom   map[string]float64
	Err      error
}
