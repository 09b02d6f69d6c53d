// Package executor issues one HTTP call per virtual-user iteration and
// turns the outcome into a metrics sample.
package executor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/firedrill-labs/firedrill/internal/extractor"
	"github.com/firedrill-labs/firedrill/internal/metrics"
	"github.com/firedrill-labs/firedrill/internal/scenario"
	"github.com/firedrill-labs/firedrill/internal/tracing"
)

const maxBodyReadSize = 1024 * 1024

// HTTPError represents a non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Executor runs scenario iterations against the target.
type Executor struct {
	client *http.Client
	tracer trace.Tracer
	logger extractor.Logger
}

// New creates an executor using the given client. tracer and logger may be
// nil.
func New(client *http.Client, tracer trace.Tracer, logger extractor.Logger) *Executor {
	if client == nil {
		client = NewClient(30 * time.Second)
	}
	return &Executor{client: client, tracer: tracer, logger: logger}
}

// Execute performs one request for the scenario and returns the resulting
// sample. Transport failures (connection refused, timeout) are recorded as
// failed samples with status 0 so the metric denominator stays correct.
func (e *Executor) Execute(ctx context.Context, sc scenario.Scenario) metrics.Sample {
	if ctx == nil {
		ctx = context.Background()
	}

	var span trace.Span
	if e.tracer != nil {
		ctx, span = tracing.StartIterationSpan(ctx, e.tracer, sc.Name, sc.NormalizedMethod())
	}

	start := time.Now()
	sample := e.execute(ctx, sc, start)

	if span != nil {
		tracing.EndSpan(span, sample.Err,
			attribute.Int("http.status_code", sample.Status),
			attribute.Bool("firedrill.success", sample.Success),
		)
	}
	return sample
}

func (e *Executor) execute(ctx context.Context, sc scenario.Scenario, start time.Time) metrics.Sample {
	var bodyReader io.Reader
	if sc.Body != "" {
		bodyReader = strings.NewReader(sc.Body)
	}

	req, err := http.NewRequestWithContext(ctx, sc.NormalizedMethod(), sc.URL, bodyReader)
	if err != nil {
		return e.failedSample(sc, time.Since(start), 0, err)
	}
	for key, value := range sc.Headers {
		req.Header.Set(key, value)
	}

	resp, err := e.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		return e.failedSample(sc, duration, 0, err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyReadSize))
	if readErr != nil {
		body = nil
	}

	status := resp.StatusCode
	success := status >= 200 && status < 300

	custom := map[string]float64{"status_code": float64(status)}
	for _, m := range sc.Metrics {
		if value, ok := extractor.Number(body, m.JSONPath, e.logger); ok {
			custom[m.Name] = value
		}
	}

	var sampleErr error
	if !success {
		snippet := body
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		sampleErr = &HTTPError{StatusCode: status, Body: strings.TrimSpace(string(snippet))}
	}

	return metrics.Sample{
		Scenario: sc.Name,
		Status:   status,
		Duration: duration,
		Success:  success,
		Tags:     sampleTags(sc, strconv.Itoa(status)),
		Custom:   custom,
		Err:      sampleErr,
	}
}

// failedSample covers request-build and transport errors. The iteration is
// not dropped: it counts as a failed sample with status 0.
func (e *Executor) failedSample(sc scenario.Scenario, duration time.Duration, status int, err error) metrics.Sample {
	return metrics.Sample{
		Scenario: sc.Name,
		Status:   status,
		Duration: duration,
		Success:  false,
		Tags:     sampleTags(sc, strconv.Itoa(status)),
		Custom:   map[string]float64{"status_code": float64(status)},
		Err:      err,
	}
}

// sampleTags merges synthetic tags with the scenario's user tags. User tags
// win on key collision.
func sampleTags(sc scenario.Scenario, status string) map[string]string {
	tags := map[string]string{
		"scenario": sc.Name,
		"method":   sc.NormalizedMethod(),
		"status":   status,
	}
	for key, value := range sc.Tags {
		tags[key] = value
	}
	return tags
}
