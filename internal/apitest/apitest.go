// Package apitest runs single-shot API functional checks with retry,
// response assertions and optional data feeds.
package apitest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/firedrill-labs/firedrill/internal/config"
	"github.com/firedrill-labs/firedrill/internal/executor"
	"github.com/firedrill-labs/firedrill/internal/feeder"
	"github.com/firedrill-labs/firedrill/internal/variables"
)

const maxBodyBytes = 1 << 20

// AssertionResult records one assertion check against a response body.
type AssertionResult struct {
	JSONPath string `json:"json_path"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message,omitempty"`
}

// Result is the outcome of one API check.
type Result struct {
	Name       string            `json:"name"`
	Passed     bool              `json:"passed"`
	StatusCode int               `json:"status_code"`
	Duration   time.Duration     `json:"-"`
	Attempts   int               `json:"attempts"`
	Assertions []AssertionResult `json:"assertions,omitempty"`
	Record     feeder.Record     `json:"record,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Logger receives progress output.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

// jitterSource produces randomized backoff jitter behind a lock.
type jitterSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (j *jitterSource) jitter(max time.Duration) time.Duration {
	if j == nil || max <= 0 {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return time.Duration(j.rnd.Int63n(int64(max)))
}

// Runner executes one APIConfig, once per feed record when a feed is
// configured.
type Runner struct {
	cfg    *config.APIConfig
	client *http.Client
	logger Logger
	jitter *jitterSource
}

// New creates a runner for cfg. client may be nil.
func New(cfg *config.APIConfig, client *http.Client, logger Logger) *Runner {
	if client == nil {
		client = executor.NewClient(cfg.Timeout())
	}
	return &Runner{
		cfg:    cfg,
		client: client,
		logger: logger,
		jitter: &jitterSource{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))},
	}
}

// Run executes the check and returns one result per feed record, or a
// single result when no feed is configured.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	if r.cfg.FeedPath == "" {
		return []Result{r.runOnce(ctx, nil)}, nil
	}

	feed, err := feeder.Open(r.cfg.FeedPath)
	if err != nil {
		return nil, err
	}
	feed.SetCycle(false)

	var results []Result
	for {
		record, err := feed.Next()
		if errors.Is(err, feeder.ErrExhausted) {
			break
		}
		if err != nil {
			return results, err
		}
		results = append(results, r.runOnce(ctx, record))
		if ctx.Err() != nil {
			break
		}
	}
	return results, nil
}

// runOnce performs the request with retries and evaluates assertions.
func (r *Runner) runOnce(ctx context.Context, record feeder.Record) Result {
	vars := variables.NewStore(record)
	result := Result{Name: r.cfg.Name, Record: record}

	start := time.Now()
	status, body, attempts, err := r.request(ctx, vars)
	result.Duration = time.Since(start)
	result.StatusCode = status
	result.Attempts = attempts

	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Passed = r.statusExpected(status)
	if !result.Passed {
		result.Error = fmt.Sprintf("unexpected status %d", status)
	}

	for _, assertion := range r.cfg.Assertions {
		ar := checkAssertion(body, assertion)
		result.Assertions = append(result.Assertions, ar)
		if !ar.Passed {
			result.Passed = false
		}
	}
	return result
}

// request performs the HTTP call with the configured retry policy.
// attempts is the number of calls actually made.
func (r *Runner) request(ctx context.Context, vars *variables.Store) (status int, body []byte, attempts int, err error) {
	maxAttempts := int(r.cfg.Retry.MaxRetries) + 1

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt
		if ctx.Err() != nil {
			return 0, nil, attempts, ctx.Err()
		}

		status, body, err = r.do(ctx, vars)
		if err == nil && !r.cfg.Retry.RetryableStatus(status) {
			return status, body, attempts, nil
		}
		if err != nil && !r.shouldRetry(err) {
			return 0, nil, attempts, err
		}
		if attempt == maxAttempts {
			break
		}

		delay := r.backoff(attempt)
		r.logf("attempt %d for %q failed, retrying in %s", attempt, r.cfg.Name, delay.Round(time.Millisecond))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, nil, attempts, ctx.Err()
		}
	}
	if err != nil {
		return 0, nil, attempts, err
	}
	return status, body, attempts, nil
}

func (r *Runner) do(ctx context.Context, vars *variables.Store) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout())
	defer cancel()

	url := vars.Expand(r.cfg.URL)
	var bodyReader io.Reader
	if r.cfg.Body != "" {
		bodyReader = strings.NewReader(vars.Expand(r.cfg.Body))
	}
	req, err := http.NewRequestWithContext(reqCtx, strings.ToUpper(r.cfg.Method), url, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	for key, value := range vars.ExpandMap(r.cfg.Headers) {
		req.Header.Set(key, value)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (r *Runner) shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return r.cfg.Retry.RetryOnTimeout
	}
	return r.cfg.Retry.RetryOnConnClose
}

func (r *Runner) backoff(attempt int) time.Duration {
	delay := float64(r.cfg.Retry.InitialDelay())
	for i := 1; i < attempt; i++ {
		delay *= r.cfg.Retry.Multiplier()
	}
	d := time.Duration(delay)
	if max := r.cfg.Retry.MaxDelay(); d > max {
		d = max
	}
	fraction := r.cfg.Retry.JitterFraction
	if fraction <= 0 {
		fraction = 0.5
	}
	return d + r.jitter.jitter(time.Duration(float64(d)*fraction))
}

func (r *Runner) statusExpected(status int) bool {
	if len(r.cfg.ExpectStatus) == 0 {
		return status >= 200 && status < 300
	}
	for _, want := range r.cfg.ExpectStatus {
		if status == want {
			return true
		}
	}
	return false
}

func (r *Runner) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Info(format, args...)
	}
}

// checkAssertion evaluates one assertion against a response body.
func checkAssertion(body []byte, assertion config.Assertion) AssertionResult {
	result := AssertionResult{JSONPath: assertion.JSONPath}

	path := strings.TrimPrefix(assertion.JSONPath, "$.")
	value := gjson.GetBytes(body, path)
	if !value.Exists() {
		if assertion.Exists || assertion.Equals != "" || assertion.Contains != "" {
			result.Message = fmt.Sprintf("path %s not found", assertion.JSONPath)
			return result
		}
		result.Passed = true
		return result
	}

	if assertion.Equals != "" && value.String() != assertion.Equals {
		result.Message = fmt.Sprintf("got %q, want %q", value.String(), assertion.Equals)
		return result
	}
	if assertion.Contains != "" && !strings.Contains(value.String(), assertion.Contains) {
		result.Message = fmt.Sprintf("%q does not contain %q", value.String(), assertion.Contains)
		return result
	}
	result.Passed = true
	return result
}
