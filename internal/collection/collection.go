// Package collection runs ordered multi-step API flows, capturing values
// from responses into variables that later steps reference with {{name}}.
package collection

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/firedrill-labs/firedrill/internal/config"
	"github.com/firedrill-labs/firedrill/internal/executor"
	"github.com/firedrill-labs/firedrill/internal/extractor"
	"github.com/firedrill-labs/firedrill/internal/variables"
)

const maxBodyBytes = 1 << 20

// Step states.
const (
	StepPassed  = "passed"
	StepFailed  = "failed"
	StepSkipped = "skipped"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Name       string            `json:"name"`
	Status     string            `json:"status"`
	StatusCode int               `json:"status_code,omitempty"`
	Duration   time.Duration     `json:"-"`
	Captured   map[string]string `json:"captured,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Result is the outcome of a whole collection run.
type Result struct {
	Name    string        `json:"name"`
	Passed  bool          `json:"passed"`
	Steps   []StepResult  `json:"steps"`
	Elapsed time.Duration `json:"-"`
}

// Logger receives progress and warning output.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

// Runner executes one collection configuration.
type Runner struct {
	cfg    *config.CollectionConfig
	client *http.Client
	logger Logger
}

// New creates a runner for cfg. client may be nil.
func New(cfg *config.CollectionConfig, client *http.Client, logger Logger) *Runner {
	if client == nil {
		client = executor.NewClient(cfg.Timeout())
	}
	return &Runner{cfg: cfg, client: client, logger: logger}
}

// Run executes every step in order. A step whose depends_on step did not
// pass is skipped rather than run against an incomplete state.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	vars := variables.NewStore(r.cfg.Variables)
	result := &Result{Name: r.cfg.Name, Passed: true}
	status := make(map[string]string, len(r.cfg.Steps))

	start := time.Now()
	for _, step := range r.cfg.Steps {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		if step.DependsOn != "" && status[step.DependsOn] != StepPassed {
			r.logf("skipping step %q: dependency %q did not pass", step.Name, step.DependsOn)
			sr := StepResult{Name: step.Name, Status: StepSkipped}
			status[step.Name] = StepSkipped
			result.Steps = append(result.Steps, sr)
			result.Passed = false
			continue
		}

		sr := r.runStep(ctx, step, vars)
		status[step.Name] = sr.Status
		result.Steps = append(result.Steps, sr)
		if sr.Status != StepPassed {
			result.Passed = false
		}
	}
	result.Elapsed = time.Since(start)
	return result, nil
}

func (r *Runner) runStep(ctx context.Context, step config.Step, vars *variables.Store) StepResult {
	sr := StepResult{Name: step.Name, Status: StepFailed}

	start := time.Now()
	statusCode, body, err := r.do(ctx, step, vars)
	sr.Duration = time.Since(start)
	sr.StatusCode = statusCode

	if err != nil {
		sr.Error = err.Error()
		return sr
	}
	if !statusExpected(statusCode, step.ExpectStatus) {
		sr.Error = fmt.Sprintf("unexpected status %d", statusCode)
		return sr
	}

	for _, assertion := range step.Assertions {
		path := strings.TrimPrefix(assertion.JSONPath, "$.")
		value := gjson.GetBytes(body, path)
		switch {
		case !value.Exists():
			sr.Error = fmt.Sprintf("assertion path %s not found", assertion.JSONPath)
			return sr
		case assertion.Equals != "" && value.String() != assertion.Equals:
			sr.Error = fmt.Sprintf("assertion %s: got %q, want %q", assertion.JSONPath, value.String(), assertion.Equals)
			return sr
		case assertion.Contains != "" && !strings.Contains(value.String(), assertion.Contains):
			sr.Error = fmt.Sprintf("assertion %s: %q does not contain %q", assertion.JSONPath, value.String(), assertion.Contains)
			return sr
		}
	}

	if len(step.Capture) > 0 {
		captured := extractor.CaptureAll(body, step.Capture, warnAdapter{r.logger})
		vars.SetAll(captured)
		sr.Captured = captured
	}

	sr.Status = StepPassed
	return sr
}

func (r *Runner) do(ctx context.Context, step config.Step, vars *variables.Store) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout())
	defer cancel()

	method := step.Method
	if method == "" {
		method = http.MethodGet
	}
	var bodyReader io.Reader
	if step.Body != "" {
		bodyReader = strings.NewReader(vars.Expand(step.Body))
	}
	req, err := http.NewRequestWithContext(reqCtx, strings.ToUpper(method), vars.Expand(step.URL), bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	for key, value := range vars.ExpandMap(step.Headers) {
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

func statusExpected(status int, expect []int) bool {
	if len(expect) == 0 {
		return status >= 200 && status < 300
	}
	for _, want := range expect {
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

// warnAdapter exposes the runner logger to the extractor.
type warnAdapter struct {
	l Logger
}

func (w warnAdapter) Warn(format string, args ...any) {
	if w.l != nil {
		w.l.Warn(format, args...)
	}
}
