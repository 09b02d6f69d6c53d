// Package threshold parses and evaluates declarative pass/fail conditions
// against an aggregated metrics summary.
package threshold

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/firedrill-labs/firedrill/internal/metrics"
)

// Threshold is one declarative assertion. Metric references a summary series
// and statistic as "<group>.<stat>", e.g. "response_time.p95". Expression is
// "<op> <value>" with op in {<, <=, >, >=, ==, !=}.
type Threshold struct {
	Metric      string `mapstructure:"metric" json:"metric" yaml:"metric"`
	Expression  string `mapstructure:"expression" json:"expression" yaml:"expression"`
	AbortOnFail bool   `mapstructure:"abort_on_fail" json:"abort_on_fail" yaml:"abort_on_fail"`
}

// Result is the outcome of evaluating one threshold. A threshold that could
// not be evaluated (unknown metric, malformed expression) counts as failed;
// it never aborts the run.
type Result struct {
	Metric      string  `json:"metric"`
	Expression  string  `json:"expression"`
	Actual      float64 `json:"actual"`
	Passed      bool    `json:"passed"`
	AbortOnFail bool    `json:"abort_on_fail"`
	Message     string  `json:"message,omitempty"`
}

// Logger receives warnings for thresholds that could not be evaluated.
type Logger interface {
	Warn(format string, args ...interface{})
}

// Evaluator evaluates a fixed set of thresholds.
type Evaluator struct {
	thresholds []Threshold
	logger     Logger
}

// NewEvaluator creates an evaluator. logger may be nil to suppress warnings.
func NewEvaluator(thresholds []Threshold, logger Logger) *Evaluator {
	return &Evaluator{thresholds: thresholds, logger: logger}
}

// Evaluate checks every threshold against the summary.
func (e *Evaluator) Evaluate(summary metrics.Summary) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}
	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, e.evaluateOne(t, summary))
	}
	return results
}

func (e *Evaluator) evaluateOne(t Threshold, summary metrics.Summary) Result {
	result := Result{
		Metric:      t.Metric,
		Expression:  t.Expression,
		AbortOnFail: t.AbortOnFail,
	}

	actual, err := lookupMetric(summary, t.Metric)
	if err != nil {
		e.warn("threshold %q: %v", t.Metric, err)
		result.Message = err.Error()
		return result
	}
	result.Actual = actual

	op, value, err := parseExpression(t.Expression)
	if err != nil {
		e.warn("threshold %q: %v", t.Metric, err)
		result.Message = err.Error()
		return result
	}

	result.Passed = compare(actual, op, value)
	result.Message = fmt.Sprintf("%s = %.4f, expected %s %g", t.Metric, actual, op, value)
	return result
}

func (e *Evaluator) warn(format string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Warn(format, args...)
	}
}

// lookupMetric resolves a "<group>.<stat>" reference in the summary.
func lookupMetric(summary metrics.Summary, ref string) (float64, error) {
	parts := strings.Split(ref, ".")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid metric reference %q (expected <group>.<stat>)", ref)
	}
	group, statName := parts[0], parts[1]

	stat, ok := summary.Metrics[group]
	if !ok {
		return 0, fmt.Errorf("unknown metric group %q", group)
	}

	switch statName {
	case "count":
		return float64(stat.Count), nil
	case "avg", "mean":
		return stat.Avg, nil
	case "min":
		return stat.Min, nil
	case "max":
		return stat.Max, nil
	case "p50":
		return stat.P50, nil
	case "p90":
		return stat.P90, nil
	case "p95":
		return stat.P95, nil
	case "p99":
		return stat.P99, nil
	default:
		return 0, fmt.Errorf("unknown statistic %q for metric %q", statName, group)
	}
}

// parseExpression splits "<op> <value>" into its parts.
func parseExpression(expr string) (string, float64, error) {
	fields := strings.Fields(expr)
	if len(fields) != 2 {
		return "", 0, fmt.Errorf("invalid threshold expression %q (expected \"<op> <value>\")", expr)
	}

	op := fields[0]
	switch op {
	case "<", "<=", ">", ">=", "==", "!=":
	default:
		return "", 0, fmt.Errorf("unsupported operator %q", op)
	}

	value, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid threshold value %q", fields[1])
	}
	return op, value, nil
}

func compare(actual float64, op string, expected float64) bool {
	const epsilon = 1e-9
	switch op {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected
	case "==":
		return math.Abs(actual-expected) < epsilon
	case "!=":
		return math.Abs(actual-expected) >= epsilon
	default:
		return false
	}
}
