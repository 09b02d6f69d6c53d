package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/firedrill-labs/firedrill/internal/extractor"
	"github.com/firedrill-labs/firedrill/internal/scenario"
)

// RetryConfig controls retries for single API checks and collection steps.
// Delays grow exponentially from InitialDelayMs up to MaxDelayMs with
// jitter applied per attempt.
type RetryConfig struct {
	MaxRetries           uint32  `mapstructure:"max_retries" json:"max_retries" yaml:"max_retries"`
	InitialDelayMs       uint64  `mapstructure:"initial_delay_ms" json:"initial_delay_ms" yaml:"initial_delay_ms"`
	MaxDelayMs           uint64  `mapstructure:"max_delay_ms" json:"max_delay_ms" yaml:"max_delay_ms"`
	RetryStatusCodes     []int   `mapstructure:"retry_status_codes" json:"retry_status_codes,omitempty" yaml:"retry_status_codes,omitempty"`
	RetryOnTimeout       bool    `mapstructure:"retry_on_timeout" json:"retry_on_timeout" yaml:"retry_on_timeout"`
	RetryOnConnClose     bool    `mapstructure:"retry_on_connection_error" json:"retry_on_connection_error" yaml:"retry_on_connection_error"`
	BackoffMultiplier    float64 `mapstructure:"backoff_multiplier" json:"backoff_multiplier" yaml:"backoff_multiplier"`
	JitterFraction       float64 `mapstructure:"jitter_fraction" json:"jitter_fraction" yaml:"jitter_fraction"`
}

// InitialDelay returns the first retry delay.
func (r RetryConfig) InitialDelay() time.Duration {
	if r.InitialDelayMs == 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(r.InitialDelayMs) * time.Millisecond
}

// MaxDelay returns the retry delay ceiling.
func (r RetryConfig) MaxDelay() time.Duration {
	if r.MaxDelayMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(r.MaxDelayMs) * time.Millisecond
}

// Multiplier returns the backoff growth factor.
func (r RetryConfig) Multiplier() float64 {
	if r.BackoffMultiplier <= 1 {
		return 2
	}
	return r.BackoffMultiplier
}

// RetryableStatus reports whether a response status should trigger a retry.
func (r RetryConfig) RetryableStatus(status int) bool {
	if len(r.RetryStatusCodes) == 0 {
		return status == 429 || status >= 500
	}
	for _, code := range r.RetryStatusCodes {
		if code == status {
			return true
		}
	}
	return false
}

// Assertion checks one value extracted from a response body.
type Assertion struct {
	JSONPath string `mapstructure:"json_path" json:"json_path" yaml:"json_path"`
	Equals   string `mapstructure:"equals" json:"equals,omitempty" yaml:"equals,omitempty"`
	Contains string `mapstructure:"contains" json:"contains,omitempty" yaml:"contains,omitempty"`
	Exists   bool   `mapstructure:"exists" json:"exists,omitempty" yaml:"exists,omitempty"`
}

// APIConfig configures a single API functional check.
type APIConfig struct {
	Name         string            `mapstructure:"name" json:"name" yaml:"name"`
	URL          string            `mapstructure:"url" json:"url" yaml:"url"`
	Method       string            `mapstructure:"method" json:"method" yaml:"method"`
	Headers      map[string]string `mapstructure:"headers" json:"headers,omitempty" yaml:"headers,omitempty"`
	Body         string            `mapstructure:"body" json:"body,omitempty" yaml:"body,omitempty"`
	TimeoutSecs  uint64            `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
	ExpectStatus []int             `mapstructure:"expect_status" json:"expect_status,omitempty" yaml:"expect_status,omitempty"`
	Assertions   []Assertion       `mapstructure:"assertions" json:"assertions,omitempty" yaml:"assertions,omitempty"`
	Retry        RetryConfig       `mapstructure:"retry" json:"retry,omitempty" yaml:"retry,omitempty"`
	FeedPath     string            `mapstructure:"feed" json:"feed,omitempty" yaml:"feed,omitempty"`
	ConfigFile   string            `mapstructure:"-" json:"-" yaml:"-"`
}

// Timeout returns the request timeout.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSecs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Validate checks the request definition.
func (c APIConfig) Validate() error {
	var issues []string
	if strings.TrimSpace(c.Name) == "" {
		issues = append(issues, "name is required")
	}
	if strings.TrimSpace(c.URL) == "" {
		issues = append(issues, "url is required")
	}
	sc := scenario.Scenario{Name: c.Name, URL: c.URL, Method: c.Method}
	if err := sc.Validate(); err != nil && strings.TrimSpace(c.URL) != "" && strings.TrimSpace(c.Name) != "" {
		issues = append(issues, err.Error())
	}
	for i, a := range c.Assertions {
		if strings.TrimSpace(a.JSONPath) == "" {
			issues = append(issues, fmt.Sprintf("assertion %d: json_path is required", i))
		}
	}
	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// Step is one request in a collection. Steps run in declaration order;
// a step whose dependency failed is skipped.
type Step struct {
	Name         string              `mapstructure:"name" json:"name" yaml:"name"`
	URL          string              `mapstructure:"url" json:"url" yaml:"url"`
	Method       string              `mapstructure:"method" json:"method" yaml:"method"`
	Headers      map[string]string   `mapstructure:"headers" json:"headers,omitempty" yaml:"headers,omitempty"`
	Body         string              `mapstructure:"body" json:"body,omitempty" yaml:"body,omitempty"`
	DependsOn    string              `mapstructure:"depends_on" json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	ExpectStatus []int               `mapstructure:"expect_status" json:"expect_status,omitempty" yaml:"expect_status,omitempty"`
	Capture      []extractor.Capture `mapstructure:"capture" json:"capture,omitempty" yaml:"capture,omitempty"`
	Assertions   []Assertion         `mapstructure:"assertions" json:"assertions,omitempty" yaml:"assertions,omitempty"`
}

// CollectionConfig configures an ordered multi-step API flow with
// variable capture between steps.
type CollectionConfig struct {
	Name        string            `mapstructure:"name" json:"name" yaml:"name"`
	Description string            `mapstructure:"description" json:"description,omitempty" yaml:"description,omitempty"`
	Variables   map[string]string `mapstructure:"variables" json:"variables,omitempty" yaml:"variables,omitempty"`
	TimeoutSecs uint64            `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
	Steps       []Step            `mapstructure:"steps" json:"steps" yaml:"steps"`
	Retry       RetryConfig       `mapstructure:"retry" json:"retry,omitempty" yaml:"retry,omitempty"`
	ConfigFile  string            `mapstructure:"-" json:"-" yaml:"-"`
}

// Timeout returns the per-step timeout.
func (c CollectionConfig) Timeout() time.Duration {
	if c.TimeoutSecs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Validate checks step ordering and dependency references.
func (c CollectionConfig) Validate() error {
	var issues []string
	if strings.TrimSpace(c.Name) == "" {
		issues = append(issues, "name is required")
	}
	if len(c.Steps) == 0 {
		issues = append(issues, "at least one step is required")
	}
	seen := make(map[string]bool, len(c.Steps))
	for i, step := range c.Steps {
		if strings.TrimSpace(step.Name) == "" {
			issues = append(issues, fmt.Sprintf("step %d: name is required", i))
			continue
		}
		if seen[step.Name] {
			issues = append(issues, fmt.Sprintf("step %q: duplicate name", step.Name))
		}
		if strings.TrimSpace(step.URL) == "" {
			issues = append(issues, fmt.Sprintf("step %q: url is required", step.Name))
		}
		if step.DependsOn != "" && !seen[step.DependsOn] {
			issues = append(issues, fmt.Sprintf("step %q: depends_on %q does not name an earlier step", step.Name, step.DependsOn))
		}
		seen[step.Name] = true
	}
	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}
