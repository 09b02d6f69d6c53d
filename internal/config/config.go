// Package config defines the declarative test configurations and loads them
// from files with environment substitution, schema validation and CLI
// overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/firedrill-labs/firedrill/internal/profile"
	"github.com/firedrill-labs/firedrill/internal/scenario"
	"github.com/firedrill-labs/firedrill/internal/threshold"
	"github.com/firedrill-labs/firedrill/internal/tracing"
)

// OutputConfig selects report destinations. The console report is always
// produced unless JSON is set.
type OutputConfig struct {
	JSON       bool   `mapstructure:"json" json:"json" yaml:"json"`
	ResultPath string `mapstructure:"result_path" json:"result_path,omitempty" yaml:"result_path,omitempty"`
	HTMLPath   string `mapstructure:"html_path" json:"html_path,omitempty" yaml:"html_path,omitempty"`
	CSVPath    string `mapstructure:"csv_path" json:"csv_path,omitempty" yaml:"csv_path,omitempty"`
	XMLPath    string `mapstructure:"xml_path" json:"xml_path,omitempty" yaml:"xml_path,omitempty"`
}

// PerfConfig configures one performance test run.
type PerfConfig struct {
	Name                string                `mapstructure:"name" json:"name" yaml:"name"`
	Description         string                `mapstructure:"description" json:"description,omitempty" yaml:"description,omitempty"`
	Environment         string                `mapstructure:"environment" json:"environment,omitempty" yaml:"environment,omitempty"`
	TimeoutSecs         uint64                `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
	LoadProfile         profile.Profile       `mapstructure:"load_profile" json:"load_profile" yaml:"load_profile"`
	Scenarios           []scenario.Scenario   `mapstructure:"scenarios" json:"scenarios" yaml:"scenarios"`
	Thresholds          []threshold.Threshold `mapstructure:"thresholds" json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
	SuccessThreshold    float64               `mapstructure:"success_threshold" json:"success_threshold" yaml:"success_threshold"`
	StreamMetrics       bool                  `mapstructure:"stream_metrics" json:"stream_metrics" yaml:"stream_metrics"`
	MetricsIntervalSecs uint64                `mapstructure:"metrics_interval_secs" json:"metrics_interval_secs" yaml:"metrics_interval_secs"`
	Dashboard           bool                  `mapstructure:"dashboard" json:"dashboard" yaml:"dashboard"`
	HistoryPath         string                `mapstructure:"history_path" json:"history_path,omitempty" yaml:"history_path,omitempty"`
	Tracing             tracing.Config        `mapstructure:"tracing" json:"tracing,omitempty" yaml:"tracing,omitempty"`
	Output              OutputConfig          `mapstructure:"output" json:"output,omitempty" yaml:"output,omitempty"`
	ConfigFile          string                `mapstructure:"-" json:"-" yaml:"-"`
}

// Timeout returns the per-request timeout.
func (c PerfConfig) Timeout() time.Duration {
	if c.TimeoutSecs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// MetricsInterval returns the live-metrics emission interval.
func (c PerfConfig) MetricsInterval() time.Duration {
	if c.MetricsIntervalSecs == 0 {
		return 10 * time.Second
	}
	return time.Duration(c.MetricsIntervalSecs) * time.Second
}

// ValidationError aggregates configuration issues.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

// Issues returns the individual problems.
func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate checks the semantic invariants the engine depends on. It runs
// after schema validation, so it only covers what the schema cannot
// express.
func (c PerfConfig) Validate() error {
	var issues []string

	if strings.TrimSpace(c.Name) == "" {
		issues = append(issues, "name is required")
	}
	if err := c.LoadProfile.Validate(); err != nil {
		issues = append(issues, err.Error())
	}
	if len(c.Scenarios) == 0 {
		issues = append(issues, "at least one scenario is required")
	} else {
		for _, sc := range c.Scenarios {
			if err := sc.Validate(); err != nil {
				issues = append(issues, err.Error())
			}
		}
	}
	if c.SuccessThreshold < 0 || c.SuccessThreshold > 100 {
		issues = append(issues, fmt.Sprintf("success_threshold must be within [0,100], got %g", c.SuccessThreshold))
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}
