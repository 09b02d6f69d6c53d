// Package extractor pulls values out of HTTP response bodies: string
// captures for collection variables and numeric captures for custom
// metrics.
package extractor

import (
	"regexp"
	"strconv"

	"github.com/tidwall/gjson"
)

// Logger receives warnings for extractions that did not match.
type Logger interface {
	Warn(format string, args ...interface{})
}

// Capture describes one value to pull from a response body into a variable.
// Exactly one of JSONPath or Regex should be set.
type Capture struct {
	Variable string `mapstructure:"variable" json:"variable" yaml:"variable"`
	JSONPath string `mapstructure:"json_path" json:"json_path,omitempty" yaml:"json_path,omitempty"`
	Regex    string `mapstructure:"regex" json:"regex,omitempty" yaml:"regex,omitempty"`
}

// CaptureAll applies every capture to the body and returns the extracted
// variables. Misses produce a warning and an empty value; they never fail
// the request.
func CaptureAll(body []byte, captures []Capture, logger Logger) map[string]string {
	if len(captures) == 0 {
		return nil
	}
	values := make(map[string]string, len(captures))
	for _, capture := range captures {
		switch {
		case capture.JSONPath != "":
			values[capture.Variable] = JSONPath(body, capture.JSONPath, logger)
		case capture.Regex != "":
			values[capture.Variable] = Regex(body, capture.Regex, logger)
		}
	}
	return values
}

// JSONPath extracts a value from a JSON body. Both "$.field.sub" and
// "field.sub" forms are accepted; a bare "$" returns the whole document.
func JSONPath(body []byte, path string, logger Logger) string {
	if len(path) > 0 && path[0] == '$' {
		if len(path) > 1 && path[1] == '.' {
			path = path[2:]
		} else if len(path) == 1 {
			path = "@this"
		}
	}

	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		if logger != nil {
			logger.Warn("json path not found: %s", path)
		}
		return ""
	}
	return result.String()
}

// Number extracts a numeric value from a JSON body for use as a custom
// metric. The boolean is false when the path is missing or the value is not
// a number.
func Number(body []byte, path string, logger Logger) (float64, bool) {
	raw := JSONPath(body, path, logger)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if logger != nil {
			logger.Warn("json path %s: value %q is not numeric", path, raw)
		}
		return 0, false
	}
	return value, true
}

// Regex extracts the first capture group (or the full match when the
// pattern has no groups) from the body.
func Regex(body []byte, pattern string, logger Logger) string {
	regex, err := regexp.Compile(pattern)
	if err != nil {
		if logger != nil {
			logger.Warn("invalid regex %s: %v", pattern, err)
		}
		return ""
	}

	match := regex.FindSubmatch(body)
	if match == nil {
		if logger != nil {
			logger.Warn("regex not matched: %s", pattern)
		}
		return ""
	}
	if len(match) > 1 {
		return string(match[1])
	}
	return string(match[0])
}
