package extractor

import (
	"fmt"
	"testing"
)

type testLogger struct {
	warnings []string
}

func (l *testLogger) Warn(format string, args ...interface{}) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func TestJSONPath(t *testing.T) {
	body := []byte(`{"user":{"id":42,"name":"ada"},"items":[{"sku":"a-1"}]}`)

	tests := []struct {
		path string
		want string
	}{
		{"user.name", "ada"},
		{"$.user.id", "42"},
		{"items.0.sku", "a-1"},
	}
	for _, tt := range tests {
		if got := JSONPath(body, tt.path, nil); got != tt.want {
			t.Errorf("JSONPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestJSONPathMissWarnsAndReturnsEmpty(t *testing.T) {
	logger := &testLogger{}
	if got := JSONPath([]byte(`{"a":1}`), "b.c", logger); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
	if len(logger.warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(logger.warnings))
	}
}

func TestNumber(t *testing.T) {
	body := []byte(`{"queue_depth":17,"label":"high"}`)

	if v, ok := Number(body, "queue_depth", nil); !ok || v != 17 {
		t.Errorf("Number(queue_depth) = %v, %v", v, ok)
	}
	if _, ok := Number(body, "label", &testLogger{}); ok {
		t.Error("non-numeric value must not extract")
	}
	if _, ok := Number(body, "missing", &testLogger{}); ok {
		t.Error("missing path must not extract")
	}
}

func TestRegex(t *testing.T) {
	body := []byte("token=abc123; expires=3600")

	if got := Regex(body, `token=(\w+)`, nil); got != "abc123" {
		t.Errorf("capture group = %q, want abc123", got)
	}
	if got := Regex(body, `expires=\d+`, nil); got != "expires=3600" {
		t.Errorf("full match = %q, want expires=3600", got)
	}

	logger := &testLogger{}
	if got := Regex(body, `[invalid`, logger); got != "" || len(logger.warnings) != 1 {
		t.Errorf("invalid pattern: got %q, warnings %d", got, len(logger.warnings))
	}
}

func TestCaptureAll(t *testing.T) {
	body := []byte(`{"id":"u-9","session":"s-1"}`)
	captures := []Capture{
		{Variable: "user_id", JSONPath: "id"},
		{Variable: "session", Regex: `"session":"([^"]+)"`},
	}
	values := CaptureAll(body, captures, nil)
	if values["user_id"] != "u-9" || values["session"] != "s-1" {
		t.Errorf("CaptureAll = %v", values)
	}
}
