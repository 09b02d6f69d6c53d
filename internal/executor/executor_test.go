package executor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/firedrill-labs/firedrill/internal/scenario"
)

func TestExecuteClassifiesSuccess(t *testing.T) {
	var gotMethod, gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Api-Key")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	e := New(server.Client(), nil, nil)
	sample := e.Execute(context.Background(), scenario.Scenario{
		Name:    "create",
		URL:     server.URL,
		Method:  "post",
		Headers: map[string]string{"X-Api-Key": "secret"},
		Body:    `{"name":"x"}`,
	})

	if !sample.Success {
		t.Fatalf("201 must classify as success: %+v", sample)
	}
	if sample.Status != http.StatusCreated {
		t.Errorf("status = %d, want 201", sample.Status)
	}
	if sample.Duration <= 0 {
		t.Error("duration must be measured")
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method sent = %q, want POST", gotMethod)
	}
	if gotHeader != "secret" {
		t.Errorf("header not forwarded, got %q", gotHeader)
	}
}

func TestExecuteClassifiesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	e := New(server.Client(), nil, nil)
	sample := e.Execute(context.Background(), scenario.Scenario{Name: "fail", URL: server.URL})

	if sample.Success {
		t.Fatal("500 must classify as failure")
	}
	if sample.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", sample.Status)
	}
	httpErr, ok := sample.Err.(*HTTPError)
	if !ok {
		t.Fatalf("expected *HTTPError, got %T", sample.Err)
	}
	if httpErr.StatusCode != 500 || httpErr.Body != "boom" {
		t.Errorf("HTTPError = %+v", httpErr)
	}
}

// Transport failures must produce a failed sample rather than disappearing
// from the metric denominator.
func TestTransportErrorRecordedAsFailedSample(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	e := New(NewClient(time.Second), nil, nil)
	sample := e.Execute(context.Background(), scenario.Scenario{Name: "down", URL: server.URL})

	if sample.Success {
		t.Fatal("transport error must classify as failure")
	}
	if sample.Status != 0 {
		t.Errorf("status = %d, want 0 for transport error", sample.Status)
	}
	if sample.Err == nil {
		t.Error("transport error must carry the underlying error")
	}
	if sample.Scenario != "down" {
		t.Errorf("scenario = %q, want down", sample.Scenario)
	}
	if sample.Tags["status"] != "0" {
		t.Errorf("status tag = %q, want 0", sample.Tags["status"])
	}
}

func TestSampleTagsUserTagsWin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	e := New(server.Client(), nil, nil)
	sample := e.Execute(context.Background(), scenario.Scenario{
		Name: "tagged",
		URL:  server.URL,
		Tags: map[string]string{"method": "custom", "team": "qa"},
	})

	if sample.Tags["method"] != "custom" {
		t.Errorf("user tag must win on collision, got %q", sample.Tags["method"])
	}
	if sample.Tags["scenario"] != "tagged" {
		t.Errorf("synthetic scenario tag missing: %v", sample.Tags)
	}
	if sample.Tags["team"] != "qa" {
		t.Errorf("user tag missing: %v", sample.Tags)
	}
}

func TestCustomMetricExtraction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"queue_depth": 7, "region": "eu"}`))
	}))
	defer server.Close()

	e := New(server.Client(), nil, nil)
	sample := e.Execute(context.Background(), scenario.Scenario{
		Name: "custom",
		URL:  server.URL,
		Metrics: []scenario.Metric{
			{Name: "queue_depth", JSONPath: "queue_depth"},
			{Name: "bogus", JSONPath: "region"}, // non-numeric, skipped
		},
	})

	if sample.Custom["queue_depth"] != 7 {
		t.Errorf("queue_depth = %v, want 7", sample.Custom["queue_depth"])
	}
	if _, ok := sample.Custom["bogus"]; ok {
		t.Error("non-numeric extraction must be skipped")
	}
	if sample.Custom["status_code"] != 200 {
		t.Errorf("status_code = %v, want 200", sample.Custom["status_code"])
	}
}
