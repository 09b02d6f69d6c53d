package schema

import (
	"strings"
	"testing"
)

func TestValidatePerfYAML(t *testing.T) {
	doc := []byte(`
name: checkout-load
load_profile:
  type: ramping_vus
  stages:
    - duration_secs: 30
      target: 50
scenarios:
  - name: browse
    url: http://localhost:8080/products
`)
	if err := Validate(KindPerf, doc, "yaml"); err != nil {
		t.Fatalf("expected valid document, got %v", err)
	}
}

func TestValidatePerfMissingScenarios(t *testing.T) {
	doc := []byte(`
name: checkout-load
load_profile:
  type: constant_vus
  stages:
    - duration_secs: 30
      target: 50
`)
	err := Validate(KindPerf, doc, "yaml")
	if err == nil {
		t.Fatal("expected schema error for missing scenarios")
	}
	if !strings.Contains(err.Error(), "scenarios") {
		t.Fatalf("error should mention scenarios, got %v", err)
	}
}

func TestValidatePerfBadProfileType(t *testing.T) {
	doc := []byte(`{
  "name": "x",
  "load_profile": {"type": "warp_speed", "stages": [{"duration_secs": 5, "target": 1}]},
  "scenarios": [{"name": "s", "url": "http://localhost/"}]
}`)
	if err := Validate(KindPerf, doc, "json"); err == nil {
		t.Fatal("expected schema error for unknown profile type")
	}
}

func TestValidateAPI(t *testing.T) {
	doc := []byte(`
name: health
url: http://localhost:8080/health
retry:
  max_retries: 3
  initial_delay_ms: 100
`)
	if err := Validate(KindAPI, doc, "yaml"); err != nil {
		t.Fatalf("expected valid document, got %v", err)
	}
}

func TestValidateCollectionCapture(t *testing.T) {
	doc := []byte(`
name: login-flow
steps:
  - name: login
    url: http://localhost:8080/login
    method: POST
    capture:
      - variable: token
        json_path: $.token
  - name: profile
    url: http://localhost:8080/me
    depends_on: login
`)
	if err := Validate(KindCollection, doc, "yaml"); err != nil {
		t.Fatalf("expected valid document, got %v", err)
	}
}

func TestValidateMalformedYAML(t *testing.T) {
	if err := Validate(KindPerf, []byte("name: [unclosed"), "yaml"); err == nil {
		t.Fatal("expected parse error")
	}
}
