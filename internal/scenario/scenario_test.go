package scenario

import (
	"math"
	"testing"
)

func TestNewSelectorRejectsEmptyList(t *testing.T) {
	if _, err := NewSelector(nil); err == nil {
		t.Fatal("expected error for empty scenario list")
	}
}

func TestNewSelectorRejectsInvalidMethod(t *testing.T) {
	_, err := NewSelector([]Scenario{
		{Name: "bad", URL: "http://localhost/", Method: "FETCH"},
	})
	if err == nil {
		t.Fatal("expected error for invalid HTTP method")
	}
}

func TestSingleScenarioShortCircuits(t *testing.T) {
	sel, err := NewSelector([]Scenario{
		{Name: "only", URL: "http://localhost/", Weight: 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		if got := sel.Pick(); got.Name != "only" {
			t.Fatalf("Pick returned %q, want %q", got.Name, "only")
		}
	}
}

func TestZeroWeightNormalizedToOne(t *testing.T) {
	sel, err := NewSelector([]Scenario{
		{Name: "a", URL: "http://localhost/a"},
		{Name: "b", URL: "http://localhost/b", Weight: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, sc := range sel.Scenarios() {
		if sc.Weight < 1 {
			t.Fatalf("scenario %s has weight %d after normalization", sc.Name, sc.Weight)
		}
	}
}

// Long-run selection frequency should converge to weight/total within a few
// percent.
func TestSelectionFrequencyMatchesWeights(t *testing.T) {
	scenarios := []Scenario{
		{Name: "light", URL: "http://localhost/light", Weight: 1},
		{Name: "medium", URL: "http://localhost/medium", Weight: 3},
		{Name: "heavy", URL: "http://localhost/heavy", Weight: 6},
	}
	sel, err := NewSelector(scenarios)
	if err != nil {
		t.Fatal(err)
	}
	sel.Seed(42)

	const draws = 20000
	counts := make(map[string]int)
	for i := 0; i < draws; i++ {
		counts[sel.Pick().Name]++
	}

	var total uint32
	for _, sc := range scenarios {
		total += sc.Weight
	}
	for _, sc := range scenarios {
		expected := float64(sc.Weight) / float64(total)
		actual := float64(counts[sc.Name]) / draws
		if math.Abs(actual-expected) > 0.02 {
			t.Errorf("scenario %s: frequency %.4f, want %.4f ±0.02", sc.Name, actual, expected)
		}
	}
}
