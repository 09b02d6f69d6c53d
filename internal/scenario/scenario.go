// Package scenario defines request scenarios and weighted selection among
// them.
package scenario

import (
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Metric declares a custom metric extracted from the response body of a
// scenario via a JSON path.
type Metric struct {
	Name     string `mapstructure:"name" json:"name" yaml:"name"`
	JSONPath string `mapstructure:"json_path" json:"json_path" yaml:"json_path"`
}

// Scenario is one named HTTP request template with a selection weight.
type Scenario struct {
	Name    string            `mapstructure:"name" json:"name" yaml:"name"`
	URL     string            `mapstructure:"url" json:"url" yaml:"url"`
	Method  string            `mapstructure:"method" json:"method" yaml:"method"`
	Headers map[string]string `mapstructure:"headers" json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    string            `mapstructure:"body" json:"body,omitempty" yaml:"body,omitempty"`
	Weight  uint32            `mapstructure:"weight" json:"weight" yaml:"weight"`
	Tags    map[string]string `mapstructure:"tags" json:"tags,omitempty" yaml:"tags,omitempty"`
	Metrics []Metric          `mapstructure:"metrics" json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

var validMethods = map[string]struct{}{
	http.MethodGet: {}, http.MethodPost: {}, http.MethodPut: {},
	http.MethodPatch: {}, http.MethodDelete: {}, http.MethodHead: {},
	http.MethodOptions: {},
}

// Validate checks a single scenario's run-time invariants.
func (s Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("scenario name is required")
	}
	if strings.TrimSpace(s.URL) == "" {
		return fmt.Errorf("scenario %s: url is required", s.Name)
	}
	method := strings.ToUpper(strings.TrimSpace(s.Method))
	if method == "" {
		method = http.MethodGet
	}
	if _, ok := validMethods[method]; !ok {
		return fmt.Errorf("scenario %s: invalid HTTP method %q", s.Name, s.Method)
	}
	return nil
}

// NormalizedMethod returns the uppercased method, defaulting to GET.
func (s Scenario) NormalizedMethod() string {
	method := strings.ToUpper(strings.TrimSpace(s.Method))
	if method == "" {
		return http.MethodGet
	}
	return method
}

// Selector picks scenarios at random in proportion to their weights.
type Selector struct {
	mu          sync.Mutex
	scenarios   []Scenario
	totalWeight uint32
	rnd         *rand.Rand
}

// NewSelector validates the scenario list and builds a selector. An empty
// list is a configuration error; weights below 1 are raised to 1.
func NewSelector(scenarios []Scenario) (*Selector, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("at least one scenario is required")
	}

	normalized := make([]Scenario, len(scenarios))
	var total uint32
	for i, sc := range scenarios {
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		if sc.Weight < 1 {
			sc.Weight = 1
		}
		normalized[i] = sc
		total += sc.Weight
	}

	return &Selector{
		scenarios:   normalized,
		totalWeight: total,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Seed replaces the selection source, for deterministic tests.
func (s *Selector) Seed(seed int64) {
	s.mu.Lock()
	s.rnd = rand.New(rand.NewSource(seed))
	s.mu.Unlock()
}

// Pick returns one scenario drawn in proportion to the configured weights.
// A single configured scenario short-circuits the draw.
func (s *Selector) Pick() Scenario {
	if len(s.scenarios) == 1 {
		return s.scenarios[0]
	}

	s.mu.Lock()
	n := uint32(s.rnd.Intn(int(s.totalWeight)))
	s.mu.Unlock()

	var cumulative uint32
	for _, sc := range s.scenarios {
		cumulative += sc.Weight
		if n < cumulative {
			return sc
		}
	}
	return s.scenarios[len(s.scenarios)-1]
}

// Scenarios returns the normalized scenario list.
func (s *Selector) Scenarios() []Scenario {
	return s.scenarios
}
