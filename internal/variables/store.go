// Package variables holds values captured from earlier responses and
// expands {{name}} references in request templates.
package variables

import (
	"strings"
	"sync"
)

// Store is a mutable variable scope. Safe for concurrent use, although
// collection steps run sequentially and only apitest feeds access it from
// multiple goroutines.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewStore creates a store seeded with initial values. initial may be nil.
func NewStore(initial map[string]string) *Store {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &Store{values: values}
}

// Set stores one variable.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Get returns a variable and whether it exists.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// All returns a copy of every variable.
func (s *Store) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// SetAll stores every entry of values.
func (s *Store) SetAll(values map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
}

// Expand replaces every {{name}} reference in template with the stored
// value. Unknown references are left as-is so the failure is visible in
// the outgoing request.
func (s *Store) Expand(template string) string {
	if !strings.Contains(template, "{{") {
		return template
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := template
	for key, value := range s.values {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

// ExpandMap returns a copy of m with every value expanded.
func (s *Store) ExpandMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return m
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = s.Expand(v)
	}
	return out
}
