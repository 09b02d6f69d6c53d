// Package feeder supplies per-iteration data records from CSV or JSON
// files for data-driven API checks.
package feeder

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Record is one row of feed data with named fields.
type Record map[string]string

// ErrExhausted is returned by Next once every record has been served and
// cycling is disabled.
var ErrExhausted = errors.New("feeder exhausted")

// Feeder hands out records in deterministic round-robin order. Safe for
// concurrent use.
type Feeder struct {
	mu      sync.Mutex
	records []Record
	index   int
	cycle   bool
}

// Open loads a feed file. The format follows the extension: .csv expects a
// header row, .json expects an array of flat objects.
func Open(path string) (*Feeder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return openCSV(path)
	case ".json":
		return openJSON(path)
	default:
		return nil, fmt.Errorf("feed %s: unsupported extension, want .csv or .json", path)
	}
}

func newFeeder(records []Record) *Feeder {
	return &Feeder{records: records, cycle: true}
}

// SetCycle controls whether Next wraps around after the last record.
// Cycling is on by default.
func (f *Feeder) SetCycle(cycle bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cycle = cycle
}

// Next returns the next record.
func (f *Feeder) Next() (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index >= len(f.records) {
		if !f.cycle {
			return nil, ErrExhausted
		}
		f.index = 0
	}
	record := f.records[f.index]
	f.index++
	return record, nil
}

// Len returns the number of records in the feed.
func (f *Feeder) Len() int {
	return len(f.records)
}
