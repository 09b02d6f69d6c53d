// Package storage persists run outcomes to a local bolt database so past
// runs can be listed and compared.
package storage

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/firedrill-labs/firedrill/internal/engine"
)

const bucketRuns = "runs"

// ErrNotFound is returned when a run ID has no stored outcome.
var ErrNotFound = fmt.Errorf("run not found")

// Store is a bolt-backed run history. Outcomes are keyed by their ULID, so
// a forward cursor walk yields runs in start order.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketRuns))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores an outcome under its run ID.
func (s *Store) Save(outcome *engine.Outcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("encode outcome %s: %w", outcome.ID, err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketRuns)).Put([]byte(outcome.ID), data)
	})
}

// Get loads one outcome by run ID.
func (s *Store) Get(id string) (*engine.Outcome, error) {
	var outcome engine.Outcome
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketRuns)).Get([]byte(id))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &outcome)
	})
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

// List returns stored outcomes, newest first, up to limit. limit <= 0
// means no limit.
func (s *Store) List(limit int) ([]*engine.Outcome, error) {
	var outcomes []*engine.Outcome
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucketRuns)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(outcomes) >= limit {
				return nil
			}
			var outcome engine.Outcome
			if err := json.Unmarshal(v, &outcome); err != nil {
				return fmt.Errorf("decode run %s: %w", k, err)
			}
			outcomes = append(outcomes, &outcome)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}
