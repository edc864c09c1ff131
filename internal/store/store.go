// Package store implements the flat-file record store backing vitaldesk.
//
// All records live in a single JSON document keyed by collection name.
// The file is rewritten wholesale on every mutation via a temp-file
// rename, which gives each individual write atomicity but no
// cross-write transaction semantics: last writer wins.
//
// Record identifiers are owned by the store: a monotonic counter is
// persisted alongside the collections, so ids never collide even under
// concurrent creation (unlike wall-clock based schemes).
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/vitaldesk/vitaldesk/internal/log"
)

var (
	// ErrUnknownCollection indicates a collection name outside the fixed set.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrNotFound indicates no record with the requested id exists.
	ErrNotFound = errors.New("record not found")
)

// Record is a schemaless record as persisted in a collection.
// Tool handlers and CRUD routes marshal their typed records through it.
type Record = map[string]any

// fileLayout is the on-disk structure of the store file.
type fileLayout struct {
	Appointments  []Record `json:"appointments"`
	Prescriptions []Record `json:"prescriptions"`
	FitnessPlans  []Record `json:"fitness_plans"`
	MealPlans     []Record `json:"meal_plans"`
	NextID        int64    `json:"next_id"`
}

// Store is the flat-file record store.
//
// A process-wide mutex serializes in-process access; a flock on a
// sibling lock file excludes concurrent writers from other processes.
// Safe for concurrent use by multiple goroutines.
type Store struct {
	mu     sync.Mutex
	path   string
	flk    *flock.Flock
	data   fileLayout
	logger log.Logger
}

// Open loads (or creates) the store file at path.
// Parent directories are created as needed.
func Open(path string, logger log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	s := &Store{
		path:   path,
		flk:    flock.New(path + ".lock"),
		logger: logger,
	}

	raw, err := os.ReadFile(path) // #nosec G304 -- path comes from config, not request input
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.data = fileLayout{NextID: 1}
		if err := s.persist(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("reading store file: %w", err)
	default:
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, fmt.Errorf("parsing store file %s: %w", path, err)
		}
		if s.data.NextID < 1 {
			s.data.NextID = 1
		}
	}

	logger.Debug("record store opened", "path", path, "next_id", s.data.NextID)
	return s, nil
}

// List returns a copy of all records in the collection.
func (s *Store) List(collection string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	out := make([]Record, len(*records))
	copy(out, *records)
	return out, nil
}

// Append assigns a fresh id to the record, appends it to the collection,
// and persists the whole file. The assigned id is returned and also set
// on the record under the "id" key.
func (s *Store) Append(collection string, record Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.collection(collection)
	if err != nil {
		return 0, err
	}

	id := s.data.NextID
	s.data.NextID++
	record["id"] = id
	*records = append(*records, record)

	if err := s.persistLocked(); err != nil {
		// Roll back the in-memory append so a failed write does not
		// leave phantom records behind.
		*records = (*records)[:len(*records)-1]
		s.data.NextID = id
		return 0, err
	}

	s.logger.Debug("record appended", "collection", collection, "id", id)
	return id, nil
}

// DeleteByID removes the record with the given id from the collection.
// Returns ErrNotFound when no record matches.
func (s *Store) DeleteByID(collection string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.collection(collection)
	if err != nil {
		return err
	}

	kept := make([]Record, 0, len(*records))
	found := false
	for _, r := range *records {
		if recordID(r) == id {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return fmt.Errorf("%w: %s/%d", ErrNotFound, collection, id)
	}

	prev := *records
	*records = kept
	if err := s.persistLocked(); err != nil {
		*records = prev
		return err
	}

	s.logger.Debug("record deleted", "collection", collection, "id", id)
	return nil
}

// Count returns the number of records in the collection.
func (s *Store) Count(collection string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.collection(collection)
	if err != nil {
		return 0, err
	}
	return len(*records), nil
}

// collection maps a collection name to its backing slice.
// Callers must hold s.mu.
func (s *Store) collection(name string) (*[]Record, error) {
	switch name {
	case CollectionAppointments:
		return &s.data.Appointments, nil
	case CollectionPrescriptions:
		return &s.data.Prescriptions, nil
	case CollectionFitnessPlans:
		return &s.data.FitnessPlans, nil
	case CollectionMealPlans:
		return &s.data.MealPlans, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
}

// persist writes the store under the in-process lock.
func (s *Store) persist() error {
	return s.persistLocked()
}

// persistLocked rewrites the whole store file atomically.
// The flock excludes writers from other processes for the duration of
// the rewrite. Callers must hold s.mu.
func (s *Store) persistLocked() error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("acquiring store file lock: %w", err)
	}
	defer func() {
		if err := s.flk.Unlock(); err != nil {
			s.logger.Warn("releasing store file lock", "error", err)
		}
	}()

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing store file: %w", err)
	}
	return nil
}

// recordID extracts the numeric id from a record, tolerating the types
// produced both by direct int64 assignment and by JSON round-trips.
func recordID(r Record) int64 {
	switch v := r["id"].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case int:
		return int64(v)
	default:
		return 0
	}
}
