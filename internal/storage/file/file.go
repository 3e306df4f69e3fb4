// Package file provides a file-backed implementation of the storage.Store
// interface. The entire ledger lives in one JSON document guarded by a
// process-wide mutex: exactly one WithState body runs at a time, and each
// run is a full load-mutate-persist cycle.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sisihe/sisiexpense/internal/models"
	"github.com/sisihe/sisiexpense/internal/storage"
)

// Ensure FileStore implements storage.Store
var _ storage.Store = (*FileStore)(nil)

var (
	stateLoads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sisiexpense",
		Subsystem: "store",
		Name:      "state_loads_total",
		Help:      "Number of times the ledger state was loaded from disk.",
	})
	statePersists = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sisiexpense",
		Subsystem: "store",
		Name:      "state_persists_total",
		Help:      "Number of times the ledger state was written back to disk.",
	})
	persistDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sisiexpense",
		Subsystem: "store",
		Name:      "persist_duration_seconds",
		Help:      "Time spent serializing and writing the ledger state.",
		Buckets:   prometheus.DefBuckets,
	})
)

// FileStore implements storage.Store on top of a single JSON file.
type FileStore struct {
	mu         sync.Mutex
	path       string
	users      []string
	credential func(name string) string
}

// New creates a FileStore backed by the given path. It creates the parent
// directory and, if the file is absent or empty, writes a fresh ledger with
// a zero-balance user for every allow-listed name. Initialization is
// idempotent: an existing non-empty file is never overwritten.
//
// credential produces the stored placeholder credential for each user.
func New(path string, users []string, credential func(name string) string) (*FileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	s := &FileStore{path: path, users: users, credential: credential}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		fallthrough
	case err == nil && info.Size() == 0:
		if err := s.persist(models.NewState(users, credential)); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat state file: %w", err)
	}

	return s, nil
}

// WithState runs fn with exclusive access to the ledger. See storage.Store.
func (s *FileStore) WithState(ctx context.Context, fn func(state *models.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}

	if err := fn(state); err != nil {
		return err
	}

	return s.persist(state)
}

// Close releases the store. The file store holds no open handles between
// operations, so this only exists to satisfy storage.Store.
func (s *FileStore) Close() error {
	return nil
}

// load reads and decodes the ledger. A missing file is re-initialized (the
// durable copy may have been removed out from under a running process); an
// unreadable or undecodable file surfaces as storage.ErrCorrupt.
func (s *FileStore) load() (*models.State, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return models.NewState(s.users, s.credential), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrCorrupt, err)
	}

	state := &models.State{}
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrCorrupt, err)
	}
	if state.Users == nil {
		state.Users = make(map[string]*models.User)
	}
	if state.Expenses == nil {
		state.Expenses = []models.Expense{}
	}

	stateLoads.Inc()
	return state, nil
}

// persist serializes the ledger and replaces the file. The document is
// written to a temp file in the same directory and renamed into place, so a
// crash mid-write leaves the previous state intact rather than a truncated
// blob.
func (s *FileStore) persist(state *models.State) error {
	start := time.Now()

	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrPersistFailed, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".ledger-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrPersistFailed, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", storage.ErrPersistFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", storage.ErrPersistFailed, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", storage.ErrPersistFailed, err)
	}

	statePersists.Inc()
	persistDuration.Observe(time.Since(start).Seconds())
	return nil
}
