// Package storage provides abstractions for persisting the ledger state.
package storage

import (
	"context"
	"errors"

	"github.com/sisihe/sisiexpense/internal/models"
)

var (
	// ErrCorrupt indicates the persisted ledger could not be decoded.
	// The file on disk is left untouched for manual inspection.
	ErrCorrupt = errors.New("persisted ledger state is corrupt")

	// ErrPersistFailed indicates the mutated state could not be written
	// back. The mutation from that call is lost; the last successfully
	// written state remains on disk.
	ErrPersistFailed = errors.New("failed to persist ledger state")
)

// Store defines the interface for ledger state access.
//
// The ledger is a single record; there are no partial reads or row-level
// operations. All access goes through WithState, which serializes callers
// system-wide so a read-modify-write cycle is atomic relative to every
// other cycle.
type Store interface {
	// WithState acquires exclusive access to the ledger, loads it, and
	// invokes fn with a mutable handle. If fn returns nil the (possibly
	// mutated) state is persisted before the lock is released; if fn
	// returns an error nothing is written and that error is returned.
	// Load and write failures surface as ErrCorrupt and ErrPersistFailed.
	WithState(ctx context.Context, fn func(state *models.State) error) error

	// Close releases any resources held by the store.
	Close() error
}
