// Package badger persists held-position records with BadgerHold.
package badger

import (
	"fmt"
	"os"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/folio/internal/common"
)

// Store owns the embedded BadgerHold database backing the position store.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens (or creates) the position database at the given directory.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // badger's own logger is too chatty; Folio logs above it

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open position database at %s: %w", path, err)
	}

	logger.Debug().Str("path", path).Msg("Position database opened")

	return &Store{db: db, logger: logger}, nil
}

// Close flushes and closes the database. Safe to call more than once.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
