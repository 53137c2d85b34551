package badger

import (
	"fmt"
	"os"
	"path/filepath"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// Store manages the Badger database connection shared by the page cache and
// the run history.
type Store struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

// NewStore opens (or creates) the Badger database at the given path
func NewStore(path string, logger arbor.ILogger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	logger.Debug().Str("path", path).Msg("Opening Badger database connection")

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Arbor handles all logging

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &Store{
		store:  store,
		logger: logger,
	}, nil
}

// Hold returns the badgerhold store for typed record access
func (s *Store) Hold() *badgerhold.Store {
	return s.store
}

// DB returns the raw Badger database for byte-level access
func (s *Store) DB() *badgerdb.DB {
	return s.store.Badger()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
