// Package badger provides a BadgerHold-backed metadata store for single-binary
// deployments and tests.
package badger

import (
	"fmt"
	"os"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/nsechat/internal/common"
)

// Store wraps a BadgerHold database connection.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens a BadgerHold store at the configured path, or in memory.
func NewStore(logger *common.Logger, config common.BadgerConfig) (*Store, error) {
	options := badgerhold.DefaultOptions
	options.Logger = nil // badger's own logger is replaced by ours

	if config.InMemory {
		options.InMemory = true
		options.Dir = ""
		options.ValueDir = ""
	} else {
		if err := os.MkdirAll(config.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create badger directory %s: %w", config.Path, err)
		}
		options.Dir = config.Path
		options.ValueDir = config.Path
	}

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger database: %v", common.ErrStoreUnavailable, err)
	}

	logger.Debug().Str("path", config.Path).Bool("in_memory", config.InMemory).Msg("BadgerHold store opened")

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// DB returns the underlying badgerhold store.
func (s *Store) DB() *badgerhold.Store {
	return s.db
}

// Close closes the BadgerHold database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
