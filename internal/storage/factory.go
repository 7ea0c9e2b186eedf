// Package storage selects and opens the configured metadata store backend.
package storage

import (
	"context"
	"fmt"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
	"github.com/bobmcallan/nsechat/internal/storage/badger"
	"github.com/bobmcallan/nsechat/internal/storage/postgres"
	"github.com/bobmcallan/nsechat/internal/storage/surrealdb"
)

// Backend type constants.
const (
	BackendSurrealDB = "surrealdb"
	BackendPostgres  = "postgres"
	BackendBadger    = "badger"
)

// NewMetadataStore opens the metadata store named by config.Storage.Backend.
// Supported backends: "surrealdb" (default), "postgres", "badger".
func NewMetadataStore(ctx context.Context, logger *common.Logger, config *common.Config) (interfaces.MetadataStore, error) {
	backend := config.Storage.Backend
	if backend == "" {
		backend = BackendSurrealDB
	}

	switch backend {
	case BackendSurrealDB:
		db, err := surrealdb.Connect(ctx, logger, config.Storage.SurrealDB)
		if err != nil {
			return nil, err
		}
		return surrealdb.NewMetadataStore(db, logger), nil

	case BackendPostgres:
		db, err := postgres.Connect(ctx, logger, config.Storage.Postgres)
		if err != nil {
			return nil, err
		}
		return postgres.NewMetadataStore(db, logger), nil

	case BackendBadger:
		store, err := badger.NewStore(logger, config.Storage.Badger)
		if err != nil {
			return nil, err
		}
		return badger.NewMetadataStorage(store, logger), nil

	default:
		return nil, fmt.Errorf("%w: unknown storage backend: %s (supported: surrealdb, postgres, badger)",
			common.ErrInvalidArgument, backend)
	}
}
