// Package surrealdb provides the SurrealDB metadata store.
package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/nsechat/internal/common"
)

// Connect opens a SurrealDB connection, signs in, selects the namespace and
// database, and defines the metadata table.
func Connect(ctx context.Context, logger *common.Logger, config common.SurrealDBConfig) (*surrealdb.DB, error) {
	db, err := surrealdb.New(config.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to SurrealDB: %v", common.ErrStoreUnavailable, err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Username,
		"pass": config.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("%w: failed to sign in to SurrealDB: %v", common.ErrStoreUnavailable, err)
	}

	if err := db.Use(ctx, config.Namespace, config.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("%w: failed to select namespace/database: %v", common.ErrStoreUnavailable, err)
	}

	if err := defineSchema(ctx, db); err != nil {
		db.Close(ctx)
		return nil, err
	}

	logger.Info().
		Str("address", config.Address).
		Str("namespace", config.Namespace).
		Str("database", config.Database).
		Msg("SurrealDB metadata store connected")

	return db, nil
}

// defineSchema creates the metadata table. SurrealDB v3 errors on querying
// tables that were never defined.
func defineSchema(ctx context.Context, db *surrealdb.DB) error {
	statements := []string{
		fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", metadataTable),
		fmt.Sprintf("DEFINE INDEX IF NOT EXISTS %s_market_cap ON %s FIELDS total_market_cap", metadataTable, metadataTable),
	}
	for _, sql := range statements {
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return fmt.Errorf("%w: failed to define schema (%s): %v", common.ErrStoreUnavailable, sql, err)
		}
	}
	return nil
}
