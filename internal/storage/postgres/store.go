// Package postgres provides a PostgreSQL metadata store. Similarity and edit
// distance passes run in the database through the pg_trgm and fuzzystrmatch
// extensions.
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/bobmcallan/nsechat/internal/common"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS pg_trgm;
CREATE EXTENSION IF NOT EXISTS fuzzystrmatch;

CREATE TABLE IF NOT EXISTS nse_metadata (
	symbol              TEXT PRIMARY KEY,
	name                TEXT NOT NULL DEFAULT '',
	sector              TEXT NOT NULL DEFAULT '',
	industry            TEXT NOT NULL DEFAULT '',
	industry_info       TEXT NOT NULL DEFAULT '',
	total_traded_volume DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_traded_value  DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_market_cap    DOUBLE PRECISION NOT NULL DEFAULT 0,
	refreshed_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS nse_metadata_name_trgm ON nse_metadata USING gin (lower(name) gin_trgm_ops);
CREATE INDEX IF NOT EXISTS nse_metadata_market_cap ON nse_metadata (total_market_cap DESC);
`

// Connect opens a connection pool, applies pool limits and ensures the schema exists.
func Connect(ctx context.Context, logger *common.Logger, config common.PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to postgres: %v", common.ErrStoreUnavailable, err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	db.SetConnMaxLifetime(config.GetConnMaxLifetime())

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to apply schema: %v", common.ErrStoreUnavailable, err)
	}

	logger.Info().
		Int("max_open_conns", config.MaxOpenConns).
		Int("max_idle_conns", config.MaxIdleConns).
		Msg("Connected to postgres")

	return db, nil
}
