package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
	"github.com/bobmcallan/nsechat/internal/models"
)

const selectColumns = `symbol, name, sector, industry, industry_info,
	total_traded_volume, total_traded_value, total_market_cap, refreshed_at`

// maxLevenshteinInput is the longest string fuzzystrmatch's levenshtein accepts.
const maxLevenshteinInput = 255

// MetadataStore implements interfaces.MetadataStore using PostgreSQL.
type MetadataStore struct {
	db     *sqlx.DB
	logger *common.Logger
}

var _ interfaces.MetadataStore = (*MetadataStore)(nil)

// NewMetadataStore creates a MetadataStore over an open connection pool.
func NewMetadataStore(db *sqlx.DB, logger *common.Logger) *MetadataStore {
	return &MetadataStore{db: db, logger: logger}
}

func (s *MetadataStore) Upsert(ctx context.Context, row *models.SymbolMetadata) error {
	if row == nil || row.Symbol == "" {
		return fmt.Errorf("%w: metadata row requires a symbol", common.ErrInvalidArgument)
	}
	if row.RefreshedAt.IsZero() {
		row.RefreshedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO nse_metadata (
			symbol, name, sector, industry, industry_info,
			total_traded_volume, total_traded_value, total_market_cap, refreshed_at
		) VALUES (
			:symbol, :name, :sector, :industry, :industry_info,
			:total_traded_volume, :total_traded_value, :total_market_cap, :refreshed_at
		)
		ON CONFLICT (symbol) DO UPDATE SET
			name                = EXCLUDED.name,
			sector              = EXCLUDED.sector,
			industry            = EXCLUDED.industry,
			industry_info       = EXCLUDED.industry_info,
			total_traded_volume = EXCLUDED.total_traded_volume,
			total_traded_value  = EXCLUDED.total_traded_value,
			total_market_cap    = EXCLUDED.total_market_cap,
			refreshed_at        = EXCLUDED.refreshed_at`

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("%w: failed to upsert %s: %v", common.ErrStoreUnavailable, row.Symbol, err)
	}
	return nil
}

func (s *MetadataStore) DeleteNotIn(ctx context.Context, symbols []string) (int, error) {
	if len(symbols) == 0 {
		return 0, fmt.Errorf("%w: refusing to delete against an empty universe", common.ErrInvalidArgument)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM nse_metadata WHERE symbol <> ALL($1)`, pq.Array(symbols))
	if err != nil {
		return 0, fmt.Errorf("%w: failed to prune metadata: %v", common.ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read pruned count: %v", common.ErrStoreUnavailable, err)
	}
	return int(n), nil
}

func (s *MetadataStore) Get(ctx context.Context, symbol string) (*models.SymbolMetadata, error) {
	var row models.SymbolMetadata
	err := s.db.GetContext(ctx, &row, `SELECT `+selectColumns+` FROM nse_metadata WHERE symbol = $1`, symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get %s: %v", common.ErrStoreUnavailable, symbol, err)
	}
	return &row, nil
}

func (s *MetadataStore) List(ctx context.Context) ([]*models.SymbolMetadata, error) {
	return s.selectRows(ctx, `SELECT `+selectColumns+` FROM nse_metadata ORDER BY symbol`)
}

func (s *MetadataStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT count(*) FROM nse_metadata`); err != nil {
		return 0, fmt.Errorf("%w: failed to count metadata: %v", common.ErrStoreUnavailable, err)
	}
	return n, nil
}

func (s *MetadataStore) QueryText(ctx context.Context, q interfaces.TextQuery) ([]*models.SymbolMetadata, error) {
	col, err := q.Field.Column()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err)
	}
	key := strings.ToLower(strings.TrimSpace(q.Key))
	if key == "" || q.Limit <= 0 {
		return nil, nil
	}
	exclude := q.Exclude
	if exclude == nil {
		exclude = []string{}
	}

	var query string
	args := []any{pq.Array(exclude), q.Limit}

	switch q.Mode {
	case models.MatchPrefix:
		query = fmt.Sprintf(`SELECT %s FROM nse_metadata
			WHERE symbol <> ALL($1) AND %s <> '' AND lower(%s) LIKE $3 ESCAPE '\'
			ORDER BY total_market_cap DESC, symbol ASC LIMIT $2`, selectColumns, col, col)
		args = append(args, escapeLike(key)+"%")
	case models.MatchContains:
		query = fmt.Sprintf(`SELECT %s FROM nse_metadata
			WHERE symbol <> ALL($1) AND %s <> '' AND lower(%s) LIKE $3 ESCAPE '\'
			ORDER BY total_market_cap DESC, symbol ASC LIMIT $2`, selectColumns, col, col)
		args = append(args, "%"+escapeLike(key)+"%")
	case models.MatchSimilarity:
		query = fmt.Sprintf(`SELECT %s FROM nse_metadata
			WHERE symbol <> ALL($1) AND %s <> '' AND similarity(lower(%s), $3) > $4
			ORDER BY similarity(lower(%s), $3) DESC, symbol ASC LIMIT $2`, selectColumns, col, col, col)
		args = append(args, key, q.MinSimilarity)
	case models.MatchDistance:
		query = fmt.Sprintf(`SELECT %s FROM nse_metadata
			WHERE symbol <> ALL($1) AND %s <> '' AND levenshtein(left(lower(%s), %d), $3) <= $4
			ORDER BY levenshtein(left(lower(%s), %d), $3) ASC, symbol ASC LIMIT $2`,
			selectColumns, col, col, maxLevenshteinInput, col, maxLevenshteinInput)
		args = append(args, truncate(key, maxLevenshteinInput), q.MaxDistance)
	default:
		return nil, fmt.Errorf("%w: unknown match mode %q", common.ErrInvalidArgument, q.Mode)
	}

	return s.selectRows(ctx, query, args...)
}

func (s *MetadataStore) Distinct(ctx context.Context, field models.Field) ([]string, error) {
	col, err := field.Column()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err)
	}
	values := []string{}
	query := fmt.Sprintf(`SELECT DISTINCT %s FROM nse_metadata WHERE %s <> '' ORDER BY %s`, col, col, col)
	if err := s.db.SelectContext(ctx, &values, query); err != nil {
		return nil, fmt.Errorf("%w: failed to list %s values: %v", common.ErrStoreUnavailable, col, err)
	}
	return values, nil
}

func (s *MetadataStore) TopN(ctx context.Context, q interfaces.TopQuery) ([]*models.SymbolMetadata, error) {
	if !q.OrderBy.Valid() {
		return nil, fmt.Errorf("%w: unknown numeric field %q", common.ErrInvalidArgument, q.OrderBy)
	}
	if len(q.Values) == 0 || len(q.Fields) == 0 || q.Limit <= 0 {
		return nil, nil
	}

	clauses := make([]string, 0, len(q.Fields))
	for _, f := range q.Fields {
		col, err := f.Column()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err)
		}
		clauses = append(clauses, col+" = ANY($1)")
	}

	query := fmt.Sprintf(`SELECT %s FROM nse_metadata WHERE %s ORDER BY %s DESC, symbol ASC LIMIT $2`,
		selectColumns, strings.Join(clauses, " OR "), string(q.OrderBy))
	return s.selectRows(ctx, query, pq.Array(q.Values), q.Limit)
}

func (s *MetadataStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *MetadataStore) selectRows(ctx context.Context, query string, args ...any) ([]*models.SymbolMetadata, error) {
	var rows []*models.SymbolMetadata
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%w: metadata query failed: %v", common.ErrStoreUnavailable, err)
	}
	return rows, nil
}

// escapeLike escapes LIKE wildcards so the key matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
