package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
	"github.com/bobmcallan/nsechat/internal/models"
	"github.com/bobmcallan/nsechat/internal/storage/scan"
)

const metadataTable = "nse_metadata"

// metadataFields avoids selecting the record id, which does not decode into SymbolMetadata.
const metadataFields = "symbol, name, sector, industry, industry_info, total_traded_volume, total_traded_value, total_market_cap, refreshed_at"

// MetadataStore implements interfaces.MetadataStore using SurrealDB.
// Prefix and contains passes run in SurrealQL; similarity and distance
// passes rank the remaining rows in process so every backend scores alike.
type MetadataStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

var _ interfaces.MetadataStore = (*MetadataStore)(nil)

// NewMetadataStore creates a MetadataStore over an open connection.
func NewMetadataStore(db *surrealdb.DB, logger *common.Logger) *MetadataStore {
	return &MetadataStore{db: db, logger: logger}
}

func recordID(symbol string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID(metadataTable, symbol)
}

func (s *MetadataStore) Upsert(ctx context.Context, row *models.SymbolMetadata) error {
	if row == nil || row.Symbol == "" {
		return fmt.Errorf("%w: metadata row requires a symbol", common.ErrInvalidArgument)
	}
	sql := "UPSERT $rid CONTENT $row"
	vars := map[string]any{
		"rid": recordID(row.Symbol),
		"row": row,
	}
	if _, err := surrealdb.Query[[]models.SymbolMetadata](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("%w: failed to upsert %s: %v", common.ErrStoreUnavailable, row.Symbol, err)
	}
	return nil
}

func (s *MetadataStore) DeleteNotIn(ctx context.Context, symbols []string) (int, error) {
	if len(symbols) == 0 {
		return 0, fmt.Errorf("%w: refusing to delete against an empty universe", common.ErrInvalidArgument)
	}
	sql := fmt.Sprintf("DELETE %s WHERE symbol NOTINSIDE $symbols RETURN BEFORE", metadataTable)
	vars := map[string]any{"symbols": symbols}

	results, err := surrealdb.Query[[]models.SymbolMetadata](ctx, s.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to prune metadata: %v", common.ErrStoreUnavailable, err)
	}

	count := 0
	if results != nil && len(*results) > 0 {
		count = len((*results)[0].Result)
	}
	return count, nil
}

func (s *MetadataStore) Get(ctx context.Context, symbol string) (*models.SymbolMetadata, error) {
	sql := "SELECT " + metadataFields + " FROM $rid"
	rows, err := s.query(ctx, sql, map[string]any{"rid": recordID(symbol)})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (s *MetadataStore) List(ctx context.Context) ([]*models.SymbolMetadata, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s ORDER BY symbol ASC", metadataFields, metadataTable)
	return s.query(ctx, sql, nil)
}

func (s *MetadataStore) Count(ctx context.Context) (int, error) {
	sql := fmt.Sprintf("SELECT count() AS cnt FROM %s GROUP ALL", metadataTable)

	type countResult struct {
		Cnt int `json:"cnt"`
	}

	results, err := surrealdb.Query[[]countResult](ctx, s.db, sql, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count metadata: %v", common.ErrStoreUnavailable, err)
	}
	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return (*results)[0].Result[0].Cnt, nil
	}
	return 0, nil
}

func (s *MetadataStore) QueryText(ctx context.Context, q interfaces.TextQuery) ([]*models.SymbolMetadata, error) {
	column, err := q.Field.Column()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err)
	}
	key := strings.ToLower(strings.TrimSpace(q.Key))
	if key == "" || q.Limit <= 0 {
		return nil, nil
	}

	vars := map[string]any{
		"key":     key,
		"exclude": nonNil(q.Exclude),
	}

	switch q.Mode {
	case models.MatchPrefix, models.MatchContains:
		fn := "string::starts_with"
		if q.Mode == models.MatchContains {
			fn = "string::contains"
		}
		sql := fmt.Sprintf(
			"SELECT %s FROM %s WHERE %s(string::lowercase(%s), $key) AND symbol NOTINSIDE $exclude ORDER BY total_market_cap DESC, symbol ASC LIMIT %d",
			metadataFields, metadataTable, fn, column, q.Limit)
		return s.query(ctx, sql, vars)

	case models.MatchSimilarity, models.MatchDistance:
		sql := fmt.Sprintf("SELECT %s FROM %s WHERE symbol NOTINSIDE $exclude", metadataFields, metadataTable)
		rows, err := s.query(ctx, sql, vars)
		if err != nil {
			return nil, err
		}
		ranked := q
		ranked.Exclude = nil
		return scan.Text(rows, ranked)
	}
	return nil, fmt.Errorf("%w: unknown match mode %q", common.ErrInvalidArgument, q.Mode)
}

func (s *MetadataStore) Distinct(ctx context.Context, field models.Field) ([]string, error) {
	column, err := field.Column()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err)
	}
	sql := fmt.Sprintf("SELECT symbol, %s FROM %s", column, metadataTable)
	rows, err := s.query(ctx, sql, nil)
	if err != nil {
		return nil, err
	}
	return scan.Distinct(rows, field), nil
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
		column, err := f.Column()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err)
		}
		clauses = append(clauses, column+" INSIDE $values")
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s DESC, symbol ASC LIMIT %d",
		metadataFields, metadataTable, strings.Join(clauses, " OR "), string(q.OrderBy), q.Limit)
	return s.query(ctx, sql, map[string]any{"values": q.Values})
}

// Close closes the SurrealDB connection.
func (s *MetadataStore) Close() error {
	s.db.Close(context.Background())
	return nil
}

func (s *MetadataStore) query(ctx context.Context, sql string, vars map[string]any) ([]*models.SymbolMetadata, error) {
	results, err := surrealdb.Query[[]models.SymbolMetadata](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata query failed: %v", common.ErrStoreUnavailable, err)
	}

	var rows []*models.SymbolMetadata
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			rows = append(rows, &(*results)[0].Result[i])
		}
	}
	return rows, nil
}

func nonNil(symbols []string) []string {
	if symbols == nil {
		return []string{}
	}
	return symbols
}
