package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
	"github.com/bobmcallan/nsechat/internal/models"
	tcommon "github.com/bobmcallan/nsechat/tests/common"
)

func testStore(t *testing.T) *MetadataStore {
	t.Helper()

	pc := tcommon.StartPostgres(t)
	ctx := context.Background()

	db, err := Connect(ctx, common.NewSilentLogger(), common.PostgresConfig{DSN: pc.DSN(), MaxOpenConns: 4})
	require.NoError(t, err)

	// The container is shared across tests; start each test from an empty table.
	_, err = db.ExecContext(ctx, `TRUNCATE nse_metadata`)
	require.NoError(t, err)

	store := NewMetadataStore(db, common.NewSilentLogger())
	t.Cleanup(func() { store.Close() })
	return store
}

func symbolsOf(rows []*models.SymbolMetadata) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Symbol
	}
	return out
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, escapeLike(`50% off_now\`))
	assert.Equal(t, "tata", escapeLike("tata"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "ab", truncate("ab", 3))
}

func TestMetadataStore_UpsertGetCount(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	tcommon.SeedStore(t, store, tcommon.SampleRows()...)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	row, err := store.Get(ctx, "INFY")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Infosys Limited", row.Name)
	assert.False(t, row.RefreshedAt.IsZero())

	row.Name = "Infosys Ltd"
	require.NoError(t, store.Upsert(ctx, row))
	row, err = store.Get(ctx, "INFY")
	require.NoError(t, err)
	assert.Equal(t, "Infosys Ltd", row.Name)

	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	missing, err := store.Get(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMetadataStore_DeleteNotIn(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	tcommon.SeedStore(t, store,
		&models.SymbolMetadata{Symbol: "A", Name: "Alpha"},
		&models.SymbolMetadata{Symbol: "B", Name: "Beta"},
		&models.SymbolMetadata{Symbol: "C", Name: "Gamma"},
	)

	deleted, err := store.DeleteNotIn(ctx, []string{"B", "C", "D"})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	rows, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, symbolsOf(rows))

	_, err = store.DeleteNotIn(ctx, []string{})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestMetadataStore_QueryText(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	tcommon.SeedStore(t, store, tcommon.SampleRows()...)

	rows, err := store.QueryText(ctx, interfaces.TextQuery{Field: models.FieldName, Key: "Tata", Mode: models.MatchPrefix, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"TCS", "TATAMOTORS"}, symbolsOf(rows))

	rows, err = store.QueryText(ctx, interfaces.TextQuery{
		Field:   models.FieldName,
		Key:     "limited",
		Mode:    models.MatchContains,
		Exclude: []string{"TCS"},
		Limit:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"INFY", "TATAMOTORS"}, symbolsOf(rows))

	rows, err = store.QueryText(ctx, interfaces.TextQuery{Field: models.FieldSymbol, Key: "tata", Mode: models.MatchSimilarity, MinSimilarity: 0.1, Limit: 3})
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "TATAMOTORS", rows[0].Symbol)

	rows, err = store.QueryText(ctx, interfaces.TextQuery{Field: models.FieldSymbol, Key: "infi", Mode: models.MatchDistance, MaxDistance: 2, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"INFY"}, symbolsOf(rows))

	rows, err = store.QueryText(ctx, interfaces.TextQuery{Field: models.FieldName, Key: "%", Mode: models.MatchContains, Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = store.QueryText(ctx, interfaces.TextQuery{Field: "ticker", Key: "x", Mode: models.MatchPrefix, Limit: 1})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestMetadataStore_DistinctAndTopN(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	tcommon.SeedStore(t, store, tcommon.SampleRows()...)

	sectors, err := store.Distinct(ctx, models.FieldSector)
	require.NoError(t, err)
	assert.Equal(t, []string{"Automobile and Auto Components", "Information Technology"}, sectors)

	top, err := store.TopN(ctx, interfaces.TopQuery{
		OrderBy: models.NumericTotalMarketCap,
		Fields:  models.ClassificationFields,
		Values:  []string{"Automobiles", "IT - Software"},
		Limit:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"TCS", "INFY"}, symbolsOf(top))
}
