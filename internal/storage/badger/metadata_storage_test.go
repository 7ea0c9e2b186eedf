package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
	"github.com/bobmcallan/nsechat/internal/models"
)

func newTestStorage(t *testing.T) *MetadataStorage {
	t.Helper()
	logger := common.NewSilentLogger()
	store, err := NewStore(logger, common.BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	ms := NewMetadataStorage(store, logger)
	t.Cleanup(func() { ms.Close() })
	return ms
}

func seed(t *testing.T, ms *MetadataStorage, rows ...*models.SymbolMetadata) {
	t.Helper()
	for _, r := range rows {
		require.NoError(t, ms.Upsert(context.Background(), r))
	}
}

func TestStore_OpenCloseOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "metadata")
	store, err := NewStore(common.NewSilentLogger(), common.BadgerConfig{Path: dir})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if store.DB() == nil {
		t.Fatal("expected non-nil DB")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestStore_CloseNilDB(t *testing.T) {
	store := &Store{}
	if err := store.Close(); err != nil {
		t.Fatalf("Close on nil DB should not error: %v", err)
	}
}

func TestMetadataStorage_UpsertOverwrites(t *testing.T) {
	ms := newTestStorage(t)
	ctx := context.Background()

	seed(t, ms, &models.SymbolMetadata{Symbol: "TCS", Name: "Tata Consultancy", Sector: "IT"})
	seed(t, ms, &models.SymbolMetadata{Symbol: "TCS", Name: "Tata Consultancy Services Limited", Sector: "Information Technology", TotalMarketCap: 42})

	got, err := ms.Get(ctx, "TCS")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Tata Consultancy Services Limited", got.Name)
	assert.Equal(t, "Information Technology", got.Sector)
	assert.Equal(t, 42.0, got.TotalMarketCap)

	n, err := ms.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetadataStorage_UpsertRequiresSymbol(t *testing.T) {
	ms := newTestStorage(t)
	err := ms.Upsert(context.Background(), &models.SymbolMetadata{Name: "Nameless"})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestMetadataStorage_GetMissing(t *testing.T) {
	ms := newTestStorage(t)
	got, err := ms.Get(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMetadataStorage_DeleteNotIn(t *testing.T) {
	ms := newTestStorage(t)
	ctx := context.Background()
	seed(t, ms,
		&models.SymbolMetadata{Symbol: "A", Name: "Alpha"},
		&models.SymbolMetadata{Symbol: "B", Name: "Beta"},
		&models.SymbolMetadata{Symbol: "C", Name: "Gamma"},
	)

	deleted, err := ms.DeleteNotIn(ctx, []string{"B", "C", "D"})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	rows, err := ms.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[0].Symbol)
	assert.Equal(t, "C", rows[1].Symbol)
}

func TestMetadataStorage_DeleteNotInEmptyRejected(t *testing.T) {
	ms := newTestStorage(t)
	ctx := context.Background()
	seed(t, ms, &models.SymbolMetadata{Symbol: "A", Name: "Alpha"})

	_, err := ms.DeleteNotIn(ctx, nil)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	n, err := ms.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetadataStorage_QueryAndRollups(t *testing.T) {
	ms := newTestStorage(t)
	ctx := context.Background()
	seed(t, ms,
		&models.SymbolMetadata{Symbol: "TCS", Name: "Tata Consultancy Services Limited", Sector: "Information Technology", Industry: "IT - Software", TotalMarketCap: 100},
		&models.SymbolMetadata{Symbol: "INFY", Name: "Infosys Limited", Sector: "Information Technology", Industry: "IT - Software", TotalMarketCap: 60},
		&models.SymbolMetadata{Symbol: "TATAMOTORS", Name: "Tata Motors Limited", Sector: "Automobile and Auto Components", Industry: "Automobiles", TotalMarketCap: 30},
	)

	rows, err := ms.QueryText(ctx, interfaces.TextQuery{Field: models.FieldName, Key: "tata", Mode: models.MatchPrefix, Limit: 3})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "TCS", rows[0].Symbol)

	sectors, err := ms.Distinct(ctx, models.FieldSector)
	require.NoError(t, err)
	assert.Equal(t, []string{"Automobile and Auto Components", "Information Technology"}, sectors)

	top, err := ms.TopN(ctx, interfaces.TopQuery{
		OrderBy: models.NumericTotalMarketCap,
		Fields:  models.ClassificationFields,
		Values:  []string{"IT - Software"},
		Limit:   1,
	})
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "TCS", top[0].Symbol)
}
