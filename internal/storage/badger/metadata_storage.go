package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
	"github.com/bobmcallan/nsechat/internal/models"
	"github.com/bobmcallan/nsechat/internal/storage/scan"
)

// MetadataStorage implements interfaces.MetadataStore on BadgerHold.
// Text ranking runs in process over the loaded rows.
type MetadataStorage struct {
	store  *Store
	logger *common.Logger
}

var _ interfaces.MetadataStore = (*MetadataStorage)(nil)

// NewMetadataStorage creates a metadata store over an open Store.
func NewMetadataStorage(store *Store, logger *common.Logger) *MetadataStorage {
	return &MetadataStorage{store: store, logger: logger}
}

func (m *MetadataStorage) Upsert(_ context.Context, row *models.SymbolMetadata) error {
	if row == nil || row.Symbol == "" {
		return fmt.Errorf("%w: metadata row requires a symbol", common.ErrInvalidArgument)
	}
	if err := m.store.db.Upsert(row.Symbol, row); err != nil {
		return fmt.Errorf("%w: failed to upsert %s: %v", common.ErrStoreUnavailable, row.Symbol, err)
	}
	return nil
}

func (m *MetadataStorage) DeleteNotIn(ctx context.Context, symbols []string) (int, error) {
	if len(symbols) == 0 {
		return 0, fmt.Errorf("%w: refusing to delete against an empty universe", common.ErrInvalidArgument)
	}
	keep := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		keep[s] = struct{}{}
	}

	rows, err := m.List(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, row := range rows {
		if _, ok := keep[row.Symbol]; ok {
			continue
		}
		if err := m.store.db.Delete(row.Symbol, &models.SymbolMetadata{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
			return deleted, fmt.Errorf("%w: failed to delete %s: %v", common.ErrStoreUnavailable, row.Symbol, err)
		}
		deleted++
	}
	return deleted, nil
}

func (m *MetadataStorage) Get(_ context.Context, symbol string) (*models.SymbolMetadata, error) {
	var row models.SymbolMetadata
	if err := m.store.db.Get(symbol, &row); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to get %s: %v", common.ErrStoreUnavailable, symbol, err)
	}
	return &row, nil
}

func (m *MetadataStorage) List(_ context.Context) ([]*models.SymbolMetadata, error) {
	var rows []models.SymbolMetadata
	if err := m.store.db.Find(&rows, nil); err != nil {
		return nil, fmt.Errorf("%w: failed to list metadata: %v", common.ErrStoreUnavailable, err)
	}
	out := make([]*models.SymbolMetadata, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *MetadataStorage) Count(_ context.Context) (int, error) {
	count, err := m.store.db.Count(&models.SymbolMetadata{}, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count metadata: %v", common.ErrStoreUnavailable, err)
	}
	return int(count), nil
}

func (m *MetadataStorage) QueryText(ctx context.Context, q interfaces.TextQuery) ([]*models.SymbolMetadata, error) {
	rows, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	return scan.Text(rows, q)
}

func (m *MetadataStorage) Distinct(ctx context.Context, field models.Field) ([]string, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("%w: unknown field %q", common.ErrInvalidArgument, field)
	}
	rows, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	return scan.Distinct(rows, field), nil
}

func (m *MetadataStorage) TopN(ctx context.Context, q interfaces.TopQuery) ([]*models.SymbolMetadata, error) {
	if !q.OrderBy.Valid() {
		return nil, fmt.Errorf("%w: unknown numeric field %q", common.ErrInvalidArgument, q.OrderBy)
	}
	if len(q.Values) == 0 {
		return nil, nil
	}
	rows, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	return scan.Top(rows, q), nil
}

// Close closes the underlying store.
func (m *MetadataStorage) Close() error {
	return m.store.Close()
}
