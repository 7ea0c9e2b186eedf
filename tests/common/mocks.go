package common

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
	"github.com/bobmcallan/nsechat/internal/models"
	"github.com/bobmcallan/nsechat/internal/storage/badger"
)

// MockNSEClient implements interfaces.NSEClient for testing. Symbols listed in
// FailDetail fail their detail fetch; a nil Universe fails the universe fetch.
type MockNSEClient struct {
	mu sync.Mutex

	Universe      []string
	Details       map[string]*models.StockDetail
	FailDetail    map[string]bool
	History       map[string][]models.HistoryBar
	High52        []models.Week52Entry
	Low52         []models.Week52Entry
	Gainers       []models.VolumeGainer
	MarketStates  []models.MarketState
	Corporate     map[string]*models.CorporateInfo
	Unavailable   bool // every call fails
	DetailCalls   int
	UniverseCalls int
}

var _ interfaces.NSEClient = (*MockNSEClient)(nil)

// NewMockNSEClient creates a mock NSE client with empty data.
func NewMockNSEClient() *MockNSEClient {
	return &MockNSEClient{
		Details:    make(map[string]*models.StockDetail),
		FailDetail: make(map[string]bool),
		History:    make(map[string][]models.HistoryBar),
		Corporate:  make(map[string]*models.CorporateInfo),
	}
}

// AddStock registers a symbol in the universe with its detail record.
func (m *MockNSEClient) AddStock(d *models.StockDetail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Universe = append(m.Universe, d.Symbol)
	m.Details[d.Symbol] = d
}

func unavailable(what string) error {
	return fmt.Errorf("%w: mock %s", common.ErrUpstreamUnavailable, what)
}

func (m *MockNSEClient) GetUniverse(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UniverseCalls++
	if m.Unavailable || m.Universe == nil {
		return nil, unavailable("universe")
	}
	return append([]string(nil), m.Universe...), nil
}

func (m *MockNSEClient) GetStockDetail(ctx context.Context, symbol string) (*models.StockDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DetailCalls++
	if m.Unavailable || m.FailDetail[symbol] {
		return nil, unavailable("detail " + symbol)
	}
	d, ok := m.Details[symbol]
	if !ok {
		return nil, unavailable("detail " + symbol)
	}
	cp := *d
	return &cp, nil
}

func (m *MockNSEClient) GetHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.HistoryBar, error) {
	if m.Unavailable {
		return nil, unavailable("history")
	}
	bars, ok := m.History[symbol]
	if !ok {
		return nil, unavailable("history " + symbol)
	}
	return bars, nil
}

func (m *MockNSEClient) Get52WeekHigh(ctx context.Context) ([]models.Week52Entry, error) {
	if m.Unavailable || m.High52 == nil {
		return nil, unavailable("52 week high")
	}
	return m.High52, nil
}

func (m *MockNSEClient) Get52WeekLow(ctx context.Context) ([]models.Week52Entry, error) {
	if m.Unavailable || m.Low52 == nil {
		return nil, unavailable("52 week low")
	}
	return m.Low52, nil
}

func (m *MockNSEClient) GetVolumeGainers(ctx context.Context) ([]models.VolumeGainer, error) {
	if m.Unavailable || m.Gainers == nil {
		return nil, unavailable("volume gainers")
	}
	return m.Gainers, nil
}

func (m *MockNSEClient) GetMarketStatus(ctx context.Context) ([]models.MarketState, error) {
	if m.Unavailable || m.MarketStates == nil {
		return nil, unavailable("market status")
	}
	return m.MarketStates, nil
}

func (m *MockNSEClient) GetCorporateInfo(ctx context.Context, symbol string) (*models.CorporateInfo, error) {
	if m.Unavailable {
		return nil, unavailable("corporate info")
	}
	info, ok := m.Corporate[symbol]
	if !ok {
		return nil, unavailable("corporate info " + symbol)
	}
	return info, nil
}

// NewMemoryStore returns an in-memory Badger metadata store closed at test end.
func NewMemoryStore(t *testing.T) interfaces.MetadataStore {
	t.Helper()
	logger := common.NewSilentLogger()
	store, err := badger.NewStore(logger, common.BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	ms := badger.NewMetadataStorage(store, logger)
	t.Cleanup(func() { ms.Close() })
	return ms
}

// SeedStore upserts rows into store, failing the test on error.
func SeedStore(t *testing.T, store interfaces.MetadataStore, rows ...*models.SymbolMetadata) {
	t.Helper()
	for _, r := range rows {
		if err := store.Upsert(context.Background(), r); err != nil {
			t.Fatalf("seed %s: %v", r.Symbol, err)
		}
	}
}

// SampleRows returns a small realistic metadata set.
func SampleRows() []*models.SymbolMetadata {
	return []*models.SymbolMetadata{
		{Symbol: "TCS", Name: "Tata Consultancy Services Limited", Sector: "Information Technology", Industry: "IT - Software", IndustryInfo: "Computers - Software & Consulting", TotalMarketCap: 1400000},
		{Symbol: "TATAMOTORS", Name: "Tata Motors Limited", Sector: "Automobile and Auto Components", Industry: "Automobiles", IndustryInfo: "Passenger Cars & Utility Vehicles", TotalMarketCap: 350000},
		{Symbol: "INFY", Name: "Infosys Limited", Sector: "Information Technology", Industry: "IT - Software", IndustryInfo: "Computers - Software & Consulting", TotalMarketCap: 760000},
	}
}
