package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
	"github.com/bobmcallan/nsechat/internal/models"
	tcommon "github.com/bobmcallan/nsechat/tests/common"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store := tcommon.NewMemoryStore(t)
	tcommon.SeedStore(t, store, tcommon.SampleRows()...)
	tcommon.SeedStore(t, store,
		&models.SymbolMetadata{Symbol: "HCLTECH", Name: "HCL Technologies Limited", Sector: "Information Technology", Industry: "IT - Software", IndustryInfo: "Computers - Software & Consulting", TotalMarketCap: 450000},
		&models.SymbolMetadata{Symbol: "OFSS", Name: "Oracle Financial Services Software Limited", Sector: "Information Technology", Industry: "IT - Software", IndustryInfo: "Software Products", TotalMarketCap: 80000},
		&models.SymbolMetadata{Symbol: "NEWLIST", Name: "Unclassified Listing Limited"},
	)
	return NewService(store, common.NewSilentLogger())
}

func TestListLabels(t *testing.T) {
	svc := newTestService(t)

	labels, err := svc.ListLabels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Automobile and Auto Components",
		"Automobiles",
		"Computers - Software & Consulting",
		"IT - Software",
		"Information Technology",
		"Passenger Cars & Utility Vehicles",
		"Software Products",
	}, labels)
}

func TestListLabels_EmptyStore(t *testing.T) {
	svc := NewService(tcommon.NewMemoryStore(t), common.NewSilentLogger())
	labels, err := svc.ListLabels(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, labels)
	assert.Empty(t, labels)
}

func TestTopCompaniesIn_ExactLabel(t *testing.T) {
	svc := newTestService(t)

	top, err := svc.TopCompaniesIn(context.Background(), []string{"Information Technology"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{
		{"TCS": "Tata Consultancy Services Limited"},
		{"INFY": "Infosys Limited"},
		{"HCLTECH": "HCL Technologies Limited"},
		{"OFSS": "Oracle Financial Services Software Limited"},
	}, top)
}

func TestTopCompaniesIn_RespectsTopN(t *testing.T) {
	svc := newTestService(t)

	top, err := svc.TopCompaniesIn(context.Background(), []string{"IT - Software"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{
		{"TCS": "Tata Consultancy Services Limited"},
		{"INFY": "Infosys Limited"},
	}, top)
}

func TestTopCompaniesIn_MatchesAnyDimension(t *testing.T) {
	svc := newTestService(t)

	top, err := svc.TopCompaniesIn(context.Background(), []string{"Software Products", "Automobiles"}, 10)
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{
		{"TATAMOTORS": "Tata Motors Limited"},
		{"OFSS": "Oracle Financial Services Software Limited"},
	}, top)
}

func TestTopCompaniesIn_NotFuzzy(t *testing.T) {
	svc := newTestService(t)

	for _, labels := range [][]string{{"information technology"}, {"Information"}, {""}, nil} {
		top, err := svc.TopCompaniesIn(context.Background(), labels, 10)
		require.NoError(t, err)
		assert.NotNil(t, top)
		assert.Empty(t, top, "labels %v", labels)
	}
}

type failingStore struct {
	interfaces.MetadataStore
}

func (failingStore) Distinct(context.Context, models.Field) ([]string, error) {
	return nil, common.ErrStoreUnavailable
}

func (failingStore) TopN(context.Context, interfaces.TopQuery) ([]*models.SymbolMetadata, error) {
	return nil, common.ErrStoreUnavailable
}

func TestStoreFailurePropagates(t *testing.T) {
	svc := NewService(failingStore{}, common.NewSilentLogger())

	_, err := svc.ListLabels(context.Background())
	assert.True(t, errors.Is(err, common.ErrStoreUnavailable))

	_, err = svc.TopCompaniesIn(context.Background(), []string{"Banks"}, 5)
	assert.True(t, errors.Is(err, common.ErrStoreUnavailable))
}
