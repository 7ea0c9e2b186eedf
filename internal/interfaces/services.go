package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/nsechat/internal/models"
)

// SearchService resolves free text to companies and classification labels
type SearchService interface {
	// SearchCompanies matches key against company name and symbol.
	SearchCompanies(ctx context.Context, key string) ([]models.CompanyMatch, error)

	// SearchIndustries matches key against sector, industry and sub-industry
	// and returns the distinct industry labels of the matched rows.
	SearchIndustries(ctx context.Context, key string) ([]string, error)
}

// ClassificationService exposes the label vocabulary and label rollups
type ClassificationService interface {
	// ListLabels returns every distinct sector, industry and sub-industry label.
	ListLabels(ctx context.Context) ([]string, error)

	// TopCompaniesIn returns up to topN {symbol: name} pairs whose sector,
	// industry or sub-industry equals one of labels, largest market cap first.
	TopCompaniesIn(ctx context.Context, labels []string, topN int) ([]map[string]string, error)
}

// RefreshService reconciles the metadata store with the NSE universe
type RefreshService interface {
	// Reconcile runs one reconciliation to completion.
	Reconcile(ctx context.Context, trigger string) (*models.RefreshRun, error)

	// TriggerAsync starts a reconciliation in the background and returns its run ID.
	TriggerAsync(trigger string) (string, error)

	// LastRun returns the most recent run, or nil before the first one.
	LastRun() *models.RefreshRun

	// Running reports whether a reconciliation is in progress.
	Running() bool
}

// QuoteService wraps NSE lookups for tool callers. Every method returns nil
// when the data could not be fetched; failures are logged, not returned.
type QuoteService interface {
	MarketStatus(ctx context.Context) *models.MarketState
	CurrentPrice(ctx context.Context, symbol string) *models.PriceSnapshot
	History(ctx context.Context, symbol string, from, to time.Time) *models.PriceHistory
	Week52High(ctx context.Context) []models.Week52Entry
	Week52Low(ctx context.Context) []models.Week52Entry
	VolumeGainers(ctx context.Context) []models.VolumeGainer
	CorporateFilings(ctx context.Context, symbol string) *models.CorporateInfo
	Now() time.Time
}
