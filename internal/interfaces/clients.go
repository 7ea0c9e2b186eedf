package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/nsechat/internal/models"
)

// NSEClient provides access to the NSE website's JSON API.
// Failures are returned as errors wrapping common.ErrUpstreamUnavailable;
// services decide how to absorb them.
type NSEClient interface {
	// GetUniverse returns the symbols currently tradable in the capital market.
	GetUniverse(ctx context.Context) ([]string, error)

	// GetStockDetail returns company, classification, price and trade details for a symbol.
	GetStockDetail(ctx context.Context, symbol string) (*models.StockDetail, error)

	// GetHistory returns daily prices for a symbol between two dates (inclusive).
	GetHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.HistoryBar, error)

	// Get52WeekHigh returns stocks trading at a new 52-week high.
	Get52WeekHigh(ctx context.Context) ([]models.Week52Entry, error)

	// Get52WeekLow returns stocks trading at a new 52-week low.
	Get52WeekLow(ctx context.Context) ([]models.Week52Entry, error)

	// GetVolumeGainers returns stocks with traded volume well above their weekly average.
	GetVolumeGainers(ctx context.Context) ([]models.VolumeGainer, error)

	// GetMarketStatus returns the status of every market segment.
	GetMarketStatus(ctx context.Context) ([]models.MarketState, error)

	// GetCorporateInfo returns the filings digest for a symbol.
	GetCorporateInfo(ctx context.Context, symbol string) (*models.CorporateInfo, error)
}

// ResponseCache stores raw upstream response bodies for a bounded time.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Close() error
}
