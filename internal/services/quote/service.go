// Package quote wraps NSE market lookups for tool callers. Upstream failures
// are logged and surface as nil results, never as errors.
package quote

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
	"github.com/bobmcallan/nsechat/internal/models"
)

// Date formats used by tool callers.
const (
	DateFormat     = "02-01-2006"
	DateTimeFormat = "02-01-2006 15:04:05"
)

// MaxHistoryRange is the widest date range History accepts.
const MaxHistoryRange = 365 * 24 * time.Hour

// filingsLimit caps each section of the corporate filings digest.
const filingsLimit = 5

// historyDateLayout is how NSE reports history timestamps, e.g. "01-Oct-2026".
const historyDateLayout = "02-Jan-2006"

// kolkataLocation is Indian Standard Time (UTC+5:30, no DST).
var kolkataLocation = mustLoadLocation("Asia/Kolkata")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// tzdata may be missing in minimal containers
		return time.FixedZone("IST", 5*60*60+30*60)
	}
	return loc
}

// Service implements interfaces.QuoteService
type Service struct {
	nse    interfaces.NSEClient
	logger *common.Logger
	now    func() time.Time // injectable clock for testing
}

var _ interfaces.QuoteService = (*Service)(nil)

// NewService creates a new quote service
func NewService(nse interfaces.NSEClient, logger *common.Logger) *Service {
	return &Service{
		nse:    nse,
		logger: logger,
		now:    time.Now,
	}
}

// Now returns the current time in Asia/Kolkata.
func (s *Service) Now() time.Time {
	return s.now().In(kolkataLocation)
}

// MarketStatus returns the capital market segment's status.
func (s *Service) MarketStatus(ctx context.Context) *models.MarketState {
	states, err := s.nse.GetMarketStatus(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Market status unavailable")
		return nil
	}
	for i := range states {
		if states[i].Market == models.CapitalMarket {
			state := states[i]
			return &state
		}
	}
	s.logger.Warn().Int("segments", len(states)).Msg("Capital market segment missing from market status")
	return nil
}

// CurrentPrice returns the symbol's price: the close when the capital market
// is shut, otherwise the last traded price.
func (s *Service) CurrentPrice(ctx context.Context, symbol string) *models.PriceSnapshot {
	symbol = normaliseSymbol(symbol)
	if symbol == "" {
		return nil
	}
	detail, err := s.nse.GetStockDetail(ctx, symbol)
	if err != nil || detail == nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Stock price unavailable")
		return nil
	}

	snapshot := &models.PriceSnapshot{
		Symbol:        symbol,
		Price:         detail.LastPrice,
		PreviousClose: detail.PreviousClose,
	}

	state := s.MarketStatus(ctx)
	switch {
	case state == nil:
		// status unknown; last traded price is the best available
	case state.IsOpen():
		snapshot.MarketOpen = true
	case state.Status == models.MarketStatusClosed || state.Status == models.MarketStatusClose:
		if detail.Close > 0 {
			snapshot.Price = detail.Close
		}
	}
	return snapshot
}

// ParseDate parses a DD-MM-YYYY date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateFormat, strings.TrimSpace(s), kolkataLocation)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is not DD-MM-YYYY", common.ErrInvalidArgument, s)
	}
	return t, nil
}

// ValidateHistoryRange checks from <= to and that the range spans at most a year.
func ValidateHistoryRange(from, to time.Time) error {
	if to.Before(from) {
		return fmt.Errorf("%w: from date %s is after to date %s", common.ErrInvalidArgument,
			from.Format(DateFormat), to.Format(DateFormat))
	}
	if to.Sub(from) > MaxHistoryRange {
		return fmt.Errorf("%w: range %s to %s exceeds one year", common.ErrInvalidArgument,
			from.Format(DateFormat), to.Format(DateFormat))
	}
	return nil
}

// History returns closing prices between from and to, oldest first, with the
// range's highest high and lowest low. Callers validate the range first.
func (s *Service) History(ctx context.Context, symbol string, from, to time.Time) *models.PriceHistory {
	symbol = normaliseSymbol(symbol)
	if symbol == "" || ValidateHistoryRange(from, to) != nil {
		return nil
	}
	bars, err := s.nse.GetHistory(ctx, symbol, from, to)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Price history unavailable")
		return nil
	}
	if len(bars) == 0 {
		return nil
	}

	bars = append([]models.HistoryBar(nil), bars...)
	sort.SliceStable(bars, func(i, j int) bool {
		ti, ei := time.Parse(historyDateLayout, bars[i].Date)
		tj, ej := time.Parse(historyDateLayout, bars[j].Date)
		if ei != nil || ej != nil {
			return false
		}
		return ti.Before(tj)
	})

	history := &models.PriceHistory{
		Symbol:  symbol,
		Points:  make([]models.PricePoint, 0, len(bars)),
		Highest: bars[0].High,
		Lowest:  bars[0].Low,
	}
	for _, b := range bars {
		history.Points = append(history.Points, models.PricePoint{Date: b.Date, Close: b.Close})
		if b.High > history.Highest {
			history.Highest = b.High
		}
		if b.Low > 0 && (history.Lowest == 0 || b.Low < history.Lowest) {
			history.Lowest = b.Low
		}
	}
	return history
}

// Week52High returns stocks at a new 52-week high.
func (s *Service) Week52High(ctx context.Context) []models.Week52Entry {
	entries, err := s.nse.Get52WeekHigh(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("52-week high list unavailable")
		return nil
	}
	return nonNilEntries(entries)
}

// Week52Low returns stocks at a new 52-week low.
func (s *Service) Week52Low(ctx context.Context) []models.Week52Entry {
	entries, err := s.nse.Get52WeekLow(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("52-week low list unavailable")
		return nil
	}
	return nonNilEntries(entries)
}

// VolumeGainers returns stocks trading well above their weekly average volume.
func (s *Service) VolumeGainers(ctx context.Context) []models.VolumeGainer {
	gainers, err := s.nse.GetVolumeGainers(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Volume gainers unavailable")
		return nil
	}
	if gainers == nil {
		return []models.VolumeGainer{}
	}
	return gainers
}

// CorporateFilings returns the latest filings digest for symbol, keeping the
// most recent entries of each section.
func (s *Service) CorporateFilings(ctx context.Context, symbol string) *models.CorporateInfo {
	symbol = normaliseSymbol(symbol)
	if symbol == "" {
		return nil
	}
	info, err := s.nse.GetCorporateInfo(ctx, symbol)
	if err != nil || info == nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Corporate filings unavailable")
		return nil
	}

	return &models.CorporateInfo{
		Symbol:           symbol,
		Announcements:    headOf(info.Announcements, filingsLimit),
		BoardMeetings:    headOf(info.BoardMeetings, filingsLimit),
		CorporateActions: headOf(info.CorporateActions, filingsLimit),
		FinancialResults: headOf(info.FinancialResults, filingsLimit),
	}
}

func normaliseSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func nonNilEntries(entries []models.Week52Entry) []models.Week52Entry {
	if entries == nil {
		return []models.Week52Entry{}
	}
	return entries
}

func headOf[T any](items []T, n int) []T {
	if len(items) > n {
		items = items[:n]
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
