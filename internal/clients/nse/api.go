package nse

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/models"
)

// Upstream paths
const (
	pathPreOpen       = "/api/market-data-pre-open"
	pathQuote         = "/api/quote-equity"
	pathHistory       = "/api/NextApi/apiClient/GetQuoteApi"
	path52WeekHigh    = "/api/live-analysis-data-52weekhighstock"
	path52WeekLow     = "/api/live-analysis-data-52weeklowstock"
	pathVolumeGainers = "/api/live-analysis-volume-gainers"
	pathMarketStatus  = "/api/marketStatus"
	pathCorpInfo      = "/api/top-corp-info"
)

// Cache lifetimes per endpoint
const (
	ttlUniverse     = 10 * time.Minute
	ttlQuote        = 30 * time.Second
	ttlHistory      = time.Hour
	ttlLiveAnalysis = 2 * time.Minute
	ttlMarketStatus = 30 * time.Second
	ttlCorpInfo     = time.Hour
)

const historyDateFormat = "02-01-2006"

// GetUniverse returns the distinct symbols listed in the pre-open market data.
func (c *Client) GetUniverse(ctx context.Context) ([]string, error) {
	params := url.Values{}
	params.Set("key", "ALL")

	var resp preOpenResponse
	if err := c.get(ctx, pathPreOpen, params, ttlUniverse, &resp); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(resp.Data))
	symbols := make([]string, 0, len(resp.Data))
	for _, d := range resp.Data {
		s := strings.TrimSpace(d.Metadata.Symbol)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		symbols = append(symbols, s)
	}

	c.logger.Debug().Int("symbols", len(symbols)).Msg("NSE universe fetched")
	return symbols, nil
}

// GetStockDetail returns the equity quote for symbol merged with its trade info.
// Trade info is best-effort; when it cannot be fetched the trade figures stay zero.
func (c *Client) GetStockDetail(ctx context.Context, symbol string) (*models.StockDetail, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", common.ErrInvalidArgument)
	}
	params := url.Values{}
	params.Set("symbol", symbol)

	var quote quoteResponse
	if err := c.get(ctx, pathQuote, params, ttlQuote, &quote); err != nil {
		return nil, err
	}

	detail := &models.StockDetail{
		Symbol:        quote.Info.Symbol,
		CompanyName:   quote.Info.CompanyName,
		Macro:         quote.IndustryInfo.Macro,
		Sector:        quote.IndustryInfo.Sector,
		Industry:      quote.IndustryInfo.Industry,
		BasicIndustry: quote.IndustryInfo.BasicIndustry,
		LastPrice:     float64(quote.PriceInfo.LastPrice),
		Close:         float64(quote.PriceInfo.Close),
		PreviousClose: float64(quote.PriceInfo.PreviousClose),
		Change:        float64(quote.PriceInfo.Change),
		ChangePct:     float64(quote.PriceInfo.PChange),
		WeekHigh:      float64(quote.PriceInfo.WeekHighLow.Max),
		WeekLow:       float64(quote.PriceInfo.WeekHighLow.Min),
	}
	if detail.Industry == "" {
		detail.Industry = quote.Info.Industry
	}

	tradeParams := url.Values{}
	tradeParams.Set("symbol", symbol)
	tradeParams.Set("section", "trade_info")

	var trade tradeInfoResponse
	if err := c.get(ctx, pathQuote, tradeParams, ttlQuote, &trade); err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Trade info unavailable")
	} else {
		info := trade.MarketDeptOrderBook.TradeInfo
		detail.TotalTradedVolume = float64(info.TotalTradedVolume)
		detail.TotalTradedValue = float64(info.TotalTradedValue)
		detail.TotalMarketCap = float64(info.TotalMarketCap)
	}

	return detail, nil
}

// GetHistory returns EQ-series daily prices between from and to.
func (c *Client) GetHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.HistoryBar, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", common.ErrInvalidArgument)
	}
	params := url.Values{}
	params.Set("functionName", "getHistoricalTradeData")
	params.Set("symbol", symbol)
	params.Set("series", "EQ")
	params.Set("fromDate", from.Format(historyDateFormat))
	params.Set("toDate", to.Format(historyDateFormat))

	var resp historyResponse
	if err := c.get(ctx, pathHistory, params, ttlHistory, &resp); err != nil {
		return nil, err
	}

	bars := make([]models.HistoryBar, 0, len(resp))
	for _, item := range resp {
		bars = append(bars, models.HistoryBar{
			Symbol: item.Symbol,
			Series: item.Series,
			Date:   item.Timestamp,
			Open:   float64(item.Open),
			High:   float64(item.High),
			Low:    float64(item.Low),
			Close:  float64(item.Close),
		})
	}
	return bars, nil
}

// Get52WeekHigh returns stocks trading at a new 52-week high.
func (c *Client) Get52WeekHigh(ctx context.Context) ([]models.Week52Entry, error) {
	return c.week52(ctx, path52WeekHigh)
}

// Get52WeekLow returns stocks trading at a new 52-week low.
func (c *Client) Get52WeekLow(ctx context.Context) ([]models.Week52Entry, error) {
	return c.week52(ctx, path52WeekLow)
}

func (c *Client) week52(ctx context.Context, path string) ([]models.Week52Entry, error) {
	var resp week52Response
	if err := c.get(ctx, path, nil, ttlLiveAnalysis, &resp); err != nil {
		return nil, err
	}

	entries := make([]models.Week52Entry, 0, len(resp.Data))
	for _, d := range resp.Data {
		entries = append(entries, models.Week52Entry{
			Symbol:          d.Symbol,
			Series:          d.Series,
			Name:            d.CompanyName,
			NewExtreme:      float64(d.NewExtreme),
			PreviousExtreme: float64(d.PrevExtreme),
			PreviousDate:    d.PrevDate,
			Price:           float64(d.LTP),
			ChangePct:       float64(d.PChange),
		})
	}
	return entries, nil
}

// GetVolumeGainers returns stocks with volume well above their weekly average.
func (c *Client) GetVolumeGainers(ctx context.Context) ([]models.VolumeGainer, error) {
	var resp volumeGainersResponse
	if err := c.get(ctx, pathVolumeGainers, nil, ttlLiveAnalysis, &resp); err != nil {
		return nil, err
	}

	gainers := make([]models.VolumeGainer, 0, len(resp.Data))
	for _, d := range resp.Data {
		gainers = append(gainers, models.VolumeGainer{
			Symbol:        d.Symbol,
			Name:          d.CompanyName,
			Volume:        float64(d.Volume),
			WeekAvgVolume: float64(d.Week1AvgVolume),
			Price:         float64(d.LTP),
			ChangePct:     float64(d.PChange),
			Turnover:      float64(d.Turnover),
		})
	}
	return gainers, nil
}

// GetMarketStatus returns the status of every market segment.
func (c *Client) GetMarketStatus(ctx context.Context) ([]models.MarketState, error) {
	var resp marketStatusResponse
	if err := c.get(ctx, pathMarketStatus, nil, ttlMarketStatus, &resp); err != nil {
		return nil, err
	}

	states := make([]models.MarketState, 0, len(resp.MarketState))
	for _, m := range resp.MarketState {
		states = append(states, models.MarketState{
			Market:    m.Market,
			Status:    m.MarketStatus,
			TradeDate: m.TradeDate,
			Message:   m.MarketStatusMessage,
		})
	}
	return states, nil
}

// GetCorporateInfo returns the announcements, meetings, actions and results digest for symbol.
func (c *Client) GetCorporateInfo(ctx context.Context, symbol string) (*models.CorporateInfo, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", common.ErrInvalidArgument)
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("market", "equities")

	var resp corpInfoResponse
	if err := c.get(ctx, pathCorpInfo, params, ttlCorpInfo, &resp); err != nil {
		return nil, err
	}

	info := &models.CorporateInfo{
		Symbol:           symbol,
		Announcements:    []models.Announcement{},
		BoardMeetings:    []models.BoardMeeting{},
		CorporateActions: []models.CorporateAction{},
		FinancialResults: []models.FinancialResult{},
	}
	for _, a := range resp.Announcements.Data {
		info.Announcements = append(info.Announcements, models.Announcement{Date: a.Date, Subject: a.Subject})
	}
	for _, m := range resp.BoardMeetings.Data {
		info.BoardMeetings = append(info.BoardMeetings, models.BoardMeeting{Date: m.Date, Purpose: m.Purpose})
	}
	for _, a := range resp.CorporateActions.Data {
		info.CorporateActions = append(info.CorporateActions, models.CorporateAction{ExDate: a.ExDate, Purpose: a.Purpose})
	}
	for _, r := range resp.FinancialResults.Data {
		info.FinancialResults = append(info.FinancialResults, models.FinancialResult{
			FromDate:        r.FromDate,
			ToDate:          r.ToDate,
			Income:          float64(r.Income),
			Expenditure:     float64(r.Expenditure),
			ProfitBeforeTax: float64(r.ProfitBeforeTax),
			ProfitAfterTax:  float64(r.ProfitAfterTax),
			DilutedEPS:      float64(r.DilutedEPS),
		})
	}
	return info, nil
}
