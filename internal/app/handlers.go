package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
	"github.com/bobmcallan/nsechat/internal/models"
	"github.com/bobmcallan/nsechat/internal/services/classify"
	"github.com/bobmcallan/nsechat/internal/services/quote"
)

// marketStatusView is the get_market_status payload.
type marketStatusView struct {
	Market    string `json:"market"`
	Status    string `json:"status"`
	TradeDate string `json:"trade_date"`
	Message   string `json:"message"`
	Open      bool   `json:"open"`
}

// handleGetCurrentDateTime implements the get_current_date_time tool
func handleGetCurrentDateTime(quotes interfaces.QuoteService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult(quotes.Now().Format(quote.DateTimeFormat)), nil
	}
}

// handleGetMarketStatus implements the get_market_status tool
func handleGetMarketStatus(quotes interfaces.QuoteService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		state := quotes.MarketStatus(ctx)
		if state == nil {
			return textResult("UNKNOWN: Unable to get market status from NSE"), nil
		}
		return jsonResult(marketStatusView{
			Market:    state.Market,
			Status:    state.Status,
			TradeDate: state.TradeDate,
			Message:   state.Message,
			Open:      state.IsOpen(),
		})
	}
}

// handleGetStockPrice implements the get_stock_price tool
func handleGetStockPrice(quotes interfaces.QuoteService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol := strings.ToUpper(strings.TrimSpace(request.GetString("symbol", "")))
		if symbol == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}

		snapshot := quotes.CurrentPrice(ctx, symbol)
		if snapshot == nil {
			return textResult(fmt.Sprintf("Unable to fetch stock price for %s from NSE", symbol)), nil
		}
		return jsonResult(snapshot)
	}
}

// handleGetStockHistory implements the get_stock_history tool
func handleGetStockHistory(quotes interfaces.QuoteService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol := strings.ToUpper(strings.TrimSpace(request.GetString("symbol", "")))
		if symbol == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}

		from, err := quote.ParseDate(request.GetString("from_date", ""))
		if err != nil {
			return errorResult(fmt.Sprintf("Error: from_date: %v", err)), nil
		}
		to, err := quote.ParseDate(request.GetString("to_date", ""))
		if err != nil {
			return errorResult(fmt.Sprintf("Error: to_date: %v", err)), nil
		}
		if err := quote.ValidateHistoryRange(from, to); err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		history := quotes.History(ctx, symbol, from, to)
		if history == nil {
			return textResult(fmt.Sprintf("Unable to fetch historical data for %s from NSE", symbol)), nil
		}
		return jsonResult(history)
	}
}

// handleGet52WeekHigh implements the get_52_week_high tool
func handleGet52WeekHigh(quotes interfaces.QuoteService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entries := quotes.Week52High(ctx)
		if entries == nil {
			return textResult("Unable to fetch 52-week high data from NSE"), nil
		}
		return jsonResult(entries)
	}
}

// handleGet52WeekLow implements the get_52_week_low tool
func handleGet52WeekLow(quotes interfaces.QuoteService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entries := quotes.Week52Low(ctx)
		if entries == nil {
			return textResult("Unable to fetch 52-week low data from NSE"), nil
		}
		return jsonResult(entries)
	}
}

// handleGetVolumeGainers implements the get_volume_gainers tool
func handleGetVolumeGainers(quotes interfaces.QuoteService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		gainers := quotes.VolumeGainers(ctx)
		if gainers == nil {
			return textResult("Unable to fetch weekly volume gainers from NSE"), nil
		}
		return jsonResult(gainers)
	}
}

// handleSearchCompany implements the search_company tool
func handleSearchCompany(search interfaces.SearchService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key := strings.TrimSpace(request.GetString("search_key", ""))
		if key == "" {
			return errorResult("Error: search_key parameter is required"), nil
		}

		matches, err := search.SearchCompanies(ctx, key)
		if err != nil {
			logger.Error().Err(err).Str("key", key).Msg("Company search failed")
			return errorResult(fmt.Sprintf("Search error: %v", err)), nil
		}
		if len(matches) == 0 {
			return textResult(fmt.Sprintf("No companies matched %q", key)), nil
		}
		return jsonResult(matches)
	}
}

// handleSearchSectorOrIndustry implements the search_sector_or_industry tool
func handleSearchSectorOrIndustry(search interfaces.SearchService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key := strings.TrimSpace(request.GetString("search_key", ""))
		if key == "" {
			return errorResult("Error: search_key parameter is required"), nil
		}

		labels, err := search.SearchIndustries(ctx, key)
		if err != nil {
			logger.Error().Err(err).Str("key", key).Msg("Industry search failed")
			return errorResult(fmt.Sprintf("Search error: %v", err)), nil
		}
		if len(labels) == 0 {
			return textResult(fmt.Sprintf("No industries matched %q", key)), nil
		}
		return jsonResult(labels)
	}
}

// handleListClassificationLabels implements the list_classification_labels tool
func handleListClassificationLabels(classifier interfaces.ClassificationService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		labels, err := classifier.ListLabels(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Listing classification labels failed")
			return errorResult(fmt.Sprintf("Label error: %v", err)), nil
		}
		if len(labels) == 0 {
			return textResult("No classification labels available; run refresh_metadata first"), nil
		}
		return jsonResult(labels)
	}
}

// handleTopCompaniesIn implements the top_companies_in tool
func handleTopCompaniesIn(classifier interfaces.ClassificationService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		labels := request.GetStringSlice("labels", nil)
		if len(labels) == 0 {
			return errorResult("Error: labels parameter is required"), nil
		}
		topN := request.GetInt("top_n", classify.DefaultTopN)

		companies, err := classifier.TopCompaniesIn(ctx, labels, topN)
		if err != nil {
			logger.Error().Err(err).Strs("labels", labels).Msg("Top companies lookup failed")
			return errorResult(fmt.Sprintf("Lookup error: %v", err)), nil
		}
		if len(companies) == 0 {
			return textResult(fmt.Sprintf("No companies found for labels %s", strings.Join(labels, ", "))), nil
		}
		return jsonResult(companies)
	}
}

// handleGetCorporateFilings implements the get_corporate_filings tool
func handleGetCorporateFilings(quotes interfaces.QuoteService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol := strings.ToUpper(strings.TrimSpace(request.GetString("symbol", "")))
		if symbol == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}

		filings := quotes.CorporateFilings(ctx, symbol)
		if filings == nil {
			return textResult(fmt.Sprintf("Unable to fetch corporate filings for %s from NSE", symbol)), nil
		}
		return jsonResult(filings)
	}
}

// handleRefreshMetadata implements the refresh_metadata tool
func handleRefreshMetadata(refresher interfaces.RefreshService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := refresher.TriggerAsync(models.RefreshTriggerTool)
		if errors.Is(err, common.ErrRefreshInProgress) {
			return textResult("A metadata refresh is already running"), nil
		}
		if err != nil {
			logger.Error().Err(err).Msg("Metadata refresh could not start")
			return errorResult(fmt.Sprintf("Refresh error: %v", err)), nil
		}
		return jsonResult(map[string]string{
			"run_id": id,
			"status": models.RefreshStatusRunning,
		})
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

// jsonResult renders v as indented JSON text content.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("Encoding error: %v", err)), nil
	}
	return textResult(string(data)), nil
}
