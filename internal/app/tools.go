package app

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createGetCurrentDateTimeTool returns the get_current_date_time tool definition
func createGetCurrentDateTimeTool() mcp.Tool {
	return mcp.NewTool("get_current_date_time",
		mcp.WithDescription("Get the current date and time in India (Asia/Kolkata) as DD-MM-YYYY HH:MM:SS. Use this before answering questions about 'today' or building date ranges."),
	)
}

// createGetMarketStatusTool returns the get_market_status tool definition
func createGetMarketStatusTool() mcp.Tool {
	return mcp.NewTool("get_market_status",
		mcp.WithDescription("Check whether the NSE equity (capital) market is open or closed."),
	)
}

// createGetStockPriceTool returns the get_stock_price tool definition
func createGetStockPriceTool() mcp.Tool {
	return mcp.NewTool("get_stock_price",
		mcp.WithDescription("Get the current price and previous close of an NSE stock. When the market is closed the price is the last closing price. Resolve company names to symbols with search_company first."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("NSE symbol (e.g., 'TCS', 'INFY')"),
		),
	)
}

// createGetStockHistoryTool returns the get_stock_history tool definition
func createGetStockHistoryTool() mcp.Tool {
	return mcp.NewTool("get_stock_history",
		mcp.WithDescription("Get daily closing prices of an NSE stock for a date range of at most one year, with the highest and lowest price in the range."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("NSE symbol (e.g., 'IRCTC')"),
		),
		mcp.WithString("from_date",
			mcp.Required(),
			mcp.Description("Range start date in DD-MM-YYYY format"),
		),
		mcp.WithString("to_date",
			mcp.Required(),
			mcp.Description("Range end date in DD-MM-YYYY format"),
		),
	)
}

// createGet52WeekHighTool returns the get_52_week_high tool definition
func createGet52WeekHighTool() mcp.Tool {
	return mcp.NewTool("get_52_week_high",
		mcp.WithDescription("List stocks currently trading at a new 52-week high."),
	)
}

// createGet52WeekLowTool returns the get_52_week_low tool definition
func createGet52WeekLowTool() mcp.Tool {
	return mcp.NewTool("get_52_week_low",
		mcp.WithDescription("List stocks currently trading at a new 52-week low."),
	)
}

// createGetVolumeGainersTool returns the get_volume_gainers tool definition
func createGetVolumeGainersTool() mcp.Tool {
	return mcp.NewTool("get_volume_gainers",
		mcp.WithDescription("List stocks whose traded volume today is well above their weekly average."),
	)
}

// createSearchCompanyTool returns the search_company tool definition
func createSearchCompanyTool() mcp.Tool {
	return mcp.NewTool("search_company",
		mcp.WithDescription("Find NSE companies whose name or symbol matches a search key. Tolerates partial names and misspellings. Returns a short ranked candidate list; ask the user to pick when more than one fits."),
		mcp.WithString("search_key",
			mcp.Required(),
			mcp.Description("Company name or symbol, in full or in part (e.g., 'tata', 'infosys', 'HDFCBANK')"),
		),
	)
}

// createSearchSectorOrIndustryTool returns the search_sector_or_industry tool definition
func createSearchSectorOrIndustryTool() mcp.Tool {
	return mcp.NewTool("search_sector_or_industry",
		mcp.WithDescription("Find NSE industry labels matching a search key. Use the returned labels with top_companies_in."),
		mcp.WithString("search_key",
			mcp.Required(),
			mcp.Description("Sector or industry text (e.g., 'software', 'bank', 'auto')"),
		),
	)
}

// createListClassificationLabelsTool returns the list_classification_labels tool definition
func createListClassificationLabelsTool() mcp.Tool {
	return mcp.NewTool("list_classification_labels",
		mcp.WithDescription("List every sector, industry and sub-industry label known to the metadata store."),
	)
}

// createTopCompaniesInTool returns the top_companies_in tool definition
func createTopCompaniesInTool() mcp.Tool {
	return mcp.NewTool("top_companies_in",
		mcp.WithDescription("List the largest companies by market cap in the given sectors or industries. Labels must match exactly; find them with search_sector_or_industry or list_classification_labels."),
		mcp.WithArray("labels",
			mcp.WithStringItems(),
			mcp.Required(),
			mcp.Description("Exact sector, industry or sub-industry labels (e.g., ['IT - Software'])"),
		),
		mcp.WithNumber("top_n",
			mcp.Description("Maximum companies to return (default: 10)"),
		),
	)
}

// createGetCorporateFilingsTool returns the get_corporate_filings tool definition
func createGetCorporateFilingsTool() mcp.Tool {
	return mcp.NewTool("get_corporate_filings",
		mcp.WithDescription("Get the latest announcements, board meetings, corporate actions and financial results filed by an NSE company."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("NSE symbol (e.g., 'TCS')"),
		),
	)
}

// createRefreshMetadataTool returns the refresh_metadata tool definition
func createRefreshMetadataTool() mcp.Tool {
	return mcp.NewTool("refresh_metadata",
		mcp.WithDescription("Start a background refresh of the company metadata from NSE. Returns the run ID, or the status of the run already in progress."),
	)
}
