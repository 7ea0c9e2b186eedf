package models

// Capital market status values reported by NSE
const (
	MarketStatusOpen   = "Open"
	MarketStatusClosed = "Closed"
	MarketStatusClose  = "Close"

	CapitalMarket = "Capital Market"
)

// MarketState is one market segment's trading status.
type MarketState struct {
	Market    string `json:"market"`
	Status    string `json:"status"`
	TradeDate string `json:"trade_date"`
	Message   string `json:"message"`
}

// IsOpen reports whether the segment is trading.
func (m *MarketState) IsOpen() bool {
	return m != nil && m.Status == MarketStatusOpen
}

// StockDetail is the per-symbol detail record used by reconciliation and price lookups.
type StockDetail struct {
	Symbol        string  `json:"symbol"`
	CompanyName   string  `json:"company_name"`
	Macro         string  `json:"macro"`
	Sector        string  `json:"sector"`
	Industry      string  `json:"industry"`
	BasicIndustry string  `json:"basic_industry"`
	LastPrice     float64 `json:"last_price"`
	Close         float64 `json:"close"`
	PreviousClose float64 `json:"previous_close"`
	Change        float64 `json:"change"`
	ChangePct     float64 `json:"change_pct"`
	WeekHigh      float64 `json:"week_high"`
	WeekLow       float64 `json:"week_low"`

	// Trade info; zero when NSE omits the trade_info section.
	TotalTradedVolume float64 `json:"total_traded_volume"`
	TotalTradedValue  float64 `json:"total_traded_value"`
	TotalMarketCap    float64 `json:"total_market_cap"`
}

// Metadata maps a detail record onto a metadata row. The NSE "industry"
// classification is the row's industry; "basicIndustry" is the finer industry_info.
func (d *StockDetail) Metadata() *SymbolMetadata {
	return &SymbolMetadata{
		Symbol:            d.Symbol,
		Name:              d.CompanyName,
		Sector:            d.Sector,
		Industry:          d.Industry,
		IndustryInfo:      d.BasicIndustry,
		TotalTradedVolume: d.TotalTradedVolume,
		TotalTradedValue:  d.TotalTradedValue,
		TotalMarketCap:    d.TotalMarketCap,
	}
}

// HistoryBar is one trading day of historical prices.
type HistoryBar struct {
	Symbol string  `json:"symbol"`
	Series string  `json:"series"`
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
}

// Week52Entry is a stock trading at a new 52-week high or low.
type Week52Entry struct {
	Symbol          string  `json:"symbol"`
	Series          string  `json:"series"`
	Name            string  `json:"name"`
	NewExtreme      float64 `json:"new_extreme"`
	PreviousExtreme float64 `json:"previous_extreme"`
	PreviousDate    string  `json:"previous_date"`
	Price           float64 `json:"price"`
	ChangePct       float64 `json:"change_pct"`
}

// VolumeGainer is a stock whose traded volume is well above its weekly average.
type VolumeGainer struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Volume        float64 `json:"volume"`
	WeekAvgVolume float64 `json:"week_avg_volume"`
	Price         float64 `json:"price"`
	ChangePct     float64 `json:"change_pct"`
	Turnover      float64 `json:"turnover"`
}

// CorporateInfo is the filings digest NSE publishes per symbol.
type CorporateInfo struct {
	Symbol           string            `json:"symbol"`
	Announcements    []Announcement    `json:"announcements"`
	BoardMeetings    []BoardMeeting    `json:"board_meetings"`
	CorporateActions []CorporateAction `json:"corporate_actions"`
	FinancialResults []FinancialResult `json:"financial_results"`
}

// Announcement is a corporate announcement headline.
type Announcement struct {
	Date    string `json:"date"`
	Subject string `json:"subject"`
}

// BoardMeeting is a scheduled or past board meeting.
type BoardMeeting struct {
	Date    string `json:"date"`
	Purpose string `json:"purpose"`
}

// CorporateAction is a dividend, split, bonus or similar action.
type CorporateAction struct {
	ExDate  string `json:"ex_date"`
	Purpose string `json:"purpose"`
}

// FinancialResult is one reported period's headline figures.
type FinancialResult struct {
	FromDate        string  `json:"from_date"`
	ToDate          string  `json:"to_date"`
	Income          float64 `json:"income"`
	Expenditure     float64 `json:"expenditure"`
	ProfitBeforeTax float64 `json:"profit_before_tax"`
	ProfitAfterTax  float64 `json:"profit_after_tax"`
	DilutedEPS      float64 `json:"diluted_eps"`
}
