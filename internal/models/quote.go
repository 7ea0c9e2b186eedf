package models

// PriceSnapshot is the current price of a symbol as shown to tool callers.
// Price is the close when the capital market is shut and the last traded price otherwise.
type PriceSnapshot struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previous_close"`
	MarketOpen    bool    `json:"market_open"`
}

// PricePoint is one closing price in a history range.
type PricePoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// PriceHistory is a symbol's closing prices over a range with its extremes.
type PriceHistory struct {
	Symbol  string       `json:"symbol"`
	Points  []PricePoint `json:"points"`
	Highest float64      `json:"highest"`
	Lowest  float64      `json:"lowest"`
}
