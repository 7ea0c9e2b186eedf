package nse

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// flexFloat64 handles JSON values that may be a number, a numeric string
// (possibly with thousands separators) or a placeholder such as "-".
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if s == "" || s == "-" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	if string(data) == "null" {
		*f = 0
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// preOpenResponse is /api/market-data-pre-open
type preOpenResponse struct {
	Data []struct {
		Metadata struct {
			Symbol        string      `json:"symbol"`
			PreviousClose flexFloat64 `json:"previousClose"`
		} `json:"metadata"`
	} `json:"data"`
}

// quoteResponse is /api/quote-equity
type quoteResponse struct {
	Info struct {
		Symbol      string `json:"symbol" validate:"required"`
		CompanyName string `json:"companyName"`
		Industry    string `json:"industry"`
	} `json:"info"`
	IndustryInfo struct {
		Macro         string `json:"macro"`
		Sector        string `json:"sector"`
		Industry      string `json:"industry"`
		BasicIndustry string `json:"basicIndustry"`
	} `json:"industryInfo"`
	PriceInfo struct {
		LastPrice     flexFloat64 `json:"lastPrice"`
		Change        flexFloat64 `json:"change"`
		PChange       flexFloat64 `json:"pChange"`
		PreviousClose flexFloat64 `json:"previousClose"`
		Close         flexFloat64 `json:"close"`
		WeekHighLow   struct {
			Min flexFloat64 `json:"min"`
			Max flexFloat64 `json:"max"`
		} `json:"weekHighLow"`
	} `json:"priceInfo"`
}

// tradeInfoResponse is /api/quote-equity with section=trade_info
type tradeInfoResponse struct {
	MarketDeptOrderBook struct {
		TradeInfo struct {
			TotalTradedVolume flexFloat64 `json:"totalTradedVolume"`
			TotalTradedValue  flexFloat64 `json:"totalTradedValue"`
			TotalMarketCap    flexFloat64 `json:"totalMarketCap"`
		} `json:"tradeInfo"`
	} `json:"marketDeptOrderBook"`
}

// historyItem is one row of the historical trade data API
type historyItem struct {
	Symbol    string      `json:"chSymbol"`
	Series    string      `json:"chSeries"`
	Timestamp string      `json:"mtimestamp"`
	High      flexFloat64 `json:"chTradeHighPrice"`
	Low       flexFloat64 `json:"chTradeLowPrice"`
	Open      flexFloat64 `json:"chOpeningPrice"`
	Close     flexFloat64 `json:"chClosingPrice"`
}

// historyResponse accepts either a bare list or an object wrapping the list in "data".
type historyResponse []historyItem

func (h *historyResponse) UnmarshalJSON(data []byte) error {
	var items []historyItem
	if err := json.Unmarshal(data, &items); err == nil {
		*h = items
		return nil
	}
	var wrapped struct {
		Data []historyItem `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*h = wrapped.Data
	return nil
}

// week52Response is /api/live-analysis-data-52weekhighstock and ...lowstock
type week52Response struct {
	Data []struct {
		Symbol      string      `json:"symbol"`
		Series      string      `json:"series"`
		CompanyName string      `json:"comapnyName"` // sic
		NewExtreme  flexFloat64 `json:"new52WHL"`
		PrevExtreme flexFloat64 `json:"prev52WHL"`
		PrevDate    string      `json:"prevHLDate"`
		LTP         flexFloat64 `json:"ltp"`
		PChange     flexFloat64 `json:"pChange"`
	} `json:"data"`
}

// volumeGainersResponse is /api/live-analysis-volume-gainers
type volumeGainersResponse struct {
	Data []struct {
		Symbol         string      `json:"symbol"`
		CompanyName    string      `json:"companyName"`
		Volume         flexFloat64 `json:"volume"`
		Week1AvgVolume flexFloat64 `json:"week1AvgVolume"`
		LTP            flexFloat64 `json:"ltp"`
		PChange        flexFloat64 `json:"pChange"`
		Turnover       flexFloat64 `json:"turnover"`
	} `json:"data"`
}

// marketStatusResponse is /api/marketStatus
type marketStatusResponse struct {
	MarketState []struct {
		Market              string `json:"market"`
		MarketStatus        string `json:"marketStatus"`
		TradeDate           string `json:"tradeDate"`
		MarketStatusMessage string `json:"marketStatusMessage"`
	} `json:"marketState" validate:"required"`
}

// corpInfoResponse is /api/top-corp-info
type corpInfoResponse struct {
	BoardMeetings struct {
		Data []struct {
			Date    string `json:"meetingdate"`
			Purpose string `json:"purpose"`
		} `json:"data"`
	} `json:"borad_meeting"` // sic
	CorporateActions struct {
		Data []struct {
			ExDate  string `json:"exdate"`
			Purpose string `json:"purpose"`
		} `json:"data"`
	} `json:"corporate_actions"`
	FinancialResults struct {
		Data []struct {
			FromDate        string      `json:"from_date"`
			ToDate          string      `json:"to_date"`
			Income          flexFloat64 `json:"income"`
			Expenditure     flexFloat64 `json:"expenditure"`
			ProfitBeforeTax flexFloat64 `json:"reProLossBefTax"`
			ProfitAfterTax  flexFloat64 `json:"proLossAftTax"`
			DilutedEPS      flexFloat64 `json:"reDilEPS"`
		} `json:"data"`
	} `json:"financial_results"`
	Announcements struct {
		Data []struct {
			Date    string `json:"broadcastdate"`
			Subject string `json:"subject"`
		} `json:"data"`
	} `json:"latest_announcements"`
}
