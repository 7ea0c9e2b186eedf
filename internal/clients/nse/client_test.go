package nse

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/nsechat/internal/common"
)

// nseServer serves canned JSON per path and counts home page hits.
type nseServer struct {
	*httptest.Server
	homeHits atomic.Int32
	apiHits  atomic.Int32

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
}

func newNSEServer(t *testing.T) *nseServer {
	t.Helper()
	s := &nseServer{handlers: map[string]http.HandlerFunc{}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			s.homeHits.Add(1)
			http.SetCookie(w, &http.Cookie{Name: "nsit", Value: "session", Path: "/"})
			w.WriteHeader(http.StatusOK)
			return
		}
		s.apiHits.Add(1)
		key := r.URL.Path
		if section := r.URL.Query().Get("section"); section != "" {
			key += "#" + section
		}
		s.mu.Lock()
		h, ok := s.handlers[key]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *nseServer) handle(key string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[key] = h
}

func (s *nseServer) json(key string, body interface{}) {
	s.handle(key, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	})
}

func (s *nseServer) client(opts ...ClientOption) *Client {
	return NewClient(append([]ClientOption{WithBaseURL(s.URL), WithRateLimit(1000)}, opts...)...)
}

// memCache is an in-process interfaces.ResponseCache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *memCache) Close() error { return nil }

func TestFlexFloat64(t *testing.T) {
	cases := map[string]float64{
		`12.5`:       12.5,
		`"12.5"`:     12.5,
		`"1,234.50"`: 1234.5,
		`"-"`:        0,
		`""`:         0,
		`null`:       0,
		`"abc"`:      0,
	}
	for in, want := range cases {
		var f flexFloat64
		require.NoError(t, json.Unmarshal([]byte(in), &f), in)
		assert.Equal(t, want, float64(f), in)
	}

	var f flexFloat64
	assert.Error(t, json.Unmarshal([]byte(`{}`), &f))
}

func TestGetUniverse_DedupesAndWarmsSession(t *testing.T) {
	srv := newNSEServer(t)
	srv.handle(pathPreOpen, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ALL", r.URL.Query().Get("key"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		_, err := r.Cookie("nsit")
		assert.NoError(t, err, "session cookie should be replayed")
		w.Write([]byte(`{"data":[
			{"metadata":{"symbol":"TCS","previousClose":"3,900.10"}},
			{"metadata":{"symbol":"INFY","previousClose":1500}},
			{"metadata":{"symbol":"TCS"}},
			{"metadata":{"symbol":""}}
		]}`))
	})

	client := srv.client()
	symbols, err := client.GetUniverse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"TCS", "INFY"}, symbols)

	_, err = client.GetUniverse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.homeHits.Load(), "session should be warmed once")
}

func TestGetStockDetail_MergesTradeInfo(t *testing.T) {
	srv := newNSEServer(t)
	srv.handle(pathQuote, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TATAMOTORS", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{
			"info":{"symbol":"TATAMOTORS","companyName":"Tata Motors Limited","industry":"Automobiles"},
			"industryInfo":{"macro":"Consumer Discretionary","sector":"Automobile and Auto Components","industry":"Automobiles","basicIndustry":"Passenger Cars & Utility Vehicles"},
			"priceInfo":{"lastPrice":712.5,"change":-3.2,"pChange":"-0.45","previousClose":715.7,"close":0,"weekHighLow":{"min":600.1,"max":1179}}
		}`))
	})
	srv.handle(pathQuote+"#trade_info", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"marketDeptOrderBook":{"tradeInfo":{"totalTradedVolume":"1,000","totalTradedValue":71.25,"totalMarketCap":262345.67}}}`))
	})

	detail, err := srv.client().GetStockDetail(context.Background(), "TATAMOTORS")
	require.NoError(t, err)
	assert.Equal(t, "Tata Motors Limited", detail.CompanyName)
	assert.Equal(t, "Passenger Cars & Utility Vehicles", detail.BasicIndustry)
	assert.Equal(t, 712.5, detail.LastPrice)
	assert.Equal(t, -0.45, detail.ChangePct)
	assert.Equal(t, 1179.0, detail.WeekHigh)
	assert.Equal(t, 1000.0, detail.TotalTradedVolume)
	assert.Equal(t, 262345.67, detail.TotalMarketCap)

	row := detail.Metadata()
	assert.Equal(t, "TATAMOTORS", row.Symbol)
	assert.Equal(t, "Automobiles", row.Industry)
	assert.Equal(t, "Passenger Cars & Utility Vehicles", row.IndustryInfo)
}

func TestGetStockDetail_TradeInfoBestEffort(t *testing.T) {
	srv := newNSEServer(t)
	srv.handle(pathQuote, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"info":{"symbol":"INFY","companyName":"Infosys Limited"},"industryInfo":{"sector":"Information Technology"}}`))
	})
	srv.handle(pathQuote+"#trade_info", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	detail, err := srv.client().GetStockDetail(context.Background(), "INFY")
	require.NoError(t, err)
	assert.Equal(t, "Infosys Limited", detail.CompanyName)
	assert.Zero(t, detail.TotalMarketCap)
}

func TestGetStockDetail_MissingSymbolIsUpstreamError(t *testing.T) {
	srv := newNSEServer(t)
	srv.handle(pathQuote, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := srv.client().GetStockDetail(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUpstreamUnavailable))

	_, err = srv.client().GetStockDetail(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestGet_ReWarmsAfterForbidden(t *testing.T) {
	srv := newNSEServer(t)
	var calls atomic.Int32
	srv.handle(pathMarketStatus, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`{"marketState":[{"market":"Capital Market","marketStatus":"Open","tradeDate":"16-Oct-2026","marketStatusMessage":"Normal Market is Open"}]}`))
	})

	states, err := srv.client().GetMarketStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "Capital Market", states[0].Market)
	assert.True(t, states[0].IsOpen())
	assert.Equal(t, int32(2), srv.homeHits.Load())
}

func TestGet_ServerErrorWrapsUpstreamUnavailable(t *testing.T) {
	srv := newNSEServer(t)
	srv.handle(path52WeekHigh, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	})

	_, err := srv.client().Get52WeekHigh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, path52WeekHigh, apiErr.Endpoint)
}

func TestGetHistory_AcceptsListAndWrapped(t *testing.T) {
	srv := newNSEServer(t)
	item := `{"chSymbol":"TCS","chSeries":"EQ","mtimestamp":"01-Oct-2026","chTradeHighPrice":3950,"chTradeLowPrice":"3,880.5","chOpeningPrice":3900,"chClosingPrice":3925.25}`
	var wrapped atomic.Bool
	srv.handle(pathHistory, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "getHistoricalTradeData", q.Get("functionName"))
		assert.Equal(t, "EQ", q.Get("series"))
		assert.Equal(t, "01-10-2026", q.Get("fromDate"))
		assert.Equal(t, "03-10-2026", q.Get("toDate"))
		if wrapped.Load() {
			w.Write([]byte(`{"data":[` + item + `]}`))
			return
		}
		w.Write([]byte(`[` + item + `]`))
	})

	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC)

	bars, err := srv.client().GetHistory(context.Background(), "TCS", from, to)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 3925.25, bars[0].Close)
	assert.Equal(t, 3880.5, bars[0].Low)

	wrapped.Store(true)
	bars, err = srv.client().GetHistory(context.Background(), "TCS", from, to)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, "01-Oct-2026", bars[0].Date)
}

func TestWeek52AndVolumeGainers(t *testing.T) {
	srv := newNSEServer(t)
	srv.json(path52WeekLow, map[string]interface{}{
		"data": []map[string]interface{}{
			{"symbol": "PAYTM", "series": "EQ", "comapnyName": "One 97 Communications", "new52WHL": 310.0, "prev52WHL": "318", "prevHLDate": "04-Jun-2026", "ltp": 312.4, "pChange": "-2.1"},
		},
	})
	srv.json(pathVolumeGainers, map[string]interface{}{
		"data": []map[string]interface{}{
			{"symbol": "IDEA", "companyName": "Vodafone Idea Limited", "volume": 9.5e8, "week1AvgVolume": 3.1e8, "ltp": 14.2, "pChange": 6.4, "turnover": 1349.0},
		},
	})

	client := srv.client()
	lows, err := client.Get52WeekLow(context.Background())
	require.NoError(t, err)
	require.Len(t, lows, 1)
	assert.Equal(t, "One 97 Communications", lows[0].Name)
	assert.Equal(t, 318.0, lows[0].PreviousExtreme)
	assert.Equal(t, -2.1, lows[0].ChangePct)

	gainers, err := client.GetVolumeGainers(context.Background())
	require.NoError(t, err)
	require.Len(t, gainers, 1)
	assert.Equal(t, "IDEA", gainers[0].Symbol)
	assert.Equal(t, 3.1e8, gainers[0].WeekAvgVolume)
}

func TestGetCorporateInfo(t *testing.T) {
	srv := newNSEServer(t)
	srv.handle(pathCorpInfo, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "equities", r.URL.Query().Get("market"))
		w.Write([]byte(`{
			"borad_meeting":{"data":[{"meetingdate":"10-Oct-2026","purpose":"Financial Results","symbol":"TCS"}]},
			"corporate_actions":{"data":[{"exdate":"17-Oct-2026","purpose":"Interim Dividend - Rs 11 Per Share","symbol":"TCS"}]},
			"financial_results":{"data":[{"from_date":"01-Jul-2026","to_date":"30-Sep-2026","income":"65,799","expenditure":"47,123","reProLossBefTax":"16,533","proLossAftTax":"12,040","reDilEPS":"33.28"}]},
			"latest_announcements":{"data":[{"broadcastdate":"10-Oct-2026 18:01:02","subject":"Outcome of Board Meeting","symbol":"TCS"}]}
		}`))
	})

	info, err := srv.client().GetCorporateInfo(context.Background(), "TCS")
	require.NoError(t, err)
	assert.Equal(t, "TCS", info.Symbol)
	require.Len(t, info.BoardMeetings, 1)
	assert.Equal(t, "Financial Results", info.BoardMeetings[0].Purpose)
	require.Len(t, info.CorporateActions, 1)
	assert.Equal(t, "17-Oct-2026", info.CorporateActions[0].ExDate)
	require.Len(t, info.FinancialResults, 1)
	assert.Equal(t, 65799.0, info.FinancialResults[0].Income)
	assert.Equal(t, 33.28, info.FinancialResults[0].DilutedEPS)
	require.Len(t, info.Announcements, 1)
	assert.Equal(t, "Outcome of Board Meeting", info.Announcements[0].Subject)
}

func TestGet_ServesFromCache(t *testing.T) {
	srv := newNSEServer(t)
	srv.json(pathVolumeGainers, map[string]interface{}{"data": []map[string]interface{}{{"symbol": "IDEA"}}})

	client := srv.client(WithCache(&memCache{data: map[string][]byte{}}))
	for i := 0; i < 3; i++ {
		gainers, err := client.GetVolumeGainers(context.Background())
		require.NoError(t, err)
		require.Len(t, gainers, 1)
	}
	assert.Equal(t, int32(1), srv.apiHits.Load())
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := common.NSEConfig{BaseURL: "http://nse.test", RateLimit: 5, Timeout: "2s", UserAgent: "nsechat-test"}
	client := NewClientFromConfig(cfg, common.NewSilentLogger(), nil)
	assert.Equal(t, "http://nse.test", client.baseURL)
	assert.Equal(t, "nsechat-test", client.userAgent)
	assert.Equal(t, 2*time.Second, client.httpClient.Timeout)
}
