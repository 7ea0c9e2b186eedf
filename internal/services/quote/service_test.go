package quote

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/models"
	tcommon "github.com/bobmcallan/nsechat/tests/common"
)

func newTestService(nse *tcommon.MockNSEClient) *Service {
	return NewService(nse, common.NewSilentLogger())
}

func marketState(status string) []models.MarketState {
	return []models.MarketState{
		{Market: "Currency", Status: models.MarketStatusOpen},
		{Market: models.CapitalMarket, Status: status, TradeDate: "16-Oct-2026", Message: "Normal Market"},
	}
}

func tcsDetail() *models.StockDetail {
	return &models.StockDetail{Symbol: "TCS", CompanyName: "Tata Consultancy Services Limited", LastPrice: 3912.4, Close: 3905.0, PreviousClose: 3890.1}
}

func TestNow_IsKolkata(t *testing.T) {
	svc := newTestService(tcommon.NewMockNSEClient())
	svc.now = func() time.Time { return time.Date(2026, 10, 16, 4, 0, 0, 0, time.UTC) }

	assert.Equal(t, "16-10-2026 09:30:00", svc.Now().Format(DateTimeFormat))
}

func TestMarketStatus(t *testing.T) {
	nse := tcommon.NewMockNSEClient()
	svc := newTestService(nse)

	assert.Nil(t, svc.MarketStatus(context.Background()))

	nse.MarketStates = marketState(models.MarketStatusClosed)
	state := svc.MarketStatus(context.Background())
	require.NotNil(t, state)
	assert.Equal(t, models.CapitalMarket, state.Market)
	assert.False(t, state.IsOpen())

	nse.MarketStates = []models.MarketState{{Market: "Currency", Status: models.MarketStatusOpen}}
	assert.Nil(t, svc.MarketStatus(context.Background()))
}

func TestCurrentPrice(t *testing.T) {
	tests := []struct {
		name     string
		states   []models.MarketState
		wantOpen bool
		want     float64
	}{
		{"open uses last price", marketState(models.MarketStatusOpen), true, 3912.4},
		{"closed uses close", marketState(models.MarketStatusClosed), false, 3905.0},
		{"close uses close", marketState(models.MarketStatusClose), false, 3905.0},
		{"unknown status uses last price", nil, false, 3912.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nse := tcommon.NewMockNSEClient()
			nse.AddStock(tcsDetail())
			nse.MarketStates = tt.states
			svc := newTestService(nse)

			snap := svc.CurrentPrice(context.Background(), " tcs ")
			require.NotNil(t, snap)
			assert.Equal(t, "TCS", snap.Symbol)
			assert.Equal(t, tt.want, snap.Price)
			assert.Equal(t, 3890.1, snap.PreviousClose)
			assert.Equal(t, tt.wantOpen, snap.MarketOpen)
		})
	}
}

func TestCurrentPrice_Unavailable(t *testing.T) {
	svc := newTestService(tcommon.NewMockNSEClient())
	assert.Nil(t, svc.CurrentPrice(context.Background(), "TCS"))
	assert.Nil(t, svc.CurrentPrice(context.Background(), ""))
}

func TestParseDateAndValidateRange(t *testing.T) {
	from, err := ParseDate("01-01-2026")
	require.NoError(t, err)
	to, err := ParseDate("31-12-2026")
	require.NoError(t, err)
	assert.NoError(t, ValidateHistoryRange(from, to))

	_, err = ParseDate("2026-01-01")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	assert.ErrorIs(t, ValidateHistoryRange(to, from), common.ErrInvalidArgument)

	tooLate, err := ParseDate("02-01-2027")
	require.NoError(t, err)
	assert.ErrorIs(t, ValidateHistoryRange(from, tooLate), common.ErrInvalidArgument)
}

func TestHistory(t *testing.T) {
	nse := tcommon.NewMockNSEClient()
	nse.History["IRCTC"] = []models.HistoryBar{
		{Date: "03-Oct-2026", High: 712, Low: 698, Close: 705},
		{Date: "01-Oct-2026", High: 720, Low: 690, Close: 701},
		{Date: "02-Oct-2026", High: 716, Low: 695, Close: 710},
	}
	svc := newTestService(nse)
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC)

	h := svc.History(context.Background(), "irctc", from, to)
	require.NotNil(t, h)
	assert.Equal(t, "IRCTC", h.Symbol)
	assert.Equal(t, []models.PricePoint{
		{Date: "01-Oct-2026", Close: 701},
		{Date: "02-Oct-2026", Close: 710},
		{Date: "03-Oct-2026", Close: 705},
	}, h.Points)
	assert.Equal(t, 720.0, h.Highest)
	assert.Equal(t, 690.0, h.Lowest)

	// source order is left alone
	assert.Equal(t, "03-Oct-2026", nse.History["IRCTC"][0].Date)

	assert.Nil(t, svc.History(context.Background(), "IRCTC", to, from))
	assert.Nil(t, svc.History(context.Background(), "UNKNOWN", from, to))
}

func TestWeek52AndGainers(t *testing.T) {
	nse := tcommon.NewMockNSEClient()
	svc := newTestService(nse)
	ctx := context.Background()

	assert.Nil(t, svc.Week52High(ctx))
	assert.Nil(t, svc.Week52Low(ctx))
	assert.Nil(t, svc.VolumeGainers(ctx))

	nse.High52 = []models.Week52Entry{{Symbol: "BEL", Name: "Bharat Electronics Limited", NewExtreme: 340}}
	nse.Low52 = []models.Week52Entry{}
	nse.Gainers = []models.VolumeGainer{{Symbol: "IDEA", Volume: 9.5e8}}

	assert.Len(t, svc.Week52High(ctx), 1)
	low := svc.Week52Low(ctx)
	assert.NotNil(t, low)
	assert.Empty(t, low)
	assert.Equal(t, "IDEA", svc.VolumeGainers(ctx)[0].Symbol)
}

func TestCorporateFilings_KeepsLatestFive(t *testing.T) {
	nse := tcommon.NewMockNSEClient()
	info := &models.CorporateInfo{Symbol: "TCS"}
	for i := 0; i < 8; i++ {
		info.Announcements = append(info.Announcements, models.Announcement{Subject: "announcement"})
		info.CorporateActions = append(info.CorporateActions, models.CorporateAction{Purpose: "dividend"})
	}
	info.BoardMeetings = []models.BoardMeeting{{Date: "10-Oct-2026", Purpose: "Financial Results"}}
	nse.Corporate["TCS"] = info
	svc := newTestService(nse)

	got := svc.CorporateFilings(context.Background(), "tcs")
	require.NotNil(t, got)
	assert.Len(t, got.Announcements, 5)
	assert.Len(t, got.CorporateActions, 5)
	assert.Len(t, got.BoardMeetings, 1)
	assert.NotNil(t, got.FinancialResults)
	assert.Empty(t, got.FinancialResults)

	assert.Nil(t, svc.CorporateFilings(context.Background(), "INFY"))
}
