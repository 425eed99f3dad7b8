package screener

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/otcboard/otcboard-server/cmd/models"
	"github.com/otcboard/otcboard-server/cmd/utils"
	"github.com/otcboard/otcboard-server/service/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func f64(v float64) *float64 { return &v }

func seedEmitter(t *testing.T, db *gorm.DB, name, status string, fin models.FinancialData) *models.Emitter {
	t.Helper()
	em := models.Emitter{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		Status:       status,
	}
	require.NoError(t, db.Create(&em).Error)

	fin.EmitterID = em.ID
	require.NoError(t, db.Create(&fin).Error)
	return &em
}

func seedSubscription(t *testing.T, db *gorm.DB, emitterID uint, endDate time.Time, status string) {
	t.Helper()
	payment := models.Payment{
		Reference: uuid.NewString(),
		Amount:    100,
		Date:      utils.Today(),
		Status:    models.PaymentCompleted,
	}
	require.NoError(t, db.Create(&payment).Error)
	sub := models.Subscription{
		EmitterID:     emitterID,
		PaymentID:     payment.ID,
		TariffName:    "Placement",
		DurationDays:  1,
		StartDate:     utils.AddDays(endDate, -1),
		EndDate:       endDate,
		PaymentStatus: status,
		PaymentAmount: 100,
	}
	require.NoError(t, db.Create(&sub).Error)
}

func listNames(summaries []EmitterSummary) []string {
	names := make([]string, 0, len(summaries))
	for _, s := range summaries {
		names = append(names, s.Name)
	}
	return names
}

func TestQueryOnlyPlacedEmittersVisible(t *testing.T) {
	db := testutil.NewTestDB(t)
	today := utils.Today()

	placed := seedEmitter(t, db, "Visible Corp", models.StatusApproved, models.FinancialData{Ticker: "VIS"})
	seedSubscription(t, db, placed.ID, utils.AddDays(today, 5), models.SubscriptionActive)

	pending := seedEmitter(t, db, "Pending Corp", models.StatusPending, models.FinancialData{Ticker: "PEN"})
	seedSubscription(t, db, pending.ID, utils.AddDays(today, 5), models.SubscriptionActive)

	rejected := seedEmitter(t, db, "Rejected Corp", models.StatusRejected, models.FinancialData{Ticker: "REJ"})
	seedSubscription(t, db, rejected.ID, utils.AddDays(today, 5), models.SubscriptionActive)

	// Approved but never paid.
	seedEmitter(t, db, "Unpaid Corp", models.StatusApproved, models.FinancialData{Ticker: "UNP"})

	// Approved but the placement ran out yesterday.
	lapsed := seedEmitter(t, db, "Lapsed Corp", models.StatusApproved, models.FinancialData{Ticker: "LAP"})
	seedSubscription(t, db, lapsed.ID, utils.AddDays(today, -1), models.SubscriptionActive)

	// Approved but the row was already disabled.
	disabled := seedEmitter(t, db, "Disabled Corp", models.StatusApproved, models.FinancialData{Ticker: "DIS"})
	seedSubscription(t, db, disabled.ID, utils.AddDays(today, 5), models.SubscriptionDisable)

	data, total, err := Query(db, ParseFilter(url.Values{}))
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, []string{"Visible Corp"}, listNames(data))
}

func TestQuerySubscriptionEndingTodayStillVisible(t *testing.T) {
	db := testutil.NewTestDB(t)
	today := utils.Today()

	em := seedEmitter(t, db, "Edge Corp", models.StatusApproved, models.FinancialData{Ticker: "EDG"})
	seedSubscription(t, db, em.ID, today, models.SubscriptionActive)

	_, total, err := Query(db, ParseFilter(url.Values{}))
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}

func TestQueryFilters(t *testing.T) {
	db := testutil.NewTestDB(t)
	today := utils.Today()
	end := utils.AddDays(today, 10)

	alpha := seedEmitter(t, db, "Alpha Mining", models.StatusApproved, models.FinancialData{
		Ticker: "ALFA", Market: "OTC", Industry: "Mining",
		MarketCap: f64(500), StockPrice: f64(12), TradingVolume: f64(800), HasDividends: true,
	})
	seedSubscription(t, db, alpha.ID, end, models.SubscriptionActive)

	beta := seedEmitter(t, db, "Beta Retail", models.StatusApproved, models.FinancialData{
		Ticker: "BETA", Market: "OTC", Industry: "Retail",
		MarketCap: f64(1500), StockPrice: f64(45), TradingVolume: f64(200), HasDividends: false,
	})
	seedSubscription(t, db, beta.ID, end, models.SubscriptionActive)

	gamma := seedEmitter(t, db, "Gamma Mining", models.StatusApproved, models.FinancialData{
		Ticker: "GMM", Market: "MOEX", Industry: "Mining",
		MarketCap: f64(3000), StockPrice: f64(90), TradingVolume: f64(5000), HasDividends: true,
	})
	seedSubscription(t, db, gamma.ID, end, models.SubscriptionActive)

	cases := []struct {
		name   string
		query  url.Values
		expect []string
	}{
		{"by industry", url.Values{"industry": {"Mining"}, "sort_by": {"name"}, "sort_order": {"asc"}}, []string{"Alpha Mining", "Gamma Mining"}},
		{"by market", url.Values{"market": {"MOEX"}}, []string{"Gamma Mining"}},
		{"ticker partial case-insensitive", url.Values{"ticker": {"alf"}}, []string{"Alpha Mining"}},
		{"company name partial", url.Values{"company_name": {"retail"}}, []string{"Beta Retail"}},
		{"min market cap", url.Values{"min_market_cap": {"1000"}, "sort_by": {"name"}, "sort_order": {"asc"}}, []string{"Beta Retail", "Gamma Mining"}},
		{"max market cap", url.Values{"max_market_cap": {"1000"}}, []string{"Alpha Mining"}},
		{"has dividends", url.Values{"has_dividends": {"true"}, "sort_by": {"name"}, "sort_order": {"asc"}}, []string{"Alpha Mining", "Gamma Mining"}},
		{"stock price range", url.Values{"min_stock_price": {"20"}, "max_stock_price": {"50"}}, []string{"Beta Retail"}},
		{"trading volume range", url.Values{"min_trading_volume": {"500"}, "max_trading_volume": {"1000"}}, []string{"Alpha Mining"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, total, err := Query(db, ParseFilter(tc.query))
			require.NoError(t, err)
			require.Equal(t, int64(len(tc.expect)), total)
			require.Equal(t, tc.expect, listNames(data))
		})
	}
}

func TestQueryDefaultSortMarketCapDesc(t *testing.T) {
	db := testutil.NewTestDB(t)
	end := utils.AddDays(utils.Today(), 10)

	small := seedEmitter(t, db, "Small Cap", models.StatusApproved, models.FinancialData{MarketCap: f64(100)})
	seedSubscription(t, db, small.ID, end, models.SubscriptionActive)
	big := seedEmitter(t, db, "Big Cap", models.StatusApproved, models.FinancialData{MarketCap: f64(9000)})
	seedSubscription(t, db, big.ID, end, models.SubscriptionActive)
	mid := seedEmitter(t, db, "Mid Cap", models.StatusApproved, models.FinancialData{MarketCap: f64(700)})
	seedSubscription(t, db, mid.ID, end, models.SubscriptionActive)

	data, _, err := Query(db, ParseFilter(url.Values{}))
	require.NoError(t, err)
	require.Equal(t, []string{"Big Cap", "Mid Cap", "Small Cap"}, listNames(data))
}

func TestQueryPagination(t *testing.T) {
	db := testutil.NewTestDB(t)
	end := utils.AddDays(utils.Today(), 10)

	names := []string{"One", "Two", "Three", "Four", "Five"}
	for i, name := range names {
		em := seedEmitter(t, db, name, models.StatusApproved, models.FinancialData{MarketCap: f64(float64((i + 1) * 100))})
		seedSubscription(t, db, em.ID, end, models.SubscriptionActive)
	}

	page1, total, err := Query(db, ParseFilter(url.Values{"limit": {"2"}, "page": {"1"}}))
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Equal(t, []string{"Five", "Four"}, listNames(page1))

	page3, total, err := Query(db, ParseFilter(url.Values{"limit": {"2"}, "page": {"3"}}))
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Equal(t, []string{"One"}, listNames(page3))

	// Beyond the last page: empty data, same total.
	page4, total, err := Query(db, ParseFilter(url.Values{"limit": {"2"}, "page": {"4"}}))
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Empty(t, page4)
}

func TestParseFilterDefaults(t *testing.T) {
	f := ParseFilter(url.Values{
		"sort_by":    {"password_hash"},
		"sort_order": {"sideways"},
		"page":       {"-3"},
		"limit":      {"5000"},
	})
	require.Equal(t, "market_cap", f.SortBy)
	require.Equal(t, "desc", f.SortOrder)
	require.Equal(t, 1, f.Page)
	require.Equal(t, 20, f.Limit)
}

func TestVisibleByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	today := utils.Today()

	placed := seedEmitter(t, db, "Visible Corp", models.StatusApproved, models.FinancialData{Ticker: "VIS"})
	seedSubscription(t, db, placed.ID, utils.AddDays(today, 5), models.SubscriptionActive)

	hidden := seedEmitter(t, db, "Hidden Corp", models.StatusApproved, models.FinancialData{Ticker: "HID"})

	em, err := VisibleByID(db, placed.ID)
	require.NoError(t, err)
	require.Equal(t, "Visible Corp", em.Name)
	require.NotNil(t, em.FinancialData)
	require.Equal(t, "VIS", em.FinancialData.Ticker)

	_, err = VisibleByID(db, hidden.ID)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	_, err = VisibleByID(db, 99999)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
