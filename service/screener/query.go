package screener

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/otcboard/otcboard-server/cmd/models"
	"github.com/otcboard/otcboard-server/cmd/utils"
	"gorm.io/gorm"
)

// Filter carries the parsed screener query. Only approved emitters with a
// paid-up placement ever match; everything else narrows within that set.
type Filter struct {
	Market       string
	Industry     string
	Ticker       string
	CompanyName  string
	MinMarketCap *float64
	MaxMarketCap *float64
	MinPrice     *float64
	MaxPrice     *float64
	MinVolume    *float64
	MaxVolume    *float64
	HasDividends *bool
	Rating       string
	SortBy       string
	SortOrder    string
	Page         int
	Limit        int
}

// EmitterSummary is the public screener card.
type EmitterSummary struct {
	ID            uint     `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	LogoURL       string   `json:"logo_url"`
	Website       string   `json:"website"`
	Ticker        string   `json:"ticker"`
	Market        string   `json:"market"`
	Industry      string   `json:"industry"`
	MarketCap     *float64 `json:"market_cap"`
	StockPrice    *float64 `json:"stock_price"`
	TradingVolume *float64 `json:"trading_volume"`
	HasDividends  bool     `json:"has_dividends"`
	Rating        string   `json:"rating"`
	CompanyStatus string   `json:"company_status"`
}

// sortColumns maps the public sort keys onto fully qualified columns so
// user input never reaches the ORDER BY clause verbatim.
var sortColumns = map[string]string{
	"market_cap":     `"FinancialData".market_cap`,
	"stock_price":    `"FinancialData".stock_price`,
	"trading_volume": `"FinancialData".trading_volume`,
	"name":           "emitters.name",
	"created_at":     "emitters.created_at",
}

// ParseFilter reads the screener query parameters, applying defaults and
// clamping pagination. Unknown sort keys fall back to the default.
func ParseFilter(values url.Values) Filter {
	f := Filter{
		Market:      values.Get("market"),
		Industry:    values.Get("industry"),
		Ticker:      values.Get("ticker"),
		CompanyName: values.Get("company_name"),
		Rating:      values.Get("rating"),
		SortBy:      values.Get("sort_by"),
		SortOrder:   strings.ToLower(values.Get("sort_order")),
		Page:        1,
		Limit:       20,
	}

	if v, err := strconv.ParseFloat(values.Get("min_market_cap"), 64); err == nil {
		f.MinMarketCap = &v
	}
	if v, err := strconv.ParseFloat(values.Get("max_market_cap"), 64); err == nil {
		f.MaxMarketCap = &v
	}
	if v, err := strconv.ParseFloat(values.Get("min_stock_price"), 64); err == nil {
		f.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(values.Get("max_stock_price"), 64); err == nil {
		f.MaxPrice = &v
	}
	if v, err := strconv.ParseFloat(values.Get("min_trading_volume"), 64); err == nil {
		f.MinVolume = &v
	}
	if v, err := strconv.ParseFloat(values.Get("max_trading_volume"), 64); err == nil {
		f.MaxVolume = &v
	}
	if values.Get("has_dividends") != "" {
		if v, err := strconv.ParseBool(values.Get("has_dividends")); err == nil {
			f.HasDividends = &v
		}
	}

	if _, ok := sortColumns[f.SortBy]; !ok {
		f.SortBy = "market_cap"
	}
	if f.SortOrder != "asc" && f.SortOrder != "desc" {
		f.SortOrder = "desc"
	}

	if p, err := strconv.Atoi(values.Get("page")); err == nil && p > 0 {
		f.Page = p
	}
	if l, err := strconv.Atoi(values.Get("limit")); err == nil && l > 0 && l <= 100 {
		f.Limit = l
	}

	return f
}

// CacheKey is a stable normalized representation of the filter, used as
// the Redis key suffix for the cached result page.
func (f Filter) CacheKey() string {
	var b strings.Builder
	fmt.Fprintf(&b, "m=%s|i=%s|t=%s|n=%s|r=%s", f.Market, f.Industry, f.Ticker, f.CompanyName, f.Rating)
	if f.MinMarketCap != nil {
		fmt.Fprintf(&b, "|min=%g", *f.MinMarketCap)
	}
	if f.MaxMarketCap != nil {
		fmt.Fprintf(&b, "|max=%g", *f.MaxMarketCap)
	}
	if f.MinPrice != nil {
		fmt.Fprintf(&b, "|pmin=%g", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		fmt.Fprintf(&b, "|pmax=%g", *f.MaxPrice)
	}
	if f.MinVolume != nil {
		fmt.Fprintf(&b, "|vmin=%g", *f.MinVolume)
	}
	if f.MaxVolume != nil {
		fmt.Fprintf(&b, "|vmax=%g", *f.MaxVolume)
	}
	if f.HasDividends != nil {
		fmt.Fprintf(&b, "|div=%t", *f.HasDividends)
	}
	fmt.Fprintf(&b, "|sort=%s.%s|page=%d|limit=%d", f.SortBy, f.SortOrder, f.Page, f.Limit)
	return b.String()
}

// visibleEmitters scopes a query to emitters that belong on the public
// screener: approved profiles with an active subscription that has not
// run out as of the given day.
func visibleEmitters(db *gorm.DB, today time.Time) *gorm.DB {
	return db.Model(&models.Emitter{}).
		Where("emitters.status = ?", models.StatusApproved).
		Where(`EXISTS (
			SELECT 1 FROM subscriptions s
			WHERE s.emitter_id = emitters.id
			  AND s.payment_status = ?
			  AND s.end_date >= ?
			  AND s.deleted_at IS NULL
		)`, models.SubscriptionActive, today)
}

// Query runs the screener search and returns one page plus the total
// count of matches across all pages.
func Query(db *gorm.DB, f Filter) ([]EmitterSummary, int64, error) {
	today := utils.Today()

	base := visibleEmitters(db, today).
		Joins("FinancialData")

	if f.Market != "" {
		base = base.Where(`"FinancialData".market = ?`, f.Market)
	}
	if f.Industry != "" {
		base = base.Where(`"FinancialData".industry = ?`, f.Industry)
	}
	if f.Ticker != "" {
		base = base.Where(`LOWER("FinancialData".ticker) LIKE LOWER(?)`, "%"+f.Ticker+"%")
	}
	if f.CompanyName != "" {
		base = base.Where("LOWER(emitters.name) LIKE LOWER(?)", "%"+f.CompanyName+"%")
	}
	if f.MinMarketCap != nil {
		base = base.Where(`"FinancialData".market_cap >= ?`, *f.MinMarketCap)
	}
	if f.MaxMarketCap != nil {
		base = base.Where(`"FinancialData".market_cap <= ?`, *f.MaxMarketCap)
	}
	if f.MinPrice != nil {
		base = base.Where(`"FinancialData".stock_price >= ?`, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		base = base.Where(`"FinancialData".stock_price <= ?`, *f.MaxPrice)
	}
	if f.MinVolume != nil {
		base = base.Where(`"FinancialData".trading_volume >= ?`, *f.MinVolume)
	}
	if f.MaxVolume != nil {
		base = base.Where(`"FinancialData".trading_volume <= ?`, *f.MaxVolume)
	}
	if f.HasDividends != nil {
		base = base.Where(`"FinancialData".has_dividends = ?`, *f.HasDividends)
	}
	if f.Rating != "" {
		base = base.Where(`"FinancialData".rating = ?`, f.Rating)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var emitters []models.Emitter
	order := fmt.Sprintf("%s %s, emitters.id ASC", sortColumns[f.SortBy], strings.ToUpper(f.SortOrder))
	if err := base.Order(order).
		Limit(f.Limit).Offset((f.Page - 1) * f.Limit).
		Find(&emitters).Error; err != nil {
		return nil, 0, err
	}

	summaries := make([]EmitterSummary, 0, len(emitters))
	for _, em := range emitters {
		summaries = append(summaries, toSummary(em))
	}
	return summaries, total, nil
}

func toSummary(em models.Emitter) EmitterSummary {
	s := EmitterSummary{
		ID:          em.ID,
		Name:        em.Name,
		Description: em.Description,
		LogoURL:     em.LogoURL,
		Website:     em.Website,
	}
	if em.FinancialData != nil {
		s.Ticker = em.FinancialData.Ticker
		s.Market = em.FinancialData.Market
		s.Industry = em.FinancialData.Industry
		s.MarketCap = em.FinancialData.MarketCap
		s.StockPrice = em.FinancialData.StockPrice
		s.TradingVolume = em.FinancialData.TradingVolume
		s.HasDividends = em.FinancialData.HasDividends
		s.Rating = em.FinancialData.Rating
		s.CompanyStatus = em.FinancialData.CompanyStatus
	}
	return s
}

// VisibleByID fetches one emitter through the visibility gate, preloading
// the public card data. Returns gorm.ErrRecordNotFound when the emitter
// does not exist or is not currently placed.
func VisibleByID(db *gorm.DB, id uint) (*models.Emitter, error) {
	var em models.Emitter
	err := visibleEmitters(db, utils.Today()).
		Preload("FinancialData").
		Where("emitters.id = ?", id).
		First(&em).Error
	if err != nil {
		return nil, err
	}
	return &em, nil
}
