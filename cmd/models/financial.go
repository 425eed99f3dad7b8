package models

import (
	"gorm.io/gorm"
)

// FinancialData is the screener-facing numbers card of an emitter.
// Numeric fields are pointers so an unset value is distinguishable from zero.
type FinancialData struct {
	gorm.Model
	EmitterID     uint     `gorm:"column:emitter_id;unique;not null" json:"emitter_id"`
	Ticker        string   `gorm:"column:ticker;size:10" json:"ticker,omitempty"`
	Market        string   `gorm:"column:market;size:20" json:"market,omitempty"`
	Industry      string   `gorm:"column:industry;size:50" json:"industry,omitempty"`
	MarketCap     *float64 `gorm:"column:market_cap" json:"market_cap,omitempty"`
	StockPrice    *float64 `gorm:"column:stock_price" json:"stock_price,omitempty"`
	TradingVolume *float64 `gorm:"column:trading_volume" json:"trading_volume,omitempty"`
	HasDividends  bool     `gorm:"column:has_dividends;default:false" json:"has_dividends"`
	Rating        string   `gorm:"column:rating;size:1" json:"rating,omitempty"`
	CompanyStatus string   `gorm:"column:company_status;size:10" json:"company_status,omitempty"`
}

func (FinancialData) TableName() string {
	return "financial_data"
}
