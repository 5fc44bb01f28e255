package dbModel

import (
	"time"

	"github.com/shopspring/decimal"
)

type Share struct {
	IssuerID         string          `db:"issuer_id"`
	Fullname         string          `db:"fullname"`
	Abbrevname       string          `db:"abbrevname"`
	Shortname        string          `db:"shortname"`
	Description      string          `db:"description"`
	IndustrySector   string          `db:"industry_sector"`
	CurrentPrice     decimal.Decimal `db:"current_price"`
	MarketCap        decimal.Decimal `db:"market_cap"`
	ShareCount       int64           `db:"share_count"`
	DayChangePercent decimal.Decimal `db:"day_change_percent"`
	DayChangePrice   decimal.Decimal `db:"day_change_price"`
	DayPriceHigh     decimal.Decimal `db:"day_price_high"`
	DayPriceLow      decimal.Decimal `db:"day_price_low"`
	DayVolume        int64           `db:"day_volume"`
}

type SharePrice struct {
	IssuerID string          `db:"issuer_id"`
	Time     time.Time       `db:"time"`
	Price    decimal.Decimal `db:"price"`
}
