package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Share struct {
	IssuerID         string
	Fullname         string
	Abbrevname       string
	Shortname        string
	Description      string
	IndustrySector   string
	CurrentPrice     decimal.Decimal
	MarketCap        decimal.Decimal
	ShareCount       int64
	DayChangePercent decimal.Decimal
	DayChangePrice   decimal.Decimal
	DayPriceHigh     decimal.Decimal
	DayPriceLow      decimal.Decimal
	DayVolume        int64
}

// SharePrice is one point of a share's append-only price series.
type SharePrice struct {
	IssuerID string
	Time     time.Time
	Price    decimal.Decimal
}
