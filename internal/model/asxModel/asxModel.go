package asxModel

import "github.com/shopspring/decimal"

// RawShareSnapshot is the wire shape of one issuer from the market feed.
// Percent fields arrive as strings with a trailing '%'.
type RawShareSnapshot struct {
	Code             string  `json:"code"`
	NameFull         string  `json:"name_full"`
	NameAbbrev       string  `json:"name_abbrev"`
	NameShort        string  `json:"name_short"`
	PrincipalAct     string  `json:"principal_activities"`
	SectorName       string  `json:"sector_name"`
	LastPrice        float64 `json:"last_price"`
	MarketCap        float64 `json:"market_cap"`
	NumberOfShares   int64   `json:"number_of_shares"`
	ChangeInPercent  string  `json:"change_in_percent"`
	ChangePrice      float64 `json:"change_price"`
	DayHighPrice     float64 `json:"day_high_price"`
	DayLowPrice      float64 `json:"day_low_price"`
	AverageDailyVol  int64   `json:"average_daily_volume"`
}

// ShareSnapshot is the parsed snapshot handed to the rest of the system.
type ShareSnapshot struct {
	IssuerID         string
	Fullname         string
	Abbrevname       string
	Shortname        string
	Description      string
	IndustrySector   string
	Price            decimal.Decimal
	MarketCap        decimal.Decimal
	ShareCount       int64
	DayChangePercent decimal.Decimal
	DayChangePrice   decimal.Decimal
	DayPriceHigh     decimal.Decimal
	DayPriceLow      decimal.Decimal
	DayVolume        int64
}
