package model

import "github.com/shopspring/decimal"

type Holding struct {
	UserID   int64
	IssuerID string
	Quantity int
	Profit   decimal.Decimal
	Loss     decimal.Decimal
}

// HoldingInfo is a holding joined with its share for portfolio listings.
// Net and Value are the derived sort keys exposed by the query surface.
type HoldingInfo struct {
	UserID       int64
	IssuerID     string
	Shortname    string
	Quantity     int
	Profit       decimal.Decimal
	Loss         decimal.Decimal
	CurrentPrice decimal.Decimal
	Net          decimal.Decimal
	Value        decimal.Decimal
}
