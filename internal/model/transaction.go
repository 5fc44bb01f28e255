package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransTypeBuy  = "B"
	TransTypeSell = "S"

	TransStatusValid = "Valid"
)

type Transaction struct {
	TransID       int64
	IssuerID      string
	UserID        int64
	Datetime      time.Time
	Transtype     string
	Feeval        decimal.Decimal
	Stocktransval decimal.Decimal
	Totaltransval decimal.Decimal
	Quantity      int
	Status        string
}

// TradeResult reports the value breakdown of a committed trade.
type TradeResult struct {
	IssuerID   string
	Transtype  string
	Quantity   int
	Gross      decimal.Decimal
	Fee        decimal.Decimal
	Total      decimal.Decimal
	NewBalance decimal.Decimal
}
