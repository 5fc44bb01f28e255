package dbModel

import "github.com/shopspring/decimal"

type Holding struct {
	UserID   int64           `db:"user_id"`
	IssuerID string          `db:"issuer_id"`
	Quantity int             `db:"quantity"`
	Profit   decimal.Decimal `db:"profit"`
	Loss     decimal.Decimal `db:"loss"`
}

type HoldingInfo struct {
	UserID       int64           `db:"user_id"`
	IssuerID     string          `db:"issuer_id"`
	Shortname    string          `db:"shortname"`
	Quantity     int             `db:"quantity"`
	Profit       decimal.Decimal `db:"profit"`
	Loss         decimal.Decimal `db:"loss"`
	CurrentPrice decimal.Decimal `db:"current_price"`
	Net          decimal.Decimal `db:"net"`
	Value        decimal.Decimal `db:"value"`
	TotalCount   int             `db:"total_count"`
}
