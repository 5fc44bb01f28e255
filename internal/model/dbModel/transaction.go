package dbModel

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	TransID       int64           `db:"trans_id"`
	IssuerID      string          `db:"issuer_id"`
	UserID        int64           `db:"user_id"`
	Datetime      time.Time       `db:"datetime"`
	Transtype     string          `db:"transtype"`
	Feeval        decimal.Decimal `db:"feeval"`
	Stocktransval decimal.Decimal `db:"stocktransval"`
	Totaltransval decimal.Decimal `db:"totaltransval"`
	Quantity      int             `db:"quantity"`
	Status        string          `db:"status"`
}

type LeaderboardRow struct {
	UserID     int64           `db:"user_id"`
	Username   string          `db:"username"`
	TotalValue decimal.Decimal `db:"total_value"`
}

type LeaderboardSnapshot struct {
	UserID     int64           `db:"user_id"`
	TotalValue decimal.Decimal `db:"total_value"`
	Rank       int             `db:"rank"`
	Time       time.Time       `db:"dt_create"`
}
