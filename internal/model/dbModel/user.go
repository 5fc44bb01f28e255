package dbModel

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	UserID      int64           `db:"user_id"`
	Username    string          `db:"username"`
	Firstname   string          `db:"firstname"`
	Lastname    string          `db:"lastname"`
	Email       string          `db:"email"`
	Gender      string          `db:"gender"`
	DOB         time.Time       `db:"dob"`
	Passhash    string          `db:"passhash"`
	Verified    bool            `db:"verified"`
	Banned      bool            `db:"banned"`
	Balance     decimal.Decimal `db:"balance"`
	OverallPerc decimal.Decimal `db:"overall_perc"`
	TotalSales  int             `db:"total_sales"`
}

type Admin struct {
	AdminID  int64  `db:"admin_id"`
	Username string `db:"username"`
	Passhash string `db:"passhash"`
}
