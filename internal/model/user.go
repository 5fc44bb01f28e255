package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	UserID      int64
	Username    string
	Firstname   string
	Lastname    string
	Email       string
	Gender      string
	DOB         time.Time
	Verified    bool
	Banned      bool
	Balance     decimal.Decimal
	OverallPerc decimal.Decimal
	TotalSales  int
}

type Registration struct {
	Username  string
	Password  string
	Firstname string
	Lastname  string
	Email     string
	Gender    string
	DOB       time.Time
}
