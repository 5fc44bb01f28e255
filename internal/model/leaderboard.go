package model

import "github.com/shopspring/decimal"

type LeaderboardEntry struct {
	Rank       int
	UserID     int64
	Username   string
	TotalValue decimal.Decimal
}

type TopGainer struct {
	UserID      int64
	Username    string
	TotalValue  decimal.Decimal
	Gain        decimal.Decimal
	GainPercent decimal.Decimal
}

type Leaderboard struct {
	Entries []LeaderboardEntry
	Current *LeaderboardEntry
}
