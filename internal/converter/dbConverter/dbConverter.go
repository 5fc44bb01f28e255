// Package dbConverter turns db-tagged rows into detached domain snapshots.
// Nothing outside the repository ever holds a live row.
package dbConverter

import (
	"github.com/investgame/investgame/internal/model"
	"github.com/investgame/investgame/internal/model/dbModel"
)

func ConvertUser(u dbModel.User) model.User {
	return model.User{
		UserID:      u.UserID,
		Username:    u.Username,
		Firstname:   u.Firstname,
		Lastname:    u.Lastname,
		Email:       u.Email,
		Gender:      u.Gender,
		DOB:         u.DOB,
		Verified:    u.Verified,
		Banned:      u.Banned,
		Balance:     u.Balance,
		OverallPerc: u.OverallPerc,
		TotalSales:  u.TotalSales,
	}
}

func ConvertShare(s dbModel.Share) model.Share {
	return model.Share{
		IssuerID:         s.IssuerID,
		Fullname:         s.Fullname,
		Abbrevname:       s.Abbrevname,
		Shortname:        s.Shortname,
		Description:      s.Description,
		IndustrySector:   s.IndustrySector,
		CurrentPrice:     s.CurrentPrice,
		MarketCap:        s.MarketCap,
		ShareCount:       s.ShareCount,
		DayChangePercent: s.DayChangePercent,
		DayChangePrice:   s.DayChangePrice,
		DayPriceHigh:     s.DayPriceHigh,
		DayPriceLow:      s.DayPriceLow,
		DayVolume:        s.DayVolume,
	}
}

func ConvertSharePrice(p dbModel.SharePrice) model.SharePrice {
	return model.SharePrice{
		IssuerID: p.IssuerID,
		Time:     p.Time,
		Price:    p.Price,
	}
}

func ConvertHolding(h dbModel.Holding) model.Holding {
	return model.Holding{
		UserID:   h.UserID,
		IssuerID: h.IssuerID,
		Quantity: h.Quantity,
		Profit:   h.Profit,
		Loss:     h.Loss,
	}
}

func ConvertHoldingInfo(h dbModel.HoldingInfo) model.HoldingInfo {
	return model.HoldingInfo{
		UserID:       h.UserID,
		IssuerID:     h.IssuerID,
		Shortname:    h.Shortname,
		Quantity:     h.Quantity,
		Profit:       h.Profit,
		Loss:         h.Loss,
		CurrentPrice: h.CurrentPrice,
		Net:          h.Net,
		Value:        h.Value,
	}
}

func ConvertTransaction(t dbModel.Transaction) model.Transaction {
	return model.Transaction{
		TransID:       t.TransID,
		IssuerID:      t.IssuerID,
		UserID:        t.UserID,
		Datetime:      t.Datetime,
		Transtype:     t.Transtype,
		Feeval:        t.Feeval,
		Stocktransval: t.Stocktransval,
		Totaltransval: t.Totaltransval,
		Quantity:      t.Quantity,
		Status:        t.Status,
	}
}

func ConvertLeaderboardRow(row dbModel.LeaderboardRow, rank int) model.LeaderboardEntry {
	return model.LeaderboardEntry{
		Rank:       rank,
		UserID:     row.UserID,
		Username:   row.Username,
		TotalValue: row.TotalValue,
	}
}
