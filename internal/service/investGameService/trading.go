package investGameService

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/investgame/investgame/data/repository"
	"github.com/investgame/investgame/internal/model"
	"github.com/investgame/investgame/internal/model/dbModel"
	"github.com/investgame/investgame/internal/service"
	"github.com/investgame/investgame/utils"
	"github.com/shopspring/decimal"
)

// Brokerage fees: a flat component plus a rate on the gross trade value.
// Buys are charged on top of the gross, sells are deducted from it.
var (
	flatFee     = decimal.NewFromInt(50)
	buyFeeRate  = decimal.NewFromFloat(0.01)
	sellFeeRate = decimal.NewFromFloat(0.0025)

	hundred = decimal.NewFromInt(100)
)

const (
	noBuyHistorySkip  = "skip"
	noBuyHistoryZero  = "zero"
	noBuyHistoryError = "error"
)

// Buy purchases quantity shares of issuerID for the user at the stored
// current price. The transaction log append, the holding upsert and the
// balance update commit atomically with the user row locked.
func (s *InvestGameService) Buy(ctx context.Context, userID int64, issuerID string, quantity int) (result model.TradeResult, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "InvestGameService.Buy"

	slog.Debug("Buy start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("userID", userID), slog.String("issuerID", issuerID), slog.Int("quantity", quantity))
	defer func() {
		if err != nil {
			slog.Warn("Buy failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("Buy finished", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	if quantity <= 0 {
		return model.TradeResult{}, service.ErrInvalidQuantity
	}

	txCtx, cancel := context.WithTimeout(ctx, s.cfg.Trading.StoreTimeout)
	defer cancel()

	err = s.repo.WithinTransaction(txCtx, func(ctx context.Context) error {
		user, err := s.repo.GetUserForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return service.ErrNotFound
			}
			return err
		}

		if user.Banned {
			return service.ErrUserBanned
		}

		share, err := s.repo.GetShare(ctx, issuerID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return service.ErrNotFound
			}
			return err
		}

		gross := share.CurrentPrice.Mul(decimal.NewFromInt(int64(quantity)))
		fee := flatFee.Add(gross.Mul(buyFeeRate))
		total := gross.Add(fee)

		if user.Balance.LessThan(total) {
			return service.ErrInsufficientFunds
		}

		_, err = s.repo.InsertTransaction(ctx, dbModel.Transaction{
			IssuerID:      issuerID,
			UserID:        userID,
			Datetime:      time.Now().UTC(),
			Transtype:     model.TransTypeBuy,
			Feeval:        fee,
			Stocktransval: gross,
			Totaltransval: total,
			Quantity:      quantity,
			Status:        model.TransStatusValid,
		})
		if err != nil {
			return err
		}

		err = s.repo.UpsertHoldingBuy(ctx, userID, issuerID, quantity, total, gross)
		if err != nil {
			return err
		}

		newBalance := user.Balance.Sub(total)
		err = s.repo.UpdateUserBalance(ctx, userID, newBalance)
		if err != nil {
			return err
		}

		result = model.TradeResult{
			IssuerID:   issuerID,
			Transtype:  model.TransTypeBuy,
			Quantity:   quantity,
			Gross:      gross,
			Fee:        fee,
			Total:      total,
			NewBalance: newBalance,
		}

		return nil
	})
	if err != nil {
		return model.TradeResult{}, s.mapStoreErr(err)
	}

	return result, nil
}

// Sell disposes quantity shares of issuerID at the stored current price.
// Selling more than held fails outright rather than clamping, and the
// user's running percent-return average is updated from the average
// historical purchase price of the pair.
func (s *InvestGameService) Sell(ctx context.Context, userID int64, issuerID string, quantity int) (result model.TradeResult, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "InvestGameService.Sell"

	slog.Debug("Sell start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("userID", userID), slog.String("issuerID", issuerID), slog.Int("quantity", quantity))
	defer func() {
		if err != nil {
			slog.Warn("Sell failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("Sell finished", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	if quantity <= 0 {
		return model.TradeResult{}, service.ErrInvalidQuantity
	}

	txCtx, cancel := context.WithTimeout(ctx, s.cfg.Trading.StoreTimeout)
	defer cancel()

	err = s.repo.WithinTransaction(txCtx, func(ctx context.Context) error {
		user, err := s.repo.GetUserForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return service.ErrNotFound
			}
			return err
		}

		if user.Banned {
			return service.ErrUserBanned
		}

		holding, err := s.repo.GetHoldingForUpdate(ctx, userID, issuerID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return service.ErrInsufficientShares
			}
			return err
		}

		if holding.Quantity < quantity {
			return service.ErrInsufficientShares
		}

		share, err := s.repo.GetShare(ctx, issuerID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return service.ErrNotFound
			}
			return err
		}

		gross := share.CurrentPrice.Mul(decimal.NewFromInt(int64(quantity)))
		fee := flatFee.Add(gross.Mul(sellFeeRate))
		total := gross.Sub(fee)

		_, err = s.repo.InsertTransaction(ctx, dbModel.Transaction{
			IssuerID:      issuerID,
			UserID:        userID,
			Datetime:      time.Now().UTC(),
			Transtype:     model.TransTypeSell,
			Feeval:        fee,
			Stocktransval: gross,
			Totaltransval: total,
			Quantity:      quantity,
			Status:        model.TransStatusValid,
		})
		if err != nil {
			return err
		}

		err = s.repo.ApplyHoldingSell(ctx, userID, issuerID, quantity, total)
		if err != nil {
			return err
		}

		newBalance := user.Balance.Add(total)
		err = s.repo.UpdateUserBalance(ctx, userID, newBalance)
		if err != nil {
			return err
		}

		err = s.updateSellStats(ctx, user, issuerID, quantity, total)
		if err != nil {
			return err
		}

		result = model.TradeResult{
			IssuerID:   issuerID,
			Transtype:  model.TransTypeSell,
			Quantity:   quantity,
			Gross:      gross,
			Fee:        fee,
			Total:      total,
			NewBalance: newBalance,
		}

		return nil
	})
	if err != nil {
		return model.TradeResult{}, s.mapStoreErr(err)
	}

	return result, nil
}

// updateSellStats folds this sale's percent return into the user's running
// average. The percent compares the net unit proceeds against the average
// historical buy price of the pair. A sale with no prior buy on record is
// handled per the configured policy.
func (s *InvestGameService) updateSellStats(ctx context.Context, user model.User, issuerID string, quantity int, total decimal.Decimal) error {
	avg, ok, err := s.repo.GetAvgPurchasePrice(ctx, user.UserID, issuerID)
	if err != nil {
		return err
	}

	var percent decimal.Decimal
	if ok {
		soldUnitPrice := total.Div(decimal.NewFromInt(int64(quantity)))
		percent = soldUnitPrice.Div(avg).Sub(decimal.NewFromInt(1)).Mul(hundred)
	} else {
		switch s.cfg.Trading.NoBuyHistoryPolicy {
		case noBuyHistoryZero:
			percent = decimal.Zero
		case noBuyHistoryError:
			return service.ErrNoBuyHistory
		default:
			slog.Warn(
				"no buy history for sold pair, skipping sell stats update",
				slog.String("rqID", utils.GetRequestIDFromCtx(ctx)),
				slog.Int64("userID", user.UserID),
				slog.String("issuerID", issuerID),
			)
			return nil
		}
	}

	sales := decimal.NewFromInt(int64(user.TotalSales))
	overallPerc := user.OverallPerc.Mul(sales).Add(percent).Div(sales.Add(decimal.NewFromInt(1)))

	return s.repo.UpdateUserSellStats(ctx, user.UserID, overallPerc, user.TotalSales+1)
}

// mapStoreErr translates a blown store deadline into the taxonomy; the
// transaction has already rolled back by the time we see it.
func (s *InvestGameService) mapStoreErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return service.ErrStoreTimeout
	}
	return err
}
