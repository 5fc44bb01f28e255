package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/investgame/investgame/data/repository"
	"github.com/investgame/investgame/internal/converter/dbConverter"
	"github.com/investgame/investgame/internal/model"
	"github.com/investgame/investgame/internal/model/dbModel"
	"github.com/investgame/investgame/utils"
	"github.com/shopspring/decimal"
)

// GetHoldingForUpdate locks the (user, issuer) holding row for the current
// transaction, serializing concurrent trades on the same position.
func (r *Postgres) GetHoldingForUpdate(ctx context.Context, userID int64, issuerID string) (holding model.Holding, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		SELECT user_id, issuer_id, quantity, profit, loss
		FROM holdings
		WHERE user_id = $1
		AND issuer_id = $2
		FOR UPDATE
		`

	slog.Debug("GetHoldingForUpdate start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("GetHoldingForUpdate failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetHoldingForUpdate completed", slog.String("rqID", rqID))
		}
	}()

	dbHolding := dbModel.Holding{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, userID, issuerID).StructScan(&dbHolding)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Holding{}, repository.ErrNotFound
		}
		return model.Holding{}, err
	}

	return dbConverter.ConvertHolding(dbHolding), nil
}

// UpsertHoldingBuy applies a purchase to the holding. A first purchase
// creates the row with loss = total (fee included); a repeat purchase adds
// only the gross trade value to loss — cost-basis accrual deliberately
// excludes the fee after the first buy.
func (r *Postgres) UpsertHoldingBuy(ctx context.Context, userID int64, issuerID string, quantity int, total, gross decimal.Decimal) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		INSERT INTO holdings(user_id, issuer_id, quantity, profit, loss)
		VALUES($1, $2, $3, 0, $4)
		ON CONFLICT (user_id, issuer_id) DO UPDATE SET
			quantity = holdings.quantity + $3,
			loss = holdings.loss + $5
		`

	slog.Debug("UpsertHoldingBuy start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("UpsertHoldingBuy failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpsertHoldingBuy completed", slog.String("rqID", rqID))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, userID, issuerID, quantity, total, gross)
	return err
}

// ApplyHoldingSell decrements the position and accrues the net proceeds.
// The caller has already verified quantity against the locked row.
func (r *Postgres) ApplyHoldingSell(ctx context.Context, userID int64, issuerID string, quantity int, total decimal.Decimal) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		UPDATE holdings
		SET
			quantity = quantity - $1,
			profit = profit + $2
		WHERE
			user_id = $3
			AND issuer_id = $4
		`

	slog.Debug("ApplyHoldingSell start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("ApplyHoldingSell failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("ApplyHoldingSell completed", slog.String("rqID", rqID))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, quantity, total, userID, issuerID)
	return err
}

func (r *Postgres) GetHoldingsInfo(ctx context.Context, userID int64, params model.ListParams) (holdings []model.HoldingInfo, total int, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		SELECT
			h.user_id, h.issuer_id, s.shortname, h.quantity, h.profit, h.loss,
			s.current_price,
			(h.profit - h.loss) AS net,
			(s.current_price * h.quantity) AS value,
			COUNT(*) OVER() AS total_count
		FROM holdings h
		JOIN shares s ON s.issuer_id = h.issuer_id
		WHERE h.user_id = $1` +
		holdingSortable.clause(params.OrderBy, params.Order, params.Limit, params.Offset)

	slog.Debug("GetHoldingsInfo start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetHoldingsInfo failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetHoldingsInfo completed", slog.String("rqID", rqID))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	holdings = make([]model.HoldingInfo, 0, params.Limit)
	for rows.Next() {
		var row dbModel.HoldingInfo
		err = rows.StructScan(&row)
		if err != nil {
			return nil, 0, err
		}
		total = row.TotalCount
		holdings = append(holdings, dbConverter.ConvertHoldingInfo(row))
	}

	return holdings, total, nil
}
