package postgres

import (
	"context"
	"log/slog"

	"github.com/investgame/investgame/internal/converter/dbConverter"
	"github.com/investgame/investgame/internal/model"
	"github.com/investgame/investgame/internal/model/dbModel"
	"github.com/investgame/investgame/utils"
	"github.com/shopspring/decimal"
)

// InsertTransaction appends one trade record. The log has no update or
// delete path; rows written here are the audit trail.
func (r *Postgres) InsertTransaction(ctx context.Context, transaction dbModel.Transaction) (transID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertTransaction"
	query := `
		INSERT INTO transactions(issuer_id, user_id, datetime, transtype, feeval, stocktransval, totaltransval, quantity, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING trans_id
	`

	slog.Debug(
		"InsertTransaction start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.Any("transaction", transaction),
		slog.String("query", query),
	)
	defer func() {
		if err != nil {
			slog.Error("InsertTransaction failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertTransaction completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(
		ctx,
		query,
		transaction.IssuerID,
		transaction.UserID,
		transaction.Datetime,
		transaction.Transtype,
		transaction.Feeval,
		transaction.Stocktransval,
		transaction.Totaltransval,
		transaction.Quantity,
		transaction.Status,
	).Scan(&transID)
	if err != nil {
		return 0, err
	}

	return transID, nil
}

// GetTransactions lists a user's trades, optionally narrowed to one issuer.
func (r *Postgres) GetTransactions(ctx context.Context, userID int64, issuerID string, params model.ListParams) (transactions []model.Transaction, total int, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetTransactions"

	query := `
		SELECT trans_id, issuer_id, user_id, datetime, transtype, feeval, stocktransval, totaltransval, quantity, status,
			COUNT(*) OVER() AS total_count
		FROM transactions
		WHERE user_id = $1
		AND ($2 = '' OR issuer_id = $2)` +
		transactionSortable.clause(params.OrderBy, params.Order, params.Limit, params.Offset)

	slog.Debug("GetTransactions start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetTransactions failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetTransactions completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, userID, issuerID)
	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	transactions = make([]model.Transaction, 0, params.Limit)
	for rows.Next() {
		var row struct {
			dbModel.Transaction
			TotalCount int `db:"total_count"`
		}
		err = rows.StructScan(&row)
		if err != nil {
			return nil, 0, err
		}
		total = row.TotalCount
		transactions = append(transactions, dbConverter.ConvertTransaction(row.Transaction))
	}

	return transactions, total, nil
}

// GetAllTransactions streams the whole transaction log, oldest first. Used
// by the admin report export.
func (r *Postgres) GetAllTransactions(ctx context.Context) (transactions []model.Transaction, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetAllTransactions"
	query := `
		SELECT trans_id, issuer_id, user_id, datetime, transtype, feeval, stocktransval, totaltransval, quantity, status
		FROM transactions
		ORDER BY datetime, trans_id
	`

	slog.Debug("GetAllTransactions start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetAllTransactions failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetAllTransactions completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var row dbModel.Transaction
		err = rows.StructScan(&row)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, dbConverter.ConvertTransaction(row))
	}

	return transactions, nil
}

// GetAvgPurchasePrice returns the average historical buy price for the
// (user, issuer) pair: sum of buy totals over sum of bought quantity. Zero
// with ok=false means no prior buy exists for the pair.
func (r *Postgres) GetAvgPurchasePrice(ctx context.Context, userID int64, issuerID string) (avg decimal.Decimal, ok bool, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetAvgPurchasePrice"
	query := `
		SELECT COALESCE(SUM(totaltransval), 0), COALESCE(SUM(quantity), 0)
		FROM transactions
		WHERE user_id = $1
		AND issuer_id = $2
		AND transtype = 'B'
		`

	slog.Debug("GetAvgPurchasePrice start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetAvgPurchasePrice failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetAvgPurchasePrice completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	var totalVal decimal.Decimal
	var totalQty int64
	err = r.txOrDb(ctx).QueryRowContext(ctx, query, userID, issuerID).Scan(&totalVal, &totalQty)
	if err != nil {
		return decimal.Zero, false, err
	}

	if totalQty == 0 {
		return decimal.Zero, false, nil
	}

	return totalVal.Div(decimal.NewFromInt(totalQty)), true, nil
}
