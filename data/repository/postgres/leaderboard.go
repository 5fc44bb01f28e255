package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/investgame/investgame/internal/model/dbModel"
	"github.com/investgame/investgame/utils"
	"github.com/shopspring/decimal"
)

// GetLeaderboardRows ranks every user by total portfolio value: cash plus
// holdings at current prices. Ties break on user_id ascending so the
// ordering is deterministic.
func (r *Postgres) GetLeaderboardRows(ctx context.Context) (rows []dbModel.LeaderboardRow, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetLeaderboardRows"
	query := `
		SELECT
			u.user_id,
			u.username,
			u.balance + COALESCE(SUM(h.quantity * s.current_price), 0) AS total_value
		FROM users u
		LEFT JOIN holdings h ON h.user_id = u.user_id
		LEFT JOIN shares s ON s.issuer_id = h.issuer_id
		GROUP BY u.user_id, u.username, u.balance
		ORDER BY total_value DESC, u.user_id ASC
		`

	slog.Debug("GetLeaderboardRows start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetLeaderboardRows failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetLeaderboardRows completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	sqlRows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer sqlRows.Close()

	for sqlRows.Next() {
		var row dbModel.LeaderboardRow
		err = sqlRows.StructScan(&row)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// InsertLeaderboardSnapshot persists one ranked batch under a single
// timestamp so top-gainer windows can compare against it later.
func (r *Postgres) InsertLeaderboardSnapshot(ctx context.Context, rows []dbModel.LeaderboardRow, at time.Time) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertLeaderboardSnapshot"

	slog.Debug("InsertLeaderboardSnapshot start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("InsertLeaderboardSnapshot failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertLeaderboardSnapshot completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	if len(rows) == 0 {
		return nil
	}

	sb := strings.Builder{}
	args := make([]any, 0, len(rows)*4)

	sb.WriteString(`INSERT INTO leaderboard_history(user_id, total_value, rank, dt_create) VALUES `)

	for i, row := range rows {
		args = append(args, row.UserID, row.TotalValue, i+1, at)

		start := i*4 + 1
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d)", start, start+1, start+2, start+3))

		if i < len(rows)-1 {
			sb.WriteString(",")
		}
	}

	_, err = r.txOrDb(ctx).ExecContext(ctx, sb.String(), args...)
	return err
}

// GetSnapshotValuesBefore returns the per-user total values of the most
// recent snapshot taken at or before the cutoff. An empty map means no
// snapshot is old enough to compare against.
func (r *Postgres) GetSnapshotValuesBefore(ctx context.Context, cutoff time.Time) (values map[int64]decimal.Decimal, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetSnapshotValuesBefore"

	slog.Debug("GetSnapshotValuesBefore start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("GetSnapshotValuesBefore failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetSnapshotValuesBefore completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	var snapshotTime time.Time
	err = r.txOrDb(ctx).QueryRowContext(
		ctx,
		`SELECT dt_create FROM leaderboard_history WHERE dt_create <= $1 ORDER BY dt_create DESC LIMIT 1`,
		cutoff,
	).Scan(&snapshotTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return map[int64]decimal.Decimal{}, nil
		}
		return nil, err
	}

	rows, err := r.txOrDb(ctx).QueryxContext(
		ctx,
		`SELECT user_id, total_value FROM leaderboard_history WHERE dt_create = $1`,
		snapshotTime,
	)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	values = make(map[int64]decimal.Decimal)
	for rows.Next() {
		var userID int64
		var totalValue decimal.Decimal
		if err = rows.Scan(&userID, &totalValue); err != nil {
			return nil, err
		}
		values[userID] = totalValue
	}

	return values, nil
}
