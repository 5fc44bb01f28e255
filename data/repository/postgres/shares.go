package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/investgame/investgame/data/repository"
	"github.com/investgame/investgame/internal/converter/dbConverter"
	"github.com/investgame/investgame/internal/model"
	"github.com/investgame/investgame/internal/model/asxModel"
	"github.com/investgame/investgame/internal/model/dbModel"
	"github.com/investgame/investgame/utils"
	"github.com/jackc/pgx/v5/pgconn"
)

const shareColumns = `issuer_id, fullname, abbrevname, shortname, description, industry_sector, current_price, market_cap, share_count, day_change_percent, day_change_price, day_price_high, day_price_low, day_volume`

func (r *Postgres) InsertShare(ctx context.Context, snapshot asxModel.ShareSnapshot) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		INSERT INTO shares(` + shareColumns + `)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	slog.Debug("InsertShare start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("InsertShare failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertShare completed", slog.String("rqID", rqID))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(
		ctx,
		query,
		snapshot.IssuerID,
		snapshot.Fullname,
		snapshot.Abbrevname,
		snapshot.Shortname,
		snapshot.Description,
		snapshot.IndustrySector,
		snapshot.Price,
		snapshot.MarketCap,
		snapshot.ShareCount,
		snapshot.DayChangePercent,
		snapshot.DayChangePrice,
		snapshot.DayPriceHigh,
		snapshot.DayPriceLow,
		snapshot.DayVolume,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgUniqueViolation {
				return repository.ErrAlreadyExists
			}
		}
		return err
	}

	return nil
}

// UpsertShares applies a batch of feed snapshots in one statement, the same
// multi-row VALUES + ON CONFLICT shape used for every bulk refresh.
func (r *Postgres) UpsertShares(ctx context.Context, snapshots []asxModel.ShareSnapshot) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("UpsertShares start", slog.String("rqID", rqID))

	defer func() {
		if err != nil {
			slog.Error("UpsertShares failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpsertShares completed", slog.String("rqID", rqID))
		}
	}()

	if len(snapshots) == 0 {
		return nil
	}

	const cols = 14
	sb := strings.Builder{}
	args := make([]any, 0, len(snapshots)*cols)

	sb.WriteString(`INSERT INTO shares(` + shareColumns + `) VALUES `)

	for i, s := range snapshots {
		args = append(args,
			s.IssuerID, s.Fullname, s.Abbrevname, s.Shortname, s.Description,
			s.IndustrySector, s.Price, s.MarketCap, s.ShareCount,
			s.DayChangePercent, s.DayChangePrice, s.DayPriceHigh, s.DayPriceLow, s.DayVolume,
		)

		start := i * cols
		placeholders := make([]string, 0, cols)
		for j := 1; j <= cols; j++ {
			placeholders = append(placeholders, fmt.Sprintf("$%d", start+j))
		}
		sb.WriteString("(" + strings.Join(placeholders, ", ") + ")")

		if i < len(snapshots)-1 {
			sb.WriteString(",")
		}
	}

	sb.WriteString(`
		ON CONFLICT (issuer_id) DO UPDATE SET
			current_price = EXCLUDED.current_price,
			market_cap = EXCLUDED.market_cap,
			share_count = EXCLUDED.share_count,
			day_change_percent = EXCLUDED.day_change_percent,
			day_change_price = EXCLUDED.day_change_price,
			day_price_high = EXCLUDED.day_price_high,
			day_price_low = EXCLUDED.day_price_low,
			day_volume = EXCLUDED.day_volume;
	`)

	_, err = r.txOrDb(ctx).ExecContext(ctx, sb.String(), args...)
	return err
}

func (r *Postgres) GetShare(ctx context.Context, issuerID string) (share model.Share, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT ` + shareColumns + ` FROM shares WHERE issuer_id = $1`

	slog.Debug("GetShare start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("GetShare failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetShare completed", slog.String("rqID", rqID))
		}
	}()

	dbShare := dbModel.Share{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, issuerID).StructScan(&dbShare)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Share{}, repository.ErrNotFound
		}
		return model.Share{}, err
	}

	return dbConverter.ConvertShare(dbShare), nil
}

func (r *Postgres) GetShares(ctx context.Context, params model.ListParams) (shares []model.Share, total int, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT ` + shareColumns + `, COUNT(*) OVER() AS total_count FROM shares` +
		shareSortable.clause(params.OrderBy, params.Order, params.Limit, params.Offset)

	slog.Debug("GetShares start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetShares failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetShares completed", slog.String("rqID", rqID))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	shares = make([]model.Share, 0, params.Limit)
	for rows.Next() {
		var row struct {
			dbModel.Share
			TotalCount int `db:"total_count"`
		}
		err = rows.StructScan(&row)
		if err != nil {
			return nil, 0, err
		}
		total = row.TotalCount
		shares = append(shares, dbConverter.ConvertShare(row.Share))
	}

	return shares, total, nil
}

func (r *Postgres) GetAllIssuerIDs(ctx context.Context) (issuerIDs []string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT issuer_id FROM shares ORDER BY issuer_id`

	slog.Debug("GetAllIssuerIDs start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetAllIssuerIDs failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetAllIssuerIDs completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).SelectContext(ctx, &issuerIDs, query)
	if err != nil {
		return nil, err
	}

	return issuerIDs, nil
}

// InsertSharePrices appends price-history points. The (issuer, time) pair is
// the primary key; a duplicate point is dropped rather than overwriting the
// series, keeping it append-only.
func (r *Postgres) InsertSharePrices(ctx context.Context, prices []dbModel.SharePrice) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("InsertSharePrices start", slog.String("rqID", rqID))

	defer func() {
		if err != nil {
			slog.Error("InsertSharePrices failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertSharePrices completed", slog.String("rqID", rqID))
		}
	}()

	if len(prices) == 0 {
		return nil
	}

	sb := strings.Builder{}
	args := make([]any, 0, len(prices)*3)

	sb.WriteString(`INSERT INTO share_prices(issuer_id, time, price) VALUES `)

	for i, p := range prices {
		args = append(args, p.IssuerID, p.Time, p.Price)

		start := i*3 + 1
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d)", start, start+1, start+2))

		if i < len(prices)-1 {
			sb.WriteString(",")
		}
	}

	sb.WriteString(` ON CONFLICT (issuer_id, time) DO NOTHING;`)

	_, err = r.txOrDb(ctx).ExecContext(ctx, sb.String(), args...)
	return err
}

func (r *Postgres) GetSharePriceHistory(ctx context.Context, issuerID string, start, end time.Time) (prices []model.SharePrice, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		SELECT issuer_id, time, price
		FROM share_prices
		WHERE issuer_id = $1
		AND time BETWEEN $2 AND $3
		ORDER BY time
		`

	slog.Debug("GetSharePriceHistory start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetSharePriceHistory failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetSharePriceHistory completed", slog.String("rqID", rqID))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, issuerID, start, end)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var price dbModel.SharePrice
		err = rows.StructScan(&price)
		if err != nil {
			return nil, err
		}
		prices = append(prices, dbConverter.ConvertSharePrice(price))
	}

	return prices, nil
}
