package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/investgame/investgame/data/repository"
	"github.com/investgame/investgame/internal/converter/dbConverter"
	"github.com/investgame/investgame/internal/model"
	"github.com/investgame/investgame/internal/model/dbModel"
	"github.com/investgame/investgame/utils"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const pgUniqueViolation = "23505"

func (r *Postgres) InsertUser(ctx context.Context, user dbModel.User) (userID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		INSERT INTO users(username, firstname, lastname, email, gender, dob, passhash, verified, banned, balance, overall_perc, total_sales)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING user_id`

	slog.Debug("InsertUser start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("InsertUser failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertUser completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(
		ctx,
		query,
		user.Username,
		user.Firstname,
		user.Lastname,
		user.Email,
		user.Gender,
		user.DOB,
		user.Passhash,
		user.Verified,
		user.Banned,
		user.Balance,
		user.OverallPerc,
		user.TotalSales,
	).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgUniqueViolation {
				return 0, repository.ErrAlreadyExists
			}
		}
		return 0, err
	}

	return userID, nil
}

func (r *Postgres) getUser(ctx context.Context, query string, arg any) (user model.User, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("getUser start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("getUser failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("getUser completed", slog.String("rqID", rqID))
		}
	}()

	dbUser := dbModel.User{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, arg).StructScan(&dbUser)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, repository.ErrNotFound
		}
		return model.User{}, err
	}

	return dbConverter.ConvertUser(dbUser), nil
}

const userColumns = `user_id, username, firstname, lastname, email, gender, dob, passhash, verified, banned, balance, overall_perc, total_sales`

func (r *Postgres) GetUserByID(ctx context.Context, userID int64) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return r.getUser(ctx, query, userID)
}

// GetUserForUpdate loads a user inside the current transaction with its row
// locked, serializing concurrent trades against the same balance.
func (r *Postgres) GetUserForUpdate(ctx context.Context, userID int64) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1 FOR UPDATE`
	return r.getUser(ctx, query, userID)
}

func (r *Postgres) GetUserCredentials(ctx context.Context, username string) (userID int64, passhash string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT user_id, passhash FROM users WHERE username = $1`

	slog.Debug("GetUserCredentials start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("GetUserCredentials failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetUserCredentials completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(ctx, query, username).Scan(&userID, &passhash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", repository.ErrNotFound
		}
		return 0, "", err
	}

	return userID, passhash, nil
}

func (r *Postgres) UpdateUserPasshash(ctx context.Context, userID int64, passhash string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `UPDATE users SET passhash = $1 WHERE user_id = $2`

	slog.Debug("UpdateUserPasshash start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("UpdateUserPasshash failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateUserPasshash completed", slog.String("rqID", rqID))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, passhash, userID)
	return err
}

// UpdateUserBalance writes the already computed post-trade balance. It must
// only be called while the user row is locked via GetUserForUpdate.
func (r *Postgres) UpdateUserBalance(ctx context.Context, userID int64, balance decimal.Decimal) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `UPDATE users SET balance = $1 WHERE user_id = $2`

	slog.Debug("UpdateUserBalance start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("UpdateUserBalance failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateUserBalance completed", slog.String("rqID", rqID))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, balance, userID)
	return err
}

func (r *Postgres) UpdateUserSellStats(ctx context.Context, userID int64, overallPerc decimal.Decimal, totalSales int) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `UPDATE users SET overall_perc = $1, total_sales = $2 WHERE user_id = $3`

	slog.Debug("UpdateUserSellStats start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("UpdateUserSellStats failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateUserSellStats completed", slog.String("rqID", rqID))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, overallPerc, totalSales, userID)
	return err
}

func (r *Postgres) SetUserBanned(ctx context.Context, userID int64, banned bool) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `UPDATE users SET banned = $1 WHERE user_id = $2`

	slog.Debug("SetUserBanned start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("SetUserBanned failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("SetUserBanned completed", slog.String("rqID", rqID))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, banned, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *Postgres) GetUsers(ctx context.Context, params model.ListParams) (users []model.User, total int, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT ` + userColumns + `, COUNT(*) OVER() AS total_count FROM users` +
		userSortable.clause(params.OrderBy, params.Order, params.Limit, params.Offset)

	slog.Debug("GetUsers start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetUsers failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetUsers completed", slog.String("rqID", rqID))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	users = make([]model.User, 0, params.Limit)
	for rows.Next() {
		var row struct {
			dbModel.User
			TotalCount int `db:"total_count"`
		}
		err = rows.StructScan(&row)
		if err != nil {
			return nil, 0, err
		}
		total = row.TotalCount
		users = append(users, dbConverter.ConvertUser(row.User))
	}

	return users, total, nil
}

func (r *Postgres) GetGenderCounts(ctx context.Context) (counts map[string]int, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT gender, COUNT(*) FROM users GROUP BY gender`

	slog.Debug("GetGenderCounts start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetGenderCounts failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetGenderCounts completed", slog.String("rqID", rqID))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	counts = make(map[string]int, 3)
	for rows.Next() {
		var gender string
		var count int
		if err = rows.Scan(&gender, &count); err != nil {
			return nil, err
		}
		counts[gender] = count
	}

	return counts, nil
}

func (r *Postgres) GetUserDOBs(ctx context.Context) (dobs []time.Time, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT dob FROM users`

	slog.Debug("GetUserDOBs start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetUserDOBs failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetUserDOBs completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).SelectContext(ctx, &dobs, query)
	if err != nil {
		return nil, err
	}

	return dobs, nil
}

func (r *Postgres) GetAdminCredentials(ctx context.Context, username string) (adminID int64, passhash string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT admin_id, passhash FROM admins WHERE username = $1`

	slog.Debug("GetAdminCredentials start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("GetAdminCredentials failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetAdminCredentials completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(ctx, query, username).Scan(&adminID, &passhash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", repository.ErrNotFound
		}
		return 0, "", err
	}

	return adminID, passhash, nil
}

func (r *Postgres) UpdateAdminPasshash(ctx context.Context, adminID int64, passhash string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `UPDATE admins SET passhash = $1 WHERE admin_id = $2`

	slog.Debug("UpdateAdminPasshash start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("UpdateAdminPasshash failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateAdminPasshash completed", slog.String("rqID", rqID))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, passhash, adminID)
	return err
}
