package investGameService

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/investgame/investgame/data/repository"
	"github.com/investgame/investgame/data/session"
	"github.com/investgame/investgame/internal/model"
	"github.com/investgame/investgame/internal/model/dbModel"
	"github.com/investgame/investgame/internal/service"
	"github.com/investgame/investgame/utils"
	"github.com/shopspring/decimal"
)

// ageBands maps birth dates to generation labels, newest first. The first
// band whose boundary the dob is after wins; anything earlier than the last
// boundary falls through to greatest-gen.
var ageBands = []struct {
	name  string
	after time.Time
}{
	{"post-mil", time.Date(1997, 1, 1, 0, 0, 0, 0, time.UTC)},
	{"mil", time.Date(1981, 1, 1, 0, 0, 0, 0, time.UTC)},
	{"gen-x", time.Date(1965, 1, 1, 0, 0, 0, 0, time.UTC)},
	{"baby-boom", time.Date(1946, 1, 1, 0, 0, 0, 0, time.UTC)},
	{"silent-gen", time.Date(1928, 1, 1, 0, 0, 0, 0, time.UTC)},
}

const oldestBand = "greatest-gen"

var genderBuckets = map[string]string{
	"M": "male",
	"F": "female",
	"O": "other",
}

// Register creates a user with the configured starting balance. Username
// and email are unique; a duplicate of either is rejected.
func (s *InvestGameService) Register(ctx context.Context, reg model.Registration) (userID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "InvestGameService.Register"

	slog.Debug("Register start", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", reg.Username))
	defer func() {
		if err != nil {
			slog.Warn("Register failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("Register finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("userID", userID))
		}
	}()

	passhash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return 0, err
	}

	userID, err = s.repo.InsertUser(ctx, dbModel.User{
		Username:    reg.Username,
		Firstname:   reg.Firstname,
		Lastname:    reg.Lastname,
		Email:       reg.Email,
		Gender:      reg.Gender,
		DOB:         reg.DOB,
		Passhash:    passhash,
		Verified:    true,
		Banned:      false,
		Balance:     s.startingBalance,
		OverallPerc: decimal.Zero,
		TotalSales:  0,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return 0, service.ErrAlreadyExists
		}
		return 0, err
	}

	return userID, nil
}

// Login verifies user credentials and opens a session. A stored hash below
// the current argon2 policy is transparently rehashed on success.
func (s *InvestGameService) Login(ctx context.Context, username, password string) (token string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "InvestGameService.Login"

	slog.Debug("Login start", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username))
	defer func() {
		if err != nil {
			slog.Warn("Login failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("Login finished", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	userID, passhash, err := s.repo.GetUserCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", service.ErrInvalidCredentials
		}
		return "", err
	}

	ok, err := s.hasher.Verify(passhash, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", service.ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(passhash) {
		s.rehash(ctx, passhash, password, func(newHash string) error {
			return s.repo.UpdateUserPasshash(ctx, userID, newHash)
		})
	}

	return s.sessions.Create(ctx, model.Session{UserID: userID})
}

// AdminLogin is Login against the admins table; the session carries the
// admin flag.
func (s *InvestGameService) AdminLogin(ctx context.Context, username, password string) (token string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "InvestGameService.AdminLogin"

	slog.Debug("AdminLogin start", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username))
	defer func() {
		if err != nil {
			slog.Warn("AdminLogin failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("AdminLogin finished", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	adminID, passhash, err := s.repo.GetAdminCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", service.ErrInvalidCredentials
		}
		return "", err
	}

	ok, err := s.hasher.Verify(passhash, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", service.ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(passhash) {
		s.rehash(ctx, passhash, password, func(newHash string) error {
			return s.repo.UpdateAdminPasshash(ctx, adminID, newHash)
		})
	}

	return s.sessions.Create(ctx, model.Session{AdminID: adminID, IsAdmin: true})
}

// rehash upgrades a stale stored hash. Failure here never fails the login.
func (s *InvestGameService) rehash(ctx context.Context, oldHash, password string, store func(newHash string) error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	newHash, err := s.hasher.Hash(password)
	if err != nil {
		slog.Warn("rehash failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return
	}

	if err := store(newHash); err != nil {
		slog.Warn("can't store rehashed passhash", slog.String("rqID", rqID), slog.String("err", err.Error()))
	}
}

func (s *InvestGameService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Authenticate resolves a session token. Touching a live session slides
// its expiration.
func (s *InvestGameService) Authenticate(ctx context.Context, token string) (model.Session, error) {
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return model.Session{}, service.ErrSessionNotFound
		}
		return model.Session{}, err
	}

	return sess, nil
}

func (s *InvestGameService) GetUser(ctx context.Context, userID int64) (model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, service.ErrNotFound
		}
		return model.User{}, err
	}

	return user, nil
}

func (s *InvestGameService) GetUsers(ctx context.Context, params model.ListParams) ([]model.User, int, error) {
	return s.repo.GetUsers(ctx, params)
}

func (s *InvestGameService) SetUserBanned(ctx context.Context, userID int64, banned bool) error {
	err := s.repo.SetUserBanned(ctx, userID, banned)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		return err
	}

	return nil
}

func (s *InvestGameService) GetPortfolio(ctx context.Context, userID int64, params model.ListParams) ([]model.HoldingInfo, int, error) {
	return s.repo.GetHoldingsInfo(ctx, userID, params)
}

func (s *InvestGameService) GetTransactions(ctx context.Context, userID int64, issuerID string, params model.ListParams) ([]model.Transaction, int, error) {
	return s.repo.GetTransactions(ctx, userID, issuerID, params)
}

// GetUserStatistics aggregates demographic counts over the whole user base
// at call time. Age bands are computed from dob against the band table.
func (s *InvestGameService) GetUserStatistics(ctx context.Context) (stats model.UserStatistics, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "InvestGameService.GetUserStatistics"

	slog.Debug("GetUserStatistics start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("GetUserStatistics failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetUserStatistics finished", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rawCounts, err := s.repo.GetGenderCounts(ctx)
	if err != nil {
		return model.UserStatistics{}, err
	}

	genderCounts := make(map[string]int, len(genderBuckets))
	for code, count := range rawCounts {
		bucket, known := genderBuckets[code]
		if !known {
			bucket = "other"
		}
		genderCounts[bucket] += count
	}

	dobs, err := s.repo.GetUserDOBs(ctx)
	if err != nil {
		return model.UserStatistics{}, err
	}

	ageCounts := make(map[string]int, len(ageBands)+1)
	for _, dob := range dobs {
		ageCounts[ageBand(dob)]++
	}

	return model.UserStatistics{
		GenderCounts:   genderCounts,
		AgeGroupCounts: ageCounts,
	}, nil
}

func ageBand(dob time.Time) string {
	for _, band := range ageBands {
		if dob.After(band.after) {
			return band.name
		}
	}
	return oldestBand
}
