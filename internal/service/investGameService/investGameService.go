// Package investGameService is the core engine of the investment game. It
// owns trade execution, the market surface, accounts and sessions, the
// leaderboard and the demographic statistics. Every mutation of money or
// positions goes through Repository.WithinTransaction so a trade either
// becomes fully visible or not at all.
package investGameService

import (
	"context"
	"time"

	"github.com/investgame/investgame/config"
	"github.com/investgame/investgame/internal/model"
	"github.com/investgame/investgame/internal/model/asxModel"
	"github.com/investgame/investgame/internal/model/dbModel"
	"github.com/shopspring/decimal"
)

type AsxApi interface {
	GetShareSnapshot(ctx context.Context, issuerID string) (asxModel.ShareSnapshot, error)
}

type Cache interface {
	SetShareSnapshots(ctx context.Context, snapshots []asxModel.ShareSnapshot) error
	GetShareSnapshot(ctx context.Context, issuerID string) (asxModel.ShareSnapshot, error)
	SetLeaderboard(ctx context.Context, entries []model.LeaderboardEntry) error
	GetLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)
	FlushLeaderboard(ctx context.Context) error
}

type SessionStore interface {
	Create(ctx context.Context, sess model.Session) (token string, err error)
	Get(ctx context.Context, token string) (model.Session, error)
	Delete(ctx context.Context, token string) error
}

type Hasher interface {
	Hash(password string) (string, error)
	Verify(encoded, password string) (bool, error)
	NeedsRehash(encoded string) bool
}

type ReportGenerator interface {
	TransactionsReport(transactions []model.Transaction) ([]byte, error)
}

type Repository interface {
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error

	InsertUser(ctx context.Context, user dbModel.User) (userID int64, err error)
	GetUserByID(ctx context.Context, userID int64) (model.User, error)
	GetUserForUpdate(ctx context.Context, userID int64) (model.User, error)
	GetUserCredentials(ctx context.Context, username string) (userID int64, passhash string, err error)
	UpdateUserPasshash(ctx context.Context, userID int64, passhash string) error
	UpdateUserBalance(ctx context.Context, userID int64, balance decimal.Decimal) error
	UpdateUserSellStats(ctx context.Context, userID int64, overallPerc decimal.Decimal, totalSales int) error
	SetUserBanned(ctx context.Context, userID int64, banned bool) error
	GetUsers(ctx context.Context, params model.ListParams) ([]model.User, int, error)
	GetGenderCounts(ctx context.Context) (map[string]int, error)
	GetUserDOBs(ctx context.Context) ([]time.Time, error)
	GetAdminCredentials(ctx context.Context, username string) (adminID int64, passhash string, err error)
	UpdateAdminPasshash(ctx context.Context, adminID int64, passhash string) error

	InsertShare(ctx context.Context, snapshot asxModel.ShareSnapshot) error
	UpsertShares(ctx context.Context, snapshots []asxModel.ShareSnapshot) error
	GetShare(ctx context.Context, issuerID string) (model.Share, error)
	GetShares(ctx context.Context, params model.ListParams) ([]model.Share, int, error)
	GetAllIssuerIDs(ctx context.Context) ([]string, error)
	InsertSharePrices(ctx context.Context, prices []dbModel.SharePrice) error
	GetSharePriceHistory(ctx context.Context, issuerID string, start, end time.Time) ([]model.SharePrice, error)

	GetHoldingForUpdate(ctx context.Context, userID int64, issuerID string) (model.Holding, error)
	UpsertHoldingBuy(ctx context.Context, userID int64, issuerID string, quantity int, total, gross decimal.Decimal) error
	ApplyHoldingSell(ctx context.Context, userID int64, issuerID string, quantity int, total decimal.Decimal) error
	GetHoldingsInfo(ctx context.Context, userID int64, params model.ListParams) ([]model.HoldingInfo, int, error)

	InsertTransaction(ctx context.Context, transaction dbModel.Transaction) (transID int64, err error)
	GetTransactions(ctx context.Context, userID int64, issuerID string, params model.ListParams) ([]model.Transaction, int, error)
	GetAllTransactions(ctx context.Context) ([]model.Transaction, error)
	GetAvgPurchasePrice(ctx context.Context, userID int64, issuerID string) (avg decimal.Decimal, ok bool, err error)

	GetLeaderboardRows(ctx context.Context) ([]dbModel.LeaderboardRow, error)
	InsertLeaderboardSnapshot(ctx context.Context, rows []dbModel.LeaderboardRow, at time.Time) error
	GetSnapshotValuesBefore(ctx context.Context, cutoff time.Time) (map[int64]decimal.Decimal, error)
}

type InvestGameService struct {
	repo            Repository
	cache           Cache
	sessions        SessionStore
	asxApi          AsxApi
	hasher          Hasher
	reportGenerator ReportGenerator
	cfg             *config.Config
	startingBalance decimal.Decimal
}

func New(
	cfg *config.Config,
	repo Repository,
	cache Cache,
	sessions SessionStore,
	asxApi AsxApi,
	hasher Hasher,
	reportGenerator ReportGenerator,
) *InvestGameService {
	return &InvestGameService{
		repo:            repo,
		cache:           cache,
		sessions:        sessions,
		asxApi:          asxApi,
		hasher:          hasher,
		reportGenerator: reportGenerator,
		cfg:             cfg,
		startingBalance: decimal.RequireFromString(cfg.Trading.StartingBalance),
	}
}
