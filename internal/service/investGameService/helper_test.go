package investGameService

import (
	"context"
	"testing"
	"time"

	"github.com/investgame/investgame/config"
	"github.com/investgame/investgame/internal/auth"
	"github.com/investgame/investgame/internal/model"
	"github.com/investgame/investgame/internal/model/asxModel"
	"github.com/investgame/investgame/internal/model/dbModel"
	"github.com/shopspring/decimal"
)

type testEnv struct {
	svc      *InvestGameService
	repo     *fakeRepo
	cache    *fakeCache
	sessions *fakeSessions
	feed     *fakeFeed
	hasher   *auth.Hasher
	cfg      *config.Config
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Trading.StartingBalance = "5000"
	cfg.Trading.StoreTimeout = 5 * time.Second
	cfg.Trading.NoBuyHistoryPolicy = "skip"
	cfg.Trading.PageLimit = 10
	cfg.Session.Expiration = time.Minute
	cfg.Argon2 = config.Argon2{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	return cfg
}

func newTestEnv(t *testing.T, mutate ...func(cfg *config.Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	repo := newFakeRepo()
	cache := newFakeCache()
	sessions := newFakeSessions()
	feed := newFakeFeed()
	hasher := auth.NewHasher(cfg.Argon2)

	return &testEnv{
		svc:      New(cfg, repo, cache, sessions, feed, hasher, fakeReportGenerator{}),
		repo:     repo,
		cache:    cache,
		sessions: sessions,
		feed:     feed,
		hasher:   hasher,
		cfg:      cfg,
	}
}

func (e *testEnv) addUser(t *testing.T, username, balance string) int64 {
	t.Helper()
	userID, err := e.repo.InsertUser(context.Background(), dbModel.User{
		Username: username,
		Email:    username + "@example.com",
		Gender:   "M",
		DOB:      time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
		Verified: true,
		Balance:  decimal.RequireFromString(balance),
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return userID
}

func (e *testEnv) addShare(t *testing.T, issuerID, price string) {
	t.Helper()
	err := e.repo.InsertShare(context.Background(), asxModel.ShareSnapshot{
		IssuerID:  issuerID,
		Shortname: issuerID + " LTD",
		Price:     decimal.RequireFromString(price),
	})
	if err != nil {
		t.Fatalf("seed share %s: %v", issuerID, err)
	}
}

func (e *testEnv) userBalance(t *testing.T, userID int64) decimal.Decimal {
	t.Helper()
	user, err := e.repo.GetUserByID(context.Background(), userID)
	if err != nil {
		t.Fatalf("get user %d: %v", userID, err)
	}
	return user.Balance
}

func (e *testEnv) holding(userID int64, issuerID string) (model.Holding, bool) {
	h, err := e.repo.GetHoldingForUpdate(context.Background(), userID, issuerID)
	if err != nil {
		return model.Holding{}, false
	}
	return h, true
}

func wantDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}
