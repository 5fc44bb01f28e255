package investGameService

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/investgame/investgame/internal/externalApi"
	"github.com/investgame/investgame/internal/model/asxModel"
	"github.com/investgame/investgame/internal/service"
	"github.com/shopspring/decimal"
)

func feedSnapshot(issuerID, price string) asxModel.ShareSnapshot {
	return asxModel.ShareSnapshot{
		IssuerID:  issuerID,
		Fullname:  issuerID + " Limited",
		Shortname: issuerID + " LTD",
		Price:     decimal.RequireFromString(price),
	}
}

func TestAddShare(t *testing.T) {
	env := newTestEnv(t)
	env.feed.snapshots["CBA"] = feedSnapshot("CBA", "71.5")

	share, err := env.svc.AddShare(context.Background(), "CBA")
	if err != nil {
		t.Fatalf("AddShare returned error: %v", err)
	}
	wantDecimal(t, "CurrentPrice", share.CurrentPrice, "71.5")

	// The first price-history point comes from the fetched snapshot.
	history, err := env.repo.GetSharePriceHistory(context.Background(), "CBA", time.Time{}, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	wantDecimal(t, "first point", history[0].Price, "71.5")

	_, err = env.svc.AddShare(context.Background(), "CBA")
	if !errors.Is(err, service.ErrAlreadyExists) {
		t.Errorf("duplicate: err = %v, want ErrAlreadyExists", err)
	}
}

func TestAddShareUnknownIssuer(t *testing.T) {
	env := newTestEnv(t)
	env.feed.errs["XXX"] = externalApi.ErrNotFound

	_, err := env.svc.AddShare(context.Background(), "XXX")
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAddShareFeedDown(t *testing.T) {
	env := newTestEnv(t)
	env.feed.errs["CBA"] = errors.New("connection refused")

	_, err := env.svc.AddShare(context.Background(), "CBA")
	if !errors.Is(err, service.ErrUpstreamFeed) {
		t.Errorf("err = %v, want ErrUpstreamFeed", err)
	}
}

func TestUpdateSharesSkipsFailedFetches(t *testing.T) {
	env := newTestEnv(t)
	env.addShare(t, "AAA", "10")
	env.addShare(t, "BBB", "20")
	env.addShare(t, "CCC", "30")

	env.feed.snapshots["AAA"] = feedSnapshot("AAA", "11")
	env.feed.errs["BBB"] = errors.New("timeout")
	env.feed.snapshots["CCC"] = feedSnapshot("CCC", "33")

	updated, err := env.svc.UpdateShares(context.Background())
	if err != nil {
		t.Fatalf("UpdateShares returned error: %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2", updated)
	}

	aaa, _ := env.repo.GetShare(context.Background(), "AAA")
	wantDecimal(t, "AAA price", aaa.CurrentPrice, "11")

	// The failed issuer keeps its last stored price.
	bbb, _ := env.repo.GetShare(context.Background(), "BBB")
	wantDecimal(t, "BBB price", bbb.CurrentPrice, "20")

	ccc, _ := env.repo.GetShare(context.Background(), "CCC")
	wantDecimal(t, "CCC price", ccc.CurrentPrice, "33")

	end := time.Now().UTC().Add(time.Hour)
	for issuer, points := range map[string]int{"AAA": 1, "BBB": 0, "CCC": 1} {
		history, _ := env.repo.GetSharePriceHistory(context.Background(), issuer, time.Time{}, end)
		if len(history) != points {
			t.Errorf("%s history length = %d, want %d", issuer, len(history), points)
		}
	}

	// Refreshed snapshots land in the cache.
	if _, err := env.cache.GetShareSnapshot(context.Background(), "AAA"); err != nil {
		t.Error("AAA snapshot not cached after refresh")
	}
}

func TestUpdateSharesAllFetchesFail(t *testing.T) {
	env := newTestEnv(t)
	env.addShare(t, "AAA", "10")
	env.feed.errs["AAA"] = errors.New("down")

	updated, err := env.svc.UpdateShares(context.Background())
	if err != nil {
		t.Fatalf("UpdateShares returned error: %v", err)
	}
	if updated != 0 {
		t.Errorf("updated = %d, want 0", updated)
	}
}

func TestGetShareSnapshotCacheFallback(t *testing.T) {
	env := newTestEnv(t)
	env.feed.snapshots["CBA"] = feedSnapshot("CBA", "71.5")

	snapshot, err := env.svc.GetShareSnapshot(context.Background(), "CBA")
	if err != nil {
		t.Fatalf("GetShareSnapshot returned error: %v", err)
	}
	wantDecimal(t, "Price", snapshot.Price, "71.5")

	// Second call is served from the cache, not the feed.
	calls := len(env.feed.calls)
	if _, err := env.svc.GetShareSnapshot(context.Background(), "CBA"); err != nil {
		t.Fatalf("second GetShareSnapshot returned error: %v", err)
	}
	if len(env.feed.calls) != calls {
		t.Error("cached snapshot still hit the feed")
	}
}

func TestGetSharePriceHistoryUnknownIssuer(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.GetSharePriceHistory(context.Background(), "XXX", time.Time{}, time.Now())
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBuildTransactionsReport(t *testing.T) {
	env := newTestEnv(t)
	userID := env.addUser(t, "alice", "5000")
	env.addShare(t, "CBA", "100")

	if _, err := env.svc.Buy(context.Background(), userID, "CBA", 2); err != nil {
		t.Fatalf("Buy returned error: %v", err)
	}

	report, err := env.svc.BuildTransactionsReport(context.Background())
	if err != nil {
		t.Fatalf("BuildTransactionsReport returned error: %v", err)
	}
	if string(report) != "1:CBA:B;" {
		t.Errorf("report = %q, want %q", report, "1:CBA:B;")
	}
}
