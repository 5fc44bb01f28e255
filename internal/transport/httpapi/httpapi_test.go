package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/investgame/investgame/config"
	"github.com/investgame/investgame/internal/model"
	"github.com/investgame/investgame/internal/model/asxModel"
	"github.com/investgame/investgame/internal/service"
	"github.com/shopspring/decimal"
)

// stubService satisfies the whole Service interface; tests override the
// function fields they care about.
type stubService struct {
	loginFn func(ctx context.Context, username, password string) (string, error)
	authFn  func(ctx context.Context, token string) (model.Session, error)
	buyFn   func(ctx context.Context, userID int64, issuerID string, quantity int) (model.TradeResult, error)
}

func (s *stubService) Register(context.Context, model.Registration) (int64, error) { return 1, nil }

func (s *stubService) Login(ctx context.Context, username, password string) (string, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, username, password)
	}
	return "token", nil
}

func (s *stubService) AdminLogin(context.Context, string, string) (string, error) {
	return "admin-token", nil
}

func (s *stubService) Logout(context.Context, string) error { return nil }

func (s *stubService) Authenticate(ctx context.Context, token string) (model.Session, error) {
	if s.authFn != nil {
		return s.authFn(ctx, token)
	}
	return model.Session{UserID: 7}, nil
}

func (s *stubService) GetUser(context.Context, int64) (model.User, error) {
	return model.User{UserID: 7, Username: "alice"}, nil
}

func (s *stubService) GetUsers(context.Context, model.ListParams) ([]model.User, int, error) {
	return nil, 0, nil
}

func (s *stubService) SetUserBanned(context.Context, int64, bool) error { return nil }

func (s *stubService) GetUserStatistics(context.Context) (model.UserStatistics, error) {
	return model.UserStatistics{}, nil
}

func (s *stubService) Buy(ctx context.Context, userID int64, issuerID string, quantity int) (model.TradeResult, error) {
	if s.buyFn != nil {
		return s.buyFn(ctx, userID, issuerID, quantity)
	}
	return model.TradeResult{}, nil
}

func (s *stubService) Sell(context.Context, int64, string, int) (model.TradeResult, error) {
	return model.TradeResult{}, nil
}

func (s *stubService) GetShare(context.Context, string) (model.Share, error) {
	return model.Share{}, nil
}

func (s *stubService) GetShares(context.Context, model.ListParams) ([]model.Share, int, error) {
	return nil, 0, nil
}

func (s *stubService) GetShareSnapshot(context.Context, string) (asxModel.ShareSnapshot, error) {
	return asxModel.ShareSnapshot{}, nil
}

func (s *stubService) AddShare(context.Context, string) (model.Share, error) {
	return model.Share{}, nil
}

func (s *stubService) GetSharePriceHistory(context.Context, string, time.Time, time.Time) ([]model.SharePrice, error) {
	return nil, nil
}

func (s *stubService) UpdateShares(context.Context) (int, error) { return 0, nil }

func (s *stubService) GetPortfolio(context.Context, int64, model.ListParams) ([]model.HoldingInfo, int, error) {
	return nil, 0, nil
}

func (s *stubService) GetTransactions(context.Context, int64, string, model.ListParams) ([]model.Transaction, int, error) {
	return nil, 0, nil
}

func (s *stubService) GetLeaderboard(context.Context, int64) (model.Leaderboard, error) {
	return model.Leaderboard{}, nil
}

func (s *stubService) UpdateLeaderboard(context.Context) error { return nil }

func (s *stubService) GetTopGainers(context.Context, time.Duration, int) ([]model.TopGainer, error) {
	return nil, nil
}

func (s *stubService) BuildTransactionsReport(context.Context) ([]byte, error) { return nil, nil }

func newTestRouter(stub *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.API.Debug = true
	cfg.Trading.PageLimit = 10
	cfg.Session.Expiration = time.Minute

	return NewRouter(cfg, NewController(cfg, stub))
}

func doRequest(router *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireUserWithoutToken(t *testing.T) {
	router := newTestRouter(&stubService{})

	w := doRequest(router, http.MethodGet, "/api/portfolio", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireUserRejectsAdminSession(t *testing.T) {
	stub := &stubService{
		authFn: func(_ context.Context, _ string) (model.Session, error) {
			return model.Session{AdminID: 1, IsAdmin: true}, nil
		},
	}
	router := newTestRouter(stub)

	w := doRequest(router, http.MethodGet, "/api/portfolio", "", "admin-token")
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestRequireAdminRejectsUserSession(t *testing.T) {
	router := newTestRouter(&stubService{})

	w := doRequest(router, http.MethodGet, "/api/admin/users", "", "user-token")
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	router := newTestRouter(&stubService{})

	w := doRequest(router, http.MethodPost, "/api/login", `{"username":"alice","password":"pw"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	cookie := w.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, sessionCookie+"=token") {
		t.Errorf("Set-Cookie = %q, want session token cookie", cookie)
	}
	if !strings.Contains(cookie, "HttpOnly") {
		t.Errorf("Set-Cookie = %q, want HttpOnly", cookie)
	}
}

func TestBuyPassesSessionUser(t *testing.T) {
	var gotUserID int64
	var gotQuantity int
	stub := &stubService{
		buyFn: func(_ context.Context, userID int64, issuerID string, quantity int) (model.TradeResult, error) {
			gotUserID = userID
			gotQuantity = quantity
			return model.TradeResult{IssuerID: issuerID, Total: decimal.NewFromInt(151)}, nil
		},
	}
	router := newTestRouter(stub)

	w := doRequest(router, http.MethodPost, "/api/buy", `{"issuer_id":"CBA","quantity":1}`, "user-token")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if gotUserID != 7 {
		t.Errorf("userID = %d, want 7 (from session)", gotUserID)
	}
	if gotQuantity != 1 {
		t.Errorf("quantity = %d, want 1", gotQuantity)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{service.ErrInvalidQuantity, http.StatusBadRequest},
		{service.ErrUserBanned, http.StatusForbidden},
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{service.ErrInsufficientShares, http.StatusUnprocessableEntity},
		{service.ErrStoreTimeout, http.StatusGatewayTimeout},
		{service.ErrUpstreamFeed, http.StatusBadGateway},
	}

	for _, tt := range tests {
		stub := &stubService{
			buyFn: func(context.Context, int64, string, int) (model.TradeResult, error) {
				return model.TradeResult{}, tt.err
			},
		}
		router := newTestRouter(stub)

		w := doRequest(router, http.MethodPost, "/api/buy", `{"issuer_id":"CBA","quantity":1}`, "user-token")
		if w.Code != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, w.Code, tt.status)
		}
	}
}

func TestRequestIDEchoed(t *testing.T) {
	router := newTestRouter(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}
