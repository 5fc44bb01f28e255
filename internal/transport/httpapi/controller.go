// Package httpapi is the JSON transport. It binds requests, delegates to
// the service and maps the error taxonomy onto HTTP statuses; no game rule
// lives here.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/investgame/investgame/config"
	"github.com/investgame/investgame/internal/model"
	"github.com/investgame/investgame/internal/model/asxModel"
)

type Service interface {
	Register(ctx context.Context, reg model.Registration) (userID int64, err error)
	Login(ctx context.Context, username, password string) (token string, err error)
	AdminLogin(ctx context.Context, username, password string) (token string, err error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (model.Session, error)

	GetUser(ctx context.Context, userID int64) (model.User, error)
	GetUsers(ctx context.Context, params model.ListParams) ([]model.User, int, error)
	SetUserBanned(ctx context.Context, userID int64, banned bool) error
	GetUserStatistics(ctx context.Context) (model.UserStatistics, error)

	Buy(ctx context.Context, userID int64, issuerID string, quantity int) (model.TradeResult, error)
	Sell(ctx context.Context, userID int64, issuerID string, quantity int) (model.TradeResult, error)

	GetShare(ctx context.Context, issuerID string) (model.Share, error)
	GetShares(ctx context.Context, params model.ListParams) ([]model.Share, int, error)
	GetShareSnapshot(ctx context.Context, issuerID string) (asxModel.ShareSnapshot, error)
	AddShare(ctx context.Context, issuerID string) (model.Share, error)
	GetSharePriceHistory(ctx context.Context, issuerID string, start, end time.Time) ([]model.SharePrice, error)
	UpdateShares(ctx context.Context) (updated int, err error)

	GetPortfolio(ctx context.Context, userID int64, params model.ListParams) ([]model.HoldingInfo, int, error)
	GetTransactions(ctx context.Context, userID int64, issuerID string, params model.ListParams) ([]model.Transaction, int, error)

	GetLeaderboard(ctx context.Context, userID int64) (model.Leaderboard, error)
	UpdateLeaderboard(ctx context.Context) error
	GetTopGainers(ctx context.Context, window time.Duration, limit int) ([]model.TopGainer, error)

	BuildTransactionsReport(ctx context.Context) ([]byte, error)
}

type Controller struct {
	service Service
	cfg     *config.Config
}

func NewController(cfg *config.Config, service Service) *Controller {
	return &Controller{service: service, cfg: cfg}
}

type registerRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Firstname string `json:"firstname" binding:"required"`
	Lastname  string `json:"lastname" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Gender    string `json:"gender" binding:"required,oneof=M F O"`
	DOB       string `json:"dob" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tradeRequest struct {
	IssuerID string `json:"issuer_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

func (ctrl *Controller) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dob, err := time.Parse("2006-01-02", req.DOB)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dob must be YYYY-MM-DD"})
		return
	}

	userID, err := ctrl.service.Register(c.Request.Context(), model.Registration{
		Username:  req.Username,
		Password:  req.Password,
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Email:     req.Email,
		Gender:    req.Gender,
		DOB:       dob,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user_id": userID})
}

func (ctrl *Controller) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := ctrl.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	setSessionCookie(c, token, int(ctrl.cfg.Session.Expiration.Seconds()))
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (ctrl *Controller) Logout(c *gin.Context) {
	token := sessionToken(c)
	if token != "" {
		if err := ctrl.service.Logout(c.Request.Context(), token); err != nil {
			abortWithError(c, err)
			return
		}
	}

	setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

// Dashboard is the landing summary: the account, the first portfolio page
// and the user's leaderboard position.
func (ctrl *Controller) Dashboard(c *gin.Context) {
	userID := currentUserID(c)

	user, err := ctrl.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	holdings, total, err := ctrl.service.GetPortfolio(c.Request.Context(), userID, ctrl.listParams(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	leaderboard, err := ctrl.service.GetLeaderboard(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":           userView(user),
		"holdings":       holdings,
		"holdings_total": total,
		"rank":           leaderboard.Current,
	})
}

func (ctrl *Controller) Portfolio(c *gin.Context) {
	userID := currentUserID(c)

	holdings, total, err := ctrl.service.GetPortfolio(c.Request.Context(), userID, ctrl.listParams(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"holdings": holdings, "total": total})
}

func (ctrl *Controller) Buy(c *gin.Context) {
	ctrl.trade(c, ctrl.service.Buy)
}

func (ctrl *Controller) Sell(c *gin.Context) {
	ctrl.trade(c, ctrl.service.Sell)
}

func (ctrl *Controller) trade(c *gin.Context, execute func(ctx context.Context, userID int64, issuerID string, quantity int) (model.TradeResult, error)) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := execute(c.Request.Context(), currentUserID(c), req.IssuerID, req.Quantity)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (ctrl *Controller) Shares(c *gin.Context) {
	shares, total, err := ctrl.service.GetShares(c.Request.Context(), ctrl.listParams(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"shares": shares, "total": total})
}

// ShareDetail returns the stored share plus the caller's trade history for
// it. The live feed quote rides along when available; a feed outage never
// breaks the page.
func (ctrl *Controller) ShareDetail(c *gin.Context) {
	issuerID := c.Param("issuerID")

	share, err := ctrl.service.GetShare(c.Request.Context(), issuerID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	transactions, total, err := ctrl.service.GetTransactions(c.Request.Context(), currentUserID(c), issuerID, ctrl.listParams(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := gin.H{
		"share":              share,
		"transactions":       transactions,
		"transactions_total": total,
	}

	if snapshot, snapErr := ctrl.service.GetShareSnapshot(c.Request.Context(), issuerID); snapErr == nil {
		resp["live"] = snapshot
	}

	c.JSON(http.StatusOK, resp)
}

func (ctrl *Controller) SharePriceHistory(c *gin.Context) {
	issuerID := c.Param("issuerID")

	end := time.Now().UTC()
	start := end.AddDate(0, -1, 0)

	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
			return
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
			return
		}
		end = parsed.AddDate(0, 0, 1) // include the whole end day
	}

	prices, err := ctrl.service.GetSharePriceHistory(c.Request.Context(), issuerID, start, end)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"prices": prices})
}

func (ctrl *Controller) Transactions(c *gin.Context) {
	transactions, total, err := ctrl.service.GetTransactions(c.Request.Context(), currentUserID(c), c.Query("issuer_id"), ctrl.listParams(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "total": total})
}

func (ctrl *Controller) Leaderboard(c *gin.Context) {
	leaderboard, err := ctrl.service.GetLeaderboard(c.Request.Context(), currentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, leaderboard)
}

func (ctrl *Controller) TopGainers(c *gin.Context) {
	window := 7 * 24 * time.Hour
	if c.Query("window") == "month" {
		window = 30 * 24 * time.Hour
	}

	gainers, err := ctrl.service.GetTopGainers(c.Request.Context(), window, ctrl.cfg.Trading.PageLimit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"gainers": gainers})
}

// userView strips account fields that never leave the server.
func userView(user model.User) gin.H {
	return gin.H{
		"user_id":      user.UserID,
		"username":     user.Username,
		"firstname":    user.Firstname,
		"lastname":     user.Lastname,
		"email":        user.Email,
		"balance":      user.Balance,
		"overall_perc": user.OverallPerc,
		"total_sales":  user.TotalSales,
		"banned":       user.Banned,
	}
}
