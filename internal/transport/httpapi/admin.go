package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func (ctrl *Controller) AdminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := ctrl.service.AdminLogin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	setSessionCookie(c, token, int(ctrl.cfg.Session.Expiration.Seconds()))
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (ctrl *Controller) Users(c *gin.Context) {
	users, total, err := ctrl.service.GetUsers(c.Request.Context(), ctrl.listParams(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	views := make([]gin.H, 0, len(users))
	for _, user := range users {
		views = append(views, userView(user))
	}

	c.JSON(http.StatusOK, gin.H{"users": views, "total": total})
}

func (ctrl *Controller) UserDetail(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := ctrl.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	transactions, total, err := ctrl.service.GetTransactions(c.Request.Context(), userID, c.Query("issuer_id"), ctrl.listParams(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":               userView(user),
		"transactions":       transactions,
		"transactions_total": total,
	})
}

func (ctrl *Controller) BanUser(c *gin.Context) {
	ctrl.setBanned(c, true)
}

func (ctrl *Controller) UnbanUser(c *gin.Context) {
	ctrl.setBanned(c, false)
}

func (ctrl *Controller) setBanned(c *gin.Context, banned bool) {
	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := ctrl.service.SetUserBanned(c.Request.Context(), userID, banned); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "banned": banned})
}

func (ctrl *Controller) Statistics(c *gin.Context) {
	stats, err := ctrl.service.GetUserStatistics(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

type addShareRequest struct {
	IssuerID string `json:"issuer_id" binding:"required,alphanum,max=6"`
}

func (ctrl *Controller) AddShare(c *gin.Context) {
	var req addShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	share, err := ctrl.service.AddShare(c.Request.Context(), req.IssuerID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, share)
}

// TransactionsReport streams the full transaction log as an xlsx download.
func (ctrl *Controller) TransactionsReport(c *gin.Context) {
	report, err := ctrl.service.BuildTransactionsReport(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("transactions-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", report)
}
