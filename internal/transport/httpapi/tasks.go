package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Task triggers mirror the scheduled jobs so an operator or an external
// scheduler can force a run.

func (ctrl *Controller) UpdateSharesTask(c *gin.Context) {
	updated, err := ctrl.service.UpdateShares(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (ctrl *Controller) UpdateLeaderboardTask(c *gin.Context) {
	if err := ctrl.service.UpdateLeaderboard(c.Request.Context()); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "snapshot taken"})
}
