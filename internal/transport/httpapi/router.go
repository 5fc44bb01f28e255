package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/investgame/investgame/config"
)

func NewRouter(cfg *config.Config, ctrl *Controller) *gin.Engine {
	if !cfg.API.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), ctrl.RequestID)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/register", ctrl.Register)
		api.POST("/login", ctrl.Login)
		api.POST("/logout", ctrl.Logout)

		user := api.Group("", ctrl.RequireUser)
		{
			user.GET("/dashboard", ctrl.Dashboard)
			user.GET("/portfolio", ctrl.Portfolio)
			user.GET("/transactions", ctrl.Transactions)
			user.POST("/buy", ctrl.Buy)
			user.POST("/sell", ctrl.Sell)
			user.GET("/shares", ctrl.Shares)
			user.GET("/shares/:issuerID", ctrl.ShareDetail)
			user.GET("/shares/:issuerID/prices", ctrl.SharePriceHistory)
			user.GET("/leaderboard", ctrl.Leaderboard)
			user.GET("/leaderboard/gainers", ctrl.TopGainers)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/login", ctrl.AdminLogin)

			protected := admin.Group("", ctrl.RequireAdmin)
			{
				protected.GET("/users", ctrl.Users)
				protected.GET("/users/:userID", ctrl.UserDetail)
				protected.POST("/users/:userID/ban", ctrl.BanUser)
				protected.POST("/users/:userID/unban", ctrl.UnbanUser)
				protected.GET("/statistics", ctrl.Statistics)
				protected.POST("/shares", ctrl.AddShare)
				protected.GET("/reports/transactions", ctrl.TransactionsReport)
			}
		}

		tasks := api.Group("/tasks", ctrl.RequireAdmin)
		{
			tasks.POST("/updateshares", ctrl.UpdateSharesTask)
			tasks.POST("/updateleaderboard", ctrl.UpdateLeaderboardTask)
		}
	}

	return router
}
