package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/investgame/investgame/internal/service"
	"github.com/investgame/investgame/utils"
)

// abortWithError maps the service taxonomy onto HTTP statuses. Anything
// unrecognized is logged and returned as an opaque 500.
func abortWithError(c *gin.Context, err error) {
	status, message := http.StatusInternalServerError, "internal error"

	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		status, message = http.StatusBadRequest, "quantity must be positive"
	case errors.Is(err, service.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, service.ErrSessionNotFound):
		status, message = http.StatusUnauthorized, "session expired"
	case errors.Is(err, service.ErrUserBanned):
		status, message = http.StatusForbidden, "account is banned"
	case errors.Is(err, service.ErrNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrAlreadyExists):
		status, message = http.StatusConflict, "already exists"
	case errors.Is(err, service.ErrInsufficientFunds):
		status, message = http.StatusUnprocessableEntity, "insufficient funds"
	case errors.Is(err, service.ErrInsufficientShares):
		status, message = http.StatusUnprocessableEntity, "insufficient shares"
	case errors.Is(err, service.ErrNoBuyHistory):
		status, message = http.StatusUnprocessableEntity, "no purchase history for this share"
	case errors.Is(err, service.ErrUpstreamFeed):
		status, message = http.StatusBadGateway, "market feed unavailable"
	case errors.Is(err, service.ErrStoreTimeout):
		status, message = http.StatusGatewayTimeout, "store timeout, trade rolled back"
	default:
		slog.Error(
			"unhandled error in http transport",
			slog.String("rqID", utils.GetRequestIDFromCtx(c.Request.Context())),
			slog.String("path", c.FullPath()),
			slog.String("err", err.Error()),
		)
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
