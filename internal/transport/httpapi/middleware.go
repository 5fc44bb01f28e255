package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/investgame/investgame/internal/model"
	"github.com/investgame/investgame/utils"
)

const (
	sessionCookie = "session_token"

	ctxKeySession = "session"
)

// RequestID tags every request with a correlation ID, taking the caller's
// X-Request-ID when present.
func (ctrl *Controller) RequestID(c *gin.Context) {
	rqID := c.GetHeader("X-Request-ID")
	ctx := utils.CtxWithRqID(c.Request.Context(), rqID)
	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Request-ID", utils.GetRequestIDFromCtx(ctx))
	c.Next()
}

// RequireUser resolves the session token and rejects anonymous or
// admin-only sessions.
func (ctrl *Controller) RequireUser(c *gin.Context) {
	sess, ok := ctrl.authenticate(c)
	if !ok {
		return
	}

	if sess.IsAdmin || sess.UserID == 0 {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user session required"})
		return
	}

	c.Set(ctxKeySession, sess)
	c.Next()
}

func (ctrl *Controller) RequireAdmin(c *gin.Context) {
	sess, ok := ctrl.authenticate(c)
	if !ok {
		return
	}

	if !sess.IsAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin session required"})
		return
	}

	c.Set(ctxKeySession, sess)
	c.Next()
}

func (ctrl *Controller) authenticate(c *gin.Context) (model.Session, bool) {
	token := sessionToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return model.Session{}, false
	}

	sess, err := ctrl.service.Authenticate(c.Request.Context(), token)
	if err != nil {
		abortWithError(c, err)
		return model.Session{}, false
	}

	return sess, true
}

// sessionToken reads the session cookie, falling back to a bearer header
// for non-browser clients.
func sessionToken(c *gin.Context) string {
	if token, err := c.Cookie(sessionCookie); err == nil && token != "" {
		return token
	}

	header := c.GetHeader("Authorization")
	if after, found := strings.CutPrefix(header, "Bearer "); found {
		return after
	}

	return ""
}

func setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetCookie(sessionCookie, token, maxAge, "/", "", false, true)
}

func currentUserID(c *gin.Context) int64 {
	sess, ok := c.Get(ctxKeySession)
	if !ok {
		return 0
	}
	return sess.(model.Session).UserID
}

// listParams parses the shared paging and sorting query shape. Unknown
// sort keys fall through to the repository whitelist's default ordering.
func (ctrl *Controller) listParams(c *gin.Context) model.ListParams {
	limit := ctrl.cfg.Trading.PageLimit

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	return model.ListParams{
		OrderBy: c.Query("order_by"),
		Order:   c.Query("order"),
		Offset:  (page - 1) * limit,
		Limit:   limit,
	}
}
