package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/wealthmap/internal/models"
)

const (
	// CallerKey is the context key for the authenticated caller
	CallerKey = "caller"
	// UserIDHeader carries the user id set by the upstream auth proxy
	UserIDHeader = "X-User-ID"
	// OrgIDHeader carries the caller's organisation id, if any
	OrgIDHeader = "X-Org-ID"
)

// Identity reads the caller from trusted upstream headers.
// Requests without a user id are rejected with 401. The request logger,
// when present, is tagged with the user id.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":       "UNAUTHORIZED",
					"message":    UserIDHeader + " header is required",
					"request_id": GetRequestID(c),
				},
			})
			return
		}

		c.Set(CallerKey, models.Caller{
			UserID: userID,
			OrgID:  strings.TrimSpace(c.GetHeader(OrgIDHeader)),
		})
		if l := GetLogger(c); l != nil {
			c.Set(LoggerKey, l.WithUser(userID))
		}

		c.Next()
	}
}

// GetCaller retrieves the caller from the Gin context.
func GetCaller(c *gin.Context) (models.Caller, bool) {
	if v, exists := c.Get(CallerKey); exists {
		if caller, ok := v.(models.Caller); ok {
			return caller, true
		}
	}
	return models.Caller{}, false
}
