package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/wealthmap/internal/logger"
)

// Recovery turns a handler panic into a logged 500. When the handler already
// started writing, the response is only aborted.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			l := GetLogger(c)
			if l == nil {
				l = log
			}
			l.Error("Panic recovered", fmt.Errorf("panic: %v", rec), map[string]interface{}{
				"method": c.Request.Method,
				"path":   c.Request.URL.Path,
				"stack":  string(debug.Stack()),
			})

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":       "INTERNAL_SERVER_ERROR",
					"message":    "An unexpected error occurred",
					"request_id": GetRequestID(c),
				},
			})
		}()

		c.Next()
	}
}
