package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/wealthmap/internal/logger"
)

// LoggerKey is the context key for the request-scoped logger
const LoggerKey = "logger"

// Logger stores a request-scoped logger in the context and writes one access
// line per request. Health probes are logged at debug level.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(LoggerKey, log.WithRequestID(GetRequestID(c)))

		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"bytes":       c.Writer.Size(),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields["query"] = q
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		// Identity may have replaced the logger with one carrying the user id
		requestLogger := GetLogger(c)

		switch {
		case status >= 500:
			requestLogger.Error("Request failed", nil, fields)
		case status >= 400:
			requestLogger.Warn("Request rejected", fields)
		case strings.HasPrefix(c.Request.URL.Path, "/health"):
			requestLogger.Debug("Health probe", fields)
		default:
			requestLogger.Info("Request completed", fields)
		}
	}
}

// GetLogger returns the request-scoped logger, or nil outside the Logger middleware.
func GetLogger(c *gin.Context) *logger.Logger {
	if v, ok := c.Get(LoggerKey); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return nil
}
