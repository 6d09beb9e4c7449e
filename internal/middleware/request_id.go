package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDKey is the context key for the request ID
	RequestIDKey = "request_id"
	// RequestIDHeader is the HTTP header name for the request ID
	RequestIDHeader = "X-Request-ID"
)

// Upstream ids end up in logs and response headers, so only short opaque
// tokens are trusted.
var upstreamRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID tags every request with an id, reusing the proxy's X-Request-ID
// when it looks sane and generating a UUID otherwise.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if !upstreamRequestID.MatchString(requestID) {
			requestID = uuid.NewString()
		}

		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// GetRequestID returns the request id, or "" outside the RequestID middleware.
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
