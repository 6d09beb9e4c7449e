package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// exposedHeaders are readable by browser clients: the request id for support
// tickets, and the report download name and upload URL.
var exposedHeaders = []string{RequestIDHeader, "Content-Disposition", "X-Report-URL"}

// CORS allows the configured web origins, including the identity headers the
// auth proxy forwards.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			RequestIDHeader, UserIDHeader, OrgIDHeader,
		},
		ExposeHeaders:    exposedHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
