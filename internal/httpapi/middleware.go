package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"pricewatch/internal/components/telemetry"

	"github.com/gin-gonic/gin"
)

const report_http_request = "http.request"

// TelemetryMiddleware reports every request with its status and duration.
func TelemetryMiddleware(tel telemetry.API) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		duration := time.Since(start).String()
		if status >= http.StatusInternalServerError {
			tel.ReportWarning(report_http_request, c.Request.Method, c.FullPath(), status, duration)
			return
		}
		tel.ReportDebug(report_http_request, c.Request.Method, c.FullPath(), status, duration)
	}
}

// BearerAuthMiddleware rejects requests without the bearer token, an empty
// token disables the check.
func BearerAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		given, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
