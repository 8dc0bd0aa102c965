package monitoring

import (
	"time"

	"github.com/gin-gonic/gin"
)

// MonitoringMiddleware records Prometheus metrics and an access log line for
// every request.
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		ip := c.ClientIP()
		userAgent := c.GetHeader("User-Agent")
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		metrics.RecordHTTPRequest(method, path, statusCode, duration)
		logger.RequestLogger(method, path, ip, userAgent, statusCode, duration)

		if duration > 5*time.Second {
			logger.SystemLogger("slow_request", method+" "+path)
		}
	}
}

// SecurityMonitoringMiddleware flags oversized bodies on the scoring
// endpoints.
func SecurityMonitoringMiddleware(logger *Logger) gin.HandlerFunc {
	const maxBodyBytes = 10_000

	return func(c *gin.Context) {
		if c.Request.Method == "POST" && c.Request.ContentLength > maxBodyBytes {
			logger.SecurityLogger("large_request_body", c.ClientIP(), c.GetHeader("User-Agent"),
				map[string]interface{}{
					"path":       c.Request.URL.Path,
					"size_bytes": c.Request.ContentLength,
				})
		}

		c.Next()
	}
}
