package ratelimit

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// IPRateLimitMiddleware creates middleware for IP-based rate limiting
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ip := c.ClientIP()

		result, err := rl.AllowIP(ctx, ip)
		if err != nil {
			// Never block requests on a limiter failure.
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitBlock("ip")
			}

			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded for IP",
				"message":     fmt.Sprintf("You have exceeded the rate limit of %d requests per minute", result.Limit),
				"retry_after": int(result.RetryAfter.Seconds()),
				"reset_at":    result.ResetAt.Unix(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// CheckDriverCompletion enforces the per-driver completion budget. The
// completion handler calls it after binding the request body, since the
// driver ID lives there. A limiter failure never blocks the request.
func (rl *RateLimiter) CheckDriverCompletion(c *gin.Context, driverID string) bool {
	result, err := rl.AllowDriver(c.Request.Context(), driverID)
	if err != nil {
		slog.Error("Driver rate limit check failed", "driver_id", driverID, "error", err)
		return true
	}

	c.Header("X-RateLimit-Driver-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Driver-Remaining", strconv.Itoa(result.Remaining))

	if !result.Allowed {
		if rl.metrics != nil {
			rl.metrics.IncrementRateLimitBlock("driver")
		}

		c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "completion limit exceeded for driver",
			"message":     fmt.Sprintf("Drivers may record at most %d completions per hour", result.Limit),
			"retry_after": int(result.RetryAfter.Seconds()),
		})
		c.Abort()
		return false
	}

	return true
}
