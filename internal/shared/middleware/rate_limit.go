package middleware

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"bookcatalog-backend/internal/shared/response"
	"bookcatalog-backend/pkg/ratelimit"
)

// RateLimit gates requests through limiter keyed by client address. onReject
// may be nil.
func RateLimit(limiter *ratelimit.SlidingWindow, onReject func(key string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := GetClientIP(c)
		d := limiter.Check(key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			retry := int(math.Ceil(d.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))

			log.Warn().
				Str("client_ip", key).
				Str("path", c.Request.URL.Path).
				Int("retry_after_s", retry).
				Msg("rate limit exceeded")
			if onReject != nil {
				onReject(key)
			}

			response.TooManyRequests(c, "Too many requests. Please try again later.")
			c.Abort()
			return
		}

		c.Next()
	}
}
