package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/edforge/lms-api/pkg/metrics"
	"github.com/edforge/lms-api/pkg/ratelimit"
)

type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
}

func NewRateLimitMiddleware(limiter *ratelimit.Limiter, m *metrics.Metrics) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, metrics: m}
}

// Limit enforces the named policy for the request. Keys combine client
// IP with the authenticated user so shared NATs do not starve each
// other once logged in. If the counting store is down the request is
// allowed through rather than failing the whole API.
func (m *RateLimitMiddleware) Limit(configName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ratelimit.DeriveKey(c.Request, c.GetString(ContextUserID))

		result, err := m.limiter.Check(c.Request.Context(), key, configName)
		if err != nil {
			log.Warn().Err(err).Str("config", configName).Msg("rate limit check failed, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime.Unix(), 10))

		if !result.Allowed {
			retryAfter := result.RetryAfter()
			if m.metrics != nil {
				m.metrics.RateLimitDecisions.WithLabelValues(configName, "denied").Inc()
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"statusCode": http.StatusTooManyRequests,
				"message":    "Too many requests, please try again later.",
				"error":      "Too Many Requests",
				"retryAfter": retryAfter,
			})
			return
		}

		if m.metrics != nil {
			m.metrics.RateLimitDecisions.WithLabelValues(configName, "allowed").Inc()
		}
		c.Next()
	}
}
