package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type IngressLimiterConfig struct {
	Rate  rate.Limit
	Burst int
}

// IngressLimiter is a process-wide token bucket in front of the named
// policies. It sheds load before any store round trip happens.
type IngressLimiter struct {
	limiter *rate.Limiter
}

func NewIngressLimiter(config IngressLimiterConfig) *IngressLimiter {
	return &IngressLimiter{
		limiter: rate.NewLimiter(config.Rate, config.Burst),
	}
}

func (il *IngressLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !il.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "server overloaded, try again later",
			})
			return
		}
		c.Next()
	}
}
