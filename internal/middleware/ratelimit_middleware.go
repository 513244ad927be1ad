package middleware

import (
	"net/http"
	"strconv"

	"pollbox/internal/ratelimit"
	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware spends one slot of policy per request, keyed by the actor
// when one is attached and by client IP otherwise.
func RateLimitMiddleware(limiter ratelimit.Limiter, action string, policy ratelimit.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if actor, ok := services.ActorFromContext(c.Request.Context()); ok {
			key = actor.String()
		}

		allowed, err := ratelimit.Check(c.Request.Context(), limiter, action, key, policy)
		if err != nil {
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("rate limit error", "INTERNAL_ERROR"))
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(policy.Max))
		if !allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("rate limit exceeded", "RATE_LIMITED"))
			c.Abort()
			return
		}
		c.Next()
	}
}
