package middleware

import (
	"context"
	"net/http"
	"strings"

	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
	"pollbox/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Authenticator resolves a bearer token into an actor id.
type Authenticator interface {
	Authenticate(token string) (uuid.UUID, error)
}

// AuthMiddleware rejects requests without a valid bearer token and puts the
// actor into the request context.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := auth.Authenticate(extractBearer(c))
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("authentication required", "AUTHENTICATION_REQUIRED"))
			c.Abort()
			return
		}
		setActor(c, actor)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the actor when a valid token is present and
// lets anonymous requests through otherwise.
func OptionalAuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractBearer(c); token != "" {
			if actor, err := auth.Authenticate(token); err == nil {
				setActor(c, actor)
			}
		}
		c.Next()
	}
}

// QueryTokenMiddleware is OptionalAuthMiddleware for websocket upgrades, where
// browsers pass the token as ?token= instead of a header.
func QueryTokenMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = extractBearer(c)
		}
		if token != "" {
			if actor, err := auth.Authenticate(token); err == nil {
				setActor(c, actor)
			}
		}
		c.Next()
	}
}

func setActor(c *gin.Context, actor uuid.UUID) {
	ctx := services.WithActor(c.Request.Context(), actor)
	ctx = context.WithValue(ctx, logger.UserIdKey, actor.String())
	c.Request = c.Request.WithContext(ctx)
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
