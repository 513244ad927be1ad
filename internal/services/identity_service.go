package services

import (
	"context"
	"strings"
	"time"

	"pollbox/config"
	pollbox_errors "pollbox/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// IdentityService resolves bearer tokens issued by the external identity
// provider into actor ids.
type IdentityService struct {
	jwtSecret []byte
}

func NewIdentityService(cfg *config.Config) *IdentityService {
	return &IdentityService{jwtSecret: []byte(cfg.JWTSecret)}
}

type AccessClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func (s *IdentityService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, pollbox_errors.ErrAuthenticationRequired
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, pollbox_errors.ErrAuthenticationRequired
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return AccessClaims{}, pollbox_errors.ErrAuthenticationRequired
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return AccessClaims{}, pollbox_errors.ErrAuthenticationRequired
	}

	return *claims, nil
}

// Authenticate returns the actor carried by tokenString. The user_id claim wins
// over the subject.
func (s *IdentityService) Authenticate(tokenString string) (uuid.UUID, error) {
	claims, err := s.ParseAccessToken(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	raw := strings.TrimSpace(claims.UserID)
	if raw == "" {
		raw = claims.Subject
	}
	actor, err := uuid.Parse(raw)
	if err != nil || actor == uuid.Nil {
		return uuid.Nil, pollbox_errors.ErrAuthenticationRequired
	}
	return actor, nil
}

// IssueAccessToken signs a token for userID. Production tokens come from the
// identity provider; this serves local runs and tests.
func (s *IdentityService) IssueAccessToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

type ctxKey string

var actorKey ctxKey = "actor"

func WithActor(ctx context.Context, actor uuid.UUID) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns uuid.Nil when the request is anonymous.
func ActorFromContext(ctx context.Context) (uuid.UUID, bool) {
	value := ctx.Value(actorKey)
	if value == nil {
		return uuid.Nil, false
	}
	actor, ok := value.(uuid.UUID)
	return actor, ok
}
