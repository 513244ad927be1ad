package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pollbox/internal/ratelimit"
	pollbox_errors "pollbox/pkg/errors"
	"pollbox/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CacheTTLs holds the lifetime of each cached read model.
type CacheTTLs struct {
	PollList time.Duration
	Poll     time.Duration
	Vote     time.Duration
	Profile  time.Duration
}

func DefaultCacheTTLs() CacheTTLs {
	return CacheTTLs{
		PollList: 5 * time.Minute,
		Poll:     time.Minute,
		Vote:     time.Minute,
		Profile:  5 * time.Minute,
	}
}

func requireActor(actor uuid.UUID) error {
	if actor == uuid.Nil {
		return pollbox_errors.ErrAuthenticationRequired
	}
	return nil
}

// gate consumes one slot of policy for actor or fails with ErrRateLimited.
func gate(ctx context.Context, l ratelimit.Limiter, action string, actor uuid.UUID, p ratelimit.Policy) error {
	ok, err := ratelimit.Check(ctx, l, action, actor.String(), p)
	if err != nil {
		return fmt.Errorf("rate limit %s: %w", action, err)
	}
	if !ok {
		return pollbox_errors.ErrRateLimited
	}
	return nil
}

// storeErr wraps a repository failure as a StoreError. ErrNotFound passes through.
func storeErr(op string, err error) error {
	if err == nil || errors.Is(err, pollbox_errors.ErrNotFound) {
		return err
	}
	return pollbox_errors.Store(op, err)
}

// invalidate runs cache invalidations after a committed write. A failure leaves
// stale reads until the entry expires.
func invalidate(ctx context.Context, log *logger.Logger, steps ...func(context.Context) error) {
	for _, step := range steps {
		if err := step(ctx); err != nil {
			log.Warn(ctx, "cache invalidation failed", zap.Error(err))
		}
	}
}
