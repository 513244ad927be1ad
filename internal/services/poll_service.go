package services

import (
	"context"
	"slices"
	"time"

	"pollbox/internal/cache"
	"pollbox/internal/domain/poll"
	"pollbox/internal/ratelimit"
	"pollbox/internal/repository"
	"pollbox/internal/saga"
	"pollbox/internal/validation"
	pollbox_errors "pollbox/pkg/errors"
	"pollbox/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PollService creates, replaces and deletes polls together with their options.
type PollService struct {
	polls   repository.PollRepository
	options repository.OptionRepository
	votes   repository.VoteRepository
	cache   cache.Store
	limiter ratelimit.Limiter
	policy  ratelimit.Policy
	log     *logger.Logger
	now     func() time.Time
}

func NewPollService(
	polls repository.PollRepository,
	options repository.OptionRepository,
	votes repository.VoteRepository,
	store cache.Store,
	limiter ratelimit.Limiter,
	policies ratelimit.Policies,
	log *logger.Logger,
) *PollService {
	if log == nil {
		log = logger.NewNop()
	}
	return &PollService{
		polls:   polls,
		options: options,
		votes:   votes,
		cache:   store,
		limiter: limiter,
		policy:  policies.CreatePoll,
		log:     log,
		now:     time.Now,
	}
}

// Create stores a poll and its options. If the options cannot be stored the
// poll row is deleted again before the error is returned.
func (s *PollService) Create(ctx context.Context, actor uuid.UUID, raw any) (PollView, error) {
	if err := requireActor(actor); err != nil {
		return PollView{}, err
	}
	if err := gate(ctx, s.limiter, ratelimit.ActionCreatePoll, actor, s.policy); err != nil {
		return PollView{}, err
	}
	res := validation.Validate(validation.PollSchema, raw)
	if !res.Success {
		return PollView{}, pollbox_errors.NewValidationError(res.Errors)
	}
	in := res.Data

	now := s.now().UTC()
	p := poll.Poll{
		UserID:      actor,
		Title:       in.Title,
		Description: in.Description,
		AllowMulti:  in.AllowMulti,
		ClosesAt:    in.ClosesAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	var options []poll.Option

	err := saga.Run(ctx,
		saga.Step{
			Name:       "insert poll",
			Action:     func(ctx context.Context) error { return s.polls.Create(ctx, &p) },
			Compensate: func(ctx context.Context) error { return s.polls.Delete(ctx, p.ID) },
		},
		saga.Step{
			Name: "insert options",
			Action: func(ctx context.Context) error {
				options = newOptions(p.ID, in.Options, now)
				return s.options.CreateMany(ctx, options)
			},
		},
	)
	if err != nil {
		s.log.Error(ctx, "create poll failed", zap.Error(err))
		return PollView{}, pollbox_errors.Store("create poll", err)
	}

	invalidate(ctx, s.log, func(ctx context.Context) error { return cache.InvalidatePolls(ctx, s.cache) })
	s.log.Info(ctx, "poll created", zap.Int64("poll_id", p.ID), zap.Int("options", len(options)))
	return toPollView(p, options), nil
}

// Update replaces the poll fields and its whole option set. A failure part way
// through restores the previous fields and options, option ids included.
func (s *PollService) Update(ctx context.Context, actor uuid.UUID, pollID int64, raw any) (PollView, error) {
	if err := requireActor(actor); err != nil {
		return PollView{}, err
	}
	prev, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return PollView{}, storeErr("load poll", err)
	}
	if !prev.IsOwnedBy(actor) {
		return PollView{}, pollbox_errors.ErrUnauthorized
	}
	res := validation.Validate(validation.PollSchema, raw)
	if !res.Success {
		return PollView{}, pollbox_errors.NewValidationError(res.Errors)
	}
	in := res.Data

	prevOptions, err := s.options.ListByPoll(ctx, pollID)
	if err != nil {
		return PollView{}, storeErr("load options", err)
	}

	now := s.now().UTC()
	next := prev
	next.Title = in.Title
	next.Description = in.Description
	next.AllowMulti = in.AllowMulti
	next.ClosesAt = in.ClosesAt
	next.UpdatedAt = now
	var options []poll.Option

	err = saga.Run(ctx,
		saga.Step{
			Name:       "update poll",
			Action:     func(ctx context.Context) error { return s.polls.Update(ctx, next) },
			Compensate: func(ctx context.Context) error { return s.polls.Update(ctx, prev) },
		},
		saga.Step{
			Name:   "delete options",
			Action: func(ctx context.Context) error { return s.options.DeleteByPoll(ctx, pollID) },
			Compensate: func(ctx context.Context) error {
				if len(prevOptions) == 0 {
					return nil
				}
				return s.options.CreateMany(ctx, slices.Clone(prevOptions))
			},
		},
		saga.Step{
			Name: "insert options",
			Action: func(ctx context.Context) error {
				options = newOptions(pollID, in.Options, now)
				return s.options.CreateMany(ctx, options)
			},
		},
	)
	if err != nil {
		s.log.Error(ctx, "update poll failed", zap.Int64("poll_id", pollID), zap.Error(err))
		return PollView{}, pollbox_errors.Store("update poll", err)
	}

	s.invalidatePoll(ctx, pollID)
	s.log.Info(ctx, "poll updated", zap.Int64("poll_id", pollID), zap.Int("options", len(options)))
	return toPollView(next, options), nil
}

// Delete removes the poll's votes, then its options, then the poll itself.
func (s *PollService) Delete(ctx context.Context, actor uuid.UUID, pollID int64) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	p, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return storeErr("load poll", err)
	}
	if !p.IsOwnedBy(actor) {
		return pollbox_errors.ErrUnauthorized
	}

	err = saga.Run(ctx,
		saga.Step{Name: "delete votes", Action: func(ctx context.Context) error { return s.votes.DeleteByPoll(ctx, pollID) }},
		saga.Step{Name: "delete options", Action: func(ctx context.Context) error { return s.options.DeleteByPoll(ctx, pollID) }},
		saga.Step{Name: "delete poll", Action: func(ctx context.Context) error { return s.polls.Delete(ctx, pollID) }},
	)
	if err != nil {
		s.log.Error(ctx, "delete poll failed", zap.Int64("poll_id", pollID), zap.Error(err))
		return pollbox_errors.Store("delete poll", err)
	}

	s.invalidatePoll(ctx, pollID)
	s.log.Info(ctx, "poll deleted", zap.Int64("poll_id", pollID))
	return nil
}

func (s *PollService) invalidatePoll(ctx context.Context, pollID int64) {
	invalidate(ctx, s.log,
		func(ctx context.Context) error { return cache.InvalidatePoll(ctx, s.cache, pollID) },
		func(ctx context.Context) error { return cache.InvalidatePolls(ctx, s.cache) },
		func(ctx context.Context) error { return cache.InvalidatePollVotes(ctx, s.cache, pollID) },
	)
}

func newOptions(pollID int64, in []validation.OptionInput, now time.Time) []poll.Option {
	options := make([]poll.Option, len(in))
	for i, o := range in {
		options[i] = poll.Option{PollID: pollID, Text: o.Text, Position: o.Position, CreatedAt: now}
	}
	slices.SortFunc(options, func(a, b poll.Option) int { return a.Position - b.Position })
	return options
}
