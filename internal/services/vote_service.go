package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"pollbox/internal/cache"
	"pollbox/internal/domain/poll"
	"pollbox/internal/ratelimit"
	"pollbox/internal/repository"
	"pollbox/internal/results"
	"pollbox/internal/validation"
	pollbox_errors "pollbox/pkg/errors"
	"pollbox/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResultsPublisher pushes freshly aggregated results to live subscribers.
type ResultsPublisher interface {
	PublishResults(ctx context.Context, pollID int64, payload []byte) error
}

type VoteService struct {
	polls     repository.PollRepository
	options   repository.OptionRepository
	votes     repository.VoteRepository
	cache     cache.Store
	limiter   ratelimit.Limiter
	policy    ratelimit.Policy
	ttl       time.Duration
	publisher ResultsPublisher
	log       *logger.Logger
	now       func() time.Time
}

func NewVoteService(
	polls repository.PollRepository,
	options repository.OptionRepository,
	votes repository.VoteRepository,
	store cache.Store,
	limiter ratelimit.Limiter,
	policies ratelimit.Policies,
	ttls CacheTTLs,
	publisher ResultsPublisher,
	log *logger.Logger,
) *VoteService {
	if log == nil {
		log = logger.NewNop()
	}
	return &VoteService{
		polls:     polls,
		options:   options,
		votes:     votes,
		cache:     store,
		limiter:   limiter,
		policy:    policies.Vote,
		ttl:       ttls.Vote,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Submit records actor's choice of an option. raw carries poll_id and option_id.
// On a single-choice poll a second vote by the same actor fails with
// ErrAlreadyVoted, whether caught here or by the store's unique index.
func (s *VoteService) Submit(ctx context.Context, actor uuid.UUID, raw any) (VoteReceipt, error) {
	if err := requireActor(actor); err != nil {
		return VoteReceipt{}, err
	}
	if err := gate(ctx, s.limiter, ratelimit.ActionVote, actor, s.policy); err != nil {
		return VoteReceipt{}, err
	}
	res := validation.Validate(validation.VoteSchema, raw)
	if !res.Success {
		return VoteReceipt{}, pollbox_errors.NewValidationError(res.Errors)
	}
	in := res.Data

	p, err := s.polls.GetByID(ctx, in.PollID)
	if err != nil {
		return VoteReceipt{}, storeErr("load poll", err)
	}
	now := s.now()
	if p.IsClosed(now) {
		return VoteReceipt{}, pollbox_errors.ErrPollClosed
	}

	options, err := s.options.ListByPoll(ctx, p.ID)
	if err != nil {
		return VoteReceipt{}, storeErr("load options", err)
	}
	if !hasOption(options, in.OptionID) {
		return VoteReceipt{}, pollbox_errors.ErrNotFound
	}

	if !p.AllowMulti {
		voted, err := s.votes.Exists(ctx, p.ID, actor)
		if err != nil {
			return VoteReceipt{}, storeErr("check vote", err)
		}
		if voted {
			return VoteReceipt{}, pollbox_errors.ErrAlreadyVoted
		}
	}

	v := poll.Vote{
		PollID:       p.ID,
		OptionID:     in.OptionID,
		UserID:       actor,
		SingleChoice: !p.AllowMulti,
		CreatedAt:    now.UTC(),
	}
	if err := s.votes.Create(ctx, &v); err != nil {
		if errors.Is(err, pollbox_errors.ErrAlreadyExists) {
			return VoteReceipt{}, pollbox_errors.ErrAlreadyVoted
		}
		return VoteReceipt{}, storeErr("insert vote", err)
	}

	invalidate(ctx, s.log,
		func(ctx context.Context) error { return cache.InvalidatePoll(ctx, s.cache, p.ID) },
		func(ctx context.Context) error { return cache.InvalidatePollVotes(ctx, s.cache, p.ID) },
		func(ctx context.Context) error { return cache.InvalidatePolls(ctx, s.cache) },
	)

	receipt := VoteReceipt{VoteID: v.ID, PollID: p.ID, OptionID: v.OptionID}
	votes, err := s.votes.ListByPoll(ctx, p.ID)
	if err != nil {
		s.log.Warn(ctx, "load votes after submit failed", zap.Int64("poll_id", p.ID), zap.Error(err))
		return receipt, nil
	}
	receipt.Results = results.Aggregate(p, options, votes, now)
	s.publish(ctx, receipt.Results)
	return receipt, nil
}

// HasVoted reports whether actor already voted on pollID.
func (s *VoteService) HasVoted(ctx context.Context, actor uuid.UUID, pollID int64) (bool, error) {
	if err := requireActor(actor); err != nil {
		return false, err
	}
	key := cache.UserVoteKey(pollID, actor.String())
	if voted, ok := readThrough[bool](ctx, s.cache, s.log, key); ok {
		return voted, nil
	}

	voted, err := s.votes.Exists(ctx, pollID, actor)
	if err != nil {
		return false, storeErr("check vote", err)
	}
	writeThrough(ctx, s.cache, s.log, key, voted, s.ttl)
	return voted, nil
}

func (s *VoteService) publish(ctx context.Context, res results.Results) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(res)
	if err != nil {
		s.log.Warn(ctx, "encode live results failed", zap.Error(err))
		return
	}
	if err := s.publisher.PublishResults(ctx, res.PollID, payload); err != nil {
		s.log.Warn(ctx, "publish live results failed", zap.Int64("poll_id", res.PollID), zap.Error(err))
	}
}

func hasOption(options []poll.Option, id int64) bool {
	for _, o := range options {
		if o.ID == id {
			return true
		}
	}
	return false
}
