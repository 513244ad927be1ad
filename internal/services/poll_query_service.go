package services

import (
	"context"
	"time"

	"pollbox/internal/cache"
	"pollbox/internal/repository"
	"pollbox/internal/results"
	"pollbox/pkg/logger"

	"go.uber.org/zap"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	MaxPage          = 100000
)

// PollQueryService serves poll reads through the cache.
type PollQueryService struct {
	polls   repository.PollRepository
	options repository.OptionRepository
	votes   repository.VoteRepository
	cache   cache.Store
	ttls    CacheTTLs
	log     *logger.Logger
	now     func() time.Time
}

func NewPollQueryService(
	polls repository.PollRepository,
	options repository.OptionRepository,
	votes repository.VoteRepository,
	store cache.Store,
	ttls CacheTTLs,
	log *logger.Logger,
) *PollQueryService {
	if log == nil {
		log = logger.NewNop()
	}
	return &PollQueryService{
		polls:   polls,
		options: options,
		votes:   votes,
		cache:   store,
		ttls:    ttls,
		log:     log,
		now:     time.Now,
	}
}

// List returns one page of polls, newest first. page starts at 1; out of range
// values are clamped.
func (s *PollQueryService) List(ctx context.Context, page, limit int) (PollPage, error) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	key := cache.PollsPageKey(page, limit)
	if cached, ok := readThrough[PollPage](ctx, s.cache, s.log, key); ok {
		return cached, nil
	}

	polls, total, err := s.polls.List(ctx, page, limit)
	if err != nil {
		return PollPage{}, storeErr("list polls", err)
	}
	ids := make([]int64, len(polls))
	for i, p := range polls {
		ids[i] = p.ID
	}
	optionCounts, err := s.options.CountByPollIDs(ctx, ids)
	if err != nil {
		return PollPage{}, storeErr("count options", err)
	}
	voteCounts, err := s.votes.CountByPollIDs(ctx, ids)
	if err != nil {
		return PollPage{}, storeErr("count votes", err)
	}

	out := PollPage{Polls: make([]PollSummary, len(polls)), Total: total, Page: page, Limit: limit}
	for i, p := range polls {
		out.Polls[i] = PollSummary{
			ID:          p.ID,
			UserID:      p.UserID,
			Title:       p.Title,
			Description: p.Description,
			AllowMulti:  p.AllowMulti,
			ClosesAt:    p.ClosesAt,
			CreatedAt:   p.CreatedAt,
			OptionCount: optionCounts[p.ID],
			TotalVotes:  voteCounts[p.ID],
		}
	}

	writeThrough(ctx, s.cache, s.log, key, out, s.ttls.PollList)
	return out, nil
}

// Get returns a poll with its options and aggregated results.
func (s *PollQueryService) Get(ctx context.Context, pollID int64) (PollDetail, error) {
	key := cache.PollKey(pollID)
	if cached, ok := readThrough[PollDetail](ctx, s.cache, s.log, key); ok {
		return cached, nil
	}

	p, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return PollDetail{}, storeErr("load poll", err)
	}
	options, err := s.options.ListByPoll(ctx, pollID)
	if err != nil {
		return PollDetail{}, storeErr("load options", err)
	}
	votes, err := s.votes.ListByPoll(ctx, pollID)
	if err != nil {
		return PollDetail{}, storeErr("load votes", err)
	}

	out := PollDetail{
		PollView: toPollView(p, options),
		Results:  results.Aggregate(p, options, votes, s.now()),
	}
	writeThrough(ctx, s.cache, s.log, key, out, s.ttls.Poll)
	return out, nil
}

// readThrough treats a cache failure as a miss.
func readThrough[T any](ctx context.Context, store cache.Store, log *logger.Logger, key string) (T, bool) {
	v, ok, err := cache.GetJSON[T](ctx, store, key)
	if err != nil {
		log.Warn(ctx, "cache read failed", zap.String("key", key), zap.Error(err))
		return v, false
	}
	return v, ok
}

func writeThrough(ctx context.Context, store cache.Store, log *logger.Logger, key string, value any, ttl time.Duration) {
	if err := cache.SetJSON(ctx, store, key, value, ttl); err != nil {
		log.Warn(ctx, "cache write failed", zap.String("key", key), zap.Error(err))
	}
}
