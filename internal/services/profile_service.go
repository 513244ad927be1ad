package services

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"pollbox/internal/cache"
	"pollbox/internal/domain/profile"
	"pollbox/internal/ratelimit"
	"pollbox/internal/repository"
	"pollbox/internal/saga"
	"pollbox/internal/validation"
	pollbox_errors "pollbox/pkg/errors"
	"pollbox/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProfileService struct {
	profiles repository.ProfileRepository
	polls    repository.PollRepository
	options  repository.OptionRepository
	votes    repository.VoteRepository
	cache    cache.Store
	limiter  ratelimit.Limiter
	policies ratelimit.Policies
	ttl      time.Duration
	log      *logger.Logger
	now      func() time.Time
}

func NewProfileService(
	profiles repository.ProfileRepository,
	polls repository.PollRepository,
	options repository.OptionRepository,
	votes repository.VoteRepository,
	store cache.Store,
	limiter ratelimit.Limiter,
	policies ratelimit.Policies,
	ttls CacheTTLs,
	log *logger.Logger,
) *ProfileService {
	if log == nil {
		log = logger.NewNop()
	}
	return &ProfileService{
		profiles: profiles,
		polls:    polls,
		options:  options,
		votes:    votes,
		cache:    store,
		limiter:  limiter,
		policies: policies,
		ttl:      ttls.Profile,
		log:      log,
		now:      time.Now,
	}
}

func (s *ProfileService) Get(ctx context.Context, actor uuid.UUID) (ProfileView, error) {
	if err := requireActor(actor); err != nil {
		return ProfileView{}, err
	}
	key := cache.ProfileKey(actor.String())
	if cached, ok := readThrough[ProfileView](ctx, s.cache, s.log, key); ok {
		return cached, nil
	}

	p, err := s.profiles.GetByID(ctx, actor)
	if err != nil {
		return ProfileView{}, storeErr("load profile", err)
	}
	view := toProfileView(p)
	writeThrough(ctx, s.cache, s.log, key, view, s.ttl)
	return view, nil
}

// Update validates raw against the profile schema and overwrites the actor's
// profile, creating it on first use.
func (s *ProfileService) Update(ctx context.Context, actor uuid.UUID, raw any) (ProfileView, error) {
	if err := requireActor(actor); err != nil {
		return ProfileView{}, err
	}
	if err := gate(ctx, s.limiter, ratelimit.ActionUpdateProfile, actor, s.policies.UpdateProfile); err != nil {
		return ProfileView{}, err
	}
	res := validation.Validate(validation.ProfileSchema, raw)
	if !res.Success {
		return ProfileView{}, pollbox_errors.NewValidationError(res.Errors)
	}
	in := res.Data

	now := s.now().UTC()
	p := profile.Profile{
		ID:                 actor,
		Name:               in.Name,
		Bio:                in.Bio,
		EmailNotifications: in.EmailNotifications,
		PollNotifications:  in.PollNotifications,
		PublicProfile:      in.PublicProfile,
		ShowEmail:          in.ShowEmail,
		Theme:              in.Theme,
		Language:           in.Language,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.profiles.Upsert(ctx, &p); err != nil {
		return ProfileView{}, storeErr("save profile", err)
	}

	invalidate(ctx, s.log, func(ctx context.Context) error {
		return cache.InvalidateProfile(ctx, s.cache, actor.String())
	})
	s.log.Info(ctx, "profile updated")
	return toProfileView(p), nil
}

// DeleteAccount removes everything the actor owns: their votes, every poll they
// created with its votes and options, and their profile.
func (s *ProfileService) DeleteAccount(ctx context.Context, actor uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := gate(ctx, s.limiter, ratelimit.ActionDeleteAccount, actor, s.policies.DeleteAccount); err != nil {
		return err
	}

	pollIDs, err := s.polls.ListIDsByOwner(ctx, actor)
	if err != nil {
		return storeErr("list owned polls", err)
	}

	err = saga.Run(ctx,
		saga.Step{Name: "delete own votes", Action: func(ctx context.Context) error { return s.votes.DeleteByUser(ctx, actor) }},
		saga.Step{Name: "delete votes on own polls", Action: func(ctx context.Context) error { return s.votes.DeleteByPollIDs(ctx, pollIDs) }},
		saga.Step{Name: "delete options", Action: func(ctx context.Context) error { return s.options.DeleteByPollIDs(ctx, pollIDs) }},
		saga.Step{Name: "delete polls", Action: func(ctx context.Context) error { return s.polls.DeleteByIDs(ctx, pollIDs) }},
		saga.Step{Name: "delete profile", Action: func(ctx context.Context) error { return s.profiles.Delete(ctx, actor) }},
	)
	if err != nil {
		s.log.Error(ctx, "delete account failed", zap.Error(err))
		return pollbox_errors.Store("delete account", err)
	}

	steps := []func(context.Context) error{
		func(ctx context.Context) error { return cache.InvalidateProfile(ctx, s.cache, actor.String()) },
		func(ctx context.Context) error { return cache.InvalidatePolls(ctx, s.cache) },
		func(ctx context.Context) error {
			return s.cache.DeletePattern(ctx, fmt.Sprintf(`^vote:\d+:%s$`, regexp.QuoteMeta(actor.String())))
		},
	}
	for _, id := range pollIDs {
		steps = append(steps,
			func(ctx context.Context) error { return cache.InvalidatePoll(ctx, s.cache, id) },
			func(ctx context.Context) error { return cache.InvalidatePollVotes(ctx, s.cache, id) },
		)
	}
	invalidate(ctx, s.log, steps...)

	s.log.Info(ctx, "account deleted", zap.Int("polls", len(pollIDs)))
	return nil
}
