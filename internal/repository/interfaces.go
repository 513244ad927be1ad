package repository

import (
	"context"

	"github.com/google/uuid"

	"pollbox/internal/domain/poll"
	"pollbox/internal/domain/profile"
)

// Every method returns pollbox_errors.ErrNotFound when a single row it needs is
// missing. Other failures are returned as produced by the driver.

type PollRepository interface {
	Create(ctx context.Context, p *poll.Poll) error
	GetByID(ctx context.Context, id int64) (poll.Poll, error)
	// Update writes title, description, allow_multi, closes_at and updated_at.
	Update(ctx context.Context, p poll.Poll) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, page, limit int) ([]poll.Poll, int64, error)
	ListIDsByOwner(ctx context.Context, userID uuid.UUID) ([]int64, error)
	DeleteByIDs(ctx context.Context, ids []int64) error
}

type OptionRepository interface {
	// CreateMany inserts options in one statement. Options carrying an ID keep it.
	CreateMany(ctx context.Context, options []poll.Option) error
	ListByPoll(ctx context.Context, pollID int64) ([]poll.Option, error)
	CountByPollIDs(ctx context.Context, pollIDs []int64) (map[int64]int64, error)
	DeleteByPoll(ctx context.Context, pollID int64) error
	DeleteByPollIDs(ctx context.Context, pollIDs []int64) error
}

type VoteRepository interface {
	// Create returns pollbox_errors.ErrAlreadyExists when the store rejects a
	// second vote on a single-choice poll.
	Create(ctx context.Context, v *poll.Vote) error
	Exists(ctx context.Context, pollID int64, userID uuid.UUID) (bool, error)
	ListByPoll(ctx context.Context, pollID int64) ([]poll.Vote, error)
	CountByPollIDs(ctx context.Context, pollIDs []int64) (map[int64]int64, error)
	DeleteByPoll(ctx context.Context, pollID int64) error
	DeleteByPollIDs(ctx context.Context, pollIDs []int64) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (profile.Profile, error)
	// Upsert inserts the profile or overwrites every column of an existing one.
	Upsert(ctx context.Context, p *profile.Profile) error
	Delete(ctx context.Context, id uuid.UUID) error
}
