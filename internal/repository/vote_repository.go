package repository

import (
	"context"

	"pollbox/internal/domain/poll"
	pollbox_errors "pollbox/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormVoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &GormVoteRepository{db: db}
}

func (r *GormVoteRepository) Create(ctx context.Context, v *poll.Vote) error {
	res := r.db.WithContext(ctx).Create(v)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return pollbox_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *GormVoteRepository) Exists(ctx context.Context, pollID int64, userID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&poll.Vote{}).
		Where("poll_id = ? AND user_id = ?", pollID, userID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormVoteRepository) ListByPoll(ctx context.Context, pollID int64) ([]poll.Vote, error) {
	var votes []poll.Vote
	err := r.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("id ASC").
		Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *GormVoteRepository) CountByPollIDs(ctx context.Context, pollIDs []int64) (map[int64]int64, error) {
	return countByPoll(ctx, r.db, &poll.Vote{}, pollIDs)
}

func (r *GormVoteRepository) DeleteByPoll(ctx context.Context, pollID int64) error {
	return r.db.WithContext(ctx).Delete(&poll.Vote{}, "poll_id = ?", pollID).Error
}

func (r *GormVoteRepository) DeleteByPollIDs(ctx context.Context, pollIDs []int64) error {
	if len(pollIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&poll.Vote{}, "poll_id IN ?", pollIDs).Error
}

func (r *GormVoteRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&poll.Vote{}, "user_id = ?", userID).Error
}
