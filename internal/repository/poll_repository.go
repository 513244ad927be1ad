package repository

import (
	"context"
	"errors"

	"pollbox/internal/domain/poll"
	pollbox_errors "pollbox/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormPollRepository struct {
	db *gorm.DB
}

func NewPollRepository(db *gorm.DB) PollRepository {
	return &GormPollRepository{db: db}
}

func (r *GormPollRepository) Create(ctx context.Context, p *poll.Poll) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *GormPollRepository) GetByID(ctx context.Context, id int64) (poll.Poll, error) {
	var p poll.Poll
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return poll.Poll{}, pollbox_errors.ErrNotFound
		}
		return poll.Poll{}, err
	}
	return p, nil
}

func (r *GormPollRepository) Update(ctx context.Context, p poll.Poll) error {
	res := r.db.WithContext(ctx).
		Model(&poll.Poll{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"title":       p.Title,
			"description": p.Description,
			"allow_multi": p.AllowMulti,
			"closes_at":   p.ClosesAt,
			"updated_at":  p.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pollbox_errors.ErrNotFound
	}
	return nil
}

func (r *GormPollRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&poll.Poll{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pollbox_errors.ErrNotFound
	}
	return nil
}

func (r *GormPollRepository) List(ctx context.Context, page, limit int) ([]poll.Poll, int64, error) {
	var polls []poll.Poll
	var total int64

	q := r.db.WithContext(ctx).Model(&poll.Poll{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit

	if err := q.
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&polls).Error; err != nil {
		return nil, 0, err
	}

	return polls, total, nil
}

func (r *GormPollRepository) ListIDsByOwner(ctx context.Context, userID uuid.UUID) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&poll.Poll{}).
		Where("user_id = ?", userID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormPollRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&poll.Poll{}, "id IN ?", ids).Error
}

type GormOptionRepository struct {
	db *gorm.DB
}

func NewOptionRepository(db *gorm.DB) OptionRepository {
	return &GormOptionRepository{db: db}
}

func (r *GormOptionRepository) CreateMany(ctx context.Context, options []poll.Option) error {
	if len(options) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&options).Error
}

func (r *GormOptionRepository) ListByPoll(ctx context.Context, pollID int64) ([]poll.Option, error) {
	var options []poll.Option
	err := r.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("position ASC").
		Find(&options).Error
	if err != nil {
		return nil, err
	}
	return options, nil
}

func (r *GormOptionRepository) CountByPollIDs(ctx context.Context, pollIDs []int64) (map[int64]int64, error) {
	return countByPoll(ctx, r.db, &poll.Option{}, pollIDs)
}

func (r *GormOptionRepository) DeleteByPoll(ctx context.Context, pollID int64) error {
	return r.db.WithContext(ctx).Delete(&poll.Option{}, "poll_id = ?", pollID).Error
}

func (r *GormOptionRepository) DeleteByPollIDs(ctx context.Context, pollIDs []int64) error {
	if len(pollIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&poll.Option{}, "poll_id IN ?", pollIDs).Error
}
