package repository

import (
	"context"
	"errors"

	"pollbox/internal/domain/profile"
	pollbox_errors "pollbox/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &GormProfileRepository{db: db}
}

func (r *GormProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (profile.Profile, error) {
	var p profile.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return profile.Profile{}, pollbox_errors.ErrNotFound
		}
		return profile.Profile{}, err
	}
	return p, nil
}

func (r *GormProfileRepository) Upsert(ctx context.Context, p *profile.Profile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "bio", "email_notifications", "poll_notifications",
				"public_profile", "show_email", "theme", "language", "updated_at",
			}),
		}).
		Create(p).Error
}

func (r *GormProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&profile.Profile{}, "id = ?", id).Error
}
