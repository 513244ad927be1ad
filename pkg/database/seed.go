package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pollbox/internal/domain/poll"
	"pollbox/internal/domain/profile"
	"pollbox/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SeedConfig holds configuration for seeding the database
type SeedConfig struct {
	OwnerID   uuid.UUID
	OwnerName string
	Voters    int
}

// DefaultSeedConfig returns default seed configuration
func DefaultSeedConfig() *SeedConfig {
	return &SeedConfig{
		OwnerID:   uuid.MustParse("00000000-0000-4000-8000-000000000001"),
		OwnerName: "Demo Owner",
		Voters:    5,
	}
}

// SeedResult contains the results of seeding
type SeedResult struct {
	Owner profile.Profile
	Polls []poll.Poll
	Votes int
}

type seedPoll struct {
	title      string
	allowMulti bool
	closesIn   time.Duration
	options    []string
}

var demoPolls = []seedPoll{
	{title: "Which language should the next service use?", options: []string{"Go", "Rust", "Kotlin"}},
	{title: "Team lunch this Friday", allowMulti: true, closesIn: 72 * time.Hour, options: []string{"Tacos", "Ramen", "Salad bar", "Pizza"}},
	{title: "Retro format", closesIn: -time.Hour, options: []string{"Start/Stop/Continue", "Mad/Sad/Glad"}},
}

// Seed inserts a demo owner profile, a few polls and some votes. It does nothing
// when the owner profile already exists.
func Seed(ctx context.Context, db *gorm.DB, cfg *SeedConfig, log *logger.Logger) (*SeedResult, error) {
	if log == nil {
		log = logger.NewNop()
	}
	log.Infof("Starting database seeding...")

	var existing profile.Profile
	err := db.WithContext(ctx).First(&existing, "id = ?", cfg.OwnerID).Error
	if err == nil {
		log.Warnf("Owner profile %s already exists, skipping seeding", cfg.OwnerID)
		return &SeedResult{Owner: existing}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up owner profile: %w", err)
	}

	result := &SeedResult{}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner := profile.Profile{
			ID:                 cfg.OwnerID,
			Name:               cfg.OwnerName,
			EmailNotifications: true,
			PollNotifications:  true,
			Theme:              "system",
			Language:           "en",
		}
		if err := tx.Create(&owner).Error; err != nil {
			return fmt.Errorf("failed to seed owner: %w", err)
		}
		result.Owner = owner

		now := time.Now().UTC()
		for _, sp := range demoPolls {
			p := poll.Poll{UserID: cfg.OwnerID, Title: sp.title, AllowMulti: sp.allowMulti}
			if sp.closesIn != 0 {
				closesAt := now.Add(sp.closesIn)
				p.ClosesAt = &closesAt
			}
			if err := tx.Create(&p).Error; err != nil {
				return fmt.Errorf("failed to seed poll: %w", err)
			}

			options := make([]poll.Option, len(sp.options))
			for i, text := range sp.options {
				options[i] = poll.Option{PollID: p.ID, Text: text, Position: i}
			}
			if err := tx.Create(&options).Error; err != nil {
				return fmt.Errorf("failed to seed options: %w", err)
			}

			for v := range cfg.Voters {
				vote := poll.Vote{
					PollID:       p.ID,
					OptionID:     options[v%len(options)].ID,
					UserID:       uuid.New(),
					SingleChoice: !p.AllowMulti,
				}
				if err := tx.Create(&vote).Error; err != nil {
					return fmt.Errorf("failed to seed vote: %w", err)
				}
				result.Votes++
			}

			log.Infof("Poll seeded: %d (%s)", p.ID, p.Title)
			result.Polls = append(result.Polls, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("Database seeding completed successfully!")
	return result, nil
}
