package poll

import (
	"time"

	"github.com/google/uuid"
)

// Poll represents polls
type Poll struct {
	ID          int64     `gorm:"primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Title       string    `gorm:"size:200;not null"`
	Description *string   `gorm:"size:1000"`
	AllowMulti  bool      `gorm:"not null;default:false"`
	ClosesAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Option represents poll_options
type Option struct {
	ID        int64  `gorm:"primaryKey"`
	PollID    int64  `gorm:"not null;uniqueIndex:idx_poll_options_position"`
	Text      string `gorm:"size:100;not null"`
	Position  int    `gorm:"not null;uniqueIndex:idx_poll_options_position"`
	CreatedAt time.Time
}

// Vote represents votes. SingleChoice mirrors !Poll.AllowMulti at insert time so
// the store can enforce one vote per voter on single-choice polls.
type Vote struct {
	ID           int64     `gorm:"primaryKey"`
	PollID       int64     `gorm:"not null;index"`
	OptionID     int64     `gorm:"not null;index"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	SingleChoice bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time
}

func (Poll) TableName() string {
	return "polls"
}

func (Option) TableName() string {
	return "poll_options"
}

func (Vote) TableName() string {
	return "votes"
}

// IsOwnedBy reports whether userID created the poll.
func (p Poll) IsOwnedBy(userID uuid.UUID) bool {
	return p.UserID == userID
}

// IsClosed reports whether the poll stopped accepting votes before now.
func (p Poll) IsClosed(now time.Time) bool {
	return p.ClosesAt != nil && p.ClosesAt.Before(now)
}
