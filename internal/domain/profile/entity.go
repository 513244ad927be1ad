package profile

import (
	"time"

	"github.com/google/uuid"
)

// Profile represents profiles, keyed by the user id issued by the identity provider.
type Profile struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name               string    `gorm:"size:100;not null"`
	Bio                *string   `gorm:"size:500"`
	EmailNotifications bool      `gorm:"not null"`
	PollNotifications  bool      `gorm:"not null"`
	PublicProfile      bool      `gorm:"not null"`
	ShowEmail          bool      `gorm:"not null"`
	Theme              string    `gorm:"size:10;not null"`
	Language           string    `gorm:"size:2;not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (Profile) TableName() string {
	return "profiles"
}
