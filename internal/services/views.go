package services

import (
	"time"

	"pollbox/internal/domain/poll"
	"pollbox/internal/domain/profile"
	"pollbox/internal/results"

	"github.com/google/uuid"
)

type OptionView struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

type PollView struct {
	ID          int64        `json:"id"`
	UserID      uuid.UUID    `json:"user_id"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	AllowMulti  bool         `json:"allow_multi"`
	ClosesAt    *time.Time   `json:"closes_at"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Options     []OptionView `json:"options"`
}

// PollDetail is a poll with its options and live tallies.
type PollDetail struct {
	PollView
	Results results.Results `json:"results"`
}

// PollSummary is one row of the poll listing.
type PollSummary struct {
	ID          int64      `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	AllowMulti  bool       `json:"allow_multi"`
	ClosesAt    *time.Time `json:"closes_at"`
	CreatedAt   time.Time  `json:"created_at"`
	OptionCount int64      `json:"option_count"`
	TotalVotes  int64      `json:"total_votes"`
}

type PollPage struct {
	Polls []PollSummary `json:"polls"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type VoteReceipt struct {
	VoteID   int64           `json:"vote_id"`
	PollID   int64           `json:"poll_id"`
	OptionID int64           `json:"option_id"`
	Results  results.Results `json:"results"`
}

type ProfileView struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Bio                *string   `json:"bio"`
	EmailNotifications bool      `json:"email_notifications"`
	PollNotifications  bool      `json:"poll_notifications"`
	PublicProfile      bool      `json:"public_profile"`
	ShowEmail          bool      `json:"show_email"`
	Theme              string    `json:"theme"`
	Language           string    `json:"language"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toPollView(p poll.Poll, options []poll.Option) PollView {
	view := PollView{
		ID:          p.ID,
		UserID:      p.UserID,
		Title:       p.Title,
		Description: p.Description,
		AllowMulti:  p.AllowMulti,
		ClosesAt:    p.ClosesAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Options:     make([]OptionView, len(options)),
	}
	for i, o := range options {
		view.Options[i] = OptionView{ID: o.ID, Text: o.Text, Position: o.Position}
	}
	return view
}

func toProfileView(p profile.Profile) ProfileView {
	return ProfileView{
		ID:                 p.ID,
		Name:               p.Name,
		Bio:                p.Bio,
		EmailNotifications: p.EmailNotifications,
		PollNotifications:  p.PollNotifications,
		PublicProfile:      p.PublicProfile,
		ShowEmail:          p.ShowEmail,
		Theme:              p.Theme,
		Language:           p.Language,
		UpdatedAt:          p.UpdatedAt,
	}
}
