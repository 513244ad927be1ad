// Package results turns raw vote rows into per-option tallies.
package results

import (
	"math"
	"slices"
	"sort"
	"time"

	"pollbox/internal/domain/poll"
)

type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

type OptionResult struct {
	OptionID   int64   `json:"option_id"`
	Text       string  `json:"text"`
	Position   int     `json:"position"`
	Votes      int     `json:"votes"`
	Percentage float64 `json:"percentage"`
	// Rounded is Percentage rounded half away from zero, as displayed.
	Rounded int `json:"rounded"`
}

type Results struct {
	PollID     int64          `json:"poll_id"`
	TotalVotes int            `json:"total_votes"`
	Status     Status         `json:"status"`
	Options    []OptionResult `json:"options"`
	// Ranking holds the same entries sorted by votes, ties kept in position order.
	Ranking   []OptionResult `json:"ranking"`
	Leading   *OptionResult  `json:"leading,omitempty"`
	HasWinner bool           `json:"has_winner"`
	// DaysRemaining is set only for open polls with a closing time.
	DaysRemaining *int `json:"days_remaining,omitempty"`
}

// Aggregate tallies votes per option. Every option appears even with no votes,
// and votes for options no longer on the poll are ignored.
func Aggregate(p poll.Poll, options []poll.Option, votes []poll.Vote, now time.Time) Results {
	ordered := slices.Clone(options)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	counts := make(map[int64]int, len(ordered))
	for _, o := range ordered {
		counts[o.ID] = 0
	}
	total := 0
	for _, v := range votes {
		if _, ok := counts[v.OptionID]; ok {
			counts[v.OptionID]++
			total++
		}
	}

	res := Results{
		PollID:     p.ID,
		TotalVotes: total,
		Status:     StatusActive,
		Options:    make([]OptionResult, 0, len(ordered)),
	}
	if p.IsClosed(now) {
		res.Status = StatusClosed
	} else if p.ClosesAt != nil {
		days := int(math.Ceil(p.ClosesAt.Sub(now).Hours() / 24))
		res.DaysRemaining = &days
	}

	leading := -1
	for i, o := range ordered {
		n := counts[o.ID]
		r := OptionResult{
			OptionID: o.ID,
			Text:     o.Text,
			Position: o.Position,
			Votes:    n,
		}
		if total > 0 {
			r.Percentage = float64(n) * 100 / float64(total)
			r.Rounded = int(math.Round(r.Percentage))
		}
		res.Options = append(res.Options, r)

		if leading < 0 || n > res.Options[leading].Votes {
			leading = i
		}
	}

	if leading >= 0 {
		lead := res.Options[leading]
		res.Leading = &lead
		res.HasWinner = lead.Votes > 0
	}

	res.Ranking = slices.Clone(res.Options)
	sort.SliceStable(res.Ranking, func(i, j int) bool {
		return res.Ranking[i].Votes > res.Ranking[j].Votes
	})
	return res
}
