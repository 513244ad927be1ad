package results

import (
	"testing"
	"time"

	"pollbox/internal/domain/poll"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func options(texts ...string) []poll.Option {
	out := make([]poll.Option, len(texts))
	for i, text := range texts {
		out[i] = poll.Option{ID: int64(i + 1), PollID: 1, Text: text, Position: i}
	}
	return out
}

func votesFor(counts ...int) []poll.Vote {
	var out []poll.Vote
	for i, n := range counts {
		for range n {
			out = append(out, poll.Vote{PollID: 1, OptionID: int64(i + 1)})
		}
	}
	return out
}

func TestAggregatePercentages(t *testing.T) {
	res := Aggregate(poll.Poll{ID: 1}, options("a", "b", "c"), votesFor(45, 30, 25), now)

	if res.TotalVotes != 100 {
		t.Fatalf("TotalVotes = %d, want 100", res.TotalVotes)
	}
	for i, want := range []float64{45, 30, 25} {
		if got := res.Options[i].Percentage; got != want {
			t.Errorf("option %d percentage = %v, want %v", i, got, want)
		}
	}
	if res.Leading == nil || res.Leading.OptionID != 1 {
		t.Errorf("Leading = %+v, want option 1", res.Leading)
	}
	if !res.HasWinner {
		t.Error("HasWinner should be true")
	}
	if res.Status != StatusActive {
		t.Errorf("Status = %q", res.Status)
	}
}

func TestAggregateNoVotes(t *testing.T) {
	res := Aggregate(poll.Poll{ID: 1}, options("a", "b"), nil, now)

	if res.TotalVotes != 0 {
		t.Errorf("TotalVotes = %d", res.TotalVotes)
	}
	for _, o := range res.Options {
		if o.Votes != 0 || o.Percentage != 0 || o.Rounded != 0 {
			t.Errorf("option %+v should be zeroed", o)
		}
	}
	if res.HasWinner {
		t.Error("HasWinner should be false with no votes")
	}
	if len(res.Options) != 2 {
		t.Errorf("len(Options) = %d, want 2", len(res.Options))
	}
}

func TestAggregateTieBreaksByPosition(t *testing.T) {
	opts := []poll.Option{
		{ID: 10, Text: "late", Position: 2},
		{ID: 11, Text: "early", Position: 0},
		{ID: 12, Text: "mid", Position: 1},
	}
	votes := []poll.Vote{{OptionID: 10}, {OptionID: 11}, {OptionID: 12}, {OptionID: 10}, {OptionID: 12}}

	res := Aggregate(poll.Poll{ID: 1}, opts, votes, now)

	if res.Options[0].OptionID != 11 {
		t.Fatalf("options not in position order: %+v", res.Options)
	}
	if res.Leading.OptionID != 12 {
		t.Errorf("Leading = %d, want 12 (first in position order among the tied)", res.Leading.OptionID)
	}
	if res.Ranking[0].OptionID != 12 || res.Ranking[1].OptionID != 10 || res.Ranking[2].OptionID != 11 {
		t.Errorf("Ranking = %+v", res.Ranking)
	}
}

func TestAggregateRounding(t *testing.T) {
	res := Aggregate(poll.Poll{ID: 1}, options("a", "b", "c"), votesFor(1, 1, 1), now)
	for _, o := range res.Options {
		if o.Rounded != 33 {
			t.Errorf("Rounded = %d, want 33", o.Rounded)
		}
	}

	res = Aggregate(poll.Poll{ID: 1}, options("a", "b"), votesFor(1, 7), now)
	if res.Options[0].Rounded != 13 || res.Options[1].Rounded != 88 {
		t.Errorf("Rounded = %d/%d, want 13/88", res.Options[0].Rounded, res.Options[1].Rounded)
	}
}

func TestAggregateIgnoresOrphanVotes(t *testing.T) {
	votes := append(votesFor(2, 1), poll.Vote{OptionID: 99})
	res := Aggregate(poll.Poll{ID: 1}, options("a", "b"), votes, now)
	if res.TotalVotes != 3 {
		t.Errorf("TotalVotes = %d, want 3", res.TotalVotes)
	}
}

func TestAggregateStatus(t *testing.T) {
	past := now.Add(-time.Minute)
	future := now.Add(36 * time.Hour)

	tests := []struct {
		name     string
		closesAt *time.Time
		status   Status
		days     *int
	}{
		{"no closing time", nil, StatusActive, nil},
		{"closed", &past, StatusClosed, nil},
		{"open with deadline", &future, StatusActive, intPtr(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Aggregate(poll.Poll{ID: 1, ClosesAt: tt.closesAt}, options("a", "b"), nil, now)
			if res.Status != tt.status {
				t.Errorf("Status = %q, want %q", res.Status, tt.status)
			}
			switch {
			case tt.days == nil && res.DaysRemaining != nil:
				t.Errorf("DaysRemaining = %d, want nil", *res.DaysRemaining)
			case tt.days != nil && (res.DaysRemaining == nil || *res.DaysRemaining != *tt.days):
				t.Errorf("DaysRemaining = %v, want %d", res.DaysRemaining, *tt.days)
			}
		})
	}
}

func intPtr(n int) *int { return &n }
