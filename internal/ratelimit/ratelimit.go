package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter decides whether one more action under key fits in a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string, max int, window time.Duration) (bool, error)
}

// Policy is a ceiling of Max actions per Window.
type Policy struct {
	Max    int
	Window time.Duration
}

// Policies holds the ceilings for every rate-limited action.
type Policies struct {
	CreatePoll    Policy
	Vote          Policy
	UpdateProfile Policy
	DeleteAccount Policy
	LiveConnect   Policy
}

// DefaultPolicies returns the stock ceilings
func DefaultPolicies() Policies {
	return Policies{
		CreatePoll:    Policy{Max: 5, Window: 5 * time.Minute},
		Vote:          Policy{Max: 100, Window: time.Minute},
		UpdateProfile: Policy{Max: 10, Window: time.Minute},
		DeleteAccount: Policy{Max: 1, Window: 5 * time.Minute},
		LiveConnect:   Policy{Max: 30, Window: time.Minute},
	}
}

const (
	ActionCreatePoll    = "create-poll"
	ActionVote          = "vote"
	ActionUpdateProfile = "update-profile"
	ActionDeleteAccount = "delete-account"
	ActionLiveConnect   = "live-connect"
)

// Key builds the limiter key for an action performed by actor.
func Key(action, actor string) string {
	return fmt.Sprintf("ratelimit:%s:%s", action, actor)
}

// Check applies policy p to action by actor.
func Check(ctx context.Context, l Limiter, action, actor string, p Policy) (bool, error) {
	return l.Allow(ctx, Key(action, actor), p.Max, p.Window)
}

type record struct {
	count     int
	resetTime time.Time
}

// Memory is an in-process fixed-window limiter. It is safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	records map[string]*record
	now     func() time.Time
}

// NewMemory creates a limiter reading time from now, or time.Now when nil.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		records: make(map[string]*record),
		now:     now,
	}
}

// Allow never fails; the error is part of the Limiter contract for shared backends.
func (m *Memory) Allow(_ context.Context, key string, max int, window time.Duration) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok || now.After(rec.resetTime) {
		m.records[key] = &record{count: 1, resetTime: now.Add(window)}
		return true, nil
	}
	rec.count++
	return rec.count <= max, nil
}

// Sweep drops every record whose window has passed and reports how many went.
func (m *Memory) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, rec := range m.records {
		if now.After(rec.resetTime) {
			delete(m.records, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live records.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Run sweeps every interval until ctx is cancelled.
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
