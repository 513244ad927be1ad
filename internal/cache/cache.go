package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"
)

// Store is a key/value cache with per-entry TTL and pattern invalidation.
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get reports ok=false for absent and expired keys alike.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
	// DeletePattern removes every key matching the regular expression pattern.
	DeletePattern(ctx context.Context, pattern string) error
	Clear(ctx context.Context) error
}

// Cache key patterns:
// - polls:{page}:{limit} - poll listing page
// - poll:{poll_id} - poll with options and results
// - vote:{poll_id}:{user_id} - whether a user voted on a poll
// - profile:{user_id} - user profile

func PollsPageKey(page, limit int) string {
	return fmt.Sprintf("polls:%d:%d", page, limit)
}

func PollKey(pollID int64) string {
	return fmt.Sprintf("poll:%d", pollID)
}

func UserVoteKey(pollID int64, userID string) string {
	return fmt.Sprintf("vote:%d:%s", pollID, userID)
}

func ProfileKey(userID string) string {
	return fmt.Sprintf("profile:%s", userID)
}

// InvalidatePolls drops every cached listing page.
func InvalidatePolls(ctx context.Context, s Store) error {
	return s.DeletePattern(ctx, "^polls:")
}

// InvalidatePoll drops the cached detail of one poll.
func InvalidatePoll(ctx context.Context, s Store, pollID int64) error {
	return s.Delete(ctx, PollKey(pollID))
}

// InvalidatePollVotes drops every cached vote marker of one poll.
func InvalidatePollVotes(ctx context.Context, s Store, pollID int64) error {
	return s.DeletePattern(ctx, fmt.Sprintf("^vote:%d:", pollID))
}

func InvalidateProfile(ctx context.Context, s Store, userID string) error {
	return s.Delete(ctx, ProfileKey(userID))
}

// GetJSON decodes the entry under key into a T. A payload that no longer decodes
// is treated as a miss.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var out T
	data, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, false, nil
	}
	return out, true, nil
}

func SetJSON(ctx context.Context, s Store, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	return s.Set(ctx, key, data, ttl)
}

type entry struct {
	data       []byte
	insertedAt time.Time
	ttl        time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.insertedAt) > e.ttl
}

// Memory is an in-process Store. Expired entries are evicted on read and by Sweep.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory creates a store reading time from now, or time.Now when nil.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		entries: make(map[string]entry),
		now:     now,
	}
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data := bytes.Clone(value)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{data: data, insertedAt: m.now(), ttl: ttl}
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if e.expired(m.now()) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return bytes.Clone(e.data), true, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) DeletePattern(_ context.Context, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("compile cache pattern %q: %w", pattern, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if re.MatchString(key) {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.entries)
	return nil
}

// Len counts stored entries, expired ones included until they are evicted.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep evicts expired entries and reports how many went.
func (m *Memory) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
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
