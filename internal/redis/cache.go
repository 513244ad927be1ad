package redis

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultCachePrefix namespaces cache keys so Clear never touches limiter keys.
const DefaultCachePrefix = "cache:"

const scanCount = 100

// CacheStore is a cache.Store backed by Redis. Keys passed in and patterns
// matched are unprefixed; the namespace is applied internally.
type CacheStore struct {
	client goredis.Cmdable
	prefix string
}

// NewCacheStore creates a new cache store
func NewCacheStore(client goredis.Cmdable, prefix string) *CacheStore {
	return &CacheStore{client: client, prefix: prefix}
}

func (c *CacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

func (c *CacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil // Cache miss
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *CacheStore) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

// DeletePattern scans the namespace and deletes keys matching the regular
// expression. A literal prefix of the expression narrows the SCAN match.
func (c *CacheStore) DeletePattern(ctx context.Context, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("compile cache pattern %q: %w", pattern, err)
	}

	match := c.prefix + "*"
	if lit, _ := re.LiteralPrefix(); lit != "" && strings.HasPrefix(pattern, "^") {
		match = globEscape(c.prefix+lit) + "*"
	}

	return c.deleteMatching(ctx, match, func(key string) bool {
		return re.MatchString(key)
	})
}

// Clear removes every key in the namespace.
func (c *CacheStore) Clear(ctx context.Context) error {
	return c.deleteMatching(ctx, globEscape(c.prefix)+"*", func(string) bool { return true })
}

func (c *CacheStore) deleteMatching(ctx context.Context, match string, keep func(key string) bool) error {
	iter := c.client.Scan(ctx, 0, match, scanCount).Iterator()

	var keysToDelete []string
	for iter.Next(ctx) {
		key := iter.Val()
		if keep(strings.TrimPrefix(key, c.prefix)) {
			keysToDelete = append(keysToDelete, key)
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keysToDelete) > 0 {
		return c.client.Del(ctx, keysToDelete...).Err()
	}
	return nil
}

func globEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
