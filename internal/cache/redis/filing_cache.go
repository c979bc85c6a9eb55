package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

// FilingCache implements domain.FilingSeenCache using plain Redis keys with a
// TTL. It only short-circuits re-fetching: the pipeline's upserts stay
// idempotent with or without it.
type FilingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFilingCache creates a FilingCache backed by the given Client. Entries
// expire after ttl; zero means no expiry.
func NewFilingCache(c *Client, ttl time.Duration) *FilingCache {
	return &FilingCache{rdb: c.Underlying(), ttl: ttl}
}

func filingKey(accessionNo string) string {
	return "filing:seen:" + accessionNo
}

// Seen reports whether the accession number has been marked as ingested.
func (fc *FilingCache) Seen(ctx context.Context, accessionNo string) (bool, error) {
	n, err := fc.rdb.Exists(ctx, filingKey(accessionNo)).Result()
	if err != nil {
		return false, fmt.Errorf("redis: filing seen %s: %w", accessionNo, err)
	}
	return n > 0, nil
}

// MarkSeen records the accession number as ingested.
func (fc *FilingCache) MarkSeen(ctx context.Context, accessionNo string) error {
	if err := fc.rdb.Set(ctx, filingKey(accessionNo), 1, fc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: mark filing seen %s: %w", accessionNo, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.FilingSeenCache = (*FilingCache)(nil)
