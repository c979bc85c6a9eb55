package domain

import (
	"context"
	"time"
)

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string, limit int, window time.Duration) error
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// FilingSeenCache tracks accession numbers that have already been ingested so
// a run can skip re-fetching them. It is an optimization only: upserts are
// idempotent, so a cold or flushed cache is always safe.
type FilingSeenCache interface {
	Seen(ctx context.Context, accessionNo string) (bool, error)
	MarkSeen(ctx context.Context, accessionNo string) error
}
