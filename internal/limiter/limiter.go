// Package limiter defines interfaces and implementations for abuse rate limiting.
package limiter

import (
	"context"
	"time"
)

// Limiter controls attempt counting and temporary lockouts for a bucket.
// Buckets are free-form keys such as "login:alice" or "register", always
// paired with a hashed client IP.
type Limiter interface {
	// Allow reports whether the bucket is currently allowed and an optional retry-after.
	Allow(ctx context.Context, bucket string, ipHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful attempt.
	Success(ctx context.Context, bucket string, ipHash []byte) error
	// Failure records a counted attempt; may place a temporary block.
	Failure(ctx context.Context, bucket string, ipHash []byte) (bool, time.Duration, error)
}
