package ratelimit

import "context"

// RateLimiter bounds outbound dispatch throughput per channel so batch sends
// cannot flood the relay or trip provider limits.
type RateLimiter interface {
	Allow(ctx context.Context, channel string) (bool, error)
	Wait(ctx context.Context, channel string) error
}
