// Package ratelimit gates how fast a single client may hit the chat
// API. Two implementations share one interface: an in-memory token
// bucket for single-node deployments and a Redis sliding window for
// fleets that need a shared budget.
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether one more request from a client is allowed.
type Limiter interface {
	// Allow consumes one slot for key and reports the resulting state.
	// key identifies the client: an authenticated user id or a remote
	// address for anonymous traffic.
	Allow(ctx context.Context, key string) (*Info, error)
}

// Info is the rate limit state after an Allow call. The HTTP layer
// copies it into X-RateLimit-* response headers.
type Info struct {
	// Limit is the maximum number of requests per window.
	Limit int
	// Remaining is how many requests the client has left.
	Remaining int
	// ResetAt is when the window rolls over.
	ResetAt time.Time
	// Allowed reports whether this request made the cut.
	Allowed bool
}
