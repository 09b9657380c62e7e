// Package provider talks to the third-party events API ("Discovery"-style
// ticketing provider) and owns everything rate-limit-shaped about it: the
// per-identity daily quota, request pacing, response caching, and collapsing
// of concurrent identical queries.
package provider

import (
	"context"
	"errors"
	"time"

	v1 "github.com/roam-social/roam-feed/internal/api/v1"
)

var (
	// ErrRateLimitExceeded marks a provider call rejected for quota or HTTP 429.
	// Soft failure: callers fall back to cached data and surface a banner.
	ErrRateLimitExceeded = errors.New("provider rate limit exceeded")

	// ErrFetch marks any other provider fetch failure.
	ErrFetch = errors.New("provider fetch failed")
)

// RawEvent is the provider's event payload as this system consumes it.
// Owned transiently during a fetch cycle; the normalizer converts it to the
// canonical model before anything downstream sees it.
type RawEvent struct {
	ID        string
	Name      string
	Info      string
	Category  string
	Genre     string
	Venue     string
	City      string
	StartTime time.Time
	ImageURL  string

	// Location is nil when the provider returned no usable coordinates.
	// Normalization drops such events.
	Location *v1.GeoPoint
}

// Client is the provider events collaborator consumed by the feed engine.
type Client interface {
	// FetchEvents retrieves events around location. It counts against the
	// identity's daily quota and fails with ErrRateLimitExceeded when the
	// quota is spent or the provider answers 429. forceRefresh bypasses the
	// response cache, not the quota.
	FetchEvents(ctx context.Context, userID string, location v1.GeoPoint, radiusMiles float64, forceRefresh bool) ([]RawEvent, error)

	// CheckCanCall reports whether the identity may call the provider now.
	CheckCanCall(ctx context.Context, userID string) (bool, error)

	// CachedEvents returns the most recent cached result for the query, if
	// one is still fresh. Fallback path while rate limited.
	CachedEvents(location v1.GeoPoint, radiusMiles float64) ([]RawEvent, bool)
}
