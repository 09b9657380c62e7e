package feed

import (
	"time"

	v1 "github.com/roam-social/roam-feed/internal/api/v1"
)

// ErrorKind classifies user-visible feed failures. Rate limiting is not an
// ErrorKind: it is a soft condition reported through FeedState.RateLimited.
type ErrorKind string

const (
	ErrorProviderFetch  ErrorKind = "provider_fetch_failed"
	ErrorCommunityFetch ErrorKind = "community_fetch_failed"
	ErrorAllSources     ErrorKind = "all_sources_failed"
)

// Status messages surfaced with the feed. The list is never left partially
// merged behind these: a failed cycle mutates status fields only.
const (
	msgRateLimited     = "Daily event search limit reached. Showing recent results."
	msgProviderFailed  = "Couldn't load nearby events right now."
	msgCommunityFailed = "Couldn't load community events right now."
	msgAllFailed       = "Couldn't refresh events. Pull to try again."
)

// FeedState is the engine's published state. Owned exclusively by the engine;
// consumers receive snapshot copies and observe transitions via Subscribe.
type FeedState struct {
	// Events is the full merged, ordered feed for the current location.
	Events []v1.CanonicalEvent `json:"events"`

	// FilteredEvents is Events narrowed to the current radius and
	// activity-type predicate. Always a subset of Events.
	FilteredEvents []v1.CanonicalEvent `json:"filtered_events"`

	IsLoading   bool `json:"is_loading"`
	RateLimited bool `json:"rate_limited"`

	LastError     *ErrorKind `json:"last_error,omitempty"`
	StatusMessage string     `json:"status_message,omitempty"`
	ShowAlert     bool       `json:"show_alert"`

	// LastFetch is nil until the first successful merge.
	LastFetch *time.Time `json:"last_fetch,omitempty"`
}

// snapshot returns a deep-enough copy: slices are duplicated so a subscriber
// holding a snapshot never races a later merge.
func (s FeedState) snapshot() FeedState {
	out := s
	out.Events = append([]v1.CanonicalEvent(nil), s.Events...)
	out.FilteredEvents = append([]v1.CanonicalEvent(nil), s.FilteredEvents...)
	if s.LastError != nil {
		kind := *s.LastError
		out.LastError = &kind
	}
	if s.LastFetch != nil {
		at := *s.LastFetch
		out.LastFetch = &at
	}
	return out
}
