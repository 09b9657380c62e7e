package v1

import (
	"time"
)

// Provenance records which source an event came from. It drives the feed's
// two-level ordering (community events list ahead of provider events) and the
// join-event lookup path.
type Provenance string

const (
	ProvenanceProvider  Provenance = "provider"
	ProvenanceCommunity Provenance = "community"
)

// ActivityType is one entry in the closed activity taxonomy.
// The full table lives in internal/core/taxonomy; this package only defines
// the shape so the canonical event model stays dependency-free.
type ActivityType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// GeoPoint is a WGS 84 coordinate with an optional display name.
type GeoPoint struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name,omitempty"`
}

// CanonicalEvent is the unified event representation exposed to downstream
// consumers. It separates the stable internal identity (ID) from the source
// system's identity (SourceID).
//
// Immutable once constructed: the normalizer builds it, the engine copies it,
// nobody mutates it.
type CanonicalEvent struct {
	// ID is the feed-internal identifier. Generated (UUID) when the source
	// payload carries no id of its own.
	ID string `json:"id"`

	// SourceID is the identifier the originating system knows this event by.
	// Empty when the source payload had none. For provider events this is the
	// id the attendance sink expects.
	SourceID string `json:"source_id,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description"`

	ActivityType ActivityType `json:"activity_type"`

	Location  GeoPoint  `json:"location"`
	StartTime time.Time `json:"start_time"`

	ImageURL      string `json:"image_url,omitempty"`
	OrganizerName string `json:"organizer_name,omitempty"`
	AttendeeCount int    `json:"attendee_count"`

	Provenance Provenance `json:"provenance"`
}
