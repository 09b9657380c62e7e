package v1

import (
	"fmt"
	"time"
)

// CommunityEvent is a user-submitted event as stored and fetched by the
// community store. It is the "raw" community representation; the normalizer
// converts it to a CanonicalEvent before it enters the feed.
type CommunityEvent struct {
	// ID is assigned on intake (UUID) if the client did not supply one.
	// Re-submitting the same ID is idempotent.
	ID string `json:"id"`

	Title       string `json:"title"`
	Description string `json:"description"`

	// ActivityTypeID is a small-integer taxonomy id. Ids outside the known
	// range are accepted and displayed as "Other".
	ActivityTypeID int `json:"activity_type_id"`

	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	LocationName string  `json:"location_name,omitempty"`
	Venue        string  `json:"venue,omitempty"`
	City         string  `json:"city,omitempty"`

	StartTime time.Time `json:"start_time"`

	OrganizerID   string `json:"organizer_id"`
	OrganizerName string `json:"organizer_name"`
	AttendeeCount int    `json:"attendee_count"`

	// CreatedAt is set by the intake service, not the client.
	CreatedAt time.Time `json:"created_at"`
}

// Validate ensures the event carries everything the feed needs to place and
// display it.
func (e *CommunityEvent) Validate() error {
	if e.Title == "" {
		return fmt.Errorf("title is required")
	}

	if e.StartTime.IsZero() {
		return fmt.Errorf("start_time is required")
	}

	if e.Lat < -90 || e.Lat > 90 {
		return fmt.Errorf("lat %v out of range", e.Lat)
	}

	if e.Lon < -180 || e.Lon > 180 {
		return fmt.Errorf("lon %v out of range", e.Lon)
	}

	if e.OrganizerID == "" {
		return fmt.Errorf("organizer_id is required")
	}

	return nil
}
