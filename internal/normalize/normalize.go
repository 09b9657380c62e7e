// Package normalize converts each source's raw event representation into the
// canonical feed model. All source-specific quirks (missing coordinates,
// free-text categories, absent descriptions) are resolved here so the engine
// only ever merges CanonicalEvents.
package normalize

import (
	"strings"

	"github.com/google/uuid"

	v1 "github.com/roam-social/roam-feed/internal/api/v1"
	"github.com/roam-social/roam-feed/internal/core/taxonomy"
	"github.com/roam-social/roam-feed/internal/provider"
)

const fallbackDescription = "Event details coming soon"

// Normalizer builds CanonicalEvents from raw source payloads.
type Normalizer struct {
	mapper *taxonomy.Mapper
}

// New creates a Normalizer using the given category mapper.
func New(mapper *taxonomy.Mapper) *Normalizer {
	return &Normalizer{mapper: mapper}
}

// ProviderEvent converts a raw provider event. Fails closed: the second
// return is false when the event has no usable location or its category maps
// to the Unrecognized sentinel — such events are dropped, never shown.
func (n *Normalizer) ProviderEvent(raw provider.RawEvent) (v1.CanonicalEvent, bool) {
	if raw.Location == nil {
		return v1.CanonicalEvent{}, false
	}

	activityType := n.mapper.MapProviderCategory(raw.Category, raw.Genre)
	if activityType == taxonomy.Unrecognized {
		return v1.CanonicalEvent{}, false
	}

	id := raw.ID
	if id == "" {
		id = uuid.NewString()
	}

	description := raw.Info
	if description == "" {
		description = synthesizeDescription(raw)
	}

	return v1.CanonicalEvent{
		ID:           id,
		SourceID:     raw.ID,
		Title:        raw.Name,
		Description:  description,
		ActivityType: activityType,
		Location:     *raw.Location,
		StartTime:    raw.StartTime,
		ImageURL:     raw.ImageURL,
		Provenance:   v1.ProvenanceProvider,
	}, true
}

// CommunityEvent converts a community event. Always succeeds: community
// events were authored inside the app and are never filtered away here.
func (n *Normalizer) CommunityEvent(raw *v1.CommunityEvent) v1.CanonicalEvent {
	location := v1.GeoPoint{
		Lat:  raw.Lat,
		Lon:  raw.Lon,
		Name: raw.LocationName,
	}
	if location.Name == "" {
		if raw.Venue != "" {
			location.Name = raw.Venue
		} else {
			location.Name = raw.City
		}
	}

	id := raw.ID
	if id == "" {
		id = uuid.NewString()
	}

	return v1.CanonicalEvent{
		ID:            id,
		SourceID:      raw.ID,
		Title:         raw.Title,
		Description:   raw.Description,
		ActivityType:  n.mapper.MapCommunityActivityType(raw.ActivityTypeID),
		Location:      location,
		StartTime:     raw.StartTime,
		OrganizerName: raw.OrganizerName,
		AttendeeCount: raw.AttendeeCount,
		Provenance:    v1.ProvenanceCommunity,
	}
}

// synthesizeDescription builds a readable description from whatever partial
// fields the provider sent: category, genre, "at {venue}", "in {city}".
func synthesizeDescription(raw provider.RawEvent) string {
	var parts []string
	if raw.Category != "" {
		parts = append(parts, raw.Category)
	}
	if raw.Genre != "" {
		parts = append(parts, raw.Genre)
	}
	if raw.Venue != "" {
		parts = append(parts, "at "+raw.Venue)
	}
	if raw.City != "" {
		parts = append(parts, "in "+raw.City)
	}
	if len(parts) == 0 {
		return fallbackDescription
	}
	return strings.Join(parts, " ")
}
