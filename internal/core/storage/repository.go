package storage

import (
	"context"
	"errors"

	v1 "github.com/roam-social/roam-feed/internal/api/v1"
)

// ErrDuplicate is returned when a row with the same key already exists.
var ErrDuplicate = errors.New("already exists")

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// CommunityEventStore persists and retrieves community-submitted events.
type CommunityEventStore interface {
	// SaveEvent persists a community event. Returns ErrDuplicate when the id
	// is already stored (idempotent intake).
	SaveEvent(ctx context.Context, event *v1.CommunityEvent) error

	// GetEvent fetches one event by id. Returns ErrNotFound when absent.
	GetEvent(ctx context.Context, id string) (*v1.CommunityEvent, error)

	// FetchNearby returns upcoming events inside a bounding box around
	// location. The box over-approximates the radius; the exact great-circle
	// cut happens in the feed's merge stage.
	FetchNearby(ctx context.Context, location v1.GeoPoint, radiusMiles float64) ([]*v1.CommunityEvent, error)
}

// AttendanceStore records which provider events an identity joined.
type AttendanceStore interface {
	// MarkAttended records the join. Returns ErrDuplicate when the identity
	// already joined the event.
	MarkAttended(ctx context.Context, userID, providerEventID string) error
}
