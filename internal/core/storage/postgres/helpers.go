package postgres

import (
	"fmt"
	"math"

	v1 "github.com/roam-social/roam-feed/internal/api/v1"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanCommunityEventRow scans a database row into a CommunityEvent.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanCommunityEventRow(row scanner) (*v1.CommunityEvent, error) {
	var evt v1.CommunityEvent

	err := row.Scan(
		&evt.ID,
		&evt.Title,
		&evt.Description,
		&evt.ActivityTypeID,
		&evt.Lat,
		&evt.Lon,
		&evt.LocationName,
		&evt.Venue,
		&evt.City,
		&evt.StartTime,
		&evt.OrganizerID,
		&evt.OrganizerName,
		&evt.CreatedAt,
		&evt.AttendeeCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan community event row: %w", err)
	}

	return &evt, nil
}

const milesPerDegreeLat = 69.0

// boundingBox returns the lat/lon bounds of a box that fully contains the
// radius around center. Longitude degrees shrink with latitude; near the
// poles the box degenerates to the full longitude range.
func boundingBox(center v1.GeoPoint, radiusMiles float64) (minLat, maxLat, minLon, maxLon float64) {
	dLat := radiusMiles / milesPerDegreeLat

	cosLat := math.Cos(center.Lat * math.Pi / 180)
	dLon := 180.0
	if cosLat > 1e-6 {
		dLon = radiusMiles / (milesPerDegreeLat * cosLat)
	}

	return center.Lat - dLat, center.Lat + dLat, center.Lon - dLon, center.Lon + dLon
}
