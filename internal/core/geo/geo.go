package geo

import (
	"errors"
	"math"

	v1 "github.com/roam-social/roam-feed/internal/api/v1"
)

// ErrNegativeRadius marks a contract violation: radius filters are not
// defined for negative radii.
var ErrNegativeRadius = errors.New("radius must not be negative")

const (
	earthRadiusMeters = 6371000.0
	metersPerMile     = 1609.34
)

// DistanceMeters returns the great-circle distance between two points,
// computed with the haversine formula.
func DistanceMeters(a, b v1.GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DistanceMiles returns the great-circle distance between two points in miles.
func DistanceMiles(a, b v1.GeoPoint) float64 {
	return DistanceMeters(a, b) / metersPerMile
}

// WithinRadius returns the candidates whose location lies within radiusMiles
// of reference. Order is preserved. Pure: the input slice is never modified.
func WithinRadius(reference v1.GeoPoint, radiusMiles float64, candidates []v1.CanonicalEvent) ([]v1.CanonicalEvent, error) {
	if radiusMiles < 0 {
		return nil, ErrNegativeRadius
	}

	kept := make([]v1.CanonicalEvent, 0, len(candidates))
	for _, c := range candidates {
		if DistanceMiles(reference, c.Location) <= radiusMiles {
			kept = append(kept, c)
		}
	}
	return kept, nil
}
