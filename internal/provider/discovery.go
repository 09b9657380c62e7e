package provider

import (
	"strconv"
	"time"

	v1 "github.com/roam-social/roam-feed/internal/api/v1"
)

// discoveryPage is the provider's wire shape, reduced to the fields this
// system reads. The format is owned by the provider, not by us.
type discoveryPage struct {
	Embedded struct {
		Events []discoveryEvent `json:"events"`
	} `json:"_embedded"`
}

type nameObject struct {
	Name string `json:"name"`
}

type discoveryEvent struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Info            string `json:"info"`
	Classifications []struct {
		Segment nameObject `json:"segment"`
		Genre   nameObject `json:"genre"`
	} `json:"classifications"`
	Dates struct {
		Start struct {
			DateTime string `json:"dateTime"`
		} `json:"start"`
	} `json:"dates"`
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
	Embedded struct {
		Venues []struct {
			Name     string     `json:"name"`
			City     nameObject `json:"city"`
			Location struct {
				// The provider serializes coordinates as strings.
				Latitude  string `json:"latitude"`
				Longitude string `json:"longitude"`
			} `json:"location"`
		} `json:"venues"`
	} `json:"_embedded"`
}

// rawEvents converts the wire page into RawEvents. Conversion is lossy on
// purpose: unparseable fields become zero values and normalization decides
// what to do with them.
func (p discoveryPage) rawEvents() []RawEvent {
	events := make([]RawEvent, 0, len(p.Embedded.Events))
	for _, e := range p.Embedded.Events {
		raw := RawEvent{
			ID:   e.ID,
			Name: e.Name,
			Info: e.Info,
		}

		if len(e.Classifications) > 0 {
			raw.Category = e.Classifications[0].Segment.Name
			raw.Genre = e.Classifications[0].Genre.Name
		}
		if len(e.Images) > 0 {
			raw.ImageURL = e.Images[0].URL
		}
		if ts, err := time.Parse(time.RFC3339, e.Dates.Start.DateTime); err == nil {
			raw.StartTime = ts
		}

		if len(e.Embedded.Venues) > 0 {
			venue := e.Embedded.Venues[0]
			raw.Venue = venue.Name
			raw.City = venue.City.Name

			lat, latErr := strconv.ParseFloat(venue.Location.Latitude, 64)
			lon, lonErr := strconv.ParseFloat(venue.Location.Longitude, 64)
			if latErr == nil && lonErr == nil {
				raw.Location = &v1.GeoPoint{Lat: lat, Lon: lon, Name: venue.Name}
			}
		}

		events = append(events, raw)
	}
	return events
}
