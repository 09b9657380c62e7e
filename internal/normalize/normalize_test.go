package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	v1 "github.com/roam-social/roam-feed/internal/api/v1"
	"github.com/roam-social/roam-feed/internal/core/taxonomy"
	"github.com/roam-social/roam-feed/internal/provider"
)

func newNormalizer() *Normalizer {
	return New(taxonomy.NewMapper())
}

func providerRaw() provider.RawEvent {
	return provider.RawEvent{
		ID:        "tm-1",
		Name:      "NBA Playoffs",
		Category:  "Sports",
		Genre:     "Basketball",
		Venue:     "The Garden",
		City:      "New York",
		StartTime: time.Date(2030, 6, 1, 19, 0, 0, 0, time.UTC),
		ImageURL:  "https://img.example/1.jpg",
		Location:  &v1.GeoPoint{Lat: 40.7505, Lon: -73.9934, Name: "The Garden"},
	}
}

func TestProviderEvent(t *testing.T) {
	n := newNormalizer()

	evt, ok := n.ProviderEvent(providerRaw())
	require.True(t, ok)
	require.Equal(t, "tm-1", evt.ID)
	require.Equal(t, "tm-1", evt.SourceID)
	require.Equal(t, "NBA Playoffs", evt.Title)
	require.Equal(t, taxonomy.Sports, evt.ActivityType)
	require.Equal(t, v1.ProvenanceProvider, evt.Provenance)
	require.InDelta(t, 40.7505, evt.Location.Lat, 0.0001)
}

func TestProviderEvent_FailsClosed(t *testing.T) {
	n := newNormalizer()

	t.Run("missing location dropped", func(t *testing.T) {
		raw := providerRaw()
		raw.Location = nil
		_, ok := n.ProviderEvent(raw)
		require.False(t, ok)
	})

	t.Run("unrecognized category dropped", func(t *testing.T) {
		raw := providerRaw()
		raw.Category = "Obscure Topic"
		raw.Genre = ""
		_, ok := n.ProviderEvent(raw)
		require.False(t, ok)
	})
}

func TestProviderEvent_GeneratesIDWhenAbsent(t *testing.T) {
	n := newNormalizer()

	raw := providerRaw()
	raw.ID = ""

	evt, ok := n.ProviderEvent(raw)
	require.True(t, ok)
	require.NotEmpty(t, evt.ID)
	require.Empty(t, evt.SourceID) // no stable source identity to preserve
}

func TestProviderEvent_DescriptionSynthesis(t *testing.T) {
	n := newNormalizer()

	tests := []struct {
		name   string
		mutate func(*provider.RawEvent)
		want   string
	}{
		{
			name:   "existing description kept",
			mutate: func(r *provider.RawEvent) { r.Info = "Game 7." },
			want:   "Game 7.",
		},
		{
			name:   "synthesized from parts",
			mutate: func(r *provider.RawEvent) {},
			want:   "Sports Basketball at The Garden in New York",
		},
		{
			name: "partial parts",
			mutate: func(r *provider.RawEvent) {
				r.Genre = ""
				r.Venue = ""
			},
			want: "Sports in New York",
		},
		{
			name: "category only",
			mutate: func(r *provider.RawEvent) {
				r.Genre = ""
				r.Venue = ""
				r.City = ""
			},
			want: "Sports",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := providerRaw()
			raw.Info = ""
			tc.mutate(&raw)

			evt, ok := n.ProviderEvent(raw)
			require.True(t, ok)
			require.Equal(t, tc.want, evt.Description)
		})
	}
}

func TestSynthesizeDescription_AllPartsAbsent(t *testing.T) {
	// Recognition requires a keyword hit, so a recognized event always has at
	// least one text part; the placeholder is reachable only through the
	// helper itself.
	require.Equal(t, fallbackDescription, synthesizeDescription(provider.RawEvent{}))
}

func TestCommunityEvent(t *testing.T) {
	n := newNormalizer()

	raw := &v1.CommunityEvent{
		ID:             "ce-1",
		Title:          "Sunset Run Club",
		Description:    "Easy 5k",
		ActivityTypeID: 1,
		Lat:            40.7580,
		Lon:            -73.9855,
		LocationName:   "Hudson River Greenway",
		StartTime:      time.Date(2030, 6, 1, 18, 0, 0, 0, time.UTC),
		OrganizerName:  "Dana",
		AttendeeCount:  12,
	}

	evt := n.CommunityEvent(raw)
	require.Equal(t, "ce-1", evt.ID)
	require.Equal(t, taxonomy.Sports, evt.ActivityType)
	require.Equal(t, v1.ProvenanceCommunity, evt.Provenance)
	require.Equal(t, "Hudson River Greenway", evt.Location.Name)
	require.Equal(t, 12, evt.AttendeeCount)
	require.Equal(t, "Dana", evt.OrganizerName)
}

func TestCommunityEvent_LocationNameFallback(t *testing.T) {
	n := newNormalizer()

	raw := &v1.CommunityEvent{
		ID:        "ce-2",
		Title:     "Open Mic",
		Venue:     "The Basement",
		City:      "Brooklyn",
		StartTime: time.Date(2030, 6, 1, 20, 0, 0, 0, time.UTC),
	}

	evt := n.CommunityEvent(raw)
	require.Equal(t, "The Basement", evt.Location.Name)

	raw.Venue = ""
	evt = n.CommunityEvent(raw)
	require.Equal(t, "Brooklyn", evt.Location.Name)
}

func TestCommunityEvent_UnknownTypeIsOtherNotDropped(t *testing.T) {
	n := newNormalizer()

	raw := &v1.CommunityEvent{
		ID:             "ce-3",
		Title:          "Mystery Meetup",
		ActivityTypeID: 42,
		StartTime:      time.Date(2030, 6, 1, 20, 0, 0, 0, time.UTC),
	}

	evt := n.CommunityEvent(raw)
	require.Equal(t, taxonomy.Other, evt.ActivityType)
}
