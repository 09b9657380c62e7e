package feed

import (
	"sort"
	"time"

	v1 "github.com/roam-social/roam-feed/internal/api/v1"
	"github.com/roam-social/roam-feed/internal/core/geo"
	"github.com/roam-social/roam-feed/internal/normalize"
	"github.com/roam-social/roam-feed/internal/provider"
)

// mergeSources normalizes both raw payloads and produces the canonical feed
// order: community events ahead of provider events regardless of date,
// ascending start time within each group. Events starting at or before now
// are excluded; duplicate community source ids are merged idempotently.
func mergeSources(n *normalize.Normalizer, providerRaw []provider.RawEvent, communityRaw []*v1.CommunityEvent, now time.Time) []v1.CanonicalEvent {
	events := make([]v1.CanonicalEvent, 0, len(providerRaw)+len(communityRaw))

	seen := make(map[string]bool, len(communityRaw))
	for _, raw := range communityRaw {
		evt := n.CommunityEvent(raw)
		if evt.SourceID != "" {
			if seen[evt.SourceID] {
				continue
			}
			seen[evt.SourceID] = true
		}
		events = append(events, evt)
	}

	for _, raw := range providerRaw {
		if evt, ok := n.ProviderEvent(raw); ok {
			events = append(events, evt)
		}
	}

	upcoming := make([]v1.CanonicalEvent, 0, len(events))
	for _, evt := range events {
		if evt.StartTime.After(now) {
			upcoming = append(upcoming, evt)
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		ri, rj := provenanceRank(upcoming[i].Provenance), provenanceRank(upcoming[j].Provenance)
		if ri != rj {
			return ri < rj
		}
		return upcoming[i].StartTime.Before(upcoming[j].StartTime)
	})

	return upcoming
}

func provenanceRank(p v1.Provenance) int {
	if p == v1.ProvenanceCommunity {
		return 0
	}
	return 1
}

// applyFilters narrows the merged feed to the radius and activity-type
// predicate. A nil typeFilter means "all types".
func applyFilters(events []v1.CanonicalEvent, reference v1.GeoPoint, radiusMiles float64, typeFilter *v1.ActivityType) ([]v1.CanonicalEvent, error) {
	filtered, err := geo.WithinRadius(reference, radiusMiles, events)
	if err != nil {
		return nil, err
	}
	return filterByType(filtered, typeFilter), nil
}

func filterByType(events []v1.CanonicalEvent, typeFilter *v1.ActivityType) []v1.CanonicalEvent {
	if typeFilter == nil {
		return events
	}
	out := make([]v1.CanonicalEvent, 0, len(events))
	for _, evt := range events {
		if evt.ActivityType.ID == typeFilter.ID {
			out = append(out, evt)
		}
	}
	return out
}
