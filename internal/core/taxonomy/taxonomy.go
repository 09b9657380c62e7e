// Package taxonomy owns the closed activity-type table and the mapping from
// source-specific categories into it.
//
// Two mapping policies coexist on purpose:
//   - Provider categories are free-text firehose data. Anything that does not
//     match a known keyword set maps to Unrecognized and MUST be dropped by
//     the caller, never shown.
//   - Community activity-type ids were chosen inside the app. Ids outside the
//     known range map to Other, which is a real, displayable type.
package taxonomy

import (
	"strings"

	v1 "github.com/roam-social/roam-feed/internal/api/v1"
)

// The closed activity-type table. IDs 1-7 are the community-assignable range.
var (
	Other        = v1.ActivityType{ID: 0, Name: "Other", Icon: "star"}
	Sports       = v1.ActivityType{ID: 1, Name: "Sports", Icon: "run"}
	Music        = v1.ActivityType{ID: 2, Name: "Music", Icon: "music-note"}
	ArtsTheatre  = v1.ActivityType{ID: 3, Name: "Arts & Theatre", Icon: "masks"}
	Family       = v1.ActivityType{ID: 4, Name: "Family", Icon: "family"}
	Festival     = v1.ActivityType{ID: 5, Name: "Festival", Icon: "confetti"}
	FoodDrink    = v1.ActivityType{ID: 6, Name: "Food & Drink", Icon: "restaurant"}
	Outdoors     = v1.ActivityType{ID: 7, Name: "Outdoors", Icon: "tree"}

	// Unrecognized is a sentinel, not a displayable type. Events mapped to it
	// are dropped during normalization.
	Unrecognized = v1.ActivityType{ID: -1, Name: "Unrecognized", Icon: ""}
)

// communityTypes is the direct lookup table for community activity-type ids.
var communityTypes = map[int]v1.ActivityType{
	Sports.ID:      Sports,
	Music.ID:       Music,
	ArtsTheatre.ID: ArtsTheatre,
	Family.ID:      Family,
	Festival.ID:    Festival,
	FoodDrink.ID:   FoodDrink,
	Outdoors.ID:    Outdoors,
}

// keywordSet binds one taxonomy entry to the provider keywords that select it.
type keywordSet struct {
	activityType v1.ActivityType
	keywords     []string
}

// defaultKeywordSets returns the built-in provider keyword sets in priority
// order. First match wins, so Sports shadows everything below it.
func defaultKeywordSets() []keywordSet {
	return []keywordSet{
		{Sports, []string{
			"sports", "basketball", "football", "baseball", "soccer",
			"hockey", "tennis", "golf", "racing", "mma", "wrestling",
		}},
		{Music, []string{
			"music", "concert", "rock", "pop", "hip-hop", "rap", "country",
			"jazz", "electronic", "r&b", "metal", "folk",
		}},
		{ArtsTheatre, []string{
			"arts", "theatre", "theater", "comedy", "dance", "opera",
			"ballet", "musical", "film",
		}},
		{Family, []string{
			"family", "children", "kids", "circus", "ice shows", "magic",
		}},
		{Festival, []string{
			"festival", "fair", "parade",
		}},
	}
}

// Mapper resolves provider and community categories against the taxonomy.
// Construct once at startup; safe for concurrent use afterwards.
type Mapper struct {
	sets []keywordSet
}

// NewMapper returns a Mapper carrying only the built-in keyword sets.
func NewMapper() *Mapper {
	return &Mapper{sets: defaultKeywordSets()}
}

// NewMapperFromDir returns a Mapper whose built-in keyword sets are extended
// by YAML overlay files found in dir. A missing directory yields the built-in
// sets unchanged.
func NewMapperFromDir(dir string) (*Mapper, error) {
	overlays, err := loadOverlays(dir)
	if err != nil {
		return nil, err
	}

	sets := defaultKeywordSets()
	for i := range sets {
		for _, o := range overlays {
			if strings.EqualFold(o.Taxonomy, sets[i].activityType.Name) {
				sets[i].keywords = append(sets[i].keywords, o.Keywords...)
			}
		}
	}
	return &Mapper{sets: sets}, nil
}

// MapProviderCategory resolves a provider event's free-text category and
// genre strings. Matching is case-insensitive substring, evaluated against
// the keyword sets in priority order; the first set with a hit wins. No hit
// returns Unrecognized.
func (m *Mapper) MapProviderCategory(category, genre string) v1.ActivityType {
	cat := strings.ToLower(category)
	gen := strings.ToLower(genre)

	for _, set := range m.sets {
		for _, kw := range set.keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(cat, kw) || strings.Contains(gen, kw) {
				return set.activityType
			}
		}
	}
	return Unrecognized
}

// MapCommunityActivityType resolves a community event's small-integer
// activity-type id. Unknown ids map to Other: the event was authored inside
// the app and is still shown.
func (m *Mapper) MapCommunityActivityType(id int) v1.ActivityType {
	if t, ok := communityTypes[id]; ok {
		return t
	}
	return Other
}

// Known returns the displayable taxonomy entries (everything except the
// Unrecognized sentinel), for API consumers that enumerate filter choices.
func Known() []v1.ActivityType {
	return []v1.ActivityType{
		Other, Sports, Music, ArtsTheatre, Family, Festival, FoodDrink, Outdoors,
	}
}

// ByID resolves any taxonomy id, including Other. The second return is false
// for ids outside the table (including the Unrecognized sentinel).
func ByID(id int) (v1.ActivityType, bool) {
	if id == Other.ID {
		return Other, true
	}
	t, ok := communityTypes[id]
	return t, ok
}
