package inventory

import (
	"sort"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
)

// RecentLimit is how many cars the dashboard lists as recently added.
const RecentLimit = 5

// NoTag is reported as the most popular tag when no car has tags.
const NoTag = "None"

// TagCount is the number of cars carrying a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Summary is the dashboard overview of the inventory.
type Summary struct {
	TotalCars      int          `json:"totalCars"`
	TotalTags      int          `json:"totalTags"`
	MostPopularTag string       `json:"mostPopularTag"`
	TagCounts      []TagCount   `json:"tagCounts"`
	RecentlyAdded  []domain.Car `json:"recentlyAdded"`
}

// Summarize computes the dashboard summary. Tag counts are ordered by count
// descending, then tag ascending; the first entry is the most popular tag.
// RecentlyAdded holds up to RecentLimit cars, newest first. cars is not
// modified.
func Summarize(cars []domain.Car) Summary {
	counts := make(map[string]int)
	for i := range cars {
		for _, t := range cars[i].Tags {
			counts[t]++
		}
	}
	tc := make([]TagCount, 0, len(counts))
	for t, n := range counts {
		tc = append(tc, TagCount{Tag: t, Count: n})
	}
	sort.Slice(tc, func(i, j int) bool {
		if tc[i].Count != tc[j].Count {
			return tc[i].Count > tc[j].Count
		}
		return tc[i].Tag < tc[j].Tag
	})

	s := Summary{
		TotalCars:      len(cars),
		TotalTags:      len(tc),
		MostPopularTag: NoTag,
		TagCounts:      tc,
	}
	if len(tc) > 0 {
		s.MostPopularTag = tc[0].Tag
	}

	recent := append([]domain.Car(nil), cars...)
	Sort(recent, SortNewest)
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	s.RecentlyAdded = recent
	return s
}

// Facets lists the distinct non-empty values clients can filter on.
type Facets struct {
	Makes     []string `json:"makes"`
	BodyTypes []string `json:"bodyTypes"`
	FuelTypes []string `json:"fuelTypes"`
}

// CollectFacets returns the sorted distinct makes, body types, and fuel
// types present in cars.
func CollectFacets(cars []domain.Car) Facets {
	makes := map[string]struct{}{}
	bodies := map[string]struct{}{}
	fuels := map[string]struct{}{}
	for i := range cars {
		add(makes, cars[i].Make)
		add(bodies, cars[i].BodyType)
		add(fuels, cars[i].FuelType)
	}
	return Facets{Makes: sortedKeys(makes), BodyTypes: sortedKeys(bodies), FuelTypes: sortedKeys(fuels)}
}

func add(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
