package service

import (
	"sort"
	"strings"

	"busbooking/internal/domain"
)

type groupKey struct {
	busID       string
	destination string
}

// GroupLegs filters legs by origin and destination text and groups the rest
// into boarding recommendations keyed by bus and destination.
//
// Filters are trimmed, case-insensitive substring matches; an empty filter
// matches everything. Every filtered leg lands in exactly one group. The
// input slice is not modified.
func GroupLegs(legs []domain.RouteLeg, originFilter, destinationFilter string) []domain.RouteGroup {
	origin := normalizeFilter(originFilter)
	destination := normalizeFilter(destinationFilter)

	index := make(map[groupKey]int)
	var groups []domain.RouteGroup

	for _, leg := range legs {
		if !matches(leg.Origin, origin) || !matches(leg.Destination, destination) {
			continue
		}
		key := groupKey{busID: leg.BusID, destination: leg.Destination}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, domain.RouteGroup{
				BusID:       leg.BusID,
				Destination: leg.Destination,
			})
		}
		groups[i].Legs = append(groups[i].Legs, leg.Clone())
	}

	for i := range groups {
		finishGroup(&groups[i])
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Representative.DepartureTime != b.Representative.DepartureTime {
			return a.Representative.DepartureTime.Before(b.Representative.DepartureTime)
		}
		if a.BusID != b.BusID {
			return a.BusID < b.BusID
		}
		return a.Destination < b.Destination
	})

	return groups
}

// finishGroup orders the legs and derives the representative, price range and stops.
func finishGroup(g *domain.RouteGroup) {
	sort.SliceStable(g.Legs, func(i, j int) bool {
		a, b := g.Legs[i], g.Legs[j]
		if a.DepartureTime != b.DepartureTime {
			return a.DepartureTime.Before(b.DepartureTime)
		}
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		return a.ID < b.ID
	})

	g.Representative = g.Legs[0]
	g.PriceRange = domain.PriceRange{Min: g.Legs[0].PricePerSeat, Max: g.Legs[0].PricePerSeat}

	seen := make(map[string]struct{})
	g.Stops = []string{}
	for _, leg := range g.Legs {
		if leg.PricePerSeat < g.PriceRange.Min {
			g.PriceRange.Min = leg.PricePerSeat
		}
		if leg.PricePerSeat > g.PriceRange.Max {
			g.PriceRange.Max = leg.PricePerSeat
		}
		for _, stop := range leg.IntermediateStops {
			if _, dup := seen[stop]; dup {
				continue
			}
			seen[stop] = struct{}{}
			g.Stops = append(g.Stops, stop)
		}
	}
}

func normalizeFilter(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func matches(field, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(field), filter)
}
