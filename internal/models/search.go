package models

import (
	"sort"
	"strings"
	"time"

	"github.com/uniride-app/uniride-backend/pkg/utils"
)

// Search result bounds.
const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 100
)

// Which end of the route a radius search measures from.
const (
	SearchPointPickup      = "pickup"
	SearchPointDestination = "destination"
)

// SearchFilters narrows the available-rides listing. Zero values leave
// the dimension unfiltered.
type SearchFilters struct {
	Pickup           string
	Destination      string
	Date             *time.Time // calendar-day window
	TimeAfter        string     // "15:04" floor, applied only together with Date
	SeatsNeeded      int
	MaxCost          *float64
	GenderPreference GenderPreference // the requester's own preference
	Limit            int
}

// Matches is the full eligibility predicate for one ride. The store
// query pushes the indexable parts (status, departure window, seats,
// cost) ahead of this; the substring, time-of-day and gender checks
// only run here.
func (f SearchFilters) Matches(r *Ride, now time.Time) bool {
	if r.Status != RideStatusActive {
		return false
	}
	if f.Date != nil {
		start := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, f.Date.Location())
		end := start.AddDate(0, 0, 1)
		if r.DepartureAt.Before(start) || !r.DepartureAt.Before(end) {
			return false
		}
		if f.TimeAfter != "" && minutesOfDay(r.DepartureAt) < parseTimeFloor(f.TimeAfter) {
			return false
		}
	} else if !r.DepartureAt.After(now) {
		return false
	}
	if f.SeatsNeeded > 0 && r.SeatsAvailable < f.SeatsNeeded {
		return false
	}
	if f.MaxCost != nil && r.CostPerSeat > *f.MaxCost {
		return false
	}
	if f.Pickup != "" && !containsFold(r.PickupName, f.Pickup) {
		return false
	}
	if f.Destination != "" && !containsFold(r.DestinationName, f.Destination) {
		return false
	}
	if f.GenderPreference != "" && f.GenderPreference != GenderPrefAny {
		if r.GenderPreference != GenderPrefAny && r.GenderPreference != f.GenderPreference {
			return false
		}
	}
	return true
}

// CappedLimit normalizes the requested result cap.
func (f SearchFilters) CappedLimit() int {
	if f.Limit <= 0 {
		return DefaultSearchLimit
	}
	if f.Limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return f.Limit
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// parseTimeFloor reads an "HH:MM" floor; malformed input means no floor.
func parseTimeFloor(s string) int {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0
	}
	return minutesOfDay(t)
}

// SortRidesByDeparture orders rides soonest first, ride ID breaking ties.
func SortRidesByDeparture(rides []Ride) {
	sort.SliceStable(rides, func(i, j int) bool {
		if rides[i].DepartureAt.Equal(rides[j].DepartureAt) {
			return rides[i].ID < rides[j].ID
		}
		return rides[i].DepartureAt.Before(rides[j].DepartureAt)
	})
}

// RideWithDistance pairs a ride with its distance from a search point.
type RideWithDistance struct {
	Ride       Ride    `json:"ride"`
	DistanceKm float64 `json:"distanceKm"`
}

// FilterByRadius keeps rides whose pickup (or destination, per
// pointType) lies within radiusKm of the given point, closest first.
func FilterByRadius(rides []Ride, lat, lng, radiusKm float64, pointType string) []RideWithDistance {
	out := make([]RideWithDistance, 0, len(rides))
	for _, r := range rides {
		pLat, pLng := r.PickupLat, r.PickupLng
		if pointType == SearchPointDestination {
			pLat, pLng = r.DestLat, r.DestLng
		}
		d := utils.HaversineDistance(lat, lng, pLat, pLng)
		if d <= radiusKm {
			out = append(out, RideWithDistance{Ride: r, DistanceKm: d})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out
}
