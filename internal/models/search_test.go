package models

import (
	"testing"
	"time"
)

func searchRide(id uint, mutate func(*Ride)) Ride {
	r := newTestRide()
	r.ID = id
	if mutate != nil {
		mutate(r)
	}
	return *r
}

func TestMatchesStatusSeatsCost(t *testing.T) {
	maxCost := 5.0
	f := SearchFilters{SeatsNeeded: 3, MaxCost: &maxCost}

	ok := searchRide(1, nil)
	if !f.Matches(&ok, testNow) {
		t.Error("eligible ride rejected")
	}

	completed := searchRide(2, func(r *Ride) { r.Status = RideStatusCompleted })
	if f.Matches(&completed, testNow) {
		t.Error("completed ride matched")
	}

	full := searchRide(3, func(r *Ride) { r.Status = RideStatusFull; r.SeatsAvailable = 0 })
	if f.Matches(&full, testNow) {
		t.Error("full ride matched")
	}

	fewSeats := searchRide(4, func(r *Ride) { r.SeatsAvailable = 2 })
	if f.Matches(&fewSeats, testNow) {
		t.Error("ride with 2 seats matched a 3-seat request")
	}

	costly := searchRide(5, func(r *Ride) { r.CostPerSeat = 5.5 })
	if f.Matches(&costly, testNow) {
		t.Error("ride above max cost matched")
	}

	atLimit := searchRide(6, func(r *Ride) { r.CostPerSeat = 5 })
	if !f.Matches(&atLimit, testNow) {
		t.Error("ride at max cost rejected")
	}
}

func TestMatchesSubstrings(t *testing.T) {
	f := SearchFilters{Pickup: "gate", Destination: "LIBRARY"}
	r := searchRide(1, nil) // "Main Gate" -> "City Library"
	if !f.Matches(&r, testNow) {
		t.Error("case-insensitive substring match failed")
	}

	f = SearchFilters{Pickup: "hostel"}
	if f.Matches(&r, testNow) {
		t.Error("non-matching pickup matched")
	}
}

func TestMatchesFutureOnly(t *testing.T) {
	f := SearchFilters{}
	past := searchRide(1, func(r *Ride) { r.DepartureAt = testNow.Add(-time.Hour) })
	if f.Matches(&past, testNow) {
		t.Error("departed ride matched with no date filter")
	}
}

func TestMatchesDateWindow(t *testing.T) {
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	f := SearchFilters{Date: &day}

	sameDay := searchRide(1, func(r *Ride) {
		r.DepartureAt = time.Date(2025, 3, 12, 14, 30, 0, 0, time.UTC)
	})
	if !f.Matches(&sameDay, testNow) {
		t.Error("ride on the requested day rejected")
	}

	nextDay := searchRide(2, func(r *Ride) {
		r.DepartureAt = time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)
	})
	if f.Matches(&nextDay, testNow) {
		t.Error("ride on the next day matched")
	}

	f.TimeAfter = "15:00"
	if f.Matches(&sameDay, testNow) {
		t.Error("14:30 departure matched a 15:00 floor")
	}
	atFloor := searchRide(3, func(r *Ride) {
		r.DepartureAt = time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	})
	if !f.Matches(&atFloor, testNow) {
		t.Error("15:00 departure rejected by a 15:00 floor")
	}
}

func TestMatchesGenderPreference(t *testing.T) {
	f := SearchFilters{GenderPreference: GenderPrefFemale}

	open := searchRide(1, nil)
	if !f.Matches(&open, testNow) {
		t.Error("open ride rejected for a female requester")
	}

	femaleOnly := searchRide(2, func(r *Ride) { r.GenderPreference = GenderPrefFemale })
	if !f.Matches(&femaleOnly, testNow) {
		t.Error("female-only ride rejected for a female requester")
	}

	maleOnly := searchRide(3, func(r *Ride) { r.GenderPreference = GenderPrefMale })
	if f.Matches(&maleOnly, testNow) {
		t.Error("male-only ride matched a female requester")
	}

	any := SearchFilters{GenderPreference: GenderPrefAny}
	if !any.Matches(&maleOnly, testNow) {
		t.Error("requester with no preference rejected a restricted ride")
	}
}

func TestSortRidesByDeparture(t *testing.T) {
	early := testNow.Add(2 * time.Hour)
	late := testNow.Add(5 * time.Hour)
	rides := []Ride{
		searchRide(3, func(r *Ride) { r.DepartureAt = late }),
		searchRide(2, func(r *Ride) { r.DepartureAt = early }),
		searchRide(1, func(r *Ride) { r.DepartureAt = early }),
	}

	SortRidesByDeparture(rides)

	if rides[0].ID != 1 || rides[1].ID != 2 || rides[2].ID != 3 {
		t.Errorf("order = %d,%d,%d, want 1,2,3", rides[0].ID, rides[1].ID, rides[2].ID)
	}
}

func TestCappedLimit(t *testing.T) {
	if got := (SearchFilters{}).CappedLimit(); got != DefaultSearchLimit {
		t.Errorf("default limit = %d, want %d", got, DefaultSearchLimit)
	}
	if got := (SearchFilters{Limit: 150}).CappedLimit(); got != MaxSearchLimit {
		t.Errorf("oversized limit = %d, want %d", got, MaxSearchLimit)
	}
	if got := (SearchFilters{Limit: 7}).CappedLimit(); got != 7 {
		t.Errorf("limit = %d, want 7", got)
	}
}

func TestFilterByRadius(t *testing.T) {
	near := searchRide(1, func(r *Ride) { r.PickupLat = 0; r.PickupLng = 0.05 })
	far := searchRide(2, func(r *Ride) { r.PickupLat = 0; r.PickupLng = 1 })
	nearer := searchRide(3, func(r *Ride) { r.PickupLat = 0; r.PickupLng = 0.01 })

	got := FilterByRadius([]Ride{near, far, nearer}, 0, 0, 10, SearchPointPickup)

	if len(got) != 2 {
		t.Fatalf("got %d rides within 10km, want 2", len(got))
	}
	if got[0].Ride.ID != 3 || got[1].Ride.ID != 1 {
		t.Errorf("order = %d,%d, want 3,1", got[0].Ride.ID, got[1].Ride.ID)
	}
	if got[0].DistanceKm <= 0 || got[0].DistanceKm >= got[1].DistanceKm {
		t.Errorf("distances not ascending: %v, %v", got[0].DistanceKm, got[1].DistanceKm)
	}
}

func TestFilterByRadiusDestination(t *testing.T) {
	r := searchRide(1, func(r *Ride) {
		r.PickupLat, r.PickupLng = 5, 5
		r.DestLat, r.DestLng = 0, 0.02
	})

	byDest := FilterByRadius([]Ride{r}, 0, 0, 5, SearchPointDestination)
	if len(byDest) != 1 {
		t.Fatal("destination within radius not found")
	}

	byPickup := FilterByRadius([]Ride{r}, 0, 0, 5, SearchPointPickup)
	if len(byPickup) != 0 {
		t.Error("distant pickup matched a destination-anchored ride")
	}
}
