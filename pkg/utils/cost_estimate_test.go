package utils

import (
	"math"
	"testing"
)

func TestEstimateRideCostShortTrip(t *testing.T) {
	est := EstimateRideCost(0.3152, 32.5816, 0.3152, 32.5816, 3)

	if est.SuggestedPerSeat != MinimumPerSeat {
		t.Errorf("zero-distance per seat = %v, want the %v floor", est.SuggestedPerSeat, MinimumPerSeat)
	}
	if est.DurationMinutes != 1 {
		t.Errorf("zero-distance duration = %d, want 1", est.DurationMinutes)
	}
}

func TestEstimateRideCostSplit(t *testing.T) {
	est := EstimateRideCost(0, 0, 0, 1, 3)

	if math.Abs(est.DistanceKm-111.19) > 0.1 {
		t.Errorf("distance = %v km, want ~111.19", est.DistanceKm)
	}
	if est.TripCost <= 0 {
		t.Fatalf("trip cost = %v, want positive", est.TripCost)
	}
	if math.Abs(est.SuggestedPerSeat*3-est.TripCost) > 0.05 {
		t.Errorf("per seat %v x 3 != trip cost %v", est.SuggestedPerSeat, est.TripCost)
	}
	if math.Abs(est.Breakdown.Total-est.TripCost) > 1e-9 {
		t.Errorf("breakdown total %v != trip cost %v", est.Breakdown.Total, est.TripCost)
	}
}

func TestEstimateRideCostSeatsFloor(t *testing.T) {
	est := EstimateRideCost(0, 0, 0, 1, 0)
	if est.Seats != 1 {
		t.Errorf("seats coerced to %d, want 1", est.Seats)
	}
	if math.Abs(est.SuggestedPerSeat-est.TripCost) > 0.01 {
		t.Errorf("single seat should carry the whole cost: %v vs %v", est.SuggestedPerSeat, est.TripCost)
	}
}
