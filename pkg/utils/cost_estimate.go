package utils

import (
	"math"
)

// CostEstimateResult contains the suggested per-seat cost share and its breakdown
type CostEstimateResult struct {
	DistanceKm       float64       `json:"distanceKm"`
	DurationMinutes  int           `json:"durationMinutes"`
	TripCost         float64       `json:"tripCost"`
	SuggestedPerSeat float64       `json:"suggestedPerSeat"`
	Seats            int           `json:"seats"`
	Breakdown        CostBreakdown `json:"breakdown"`
}

// CostBreakdown details how the trip cost was derived
type CostBreakdown struct {
	FuelCost      float64 `json:"fuelCost"`
	WearAllowance float64 `json:"wearAllowance"`
	Total         float64 `json:"total"`
}

const (
	// Cost-sharing parameters for a typical compact car
	FuelConsumptionPer100Km = 8.0  // liters per 100 km
	FuelPricePerLiter       = 1.8  // currency units per liter
	WearRatePerKm           = 0.05 // wear and tear allowance per km
	MinimumPerSeat          = 1.0  // floor for very short trips
	AverageCitySpeedKmh     = 30.0
)

// EstimateRideCost suggests a per-seat cost share for a trip. The trip
// cost covers fuel plus a wear allowance and is split evenly across the
// passenger seats; drivers remain free to publish any non-negative cost.
func EstimateRideCost(pickupLat, pickupLng, destLat, destLng float64, seats int) CostEstimateResult {
	if seats < 1 {
		seats = 1
	}

	distance := HaversineDistance(pickupLat, pickupLng, destLat, destLng)

	fuelCost := distance / 100 * FuelConsumptionPer100Km * FuelPricePerLiter
	wear := distance * WearRatePerKm
	tripCost := fuelCost + wear

	perSeat := tripCost / float64(seats)
	if perSeat < MinimumPerSeat {
		perSeat = MinimumPerSeat
	}

	return CostEstimateResult{
		DistanceKm:       round2(distance),
		DurationMinutes:  CalculateETA(distance, AverageCitySpeedKmh),
		TripCost:         round2(tripCost),
		SuggestedPerSeat: round2(perSeat),
		Seats:            seats,
		Breakdown: CostBreakdown{
			FuelCost:      round2(fuelCost),
			WearAllowance: round2(wear),
			Total:         round2(tripCost),
		},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
