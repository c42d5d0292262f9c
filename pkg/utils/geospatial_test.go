package utils

import (
	"math"
	"testing"
)

func TestHaversineZero(t *testing.T) {
	if d := HaversineDistance(0, 0, 0, 0); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestHaversineQuarterCircle(t *testing.T) {
	// A quarter of the equator is about 10007.5 km.
	d := HaversineDistance(0, 0, 0, 90)
	if math.Abs(d-10007.5) > 1.0 {
		t.Errorf("quarter circle = %f km, want ~10007.5", d)
	}
}

func TestHaversineSymmetry(t *testing.T) {
	a := HaversineDistance(0.3152, 32.5816, 0.3476, 32.5825)
	b := HaversineDistance(0.3476, 32.5825, 0.3152, 32.5816)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", a, b)
	}
	if a <= 0 {
		t.Errorf("expected positive distance, got %f", a)
	}
}

func TestBearing(t *testing.T) {
	if b := Bearing(0, 0, 0, 1); math.Abs(b-90) > 0.01 {
		t.Errorf("due east bearing = %f, want 90", b)
	}
	if b := Bearing(0, 0, 1, 0); math.Abs(b-0) > 0.01 {
		t.Errorf("due north bearing = %f, want 0", b)
	}
	if b := Bearing(0, 0, -1, 0); math.Abs(b-180) > 0.01 {
		t.Errorf("due south bearing = %f, want 180", b)
	}
}

func TestCalculateETA(t *testing.T) {
	if eta := CalculateETA(10, 30); eta != 20 {
		t.Errorf("10km at 30km/h = %d min, want 20", eta)
	}
	if eta := CalculateETA(0.1, 30); eta != 1 {
		t.Errorf("short hop = %d min, want minimum 1", eta)
	}
	// Zero speed falls back to the city default.
	if eta := CalculateETA(10, 0); eta != 20 {
		t.Errorf("default speed ETA = %d min, want 20", eta)
	}
}

func TestGetBoundingBox(t *testing.T) {
	bbox := GetBoundingBox(0, 0, 10)

	if bbox.NorthEast.Lat <= 0 || bbox.SouthWest.Lat >= 0 {
		t.Errorf("box does not straddle the center: %+v", bbox)
	}
	if bbox.NorthEast.Lng <= bbox.SouthWest.Lng {
		t.Errorf("longitude bounds inverted: %+v", bbox)
	}
	// 10km is roughly 0.09 degrees of latitude.
	if math.Abs(bbox.NorthEast.Lat-0.0899) > 0.001 {
		t.Errorf("north bound = %f, want ~0.0899", bbox.NorthEast.Lat)
	}
}
