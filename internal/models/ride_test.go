package models

import (
	"errors"
	"testing"
	"time"

	"github.com/uniride-app/uniride-backend/internal/apperrors"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestRide() *Ride {
	r := &Ride{
		DriverID:         1,
		PickupName:       "Main Gate",
		DestinationName:  "City Library",
		PickupLat:        0.3152,
		PickupLng:        32.5816,
		DestLat:          0.3476,
		DestLng:          32.5825,
		DepartureAt:      testNow.Add(24 * time.Hour),
		TotalSeats:       4,
		SeatsAvailable:   4,
		CostPerSeat:      5,
		GenderPreference: GenderPrefAny,
		Status:           RideStatusActive,
	}
	r.ID = 10
	return r
}

func expectValidation(t *testing.T, err error, field string) {
	t.Helper()
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperrors.Error, got %v", err)
	}
	if appErr.Kind != apperrors.KindValidation {
		t.Errorf("expected validation error, got %s", appErr.Kind)
	}
	if appErr.Field != field {
		t.Errorf("expected field %q, got %q", field, appErr.Field)
	}
}

func TestValidateForCreate(t *testing.T) {
	if err := newTestRide().ValidateForCreate(testNow); err != nil {
		t.Fatalf("valid ride rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Ride)
		field  string
	}{
		{"empty pickup", func(r *Ride) { r.PickupName = "  " }, "pickupName"},
		{"empty destination", func(r *Ride) { r.DestinationName = "" }, "destinationName"},
		{"latitude out of range", func(r *Ride) { r.PickupLat = 95 }, "pickup"},
		{"longitude out of range", func(r *Ride) { r.DestLng = -190 }, "destination"},
		{"zero seats", func(r *Ride) { r.TotalSeats = 0 }, "totalSeats"},
		{"nine seats", func(r *Ride) { r.TotalSeats = 9 }, "totalSeats"},
		{"negative cost", func(r *Ride) { r.CostPerSeat = -1 }, "costPerSeat"},
		{"bad gender preference", func(r *Ride) { r.GenderPreference = "other" }, "genderPreference"},
		{"past departure", func(r *Ride) { r.DepartureAt = testNow.Add(-time.Hour) }, "departureAt"},
		{"departure exactly now", func(r *Ride) { r.DepartureAt = testNow }, "departureAt"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRide()
			tc.mutate(r)
			err := r.ValidateForCreate(testNow)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			expectValidation(t, err, tc.field)
		})
	}
}

func TestTransitionTo(t *testing.T) {
	r := newTestRide()
	if err := r.TransitionTo(RideStatusCompleted, testNow); err != nil {
		t.Fatalf("active -> completed failed: %v", err)
	}
	if r.Status != RideStatusCompleted {
		t.Errorf("status = %s, want completed", r.Status)
	}
	if r.CompletedAt == nil || !r.CompletedAt.Equal(testNow) {
		t.Errorf("CompletedAt not stamped, got %v", r.CompletedAt)
	}

	// Terminal statuses reject every further transition.
	if err := r.TransitionTo(RideStatusCancelled, testNow); !apperrors.IsKind(err, apperrors.KindState) {
		t.Errorf("completed -> cancelled: expected state error, got %v", err)
	}
	if err := r.TransitionTo(RideStatusActive, testNow); !apperrors.IsKind(err, apperrors.KindState) {
		t.Errorf("completed -> active: expected state error, got %v", err)
	}

	// Repeating a transition fails and leaves the ride untouched.
	stamped := *r.CompletedAt
	if err := r.TransitionTo(RideStatusCompleted, testNow.Add(time.Hour)); !apperrors.IsKind(err, apperrors.KindState) {
		t.Errorf("repeat completion: expected state error, got %v", err)
	}
	if !r.CompletedAt.Equal(stamped) {
		t.Error("repeat completion moved CompletedAt")
	}

	r = newTestRide()
	if err := r.TransitionTo(RideStatusCancelled, testNow); err != nil {
		t.Fatalf("active -> cancelled failed: %v", err)
	}
	if r.CompletedAt != nil {
		t.Error("cancellation stamped CompletedAt")
	}

	r = newTestRide()
	r.Status = RideStatusFull
	if err := r.TransitionTo(RideStatusCompleted, testNow); err != nil {
		t.Fatalf("full -> completed failed: %v", err)
	}

	r = newTestRide()
	if err := r.TransitionTo("busy", testNow); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("unknown status: expected validation error, got %v", err)
	}
}

func TestRefreshStatus(t *testing.T) {
	r := newTestRide()
	r.SeatsAvailable = 0
	r.RefreshStatus()
	if r.Status != RideStatusFull {
		t.Errorf("active with 0 seats: status = %s, want full", r.Status)
	}

	r.SeatsAvailable = 2
	r.RefreshStatus()
	if r.Status != RideStatusActive {
		t.Errorf("full with 2 seats: status = %s, want active", r.Status)
	}

	r.Status = RideStatusCompleted
	r.SeatsAvailable = 0
	r.RefreshStatus()
	if r.Status != RideStatusCompleted {
		t.Errorf("completed ride flipped to %s", r.Status)
	}
}

func TestCanAccommodate(t *testing.T) {
	r := newTestRide()
	r.SeatsAvailable = 2

	if !r.CanAccommodate(1) || !r.CanAccommodate(2) {
		t.Error("2 available seats should accommodate 1 and 2")
	}
	if r.CanAccommodate(3) {
		t.Error("2 available seats accommodated 3")
	}
	if r.CanAccommodate(0) {
		t.Error("accommodated 0 seats")
	}

	r.Status = RideStatusFull
	r.SeatsAvailable = 0
	if r.CanAccommodate(1) {
		t.Error("full ride accommodated a seat")
	}
}

func TestAuthorizeDriver(t *testing.T) {
	r := newTestRide()
	if err := r.AuthorizeDriver(1); err != nil {
		t.Errorf("owner rejected: %v", err)
	}
	if err := r.AuthorizeDriver(2); !apperrors.IsKind(err, apperrors.KindAuthorization) {
		t.Errorf("expected authorization error, got %v", err)
	}
}

func TestApplyUpdateSeatFloor(t *testing.T) {
	r := newTestRide()
	r.SeatsAvailable = 1 // 3 seats booked

	two := 2
	err := r.ApplyUpdate(RideUpdate{TotalSeats: &two}, testNow)
	if !apperrors.IsKind(err, apperrors.KindCapacity) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if r.TotalSeats != 4 {
		t.Errorf("failed update changed TotalSeats to %d", r.TotalSeats)
	}

	six := 6
	if err := r.ApplyUpdate(RideUpdate{TotalSeats: &six}, testNow); err != nil {
		t.Fatalf("raising seats failed: %v", err)
	}
	if r.TotalSeats != 6 || r.SeatsAvailable != 3 {
		t.Errorf("got total=%d available=%d, want 6/3", r.TotalSeats, r.SeatsAvailable)
	}
}

func TestApplyUpdateSeatsExactlyBooked(t *testing.T) {
	r := newTestRide()
	r.SeatsAvailable = 1 // 3 seats booked

	three := 3
	if err := r.ApplyUpdate(RideUpdate{TotalSeats: &three}, testNow); err != nil {
		t.Fatalf("shrinking to booked count failed: %v", err)
	}
	if r.SeatsAvailable != 0 {
		t.Errorf("SeatsAvailable = %d, want 0", r.SeatsAvailable)
	}
	if r.Status != RideStatusFull {
		t.Errorf("status = %s, want full", r.Status)
	}
}

// A details-only edit must be applied to the current row state: when a
// booking took a seat between the driver opening the form and saving,
// the edit keeps the decremented counter instead of restoring the old one.
func TestApplyUpdateKeepsBookedSeats(t *testing.T) {
	r := newTestRide()
	r.SeatsAvailable = 3 // one seat booked meanwhile

	notes := "leaving from the east gate"
	if err := r.ApplyUpdate(RideUpdate{Notes: &notes}, testNow); err != nil {
		t.Fatalf("notes update failed: %v", err)
	}
	if r.SeatsAvailable != 3 {
		t.Errorf("SeatsAvailable = %d, want 3", r.SeatsAvailable)
	}
	if r.TotalSeats != 4 || r.Status != RideStatusActive {
		t.Errorf("edit disturbed total=%d status=%s", r.TotalSeats, r.Status)
	}
}

func TestApplyUpdateValidation(t *testing.T) {
	r := newTestRide()
	bad := -0.5
	err := r.ApplyUpdate(RideUpdate{CostPerSeat: &bad}, testNow)
	expectValidation(t, err, "costPerSeat")

	r = newTestRide()
	past := testNow.Add(-time.Minute)
	err = r.ApplyUpdate(RideUpdate{DepartureAt: &past}, testNow)
	expectValidation(t, err, "departureAt")

	r = newTestRide()
	r.Status = RideStatusCancelled
	notes := "meet at the gate"
	if err := r.ApplyUpdate(RideUpdate{Notes: &notes}, testNow); !apperrors.IsKind(err, apperrors.KindState) {
		t.Errorf("editing a cancelled ride: expected state error, got %v", err)
	}

	r = newTestRide()
	if err := r.ApplyUpdate(RideUpdate{Notes: &notes}, testNow); err != nil {
		t.Fatalf("notes update failed: %v", err)
	}
	if r.Notes != notes {
		t.Errorf("Notes = %q, want %q", r.Notes, notes)
	}
}
