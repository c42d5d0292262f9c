package models

import (
	"testing"

	"github.com/uniride-app/uniride-backend/internal/apperrors"
)

func TestNewBooking(t *testing.T) {
	ride := newTestRide()
	ride.CostPerSeat = 5

	b, err := NewBooking(ride, 2, GenderFemale, 3)
	if err != nil {
		t.Fatalf("NewBooking failed: %v", err)
	}
	if b.RideID != ride.ID || b.RiderID != 2 || b.DriverID != ride.DriverID {
		t.Errorf("identity fields wrong: %+v", b)
	}
	if b.SeatsBooked != 3 || b.CostPerSeat != 5 || b.TotalCost != 15 {
		t.Errorf("seat math wrong: seats=%d cost=%v total=%v", b.SeatsBooked, b.CostPerSeat, b.TotalCost)
	}
	if b.Status != BookingStatusActive {
		t.Errorf("status = %s, want active", b.Status)
	}
}

func TestNewBookingRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Ride)
		rider  uint
		gender string
		seats  int
		kind   apperrors.Kind
	}{
		{"own ride", func(r *Ride) {}, 1, GenderMale, 1, apperrors.KindState},
		{"full ride", func(r *Ride) { r.Status = RideStatusFull; r.SeatsAvailable = 0 }, 2, GenderMale, 1, apperrors.KindState},
		{"cancelled ride", func(r *Ride) { r.Status = RideStatusCancelled }, 2, GenderMale, 1, apperrors.KindState},
		{"zero seats", func(r *Ride) {}, 2, GenderMale, 0, apperrors.KindValidation},
		{"too many seats", func(r *Ride) { r.SeatsAvailable = 2 }, 2, GenderMale, 3, apperrors.KindCapacity},
		{"gender restricted", func(r *Ride) { r.GenderPreference = GenderPrefFemale }, 2, GenderMale, 1, apperrors.KindAuthorization},
		{"gender unknown on restricted ride", func(r *Ride) { r.GenderPreference = GenderPrefFemale }, 2, "", 1, apperrors.KindAuthorization},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ride := newTestRide()
			tc.mutate(ride)
			_, err := NewBooking(ride, tc.rider, tc.gender, tc.seats)
			if !apperrors.IsKind(err, tc.kind) {
				t.Errorf("expected %s, got %v", tc.kind, err)
			}
		})
	}
}

func TestNewBookingGenderMatch(t *testing.T) {
	ride := newTestRide()
	ride.GenderPreference = GenderPrefFemale
	if _, err := NewBooking(ride, 2, GenderFemale, 1); err != nil {
		t.Errorf("matching gender rejected: %v", err)
	}

	ride = newTestRide()
	if _, err := NewBooking(ride, 2, "", 1); err != nil {
		t.Errorf("open ride rejected rider without recorded gender: %v", err)
	}
}

func TestBookingCancel(t *testing.T) {
	b := &Booking{Status: BookingStatusActive}
	if err := b.Cancel(); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if b.Status != BookingStatusCancelled {
		t.Errorf("status = %s, want cancelled", b.Status)
	}
	if err := b.Cancel(); !apperrors.IsKind(err, apperrors.KindState) {
		t.Errorf("double cancel: expected state error, got %v", err)
	}

	b = &Booking{Status: BookingStatusCompleted}
	if err := b.Cancel(); !apperrors.IsKind(err, apperrors.KindState) {
		t.Errorf("cancel after completion: expected state error, got %v", err)
	}
}

func TestBookingAuthorizeRider(t *testing.T) {
	b := &Booking{RiderID: 7}
	if err := b.AuthorizeRider(7); err != nil {
		t.Errorf("owner rejected: %v", err)
	}
	if err := b.AuthorizeRider(8); !apperrors.IsKind(err, apperrors.KindAuthorization) {
		t.Errorf("expected authorization error, got %v", err)
	}
}
