package handlers

import (
	"testing"
	"time"

	"github.com/uniride-app/uniride-backend/internal/apperrors"
)

func TestParseDeparture(t *testing.T) {
	got, err := parseDeparture("2026-09-01", "07:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2026, 9, 1, 7, 30, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseDepartureRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		date string
		time string
	}{
		{"swapped fields", "07:30", "2026-09-01"},
		{"american date", "09/01/2026", "07:30"},
		{"seconds included", "2026-09-01", "07:30:15"},
		{"empty time", "2026-09-01", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseDeparture(tc.date, tc.time)
			if err == nil {
				t.Fatalf("expected an error for %q %q", tc.date, tc.time)
			}
			if !apperrors.IsKind(err, apperrors.KindValidation) {
				t.Fatalf("expected a validation error, got %v", err)
			}
		})
	}
}
