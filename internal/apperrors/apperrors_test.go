package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := Validation("totalSeats", "must be between 1 and 8")
	want := "validation_error: totalSeats: must be between 1 and 8"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	err = Capacity("only 2 seats available")
	want = "capacity_error: only 2 seats available"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestKindOfWrapped(t *testing.T) {
	base := NotFound("ride")
	wrapped := fmt.Errorf("loading ride: %w", base)

	if KindOf(wrapped) != KindNotFound {
		t.Errorf("KindOf(wrapped) = %q, want %q", KindOf(wrapped), KindNotFound)
	}
	if !IsKind(wrapped, KindNotFound) {
		t.Error("IsKind(wrapped, KindNotFound) = false, want true")
	}
	if IsKind(wrapped, KindCapacity) {
		t.Error("IsKind(wrapped, KindCapacity) = true, want false")
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != "" {
		t.Errorf("KindOf(plain error) = %q, want empty", got)
	}
}

func TestStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("cost", "must be non-negative"), 400},
		{"not found", NotFound("booking"), 404},
		{"authorization", Authorization("not the ride owner"), 403},
		{"capacity", Capacity("ride is full"), 409},
		{"state", State("ride already completed"), 409},
		{"plain", errors.New("db down"), 500},
		{"nil", nil, 500},
	}

	for _, tc := range cases {
		if got := StatusCode(tc.err); got != tc.want {
			t.Errorf("%s: StatusCode = %d, want %d", tc.name, got, tc.want)
		}
	}
}
