package models

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/uniride-app/uniride-backend/internal/apperrors"
)

// RideStatus is the lifecycle state of a published ride.
type RideStatus string

const (
	RideStatusActive    RideStatus = "active"
	RideStatusFull      RideStatus = "full"
	RideStatusCompleted RideStatus = "completed"
	RideStatusCancelled RideStatus = "cancelled"
)

// GenderPreference restricts who may book a ride.
type GenderPreference string

const (
	GenderPrefMale   GenderPreference = "male"
	GenderPrefFemale GenderPreference = "female"
	GenderPrefAny    GenderPreference = "any"
)

// Seat bounds for a published ride.
const (
	MinSeats = 1
	MaxSeats = 8
)

// rideTransitions lists the statuses reachable from each status. The
// active/full pair is driven by the seat counter; completed and
// cancelled are terminal.
var rideTransitions = map[RideStatus][]RideStatus{
	RideStatusActive:    {RideStatusFull, RideStatusCompleted, RideStatusCancelled},
	RideStatusFull:      {RideStatusActive, RideStatusCompleted, RideStatusCancelled},
	RideStatusCompleted: {},
	RideStatusCancelled: {},
}

// Ride is a scheduled trip published by a driver. SeatsAvailable is the
// live counter bookings decrement; vehicle fields are snapshotted from
// the driver profile so listings survive later profile edits.
type Ride struct {
	gorm.Model
	DriverID uint  `json:"driverId" gorm:"not null;index"`
	Driver   *User `json:"driver,omitempty" gorm:"foreignKey:DriverID"`

	PickupName      string  `json:"pickupName" gorm:"not null"`
	DestinationName string  `json:"destinationName" gorm:"not null"`
	PickupLat       float64 `json:"pickupLat" gorm:"not null"`
	PickupLng       float64 `json:"pickupLng" gorm:"not null"`
	DestLat         float64 `json:"destLat" gorm:"not null"`
	DestLng         float64 `json:"destLng" gorm:"not null"`

	DepartureAt time.Time `json:"departureAt" gorm:"not null;index"`

	TotalSeats     int     `json:"totalSeats" gorm:"not null"`
	SeatsAvailable int     `json:"seatsAvailable" gorm:"not null"`
	CostPerSeat    float64 `json:"costPerSeat" gorm:"not null"`

	GenderPreference GenderPreference `json:"genderPreference" gorm:"not null;default:'any'"` // male, female, any
	Status           RideStatus       `json:"status" gorm:"not null;default:'active';index"`  // active, full, completed, cancelled
	Notes            string           `json:"notes,omitempty"`

	// Vehicle snapshot taken at publish time
	CarMake  string `json:"carMake,omitempty"`
	CarModel string `json:"carModel,omitempty"`
	CarColor string `json:"carColor,omitempty"`
	CarPlate string `json:"carPlate,omitempty"`

	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Archived    bool       `json:"archived" gorm:"not null;default:false;index"`
	ArchivedAt  *time.Time `json:"archivedAt,omitempty"`

	Bookings []Booking `json:"bookings,omitempty" gorm:"foreignKey:RideID"`
}

// TableName specifies the table name
func (Ride) TableName() string {
	return "rides"
}

func validGenderPreference(p GenderPreference) bool {
	return p == GenderPrefMale || p == GenderPrefFemale || p == GenderPrefAny
}

func validLatLng(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// ValidateForCreate checks the field constraints for a new ride. The
// same rules apply when a ride is edited.
func (r *Ride) ValidateForCreate(now time.Time) error {
	if strings.TrimSpace(r.PickupName) == "" {
		return apperrors.Validation("pickupName", "is required")
	}
	if strings.TrimSpace(r.DestinationName) == "" {
		return apperrors.Validation("destinationName", "is required")
	}
	if !validLatLng(r.PickupLat, r.PickupLng) {
		return apperrors.Validation("pickup", "coordinates out of range")
	}
	if !validLatLng(r.DestLat, r.DestLng) {
		return apperrors.Validation("destination", "coordinates out of range")
	}
	if r.TotalSeats < MinSeats || r.TotalSeats > MaxSeats {
		return apperrors.Validationf("totalSeats", "must be between %d and %d", MinSeats, MaxSeats)
	}
	if r.CostPerSeat < 0 {
		return apperrors.Validation("costPerSeat", "must not be negative")
	}
	if !validGenderPreference(r.GenderPreference) {
		return apperrors.Validation("genderPreference", "must be male, female or any")
	}
	if !r.DepartureAt.After(now) {
		return apperrors.Validation("departureAt", "must be in the future")
	}
	return nil
}

// AuthorizeDriver rejects mutations by anyone but the owning driver.
func (r *Ride) AuthorizeDriver(userID uint) error {
	if r.DriverID != userID {
		return apperrors.Authorization("only the ride owner can do this")
	}
	return nil
}

// IsTerminal reports whether the ride reached a final status.
func (r *Ride) IsTerminal() bool {
	return r.Status == RideStatusCompleted || r.Status == RideStatusCancelled
}

// SeatsBooked returns the number of seats currently taken.
func (r *Ride) SeatsBooked() int {
	return r.TotalSeats - r.SeatsAvailable
}

// CanAccommodate reports whether n more seats can be booked right now.
func (r *Ride) CanAccommodate(n int) bool {
	return r.Status == RideStatusActive && n >= 1 && n <= r.SeatsAvailable
}

// AllowsGender reports whether a rider of the given gender may book.
func (r *Ride) AllowsGender(gender string) bool {
	return r.GenderPreference == GenderPrefAny || string(r.GenderPreference) == gender
}

// CanTransitionTo reports whether the lifecycle allows moving to target.
func (r *Ride) CanTransitionTo(target RideStatus) bool {
	for _, s := range rideTransitions[r.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// TransitionTo moves the ride to target, stamping CompletedAt on
// completion. Repeating a transition or leaving a terminal status is a
// state error and leaves the ride untouched.
func (r *Ride) TransitionTo(target RideStatus, now time.Time) error {
	if !validRideStatus(target) {
		return apperrors.Validationf("status", "unknown status %q", target)
	}
	if r.Status == target {
		return apperrors.Statef("ride is already %s", target)
	}
	if !r.CanTransitionTo(target) {
		return apperrors.Statef("cannot change a %s ride to %s", r.Status, target)
	}
	r.Status = target
	if target == RideStatusCompleted {
		t := now
		r.CompletedAt = &t
	}
	return nil
}

func validRideStatus(s RideStatus) bool {
	_, ok := rideTransitions[s]
	return ok
}

// RefreshStatus flips active to full and back as the seat counter
// crosses zero. Terminal statuses are never touched.
func (r *Ride) RefreshStatus() {
	switch {
	case r.Status == RideStatusActive && r.SeatsAvailable == 0:
		r.Status = RideStatusFull
	case r.Status == RideStatusFull && r.SeatsAvailable > 0:
		r.Status = RideStatusActive
	}
}

// RideUpdate carries the editable ride fields. Nil keeps the current value.
type RideUpdate struct {
	PickupName       *string
	DestinationName  *string
	PickupLat        *float64
	PickupLng        *float64
	DestLat          *float64
	DestLng          *float64
	DepartureAt      *time.Time
	TotalSeats       *int
	CostPerSeat      *float64
	GenderPreference *GenderPreference
	Notes            *string
}

// ApplyUpdate edits the ride in place. Terminal rides reject edits,
// TotalSeats can never drop below the seats already booked, and the
// merged result must satisfy the creation constraints again. On a seat
// change SeatsAvailable is recomputed and the status re-derived. On
// error the receiver must be discarded, not saved.
func (r *Ride) ApplyUpdate(u RideUpdate, now time.Time) error {
	if r.IsTerminal() {
		return apperrors.Statef("cannot edit a %s ride", r.Status)
	}
	if u.TotalSeats != nil {
		if *u.TotalSeats < MinSeats || *u.TotalSeats > MaxSeats {
			return apperrors.Validationf("totalSeats", "must be between %d and %d", MinSeats, MaxSeats)
		}
		booked := r.SeatsBooked()
		if *u.TotalSeats < booked {
			return apperrors.Capacityf("cannot reduce seats below the %d already booked", booked)
		}
		r.TotalSeats = *u.TotalSeats
		r.SeatsAvailable = *u.TotalSeats - booked
	}
	if u.PickupName != nil {
		r.PickupName = *u.PickupName
	}
	if u.DestinationName != nil {
		r.DestinationName = *u.DestinationName
	}
	if u.PickupLat != nil {
		r.PickupLat = *u.PickupLat
	}
	if u.PickupLng != nil {
		r.PickupLng = *u.PickupLng
	}
	if u.DestLat != nil {
		r.DestLat = *u.DestLat
	}
	if u.DestLng != nil {
		r.DestLng = *u.DestLng
	}
	if u.DepartureAt != nil {
		r.DepartureAt = *u.DepartureAt
	}
	if u.CostPerSeat != nil {
		r.CostPerSeat = *u.CostPerSeat
	}
	if u.GenderPreference != nil {
		r.GenderPreference = *u.GenderPreference
	}
	if u.Notes != nil {
		r.Notes = *u.Notes
	}
	if err := r.ValidateForCreate(now); err != nil {
		return err
	}
	r.RefreshStatus()
	return nil
}
