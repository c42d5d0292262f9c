package models

import (
	"gorm.io/gorm"

	"github.com/uniride-app/uniride-backend/internal/apperrors"
)

// BookingStatus is the lifecycle state of a seat booking.
type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// Booking reserves seats on a ride for a rider. CostPerSeat is
// snapshotted at booking time so later ride edits do not change what
// was agreed; DriverID is denormalized for activity queries.
type Booking struct {
	gorm.Model
	RideID   uint  `json:"rideId" gorm:"not null;index"`
	Ride     *Ride `json:"ride,omitempty" gorm:"foreignKey:RideID"`
	RiderID  uint  `json:"riderId" gorm:"not null;index"`
	Rider    *User `json:"rider,omitempty" gorm:"foreignKey:RiderID"`
	DriverID uint  `json:"driverId" gorm:"not null;index"`

	SeatsBooked int           `json:"seatsBooked" gorm:"not null"`
	CostPerSeat float64       `json:"costPerSeat" gorm:"not null"`
	TotalCost   float64       `json:"totalCost" gorm:"not null"`
	Status      BookingStatus `json:"status" gorm:"not null;default:'active'"` // active, cancelled, completed
}

// TableName specifies the table name
func (Booking) TableName() string {
	return "bookings"
}

// NewBooking builds a booking for seats on the ride, enforcing the
// eligibility and capacity rules. The ride row itself is not modified;
// the caller decrements the seat counter in the same transaction that
// persists the booking.
func NewBooking(ride *Ride, riderID uint, riderGender string, seats int) (*Booking, error) {
	if ride.DriverID == riderID {
		return nil, apperrors.State("cannot book your own ride")
	}
	if ride.Status != RideStatusActive {
		return nil, apperrors.Statef("ride is %s", ride.Status)
	}
	if seats < 1 {
		return nil, apperrors.Validation("seats", "must be at least 1")
	}
	if !ride.AllowsGender(riderGender) {
		return nil, apperrors.Authorization("ride is limited to " + string(ride.GenderPreference) + " riders")
	}
	if seats > ride.SeatsAvailable {
		return nil, apperrors.Capacityf("only %d seats available", ride.SeatsAvailable)
	}
	return &Booking{
		RideID:      ride.ID,
		RiderID:     riderID,
		DriverID:    ride.DriverID,
		SeatsBooked: seats,
		CostPerSeat: ride.CostPerSeat,
		TotalCost:   float64(seats) * ride.CostPerSeat,
		Status:      BookingStatusActive,
	}, nil
}

// Cancel marks the booking cancelled. Terminal bookings reject the change.
func (b *Booking) Cancel() error {
	switch b.Status {
	case BookingStatusCancelled:
		return apperrors.State("booking is already cancelled")
	case BookingStatusCompleted:
		return apperrors.State("booking is already completed")
	}
	b.Status = BookingStatusCancelled
	return nil
}

// AuthorizeRider rejects mutations by anyone but the booking rider.
func (b *Booking) AuthorizeRider(userID uint) error {
	if b.RiderID != userID {
		return apperrors.Authorization("only the booking owner can do this")
	}
	return nil
}
