package handlers

import (
	"context"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/uniride-app/uniride-backend/internal/apperrors"
	"github.com/uniride-app/uniride-backend/internal/models"
	"github.com/uniride-app/uniride-backend/internal/observability"
	"github.com/uniride-app/uniride-backend/internal/services"
	"github.com/uniride-app/uniride-backend/pkg/utils"
	"gorm.io/gorm"
)

// CreateBooking reserves seats on a ride. The booking row and the seat
// decrement commit in one transaction; the decrement is conditional on
// the ride still being active with enough seats, so racing bookings
// cannot oversell.
func CreateBooking(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		userRole := c.GetString("userRole")

		if userRole != string(models.UserRoleRider) {
			respondError(c, apperrors.Authorization("only riders can book seats"))
			return
		}

		var input struct {
			RideID uint `json:"rideId" binding:"required"`
			Seats  int  `json:"seats" binding:"required,min=1"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindingError(c, err)
			return
		}

		var rider models.User
		if err := db.First(&rider, userId).Error; err != nil {
			respondError(c, apperrors.NotFound("user"))
			return
		}

		var existing int64
		db.Model(&models.Booking{}).
			Where("ride_id = ? AND rider_id = ? AND status = ?", input.RideID, userId, models.BookingStatusActive).
			Count(&existing)
		if existing > 0 {
			respondError(c, apperrors.State("you already have a booking on this ride"))
			return
		}

		tx := db.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		var ride models.Ride
		if err := tx.First(&ride, input.RideID).Error; err != nil {
			tx.Rollback()
			respondError(c, apperrors.NotFound("ride"))
			return
		}

		booking, err := models.NewBooking(&ride, userId, rider.Gender, input.Seats)
		if err != nil {
			tx.Rollback()
			if apperrors.IsKind(err, apperrors.KindCapacity) {
				observability.CapacityRejections.Inc()
			}
			respondError(c, err)
			return
		}

		if err := tx.Create(booking).Error; err != nil {
			tx.Rollback()
			respondError(c, err)
			return
		}

		// The guarded decrement is what serializes racing bookings
		res := tx.Model(&models.Ride{}).
			Where("id = ? AND status = ? AND seats_available >= ?", ride.ID, models.RideStatusActive, input.Seats).
			UpdateColumn("seats_available", gorm.Expr("seats_available - ?", input.Seats))
		if res.Error != nil {
			tx.Rollback()
			respondError(c, res.Error)
			return
		}
		if res.RowsAffected == 0 {
			tx.Rollback()
			observability.CapacityRejections.Inc()
			respondError(c, apperrors.Capacity("not enough seats available"))
			return
		}

		if err := tx.First(&ride, ride.ID).Error; err != nil {
			tx.Rollback()
			respondError(c, err)
			return
		}
		ride.RefreshStatus()
		if err := tx.Save(&ride).Error; err != nil {
			tx.Rollback()
			respondError(c, err)
			return
		}

		if err := tx.Model(&models.User{}).Where("id = ?", userId).
			UpdateColumn("total_rides_taken", gorm.Expr("total_rides_taken + 1")).Error; err != nil {
			tx.Rollback()
			respondError(c, err)
			return
		}

		if err := tx.Commit().Error; err != nil {
			respondError(c, err)
			return
		}

		observability.BookingsCreatedTotal.Inc()

		hub.SendBookingCreated(ride.DriverID, services.BookingCreated{
			RideID:         ride.ID,
			BookingID:      booking.ID,
			RiderID:        userId,
			RiderName:      rider.Username,
			Seats:          booking.SeatsBooked,
			SeatsAvailable: ride.SeatsAvailable,
			RideStatus:     string(ride.Status),
		})

		go notifyBookingCreated(db, ride, *booking, rider)

		respondData(c, 201, booking)
	}
}

func notifyBookingCreated(db *gorm.DB, ride models.Ride, booking models.Booking, rider models.User) {
	ctx := context.Background()

	var driver models.User
	if err := db.First(&driver, ride.DriverID).Error; err != nil {
		log.Printf("Failed to load driver %d for booking notices: %v", ride.DriverID, err)
		return
	}

	if driver.PushEnabled && driver.FCMToken != "" {
		if err := services.SendBookingCreatedNotification(ctx, driver.FCMToken, ride.ID, rider.Username, booking.SeatsBooked, ride.DestinationName); err != nil {
			log.Printf("Failed to push booking notice for ride %d: %v", ride.ID, err)
		}
	}
	if driver.EmailEnabled {
		if err := utils.SendBookingCreatedEmailToDriver(driver.Email, rider.Username, ride.DestinationName, booking.SeatsBooked); err != nil {
			log.Printf("Failed to email booking notice for ride %d: %v", ride.ID, err)
		}
	}

	services.PublishRideUpdate(ctx, ride.ID, "booked", map[string]interface{}{
		"seatsAvailable": ride.SeatsAvailable,
		"status":         string(ride.Status),
	})
}

// CancelBooking withdraws a booking and returns its seats to the ride
func CancelBooking(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		bookingID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			respondError(c, apperrors.Validation("id", "must be a numeric booking id"))
			return
		}

		var booking models.Booking
		if err := db.Preload("Ride").First(&booking, bookingID).Error; err != nil {
			respondError(c, apperrors.NotFound("booking"))
			return
		}

		if err := booking.AuthorizeRider(userId); err != nil {
			respondError(c, err)
			return
		}

		if err := booking.Cancel(); err != nil {
			respondError(c, err)
			return
		}

		tx := db.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		if err := tx.Save(&booking).Error; err != nil {
			tx.Rollback()
			respondError(c, err)
			return
		}

		// Returning seats only makes sense while the ride is still open
		if booking.Ride != nil && !booking.Ride.IsTerminal() {
			if err := tx.Model(&models.Ride{}).
				Where("id = ?", booking.RideID).
				UpdateColumn("seats_available", gorm.Expr("seats_available + ?", booking.SeatsBooked)).Error; err != nil {
				tx.Rollback()
				respondError(c, err)
				return
			}

			var ride models.Ride
			if err := tx.First(&ride, booking.RideID).Error; err != nil {
				tx.Rollback()
				respondError(c, err)
				return
			}
			ride.RefreshStatus()
			if err := tx.Save(&ride).Error; err != nil {
				tx.Rollback()
				respondError(c, err)
				return
			}
			booking.Ride = &ride
		}

		if err := tx.Model(&models.User{}).
			Where("id = ? AND total_rides_taken > 0", userId).
			UpdateColumn("total_rides_taken", gorm.Expr("total_rides_taken - 1")).Error; err != nil {
			tx.Rollback()
			respondError(c, err)
			return
		}

		if err := tx.Commit().Error; err != nil {
			respondError(c, err)
			return
		}

		if booking.Ride != nil {
			hub.SendBookingCancelled(booking.Ride.DriverID, services.BookingCancelled{
				RideID:         booking.RideID,
				BookingID:      booking.ID,
				RiderID:        userId,
				SeatsAvailable: booking.Ride.SeatsAvailable,
				RideStatus:     string(booking.Ride.Status),
			})

			go notifyBookingCancelled(db, *booking.Ride, booking, userId)
		}

		respondData(c, 200, booking)
	}
}

func notifyBookingCancelled(db *gorm.DB, ride models.Ride, booking models.Booking, riderID uint) {
	ctx := context.Background()

	var rider models.User
	if err := db.First(&rider, riderID).Error; err != nil {
		log.Printf("Failed to load rider %d for cancellation notices: %v", riderID, err)
		return
	}

	var driver models.User
	if err := db.First(&driver, ride.DriverID).Error; err != nil {
		log.Printf("Failed to load driver %d for cancellation notices: %v", ride.DriverID, err)
		return
	}

	if driver.PushEnabled && driver.FCMToken != "" {
		if err := services.SendBookingCancelledNotification(ctx, driver.FCMToken, ride.ID, rider.Username, ride.DestinationName); err != nil {
			log.Printf("Failed to push booking cancellation for ride %d: %v", ride.ID, err)
		}
	}
	if driver.EmailEnabled {
		if err := utils.SendBookingCancelledEmailToDriver(driver.Email, rider.Username, ride.DestinationName); err != nil {
			log.Printf("Failed to email booking cancellation for ride %d: %v", ride.ID, err)
		}
	}

	services.PublishRideUpdate(ctx, ride.ID, "booking_cancelled", map[string]interface{}{
		"seatsAvailable": ride.SeatsAvailable,
		"status":         string(ride.Status),
	})
}

// GetMyBookings retrieves the calling rider's bookings
func GetMyBookings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		query := db.Where("rider_id = ?", userId)
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var bookings []models.Booking
		if err := query.Preload("Ride").Preload("Ride.Driver").
			Order("created_at DESC").
			Find(&bookings).Error; err != nil {
			respondError(c, err)
			return
		}

		respondData(c, 200, bookings)
	}
}

// GetRideBookings retrieves the rider manifest for a driver's ride
func GetRideBookings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		rideID, ok := parseRideID(c)
		if !ok {
			return
		}

		var ride models.Ride
		if err := db.First(&ride, rideID).Error; err != nil {
			respondError(c, apperrors.NotFound("ride"))
			return
		}

		if err := ride.AuthorizeDriver(userId); err != nil {
			respondError(c, err)
			return
		}

		status := c.DefaultQuery("status", string(models.BookingStatusActive))

		var bookings []models.Booking
		if err := db.Preload("Rider").
			Where("ride_id = ? AND status = ?", rideID, status).
			Order("created_at ASC").
			Find(&bookings).Error; err != nil {
			respondError(c, err)
			return
		}

		seatsBooked := 0
		for _, b := range bookings {
			seatsBooked += b.SeatsBooked
		}

		respondData(c, 200, gin.H{
			"ride":        ride,
			"bookings":    bookings,
			"seatsBooked": seatsBooked,
		})
	}
}
