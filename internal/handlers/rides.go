package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uniride-app/uniride-backend/internal/apperrors"
	"github.com/uniride-app/uniride-backend/internal/models"
	"github.com/uniride-app/uniride-backend/internal/observability"
	"github.com/uniride-app/uniride-backend/internal/services"
	"github.com/uniride-app/uniride-backend/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Points awarded when a ride completes.
const (
	driverPointsPerRide = 50
	driverPointsPerSeat = 10
	riderPointsPerRide  = 20
)

func parseRideID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, apperrors.Validation("id", "must be a numeric ride id"))
		return 0, false
	}
	return uint(id), true
}

// parseDeparture combines the date and time request fields into one timestamp.
func parseDeparture(dateStr, timeStr string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", dateStr+" "+timeStr, time.Local)
	if err != nil {
		return time.Time{}, apperrors.Validation("date", "expected date as 2006-01-02 and time as 15:04")
	}
	return t, nil
}

// activeRiderIDs returns the riders holding active bookings on the ride.
func activeRiderIDs(db *gorm.DB, rideID uint) []uint {
	var ids []uint
	db.Model(&models.Booking{}).
		Where("ride_id = ? AND status = ?", rideID, models.BookingStatusActive).
		Pluck("rider_id", &ids)
	return ids
}

// CreateRide publishes a new ride offer by a driver
func CreateRide(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		userRole := c.GetString("userRole")

		if userRole != string(models.UserRoleDriver) {
			respondError(c, apperrors.Authorization("only drivers can publish rides"))
			return
		}

		var input struct {
			PickupName       string   `json:"pickupName" binding:"required"`
			DestinationName  string   `json:"destinationName" binding:"required"`
			PickupLat        *float64 `json:"pickupLat" binding:"required"`
			PickupLng        *float64 `json:"pickupLng" binding:"required"`
			DestLat          *float64 `json:"destLat" binding:"required"`
			DestLng          *float64 `json:"destLng" binding:"required"`
			Date             string   `json:"date" binding:"required"`
			Time             string   `json:"time" binding:"required"`
			TotalSeats       int      `json:"totalSeats" binding:"required"`
			CostPerSeat      *float64 `json:"costPerSeat" binding:"required"`
			GenderPreference string   `json:"genderPreference" binding:"omitempty,oneof=male female any"`
			Notes            string   `json:"notes"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindingError(c, err)
			return
		}

		departureAt, err := parseDeparture(input.Date, input.Time)
		if err != nil {
			respondError(c, err)
			return
		}

		var driver models.User
		if err := db.First(&driver, userId).Error; err != nil {
			respondError(c, apperrors.NotFound("user"))
			return
		}

		if input.GenderPreference == "" {
			input.GenderPreference = string(models.GenderPrefAny)
		}

		ride := models.Ride{
			DriverID:         userId,
			PickupName:       input.PickupName,
			DestinationName:  input.DestinationName,
			PickupLat:        *input.PickupLat,
			PickupLng:        *input.PickupLng,
			DestLat:          *input.DestLat,
			DestLng:          *input.DestLng,
			DepartureAt:      departureAt,
			TotalSeats:       input.TotalSeats,
			SeatsAvailable:   input.TotalSeats,
			CostPerSeat:      *input.CostPerSeat,
			GenderPreference: models.GenderPreference(input.GenderPreference),
			Status:           models.RideStatusActive,
			Notes:            input.Notes,
			CarMake:          driver.CarMake,
			CarModel:         driver.CarModel,
			CarColor:         driver.CarColor,
			CarPlate:         driver.CarPlate,
		}

		if err := ride.ValidateForCreate(time.Now()); err != nil {
			respondError(c, err)
			return
		}

		tx := db.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		if err := tx.Create(&ride).Error; err != nil {
			tx.Rollback()
			respondError(c, err)
			return
		}

		if err := tx.Model(&models.User{}).Where("id = ?", userId).
			UpdateColumn("total_rides_offered", gorm.Expr("total_rides_offered + 1")).Error; err != nil {
			tx.Rollback()
			respondError(c, err)
			return
		}

		if err := tx.Commit().Error; err != nil {
			respondError(c, err)
			return
		}

		observability.RidesCreatedTotal.Inc()

		hub.SendNewRideAvailable(services.NewRideAvailable{
			RideID:          ride.ID,
			PickupName:      ride.PickupName,
			DestinationName: ride.DestinationName,
			DepartureAt:     ride.DepartureAt.Format(time.RFC3339),
			CostPerSeat:     ride.CostPerSeat,
			SeatsAvailable:  ride.SeatsAvailable,
		})

		go func() {
			ctx := context.Background()
			if err := services.SendNewRideAvailableNotification(ctx, ride.ID, ride.PickupName, ride.DestinationName, ride.CostPerSeat); err != nil {
				log.Printf("Failed to announce ride %d on the riders topic: %v", ride.ID, err)
			}
			services.PublishRideUpdate(ctx, ride.ID, "created", map[string]interface{}{
				"pickupName":      ride.PickupName,
				"destinationName": ride.DestinationName,
				"departureAt":     ride.DepartureAt.Format(time.RFC3339),
			})
		}()

		respondData(c, 201, ride)
	}
}

// UpdateRide edits an editable ride's details
func UpdateRide(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		rideID, ok := parseRideID(c)
		if !ok {
			return
		}

		var input struct {
			PickupName       *string  `json:"pickupName"`
			DestinationName  *string  `json:"destinationName"`
			PickupLat        *float64 `json:"pickupLat"`
			PickupLng        *float64 `json:"pickupLng"`
			DestLat          *float64 `json:"destLat"`
			DestLng          *float64 `json:"destLng"`
			Date             *string  `json:"date"`
			Time             *string  `json:"time"`
			TotalSeats       *int     `json:"totalSeats"`
			CostPerSeat      *float64 `json:"costPerSeat"`
			GenderPreference *string  `json:"genderPreference" binding:"omitempty,oneof=male female any"`
			Notes            *string  `json:"notes"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindingError(c, err)
			return
		}

		if (input.Date == nil) != (input.Time == nil) {
			respondError(c, apperrors.Validation("date", "date and time must be provided together"))
			return
		}

		update := models.RideUpdate{
			PickupName:      input.PickupName,
			DestinationName: input.DestinationName,
			PickupLat:       input.PickupLat,
			PickupLng:       input.PickupLng,
			DestLat:         input.DestLat,
			DestLng:         input.DestLng,
			TotalSeats:      input.TotalSeats,
			CostPerSeat:     input.CostPerSeat,
			Notes:           input.Notes,
		}
		if input.GenderPreference != nil {
			pref := models.GenderPreference(*input.GenderPreference)
			update.GenderPreference = &pref
		}
		if input.Date != nil {
			departureAt, err := parseDeparture(*input.Date, *input.Time)
			if err != nil {
				respondError(c, err)
				return
			}
			update.DepartureAt = &departureAt
		}

		tx := db.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		// Save writes the whole row, so the ride is locked for the edit to
		// keep a concurrent booking's seat decrement from being overwritten.
		var ride models.Ride
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ride, rideID).Error; err != nil {
			tx.Rollback()
			respondError(c, apperrors.NotFound("ride"))
			return
		}

		if err := ride.AuthorizeDriver(userId); err != nil {
			tx.Rollback()
			respondError(c, err)
			return
		}

		if err := ride.ApplyUpdate(update, time.Now()); err != nil {
			tx.Rollback()
			respondError(c, err)
			return
		}

		if err := tx.Save(&ride).Error; err != nil {
			tx.Rollback()
			respondError(c, err)
			return
		}

		if err := tx.Commit().Error; err != nil {
			respondError(c, err)
			return
		}

		riderIDs := activeRiderIDs(db, ride.ID)
		hub.SendRideUpdated(riderIDs, services.RideUpdated{
			RideID:         ride.ID,
			Status:         string(ride.Status),
			SeatsAvailable: ride.SeatsAvailable,
			DepartureAt:    ride.DepartureAt.Format(time.RFC3339),
		})

		go func() {
			services.PublishRideUpdate(context.Background(), ride.ID, "updated", map[string]interface{}{
				"status":         string(ride.Status),
				"seatsAvailable": ride.SeatsAvailable,
			})
		}()

		respondData(c, 200, ride)
	}
}

// UpdateRideStatus moves a ride to a terminal status. The active/full
// pair is driven by the seat counter and cannot be set by hand.
func UpdateRideStatus(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		rideID, ok := parseRideID(c)
		if !ok {
			return
		}

		var input struct {
			Status string `json:"status" binding:"required,oneof=completed cancelled"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindingError(c, err)
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

		if models.RideStatus(input.Status) == models.RideStatusCompleted {
			finishRide(c, db, hub, &ride)
			return
		}
		callOffRide(c, db, hub, &ride)
	}
}

// CompleteRide marks a ride completed, settles its bookings and awards points
func CompleteRide(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
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

		finishRide(c, db, hub, &ride)
	}
}

// CancelRide calls off a ride and releases its booked riders
func CancelRide(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
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

		callOffRide(c, db, hub, &ride)
	}
}

func finishRide(c *gin.Context, db *gorm.DB, hub *services.Hub, ride *models.Ride) {
	if err := ride.TransitionTo(models.RideStatusCompleted, time.Now()); err != nil {
		respondError(c, err)
		return
	}

	var bookings []models.Booking
	db.Preload("Rider").
		Where("ride_id = ? AND status = ?", ride.ID, models.BookingStatusActive).
		Find(&bookings)

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Save(ride).Error; err != nil {
		tx.Rollback()
		respondError(c, err)
		return
	}

	if err := tx.Model(&models.Booking{}).
		Where("ride_id = ? AND status = ?", ride.ID, models.BookingStatusActive).
		Update("status", models.BookingStatusCompleted).Error; err != nil {
		tx.Rollback()
		respondError(c, err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		respondError(c, err)
		return
	}

	riderIDs := make([]uint, 0, len(bookings))
	for _, b := range bookings {
		riderIDs = append(riderIDs, b.RiderID)
	}
	hub.SendRideCompleted(riderIDs, services.RideCompleted{RideID: ride.ID})

	go settleCompletion(db, *ride, bookings)

	respondData(c, 200, gin.H{"message": "Ride completed", "ride": ride})
}

// settleCompletion awards leaderboard points and fans out completion notices
func settleCompletion(db *gorm.DB, ride models.Ride, bookings []models.Booking) {
	ctx := context.Background()

	seatsCarried := 0
	for _, b := range bookings {
		seatsCarried += b.SeatsBooked
	}

	driverPoints := driverPointsPerRide + driverPointsPerSeat*seatsCarried
	if err := services.AddLeaderboardPoints(ctx, ride.DriverID, driverPoints); err != nil {
		log.Printf("Failed to add driver points for ride %d: %v", ride.ID, err)
	}
	db.Model(&models.User{}).Where("id = ?", ride.DriverID).
		UpdateColumn("points", gorm.Expr("points + ?", driverPoints))

	tokens := make([]string, 0, len(bookings))
	for _, b := range bookings {
		if err := services.AddLeaderboardPoints(ctx, b.RiderID, riderPointsPerRide); err != nil {
			log.Printf("Failed to add rider points for booking %d: %v", b.ID, err)
		}
		db.Model(&models.User{}).Where("id = ?", b.RiderID).
			UpdateColumn("points", gorm.Expr("points + ?", riderPointsPerRide))

		if b.Rider == nil {
			continue
		}
		if b.Rider.PushEnabled && b.Rider.FCMToken != "" {
			tokens = append(tokens, b.Rider.FCMToken)
		}
		if b.Rider.EmailEnabled {
			if err := utils.SendRideCompletedEmailToRider(b.Rider.Email, ride.DestinationName); err != nil {
				log.Printf("Failed to send completion email for ride %d: %v", ride.ID, err)
			}
		}
	}

	if len(tokens) > 0 {
		if _, err := services.SendRideCompletedNotification(ctx, tokens, ride.ID, ride.DestinationName); err != nil {
			log.Printf("Failed to send completion notifications for ride %d: %v", ride.ID, err)
		}
	}

	services.PublishRideUpdate(ctx, ride.ID, "completed", map[string]interface{}{
		"seatsCarried": seatsCarried,
	})
}

func callOffRide(c *gin.Context, db *gorm.DB, hub *services.Hub, ride *models.Ride) {
	if err := ride.TransitionTo(models.RideStatusCancelled, time.Now()); err != nil {
		respondError(c, err)
		return
	}

	var bookings []models.Booking
	db.Preload("Rider").
		Where("ride_id = ? AND status = ?", ride.ID, models.BookingStatusActive).
		Find(&bookings)

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Save(ride).Error; err != nil {
		tx.Rollback()
		respondError(c, err)
		return
	}

	if err := tx.Model(&models.Booking{}).
		Where("ride_id = ? AND status = ?", ride.ID, models.BookingStatusActive).
		Update("status", models.BookingStatusCancelled).Error; err != nil {
		tx.Rollback()
		respondError(c, err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		respondError(c, err)
		return
	}

	riderIDs := make([]uint, 0, len(bookings))
	for _, b := range bookings {
		riderIDs = append(riderIDs, b.RiderID)
	}
	hub.SendRideCancelled(riderIDs, services.RideCancelled{
		RideID:          ride.ID,
		PickupName:      ride.PickupName,
		DestinationName: ride.DestinationName,
	})

	go settleCancellation(*ride, bookings)

	respondData(c, 200, gin.H{"message": "Ride cancelled", "ride": ride})
}

// settleCancellation notifies released riders and clears the ride's
// realtime state
func settleCancellation(ride models.Ride, bookings []models.Booking) {
	ctx := context.Background()

	tokens := make([]string, 0, len(bookings))
	for _, b := range bookings {
		if b.Rider == nil {
			continue
		}
		if b.Rider.PushEnabled && b.Rider.FCMToken != "" {
			tokens = append(tokens, b.Rider.FCMToken)
		}
		if b.Rider.EmailEnabled {
			if err := utils.SendRideCancelledEmailToRider(b.Rider.Email, ride.PickupName, ride.DestinationName); err != nil {
				log.Printf("Failed to send cancellation email for ride %d: %v", ride.ID, err)
			}
		}
	}

	if len(tokens) > 0 {
		if _, err := services.SendRideCancelledNotification(ctx, tokens, ride.ID, ride.PickupName, ride.DestinationName); err != nil {
			log.Printf("Failed to send cancellation notifications for ride %d: %v", ride.ID, err)
		}
	}

	if err := services.DeleteRideChat(ctx, ride.ID); err != nil {
		log.Printf("Failed to clear chat for cancelled ride %d: %v", ride.ID, err)
	}
	if err := services.ClearRideTracking(ctx, ride.ID); err != nil {
		log.Printf("Failed to clear tracking for cancelled ride %d: %v", ride.ID, err)
	}

	services.PublishRideUpdate(ctx, ride.ID, "cancelled", nil)
}

// GetRideByID retrieves a single ride with its driver
func GetRideByID(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rideID, ok := parseRideID(c)
		if !ok {
			return
		}

		var ride models.Ride
		if err := db.Preload("Driver").First(&ride, rideID).Error; err != nil {
			respondError(c, apperrors.NotFound("ride"))
			return
		}

		respondData(c, 200, ride)
	}
}

// GetDriverRides retrieves the rides published by the calling driver
func GetDriverRides(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		query := db.Where("driver_id = ?", userId)
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var rides []models.Ride
		if err := query.Order("departure_at DESC").Find(&rides).Error; err != nil {
			respondError(c, err)
			return
		}

		respondData(c, 200, rides)
	}
}

// GetMyRides retrieves the rides the user is part of, on either side
func GetMyRides(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		role := c.DefaultQuery("role", c.GetString("userRole"))

		var rides []models.Ride
		switch role {
		case string(models.UserRoleDriver):
			if err := db.Where("driver_id = ?", userId).
				Order("departure_at DESC").Find(&rides).Error; err != nil {
				respondError(c, err)
				return
			}
		case string(models.UserRoleRider):
			if err := db.Distinct("rides.*").
				Joins("JOIN bookings ON bookings.ride_id = rides.id").
				Where("bookings.rider_id = ? AND bookings.status IN ?", userId,
					[]models.BookingStatus{models.BookingStatusActive, models.BookingStatusCompleted}).
				Preload("Driver").
				Order("departure_at DESC").
				Find(&rides).Error; err != nil {
				respondError(c, err)
				return
			}
		default:
			respondError(c, apperrors.Validation("role", "must be driver or rider"))
			return
		}

		respondData(c, 200, rides)
	}
}
