package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uniride-app/uniride-backend/internal/apperrors"
	"github.com/uniride-app/uniride-backend/internal/models"
	"github.com/uniride-app/uniride-backend/internal/services"
	"github.com/uniride-app/uniride-backend/pkg/utils"
	"gorm.io/gorm"
)

// UpdateLocation publishes the caller's live position on a ride
func UpdateLocation(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ride, userId, ok := loadRideForParticipant(c, db)
		if !ok {
			return
		}

		if ride.IsTerminal() {
			respondError(c, apperrors.State("ride is no longer live"))
			return
		}

		var input struct {
			Lat     *float64 `json:"lat" binding:"required"`
			Lng     *float64 `json:"lng" binding:"required"`
			Heading *float64 `json:"heading"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindingError(c, err)
			return
		}

		if *input.Lat < -90 || *input.Lat > 90 || *input.Lng < -180 || *input.Lng > 180 {
			respondError(c, apperrors.Validation("lat", "coordinates out of range"))
			return
		}

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			respondError(c, apperrors.NotFound("user"))
			return
		}

		ctx := context.Background()

		heading := 0.0
		if input.Heading != nil {
			heading = *input.Heading
		} else if prev, err := services.GetLiveLocation(ctx, ride.ID, userId); err == nil {
			// Derive the heading from the previous fix when the client omits it.
			heading = utils.Bearing(prev.Lat, prev.Lng, *input.Lat, *input.Lng)
		}

		loc := services.LiveLocation{
			UserID:   userId,
			Username: user.Username,
			Lat:      *input.Lat,
			Lng:      *input.Lng,
			Heading:  heading,
			Updated:  time.Now().Unix(),
		}

		if err := services.SetLiveLocation(ctx, ride.ID, loc); err != nil {
			respondError(c, err)
			return
		}

		hub.SendLocationUpdate(participantIDs(db, ride), services.LocationUpdate{
			RideID:   ride.ID,
			Location: loc,
		})

		respondData(c, 200, loc)
	}
}

// GetRideLocations returns every live position currently known for a ride
func GetRideLocations(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ride, _, ok := loadRideForParticipant(c, db)
		if !ok {
			return
		}

		locations, err := services.GetLiveLocations(context.Background(), ride.ID)
		if err != nil {
			respondError(c, err)
			return
		}

		respondData(c, 200, gin.H{"locations": locations})
	}
}

// RemoveLocation withdraws the caller's live position from a ride
func RemoveLocation(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ride, userId, ok := loadRideForParticipant(c, db)
		if !ok {
			return
		}

		if err := services.RemoveLiveLocation(context.Background(), ride.ID, userId); err != nil {
			respondError(c, err)
			return
		}

		hub.SendLocationUpdate(participantIDs(db, ride), services.LocationUpdate{
			RideID: ride.ID,
			Location: services.LiveLocation{
				UserID:  userId,
				Updated: 0,
			},
		})

		respondMessage(c, 200, "Location sharing stopped")
	}
}
