package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/uniride-app/uniride-backend/internal/apperrors"
	"github.com/uniride-app/uniride-backend/internal/models"
	"gorm.io/gorm"
)

// RateRide records a review of a counterparty on a completed ride. A
// rider rates the driver by default; a driver names the rider to rate.
func RateRide(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		rideID, ok := parseRideID(c)
		if !ok {
			return
		}

		var input struct {
			Score   float64 `json:"score" binding:"required,min=1,max=5"`
			Comment string  `json:"comment"`
			RateeID *uint   `json:"rateeId"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindingError(c, err)
			return
		}

		if err := models.ValidateScore(input.Score); err != nil {
			respondError(c, err)
			return
		}

		var ride models.Ride
		if err := db.First(&ride, rideID).Error; err != nil {
			respondError(c, apperrors.NotFound("ride"))
			return
		}

		if ride.Status != models.RideStatusCompleted {
			respondError(c, apperrors.State("ride must be completed before rating"))
			return
		}

		rateeID := ride.DriverID
		if input.RateeID != nil {
			rateeID = *input.RateeID
		}
		if rateeID == userId {
			respondError(c, apperrors.Validation("rateeId", "cannot rate yourself"))
			return
		}

		isParticipant := func(uid uint) bool {
			if uid == ride.DriverID {
				return true
			}
			var n int64
			db.Model(&models.Booking{}).
				Where("ride_id = ? AND rider_id = ? AND status = ?", ride.ID, uid, models.BookingStatusCompleted).
				Count(&n)
			return n > 0
		}
		if !isParticipant(userId) {
			respondError(c, apperrors.Authorization("only ride participants can rate"))
			return
		}
		if !isParticipant(rateeID) {
			respondError(c, apperrors.Validation("rateeId", "is not a participant of this ride"))
			return
		}

		var existing int64
		db.Model(&models.Rating{}).
			Where("ride_id = ? AND rater_id = ? AND ratee_id = ?", ride.ID, userId, rateeID).
			Count(&existing)
		if existing > 0 {
			respondError(c, apperrors.State("you already rated this participant"))
			return
		}

		var ratee models.User
		if err := db.First(&ratee, rateeID).Error; err != nil {
			respondError(c, apperrors.NotFound("user"))
			return
		}

		rating := models.Rating{
			RideID:  ride.ID,
			RaterID: userId,
			RateeID: rateeID,
			Score:   input.Score,
			Comment: input.Comment,
		}

		tx := db.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		if err := tx.Create(&rating).Error; err != nil {
			tx.Rollback()
			respondError(c, err)
			return
		}

		// Fold the score into the aggregates in one statement so racing
		// ratings cannot drop each other
		if err := tx.Model(&models.User{}).Where("id = ?", rateeID).
			Updates(map[string]interface{}{
				"avg_rating":    gorm.Expr("(avg_rating * ratings_count + ?) / (ratings_count + 1)", input.Score),
				"ratings_count": gorm.Expr("ratings_count + 1"),
			}).Error; err != nil {
			tx.Rollback()
			respondError(c, err)
			return
		}

		// Re-read inside the transaction so the reply reports the stored
		// aggregates, not a recompute on a stale snapshot
		if err := tx.First(&ratee, rateeID).Error; err != nil {
			tx.Rollback()
			respondError(c, err)
			return
		}

		if err := tx.Commit().Error; err != nil {
			respondError(c, err)
			return
		}

		respondData(c, 201, gin.H{
			"rating":         rating,
			"rateeAvgRating": ratee.AvgRating,
			"rateeRatings":   ratee.RatingsCount,
		})
	}
}

// GetUserRatings lists the ratings a user has received
func GetUserRatings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			respondError(c, apperrors.Validation("id", "must be a numeric user id"))
			return
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			respondError(c, apperrors.NotFound("user"))
			return
		}

		var ratings []models.Rating
		if err := db.Preload("Rater").
			Where("ratee_id = ?", userID).
			Order("created_at DESC").
			Find(&ratings).Error; err != nil {
			respondError(c, err)
			return
		}

		respondData(c, 200, gin.H{
			"ratings":      ratings,
			"avgRating":    user.AvgRating,
			"ratingsCount": user.RatingsCount,
		})
	}
}
