package handlers

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/uniride-app/uniride-backend/internal/apperrors"
	"github.com/uniride-app/uniride-backend/internal/models"
	"github.com/uniride-app/uniride-backend/internal/services"
	"gorm.io/gorm"
)

// GetNotificationPreferences retrieves the caller's notification preferences
func GetNotificationPreferences(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			respondError(c, apperrors.NotFound("user"))
			return
		}

		respondData(c, 200, gin.H{
			"pushEnabled":     user.PushEnabled,
			"emailEnabled":    user.EmailEnabled,
			"themePreference": user.ThemePreference,
		})
	}
}

// UpdateNotificationPreferences updates the caller's notification preferences
func UpdateNotificationPreferences(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			PushEnabled  *bool `json:"pushEnabled"`
			EmailEnabled *bool `json:"emailEnabled"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindingError(c, err)
			return
		}

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			respondError(c, apperrors.NotFound("user"))
			return
		}

		oldPushEnabled := user.PushEnabled

		// Update only provided fields
		if input.PushEnabled != nil {
			user.PushEnabled = *input.PushEnabled
		}
		if input.EmailEnabled != nil {
			user.EmailEnabled = *input.EmailEnabled
		}

		if err := db.Save(&user).Error; err != nil {
			respondError(c, err)
			return
		}

		// Handle topic subscription when push delivery flips
		if input.PushEnabled != nil && oldPushEnabled != user.PushEnabled &&
			user.Role == models.UserRoleRider && user.FCMToken != "" {
			ctx := context.Background()
			tokens := []string{user.FCMToken}

			if user.PushEnabled {
				if err := services.SubscribeToTopic(ctx, tokens, services.TopicAvailableRides); err != nil {
					log.Printf("Failed to subscribe user %d to available rides topic: %v", userId, err)
				} else {
					log.Printf("User %d subscribed to available rides notifications", userId)
				}
			} else {
				if err := services.UnsubscribeFromTopic(ctx, tokens, services.TopicAvailableRides); err != nil {
					log.Printf("Failed to unsubscribe user %d from available rides topic: %v", userId, err)
				} else {
					log.Printf("User %d unsubscribed from available rides notifications", userId)
				}
			}
		}

		respondData(c, 200, gin.H{
			"pushEnabled":     user.PushEnabled,
			"emailEnabled":    user.EmailEnabled,
			"themePreference": user.ThemePreference,
		})
	}
}
