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

// RegisterFCMToken registers or updates the caller's device token
func RegisterFCMToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			Token string `json:"token" binding:"required"`
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

		oldToken := user.FCMToken
		if err := db.Model(&user).Update("fcm_token", input.Token).Error; err != nil {
			respondError(c, err)
			return
		}

		go func() {
			ctx := context.Background()
			if oldToken != "" && oldToken != input.Token {
				if err := services.UnsubscribeFromTopic(ctx, []string{oldToken}, services.TopicAvailableRides); err != nil {
					log.Printf("Failed to unsubscribe stale token for user %d: %v", user.ID, err)
				}
			}
			// Riders get the broadcast topic so new rides reach devices
			// that have no websocket open.
			if user.Role == models.UserRoleRider && user.PushEnabled {
				if err := services.SubscribeToTopic(ctx, []string{input.Token}, services.TopicAvailableRides); err != nil {
					log.Printf("Failed to subscribe token for user %d: %v", user.ID, err)
				}
			}
		}()

		respondMessage(c, 200, "Token registered")
	}
}

// RemoveFCMToken detaches the caller's device token
func RemoveFCMToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			respondError(c, apperrors.NotFound("user"))
			return
		}

		oldToken := user.FCMToken
		if oldToken == "" {
			respondMessage(c, 200, "No token registered")
			return
		}

		if err := db.Model(&user).Update("fcm_token", "").Error; err != nil {
			respondError(c, err)
			return
		}

		go func() {
			if err := services.UnsubscribeFromTopic(context.Background(), []string{oldToken}, services.TopicAvailableRides); err != nil {
				log.Printf("Failed to unsubscribe token for user %d: %v", user.ID, err)
			}
		}()

		respondMessage(c, 200, "Token removed")
	}
}

// TestNotification sends a test push to the caller's registered device
func TestNotification(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			respondError(c, apperrors.NotFound("user"))
			return
		}

		if user.FCMToken == "" {
			respondError(c, apperrors.State("no device token registered"))
			return
		}

		payload := services.NotificationPayload{
			Title: "Test Notification",
			Body:  "This is a test notification from UniRide",
			Data: map[string]interface{}{
				"type":   "test",
				"userId": userId,
			},
		}

		if err := services.SendNotificationToToken(context.Background(), user.FCMToken, payload); err != nil {
			respondError(c, err)
			return
		}

		respondMessage(c, 200, "Test notification sent")
	}
}
