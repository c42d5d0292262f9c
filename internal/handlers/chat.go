package handlers

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/uniride-app/uniride-backend/internal/apperrors"
	"github.com/uniride-app/uniride-backend/internal/models"
	"github.com/uniride-app/uniride-backend/internal/observability"
	"github.com/uniride-app/uniride-backend/internal/services"
	"gorm.io/gorm"
)

// isRideParticipant reports whether the user is the driver or holds a
// non-cancelled booking on the ride.
func isRideParticipant(db *gorm.DB, ride *models.Ride, userID uint) bool {
	if ride.DriverID == userID {
		return true
	}
	var n int64
	db.Model(&models.Booking{}).
		Where("ride_id = ? AND rider_id = ? AND status IN ?", ride.ID, userID,
			[]models.BookingStatus{models.BookingStatusActive, models.BookingStatusCompleted}).
		Count(&n)
	return n > 0
}

// participantIDs returns the driver plus every non-cancelled rider.
func participantIDs(db *gorm.DB, ride *models.Ride) []uint {
	var ids []uint
	db.Model(&models.Booking{}).
		Where("ride_id = ? AND status IN ?", ride.ID,
			[]models.BookingStatus{models.BookingStatusActive, models.BookingStatusCompleted}).
		Pluck("rider_id", &ids)
	return append(ids, ride.DriverID)
}

// loadRideForParticipant fetches the ride and enforces the participant gate.
func loadRideForParticipant(c *gin.Context, db *gorm.DB) (*models.Ride, uint, bool) {
	userId := c.GetUint("userId")
	rideID, ok := parseRideID(c)
	if !ok {
		return nil, 0, false
	}

	var ride models.Ride
	if err := db.First(&ride, rideID).Error; err != nil {
		respondError(c, apperrors.NotFound("ride"))
		return nil, 0, false
	}

	if !isRideParticipant(db, &ride, userId) {
		respondError(c, apperrors.Authorization("only ride participants can do this"))
		return nil, 0, false
	}

	return &ride, userId, true
}

// SendChatMessage posts a message to a ride's chat thread
func SendChatMessage(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ride, userId, ok := loadRideForParticipant(c, db)
		if !ok {
			return
		}

		if ride.Status == models.RideStatusCancelled {
			respondError(c, apperrors.State("ride is cancelled"))
			return
		}

		var input struct {
			Text string `json:"text" binding:"required,max=1000"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindingError(c, err)
			return
		}

		var sender models.User
		if err := db.First(&sender, userId).Error; err != nil {
			respondError(c, apperrors.NotFound("user"))
			return
		}

		msg := services.ChatMessage{
			ID:         uuid.NewString(),
			RideID:     ride.ID,
			SenderID:   userId,
			SenderName: sender.Username,
			Text:       input.Text,
			SentAt:     time.Now(),
		}

		ctx := context.Background()
		if err := services.SaveChatMessage(ctx, msg); err != nil {
			respondError(c, err)
			return
		}

		observability.ChatMessagesTotal.Inc()

		ids := participantIDs(db, ride)
		hub.SendChatMessage(ids, msg)

		go notifyChatMessage(db, *ride, msg, ids)

		respondData(c, 201, msg)
	}
}

func notifyChatMessage(db *gorm.DB, ride models.Ride, msg services.ChatMessage, participantIDs []uint) {
	others := make([]uint, 0, len(participantIDs))
	for _, id := range participantIDs {
		if id != msg.SenderID {
			others = append(others, id)
		}
	}
	if len(others) == 0 {
		return
	}

	var users []models.User
	if err := db.Where("id IN ?", others).Find(&users).Error; err != nil {
		log.Printf("Failed to load chat recipients for ride %d: %v", ride.ID, err)
		return
	}

	tokens := make([]string, 0, len(users))
	for _, u := range users {
		if u.PushEnabled && u.FCMToken != "" {
			tokens = append(tokens, u.FCMToken)
		}
	}
	if len(tokens) == 0 {
		return
	}

	if _, err := services.SendChatMessageNotification(context.Background(), tokens, ride.ID, msg.SenderName, msg.Text); err != nil {
		log.Printf("Failed to push chat notification for ride %d: %v", ride.ID, err)
	}
}

// GetChatMessages retrieves a ride's chat thread, oldest first
func GetChatMessages(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ride, _, ok := loadRideForParticipant(c, db)
		if !ok {
			return
		}

		messages, err := services.GetChatMessages(context.Background(), ride.ID)
		if err != nil {
			respondError(c, err)
			return
		}

		respondData(c, 200, gin.H{"messages": messages, "count": len(messages)})
	}
}

// StartTyping marks the user as typing in a ride chat
func StartTyping(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ride, userId, ok := loadRideForParticipant(c, db)
		if !ok {
			return
		}

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			respondError(c, apperrors.NotFound("user"))
			return
		}

		if err := services.SetTyping(context.Background(), ride.ID, userId, user.Username); err != nil {
			respondError(c, err)
			return
		}

		hub.SendTyping(participantIDs(db, ride), services.TypingEvent{
			RideID:   ride.ID,
			UserID:   userId,
			Username: user.Username,
			Typing:   true,
		})

		respondMessage(c, 200, "typing")
	}
}

// StopTyping clears the user's typing marker
func StopTyping(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ride, userId, ok := loadRideForParticipant(c, db)
		if !ok {
			return
		}

		if err := services.ClearTyping(context.Background(), ride.ID, userId); err != nil {
			respondError(c, err)
			return
		}

		hub.SendTyping(participantIDs(db, ride), services.TypingEvent{
			RideID: ride.ID,
			UserID: userId,
			Typing: false,
		})

		respondMessage(c, 200, "stopped typing")
	}
}

// GetTypingUsers lists who is typing in a ride chat right now
func GetTypingUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ride, _, ok := loadRideForParticipant(c, db)
		if !ok {
			return
		}

		typing, err := services.GetTypingUsers(context.Background(), ride.ID)
		if err != nil {
			respondError(c, err)
			return
		}

		respondData(c, 200, gin.H{"typing": typing})
	}
}
