package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/uniride-app/uniride-backend/internal/models"
	"github.com/uniride-app/uniride-backend/internal/services"
	"gorm.io/gorm"
)

// WebSocketHandler upgrades the request and attaches the client to the hub
func WebSocketHandler(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		role := c.GetString("userRole")

		username := ""
		var user models.User
		if err := db.Select("username").First(&user, userId).Error; err == nil {
			username = user.Username
		}

		canUseRide := func(rideID uint) bool {
			var ride models.Ride
			if err := db.First(&ride, rideID).Error; err != nil {
				return false
			}
			return isRideParticipant(db, &ride, userId)
		}

		services.HandleWebSocket(hub, c.Writer, c.Request, userId, role, username, canUseRide)
	}
}
