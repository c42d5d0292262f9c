package handlers

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/uniride-app/uniride-backend/internal/apperrors"
	"github.com/uniride-app/uniride-backend/internal/models"
	"github.com/uniride-app/uniride-backend/internal/services"
	"github.com/uniride-app/uniride-backend/pkg/utils"
	"gorm.io/gorm"
)

// GetProfile retrieves the user's profile
func GetProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			respondError(c, apperrors.NotFound("user"))
			return
		}

		respondData(c, 200, user)
	}
}

// UpdateProfile updates the user's profile information
func UpdateProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			Username        *string `json:"username"`
			PhoneNumber     *string `json:"phoneNumber"`
			CarMake         *string `json:"carMake"`
			CarModel        *string `json:"carModel"`
			CarColor        *string `json:"carColor"`
			CarPlate        *string `json:"carPlate"`
			ThemePreference *string `json:"themePreference" binding:"omitempty,oneof=light dark system"`
			PushEnabled     *bool   `json:"pushEnabled"`
			EmailEnabled    *bool   `json:"emailEnabled"`
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

		// Update fields individually to handle empty strings properly
		if input.Username != nil {
			if strings.TrimSpace(*input.Username) == "" {
				respondError(c, apperrors.Validation("username", "must not be empty"))
				return
			}
			user.Username = *input.Username
		}
		if input.PhoneNumber != nil {
			user.PhoneNumber = *input.PhoneNumber
		}
		if input.CarMake != nil {
			user.CarMake = *input.CarMake
		}
		if input.CarModel != nil {
			user.CarModel = *input.CarModel
		}
		if input.CarColor != nil {
			user.CarColor = *input.CarColor
		}
		if input.CarPlate != nil {
			user.CarPlate = *input.CarPlate
		}
		if input.ThemePreference != nil {
			user.ThemePreference = *input.ThemePreference
		}
		if input.PushEnabled != nil {
			user.PushEnabled = *input.PushEnabled
		}
		if input.EmailEnabled != nil {
			user.EmailEnabled = *input.EmailEnabled
		}

		// Use Save() instead of Updates() to persist all fields including empty strings
		if err := db.Save(&user).Error; err != nil {
			respondError(c, err)
			return
		}

		respondData(c, 200, user)
	}
}

// SwitchRole moves the user between the driver and rider roles. The
// switch is refused while the user is part of any pending ride.
func SwitchRole(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			Role string `json:"role" binding:"required,oneof=driver rider"`
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

		if user.Role == models.UserRole(input.Role) {
			respondError(c, apperrors.Statef("you are already a %s", input.Role))
			return
		}

		var activeRides int64
		db.Model(&models.Ride{}).
			Where("driver_id = ? AND status IN ?", userId,
				[]models.RideStatus{models.RideStatusActive, models.RideStatusFull}).
			Count(&activeRides)
		if activeRides > 0 {
			respondError(c, apperrors.State("cannot switch roles with an active ride"))
			return
		}

		var activeBookings int64
		db.Model(&models.Booking{}).
			Where("rider_id = ? AND status = ?", userId, models.BookingStatusActive).
			Count(&activeBookings)
		if activeBookings > 0 {
			respondError(c, apperrors.State("cannot switch roles with an active booking"))
			return
		}

		user.Role = models.UserRole(input.Role)
		if err := db.Save(&user).Error; err != nil {
			respondError(c, err)
			return
		}

		// The role claim changed, so hand back a fresh token
		token, err := utils.GenerateToken(user.ID, user.Email, string(user.Role))
		if err != nil {
			respondError(c, err)
			return
		}

		respondData(c, 200, gin.H{"token": token, "user": user})
	}
}

// UploadAvatar stores a profile picture and records its URL
func UploadAvatar(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		file, err := c.FormFile("avatar")
		if err != nil {
			respondError(c, apperrors.Validation("avatar", "image file is required"))
			return
		}

		if file.Size > 5<<20 {
			respondError(c, apperrors.Validation("avatar", "image must be 5MB or smaller"))
			return
		}

		ext := strings.ToLower(filepath.Ext(file.Filename))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".webp":
		default:
			respondError(c, apperrors.Validation("avatar", "must be a jpg, png or webp image"))
			return
		}

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			respondError(c, apperrors.NotFound("user"))
			return
		}

		imagePath, err := services.UploadImage(file, "avatars")
		if err != nil {
			respondError(c, err)
			return
		}

		oldURL := user.AvatarURL
		user.AvatarURL = services.GetImageURL(imagePath)
		if err := db.Save(&user).Error; err != nil {
			respondError(c, err)
			return
		}

		if oldURL != "" {
			go func() {
				if err := services.DeleteImage(oldURL); err != nil {
					log.Printf("Failed to delete old avatar %s: %v", oldURL, err)
				}
			}()
		}

		respondData(c, 200, gin.H{"avatarUrl": user.AvatarURL})
	}
}
