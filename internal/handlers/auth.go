package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/uniride-app/uniride-backend/internal/apperrors"
	"github.com/uniride-app/uniride-backend/internal/models"
	"github.com/uniride-app/uniride-backend/pkg/utils"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Username string `json:"username" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
	Role     string `json:"role" binding:"required,oneof=driver rider"`
	Gender   string `json:"gender" binding:"required,oneof=male female"`

	// Vehicle details, expected when registering as a driver
	CarMake  string `json:"carMake"`
	CarModel string `json:"carModel"`
	CarColor string `json:"carColor"`
	CarPlate string `json:"carPlate"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login failures are 401, unlike the 403 the taxonomy maps
// authorization errors to.
func respondInvalidCredentials(c *gin.Context) {
	c.JSON(401, gin.H{"success": false, "error": gin.H{
		"kind":    apperrors.KindAuthorization,
		"message": "invalid credentials",
	}})
}

func Register(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindingError(c, err)
			return
		}

		var count int64
		db.Model(&models.User{}).Where("email = ?", input.Email).Count(&count)
		if count > 0 {
			respondError(c, apperrors.Validation("email", "is already registered"))
			return
		}
		db.Model(&models.User{}).Where("username = ?", input.Username).Count(&count)
		if count > 0 {
			respondError(c, apperrors.Validation("username", "is already taken"))
			return
		}

		user := models.User{
			Username:    input.Username,
			Email:       input.Email,
			Password:    input.Password,
			PhoneNumber: input.Phone,
			Role:        models.UserRole(input.Role),
			Gender:      input.Gender,
			CarMake:     input.CarMake,
			CarModel:    input.CarModel,
			CarColor:    input.CarColor,
			CarPlate:    input.CarPlate,
		}

		if err := user.HashPassword(); err != nil {
			respondError(c, err)
			return
		}

		if result := db.Create(&user); result.Error != nil {
			respondError(c, result.Error)
			return
		}

		token, err := utils.GenerateToken(user.ID, user.Email, string(user.Role))
		if err != nil {
			respondError(c, err)
			return
		}

		respondData(c, 201, gin.H{"token": token, "user": user})
	}
}

func Login(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindingError(c, err)
			return
		}

		var user models.User
		if result := db.Where("email = ?", input.Email).First(&user); result.Error != nil {
			respondInvalidCredentials(c)
			return
		}

		if err := user.CheckPassword(input.Password); err != nil {
			respondInvalidCredentials(c)
			return
		}

		token, err := utils.GenerateToken(user.ID, user.Email, string(user.Role))
		if err != nil {
			respondError(c, err)
			return
		}

		respondData(c, 200, gin.H{"token": token, "user": user})
	}
}
