package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserRole distinguishes drivers, who publish rides, from riders, who
// book seats on them. A user holds exactly one role at a time.
type UserRole string

const (
	UserRoleDriver UserRole = "driver"
	UserRoleRider  UserRole = "rider"
)

// Gender values recorded on profiles and matched against ride gender
// preferences.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// User represents an account on the platform.
type User struct {
	gorm.Model
	Username     string   `json:"username" gorm:"column:username;unique;not null"`
	Email        string   `json:"email" gorm:"column:email;unique;not null"`
	Password     string   `json:"-" gorm:"-:migration"` // Temporary field for password handling
	PasswordHash string   `json:"-" gorm:"column:password_hash;not null"`
	PhoneNumber  string   `json:"phoneNumber" gorm:"column:phone_number"`
	Role         UserRole `json:"role" gorm:"column:role;not null;default:'rider'"` // driver, rider
	Gender       string   `json:"gender" gorm:"column:gender"`                      // male, female
	AvatarURL    string   `json:"avatarUrl" gorm:"column:avatar_url"`
	FCMToken     string   `json:"-" gorm:"column:fcm_token"`

	// Vehicle details shown to riders when the user drives
	CarMake  string `json:"carMake"`
	CarModel string `json:"carModel"`
	CarColor string `json:"carColor"`
	CarPlate string `json:"carPlate"`

	// Client app preferences
	ThemePreference string `json:"themePreference" gorm:"column:theme_preference;default:'system'"` // light, dark, system
	PushEnabled     bool   `json:"pushEnabled" gorm:"column:push_enabled;default:true"`
	EmailEnabled    bool   `json:"emailEnabled" gorm:"column:email_enabled;default:true"`

	// Aggregates maintained by the ride, booking and rating flows
	AvgRating         float64 `json:"avgRating" gorm:"column:avg_rating;default:0"`
	RatingsCount      int     `json:"ratingsCount" gorm:"column:ratings_count;default:0"`
	TotalRidesOffered int     `json:"totalRidesOffered" gorm:"column:total_rides_offered;default:0"`
	TotalRidesTaken   int     `json:"totalRidesTaken" gorm:"column:total_rides_taken;default:0"`
	Points            int     `json:"points" gorm:"column:points;default:0"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

func (u *User) HashPassword() error {
	if u.Password == "" {
		return nil
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
