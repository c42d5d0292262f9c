package models

import (
	"gorm.io/gorm"

	"github.com/uniride-app/uniride-backend/internal/apperrors"
)

// Rating is one participant's review of the counterparty on a
// completed ride. One rating per rater per ride.
type Rating struct {
	gorm.Model
	RideID  uint    `json:"rideId" gorm:"not null;index"`
	RaterID uint    `json:"raterId" gorm:"not null"`
	RateeID uint    `json:"rateeId" gorm:"not null;index"`
	Score   float64 `json:"score" gorm:"not null;check:score >= 1 AND score <= 5"`
	Comment string  `json:"comment,omitempty"`
	Rater   *User   `json:"rater,omitempty" gorm:"foreignKey:RaterID"`
}

// TableName specifies the table name
func (Rating) TableName() string {
	return "ratings"
}

// ValidateScore bounds scores to the 1-5 scale.
func ValidateScore(score float64) error {
	if score < 1 || score > 5 {
		return apperrors.Validation("score", "must be between 1 and 5")
	}
	return nil
}
