package database

import (
	"github.com/uniride-app/uniride-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.Ride{},
		&models.Booking{},
		&models.Rating{},
	)
	if err != nil {
		return err
	}

	// Update users table
	if db.Migrator().HasTable(&models.User{}) {
		columns := []string{
			"ADD COLUMN IF NOT EXISTS theme_preference text DEFAULT 'system'",
			"ADD COLUMN IF NOT EXISTS push_enabled boolean DEFAULT true",
			"ADD COLUMN IF NOT EXISTS email_enabled boolean DEFAULT true",
			"ADD COLUMN IF NOT EXISTS points integer DEFAULT 0",
		}

		for _, column := range columns {
			if err := db.Exec("ALTER TABLE users " + column).Error; err != nil {
				return err
			}
		}

		// Update constraint
		db.Exec(`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_role_check`)
		db.Exec(`ALTER TABLE users ADD CONSTRAINT users_role_check CHECK (role IN ('driver', 'rider'))`)
	}

	// Update rides table
	if db.Migrator().HasTable(&models.Ride{}) {
		db.Exec(`ALTER TABLE rides DROP CONSTRAINT IF EXISTS rides_status_check`)
		db.Exec(`ALTER TABLE rides ADD CONSTRAINT rides_status_check CHECK (status IN ('active', 'full', 'completed', 'cancelled'))`)
		db.Exec(`ALTER TABLE rides DROP CONSTRAINT IF EXISTS rides_seats_check`)
		db.Exec(`ALTER TABLE rides ADD CONSTRAINT rides_seats_check CHECK (total_seats BETWEEN 1 AND 8 AND seats_available BETWEEN 0 AND total_seats)`)

		// Search hits this pair constantly
		db.Exec(`CREATE INDEX IF NOT EXISTS idx_rides_status_departure ON rides (status, departure_at)`)

		// Handle archived column carefully for installs that predate it
		var columnExists bool
		err := db.Raw(`
			SELECT EXISTS (
				SELECT 1
				FROM information_schema.columns
				WHERE table_name = 'rides'
				AND column_name = 'archived'
			)`).Scan(&columnExists).Error
		if err != nil {
			return err
		}

		if !columnExists {
			// Add column as nullable first
			if err := db.Exec(`ALTER TABLE rides ADD COLUMN archived boolean DEFAULT false`).Error; err != nil {
				return err
			}

			// Update existing records
			if err := db.Exec(`UPDATE rides SET archived = false WHERE archived IS NULL`).Error; err != nil {
				return err
			}

			// Make it not null after setting defaults
			if err := db.Exec(`ALTER TABLE rides ALTER COLUMN archived SET NOT NULL`).Error; err != nil {
				return err
			}
		}
	}

	// Update bookings table
	if db.Migrator().HasTable(&models.Booking{}) {
		db.Exec(`ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_status_check`)
		db.Exec(`ALTER TABLE bookings ADD CONSTRAINT bookings_status_check CHECK (status IN ('active', 'cancelled', 'completed'))`)
	}

	// Update ratings table
	if db.Migrator().HasTable(&models.Rating{}) {
		db.Exec(`ALTER TABLE ratings DROP CONSTRAINT IF EXISTS ratings_score_check`)
		db.Exec(`ALTER TABLE ratings ADD CONSTRAINT ratings_score_check CHECK (score BETWEEN 1 AND 5)`)

		// One rating per rater per ratee per ride
		db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_ratings_once ON ratings (ride_id, rater_id, ratee_id)`)
	}

	return nil
}
