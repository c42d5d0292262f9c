package handlers

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uniride-app/uniride-backend/internal/apperrors"
	"github.com/uniride-app/uniride-backend/internal/models"
	"github.com/uniride-app/uniride-backend/internal/observability"
	"gorm.io/gorm"
)

// GetActivityFeed merges the user's rides and bookings into one feed
func GetActivityFeed(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		limit := models.DefaultActivityLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				respondError(c, apperrors.Validation("limit", "must be an integer"))
				return
			}
			limit = n
		}
		if err := models.ValidateActivityLimit(limit); err != nil {
			respondError(c, err)
			return
		}

		var rides []models.Ride
		if err := db.Where("driver_id = ?", userId).
			Order("created_at DESC").Limit(limit).
			Find(&rides).Error; err != nil {
			respondError(c, err)
			return
		}

		var bookings []models.Booking
		if err := db.Preload("Ride").
			Where("rider_id = ?", userId).
			Order("created_at DESC").Limit(limit).
			Find(&bookings).Error; err != nil {
			respondError(c, err)
			return
		}

		feed := models.BuildActivityFeed(rides, bookings, limit, time.Now())

		respondData(c, 200, gin.H{"activity": feed, "count": len(feed)})
	}
}

// ArchiveRides flags old completed rides as archived. Each candidate is
// archived by its own goroutine; a failed row is logged and skipped so
// one bad row cannot stall the sweep. Re-runs archive nothing.
func ArchiveRides(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		days := models.DefaultArchiveDays
		if env := os.Getenv("ARCHIVE_RETENTION_DAYS"); env != "" {
			if n, err := strconv.Atoi(env); err == nil {
				days = n
			}
		}

		if c.Request.ContentLength > 0 {
			var input struct {
				Days *int `json:"days"`
			}
			if err := c.ShouldBindJSON(&input); err != nil {
				respondBindingError(c, err)
				return
			}
			if input.Days != nil {
				days = *input.Days
			}
		}

		if err := models.ValidateArchiveDays(days); err != nil {
			respondError(c, err)
			return
		}

		now := time.Now()
		cutoff := models.ArchiveCutoff(now, days)

		var candidates []models.Ride
		if err := db.Where("status = ? AND archived = ? AND updated_at < ?",
			models.RideStatusCompleted, false, cutoff).
			Find(&candidates).Error; err != nil {
			respondError(c, err)
			return
		}

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			archived int
		)

		for i := range candidates {
			ride := candidates[i]
			if !ride.ArchiveEligible(cutoff) {
				continue
			}

			wg.Add(1)
			go func(r models.Ride) {
				defer wg.Done()

				// Conditional update keeps concurrent sweeps from double counting
				res := db.Model(&models.Ride{}).
					Where("id = ? AND status = ? AND archived = ?", r.ID, models.RideStatusCompleted, false).
					Updates(map[string]interface{}{"archived": true, "archived_at": now})
				if res.Error != nil {
					log.Printf("Failed to archive ride %d: %v", r.ID, res.Error)
					return
				}
				if res.RowsAffected > 0 {
					observability.RidesArchivedTotal.Inc()
					mu.Lock()
					archived++
					mu.Unlock()
				}
			}(ride)
		}

		wg.Wait()

		respondData(c, 200, gin.H{
			"archived":   archived,
			"candidates": len(candidates),
			"cutoff":     cutoff.Format(time.RFC3339),
		})
	}
}
