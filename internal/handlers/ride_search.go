package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uniride-app/uniride-backend/internal/apperrors"
	"github.com/uniride-app/uniride-backend/internal/models"
	"github.com/uniride-app/uniride-backend/pkg/utils"
	"gorm.io/gorm"
)

const (
	defaultNearbyRadiusKm = 5.0
	maxNearbyRadiusKm     = 50.0
)

func parseFloatQuery(c *gin.Context, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		respondError(c, apperrors.Validation(name, "is required"))
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		respondError(c, apperrors.Validation(name, "must be a number"))
		return 0, false
	}
	return v, true
}

// buildSearchFilters reads the shared search query parameters.
func buildSearchFilters(c *gin.Context) (models.SearchFilters, bool) {
	filters := models.SearchFilters{
		Pickup:      c.Query("pickup"),
		Destination: c.Query("destination"),
		TimeAfter:   c.Query("timeAfter"),
	}

	if dateStr := c.Query("date"); dateStr != "" {
		d, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
		if err != nil {
			respondError(c, apperrors.Validation("date", "expected 2006-01-02"))
			return filters, false
		}
		filters.Date = &d
	}

	if raw := c.Query("seats"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(c, apperrors.Validation("seats", "must be a positive integer"))
			return filters, false
		}
		filters.SeatsNeeded = n
	}

	if raw := c.Query("maxCost"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			respondError(c, apperrors.Validation("maxCost", "must be a non-negative number"))
			return filters, false
		}
		filters.MaxCost = &v
	}

	if raw := c.Query("genderPreference"); raw != "" {
		switch raw {
		case string(models.GenderPrefMale), string(models.GenderPrefFemale), string(models.GenderPrefAny):
			filters.GenderPreference = models.GenderPreference(raw)
		default:
			respondError(c, apperrors.Validation("genderPreference", "must be male, female or any"))
			return filters, false
		}
	}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, apperrors.Validation("limit", "must be an integer"))
			return filters, false
		}
		filters.Limit = n
	}

	return filters, true
}

// searchQuery pushes the indexable filter dimensions into the store query.
func searchQuery(db *gorm.DB, filters models.SearchFilters, now time.Time) *gorm.DB {
	query := db.Preload("Driver").Where("status = ?", models.RideStatusActive)

	if filters.Date != nil {
		start := time.Date(filters.Date.Year(), filters.Date.Month(), filters.Date.Day(), 0, 0, 0, 0, filters.Date.Location())
		query = query.Where("departure_at >= ? AND departure_at < ?", start, start.AddDate(0, 0, 1))
	} else {
		query = query.Where("departure_at > ?", now)
	}
	if filters.SeatsNeeded > 0 {
		query = query.Where("seats_available >= ?", filters.SeatsNeeded)
	}
	if filters.MaxCost != nil {
		query = query.Where("cost_per_seat <= ?", *filters.MaxCost)
	}

	return query.Order("departure_at ASC, id ASC")
}

// SearchRides lists bookable rides matching the query filters
func SearchRides(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters, ok := buildSearchFilters(c)
		if !ok {
			return
		}

		now := time.Now()

		var rides []models.Ride
		if err := searchQuery(db, filters, now).
			Limit(filters.CappedLimit()).
			Find(&rides).Error; err != nil {
			respondError(c, err)
			return
		}

		// Substring, time-of-day and gender checks run here; the full
		// predicate re-applies the pushed-down parts harmlessly
		matched := make([]models.Ride, 0, len(rides))
		for i := range rides {
			if filters.Matches(&rides[i], now) {
				matched = append(matched, rides[i])
			}
		}
		models.SortRidesByDeparture(matched)

		respondData(c, 200, gin.H{"rides": matched, "count": len(matched)})
	}
}

// GetNearbyRides lists bookable rides within a radius of a point
func GetNearbyRides(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		lat, ok := parseFloatQuery(c, "lat")
		if !ok {
			return
		}
		lng, ok := parseFloatQuery(c, "lng")
		if !ok {
			return
		}
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			respondError(c, apperrors.Validation("lat", "coordinates out of range"))
			return
		}

		radius := defaultNearbyRadiusKm
		if raw := c.Query("radius"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || v <= 0 || v > maxNearbyRadiusKm {
				respondError(c, apperrors.Validationf("radius", "must be between 0 and %.0f km", maxNearbyRadiusKm))
				return
			}
			radius = v
		}

		searchPoint := c.DefaultQuery("type", models.SearchPointPickup)
		if searchPoint != models.SearchPointPickup && searchPoint != models.SearchPointDestination {
			respondError(c, apperrors.Validation("type", "must be pickup or destination"))
			return
		}

		filters := models.SearchFilters{}
		if dateStr := c.Query("date"); dateStr != "" {
			d, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
			if err != nil {
				respondError(c, apperrors.Validation("date", "expected 2006-01-02"))
				return
			}
			filters.Date = &d
		}

		now := time.Now()
		query := searchQuery(db, filters, now)

		// Cheap rectangular prefilter; exact distances are computed in Go
		box := utils.GetBoundingBox(lat, lng, radius)
		if searchPoint == models.SearchPointPickup {
			query = query.Where("pickup_lat BETWEEN ? AND ? AND pickup_lng BETWEEN ? AND ?",
				box.SouthWest.Lat, box.NorthEast.Lat, box.SouthWest.Lng, box.NorthEast.Lng)
		} else {
			query = query.Where("dest_lat BETWEEN ? AND ? AND dest_lng BETWEEN ? AND ?",
				box.SouthWest.Lat, box.NorthEast.Lat, box.SouthWest.Lng, box.NorthEast.Lng)
		}

		var rides []models.Ride
		if err := query.Limit(models.MaxSearchLimit).Find(&rides).Error; err != nil {
			respondError(c, err)
			return
		}

		nearby := models.FilterByRadius(rides, lat, lng, radius, searchPoint)

		respondData(c, 200, gin.H{"rides": nearby, "count": len(nearby)})
	}
}

// EstimateCost suggests a per-seat cost share for a planned trip
func EstimateCost() gin.HandlerFunc {
	return func(c *gin.Context) {
		pickupLat, ok := parseFloatQuery(c, "pickupLat")
		if !ok {
			return
		}
		pickupLng, ok := parseFloatQuery(c, "pickupLng")
		if !ok {
			return
		}
		destLat, ok := parseFloatQuery(c, "destLat")
		if !ok {
			return
		}
		destLng, ok := parseFloatQuery(c, "destLng")
		if !ok {
			return
		}

		if pickupLat < -90 || pickupLat > 90 || pickupLng < -180 || pickupLng > 180 ||
			destLat < -90 || destLat > 90 || destLng < -180 || destLng > 180 {
			respondError(c, apperrors.Validation("pickup", "coordinates out of range"))
			return
		}

		seats := 1
		if raw := c.Query("seats"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > models.MaxSeats {
				respondError(c, apperrors.Validationf("seats", "must be between 1 and %d", models.MaxSeats))
				return
			}
			seats = n
		}

		respondData(c, 200, utils.EstimateRideCost(pickupLat, pickupLng, destLat, destLng, seats))
	}
}
