package models

import (
	"sort"
	"time"

	"github.com/uniride-app/uniride-backend/internal/apperrors"
)

// Activity feed bounds.
const (
	MinActivityLimit     = 1
	MaxActivityLimit     = 100
	DefaultActivityLimit = 20
)

// Roles tagging how the user participated in a feed entry.
const (
	ActivityRoleDriver = "driver"
	ActivityRoleRider  = "rider"
)

// ActivityEntry is one item of the merged activity feed. Exactly one
// of Ride or Booking is set, according to Role.
type ActivityEntry struct {
	Role      string    `json:"role"` // driver, rider
	Timestamp time.Time `json:"timestamp"`
	Ride      *Ride     `json:"ride,omitempty"`
	Booking   *Booking  `json:"booking,omitempty"`
}

// ValidateActivityLimit bounds the feed size.
func ValidateActivityLimit(limit int) error {
	if limit < MinActivityLimit || limit > MaxActivityLimit {
		return apperrors.Validationf("limit", "must be between %d and %d", MinActivityLimit, MaxActivityLimit)
	}
	return nil
}

// BuildActivityFeed merges the user's driver rides and rider bookings
// into one feed, newest first, truncated to limit. Entries missing a
// creation time fall back to now so they sort to the top rather than
// the distant past.
func BuildActivityFeed(rides []Ride, bookings []Booking, limit int, now time.Time) []ActivityEntry {
	entries := make([]ActivityEntry, 0, len(rides)+len(bookings))
	for i := range rides {
		ts := rides[i].CreatedAt
		if ts.IsZero() {
			ts = now
		}
		entries = append(entries, ActivityEntry{Role: ActivityRoleDriver, Timestamp: ts, Ride: &rides[i]})
	}
	for i := range bookings {
		ts := bookings[i].CreatedAt
		if ts.IsZero() {
			ts = now
		}
		entries = append(entries, ActivityEntry{Role: ActivityRoleRider, Timestamp: ts, Booking: &bookings[i]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Archival policy bounds.
const (
	DefaultArchiveDays = 30
	MaxArchiveDays     = 365
)

// ValidateArchiveDays bounds the retention window.
func ValidateArchiveDays(days int) error {
	if days < 1 || days > MaxArchiveDays {
		return apperrors.Validationf("days", "must be between 1 and %d", MaxArchiveDays)
	}
	return nil
}

// ArchiveCutoff is the newest UpdatedAt an archivable ride may carry.
func ArchiveCutoff(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

// ArchiveEligible reports whether the ride qualifies for archival:
// completed, not yet archived, untouched since the cutoff. Re-running
// archival over already-archived rides is a no-op.
func (r *Ride) ArchiveEligible(cutoff time.Time) bool {
	return r.Status == RideStatusCompleted && !r.Archived && r.UpdatedAt.Before(cutoff)
}
