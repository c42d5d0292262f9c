package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/uniride-app/uniride-backend/internal/models"
	"github.com/uniride-app/uniride-backend/internal/services"
	"gorm.io/gorm"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

type leaderboardRow struct {
	Rank      int     `json:"rank"`
	UserID    uint    `json:"userId"`
	Username  string  `json:"username"`
	AvatarURL string  `json:"avatarUrl,omitempty"`
	Points    float64 `json:"points"`
}

// GetLeaderboard returns the top point earners
func GetLeaderboard(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultLeaderboardLimit
		if raw := c.Query("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}
		if limit > maxLeaderboardLimit {
			limit = maxLeaderboardLimit
		}

		entries, err := services.GetLeaderboard(context.Background(), limit)
		if err != nil {
			respondError(c, err)
			return
		}

		ids := make([]uint, 0, len(entries))
		for _, e := range entries {
			ids = append(ids, e.UserID)
		}

		names := map[uint]models.User{}
		if len(ids) > 0 {
			var users []models.User
			db.Where("id IN ?", ids).Find(&users)
			for _, u := range users {
				names[u.ID] = u
			}
		}

		rows := make([]leaderboardRow, 0, len(entries))
		for i, e := range entries {
			row := leaderboardRow{
				Rank:   i + 1,
				UserID: e.UserID,
				Points: e.Points,
			}
			if u, ok := names[e.UserID]; ok {
				row.Username = u.Username
				row.AvatarURL = u.AvatarURL
			}
			rows = append(rows, row)
		}

		respondData(c, 200, gin.H{"leaderboard": rows, "count": len(rows)})
	}
}

// GetMyRank returns the caller's leaderboard position
func GetMyRank(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		rank, points, err := services.GetLeaderboardRank(context.Background(), userId)
		if err != nil {
			respondError(c, err)
			return
		}

		if rank == 0 {
			respondData(c, 200, gin.H{"ranked": false, "points": 0})
			return
		}

		respondData(c, 200, gin.H{
			"ranked": true,
			"rank":   rank,
			"points": points,
		})
	}
}
