package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

const (
	typingTTL   = 6 * time.Second
	trackingTTL = time.Hour
)

// InitRedis initializes the Redis client
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// ChatMessage is one message in a ride's chat thread.
type ChatMessage struct {
	ID         string    `json:"id"`
	RideID     uint      `json:"rideId"`
	SenderID   uint      `json:"senderId"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sentAt"`
}

// TypingStatus marks a participant as currently typing in a ride chat.
type TypingStatus struct {
	UserID   uint      `json:"userId"`
	Username string    `json:"username"`
	Started  time.Time `json:"started"`
}

// LiveLocation is a participant's last shared position on a ride.
type LiveLocation struct {
	UserID   uint    `json:"userId"`
	Username string  `json:"username"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Heading  float64 `json:"heading"`
	Updated  int64   `json:"updated"`
}

// LeaderboardEntry is one row of the points ranking.
type LeaderboardEntry struct {
	UserID uint    `json:"userId"`
	Points float64 `json:"points"`
}

// SaveChatMessage stores a chat message under its ride and publishes it
func SaveChatMessage(ctx context.Context, msg ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("chats:%d", msg.RideID)
	if err := RedisClient.HSet(ctx, key, msg.ID, data).Err(); err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "chat:messages", data).Err()
}

// GetChatMessages retrieves a ride's chat thread, oldest first
func GetChatMessages(ctx context.Context, rideID uint) ([]ChatMessage, error) {
	key := fmt.Sprintf("chats:%d", rideID)
	raw, err := RedisClient.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]ChatMessage, 0, len(raw))
	for _, v := range raw {
		var msg ChatMessage
		if err := json.Unmarshal([]byte(v), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}

	sort.Slice(messages, func(i, j int) bool {
		return messages[i].SentAt.Before(messages[j].SentAt)
	})

	return messages, nil
}

// DeleteRideChat drops a ride's chat thread
func DeleteRideChat(ctx context.Context, rideID uint) error {
	return RedisClient.Del(ctx, fmt.Sprintf("chats:%d", rideID)).Err()
}

// SetTyping marks a user as typing in a ride chat. The key expires on
// its own when the client stops refreshing it.
func SetTyping(ctx context.Context, rideID, userID uint, username string) error {
	status := TypingStatus{
		UserID:   userID,
		Username: username,
		Started:  time.Now(),
	}
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("typing:%d:%d", rideID, userID)
	return RedisClient.Set(ctx, key, data, typingTTL).Err()
}

// ClearTyping removes a user's typing marker
func ClearTyping(ctx context.Context, rideID, userID uint) error {
	return RedisClient.Del(ctx, fmt.Sprintf("typing:%d:%d", rideID, userID)).Err()
}

// GetTypingUsers lists who is currently typing in a ride chat
func GetTypingUsers(ctx context.Context, rideID uint) ([]TypingStatus, error) {
	keys, err := scanKeys(ctx, fmt.Sprintf("typing:%d:*", rideID))
	if err != nil {
		return nil, err
	}

	statuses := make([]TypingStatus, 0, len(keys))
	for _, key := range keys {
		data, err := RedisClient.Get(ctx, key).Result()
		if err != nil {
			continue // key expired between scan and get
		}
		var status TypingStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			continue
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

// SetLiveLocation stores a participant's position for a ride and
// publishes the update
func SetLiveLocation(ctx context.Context, rideID uint, loc LiveLocation) error {
	loc.Updated = time.Now().Unix()

	data, err := json.Marshal(loc)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("tracking:%d:%d", rideID, loc.UserID)
	if err := RedisClient.Set(ctx, key, data, trackingTTL).Err(); err != nil {
		return err
	}

	update := map[string]interface{}{
		"rideId":   rideID,
		"location": loc,
	}
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "tracking:updates", payload).Err()
}

// GetLiveLocation retrieves one participant's last shared position
func GetLiveLocation(ctx context.Context, rideID, userID uint) (LiveLocation, error) {
	var loc LiveLocation
	key := fmt.Sprintf("tracking:%d:%d", rideID, userID)
	data, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		return loc, err
	}
	err = json.Unmarshal([]byte(data), &loc)
	return loc, err
}

// GetLiveLocations lists all shared positions for a ride
func GetLiveLocations(ctx context.Context, rideID uint) ([]LiveLocation, error) {
	keys, err := scanKeys(ctx, fmt.Sprintf("tracking:%d:*", rideID))
	if err != nil {
		return nil, err
	}

	locations := make([]LiveLocation, 0, len(keys))
	for _, key := range keys {
		data, err := RedisClient.Get(ctx, key).Result()
		if err != nil {
			continue
		}
		var loc LiveLocation
		if err := json.Unmarshal([]byte(data), &loc); err != nil {
			continue
		}
		locations = append(locations, loc)
	}

	return locations, nil
}

// RemoveLiveLocation stops sharing a participant's position
func RemoveLiveLocation(ctx context.Context, rideID, userID uint) error {
	return RedisClient.Del(ctx, fmt.Sprintf("tracking:%d:%d", rideID, userID)).Err()
}

// ClearRideTracking drops all shared positions for a ride
func ClearRideTracking(ctx context.Context, rideID uint) error {
	keys, err := scanKeys(ctx, fmt.Sprintf("tracking:%d:*", rideID))
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return RedisClient.Del(ctx, keys...).Err()
}

// AddLeaderboardPoints credits points to a user's ranking score
func AddLeaderboardPoints(ctx context.Context, userID uint, points int) error {
	member := strconv.FormatUint(uint64(userID), 10)
	return RedisClient.ZIncrBy(ctx, "leaderboard:points", float64(points), member).Err()
}

// GetLeaderboard returns the top scorers, highest first
func GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	results, err := RedisClient.ZRevRangeWithScores(ctx, "leaderboard:points", 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, LeaderboardEntry{UserID: uint(id), Points: z.Score})
	}

	return entries, nil
}

// GetLeaderboardRank returns a user's 1-based rank and score. Users with
// no points yet get rank 0.
func GetLeaderboardRank(ctx context.Context, userID uint) (int64, float64, error) {
	member := strconv.FormatUint(uint64(userID), 10)

	rank, err := RedisClient.ZRevRank(ctx, "leaderboard:points", member).Result()
	if err == redis.Nil {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}

	score, err := RedisClient.ZScore(ctx, "leaderboard:points", member).Result()
	if err != nil && err != redis.Nil {
		return 0, 0, err
	}

	return rank + 1, score, nil
}

// PublishRideUpdate publishes a ride lifecycle event to Redis pub/sub
func PublishRideUpdate(ctx context.Context, rideID uint, event string, data map[string]interface{}) error {
	updateData := map[string]interface{}{
		"rideId":    rideID,
		"event":     event,
		"data":      data,
		"timestamp": time.Now().Unix(),
	}

	jsonData, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "ride:updates", jsonData).Err()
}

func scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := RedisClient.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}
