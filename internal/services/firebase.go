package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var (
	// FirebaseApp is the Firebase app instance
	FirebaseApp *firebase.App
	// MessagingClient is the Firebase Cloud Messaging client
	MessagingClient *messaging.Client
)

// TopicAvailableRides receives an event whenever a driver publishes a ride.
const TopicAvailableRides = "riders-available-rides"

// InitFirebase initializes Firebase Admin SDK
func InitFirebase() error {
	ctx := context.Background()

	// Check if Firebase is configured
	serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
	if serviceAccountPath == "" {
		log.Println("Warning: FIREBASE_SERVICE_ACCOUNT_PATH not set. Push notifications will be disabled.")
		return nil
	}

	// Initialize Firebase app
	opt := option.WithCredentialsFile(serviceAccountPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return fmt.Errorf("error initializing firebase app: %v", err)
	}

	// Initialize messaging client
	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("error getting messaging client: %v", err)
	}

	FirebaseApp = app
	MessagingClient = client

	log.Println("Firebase Cloud Messaging initialized successfully")
	return nil
}

// NotificationPayload represents the notification data
type NotificationPayload struct {
	Title      string                 `json:"title"`
	Body       string                 `json:"body"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Image      string                 `json:"image,omitempty"`
	ChannelID  string                 `json:"channelId,omitempty"`  // Android notification channel
	Sound      string                 `json:"sound,omitempty"`      // Custom sound file name
	Icon       string                 `json:"icon,omitempty"`       // Android small icon
	Color      string                 `json:"color,omitempty"`      // Android notification color
	Priority   string                 `json:"priority,omitempty"`   // high, normal, low
	BadgeCount *int                   `json:"badgeCount,omitempty"` // iOS badge count
	Tag        string                 `json:"tag,omitempty"`        // Android notification tag
}

// getAndroidConfig returns Android-specific notification configuration
func getAndroidConfig(payload NotificationPayload) *messaging.AndroidConfig {
	channelID := payload.ChannelID
	if channelID == "" {
		channelID = "uniride_default"
	}

	sound := payload.Sound
	if sound == "" {
		sound = "default"
	}

	icon := payload.Icon
	if icon == "" {
		icon = "ic_stat_logo"
	}

	color := payload.Color
	if color == "" {
		color = "#4CAF50" // UniRide brand color
	}

	priority := messaging.PriorityHigh
	if payload.Priority == "normal" {
		priority = messaging.PriorityDefault
	}

	return &messaging.AndroidConfig{
		Priority: "high",
		Notification: &messaging.AndroidNotification{
			Sound:                 sound,
			ChannelID:             channelID,
			Priority:              priority,
			DefaultSound:          sound == "default",
			Icon:                  icon,
			Color:                 color,
			Tag:                   payload.Tag,
			DefaultVibrateTimings: true,
		},
	}
}

// getAPNSConfig returns iOS-specific notification configuration
func getAPNSConfig(payload NotificationPayload) *messaging.APNSConfig {
	sound := payload.Sound
	if sound == "" {
		sound = "default"
	}

	badge := 1
	if payload.BadgeCount != nil {
		badge = *payload.BadgeCount
	}

	return &messaging.APNSConfig{
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{
				Sound:            sound,
				Badge:            &badge,
				MutableContent:   true,
				ContentAvailable: true,
			},
		},
	}
}

// toDataStrings converts the payload data map to the string map FCM requires
func toDataStrings(data map[string]interface{}) map[string]string {
	dataStrings := make(map[string]string)
	for key, value := range data {
		switch v := value.(type) {
		case string:
			dataStrings[key] = v
		case int, int64, uint, float64, bool:
			dataStrings[key] = fmt.Sprintf("%v", v)
		default:
			jsonData, err := json.Marshal(v)
			if err != nil {
				log.Printf("Error marshaling data for key %s: %v", key, err)
				continue
			}
			dataStrings[key] = string(jsonData)
		}
	}
	return dataStrings
}

// SendNotificationToToken sends a notification to a specific FCM token
func SendNotificationToToken(ctx context.Context, token string, payload NotificationPayload) error {
	if MessagingClient == nil {
		log.Println("Warning: Firebase not initialized. Skipping notification.")
		return nil
	}
	if token == "" {
		return nil
	}

	message := &messaging.Message{
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data:  toDataStrings(payload.Data),
		Token: token,
	}

	if payload.Image != "" {
		message.Notification.ImageURL = payload.Image
	}

	message.Android = getAndroidConfig(payload)
	message.APNS = getAPNSConfig(payload)

	response, err := MessagingClient.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending message: %v", err)
	}

	log.Printf("Successfully sent notification to token: %s, response: %s", token, response)
	return nil
}

// SendNotificationToMultipleTokens sends a notification to multiple FCM tokens
func SendNotificationToMultipleTokens(ctx context.Context, tokens []string, payload NotificationPayload) (*messaging.BatchResponse, error) {
	if MessagingClient == nil {
		log.Println("Warning: Firebase not initialized. Skipping notifications.")
		return nil, nil
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("no tokens provided")
	}

	message := &messaging.MulticastMessage{
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data:   toDataStrings(payload.Data),
		Tokens: tokens,
	}

	if payload.Image != "" {
		message.Notification.ImageURL = payload.Image
	}

	message.Android = getAndroidConfig(payload)
	message.APNS = getAPNSConfig(payload)

	response, err := MessagingClient.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("error sending multicast message: %v", err)
	}

	log.Printf("Successfully sent %d messages, %d failures", response.SuccessCount, response.FailureCount)

	if response.FailureCount > 0 {
		for idx, resp := range response.Responses {
			if !resp.Success {
				log.Printf("Failed to send to token %s: %v", tokens[idx], resp.Error)
			}
		}
	}

	return response, nil
}

// SendTopicNotification sends a notification to a topic
func SendTopicNotification(ctx context.Context, topic string, payload NotificationPayload) error {
	if MessagingClient == nil {
		log.Println("Warning: Firebase not initialized. Skipping topic notification.")
		return nil
	}

	message := &messaging.Message{
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data:  toDataStrings(payload.Data),
		Topic: topic,
	}

	if payload.Image != "" {
		message.Notification.ImageURL = payload.Image
	}

	message.Android = getAndroidConfig(payload)
	message.APNS = getAPNSConfig(payload)

	response, err := MessagingClient.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending topic message: %v", err)
	}

	log.Printf("Successfully sent notification to topic %s, response: %s", topic, response)
	return nil
}

// SubscribeToTopic subscribes tokens to a topic for targeted messaging
func SubscribeToTopic(ctx context.Context, tokens []string, topic string) error {
	if MessagingClient == nil {
		log.Println("Warning: Firebase not initialized. Skipping topic subscription.")
		return nil
	}

	response, err := MessagingClient.SubscribeToTopic(ctx, tokens, topic)
	if err != nil {
		return fmt.Errorf("error subscribing to topic: %v", err)
	}

	log.Printf("Successfully subscribed %d tokens to topic %s, %d failures", response.SuccessCount, topic, response.FailureCount)
	return nil
}

// UnsubscribeFromTopic unsubscribes tokens from a topic
func UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) error {
	if MessagingClient == nil {
		log.Println("Warning: Firebase not initialized. Skipping topic unsubscription.")
		return nil
	}

	response, err := MessagingClient.UnsubscribeFromTopic(ctx, tokens, topic)
	if err != nil {
		return fmt.Errorf("error unsubscribing from topic: %v", err)
	}

	log.Printf("Successfully unsubscribed %d tokens from topic %s, %d failures", response.SuccessCount, topic, response.FailureCount)
	return nil
}

// SendBookingCreatedNotification tells a driver that seats were booked
func SendBookingCreatedNotification(ctx context.Context, driverToken string, rideID uint, riderName string, seats int, destination string) error {
	payload := NotificationPayload{
		Title: "New Seat Booking",
		Body:  fmt.Sprintf("%s booked %d seat(s) on your ride to %s", riderName, seats, destination),
		Data: map[string]interface{}{
			"type":           "booking_created",
			"rideId":         rideID,
			"riderName":      riderName,
			"seats":          seats,
			"notificationId": fmt.Sprintf("booking_created_%d", rideID),
		},
	}

	return SendNotificationToToken(ctx, driverToken, payload)
}

// SendBookingCancelledNotification tells a driver that a booking was withdrawn
func SendBookingCancelledNotification(ctx context.Context, driverToken string, rideID uint, riderName, destination string) error {
	payload := NotificationPayload{
		Title: "Booking Cancelled",
		Body:  fmt.Sprintf("%s cancelled their booking on your ride to %s", riderName, destination),
		Data: map[string]interface{}{
			"type":           "booking_cancelled",
			"rideId":         rideID,
			"riderName":      riderName,
			"notificationId": fmt.Sprintf("booking_cancelled_%d", rideID),
		},
	}

	return SendNotificationToToken(ctx, driverToken, payload)
}

// SendRideCancelledNotification tells booked riders their ride was called off
func SendRideCancelledNotification(ctx context.Context, riderTokens []string, rideID uint, pickup, destination string) (*messaging.BatchResponse, error) {
	payload := NotificationPayload{
		Title: "Ride Cancelled",
		Body:  fmt.Sprintf("The ride from %s to %s was cancelled by the driver", pickup, destination),
		Data: map[string]interface{}{
			"type":           "ride_cancelled",
			"rideId":         rideID,
			"notificationId": fmt.Sprintf("ride_cancelled_%d", rideID),
		},
	}

	return SendNotificationToMultipleTokens(ctx, riderTokens, payload)
}

// SendRideCompletedNotification tells booked riders their ride was completed
func SendRideCompletedNotification(ctx context.Context, riderTokens []string, rideID uint, destination string) (*messaging.BatchResponse, error) {
	payload := NotificationPayload{
		Title: "Ride Completed",
		Body:  fmt.Sprintf("Your ride to %s is complete. Rate your driver!", destination),
		Data: map[string]interface{}{
			"type":           "ride_completed",
			"rideId":         rideID,
			"notificationId": fmt.Sprintf("ride_completed_%d", rideID),
		},
	}

	return SendNotificationToMultipleTokens(ctx, riderTokens, payload)
}

// SendChatMessageNotification tells ride participants about a new chat message
func SendChatMessageNotification(ctx context.Context, tokens []string, rideID uint, senderName, text string) (*messaging.BatchResponse, error) {
	payload := NotificationPayload{
		Title: senderName,
		Body:  text,
		Data: map[string]interface{}{
			"type":           "chat_message",
			"rideId":         rideID,
			"notificationId": fmt.Sprintf("chat_%d", rideID),
		},
		Tag: fmt.Sprintf("chat_%d", rideID),
	}

	return SendNotificationToMultipleTokens(ctx, tokens, payload)
}

// SendNewRideAvailableNotification announces a new ride on the riders topic
func SendNewRideAvailableNotification(ctx context.Context, rideID uint, pickup, destination string, costPerSeat float64) error {
	payload := NotificationPayload{
		Title: "New Ride Available",
		Body:  fmt.Sprintf("New ride from %s to %s at %.2f per seat", pickup, destination, costPerSeat),
		Data: map[string]interface{}{
			"type":           "new_ride_available",
			"rideId":         rideID,
			"notificationId": fmt.Sprintf("new_ride_%d", rideID),
		},
	}

	return SendTopicNotification(ctx, TopicAvailableRides, payload)
}
