package services

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/uniride-app/uniride-backend/internal/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Client represents a WebSocket client
type Client struct {
	ID       uint
	Role     string
	Username string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub

	// CanUseRide reports whether this user participates in a ride.
	// Inbound markers for rides it rejects are dropped.
	CanUseRide func(rideID uint) bool
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mutex      sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			observability.WSClientsConnected.Inc()
			log.Printf("Client %d connected", client.ID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				observability.WSClientsConnected.Dec()
			}
			h.mutex.Unlock()
			log.Printf("Client %d disconnected", client.ID)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
					observability.WSClientsConnected.Dec()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// BroadcastToUser sends a message to a specific user
func (h *Hub) BroadcastToUser(userID uint, message []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if client.ID == userID {
			select {
			case client.Send <- message:
			default:
				log.Printf("Warning: Could not send to client %d (channel full)", client.ID)
			}
		}
	}
}

// BroadcastToUsers sends a message to each listed user. Used to reach a
// ride's participants (the driver plus its booked riders).
func (h *Hub) BroadcastToUsers(userIDs []uint, message []byte) {
	ids := make(map[uint]bool, len(userIDs))
	for _, id := range userIDs {
		ids[id] = true
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if ids[client.ID] {
			select {
			case client.Send <- message:
			default:
				log.Printf("Warning: Could not send to client %d (channel full)", client.ID)
			}
		}
	}
}

// BroadcastToRole sends a message to all users holding a role
func (h *Hub) BroadcastToRole(role string, message []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if client.Role == role {
			select {
			case client.Send <- message:
			default:
				log.Printf("Warning: Could not send to client %d (channel full)", client.ID)
			}
		}
	}
}

// BroadcastToAll sends a message to all connected clients
func (h *Hub) BroadcastToAll(message []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		select {
		case client.Send <- message:
		default:
			log.Printf("Warning: Could not send to client %d (channel full)", client.ID)
		}
	}
}

// GetConnectedClients returns the number of connected clients
func (h *Hub) GetConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// WebSocket message envelope
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// BookingCreated notifies a driver that seats on their ride were booked
type BookingCreated struct {
	RideID         uint   `json:"rideId"`
	BookingID      uint   `json:"bookingId"`
	RiderID        uint   `json:"riderId"`
	RiderName      string `json:"riderName"`
	Seats          int    `json:"seats"`
	SeatsAvailable int    `json:"seatsAvailable"`
	RideStatus     string `json:"rideStatus"`
}

// BookingCancelled notifies a driver that a booking was withdrawn
type BookingCancelled struct {
	RideID         uint   `json:"rideId"`
	BookingID      uint   `json:"bookingId"`
	RiderID        uint   `json:"riderId"`
	RiderName      string `json:"riderName"`
	SeatsAvailable int    `json:"seatsAvailable"`
	RideStatus     string `json:"rideStatus"`
}

// RideUpdated notifies participants that ride details changed
type RideUpdated struct {
	RideID         uint   `json:"rideId"`
	Status         string `json:"status"`
	SeatsAvailable int    `json:"seatsAvailable"`
	DepartureAt    string `json:"departureAt"`
}

// RideCancelled notifies booked riders that a ride was called off
type RideCancelled struct {
	RideID          uint   `json:"rideId"`
	PickupName      string `json:"pickupName"`
	DestinationName string `json:"destinationName"`
}

// RideCompleted notifies participants that a ride was completed
type RideCompleted struct {
	RideID uint `json:"rideId"`
}

// NewRideAvailable announces a freshly published ride to riders
type NewRideAvailable struct {
	RideID          uint    `json:"rideId"`
	PickupName      string  `json:"pickupName"`
	DestinationName string  `json:"destinationName"`
	DepartureAt     string  `json:"departureAt"`
	CostPerSeat     float64 `json:"costPerSeat"`
	SeatsAvailable  int     `json:"seatsAvailable"`
}

// TypingEvent marks a participant typing state in a ride chat
type TypingEvent struct {
	RideID   uint   `json:"rideId"`
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Typing   bool   `json:"typing"`
}

// LocationUpdate carries a participant's live position on a ride
type LocationUpdate struct {
	RideID   uint         `json:"rideId"`
	Location LiveLocation `json:"location"`
}

// inbound messages from clients

type typingInbound struct {
	RideID uint `json:"rideId"`
}

// HandleWebSocket handles WebSocket connections
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, userID uint, role, username string, canUseRide func(rideID uint) bool) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:         userID,
		Role:       role,
		Username:   username,
		Conn:       conn,
		Send:       make(chan []byte, 256),
		Hub:        hub,
		CanUseRide: canUseRide,
	}

	client.Hub.register <- client

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var wsMessage WebSocketMessage
		if err := json.Unmarshal(message, &wsMessage); err != nil {
			log.Printf("Error unmarshaling WebSocket message: %v", err)
			continue
		}

		// Typing markers are the only client-to-server traffic; all
		// state changes go through the REST API.
		switch wsMessage.Type {
		case "typing_start":
			c.handleTyping(wsMessage.Data, true)
		case "typing_stop":
			c.handleTyping(wsMessage.Data, false)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("WebSocket write error: %v", err)
			return
		}
	}

	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) handleTyping(data interface{}, typing bool) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	var inbound typingInbound
	if err := json.Unmarshal(raw, &inbound); err != nil || inbound.RideID == 0 {
		return
	}

	// Same gate as the REST typing endpoints: only ride participants
	// may set markers, whatever rideId the client sends.
	if c.CanUseRide == nil || !c.CanUseRide(inbound.RideID) {
		return
	}

	ctx := context.Background()
	if typing {
		err = SetTyping(ctx, inbound.RideID, c.ID, c.Username)
	} else {
		err = ClearTyping(ctx, inbound.RideID, c.ID)
	}
	if err != nil {
		log.Printf("Typing marker for ride %d failed: %v", inbound.RideID, err)
	}
}

func marshalEvent(eventType string, data interface{}) ([]byte, bool) {
	message := WebSocketMessage{Type: eventType, Data: data}
	payload, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", eventType, err)
		return nil, false
	}
	return payload, true
}

// SendBookingCreated notifies the driver of a new booking
func (h *Hub) SendBookingCreated(driverID uint, event BookingCreated) {
	if payload, ok := marshalEvent("booking_created", event); ok {
		h.BroadcastToUser(driverID, payload)
	}
}

// SendBookingCancelled notifies the driver of a withdrawn booking
func (h *Hub) SendBookingCancelled(driverID uint, event BookingCancelled) {
	if payload, ok := marshalEvent("booking_cancelled", event); ok {
		h.BroadcastToUser(driverID, payload)
	}
}

// SendRideUpdated notifies participants that ride details changed
func (h *Hub) SendRideUpdated(userIDs []uint, event RideUpdated) {
	if payload, ok := marshalEvent("ride_updated", event); ok {
		h.BroadcastToUsers(userIDs, payload)
	}
}

// SendRideCancelled notifies booked riders of a cancellation
func (h *Hub) SendRideCancelled(userIDs []uint, event RideCancelled) {
	if payload, ok := marshalEvent("ride_cancelled", event); ok {
		h.BroadcastToUsers(userIDs, payload)
	}
}

// SendRideCompleted notifies participants of a completion
func (h *Hub) SendRideCompleted(userIDs []uint, event RideCompleted) {
	if payload, ok := marshalEvent("ride_completed", event); ok {
		h.BroadcastToUsers(userIDs, payload)
	}
}

// SendNewRideAvailable announces a new ride to all connected riders
func (h *Hub) SendNewRideAvailable(event NewRideAvailable) {
	if payload, ok := marshalEvent("new_ride_available", event); ok {
		h.BroadcastToRole("rider", payload)
	}
}

// SendChatMessage delivers a chat message to the ride participants
func (h *Hub) SendChatMessage(userIDs []uint, msg ChatMessage) {
	if payload, ok := marshalEvent("chat_message", msg); ok {
		h.BroadcastToUsers(userIDs, payload)
	}
}

// SendTyping delivers a typing marker to the ride participants
func (h *Hub) SendTyping(userIDs []uint, event TypingEvent) {
	if payload, ok := marshalEvent("typing", event); ok {
		h.BroadcastToUsers(userIDs, payload)
	}
}

// SendLocationUpdate delivers a live position to the ride participants
func (h *Hub) SendLocationUpdate(userIDs []uint, event LocationUpdate) {
	if payload, ok := marshalEvent("location_update", event); ok {
		h.BroadcastToUsers(userIDs, payload)
	}
}
