package services

import "testing"

// Typing markers arrive over the socket with a client-chosen rideId, so
// the participant gate has to run before anything is written.

func TestHandleTypingConsultsRideGate(t *testing.T) {
	var checked []uint
	c := &Client{
		ID:       7,
		Username: "amina",
		CanUseRide: func(rideID uint) bool {
			checked = append(checked, rideID)
			return false
		},
	}

	// RedisClient is nil here, so a marker slipping past the gate
	// would panic instead of returning.
	c.handleTyping(map[string]interface{}{"rideId": float64(42)}, true)
	c.handleTyping(map[string]interface{}{"rideId": float64(42)}, false)

	if len(checked) != 2 || checked[0] != 42 || checked[1] != 42 {
		t.Fatalf("gate consulted with %v, want [42 42]", checked)
	}
}

func TestHandleTypingRejectsWithoutGate(t *testing.T) {
	c := &Client{ID: 7, Username: "amina"}
	c.handleTyping(map[string]interface{}{"rideId": float64(1)}, true)
}

func TestHandleTypingIgnoresMalformedPayloads(t *testing.T) {
	c := &Client{
		ID: 7,
		CanUseRide: func(uint) bool {
			t.Fatal("gate consulted for a payload without a ride id")
			return false
		},
	}

	c.handleTyping(map[string]interface{}{"text": "hello"}, true)
	c.handleTyping("not an object", true)
	c.handleTyping(nil, false)
}
