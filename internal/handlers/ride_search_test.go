package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func serveEstimate(t *testing.T, query string) (int, envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/rides/estimate", EstimateCost())

	req, _ := http.NewRequest("GET", "/rides/estimate"+query, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v: %s", err, w.Body.String())
	}
	return w.Code, env
}

func TestEstimateCostEndpoint(t *testing.T) {
	status, env := serveEstimate(t, "?pickupLat=0.3476&pickupLng=32.5825&destLat=0.3136&destLng=32.5811&seats=3")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var result struct {
		DistanceKm       float64 `json:"distanceKm"`
		SuggestedPerSeat float64 `json:"suggestedPerSeat"`
		Seats            int     `json:"seats"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("unexpected payload: %v", err)
	}
	if result.Seats != 3 {
		t.Fatalf("expected 3 seats, got %d", result.Seats)
	}
	if result.DistanceKm <= 0 {
		t.Fatalf("expected a positive distance, got %v", result.DistanceKm)
	}
	if result.SuggestedPerSeat < 1.0 {
		t.Fatalf("per-seat share must not drop under the floor, got %v", result.SuggestedPerSeat)
	}
}

func TestEstimateCostDefaultsSeats(t *testing.T) {
	status, env := serveEstimate(t, "?pickupLat=0.3476&pickupLng=32.5825&destLat=0.3136&destLng=32.5811")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var result struct {
		Seats int `json:"seats"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("unexpected payload: %v", err)
	}
	if result.Seats != 1 {
		t.Fatalf("seats should default to 1, got %d", result.Seats)
	}
}

func TestEstimateCostRejectsMissingCoordinates(t *testing.T) {
	status, env := serveEstimate(t, "?pickupLat=0.3476")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if env.Error == nil || env.Error.Kind != "validation_error" {
		t.Fatalf("expected a validation error, got %+v", env.Error)
	}
}

func TestEstimateCostRejectsOutOfRange(t *testing.T) {
	status, _ := serveEstimate(t, "?pickupLat=95&pickupLng=32.58&destLat=0.31&destLng=32.58")
	if status != 400 {
		t.Fatalf("expected 400 for out of range latitude, got %d", status)
	}
}

func TestEstimateCostRejectsBadSeats(t *testing.T) {
	status, _ := serveEstimate(t, "?pickupLat=0.34&pickupLng=32.58&destLat=0.31&destLng=32.58&seats=11")
	if status != 400 {
		t.Fatalf("expected 400 for seats over the cap, got %d", status)
	}
}

func parseFilters(t *testing.T, query string) (int, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ok := false
	r := gin.New()
	r.GET("/rides/search", func(c *gin.Context) {
		_, ok = buildSearchFilters(c)
		if ok {
			c.Status(200)
		}
	})

	req, _ := http.NewRequest("GET", "/rides/search"+query, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code, ok
}

func TestBuildSearchFiltersAcceptsFullQuery(t *testing.T) {
	status, ok := parseFilters(t, "?pickup=hostel&destination=campus&date=2026-09-01&timeAfter=07:00&seats=2&maxCost=5.5&genderPreference=female&limit=10")
	if !ok || status != 200 {
		t.Fatalf("expected the full query to parse, got status %d", status)
	}
}

func TestBuildSearchFiltersRejections(t *testing.T) {
	cases := []struct {
		name  string
		query string
	}{
		{"bad date", "?date=tomorrow"},
		{"zero seats", "?seats=0"},
		{"negative cost", "?maxCost=-1"},
		{"unknown gender preference", "?genderPreference=other"},
		{"non numeric limit", "?limit=ten"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, ok := parseFilters(t, tc.query)
			if ok {
				t.Fatal("expected the query to be rejected")
			}
			if status != 400 {
				t.Fatalf("expected 400, got %d", status)
			}
		})
	}
}
