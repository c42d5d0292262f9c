package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/uniride-app/uniride-backend/internal/apperrors"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"error"`
}

func serveError(t *testing.T, err error) (int, envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/fail", func(c *gin.Context) {
		respondError(c, err)
	})

	req, _ := http.NewRequest("GET", "/fail", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v: %s", err, w.Body.String())
	}
	return w.Code, env
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"validation", apperrors.Validation("seats", "must be positive"), 400, "validation_error"},
		{"not found", apperrors.NotFound("ride"), 404, "not_found"},
		{"authorization", apperrors.Authorization("only drivers can publish rides"), 403, "authorization_error"},
		{"capacity", apperrors.Capacity("not enough seats available"), 409, "capacity_error"},
		{"state", apperrors.State("ride is cancelled"), 409, "state_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := serveError(t, tc.err)
			if status != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, status)
			}
			if env.Success {
				t.Fatal("error envelope must have success=false")
			}
			if env.Error == nil || env.Error.Kind != tc.kind {
				t.Fatalf("expected kind %q, got %+v", tc.kind, env.Error)
			}
		})
	}
}

func TestRespondErrorHidesInternals(t *testing.T) {
	status, env := serveError(t, errors.New("pq: connection refused"))
	if status != 500 {
		t.Fatalf("expected 500, got %d", status)
	}
	if env.Error == nil || env.Error.Kind != "internal_error" {
		t.Fatalf("expected internal_error kind, got %+v", env.Error)
	}
	if env.Error.Message != "Something went wrong" {
		t.Fatalf("internal detail leaked to client: %q", env.Error.Message)
	}
}

func TestRespondErrorIncludesField(t *testing.T) {
	_, env := serveError(t, apperrors.Validation("date", "expected date as 2006-01-02 and time as 15:04"))
	if env.Error == nil || env.Error.Field != "date" {
		t.Fatalf("expected field to be named, got %+v", env.Error)
	}
}

func TestRespondData(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/ok", func(c *gin.Context) {
		respondData(c, 201, gin.H{"id": 5})
	})

	req, _ := http.NewRequest("GET", "/ok", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != 201 {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v", err)
	}
	if !env.Success || env.Error != nil {
		t.Fatalf("success envelope malformed: %s", w.Body.String())
	}
	var data map[string]int
	if err := json.Unmarshal(env.Data, &data); err != nil || data["id"] != 5 {
		t.Fatalf("payload not carried through: %s", w.Body.String())
	}
}
