package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/uniride-app/uniride-backend/internal/models"
	"github.com/uniride-app/uniride-backend/pkg/utils"
)

func setupProtectedRoute(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/probe", AuthMiddleware(), func(c *gin.Context) {
		c.JSON(200, gin.H{
			"userId":   c.GetUint("userId"),
			"userRole": c.GetString("userRole"),
		})
	})
	return r
}

func issueToken(t *testing.T, id uint, role models.UserRole) string {
	t.Helper()
	token, err := utils.GenerateToken(id, "probe@campus.edu", string(role))
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	r := setupProtectedRoute(t)

	req, _ := http.NewRequest("GET", "/probe", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != 401 {
		t.Fatalf("expected 401 without a token, got %d", w.Code)
	}
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	r := setupProtectedRoute(t)

	req, _ := http.NewRequest("GET", "/probe", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != 401 {
		t.Fatalf("expected 401 for a malformed token, got %d", w.Code)
	}
}

func TestAuthMiddlewareWrongSecret(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	token := issueToken(t, 7, models.UserRoleRider)

	os.Setenv("JWT_SECRET", "another-secret")
	r := setupProtectedRoute(t)

	req, _ := http.NewRequest("GET", "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != 401 {
		t.Fatalf("expected 401 for a token signed with another secret, got %d", w.Code)
	}
}

func TestAuthMiddlewareBearerHeader(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	r := setupProtectedRoute(t)
	token := issueToken(t, 42, models.UserRoleDriver)

	req, _ := http.NewRequest("GET", "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200 with a valid bearer token, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, `"userId":42`) || !strings.Contains(body, `"userRole":"driver"`) {
		t.Fatalf("claims not propagated to context: %s", body)
	}
}

func TestAuthMiddlewareQueryParam(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	r := setupProtectedRoute(t)
	token := issueToken(t, 9, models.UserRoleRider)

	req, _ := http.NewRequest("GET", "/probe?token="+token, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200 with a query token, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"userId":9`) {
		t.Fatalf("claims not propagated to context: %s", w.Body.String())
	}
}
