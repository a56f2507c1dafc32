package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookforge-api/pkg/utils"

	"github.com/gin-gonic/gin"
)

func newAuthEngine(t *testing.T, cfg AuthConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Auth(cfg))
	r.GET("/v1/users/me", func(c *gin.Context) {
		c.JSON(200, gin.H{"user_id": c.GetString("user_id"), "tier": c.GetString("tier")})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return r
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	r := newAuthEngine(t, AuthConfig{Secret: "s", Issuer: "test", Enabled: true})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if _, ok := body["error"]; !ok {
		t.Errorf("expected flat error payload, got %v", body)
	}
}

func TestAuthInjectsClaims(t *testing.T) {
	r := newAuthEngine(t, AuthConfig{Secret: "s", Issuer: "test", Enabled: true})

	token, err := utils.NewJWTManager("s", "test").GenerateToken("u1", "pro", "access", time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["user_id"] != "u1" || body["tier"] != "pro" {
		t.Errorf("claims not injected: %v", body)
	}
}

func TestAuthRejectsRefreshTokenOnAPIRoute(t *testing.T) {
	r := newAuthEngine(t, AuthConfig{Secret: "s", Issuer: "test", Enabled: true})

	token, err := utils.NewJWTManager("s", "test").GenerateToken("u1", "free", "refresh", time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for refresh token, got %d", w.Code)
	}
}

func TestAuthSkipsHealthEndpoints(t *testing.T) {
	r := newAuthEngine(t, AuthConfig{Secret: "s", Issuer: "test", Enabled: true})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected health to skip auth, got %d", w.Code)
	}
}
