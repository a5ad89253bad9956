package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerlens/internal/config"
	"ledgerlens/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func jwtConfig() *config.JWTConfig {
	return &config.JWTConfig{Secret: "test-secret", Issuer: "ledgerlens"}
}

func signToken(t *testing.T, secret, issuer, subject string, expiresIn time.Duration) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authTestRouter(cfg *config.JWTConfig, captured *uuid.UUID) *gin.Engine {
	r := gin.New()
	r.Use(middleware.AuthMiddleware(cfg))
	r.GET("/probe", func(c *gin.Context) {
		ownerID, err := middleware.GetOwnerID(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		*captured = ownerID
		c.Status(http.StatusOK)
	})
	return r
}

func TestAuthMiddleware_ValidTokenInjectsOwner(t *testing.T) {
	cfg := jwtConfig()
	ownerID := uuid.New()

	var captured uuid.UUID
	r := authTestRouter(cfg, &captured)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, cfg.Secret, cfg.Issuer, ownerID.String(), time.Hour))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ownerID, captured)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	var captured uuid.UUID
	r := authTestRouter(jwtConfig(), &captured)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/probe", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	cfg := jwtConfig()
	var captured uuid.UUID
	r := authTestRouter(cfg, &captured)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, cfg.Secret, cfg.Issuer, uuid.NewString(), -time.Hour))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	cfg := jwtConfig()
	var captured uuid.UUID
	r := authTestRouter(cfg, &captured)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", cfg.Issuer, uuid.NewString(), time.Hour))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_WrongIssuer(t *testing.T) {
	cfg := jwtConfig()
	var captured uuid.UUID
	r := authTestRouter(cfg, &captured)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, cfg.Secret, "someone-else", uuid.NewString(), time.Hour))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_NonUUIDSubject(t *testing.T) {
	cfg := jwtConfig()
	var captured uuid.UUID
	r := authTestRouter(cfg, &captured)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, cfg.Secret, cfg.Issuer, "alice", time.Hour))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
