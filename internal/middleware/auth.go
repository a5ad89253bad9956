package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"ledgerlens/internal/config"
	"ledgerlens/internal/domain"
)

const (
	ContextKeyOwnerID = "owner_id"
	ContextKeyClaims  = "claims"
)

// AuthMiddleware returns Gin middleware that validates bearer JWTs and
// injects the owner identity. The token subject is the owner's UUID.
func AuthMiddleware(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing or invalid authorization header"},
			})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		ownerID, claims, err := validateToken(cfg, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid or expired token"},
			})
			return
		}

		c.Set(ContextKeyOwnerID, ownerID)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

func validateToken(cfg *config.JWTConfig, tokenStr string) (uuid.UUID, *jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return uuid.Nil, nil, fmt.Errorf("invalid token")
	}

	ownerID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("parsing token subject: %w", err)
	}
	return ownerID, claims, nil
}

// GetOwnerID extracts the authenticated owner's ID from the Gin context.
func GetOwnerID(c *gin.Context) (uuid.UUID, error) {
	val, exists := c.Get(ContextKeyOwnerID)
	if !exists {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return val.(uuid.UUID), nil
}
