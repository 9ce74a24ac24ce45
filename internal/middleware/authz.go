package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
)

const (
	userIDKey   = "user_id"
	userRoleKey = "user_role"
)

// AuthzConfig configures bearer token checks. An empty Issuer accepts any
// issuer; a non-empty Role additionally requires that role (admin passes
// every role check).
type AuthzConfig struct {
	Secret string
	Issuer string
	Role   string
}

func AuthzMiddleware(config AuthzConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "missing_token",
				"message": "Authorization header is required",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token_format",
				"message": "Authorization header must use Bearer token",
			})
			return
		}

		opts := []jwt.ParserOption{
			jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
			jwt.WithExpirationRequired(),
		}
		if config.Issuer != "" {
			opts = append(opts, jwt.WithIssuer(config.Issuer))
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(strings.TrimPrefix(authHeader, "Bearer "), claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(config.Secret), nil
		}, opts...)
		if err != nil {
			code := "invalid_token"
			message := "Token validation failed"
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				code, message = "expired_token", "Token has expired"
			case errors.Is(err, jwt.ErrTokenInvalidIssuer):
				code, message = "invalid_issuer", "Token issuer is invalid"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code, "message": message})
			return
		}

		userID, err := subject(claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_claims",
				"message": "Token does not identify a user",
			})
			return
		}

		role, _ := claims["role"].(string)
		if config.Role != "" && role != config.Role && role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "insufficient_role",
				"message": "User role does not have access to this resource",
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Set(userRoleKey, role)

		c.Next()
	}
}

// subject reads the user id from the user_id claim, falling back to sub.
func subject(claims jwt.MapClaims) (uuid.UUID, error) {
	raw, _ := claims["user_id"].(string)
	if raw == "" {
		raw, _ = claims["sub"].(string)
	}
	return uuid.FromString(raw)
}

// UserID returns the authenticated user set by AuthzMiddleware.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// RequireRole rejects requests whose token role is neither role nor admin.
// It must run after AuthzMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetString(userRoleKey)
		if got != role && got != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "insufficient_role",
				"message": "User role does not have access to this resource",
			})
			return
		}
		c.Next()
	}
}
