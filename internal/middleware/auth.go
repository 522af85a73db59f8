package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"decklens/internal/config"
)

const ContextKeySubject = "subject"

// Auth returns Gin middleware that validates HMAC-signed bearer tokens. An
// empty secret disables authentication entirely and the middleware becomes a
// pass-through, which is the default for local and CLI-driven use.
func Auth(cfg *config.JWTConfig) gin.HandlerFunc {
	if cfg.Secret == "" {
		return func(c *gin.Context) { c.Next() }
	}

	secret := []byte(cfg.Secret)
	issuer := cfg.Issuer

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "missing or invalid authorization header")
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "invalid token claims")
			return
		}
		if issuer != "" {
			iss, issErr := claims.GetIssuer()
			if issErr != nil || iss != issuer {
				abortUnauthorized(c, "invalid token issuer")
				return
			}
		}

		if sub, subErr := claims.GetSubject(); subErr == nil {
			c.Set(ContextKeySubject, sub)
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   gin.H{"code": "UNAUTHORIZED", "message": msg},
	})
}

// GetSubject extracts the authenticated token subject from the Gin context.
// Empty when auth is disabled.
func GetSubject(c *gin.Context) string {
	if val, exists := c.Get(ContextKeySubject); exists {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}
