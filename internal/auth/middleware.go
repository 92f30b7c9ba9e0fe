package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// SubjectKey is the gin context key carrying the authenticated subject
const SubjectKey = "auth_subject"

// ServiceSubject names requests authenticated with the service API key
const ServiceSubject = "service"

// Middleware enforces bearer credentials on API routes. With no JWT
// secret configured every request passes through. With a secret set the
// Authorization header must carry either the privileged service key or
// a valid HS256 token signed with that secret.
func Middleware(jwtSecret, serviceKey string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSecret == "" {
			c.Next()
			return
		}

		raw, ok := bearerToken(c)
		if !ok {
			unauthorized(c, "bearer credentials required")
			return
		}

		if serviceKey != "" && raw == serviceKey {
			c.Set(SubjectKey, ServiceSubject)
			c.Next()
			return
		}

		subject, err := verifyToken(raw, jwtSecret)
		if err != nil {
			logger.Warn("Rejected unauthorized request",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			unauthorized(c, "invalid bearer token")
			return
		}

		c.Set(SubjectKey, subject)
		c.Next()
	}
}

// bearerToken extracts the token from the Authorization header
func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

// verifyToken parses an HS256 token and returns its subject claim
func verifyToken(raw, secret string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to verify token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("token is not valid")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("failed to read token subject: %w", err)
	}
	return subject, nil
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"ok":      false,
		"error":   "UNAUTHORIZED",
		"message": message,
	})
}
