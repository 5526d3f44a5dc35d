// Package auth validates the bearer tokens the API server and Live Viewer
// Gateway require. Issuing accounts (registration, login, password storage)
// is a different product surface and lives outside this judging-focused
// slice of the platform; Service only ever verifies tokens issued elsewhere,
// plus a dev-mode IssueToken for exercising the protected routes locally.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Service validates and (in development) issues JWTs.
type Service struct {
	secret string
}

// NewService builds an auth Service around the given HMAC signing secret.
func NewService(secret string) *Service {
	return &Service{secret: secret}
}

// ValidateToken parses a JWT and returns its subject claim, matching the
// "sub"-as-user-id convention the rest of the platform's tokens use.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("token missing sub claim")
	}
	return sub, nil
}

// IssueToken signs a short-lived token for userID. Intended for local
// development and tests; production deployments issue tokens from whatever
// account system sits in front of this service.
func (s *Service) IssueToken(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(s.secret))
}
