package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"

	"brigade/internal/models"
)

// TokenTTL is the lifetime of an issued session token. Mini App clients
// simply re-post initData when a token expires.
const TokenTTL = 24 * time.Hour

// Claims is the session payload carried by every API token.
type Claims struct {
	Tenant string      `json:"tenant"`
	UserID int64       `json:"uid"`
	Name   string      `json:"name"`
	Role   models.Role `json:"role"`
	jwt.StandardClaims
}

// Actor returns the claims as a write attribution.
func (c *Claims) Actor() models.Actor {
	return models.Actor{ID: c.UserID, Name: c.Name}
}

// IssueToken signs a session token for the given user within a tenant.
func IssueToken(secret, tenant string, user *models.User, now time.Time) (string, error) {
	claims := Claims{
		Tenant: tenant,
		UserID: user.ID,
		Name:   user.DisplayName(),
		Role:   user.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(TokenTTL).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a session token and returns its claims.
func ParseToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
