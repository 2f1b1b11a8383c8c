// Package auth issues and checks access tokens for API clients.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/ridekeeper/internal/common"
)

// Claims are the standard claims plus the authenticated API client.
type Claims struct {
	jwt.RegisteredClaims
	ClientID string `json:"client_id"`
}

func GenerateToken(clientID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		ClientID: clientID,
	})

	return token.SignedString(secretKey)
}

// ClientIDFromToken validates the token. It returns common.ErrTokenExpired
// for an expired token and common.ErrInvalidToken for anything else wrong.
func ClientIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.ClientID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.ClientID, nil
}
