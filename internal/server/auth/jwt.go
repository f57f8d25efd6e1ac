// Package auth issues and verifies session tokens and checks external
// identity tokens presented at login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accountability/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the session token claims. UserID identifies the caller for
// authorization; FirstName and Email are echoed back to clients.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string
	FirstName string
	Email     string
}

// Subject is the identity a session token is minted for.
type Subject struct {
	UserID    string
	FirstName string
	Email     string
}

func GenerateToken(sub Subject, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID:    sub.UserID,
		FirstName: sub.FirstName,
		Email:     sub.Email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tokenString, nil
}

// ParseToken verifies signature and expiry and returns the claims.
// Expired tokens yield common.ErrTokenExpired, anything else unusable
// common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
