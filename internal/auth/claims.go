package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims is the payload the backend puts in its access tokens.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// ParseUnverified decodes a token without checking its signature.
// The client cannot verify backend signatures; it only reads expiry and role hints.
func ParseUnverified(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CheckExpiry returns ErrExpiredToken when the token's exp claim is at or before now.
// Tokens without exp never expire client-side; malformed tokens are ErrInvalidToken.
func CheckExpiry(token string, now time.Time) error {
	claims, err := ParseUnverified(token)
	if err != nil {
		return err
	}
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return ErrExpiredToken
	}
	return nil
}
