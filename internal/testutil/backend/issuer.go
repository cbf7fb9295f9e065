package backend

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/ec-storefront/internal/auth"
)

// Issuer signs and validates the HS256 access tokens handed out by the backend.
type Issuer struct {
	secretKey []byte
	ttl       time.Duration
}

// NewIssuer creates an issuer whose tokens live for ttl.
func NewIssuer(secretKey string, ttl time.Duration) *Issuer {
	return &Issuer{secretKey: []byte(secretKey), ttl: ttl}
}

// Issue creates a token expiring ttl from now.
func (s *Issuer) Issue(userID int64, email, role string) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.ttl)
	token, err := s.IssueUntil(userID, email, role, expiresAt)
	return token, expiresAt, err
}

// IssueUntil creates a token with an explicit expiry, which may lie in the past.
func (s *Issuer) IssueUntil(userID int64, email, role string, expiresAt time.Time) (string, error) {
	claims := auth.Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
}

// Validate checks signature and expiry.
func (s *Issuer) Validate(tokenString string) (*auth.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &auth.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, auth.ErrInvalidToken
		}
		return s.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, auth.ErrExpiredToken
		}
		return nil, auth.ErrInvalidToken
	}

	claims, ok := token.Claims.(*auth.Claims)
	if !ok || !token.Valid {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

// hashPassword applies the same length rule as the client, then bcrypts.
func hashPassword(password string) (string, error) {
	if err := auth.ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
