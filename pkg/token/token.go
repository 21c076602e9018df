package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bulletin/pkg/apperr"
)

// Claims is the subset of JWT claims the service relies on.
type Claims struct {
	Username  string
	ExpiresAt time.Time
}

// Generate signs an HS256 session token for the given username.
func Generate(secret []byte, username string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature and expiry and extracts the claims this service
// needs. Any parse or validation failure is reported as an invalid token;
// callers must never treat an unparseable token as trustworthy.
func Parse(secret []byte, tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing subject or expiry claim", apperr.ErrInvalidToken)
	}
	return &Claims{Username: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}
