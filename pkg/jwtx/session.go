// Package jwtx issues and verifies the gateway's own session tokens.
//
// A session token is an HS256-signed JWT whose subject is the upstream
// numeric user id. It carries no upstream secret; the upstream credential is
// resolved from the user store on every request.
package jwtx

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is how long an issued session stays valid. Sessions are
// never renewed server-side; the user re-authenticates after expiry.
const DefaultSessionTTL = 7 * 24 * time.Hour

var (
	ErrInvalidToken = errors.New("jwtx: invalid session token")
	ErrExpiredToken = errors.New("jwtx: session token expired")
)

// Sessions mints and verifies session tokens with a single symmetric key.
type Sessions struct {
	Secret []byte
	Issuer string
	TTL    time.Duration

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func (s *Sessions) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Sessions) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultSessionTTL
}

// Issue mints a session token for the given upstream user id.
func (s *Sessions) Issue(userID int64) (string, error) {
	now := s.now()

	claims := jwt.RegisteredClaims{
		Issuer:    s.Issuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl())),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign session token: %w", err)
	}
	return signed, nil
}

// Verify validates a session token and returns the upstream user id it
// identifies.
func (s *Sessions) Verify(raw string) (int64, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return s.Secret, nil
		},
		jwt.WithIssuer(s.Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpiredToken
		}
		return 0, ErrInvalidToken
	}
	if !token.Valid {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
