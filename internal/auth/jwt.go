package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session tokens identify a browser session; they carry no authorization
// beyond that. The provider credential is a separate per-request header.

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func SignSessionToken(sessionID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseSessionToken(token, secret string) (string, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid || claims.SessionID == "" {
		return "", errors.New("invalid session token")
	}
	return claims.SessionID, nil
}
