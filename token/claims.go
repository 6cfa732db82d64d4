// Package token extracts claims from the backend-issued access token. The
// client never verifies signatures (that is the backend's job); it only reads
// the subject and expiry so the session layer can introspect its credential.
package token

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims holds the client-relevant subset of the access token claims.
type Claims struct {
	Subject   string     // Users unique ID
	ExpiresAt *time.Time // Expiration, nil if the token carries none
}

// ParseClaims decodes an access token without verifying its signature.
func ParseClaims(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.New("[token.ParseClaims] empty token")
	}

	parsed, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, errors.Wrap(err, "[token.ParseClaims] parse")
	}

	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("[token.ParseClaims] error extracting claims")
	}

	claims := &Claims{}
	if sub, err := mapClaims.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt := exp.Time
		claims.ExpiresAt = &expiresAt
	}
	return claims, nil
}

// Expired reports whether the token expiry has passed. Tokens without an
// expiry claim never expire from the client's point of view.
func (c *Claims) Expired() bool {
	if c.ExpiresAt == nil {
		return false
	}
	return NowTimeFunc().After(*c.ExpiresAt)
}
