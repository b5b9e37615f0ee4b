// Package jwtx signs and verifies the two token kinds used by the auth
// service. Access and refresh tokens are signed with independent secrets so a
// leak of one can never be used to forge the other kind.
package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType discriminates the two token kinds embedded in every token.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Default TTLs, overridable via config.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Identity is the principal data embedded in both token kinds. Role and
// campus ride along in the token so access-token verification never needs a
// database round-trip.
type Identity struct {
	Subject  string // stable principal id
	IDNumber string // external login identifier, e.g. "2024-12345"
	Role     string // "Admin" or "Student"
	Campus   string // tenant tag, e.g. "UC-Main"
}

// Claims are the decoded, verified contents of a token.
type Claims struct {
	jwt.RegisteredClaims

	IDNumber  string    `json:"idNumber"`
	Role      string    `json:"role"`
	Campus    string    `json:"campus"`
	TokenType TokenType `json:"tokenType"`
}

// Identity projects the embedded principal data back out of the claims.
func (c Claims) Identity() Identity {
	return Identity{
		Subject:  c.Subject,
		IDNumber: c.IDNumber,
		Role:     c.Role,
		Campus:   c.Campus,
	}
}

func newClaims(id Identity, kind TokenType, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		IDNumber:  id.IDNumber,
		Role:      id.Role,
		Campus:    id.Campus,
		TokenType: kind,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim. Every
// signed token instance gets a fresh one.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
