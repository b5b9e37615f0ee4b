package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoSecret  = errors.New("jwtx: signing secret must not be empty")
	ErrExpired   = errors.New("jwtx: token expired")
	ErrInvalid   = errors.New("jwtx: invalid token")
	ErrWrongType = errors.New("jwtx: wrong token type")
)

// SignOption overrides signing behaviour, mainly for tests.
type SignOption func(*signOptions)

type signOptions struct {
	ttl *time.Duration
	now time.Time
}

// WithTTL overrides the codec's configured TTL for a single token.
func WithTTL(ttl time.Duration) SignOption {
	return func(o *signOptions) { o.ttl = &ttl }
}

// WithIssuedAt pins the issue time instead of using the wall clock.
func WithIssuedAt(now time.Time) SignOption {
	return func(o *signOptions) { o.now = now }
}

// AccessCodec signs and verifies short-lived access tokens. It is a distinct
// type from RefreshCodec so that handing the wrong codec to a verification
// site is a compile error rather than a runtime surprise.
type AccessCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewAccessCodec(secret string, ttl time.Duration) (*AccessCodec, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if ttl == 0 {
		ttl = DefaultAccessTokenTTL
	}
	return &AccessCodec{secret: []byte(secret), ttl: ttl}, nil
}

// Sign embeds the identity plus tokenType "access" and signs with the access
// secret. A fresh jti makes every mint distinct even within the one-second
// granularity of iat/exp, so a refresh never reissues a byte-identical token.
func (c *AccessCodec) Sign(id Identity, opts ...SignOption) (string, error) {
	return sign(c.secret, id, TokenTypeAccess, c.ttl, NewJTI(), opts)
}

// Verify checks signature, expiry, and that the token really is an access
// token.
func (c *AccessCodec) Verify(token string) (Claims, error) {
	return verify(c.secret, token, TokenTypeAccess)
}

// TTL reports the configured access-token lifetime.
func (c *AccessCodec) TTL() time.Duration { return c.ttl }

// RefreshCodec signs and verifies long-lived refresh tokens with its own
// secret. Like access tokens, every signed token carries a fresh random jti,
// so two refresh tokens for the same identity are never byte-identical —
// which the exact-value reuse comparison depends on.
type RefreshCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewRefreshCodec(secret string, ttl time.Duration) (*RefreshCodec, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if ttl == 0 {
		ttl = DefaultRefreshTokenTTL
	}
	return &RefreshCodec{secret: []byte(secret), ttl: ttl}, nil
}

func (c *RefreshCodec) Sign(id Identity, opts ...SignOption) (string, error) {
	return sign(c.secret, id, TokenTypeRefresh, c.ttl, NewJTI(), opts)
}

func (c *RefreshCodec) Verify(token string) (Claims, error) {
	return verify(c.secret, token, TokenTypeRefresh)
}

// TTL reports the configured refresh-token lifetime.
func (c *RefreshCodec) TTL() time.Duration { return c.ttl }

func sign(
	secret []byte,
	id Identity,
	kind TokenType,
	ttl time.Duration,
	jti string,
	opts []SignOption,
) (string, error) {
	o := signOptions{now: time.Now()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ttl != nil {
		ttl = *o.ttl
	}

	claims := newClaims(id, kind, ttl, o.now)
	claims.ID = jti

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func verify(secret []byte, token string, want TokenType) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		// The signature did not check out. Peek at the unverified payload so
		// a token of the other kind yields the more precise diagnostic; both
		// paths still reject.
		if decoded, decErr := Decode(token); decErr == nil && decoded.TokenType != want {
			return Claims{}, ErrWrongType
		}
		return Claims{}, ErrInvalid
	}

	if claims.TokenType != want {
		return Claims{}, ErrWrongType
	}
	return claims, nil
}

// Decode extracts claims without verifying the signature. Diagnostics only:
// the result must never gate an access decision.
func Decode(token string) (Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, ErrInvalid
	}
	return claims, nil
}
