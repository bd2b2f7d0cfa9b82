// Package jwt mints and verifies the service's bearer tokens. A token is a
// signed HS256 JWT carrying the account's login id as subject, a kind tag
// and an absolute expiry. The kind keeps access and refresh tokens disjoint:
// a decoded token's kind is what callers accept or reject on, never the
// remaining TTL.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// ErrInvalidToken is returned for every decode failure: bad signature,
// malformed structure, unexpected signing method or expiry in the past.
// Callers cannot tell these apart on purpose.
var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Subject   string
	Kind      Kind
	ExpiresAt time.Time
}

// Codec signs and verifies tokens with a process-wide secret. The secret is
// injected at construction so tests and key rotation need no code changes.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

func (c *Codec) Mint(subject string, kind Kind, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"kind": string(kind),
		"exp":  time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(c.secret)
}

// Decode verifies the signature and expiry and returns the structured
// claims. Any failure collapses to ErrInvalidToken.
func (c *Codec) Decode(tokenStr string) (Claims, error) {
	const op = "jwt.Decode"

	claims := jwt.MapClaims{}

	parsedToken, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%s: unexpected signing method", op)
		}
		return c.secret, nil
	})
	if err != nil || !parsedToken.Valid {
		return Claims{}, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	kind, ok := claims["kind"].(string)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	expFloat, ok := claims["exp"].(float64)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		Subject:   sub,
		Kind:      Kind(kind),
		ExpiresAt: time.Unix(int64(expFloat), 0),
	}, nil
}
