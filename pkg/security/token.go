package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenInvalid = errors.New("token invalid or expired")

// TokenIssuer signs and validates session tokens with a single HS256
// key. The key is set once at construction and never rotated while the
// process lives, so Issue and Validate are safe to call from any number
// of requests at once.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
}

func NewTokenIssuer(key []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		key: key,
		ttl: ttl,
	}
}

// Issue signs a token for the given subject, valid from now for the
// issuer's TTL
func (t *TokenIssuer) Issue(subject string) (string, error) {
	now := time.Now()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	})

	return tok.SignedString(t.key)
}

// Validate parses the token, checks the signature and expiry and
// returns the subject. Any malformed, forged or expired token comes
// back as ErrTokenInvalid; callers don't get to tell those apart
func (t *TokenIssuer) Validate(tokenStr string) (string, error) {
	tok, err := jwt.Parse(tokenStr, func(tok *jwt.Token) (any, error) {
		if tok.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", tok.Method.Alg())
		}

		return t.key, nil
	})
	if err != nil || !tok.Valid {
		return "", ErrTokenInvalid
	}

	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrTokenInvalid
	}

	return sub, nil
}

// SubjectOf extracts the subject claim without checking the signature
// or expiry. Only useful as a lookup key before a full Validate call
func (t *TokenIssuer) SubjectOf(tokenStr string) (string, bool) {
	tok, _, err := jwt.NewParser().ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return "", false
	}

	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}

	return sub, true
}
