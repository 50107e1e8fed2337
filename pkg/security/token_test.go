package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-key"), time.Hour*24)

	token, err := issuer.Issue("a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sub, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", sub)
}

func TestTokenExpired(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-key"), -time.Second)

	token, err := issuer.Issue("a@x.com")
	require.NoError(t, err)

	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenWrongKey(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-key"), time.Hour)
	other := NewTokenIssuer([]byte("other-key"), time.Hour)

	token, err := issuer.Issue("a@x.com")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenMalformed(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-key"), time.Hour)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := issuer.Validate(tok)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	}
}

func TestTokenEmptySubject(t *testing.T) {
	key := []byte("test-key")
	issuer := NewTokenIssuer(key, time.Hour)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := tok.SignedString(key)
	require.NoError(t, err)

	_, err = issuer.Validate(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenRejectsForeignAlg(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-key"), time.Hour)

	// alg=none with an empty signature must never pass
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "a@x.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Validate(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSubjectOf(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-key"), -time.Second)

	// Expired tokens still expose their subject, SubjectOf is only a
	// lookup helper and never a validity check
	token, err := issuer.Issue("a@x.com")
	require.NoError(t, err)

	sub, ok := issuer.SubjectOf(token)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", sub)

	_, ok = issuer.SubjectOf("not a token")
	assert.False(t, ok)
}
