package service

import (
	"path/filepath"
	"testing"
	"time"

	"cobi/auth-api/internal/model"
	"cobi/auth-api/internal/store"
	"cobi/auth-api/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeMail struct {
	sent []struct{ To, Code string }
}

func (f *fakeMail) Enqueue(to, code string) {
	f.sent = append(f.sent, struct{ To, Code string }{to, code})
}

func newTestAuth(t *testing.T) (*Auth, *fakeMail) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.User{}, model.Otp{}))

	mail := &fakeMail{}
	tokens := security.NewTokenIssuer([]byte("test-key"), time.Hour*24)

	return NewAuth(store.NewUsers(db), store.NewOtps(db), security.NewArgon(), tokens, mail, time.Minute*10), mail
}

func TestRegisterCreatesUnverifiedAccount(t *testing.T) {
	auth, mail := newTestAuth(t)

	user, err := auth.Register("a@x.com", "A", "Passw0rd!")
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.False(t, user.Verified)
	assert.NotEqual(t, "Passw0rd!", user.PasswordHash)

	// The first code is recorded and handed to the mail queue
	otp, err := auth.Otps.Latest(user.ID)
	require.NoError(t, err)
	assert.Len(t, otp.Code, 6)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "a@x.com", mail.sent[0].To)
	assert.Equal(t, otp.Code, mail.sent[0].Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	auth, _ := newTestAuth(t)

	_, err := auth.Register("a@x.com", "A", "Passw0rd!")
	require.NoError(t, err)

	_, err = auth.Register("a@x.com", "B", "Passw0rd2!")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestVerifyCodeFlipsVerified(t *testing.T) {
	auth, mail := newTestAuth(t)
	auth.GenCode = func() string { return "123456" }

	_, err := auth.Register("a@x.com", "A", "Passw0rd!")
	require.NoError(t, err)

	require.NoError(t, auth.VerifyCode("a@x.com", "123456"))

	user, err := auth.Users.FindByEmail("a@x.com")
	require.NoError(t, err)
	assert.True(t, user.Verified)

	// Replaying the consumed code fails
	assert.ErrorIs(t, auth.VerifyCode("a@x.com", "123456"), ErrCodeMismatch)

	require.Len(t, mail.sent, 1)
}

func TestVerifyCodeFailures(t *testing.T) {
	auth, _ := newTestAuth(t)
	auth.GenCode = func() string { return "123456" }

	assert.ErrorIs(t, auth.VerifyCode("ghost@x.com", "123456"), ErrAccountNotFound)

	_, err := auth.Register("a@x.com", "A", "Passw0rd!")
	require.NoError(t, err)

	assert.ErrorIs(t, auth.VerifyCode("a@x.com", "000000"), ErrCodeMismatch)

	user, err := auth.Users.FindByEmail("a@x.com")
	require.NoError(t, err)
	assert.False(t, user.Verified)
}

func TestVerifyCodeNoCodeIssued(t *testing.T) {
	auth, _ := newTestAuth(t)

	// An account can exist without any code if the process died between
	// the two writes during registration
	require.NoError(t, auth.Users.Create(&model.User{
		ID:    "orphan",
		Email: "orphan@x.com",
	}))

	assert.ErrorIs(t, auth.VerifyCode("orphan@x.com", "123456"), ErrNoCodeIssued)
}

func TestVerifyCodeExpired(t *testing.T) {
	auth, _ := newTestAuth(t)
	auth.GenCode = func() string { return "123456" }
	auth.OtpTTL = -time.Second

	_, err := auth.Register("a@x.com", "A", "Passw0rd!")
	require.NoError(t, err)

	assert.ErrorIs(t, auth.VerifyCode("a@x.com", "123456"), ErrCodeExpired)
}

func TestSupersededCodeFails(t *testing.T) {
	auth, mail := newTestAuth(t)

	codes := []string{"111111", "222222"}
	auth.GenCode = func() string {
		code := codes[0]
		codes = codes[1:]
		return code
	}

	_, err := auth.Register("a@x.com", "A", "Passw0rd!")
	require.NoError(t, err)

	require.NoError(t, auth.ResendCode("a@x.com"))
	require.Len(t, mail.sent, 2)

	// The old code is well-formed and unexpired, but it's no longer the
	// latest one
	assert.ErrorIs(t, auth.VerifyCode("a@x.com", "111111"), ErrCodeMismatch)

	require.NoError(t, auth.VerifyCode("a@x.com", "222222"))
}

func TestResendCodeGuards(t *testing.T) {
	auth, _ := newTestAuth(t)
	auth.GenCode = func() string { return "123456" }

	assert.ErrorIs(t, auth.ResendCode("ghost@x.com"), ErrAccountNotFound)

	_, err := auth.Register("a@x.com", "A", "Passw0rd!")
	require.NoError(t, err)
	require.NoError(t, auth.VerifyCode("a@x.com", "123456"))

	assert.ErrorIs(t, auth.ResendCode("a@x.com"), ErrAlreadyVerified)
}

func TestLoginBeforeVerification(t *testing.T) {
	auth, _ := newTestAuth(t)

	_, err := auth.Register("a@x.com", "A", "Passw0rd!")
	require.NoError(t, err)

	// Correct password, but verification state is checked first
	_, _, err = auth.Login("a@x.com", "Passw0rd!")
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestLoginAfterVerification(t *testing.T) {
	auth, _ := newTestAuth(t)
	auth.GenCode = func() string { return "123456" }

	_, err := auth.Register("a@x.com", "A", "Passw0rd!")
	require.NoError(t, err)
	require.NoError(t, auth.VerifyCode("a@x.com", "123456"))

	_, _, err = auth.Login("a@x.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = auth.Login("ghost@x.com", "Passw0rd!")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	token, user, err := auth.Login("a@x.com", "Passw0rd!")
	require.NoError(t, err)
	assert.True(t, user.Verified)

	// The token's subject is the account's email
	sub, err := auth.Tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", sub)
}

func TestResolveSession(t *testing.T) {
	auth, _ := newTestAuth(t)
	auth.GenCode = func() string { return "123456" }

	_, err := auth.Register("a@x.com", "A", "Passw0rd!")
	require.NoError(t, err)
	require.NoError(t, auth.VerifyCode("a@x.com", "123456"))

	token, _, err := auth.Login("a@x.com", "Passw0rd!")
	require.NoError(t, err)

	user, err := auth.ResolveSession(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)

	_, err = auth.ResolveSession("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// A valid token whose account vanished fails at the lookup, not at
	// token validation
	stale, err := auth.Tokens.Issue("deleted@x.com")
	require.NoError(t, err)

	_, err = auth.ResolveSession(stale)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
