package service

import (
	"errors"
	"time"

	"cobi/auth-api/internal/model"
	"cobi/auth-api/internal/store"
	"cobi/auth-api/pkg/security"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var (
	ErrEmailTaken         = errors.New("this email is already registered")
	ErrAccountNotFound    = errors.New("user not found")
	ErrNoCodeIssued       = errors.New("no verification code found for user")
	ErrCodeMismatch       = errors.New("invalid verification code")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrAlreadyVerified    = errors.New("user is already verified")
	ErrNotVerified        = errors.New("user not verified")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// MailDispatcher is the one-way outbound channel for verification mail.
// Enqueue must return immediately, delivery happens (or fails) out of
// band and never affects the operation that requested it
type MailDispatcher interface {
	Enqueue(to, code string)
}

// Auth owns the account lifecycle: registration, code verification and
// login. Accounts start unverified, flip to verified exactly once and
// never go back
type Auth struct {
	Users  *store.Users
	Otps   *store.Otps
	Argon  *security.ArgonHash
	Tokens *security.TokenIssuer
	Mail   MailDispatcher

	// GenCode produces one verification code per call. Swappable so
	// tests can pin the value
	GenCode func() string

	OtpTTL time.Duration
}

func NewAuth(users *store.Users, otps *store.Otps, argon *security.ArgonHash, tokens *security.TokenIssuer, mail MailDispatcher, otpTTL time.Duration) *Auth {
	return &Auth{
		Users:   users,
		Otps:    otps,
		Argon:   argon,
		Tokens:  tokens,
		Mail:    mail,
		GenCode: security.GenerateOtp,
		OtpTTL:  otpTTL,
	}
}

// Register creates an unverified account and issues its first
// verification code. Creating the account and recording the code are
// two separate writes on purpose: a crash in between leaves an
// unverified account with no code, which ResendCode recovers from
func (a *Auth) Register(email, name, password string) (*model.User, error) {
	taken, err := a.Users.Exists(email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := a.Argon.GenerateFromPassword(password)
	if err != nil {
		return nil, err
	}

	id, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           id,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Verified:     false,
		CreatedAt:    time.Now(),
	}

	if err := a.Users.Create(user); err != nil {
		return nil, err
	}

	if err := a.issueCode(user); err != nil {
		return nil, err
	}

	return user, nil
}

// VerifyCode checks the submitted code against the latest code issued
// for the account and flips the account to verified on success. Older
// superseded codes always fail, even when they haven't expired yet
func (a *Auth) VerifyCode(email, submitted string) error {
	user, err := a.Users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	otp, err := a.Otps.Latest(user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoCodeIssued
		}
		return err
	}

	// A consumed code no longer counts as the active one, replaying it
	// looks the same as submitting a wrong code
	if otp.Code != submitted || otp.Used {
		return ErrCodeMismatch
	}

	if !time.Now().Before(otp.ExpiresAt) {
		return ErrCodeExpired
	}

	if err := a.Users.MarkVerified(user.ID); err != nil {
		return err
	}

	return a.Otps.MarkUsed(otp.ID)
}

// ResendCode issues a fresh code for an account that hasn't verified
// yet. The new code supersedes all earlier ones
func (a *Auth) ResendCode(email string) error {
	user, err := a.Users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	if user.Verified {
		return ErrAlreadyVerified
	}

	return a.issueCode(user)
}

// Login checks verification state before the password. The ordering is
// observable through the 403 vs 401 status codes and is part of the
// external contract
func (a *Auth) Login(email, password string) (string, *model.User, error) {
	user, err := a.Users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrAccountNotFound
		}
		return "", nil, err
	}

	if !user.Verified {
		return "", nil, ErrNotVerified
	}

	ok, err := a.Argon.VerifyPasswd(password, user.PasswordHash)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, ErrInvalidCredentials
	}

	token, err := a.Tokens.Issue(user.Email)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// ResolveSession validates a presented token and loads the account it
// belongs to. Tokens aren't tracked server-side, so one issued for a
// since-deleted account simply fails the lookup here
func (a *Auth) ResolveSession(token string) (*model.User, error) {
	subject, err := a.Tokens.Validate(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := a.Users.FindByEmail(subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return user, nil
}

// issueCode records a new code and hands it to the mail queue. The
// caller's flow only fails if the write fails; delivery is best-effort
func (a *Auth) issueCode(user *model.User) error {
	code := a.GenCode()

	if _, err := a.Otps.Record(user.ID, code, a.OtpTTL); err != nil {
		return err
	}

	if a.Mail != nil {
		a.Mail.Enqueue(user.Email, code)
	} else {
		zap.L().Warn("No mail dispatcher configured, dropping verification code", zap.String("user_id", user.ID))
	}

	return nil
}
