package internal

import (
	"cobi/auth-api/internal/service"
	"cobi/auth-api/internal/store"
	"cobi/auth-api/pkg/security"

	"gorm.io/gorm"
)

type Deps struct {
	DB     *gorm.DB
	Users  *store.Users
	Otps   *store.Otps
	Argon  *security.ArgonHash
	Tokens *security.TokenIssuer
	Auth   *service.Auth
	Mail   *service.MailQueue
}
