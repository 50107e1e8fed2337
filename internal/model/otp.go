package model

import "time"

// Otp is a single one-time verification code issued to a user. Codes are
// never updated in place. A new registration or resend inserts a fresh row
// and only the newest row per user counts during verification.
type Otp struct {
	ID     int    `gorm:"primaryKey;autoIncrement"`
	UserID string `gorm:"index"`
	Code   string

	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
	Used      bool

	// CleanupAt is when the janitor may delete the row. It sits far past
	// ExpiresAt so deleting stale rows can't change what "latest code"
	// means for any account that could still verify.
	CleanupAt time.Time
}
