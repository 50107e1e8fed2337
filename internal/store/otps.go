package store

import (
	"time"

	"cobi/auth-api/internal/model"

	"gorm.io/gorm"
)

// cleanupHorizon is how long OTP rows are kept around after creation.
// Old rows are superseded, not deleted, so the horizon has to sit far
// past any code's expiry
const cleanupHorizon = time.Hour * 24 * 30

type Otps struct {
	DB *gorm.DB
}

func NewOtps(db *gorm.DB) *Otps {
	return &Otps{DB: db}
}

// Record inserts a fresh code for the user, stamped with the current
// time and expiring after ttl. Write failures propagate to the caller
func (o *Otps) Record(userID, code string, ttl time.Duration) (*model.Otp, error) {
	now := time.Now()

	otp := &model.Otp{
		UserID:    userID,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		CleanupAt: now.Add(cleanupHorizon),
	}

	if err := o.DB.Create(otp).Error; err != nil {
		return nil, err
	}

	return otp, nil
}

// Latest returns the most recently created code for the user, which is
// the only one that counts during verification. Returns
// gorm.ErrRecordNotFound if no code was ever issued
func (o *Otps) Latest(userID string) (*model.Otp, error) {
	var otp model.Otp

	// id breaks ties between rows created within the same timestamp tick
	err := o.DB.
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		First(&otp).
		Error
	if err != nil {
		return nil, err
	}

	return &otp, nil
}

// MarkUsed consumes a code after a successful verification so replaying
// it later fails
func (o *Otps) MarkUsed(id int) error {
	return o.DB.Model(&model.Otp{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"used":    true,
			"used_at": time.Now(),
		}).
		Error
}

// DeleteStale removes rows whose cleanup horizon has passed. Expired
// but recent rows stay so a "code expired" answer doesn't degrade into
// "no code issued"
func (o *Otps) DeleteStale(now time.Time) (int64, error) {
	r := o.DB.
		Where("cleanup_at < ?", now).
		Delete(model.Otp{})

	return r.RowsAffected, r.Error
}
