package service

import (
	"time"

	"cobi/auth-api/internal/store"

	"go.uber.org/zap"
)

// OtpCleanup periodically deletes verification codes that are long past
// any use. Only rows past their cleanup horizon go, so a recently
// expired code still answers "code expired" instead of "no code issued"
func OtpCleanup(t time.Duration, otps *store.Otps) {
	ticker := time.NewTicker(t)

	zap.L().Debug("OTP cleanup attached", zap.Duration("tick_every", t))

	go func() {
		for range ticker.C {
			n, err := otps.DeleteStale(time.Now())
			if err != nil {
				zap.L().Error("Failed to clean up stale verification codes", zap.Error(err))
				continue
			}

			if n > 0 {
				zap.L().Debug("Cleaned up stale verification codes", zap.Int64("deleted", n))
			}
		}
	}()
}
