package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const otpRange = 1_000_000

// GenerateOtp returns a 6-digit verification code, zero-padded, drawn
// uniformly from [0, 1000000). rand.Int can only fail if the system
// RNG is broken, in which case nothing else here works either.
func GenerateOtp() string {
	n, err := rand.Int(rand.Reader, big.NewInt(otpRange))
	if err != nil {
		panic(fmt.Errorf("system RNG unavailable, %w", err))
	}

	return fmt.Sprintf("%06d", n.Int64())
}
