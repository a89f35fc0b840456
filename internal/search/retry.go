package search

import (
	"time"

	"github.com/quocvuong92/omni-cli/internal/config"
)

const (
	MaxRetryAttempts  = 5
	InitialBackoff    = 100 * time.Millisecond
	MaxBackoff        = 2 * time.Second
	BackoffMultiplier = 2.0
)

// ShouldRotateKey reports whether statusCode means the current key is spent.
func ShouldRotateKey(statusCode int) bool {
	for _, code := range config.RotatableErrorCodes {
		if statusCode == code {
			return true
		}
	}
	return false
}

// CalculateBackoff returns the wait before retry number attempt+1.
func CalculateBackoff(attempt int) time.Duration {
	backoff := InitialBackoff
	for i := 0; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * BackoffMultiplier)
		if backoff > MaxBackoff {
			return MaxBackoff
		}
	}
	return backoff
}
