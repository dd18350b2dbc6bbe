package game

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"oilrush/internal/economy"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200

	// DefaultPurgeRetention keeps expired boosters around for a while so the
	// dashboard can still show what just ran out.
	DefaultPurgeRetention = time.Hour

	maxCommitAttempts = 5
)

var (
	// ErrTxConflict means the profile kept changing underneath us and the
	// retry budget ran out.
	ErrTxConflict = errors.New("transaction conflict, retry")
	// ErrRemoteFailure wraps any failure of the record store itself.
	ErrRemoteFailure        = errors.New("remote failure")
	ErrDuplicateIdempotency = errors.New("duplicate idempotency key")
	ErrInvalidInput         = errors.New("invalid input")
)

func remoteFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrRemoteFailure, err)
}

func generateInviteCode() (string, error) {
	const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = letters[int(buf[i])%len(letters)]
	}
	return string(buf), nil
}

func clampHistoryLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

// MoneyPerDay converts a barrel income to the primary currency for display.
func MoneyPerDay(rates economy.ExchangeRates, barrels int64) float64 {
	return economy.BarrelsToMoney(rates, barrels)
}
