// Package store persists profiles, wells, boosters and the transaction ledger.
// Every balance change goes through Commit, which applies a whole Mutation
// atomically and only if the profile version has not moved.
package store

import (
	"context"
	"errors"
	"time"

	"oilrush/internal/economy"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("profile version changed")
	ErrDuplicate       = errors.New("record already exists")
	// ErrDuplicateRequest means the idempotency key was already used.
	ErrDuplicateRequest = errors.New("duplicate request")
)

// Mutation is one read-modify-write of a profile. Profile carries the new
// state; the store bumps its version to ExpectedVersion+1.
type Mutation struct {
	Profile         economy.Profile
	ExpectedVersion int64
	IdempotencyKey  string
	Action          string
	UpsertWells     []economy.Well
	UpsertBoosters  []economy.Booster
	DeleteBoosters  []string
	Transactions    []economy.Transaction
}

type Store interface {
	GetProfile(ctx context.Context, id string) (economy.Profile, error)
	GetProfileByReferralCode(ctx context.Context, code string) (economy.Profile, error)
	// CreateProfile fails with ErrDuplicate when the id or referral code is
	// taken.
	CreateProfile(ctx context.Context, p economy.Profile, txs []economy.Transaction) error
	ListWells(ctx context.Context, profileID string) ([]economy.Well, error)
	ListBoosters(ctx context.Context, profileID string) ([]economy.Booster, error)
	ListTransactions(ctx context.Context, profileID string, limit int) ([]economy.Transaction, error)
	Commit(ctx context.Context, m Mutation) error
	// PurgeExpiredBoosters deletes temporary boosters that expired before the
	// cutoff and returns the affected profile ids.
	PurgeExpiredBoosters(ctx context.Context, before time.Time) ([]string, error)
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Postgres)(nil)
	_ Store = (*Supabase)(nil)
)
