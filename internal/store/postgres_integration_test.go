//go:build integration

package store

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oilrush/internal/economy"
)

// Run with: OILRUSH_TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/store
func newPostgresStore(t *testing.T) *Postgres {
	t.Helper()
	url := strings.TrimSpace(os.Getenv("OILRUSH_TEST_DATABASE_URL"))
	if url == "" {
		t.Skip("OILRUSH_TEST_DATABASE_URL is not set")
	}
	ctx := context.Background()
	schema := "oilrush_test_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")

	admin, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(admin.Close)
	_, err = admin.Exec(ctx, `CREATE SCHEMA `+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), `DROP SCHEMA `+schema+` CASCADE`)
	})

	cfg, err := pgxpool.ParseConfig(url)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	ddl, err := os.ReadFile("testdata/schema.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(ddl))
	require.NoError(t, err)
	return NewPostgres(pool)
}

func seedPostgresProfile(t *testing.T, s *Postgres, now time.Time) economy.Profile {
	t.Helper()
	id := uuid.NewString()
	p := economy.Profile{
		ID:           id,
		Balances:     economy.Balances{Money: 10_000},
		Multiplier:   1,
		ReferralCode: "REF" + id[:8],
		Titles:       []string{"ceo"},
		CreatedAt:    now,
	}
	require.NoError(t, s.CreateProfile(context.Background(), p, []economy.Transaction{{
		ID: uuid.NewString(), ProfileID: id, Kind: economy.TxSignupBonus,
		Currency: economy.CurrencyMoney, Amount: 10_000, CreatedAt: now,
	}}))
	got, err := s.GetProfile(context.Background(), id)
	require.NoError(t, err)
	return got
}

func TestPostgresCreateProfile(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := seedPostgresProfile(t, s, now)

	assert.Equal(t, int64(1), p.Version)
	assert.Equal(t, int64(10_000), p.Balances.Money)
	assert.Equal(t, []string{"ceo"}, p.Titles)
	assert.True(t, p.LastLogin.IsZero())

	err := s.CreateProfile(ctx, p, nil)
	assert.ErrorIs(t, err, ErrDuplicate)

	byCode, err := s.GetProfileByReferralCode(ctx, p.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, p.ID, byCode.ID)

	_, err = s.GetProfile(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresCommit(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := seedPostgresProfile(t, s, now)
	expires := now.Add(time.Hour)
	wellID, boosterID := uuid.NewString(), uuid.NewString()

	p.Balances.Money -= 5_000
	p.LastLogin = now
	require.NoError(t, s.Commit(ctx, Mutation{
		Profile:         p,
		ExpectedVersion: p.Version,
		IdempotencyKey:  "buy-1",
		Action:          "buy_well",
		UpsertWells:     []economy.Well{{ID: wellID, ProfileID: p.ID, Type: economy.WellBasic, Level: 1, DailyIncome: 5_000, PurchasedAt: now}},
		UpsertBoosters:  []economy.Booster{{ID: boosterID, ProfileID: p.ID, Type: economy.BoosterTurboBoost, Level: 1, ExpiresAt: &expires, UpdatedAt: now}},
		Transactions: []economy.Transaction{{
			ID: uuid.NewString(), ProfileID: p.ID, Kind: economy.TxWellPurchase,
			Currency: economy.CurrencyMoney, Amount: -5_000, Meta: map[string]any{"well": "basic"}, CreatedAt: now.Add(time.Second),
		}},
	}))

	got, err := s.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, int64(5_000), got.Balances.Money)
	assert.True(t, got.LastLogin.Equal(now))

	t.Run("stale version conflicts", func(t *testing.T) {
		stale := p
		stale.Balances.Money = 1
		err := s.Commit(ctx, Mutation{Profile: stale, ExpectedVersion: p.Version})
		assert.ErrorIs(t, err, ErrVersionConflict)
	})

	t.Run("replayed key is rejected", func(t *testing.T) {
		err := s.Commit(ctx, Mutation{Profile: got, ExpectedVersion: got.Version, IdempotencyKey: "buy-1", Action: "buy_well"})
		assert.ErrorIs(t, err, ErrDuplicateRequest)
	})

	t.Run("unknown profile", func(t *testing.T) {
		ghost := economy.Profile{ID: uuid.NewString(), Multiplier: 1}
		err := s.Commit(ctx, Mutation{Profile: ghost, ExpectedVersion: 1})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	wells, err := s.ListWells(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, wells, 1)
	assert.Equal(t, economy.WellBasic, wells[0].Type)

	txs, err := s.ListTransactions(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, economy.TxWellPurchase, txs[0].Kind)
	assert.Equal(t, "basic", txs[0].Meta["well"])

	after, err := s.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), after.Version, "failed commits leave the version alone")

	upgraded := wells[0]
	upgraded.Level = 2
	upgraded.DailyIncome = 6_000
	require.NoError(t, s.Commit(ctx, Mutation{
		Profile:         after,
		ExpectedVersion: after.Version,
		UpsertWells:     []economy.Well{upgraded},
		DeleteBoosters:  []string{boosterID},
	}))
	wells, err = s.ListWells(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, wells, 1)
	assert.Equal(t, 2, wells[0].Level)
	assert.Equal(t, int64(6_000), wells[0].DailyIncome)

	boosters, err := s.ListBoosters(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, boosters)
}

func TestPostgresPurgeExpiredBoosters(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := seedPostgresProfile(t, s, now)
	longGone := now.Add(-3 * time.Hour)
	fresh := now.Add(time.Hour)

	require.NoError(t, s.Commit(ctx, Mutation{
		Profile:         p,
		ExpectedVersion: p.Version,
		UpsertBoosters: []economy.Booster{
			{ID: uuid.NewString(), ProfileID: p.ID, Type: economy.BoosterTurboBoost, Level: 1, ExpiresAt: &longGone, UpdatedAt: now},
			{ID: uuid.NewString(), ProfileID: p.ID, Type: economy.BoosterAutomation, Level: 1, ExpiresAt: &fresh, UpdatedAt: now},
			{ID: uuid.NewString(), ProfileID: p.ID, Type: economy.BoosterWorkerCrew, Level: 2, UpdatedAt: now},
		},
	}))

	ids, err := s.PurgeExpiredBoosters(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, ids)

	boosters, err := s.ListBoosters(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, boosters, 2)
	assert.Nil(t, economy.FindBooster(boosters, economy.BoosterTurboBoost))

	ids, err = s.PurgeExpiredBoosters(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, ids)
}
