package game

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oilrush/internal/economy"
	"oilrush/internal/store"
)

type fixedDraw struct {
	roll  float64
	index int
}

func (f *fixedDraw) Float64() float64 { return f.roll / 100 }
func (f *fixedDraw) Intn(n int) int   { return f.index % n }

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time {
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

type harness struct {
	svc   *Service
	store *store.Memory
	clock *testClock
	draw  *fixedDraw
	cat   *economy.Catalog
}

func newHarness(t *testing.T, mutate ...func(*economy.Catalog)) *harness {
	t.Helper()
	cat := economy.DefaultCatalog()
	for _, fn := range mutate {
		fn(cat)
	}
	require.NoError(t, cat.Validate())
	h := &harness{
		store: store.NewMemory(),
		clock: &testClock{t: time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)},
		draw:  &fixedDraw{roll: 50},
		cat:   cat,
	}
	n := 0
	h.svc = NewService(h.store, cat, slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(h.clock.now),
		WithRandom(h.draw),
		WithIDs(func() string { n++; return "id-" + strconv.Itoa(n) }),
		WithRetryDelay(time.Millisecond),
	)
	return h
}

func (h *harness) signup(t *testing.T, userID string) economy.Profile {
	t.Helper()
	p, err := h.svc.EnsureProfile(context.Background(), userID, "")
	require.NoError(t, err)
	return p
}

func TestEnsureProfileStarterBalance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	p := h.signup(t, "u1")
	assert.Equal(t, economy.Balances{Coins: 50, Money: 10_000}, p.Balances)
	assert.Len(t, p.ReferralCode, 8)
	assert.Equal(t, 1.0, p.Multiplier)
	assert.Equal(t, h.clock.t, p.LastLogin)

	again, err := h.svc.EnsureProfile(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, p.ReferralCode, again.ReferralCode)

	txs, err := h.svc.Transactions(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestEnsureProfileReferral(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	referrer := h.signup(t, "u1")

	p, err := h.svc.EnsureProfile(ctx, "u2", " "+referrer.ReferralCode+" ")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ReferredBy)

	stranger, err := h.svc.EnsureProfile(ctx, "u3", "NOPE0000")
	require.NoError(t, err)
	assert.Empty(t, stranger.ReferredBy)
}

func TestBoosterPurchaseAndCancelScenario(t *testing.T) {
	h := newHarness(t, func(c *economy.Catalog) { c.StarterBalance = economy.Balances{Money: 5_000} })
	ctx := context.Background()
	h.signup(t, "u1")

	bought, err := h.svc.BuyBooster(ctx, "u1", economy.BoosterWorkerCrew, "")
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), bought.Cost)
	assert.Equal(t, 1, bought.Booster.Level)
	assert.Zero(t, bought.Profile.Balances.Money)
	assert.InDelta(t, 1.1, bought.Profile.Multiplier, 1e-9)

	_, err = h.svc.BuyBooster(ctx, "u1", economy.BoosterWorkerCrew, "")
	assert.ErrorIs(t, err, economy.ErrInsufficientFunds)

	cancelled, err := h.svc.CancelBooster(ctx, "u1", economy.BoosterWorkerCrew, "")
	require.NoError(t, err)
	assert.True(t, cancelled.Deleted)
	assert.Equal(t, int64(2_500), cancelled.Refund)
	assert.Equal(t, int64(2_500), cancelled.Profile.Balances.Money)
	assert.Equal(t, 1.0, cancelled.Profile.Multiplier)

	boosters, err := h.store.ListBoosters(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, boosters)

	_, err = h.svc.CancelBooster(ctx, "u1", economy.BoosterWorkerCrew, "")
	assert.ErrorIs(t, err, economy.ErrNotFound)
}

func TestFailedPurchaseLeavesProfileUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	before := h.signup(t, "u1")

	_, err := h.svc.BuyWell(ctx, "u1", economy.WellLegendary, "")
	assert.ErrorIs(t, err, economy.ErrInsufficientFunds)

	after, err := h.store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.Balances, after.Balances)
}

func TestResumeSessionCreditsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signup(t, "u1")

	bought, err := h.svc.BuyWell(ctx, "u1", economy.WellBasic, "")
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), bought.Profile.DailyIncome)

	h.clock.advance(2 * time.Hour)
	first, err := h.svc.ResumeSession(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(416), first.Credit.Amount)
	assert.Equal(t, int64(416), first.Profile.Balances.Barrels)
	assert.Equal(t, h.clock.t, first.Profile.LastLogin)

	second, err := h.svc.ResumeSession(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, second.Credit.Amount)
	assert.Equal(t, int64(416), second.Profile.Balances.Barrels)

	h.clock.advance(72 * time.Hour)
	capped, err := h.svc.ResumeSession(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), capped.Credit.Amount)
	assert.Equal(t, 24*time.Hour, capped.Credit.Credited)
}

func TestResumeSessionDiscardsDust(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signup(t, "u1")
	_, err := h.svc.BuyWell(ctx, "u1", economy.WellStarter, "")
	require.NoError(t, err)

	// 2000/day over 4 minutes is 5 barrels
	h.clock.advance(4 * time.Minute)
	got, err := h.svc.ResumeSession(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, got.Credit.Amount)
	assert.Equal(t, int64(5), got.Credit.Discarded)
	assert.Zero(t, got.Profile.Balances.Barrels)
	assert.Equal(t, h.clock.t, got.Profile.LastLogin)
}

func TestOpenCaseMoneyReward(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signup(t, "u1")
	h.draw.roll, h.draw.index = 1, 0

	got, err := h.svc.OpenCase(ctx, "u1", "basic_case", "")
	require.NoError(t, err)
	assert.Equal(t, economy.RarityLegendary, got.Reward.Rarity)
	assert.Equal(t, int64(45_000), got.MoneyDelta)
	assert.Equal(t, int64(55_000), got.Profile.Balances.Money)

	txs, err := h.svc.Transactions(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, economy.TxCaseWin, txs[0].Kind)
	assert.Equal(t, int64(50_000), txs[0].Amount)
	assert.Equal(t, economy.TxCaseOpen, txs[1].Kind)
	assert.Equal(t, int64(-5_000), txs[1].Amount)
}

func TestOpenCaseWellReward(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signup(t, "u1")
	h.draw.roll, h.draw.index = 1, 1

	got, err := h.svc.OpenCase(ctx, "u1", "basic_case", "")
	require.NoError(t, err)
	require.NotNil(t, got.Well)
	assert.Equal(t, economy.WellAdvanced, got.Well.Type)
	assert.Equal(t, int64(5_000), got.Profile.Balances.Money)
	assert.Equal(t, int64(30_000), got.Profile.DailyIncome)
}

func TestOpenCaseMultiplierReward(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signup(t, "u1")
	h.draw.roll, h.draw.index = 20, 2

	got, err := h.svc.OpenCase(ctx, "u1", "basic_case", "")
	require.NoError(t, err)
	require.NotNil(t, got.Booster)
	assert.Equal(t, economy.BoosterCaseMultiplier, got.Booster.Type)
	assert.InDelta(t, 2.0, got.Profile.Multiplier, 1e-9)

	dash, err := h.svc.Dashboard(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, dash.Boosters, 1)
	assert.True(t, dash.Boosters[0].Active)
	assert.Equal(t, time.Hour, dash.Boosters[0].ExpiresIn)
	assert.Zero(t, dash.Boosters[0].NextCost)

	h.clock.advance(2 * time.Hour)
	dash, err = h.svc.Dashboard(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, dash.Multiplier)
	assert.False(t, dash.Boosters[0].Active)
}

func TestOpenCaseInsufficientFunds(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "u1")
	_, err := h.svc.OpenCase(context.Background(), "u1", "elite_case", "")
	assert.ErrorIs(t, err, economy.ErrInsufficientFunds)
}

func TestUpgradeWell(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signup(t, "u1")
	bought, err := h.svc.BuyWell(ctx, "u1", economy.WellStarter, "")
	require.NoError(t, err)

	up, err := h.svc.UpgradeWell(ctx, "u1", bought.Well.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, up.Well.Level)
	assert.Equal(t, int64(600), up.Cost)
	assert.Equal(t, int64(10_000-1_000-600), up.Profile.Balances.Money)
	assert.Equal(t, int64(2_400), up.Profile.DailyIncome)

	_, err = h.svc.UpgradeWell(ctx, "u1", "missing", "")
	assert.ErrorIs(t, err, economy.ErrNotFound)
}

func TestIdempotencyKeyRejectsReplay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signup(t, "u1")

	_, err := h.svc.BuyWell(ctx, "u1", economy.WellStarter, "req-1")
	require.NoError(t, err)
	_, err = h.svc.BuyWell(ctx, "u1", economy.WellStarter, "req-1")
	assert.ErrorIs(t, err, ErrDuplicateIdempotency)

	wells, err := h.store.ListWells(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, wells, 1)
}

func TestPurgeExpiredBoostersRefreshesMultiplier(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signup(t, "u1")
	h.draw.roll, h.draw.index = 20, 2
	_, err := h.svc.OpenCase(ctx, "u1", "basic_case", "")
	require.NoError(t, err)

	h.clock.advance(3 * time.Hour)
	n, err := h.svc.PurgeExpiredBoosters(ctx, DefaultPurgeRetention)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, err := h.store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Multiplier)

	n, err = h.svc.PurgeExpiredBoosters(ctx, DefaultPurgeRetention)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUnknownProfile(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Dashboard(context.Background(), "ghost")
	assert.ErrorIs(t, err, economy.ErrNotFound)
	assert.False(t, errors.Is(err, ErrRemoteFailure))
}

func TestConvertAndPlan(t *testing.T) {
	h := newHarness(t)

	q, err := h.svc.Convert(3, economy.CurrencyCoins, economy.CurrencyMoney)
	require.NoError(t, err)
	assert.InDelta(t, 300.0, q.Result, 1e-9)

	_, err = h.svc.Convert(-1, economy.CurrencyCoins, economy.CurrencyMoney)
	assert.ErrorIs(t, err, ErrInvalidInput)

	for _, amount := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), math.MaxFloat64} {
		_, err = h.svc.Convert(amount, economy.CurrencyCoins, economy.CurrencyMoney)
		assert.ErrorIs(t, err, ErrInvalidInput, "amount %v", amount)
	}

	plan, err := h.svc.Plan(10)
	require.NoError(t, err)
	assert.Equal(t, int64(4_800), plan.TotalCost)
}
