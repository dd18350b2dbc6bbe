package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"oilrush/internal/economy"
	"oilrush/internal/metrics"
	"oilrush/internal/store"
)

type Service struct {
	store store.Store
	cat   *economy.Catalog
	log   *slog.Logger
	mu    sync.Mutex
	rand  economy.RandomSource
	now   func() time.Time
	newID func() string

	retryDelay time.Duration
}

type Option func(*Service)

// WithRandom replaces the case draw source. Calls are serialized by the
// service so the source does not need to be safe for concurrent use.
func WithRandom(src economy.RandomSource) Option {
	return func(s *Service) { s.rand = src }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func WithRetryDelay(d time.Duration) Option {
	return func(s *Service) { s.retryDelay = d }
}

func NewService(st store.Store, cat *economy.Catalog, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:      st,
		cat:        cat,
		log:        logger,
		rand:       mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
		retryDelay: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Catalog() *economy.Catalog {
	return s.cat
}

// EnsureProfile creates the player's profile on first sight with the starter
// balance and a fresh referral code. An unknown referral code is ignored.
func (s *Service) EnsureProfile(ctx context.Context, userID, referralCode string) (economy.Profile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return economy.Profile{}, remoteFailure(err)
	}

	var referredBy string
	if code := strings.ToUpper(strings.TrimSpace(referralCode)); code != "" {
		referrer, err := s.store.GetProfileByReferralCode(ctx, code)
		switch {
		case err == nil && referrer.ID != userID:
			referredBy = referrer.ID
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return economy.Profile{}, remoteFailure(err)
		default:
			s.log.Warn("ignoring referral code", "user_id", userID, "code", code)
		}
	}

	now := s.now()
	for attempt := 0; attempt < 3; attempt++ {
		code, err := generateInviteCode()
		if err != nil {
			return economy.Profile{}, err
		}
		p := economy.Profile{
			ID:           userID,
			Balances:     s.cat.StarterBalance,
			Multiplier:   1,
			LastLogin:    now,
			Titles:       []string{},
			ReferralCode: code,
			ReferredBy:   referredBy,
			CreatedAt:    now,
		}
		var txs []economy.Transaction
		if p.Balances.Money > 0 {
			txs = append(txs, s.transaction(userID, economy.TxSignupBonus, economy.CurrencyMoney, p.Balances.Money, nil, now))
		}
		if p.Balances.Coins > 0 {
			txs = append(txs, s.transaction(userID, economy.TxSignupBonus, economy.CurrencyCoins, p.Balances.Coins, nil, now))
		}
		err = s.store.CreateProfile(ctx, p, txs)
		if err == nil {
			metrics.Operations.WithLabelValues("signup", "ok").Inc()
			return s.profile(ctx, userID)
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return economy.Profile{}, remoteFailure(err)
		}
		// Either another request created the profile first or the referral
		// code collided.
		if existing, err := s.store.GetProfile(ctx, userID); err == nil {
			return existing, nil
		}
	}
	return economy.Profile{}, fmt.Errorf("%w: could not allocate referral code", ErrTxConflict)
}

// ResumeSession credits offline income for the time since the last login and
// stamps the login, in one version-checked write. A retry after a conflict
// sees the new stamp, so the same window is never credited twice.
func (s *Service) ResumeSession(ctx context.Context, userID string) (ResumeResult, error) {
	var out ResumeResult
	err := s.mutate(ctx, "resume", userID, "", func(st *state) error {
		out.Credit = economy.OfflineIncome(s.cat.Offline, st.profile.DailyIncome, st.profile.LastLogin, st.now)
		if out.Credit.Amount > 0 {
			st.profile.Balances.Barrels += out.Credit.Amount
			st.record(economy.TxOfflineIncome, economy.CurrencyBarrels, out.Credit.Amount, map[string]any{
				"elapsed_seconds":  int64(out.Credit.Elapsed.Seconds()),
				"credited_seconds": int64(out.Credit.Credited.Seconds()),
			})
		}
		st.profile.LastLogin = st.now
		st.touch()
		return nil
	})
	if err != nil {
		return ResumeResult{}, err
	}
	if out.Credit.Amount > 0 {
		metrics.OfflineBarrels.Add(float64(out.Credit.Amount))
	}
	out.Profile, err = s.profile(ctx, userID)
	return out, err
}

func (s *Service) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	st, err := s.load(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	out := Dashboard{
		Profile:  st.profile,
		Wells:    st.wells,
		Boosters: make([]BoosterView, 0, len(st.boosters)),
	}
	out.Multiplier = economy.Multiplier(s.cat, st.boosters, st.profile.Titles, st.now)
	out.DailyIncome = economy.DailyIncome(st.wells, out.Multiplier)
	out.DailyIncomeMoney = MoneyPerDay(s.cat.Rates, out.DailyIncome)
	out.PendingOffline = economy.OfflineIncome(s.cat.Offline, st.profile.DailyIncome, st.profile.LastLogin, st.now)
	for _, b := range st.boosters {
		out.Boosters = append(out.Boosters, s.boosterView(b, st.now))
	}
	if out.Wells == nil {
		out.Wells = []economy.Well{}
	}
	return out, nil
}

func (s *Service) boosterView(b economy.Booster, now time.Time) BoosterView {
	v := BoosterView{Booster: b, Active: b.Active(now)}
	spec, ok := s.cat.Booster(b.Type)
	if !ok {
		return v
	}
	v.Name = spec.Name
	v.MaxLevel = spec.MaxLevel
	if spec.Purchasable && b.Level < spec.MaxLevel {
		v.NextCost = economy.BoosterCost(spec, b.Level)
	}
	if v.Active && spec.Purchasable {
		v.Refund = economy.BoosterRefund(spec, b.Level)
	}
	if v.Active && b.ExpiresAt != nil {
		v.ExpiresIn = b.ExpiresAt.Sub(now)
	}
	return v
}

func (s *Service) BuyWell(ctx context.Context, userID string, t economy.WellType, idem string) (WellResult, error) {
	var out WellResult
	err := s.mutate(ctx, "buy_well", userID, idem, func(st *state) error {
		purchase, err := economy.PurchaseWell(s.cat, st.profile.Balances.Money, userID, s.newID(), t, st.now)
		if err != nil {
			return err
		}
		st.profile.Balances.Money -= purchase.Cost
		st.putWell(purchase.Well)
		st.record(economy.TxWellPurchase, economy.CurrencyMoney, -purchase.Cost, map[string]any{"well_type": string(t), "well_id": purchase.Well.ID})
		out.Well, out.Cost = purchase.Well, purchase.Cost
		return nil
	})
	if err != nil {
		return WellResult{}, err
	}
	out.Profile, err = s.profile(ctx, userID)
	return out, err
}

func (s *Service) UpgradeWell(ctx context.Context, userID, wellID, idem string) (WellResult, error) {
	var out WellResult
	err := s.mutate(ctx, "upgrade_well", userID, idem, func(st *state) error {
		w, ok := st.well(wellID)
		if !ok {
			return fmt.Errorf("%w: well %s", economy.ErrNotFound, wellID)
		}
		up, err := economy.UpgradeWell(s.cat, st.profile.Balances.Money, w)
		if err != nil {
			return err
		}
		st.profile.Balances.Money -= up.Cost
		st.putWell(up.Well)
		st.record(economy.TxWellUpgrade, economy.CurrencyMoney, -up.Cost, map[string]any{"well_id": wellID, "level": up.Well.Level})
		out.Well, out.Cost = up.Well, up.Cost
		return nil
	})
	if err != nil {
		return WellResult{}, err
	}
	out.Profile, err = s.profile(ctx, userID)
	return out, err
}

func (s *Service) BuyBooster(ctx context.Context, userID string, t economy.BoosterType, idem string) (BoosterResult, error) {
	var out BoosterResult
	err := s.mutate(ctx, "buy_booster", userID, idem, func(st *state) error {
		change, err := economy.PurchaseBooster(s.cat, st.profile.Balances.Money, economy.FindBooster(st.boosters, t), userID, s.newID(), t, st.now)
		if err != nil {
			return err
		}
		st.profile.Balances.Money -= change.Cost
		st.putBooster(change.Booster, false)
		st.record(economy.TxBoosterBuy, economy.CurrencyMoney, -change.Cost, map[string]any{"booster": string(t), "level": change.Booster.Level})
		out.Booster, out.Cost = change.Booster, change.Cost
		return nil
	})
	if err != nil {
		return BoosterResult{}, err
	}
	out.Profile, err = s.profile(ctx, userID)
	return out, err
}

func (s *Service) CancelBooster(ctx context.Context, userID string, t economy.BoosterType, idem string) (BoosterResult, error) {
	var out BoosterResult
	err := s.mutate(ctx, "cancel_booster", userID, idem, func(st *state) error {
		existing := economy.FindBooster(st.boosters, t)
		if existing == nil {
			return fmt.Errorf("%w: no %s booster", economy.ErrNotFound, t)
		}
		cancel, err := economy.CancelBooster(s.cat, *existing, st.now)
		if err != nil {
			return err
		}
		st.profile.Balances.Money += cancel.Refund
		st.putBooster(cancel.Booster, cancel.Deleted)
		st.record(economy.TxBoosterRefund, economy.CurrencyMoney, cancel.Refund, map[string]any{"booster": string(t), "deleted": cancel.Deleted})
		out.Booster, out.Refund, out.Deleted = cancel.Booster, cancel.Refund, cancel.Deleted
		return nil
	})
	if err != nil {
		return BoosterResult{}, err
	}
	out.Profile, err = s.profile(ctx, userID)
	return out, err
}

// OpenCase charges the case price, draws a reward and applies it in a single
// write. The price is charged exactly once whatever the reward is.
func (s *Service) OpenCase(ctx context.Context, userID, caseID, idem string) (CaseResult, error) {
	var out CaseResult
	err := s.mutate(ctx, "open_case", userID, idem, func(st *state) error {
		settle, err := economy.OpenCase(s.cat, userID, st.profile.Balances.Money, st.boosters, caseID, s.source(), s.newID, st.now)
		if err != nil {
			return err
		}
		st.profile.Balances.Money += settle.MoneyDelta
		meta := map[string]any{"case": caseID, "rarity": string(settle.Reward.Rarity), "reward": settle.Reward.Label}
		st.record(economy.TxCaseOpen, economy.CurrencyMoney, -settle.Price, meta)
		if win, ok := settle.Reward.Payout.(economy.MoneyPayout); ok {
			st.record(economy.TxCaseWin, economy.CurrencyMoney, win.Amount, meta)
		}
		out = CaseResult{Reward: settle.Reward, Price: settle.Price, MoneyDelta: settle.MoneyDelta}
		if settle.Booster != nil {
			st.putBooster(settle.Booster.Booster, false)
			b := settle.Booster.Booster
			out.Booster = &b
		}
		if settle.Well != nil {
			st.putWell(*settle.Well)
			w := *settle.Well
			out.Well = &w
		}
		return nil
	})
	if err != nil {
		return CaseResult{}, err
	}
	metrics.CaseOpenings.WithLabelValues(caseID, string(out.Reward.Rarity)).Inc()
	s.log.Info("case opened", "user_id", userID, "case", caseID, "rarity", out.Reward.Rarity, "reward", out.Reward.Label)
	out.Profile, err = s.profile(ctx, userID)
	return out, err
}

func (s *Service) Plan(target float64) (economy.PlanResult, error) {
	return economy.Plan(s.cat, target)
}

func (s *Service) Convert(amount float64, from, to economy.Currency) (ExchangeQuote, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ExchangeQuote{}, fmt.Errorf("%w: amount must be a finite number >= 0", ErrInvalidInput)
	}
	res, err := economy.Convert(s.cat.Rates, amount, from, to)
	if err != nil {
		return ExchangeQuote{}, err
	}
	if math.IsInf(res, 0) {
		return ExchangeQuote{}, fmt.Errorf("%w: amount %g is out of range", ErrInvalidInput, amount)
	}
	return ExchangeQuote{Amount: amount, From: from, To: to, Result: res}, nil
}

func (s *Service) Transactions(ctx context.Context, userID string, limit int) ([]economy.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID, clampHistoryLimit(limit))
	if err != nil {
		return nil, remoteFailure(err)
	}
	if txs == nil {
		txs = []economy.Transaction{}
	}
	return txs, nil
}

// PurgeExpiredBoosters deletes boosters that expired more than retention ago
// and refreshes the cached multiplier of every profile that lost one. It
// returns how many profiles were refreshed.
func (s *Service) PurgeExpiredBoosters(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := s.now().Add(-retention)
	ids, err := s.store.PurgeExpiredBoosters(ctx, cutoff)
	if err != nil {
		return 0, remoteFailure(err)
	}
	refreshed := 0
	for _, id := range ids {
		if err := s.mutate(ctx, "refresh", id, "", func(*state) error { return nil }); err != nil {
			s.log.Error("refresh after purge failed", "user_id", id, "error", err)
			continue
		}
		refreshed++
	}
	metrics.BoostersPurged.Add(float64(len(ids)))
	if len(ids) > 0 {
		s.log.Info("purged expired boosters", "profiles", len(ids), "refreshed", refreshed, "cutoff", cutoff)
	}
	return refreshed, nil
}

// mutate runs one optimistic read-modify-write of a profile. fn sees a fresh
// snapshot on every attempt; domain errors from fn are returned as is and
// only version conflicts are retried.
func (s *Service) mutate(ctx context.Context, op, userID, idem string, fn func(*state) error) (err error) {
	defer func() {
		metrics.Operations.WithLabelValues(op, metrics.Outcome(err)).Inc()
	}()

	retryDelay := s.retryDelay
	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		st, err := s.load(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(st); err != nil {
			return err
		}

		mult := economy.Multiplier(s.cat, st.boosters, st.profile.Titles, st.now)
		daily := economy.DailyIncome(st.wells, mult)
		if !st.dirty && mult == st.profile.Multiplier && daily == st.profile.DailyIncome {
			return nil
		}
		st.profile.Multiplier = mult
		st.profile.DailyIncome = daily

		m := st.mut
		m.Profile = st.profile
		m.ExpectedVersion = st.version
		m.IdempotencyKey = strings.TrimSpace(idem)
		m.Action = op

		err = s.store.Commit(ctx, m)
		if err == nil {
			return nil
		}
		if errors.Is(err, store.ErrDuplicateRequest) {
			return ErrDuplicateIdempotency
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return remoteFailure(err)
		}
		metrics.CommitConflicts.Inc()
		s.log.Debug("profile version conflict", "op", op, "user_id", userID, "attempt", attempt+1)
		if attempt == maxCommitAttempts-1 {
			break
		}
		if err := sleepWithContext(ctx, retryDelay); err != nil {
			return err
		}
		if retryDelay < time.Second {
			retryDelay *= 2
		}
	}
	return ErrTxConflict
}

func (s *Service) load(ctx context.Context, userID string) (*state, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: profile %s", economy.ErrNotFound, userID)
		}
		return nil, remoteFailure(err)
	}
	wells, err := s.store.ListWells(ctx, userID)
	if err != nil {
		return nil, remoteFailure(err)
	}
	boosters, err := s.store.ListBoosters(ctx, userID)
	if err != nil {
		return nil, remoteFailure(err)
	}
	return &state{
		now:      s.now(),
		version:  p.Version,
		profile:  p,
		wells:    wells,
		boosters: boosters,
		newID:    s.newID,
	}, nil
}

func (s *Service) profile(ctx context.Context, userID string) (economy.Profile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return economy.Profile{}, remoteFailure(err)
	}
	return p, nil
}

func (s *Service) transaction(profileID string, kind economy.TransactionKind, cur economy.Currency, amount int64, meta map[string]any, now time.Time) economy.Transaction {
	return economy.Transaction{
		ID:        s.newID(),
		ProfileID: profileID,
		Kind:      kind,
		Currency:  cur,
		Amount:    amount,
		Meta:      meta,
		CreatedAt: now,
	}
}

func (s *Service) source() economy.RandomSource {
	return lockedSource{mu: &s.mu, src: s.rand}
}

type lockedSource struct {
	mu  *sync.Mutex
	src economy.RandomSource
}

func (l lockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

func (l lockedSource) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Intn(n)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
