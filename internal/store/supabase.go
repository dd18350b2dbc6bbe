package store

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"oilrush/internal/economy"
	"oilrush/internal/supabase"
)

// Supabase reads through PostgREST and writes through two stored procedures,
// create_profile and apply_economy_mutation, so each write is one atomic
// server-side transaction with the version check inside it.
type Supabase struct {
	client *supabase.Client
}

func NewSupabase(client *supabase.Client) *Supabase {
	return &Supabase{client: client}
}

type profileRow struct {
	ID           string     `json:"id"`
	Coins        int64      `json:"coins"`
	Money        int64      `json:"money"`
	Barrels      int64      `json:"barrels"`
	DailyIncome  int64      `json:"daily_income"`
	Multiplier   float64    `json:"multiplier"`
	LastLogin    *time.Time `json:"last_login"`
	Titles       []string   `json:"titles"`
	ReferralCode string     `json:"referral_code"`
	ReferredBy   *string    `json:"referred_by"`
	Version      int64      `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (r profileRow) profile() economy.Profile {
	p := economy.Profile{
		ID:           r.ID,
		Balances:     economy.Balances{Coins: r.Coins, Money: r.Money, Barrels: r.Barrels},
		DailyIncome:  r.DailyIncome,
		Multiplier:   r.Multiplier,
		Titles:       r.Titles,
		ReferralCode: r.ReferralCode,
		Version:      r.Version,
		CreatedAt:    r.CreatedAt,
	}
	if r.LastLogin != nil {
		p.LastLogin = *r.LastLogin
	}
	if r.ReferredBy != nil {
		p.ReferredBy = *r.ReferredBy
	}
	return p
}

func toProfileRow(p economy.Profile) profileRow {
	r := profileRow{
		ID:           p.ID,
		Coins:        p.Balances.Coins,
		Money:        p.Balances.Money,
		Barrels:      p.Balances.Barrels,
		DailyIncome:  p.DailyIncome,
		Multiplier:   p.Multiplier,
		LastLogin:    nullTime(p.LastLogin),
		Titles:       nonNilTitles(p.Titles),
		ReferralCode: p.ReferralCode,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
	}
	if p.ReferredBy != "" {
		r.ReferredBy = &p.ReferredBy
	}
	return r
}

type wellRow struct {
	ID          string    `json:"id"`
	ProfileID   string    `json:"profile_id"`
	WellType    string    `json:"well_type"`
	Level       int       `json:"level"`
	DailyIncome int64     `json:"daily_income"`
	PurchasedAt time.Time `json:"purchased_at"`
}

type boosterRow struct {
	ID          string     `json:"id"`
	ProfileID   string     `json:"profile_id"`
	BoosterType string     `json:"booster_type"`
	Level       int        `json:"level"`
	ExpiresAt   *time.Time `json:"expires_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type transactionRow struct {
	ID        string         `json:"id"`
	ProfileID string         `json:"profile_id"`
	Kind      string         `json:"kind"`
	Currency  string         `json:"currency"`
	Amount    int64          `json:"amount"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

func toTransactionRows(txs []economy.Transaction) []transactionRow {
	out := make([]transactionRow, 0, len(txs))
	for _, t := range txs {
		meta := t.Meta
		if meta == nil {
			meta = map[string]any{}
		}
		out = append(out, transactionRow{
			ID:        t.ID,
			ProfileID: t.ProfileID,
			Kind:      string(t.Kind),
			Currency:  string(t.Currency),
			Amount:    t.Amount,
			Metadata:  meta,
			CreatedAt: t.CreatedAt,
		})
	}
	return out
}

func (s *Supabase) selectProfile(ctx context.Context, column, value string) (economy.Profile, error) {
	var rows []profileRow
	q := url.Values{
		"select": {"*"},
		column:   {"eq." + value},
		"limit":  {"1"},
	}
	if err := s.client.Select(ctx, "profiles", q, &rows); err != nil {
		return economy.Profile{}, err
	}
	if len(rows) == 0 {
		return economy.Profile{}, fmt.Errorf("%w: profile %s=%s", ErrNotFound, column, value)
	}
	return rows[0].profile(), nil
}

func (s *Supabase) GetProfile(ctx context.Context, id string) (economy.Profile, error) {
	return s.selectProfile(ctx, "id", id)
}

func (s *Supabase) GetProfileByReferralCode(ctx context.Context, code string) (economy.Profile, error) {
	return s.selectProfile(ctx, "referral_code", code)
}

func (s *Supabase) CreateProfile(ctx context.Context, p economy.Profile, txs []economy.Transaction) error {
	p.Version = 1
	err := s.client.RPC(ctx, "create_profile", map[string]any{
		"p_profile":      toProfileRow(p),
		"p_transactions": toTransactionRows(txs),
	}, nil)
	if supabase.IsStatus(err, http.StatusConflict) {
		return fmt.Errorf("%w: profile %s", ErrDuplicate, p.ID)
	}
	return err
}

func (s *Supabase) ListWells(ctx context.Context, profileID string) ([]economy.Well, error) {
	var rows []wellRow
	q := url.Values{
		"select":     {"*"},
		"profile_id": {"eq." + profileID},
		"order":      {"purchased_at.asc,id.asc"},
	}
	if err := s.client.Select(ctx, "wells", q, &rows); err != nil {
		return nil, err
	}
	out := make([]economy.Well, 0, len(rows))
	for _, r := range rows {
		out = append(out, economy.Well{
			ID:          r.ID,
			ProfileID:   r.ProfileID,
			Type:        economy.WellType(r.WellType),
			Level:       r.Level,
			DailyIncome: r.DailyIncome,
			PurchasedAt: r.PurchasedAt,
		})
	}
	return out, nil
}

func (s *Supabase) ListBoosters(ctx context.Context, profileID string) ([]economy.Booster, error) {
	var rows []boosterRow
	q := url.Values{
		"select":     {"*"},
		"profile_id": {"eq." + profileID},
		"order":      {"booster_type.asc"},
	}
	if err := s.client.Select(ctx, "user_boosters", q, &rows); err != nil {
		return nil, err
	}
	out := make([]economy.Booster, 0, len(rows))
	for _, r := range rows {
		out = append(out, economy.Booster{
			ID:        r.ID,
			ProfileID: r.ProfileID,
			Type:      economy.BoosterType(r.BoosterType),
			Level:     r.Level,
			ExpiresAt: r.ExpiresAt,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return out, nil
}

func (s *Supabase) ListTransactions(ctx context.Context, profileID string, limit int) ([]economy.Transaction, error) {
	var rows []transactionRow
	q := url.Values{
		"select":     {"*"},
		"profile_id": {"eq." + profileID},
		"order":      {"created_at.desc,id.desc"},
		"limit":      {strconv.Itoa(limit)},
	}
	if err := s.client.Select(ctx, "transactions", q, &rows); err != nil {
		return nil, err
	}
	out := make([]economy.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, economy.Transaction{
			ID:        r.ID,
			ProfileID: r.ProfileID,
			Kind:      economy.TransactionKind(r.Kind),
			Currency:  economy.Currency(r.Currency),
			Amount:    r.Amount,
			Meta:      r.Metadata,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

type mutationPayload struct {
	Profile         profileRow       `json:"profile"`
	ExpectedVersion int64            `json:"expected_version"`
	IdempotencyKey  string           `json:"idempotency_key,omitempty"`
	Action          string           `json:"action,omitempty"`
	UpsertWells     []wellRow        `json:"upsert_wells"`
	UpsertBoosters  []boosterRow     `json:"upsert_boosters"`
	DeleteBoosters  []string         `json:"delete_boosters"`
	Transactions    []transactionRow `json:"transactions"`
}

// Commit outcomes reported by apply_economy_mutation.
const (
	mutationApplied          = "applied"
	mutationVersionConflict  = "version_conflict"
	mutationDuplicateRequest = "duplicate_request"
	mutationMissingProfile   = "not_found"
)

func (s *Supabase) Commit(ctx context.Context, m Mutation) error {
	payload := mutationPayload{
		Profile:         toProfileRow(m.Profile),
		ExpectedVersion: m.ExpectedVersion,
		IdempotencyKey:  m.IdempotencyKey,
		Action:          m.Action,
		UpsertWells:     make([]wellRow, 0, len(m.UpsertWells)),
		UpsertBoosters:  make([]boosterRow, 0, len(m.UpsertBoosters)),
		DeleteBoosters:  append([]string{}, m.DeleteBoosters...),
		Transactions:    toTransactionRows(m.Transactions),
	}
	for _, w := range m.UpsertWells {
		payload.UpsertWells = append(payload.UpsertWells, wellRow{
			ID: w.ID, ProfileID: m.Profile.ID, WellType: string(w.Type),
			Level: w.Level, DailyIncome: w.DailyIncome, PurchasedAt: w.PurchasedAt,
		})
	}
	for _, b := range m.UpsertBoosters {
		payload.UpsertBoosters = append(payload.UpsertBoosters, boosterRow{
			ID: b.ID, ProfileID: m.Profile.ID, BoosterType: string(b.Type),
			Level: b.Level, ExpiresAt: b.ExpiresAt, UpdatedAt: b.UpdatedAt,
		})
	}

	var outcome string
	if err := s.client.RPC(ctx, "apply_economy_mutation", map[string]any{"p_mutation": payload}, &outcome); err != nil {
		return err
	}
	switch outcome {
	case mutationApplied:
		return nil
	case mutationVersionConflict:
		return fmt.Errorf("%w: expected %d", ErrVersionConflict, m.ExpectedVersion)
	case mutationDuplicateRequest:
		return ErrDuplicateRequest
	case mutationMissingProfile:
		return fmt.Errorf("%w: profile %s", ErrNotFound, m.Profile.ID)
	default:
		return fmt.Errorf("apply_economy_mutation: unexpected outcome %q", outcome)
	}
}

func (s *Supabase) PurgeExpiredBoosters(ctx context.Context, before time.Time) ([]string, error) {
	var ids []string
	if err := s.client.RPC(ctx, "purge_expired_boosters", map[string]any{"p_before": before.UTC()}, &ids); err != nil {
		return nil, err
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}
