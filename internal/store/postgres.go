package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"oilrush/internal/economy"
)

// Postgres talks to the Supabase database directly over a pgx pool. Table
// layout matches the PostgREST resources used by the Supabase store.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

const profileColumns = `
	id::text, coins, money, barrels, daily_income, multiplier, last_login,
	titles, referral_code, COALESCE(referred_by::text, ''), version, created_at`

func scanProfile(row pgx.Row) (economy.Profile, error) {
	var p economy.Profile
	var lastLogin *time.Time
	err := row.Scan(
		&p.ID, &p.Balances.Coins, &p.Balances.Money, &p.Balances.Barrels,
		&p.DailyIncome, &p.Multiplier, &lastLogin,
		&p.Titles, &p.ReferralCode, &p.ReferredBy, &p.Version, &p.CreatedAt,
	)
	if err != nil {
		return economy.Profile{}, err
	}
	if lastLogin != nil {
		p.LastLogin = *lastLogin
	}
	return p, nil
}

func (s *Postgres) GetProfile(ctx context.Context, id string) (economy.Profile, error) {
	p, err := scanProfile(s.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return p, fmt.Errorf("%w: profile %s", ErrNotFound, id)
	}
	return p, err
}

func (s *Postgres) GetProfileByReferralCode(ctx context.Context, code string) (economy.Profile, error) {
	p, err := scanProfile(s.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE referral_code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return p, fmt.Errorf("%w: referral code %s", ErrNotFound, code)
	}
	return p, err
}

func (s *Postgres) CreateProfile(ctx context.Context, p economy.Profile, txs []economy.Transaction) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO profiles (id, coins, money, barrels, daily_income, multiplier, last_login, titles, referral_code, referred_by, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, '')::uuid, 1, $11)
	`, p.ID, p.Balances.Coins, p.Balances.Money, p.Balances.Barrels, p.DailyIncome, p.Multiplier,
		nullTime(p.LastLogin), nonNilTitles(p.Titles), p.ReferralCode, p.ReferredBy, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: profile %s", ErrDuplicate, p.ID)
		}
		return err
	}
	if err := insertTransactions(ctx, tx, txs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Postgres) ListWells(ctx context.Context, profileID string) ([]economy.Well, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id::text, profile_id::text, well_type, level, daily_income, purchased_at
		FROM wells
		WHERE profile_id = $1
		ORDER BY purchased_at, id
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []economy.Well
	for rows.Next() {
		var w economy.Well
		if err := rows.Scan(&w.ID, &w.ProfileID, &w.Type, &w.Level, &w.DailyIncome, &w.PurchasedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Postgres) ListBoosters(ctx context.Context, profileID string) ([]economy.Booster, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id::text, profile_id::text, booster_type, level, expires_at, updated_at
		FROM user_boosters
		WHERE profile_id = $1
		ORDER BY booster_type
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []economy.Booster
	for rows.Next() {
		var b economy.Booster
		if err := rows.Scan(&b.ID, &b.ProfileID, &b.Type, &b.Level, &b.ExpiresAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Postgres) ListTransactions(ctx context.Context, profileID string, limit int) ([]economy.Transaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id::text, profile_id::text, kind, currency, amount, metadata, created_at
		FROM transactions
		WHERE profile_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, profileID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []economy.Transaction
	for rows.Next() {
		var t economy.Transaction
		var meta []byte
		if err := rows.Scan(&t.ID, &t.ProfileID, &t.Kind, &t.Currency, &t.Amount, &meta, &t.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &t.Meta); err != nil {
				return nil, fmt.Errorf("decode transaction %s metadata: %w", t.ID, err)
			}
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Postgres) Commit(ctx context.Context, m Mutation) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	err = func() error {
		defer tx.Rollback(ctx)

		if m.IdempotencyKey != "" {
			if err := claimIdempotency(ctx, tx, m.Profile.ID, m.IdempotencyKey, m.Action); err != nil {
				return err
			}
		}

		p := m.Profile
		cmd, err := tx.Exec(ctx, `
			UPDATE profiles
			SET coins = $1, money = $2, barrels = $3, daily_income = $4, multiplier = $5,
			    last_login = $6, titles = $7, version = $8 + 1, updated_at = now()
			WHERE id = $9 AND version = $8
		`, p.Balances.Coins, p.Balances.Money, p.Balances.Barrels, p.DailyIncome, p.Multiplier,
			nullTime(p.LastLogin), nonNilTitles(p.Titles), m.ExpectedVersion, p.ID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: profile %s", ErrNotFound, p.ID)
			}
			return fmt.Errorf("%w: expected %d", ErrVersionConflict, m.ExpectedVersion)
		}

		for _, w := range m.UpsertWells {
			if _, err := tx.Exec(ctx, `
				INSERT INTO wells (id, profile_id, well_type, level, daily_income, purchased_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id) DO UPDATE
				SET level = EXCLUDED.level, daily_income = EXCLUDED.daily_income
			`, w.ID, p.ID, string(w.Type), w.Level, w.DailyIncome, w.PurchasedAt); err != nil {
				return err
			}
		}
		for _, b := range m.UpsertBoosters {
			if _, err := tx.Exec(ctx, `
				INSERT INTO user_boosters (id, profile_id, booster_type, level, expires_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id) DO UPDATE
				SET level = EXCLUDED.level, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at
			`, b.ID, p.ID, string(b.Type), b.Level, b.ExpiresAt, b.UpdatedAt); err != nil {
				return err
			}
		}
		if len(m.DeleteBoosters) > 0 {
			if _, err := tx.Exec(ctx, `
				DELETE FROM user_boosters WHERE profile_id = $1 AND id = ANY($2::uuid[])
			`, p.ID, m.DeleteBoosters); err != nil {
				return err
			}
		}
		if err := insertTransactions(ctx, tx, m.Transactions); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}()
	if isSerializationError(err) {
		return fmt.Errorf("%w: %v", ErrVersionConflict, err)
	}
	return err
}

func (s *Postgres) PurgeExpiredBoosters(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		DELETE FROM user_boosters
		WHERE expires_at IS NOT NULL AND expires_at < $1
		RETURNING profile_id::text
	`, before)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

func insertTransactions(ctx context.Context, tx pgx.Tx, txs []economy.Transaction) error {
	for _, t := range txs {
		meta, err := json.Marshal(t.Meta)
		if err != nil {
			return err
		}
		if t.Meta == nil {
			meta = []byte(`{}`)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO transactions (id, profile_id, kind, currency, amount, metadata, created_at)
			VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
		`, t.ID, t.ProfileID, string(t.Kind), string(t.Currency), t.Amount, string(meta), t.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func claimIdempotency(ctx context.Context, tx pgx.Tx, profileID, key, action string) error {
	key = strings.TrimSpace(key)
	cmd, err := tx.Exec(ctx, `
		INSERT INTO idempotency_keys (profile_id, key, action, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (profile_id, key) DO NOTHING
	`, profileID, key, action)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDuplicateRequest
	}
	return nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nonNilTitles(titles []string) []string {
	if titles == nil {
		return []string{}
	}
	return titles
}

func isSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
