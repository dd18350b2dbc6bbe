package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"oilrush/internal/economy"
)

// Memory keeps everything in process. It backs tests and local runs and
// follows the same version rules as the remote stores.
type Memory struct {
	mu           sync.RWMutex
	profiles     map[string]economy.Profile
	wells        map[string][]economy.Well
	boosters     map[string][]economy.Booster
	transactions map[string][]economy.Transaction
	idempotency  map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		profiles:     make(map[string]economy.Profile),
		wells:        make(map[string][]economy.Well),
		boosters:     make(map[string][]economy.Booster),
		transactions: make(map[string][]economy.Transaction),
		idempotency:  make(map[string]struct{}),
	}
}

func (m *Memory) GetProfile(_ context.Context, id string) (economy.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return economy.Profile{}, fmt.Errorf("%w: profile %s", ErrNotFound, id)
	}
	return copyProfile(p), nil
}

func (m *Memory) GetProfileByReferralCode(_ context.Context, code string) (economy.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.ReferralCode == code {
			return copyProfile(p), nil
		}
	}
	return economy.Profile{}, fmt.Errorf("%w: referral code %s", ErrNotFound, code)
}

func (m *Memory) CreateProfile(_ context.Context, p economy.Profile, txs []economy.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; ok {
		return fmt.Errorf("%w: profile %s", ErrDuplicate, p.ID)
	}
	for _, existing := range m.profiles {
		if p.ReferralCode != "" && existing.ReferralCode == p.ReferralCode {
			return fmt.Errorf("%w: referral code %s", ErrDuplicate, p.ReferralCode)
		}
	}
	p.Version = 1
	m.profiles[p.ID] = copyProfile(p)
	m.transactions[p.ID] = append(m.transactions[p.ID], txs...)
	return nil
}

func (m *Memory) ListWells(_ context.Context, profileID string) ([]economy.Well, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.wells[profileID]), nil
}

func (m *Memory) ListBoosters(_ context.Context, profileID string) ([]economy.Booster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]economy.Booster, 0, len(m.boosters[profileID]))
	for _, b := range m.boosters[profileID] {
		out = append(out, copyBooster(b))
	}
	return out, nil
}

// ListTransactions returns the newest entries first.
func (m *Memory) ListTransactions(_ context.Context, profileID string, limit int) ([]economy.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.transactions[profileID]
	out := make([]economy.Transaction, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *Memory) Commit(_ context.Context, mut Mutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.profiles[mut.Profile.ID]
	if !ok {
		return fmt.Errorf("%w: profile %s", ErrNotFound, mut.Profile.ID)
	}
	if current.Version != mut.ExpectedVersion {
		return fmt.Errorf("%w: have %d, expected %d", ErrVersionConflict, current.Version, mut.ExpectedVersion)
	}
	if mut.IdempotencyKey != "" {
		key := mut.Profile.ID + "/" + mut.IdempotencyKey
		if _, seen := m.idempotency[key]; seen {
			return ErrDuplicateRequest
		}
		m.idempotency[key] = struct{}{}
	}

	next := copyProfile(mut.Profile)
	next.Version = mut.ExpectedVersion + 1
	m.profiles[next.ID] = next

	wells := m.wells[next.ID]
	for _, w := range mut.UpsertWells {
		idx := slices.IndexFunc(wells, func(x economy.Well) bool { return x.ID == w.ID })
		if idx >= 0 {
			wells[idx] = w
			continue
		}
		wells = append(wells, w)
	}
	m.wells[next.ID] = wells

	boosters := m.boosters[next.ID]
	for _, b := range mut.UpsertBoosters {
		idx := slices.IndexFunc(boosters, func(x economy.Booster) bool { return x.ID == b.ID })
		if idx >= 0 {
			boosters[idx] = copyBooster(b)
			continue
		}
		boosters = append(boosters, copyBooster(b))
	}
	boosters = slices.DeleteFunc(boosters, func(x economy.Booster) bool {
		return slices.Contains(mut.DeleteBoosters, x.ID)
	})
	m.boosters[next.ID] = boosters

	m.transactions[next.ID] = append(m.transactions[next.ID], mut.Transactions...)
	return nil
}

func (m *Memory) PurgeExpiredBoosters(_ context.Context, before time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var affected []string
	for profileID, list := range m.boosters {
		kept := slices.DeleteFunc(list, func(b economy.Booster) bool {
			return b.ExpiresAt != nil && b.ExpiresAt.Before(before)
		})
		if len(kept) != len(list) {
			affected = append(affected, profileID)
		}
		m.boosters[profileID] = kept
	}
	slices.Sort(affected)
	return affected, nil
}

func copyProfile(p economy.Profile) economy.Profile {
	p.Titles = slices.Clone(p.Titles)
	return p
}

func copyBooster(b economy.Booster) economy.Booster {
	if b.ExpiresAt != nil {
		t := *b.ExpiresAt
		b.ExpiresAt = &t
	}
	return b
}
