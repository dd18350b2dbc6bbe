package economy

import (
	"fmt"
	"math"
	"time"
)

// BoosterCost is the price of buying the next level when the booster currently
// sits at level (0 for a booster the profile does not own yet).
func BoosterCost(spec BoosterSpec, level int) int64 {
	if level < 0 {
		level = 0
	}
	return int64(math.Floor(float64(spec.BaseCost) * math.Pow(spec.CostMultiplier, float64(level))))
}

// BoosterRefund is half of what was paid to reach level.
func BoosterRefund(spec BoosterSpec, level int) int64 {
	if level < 1 {
		return 0
	}
	return int64(math.Floor(float64(BoosterCost(spec, level-1)) * 0.5))
}

type BoosterChange struct {
	Booster Booster
	Cost    int64
	Created bool
}

// PurchaseBooster validates and computes a paid booster purchase. existing is
// nil when the profile does not own the type yet. Nothing is mutated; the
// caller persists the returned booster and debits Cost.
func PurchaseBooster(cat *Catalog, balance int64, existing *Booster, profileID, newID string, t BoosterType, now time.Time) (BoosterChange, error) {
	spec, ok := cat.Booster(t)
	if !ok || !spec.Purchasable {
		return BoosterChange{}, fmt.Errorf("%w: booster type %s", ErrNotFound, t)
	}
	level := 0
	if existing != nil {
		level = existing.Level
	}
	if level >= spec.MaxLevel {
		return BoosterChange{}, fmt.Errorf("%w: %s is level %d", ErrMaxLevelReached, t, level)
	}
	cost := BoosterCost(spec, level)
	if balance < cost {
		return BoosterChange{}, fmt.Errorf("%w: %s costs %d, balance %d", ErrInsufficientFunds, t, cost, balance)
	}
	change := stack(spec, existing, profileID, newID, now)
	change.Cost = cost
	return change, nil
}

// GrantBooster applies a free level from a case reward. Stacking and expiry
// reset follow a purchase; a grant at max level only refreshes the expiry.
func GrantBooster(cat *Catalog, existing *Booster, profileID, newID string, t BoosterType, now time.Time) (BoosterChange, error) {
	spec, ok := cat.Booster(t)
	if !ok {
		return BoosterChange{}, fmt.Errorf("%w: booster type %s", ErrNotFound, t)
	}
	if existing != nil && existing.Level >= spec.MaxLevel {
		b := *existing
		b.ExpiresAt = expiryFor(spec, now)
		b.UpdatedAt = now
		return BoosterChange{Booster: b}, nil
	}
	return stack(spec, existing, profileID, newID, now), nil
}

// GrantTimedMultiplier creates or refreshes the case multiplier entry for the
// given duration. A refresh never shortens a window that is still running.
func GrantTimedMultiplier(cat *Catalog, existing *Booster, profileID, newID string, d time.Duration, now time.Time) (BoosterChange, error) {
	if _, ok := cat.Booster(BoosterCaseMultiplier); !ok {
		return BoosterChange{}, fmt.Errorf("%w: booster type %s", ErrNotFound, BoosterCaseMultiplier)
	}
	expires := now.Add(d)
	if existing != nil {
		b := *existing
		if b.Level < 1 {
			b.Level = 1
		}
		if b.ExpiresAt != nil && b.ExpiresAt.After(expires) {
			expires = *b.ExpiresAt
		}
		b.ExpiresAt = &expires
		b.UpdatedAt = now
		return BoosterChange{Booster: b}, nil
	}
	return BoosterChange{
		Booster: Booster{
			ID:        newID,
			ProfileID: profileID,
			Type:      BoosterCaseMultiplier,
			Level:     1,
			ExpiresAt: &expires,
			UpdatedAt: now,
		},
		Created: true,
	}, nil
}

func stack(spec BoosterSpec, existing *Booster, profileID, newID string, now time.Time) BoosterChange {
	if existing == nil {
		return BoosterChange{
			Booster: Booster{
				ID:        newID,
				ProfileID: profileID,
				Type:      spec.Type,
				Level:     1,
				ExpiresAt: expiryFor(spec, now),
				UpdatedAt: now,
			},
			Created: true,
		}
	}
	b := *existing
	b.Level++
	if spec.Temporary() {
		b.ExpiresAt = expiryFor(spec, now)
	}
	b.UpdatedAt = now
	return BoosterChange{Booster: b}
}

// expiryFor returns a fresh full window for temporary types, never extending
// an existing one.
func expiryFor(spec BoosterSpec, now time.Time) *time.Time {
	if !spec.Temporary() {
		return nil
	}
	t := now.Add(spec.Duration)
	return &t
}

type BoosterCancellation struct {
	Booster Booster
	Refund  int64
	Deleted bool
}

// CancelBooster removes one level and refunds half of its price. A level 1
// booster is deleted outright.
func CancelBooster(cat *Catalog, b Booster, now time.Time) (BoosterCancellation, error) {
	spec, ok := cat.Booster(b.Type)
	if !ok {
		return BoosterCancellation{}, fmt.Errorf("%w: booster type %s", ErrNotFound, b.Type)
	}
	if b.Level < 1 {
		return BoosterCancellation{}, fmt.Errorf("%w: booster %s", ErrNotFound, b.ID)
	}
	if !b.Active(now) {
		return BoosterCancellation{}, fmt.Errorf("%w: %s expired at %s", ErrAlreadyExpired, b.Type, b.ExpiresAt.Format(time.RFC3339))
	}
	out := BoosterCancellation{Refund: BoosterRefund(spec, b.Level)}
	if b.Level == 1 {
		out.Booster = b
		out.Deleted = true
		return out, nil
	}
	b.Level--
	b.UpdatedAt = now
	out.Booster = b
	return out, nil
}

// FindBooster returns the profile's booster of type t, if any.
func FindBooster(boosters []Booster, t BoosterType) *Booster {
	for i := range boosters {
		if boosters[i].Type == t {
			return &boosters[i]
		}
	}
	return nil
}

// ReplaceBooster returns a copy of boosters with b upserted, or removed when
// deleted is true.
func ReplaceBooster(boosters []Booster, b Booster, deleted bool) []Booster {
	out := make([]Booster, 0, len(boosters)+1)
	found := false
	for _, existing := range boosters {
		if existing.Type == b.Type {
			found = true
			if deleted {
				continue
			}
			out = append(out, b)
			continue
		}
		out = append(out, existing)
	}
	if !found && !deleted {
		out = append(out, b)
	}
	return out
}
