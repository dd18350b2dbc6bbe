package economy

import (
	"fmt"
	"time"
)

// RandomSource is the randomness a case draw needs. *math/rand.Rand satisfies
// it; tests pass fixed draws.
type RandomSource interface {
	Float64() float64
	Intn(n int) int
}

// Payout is the concrete effect of a reward. Exactly one of MoneyPayout,
// BoosterGrant, WellGrant or MultiplierGrant.
type Payout interface {
	payout()
}

type MoneyPayout struct {
	Amount int64 `json:"amount"`
}

type BoosterGrant struct {
	Type BoosterType `json:"type"`
}

type WellGrant struct {
	Type WellType `json:"type"`
}

type MultiplierGrant struct {
	Duration time.Duration `json:"duration"`
}

func (MoneyPayout) payout()     {}
func (BoosterGrant) payout()    {}
func (WellGrant) payout()       {}
func (MultiplierGrant) payout() {}

type Reward struct {
	CaseID string     `json:"case_id"`
	Rarity Rarity     `json:"rarity"`
	Kind   RewardKind `json:"kind"`
	Label  string     `json:"label"`
	Roll   float64    `json:"roll"`
	Payout Payout     `json:"payout"`
}

func (r RewardSpec) toPayout() (Payout, error) {
	switch r.Kind {
	case RewardMoney:
		return MoneyPayout{Amount: r.Amount}, nil
	case RewardBooster:
		return BoosterGrant{Type: r.Booster}, nil
	case RewardWell:
		return WellGrant{Type: r.Well}, nil
	case RewardMultiplier:
		return MultiplierGrant{Duration: r.Duration}, nil
	default:
		return nil, fmt.Errorf("%w: reward kind %q", ErrInvalidCatalog, r.Kind)
	}
}

// SelectBand maps a roll in [0,100) to a rarity band. Legendary is checked
// first against the smallest cumulative threshold, then epic, then rare;
// common takes the remainder.
func SelectBand(c CaseSpec, roll float64) Rarity {
	var cumulative float64
	for _, r := range bandOrder {
		band, ok := c.Band(r)
		if !ok {
			continue
		}
		cumulative += band.Percent
		if roll < cumulative {
			return r
		}
	}
	return RarityCommon
}

// ResolveCase draws one reward from the case. The draw is the only source of
// randomness; settlement is separate so callers can persist atomically.
func ResolveCase(c CaseSpec, src RandomSource) (Reward, error) {
	roll := src.Float64() * 100
	rarity := SelectBand(c, roll)
	band, ok := c.Band(rarity)
	if !ok || len(band.Rewards) == 0 {
		return Reward{}, fmt.Errorf("%w: case %s has no %s rewards", ErrInvalidCatalog, c.ID, rarity)
	}
	spec := band.Rewards[src.Intn(len(band.Rewards))]
	p, err := spec.toPayout()
	if err != nil {
		return Reward{}, err
	}
	return Reward{
		CaseID: c.ID,
		Rarity: rarity,
		Kind:   spec.Kind,
		Label:  spec.Label,
		Roll:   roll,
		Payout: p,
	}, nil
}

// CaseSettlement is everything opening a case changes. MoneyDelta always
// includes the price deduction exactly once.
type CaseSettlement struct {
	Reward     Reward
	Price      int64
	MoneyDelta int64
	Booster    *BoosterChange
	Well       *Well
}

// IDs supplies fresh record identifiers for grants.
type IDs func() string

// OpenCase checks affordability, draws a reward and computes its settlement.
func OpenCase(cat *Catalog, profileID string, balance int64, boosters []Booster, caseID string, src RandomSource, newID IDs, now time.Time) (CaseSettlement, error) {
	c, ok := cat.Case(caseID)
	if !ok {
		return CaseSettlement{}, fmt.Errorf("%w: case %s", ErrNotFound, caseID)
	}
	if balance < c.Price {
		return CaseSettlement{}, fmt.Errorf("%w: %s costs %d, balance %d", ErrInsufficientFunds, caseID, c.Price, balance)
	}
	reward, err := ResolveCase(c, src)
	if err != nil {
		return CaseSettlement{}, err
	}
	return SettleReward(cat, profileID, c, reward, boosters, newID, now)
}

// SettleReward turns a resolved reward into concrete changes. The case price
// is deducted for every payout kind; grants bypass the normal purchase cost.
func SettleReward(cat *Catalog, profileID string, c CaseSpec, reward Reward, boosters []Booster, newID IDs, now time.Time) (CaseSettlement, error) {
	out := CaseSettlement{Reward: reward, Price: c.Price, MoneyDelta: -c.Price}
	switch p := reward.Payout.(type) {
	case MoneyPayout:
		out.MoneyDelta = p.Amount - c.Price
	case BoosterGrant:
		change, err := GrantBooster(cat, FindBooster(boosters, p.Type), profileID, newID(), p.Type, now)
		if err != nil {
			return CaseSettlement{}, err
		}
		out.Booster = &change
	case WellGrant:
		w, err := NewWell(cat, profileID, newID(), p.Type, now)
		if err != nil {
			return CaseSettlement{}, err
		}
		out.Well = &w
	case MultiplierGrant:
		change, err := GrantTimedMultiplier(cat, FindBooster(boosters, BoosterCaseMultiplier), profileID, newID(), p.Duration, now)
		if err != nil {
			return CaseSettlement{}, err
		}
		out.Booster = &change
	default:
		return CaseSettlement{}, fmt.Errorf("%w: unhandled payout %T", ErrInvalidCatalog, reward.Payout)
	}
	return out, nil
}
