package economy

import (
	"fmt"
	"math"
	"time"
)

// IncomeGrowth is the per-level growth factor of a well's daily income.
const IncomeGrowth = 1.2

func WellIncome(spec WellSpec, level int) int64 {
	if level < 1 {
		level = 1
	}
	return int64(math.Floor(float64(spec.BaseIncome) * math.Pow(IncomeGrowth, float64(level-1))))
}

// UpgradeCost is the price of moving a well from level to level+1.
func UpgradeCost(spec WellSpec, level int) int64 {
	if level < 1 {
		level = 1
	}
	return int64(math.Floor(float64(spec.Price) * spec.UpgradeBase * math.Pow(spec.UpgradeRate, float64(level-1))))
}

// NewWell builds a level 1 well of the given type.
func NewWell(cat *Catalog, profileID, id string, t WellType, now time.Time) (Well, error) {
	spec, ok := cat.Well(t)
	if !ok {
		return Well{}, fmt.Errorf("%w: well type %s", ErrNotFound, t)
	}
	return Well{
		ID:          id,
		ProfileID:   profileID,
		Type:        t,
		Level:       1,
		DailyIncome: spec.BaseIncome,
		PurchasedAt: now,
	}, nil
}

type WellPurchase struct {
	Well Well
	Cost int64
}

// PurchaseWell checks affordability and builds the new well.
func PurchaseWell(cat *Catalog, balance int64, profileID, id string, t WellType, now time.Time) (WellPurchase, error) {
	spec, ok := cat.Well(t)
	if !ok {
		return WellPurchase{}, fmt.Errorf("%w: well type %s", ErrNotFound, t)
	}
	if balance < spec.Price {
		return WellPurchase{}, fmt.Errorf("%w: well %s costs %d, balance %d", ErrInsufficientFunds, t, spec.Price, balance)
	}
	w, err := NewWell(cat, profileID, id, t, now)
	if err != nil {
		return WellPurchase{}, err
	}
	return WellPurchase{Well: w, Cost: spec.Price}, nil
}

type WellUpgrade struct {
	Well Well
	Cost int64
}

// UpgradeWell raises the well by one level. Levels only ever go up.
func UpgradeWell(cat *Catalog, balance int64, w Well) (WellUpgrade, error) {
	spec, ok := cat.Well(w.Type)
	if !ok {
		return WellUpgrade{}, fmt.Errorf("%w: well type %s", ErrNotFound, w.Type)
	}
	if w.Level >= spec.MaxLevel {
		return WellUpgrade{}, fmt.Errorf("%w: well %s is level %d", ErrMaxLevelReached, w.ID, w.Level)
	}
	cost := UpgradeCost(spec, w.Level)
	if balance < cost {
		return WellUpgrade{}, fmt.Errorf("%w: upgrade costs %d, balance %d", ErrInsufficientFunds, cost, balance)
	}
	w.Level++
	w.DailyIncome = WellIncome(spec, w.Level)
	return WellUpgrade{Well: w, Cost: cost}, nil
}
