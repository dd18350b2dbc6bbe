package economy

import (
	"math"
	"time"
)

// BonusPercent sums the percentage every active booster and known title adds.
// Expired boosters and unknown booster types or titles contribute nothing.
func BonusPercent(cat *Catalog, boosters []Booster, titles []string, now time.Time) float64 {
	var total float64
	for _, b := range boosters {
		if b.Level <= 0 || !b.Active(now) {
			continue
		}
		spec, ok := cat.Booster(b.Type)
		if !ok {
			continue
		}
		if spec.Flat {
			total += spec.PercentPerLevel
			continue
		}
		total += float64(b.Level) * spec.PercentPerLevel
	}
	for _, tag := range titles {
		if t, ok := cat.Title(tag); ok {
			total += t.Percent
		}
	}
	return total
}

// Multiplier is the single factor applied to all well income:
// 1 + percent/100, rounded to three decimals so repeated recalculation does not
// drift. It never drops below 1.
func Multiplier(cat *Catalog, boosters []Booster, titles []string, now time.Time) float64 {
	pct := BonusPercent(cat, boosters, titles, now)
	if pct <= 0 {
		return 1
	}
	return roundTo(1+pct/100, 3)
}

// DailyIncome is the cached per-day barrel income shown to the player.
func DailyIncome(wells []Well, multiplier float64) int64 {
	var base int64
	for _, w := range wells {
		base += w.DailyIncome
	}
	return int64(math.Floor(float64(base) * multiplier))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
