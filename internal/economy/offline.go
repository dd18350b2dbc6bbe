package economy

import (
	"math"
	"time"
)

type OfflineCredit struct {
	Elapsed  time.Duration `json:"elapsed"`
	Credited time.Duration `json:"credited"`
	Amount   int64         `json:"amount"`
	// Discarded holds a computed amount dropped by the minimum payout rule.
	Discarded int64 `json:"discarded,omitempty"`
}

// OfflineIncome computes the catch-up credit for the time since lastLogin.
// Absences shorter than MinElapsed earn nothing, the credited window is capped
// at MaxElapsed and results below MinPayout are dropped.
func OfflineIncome(rules OfflineRules, dailyIncome int64, lastLogin, now time.Time) OfflineCredit {
	elapsed := now.Sub(lastLogin)
	out := OfflineCredit{Elapsed: elapsed}
	if lastLogin.IsZero() || dailyIncome <= 0 || elapsed < rules.MinElapsed || elapsed <= 0 {
		return out
	}
	credited := elapsed
	if credited > rules.MaxElapsed {
		credited = rules.MaxElapsed
	}
	out.Credited = credited

	hourly := float64(dailyIncome) / 24
	amount := int64(math.Floor(hourly * credited.Hours()))
	if amount < rules.MinPayout {
		out.Discarded = amount
		return out
	}
	out.Amount = amount
	return out
}
