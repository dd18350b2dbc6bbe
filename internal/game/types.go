package game

import (
	"time"

	"oilrush/internal/economy"
)

type Dashboard struct {
	Profile          economy.Profile       `json:"profile"`
	Wells            []economy.Well        `json:"wells"`
	Boosters         []BoosterView         `json:"boosters"`
	Multiplier       float64               `json:"multiplier"`
	DailyIncome      int64                 `json:"daily_income"`
	DailyIncomeMoney float64               `json:"daily_income_money"`
	PendingOffline   economy.OfflineCredit `json:"pending_offline"`
}

type BoosterView struct {
	economy.Booster
	Name      string        `json:"name"`
	Active    bool          `json:"active"`
	ExpiresIn time.Duration `json:"expires_in,omitempty"`
	MaxLevel  int           `json:"max_level"`
	// NextCost is 0 when the booster cannot be bought further.
	NextCost int64 `json:"next_cost"`
	Refund   int64 `json:"refund"`
}

type ResumeResult struct {
	Credit  economy.OfflineCredit `json:"credit"`
	Profile economy.Profile       `json:"profile"`
}

type WellResult struct {
	Well    economy.Well    `json:"well"`
	Cost    int64           `json:"cost"`
	Profile economy.Profile `json:"profile"`
}

type BoosterResult struct {
	Booster economy.Booster `json:"booster"`
	Cost    int64           `json:"cost,omitempty"`
	Refund  int64           `json:"refund,omitempty"`
	Deleted bool            `json:"deleted,omitempty"`
	Profile economy.Profile `json:"profile"`
}

type CaseResult struct {
	Reward     economy.Reward   `json:"reward"`
	Price      int64            `json:"price"`
	MoneyDelta int64            `json:"money_delta"`
	Well       *economy.Well    `json:"well,omitempty"`
	Booster    *economy.Booster `json:"booster,omitempty"`
	Profile    economy.Profile  `json:"profile"`
}

type ExchangeQuote struct {
	Amount float64          `json:"amount"`
	From   economy.Currency `json:"from"`
	To     economy.Currency `json:"to"`
	Result float64          `json:"result"`
}
