package economy

import (
	"errors"
	"time"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrMaxLevelReached   = errors.New("max level reached")
	ErrAlreadyExpired    = errors.New("booster already expired")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTarget     = errors.New("target income must be > 0")
	ErrNoFeasiblePlan    = errors.New("no purchase combination reaches the target")
	ErrInvalidCatalog    = errors.New("invalid catalog")
)

type Currency string

const (
	CurrencyCoins   Currency = "coins"
	CurrencyMoney   Currency = "money"
	CurrencyBarrels Currency = "barrels"
)

type Balances struct {
	Coins   int64 `yaml:"coins" json:"coins"`
	Money   int64 `yaml:"money" json:"money"`
	Barrels int64 `yaml:"barrels" json:"barrels"`
}

type Profile struct {
	ID           string    `json:"id"`
	Balances     Balances  `json:"balances"`
	DailyIncome  int64     `json:"daily_income"`
	Multiplier   float64   `json:"multiplier"`
	LastLogin    time.Time `json:"last_login"`
	Titles       []string  `json:"titles"`
	ReferralCode string    `json:"referral_code"`
	ReferredBy   string    `json:"referred_by,omitempty"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
}

type Well struct {
	ID          string    `json:"id"`
	ProfileID   string    `json:"profile_id"`
	Type        WellType  `json:"type"`
	Level       int       `json:"level"`
	DailyIncome int64     `json:"daily_income"`
	PurchasedAt time.Time `json:"purchased_at"`
}

type Booster struct {
	ID        string      `json:"id"`
	ProfileID string      `json:"profile_id"`
	Type      BoosterType `json:"type"`
	Level     int         `json:"level"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Active reports whether the booster contributes at the given instant.
// Permanent boosters are always active; temporary ones only strictly before
// their expiry.
func (b Booster) Active(now time.Time) bool {
	return b.ExpiresAt == nil || b.ExpiresAt.After(now)
}

type TransactionKind string

const (
	TxOfflineIncome TransactionKind = "offline_income"
	TxWellPurchase  TransactionKind = "well_purchase"
	TxWellUpgrade   TransactionKind = "well_upgrade"
	TxBoosterBuy    TransactionKind = "booster_purchase"
	TxBoosterRefund TransactionKind = "booster_refund"
	TxCaseOpen      TransactionKind = "case_open"
	TxCaseWin       TransactionKind = "case_win"
	TxSignupBonus   TransactionKind = "signup_bonus"
)

type Transaction struct {
	ID        string          `json:"id"`
	ProfileID string          `json:"profile_id"`
	Kind      TransactionKind `json:"kind"`
	Currency  Currency        `json:"currency"`
	Amount    int64           `json:"amount"`
	Meta      map[string]any  `json:"meta,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
