package economy

import "fmt"

// barrelValue returns how many barrels one unit of c is worth.
func barrelValue(r ExchangeRates, c Currency) (int64, error) {
	switch c {
	case CurrencyBarrels:
		return 1, nil
	case CurrencyMoney:
		return r.BarrelsPerMoney, nil
	case CurrencyCoins:
		return r.BarrelsPerMoney * r.MoneyPerCoin, nil
	default:
		return 0, fmt.Errorf("%w: currency %q", ErrNotFound, c)
	}
}

// Convert translates an amount between denominations using the fixed rates.
// It is a display calculator only; no balance moves.
func Convert(r ExchangeRates, amount float64, from, to Currency) (float64, error) {
	fromValue, err := barrelValue(r, from)
	if err != nil {
		return 0, err
	}
	toValue, err := barrelValue(r, to)
	if err != nil {
		return 0, err
	}
	return amount * float64(fromValue) / float64(toValue), nil
}

// BarrelsToMoney converts a barrel income into the primary currency.
func BarrelsToMoney(r ExchangeRates, barrels int64) float64 {
	return float64(barrels) / float64(r.BarrelsPerMoney)
}
