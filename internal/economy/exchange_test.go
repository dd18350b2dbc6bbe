package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	rates := DefaultCatalog().Rates

	tests := []struct {
		amount   float64
		from, to Currency
		want     float64
	}{
		{1, CurrencyCoins, CurrencyMoney, 100},
		{5_000, CurrencyBarrels, CurrencyMoney, 5},
		{2, CurrencyMoney, CurrencyBarrels, 2_000},
		{250, CurrencyMoney, CurrencyCoins, 2.5},
		{7, CurrencyMoney, CurrencyMoney, 7},
	}
	for _, tc := range tests {
		got, err := Convert(rates, tc.amount, tc.from, tc.to)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, got, 1e-9, "%v %s -> %s", tc.amount, tc.from, tc.to)
	}

	_, err := Convert(rates, 1, "gold", CurrencyMoney)
	assert.ErrorIs(t, err, ErrNotFound)
}
