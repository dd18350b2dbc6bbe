package economy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMultiplierSumsActiveBoostersAndTitles(t *testing.T) {
	cat := DefaultCatalog()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)

	boosters := []Booster{
		{Type: BoosterWorkerCrew, Level: 2},
		{Type: BoosterTurboBoost, Level: 3, ExpiresAt: &later},
	}
	got := Multiplier(cat, boosters, []string{"ceo"}, now)
	// 2*10 + 50 flat + 3
	assert.InDelta(t, 1.73, got, 1e-9)
}

func TestMultiplierIgnoresExpiredBoosters(t *testing.T) {
	cat := DefaultCatalog()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Second)
	atNow := now

	boosters := []Booster{
		{Type: BoosterGeologicalSurvey, Level: 1},
		{Type: BoosterTurboBoost, Level: 3, ExpiresAt: &expired},
		{Type: BoosterAutomation, Level: 5, ExpiresAt: &atNow},
	}
	assert.InDelta(t, 1.15, Multiplier(cat, boosters, nil, now), 1e-9)
}

func TestMultiplierNeverBelowOne(t *testing.T) {
	cat := DefaultCatalog()
	now := time.Now()

	assert.Equal(t, 1.0, Multiplier(cat, nil, nil, now))
	assert.Equal(t, 1.0, Multiplier(cat, []Booster{{Type: "unknown", Level: 4}}, []string{"nobody"}, now))
	assert.Equal(t, 1.0, Multiplier(cat, []Booster{{Type: BoosterWorkerCrew, Level: 0}}, nil, now))

	cat.Titles = append(cat.Titles, TitleSpec{Tag: "cursed", Percent: 0})
	assert.Equal(t, 1.0, Multiplier(cat, nil, []string{"cursed"}, now))
}

func TestMultiplierRoundsToThreeDecimals(t *testing.T) {
	cat := DefaultCatalog()
	cat.Titles = append(cat.Titles, TitleSpec{Tag: "odd", Percent: 0.12345})
	got := Multiplier(cat, nil, []string{"odd"}, time.Now())
	assert.InDelta(t, 1.001, got, 1e-12)
}

func TestDailyIncomeAppliesMultiplier(t *testing.T) {
	wells := []Well{{DailyIncome: 2_000}, {DailyIncome: 5_001}}
	assert.Equal(t, int64(7_001), DailyIncome(wells, 1))
	assert.Equal(t, int64(8_751), DailyIncome(wells, 1.25))
	assert.Equal(t, int64(0), DailyIncome(nil, 2))
}
