package economy

import "time"

const (
	BarrelsPerMoney = int64(1_000)
	MoneyPerCoin    = int64(100)
)

// DefaultCatalog returns the built-in game configuration. Each call returns a
// fresh value so callers cannot mutate a shared copy.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Wells: []WellSpec{
			{Type: WellStarter, Name: "Starter Rig", BaseIncome: 2_000, Price: 1_000, MaxLevel: 10, Rarity: RarityCommon, UpgradeBase: 0.6, UpgradeRate: 1.35},
			{Type: WellBasic, Name: "Basic Pump", BaseIncome: 5_000, Price: 2_400, MaxLevel: 15, Rarity: RarityCommon, UpgradeBase: 0.6, UpgradeRate: 1.35},
			{Type: WellStandard, Name: "Standard Derrick", BaseIncome: 12_000, Price: 5_500, MaxLevel: 20, Rarity: RarityCommon, UpgradeBase: 0.6, UpgradeRate: 1.35},
			{Type: WellAdvanced, Name: "Advanced Derrick", BaseIncome: 30_000, Price: 13_000, MaxLevel: 25, Rarity: RarityRare, UpgradeBase: 0.6, UpgradeRate: 1.35},
			{Type: WellProfessional, Name: "Professional Field", BaseIncome: 75_000, Price: 31_000, MaxLevel: 30, Rarity: RarityRare, UpgradeBase: 0.6, UpgradeRate: 1.35},
			{Type: WellIndustrial, Name: "Industrial Complex", BaseIncome: 180_000, Price: 72_000, MaxLevel: 35, Rarity: RarityEpic, UpgradeBase: 0.6, UpgradeRate: 1.35},
			{Type: WellOffshore, Name: "Offshore Platform", BaseIncome: 450_000, Price: 170_000, MaxLevel: 40, Rarity: RarityEpic, UpgradeBase: 0.6, UpgradeRate: 1.35},
			{Type: WellMega, Name: "Mega Refinery", BaseIncome: 1_100_000, Price: 400_000, MaxLevel: 45, Rarity: RarityLegendary, UpgradeBase: 0.6, UpgradeRate: 1.35},
			{Type: WellLegendary, Name: "Legendary Gusher", BaseIncome: 2_800_000, Price: 950_000, MaxLevel: 50, Rarity: RarityLegendary, UpgradeBase: 0.6, UpgradeRate: 1.35},
		},
		Bundles: []BundleSpec{
			{ID: "starter_pack", Name: "Starter Pack", Price: 3_900, Items: []BundleItem{{Well: WellStarter, Count: 2}, {Well: WellBasic, Count: 1}}},
			{ID: "growth_pack", Name: "Growth Pack", Price: 26_000, Items: []BundleItem{{Well: WellStandard, Count: 2}, {Well: WellAdvanced, Count: 1}}},
			{ID: "tycoon_pack", Name: "Tycoon Pack", Price: 270_000, Items: []BundleItem{{Well: WellProfessional, Count: 2}, {Well: WellIndustrial, Count: 1}, {Well: WellOffshore, Count: 1}}},
		},
		Boosters: []BoosterSpec{
			{Type: BoosterWorkerCrew, Name: "Worker Crew", PercentPerLevel: 10, BaseCost: 5_000, CostMultiplier: 1.8, MaxLevel: 10, Purchasable: true},
			{Type: BoosterGeologicalSurvey, Name: "Geological Survey", PercentPerLevel: 15, BaseCost: 12_000, CostMultiplier: 2.0, MaxLevel: 5, Purchasable: true},
			{Type: BoosterAdvancedEquipment, Name: "Advanced Equipment", PercentPerLevel: 25, BaseCost: 30_000, CostMultiplier: 2.2, MaxLevel: 5, Purchasable: true},
			{Type: BoosterTurboBoost, Name: "Turbo Boost", PercentPerLevel: 50, Flat: true, BaseCost: 8_000, CostMultiplier: 1.5, MaxLevel: 3, Duration: 24 * time.Hour, Purchasable: true},
			{Type: BoosterAutomation, Name: "Automation", PercentPerLevel: 20, BaseCost: 20_000, CostMultiplier: 1.9, MaxLevel: 5, Duration: 7 * 24 * time.Hour, Purchasable: true},
			{Type: BoosterCaseMultiplier, Name: "Case x2 Multiplier", PercentPerLevel: 100, Flat: true, CostMultiplier: 1, MaxLevel: 1, Duration: time.Hour},
		},
		Cases: []CaseSpec{
			{
				ID: "basic_case", Name: "Basic Case", Price: 5_000,
				Bands: []BandSpec{
					{Rarity: RarityLegendary, Percent: 3, Rewards: []RewardSpec{
						{Kind: RewardMoney, Label: "50,000 cash", Amount: 50_000},
						{Kind: RewardWell, Label: "Advanced Derrick", Well: WellAdvanced},
					}},
					{Rarity: RarityEpic, Percent: 12, Rewards: []RewardSpec{
						{Kind: RewardMoney, Label: "15,000 cash", Amount: 15_000},
						{Kind: RewardBooster, Label: "Turbo Boost", Booster: BoosterTurboBoost},
					}},
					{Rarity: RarityRare, Percent: 25, Rewards: []RewardSpec{
						{Kind: RewardMoney, Label: "7,000 cash", Amount: 7_000},
						{Kind: RewardBooster, Label: "Worker Crew", Booster: BoosterWorkerCrew},
						{Kind: RewardMultiplier, Label: "x2 income for 1h", Duration: time.Hour},
					}},
					{Rarity: RarityCommon, Percent: 60, Rewards: []RewardSpec{
						{Kind: RewardMoney, Label: "2,000 cash", Amount: 2_000},
						{Kind: RewardMoney, Label: "3,500 cash", Amount: 3_500},
						{Kind: RewardWell, Label: "Starter Rig", Well: WellStarter},
					}},
				},
			},
			{
				ID: "premium_case", Name: "Premium Case", Price: 15_000,
				Bands: []BandSpec{
					{Rarity: RarityLegendary, Percent: 5, Rewards: []RewardSpec{
						{Kind: RewardMoney, Label: "150,000 cash", Amount: 150_000},
						{Kind: RewardWell, Label: "Industrial Complex", Well: WellIndustrial},
					}},
					{Rarity: RarityEpic, Percent: 15, Rewards: []RewardSpec{
						{Kind: RewardMoney, Label: "45,000 cash", Amount: 45_000},
						{Kind: RewardBooster, Label: "Advanced Equipment", Booster: BoosterAdvancedEquipment},
					}},
					{Rarity: RarityRare, Percent: 30, Rewards: []RewardSpec{
						{Kind: RewardMoney, Label: "20,000 cash", Amount: 20_000},
						{Kind: RewardBooster, Label: "Geological Survey", Booster: BoosterGeologicalSurvey},
						{Kind: RewardMultiplier, Label: "x2 income for 3h", Duration: 3 * time.Hour},
					}},
					{Rarity: RarityCommon, Percent: 50, Rewards: []RewardSpec{
						{Kind: RewardMoney, Label: "6,000 cash", Amount: 6_000},
						{Kind: RewardMoney, Label: "10,000 cash", Amount: 10_000},
						{Kind: RewardWell, Label: "Standard Derrick", Well: WellStandard},
					}},
				},
			},
			{
				ID: "elite_case", Name: "Elite Case", Price: 50_000,
				Bands: []BandSpec{
					{Rarity: RarityLegendary, Percent: 10, Rewards: []RewardSpec{
						{Kind: RewardMoney, Label: "500,000 cash", Amount: 500_000},
						{Kind: RewardWell, Label: "Mega Refinery", Well: WellMega},
					}},
					{Rarity: RarityEpic, Percent: 20, Rewards: []RewardSpec{
						{Kind: RewardMoney, Label: "120,000 cash", Amount: 120_000},
						{Kind: RewardWell, Label: "Offshore Platform", Well: WellOffshore},
						{Kind: RewardMultiplier, Label: "x2 income for 12h", Duration: 12 * time.Hour},
					}},
					{Rarity: RarityRare, Percent: 35, Rewards: []RewardSpec{
						{Kind: RewardMoney, Label: "60,000 cash", Amount: 60_000},
						{Kind: RewardBooster, Label: "Automation", Booster: BoosterAutomation},
					}},
					{Rarity: RarityCommon, Percent: 35, Rewards: []RewardSpec{
						{Kind: RewardMoney, Label: "25,000 cash", Amount: 25_000},
						{Kind: RewardMoney, Label: "35,000 cash", Amount: 35_000},
						{Kind: RewardBooster, Label: "Turbo Boost", Booster: BoosterTurboBoost},
					}},
				},
			},
		},
		Titles: []TitleSpec{
			{Tag: "oil_baron", Name: "Oil Baron", Percent: 5},
			{Tag: "ceo", Name: "CEO", Percent: 3},
			{Tag: "industrialist", Name: "Industrialist", Percent: 2},
		},
		Rates: ExchangeRates{
			MoneyPerCoin:    MoneyPerCoin,
			BarrelsPerMoney: BarrelsPerMoney,
		},
		Offline: OfflineRules{
			MinElapsed: time.Minute,
			MaxElapsed: 24 * time.Hour,
			MinPayout:  10,
		},
		StarterBalance: Balances{Coins: 50, Money: 10_000},
	}
}
