package economy

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// bandOrder is the order the resolver checks rarity bands in. Common is the
// remainder and never gets its own threshold.
var bandOrder = []Rarity{RarityLegendary, RarityEpic, RarityRare}

type WellType string

const (
	WellStarter      WellType = "starter"
	WellBasic        WellType = "basic"
	WellStandard     WellType = "standard"
	WellAdvanced     WellType = "advanced"
	WellProfessional WellType = "professional"
	WellIndustrial   WellType = "industrial"
	WellOffshore     WellType = "offshore"
	WellMega         WellType = "mega"
	WellLegendary    WellType = "legendary"
)

type BoosterType string

const (
	BoosterWorkerCrew        BoosterType = "worker_crew"
	BoosterGeologicalSurvey  BoosterType = "geological_survey"
	BoosterAdvancedEquipment BoosterType = "advanced_equipment"
	BoosterTurboBoost        BoosterType = "turbo_boost"
	BoosterAutomation        BoosterType = "automation"
	// BoosterCaseMultiplier is only ever granted by a case reward.
	BoosterCaseMultiplier BoosterType = "case_multiplier"
)

type WellSpec struct {
	Type        WellType `yaml:"type" json:"type" validate:"required"`
	Name        string   `yaml:"name" json:"name" validate:"required"`
	BaseIncome  int64    `yaml:"base_income" json:"base_income" validate:"gt=0"`
	Price       int64    `yaml:"price" json:"price" validate:"gt=0"`
	MaxLevel    int      `yaml:"max_level" json:"max_level" validate:"gte=1"`
	Rarity      Rarity   `yaml:"rarity" json:"rarity" validate:"oneof=common rare epic legendary"`
	UpgradeBase float64  `yaml:"upgrade_base" json:"upgrade_base" validate:"gt=0"`
	UpgradeRate float64  `yaml:"upgrade_rate" json:"upgrade_rate" validate:"gte=1"`
}

type BundleItem struct {
	Well  WellType `yaml:"well" json:"well" validate:"required"`
	Count int      `yaml:"count" json:"count" validate:"gte=1"`
}

type BundleSpec struct {
	ID    string       `yaml:"id" json:"id" validate:"required"`
	Name  string       `yaml:"name" json:"name" validate:"required"`
	Price int64        `yaml:"price" json:"price" validate:"gt=0"`
	Items []BundleItem `yaml:"items" json:"items" validate:"min=1,dive"`
}

type BoosterSpec struct {
	Type            BoosterType   `yaml:"type" json:"type" validate:"required"`
	Name            string        `yaml:"name" json:"name" validate:"required"`
	PercentPerLevel float64       `yaml:"percent_per_level" json:"percent_per_level" validate:"gte=0"`
	Flat            bool          `yaml:"flat" json:"flat"`
	BaseCost        int64         `yaml:"base_cost" json:"base_cost" validate:"gte=0"`
	CostMultiplier  float64       `yaml:"cost_multiplier" json:"cost_multiplier" validate:"gte=1"`
	MaxLevel        int           `yaml:"max_level" json:"max_level" validate:"gte=1"`
	Duration        time.Duration `yaml:"duration" json:"duration"`
	Purchasable     bool          `yaml:"purchasable" json:"purchasable"`
}

// Temporary reports whether boosters of this type carry an expiry.
func (b BoosterSpec) Temporary() bool {
	return b.Duration > 0
}

type RewardKind string

const (
	RewardMoney      RewardKind = "money"
	RewardBooster    RewardKind = "booster"
	RewardWell       RewardKind = "well"
	RewardMultiplier RewardKind = "multiplier"
)

type RewardSpec struct {
	Kind     RewardKind    `yaml:"kind" json:"kind" validate:"oneof=money booster well multiplier"`
	Label    string        `yaml:"label" json:"label"`
	Amount   int64         `yaml:"amount,omitempty" json:"amount,omitempty"`
	Booster  BoosterType   `yaml:"booster,omitempty" json:"booster,omitempty"`
	Well     WellType      `yaml:"well,omitempty" json:"well,omitempty"`
	Duration time.Duration `yaml:"duration,omitempty" json:"duration,omitempty"`
}

type BandSpec struct {
	Rarity  Rarity       `yaml:"rarity" json:"rarity" validate:"oneof=common rare epic legendary"`
	Percent float64      `yaml:"percent" json:"percent" validate:"gte=0,lte=100"`
	Rewards []RewardSpec `yaml:"rewards" json:"rewards" validate:"min=1,dive"`
}

type CaseSpec struct {
	ID    string     `yaml:"id" json:"id" validate:"required"`
	Name  string     `yaml:"name" json:"name" validate:"required"`
	Price int64      `yaml:"price" json:"price" validate:"gt=0"`
	Bands []BandSpec `yaml:"bands" json:"bands" validate:"min=1,dive"`
}

// Band returns the band for the given rarity.
func (c CaseSpec) Band(r Rarity) (BandSpec, bool) {
	for _, b := range c.Bands {
		if b.Rarity == r {
			return b, true
		}
	}
	return BandSpec{}, false
}

type TitleSpec struct {
	Tag     string  `yaml:"tag" json:"tag" validate:"required"`
	Name    string  `yaml:"name" json:"name"`
	Percent float64 `yaml:"percent" json:"percent" validate:"gte=0"`
}

type ExchangeRates struct {
	MoneyPerCoin    int64 `yaml:"money_per_coin" json:"money_per_coin" validate:"gt=0"`
	BarrelsPerMoney int64 `yaml:"barrels_per_money" json:"barrels_per_money" validate:"gt=0"`
}

type OfflineRules struct {
	MinElapsed time.Duration `yaml:"min_elapsed" json:"min_elapsed"`
	MaxElapsed time.Duration `yaml:"max_elapsed" json:"max_elapsed" validate:"gt=0"`
	MinPayout  int64         `yaml:"min_payout" json:"min_payout" validate:"gte=0"`
}

// Catalog is the static game configuration. It is built once at process start
// and shared read-only by every economy function.
type Catalog struct {
	Wells          []WellSpec    `yaml:"wells" json:"wells" validate:"min=1,dive"`
	Bundles        []BundleSpec  `yaml:"bundles" json:"bundles" validate:"dive"`
	Boosters       []BoosterSpec `yaml:"boosters" json:"boosters" validate:"min=1,dive"`
	Cases          []CaseSpec    `yaml:"cases" json:"cases" validate:"dive"`
	Titles         []TitleSpec   `yaml:"titles" json:"titles" validate:"dive"`
	Rates          ExchangeRates `yaml:"rates" json:"rates"`
	Offline        OfflineRules  `yaml:"offline" json:"offline"`
	StarterBalance Balances      `yaml:"starter_balance" json:"starter_balance"`
}

func (c *Catalog) Well(t WellType) (WellSpec, bool) {
	for _, w := range c.Wells {
		if w.Type == t {
			return w, true
		}
	}
	return WellSpec{}, false
}

func (c *Catalog) Bundle(id string) (BundleSpec, bool) {
	for _, b := range c.Bundles {
		if b.ID == id {
			return b, true
		}
	}
	return BundleSpec{}, false
}

func (c *Catalog) Booster(t BoosterType) (BoosterSpec, bool) {
	for _, b := range c.Boosters {
		if b.Type == t {
			return b, true
		}
	}
	return BoosterSpec{}, false
}

func (c *Catalog) Case(id string) (CaseSpec, bool) {
	for _, cs := range c.Cases {
		if cs.ID == id {
			return cs, true
		}
	}
	return CaseSpec{}, false
}

func (c *Catalog) Title(tag string) (TitleSpec, bool) {
	for _, t := range c.Titles {
		if t.Tag == tag {
			return t, true
		}
	}
	return TitleSpec{}, false
}

// BundleIncome is the summed base income of the bundle's wells, in barrels.
func (c *Catalog) BundleIncome(b BundleSpec) int64 {
	var total int64
	for _, item := range b.Items {
		w, ok := c.Well(item.Well)
		if !ok {
			continue
		}
		total += w.BaseIncome * int64(item.Count)
	}
	return total
}

var validate = validator.New()

// Validate checks struct constraints and the cross references a malformed
// catalog would otherwise only reveal at runtime.
func (c *Catalog) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	seenWells := map[WellType]bool{}
	for _, w := range c.Wells {
		if seenWells[w.Type] {
			return fmt.Errorf("%w: duplicate well type %s", ErrInvalidCatalog, w.Type)
		}
		seenWells[w.Type] = true
	}
	seenBoosters := map[BoosterType]bool{}
	for _, b := range c.Boosters {
		if seenBoosters[b.Type] {
			return fmt.Errorf("%w: duplicate booster type %s", ErrInvalidCatalog, b.Type)
		}
		seenBoosters[b.Type] = true
	}
	for _, b := range c.Bundles {
		for _, item := range b.Items {
			if !seenWells[item.Well] {
				return fmt.Errorf("%w: bundle %s references unknown well %s", ErrInvalidCatalog, b.ID, item.Well)
			}
		}
	}
	for _, cs := range c.Cases {
		var total float64
		seenBands := map[Rarity]bool{}
		for _, band := range cs.Bands {
			if seenBands[band.Rarity] {
				return fmt.Errorf("%w: case %s repeats band %s", ErrInvalidCatalog, cs.ID, band.Rarity)
			}
			seenBands[band.Rarity] = true
			total += band.Percent
			for _, r := range band.Rewards {
				if err := c.validateReward(r); err != nil {
					return fmt.Errorf("%w: case %s: %v", ErrInvalidCatalog, cs.ID, err)
				}
			}
		}
		if !seenBands[RarityCommon] {
			return fmt.Errorf("%w: case %s has no common band", ErrInvalidCatalog, cs.ID)
		}
		if total < 99.999 || total > 100.001 {
			return fmt.Errorf("%w: case %s band percentages sum to %.3f", ErrInvalidCatalog, cs.ID, total)
		}
	}
	if c.Offline.MinElapsed > c.Offline.MaxElapsed {
		return fmt.Errorf("%w: offline min elapsed exceeds max", ErrInvalidCatalog)
	}
	return nil
}

func (c *Catalog) validateReward(r RewardSpec) error {
	switch r.Kind {
	case RewardMoney:
		if r.Amount <= 0 {
			return fmt.Errorf("money reward %q needs a positive amount", r.Label)
		}
	case RewardBooster:
		if _, ok := c.Booster(r.Booster); !ok {
			return fmt.Errorf("booster reward references unknown booster %s", r.Booster)
		}
	case RewardWell:
		if _, ok := c.Well(r.Well); !ok {
			return fmt.Errorf("well reward references unknown well %s", r.Well)
		}
	case RewardMultiplier:
		if r.Duration <= 0 {
			return fmt.Errorf("multiplier reward %q needs a duration", r.Label)
		}
		if _, ok := c.Booster(BoosterCaseMultiplier); !ok {
			return fmt.Errorf("multiplier reward needs a %s booster entry", BoosterCaseMultiplier)
		}
	default:
		return fmt.Errorf("unknown reward kind %q", r.Kind)
	}
	return nil
}

// LoadCatalog reads a YAML catalog from disk and validates it.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}
