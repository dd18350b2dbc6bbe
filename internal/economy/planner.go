package economy

import (
	"fmt"
	"math"
)

// PairSpan bounds how many units of the first well type the two-well shape
// tries. The planner is a bounded heuristic for an interactive calculator, not
// an exhaustive optimiser, so it can miss the cheapest mix.
const PairSpan = 5

// maxUnits stops degenerate catalogs (tiny incomes, huge targets) from
// producing absurd counts.
const maxUnits = 100_000

type PlanShape string

const (
	ShapeWells       PlanShape = "wells"
	ShapeBundles     PlanShape = "bundles"
	ShapeBundleTopUp PlanShape = "bundle_top_up"
	ShapeWellPair    PlanShape = "well_pair"
)

type PlanLine struct {
	Well   WellType `json:"well,omitempty"`
	Bundle string   `json:"bundle,omitempty"`
	Count  int      `json:"count"`
	Cost   int64    `json:"cost"`
	Income float64  `json:"income"`
}

type PlanResult struct {
	Target       float64     `json:"target"`
	Shape        PlanShape   `json:"shape"`
	Lines        []PlanLine  `json:"lines"`
	Booster      BoosterType `json:"booster,omitempty"`
	Multiplier   float64     `json:"multiplier"`
	BaseIncome   float64     `json:"base_income"`
	ActualIncome float64     `json:"actual_income"`
	PurchaseCost int64       `json:"purchase_cost"`
	BoosterCost  int64       `json:"booster_cost"`
	TotalCost    int64       `json:"total_cost"`
	PaybackDays  int64       `json:"payback_days"`
}

type boosterOption struct {
	Type       BoosterType
	Multiplier float64
	Cost       int64
}

func boosterOptions(cat *Catalog) []boosterOption {
	out := []boosterOption{{Multiplier: 1}}
	for _, b := range cat.Boosters {
		if !b.Purchasable {
			continue
		}
		out = append(out, boosterOption{
			Type:       b.Type,
			Multiplier: roundTo(1+b.PercentPerLevel/100, 3),
			Cost:       BoosterCost(b, 0),
		})
	}
	return out
}

type planner struct {
	cat    *Catalog
	target float64
	best   *PlanResult
}

// Plan searches purchase combinations reaching target money per day at low
// cost. Every booster option (including none) is combined with four shapes:
// copies of one well, copies of one bundle, a bundle topped up with one well
// type, and two well types. The cheapest feasible candidate wins; on equal
// cost the first one evaluated is kept.
func Plan(cat *Catalog, target float64) (PlanResult, error) {
	if target <= 0 || math.IsNaN(target) || math.IsInf(target, 0) {
		return PlanResult{}, ErrInvalidTarget
	}
	p := &planner{cat: cat, target: target}
	for _, opt := range boosterOptions(cat) {
		p.singleWells(opt)
		p.bundles(opt)
		p.bundleTopUps(opt)
		p.wellPairs(opt)
	}
	if p.best == nil {
		return PlanResult{}, fmt.Errorf("%w: target %.2f", ErrNoFeasiblePlan, target)
	}
	return *p.best, nil
}

func (p *planner) wellIncome(w WellSpec) float64 {
	return BarrelsToMoney(p.cat.Rates, w.BaseIncome)
}

func (p *planner) bundleIncome(b BundleSpec) float64 {
	return BarrelsToMoney(p.cat.Rates, p.cat.BundleIncome(b))
}

// unitsFor returns the smallest count whose boosted income covers need.
func unitsFor(need, income, mult float64) int {
	if need <= 0 {
		return 0
	}
	if income <= 0 {
		return -1
	}
	q := math.Ceil(need / (income * mult))
	if math.IsNaN(q) || q > maxUnits {
		return -1
	}
	n := int(q)
	if n < 1 {
		n = 1
	}
	for float64(n)*income*mult < need {
		n++
	}
	if n > maxUnits {
		return -1
	}
	return n
}

func (p *planner) singleWells(opt boosterOption) {
	for _, w := range p.cat.Wells {
		income := p.wellIncome(w)
		n := unitsFor(p.target, income, opt.Multiplier)
		if n < 1 {
			continue
		}
		p.consider(ShapeWells, opt, []PlanLine{wellLine(w, n, income)})
	}
}

func (p *planner) bundles(opt boosterOption) {
	for _, b := range p.cat.Bundles {
		income := p.bundleIncome(b)
		n := unitsFor(p.target, income, opt.Multiplier)
		if n < 1 {
			continue
		}
		p.consider(ShapeBundles, opt, []PlanLine{bundleLine(b, n, income)})
	}
}

func (p *planner) bundleTopUps(opt boosterOption) {
	for _, b := range p.cat.Bundles {
		bIncome := p.bundleIncome(b)
		remaining := p.target - bIncome*opt.Multiplier
		if remaining <= 0 {
			continue
		}
		for _, w := range p.cat.Wells {
			income := p.wellIncome(w)
			n := unitsFor(remaining, income, opt.Multiplier)
			if n < 1 {
				continue
			}
			p.consider(ShapeBundleTopUp, opt, []PlanLine{bundleLine(b, 1, bIncome), wellLine(w, n, income)})
		}
	}
}

func (p *planner) wellPairs(opt boosterOption) {
	for _, first := range p.cat.Wells {
		firstIncome := p.wellIncome(first)
		for _, second := range p.cat.Wells {
			if second.Type == first.Type {
				continue
			}
			secondIncome := p.wellIncome(second)
			for k := 1; k <= PairSpan; k++ {
				remaining := p.target - float64(k)*firstIncome*opt.Multiplier
				if remaining <= 0 {
					break
				}
				n := unitsFor(remaining, secondIncome, opt.Multiplier)
				if n < 1 {
					continue
				}
				p.consider(ShapeWellPair, opt, []PlanLine{wellLine(first, k, firstIncome), wellLine(second, n, secondIncome)})
			}
		}
	}
}

func wellLine(w WellSpec, n int, income float64) PlanLine {
	return PlanLine{Well: w.Type, Count: n, Cost: w.Price * int64(n), Income: income * float64(n)}
}

func bundleLine(b BundleSpec, n int, income float64) PlanLine {
	return PlanLine{Bundle: b.ID, Count: n, Cost: b.Price * int64(n), Income: income * float64(n)}
}

func (p *planner) consider(shape PlanShape, opt boosterOption, lines []PlanLine) {
	var base float64
	var purchase int64
	for _, l := range lines {
		base += l.Income
		purchase += l.Cost
	}
	actual := base * opt.Multiplier
	if actual < p.target {
		return
	}
	total := purchase + opt.Cost
	if p.best != nil && total >= p.best.TotalCost {
		return
	}
	p.best = &PlanResult{
		Target:       p.target,
		Shape:        shape,
		Lines:        lines,
		Booster:      opt.Type,
		Multiplier:   opt.Multiplier,
		BaseIncome:   base,
		ActualIncome: actual,
		PurchaseCost: purchase,
		BoosterCost:  opt.Cost,
		TotalCost:    total,
		PaybackDays:  PaybackDays(total, actual),
	}
}

// PaybackDays is how many days of income repay the total cost.
func PaybackDays(totalCost int64, dailyIncome float64) int64 {
	if totalCost <= 0 {
		return 0
	}
	if dailyIncome <= 0 {
		return -1
	}
	return int64(math.Ceil(float64(totalCost) / dailyIncome))
}
