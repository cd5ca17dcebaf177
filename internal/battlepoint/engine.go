// Package battlepoint recomputes the game's combat power from a Character.
package battlepoint

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strconv"

	"lostark-battlepoint/internal/armory"
)

// Fixed-point precisions. Rolled accessory and bracelet stats use the finer one.
const (
	precision     = 4
	precisionRoll = 8
)

// CareScale relates the care accumulator to the attack accumulator when
// the two are summed into a defense total.
const CareScale = 100

// PetSpecialtyKey is the only pet specialty entry the pipeline reads.
const PetSpecialtyKey = "추가 피해 1% 증가"

// ErrPointBudgetExceeded is matched by every PointBudgetError.
var ErrPointBudgetExceeded = errors.New("ark passive points exceed budget")

// PointBudgetError reports a branch whose invested points exceed its budget.
type PointBudgetError struct {
	Branch    armory.Branch
	Spent     int
	Available int
}

func (e *PointBudgetError) Error() string {
	return fmt.Sprintf("ark passive %s: %d points invested, %d available", e.Branch, e.Spent, e.Available)
}

func (e *PointBudgetError) Is(target error) bool { return target == ErrPointBudgetExceeded }

// Score is the result of one Calc. For defense, Value is the support buff
// accumulator and Care the health-seeded one; Total = Value + Care/CareScale.
type Score struct {
	Type  ScoreType
	Value int64
	Care  int64
	Total int64
}

// Engine scores characters against injected tables. It holds no mutable
// state; Calc may be called concurrently.
type Engine struct {
	table *Table
	costs *ActivationCosts
}

// New returns an engine over the given coefficient and activation-cost tables.
func New(table *Table, costs *ActivationCosts) *Engine {
	return &Engine{table: table, costs: costs}
}

type calcOptions struct {
	sink TraceSink
}

// CalcOption adjusts a single Calc call.
type CalcOption func(*calcOptions)

// WithTrace routes every applied step of this call to sink.
func WithTrace(sink TraceSink) CalcOption {
	return func(o *calcOptions) { o.sink = sink }
}

// accumulator names the factor tags that differ between the damage/buff
// track and the care track.
type accumulator struct {
	name          string
	seedFactor    string
	ability       string
	elixirGrade   string
	grinding      string
	grindingAddon string
	braceletAddon string
}

var (
	attackTrack = accumulator{
		name:          "attack",
		seedFactor:    FactorBaseAttackPoint,
		ability:       FactorAbilityAttack,
		elixirGrade:   FactorElixirGradeAttack,
		grinding:      FactorAccessoryGrindingAttack,
		grindingAddon: FactorAccessoryGrindingAddonAttack,
		braceletAddon: FactorBraceletAddonAttack,
	}
	careTrack = accumulator{
		name:          "care",
		seedFactor:    FactorBaseHealthPoint,
		ability:       FactorAbilityDefense,
		elixirGrade:   FactorElixirGradeDefense,
		grinding:      FactorAccessoryGrindingDefense,
		grindingAddon: FactorAccessoryGrindingAddonDefense,
		braceletAddon: FactorBraceletAddonDefense,
	}
)

// Calc runs the pipeline for one character. It never modifies ch.
func (e *Engine) Calc(ch *armory.Character, st ScoreType, opts ...CalcOption) (Score, error) {
	var o calcOptions
	for _, opt := range opts {
		opt(&o)
	}
	c, ok := e.table.Section(st)
	if !ok {
		return Score{}, fmt.Errorf("coefficient table has no %q section", st)
	}

	// Invested points are validated before anything is computed.
	spent, err := e.arkPassivePoints(ch)
	if err != nil {
		return Score{}, err
	}

	score := Score{Type: st}
	if score.Value, err = e.run(ch, c, attackTrack, spent, o.sink); err != nil {
		return Score{}, err
	}
	if st == ScoreDefense {
		if score.Care, err = e.run(ch, c, careTrack, spent, o.sink); err != nil {
			return Score{}, err
		}
	}
	score.Total = score.Value + score.Care/CareScale
	return score, nil
}

type pass struct {
	score int64
	acc   string
	sink  TraceSink
	err   error // first matcher failure; later steps are skipped
}

func (p *pass) apply(factor string, f Factor, prec int, label string) {
	if p.err != nil || f.IsZero() {
		return
	}
	before := p.score
	p.score = applyFactor(p.score, f, prec)
	if p.sink != nil {
		p.sink.Step(TraceStep{
			Accumulator: p.acc,
			Factor:      factor,
			Label:       label,
			Coefficient: f,
			Precision:   prec,
			Before:      before,
			After:       p.score,
		})
	}
}

func (e *Engine) run(ch *armory.Character, c *Coefficients, acc accumulator, spent map[armory.Branch]int, sink TraceSink) (int64, error) {
	seed, _ := c.Scalar(acc.seedFactor)
	base := ch.BaseAttackPoint
	if acc.seedFactor == FactorBaseHealthPoint {
		base = ch.BaseHealthPoint
	}
	p := &pass{score: seed * int64(base), acc: acc.name, sink: sink}

	v, _ := c.Lookup(FactorLevel, strconv.Itoa(ch.Level))
	p.apply(FactorLevel, coeff(v), precision, "")

	if w := ch.Weapon(); w != nil {
		v, _ := c.Lookup(FactorWeaponQuality, strconv.Itoa(w.Quality))
		p.apply(FactorWeaponQuality, coeff(v), precision, "")
	}

	for _, b := range armory.Branches {
		tag := branchFactor(b)
		v, _ := c.Scalar(tag)
		p.apply(tag, coeff(v*int64(spent[b])), precision, "")
	}

	v, _ = c.Scalar(FactorKarmaEvolutionRank)
	p.apply(FactorKarmaEvolutionRank, coeff(v*int64(ch.Karma[armory.BranchEvolution].Rank)), precision, "")
	v, _ = c.Scalar(FactorKarmaLeapLevel)
	p.apply(FactorKarmaLeapLevel, coeff(v*int64(ch.Karma[armory.BranchLeap].Level)), precision, "")

	for _, eng := range ch.Engravings {
		v, _ := c.Lookup2(acc.ability, eng.Name, strconv.Itoa(eng.TotalLevel()))
		p.apply(acc.ability, coeff(v), precision, eng.Name)
	}

	if set := ch.ElixirSet(); set != nil {
		v, _ := c.Lookup(FactorElixirSet, set.Key())
		p.apply(FactorElixirSet, coeff(v), precision, set.Key())
	}

	for _, eq := range ch.Equipments {
		if eq.Category() != armory.CategoryArmor {
			continue
		}
		for _, effect := range eq.ElixirEffects {
			p.apply(acc.elixirGrade, c.MatchExact(acc.elixirGrade, effect), precision, eq.Name+" - "+effect)
		}
	}

	for _, eq := range ch.Equipments {
		if eq.Category() != armory.CategoryAccessory {
			continue
		}
		for _, effect := range eq.GrindingEffects {
			p.matchTwoTier(c, acc.grinding, acc.grindingAddon, eq.Name, effect)
		}
	}

	for _, eq := range ch.Equipments {
		if eq.Category() != armory.CategoryBracelet {
			continue
		}
		for _, effect := range eq.BraceletEffects {
			p.matchTwoTier(c, FactorBraceletStatType, acc.braceletAddon, eq.Name, effect)
		}
	}

	for _, g := range ch.Gems {
		v, _ := c.Lookup2(FactorGem, strconv.Itoa(g.Tier()), strconv.Itoa(g.Level))
		p.apply(FactorGem, coeff(v), precision, g.Name.String()+" "+strconv.Itoa(g.Level))
	}

	grades := 0
	for _, eq := range ch.Equipments {
		cat := eq.Category()
		if cat != armory.CategoryArmor && cat != armory.CategoryWeapon {
			continue
		}
		if eq.Transcendence != nil && eq.Transcendence.Level != 0 {
			grades += eq.Transcendence.Grade
		}
	}
	v, _ = c.Scalar(FactorTranscendenceArmor)
	p.apply(FactorTranscendenceArmor, coeff(v*int64(grades)), precision, "")

	for _, eq := range ch.Equipments {
		if eq.Transcendence == nil {
			continue
		}
		p.transcendenceAdditional(c, eq)
	}

	var stat int64
	for _, t := range armory.StatTypes {
		if v, ok := c.Lookup(FactorBattleStat, t.String()); ok {
			stat += int64(ch.BattleStat[t]) * v
		}
	}
	p.apply(FactorBattleStat, coeff(stat), precision, "")

	for _, name := range ch.CardSets {
		v, _ := c.Lookup(FactorCardSet, name)
		p.apply(FactorCardSet, coeff(v), precision, name)
	}

	v, _ = c.Lookup(FactorPetSpecialty, PetSpecialtyKey)
	p.apply(FactorPetSpecialty, coeff(v), precision, PetSpecialtyKey)

	if p.err != nil {
		return 0, p.err
	}
	return p.score, nil
}

// matchTwoTier tries the rolled-magnitude patterns first and falls back to
// the exact addon table.
func (p *pass) matchTwoTier(c *Coefficients, regexTag, exactTag, item, effect string) {
	if p.err != nil {
		return
	}
	label := item + " - " + effect
	f, _, err := c.MatchRegex(regexTag, effect)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", item, err)
		return
	}
	if !f.IsZero() {
		p.apply(regexTag, f, precisionRoll, label)
		return
	}
	p.apply(exactTag, c.MatchExact(exactTag, effect), precision, label)
}

// transcendenceAdditional applies the single best threshold an item meets.
// The weapon is the exception: every threshold it meets stacks, applied in
// ascending threshold order.
func (p *pass) transcendenceAdditional(c *Coefficients, eq armory.Equipment) {
	type threshold struct {
		grade int
		value int64
	}
	var met []threshold
	for _, e := range c.thresholds(FactorTranscendenceAdditional, eq.Slot.String()) {
		g, err := strconv.Atoi(e.key)
		if err != nil || eq.Transcendence.Grade < g {
			continue
		}
		met = append(met, threshold{grade: g, value: e.value})
	}
	label := eq.Name + " " + strconv.Itoa(eq.Transcendence.Grade)

	if eq.Slot == armory.SlotWeapon {
		sort.SliceStable(met, func(i, j int) bool { return met[i].grade < met[j].grade })
		for _, t := range met {
			p.apply(FactorTranscendenceAdditional, coeff(t.value), precision, label)
		}
		return
	}
	var best int64
	for _, t := range met {
		if t.value > best {
			best = t.value
		}
	}
	p.apply(FactorTranscendenceAdditional, coeff(best), precision, label)
}

// arkPassivePoints sums cost × level per branch. Evolution tier-1 nodes are
// stat investments and do not count.
func (e *Engine) arkPassivePoints(ch *armory.Character) (map[armory.Branch]int, error) {
	spent := make(map[armory.Branch]int, len(armory.Branches))
	for _, b := range armory.Branches {
		total := 0
		for _, node := range ch.ArkPassiveNodes[b] {
			if b == armory.BranchEvolution && node.Tier == 1 {
				continue
			}
			cost, ok := e.costs.Cost(b, ch.ClassName, node.Name)
			if !ok {
				return nil, &armory.SchemaError{
					Path:   "ArkPassive.json " + b.String() + activationScope(b, ch.ClassName) + "." + node.Name,
					Reason: "no activation cost for node",
				}
			}
			total += cost * node.Level
		}
		if total > ch.ArkPassivePoints[b] {
			return nil, &PointBudgetError{Branch: b, Spent: total, Available: ch.ArkPassivePoints[b]}
		}
		spent[b] = total
	}
	return spent, nil
}

func activationScope(b armory.Branch, class string) string {
	if b == armory.BranchEvolution {
		return ""
	}
	return "." + class
}

func branchFactor(b armory.Branch) string {
	switch b {
	case armory.BranchEvolution:
		return FactorArkPassiveEvolution
	case armory.BranchEnlightenment:
		return FactorArkPassiveEnlightenment
	}
	return FactorArkPassiveLeap
}

// applyFactor returns trunc(score × (10^prec·Den + Num) / (10^prec·Den)).
func applyFactor(score int64, f Factor, prec int) int64 {
	if f.IsZero() {
		return score
	}
	base := pow10(prec)
	base.Mul(base, big.NewInt(f.den()))
	n := new(big.Int).Add(base, big.NewInt(f.Num))
	n.Mul(n, big.NewInt(score))
	return n.Quo(n, base).Int64()
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
