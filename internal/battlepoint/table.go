package battlepoint

import (
	"fmt"
	"os"
	"regexp"

	"github.com/tidwall/gjson"
)

type ScoreType string

const (
	ScoreAttack  ScoreType = "attack"
	ScoreDefense ScoreType = "defense"
)

func ParseScoreType(s string) (ScoreType, bool) {
	switch ScoreType(s) {
	case ScoreAttack:
		return ScoreAttack, true
	case ScoreDefense:
		return ScoreDefense, true
	}
	return "", false
}

// Factor tags, the battlepointtype names of the game's enum table.
const (
	FactorBaseAttackPoint               = "base_attack_point"
	FactorBaseHealthPoint               = "base_health_point"
	FactorLevel                         = "level"
	FactorWeaponQuality                 = "weapon_quality"
	FactorArkPassiveEvolution           = "arkpassive_evolution"
	FactorArkPassiveEnlightenment       = "arkpassive_enlightment"
	FactorArkPassiveLeap                = "arkpassive_leap"
	FactorKarmaEvolutionRank            = "karma_evolutionrank"
	FactorKarmaLeapLevel                = "karma_leaplevel"
	FactorAbilityAttack                 = "ability_attack"
	FactorAbilityDefense                = "ability_defense"
	FactorElixirSet                     = "elixir_set"
	FactorElixirGradeAttack             = "elixir_grade_attack"
	FactorElixirGradeDefense            = "elixir_grade_defense"
	FactorAccessoryGrindingAttack       = "accessory_grinding_attack"
	FactorAccessoryGrindingDefense      = "accessory_grinding_defense"
	FactorAccessoryGrindingAddonAttack  = "accessory_grinding_addontype_attack"
	FactorAccessoryGrindingAddonDefense = "accessory_grinding_addontype_defense"
	FactorBraceletStatType              = "bracelet_stattype"
	FactorBraceletAddonAttack           = "bracelet_addontype_attack"
	FactorBraceletAddonDefense          = "bracelet_addontype_defense"
	FactorGem                           = "gem"
	FactorEstherWeapon                  = "esther_weapon"
	FactorTranscendenceArmor            = "transcendence_armor"
	FactorTranscendenceAdditional       = "transcendence_additional"
	FactorBattleStat                    = "battlestat"
	FactorCardSet                       = "card_set"
	FactorPetSpecialty                  = "pet_specialty"
)

// regexFactors hold pattern keys with one capture group for the magnitude.
var regexFactors = []string{
	FactorAccessoryGrindingAttack,
	FactorAccessoryGrindingDefense,
	FactorBraceletStatType,
}

type entry struct {
	key   string
	value int64
}

// mapping is a one-level table that keeps document order.
type mapping struct {
	index   map[string]int64
	entries []entry
}

func (m *mapping) add(key string, v int64) {
	if _, dup := m.index[key]; !dup {
		m.entries = append(m.entries, entry{key: key, value: v})
	}
	m.index[key] = v
}

type pattern struct {
	re    *regexp.Regexp
	key   string
	value int64
}

// Coefficients is one score type's section of the table.
type Coefficients struct {
	scalars  map[string]int64
	flat     map[string]*mapping
	nested   map[string]map[string]*mapping
	outer    map[string][]string // nested outer keys in document order
	patterns map[string][]pattern
}

// Table is the read-only coefficient table, one Coefficients per score type.
type Table struct {
	sections map[ScoreType]*Coefficients
}

func (t *Table) Section(st ScoreType) (*Coefficients, bool) {
	c, ok := t.sections[st]
	return c, ok
}

// LoadTableFile reads a BattlePoint.json document.
func LoadTableFile(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	t, err := LoadTable(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadTable parses a coefficient table. Each factor is a scalar, a mapping or
// a mapping of mappings depending on how many of its source values are used.
func LoadTable(data []byte) (*Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("coefficient table: not a JSON document")
	}
	t := &Table{sections: make(map[ScoreType]*Coefficients)}
	var err error
	gjson.ParseBytes(data).ForEach(func(k, v gjson.Result) bool {
		st, ok := ParseScoreType(k.String())
		if !ok {
			return true
		}
		var c *Coefficients
		c, err = parseSection(v)
		if err != nil {
			err = fmt.Errorf("coefficient table: %s.%w", st, err)
			return false
		}
		t.sections[st] = c
		return true
	})
	if err != nil {
		return nil, err
	}
	if _, ok := t.sections[ScoreAttack]; !ok {
		return nil, fmt.Errorf("coefficient table: %s section missing", ScoreAttack)
	}
	for st, c := range t.sections {
		if _, ok := c.Scalar(FactorBaseAttackPoint); !ok {
			return nil, fmt.Errorf("coefficient table: %s.%s missing", st, FactorBaseAttackPoint)
		}
	}
	return t, nil
}

func parseSection(v gjson.Result) (*Coefficients, error) {
	c := &Coefficients{
		scalars:  make(map[string]int64),
		flat:     make(map[string]*mapping),
		nested:   make(map[string]map[string]*mapping),
		outer:    make(map[string][]string),
		patterns: make(map[string][]pattern),
	}
	var err error
	v.ForEach(func(k, val gjson.Result) bool {
		tag := k.String()
		switch {
		case val.Type == gjson.Number:
			c.scalars[tag] = val.Int()
		case val.IsObject() && isNested(val):
			inner := make(map[string]*mapping)
			val.ForEach(func(k1, v1 gjson.Result) bool {
				if !v1.IsObject() {
					err = fmt.Errorf("%s.%s: mixed nesting", tag, k1.String())
					return false
				}
				m := &mapping{index: make(map[string]int64)}
				if err = fillMapping(m, v1); err != nil {
					err = fmt.Errorf("%s.%s%w", tag, k1.String(), err)
					return false
				}
				inner[k1.String()] = m
				c.outer[tag] = append(c.outer[tag], k1.String())
				return true
			})
			c.nested[tag] = inner
		case val.IsObject():
			m := &mapping{index: make(map[string]int64)}
			if err = fillMapping(m, val); err != nil {
				err = fmt.Errorf("%s%w", tag, err)
			}
			c.flat[tag] = m
		default:
			err = fmt.Errorf("%s: unsupported value %s", tag, val.Raw)
		}
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	for _, tag := range regexFactors {
		m, ok := c.flat[tag]
		if !ok {
			continue
		}
		for _, e := range m.entries {
			re, cerr := regexp.Compile(`^(?:` + e.key + `)`)
			if cerr != nil {
				return nil, fmt.Errorf("%s: pattern %q: %w", tag, e.key, cerr)
			}
			// Keys without a capture group can never yield a magnitude.
			if re.NumSubexp() == 0 {
				continue
			}
			c.patterns[tag] = append(c.patterns[tag], pattern{re: re, key: e.key, value: e.value})
		}
	}
	return c, nil
}

func isNested(v gjson.Result) bool {
	nested := false
	v.ForEach(func(_, child gjson.Result) bool {
		nested = child.IsObject()
		return false
	})
	return nested
}

func fillMapping(m *mapping, v gjson.Result) error {
	var err error
	v.ForEach(func(k, val gjson.Result) bool {
		if val.Type != gjson.Number {
			err = fmt.Errorf(".%s: want number, got %s", k.String(), val.Raw)
			return false
		}
		m.add(k.String(), val.Int())
		return true
	})
	return err
}

// Scalar returns a single-value factor.
func (c *Coefficients) Scalar(tag string) (int64, bool) {
	v, ok := c.scalars[tag]
	return v, ok
}

// Lookup returns a one-level factor entry.
func (c *Coefficients) Lookup(tag, key string) (int64, bool) {
	m, ok := c.flat[tag]
	if !ok {
		return 0, false
	}
	v, ok := m.index[key]
	return v, ok
}

// Lookup2 returns a two-level factor entry.
func (c *Coefficients) Lookup2(tag, key1, key2 string) (int64, bool) {
	m, ok := c.nested[tag][key1]
	if !ok {
		return 0, false
	}
	v, ok := m.index[key2]
	return v, ok
}

// Keys lists the outer keys of a factor in document order.
func (c *Coefficients) Keys(tag string) []string {
	if keys, ok := c.outer[tag]; ok {
		return keys
	}
	m, ok := c.flat[tag]
	if !ok {
		return nil
	}
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.key
	}
	return keys
}

// thresholds returns the inner entries of a two-level factor.
func (c *Coefficients) thresholds(tag, key1 string) []entry {
	m, ok := c.nested[tag][key1]
	if !ok {
		return nil
	}
	return m.entries
}
