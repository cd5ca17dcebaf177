// Package armory turns an armories/characters snapshot into a Character.
package armory

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	statAttack = "공격력"
	statHealth = "최대 생명력"
)

// Character is the structured model of one snapshot. Parse is its only
// producer; consumers read it and never modify it.
type Character struct {
	Name                string
	ClassName           string
	Level               int
	BaseAttackPoint     int
	BaseHealthPoint     int
	BattleStat          map[StatType]int
	Engravings          []Engraving
	Equipments          []Equipment
	Gems                []Gem
	ArkPassiveNodes     map[Branch][]ArkPassiveNode
	Karma               map[Branch]Karma
	ArkPassivePoints    map[Branch]int
	CardSets            []string
	ReportedCombatPower string // comparison only
}

// Weapon returns the equipped weapon, or nil.
func (c *Character) Weapon() *Equipment {
	for i := range c.Equipments {
		if c.Equipments[i].Slot == SlotWeapon {
			return &c.Equipments[i]
		}
	}
	return nil
}

// ElixirSet returns the first elixir set found on the armor pieces.
func (c *Character) ElixirSet() *ElixirSet {
	for i := range c.Equipments {
		if c.Equipments[i].ElixirSet != nil {
			return c.Equipments[i].ElixirSet
		}
	}
	return nil
}

// ParseFile reads and parses a snapshot file.
func ParseFile(path string) (*Character, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse builds a Character from a snapshot document. Any schema or grammar
// failure aborts the whole parse.
func Parse(data []byte) (*Character, error) {
	if !gjson.ValidBytes(data) {
		return nil, &SchemaError{Path: "$", Reason: "not a JSON document"}
	}
	doc := gjson.ParseBytes(data)

	c := &Character{
		BattleStat:       make(map[StatType]int, len(StatTypes)),
		ArkPassiveNodes:  make(map[Branch][]ArkPassiveNode, len(Branches)),
		Karma:            make(map[Branch]Karma, len(Branches)),
		ArkPassivePoints: make(map[Branch]int, len(Branches)),
	}
	for _, b := range Branches {
		c.ArkPassiveNodes[b] = []ArkPassiveNode{}
	}

	steps := []func(*Character, gjson.Result) error{
		parseProfile,
		parseEquipments,
		parseEngravings,
		parseGems,
		parseArkPassive,
		parseCards,
	}
	for _, step := range steps {
		if err := step(c, doc); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func parseProfile(c *Character, doc gjson.Result) error {
	prof := doc.Get("ArmoryProfile")
	if !present(prof) {
		return missing("ArmoryProfile")
	}
	stats := prof.Get("Stats")
	if !stats.IsArray() {
		return missing("ArmoryProfile.Stats")
	}
	level := prof.Get("CharacterLevel")
	if !present(level) {
		return missing("ArmoryProfile.CharacterLevel")
	}
	c.Level = int(level.Int())
	c.ClassName = prof.Get("CharacterClassName").String()
	c.Name = prof.Get("CharacterName").String()
	c.ReportedCombatPower = prof.Get("CombatPower").String()

	foundAttack, foundHealth := false, false
	var err error
	stats.ForEach(func(_, s gjson.Result) bool {
		typ := s.Get("Type").String()
		switch typ {
		case statAttack:
			each(s.Get("Tooltip"), func(_, line gjson.Result) bool {
				text := CleanText(line.String())
				if !strings.Contains(text, BaseAttackSentence) {
					return true
				}
				c.BaseAttackPoint, err = ParseBaseAttackPoint(text)
				foundAttack = err == nil
				return false
			})
		case statHealth:
			c.BaseHealthPoint, err = intField(s.Get("Value"), "ArmoryProfile.Stats[최대 생명력].Value")
			foundHealth = err == nil
		default:
			if st := ParseStatType(typ); st != StatNone {
				c.BattleStat[st], err = intField(s.Get("Value"), "ArmoryProfile.Stats["+typ+"].Value")
			}
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	if !foundAttack {
		return &SchemaError{Path: "ArmoryProfile.Stats[공격력].Tooltip", Reason: "base attack sentence not found"}
	}
	if !foundHealth {
		return missing("ArmoryProfile.Stats[최대 생명력]")
	}
	return nil
}

func parseEquipments(c *Character, doc gjson.Result) error {
	var err error
	each(doc.Get("ArmoryEquipment"), func(_, item gjson.Result) bool {
		typ := item.Get("Type").String()
		slot := ParseSlot(typ)
		if slot == SlotNone {
			return true
		}
		name := item.Get("Name").String()
		var eq Equipment
		eq, err = ParseEquipment(name, slot, item.Get("Tooltip").String())
		if err != nil {
			err = fmt.Errorf("ArmoryEquipment[%s %s]: %w", typ, name, err)
			return false
		}
		c.Equipments = append(c.Equipments, eq)
		return true
	})
	return err
}

func parseEngravings(c *Character, doc gjson.Result) error {
	var err error
	each(doc.Get("ArmoryEngraving.ArkPassiveEffects"), func(_, e gjson.Result) bool {
		grade := e.Get("Grade").String()
		g := ParseGrade(grade)
		if g == GradeNone {
			err = mismatch(TemplateEngraving, grade)
			return false
		}
		eng := Engraving{
			Name:              e.Get("Name").String(),
			AbilityStoneLevel: int(e.Get("AbilityStoneLevel").Int()), // null reads as 0
			Grade:             g,
			Level:             int(e.Get("Level").Int()),
		}
		// Negative levels would push TotalLevel below the table's floor of 5.
		path := "ArmoryEngraving.ArkPassiveEffects[" + eng.Name + "]"
		switch {
		case eng.Level < 0:
			err = &SchemaError{Path: path + ".Level", Reason: "negative level " + strconv.Itoa(eng.Level)}
		case eng.AbilityStoneLevel < 0:
			err = &SchemaError{Path: path + ".AbilityStoneLevel", Reason: "negative level " + strconv.Itoa(eng.AbilityStoneLevel)}
		}
		if err != nil {
			return false
		}
		c.Engravings = append(c.Engravings, eng)
		return true
	})
	return err
}

func parseGems(c *Character, doc gjson.Result) error {
	var err error
	each(doc.Get("ArmoryGem.Gems"), func(_, g gjson.Result) bool {
		var gem Gem
		gem, err = ParseGemName(CleanText(g.Get("Name").String()))
		if err != nil {
			return false
		}
		c.Gems = append(c.Gems, gem)
		return true
	})
	return err
}

func parseArkPassive(c *Character, doc gjson.Result) error {
	points := doc.Get("ArkPassive.Points")
	for _, b := range Branches {
		var entry gjson.Result
		points.ForEach(func(_, p gjson.Result) bool {
			if p.Get("Name").String() == b.String() {
				entry = p
				return false
			}
			return true
		})
		if !entry.Exists() {
			return missing("ArkPassive.Points[" + b.String() + "]")
		}
		rank, level, err := ParseKarma(CleanText(entry.Get("Description").String()))
		if err != nil {
			return err
		}
		c.Karma[b] = Karma{Rank: rank, Level: level}
		c.ArkPassivePoints[b] = int(entry.Get("Value").Int())
	}

	var err error
	each(doc.Get("ArkPassive.Effects"), func(_, e gjson.Result) bool {
		group := e.Get("Name").String()
		b := ParseBranch(group)
		if b == BranchNone {
			err = &SchemaError{Path: "ArkPassive.Effects[].Name", Reason: fmt.Sprintf("unknown branch %q", group)}
			return false
		}
		desc := e.Get("Description").String()
		var (
			tier, level int
			name        string
		)
		tier, name, level, err = ParseArkPassiveNode(CleanText(desc))
		if err != nil {
			return false
		}
		c.ArkPassiveNodes[b] = append(c.ArkPassiveNodes[b], ArkPassiveNode{
			Name:        name,
			Tier:        tier,
			Level:       level,
			Description: desc,
		})
		return true
	})
	return err
}

// parseCards keeps the last item of each effect group: only the deepest
// unlocked tier of a set counts.
func parseCards(c *Character, doc gjson.Result) error {
	each(doc.Get("ArmoryCard.Effects"), func(_, e gjson.Result) bool {
		items := e.Get("Items").Array()
		if len(items) == 0 {
			return true
		}
		if name := CleanText(items[len(items)-1].Get("Name").String()); name != "" {
			c.CardSets = append(c.CardSets, name)
		}
		return true
	})
	return nil
}

// each iterates an array or object. gjson hands a null or scalar to the
// iterator as a single value; here those yield nothing.
func each(v gjson.Result, fn func(key, value gjson.Result) bool) {
	if v.IsArray() || v.IsObject() {
		v.ForEach(fn)
	}
}

func present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

// intField reads an integer that the API may send as a number or as a
// comma-grouped string.
func intField(v gjson.Result, path string) (int, error) {
	if !present(v) {
		return 0, missing(path)
	}
	if v.Type == gjson.Number {
		return int(v.Int()), nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(v.String()), ",", ""))
	if err != nil {
		return 0, &SchemaError{Path: path, Reason: fmt.Sprintf("not an integer: %q", v.String())}
	}
	return n, nil
}
