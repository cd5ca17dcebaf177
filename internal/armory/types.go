package armory

import "strconv"

// Category groups equipment slots the way the score pipeline selects them.
type Category int

const (
	CategoryNone Category = iota
	CategoryWeapon
	CategoryArmor
	CategoryAccessory
	CategoryBracelet
)

type Slot int

const (
	SlotNone     Slot = iota
	SlotWeapon        // 무기
	SlotHelmet        // 투구
	SlotChest         // 상의
	SlotPants         // 하의
	SlotGloves        // 장갑
	SlotShoulder      // 어깨
	SlotNecklace      // 목걸이
	SlotEarring       // 귀걸이
	SlotRing          // 반지
	SlotBracelet      // 팔찌
)

var slotNames = [...]string{
	SlotNone:     "",
	SlotWeapon:   "무기",
	SlotHelmet:   "투구",
	SlotChest:    "상의",
	SlotPants:    "하의",
	SlotGloves:   "장갑",
	SlotShoulder: "어깨",
	SlotNecklace: "목걸이",
	SlotEarring:  "귀걸이",
	SlotRing:     "반지",
	SlotBracelet: "팔찌",
}

// String returns the slot's ArmoryEquipment.Type name, which is also the key
// used by the transcendence tables.
func (s Slot) String() string {
	if s < 0 || int(s) >= len(slotNames) {
		return ""
	}
	return slotNames[s]
}

func (s Slot) Category() Category {
	switch s {
	case SlotWeapon:
		return CategoryWeapon
	case SlotHelmet, SlotChest, SlotPants, SlotGloves, SlotShoulder:
		return CategoryArmor
	case SlotNecklace, SlotEarring, SlotRing:
		return CategoryAccessory
	case SlotBracelet:
		return CategoryBracelet
	}
	return CategoryNone
}

// ParseSlot maps an ArmoryEquipment.Type value to a Slot. Unmodeled types
// (ability stone, compass, charm) map to SlotNone.
func ParseSlot(s string) Slot {
	switch s {
	case "무기":
		return SlotWeapon
	case "투구":
		return SlotHelmet
	case "상의":
		return SlotChest
	case "하의":
		return SlotPants
	case "장갑":
		return SlotGloves
	case "어깨":
		return SlotShoulder
	case "목걸이":
		return SlotNecklace
	case "귀걸이":
		return SlotEarring
	case "반지":
		return SlotRing
	case "팔찌":
		return SlotBracelet
	}
	return SlotNone
}

type Grade int

const (
	GradeNone Grade = iota
	GradeLegendary
	GradeRelic
)

func (g Grade) String() string {
	switch g {
	case GradeLegendary:
		return "전설"
	case GradeRelic:
		return "유물"
	}
	return ""
}

func ParseGrade(s string) Grade {
	switch s {
	case "전설":
		return GradeLegendary
	case "유물":
		return GradeRelic
	}
	return GradeNone
}

// Branch is one of the three ark-passive trees.
type Branch int

const (
	BranchNone Branch = iota
	BranchEvolution
	BranchEnlightenment
	BranchLeap
)

// Branches lists the ark-passive branches in pipeline order.
var Branches = []Branch{BranchEvolution, BranchEnlightenment, BranchLeap}

func (b Branch) String() string {
	switch b {
	case BranchEvolution:
		return "진화"
	case BranchEnlightenment:
		return "깨달음"
	case BranchLeap:
		return "도약"
	}
	return ""
}

func ParseBranch(s string) Branch {
	switch s {
	case "진화":
		return BranchEvolution
	case "깨달음":
		return BranchEnlightenment
	case "도약":
		return BranchLeap
	}
	return BranchNone
}

type StatType int

const (
	StatNone StatType = iota
	StatCrit           // 치명
	StatSpecialization // 특화
	StatDomination     // 제압
	StatSwiftness      // 신속
	StatEndurance      // 인내
	StatExpertise      // 숙련
)

// StatTypes lists the six battle stats in table order.
var StatTypes = []StatType{
	StatCrit, StatSpecialization, StatDomination, StatSwiftness, StatEndurance, StatExpertise,
}

func (s StatType) String() string {
	switch s {
	case StatCrit:
		return "치명"
	case StatSpecialization:
		return "특화"
	case StatDomination:
		return "제압"
	case StatSwiftness:
		return "신속"
	case StatEndurance:
		return "인내"
	case StatExpertise:
		return "숙련"
	}
	return ""
}

func ParseStatType(s string) StatType {
	switch s {
	case "치명":
		return StatCrit
	case "특화":
		return StatSpecialization
	case "제압":
		return StatDomination
	case "신속":
		return StatSwiftness
	case "인내":
		return StatEndurance
	case "숙련":
		return StatExpertise
	}
	return StatNone
}

type GemName int

const (
	GemNone GemName = iota
	GemAnnihilation // 멸화
	GemCrimsonFlame // 홍염
	GemDoomfire     // 겁화
	GemBlazing      // 작열
	GemRadiance     // 광휘
)

func (g GemName) String() string {
	switch g {
	case GemAnnihilation:
		return "멸화"
	case GemCrimsonFlame:
		return "홍염"
	case GemDoomfire:
		return "겁화"
	case GemBlazing:
		return "작열"
	case GemRadiance:
		return "광휘"
	}
	return ""
}

func parseGemFamily(s string) GemName {
	switch s {
	case "멸화":
		return GemAnnihilation
	case "홍염":
		return GemCrimsonFlame
	case "겁화":
		return GemDoomfire
	case "작열":
		return GemBlazing
	case "광휘":
		return GemRadiance
	}
	return GemNone
}

// Tier is 4 for the tier-4 gem families and 3 otherwise.
func (g GemName) Tier() int {
	switch g {
	case GemDoomfire, GemBlazing, GemRadiance:
		return 4
	}
	return 3
}

type Engraving struct {
	Name              string
	AbilityStoneLevel int
	Grade             Grade
	Level             int
}

// TotalLevel is stone×20 + 1 + grade base (4 legendary, 8 relic) + level.
func (e Engraving) TotalLevel() int {
	total := 1 + 20*e.AbilityStoneLevel + e.Level
	switch e.Grade {
	case GradeLegendary:
		total += 4
	case GradeRelic:
		total += 8
	}
	return total
}

type Gem struct {
	Name  GemName
	Level int
}

func (g Gem) Tier() int { return g.Name.Tier() }

type ArkPassiveNode struct {
	Name        string
	Tier        int
	Level       int
	Description string
}

type Karma struct {
	Rank  int
	Level int
}

type Transcendence struct {
	Level int
	Grade int
}

type ElixirSet struct {
	Name  string
	Stage int
}

// Key is the "name N단계" form used by the elixir_set table.
func (s ElixirSet) Key() string {
	return s.Name + " " + strconv.Itoa(s.Stage) + "단계"
}

type Equipment struct {
	Name              string
	Slot              Slot
	Quality           int
	BaseEffects       []string
	AdditionalEffects []string
	GrindingEffects   []string
	BraceletEffects   []string
	Transcendence     *Transcendence
	ElixirEffects     []string
	ElixirSet         *ElixirSet
}

func (e Equipment) Category() Category { return e.Slot.Category() }
