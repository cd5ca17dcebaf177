package armory

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Template names reported by GrammarMismatchError.
const (
	TemplateBaseAttack    = "base attack point"
	TemplateArkPassive    = "ark passive node"
	TemplateKarma         = "karma"
	TemplateGem           = "gem name"
	TemplateTranscendence = "transcendence"
	TemplateElixirOption  = "elixir option"
	TemplateElixirSet     = "elixir set"
	TemplateEngraving     = "engraving grade"
)

// BaseAttackSentence marks the stat tooltip line that carries the base
// attack point.
const BaseAttackSentence = "힘, 민첩, 지능과 무기 공격력을 기반으로 증가한 기본 공격력은"

// KarmaLocked is the description of a branch whose karma is not unlocked.
const KarmaLocked = "미개방"

var (
	tagRe   = regexp.MustCompile(`<[^>]*>`)
	breakRe = regexp.MustCompile(`(?i)<br\s*/?>`)

	baseAttackRe    = regexp.MustCompile(`기본 공격력은 ([0-9][0-9,]*)`)
	arkPassiveRe    = regexp.MustCompile(`(\d)티어 ([0-9가-힣A-Za-z :,.'!?·&()\[\]+%-]+?) Lv\.(\d+)$`)
	karmaRe         = regexp.MustCompile(`^(\d+)랭크 (\d+)레벨$`)
	gemRe           = regexp.MustCompile(`^(\d+)레벨 (멸화|홍염|겁화|작열|광휘)의 보석$`)
	transcendenceRe = regexp.MustCompile(`^\[초월\] (\d+)단계 (\d+)$`)
	elixirOptionRe  = regexp.MustCompile(`^\[([^\]]+)\] (.+?) Lv\.(\d)$`)
	elixirSetRe     = regexp.MustCompile(`^연성 추가 효과 (.+?) \(([12])단계\)`)
)

// CleanText turns a tooltip fragment into plain text: line breaks become
// spaces, tags are stripped, entities decoded, whitespace collapsed.
func CleanText(s string) string {
	s = breakRe.ReplaceAllString(s, " ")
	s = tagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// ParseBaseAttackPoint extracts the integer from the base attack sentence.
func ParseBaseAttackPoint(text string) (int, error) {
	if !strings.Contains(text, BaseAttackSentence) {
		return 0, mismatch(TemplateBaseAttack, text)
	}
	m := baseAttackRe.FindStringSubmatch(text)
	if m == nil {
		return 0, mismatch(TemplateBaseAttack, text)
	}
	v, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, mismatch(TemplateBaseAttack, text)
	}
	return v, nil
}

// ParseArkPassiveNode reads "<tier>티어 <name> Lv.<level>". A leading branch
// word ("진화 1티어 ...") is tolerated.
func ParseArkPassiveNode(text string) (tier int, name string, level int, err error) {
	m := arkPassiveRe.FindStringSubmatch(text)
	if m == nil {
		return 0, "", 0, mismatch(TemplateArkPassive, text)
	}
	tier, _ = strconv.Atoi(m[1])
	level, _ = strconv.Atoi(m[3])
	if tier < 1 || tier > 4 || level < 1 {
		return 0, "", 0, mismatch(TemplateArkPassive, text)
	}
	return tier, strings.TrimSpace(m[2]), level, nil
}

// ParseKarma reads "<rank>랭크 <level>레벨". A locked branch reads as (0, 0).
func ParseKarma(text string) (rank, level int, err error) {
	if text == KarmaLocked {
		return 0, 0, nil
	}
	m := karmaRe.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, mismatch(TemplateKarma, text)
	}
	rank, _ = strconv.Atoi(m[1])
	level, _ = strconv.Atoi(m[2])
	return rank, level, nil
}

// ParseGemName reads "<level>레벨 <name>의 보석".
func ParseGemName(text string) (Gem, error) {
	m := gemRe.FindStringSubmatch(text)
	if m == nil {
		return Gem{}, mismatch(TemplateGem, text)
	}
	level, _ := strconv.Atoi(m[1])
	return Gem{Name: parseGemFamily(m[2]), Level: level}, nil
}

// ParseTranscendence reads "[초월] <level>단계 <grade>".
func ParseTranscendence(text string) (Transcendence, error) {
	m := transcendenceRe.FindStringSubmatch(text)
	if m == nil {
		return Transcendence{}, mismatch(TemplateTranscendence, text)
	}
	level, _ := strconv.Atoi(m[1])
	grade, _ := strconv.Atoi(m[2])
	return Transcendence{Level: level, Grade: grade}, nil
}

// ParseElixirOption reads "[<slot>] <effect> Lv.<n>".
func ParseElixirOption(text string) (slot, effect string, level int, err error) {
	m := elixirOptionRe.FindStringSubmatch(text)
	if m == nil {
		return "", "", 0, mismatch(TemplateElixirOption, text)
	}
	level, _ = strconv.Atoi(m[3])
	return m[1], m[2], level, nil
}

// ParseElixirSet reads "연성 추가 효과 <name> (<stage>단계)".
func ParseElixirSet(text string) (ElixirSet, error) {
	m := elixirSetRe.FindStringSubmatch(text)
	if m == nil {
		return ElixirSet{}, mismatch(TemplateElixirSet, text)
	}
	stage, _ := strconv.Atoi(m[2])
	return ElixirSet{Name: m[1], Stage: stage}, nil
}
