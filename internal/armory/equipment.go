package armory

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Tooltip box types.
const (
	boxItemTitle   = "ItemTitle"
	boxItemPart    = "ItemPartBox"
	boxIndentGroup = "IndentStringGroup"
)

// ItemPartBox labels.
const (
	labelBase       = "기본 효과"
	labelGrinding   = "연마 효과"
	labelBracelet   = "팔찌 효과"
	labelAdditional = "추가 효과"
)

// IndentStringGroup prefixes.
const (
	prefixTranscendence = "[초월]"
	prefixElixir        = "엘릭서"
	prefixElixirSet     = "연성 추가 효과"
)

var iconRe = regexp.MustCompile(`(?i)<img`)

// ParseEquipment decodes one item's tooltip document. The tooltip is itself a
// JSON object of "Element_NNN" boxes, walked in document order.
func ParseEquipment(name string, slot Slot, tooltip string) (Equipment, error) {
	eq := Equipment{Name: name, Slot: slot, Quality: -1}
	if slot == SlotNone {
		return eq, &SchemaError{Path: "Type", Reason: "unmodeled equipment slot"}
	}
	if !gjson.Valid(tooltip) {
		return eq, &SchemaError{Path: "Tooltip", Reason: "tooltip is not a JSON document"}
	}

	var err error
	gjson.Parse(tooltip).ForEach(func(_, box gjson.Result) bool {
		switch box.Get("type").String() {
		case boxItemTitle:
			if q := box.Get("value.qualityValue"); q.Exists() {
				eq.Quality = int(q.Int())
			}
		case boxItemPart:
			parseItemPart(&eq, box.Get("value"))
		case boxIndentGroup:
			err = parseIndentGroup(&eq, box.Get("value"))
		}
		return err == nil
	})
	if err != nil {
		return Equipment{}, err
	}
	return eq, nil
}

func parseItemPart(eq *Equipment, v gjson.Result) {
	label := CleanText(v.Get("Element_000").String())
	blob := v.Get("Element_001").String()
	switch label {
	case labelBase:
		eq.BaseEffects = append(eq.BaseEffects, SplitLines(blob)...)
	case labelGrinding:
		eq.GrindingEffects = append(eq.GrindingEffects, SplitEffects(blob)...)
	case labelBracelet:
		eq.BraceletEffects = append(eq.BraceletEffects, SplitEffects(blob)...)
	case labelAdditional:
		eq.AdditionalEffects = append(eq.AdditionalEffects, SplitEffects(blob)...)
	}
}

func parseIndentGroup(eq *Equipment, v gjson.Result) error {
	var err error
	v.ForEach(func(_, group gjson.Result) bool {
		top := group.Get("topStr").String()
		var contents []string
		each(group.Get("contentStr"), func(_, c gjson.Result) bool {
			contents = append(contents, c.Get("contentStr").String())
			return true
		})
		err = parseIndentEntry(eq, top, contents)
		return err == nil
	})
	return err
}

func parseIndentEntry(eq *Equipment, top string, contents []string) error {
	head := firstLine(top)
	switch {
	case strings.HasPrefix(head, prefixTranscendence):
		t, err := ParseTranscendence(head)
		if err != nil {
			return err
		}
		eq.Transcendence = &t

	case strings.HasPrefix(head, prefixElixirSet):
		text := CleanText(top)
		if text == prefixElixirSet && len(contents) > 0 {
			text += " " + firstLine(contents[0])
		}
		return setElixirSet(eq, text)

	case strings.HasPrefix(head, prefixElixir):
		for _, c := range contents {
			line := firstLine(c)
			switch {
			case strings.HasPrefix(line, "["):
				_, effect, level, err := ParseElixirOption(line)
				if err != nil {
					return err
				}
				eq.ElixirEffects = append(eq.ElixirEffects, effect+" Lv."+strconv.Itoa(level))
			case strings.HasPrefix(line, prefixElixirSet):
				if err := setElixirSet(eq, CleanText(c)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func setElixirSet(eq *Equipment, text string) error {
	set, err := ParseElixirSet(text)
	if err != nil {
		return err
	}
	if eq.ElixirSet == nil {
		eq.ElixirSet = &set
	}
	return nil
}

// firstLine cleans the text before the first line break.
func firstLine(s string) string {
	return CleanText(breakRe.Split(s, 2)[0])
}

// SplitLines splits a blob on line-break markers.
func SplitLines(blob string) []string {
	return cleanFragments(breakRe.Split(blob, -1))
}

// SplitEffects splits a blob on the boundary before each inline icon. Some
// effects wrap over several <BR> lines, so the icon is the only separator.
func SplitEffects(blob string) []string {
	var parts []string
	start := 0
	for _, loc := range iconRe.FindAllStringIndex(blob, -1) {
		parts = append(parts, blob[start:loc[0]])
		start = loc[0]
	}
	parts = append(parts, blob[start:])
	return cleanFragments(parts)
}

func cleanFragments(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := CleanText(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
