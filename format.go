package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// scoreUnit is how many score points make one displayed combat-power point.
const scoreUnit = 1_000_000

// FormatCombatPower renders a score the way the game displays combat power:
// grouped thousands and two truncated decimals, e.g. 1954331234 → "1,954.33".
func FormatCombatPower(score int64) string {
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	whole := strconv.FormatInt(score/scoreUnit, 10)
	frac := (score % scoreUnit) / (scoreUnit / 100)
	return fmt.Sprintf("%s%s.%02d", sign, groupThousands(whole), frac)
}

// ParseCombatPower reads a displayed value like "1,954.33" back into score
// points.
func ParseCombatPower(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty combat power")
	}
	whole, frac, _ := strings.Cut(s, ".")
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("combat power %q: %w", s, err)
	}
	if len(frac) > 6 {
		frac = frac[:6]
	}
	var f int64
	if frac != "" {
		f, err = strconv.ParseInt(frac+strings.Repeat("0", 6-len(frac)), 10, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("combat power %q: bad fraction", s)
		}
	}
	if strings.HasPrefix(whole, "-") {
		return w*scoreUnit - f, nil
	}
	return w*scoreUnit + f, nil
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// printTable writes the human-readable batch summary.
func printTable(w io.Writer, results []CharacterResult) {
	fmt.Fprintf(w, "%-20s %-10s %-8s %14s %12s %12s %10s\n", "Character", "Class", "Type", "Score", "Calculated", "Reported", "Diff")
	fmt.Fprintf(w, "%-20s %-10s %-8s %14s %12s %12s %10s\n",
		"--------------------", "----------", "--------", "--------------", "------------", "------------", "----------")
	failed := 0
	for _, r := range results {
		name := r.Name
		if name == "" {
			name = r.File
		}
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "%-20s %-10s %-8s %14s  error: %v\n", name, r.Class, r.ScoreType, "-", r.Err)
			continue
		}
		diff := "-"
		if reported, err := ParseCombatPower(r.Reported); err == nil {
			diff = FormatCombatPower(r.Score.Total - reported)
		}
		fmt.Fprintf(w, "%-20s %-10s %-8s %14d %12s %12s %10s\n",
			name, r.Class, r.ScoreType, r.Score.Total, FormatCombatPower(r.Score.Total), r.Reported, diff)
	}
	fmt.Fprintf(w, "%d scored, %d failed\n", len(results)-failed, failed)
}
