package battlepoint

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"lostark-battlepoint/internal/armory"
)

// Factor is a coefficient carried as the exact ratio Num/Den. Table values
// always have Den == 1; rolled magnitudes with a fractional part do not.
type Factor struct {
	Num int64
	Den int64
}

func coeff(v int64) Factor { return Factor{Num: v, Den: 1} }

func (f Factor) IsZero() bool { return f.Num == 0 }

func (f Factor) den() int64 {
	if f.Den == 0 {
		return 1
	}
	return f.Den
}

// MatchExact resolves an effect string by exact key.
func (c *Coefficients) MatchExact(tag, effect string) Factor {
	v, _ := c.Lookup(tag, effect)
	return coeff(v)
}

// MatchRegex resolves an effect string against a pattern table. Every pattern
// is tried in document order and the last one that matches wins. The
// captured magnitude is multiplied into the coefficient; a percent effect is
// scaled by 100 and truncated first. A capture that is not a decimal number
// is a grammar mismatch.
func (c *Coefficients) MatchRegex(tag, effect string) (Factor, string, error) {
	var (
		found Factor
		key   string
	)
	percent := strings.HasSuffix(effect, "%")
	for _, p := range c.patterns[tag] {
		m := p.re.FindStringSubmatch(effect)
		if m == nil {
			continue
		}
		num, den, err := parseMagnitude(m[1], percent)
		if err != nil {
			return Factor{}, "", &armory.GrammarMismatchError{Template: tag + " " + p.key, Text: effect}
		}
		found = Factor{Num: p.value * num, Den: den}
		key = p.key
	}
	return found, key, nil
}

// parseMagnitude reads a captured roll such as "1.55", "+480" or "-0.5" as an
// exact ratio num/den. A percent roll becomes trunc(v×100) with den 1.
func parseMagnitude(s string, percent bool) (num, den int64, err error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, 0, err
	}
	if percent {
		d = d.Shift(2).Truncate(0)
	}
	r := d.Rat()
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		return 0, 0, fmt.Errorf("magnitude %s out of range", s)
	}
	return r.Num().Int64(), r.Denom().Int64(), nil
}
