package battlepoint

import (
	"math/big"

	"github.com/rs/zerolog"
)

// TraceStep describes one applied (non-zero) pipeline factor.
type TraceStep struct {
	Accumulator string // "attack" or "care"
	Factor      string
	Label       string
	Coefficient Factor
	Precision   int
	Before      int64
	After       int64
}

// Percent renders the step's increase with Precision-2 decimals, e.g.
// "+1.25%" for coefficient 125 at precision 4.
func (s TraceStep) Percent() string {
	r := new(big.Rat).SetFrac64(s.Coefficient.Num*100, s.Coefficient.den())
	r.Quo(r, new(big.Rat).SetInt(pow10(s.Precision)))
	digits := s.Precision - 2
	if digits < 0 {
		digits = 0
	}
	out := r.FloatString(digits)
	if r.Sign() >= 0 {
		out = "+" + out
	}
	return out + "%"
}

// TraceSink receives pipeline steps as they are applied.
type TraceSink interface {
	Step(TraceStep)
}

type TraceFunc func(TraceStep)

func (f TraceFunc) Step(s TraceStep) { f(s) }

// RecordingSink keeps every step in order. Not safe for concurrent use; give
// each Calc its own sink.
type RecordingSink struct {
	Steps []TraceStep
}

func (r *RecordingSink) Step(s TraceStep) { r.Steps = append(r.Steps, s) }

// LogSink writes steps to a zerolog logger at debug level.
type LogSink struct {
	Logger    zerolog.Logger
	Character string
}

func (l LogSink) Step(s TraceStep) {
	l.Logger.Debug().
		Str("character", l.Character).
		Str("acc", s.Accumulator).
		Str("factor", s.Factor).
		Str("label", s.Label).
		Str("delta", s.Percent()).
		Int64("score", s.After).
		Msg("battle point step")
}
