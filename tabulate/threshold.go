package tabulate

import "github.com/ballotcore/tabulator/fixedpoint"

// ThresholdBase selects the quota numerator divisor.
type ThresholdBase int

const (
	Droop ThresholdBase = iota // totalBallots / (seats+1)
	Hare                       // totalBallots / seats
)

// ThresholdDynamics selects whether the numerator shrinks as votes become
// exhausted.
type ThresholdDynamics int

const (
	Static  ThresholdDynamics = iota // numerator is always p*totalBallots
	Dynamic                         // numerator subtracts exhausted[r] each round
)

// ThresholdForm selects how the raw quotient becomes a usable threshold.
type ThresholdForm int

const (
	// Whole rounds down to a multiple of one whole vote, then adds one
	// whole vote, so the threshold is always exactly representable.
	Whole ThresholdForm = iota
	// Fractional integer-divides then adds the smallest representable
	// fraction.
	Fractional
)

// ThresholdPolicy computes the winning threshold each round from the
// configured base/dynamics/form triple. Equal-inequality
// variants (e.g. ERS97) are not part of ThresholdPolicy itself; they live
// in the sure-loser test (see stv package).
type ThresholdPolicy struct {
	Base     ThresholdBase
	Dynamics ThresholdDynamics
	Form     ThresholdForm
}

// DefaultSTVThreshold is the Droop-Static-Whole triple most non-recursive
// STV variants use.
var DefaultSTVThreshold = ThresholdPolicy{Base: Droop, Dynamics: Static, Form: Whole}

// MeekThreshold is "always Droop-Dynamic-Fractional", the fixed triple the
// recursive keep-factor methods use.
var MeekThreshold = ThresholdPolicy{Base: Droop, Dynamics: Dynamic, Form: Fractional}

// Compute returns the threshold for a round given the total (weighted)
// ballot count, the number of seats, and this round's exhausted value
// (ignored unless Dynamics == Dynamic).
func (t ThresholdPolicy) Compute(p *fixedpoint.Prec, totalBallots int, seats int, exhausted fixedpoint.Value) fixedpoint.Value {
	numerator := p.Fix(int64(totalBallots))
	if t.Dynamics == Dynamic {
		numerator = p.Sub(numerator, exhausted)
	}

	divisor := int64(seats + 1)
	if t.Base == Hare {
		divisor = int64(seats)
	}

	quotient := p.DivInt(numerator, divisor)

	switch t.Form {
	case Whole:
		return p.Add(p.FloorWhole(quotient), p.One())
	default: // Fractional
		return p.Add(quotient, fixedpoint.FromRaw(1))
	}
}
