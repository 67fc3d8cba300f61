package tabulate

// StopCondition is one of the conditions a method can declare that ends an
// STV count before every seat is individually filled by threshold.
type StopCondition int

const (
	// KnowWinners: enough winners have already been declared to fill every
	// seat (winners == seats).
	KnowWinners StopCondition = iota
	// NPlus1: only one more continuing candidate than remaining seats.
	NPlus1
	// NSeats: only as many continuing candidates as remaining seats.
	NSeats
	// ContinuingEmpty: no continuing candidates remain.
	ContinuingEmpty
)

// StopConditions is the set of conditions a method checks for, evaluated in
// the order listed.
type StopConditions []StopCondition

// Evaluate checks every configured condition against the current state —
// continuing candidates and remaining (unfilled) seats — returning the
// first one that fires (if any) for the narrative, and whether the method
// should declare the remaining continuing candidates elected outright
// ("declareRemaining") as opposed to simply halting (ContinuingEmpty halts
// without electing anyone further).
func (s StopConditions) Evaluate(continuing, seatsRemaining int) (fired StopCondition, stopped bool, declareRemaining bool) {
	for _, c := range s {
		switch c {
		case KnowWinners:
			if seatsRemaining == 0 {
				return KnowWinners, true, false
			}
		case NPlus1:
			if continuing == seatsRemaining+1 {
				return NPlus1, true, true
			}
		case NSeats:
			if continuing != 0 && continuing <= seatsRemaining {
				return NSeats, true, true
			}
		case ContinuingEmpty:
			if continuing == 0 {
				return ContinuingEmpty, true, false
			}
		}
	}
	return 0, false, false
}

// String renders a condition's name for narrative text.
func (s StopCondition) String() string {
	switch s {
	case KnowWinners:
		return "all seats filled"
	case NPlus1:
		return "only one more continuing candidate than seats remain"
	case NSeats:
		return "only as many continuing candidates as seats remain"
	case ContinuingEmpty:
		return "no continuing candidates remain"
	default:
		return "unknown stop condition"
	}
}
