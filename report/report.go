// Package report defines the per-round record model: the structured data a
// round produces, meant to be consumed by external report formatters
// (text/CSV/HTML/YAML renderers), which are out of scope for this core.
package report

import (
	"github.com/shopspring/decimal"
)

// ActionKind tags what a round did.
type ActionKind int

const (
	// First is the initial tally (round 0/1 of an STV count).
	First ActionKind = iota
	// Surplus is a surplus-transfer round; Transferor names who.
	Surplus
	// Eliminate is an elimination round; Losers names who.
	Eliminate
	// Restart is QPQ's restart-after-exclusion action.
	Restart
)

// Action is the tagged-union action value a round's record carries: First,
// Surplus(transferor), Eliminate(losers), or Restart.
type Action struct {
	Kind        ActionKind
	Transferor  int   // valid when Kind == Surplus
	Losers      []int // valid when Kind == Eliminate
}

// Round is one round's complete audit record.
type Round struct {
	Index int
	// Stage is a stage index for stage-based reports; no tabulator in this
	// module sets it, so it is always zero.
	Stage int

	Count      map[int]decimal.Decimal
	Exhausted  decimal.Decimal
	Threshold  decimal.Decimal
	HasThresh  bool
	Surplus    decimal.Decimal
	HasSurplus bool

	Action Action

	// KeepFactor holds the Meek/Warren per-candidate retention fraction,
	// nil for methods that don't use one.
	KeepFactor map[int]decimal.Decimal

	// Narrative holds human-readable fragments describing winners
	// declared, eliminations, surplus actions and quota changes, in the
	// order they happened.
	Narrative []string
}

// Add appends a narrative fragment.
func (r *Round) Add(fragment string) {
	r.Narrative = append(r.Narrative, fragment)
}

// Result is what a tabulator run returns: the full round-by-round trail
// plus the final winner set, in election order.
type Result struct {
	Rounds  []*Round
	Winners []int
}
