// Package scenario defines the small embedded-JSON fixture format the
// cmd/tabulate demo reads: a roster, a set of ballots, a method name and its
// per-method options. It deliberately doesn't read BLT/text/DC ballot files;
// it exists only to give the CLI demo something concrete to run, validating
// its own document up front before touching a single vote.
package scenario

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/ballotcore/tabulator/ballot"
	"github.com/ballotcore/tabulator/errs"
	"github.com/ballotcore/tabulator/fixedpoint"
	"github.com/ballotcore/tabulator/optional"
	"github.com/ballotcore/tabulator/tiebreak"
)

// BallotSpec is one weighted ballot entry: Ranking is an ordered list of
// positions, each a "candidate" string, a "a=b" tied overvote, or "-" for a
// skipped position.
type BallotSpec struct {
	Ranking []string            `json:"ranking"`
	Weight  optional.Value[int] `json:"weight"`
}

// Scenario is the whole fixture document.
type Scenario struct {
	Method     string                 `json:"method"`
	Candidates []string               `json:"candidates"`
	Ballots    []BallotSpec           `json:"ballots"`
	Seats      optional.Value[int]    `json:"seats"`
	Precision  optional.Value[int]    `json:"precision"`
	Guard      optional.Value[int]    `json:"guard"`

	// Method-specific options, all optional; unused ones are ignored by
	// whichever method is named. Threshold, ThresholdDynamics and
	// ThresholdForm are decoded but no method reads them: every method
	// counts with its own fixed threshold policy.
	Threshold             optional.Value[string] `json:"threshold"`                // droop|hare
	ThresholdDynamics     optional.Value[string] `json:"threshold_dynamics"`       // static|dynamic
	ThresholdForm         optional.Value[string] `json:"threshold_form"`           // whole|fractional
	RestartAfterExclusion optional.Value[bool]   `json:"restart_after_exclusion"`  // qpq
	StrictImpossibility   optional.Value[bool]   `json:"strict_impossibility"`     // minneapolis
	Completion            optional.Value[string] `json:"completion"`               // condorcet: ssd|irv|borda
	BordaCompletion       optional.Value[bool]   `json:"borda_completion"`         // borda: use completion stage

	StrongTieBreak optional.Value[string] `json:"strong_tie_break"` // random|alpha|index
	WeakTieBreak   optional.Value[string] `json:"weak_tie_break"`   // strong|forward|backward
	Seed1          optional.Value[int]    `json:"seed1"`
	Seed2          optional.Value[int]    `json:"seed2"`
}

// Parse validates and decodes raw JSON into a Scenario: malformed input is
// rejected before any ballot is touched.
func Parse(raw []byte) (*Scenario, error) {
	var s Scenario
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errs.MessageErrorf(errs.ErrConfig, "invalid scenario json: %v", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the scenario is self-consistent: every ballot references
// a known candidate, method is non-empty, seats is positive when present.
func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.Method) == "" {
		return errs.MessageError(errs.ErrConfig, "scenario: method is required")
	}
	if len(s.Candidates) == 0 {
		return errs.MessageError(errs.ErrConfig, "scenario: at least one candidate is required")
	}
	index := make(map[string]bool, len(s.Candidates))
	for _, name := range s.Candidates {
		if index[name] {
			return errs.MessageErrorf(errs.ErrConfig, "scenario: duplicate candidate name %q", name)
		}
		index[name] = true
	}
	if seats, ok := s.Seats.Value(); ok && seats < 1 {
		return errs.MessageErrorf(errs.ErrConfig, "scenario: seats must be positive, got %d", seats)
	}
	for bi, bs := range s.Ballots {
		if w, ok := bs.Weight.Value(); ok && w < 0 {
			return errs.MessageErrorf(errs.ErrConfig, "scenario: ballot %d has negative weight %d", bi, w)
		}
		for _, pos := range bs.Ranking {
			if pos == "-" {
				continue
			}
			for _, name := range strings.Split(pos, "=") {
				if !index[name] {
					return errs.MessageErrorf(errs.ErrConfig, "scenario: ballot %d references unknown candidate %q", bi, name)
				}
			}
		}
	}
	return nil
}

// SeatsOrDefault returns the configured seat count, defaulting to 1.
func (s *Scenario) SeatsOrDefault() int {
	return s.Seats.Or(1)
}

// Prec builds the fixedpoint context for this scenario, defaulting to
// the baseline precision/guard of 6/6.
func (s *Scenario) Prec() *fixedpoint.Prec {
	return fixedpoint.New(s.Precision.Or(6), s.Guard.Or(6))
}

// Resolver builds the tie-break resolver named by the scenario's strong/weak
// mode options, defaulting to alphabetical-strong, strong-only-weak — a
// deterministic combination, appropriate for a reproducible demo.
func (s *Scenario) Resolver() *tiebreak.Resolver {
	strong := tiebreak.StrongAlpha
	switch s.StrongTieBreak.Or("alpha") {
	case "random":
		strong = tiebreak.StrongRandom
	case "index":
		strong = tiebreak.StrongIndex
	}
	weak := tiebreak.WeakStrong
	switch s.WeakTieBreak.Or("strong") {
	case "forward":
		weak = tiebreak.WeakForward
	case "backward":
		weak = tiebreak.WeakBackward
	}
	seed1 := uint64(s.Seed1.Or(1))
	seed2 := uint64(s.Seed2.Or(2))
	return tiebreak.NewResolver(strong, weak, append([]string(nil), s.Candidates...), nil, seed1, seed2)
}

// Collection builds the roster and ballot collection this scenario
// describes, in original (uncleaned) form.
func (s *Scenario) Collection() (*ballot.Roster, *ballot.Collection, error) {
	roster := ballot.NewRoster(s.Candidates...)
	index := make(map[string]int, len(s.Candidates))
	for i, name := range s.Candidates {
		index[name] = i
	}

	coll := ballot.NewCollection(roster)
	for _, bs := range s.Ballots {
		b := ballot.Ballot{}
		for _, pos := range bs.Ranking {
			if pos == "-" {
				b.Rankings = append(b.Rankings, ballot.Skip())
				continue
			}
			names := strings.Split(pos, "=")
			cands := make([]int, len(names))
			for i, name := range names {
				cands[i] = index[name]
			}
			sort.Ints(cands)
			if len(cands) == 1 {
				b.Rankings = append(b.Rankings, ballot.Strict(cands[0]))
			} else {
				b.Rankings = append(b.Rankings, ballot.Overvote(cands...))
			}
		}
		weight := bs.Weight.Or(1)
		for i := 0; i < weight; i++ {
			if err := coll.Append(b.Clone()); err != nil {
				return nil, nil, err
			}
		}
	}
	return roster, coll, nil
}
