package stv

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ballotcore/tabulator/fixedpoint"
	"github.com/ballotcore/tabulator/report"
	"github.com/ballotcore/tabulator/tabulate"
	"github.com/ballotcore/tabulator/tiebreak"
)

// TestCoombsLoserSelectorIgnoresRoundHistory builds a most-last-place tie
// between two continuing candidates and a fabricated round history that
// would, under weak/round-history tie-break, favor the candidate with the
// lower earlier-round count (Zeta) over the alphabetically-first one (Able).
// coombsLoserSelector must still pick Able: Coombs always breaks its
// most-last tie at strong tie-break, never by consulting earlier rounds.
func TestCoombsLoserSelectorIgnoresRoundHistory(t *testing.T) {
	p := fixedpoint.New(0, 0)
	resolver := tiebreak.NewResolver(tiebreak.StrongAlpha, tiebreak.WeakBackward, []string{"Zeta", "Able"}, nil, 1, 2)

	e := &Engine{
		cfg: Config{P: p, Resolver: resolver},
		status: func() *tabulate.StatusSet {
			s := tabulate.NewStatusSet(2)
			s.Set(0, tabulate.Continuing)
			s.Set(1, tabulate.Continuing)
			return s
		}(),
		papers: []paper{
			{ranking: []int{0, 1}, weight: 5}, // last continuing preference: 1 (Able)
			{ranking: []int{1, 0}, weight: 5}, // last continuing preference: 0 (Zeta)
		},
	}
	e.tv = []fixedpoint.Value{p.One(), p.One()}

	// A fabricated earlier round where Zeta (0) trails Able (1): under
	// weak/backward resolution this would single out Zeta as the
	// distinguished low candidate instead of falling through to alpha.
	e.rounds = []*report.Round{
		{Count: map[int]decimal.Decimal{0: decimal.NewFromInt(1), 1: decimal.NewFromInt(5)}},
	}

	losers := coombsLoserSelector(e)
	if len(losers) != 1 || losers[0] != 1 {
		t.Fatalf("coombsLoserSelector = %v, want [1] (Able, strong alpha tie-break ignoring round history)", losers)
	}
}
