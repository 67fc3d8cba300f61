package stv_test

import (
	"testing"

	"github.com/ballotcore/tabulator/ballot"
	"github.com/ballotcore/tabulator/fixedpoint"
	"github.com/ballotcore/tabulator/tabulate/stv"
)

// TestMeekScenario3 matches the literal scenario 3: candidates
// [X,Y,Z], 2 seats, precision 6 guard 6. Ballots 3:X Y, 3:Y X, 1:Z.
// Threshold = 7/3+eps ~= 2.333333. Both X and Y clear it on the first
// round's equal first-preference counts, which fills both seats, so the
// count stops in round 0 with Z still continuing. Winners: {X, Y}.
func TestMeekScenario3(t *testing.T) {
	roster := ballot.NewRoster("X", "Y", "Z")
	c := ballot.NewCollection(roster)
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0), ballot.Strict(1)}}, 3)
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(1), ballot.Strict(0)}}, 3)
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(2)}}, 1)

	p := fixedpoint.New(6, 6)
	result := stv.NewMeek(c, p, 2, newResolver(roster.Names...))

	if len(result.Winners) != 2 {
		t.Fatalf("winners = %v, want 2 seats filled", result.Winners)
	}
	gotSet := map[int]bool{}
	for _, w := range result.Winners {
		gotSet[w] = true
	}
	if !gotSet[0] || !gotSet[1] {
		t.Fatalf("winners = %v, want {X, Y}", result.Winners)
	}

	first := result.Rounds[0]
	if got, want := first.Count[0].StringFixed(6), "3.000000"; got != want {
		t.Errorf("round 0 count[X] = %s, want %s", got, want)
	}
	if got, want := first.Count[1].StringFixed(6), "3.000000"; got != want {
		t.Errorf("round 0 count[Y] = %s, want %s", got, want)
	}
}

// TestWarrenElectsFirstRoundMajority confirms a single-seat Warren count
// elects X on four unanimous first preferences and stops in round 0, before
// any keep-factor update happens.
func TestWarrenElectsFirstRoundMajority(t *testing.T) {
	roster := ballot.NewRoster("X", "Y")
	c := ballot.NewCollection(roster)
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0), ballot.Strict(1)}}, 4)

	p := fixedpoint.New(6, 6)
	result := stv.NewWarren(c, p, 1, newResolver(roster.Names...))
	if len(result.Winners) != 1 || result.Winners[0] != 0 {
		t.Fatalf("winners = %v, want [0] (X)", result.Winners)
	}
}
