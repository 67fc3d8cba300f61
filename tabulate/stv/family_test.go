package stv_test

import (
	"testing"

	"github.com/ballotcore/tabulator/ballot"
	"github.com/ballotcore/tabulator/fixedpoint"
	"github.com/ballotcore/tabulator/tabulate/stv"
)

// TestCoombsScenario exercises the no-surplus family's most-last-place
// elimination rule (as opposed to IRV's fewest-first-place rule): Cam holds
// the most last-place votes in round 0 and is eliminated first even though
// Cam ties Ann for the most first preferences and Bea has the fewest. Cam's ballots transfer
// on to Ann and Bea, and Ann reaches the Droop threshold exactly (8 of 14)
// in round 1.
func TestCoombsScenario(t *testing.T) {
	roster := ballot.NewRoster("Ann", "Bea", "Cam")
	c := ballot.NewCollection(roster)
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0), ballot.Strict(1), ballot.Strict(2)}}, 5) // Ann,Bea,Cam
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(1), ballot.Strict(0), ballot.Strict(2)}}, 4) // Bea,Ann,Cam
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(2), ballot.Strict(0), ballot.Strict(1)}}, 3) // Cam,Ann,Bea
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(2), ballot.Strict(1), ballot.Strict(0)}}, 2) // Cam,Bea,Ann

	p := fixedpoint.New(4, 0)
	result := stv.NewCoombs(c, p, newResolver(roster.Names...))

	first := result.Rounds[0]
	if got := first.Threshold.String(); got != "8" {
		t.Fatalf("round 0 threshold = %s, want 8", got)
	}
	want := map[int]string{0: "5", 1: "4", 2: "5"}
	for cand, exp := range want {
		if got := first.Count[cand].String(); got != exp {
			t.Errorf("round 0 count[%d] = %s, want %s", cand, got, exp)
		}
	}
	if len(first.Action.Losers) != 1 || first.Action.Losers[0] != 2 {
		t.Fatalf("round 0 eliminated %v, want [2] (Cam, most last-place votes)", first.Action.Losers)
	}

	last := result.Rounds[len(result.Rounds)-1]
	if got := last.Count[0].String(); got != "8" {
		t.Errorf("round 1 count[Ann] = %s, want 8", got)
	}
	if len(result.Winners) != 1 || result.Winners[0] != 0 {
		t.Fatalf("winners = %v, want [0] (Ann)", result.Winners)
	}
}

// TestCambridgeScenario exercises the order-dependent whole-vote family's
// Cincinnati decimation draw: A's six ballots split evenly between an A>B
// tail and an A>C tail (positions 0-2 and 3-5); drawing 2 of 6 by decimation
// (skip = 6/2 = 3) picks positions 0 and 3 — one from each tail — rather
// than the first two positions a plain positional draw would take.
func TestCambridgeScenario(t *testing.T) {
	roster := ballot.NewRoster("A", "B", "C")
	c := ballot.NewCollection(roster)
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0), ballot.Strict(1)}}, 3) // A,B
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0), ballot.Strict(2)}}, 3) // A,C
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(1)}}, 2)                   // B alone
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(2)}}, 1)                   // C alone

	p := fixedpoint.New(4, 0)
	result := stv.NewCambridge(c, p, 2, newResolver(roster.Names...))

	first := result.Rounds[0]
	if got := first.Threshold.String(); got != "4" {
		t.Fatalf("round 0 threshold = %s, want 4", got)
	}
	want := map[int]string{0: "6", 1: "2", 2: "1"}
	for cand, exp := range want {
		if got := first.Count[cand].String(); got != exp {
			t.Errorf("round 0 count[%d] = %s, want %s", cand, got, exp)
		}
	}

	if len(result.Winners) != 2 {
		t.Fatalf("winners = %v, want 2 seats filled", result.Winners)
	}
	gotSet := map[int]bool{}
	for _, w := range result.Winners {
		gotSet[w] = true
	}
	if !gotSet[0] || !gotSet[1] {
		t.Fatalf("winners = %v, want {A, B}", result.Winners)
	}
}

// TestRandomTransferScenario exercises the same order-dependent whole-vote
// family with the plain positional draw rule: A's surplus of 2 draws the
// first 2 of A's 6 ballots (positional order, no decimation), which all
// carry the same A>B ranking, so both move straight to B and push B over
// threshold in round 1.
func TestRandomTransferScenario(t *testing.T) {
	roster := ballot.NewRoster("A", "B", "C")
	c := ballot.NewCollection(roster)
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0), ballot.Strict(1)}}, 6) // A,B
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(1), ballot.Strict(2)}}, 3) // B,C
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(2)}}, 2)                   // C alone

	p := fixedpoint.New(4, 0)
	result := stv.NewRandomTransfer(c, p, 2, newResolver(roster.Names...))

	first := result.Rounds[0]
	if got := first.Threshold.String(); got != "4" {
		t.Fatalf("round 0 threshold = %s, want 4", got)
	}
	want := map[int]string{0: "6", 1: "3", 2: "2"}
	for cand, exp := range want {
		if got := first.Count[cand].String(); got != exp {
			t.Errorf("round 0 count[%d] = %s, want %s", cand, got, exp)
		}
	}

	if len(result.Winners) != 2 {
		t.Fatalf("winners = %v, want 2 seats filled", result.Winners)
	}
	gotSet := map[int]bool{}
	for _, w := range result.Winners {
		gotSet[w] = true
	}
	if !gotSet[0] || !gotSet[1] {
		t.Fatalf("winners = %v, want {A, B}", result.Winners)
	}
}

// TestNIrelandScenario exercises the Gregory last-batch family's delayed
// surplus transfer and batch sure-loser elimination: A wins round 0 with a
// surplus of 1, but B (count 1) is already a sure loser relative to the
// tied C/D/E cluster (count 3 each) even counting A's pending surplus, so
// the surplus transfer is delayed behind B's exclusion. Once B transfers to
// C, D and E are in turn both sure losers against C and excluded together
// in one round (the batch exclusion Scottish-style single-loser elimination
// never does), all landing on C, who then clears the threshold.
func TestNIrelandScenario(t *testing.T) {
	roster := ballot.NewRoster("A", "B", "C", "D", "E")
	c := ballot.NewCollection(roster)
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0), ballot.Strict(2)}}, 8) // A,C
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(1), ballot.Strict(2)}}, 1) // B,C
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(2)}}, 3)                   // C alone
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(3), ballot.Strict(2)}}, 3) // D,C
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(4), ballot.Strict(2)}}, 3) // E,C

	p := fixedpoint.New(4, 0)
	result := stv.NewNIreland(c, p, 2, newResolver(roster.Names...))

	first := result.Rounds[0]
	if got := first.Threshold.String(); got != "7" {
		t.Fatalf("round 0 threshold = %s, want 7", got)
	}
	want := map[int]string{0: "8", 1: "1", 2: "3", 3: "3", 4: "3"}
	for cand, exp := range want {
		if got := first.Count[cand].String(); got != exp {
			t.Errorf("round 0 count[%d] = %s, want %s", cand, got, exp)
		}
	}

	if len(result.Winners) != 2 {
		t.Fatalf("winners = %v, want 2 seats filled", result.Winners)
	}
	gotSet := map[int]bool{}
	for _, w := range result.Winners {
		gotSet[w] = true
	}
	if !gotSet[0] || !gotSet[2] {
		t.Fatalf("winners = %v, want {A, C}", result.Winners)
	}
}

// TestERS97Scenario runs the same ballots as TestNIrelandScenario through
// ERS97's rules (the <= sure-loser inequality and the ERS97 elimination
// policy instead of NIreland's strict <): every boundary in this scenario
// is a strict inequality already, so ERS97 reaches the identical {A, C}
// outcome, confirming the shared sure-loser/Gregory mechanics work under
// ERS97's configuration too.
func TestERS97Scenario(t *testing.T) {
	roster := ballot.NewRoster("A", "B", "C", "D", "E")
	c := ballot.NewCollection(roster)
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0), ballot.Strict(2)}}, 8)
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(1), ballot.Strict(2)}}, 1)
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(2)}}, 3)
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(3), ballot.Strict(2)}}, 3)
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(4), ballot.Strict(2)}}, 3)

	p := fixedpoint.New(4, 0)
	result := stv.NewERS97(c, p, 2, newResolver(roster.Names...))

	if len(result.Winners) != 2 {
		t.Fatalf("winners = %v, want 2 seats filled", result.Winners)
	}
	gotSet := map[int]bool{}
	for _, w := range result.Winners {
		gotSet[w] = true
	}
	if !gotSet[0] || !gotSet[2] {
		t.Fatalf("winners = %v, want {A, C}", result.Winners)
	}
}
