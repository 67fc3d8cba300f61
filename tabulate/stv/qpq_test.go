package stv_test

import (
	"testing"

	"github.com/ballotcore/tabulator/ballot"
	"github.com/ballotcore/tabulator/fixedpoint"
	"github.com/ballotcore/tabulator/tabulate/stv"
)

// TestQPQScenario runs Woodall's quota-preferential-by-quotient method on a
// single seat: A's quotient (8) clears the round-0 quota (5) and is
// elected, contributing its full weight-8 ballot (transfer value 1/8) so
// the quota shrinks to exactly B's quotient (2) in round 1 — a tie at the
// boundary, which QPQ's strict quotient > quota test does not count as a
// win, so B is excluded instead of filling the remaining (nonexistent)
// seat.
func TestQPQScenario(t *testing.T) {
	roster := ballot.NewRoster("A", "B")
	c := ballot.NewCollection(roster)
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0)}}, 8)
	mustAppendN(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(1)}}, 2)

	p := fixedpoint.New(4, 0)
	result := stv.NewQPQ(c, p, 1, false, newResolver(roster.Names...))

	if len(result.Rounds) != 2 {
		t.Fatalf("rounds = %d, want 2", len(result.Rounds))
	}

	first := result.Rounds[0]
	if got := first.Threshold.String(); got != "5" {
		t.Fatalf("round 0 quota = %s, want 5", got)
	}
	if got := first.Count[0].String(); got != "8" {
		t.Errorf("round 0 quotient[A] = %s, want 8", got)
	}
	if got := first.Count[1].String(); got != "2" {
		t.Errorf("round 0 quotient[B] = %s, want 2", got)
	}

	second := result.Rounds[1]
	if got := second.Threshold.String(); got != "2" {
		t.Fatalf("round 1 quota = %s, want 2", got)
	}
	if got := second.Count[1].String(); got != "2" {
		t.Errorf("round 1 quotient[B] = %s, want 2", got)
	}

	if len(result.Winners) != 1 || result.Winners[0] != 0 {
		t.Fatalf("winners = %v, want [0] (A)", result.Winners)
	}
}
