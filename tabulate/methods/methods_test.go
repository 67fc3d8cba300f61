package methods_test

import (
	"testing"

	"github.com/ballotcore/tabulator/ballot"
	"github.com/ballotcore/tabulator/fixedpoint"
	"github.com/ballotcore/tabulator/tabulate/methods"
	"github.com/ballotcore/tabulator/tiebreak"
)

func newResolver(names ...string) *tiebreak.Resolver {
	return tiebreak.NewResolver(tiebreak.StrongAlpha, tiebreak.WeakStrong, names, tiebreak.NewChannel(), 1, 2)
}

func mustAppend(t *testing.T, c *ballot.Collection, b ballot.Ballot) {
	t.Helper()
	if err := c.Append(b); err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestApprovalTopN(t *testing.T) {
	roster := ballot.NewRoster("A", "B", "C")
	c := ballot.NewCollection(roster)
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0), ballot.Strict(1)}})
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0)}})
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(1), ballot.Strict(2)}})

	p := fixedpoint.New(4, 0)
	result := methods.Approval(c, p, 1, newResolver(roster.Names...))
	if len(result.Winners) != 1 || result.Winners[0] != 0 {
		t.Fatalf("winners = %v, want [0] (A and B both approved twice; alphabetical tie-break picks A)", result.Winners)
	}
}

func TestSNTVTopNOnFirstChoiceOnly(t *testing.T) {
	roster := ballot.NewRoster("A", "B", "C")
	c := ballot.NewCollection(roster)
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0), ballot.Strict(1)}})
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(1), ballot.Strict(0)}})
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(2)}})

	p := fixedpoint.New(4, 0)
	result := methods.SNTV(c, p, 2, newResolver(roster.Names...))
	if len(result.Winners) != 2 {
		t.Fatalf("winners = %v, want 2 seats filled", result.Winners)
	}
}

// TestBordaWithoutCompletionScenario matches scenario 5: a partial
// ballot's unranked mass is recorded as exhausted rather than shared.
func TestBordaWithoutCompletionScenario(t *testing.T) {
	roster := ballot.NewRoster("A", "B", "C")
	c := ballot.NewCollection(roster)
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0)}})

	result := methods.Borda(c, 1, 1, false, newResolver(roster.Names...))
	round := result.Rounds[0]
	// A ranked 1st of 3: scores 2 points. B and C unranked: 0.5 exhausted each.
	if got := round.Count[0].String(); got != "2" {
		t.Fatalf("A's Borda score = %s, want 2", got)
	}
	if got := round.Exhausted.String(); got != "1" {
		t.Fatalf("exhausted mass = %s, want 1 (0.5 + 0.5)", got)
	}
}

func TestBordaWithCompletionSharesRemainingMass(t *testing.T) {
	roster := ballot.NewRoster("A", "B", "C")
	c := ballot.NewCollection(roster)
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0)}})

	result := methods.Borda(c, 1, 1, true, newResolver(roster.Names...))
	round := result.Rounds[0]
	if got := round.Count[1].String(); got != "0.5" {
		t.Fatalf("B's completed Borda score = %s, want 0.5", got)
	}
	if got := round.Exhausted.String(); got != "0" {
		t.Fatalf("exhausted mass with completion = %s, want 0", got)
	}
}

func TestBucklinMajorityInLaterRound(t *testing.T) {
	roster := ballot.NewRoster("A", "B", "C")
	c := ballot.NewCollection(roster)
	// 5 ballots: no candidate has a first-round majority (need > 2.5), but
	// A crosses it once second choices are added in round 2.
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0), ballot.Strict(1)}})
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0), ballot.Strict(2)}})
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(1), ballot.Strict(0)}})
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(1), ballot.Strict(2)}})
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(2), ballot.Strict(0)}})

	p := fixedpoint.New(4, 0)
	result := methods.Bucklin(c, p, newResolver(roster.Names...))
	if len(result.Winners) != 1 || result.Winners[0] != 0 {
		t.Fatalf("winner = %v, want [0] (A has a majority once round 2 counts)", result.Winners)
	}
	if len(result.Rounds) != 2 {
		t.Fatalf("rounds = %d, want 2 (majority doesn't appear until round 2)", len(result.Rounds))
	}
}

func TestBucklinNoMajorityFallsBackToPlurality(t *testing.T) {
	roster := ballot.NewRoster("A", "B", "C")
	c := ballot.NewCollection(roster)
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0)}})
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(1)}})
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(2)}})

	p := fixedpoint.New(4, 0)
	result := methods.Bucklin(c, p, newResolver(roster.Names...))
	if len(result.Winners) != 1 {
		t.Fatalf("winner = %v, want exactly one plurality winner", result.Winners)
	}
}

// TestCondorcetDirectWinner covers the case with no cycle: A beats both B
// and C pairwise, so the smith set is {A} and no completion method runs.
func TestCondorcetDirectWinner(t *testing.T) {
	roster := ballot.NewRoster("A", "B", "C")
	c := ballot.NewCollection(roster)
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0), ballot.Strict(1), ballot.Strict(2)}})
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0), ballot.Strict(2), ballot.Strict(1)}})
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(1), ballot.Strict(2), ballot.Strict(0)}})

	p := fixedpoint.New(4, 0)
	result := methods.Condorcet(c, p, methods.SchwartzSequentialDropping, newResolver(roster.Names...))
	if len(result.Winners) != 1 || result.Winners[0] != 0 {
		t.Fatalf("winner = %v, want [0] (A is the condorcet winner)", result.Winners)
	}
}

// TestCondorcetCyclicSmithSet matches scenario 4: a rock-paper-
// scissors cycle A>B>C>A leaves all three in the smith set, and every
// completion method must still resolve to a single winner.
func TestCondorcetCyclicSmithSet(t *testing.T) {
	roster := ballot.NewRoster("A", "B", "C")
	c := ballot.NewCollection(roster)
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(0), ballot.Strict(1), ballot.Strict(2)}})
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(1), ballot.Strict(2), ballot.Strict(0)}})
	mustAppend(t, c, ballot.Ballot{Rankings: []ballot.Ranking{ballot.Strict(2), ballot.Strict(0), ballot.Strict(1)}})

	p := fixedpoint.New(4, 0)
	for _, completion := range []methods.CompletionMethod{
		methods.SchwartzSequentialDropping,
		methods.IRVOnSmithSet,
		methods.BordaOnSmithSet,
	} {
		result := methods.Condorcet(c, p, completion, newResolver(roster.Names...))
		if len(result.Winners) != 1 {
			t.Fatalf("completion %v: winners = %v, want exactly one", completion, result.Winners)
		}
	}
}
