package tiebreak_test

import (
	"testing"

	"github.com/ballotcore/tabulator/tiebreak"
)

func TestResolveStrongAlphaAndIndex(t *testing.T) {
	names := []string{"Charlie", "Alice", "Bob"}

	alpha := tiebreak.NewResolver(tiebreak.StrongAlpha, tiebreak.WeakStrong, names, nil, 1, 2)
	if got, _ := alpha.ResolveStrong([]int{0, 1, 2}, "elect"); got != 1 {
		t.Fatalf("alpha tie-break = %d, want 1 (Alice)", got)
	}

	index := tiebreak.NewResolver(tiebreak.StrongIndex, tiebreak.WeakStrong, names, nil, 1, 2)
	if got, _ := index.ResolveStrong([]int{2, 0, 1}, "elect"); got != 0 {
		t.Fatalf("index tie-break = %d, want 0", got)
	}
}

func TestResolveStrongSingleCandidateShortCircuits(t *testing.T) {
	r := tiebreak.NewResolver(tiebreak.StrongRandom, tiebreak.WeakStrong, nil, nil, 1, 2)
	if got, narrative := r.ResolveStrong([]int{4}, "eliminate"); got != 4 || narrative != "" {
		t.Fatalf("single-candidate resolve = (%d, %q), want (4, \"\")", got, narrative)
	}
}

func TestManualTieBreakRendezvous(t *testing.T) {
	ch := tiebreak.NewChannel()
	r := tiebreak.NewResolver(tiebreak.StrongManual, tiebreak.WeakStrong, nil, ch, 1, 2)

	done := make(chan int)
	go func() {
		got, _ := r.ResolveStrong([]int{0, 1, 2}, "eliminate")
		done <- got
	}()

	req := <-ch.Requests()
	if len(req.Tied) != 3 {
		t.Fatalf("request tied set = %v, want 3 candidates", req.Tied)
	}
	ch.Respond(tiebreak.Response{Chosen: 2})

	if got := <-done; got != 2 {
		t.Fatalf("manual resolve = %d, want 2", got)
	}
}

func TestManualTieBreakCancelFallsBackToRandom(t *testing.T) {
	ch := tiebreak.NewChannel()
	r := tiebreak.NewResolver(tiebreak.StrongManual, tiebreak.WeakStrong, nil, ch, 1, 2)

	done := make(chan int)
	go func() {
		got, narrative := r.ResolveStrong([]int{0, 1}, "eliminate")
		_ = narrative
		done <- got
	}()

	<-ch.Requests()
	ch.Respond(tiebreak.Response{Cancel: true})

	got := <-done
	if got != 0 && got != 1 {
		t.Fatalf("fallback resolve = %d, want one of the tied candidates", got)
	}
}

func TestResolveWeakForwardAndBackward(t *testing.T) {
	history := []tiebreak.RoundCounts{
		{0: 5, 1: 5}, // round 1: still tied
		{0: 3, 1: 7}, // round 2: distinguishable, 0 is lower
	}

	forward := tiebreak.NewResolver(tiebreak.StrongIndex, tiebreak.WeakForward, nil, nil, 1, 2)
	if got, _ := forward.ResolveWeak([]int{0, 1}, history, "eliminate"); got != 0 {
		t.Fatalf("forward weak resolve = %d, want 0", got)
	}

	backward := tiebreak.NewResolver(tiebreak.StrongIndex, tiebreak.WeakBackward, nil, nil, 1, 2)
	if got, _ := backward.ResolveWeak([]int{0, 1}, history, "eliminate"); got != 0 {
		t.Fatalf("backward weak resolve = %d, want 0", got)
	}
}

func TestResolveWeakFallsBackToStrongWhenNoRoundDistinguishes(t *testing.T) {
	history := []tiebreak.RoundCounts{{1: 5, 3: 5}}
	r := tiebreak.NewResolver(tiebreak.StrongIndex, tiebreak.WeakForward, nil, nil, 1, 2)
	if got, _ := r.ResolveWeak([]int{3, 1}, history, "eliminate"); got != 1 {
		t.Fatalf("fallback strong resolve = %d, want 1 (lowest index)", got)
	}
}
