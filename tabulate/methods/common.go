// Package methods implements the non-iterative tabulators:
// Approval, Borda, SNTV, Bucklin and Condorcet (with three Smith-set
// completion rules). None of these run more than a handful of rounds and
// none redistribute transfer value the way the STV family (package stv)
// does, so they share a much smaller framework: a single "rank candidates
// by count, then break ties for the Nth seat" helper.
package methods

import (
	"sort"

	"github.com/ballotcore/tabulator/fixedpoint"
	"github.com/ballotcore/tabulator/tiebreak"
)

// selectTopN returns the `seats` candidates (out of candidates) with the
// highest count, breaking a tie for the last seat with resolver. Ties
// among already-safely-elected candidates (above the boundary) don't need
// breaking; only the boundary at the seats'th position can be contested.
func selectTopN(p *fixedpoint.Prec, candidates []int, count map[int]fixedpoint.Value, seats int, resolver *tiebreak.Resolver, what string) ([]int, []string) {
	ordered := append([]int(nil), candidates...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return count[ordered[i]].Cmp(count[ordered[j]]) > 0
	})

	if seats >= len(ordered) {
		return ordered, nil
	}

	boundaryValue := count[ordered[seats-1]]
	// Collect every candidate tied with the boundary value: those ranked
	// strictly above seats-1 are safe; those at the boundary compete for
	// the remaining slots.
	var safe []int
	var tied []int
	for _, c := range ordered {
		switch count[c].Cmp(boundaryValue) {
		case 1:
			safe = append(safe, c)
		case 0:
			tied = append(tied, c)
		}
	}

	need := seats - len(safe)
	var narrative []string
	if need < 0 {
		need = 0
	}
	if need >= len(tied) {
		return append(safe, tied...), narrative
	}

	chosen := append([]int(nil), safe...)
	remaining := append([]int(nil), tied...)
	for len(chosen) < seats {
		pick, note := resolver.ResolveStrong(remaining, what)
		if note != "" {
			narrative = append(narrative, note)
		}
		chosen = append(chosen, pick)
		remaining = removeValue(remaining, pick)
	}
	return chosen, narrative
}

func removeValue(s []int, v int) []int {
	out := make([]int, 0, len(s)-1)
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// activeCandidates returns every non-withdrawn candidate index 0..n-1.
func activeCandidates(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
