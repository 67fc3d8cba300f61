package methods

import (
	"sort"
	"strconv"
	"strings"

	"github.com/katalvlaran/lvlath/graph"

	"github.com/ballotcore/tabulator/ballot"
	"github.com/ballotcore/tabulator/fixedpoint"
	"github.com/ballotcore/tabulator/report"
	"github.com/ballotcore/tabulator/tiebreak"
)

// CompletionMethod names the three ways the Condorcet method
// chooses a winner when no candidate beats every other pairwise (i.e. the
// Smith set has more than one member).
type CompletionMethod int

const (
	SchwartzSequentialDropping CompletionMethod = iota
	IRVOnSmithSet
	BordaOnSmithSet
)

// Condorcet tabulates the Condorcet method: a single winner,
// chosen by pairwise majority where possible and by completion-method
// fallback over the Smith set otherwise. Grounded on OpenSTV's
// Condorcet.py: the pairwise matrix is tallied below, the Smith set comes
// from computeSmithSet (graph reachability rather than the original's
// matrix walk), and schwartzSequentialDropping is the SSD completion.
func Condorcet(c *ballot.Collection, p *fixedpoint.Prec, completion CompletionMethod, resolver *tiebreak.Resolver) *report.Result {
	candidates := activeCandidates(c.Roster.Len())
	n := len(candidates)

	pMat := newMatrix(n)
	for _, wb := range c.WeightedView() {
		weight := p.Fix(int64(wb.Weight))
		remaining := make(map[int]bool, n)
		for _, cand := range candidates {
			remaining[cand] = true
		}
		for _, r := range wb.Ballot.Rankings {
			if r.IsSkip() || r.IsOvervote() {
				break
			}
			cand, ok := r.Single()
			if !ok {
				break
			}
			delete(remaining, cand)
			for d := range remaining {
				pMat[cand][d] = p.Add(pMat[cand][d], weight)
			}
		}
	}

	smithSet := computeSmithSet(p, candidates, pMat)

	round := &report.Round{Index: 0, Action: report.Action{Kind: report.First}}
	round.Add("pairwise matrix computed")
	round.Add("smith set: " + formatSet(smithSet))

	var winner int
	if len(smithSet) == 1 {
		winner = smithSet[0]
	} else {
		switch completion {
		case SchwartzSequentialDropping:
			winner = schwartzSequentialDropping(p, candidates, pMat, resolver, round)
		case IRVOnSmithSet:
			winner = irvOnSubset(c, p, smithSet, resolver)
			round.Add("completed via instant-runoff voting restricted to the smith set")
		case BordaOnSmithSet:
			winner = bordaOnSubset(c, p, smithSet, resolver)
			round.Add("completed via borda count restricted to the smith set")
		}
	}

	return &report.Result{Rounds: []*report.Round{round}, Winners: []int{winner}}
}

func newMatrix(n int) [][]fixedpoint.Value {
	m := make([][]fixedpoint.Value, n)
	for i := range m {
		m[i] = make([]fixedpoint.Value, n)
		for j := range m[i] {
			m[i][j] = fixedpoint.Zero()
		}
	}
	return m
}

// computeSmithSet ports OpenSTV's Markus-Schulze-derived algorithm: c beats-or-ties
// d directly wherever pMat says so, and that relation is transitively closed before
// any c beaten outright (without a reciprocal beats-or-ties path back) by some d
// still in the set is removed. The direct relation is loaded as a directed graph
// and the transitive closure for each candidate is its BFS-reachable set, rather
// than a hand-rolled triple loop.
func computeSmithSet(p *fixedpoint.Prec, candidates []int, pMat [][]fixedpoint.Value) []int {
	g := graph.NewGraph(true, false)
	for _, c := range candidates {
		g.AddVertex(&graph.Vertex{ID: vertexID(c), Metadata: make(map[string]interface{})})
	}
	for _, c := range candidates {
		for _, d := range candidates {
			if c == d {
				continue
			}
			if p.Ge(pMat[c][d], pMat[d][c]) {
				g.AddEdge(vertexID(c), vertexID(d), 1)
			}
		}
	}

	reach := make(map[int]map[int]bool, len(candidates))
	for _, c := range candidates {
		res, err := g.BFS(vertexID(c), nil)
		if err != nil {
			continue
		}
		set := make(map[int]bool, len(res.Visited))
		for id := range res.Visited {
			set[candidateID(id)] = true
		}
		reach[c] = set
	}

	inSet := make(map[int]bool, len(candidates))
	for _, c := range candidates {
		inSet[c] = true
	}
	for _, c := range candidates {
		for _, d := range candidates {
			if c == d {
				continue
			}
			if !reach[c][d] && reach[d][c] {
				delete(inSet, c)
			}
		}
	}

	smithSet := make([]int, 0, len(inSet))
	for _, c := range candidates {
		if inSet[c] {
			smithSet = append(smithSet, c)
		}
	}
	return smithSet
}

func vertexID(c int) string { return strconv.Itoa(c) }

func candidateID(id string) int {
	n, _ := strconv.Atoi(id)
	return n
}

// schwartzSequentialDropping computes beatpath magnitudes (the strongest
// chain of defeats between every pair) and elects whoever no one else
// out-beatpaths, breaking a residual tie at strong tie-break.
func schwartzSequentialDropping(p *fixedpoint.Prec, candidates []int, pMat [][]fixedpoint.Value, resolver *tiebreak.Resolver, round *report.Round) int {
	n := len(candidates)
	defeat := make([][]fixedpoint.Value, n)
	for i := range defeat {
		defeat[i] = make([]fixedpoint.Value, n)
		copy(defeat[i], pMat[i])
	}
	for _, c := range candidates {
		for _, d := range candidates {
			if d >= c {
				continue
			}
			switch {
			case p.Gt(pMat[c][d], pMat[d][c]):
				defeat[d][c] = fixedpoint.Zero()
			case p.Lt(pMat[c][d], pMat[d][c]):
				defeat[c][d] = fixedpoint.Zero()
			default:
				defeat[c][d] = fixedpoint.Zero()
				defeat[d][c] = fixedpoint.Zero()
			}
		}
	}

	changing := true
	for changing {
		changing = false
		for _, c := range candidates {
			for _, d := range candidates {
				for _, k := range candidates {
					dmin := defeat[c][d]
					if p.Lt(defeat[d][k], dmin) {
						dmin = defeat[d][k]
					}
					if p.Lt(defeat[c][k], dmin) {
						defeat[c][k] = dmin
						changing = true
					}
				}
			}
		}
	}

	remaining := append([]int(nil), candidates...)
	for _, c := range append([]int(nil), remaining...) {
		for _, d := range remaining {
			if d == c {
				continue
			}
			if p.Gt(defeat[d][c], defeat[c][d]) {
				remaining = removeValue(remaining, c)
				break
			}
		}
	}

	if len(remaining) == 1 {
		return remaining[0]
	}
	sort.Ints(remaining)
	round.Add("candidates remaining after schwartz sequential dropping: " + formatSet(remaining))
	winner, note := resolver.ResolveStrong(remaining, "condorcet: schwartz sequential dropping left multiple candidates")
	if note != "" {
		round.Add(note)
	}
	return winner
}

// irvOnSubset runs single-winner instant-runoff voting restricted to a
// candidate subset (the smith set), eliminating the plurality loser each
// round until one candidate remains.
func irvOnSubset(c *ballot.Collection, p *fixedpoint.Prec, subset []int, resolver *tiebreak.Resolver) int {
	among := make(map[int]bool, len(subset))
	for _, cand := range subset {
		among[cand] = true
	}
	remaining := append([]int(nil), subset...)

	for len(remaining) > 1 {
		count := make(map[int]fixedpoint.Value, len(remaining))
		for _, cand := range remaining {
			count[cand] = fixedpoint.Zero()
		}
		for _, wb := range c.WeightedView() {
			if cand, ok := ballot.TopChoice(wb.Ballot, among); ok {
				count[cand] = p.Add(count[cand], p.Fix(int64(wb.Weight)))
			}
		}

		ordered := append([]int(nil), remaining...)
		sort.SliceStable(ordered, func(i, j int) bool { return count[ordered[i]].Cmp(count[ordered[j]]) < 0 })
		low := count[ordered[0]]
		var losers []int
		for _, cand := range ordered {
			if count[cand].Cmp(low) == 0 {
				losers = append(losers, cand)
			}
		}
		loser, _ := resolver.ResolveStrong(losers, "condorcet: irv-on-smith-set elimination tie")
		remaining = removeValue(remaining, loser)
		among = make(map[int]bool, len(remaining))
		for _, cand := range remaining {
			among[cand] = true
		}
	}
	return remaining[0]
}

// bordaOnSubset reuses the general Borda tabulator restricted to the smith
// set by zeroing every other candidate's contribution before ranking.
func bordaOnSubset(c *ballot.Collection, p *fixedpoint.Prec, subset []int, resolver *tiebreak.Resolver) int {
	among := make(map[int]bool, len(subset))
	for _, cand := range subset {
		among[cand] = true
	}
	m := len(subset)
	count := make(map[int]fixedpoint.Value, m)
	for _, cand := range subset {
		count[cand] = fixedpoint.Zero()
	}

	for _, wb := range c.WeightedView() {
		weight := p.Fix(int64(wb.Weight))
		ranked := make([]int, 0, m)
		for _, r := range wb.Ballot.Rankings {
			if cand, ok := r.Single(); ok && among[cand] {
				ranked = append(ranked, cand)
			}
		}
		for i, cand := range ranked {
			points := p.Fix(int64(m - i - 1))
			count[cand] = p.Add(count[cand], p.Mul(weight, points))
		}
	}

	ordered := append([]int(nil), subset...)
	sort.SliceStable(ordered, func(i, j int) bool { return count[ordered[i]].Cmp(count[ordered[j]]) > 0 })
	top := count[ordered[0]]
	var leaders []int
	for _, cand := range ordered {
		if count[cand].Cmp(top) == 0 {
			leaders = append(leaders, cand)
		}
	}
	winner, _ := resolver.ResolveStrong(leaders, "condorcet: borda-on-smith-set tie")
	return winner
}

func formatSet(s []int) string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}
