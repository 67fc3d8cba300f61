package methods

import (
	"sort"

	"github.com/ballotcore/tabulator/ballot"
	"github.com/ballotcore/tabulator/fixedpoint"
	"github.com/ballotcore/tabulator/report"
	"github.com/ballotcore/tabulator/tiebreak"
)

// Bucklin tabulates the (single-winner only) Bucklin method:
// round r adds each ballot's r-th ranking to its candidate's count; the
// first candidate to exceed half the total ballot weight wins. If no
// candidate ever reaches a majority, the round-final plurality leader
// wins.
func Bucklin(c *ballot.Collection, p *fixedpoint.Prec, resolver *tiebreak.Resolver) *report.Result {
	candidates := activeCandidates(c.Roster.Len())
	count := make(map[int]fixedpoint.Value, len(candidates))
	for _, cand := range candidates {
		count[cand] = fixedpoint.Zero()
	}

	total := p.Fix(int64(c.TotalWeight()))
	half := p.Div(total, p.Fix(2))

	weighted := c.WeightedView()
	maxRankings := 0
	for _, wb := range weighted {
		if len(wb.Ballot.Rankings) > maxRankings {
			maxRankings = len(wb.Ballot.Rankings)
		}
	}

	var rounds []*report.Round
	for r := 0; r < maxRankings; r++ {
		for _, wb := range weighted {
			if r >= len(wb.Ballot.Rankings) {
				continue
			}
			ranking := wb.Ballot.Rankings[r]
			if ranking.IsSkip() {
				continue
			}
			weight := p.Fix(int64(wb.Weight))
			// An uncleaned overvote position splits its weight across
			// every named candidate rather than exhausting the ballot,
			// the conventional Bucklin treatment of equal rankings.
			share := p.Div(weight, p.Fix(int64(len(ranking.Candidates))))
			for _, cand := range ranking.Candidates {
				count[cand] = p.Add(count[cand], share)
			}
		}

		round := &report.Round{Index: r, Action: report.Action{Kind: report.First}, Count: display(p, count)}

		var overMajority []int
		for _, cand := range candidates {
			if p.Gt(count[cand], half) {
				overMajority = append(overMajority, cand)
			}
		}
		if len(overMajority) > 0 {
			winner, note := resolver.ResolveStrong(overMajority, "bucklin: multiple candidates reached a majority simultaneously")
			if note != "" {
				round.Add(note)
			}
			round.Add("majority reached: elected")
			rounds = append(rounds, round)
			return &report.Result{Rounds: rounds, Winners: []int{winner}}
		}

		rounds = append(rounds, round)
	}

	// No majority ever emerged: the final round's plurality leader wins.
	last := rounds[len(rounds)-1]
	ordered := append([]int(nil), candidates...)
	sort.SliceStable(ordered, func(i, j int) bool { return count[ordered[i]].Cmp(count[ordered[j]]) > 0 })
	lead := count[ordered[0]]
	var leaders []int
	for _, cand := range ordered {
		if count[cand].Cmp(lead) == 0 {
			leaders = append(leaders, cand)
		}
	}
	winner, note := resolver.ResolveStrong(leaders, "bucklin: no majority reached, breaking the plurality tie")
	if note != "" {
		last.Add(note)
	}
	last.Add("no majority reached: plurality leader elected")
	return &report.Result{Rounds: rounds, Winners: []int{winner}}
}
