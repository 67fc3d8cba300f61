package methods

import (
	"github.com/ballotcore/tabulator/ballot"
	"github.com/ballotcore/tabulator/fixedpoint"
	"github.com/ballotcore/tabulator/report"
	"github.com/ballotcore/tabulator/tiebreak"
)

// Borda tabulates the Borda count: a ballot ranking
// [c0,c1,...,ck] among M candidates gives the candidate at position i a
// score of weight*(M-i-1). With completion enabled, every unranked
// candidate shares the remaining Borda mass equally — (M-k-1)/2 points
// each; without it, that mass is recorded as exhausted. A half-point needs
// to be representable, so Borda always counts at precision >= 1 regardless
// of the caller's display precision.
func Borda(c *ballot.Collection, seats int, precision int, completion bool, resolver *tiebreak.Resolver) *report.Result {
	if precision < 1 {
		precision = 1
	}
	bp := fixedpoint.New(precision, 0)

	m := c.Roster.Len()
	candidates := activeCandidates(m)
	count := make(map[int]fixedpoint.Value, m)
	for _, cand := range candidates {
		count[cand] = fixedpoint.Zero()
	}
	exhausted := fixedpoint.Zero()

	for _, wb := range c.WeightedView() {
		weight := bp.Fix(int64(wb.Weight))
		ranked := make([]int, 0, len(wb.Ballot.Rankings))
		for _, r := range wb.Ballot.Rankings {
			if cand, ok := r.Single(); ok {
				ranked = append(ranked, cand)
			}
		}

		for i, cand := range ranked {
			points := bp.Fix(int64(m - i - 1))
			count[cand] = bp.Add(count[cand], bp.Mul(weight, points))
		}

		k := len(ranked)
		remaining := m - k
		if remaining <= 0 {
			continue
		}
		rankedSet := make(map[int]bool, k)
		for _, cand := range ranked {
			rankedSet[cand] = true
		}

		share := bp.Div(bp.Fix(int64(m-k-1)), bp.Fix(2))
		if completion {
			for _, cand := range candidates {
				if rankedSet[cand] {
					continue
				}
				count[cand] = bp.Add(count[cand], bp.Mul(weight, share))
			}
		} else {
			mass := bp.Mul(weight, bp.Mul(share, bp.Fix(int64(remaining))))
			exhausted = bp.Add(exhausted, mass)
		}
	}

	winners, narrative := selectTopN(bp, candidates, count, seats, resolver, "borda: who wins the final seat")

	round := &report.Round{
		Index:     0,
		Action:    report.Action{Kind: report.First},
		Count:     display(bp, count),
		Exhausted: bp.Display(exhausted),
		Narrative: narrative,
	}
	return &report.Result{Rounds: []*report.Round{round}, Winners: winners}
}
