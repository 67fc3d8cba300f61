package methods

import (
	"github.com/ballotcore/tabulator/ballot"
	"github.com/ballotcore/tabulator/fixedpoint"
	"github.com/ballotcore/tabulator/report"
	"github.com/ballotcore/tabulator/tiebreak"
)

// SNTV tabulates the Single Non-Transferable Vote: only a
// ballot's first active ranking counts, top-N wins.
func SNTV(c *ballot.Collection, p *fixedpoint.Prec, seats int, resolver *tiebreak.Resolver) *report.Result {
	candidates := activeCandidates(c.Roster.Len())
	among := make(map[int]bool, len(candidates))
	for _, cand := range candidates {
		among[cand] = true
	}

	count := make(map[int]fixedpoint.Value, len(candidates))
	for _, cand := range candidates {
		count[cand] = fixedpoint.Zero()
	}
	exhausted := fixedpoint.Zero()

	for _, wb := range c.WeightedView() {
		weight := p.Fix(int64(wb.Weight))
		if cand, ok := ballot.TopChoice(wb.Ballot, among); ok {
			count[cand] = p.Add(count[cand], weight)
		} else {
			exhausted = p.Add(exhausted, weight)
		}
	}

	winners, narrative := selectTopN(p, candidates, count, seats, resolver, "sntv: who wins the final seat")

	round := &report.Round{
		Index:     0,
		Action:    report.Action{Kind: report.First},
		Count:     display(p, count),
		Exhausted: p.Display(exhausted),
		Narrative: narrative,
	}
	return &report.Result{Rounds: []*report.Round{round}, Winners: winners}
}
