package methods

import (
	"github.com/shopspring/decimal"

	"github.com/ballotcore/tabulator/ballot"
	"github.com/ballotcore/tabulator/fixedpoint"
	"github.com/ballotcore/tabulator/report"
	"github.com/ballotcore/tabulator/tiebreak"
)

// Approval tabulates the Approval method: every ranking on a
// ballot contributes its weight to the named candidate (an overvote
// position, if the collection wasn't cleaned to remove them, contributes
// to every named candidate — an approval of both). Winners are the top-N
// candidates by count.
func Approval(c *ballot.Collection, p *fixedpoint.Prec, seats int, resolver *tiebreak.Resolver) *report.Result {
	candidates := activeCandidates(c.Roster.Len())
	count := make(map[int]fixedpoint.Value, len(candidates))
	for _, cand := range candidates {
		count[cand] = fixedpoint.Zero()
	}

	for _, wb := range c.WeightedView() {
		weight := p.Fix(int64(wb.Weight))
		for _, r := range wb.Ballot.Rankings {
			for _, cand := range r.Candidates {
				count[cand] = p.Add(count[cand], weight)
			}
		}
	}

	winners, narrative := selectTopN(p, candidates, count, seats, resolver, "approval: who wins the final seat")

	round := &report.Round{Index: 0, Action: report.Action{Kind: report.First}, Count: display(p, count)}
	round.Narrative = narrative
	return &report.Result{Rounds: []*report.Round{round}, Winners: winners}
}

// display renders a per-candidate fixed-point count map into the
// decimal.Decimal form report.Round exposes to external formatters.
func display(p *fixedpoint.Prec, count map[int]fixedpoint.Value) map[int]decimal.Decimal {
	out := make(map[int]decimal.Decimal, len(count))
	for c, v := range count {
		out[c] = p.Display(v)
	}
	return out
}
