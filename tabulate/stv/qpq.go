package stv

import (
	"github.com/ballotcore/tabulator/ballot"
	"github.com/ballotcore/tabulator/fixedpoint"
	"github.com/ballotcore/tabulator/report"
	"github.com/ballotcore/tabulator/tabulate"
	"github.com/ballotcore/tabulator/tiebreak"
)

// QPQConfig configures Woodall's Quota Preferential by Quotient method:
// elect the continuing candidate whose quotient clears quota, or else
// exclude the lowest-quotient continuing candidate,
// optionally restarting the whole count from scratch (winners returned to
// continuing) after every exclusion.
type QPQConfig struct {
	Seats    int
	P        *fixedpoint.Prec
	Resolver *tiebreak.Resolver
	RestartAfterExclusion bool // Woodall's "restart after exclusion" option
	Name     string
}

// QPQEngine runs the quotient-based loop. Unlike the paper-pile and
// keep-factor engines, a ballot's history is a single scalar — its
// cumulative contribution toward already-elected candidates — rather than
// a transfer value or keep-factor walk, grounded directly on QPQ.py's
// contrib/tc/vc bookkeeping.
type QPQEngine struct {
	cfg      QPQConfig
	status   *tabulate.StatusSet
	weighted []ballot.WeightedBallot
	votes    map[int][]int
	contrib  []fixedpoint.Value
	round    int
	rounds   []*report.Round
}

// NewQPQEngine builds an engine over a cleaned ballot collection, assigning
// every ballot to its first continuing choice.
func NewQPQEngine(c *ballot.Collection, cfg QPQConfig) *QPQEngine {
	wv := c.WeightedView()
	e := &QPQEngine{
		cfg:      cfg,
		status:   tabulate.NewStatusSet(c.Roster.Len()),
		weighted: wv,
		contrib:  make([]fixedpoint.Value, len(wv)),
	}
	for i := range e.contrib {
		e.contrib[i] = fixedpoint.Zero()
	}
	e.assignInitial()
	return e
}

func (e *QPQEngine) assignInitial() {
	e.votes = make(map[int][]int)
	among := e.status.ContinuingSet()
	for i, wb := range e.weighted {
		if c, ok := ballot.TopChoice(wb.Ballot, among); ok {
			e.votes[c] = append(e.votes[c], i)
		}
	}
}

// reassign sends ballot i to its next continuing choice, dropping it if
// none remains.
func (e *QPQEngine) reassign(i int) {
	among := e.status.ContinuingSet()
	if c, ok := ballot.TopChoice(e.weighted[i].Ballot, among); ok {
		e.votes[c] = append(e.votes[c], i)
	}
}

// restart returns every winner to continuing, zeroes every ballot's
// contribution, and rebuilds the vote assignment from scratch — Woodall's
// "restart after exclusion" option.
func (e *QPQEngine) restart() {
	for c := 0; c < e.status.Len(); c++ {
		if e.status.Of(c).IsWinner() {
			e.status.Set(c, tabulate.Continuing)
		}
	}
	for i := range e.contrib {
		e.contrib[i] = fixedpoint.Zero()
	}
	e.assignInitial()
}

// computeRound derives this round's per-candidate quotient (vc/(1+tc)) and
// quota (va/(1+seats-tx)) from the current vote assignment and ballot
// contributions.
func (e *QPQEngine) computeRound() (map[int]fixedpoint.Value, fixedpoint.Value) {
	p := e.cfg.P
	totalContrib := fixedpoint.Zero()
	for _, v := range e.contrib {
		totalContrib = p.Add(totalContrib, v)
	}

	continuing := e.status.Continuing()
	quotient := make(map[int]fixedpoint.Value, len(continuing))
	va := fixedpoint.Zero()
	activeContrib := fixedpoint.Zero()
	for _, c := range continuing {
		vc := fixedpoint.Zero()
		tc := fixedpoint.Zero()
		for _, i := range e.votes[c] {
			vc = p.Add(vc, p.Fix(int64(e.weighted[i].Weight)))
			tc = p.Add(tc, e.contrib[i])
		}
		quotient[c] = p.Div(vc, p.Add(p.One(), tc))
		va = p.Add(va, vc)
		activeContrib = p.Add(activeContrib, tc)
	}
	tx := p.Sub(totalContrib, activeContrib)
	quota := p.Div(va, p.Sub(p.Fix(int64(1+e.cfg.Seats)), tx))
	return quotient, quota
}

func (e *QPQEngine) bestQuotient(quotient map[int]fixedpoint.Value) ([]int, fixedpoint.Value) {
	p := e.cfg.P
	continuing := e.status.Continuing()
	if len(continuing) == 0 {
		return nil, fixedpoint.Zero()
	}
	best := quotient[continuing[0]]
	for _, c := range continuing {
		if p.Gt(quotient[c], best) {
			best = quotient[c]
		}
	}
	var tied []int
	for _, c := range continuing {
		if p.Eq(quotient[c], best) {
			tied = append(tied, c)
		}
	}
	return tied, best
}

// elect marks winner settled, records each of its current ballots'
// contribution as weight/quotient, and passes each ballot on to its next
// continuing choice.
func (e *QPQEngine) elect(winner int, quotient fixedpoint.Value) {
	p := e.cfg.P
	e.status.Set(winner, tabulate.WinnerEven)
	slots := e.votes[winner]
	delete(e.votes, winner)
	inv := p.Div(p.One(), quotient)
	for _, i := range slots {
		e.contrib[i] = p.Mul(p.Fix(int64(e.weighted[i].Weight)), inv)
		e.reassign(i)
	}
}

// eliminateLowest excludes whichever continuing candidate has the smallest
// quotient, breaking ties at strong tie-break (QPQ treats every tie as
// strong; step 5b).
func (e *QPQEngine) eliminateLowest(quotient map[int]fixedpoint.Value) (int, string) {
	p := e.cfg.P
	continuing := e.status.Continuing()
	low := quotient[continuing[0]]
	for _, c := range continuing {
		if p.Lt(quotient[c], low) {
			low = quotient[c]
		}
	}
	var tied []int
	for _, c := range continuing {
		if p.Eq(quotient[c], low) {
			tied = append(tied, c)
		}
	}
	loser, note := e.cfg.Resolver.ResolveStrong(tied, "qpq: multiple candidates tied for the lowest quotient")
	e.status.Set(loser, tabulate.Loser)
	slots := e.votes[loser]
	delete(e.votes, loser)
	for _, i := range slots {
		e.reassign(i)
	}
	return loser, note
}

// Run executes Woodall's elect-or-exclude loop until no continuing
// candidate remains.
func (e *QPQEngine) Run() *report.Result {
	p := e.cfg.P
	restartPending := false

	for len(e.status.Continuing()) > 0 {
		if restartPending {
			e.restart()
			restartRound := &report.Round{Index: e.round, Action: report.Action{Kind: report.Restart}}
			restartRound.Add("vote tally restarted after exclusion")
			e.rounds = append(e.rounds, restartRound)
			e.round++
			restartPending = false
		}

		round := &report.Round{Index: e.round}
		if e.round == 0 {
			round.Action = report.Action{Kind: report.First}
		}

		quotient, quota := e.computeRound()
		round.Count = displayCounts(p, quotient)
		round.Threshold = p.Display(quota)
		round.HasThresh = true

		best, bestVal := e.bestQuotient(quotient)
		if len(best) > 0 && p.Gt(bestVal, quota) {
			winner, note := e.cfg.Resolver.ResolveStrong(best, "qpq: multiple candidates tied for the highest quotient")
			if note != "" {
				round.Add(note)
			}
			e.elect(winner, quotient[winner])
			round.Action = report.Action{Kind: report.Surplus, Transferor: winner}
			round.Add("elected: quotient exceeded quota")
		} else {
			loser, note := e.eliminateLowest(quotient)
			if note != "" {
				round.Add(note)
			}
			round.Action = report.Action{Kind: report.Eliminate, Losers: []int{loser}}
			round.Add("excluded: lowest quotient among continuing")
			if e.cfg.RestartAfterExclusion {
				restartPending = true
			}
		}

		e.rounds = append(e.rounds, round)
		e.round++
	}

	return &report.Result{Rounds: e.rounds, Winners: e.status.Winners()}
}

// NewQPQ runs Woodall's QPQ method.
func NewQPQ(c *ballot.Collection, p *fixedpoint.Prec, seats int, restartAfterExclusion bool, resolver *tiebreak.Resolver) *report.Result {
	return NewQPQEngine(c, QPQConfig{Seats: seats, P: p, Resolver: resolver, RestartAfterExclusion: restartAfterExclusion, Name: "qpq"}).Run()
}
