package stv

import (
	"github.com/ballotcore/tabulator/ballot"
	"github.com/ballotcore/tabulator/fixedpoint"
	"github.com/ballotcore/tabulator/report"
	"github.com/ballotcore/tabulator/tabulate"
	"github.com/ballotcore/tabulator/tiebreak"
)

func noSurplusStops() tabulate.StopConditions {
	return tabulate.StopConditions{tabulate.KnowWinners, tabulate.ContinuingEmpty}
}

func stvStops() tabulate.StopConditions {
	return tabulate.StopConditions{tabulate.KnowWinners, tabulate.NSeats, tabulate.ContinuingEmpty}
}

// NewIRV runs single-winner Instant-Runoff Voting: no surplus transfer
// (there's only ever one seat), the bottom candidate eliminated one at a
// time until a candidate reaches the Droop threshold.
func NewIRV(c *ballot.Collection, p *fixedpoint.Prec, resolver *tiebreak.Resolver) *report.Result {
	return New(c, Config{
		Seats:     1,
		P:         p,
		Threshold: tabulate.DefaultSTVThreshold,
		Stops:     noSurplusStops(),
		Transfer:  TransferNone,
		Resolver:  resolver,
		Name:      "irv",
	}).Run()
}

// NewCoombs runs Coombs' method: same no-surplus mechanics as IRV, but
// each round eliminates whoever holds the most LAST-preference votes among
// continuing candidates rather than the fewest first preferences.
func NewCoombs(c *ballot.Collection, p *fixedpoint.Prec, resolver *tiebreak.Resolver) *report.Result {
	return New(c, Config{
		Seats:         1,
		P:             p,
		Threshold:     tabulate.DefaultSTVThreshold,
		Stops:         noSurplusStops(),
		Transfer:      TransferNone,
		LoserSelector: coombsLoserSelector,
		Resolver:      resolver,
		Name:          "coombs",
	}).Run()
}

// coombsLoserSelector eliminates the continuing candidate(s) ranked last by
// the most ballots — the candidate with the greatest aggregate last-place
// weight among papers that still carry a continuing preference.
func coombsLoserSelector(e *Engine) []int {
	p := e.cfg.P
	continuing := e.status.Continuing()
	if len(continuing) == 0 {
		return nil
	}
	last := make(map[int]fixedpoint.Value, len(continuing))
	for _, c := range continuing {
		last[c] = fixedpoint.Zero()
	}
	for i, pap := range e.papers {
		lastContinuing := -1
		for _, cand := range pap.ranking {
			if e.status.Of(cand) == tabulate.Continuing {
				lastContinuing = cand
			}
		}
		if lastContinuing >= 0 {
			last[lastContinuing] = p.Add(last[lastContinuing], p.Mul(p.Fix(int64(pap.weight)), e.tv[i]))
		}
	}

	top := last[continuing[0]]
	for _, c := range continuing {
		if p.Gt(last[c], top) {
			top = last[c]
		}
	}
	var tied []int
	for _, c := range continuing {
		if p.Eq(last[c], top) {
			tied = append(tied, c)
		}
	}
	if len(tied) == 1 {
		return tied
	}
	loser, _ := e.cfg.Resolver.ResolveStrong(tied, "coombs: most last-place votes tied")
	return []int{loser}
}

// NewSanFrancisco runs San Francisco RCV: single-winner, no-surplus,
// mechanically identical to IRV (the method's distinguishing feature —
// truncating ballots at an overvote — lives in the ballot-cleaning pass,
// not the tabulator).
func NewSanFrancisco(c *ballot.Collection, p *fixedpoint.Prec, resolver *tiebreak.Resolver) *report.Result {
	return NewIRV(c, p, resolver)
}

// NewSupplementalVote runs the Supplemental Vote as a plain NewIRV count:
// single winner, no surplus. Ballots are not truncated to a first and
// second choice; every ranking on a ballot is used.
func NewSupplementalVote(c *ballot.Collection, p *fixedpoint.Prec, resolver *tiebreak.Resolver) *report.Result {
	return NewIRV(c, p, resolver)
}

// NewScottish runs Weighted-Inclusive Gregory STV the way Scottish local
// government elections use it: Droop-Static-Whole threshold, no delayed
// transfer, one candidate eliminated at a time.
func NewScottish(c *ballot.Collection, p *fixedpoint.Prec, seats int, resolver *tiebreak.Resolver) *report.Result {
	return New(c, Config{
		Seats:     seats,
		P:         p,
		Threshold: tabulate.DefaultSTVThreshold,
		Stops:     stvStops(),
		Transfer:  TransferWIGM,
		Resolver:  resolver,
		Name:      "scottish",
	}).Run()
}

// NewFTSTV runs the Fair Tasmanian Senate-style weighted-inclusive variant
// sharing Scottish's mechanics.
func NewFTSTV(c *ballot.Collection, p *fixedpoint.Prec, seats int, resolver *tiebreak.Resolver) *report.Result {
	return NewScottish(c, p, seats, resolver)
}

// NewGPCA2000 runs the Green Party of California 2000-rules STV, weighted
// inclusive with Hare quota.
func NewGPCA2000(c *ballot.Collection, p *fixedpoint.Prec, seats int, resolver *tiebreak.Resolver) *report.Result {
	return New(c, Config{
		Seats:     seats,
		P:         p,
		Threshold: tabulate.ThresholdPolicy{Base: tabulate.Hare, Dynamics: tabulate.Static, Form: tabulate.Whole},
		Stops:     stvStops(),
		Transfer:  TransferWIGM,
		Resolver:  resolver,
		Name:      "gpca2000",
	}).Run()
}

// NewMinneapolis runs Minneapolis's weighted-inclusive STV. strictImpossibility
// resolves the open question about the statute's ambiguous
// "mathematically impossible to be elected" test: true (the default)
// matches the stricter "surpass" reading the reference implementation uses.
func NewMinneapolis(c *ballot.Collection, p *fixedpoint.Prec, seats int, strictImpossibility bool, resolver *tiebreak.Resolver) *report.Result {
	elim := ElimLosers
	if !strictImpossibility {
		elim = ElimLosersERS97
	}
	return New(c, Config{
		Seats:       seats,
		P:           p,
		Threshold:   tabulate.DefaultSTVThreshold,
		Stops:       stvStops(),
		Transfer:    TransferWIGM,
		Elimination: elim,
		// The sure-loser walk reads only EqualSureLoser to pick <= over <.
		EqualSureLoser: !strictImpossibility,
		Resolver:       resolver,
		Name:           "minneapolis",
	}).Run()
}

// NewCambridge runs Cambridge, Massachusetts' order-dependent STV: whole
// ballots drawn by Cincinnati decimation, losers' ballots redistributed one
// at a time.
func NewCambridge(c *ballot.Collection, p *fixedpoint.Prec, seats int, resolver *tiebreak.Resolver) *report.Result {
	return New(c, Config{
		Seats:          seats,
		P:              p,
		Threshold:      tabulate.DefaultSTVThreshold,
		Stops:          stvStops(),
		Transfer:       TransferWholeVote,
		WholeVoteRule:  CincinnatiRule,
		OrderDependent: true,
		Resolver:       resolver,
		Name:           "cambridge",
	}).Run()
}

// NewRandomTransfer runs order-dependent STV where surplus ballots are
// drawn by plain positional order rather than decimation.
func NewRandomTransfer(c *ballot.Collection, p *fixedpoint.Prec, seats int, resolver *tiebreak.Resolver) *report.Result {
	return New(c, Config{
		Seats:          seats,
		P:              p,
		Threshold:      tabulate.DefaultSTVThreshold,
		Stops:          stvStops(),
		Transfer:       TransferWholeVote,
		WholeVoteRule:  RandomTransferRule,
		OrderDependent: true,
		Resolver:       resolver,
		Name:           "random-transfer",
	}).Run()
}

// NewERS97 runs the Electoral Reform Society 1997 rules: Gregory
// last-batch transfer, delayed surplus transfer behind the sure-loser
// test, using the <= (rather than strict <) sure-loser inequality. The
// threshold is the static Droop-Whole quota for the whole count; it is not
// recomputed between rounds. An excluded candidate's papers all move on in
// a single round, not batch by batch.
func NewERS97(c *ballot.Collection, p *fixedpoint.Prec, seats int, resolver *tiebreak.Resolver) *report.Result {
	return New(c, Config{
		Seats:           seats,
		P:               p,
		Threshold:       tabulate.DefaultSTVThreshold,
		Stops:           stvStops(),
		Transfer:        TransferGregory,
		DelayedTransfer: true,
		Elimination:     ElimLosersERS97,
		EqualSureLoser:  true,
		Resolver:        resolver,
		Name:            "ers97",
	}).Run()
}

// NewNIreland runs the Northern Ireland STV rules: Gregory last-batch
// transfer, delayed surplus transfer and static Droop threshold like
// ERS97, but with the strict < sure-loser inequality.
func NewNIreland(c *ballot.Collection, p *fixedpoint.Prec, seats int, resolver *tiebreak.Resolver) *report.Result {
	return New(c, Config{
		Seats:           seats,
		P:               p,
		Threshold:       tabulate.DefaultSTVThreshold,
		Stops:           stvStops(),
		Transfer:        TransferGregory,
		DelayedTransfer: true,
		Elimination:     ElimLosers,
		Resolver:        resolver,
		Name:            "nireland",
	}).Run()
}
