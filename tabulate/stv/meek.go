package stv

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ballotcore/tabulator/ballot"
	"github.com/ballotcore/tabulator/fixedpoint"
	"github.com/ballotcore/tabulator/report"
	"github.com/ballotcore/tabulator/tabulate"
	"github.com/ballotcore/tabulator/tiebreak"
)

// KeepFactorRule selects how a winner's keep factor caps what it draws from
// a ballot passing through it.
type KeepFactorRule int

const (
	// MeekRule keeps a multiplicative fraction of whatever remains on the
	// ballot (remainder *= (1 - keepFactor)), so the fraction ever passed on
	// shrinks every time it crosses a winner.
	MeekRule KeepFactorRule = iota
	// WarrenRule keeps an absolute amount capped at keepFactor, passing the
	// untouched remainder on at full value once that cap is reached.
	WarrenRule
)

// RecursiveConfig configures Meek/Warren and their NZ/QX cousins — the
// latter differ only in the fixedpoint.Prec guard-digit convention the
// caller supplies, not in mechanics, so they share this one engine.
type RecursiveConfig struct {
	Seats    int
	P        *fixedpoint.Prec
	Stops    tabulate.StopConditions
	Rule     KeepFactorRule
	Resolver *tiebreak.Resolver
	Name     string
}

// RecursiveEngine runs the keep-factor ballot-tree methods. Unlike Engine's
// paper pile, every continuing/winning candidate recomputes its count from
// scratch each round by walking every ballot in full — the flat equivalent
// of OpenSTV's cached tree traversal, traded for simplicity since nothing
// here is performance-sensitive the way a hand count is.
type RecursiveEngine struct {
	cfg    RecursiveConfig
	status *tabulate.StatusSet
	papers []paper

	keepFactor []fixedpoint.Value

	totalWeight int
	count       map[int]fixedpoint.Value
	exhausted   fixedpoint.Value
	round       int
	rounds      []*report.Round
	kfHistory   []map[int]fixedpoint.Value
}

// NewRecursive builds a keep-factor engine over a cleaned ballot collection.
func NewRecursive(c *ballot.Collection, cfg RecursiveConfig) *RecursiveEngine {
	n := c.Roster.Len()
	e := &RecursiveEngine{
		cfg:       cfg,
		status:    tabulate.NewStatusSet(n),
		count:     make(map[int]fixedpoint.Value, n),
		exhausted: fixedpoint.Zero(),
	}
	for i := 0; i < n; i++ {
		e.count[i] = fixedpoint.Zero()
	}
	for _, wb := range c.WeightedView() {
		e.papers = append(e.papers, paper{ranking: ballotIndices(wb.Ballot), weight: wb.Weight})
	}
	e.keepFactor = make([]fixedpoint.Value, n)
	for i := 0; i < n; i++ {
		e.keepFactor[i] = cfg.P.One()
	}
	for _, pap := range e.papers {
		e.totalWeight += pap.weight
	}
	return e
}

// recomputeCount walks every ballot in ranking order: a loser is invisible
// (skipped as if never ranked), a continuing candidate has keepFactor ==
// One and so absorbs whatever remains outright, and a winner keeps only
// its keepFactor's share (Meek: a fraction of the remainder; Warren: an
// absolute amount capped at keepFactor), passing the rest to the next name
// on the ballot. Whatever never finds a home is exhausted.
func (e *RecursiveEngine) recomputeCount() {
	p := e.cfg.P
	for c := range e.count {
		e.count[c] = fixedpoint.Zero()
	}
	exhausted := fixedpoint.Zero()

	for _, pap := range e.papers {
		remainder := p.One()
		for _, c := range pap.ranking {
			if e.status.Of(c) == tabulate.Loser {
				continue
			}
			kf := e.keepFactor[c]
			var share fixedpoint.Value
			if e.cfg.Rule == WarrenRule {
				if p.Lt(kf, remainder) {
					share = kf
					remainder = p.Sub(remainder, kf)
				} else {
					share = remainder
					remainder = fixedpoint.Zero()
				}
			} else {
				share = p.Mul(remainder, kf)
				remainder = p.Sub(remainder, share)
			}
			e.count[c] = p.Add(e.count[c], p.Mul(share, p.Fix(int64(pap.weight))))
			if remainder.Sign() == 0 {
				break
			}
		}
		if remainder.Sign() != 0 {
			exhausted = p.Add(exhausted, p.Mul(remainder, p.Fix(int64(pap.weight))))
		}
	}
	e.exhausted = exhausted
}

func (e *RecursiveEngine) declareWinners(threshold fixedpoint.Value) []int {
	p := e.cfg.P
	var declared []int
	for _, c := range e.status.Continuing() {
		if p.Ge(e.count[c], threshold) {
			declared = append(declared, c)
		}
	}
	sort.SliceStable(declared, func(i, j int) bool { return p.Gt(e.count[declared[i]], e.count[declared[j]]) })
	for _, c := range declared {
		if p.Gt(e.count[c], threshold) {
			e.status.Set(c, tabulate.WinnerOver)
		} else {
			e.status.Set(c, tabulate.WinnerEven)
		}
	}
	return declared
}

func (e *RecursiveEngine) totalSurplus(threshold fixedpoint.Value) fixedpoint.Value {
	p := e.cfg.P
	total := fixedpoint.Zero()
	for _, c := range e.status.Winners() {
		if e.status.Of(c) == tabulate.WinnerOver && p.Gt(e.count[c], threshold) {
			total = p.Add(total, p.Sub(e.count[c], threshold))
		}
	}
	return total
}

// updateKeepFactors ceils each over-threshold winner's keep factor down to
// threshold/count of its current value, leaving
// continuing candidates (keepFactor == One) and already-settled winners
// untouched.
func (e *RecursiveEngine) updateKeepFactors(threshold fixedpoint.Value) {
	p := e.cfg.P
	for _, c := range e.status.Winners() {
		if e.status.Of(c) == tabulate.WinnerOver && p.Gt(e.count[c], threshold) {
			e.keepFactor[c] = p.MulDivCeil(e.keepFactor[c], threshold, e.count[c])
		}
	}
}

func (e *RecursiveEngine) cloneKeepFactor() map[int]fixedpoint.Value {
	out := make(map[int]fixedpoint.Value, len(e.keepFactor))
	for i, v := range e.keepFactor {
		out[i] = v
	}
	return out
}

func kfEqual(a, b map[int]fixedpoint.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for c, v := range a {
		if v.Cmp(b[c]) != 0 {
			return false
		}
	}
	return true
}

// stuck reports a non-monotone-drift stable state: the last two recorded
// keep-factor snapshots are identical, meaning another surplus round would
// make no further progress (the non-monotone-drift guard).
func (e *RecursiveEngine) stuck() bool {
	n := len(e.kfHistory)
	return n >= 2 && kfEqual(e.kfHistory[n-1], e.kfHistory[n-2])
}

// sureLosers mirrors Engine.sureLosers for the recursive count: walk
// continuing candidates from the lowest count up, clustering ties,
// accumulating while the pending surplus can't possibly lift the next
// cluster above the one below it.
func (e *RecursiveEngine) sureLosers(pendingSurplus fixedpoint.Value) []int {
	p := e.cfg.P
	continuing := append([]int(nil), e.status.Continuing()...)
	sort.SliceStable(continuing, func(i, j int) bool { return p.Lt(e.count[continuing[i]], e.count[continuing[j]]) })

	maxSize := len(e.status.Continuing()) + len(e.status.Winners()) - e.cfg.Seats
	if maxSize < 0 {
		maxSize = 0
	}

	var accumulated []int
	s := pendingSurplus
	for idx := 0; idx < len(continuing); {
		j := idx
		clusterVal := e.count[continuing[idx]]
		for j < len(continuing) && p.Eq(e.count[continuing[j]], clusterVal) {
			j++
		}
		cluster := continuing[idx:j]

		if len(accumulated)+len(cluster) > maxSize {
			break
		}
		boundary := false
		if j < len(continuing) {
			boundary = p.Lt(s, e.count[continuing[j]])
		} else {
			boundary = true
		}
		if !boundary {
			break
		}
		for _, c := range cluster {
			s = p.Add(s, e.count[c])
		}
		accumulated = append(accumulated, cluster...)
		idx = j
	}
	return accumulated
}

func (e *RecursiveEngine) roundHistory() []tiebreak.RoundCounts {
	history := make([]tiebreak.RoundCounts, 0, len(e.rounds))
	for _, r := range e.rounds {
		rc := make(tiebreak.RoundCounts, len(r.Count))
		for c, v := range r.Count {
			rc[c] = v.IntPart()
		}
		history = append(history, rc)
	}
	return history
}

func (e *RecursiveEngine) eliminateWeakest() []int {
	p := e.cfg.P
	continuing := append([]int(nil), e.status.Continuing()...)
	if len(continuing) == 0 {
		return nil
	}
	sort.SliceStable(continuing, func(i, j int) bool { return p.Lt(e.count[continuing[i]], e.count[continuing[j]]) })
	low := e.count[continuing[0]]
	var tied []int
	for _, c := range continuing {
		if p.Eq(e.count[c], low) {
			tied = append(tied, c)
		}
	}
	if len(tied) == 1 {
		return tied
	}
	loser, _ := e.cfg.Resolver.ResolveWeak(tied, e.roundHistory(), "meek: choosing the weakest candidate to eliminate")
	return []int{loser}
}

func (e *RecursiveEngine) eliminate(losers []int) {
	for _, c := range losers {
		e.status.Set(c, tabulate.Loser)
	}
}

func (e *RecursiveEngine) displayKeepFactor() map[int]decimal.Decimal {
	out := make(map[int]decimal.Decimal, len(e.keepFactor))
	for c, v := range e.keepFactor {
		out[c] = e.cfg.P.Display(v)
	}
	return out
}

// Run executes the recursive keep-factor loop to completion.
func (e *RecursiveEngine) Run() *report.Result {
	for {
		e.recomputeCount()
		threshold := tabulate.MeekThreshold.Compute(e.cfg.P, e.totalWeight, e.cfg.Seats, e.exhausted)

		round := &report.Round{
			Index:      e.round,
			Threshold:  e.cfg.P.Display(threshold),
			HasThresh:  true,
			KeepFactor: e.displayKeepFactor(),
		}
		if e.round == 0 {
			round.Action = report.Action{Kind: report.First}
		}

		if declared := e.declareWinners(threshold); len(declared) > 0 {
			round.Add("winners declared: " + formatSet(declared))
		}
		round.Count = displayCounts(e.cfg.P, e.count)
		round.Exhausted = e.cfg.P.Display(e.exhausted)

		continuingCount := len(e.status.Continuing())
		seatsRemaining := e.cfg.Seats - len(e.status.Winners())
		if fired, stop, declareRemaining := e.cfg.Stops.Evaluate(continuingCount, seatsRemaining); stop {
			round.Add("stop condition: " + fired.String())
			if declareRemaining {
				for _, c := range e.status.Continuing() {
					e.status.Set(c, tabulate.WinnerEven)
				}
			}
			e.rounds = append(e.rounds, round)
			break
		}

		surplus := e.totalSurplus(threshold)
		stuck := e.stuck()
		// Below-limit surplus (less than one raw unit) is treated as no
		// surplus at all, matching Meek's surplusLimit of 1 lsb.
		belowLimit := surplus.Cmp(fixedpoint.FromRaw(1)) < 0
		blocked := len(e.sureLosers(surplus)) != 0

		if !belowLimit && !blocked && !stuck {
			e.updateKeepFactors(threshold)
			round.HasSurplus = true
			round.Surplus = e.cfg.P.Display(surplus)
			round.Action = report.Action{Kind: report.Surplus}
			round.Add("surplus transferred via keep-factor update")
			e.kfHistory = append(e.kfHistory, e.cloneKeepFactor())
			e.rounds = append(e.rounds, round)
			e.round++
			continue
		}

		var losers []int
		if stuck {
			losers = e.eliminateWeakest()
			round.Add("candidates tied within precision of computation")
		} else {
			losers = e.sureLosers(fixedpoint.Zero())
			if len(losers) == 0 {
				losers = e.eliminateWeakest()
			}
		}
		if len(losers) == 0 {
			e.rounds = append(e.rounds, round)
			break
		}
		round.Action = report.Action{Kind: report.Eliminate, Losers: losers}
		round.Add("eliminated")
		e.eliminate(losers)
		e.kfHistory = append(e.kfHistory, e.cloneKeepFactor())
		e.rounds = append(e.rounds, round)
		e.round++
	}

	return &report.Result{Rounds: e.rounds, Winners: e.status.Winners()}
}

func recursiveStops() tabulate.StopConditions {
	return tabulate.StopConditions{tabulate.KnowWinners, tabulate.NSeats, tabulate.ContinuingEmpty}
}

// NewMeek runs Meek STV: multiplicative keep factors, Droop-Dynamic-
// Fractional threshold.
func NewMeek(c *ballot.Collection, p *fixedpoint.Prec, seats int, resolver *tiebreak.Resolver) *report.Result {
	return NewRecursive(c, RecursiveConfig{
		Seats: seats, P: p, Stops: recursiveStops(), Rule: MeekRule, Resolver: resolver, Name: "meek",
	}).Run()
}

// NewWarren runs Warren STV: same framework as Meek, but a winner's keep
// factor caps an absolute amount rather than a fraction of the remainder.
func NewWarren(c *ballot.Collection, p *fixedpoint.Prec, seats int, resolver *tiebreak.Resolver) *report.Result {
	return NewRecursive(c, RecursiveConfig{
		Seats: seats, P: p, Stops: recursiveStops(), Rule: WarrenRule, Resolver: resolver, Name: "warren",
	}).Run()
}

// NewMeekNZ runs the New Zealand local-elections variant of Meek STV. Its
// distinguishing rule — a coarser rounding convention at the final display
// step — is entirely a property of the fixedpoint.Prec the caller builds
// (precision/guard), not of the count mechanics, so it shares NewMeek's
// engine.
func NewMeekNZ(c *ballot.Collection, p *fixedpoint.Prec, seats int, resolver *tiebreak.Resolver) *report.Result {
	return NewRecursive(c, RecursiveConfig{
		Seats: seats, P: p, Stops: recursiveStops(), Rule: MeekRule, Resolver: resolver, Name: "meek-nz",
	}).Run()
}

// NewMeekQX runs the quasi-exact Meek variant: identical mechanics to
// NewMeek, relying on the caller's Prec guard digits for the epsilon
// comparisons that let Eq/Lt treat numerically-noisy values as equal.
func NewMeekQX(c *ballot.Collection, p *fixedpoint.Prec, seats int, resolver *tiebreak.Resolver) *report.Result {
	return NewRecursive(c, RecursiveConfig{
		Seats: seats, P: p, Stops: recursiveStops(), Rule: MeekRule, Resolver: resolver, Name: "meek-qx",
	}).Run()
}
