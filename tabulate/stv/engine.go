// Package stv implements the Single-Transferable-Vote family: a
// single shared round loop (the engine below) parameterised by small
// composable traits — a surplus-transfer policy and a loser-selection
// policy — rather than one bespoke type per named variant. The recursive keep-factor methods
// (Meek/Warren and their NZ/quasi-exact cousins) re-walk every ballot each
// round under per-winner keep factors instead of moving papers between
// piles, and live in meek.go; QPQ's quotient mechanics don't fit either
// shape and live in qpq.go.
package stv

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ballotcore/tabulator/ballot"
	"github.com/ballotcore/tabulator/fixedpoint"
	"github.com/ballotcore/tabulator/report"
	"github.com/ballotcore/tabulator/tabulate"
	"github.com/ballotcore/tabulator/tiebreak"
)

// TransferKind selects how a winner's surplus moves on.
type TransferKind int

const (
	// TransferNone never transfers a surplus; used by the no-surplus
	// family (IRV, Coombs, SanFrancisco, SupplementalVote) where only
	// elimination moves ballots.
	TransferNone TransferKind = iota
	// TransferWholeVote draws exactly count-threshold individual papers
	// by positional order (Random-Transfer) or Cincinnati decimation
	// (Cambridge); the rest stay with the winner permanently.
	TransferWholeVote
	// TransferGregory moves only the transferor's last-received batch, at
	// a value capped so the total transferred never exceeds the surplus.
	TransferGregory
	// TransferWIGM moves the winner's entire pile at once, each paper's
	// value scaled by surplus/count (Scottish/FTSTV/Minneapolis/GPCA2000).
	TransferWIGM
)

// WholeVoteRule distinguishes the two TransferWholeVote draw orders.
type WholeVoteRule int

const (
	RandomTransferRule WholeVoteRule = iota
	CincinnatiRule
)

// ElimPolicy selects which continuing candidates an elimination round
// drops.
type ElimPolicy int

const (
	ElimNone ElimPolicy = iota
	ElimZero
	ElimCutoff
	ElimLosers
	ElimLosersERS97
)

// LoserSelector picks this round's elimination candidates from the
// continuing set, given the engine's current state. The default (see
// defaultLoserSelector) implements the ElimPolicy vocabulary; Coombs
// overrides it with a most-last-preference rule.
type LoserSelector func(e *Engine) []int

// Config is a single STV variant: a value combining traits instead of a
// dedicated type per named method.
type Config struct {
	Seats           int
	P               *fixedpoint.Prec
	Threshold       tabulate.ThresholdPolicy
	Stops           tabulate.StopConditions
	DelayedTransfer bool
	Transfer        TransferKind
	WholeVoteRule   WholeVoteRule
	OrderDependent  bool
	Elimination     ElimPolicy
	Cutoff          int
	EqualSureLoser  bool // ERS97's sure-loser test uses <= instead of <
	LoserSelector   LoserSelector
	Resolver        *tiebreak.Resolver
	Name            string
}

// paper is one unit of transferable value: a cleaned ranking (candidate
// indices only, after withdrawal/skip/overvote handling) plus the weight
// of identical ballots it represents. Order-independent variants build one
// paper per unique ballot slot (weight = occurrence count); order-dependent
// variants (Cambridge/Random-Transfer) build one paper per position with
// weight 1, so whole individual ballots can be drawn.
type paper struct {
	ranking []int
	weight  int
}

// Engine runs the shared round loop over a pile of papers.
type Engine struct {
	cfg    Config
	status *tabulate.StatusSet
	papers []paper
	tv     []fixedpoint.Value // transfer value per paper
	pos    []int              // current ranking index per paper (-1 before first assignment)

	pile       map[int][]int // candidate -> paper indices currently held
	batchStart map[int]int   // candidate -> index into pile[c] where the last batch begins

	totalWeight int
	count       map[int]fixedpoint.Value
	exhausted   fixedpoint.Value
	round       int
	rounds      []*report.Round
}

// New builds an engine over a cleaned ballot collection.
func New(c *ballot.Collection, cfg Config) *Engine {
	n := c.Roster.Len()
	e := &Engine{
		cfg:        cfg,
		status:     tabulate.NewStatusSet(n),
		pile:       make(map[int][]int),
		batchStart: make(map[int]int),
		count:      make(map[int]fixedpoint.Value, n),
		exhausted:  fixedpoint.Zero(),
	}
	for i := 0; i < n; i++ {
		e.count[i] = fixedpoint.Zero()
	}

	if cfg.OrderDependent {
		for _, b := range c.PositionalView() {
			e.papers = append(e.papers, paper{ranking: ballotIndices(b), weight: 1})
		}
	} else {
		for _, wb := range c.WeightedView() {
			e.papers = append(e.papers, paper{ranking: ballotIndices(wb.Ballot), weight: wb.Weight})
		}
	}
	e.tv = make([]fixedpoint.Value, len(e.papers))
	e.pos = make([]int, len(e.papers))
	for i := range e.papers {
		e.tv[i] = cfg.P.One()
		e.pos[i] = -1
		e.totalWeight += e.papers[i].weight
	}
	return e
}

func ballotIndices(b ballot.Ballot) []int {
	out := make([]int, 0, len(b.Rankings))
	for _, r := range b.Rankings {
		if cand, ok := r.Single(); ok {
			out = append(out, cand)
		}
	}
	return out
}

// assign finds the next continuing candidate on paper i's ranking, starting
// just after its current position, and adds it to that candidate's pile.
// The paper is exhausted if no continuing candidate remains on it.
func (e *Engine) assign(i int) {
	r := e.papers[i].ranking
	for j := e.pos[i] + 1; j < len(r); j++ {
		c := r[j]
		if e.status.Of(c) == tabulate.Continuing {
			e.pos[i] = j
			e.pile[c] = append(e.pile[c], i)
			return
		}
	}
	e.pos[i] = len(r)
}

func (e *Engine) initialTally() {
	for i := range e.papers {
		e.assign(i)
	}
	for _, c := range e.status.Continuing() {
		e.batchStart[c] = 0
	}
}

func (e *Engine) recomputeCount() {
	p := e.cfg.P
	for c := range e.count {
		e.count[c] = fixedpoint.Zero()
	}
	total := fixedpoint.Zero()
	for c, slots := range e.pile {
		for _, i := range slots {
			v := p.Mul(p.Fix(int64(e.papers[i].weight)), e.tv[i])
			e.count[c] = p.Add(e.count[c], v)
			total = p.Add(total, v)
		}
	}
	e.exhausted = p.Sub(p.Fix(int64(e.totalWeight)), total)
}

// candidateThreshold is this round's winning threshold computed over the
// current exhausted value.
func (e *Engine) candidateThreshold() fixedpoint.Value {
	return e.cfg.Threshold.Compute(e.cfg.P, e.totalWeight, e.cfg.Seats, e.exhausted)
}

// declareWinners marks every continuing candidate whose count has reached
// the threshold, returning their candidate indices for the narrative.
func (e *Engine) declareWinners(threshold fixedpoint.Value) []int {
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

// sureLosers implements the sure-loser test: walk the continuing
// set from the lowest count upward, accumulating candidates whose combined
// vote plus any pending surplus still can't reach the next cluster's count.
func (e *Engine) sureLosers(pendingSurplus fixedpoint.Value) []int {
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
		// Cluster every candidate tied with continuing[idx].
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
			nextVal := e.count[continuing[j]]
			if e.cfg.EqualSureLoser {
				boundary = p.Le(s, nextVal)
			} else {
				boundary = p.Lt(s, nextVal)
			}
		} else {
			boundary = true // no cluster above: everyone remaining is a sure loser
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

// defaultLoserSelector implements the ElimPolicy vocabulary.
func defaultLoserSelector(e *Engine) []int {
	p := e.cfg.P
	continuing := append([]int(nil), e.status.Continuing()...)
	if len(continuing) == 0 {
		return nil
	}

	switch e.cfg.Elimination {
	case ElimZero:
		if e.round <= 1 {
			var zero []int
			for _, c := range continuing {
				if e.count[c].Sign() == 0 {
					zero = append(zero, c)
				}
			}
			if len(zero) > 0 {
				return zero
			}
		}
	case ElimCutoff:
		if e.round <= 1 {
			var under []int
			cutoff := p.Fix(int64(e.cfg.Cutoff))
			for _, c := range continuing {
				if p.Lt(e.count[c], cutoff) {
					under = append(under, c)
				}
			}
			if len(under) > 0 {
				return under
			}
		}
	case ElimLosers, ElimLosersERS97:
		losers := e.sureLosers(fixedpoint.Zero())
		if len(losers) > 0 {
			return losers
		}
	}

	// Fall through (and ElimNone): drop the single weakest candidate,
	// breaking ties at weak tie-break.
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
	loser, _ := e.cfg.Resolver.ResolveWeak(tied, e.roundHistory(), "stv: choosing the weakest candidate to eliminate")
	return []int{loser}
}

// roundHistory converts past rounds' counts into the integer form
// tiebreak.ResolveWeak compares round by round.
func (e *Engine) roundHistory() []tiebreak.RoundCounts {
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

func (e *Engine) loserSelector() LoserSelector {
	if e.cfg.LoserSelector != nil {
		return e.cfg.LoserSelector
	}
	return defaultLoserSelector
}

// candidateWithSurplus returns a winner still holding an untransferred
// surplus, lowest index first, or -1 if none remain.
func (e *Engine) candidateWithSurplus() int {
	for _, c := range e.status.Winners() {
		if e.status.Of(c) == tabulate.WinnerOver && len(e.pile[c]) > 0 {
			return c
		}
	}
	return -1
}

// transferSurplus moves a winner's surplus onward per the configured
// TransferKind and settles the winner at WinnerEven.
func (e *Engine) transferSurplus(c int, threshold fixedpoint.Value) string {
	p := e.cfg.P
	surplus := p.Sub(e.count[c], threshold)

	switch e.cfg.Transfer {
	case TransferWholeVote:
		e.transferWholeVote(c, surplus, threshold)
	case TransferGregory:
		e.transferGregory(c, surplus, threshold)
	case TransferWIGM:
		e.transferWIGM(c, surplus, threshold)
	}
	e.status.Set(c, tabulate.WinnerEven)
	return "surplus transferred"
}

// transferWIGM moves the winner's whole pile onward, scaling every paper's
// transfer value by surplus/count.
func (e *Engine) transferWIGM(c int, surplus, _ fixedpoint.Value) {
	p := e.cfg.P
	ratio := p.Div(surplus, e.count[c])
	slots := e.pile[c]
	delete(e.pile, c)
	for _, i := range slots {
		e.tv[i] = p.Mul(e.tv[i], ratio)
		e.assign(i)
	}
}

// transferGregory moves only the transferor's last-received batch, capping
// the per-paper value so the transferred total never exceeds the surplus
// (the Gregory last-batch rule).
func (e *Engine) transferGregory(c int, surplus, _ fixedpoint.Value) {
	p := e.cfg.P
	start := e.batchStart[c]
	batch := append([]int(nil), e.pile[c][start:]...)
	rest := append([]int(nil), e.pile[c][:start]...)

	transferableTotal := fixedpoint.Zero()
	var numTransferable int
	for _, i := range batch {
		if e.hasNextContinuing(i) {
			transferableTotal = p.Add(transferableTotal, p.Mul(p.Fix(int64(e.papers[i].weight)), e.tv[i]))
			numTransferable += e.papers[i].weight
		}
	}
	if numTransferable == 0 {
		e.pile[c] = rest
		return
	}
	if p.Gt(transferableTotal, surplus) {
		scaled := p.DivInt(surplus, int64(numTransferable))
		for _, i := range batch {
			if e.hasNextContinuing(i) {
				e.tv[i] = scaled
			}
		}
	}
	e.pile[c] = rest
	for _, i := range batch {
		e.assign(i)
	}
}

// transferWholeVote draws exactly count-threshold whole papers (rounded
// down to a whole vote) by the configured rule and moves only those on.
func (e *Engine) transferWholeVote(c int, surplus, _ fixedpoint.Value) {
	p := e.cfg.P
	n := int(p.FloorWhole(surplus).Raw().Int64() / p.One().Raw().Int64())
	slots := e.pile[c]
	if n > len(slots) {
		n = len(slots)
	}

	var draw []int
	switch e.cfg.WholeVoteRule {
	case CincinnatiRule:
		draw = cincinnatiDraw(slots, n)
	default:
		draw = append([]int(nil), slots[:n]...)
	}

	drawn := make(map[int]bool, len(draw))
	for _, i := range draw {
		drawn[i] = true
	}
	var keep []int
	for _, i := range slots {
		if drawn[i] {
			e.assign(i)
		} else {
			keep = append(keep, i)
		}
	}
	e.pile[c] = keep
}

// cincinnatiDraw implements the Cambridge decimation rule: number papers
// 1..total, walk every skip-th one (skip = round(total/n)), wrapping
// through offsets until exactly n have been drawn.
func cincinnatiDraw(slots []int, n int) []int {
	total := len(slots)
	if n <= 0 || total == 0 {
		return nil
	}
	skip := (2*total + n) / (2 * n) // total/n rounded half up
	if skip == 0 {
		skip = 1
	}
	var draw []int
	seen := make(map[int]bool, n)
	for offset := 0; offset < skip && len(draw) < n; offset++ {
		for idx := offset; idx < total && len(draw) < n; idx += skip {
			if !seen[idx] {
				seen[idx] = true
				draw = append(draw, slots[idx])
			}
		}
	}
	return draw
}

func (e *Engine) hasNextContinuing(i int) bool {
	r := e.papers[i].ranking
	for j := e.pos[i] + 1; j < len(r); j++ {
		if e.status.Of(r[j]) == tabulate.Continuing {
			return true
		}
	}
	return false
}

// eliminate drops the given candidates to Loser and redistributes their
// piles onward.
func (e *Engine) eliminate(losers []int) {
	for _, c := range losers {
		e.status.Set(c, tabulate.Loser)
	}
	for _, c := range losers {
		slots := e.pile[c]
		delete(e.pile, c)
		for _, i := range slots {
			e.assign(i)
		}
	}
}

// Run executes the shared STV loop to completion.
func (e *Engine) Run() *report.Result {
	e.initialTally()

	for {
		e.recomputeCount()
		threshold := e.candidateThreshold()

		round := &report.Round{Index: e.round, Threshold: e.cfg.P.Display(threshold), HasThresh: true}
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

		// markBatches records, for every candidate whose pile grew during
		// this round's transfer or elimination, where that newly received
		// batch begins (the batch a Gregory transfer later moves on).
		pileLen := make(map[int]int, len(e.pile))
		for c, slots := range e.pile {
			pileLen[c] = len(slots)
		}
		markBatches := func() {
			for c, slots := range e.pile {
				if len(slots) > pileLen[c] {
					e.batchStart[c] = pileLen[c]
				}
			}
		}

		if e.cfg.Transfer != TransferNone {
			if c := e.candidateWithSurplus(); c >= 0 {
				if !e.cfg.DelayedTransfer || len(e.sureLosers(e.cfg.P.Sub(e.count[c], threshold))) == 0 {
					round.Surplus = e.cfg.P.Display(e.cfg.P.Sub(e.count[c], threshold))
					round.HasSurplus = true
					round.Action = report.Action{Kind: report.Surplus, Transferor: c}
					round.Add(e.transferSurplus(c, threshold))
					markBatches()
					e.rounds = append(e.rounds, round)
					e.round++
					continue
				}
			}
		}

		losers := e.loserSelector()(e)
		if len(losers) == 0 {
			e.rounds = append(e.rounds, round)
			break
		}
		round.Action = report.Action{Kind: report.Eliminate, Losers: losers}
		round.Add("eliminated")
		e.eliminate(losers)
		markBatches()
		e.rounds = append(e.rounds, round)
		e.round++
	}

	return &report.Result{Rounds: e.rounds, Winners: e.status.Winners()}
}

func displayCounts(p *fixedpoint.Prec, count map[int]fixedpoint.Value) map[int]decimal.Decimal {
	out := make(map[int]decimal.Decimal, len(count))
	for c, v := range count {
		out[c] = p.Display(v)
	}
	return out
}

func formatSet(s []int) string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}
