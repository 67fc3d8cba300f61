// Package tiebreak implements the tie-break protocol: strong ties (resolved
// outright) and weak ties (resolved by looking at other rounds first,
// falling back to a strong tie-break), including the manual mode's
// single-slot request/response rendezvous — the sole suspension point in
// the tabulation core.
package tiebreak

import (
	"math/rand/v2"
)

// StrongMode selects how a strong tie (candidates equivalent by every
// round so far) is resolved.
type StrongMode int

const (
	StrongRandom StrongMode = iota
	StrongAlpha
	StrongIndex
	StrongManual
)

// WeakMode selects how a weak tie (tied this round, maybe not in others)
// is resolved.
type WeakMode int

const (
	WeakStrong WeakMode = iota
	WeakForward
	WeakBackward
)

// Request is published on the channel when the resolution mode is manual:
// the tied candidate set plus a human-readable label for what is being
// decided (e.g. "who to eliminate").
type Request struct {
	Tied []int
	What string
}

// Response answers a Request: either a chosen candidate index, or Cancel,
// which falls back to a random choice.
type Response struct {
	Chosen int
	Cancel bool
}

// Channel is the two single-slot queues a manual tie-break rendezvous uses.
// Put/Take each block, so the tabulator's single cooperative worker
// suspends here until an external agent answers.
type Channel struct {
	requests  chan Request
	responses chan Response
}

// NewChannel creates an unbuffered (single-slot, blocking) tie-break
// channel pair.
func NewChannel() *Channel {
	return &Channel{requests: make(chan Request), responses: make(chan Response)}
}

// Requests exposes the request side for an external agent to read from.
func (c *Channel) Requests() <-chan Request { return c.requests }

// Respond posts an answer back to the tabulator. Passing a cancellation
// sentinel (Response{Cancel: true}) makes the tabulator resolve the tie it
// asked about randomly rather than abort. The cancellation is not
// remembered: a later manual tie publishes a new request.
func (c *Channel) Respond(r Response) { c.responses <- r }

// ask publishes a request and blocks for the matching response. Internal:
// only the Resolver in this package calls it.
func (c *Channel) ask(req Request) Response {
	c.requests <- req
	return <-c.responses
}

// Resolver resolves strong and weak ties for one tabulator run. Names is
// used by the alphabetic strong-tie mode; forward/backward weak resolution
// looks back through the round history the caller passes to ResolveWeak.
type Resolver struct {
	Strong  StrongMode
	Weak    WeakMode
	Names   []string
	Channel *Channel

	rng *rand.Rand
}

// NewResolver builds a Resolver. seed fixes the random tie-break sequence
// for reproducible runs (pass a time-derived seed for production use); a
// nil channel is fine unless Strong == StrongManual.
func NewResolver(strong StrongMode, weak WeakMode, names []string, channel *Channel, seed1, seed2 uint64) *Resolver {
	return &Resolver{Strong: strong, Weak: weak, Names: names, Channel: channel, rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// ResolveStrong picks one candidate from a tied set using the configured
// strong-tie mode, returning the narrative fragment describing how.
func (r *Resolver) ResolveStrong(tied []int, what string) (int, string) {
	if len(tied) == 0 {
		panic("tiebreak: ResolveStrong called with an empty tied set")
	}
	if len(tied) == 1 {
		return tied[0], ""
	}

	switch r.Strong {
	case StrongAlpha:
		best := tied[0]
		for _, c := range tied[1:] {
			if r.name(c) < r.name(best) {
				best = c
			}
		}
		return best, "tie broken alphabetically"
	case StrongIndex:
		best := tied[0]
		for _, c := range tied[1:] {
			if c < best {
				best = c
			}
		}
		return best, "tie broken by candidate index"
	case StrongManual:
		if r.Channel == nil {
			return r.resolveRandom(tied), "tie broken randomly (no manual channel configured)"
		}
		resp := r.Channel.ask(Request{Tied: append([]int(nil), tied...), What: what})
		if resp.Cancel {
			return r.resolveRandom(tied), "tie broken randomly (manual resolution cancelled)"
		}
		return resp.Chosen, "tie broken manually"
	default:
		return r.resolveRandom(tied), "tie broken randomly"
	}
}

func (r *Resolver) resolveRandom(tied []int) int {
	return tied[r.rng.IntN(len(tied))]
}

func (r *Resolver) name(c int) string {
	if c >= 0 && c < len(r.Names) {
		return r.Names[c]
	}
	return ""
}

// RoundCounts is the information ResolveWeak needs about one past round:
// the fixed-point-rendered (or any comparable) value per candidate. The
// tabulate package supplies these from its round records.
type RoundCounts map[int]int64

// ResolveWeak breaks a tie at the current round r using history (rounds
// 1..r-1, index 0 is round 1) when Weak is WeakForward/WeakBackward,
// falling back to ResolveStrong otherwise or if no round distinguishes the
// tied candidates.
func (r *Resolver) ResolveWeak(tied []int, history []RoundCounts, what string) (int, string) {
	if len(tied) <= 1 {
		return r.ResolveStrong(tied, what)
	}

	switch r.Weak {
	case WeakForward:
		for _, rc := range history {
			if winner, ok := distinguish(tied, rc); ok {
				return winner, "weak tie broken by an earlier round"
			}
		}
	case WeakBackward:
		for i := len(history) - 1; i >= 0; i-- {
			if winner, ok := distinguish(tied, history[i]); ok {
				return winner, "weak tie broken by a later round"
			}
		}
	}
	return r.ResolveStrong(tied, what)
}

// distinguish reports the candidate among tied with the lowest value at
// this round, if the round's values aren't themselves all equal.
func distinguish(tied []int, rc RoundCounts) (int, bool) {
	best := tied[0]
	bestVal := rc[best]
	allEqual := true
	for _, c := range tied[1:] {
		v := rc[c]
		if v != bestVal {
			allEqual = false
		}
		if v < bestVal {
			best, bestVal = c, v
		}
	}
	if allEqual {
		return 0, false
	}
	return best, true
}
