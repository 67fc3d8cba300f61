// Package ballot implements the candidate roster, ranking and ballot data
// model, and the deduplicated, weighted ballot collection that every
// tabulation method reads from. A ranking generalizes a flat position list
// into a richer model: a strict rank, a tied overvote set, or a skip.
package ballot

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ballotcore/tabulator/errs"
)

// Roster is an ordered candidate list; a candidate's index in Names is its
// identity throughout tabulation. Withdrawn marks candidates excluded by
// Clean.
type Roster struct {
	Names     []string
	Withdrawn map[int]bool
}

// NewRoster builds a roster from candidate names, none withdrawn.
func NewRoster(names ...string) *Roster {
	return &Roster{Names: append([]string(nil), names...), Withdrawn: map[int]bool{}}
}

// Withdraw marks a candidate index as withdrawn.
func (r *Roster) Withdraw(i int) error {
	if i < 0 || i >= len(r.Names) {
		return errs.MessageErrorf(errs.ErrBallotData, "candidate index %d out of range", i)
	}
	r.Withdrawn[i] = true
	return nil
}

// Len is the number of candidates, withdrawn or not.
func (r *Roster) Len() int { return len(r.Names) }

// Ranking is one position on a ballot: either a single strict candidate
// index, a set of tied candidate indices (an overvote / equal ranking,
// size >= 2), or a skip (blank position).
type Ranking struct {
	// Candidates holds the candidate index/indices at this position. A
	// strict rank has exactly one; an equal ranking (overvote) has two or
	// more; a skip has none.
	Candidates []int
}

// Skip is a blank ranking position.
func Skip() Ranking { return Ranking{} }

// Strict is a single-candidate ranking.
func Strict(candidate int) Ranking { return Ranking{Candidates: []int{candidate}} }

// Overvote is an equal-ranking position naming two or more candidates.
func Overvote(candidates ...int) Ranking { return Ranking{Candidates: append([]int(nil), candidates...)} }

// IsSkip reports whether this position was left blank.
func (r Ranking) IsSkip() bool { return len(r.Candidates) == 0 }

// IsOvervote reports whether this position names more than one candidate.
func (r Ranking) IsOvervote() bool { return len(r.Candidates) >= 2 }

// Single returns the sole candidate of a strict ranking, or false.
func (r Ranking) Single() (int, bool) {
	if len(r.Candidates) == 1 {
		return r.Candidates[0], true
	}
	return 0, false
}

// Ballot is an ordered sequence of rankings with an optional opaque ID.
type Ballot struct {
	Rankings []Ranking
	ID       string // empty when the collection is not in custom-ID mode
}

// key renders the ballot's ordered rankings into a stable textual form used
// as the deduplication index key. Two ballots are "the same unique ballot"
// iff this key matches; IDs never participate in the key, so two ballots
// with different IDs but identical rankings still dedupe together unless
// the collection is in custom-ID mode (see Collection.Append).
func (b Ballot) key() string {
	var sb strings.Builder
	for i, r := range b.Rankings {
		if i > 0 {
			sb.WriteByte('|')
		}
		if r.IsSkip() {
			sb.WriteByte('-')
			continue
		}
		cs := append([]int(nil), r.Candidates...)
		sort.Ints(cs)
		for j, c := range cs {
			if j > 0 {
				sb.WriteByte('=')
			}
			sb.WriteString(strconv.Itoa(c))
		}
	}
	return sb.String()
}

// Clone deep-copies a ballot.
func (b Ballot) Clone() Ballot {
	out := Ballot{ID: b.ID, Rankings: make([]Ranking, len(b.Rankings))}
	for i, r := range b.Rankings {
		out.Rankings[i] = Ranking{Candidates: append([]int(nil), r.Candidates...)}
	}
	return out
}

// slot is one entry in the deduplication index: a unique ballot, its
// accumulated weight, and the original positional indices that mapped to
// it.
type slot struct {
	ballot    Ballot
	weight    int
	positions []int
}

// Collection is the deduplicated, weighted multiset of ballots. It exposes
// a positional view (one entry per original ballot,
// order-preserving) and a weighted view (one entry per unique ballot) so
// order-sensitive and order-independent methods can each use the cheaper
// representation.
type Collection struct {
	Roster *Roster

	// Source is the collection this one was cleaned from, if any.
	Source *Collection

	slots    []*slot        // weighted view, in first-seen order
	byKey    map[string]int // ballot key -> index into slots
	position []int          // positional view: position -> index into slots

	customID bool
	seenID   map[string]bool
}

// NewCollection creates an empty collection over the given roster.
func NewCollection(roster *Roster) *Collection {
	return &Collection{
		Roster: roster,
		byKey:  map[string]int{},
		seenID: map[string]bool{},
	}
}

// Append adds one ballot. id must be non-empty iff the collection is
// already in custom-ID mode; the collection enters custom-ID mode the
// moment its first ballot carries an ID. Passing an ID once out of custom-ID
// mode, or an empty ID once in it, fails.
func (c *Collection) Append(b Ballot) error {
	hasID := b.ID != ""
	if len(c.slots) == 0 {
		c.customID = hasID
	} else if hasID != c.customID {
		if c.customID {
			return errs.MessageError(errs.ErrBallotData, "collection is in custom-ID mode: ballot must carry an id")
		}
		return errs.MessageError(errs.ErrBallotData, "collection is not in custom-ID mode: ballot must not carry an id")
	}

	if hasID {
		if c.seenID[b.ID] {
			return errs.MessageErrorf(errs.ErrBallotData, "duplicate ballot id %q", b.ID)
		}
		c.seenID[b.ID] = true
	}

	for _, r := range b.Rankings {
		for _, cand := range r.Candidates {
			if cand < 0 || (c.Roster != nil && cand >= c.Roster.Len()) {
				return errs.MessageErrorf(errs.ErrBallotData, "candidate index %d out of range", cand)
			}
		}
	}

	key := b.key()
	if hasID {
		// Custom-ID ballots never merge into another slot: each carries a
		// distinct identity even if the rankings coincide.
		key = key + "\x00id=" + b.ID
	}

	idx, ok := c.byKey[key]
	if !ok {
		idx = len(c.slots)
		c.byKey[key] = idx
		c.slots = append(c.slots, &slot{ballot: b})
	}
	pos := len(c.position)
	c.slots[idx].weight++
	c.slots[idx].positions = append(c.slots[idx].positions, pos)
	c.position = append(c.position, idx)
	return nil
}

// Len returns the total positional ballot count.
func (c *Collection) Len() int { return len(c.position) }

// UniqueLen returns the number of distinct ballot slots.
func (c *Collection) UniqueLen() int { return len(c.slots) }

// TotalWeight returns the sum of weights across all slots, which always
// equals Len().
func (c *Collection) TotalWeight() int {
	total := 0
	for _, s := range c.slots {
		total += s.weight
	}
	return total
}

// WeightedBallot is one entry of the weighted view.
type WeightedBallot struct {
	Ballot Ballot
	Weight int
}

// WeightedView returns one entry per unique ballot, used by order-
// independent methods for speed.
func (c *Collection) WeightedView() []WeightedBallot {
	out := make([]WeightedBallot, len(c.slots))
	for i, s := range c.slots {
		out[i] = WeightedBallot{Ballot: s.ballot, Weight: s.weight}
	}
	return out
}

// PositionalView returns one ballot per original position, in original
// order, used by order-sensitive methods (Cambridge, Random-Transfer).
func (c *Collection) PositionalView() []Ballot {
	out := make([]Ballot, len(c.position))
	for i, idx := range c.position {
		out[i] = c.slots[idx].ballot
	}
	return out
}

// Delete removes the ballot at position pos and rebuilds the collection.
// Expensive; meant for editing paths, not the hot tabulation loop.
func (c *Collection) Delete(pos int) error {
	all := c.PositionalView()
	if pos < 0 || pos >= len(all) {
		return errs.MessageErrorf(errs.ErrBallotData, "position %d out of range", pos)
	}
	all = append(all[:pos], all[pos+1:]...)
	return c.rebuild(all)
}

// Set replaces the ballot at position pos and rebuilds the collection.
func (c *Collection) Set(pos int, b Ballot) error {
	all := c.PositionalView()
	if pos < 0 || pos >= len(all) {
		return errs.MessageErrorf(errs.ErrBallotData, "position %d out of range", pos)
	}
	all[pos] = b
	return c.rebuild(all)
}

func (c *Collection) rebuild(all []Ballot) error {
	rebuilt := NewCollection(c.Roster)
	for _, b := range all {
		if err := rebuilt.Append(b); err != nil {
			return err
		}
	}
	*c = *rebuilt
	return nil
}

// TopChoice returns the first candidate on b that appears in the among set,
// or ok == false if no such candidate exists (a fully exhausted ballot).
// Overvote positions are treated per the cleaning rules; an
// uncleaned overvote position with more than one member in among is
// ambiguous and is treated as exhausting the ballot there, since only a
// cleaned collection is expected to reach tabulation.
func TopChoice(b Ballot, among map[int]bool) (int, bool) {
	for _, r := range b.Rankings {
		if r.IsSkip() {
			continue
		}
		var found int
		count := 0
		for _, cand := range r.Candidates {
			if among[cand] {
				found = cand
				count++
			}
		}
		if count == 1 {
			return found, true
		}
		if count > 1 {
			return 0, false
		}
	}
	return 0, false
}

// String renders a ballot for debugging/narrative text.
func (b Ballot) String() string {
	parts := make([]string, len(b.Rankings))
	for i, r := range b.Rankings {
		if r.IsSkip() {
			parts[i] = "-"
			continue
		}
		cs := make([]string, len(r.Candidates))
		for j, c := range r.Candidates {
			cs[j] = strconv.Itoa(c)
		}
		parts[i] = strings.Join(cs, "=")
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, " "))
}
