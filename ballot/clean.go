package ballot

// OvervoteRule selects how an equal-ranking (overvote) position is handled
// while cleaning.
type OvervoteRule int

const (
	// OvervoteNone keeps overvote positions as-is.
	OvervoteNone OvervoteRule = iota
	// OvervoteCambridge removes the overvote position and continues to the
	// next ranking.
	OvervoteCambridge
	// OvervoteSanFrancisco truncates the ballot at the overvote position.
	OvervoteSanFrancisco
)

// CleanOptions configures Collection.Clean.
type CleanOptions struct {
	RemoveEmpty     bool
	Overvote        OvervoteRule
	RemoveDupes     bool
	RemoveWithdrawn bool
}

// Clean returns a new Collection with withdrawn candidates excluded (and
// the remaining candidates remapped to a compacted 0..n-1 numbering),
// skipped rankings dropped, overvotes handled per opts.Overvote, duplicate
// rankings removed when opts.RemoveDupes, and empty ballots dropped when
// opts.RemoveEmpty. The returned collection keeps a back-link (Source) to
// the collection it was cleaned from, for reporting.
//
// Clean is idempotent: Clean(Clean(b, opts), opts) yields a collection
// equivalent to Clean(b, opts), since the second pass sees an
// already-compacted roster with nothing left to withdraw, no skips, no
// overvotes and (when RemoveDupes) no duplicates.
func (c *Collection) Clean(opts CleanOptions) (*Collection, error) {
	newRoster, remap := compactRoster(c.Roster, opts.RemoveWithdrawn)

	out := NewCollection(newRoster)
	out.Source = c

	for _, b := range c.PositionalView() {
		cleaned, ok := cleanBallot(b, remap, opts)
		if !ok {
			continue
		}
		if opts.RemoveEmpty && len(cleaned.Rankings) == 0 {
			continue
		}
		if err := out.Append(cleaned); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// compactRoster builds the post-withdrawal candidate numbering. When
// removeWithdrawn is false, every candidate is kept (remap is identity)
// even if flagged withdrawn; ties remapping specifically to the
// withdrawal-removal option.
func compactRoster(r *Roster, removeWithdrawn bool) (*Roster, map[int]int) {
	remap := make(map[int]int, r.Len())
	names := make([]string, 0, r.Len())
	for i, name := range r.Names {
		if removeWithdrawn && r.Withdrawn[i] {
			continue
		}
		remap[i] = len(names)
		names = append(names, name)
	}
	return NewRoster(names...), remap
}

// cleanBallot applies the per-ranking cleaning rules to one ballot. ok is
// false only when the ballot referenced a candidate that no longer exists
// in remap under circumstances that cannot otherwise be represented (never
// actually happens here since remap only drops withdrawn candidates, which
// are removed from rankings, not left dangling).
func cleanBallot(b Ballot, remap map[int]int, opts CleanOptions) (Ballot, bool) {
	out := Ballot{ID: b.ID}
	seen := map[string]bool{}

	for _, r := range b.Rankings {
		if r.IsSkip() {
			continue
		}

		remapped := make([]int, 0, len(r.Candidates))
		for _, cand := range r.Candidates {
			if ni, ok := remap[cand]; ok {
				remapped = append(remapped, ni)
			}
		}
		if len(remapped) == 0 {
			// Every candidate at this position was withdrawn: treat as a
			// skip, which is simply dropped.
			continue
		}

		if len(remapped) >= 2 {
			switch opts.Overvote {
			case OvervoteCambridge:
				continue // drop this position, move to the next ranking
			case OvervoteSanFrancisco:
				return out, true // truncate here
			}
		}

		nr := Ranking{Candidates: remapped}
		if opts.RemoveDupes {
			key := nr.dedupeKey()
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out.Rankings = append(out.Rankings, nr)
	}

	return out, true
}

func (r Ranking) dedupeKey() string {
	cs := append([]int(nil), r.Candidates...)
	// Order within an overvote position does not matter for dedupe
	// purposes beyond membership, but Strict rankings are length 1 so a
	// simple join suffices; sort defensively for the overvote case.
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j-1] > cs[j]; j-- {
			cs[j-1], cs[j] = cs[j], cs[j-1]
		}
	}
	return Ballot{Rankings: []Ranking{{Candidates: cs}}}.key()
}
