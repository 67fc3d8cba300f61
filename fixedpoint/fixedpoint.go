// Package fixedpoint implements the integer-scaled arithmetic every
// tabulation method counts votes in: a value representing the rational v is
// stored as round(v * 10^(precision+guard)), so every comparison and
// transfer is deterministic across platforms, unlike floating point.
//
// The guard digits support the "quasi-exact" comparisons the recursive
// keep-factor methods (Meek/Warren) need: two values are Eq if they differ
// by less than a small epsilon derived from the guard count, which lets a
// stable-state detector tell "tied within numerical noise" apart from
// "genuinely equal". Ground truth: original_source/openstv/qx.py.
package fixedpoint

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Prec is an arithmetic context: a fixed scale factor p = 10^(precision+guard)
// plus the guard-digit count used for quasi-exact comparisons. All Values
// produced or consumed through the same Prec are comparable; mixing Values
// from two different Prec contexts is a programming error.
type Prec struct {
	precision int
	guard     int
	scale     *big.Int // 10^(precision+guard)
	geps      *big.Int // 10^(guard-1), the quasi-exact equality epsilon

	// maxDiff/minDiff mirror qx.py's guard-digit diagnostics: the largest
	// difference treated as equal and the smallest treated as unequal.
	// Useful to confirm a chosen guard count is large enough; consulted
	// only through Stats.
	maxDiff *big.Int
	minDiff *big.Int
}

// New builds a Prec with the given decimal precision and guard digit count.
// guard == 0 disables quasi-exact comparison: Eq degenerates to exact
// integer equality, matching qx.py's behavior when QX.guard == 0.
func New(precision, guard int) *Prec {
	if precision < 0 || guard < 0 {
		panic("fixedpoint: precision and guard must be non-negative")
	}
	scale := pow10(precision + guard)
	geps := big.NewInt(1)
	if guard > 0 {
		geps = pow10(guard - 1)
	}
	return &Prec{
		precision: precision,
		guard:     guard,
		scale:     scale,
		geps:      geps,
		maxDiff:   big.NewInt(0),
		minDiff:   new(big.Int).Mul(scale, big.NewInt(100)),
	}
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// Precision returns the configured decimal precision (not counting guard
// digits).
func (p *Prec) Precision() int { return p.precision }

// Guard returns the configured guard digit count.
func (p *Prec) Guard() int { return p.guard }

// Value is a scaled fixed-point number. The zero Value represents zero.
type Value struct {
	n *big.Int
}

func wrap(n *big.Int) Value {
	if n == nil {
		return Value{n: big.NewInt(0)}
	}
	return Value{n: n}
}

func (v Value) bigint() *big.Int {
	if v.n == nil {
		return big.NewInt(0)
	}
	return v.n
}

// Zero is the additive identity.
func Zero() Value { return Value{n: big.NewInt(0)} }

// FromRaw builds a Value directly from an already-scaled integer, for
// callers restoring a value previously obtained through Value.Raw.
func FromRaw(n int64) Value { return wrap(big.NewInt(n)) }

// Raw exposes the underlying scaled integer, e.g. to persist a Value or
// hand it to code outside this package that needs the raw magnitude.
func (v Value) Raw() *big.Int { return new(big.Int).Set(v.bigint()) }

// One returns the scaled representation of the rational number 1.
func (p *Prec) One() Value { return wrap(new(big.Int).Set(p.scale)) }

// Fix scales an integer n into a Value (n * p).
func (p *Prec) Fix(n int64) Value {
	return wrap(new(big.Int).Mul(big.NewInt(n), p.scale))
}

// FixInt scales an arbitrary-precision integer.
func (p *Prec) FixInt(n *big.Int) Value {
	return wrap(new(big.Int).Mul(n, p.scale))
}

// Add returns a + b.
func (p *Prec) Add(a, b Value) Value {
	return wrap(new(big.Int).Add(a.bigint(), b.bigint()))
}

// Sub returns a - b.
func (p *Prec) Sub(a, b Value) Value {
	return wrap(new(big.Int).Sub(a.bigint(), b.bigint()))
}

// Neg returns -a.
func (p *Prec) Neg(a Value) Value {
	return wrap(new(big.Int).Neg(a.bigint()))
}

// Mul returns a*b/p, truncating. Both operands are expected non-negative,
// as is true of every quantity this module computes (vote weights, keep
// factors, transfer values); Quo truncates toward zero, which coincides
// with floor division for non-negative operands (the semantics qx.py's
// Python2 integer division has).
func (p *Prec) Mul(a, b Value) Value {
	num := new(big.Int).Mul(a.bigint(), b.bigint())
	return wrap(new(big.Int).Quo(num, p.scale))
}

// Div returns a*p/b, truncating.
func (p *Prec) Div(a, b Value) Value {
	num := new(big.Int).Mul(a.bigint(), p.scale)
	return wrap(new(big.Int).Quo(num, b.bigint()))
}

// MulDivCeil returns ceil(a*b/c) with no intermediate rescaling, for the one
// place two already-scaled values are multiplied together before dividing
// by a third (the Meek/Warren keep-factor update: ceil(keepFactor*thresh/
// count), where all three are already scaled by the same factor and the
// result is expected at that same scale). Grounded on qx.py's raw divmod
// keep-factor update.
func (p *Prec) MulDivCeil(a, b, c Value) Value {
	num := new(big.Int).Mul(a.bigint(), b.bigint())
	q, r := new(big.Int).QuoRem(num, c.bigint(), new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return wrap(q)
}

// DivInt divides a Value by a plain (unscaled) integer divisor, truncating.
// Used for quota/threshold arithmetic, where the divisor is a candidate or
// seat count, not itself a scaled Value.
func (p *Prec) DivInt(a Value, divisor int64) Value {
	return wrap(new(big.Int).Quo(a.bigint(), big.NewInt(divisor)))
}

// FloorWhole rounds v down to the nearest whole (integer) value, i.e. the
// nearest multiple of One().
func (p *Prec) FloorWhole(v Value) Value {
	q := new(big.Int).Quo(v.bigint(), p.scale)
	return wrap(q.Mul(q, p.scale))
}

func (p *Prec) diff(a, b Value) *big.Int {
	d := new(big.Int).Sub(a.bigint(), b.bigint())
	return d.Abs(d)
}

// Eq reports whether a and b are equal up to the guard-digit epsilon.
func (p *Prec) Eq(a, b Value) bool {
	if p.guard == 0 {
		return a.bigint().Cmp(b.bigint()) == 0
	}
	d := p.diff(a, b)
	if d.Cmp(p.geps) < 0 {
		if d.Cmp(p.maxDiff) > 0 {
			p.maxDiff = d
		}
	} else if d.Cmp(p.minDiff) < 0 {
		p.minDiff = d
	}
	return d.Cmp(p.geps) < 0
}

// Lt reports whether a < b, treating guard-epsilon-equal values as not less.
func (p *Prec) Lt(a, b Value) bool {
	return a.bigint().Cmp(b.bigint()) < 0 && !p.Eq(a, b)
}

// Gt reports whether a > b, treating guard-epsilon-equal values as not greater.
func (p *Prec) Gt(a, b Value) bool {
	return a.bigint().Cmp(b.bigint()) > 0 && !p.Eq(a, b)
}

// Le reports a <= b under quasi-exact comparison.
func (p *Prec) Le(a, b Value) bool {
	return a.bigint().Cmp(b.bigint()) <= 0 || p.Eq(a, b)
}

// Ge reports a >= b under quasi-exact comparison.
func (p *Prec) Ge(a, b Value) bool {
	return a.bigint().Cmp(b.bigint()) >= 0 || p.Eq(a, b)
}

// Sign returns -1, 0 or 1.
func (v Value) Sign() int { return v.bigint().Sign() }

// Cmp is exact (non-guarded) comparison, for cases that need a
// strict ordering regardless of guard epsilon (e.g. sorting candidates by
// count for the sure-loser walk, where exact ties must cluster together).
func (v Value) Cmp(o Value) int { return v.bigint().Cmp(o.bigint()) }

// Stats reports the guard-digit diagnostics qx.py's postCount prints: the
// largest difference treated as equal and the smallest treated as unequal.
// A caller can use these to sanity-check that Guard() is large enough: a
// well-chosen guard has maxDiff well below geps and minDiff well above it.
type Stats struct {
	MaxDiff *big.Int
	MinDiff *big.Int
	Geps    *big.Int
}

// Stats returns the current guard-digit diagnostics.
func (p *Prec) Stats() Stats {
	return Stats{MaxDiff: new(big.Int).Set(p.maxDiff), MinDiff: new(big.Int).Set(p.minDiff), Geps: new(big.Int).Set(p.geps)}
}

// Display renders v as a decimal.Decimal at the configured precision,
// rounding away the guard digits (round half up, then truncate), matching
// qx.py's str(): gv = (v + grnd) / g where grnd = g/2, g = 10^guard.
func (p *Prec) Display(v Value) decimal.Decimal {
	if p.guard == 0 {
		return decimal.NewFromBigInt(v.bigint(), -int32(p.precision))
	}
	g := pow10(p.guard)
	grnd := new(big.Int).Div(g, big.NewInt(2))
	gv := new(big.Int).Add(v.bigint(), grnd)
	gv.Quo(gv, g)
	return decimal.NewFromBigInt(gv, -int32(p.precision))
}

// String renders v exactly as Display does (guard digits rounded away),
// handy for debugging and narrative text.
func (p *Prec) String(v Value) string {
	return p.Display(v).String()
}
