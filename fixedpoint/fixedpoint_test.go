package fixedpoint_test

import (
	"math/big"
	"testing"

	"github.com/ballotcore/tabulator/fixedpoint"
)

func TestMulDivTruncate(t *testing.T) {
	p := fixedpoint.New(5, 0)

	a := p.Fix(7)
	b := p.Div(p.Fix(1), p.Fix(3)) // 1/3 at precision 5 -> 0.33333

	got := p.Display(b).String()
	if got != "0.33333" {
		t.Fatalf("1/3 = %s, want 0.33333", got)
	}

	c := p.Mul(a, b)
	if p.Display(c).String() != "2.33331" {
		t.Fatalf("7 * 0.33333 = %s, want 2.33331 (truncated)", p.Display(c).String())
	}
}

func TestGuardedEquality(t *testing.T) {
	for _, tt := range []struct {
		name     string
		guard    int
		a, b     int64
		wantEq   bool
		wantLt   bool
	}{
		{name: "guard 0 exact equal", guard: 0, a: 100, b: 100, wantEq: true},
		{name: "guard 0 exact unequal", guard: 0, a: 100, b: 101, wantEq: false, wantLt: true},
		{name: "guard 3 noise below epsilon", guard: 3, a: 100000, b: 100090, wantEq: true},
		{name: "guard 3 above epsilon", guard: 3, a: 100000, b: 100200, wantEq: false, wantLt: true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			p := fixedpoint.New(2, tt.guard)
			a := fixedpoint.FromRaw(tt.a)
			b := fixedpoint.FromRaw(tt.b)
			if got := p.Eq(a, b); got != tt.wantEq {
				t.Fatalf("Eq = %v, want %v", got, tt.wantEq)
			}
			if got := p.Lt(a, b); got != tt.wantLt {
				t.Fatalf("Lt = %v, want %v", got, tt.wantLt)
			}
		})
	}
}

func TestDisplayRoundsGuardDigits(t *testing.T) {
	p := fixedpoint.New(2, 3)
	// 1.23450 as raw scaled units: precision=2, guard=3 => scale 10^5.
	v := p.FixInt(big.NewInt(0)) // start from zero then add raw scaled units
	v = p.Add(v, fixedpoint.FromRaw(123450))
	if p.Display(v).String() != "1.23" {
		t.Fatalf("Display = %s, want 1.23 (0.5*g rounds the guard digits away)", p.Display(v).String())
	}
}
