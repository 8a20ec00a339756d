package rank

import (
	"sort"
	"testing"
)

func TestMiddleIsCentered(t *testing.T) {
	m := Middle()
	if m <= "0" || m >= "z" {
		t.Fatalf("middle rank %q not inside key space", m)
	}
}

func TestNextSequenceSortsInGenerationOrder(t *testing.T) {
	const n = 1000

	ranks := make([]string, 0, n)
	r := Middle()
	for i := 0; i < n; i++ {
		ranks = append(ranks, r)
		r = Next(r)
	}

	if !sort.StringsAreSorted(ranks) {
		t.Fatal("generated ranks are not in lexicographic order")
	}
	seen := make(map[string]struct{}, n)
	for _, r := range ranks {
		if _, dup := seen[r]; dup {
			t.Fatalf("duplicate rank generated: %q", r)
		}
		seen[r] = struct{}{}
	}
}

func TestNextFromEmpty(t *testing.T) {
	if got := Next(""); got != Middle() {
		t.Fatalf("Next(\"\") = %q, want %q", got, Middle())
	}
}

func TestBetweenStaysStrictlyInside(t *testing.T) {
	cases := []struct{ lo, hi string }{
		{"i", "q"},
		{"a", "b"},
		{"", "1"},
		{"z", ""},
		{"0z", "1"},
		{"i", "i1"},
	}
	for _, tc := range cases {
		got, err := Between(tc.lo, tc.hi)
		if err != nil {
			t.Fatalf("Between(%q, %q): %v", tc.lo, tc.hi, err)
		}
		if tc.lo != "" && got <= tc.lo {
			t.Errorf("Between(%q, %q) = %q, not above lower bound", tc.lo, tc.hi, got)
		}
		if tc.hi != "" && got >= tc.hi {
			t.Errorf("Between(%q, %q) = %q, not below upper bound", tc.lo, tc.hi, got)
		}
	}
}

func TestBetweenRejectsInvertedBounds(t *testing.T) {
	if _, err := Between("q", "i"); err == nil {
		t.Fatal("expected error for inverted bounds")
	}
	if _, err := Between("i", "i"); err == nil {
		t.Fatal("expected error for equal bounds")
	}
}

func TestValid(t *testing.T) {
	for _, r := range []string{"i", "1", "z", "i8", "0z", "10i"} {
		if !Valid(r) {
			t.Errorf("Valid(%q) = false, want true", r)
		}
	}
	// Trailing '0' leaves no gap below the key: nothing sorts strictly
	// between "1" and "10".
	for _, r := range []string{"", "0", "10", "i0", "A", "i!", "i "} {
		if Valid(r) {
			t.Errorf("Valid(%q) = true, want false", r)
		}
	}
}

func TestGeneratedRanksAreValid(t *testing.T) {
	r := Middle()
	for i := 0; i < 100; i++ {
		if !Valid(r) {
			t.Fatalf("Next chain produced invalid rank %q", r)
		}
		r = Next(r)
	}

	lo, hi := Middle(), Next(Middle())
	for i := 0; i < 40; i++ {
		m, err := Between(lo, hi)
		if err != nil {
			t.Fatalf("bisection level %d: %v", i, err)
		}
		if !Valid(m) {
			t.Fatalf("Between produced invalid rank %q", m)
		}
		hi = m
	}
}

func TestRepeatedBisectionDeep(t *testing.T) {
	lo := Middle()
	hi := Next(lo)

	// Bisect downward against a fixed upper bound, then upward against a
	// fixed lower bound, far past any realistic list size.
	for i := 0; i < 40; i++ {
		m, err := Between(lo, hi)
		if err != nil {
			t.Fatalf("bisection level %d: %v", i, err)
		}
		if m <= lo || m >= hi {
			t.Fatalf("bisection level %d: %q not strictly between %q and %q", i, m, lo, hi)
		}
		hi = m
	}

	lo = Middle()
	hi = Next(lo)
	for i := 0; i < 40; i++ {
		m, err := Between(lo, hi)
		if err != nil {
			t.Fatalf("bisection level %d: %v", i, err)
		}
		if m <= lo || m >= hi {
			t.Fatalf("bisection level %d: %q not strictly between %q and %q", i, m, lo, hi)
		}
		lo = m
	}
}
