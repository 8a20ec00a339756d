// Package rank generates fractional-ranking string keys for list item
// positions. Keys sort lexicographically in logical order, and a new key
// can always be generated between any two existing keys without
// renumbering; precision widens instead.
package rank

import (
	"fmt"
	"strings"
)

const digits = "0123456789abcdefghijklmnopqrstuvwxyz"

const base = len(digits)

// nextStep is how far Next advances the last digit before widening.
// Leaves room for several Between insertions after every append.
const nextStep = 8

// Middle returns a rank roughly centered in the key space, used to seed
// an empty list.
func Middle() string {
	return string(digits[base/2])
}

// Next returns a rank strictly greater than prev. An empty prev yields
// Middle. Chained calls never collide and preserve generation order.
func Next(prev string) string {
	if prev == "" {
		return Middle()
	}
	last := strings.IndexByte(digits, prev[len(prev)-1])
	if last >= 0 && last+nextStep < base {
		return prev[:len(prev)-1] + string(digits[last+nextStep])
	}
	return prev + string(digits[nextStep])
}

// Valid reports whether s is a well-formed rank: non-empty, drawn from
// the digit alphabet, and not ending in the minimum digit. A trailing
// '0' leaves an empty gap below the key, which would break Between's
// strict-betweenness guarantee, so such keys are never accepted from
// callers.
func Valid(s string) bool {
	if s == "" || s[len(s)-1] == digits[0] {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(digits, s[i]) < 0 {
			return false
		}
	}
	return true
}

// Between returns a rank strictly between lo and hi. An empty lo means
// unbounded below; an empty hi means unbounded above. It fails only when
// lo >= hi, which indicates caller error.
func Between(lo, hi string) (string, error) {
	if lo != "" && hi != "" && lo >= hi {
		return "", fmt.Errorf("rank: no room between %q and %q", lo, hi)
	}
	return mid(lo, hi), nil
}

// mid returns a digit string m with lo < m < hi, treating the strings as
// fractional digit expansions. An empty hi means no upper bound. Inputs
// never carry trailing minimum digits, which guarantees termination.
func mid(lo, hi string) string {
	if hi == "" {
		if lo == "" {
			return Middle()
		}
		d := strings.IndexByte(digits, lo[0])
		if d == base-1 {
			return string(digits[d]) + mid(lo[1:], "")
		}
		// Halfway between d and the top of the digit space.
		return string(digits[(d+base+1)/2])
	}

	dLo := 0
	rest := ""
	if lo != "" {
		dLo = strings.IndexByte(digits, lo[0])
		rest = lo[1:]
	}
	dHi := strings.IndexByte(digits, hi[0])

	switch {
	case dLo == dHi:
		return string(digits[dLo]) + mid(rest, hi[1:])
	case dHi-dLo > 1:
		return string(digits[(dLo+dHi)/2])
	default:
		// Adjacent digits: keep the lower one, then bisect the
		// remainder of lo against an open upper bound.
		return string(digits[dLo]) + mid(rest, "")
	}
}
