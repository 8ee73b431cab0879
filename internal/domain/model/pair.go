package model

import "fmt"

// Pair is an unordered pair of distinct players stored in canonical order:
// A sorts lexicographically before B.
type Pair struct {
	A string
	B string
}

// NewPair canonicalises (a, b). Self pairs are rejected.
func NewPair(a, b string) (Pair, error) {
	switch {
	case a == b:
		return Pair{}, fmt.Errorf("%w: %q", ErrSelfPair, a)
	case a < b:
		return Pair{A: a, B: b}, nil
	default:
		return Pair{A: b, B: a}, nil
	}
}

// Has reports whether name is one of the pair members.
func (p Pair) Has(name string) bool { return p.A == name || p.B == name }

// Less orders pairs canonically: by A, then by B.
func (p Pair) Less(o Pair) bool {
	if p.A != o.A {
		return p.A < o.A
	}
	return p.B < o.B
}

// String renders "A ↔ B".
func (p Pair) String() string { return p.A + " ↔ " + p.B }
