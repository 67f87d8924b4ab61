package board

import (
	"math/rand"

	"golang.org/x/exp/slices"
)

// massEpsilon is the tolerance used throughout for probability-sum invariants
// (spec D1/J1: sums must hold "within 1e-6").
const massEpsilon = 1e-6

// Distribution maps a square to the probability mass a piece has there.
// Invariant D1: values sum to 1 within massEpsilon. Invariant D2: no
// zero-probability entries are stored.
type Distribution map[Square]float64

// NewCertain returns a singleton distribution: mass 1 at sq.
func NewCertain(sq Square) Distribution {
	return Distribution{sq: 1}
}

// Clone returns an independent copy, so callers may mutate the result without
// affecting the source (mutators throughout the board package always clone
// before writing, matching the teacher's deep-clone-on-mutate discipline).
func (d Distribution) Clone() Distribution {
	ret := make(Distribution, len(d))
	for sq, p := range d {
		ret[sq] = p
	}
	return ret
}

// Mass returns the total probability mass across all squares.
func (d Distribution) Mass() float64 {
	var total float64
	for _, p := range d {
		total += p
	}
	return total
}

// At returns the probability at sq (zero if absent).
func (d Distribution) At(sq Square) float64 {
	return d[sq]
}

// IsCertainAt returns true iff the distribution has mass (approximately) 1 at
// sq, i.e., the piece is certainly there.
func (d Distribution) IsCertainAt(sq Square) bool {
	return len(d) == 1 && d[sq] > 1-massEpsilon
}

// IsSuperposed returns true iff the distribution has more than one entry.
func (d Distribution) IsSuperposed() bool {
	return len(d) > 1
}

// Squares returns the occupied squares in deterministic (ascending) order, so
// that sampling and serialization never depend on Go's randomized map
// iteration order (required for spec P7: identical seeds must reproduce
// identical snapshots).
func (d Distribution) Squares() []Square {
	ret := make([]Square, 0, len(d))
	for sq := range d {
		ret = append(ret, sq)
	}
	slices.Sort(ret)
	return ret
}

// Normalize scales a positive-mass distribution so its entries sum to 1.
// Fails with InvalidStateError if the total mass is (approximately) zero.
func (d Distribution) Normalize() (Distribution, error) {
	total := d.Mass()
	if total < massEpsilon {
		return nil, invalidState("cannot normalize a zero-mass distribution")
	}

	ret := make(Distribution, len(d))
	for _, sq := range d.Squares() {
		p := d[sq] / total
		if p > massEpsilon {
			ret[sq] = p
		}
	}
	return ret, nil
}

// Source is an injected pseudo-random dependency: "next float in [0,1)". It
// is not re-entrant and must be owned by a single caller per move (spec §5).
type Source interface {
	NextFloat() float64
}

// RandSource adapts *math/rand.Rand to Source. Tests substitute a
// deterministic stand-in to satisfy spec P7.
type RandSource struct {
	rnd *rand.Rand
}

// NewRandSource returns a Source seeded deterministically.
func NewRandSource(seed int64) *RandSource {
	return &RandSource{rnd: rand.New(rand.NewSource(seed))}
}

func (s *RandSource) NextFloat() float64 {
	return s.rnd.Float64()
}

// FixedSource always returns the same value; useful to pin a single
// measurement outcome in tests (see spec §8 scenario 3).
type FixedSource float64

func (s FixedSource) NextFloat() float64 {
	return float64(s)
}

// Sample draws a square from the distribution by accumulating probability
// mass, in ascending-square order, against a uniform draw in [0, total mass).
// The last square absorbs any floating-point remainder, so Sample always
// returns a square present in the distribution.
func Sample(d Distribution, src Source) Square {
	squares := d.Squares()
	if len(squares) == 0 {
		return NoSquare
	}

	total := d.Mass()
	target := src.NextFloat() * total

	var acc float64
	for _, sq := range squares[:len(squares)-1] {
		acc += d[sq]
		if target < acc {
			return sq
		}
	}
	return squares[len(squares)-1]
}
