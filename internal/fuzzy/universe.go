package fuzzy

import (
	"errors"
	"fmt"
	"math"
)

// MaxUniverseSamples bounds how many points NewUniverse will allocate.
const MaxUniverseSamples = 1_000_000

// Universe is the discretized universe of discourse of a variable: the
// declared bounds [Lo, Hi] plus a strictly increasing, non-empty sequence
// of sample points inside them. The samples are only used for centroid
// defuzzification; crisp inputs may fall anywhere inside the bounds.
type Universe struct {
	lo, hi float64
	points []float64
}

// NewUniverse samples [lo, hi] every step. Point i is lo + i*step, which
// keeps integer grids exact. hi is sampled only when it lands on the grid,
// but it stays the upper bound either way.
func NewUniverse(lo, hi, step float64) (Universe, error) {
	for _, v := range []float64{lo, hi, step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Universe{}, fmt.Errorf("universe [%v, %v] step %v: values must be finite", lo, hi, step)
		}
	}
	if step <= 0 {
		return Universe{}, fmt.Errorf("universe [%v, %v]: step must be positive, got %v", lo, hi, step)
	}
	if lo > hi {
		return Universe{}, fmt.Errorf("universe [%v, %v]: lower bound exceeds upper bound", lo, hi)
	}

	span := math.Floor((hi-lo)/step + 1e-9)
	if span+1 > MaxUniverseSamples {
		return Universe{}, fmt.Errorf("universe [%v, %v] step %v: more than %d samples", lo, hi, step, MaxUniverseSamples)
	}
	n := int(span) + 1
	points := make([]float64, n)
	for i := range points {
		points[i] = lo + float64(i)*step
	}
	// Snap the last sample onto hi when it only misses by rounding.
	if last := points[n-1]; last != hi && math.Abs(last-hi) <= step*1e-9 {
		points[n-1] = hi
	}
	return Universe{lo: lo, hi: hi, points: points}, nil
}

// UniverseFromPoints builds an arbitrarily spaced universe.
func UniverseFromPoints(points []float64) (Universe, error) {
	if len(points) == 0 {
		return Universe{}, errors.New("universe: no sample points")
	}
	for i, p := range points {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return Universe{}, fmt.Errorf("universe: sample %d is not finite", i)
		}
		if i > 0 && p <= points[i-1] {
			return Universe{}, fmt.Errorf("universe: samples must be strictly increasing (index %d: %v after %v)", i, p, points[i-1])
		}
	}
	cp := make([]float64, len(points))
	copy(cp, points)
	return Universe{lo: cp[0], hi: cp[len(cp)-1], points: cp}, nil
}

// Lo returns the lower bound.
func (u Universe) Lo() float64 {
	return u.lo
}

// Hi returns the upper bound.
func (u Universe) Hi() float64 {
	return u.hi
}

// Len returns the number of samples.
func (u Universe) Len() int {
	return len(u.points)
}

// Points returns a copy of the samples.
func (u Universe) Points() []float64 {
	cp := make([]float64, len(u.points))
	copy(cp, u.points)
	return cp
}

// Midpoint is the defuzzified value used when no rule supports the variable.
func (u Universe) Midpoint() float64 {
	return (u.Lo() + u.Hi()) / 2
}

// Contains reports whether x lies in [Lo, Hi].
func (u Universe) Contains(x float64) bool {
	return x >= u.Lo() && x <= u.Hi()
}

// Clamp limits x to [Lo, Hi].
func (u Universe) Clamp(x float64) float64 {
	return math.Min(math.Max(x, u.Lo()), u.Hi())
}

// SameBounds reports whether both universes cover the same interval.
func (u Universe) SameBounds(o Universe) bool {
	return u.Lo() == o.Lo() && u.Hi() == o.Hi()
}

func (u Universe) String() string {
	return fmt.Sprintf("[%g, %g] (%d samples)", u.Lo(), u.Hi(), u.Len())
}
