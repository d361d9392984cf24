// Package fuzzy implements Mamdani fuzzy inference: triangular membership
// functions, linguistic variables over discretized universes, min/max rule
// evaluation and centroid defuzzification.
//
// Everything in this package is immutable once built and performs no I/O,
// so a single Engine may be shared by any number of goroutines.
package fuzzy

import (
	"fmt"
	"math"
)

// Triangle is a triangular membership function with control points A <= B <= C.
// The degree is 0 outside [A, C], 1 at B and linear in between.
// A == B == C is a singleton.
type Triangle struct {
	A float64 `json:"a" yaml:"a"`
	B float64 `json:"b" yaml:"b"`
	C float64 `json:"c" yaml:"c"`
}

// NewTriangle validates the control points.
func NewTriangle(a, b, c float64) (Triangle, error) {
	for _, v := range []float64{a, b, c} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Triangle{}, fmt.Errorf("triangle (%v, %v, %v): control points must be finite", a, b, c)
		}
	}
	if a > b || b > c {
		return Triangle{}, fmt.Errorf("triangle (%v, %v, %v): control points must satisfy a <= b <= c", a, b, c)
	}
	return Triangle{A: a, B: b, C: c}, nil
}

// Degree returns the membership of x, always in [0, 1].
func (t Triangle) Degree(x float64) float64 {
	switch {
	case x == t.B:
		return 1
	case x <= t.A || x >= t.C:
		return 0
	case x < t.B:
		return (x - t.A) / (t.B - t.A)
	default:
		return (t.C - x) / (t.C - t.B)
	}
}

// Peak returns the point of full membership.
func (t Triangle) Peak() float64 {
	return t.B
}

// Support returns the closed interval outside of which the degree is 0.
func (t Triangle) Support() (lo, hi float64) {
	return t.A, t.C
}

// IsSingleton reports whether all three control points coincide.
func (t Triangle) IsSingleton() bool {
	return t.A == t.B && t.B == t.C
}

func (t Triangle) String() string {
	return fmt.Sprintf("trimf[%g, %g, %g]", t.A, t.B, t.C)
}
