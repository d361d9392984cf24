package fuzzy

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Degrees maps term names to membership degrees or firing strengths.
type Degrees map[string]float64

// Term is a named membership function of a linguistic variable.
type Term struct {
	Name string   `json:"name" yaml:"name"`
	MF   Triangle `json:"mf" yaml:"mf"`
}

// TermID is a resolved handle to a term of a specific variable.
type TermID int

// Variable is a linguistic variable: a universe of discourse plus an
// ordered set of terms. It holds no per-call state.
type Variable struct {
	name     string
	universe Universe
	terms    []Term
	index    map[string]TermID
}

// NewVariable validates and builds a linguistic variable.
func NewVariable(name string, u Universe, terms ...Term) (*Variable, error) {
	if name == "" {
		return nil, errors.New("variable name is required")
	}
	if u.Len() == 0 {
		return nil, fmt.Errorf("variable %q: empty universe", name)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("variable %q: at least one term is required", name)
	}

	v := &Variable{
		name:     name,
		universe: u,
		terms:    make([]Term, len(terms)),
		index:    make(map[string]TermID, len(terms)),
	}
	for i, t := range terms {
		if t.Name == "" {
			return nil, fmt.Errorf("variable %q: term %d has no name", name, i)
		}
		if _, dup := v.index[t.Name]; dup {
			return nil, fmt.Errorf("variable %q: duplicate term %q", name, t.Name)
		}
		if _, err := NewTriangle(t.MF.A, t.MF.B, t.MF.C); err != nil {
			return nil, fmt.Errorf("variable %q term %q: %w", name, t.Name, err)
		}
		v.terms[i] = t
		v.index[t.Name] = TermID(i)
	}
	return v, nil
}

// Name returns the variable name.
func (v *Variable) Name() string {
	return v.name
}

// Universe returns the variable's universe of discourse.
func (v *Variable) Universe() Universe {
	return v.universe
}

// Terms returns the terms in declaration order.
func (v *Variable) Terms() []Term {
	cp := make([]Term, len(v.terms))
	copy(cp, v.terms)
	return cp
}

// Term resolves a term name to a handle.
func (v *Variable) Term(name string) (TermID, error) {
	id, ok := v.index[name]
	if !ok {
		return 0, fmt.Errorf("variable %q: %w %q", v.name, ErrUnknownTerm, name)
	}
	return id, nil
}

// TermName returns the name behind a handle.
func (v *Variable) TermName(id TermID) string {
	return v.terms[id].Name
}

// Fuzzify returns the degree of x in every term.
func (v *Variable) Fuzzify(x float64) Degrees {
	out := make(Degrees, len(v.terms))
	for _, t := range v.terms {
		out[t.Name] = t.MF.Degree(x)
	}
	return out
}

// Aggregate returns the aggregated output membership at every universe
// sample: each term is clipped at its firing strength (min implication) and
// the clipped terms are combined with max. Keys of strengths that are not
// terms of v are ignored.
func (v *Variable) Aggregate(strengths Degrees) []float64 {
	mu := make([]float64, v.universe.Len())
	for _, t := range v.terms {
		w := strengths[t.Name]
		if w <= 0 {
			continue
		}
		for i, s := range v.universe.points {
			if d := min(w, t.MF.Degree(s)); d > mu[i] {
				mu[i] = d
			}
		}
	}
	return mu
}

// Defuzzify returns the centroid of the aggregated output. When the
// aggregated area is zero, because no rule fired for this variable, the
// result is the midpoint of the universe.
func (v *Variable) Defuzzify(strengths Degrees) float64 {
	return v.centroid(v.Aggregate(strengths))
}

func (v *Variable) centroid(mu []float64) float64 {
	area := floats.Sum(mu)
	if area == 0 {
		return v.universe.Midpoint()
	}
	return floats.Dot(v.universe.points, mu) / area
}

func (v *Variable) String() string {
	return fmt.Sprintf("%s %s", v.name, v.universe)
}
