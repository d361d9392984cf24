package fuzzy

import (
	"errors"
	"fmt"
	"strings"
)

// Clause names a term of a variable, as written in a rule.
type Clause struct {
	Variable *Variable
	Term     string
}

type boundClause struct {
	v    *Variable
	term TermID
}

func (c boundClause) String() string {
	return fmt.Sprintf("%s IS %s", c.v.name, c.v.TermName(c.term))
}

// Rule is a conjunction of antecedent clauses implying one or more
// consequent clauses. Terms are resolved when the rule is built.
type Rule struct {
	antecedents []boundClause
	consequents []boundClause
}

// NewRule binds every clause to its variable's term handle.
func NewRule(antecedents, consequents []Clause) (Rule, error) {
	if len(antecedents) == 0 {
		return Rule{}, errors.New("rule has no antecedent clauses")
	}
	if len(consequents) == 0 {
		return Rule{}, errors.New("rule has no consequent clauses")
	}
	ants, err := bindClauses(antecedents)
	if err != nil {
		return Rule{}, fmt.Errorf("antecedent: %w", err)
	}
	cons, err := bindClauses(consequents)
	if err != nil {
		return Rule{}, fmt.Errorf("consequent: %w", err)
	}
	return Rule{antecedents: ants, consequents: cons}, nil
}

func bindClauses(clauses []Clause) ([]boundClause, error) {
	bound := make([]boundClause, len(clauses))
	for i, c := range clauses {
		if c.Variable == nil {
			return nil, fmt.Errorf("clause %d has no variable", i)
		}
		id, err := c.Variable.Term(c.Term)
		if err != nil {
			return nil, err
		}
		bound[i] = boundClause{v: c.Variable, term: id}
	}
	return bound, nil
}

// Strength is the firing strength of the rule: the minimum degree over its
// antecedent clauses. fuzzified maps variable names to their fuzzified inputs.
func (r Rule) Strength(fuzzified map[string]Degrees) (float64, error) {
	strength := 1.0
	for _, c := range r.antecedents {
		degrees, ok := fuzzified[c.v.name]
		if !ok {
			return 0, &UndefinedInputError{Variable: c.v.name}
		}
		strength = min(strength, degrees[c.v.TermName(c.term)])
	}
	return strength, nil
}

// Antecedents returns the antecedent clauses.
func (r Rule) Antecedents() []Clause {
	return unbind(r.antecedents)
}

// Consequents returns the consequent clauses.
func (r Rule) Consequents() []Clause {
	return unbind(r.consequents)
}

func unbind(bound []boundClause) []Clause {
	out := make([]Clause, len(bound))
	for i, c := range bound {
		out[i] = Clause{Variable: c.v, Term: c.v.TermName(c.term)}
	}
	return out
}

func (r Rule) String() string {
	ants := make([]string, len(r.antecedents))
	for i, c := range r.antecedents {
		ants[i] = c.String()
	}
	cons := make([]string, len(r.consequents))
	for i, c := range r.consequents {
		cons[i] = c.String()
	}
	return "IF " + strings.Join(ants, " AND ") + " THEN " + strings.Join(cons, " AND ")
}
