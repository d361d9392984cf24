package fuzzy

import (
	"fmt"
	"math"
)

// RangePolicy decides what happens to a crisp input outside its universe.
type RangePolicy int

const (
	// RejectOutOfRange fails the evaluation with an *InvalidInputError.
	RejectOutOfRange RangePolicy = iota
	// ClampOutOfRange moves the value onto the nearest universe bound.
	ClampOutOfRange
)

func (p RangePolicy) String() string {
	switch p {
	case RejectOutOfRange:
		return "reject"
	case ClampOutOfRange:
		return "clamp"
	default:
		return fmt.Sprintf("RangePolicy(%d)", int(p))
	}
}

// ParseRangePolicy accepts "reject" or "clamp"; empty means reject.
func ParseRangePolicy(s string) (RangePolicy, error) {
	switch s {
	case "", "reject":
		return RejectOutOfRange, nil
	case "clamp":
		return ClampOutOfRange, nil
	default:
		return 0, fmt.Errorf("unknown range policy %q", s)
	}
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRangePolicy sets the out-of-range policy. The default rejects.
func WithRangePolicy(p RangePolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// Engine evaluates one rule base: fuzzify, fire, aggregate, defuzzify.
// It is immutable after NewEngine and safe for concurrent use.
type Engine struct {
	name    string
	rules   []Rule
	inputs  []*Variable
	outputs []*Variable
	policy  RangePolicy
}

// NewEngine collects the variables referenced by rules, in first-seen
// order, and checks that names are unambiguous.
func NewEngine(name string, rules []Rule, opts ...Option) (*Engine, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("engine %q: empty rule base", name)
	}

	e := &Engine{name: name, rules: append([]Rule(nil), rules...)}
	seen := make(map[string]*Variable)
	side := make(map[*Variable]string)

	register := func(v *Variable, role string) error {
		if other, ok := seen[v.name]; ok && other != v {
			return fmt.Errorf("engine %q: two distinct variables named %q", name, v.name)
		}
		if prev, ok := side[v]; ok {
			if prev != role {
				return fmt.Errorf("engine %q: variable %q used as both antecedent and consequent", name, v.name)
			}
			return nil
		}
		seen[v.name] = v
		side[v] = role
		if role == "input" {
			e.inputs = append(e.inputs, v)
		} else {
			e.outputs = append(e.outputs, v)
		}
		return nil
	}

	for _, r := range rules {
		for _, c := range r.antecedents {
			if err := register(c.v, "input"); err != nil {
				return nil, err
			}
		}
		for _, c := range r.consequents {
			if err := register(c.v, "output"); err != nil {
				return nil, err
			}
		}
	}

	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Name returns the engine name.
func (e *Engine) Name() string {
	return e.name
}

// Inputs returns the antecedent variables.
func (e *Engine) Inputs() []*Variable {
	return append([]*Variable(nil), e.inputs...)
}

// Outputs returns the consequent variables.
func (e *Engine) Outputs() []*Variable {
	return append([]*Variable(nil), e.outputs...)
}

// Rules returns the rule base in evaluation order.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Policy returns the out-of-range policy.
func (e *Engine) Policy() RangePolicy {
	return e.policy
}

// Input looks up an antecedent variable by name.
func (e *Engine) Input(name string) (*Variable, bool) {
	return lookup(e.inputs, name)
}

// Output looks up a consequent variable by name.
func (e *Engine) Output(name string) (*Variable, bool) {
	return lookup(e.outputs, name)
}

func lookup(vars []*Variable, name string) (*Variable, bool) {
	for _, v := range vars {
		if v.name == name {
			return v, true
		}
	}
	return nil, false
}

// Evaluate maps crisp inputs, keyed by variable name, to crisp outputs.
// Inputs not referenced by the rule base are ignored.
func (e *Engine) Evaluate(inputs map[string]float64) (map[string]float64, error) {
	_, fuzzified, err := e.fuzzify(inputs)
	if err != nil {
		return nil, err
	}
	_, activations, err := e.fire(fuzzified)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(e.outputs))
	for _, v := range e.outputs {
		out[v.name] = v.Defuzzify(activations[v.name])
	}
	return out, nil
}

// RuleFiring is the firing strength of one rule during an inference.
type RuleFiring struct {
	Rule     string  `json:"rule"`
	Strength float64 `json:"strength"`
}

// Inference is the full trace of one evaluation, for callers that need to
// show how the outputs were reached.
type Inference struct {
	Engine      string               `json:"engine"`
	Inputs      map[string]float64   `json:"inputs"`
	Fuzzified   map[string]Degrees   `json:"fuzzified"`
	Rules       []RuleFiring         `json:"rules"`
	Activations map[string]Degrees   `json:"activations"`
	Samples     map[string][]float64 `json:"samples"`
	Curves      map[string][]float64 `json:"curves"`
	Outputs     map[string]float64   `json:"outputs"`
}

// Infer evaluates like Evaluate and keeps every intermediate result.
func (e *Engine) Infer(inputs map[string]float64) (*Inference, error) {
	crisp, fuzzified, err := e.fuzzify(inputs)
	if err != nil {
		return nil, err
	}
	strengths, activations, err := e.fire(fuzzified)
	if err != nil {
		return nil, err
	}

	inf := &Inference{
		Engine:      e.name,
		Inputs:      crisp,
		Fuzzified:   fuzzified,
		Rules:       make([]RuleFiring, len(e.rules)),
		Activations: activations,
		Samples:     make(map[string][]float64, len(e.outputs)),
		Curves:      make(map[string][]float64, len(e.outputs)),
		Outputs:     make(map[string]float64, len(e.outputs)),
	}
	for i, r := range e.rules {
		inf.Rules[i] = RuleFiring{Rule: r.String(), Strength: strengths[i]}
	}
	for _, v := range e.outputs {
		curve := v.Aggregate(activations[v.name])
		inf.Samples[v.name] = v.universe.Points()
		inf.Curves[v.name] = curve
		inf.Outputs[v.name] = v.centroid(curve)
	}
	return inf, nil
}

// fuzzify checks and fuzzifies every antecedent variable.
func (e *Engine) fuzzify(inputs map[string]float64) (map[string]float64, map[string]Degrees, error) {
	crisp := make(map[string]float64, len(e.inputs))
	fuzzified := make(map[string]Degrees, len(e.inputs))
	for _, v := range e.inputs {
		x, ok := inputs[v.name]
		if !ok {
			return nil, nil, &UndefinedInputError{Variable: v.name}
		}
		u := v.universe
		invalid := &InvalidInputError{Variable: v.name, Value: x, Lo: u.Lo(), Hi: u.Hi()}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, nil, invalid
		}
		if !u.Contains(x) {
			if e.policy != ClampOutOfRange {
				return nil, nil, invalid
			}
			x = u.Clamp(x)
		}
		crisp[v.name] = x
		fuzzified[v.name] = v.Fuzzify(x)
	}
	return crisp, fuzzified, nil
}

// fire computes every rule's strength and, per output variable, the
// max-combined strength of each consequent term.
func (e *Engine) fire(fuzzified map[string]Degrees) ([]float64, map[string]Degrees, error) {
	strengths := make([]float64, len(e.rules))
	activations := make(map[string]Degrees, len(e.outputs))
	for _, v := range e.outputs {
		act := make(Degrees, len(v.terms))
		for _, t := range v.terms {
			act[t.Name] = 0
		}
		activations[v.name] = act
	}

	for i, r := range e.rules {
		w, err := r.Strength(fuzzified)
		if err != nil {
			return nil, nil, err
		}
		strengths[i] = w
		for _, c := range r.consequents {
			term := c.v.TermName(c.term)
			if w > activations[c.v.name][term] {
				activations[c.v.name][term] = w
			}
		}
	}
	return strengths, activations, nil
}
