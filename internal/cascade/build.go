package cascade

import (
	"fmt"

	"fuzzymenu/internal/config"
	"fuzzymenu/internal/fuzzy"
	"fuzzymenu/internal/models"
)

// New builds the variables, rule bases and engines described by p.
// Unknown variables or terms, mismatched stage links and menu entries that
// the dish universe cannot represent are reported here, never during
// inference.
func New(p config.Preset) (*Cascade, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	policy, err := fuzzy.ParseRangePolicy(p.RangePolicy)
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", p.Name, err)
	}
	menu, err := models.NewMenu(p.Menu)
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", p.Name, err)
	}

	u, err := fuzzy.NewUniverse(p.Universe.Lo, p.Universe.Hi, p.Universe.Step)
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", p.Name, err)
	}
	dishU, err := fuzzy.NewUniverse(p.DishUniverse.Lo, p.DishUniverse.Hi, p.DishUniverse.Step)
	if err != nil {
		return nil, fmt.Errorf("preset %q dish universe: %w", p.Name, err)
	}

	b := builder{preset: p}
	sweetness := b.variable(config.VarSweetness, u)
	saltiness := b.variable(config.VarSaltiness, u)
	budget := b.variable(config.VarBudget, u)
	hunger := b.variable(config.VarHunger, u)
	tasteOut := b.variable(config.VarDesiredTaste, u)
	intensityOut := b.variable(config.VarDishIntensity, u)
	// Stage 3 gets its own objects with the same definitions.
	tasteIn := b.variable(config.VarDesiredTaste, u)
	intensityIn := b.variable(config.VarDishIntensity, u)
	dish := b.dishVariable(dishU, menu)
	if b.err != nil {
		return nil, b.err
	}

	c := &Cascade{preset: p, menu: menu, universe: u}
	c.taste = b.engine(StageTaste, p.Rules.Taste, policy, config.VarDesiredTaste, sweetness, saltiness, tasteOut)
	c.intensity = b.engine(StageIntensity, p.Rules.Intensity, policy, config.VarDishIntensity, budget, hunger, intensityOut)
	c.dish = b.engine(StageDish, p.Rules.Dish, policy, config.VarDish, tasteIn, intensityIn, dish)
	if b.err != nil {
		return nil, b.err
	}

	if err := checkLink(tasteOut, tasteIn); err != nil {
		return nil, err
	}
	if err := checkLink(intensityOut, intensityIn); err != nil {
		return nil, err
	}
	return c, nil
}

// checkLink enforces that a stage output and the next stage's input cover
// the same interval.
func checkLink(out, in *fuzzy.Variable) error {
	if !out.Universe().SameBounds(in.Universe()) {
		return fmt.Errorf("stage link %s: output universe %s does not match input universe %s",
			out.Name(), out.Universe(), in.Universe())
	}
	return nil
}

// builder accumulates the first error so construction reads top to bottom.
type builder struct {
	preset config.Preset
	err    error
}

func (b *builder) variable(name string, u fuzzy.Universe) *fuzzy.Variable {
	if b.err != nil {
		return nil
	}
	specs := b.preset.Variables[name]
	terms := make([]fuzzy.Term, len(specs))
	for i, s := range specs {
		tri, err := fuzzy.NewTriangle(s.Points[0], s.Points[1], s.Points[2])
		if err != nil {
			b.err = fmt.Errorf("preset %q: %s.%s: %w", b.preset.Name, name, s.Name, err)
			return nil
		}
		terms[i] = fuzzy.Term{Name: s.Name, MF: tri}
	}
	v, err := fuzzy.NewVariable(name, u, terms...)
	if err != nil {
		b.err = fmt.Errorf("preset %q: %w", b.preset.Name, err)
		return nil
	}
	return v
}

// dishVariable places a singleton at every menu index. Indices must be
// samples of the dish universe or the dish could never carry any area.
func (b *builder) dishVariable(u fuzzy.Universe, menu *models.Menu) *fuzzy.Variable {
	if b.err != nil {
		return nil
	}
	samples := make(map[float64]bool, u.Len())
	for _, s := range u.Points() {
		samples[s] = true
	}

	terms := make([]fuzzy.Term, 0, menu.Len())
	for _, item := range menu.Items() {
		x := float64(item.Index)
		if !samples[x] {
			b.err = fmt.Errorf("preset %q: dish %d (%s) is not a sample of the dish universe %s",
				b.preset.Name, item.Index, item.Name, u)
			return nil
		}
		terms = append(terms, fuzzy.Term{Name: item.Name, MF: fuzzy.Triangle{A: x, B: x, C: x}})
	}
	v, err := fuzzy.NewVariable(config.VarDish, u, terms...)
	if err != nil {
		b.err = fmt.Errorf("preset %q: %w", b.preset.Name, err)
		return nil
	}
	return v
}

func (b *builder) engine(stage string, specs []config.RuleSpec, policy fuzzy.RangePolicy, output string, vars ...*fuzzy.Variable) *fuzzy.Engine {
	if b.err != nil {
		return nil
	}
	byName := make(map[string]*fuzzy.Variable, len(vars))
	for _, v := range vars {
		byName[v.Name()] = v
	}

	rules := make([]fuzzy.Rule, len(specs))
	for i, spec := range specs {
		r, err := buildRule(spec, byName)
		if err != nil {
			b.err = fmt.Errorf("preset %q: %s stage rule %d: %w", b.preset.Name, stage, i, err)
			return nil
		}
		rules[i] = r
	}

	e, err := fuzzy.NewEngine(stage, rules, fuzzy.WithRangePolicy(policy))
	if err != nil {
		b.err = fmt.Errorf("preset %q: %w", b.preset.Name, err)
		return nil
	}
	if _, ok := e.Output(output); !ok || len(e.Outputs()) != 1 {
		b.err = fmt.Errorf("preset %q: %s stage must conclude only %q", b.preset.Name, stage, output)
		return nil
	}
	return e
}

func buildRule(spec config.RuleSpec, vars map[string]*fuzzy.Variable) (fuzzy.Rule, error) {
	ants, err := bindClauses(spec.If, vars)
	if err != nil {
		return fuzzy.Rule{}, err
	}
	cons, err := bindClauses(spec.Then, vars)
	if err != nil {
		return fuzzy.Rule{}, err
	}
	return fuzzy.NewRule(ants, cons)
}

func bindClauses(specs []config.ClauseSpec, vars map[string]*fuzzy.Variable) ([]fuzzy.Clause, error) {
	out := make([]fuzzy.Clause, len(specs))
	for i, c := range specs {
		v, ok := vars[c.Variable]
		if !ok {
			return nil, fmt.Errorf("unknown variable %q", c.Variable)
		}
		out[i] = fuzzy.Clause{Variable: v, Term: c.Term}
	}
	return out, nil
}
