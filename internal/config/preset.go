package config

import (
	"fmt"
	"slices"
	"sort"
)

// Variable names used by the recommendation cascade.
const (
	VarSweetness     = "sweetness"
	VarSaltiness     = "saltiness"
	VarBudget        = "budget"
	VarHunger        = "hunger"
	VarDesiredTaste  = "desired_taste"
	VarDishIntensity = "dish_intensity"
	VarDish          = "dish"
)

// InputVariables are the four user ratings, in prompt order.
var InputVariables = []string{VarSweetness, VarSaltiness, VarBudget, VarHunger}

// UniverseSpec describes a sampled universe of discourse.
type UniverseSpec struct {
	Lo   float64 `yaml:"lo" json:"lo"`
	Hi   float64 `yaml:"hi" json:"hi"`
	Step float64 `yaml:"step" json:"step"`
}

// TermSpec is a triangular term given by its breakpoints (a, b, c).
type TermSpec struct {
	Name   string    `yaml:"name" json:"name"`
	Points []float64 `yaml:"points" json:"points"`
}

// ClauseSpec names a variable and one of its terms.
type ClauseSpec struct {
	Variable string `yaml:"variable" json:"variable"`
	Term     string `yaml:"term" json:"term"`
}

// RuleSpec is IF <all of If> THEN <all of Then>.
type RuleSpec struct {
	If   []ClauseSpec `yaml:"if" json:"if"`
	Then []ClauseSpec `yaml:"then" json:"then"`
}

// RuleTables holds the rule base of each cascade stage.
type RuleTables struct {
	Taste     []RuleSpec `yaml:"taste" json:"taste"`
	Intensity []RuleSpec `yaml:"intensity" json:"intensity"`
	Dish      []RuleSpec `yaml:"dish" json:"dish"`
}

// Preset is a complete, named parameterization of the cascade: term
// breakpoints, universes, rule tables and the menu. The dish variable's
// terms are not listed; each menu item becomes a singleton at its index.
type Preset struct {
	Name         string                `yaml:"name" json:"name"`
	Description  string                `yaml:"description,omitempty" json:"description,omitempty"`
	RangePolicy  string                `yaml:"range_policy,omitempty" json:"rangePolicy,omitempty"`
	Universe     UniverseSpec          `yaml:"universe" json:"universe"`
	DishUniverse UniverseSpec          `yaml:"dish_universe" json:"dishUniverse"`
	Variables    map[string][]TermSpec `yaml:"variables" json:"variables"`
	Rules        RuleTables            `yaml:"rules" json:"rules"`
	Menu         map[int]string        `yaml:"menu" json:"menu"`
}

// Validate checks the preset's shape. Cross references (unknown terms,
// mismatched universes) are checked when the cascade is built.
func (p Preset) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("preset name is required")
	}
	for _, name := range []string{VarSweetness, VarSaltiness, VarBudget, VarHunger, VarDesiredTaste, VarDishIntensity} {
		terms, ok := p.Variables[name]
		if !ok || len(terms) == 0 {
			return fmt.Errorf("preset %q: variable %q has no terms", p.Name, name)
		}
		for _, t := range terms {
			if len(t.Points) != 3 {
				return fmt.Errorf("preset %q: term %s.%s needs 3 breakpoints, got %d", p.Name, name, t.Name, len(t.Points))
			}
		}
	}
	if len(p.Rules.Taste) == 0 || len(p.Rules.Intensity) == 0 || len(p.Rules.Dish) == 0 {
		return fmt.Errorf("preset %q: every stage needs a rule table", p.Name)
	}
	if len(p.Menu) == 0 {
		return fmt.Errorf("preset %q: menu is empty", p.Name)
	}
	return nil
}

// Dishes lists the menu indices in ascending order.
func (p Preset) Dishes() []int {
	idx := make([]int, 0, len(p.Menu))
	for i := range p.Menu {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// menu is the reference nine-dish menu.
func menu() map[int]string {
	return map[int]string{
		0: "Flan",
		1: "Bastoncitos de muzzarela",
		2: "Jesuita",
		3: "Volcán de chocolate",
		4: "Papas fritas",
		5: "Brocheta de pollo agridulce",
		6: "Selva negra",
		7: "Pizza",
		8: "Pollo Tariyaki",
	}
}

func levels(low, mid, high []float64) []TermSpec {
	return []TermSpec{
		{Name: "baja", Points: slices.Clone(low)},
		{Name: "media", Points: slices.Clone(mid)},
		{Name: "alta", Points: slices.Clone(high)},
	}
}

func tastes(low, mid, high []float64) []TermSpec {
	return []TermSpec{
		{Name: "salado", Points: slices.Clone(low)},
		{Name: "agridulce", Points: slices.Clone(mid)},
		{Name: "dulce", Points: slices.Clone(high)},
	}
}

func intensities(low, mid, high []float64) []TermSpec {
	return []TermSpec{
		{Name: "ligero", Points: slices.Clone(low)},
		{Name: "moderado", Points: slices.Clone(mid)},
		{Name: "fuerte", Points: slices.Clone(high)},
	}
}

// table expands rows of (left term, right term, conclusion) into rules.
func table(left, right, out string, rows [][3]string) []RuleSpec {
	rules := make([]RuleSpec, len(rows))
	for i, r := range rows {
		rules[i] = RuleSpec{
			If:   []ClauseSpec{{Variable: left, Term: r[0]}, {Variable: right, Term: r[1]}},
			Then: []ClauseSpec{{Variable: out, Term: r[2]}},
		}
	}
	return rules
}

func ruleTables() RuleTables {
	return RuleTables{
		Taste: table(VarSweetness, VarSaltiness, VarDesiredTaste, [][3]string{
			{"baja", "baja", "agridulce"},
			{"baja", "media", "salado"},
			{"baja", "alta", "salado"},
			{"media", "baja", "dulce"},
			{"media", "media", "agridulce"},
			{"media", "alta", "salado"},
			{"alta", "baja", "dulce"},
			{"alta", "media", "dulce"},
			{"alta", "alta", "agridulce"},
		}),
		Intensity: table(VarBudget, VarHunger, VarDishIntensity, [][3]string{
			{"baja", "baja", "ligero"},
			{"baja", "media", "ligero"},
			{"baja", "alta", "ligero"},
			{"media", "baja", "ligero"},
			{"media", "media", "moderado"},
			{"media", "alta", "fuerte"},
			{"alta", "baja", "moderado"},
			{"alta", "media", "fuerte"},
			{"alta", "alta", "fuerte"},
		}),
		Dish: table(VarDesiredTaste, VarDishIntensity, VarDish, [][3]string{
			{"dulce", "ligero", "Flan"},
			{"salado", "ligero", "Bastoncitos de muzzarela"},
			{"agridulce", "ligero", "Jesuita"},
			{"dulce", "moderado", "Volcán de chocolate"},
			{"salado", "moderado", "Papas fritas"},
			{"agridulce", "moderado", "Brocheta de pollo agridulce"},
			{"dulce", "fuerte", "Selva negra"},
			{"salado", "fuerte", "Pizza"},
			{"agridulce", "fuerte", "Pollo Tariyaki"},
		}),
	}
}

// SymmetricPreset uses evenly overlapping terms on every variable and a ten
// sample dish universe.
func SymmetricPreset() Preset {
	low, mid, high := []float64{0, 0, 5}, []float64{2.5, 5, 7.5}, []float64{5, 10, 10}
	return Preset{
		Name:         "symmetric",
		Description:  "baja/media/alta at [0,0,5] [2.5,5,7.5] [5,10,10]; dish universe 0..9",
		Universe:     UniverseSpec{Lo: 0, Hi: 10, Step: 1},
		DishUniverse: UniverseSpec{Lo: 0, Hi: 9, Step: 1},
		Variables: map[string][]TermSpec{
			VarSweetness:     levels(low, mid, high),
			VarSaltiness:     levels(low, mid, high),
			VarBudget:        levels(low, mid, high),
			VarHunger:        levels(low, mid, high),
			VarDesiredTaste:  tastes(low, mid, high),
			VarDishIntensity: intensities(low, mid, high),
		},
		Rules: ruleTables(),
		Menu:  menu(),
	}
}

// NarrowPreset uses wider input terms, tighter intermediate middles and a
// nine sample dish universe.
func NarrowPreset() Preset {
	in := func() []TermSpec { return levels([]float64{0, 0, 4}, []float64{2, 5, 8}, []float64{6, 10, 10}) }
	low, mid, high := []float64{0, 0, 4}, []float64{3, 5, 7}, []float64{6, 10, 10}
	return Preset{
		Name:         "narrow",
		Description:  "baja/media/alta at [0,0,4] [2,5,8] [6,10,10]; intermediate middles at [3,5,7]; dish universe 0..8",
		Universe:     UniverseSpec{Lo: 0, Hi: 10, Step: 1},
		DishUniverse: UniverseSpec{Lo: 0, Hi: 8, Step: 1},
		Variables: map[string][]TermSpec{
			VarSweetness:     in(),
			VarSaltiness:     in(),
			VarBudget:        in(),
			VarHunger:        in(),
			VarDesiredTaste:  tastes(low, mid, high),
			VarDishIntensity: intensities(low, mid, high),
		},
		Rules: ruleTables(),
		Menu:  menu(),
	}
}

// BuiltinPresets returns fresh copies of the built-in presets.
func BuiltinPresets() []Preset {
	return []Preset{SymmetricPreset(), NarrowPreset()}
}
