package cascade

import (
	"errors"
	"math"
	"sync"
	"testing"

	"fuzzymenu/internal/config"
	"fuzzymenu/internal/fuzzy"
	"fuzzymenu/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCascade(t *testing.T, p config.Preset) *Cascade {
	t.Helper()
	c, err := New(p)
	require.NoError(t, err)
	return c
}

// termCentroid is the centroid of a single fully fired term, computed from
// the preset's own breakpoints over its sampled universe.
func termCentroid(t *testing.T, p config.Preset, variable, term string) float64 {
	t.Helper()
	var pts []float64
	for _, s := range p.Variables[variable] {
		if s.Name == term {
			pts = s.Points
		}
	}
	require.Len(t, pts, 3, "%s.%s", variable, term)
	tri := fuzzy.Triangle{A: pts[0], B: pts[1], C: pts[2]}

	var num, den float64
	for x := p.Universe.Lo; x <= p.Universe.Hi+1e-9; x += p.Universe.Step {
		d := tri.Degree(x)
		num += x * d
		den += d
	}
	require.NotZero(t, den)
	return num / den
}

func TestBuiltinPresets_EndToEnd(t *testing.T) {
	for _, p := range config.BuiltinPresets() {
		t.Run(p.Name, func(t *testing.T) {
			c := mustCascade(t, p)

			res, err := c.Recommend(models.Ratings{Sweetness: 10, Saltiness: 0, Budget: 10, Hunger: 10})
			require.NoError(t, err)
			assert.Equal(t, "Selva negra", res.DishName)
			assert.Equal(t, 6, res.DishItem)
			assert.InDelta(t, 6.0, res.DishIndex, 1e-9)

			res, err = c.Recommend(models.Ratings{Sweetness: 0, Saltiness: 0, Budget: 0, Hunger: 0})
			require.NoError(t, err)
			assert.InDelta(t, termCentroid(t, p, config.VarDesiredTaste, "agridulce"), res.DesiredTaste, 1e-9)
			assert.InDelta(t, 5.0, res.DesiredTaste, 1e-9)
			assert.InDelta(t, termCentroid(t, p, config.VarDishIntensity, "ligero"), res.DishIntensity, 1e-9)
			assert.Equal(t, "Jesuita", res.DishName)
		})
	}
}

func TestSymmetricPreset_Table(t *testing.T) {
	c := mustCascade(t, config.SymmetricPreset())

	tests := []struct {
		r    models.Ratings
		dish string
	}{
		{models.Ratings{Sweetness: 5, Saltiness: 5, Budget: 5, Hunger: 5}, "Brocheta de pollo agridulce"},
		{models.Ratings{Sweetness: 0, Saltiness: 10, Budget: 10, Hunger: 10}, "Pizza"},
		{models.Ratings{Sweetness: 0, Saltiness: 10, Budget: 0, Hunger: 0}, "Bastoncitos de muzzarela"},
		{models.Ratings{Sweetness: 10, Saltiness: 0, Budget: 0, Hunger: 0}, "Flan"},
		{models.Ratings{Sweetness: 0, Saltiness: 0, Budget: 10, Hunger: 10}, "Pollo Tariyaki"},
		{models.Ratings{Sweetness: 10, Saltiness: 10, Budget: 0, Hunger: 0}, "Jesuita"},
	}
	for _, tt := range tests {
		res, err := c.Recommend(tt.r)
		require.NoError(t, err)
		assert.Equal(t, tt.dish, res.DishName, "%+v", tt.r)
	}

	res, err := c.Recommend(models.Ratings{Sweetness: 10, Saltiness: 0, Budget: 10, Hunger: 10})
	require.NoError(t, err)
	assert.InDelta(t, 26.0/3.0, res.DesiredTaste, 1e-9)
	assert.InDelta(t, 26.0/3.0, res.DishIntensity, 1e-9)
}

func TestNarrowPreset_Values(t *testing.T) {
	c := mustCascade(t, config.NarrowPreset())

	res, err := c.Recommend(models.Ratings{Sweetness: 10, Saltiness: 0, Budget: 10, Hunger: 10})
	require.NoError(t, err)
	assert.InDelta(t, 9.0, res.DesiredTaste, 1e-9)
	assert.InDelta(t, 9.0, res.DishIntensity, 1e-9)

	res, err = c.Recommend(models.Ratings{Sweetness: 0, Saltiness: 0, Budget: 0, Hunger: 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.DishIntensity, 1e-9)
}

func TestBuiltinPresets_Invariants(t *testing.T) {
	for _, p := range config.BuiltinPresets() {
		t.Run(p.Name, func(t *testing.T) {
			c := mustCascade(t, p)
			dishHi := p.DishUniverse.Hi

			for s := 0.0; s <= 10; s += 2.5 {
				for sa := 0.0; sa <= 10; sa += 2.5 {
					for b := 0.0; b <= 10; b += 2.5 {
						for h := 0.0; h <= 10; h += 2.5 {
							r := models.Ratings{Sweetness: s, Saltiness: sa, Budget: b, Hunger: h}
							exp, err := c.Explain(r)
							require.NoError(t, err)

							assert.True(t, exp.DesiredTaste >= 0 && exp.DesiredTaste <= 10)
							assert.True(t, exp.DishIntensity >= 0 && exp.DishIntensity <= 10)
							assert.True(t, exp.DishIndex >= 0 && exp.DishIndex <= dishHi)
							assert.NotEmpty(t, exp.DishName)

							require.Len(t, exp.Stages, 3)
							for _, st := range exp.Stages {
								for _, rf := range st.Rules {
									assert.True(t, rf.Strength >= 0 && rf.Strength <= 1, rf.Rule)
								}
							}
							// Stage outputs feed the next stage verbatim.
							assert.Equal(t, exp.DesiredTaste, exp.Stages[2].Inputs[config.VarDesiredTaste])
							assert.Equal(t, exp.DishIntensity, exp.Stages[2].Inputs[config.VarDishIntensity])
						}
					}
				}
			}
		})
	}
}

func TestRecommend_MatchesExplain(t *testing.T) {
	for _, p := range config.BuiltinPresets() {
		c := mustCascade(t, p)
		r := models.Ratings{Sweetness: 7, Saltiness: 3, Budget: 6, Hunger: 8}

		res, err := c.Recommend(r)
		require.NoError(t, err)
		exp, err := c.Explain(r)
		require.NoError(t, err)
		assert.Equal(t, res, exp.Result, p.Name)
	}
}

func TestRecommend_Idempotent(t *testing.T) {
	c := mustCascade(t, config.SymmetricPreset())
	r := models.Ratings{Sweetness: 7.3, Saltiness: 2.9, Budget: 4.4, Hunger: 8.1}

	first, err := c.Recommend(r)
	require.NoError(t, err)
	second, err := c.Recommend(r)
	require.NoError(t, err)
	assert.Equal(t, math.Float64bits(first.DishIndex), math.Float64bits(second.DishIndex))
	assert.Equal(t, first, second)
}

func TestRecommend_Concurrent(t *testing.T) {
	c := mustCascade(t, config.NarrowPreset())
	r := models.Ratings{Sweetness: 3, Saltiness: 6, Budget: 9, Hunger: 2}
	want, err := c.Recommend(r)
	require.NoError(t, err)

	var wg sync.WaitGroup
	got := make([]Result, 32)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = c.Recommend(r)
		}(i)
	}
	wg.Wait()
	for _, g := range got {
		assert.Equal(t, want, g)
	}
}

func TestRecommend_InvalidInput(t *testing.T) {
	c := mustCascade(t, config.SymmetricPreset())

	_, err := c.Recommend(models.Ratings{Sweetness: 11})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fuzzy.ErrInvalidInput))
	assert.Contains(t, err.Error(), "taste stage")

	_, err = c.Recommend(models.Ratings{Hunger: math.NaN()})
	var invalid *fuzzy.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, config.VarHunger, invalid.Variable)

	_, err = c.Explain(models.Ratings{Budget: -1})
	assert.True(t, errors.Is(err, fuzzy.ErrInvalidInput))
}

func TestRecommend_ClampPolicy(t *testing.T) {
	p := config.SymmetricPreset()
	p.RangePolicy = "clamp"
	c := mustCascade(t, p)

	over, err := c.Recommend(models.Ratings{Sweetness: 15, Saltiness: -2, Budget: 12, Hunger: 30})
	require.NoError(t, err)
	edge, err := c.Recommend(models.Ratings{Sweetness: 10, Saltiness: 0, Budget: 10, Hunger: 10})
	require.NoError(t, err)
	assert.Equal(t, edge, over)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *config.Preset)
		want   string
	}{
		{"unknown term", func(p *config.Preset) { p.Rules.Taste[0].Then[0].Term = "umami" }, "unknown term"},
		{"unknown variable", func(p *config.Preset) { p.Rules.Intensity[0].If[0].Variable = "thirst" }, "unknown variable"},
		{"variable from another stage", func(p *config.Preset) { p.Rules.Taste[0].If[0].Variable = config.VarBudget }, "unknown variable"},
		{"unknown dish", func(p *config.Preset) { p.Rules.Dish[0].Then[0].Term = "Sushi" }, "unknown term"},
		{"dish off grid", func(p *config.Preset) { p.DishUniverse.Step = 2 }, "not a sample"},
		{"dish outside universe", func(p *config.Preset) { p.DishUniverse.Hi = 7 }, "not a sample"},
		{"bad breakpoints", func(p *config.Preset) { p.Variables[config.VarHunger][1].Points = []float64{7, 5, 2} }, "a <= b <= c"},
		{"bad universe", func(p *config.Preset) { p.Universe.Step = 0 }, "step"},
		{"bad policy", func(p *config.Preset) { p.RangePolicy = "wrap" }, "range policy"},
		{"gap in menu", func(p *config.Preset) { delete(p.Menu, 3) }, "contiguous"},
		{"wrong conclusion", func(p *config.Preset) {
			p.Rules.Taste[0].Then[0] = config.ClauseSpec{Variable: config.VarSweetness, Term: "alta"}
		}, "both antecedent and consequent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := config.SymmetricPreset()
			tt.mutate(&p)
			_, err := New(p)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCheckLink(t *testing.T) {
	wide, err := fuzzy.NewUniverse(0, 10, 1)
	require.NoError(t, err)
	short, err := fuzzy.NewUniverse(0, 9, 1)
	require.NoError(t, err)
	term := fuzzy.Term{Name: "x", MF: fuzzy.Triangle{A: 0, B: 5, C: 9}}

	out, err := fuzzy.NewVariable("t", wide, term)
	require.NoError(t, err)
	in, err := fuzzy.NewVariable("t", short, term)
	require.NoError(t, err)
	same, err := fuzzy.NewVariable("t", wide, term)
	require.NoError(t, err)

	assert.Error(t, checkLink(out, in))
	assert.NoError(t, checkLink(out, same))
}

func TestCascade_Accessors(t *testing.T) {
	c := mustCascade(t, config.NarrowPreset())
	assert.Equal(t, "narrow", c.Preset().Name)
	assert.Equal(t, 9, c.Menu().Len())
	assert.Equal(t, 10.0, c.InputUniverse().Hi())

	engines := c.Engines()
	require.Len(t, engines, 3)
	assert.Equal(t, StageTaste, engines[0].Name())
	assert.Equal(t, StageIntensity, engines[1].Name())
	assert.Equal(t, StageDish, engines[2].Name())

	dish, ok := engines[2].Output(config.VarDish)
	require.True(t, ok)
	assert.Equal(t, 9, dish.Universe().Len())
	for _, term := range dish.Terms() {
		assert.True(t, term.MF.IsSingleton(), term.Name)
	}
}
