// Package cascade chains three fuzzy inference stages into a dish
// recommendation:
//
//	(sweetness, saltiness) -> desired taste
//	(budget, hunger)       -> dish intensity
//	(taste, intensity)     -> dish index -> nearest menu item
//
// Each stage's crisp output is fed verbatim to the next stage.
package cascade

import (
	"fmt"

	"fuzzymenu/internal/config"
	"fuzzymenu/internal/fuzzy"
	"fuzzymenu/internal/models"
)

// Stage names, also used as engine names.
const (
	StageTaste     = "taste"
	StageIntensity = "intensity"
	StageDish      = "dish"
)

// Result is the outcome of one pass through the cascade.
type Result struct {
	DesiredTaste  float64 `json:"desiredTaste"`
	DishIntensity float64 `json:"dishIntensity"`
	DishIndex     float64 `json:"dishIndex"`
	DishItem      int     `json:"dishItem"`
	DishName      string  `json:"dishName"`
}

// Explanation is a Result plus the trace of every stage, in order.
type Explanation struct {
	Result
	Stages []*fuzzy.Inference `json:"stages"`
}

// Cascade is immutable once built and safe for concurrent use.
type Cascade struct {
	preset    config.Preset
	taste     *fuzzy.Engine
	intensity *fuzzy.Engine
	dish      *fuzzy.Engine
	menu      *models.Menu
	universe  fuzzy.Universe
}

// Preset returns the preset the cascade was built from.
func (c *Cascade) Preset() config.Preset {
	return c.preset
}

// Menu returns the menu used to decode the final stage.
func (c *Cascade) Menu() *models.Menu {
	return c.menu
}

// Engines returns the three stage engines in pipeline order.
func (c *Cascade) Engines() []*fuzzy.Engine {
	return []*fuzzy.Engine{c.taste, c.intensity, c.dish}
}

// InputUniverse returns the universe the four ratings must lie in.
func (c *Cascade) InputUniverse() fuzzy.Universe {
	return c.universe
}

// Recommend runs the three stages and decodes the dish.
func (c *Cascade) Recommend(r models.Ratings) (Result, error) {
	taste, err := evaluate(c.taste, config.VarDesiredTaste, map[string]float64{
		config.VarSweetness: r.Sweetness,
		config.VarSaltiness: r.Saltiness,
	})
	if err != nil {
		return Result{}, err
	}
	intensity, err := evaluate(c.intensity, config.VarDishIntensity, map[string]float64{
		config.VarBudget: r.Budget,
		config.VarHunger: r.Hunger,
	})
	if err != nil {
		return Result{}, err
	}
	index, err := evaluate(c.dish, config.VarDish, map[string]float64{
		config.VarDesiredTaste:  taste,
		config.VarDishIntensity: intensity,
	})
	if err != nil {
		return Result{}, err
	}
	return c.result(taste, intensity, index), nil
}

// Explain runs the cascade like Recommend and keeps each stage's trace.
func (c *Cascade) Explain(r models.Ratings) (*Explanation, error) {
	tasteInf, err := infer(c.taste, map[string]float64{
		config.VarSweetness: r.Sweetness,
		config.VarSaltiness: r.Saltiness,
	})
	if err != nil {
		return nil, err
	}
	intensityInf, err := infer(c.intensity, map[string]float64{
		config.VarBudget: r.Budget,
		config.VarHunger: r.Hunger,
	})
	if err != nil {
		return nil, err
	}
	taste := tasteInf.Outputs[config.VarDesiredTaste]
	intensity := intensityInf.Outputs[config.VarDishIntensity]

	dishInf, err := infer(c.dish, map[string]float64{
		config.VarDesiredTaste:  taste,
		config.VarDishIntensity: intensity,
	})
	if err != nil {
		return nil, err
	}

	return &Explanation{
		Result: c.result(taste, intensity, dishInf.Outputs[config.VarDish]),
		Stages: []*fuzzy.Inference{tasteInf, intensityInf, dishInf},
	}, nil
}

func (c *Cascade) result(taste, intensity, index float64) Result {
	item := c.menu.Decode(index)
	return Result{
		DesiredTaste:  taste,
		DishIntensity: intensity,
		DishIndex:     index,
		DishItem:      item.Index,
		DishName:      item.Name,
	}
}

func evaluate(e *fuzzy.Engine, output string, inputs map[string]float64) (float64, error) {
	out, err := e.Evaluate(inputs)
	if err != nil {
		return 0, fmt.Errorf("%s stage: %w", e.Name(), err)
	}
	return out[output], nil
}

func infer(e *fuzzy.Engine, inputs map[string]float64) (*fuzzy.Inference, error) {
	inf, err := e.Infer(inputs)
	if err != nil {
		return nil, fmt.Errorf("%s stage: %w", e.Name(), err)
	}
	return inf, nil
}
