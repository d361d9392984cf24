// Package evaluation runs named rating scenarios and grid sweeps against a
// cascade and exposes recommendation metrics to prometheus.
package evaluation

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"fuzzymenu/internal/fuzzy"
	"fuzzymenu/internal/models"
)

// MaxGridPoints bounds how many cascades one Grid sweep may run.
const MaxGridPoints = 1_000_000

// Evaluator holds the scenario catalogue.
type Evaluator struct {
	scenarios map[string]*Scenario
	metrics   *MetricsCollector
}

// NewEvaluator creates an evaluator with the built-in scenarios. metrics may
// be nil.
func NewEvaluator(metrics *MetricsCollector) *Evaluator {
	e := &Evaluator{
		scenarios: make(map[string]*Scenario),
		metrics:   metrics,
	}
	e.loadScenarios()
	return e
}

// loadScenarios registers the reference cases. Each corner of the rating
// space maps to the dish both presets agree on.
func (e *Evaluator) loadScenarios() {
	builtin := []*Scenario{
		{
			ID:          "dessert_feast",
			Name:        "Dessert Feast",
			Description: "Sweet tooth, generous budget and very hungry.",
			Ratings:     models.Ratings{Sweetness: 10, Saltiness: 0, Budget: 10, Hunger: 10},
			Expected:    "Selva negra",
		},
		{
			ID:          "light_snack",
			Name:        "Light Snack",
			Description: "No preference, no budget, not hungry.",
			Ratings:     models.Ratings{},
			Expected:    "Jesuita",
		},
		{
			ID:          "middle_ground",
			Name:        "Middle Ground",
			Description: "Every rating at the middle of the scale.",
			Ratings:     models.Ratings{Sweetness: 5, Saltiness: 5, Budget: 5, Hunger: 5},
			Expected:    "Brocheta de pollo agridulce",
		},
		{
			ID:          "salty_feast",
			Name:        "Salty Feast",
			Description: "Savoury craving with money and appetite to spare.",
			Ratings:     models.Ratings{Sweetness: 0, Saltiness: 10, Budget: 10, Hunger: 10},
			Expected:    "Pizza",
		},
		{
			ID:          "salty_snack",
			Name:        "Salty Snack",
			Description: "Savoury craving on an empty wallet.",
			Ratings:     models.Ratings{Sweetness: 0, Saltiness: 10},
			Expected:    "Bastoncitos de muzzarela",
		},
		{
			ID:          "sweet_snack",
			Name:        "Sweet Snack",
			Description: "Something sweet and small.",
			Ratings:     models.Ratings{Sweetness: 10},
			Expected:    "Flan",
		},
		{
			ID:          "big_appetite",
			Name:        "Big Appetite",
			Description: "No taste preference, but hungry and willing to pay.",
			Ratings:     models.Ratings{Budget: 10, Hunger: 10},
			Expected:    "Pollo Tariyaki",
		},
		{
			ID:          "mostly_sweet",
			Name:        "Mostly Sweet",
			Description: "Leaning sweet with a decent budget. The presets disagree here.",
			Ratings:     models.Ratings{Sweetness: 7, Saltiness: 3, Budget: 6, Hunger: 8},
		},
	}
	for _, s := range builtin {
		e.scenarios[s.ID] = s
	}
}

// AddScenario registers or replaces a scenario.
func (e *Evaluator) AddScenario(s Scenario) error {
	if s.ID == "" {
		return fmt.Errorf("scenario ID is required")
	}
	e.scenarios[s.ID] = &s
	return nil
}

// HasScenario checks if a scenario exists
func (e *Evaluator) HasScenario(id string) bool {
	_, exists := e.scenarios[id]
	return exists
}

// GetScenarios returns all scenarios ordered by ID.
func (e *Evaluator) GetScenarios() []*Scenario {
	scenarios := make([]*Scenario, 0, len(e.scenarios))
	for _, s := range e.scenarios {
		scenarios = append(scenarios, s)
	}
	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].ID < scenarios[j].ID })
	return scenarios
}

// EvaluateScenario runs one scenario through p.
func (e *Evaluator) EvaluateScenario(p Pipeline, id string) (*ScenarioResult, error) {
	scenario, exists := e.scenarios[id]
	if !exists {
		return nil, fmt.Errorf("scenario not found: %s", id)
	}

	preset := p.Preset().Name
	start := time.Now()
	res, err := p.Recommend(scenario.Ratings)
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", id, err)
	}

	out := &ScenarioResult{
		Scenario: id,
		Preset:   preset,
		Result:   res,
		Expected: scenario.Expected,
		Passed:   scenario.Expected == "" || scenario.Expected == res.DishName,
		Duration: elapsed,
	}
	if !out.Passed {
		log.Printf("Scenario %s on preset %s: got %q, want %q", id, preset, res.DishName, scenario.Expected)
	}
	if e.metrics != nil {
		e.metrics.RecordScenario(out)
	}
	return out, nil
}

// EvaluateAll runs every scenario in ID order.
func (e *Evaluator) EvaluateAll(p Pipeline) ([]*ScenarioResult, error) {
	scenarios := e.GetScenarios()
	results := make([]*ScenarioResult, 0, len(scenarios))
	for _, s := range scenarios {
		r, err := e.EvaluateScenario(p, s.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// Grid sweeps every combination of the four ratings over the preset's
// input interval in increments of step, counting the dish each point
// decodes to.
func (e *Evaluator) Grid(p Pipeline, step float64) (*GridReport, error) {
	preset := p.Preset()
	axis, err := fuzzy.NewUniverse(preset.Universe.Lo, preset.Universe.Hi, step)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	values := axis.Points()
	if n := math.Pow(float64(len(values)), 4); n > MaxGridPoints {
		return nil, fmt.Errorf("grid: step %g gives %.0f points, more than %d", step, n, MaxGridPoints)
	}

	report := &GridReport{
		Preset: preset.Name,
		Step:   step,
		Counts: make(map[string]int),
	}
	for _, s := range values {
		for _, sa := range values {
			for _, b := range values {
				for _, h := range values {
					res, err := p.Recommend(models.Ratings{Sweetness: s, Saltiness: sa, Budget: b, Hunger: h})
					if err != nil {
						return nil, fmt.Errorf("grid point (%g, %g, %g, %g): %w", s, sa, b, h, err)
					}
					report.Counts[res.DishName]++
					report.Points++
				}
			}
		}
	}

	for _, i := range preset.Dishes() {
		name := preset.Menu[i]
		if report.Counts[name] == 0 {
			report.Unreached = append(report.Unreached, name)
		}
	}
	return report, nil
}
