package evaluation

import (
	"time"

	"fuzzymenu/internal/cascade"
	"fuzzymenu/internal/config"
	"fuzzymenu/internal/models"
)

// Pipeline is what the evaluator runs scenarios against. *cascade.Cascade
// satisfies it.
type Pipeline interface {
	Recommend(r models.Ratings) (cascade.Result, error)
	Preset() config.Preset
}

// Scenario is a named set of ratings with the dish it should produce.
// An empty Expected means the outcome depends on the preset and is only
// reported.
type Scenario struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Ratings     models.Ratings `json:"ratings" yaml:"ratings"`
	Expected    string         `json:"expected,omitempty" yaml:"expected,omitempty"`
}

// ScenarioResult is one scenario run against one preset.
type ScenarioResult struct {
	Scenario string         `json:"scenario"`
	Preset   string         `json:"preset"`
	Result   cascade.Result `json:"result"`
	Expected string         `json:"expected,omitempty"`
	Passed   bool           `json:"passed"`
	Duration time.Duration  `json:"duration"`
}

// GridReport summarizes a sweep over the four-dimensional rating grid.
type GridReport struct {
	Preset    string         `json:"preset"`
	Step      float64        `json:"step"`
	Points    int            `json:"points"`
	Counts    map[string]int `json:"counts"`
	Unreached []string       `json:"unreached"`
}

// Coverage is the fraction of the menu reached by at least one grid point.
func (g *GridReport) Coverage(menuSize int) float64 {
	if menuSize == 0 {
		return 0
	}
	return float64(menuSize-len(g.Unreached)) / float64(menuSize)
}
