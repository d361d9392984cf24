package cli

import (
	"fmt"
	"sort"
	"strings"

	"fuzzymenu/internal/cascade"
	"fuzzymenu/internal/models"
)

// renderText formats the results the CLI prints for --text.
func renderText(v interface{}) string {
	switch r := v.(type) {
	case *models.Recommendation:
		s := fmt.Sprintf("%s (item %d, index %.3f)\n  taste %.3f, intensity %.3f, preset %s, id %s",
			r.DishName, r.DishItem, r.DishIndex, r.DesiredTaste, r.DishIntensity, r.Preset, r.ID)
		if r.Narration != "" {
			s += "\n  " + r.Narration
		}
		return s

	case *cascade.Explanation:
		var b strings.Builder
		fmt.Fprintf(&b, "%s (item %d, index %.3f)\n", r.DishName, r.DishItem, r.DishIndex)
		for _, st := range r.Stages {
			fmt.Fprintf(&b, "stage %s\n", st.Engine)
			for _, f := range st.Rules {
				if f.Strength > 0 {
					fmt.Fprintf(&b, "  %.3f  %s\n", f.Strength, f.Rule)
				}
			}
			for name, out := range st.Outputs {
				fmt.Fprintf(&b, "  -> %s = %.3f\n", name, out)
			}
		}
		return strings.TrimRight(b.String(), "\n")

	case []models.Recommendation:
		lines := make([]string, len(r))
		for i, rec := range r {
			lines[i] = fmt.Sprintf("%s  %-28s  s=%g a=%g b=%g g=%g  %s",
				rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.DishName,
				rec.Sweetness, rec.Saltiness, rec.Budget, rec.Hunger, rec.ID)
		}
		return strings.Join(lines, "\n")

	case map[string]int:
		names := make([]string, 0, len(r))
		for name := range r {
			names = append(names, name)
		}
		sort.Strings(names)
		lines := make([]string, len(names))
		for i, name := range names {
			lines[i] = fmt.Sprintf("%5d  %s", r[name], name)
		}
		return strings.Join(lines, "\n")

	case []PresetInfo:
		lines := make([]string, len(r))
		for i, p := range r {
			mark := " "
			if p.Active {
				mark = "*"
			}
			lines[i] = fmt.Sprintf("%s %-10s %-6s %s", mark, p.Name, p.RangePolicy, p.Description)
		}
		return strings.Join(lines, "\n")

	case *EvaluationReport:
		var b strings.Builder
		fmt.Fprintf(&b, "preset %s: %d scenario(s), %d failed\n", r.Preset, len(r.Scenarios), r.Failed)
		for _, s := range r.Scenarios {
			status := "ok  "
			if !s.Passed {
				status = "FAIL"
			}
			fmt.Fprintf(&b, "  %s %-14s %s\n", status, s.Scenario, s.Result.DishName)
		}
		if r.Grid != nil {
			fmt.Fprintf(&b, "grid step %g: %d points\n", r.Grid.Step, r.Grid.Points)
			dishes := make([]string, 0, len(r.Grid.Counts))
			for dish := range r.Grid.Counts {
				dishes = append(dishes, dish)
			}
			sort.Strings(dishes)
			for _, dish := range dishes {
				fmt.Fprintf(&b, "  %5d  %s\n", r.Grid.Counts[dish], dish)
			}
			if len(r.Grid.Unreached) > 0 {
				fmt.Fprintf(&b, "  unreached: %s\n", strings.Join(r.Grid.Unreached, ", "))
			}
		}
		return strings.TrimRight(b.String(), "\n")

	default:
		return fmt.Sprintf("%+v", v)
	}
}
