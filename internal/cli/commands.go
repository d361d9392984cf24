package cli

import (
	"context"
	"fmt"
	"time"

	"fuzzymenu/internal/api"
	"fuzzymenu/internal/config"
	"fuzzymenu/internal/evaluation"
	"fuzzymenu/internal/models"

	"github.com/spf13/cobra"
)

func (a *app) recommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend a dish for four ratings",
		Long: `Run the three-stage cascade on four ratings and print the dish.

Example:
  fuzzymenu recommend --sweetness 10 --saltiness 0 --budget 10 --hunger 10
  fuzzymenu recommend -s 7 -a 3 -b 6 -g 8 --preset narrow --explain`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r models.Ratings
			r.Sweetness, _ = cmd.Flags().GetFloat64("sweetness")
			r.Saltiness, _ = cmd.Flags().GetFloat64("saltiness")
			r.Budget, _ = cmd.Flags().GetFloat64("budget")
			r.Hunger, _ = cmd.Flags().GetFloat64("hunger")
			preset, _ := cmd.Flags().GetString("preset")
			explain, _ := cmd.Flags().GetBool("explain")

			s, err := a.buildService(preset)
			if err != nil {
				return err
			}
			defer s.Close()

			if explain {
				exp, err := s.svc.Explain(cmd.Context(), r)
				if err != nil {
					return err
				}
				return a.outputResult(cmd.OutOrStdout(), exp)
			}

			rec, err := s.svc.Recommend(cmd.Context(), r)
			if err != nil {
				return err
			}
			return a.outputResult(cmd.OutOrStdout(), rec)
		},
	}

	cmd.Flags().Float64P("sweetness", "s", 0, "How sweet you feel like eating (0-10)")
	cmd.Flags().Float64P("saltiness", "a", 0, "How salty you feel like eating (0-10)")
	cmd.Flags().Float64P("budget", "b", 0, "How much you are willing to spend (0-10)")
	cmd.Flags().Float64P("hunger", "g", 0, "How hungry you are (0-10)")
	cmd.Flags().String("preset", "", "Preset to use (default from config)")
	cmd.Flags().Bool("explain", false, "Print the full inference trace of every stage")
	for _, f := range config.InputVariables {
		cmd.MarkFlagRequired(f)
	}
	return cmd
}

// EvaluationReport is the output of the evaluate command.
type EvaluationReport struct {
	Preset    string                       `json:"preset"`
	Scenarios []*evaluation.ScenarioResult `json:"scenarios"`
	Failed    int                          `json:"failed"`
	Grid      *evaluation.GridReport       `json:"grid,omitempty"`
}

func (a *app) evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run reference scenarios and an optional grid sweep",
		Long: `Run the built-in scenarios against a preset and report which dish each
produces. With --grid-step, also sweep every rating combination on that
step and count how often each dish is chosen.

Example:
  fuzzymenu evaluate
  fuzzymenu evaluate --scenario dessert_feast --preset narrow
  fuzzymenu evaluate --grid-step 2.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, _ := cmd.Flags().GetString("scenario")
			preset, _ := cmd.Flags().GetString("preset")
			step, _ := cmd.Flags().GetFloat64("grid-step")

			c, err := a.cascadeFor(preset)
			if err != nil {
				return err
			}
			e := evaluation.NewEvaluator(nil)
			report := &EvaluationReport{Preset: c.Preset().Name}

			if scenario != "" {
				r, err := e.EvaluateScenario(c, scenario)
				if err != nil {
					return err
				}
				report.Scenarios = []*evaluation.ScenarioResult{r}
			} else {
				report.Scenarios, err = e.EvaluateAll(c)
				if err != nil {
					return err
				}
			}
			for _, r := range report.Scenarios {
				if !r.Passed {
					report.Failed++
				}
			}

			if step > 0 {
				report.Grid, err = e.Grid(c, step)
				if err != nil {
					return err
				}
			}

			if err := a.outputResult(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d scenario(s) failed", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().String("scenario", "", "Run a single scenario by ID")
	cmd.Flags().String("preset", "", "Preset to use (default from config)")
	cmd.Flags().Float64("grid-step", 0, "Also sweep the rating grid on this step (0 disables, at most 1e6 points)")
	return cmd
}

// PresetInfo is one line of the presets command.
type PresetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	RangePolicy string `json:"rangePolicy"`
	Dishes      int    `json:"dishes"`
	Active      bool   `json:"active"`
}

func (a *app) presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var out []PresetInfo
			for _, p := range a.cfg.AllPresets() {
				policy := p.RangePolicy
				if policy == "" {
					policy = "reject"
				}
				out = append(out, PresetInfo{
					Name:        p.Name,
					Description: p.Description,
					RangePolicy: policy,
					Dishes:      len(p.Menu),
					Active:      p.Name == a.cfg.Preset,
				})
			}
			return a.outputResult(cmd.OutOrStdout(), out)
		},
	}
}

func (a *app) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored recommendations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			byDish, _ := cmd.Flags().GetBool("by-dish")

			s, err := a.buildService("")
			if err != nil {
				return err
			}
			defer s.Close()

			if byDish {
				counts, err := s.svc.DishCounts(cmd.Context())
				if err != nil {
					return err
				}
				return a.outputResult(cmd.OutOrStdout(), counts)
			}

			recs, err := s.svc.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return a.outputResult(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of results")
	cmd.Flags().Bool("by-dish", false, "Count stored recommendations per dish instead")
	return cmd
}

func (a *app) tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			if a.cfg.Server.JWTSecret == "" {
				return fmt.Errorf("no JWT secret configured (server.jwt_secret or FUZZYMENU_JWT_SECRET)")
			}
			token, err := api.NewToken(a.cfg.Server.JWTSecret, subject, time.Now().Add(ttl).Unix())
			if err != nil {
				return err
			}
			return a.outputResult(cmd.OutOrStdout(), map[string]string{"token": token})
		},
	}
	cmd.Flags().String("subject", "fuzzymenu", "Token subject")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

// commandContext returns cmd's context, or Background before Execute sets one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
