// Package cli provides the fuzzymenu command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"fuzzymenu/internal/cascade"
	"fuzzymenu/internal/config"
	"fuzzymenu/internal/database"
	"fuzzymenu/internal/evaluation"
	"fuzzymenu/internal/monitoring"
	"fuzzymenu/internal/narration"
	"fuzzymenu/internal/recommender"

	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

// app is the state shared by every command of one invocation.
type app struct {
	configPath string
	outputText bool // --text for human-readable output (default is JSON)
	cfg        *config.Config
}

// Execute runs the CLI
func Execute() error {
	a := &app{}
	root := a.rootCmd()
	if err := root.Execute(); err != nil {
		a.outputError(root.ErrOrStderr(), err)
		return err
	}
	return nil
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fuzzymenu",
		Short: "Fuzzy dish recommender",
		Long: `fuzzymenu - Mamdani fuzzy dish recommender

Rates how sweet, salty, hungry and generous you feel on a 0-10 scale and
suggests one of nine dishes through three chained fuzzy inference stages.

Quick Start:
  fuzzymenu recommend --sweetness 10 --saltiness 0 --budget 10 --hunger 10
  fuzzymenu recommend ... --explain      # full inference trace
  fuzzymenu evaluate                     # run the reference scenarios
  fuzzymenu serve                        # HTTP API on :8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "fuzzymenu.yaml", "Path to configuration file")
	root.PersistentFlags().BoolVar(&a.outputText, "text", false, "Human-readable text output (default is JSON)")

	root.AddCommand(
		a.recommendCmd(),
		a.evaluateCmd(),
		a.presetsCmd(),
		a.historyCmd(),
		a.serveCmd(),
		a.tokenCmd(),
		versionCmd(),
	)
	return root
}

// cascadeFor builds the named preset, or the configured one when name is empty.
func (a *app) cascadeFor(name string) (*cascade.Cascade, error) {
	if name == "" {
		name = a.cfg.Preset
	}
	p, err := a.cfg.LookupPreset(name)
	if err != nil {
		return nil, err
	}
	return cascade.New(p)
}

// services is everything a command may need besides the cascade.
type services struct {
	svc     *recommender.Service
	store   *database.Store
	monitor *monitoring.Monitor
	metrics *evaluation.MetricsCollector
}

func (s *services) Close() error {
	return s.store.Close()
}

// buildService wires the recommender with the configured store, memo and
// narrator.
func (a *app) buildService(preset string) (*services, error) {
	c, err := a.cascadeFor(preset)
	if err != nil {
		return nil, err
	}

	out := &services{
		monitor: monitoring.NewMonitor(),
		metrics: evaluation.NewMetricsCollector(),
	}
	opts := []recommender.Option{
		recommender.WithCacheSize(a.cfg.Cache.Size),
		recommender.WithMonitor(out.monitor),
		recommender.WithMetrics(out.metrics),
	}

	if a.cfg.Database.Driver != "" {
		store, err := database.Open(a.cfg.Database.Driver, a.cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		out.store = store
		opts = append(opts, recommender.WithStore(store))
	}

	narrator, err := narration.New(a.cfg.LLM)
	if err != nil {
		out.Close()
		return nil, err
	}
	if narrator != nil {
		opts = append(opts, recommender.WithNarrator(narrator))
	}

	out.svc, err = recommender.NewService(c, opts...)
	if err != nil {
		out.Close()
		return nil, err
	}
	return out, nil
}

// outputResult writes JSON by default, or the text rendering with --text.
func (a *app) outputResult(w io.Writer, result interface{}) error {
	if a.outputText {
		_, err := fmt.Fprintln(w, renderText(result))
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError outputs an error in the appropriate format
func (a *app) outputError(w io.Writer, err error) {
	if a.outputText {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "error",
		"error":  err.Error(),
	})
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fuzzymenu version %s\n", Version)
		},
	}
}
