// Package config loads the YAML configuration file and holds the named
// cascade presets.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultPreset is the preset used when none is configured.
const DefaultPreset = "symmetric"

// Config represents the application configuration
type Config struct {
	Preset   string         `yaml:"preset"`
	Presets  []Preset       `yaml:"presets,omitempty"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	LLM      LLMConfig      `yaml:"llm"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	JWTSecret   string `yaml:"jwt_secret"`
}

// DatabaseConfig selects the history store. An empty driver disables it.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// CacheConfig sizes the recommendation memo. Zero disables it.
type CacheConfig struct {
	Size int `yaml:"size"`
}

// LLMConfig enables narration of recommendations.
type LLMConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Preset: DefaultPreset,
		Server: ServerConfig{
			Addr:        ":8080",
			MetricsAddr: ":9090",
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "fuzzymenu.db",
		},
		Cache: CacheConfig{Size: 256},
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
// FUZZYMENU_JWT_SECRET overrides server.jwt_secret.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if secret := os.Getenv("FUZZYMENU_JWT_SECRET"); secret != "" {
		cfg.Server.JWTSecret = secret
	}
	if cfg.Preset == "" {
		cfg.Preset = DefaultPreset
	}
	for _, p := range cfg.Presets {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// AllPresets returns the built-in presets overlaid with the configured
// ones, sorted by name. A configured preset replaces a built-in of the
// same name.
func (c *Config) AllPresets() []Preset {
	byName := make(map[string]Preset)
	for _, p := range BuiltinPresets() {
		byName[p.Name] = p
	}
	for _, p := range c.Presets {
		byName[p.Name] = p
	}
	out := make([]Preset, 0, len(byName))
	for _, p := range byName {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupPreset finds a preset by name among AllPresets.
func (c *Config) LookupPreset(name string) (Preset, error) {
	for _, p := range c.AllPresets() {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("unknown preset %q", name)
}

// ActivePreset returns the preset named by c.Preset.
func (c *Config) ActivePreset() (Preset, error) {
	return c.LookupPreset(c.Preset)
}
