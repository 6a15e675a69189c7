// Package config holds the engine and logging tunables, loadable from a
// YAML file. Defaults match the engine's built-in defaults; absent fields
// keep them.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"revstore/internal/textdiff"
)

// Diff controls edit-script computation.
type Diff struct {
	// TimeoutSeconds bounds diff computation. <= 0 removes the bound and
	// disables the half-match heuristic.
	TimeoutSeconds float64 `yaml:"timeoutSeconds"`
	// EditCost is the cost of an empty edit operation in characters.
	EditCost int `yaml:"editCost"`
}

// Match controls fuzzy pattern location.
type Match struct {
	// Threshold is the score above which a match is rejected (0..1).
	Threshold float64 `yaml:"threshold"`
	// Distance is how far from the expected location a match may stray
	// before proximity alone disqualifies it.
	Distance int `yaml:"distance"`
}

// Patch controls patch construction and fuzzy application.
type Patch struct {
	// DeleteThreshold bounds how loosely a large deletion may match.
	DeleteThreshold float64 `yaml:"deleteThreshold"`
	// Margin is the context chunk size around patches.
	Margin int `yaml:"margin"`
}

// Config aggregates all tunables. The pattern-bit ceiling of the matcher is
// a hard architectural limit and intentionally not configurable.
type Config struct {
	Diff  Diff   `yaml:"diff"`
	Match Match  `yaml:"match"`
	Patch Patch  `yaml:"patch"`
	Log   string `yaml:"log"` // zerolog level name; empty leaves logging off unless the CLI's -v is set
}

// Default returns the built-in tunables.
func Default() Config {
	return Config{
		Diff:  Diff{TimeoutSeconds: 1.0, EditCost: 4},
		Match: Match{Threshold: 0.5, Distance: 1000},
		Patch: Patch{DeleteThreshold: 0.5, Margin: 4},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Match.Threshold < 0 || c.Match.Threshold > 1 {
		return fmt.Errorf("match.threshold %v outside [0,1]", c.Match.Threshold)
	}
	if c.Match.Distance < 0 {
		return fmt.Errorf("match.distance %d negative", c.Match.Distance)
	}
	if c.Patch.Margin <= 0 {
		return fmt.Errorf("patch.margin %d not positive", c.Patch.Margin)
	}
	if c.Diff.EditCost <= 0 {
		return fmt.Errorf("diff.editCost %d not positive", c.Diff.EditCost)
	}
	return nil
}

// Engine builds a diff engine from the tunables.
func (c Config) Engine() *textdiff.Engine {
	e := textdiff.NewEngine()
	e.DiffTimeout = time.Duration(c.Diff.TimeoutSeconds * float64(time.Second))
	e.DiffEditCost = c.Diff.EditCost
	e.MatchThreshold = c.Match.Threshold
	e.MatchDistance = c.Match.Distance
	e.PatchDeleteThreshold = c.Patch.DeleteThreshold
	e.PatchMargin = c.Patch.Margin
	return e
}
