// Package config loads aurora.toml, the world manifest: which game
// variant the routine table speaks, where scripts live, and the
// instruction limits the executor runs under.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"aurora/internal/executor"
	"aurora/internal/routines"
)

type Config struct {
	// Name labels the world in logs and the window title. Defaults to
	// the manifest's file stem.
	Name string `toml:"name"`
	// Game is the routine table variant, "k1" or "k2".
	Game string `toml:"game"`
	// Entry is the script run once when the world starts, may be empty.
	Entry string `toml:"entry"`

	Paths     Paths     `toml:"paths"`
	Limits    Limits    `toml:"limits"`
	Heartbeat Heartbeat `toml:"heartbeat"`
	Window    Window    `toml:"window"`

	// Entities is the scene the demo host spawns at startup.
	Entities []Entity `toml:"entities"`
}

type Window struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Entity describes one spawned entity: where it stands, whether the
// player drives it, and which scripts its events run. Script keys are
// event names ("heartbeat", "enter", "user_defined", ...); the host
// resolves them and warns about names it does not know.
type Entity struct {
	Tag  string `toml:"tag"`
	Name string `toml:"name"`

	// Pos is [x, y]. Size is [w, h]; a non-empty size makes the entity
	// a trigger zone.
	Pos     []float32         `toml:"pos"`
	Size    []float32         `toml:"size"`
	Player  bool              `toml:"player"`
	Scripts map[string]string `toml:"scripts"`
}

type Paths struct {
	// Scripts are the directories searched for .ncs and .nss, in
	// order, resolved relative to the manifest.
	Scripts []string `toml:"scripts"`
}

type Limits struct {
	// MaxStepsPerCall caps one script call. Zero keeps the interpreter
	// default.
	MaxStepsPerCall int64 `toml:"max_steps_per_call"`
	// TickBudget caps the aggregate instructions per tick. Zero means
	// unlimited.
	TickBudget int64 `toml:"tick_budget"`
	// BudgetPolicy is "log", "drop" or "defer".
	BudgetPolicy string `toml:"budget_policy"`
}

type Heartbeat struct {
	// Seconds overrides the heartbeat period. Zero keeps the default.
	Seconds float32 `toml:"seconds"`
}

func parse(r io.Reader) (*Config, error) {
	var out Config
	if _, err := toml.NewDecoder(r).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Load reads and validates a manifest. Script directories come back
// resolved relative to the manifest's own directory, so a world can be
// launched from anywhere.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.Name == "" {
		base := filepath.Base(path)
		c.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	dir := filepath.Dir(path)
	if len(c.Paths.Scripts) == 0 {
		c.Paths.Scripts = []string{dir}
	} else {
		for i, p := range c.Paths.Scripts {
			if !filepath.IsAbs(p) {
				c.Paths.Scripts[i] = filepath.Join(dir, p)
			}
		}
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c *Config) validate() error {
	switch c.Game {
	case "", "k1", "k2":
	default:
		return fmt.Errorf("unknown game %q, want k1 or k2", c.Game)
	}
	switch c.Limits.BudgetPolicy {
	case "", "log", "drop", "defer":
	default:
		return fmt.Errorf("unknown budget_policy %q, want log, drop or defer", c.Limits.BudgetPolicy)
	}
	if c.Limits.MaxStepsPerCall < 0 {
		return fmt.Errorf("max_steps_per_call is negative")
	}
	if c.Limits.TickBudget < 0 {
		return fmt.Errorf("tick_budget is negative")
	}
	if c.Heartbeat.Seconds < 0 {
		return fmt.Errorf("heartbeat seconds is negative")
	}
	if c.Window.Width < 0 || c.Window.Height < 0 {
		return fmt.Errorf("window size is negative")
	}
	players := 0
	for i, e := range c.Entities {
		if e.Tag == "" {
			return fmt.Errorf("entity %d has no tag", i)
		}
		if len(e.Pos) != 0 && len(e.Pos) != 2 {
			return fmt.Errorf("entity %q: pos wants [x, y]", e.Tag)
		}
		if len(e.Size) != 0 && len(e.Size) != 2 {
			return fmt.Errorf("entity %q: size wants [w, h]", e.Tag)
		}
		if e.Player {
			players++
		}
	}
	if players > 1 {
		return fmt.Errorf("%d player entities, want at most one", players)
	}
	return nil
}

// GameVariant maps the manifest's game string onto the routine table
// selector. The empty string means k1.
func (c *Config) GameVariant() routines.Game {
	if c.Game == "k2" {
		return routines.GameK2
	}
	return routines.GameK1
}

// Policy maps the manifest's budget_policy string onto the executor's
// policy. The empty string means log.
func (c *Config) Policy() executor.BudgetPolicy {
	switch c.Limits.BudgetPolicy {
	case "drop":
		return executor.PolicyDrop
	case "defer":
		return executor.PolicyDefer
	default:
		return executor.PolicyLog
	}
}
