package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aurora/internal/executor"
	"aurora/internal/routines"
)

func write(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aurora.toml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := write(t, `
name = "outpost"
game = "k2"
entry = "startup"

[paths]
scripts = ["scripts", "shared"]

[limits]
max_steps_per_call = 50000
tick_budget = 200000
budget_policy = "defer"

[heartbeat]
seconds = 3.0
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Name != "outpost" || c.Entry != "startup" {
		t.Fatalf("name/entry = %q/%q", c.Name, c.Entry)
	}
	if c.GameVariant() != routines.GameK2 {
		t.Fatalf("game variant = %v, want k2", c.GameVariant())
	}
	if c.Policy() != executor.PolicyDefer {
		t.Fatalf("policy = %v, want defer", c.Policy())
	}
	if c.Limits.MaxStepsPerCall != 50000 || c.Limits.TickBudget != 200000 {
		t.Fatalf("limits = %+v", c.Limits)
	}
	if c.Heartbeat.Seconds != 3.0 {
		t.Fatalf("heartbeat = %v", c.Heartbeat.Seconds)
	}

	dir := filepath.Dir(path)
	want := []string{filepath.Join(dir, "scripts"), filepath.Join(dir, "shared")}
	for i, p := range c.Paths.Scripts {
		if p != want[i] {
			t.Fatalf("script dir %d = %q, want %q", i, p, want[i])
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	path := write(t, "")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Name != "aurora" {
		t.Fatalf("default name = %q, want the file stem", c.Name)
	}
	if c.GameVariant() != routines.GameK1 {
		t.Fatalf("default game = %v, want k1", c.GameVariant())
	}
	if c.Policy() != executor.PolicyLog {
		t.Fatalf("default policy = %v, want log", c.Policy())
	}
	if len(c.Paths.Scripts) != 1 || c.Paths.Scripts[0] != filepath.Dir(path) {
		t.Fatalf("default script dirs = %q", c.Paths.Scripts)
	}
}

func TestLoadScene(t *testing.T) {
	path := write(t, `
[window]
width = 800
height = 600

[[entities]]
tag = "hero"
name = "Hero"
pos = [40.0, 40.0]
player = true

[[entities]]
tag = "door"
pos = [100.0, 60.0]
size = [32.0, 48.0]
[entities.scripts]
enter = "door_enter"
exit = "door_exit"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Window.Width != 800 || c.Window.Height != 600 {
		t.Fatalf("window = %+v", c.Window)
	}
	if len(c.Entities) != 2 {
		t.Fatalf("entities = %d, want 2", len(c.Entities))
	}
	hero, door := c.Entities[0], c.Entities[1]
	if !hero.Player || hero.Tag != "hero" {
		t.Fatalf("hero = %+v", hero)
	}
	if door.Scripts["enter"] != "door_enter" || door.Scripts["exit"] != "door_exit" {
		t.Fatalf("door scripts = %v", door.Scripts)
	}
	if len(door.Size) != 2 || door.Size[0] != 32 {
		t.Fatalf("door size = %v", door.Size)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name, text, wantErr string
	}{
		{"game", `game = "k3"`, "unknown game"},
		{"policy", "[limits]\nbudget_policy = \"panic\"", "unknown budget_policy"},
		{"steps", "[limits]\nmax_steps_per_call = -1", "negative"},
		{"heartbeat", "[heartbeat]\nseconds = -2.5", "negative"},
		{"tagless entity", "[[entities]]\nname = \"x\"", "no tag"},
		{"bad pos", "[[entities]]\ntag = \"x\"\npos = [1.0]", "pos"},
		{"two players", "[[entities]]\ntag = \"a\"\nplayer = true\n[[entities]]\ntag = \"b\"\nplayer = true", "at most one"},
		{"syntax", `name = `, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, tt.text))
			if err == nil {
				t.Fatalf("Load accepted %q", tt.text)
			}
			if tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
