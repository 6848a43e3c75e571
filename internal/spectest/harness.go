package spectest

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"aurora/internal/compiler"
	"aurora/internal/executor"
	"aurora/internal/ncs"
	"aurora/internal/resource"
	"aurora/internal/routines"
	"aurora/internal/value"
)

type Mode string

const (
	ModeSource  Mode = "source"
	ModeEncoded Mode = "encoded"
)

// Modes lists the two ways a script reaches the executor: compiled on
// demand from source, or compiled ahead of time and round-tripped
// through the binary encoding. Conformance cases must agree in both.
var Modes = []Mode{ModeSource, ModeEncoded}

type Options struct {
	Mode     Mode
	Game     routines.Game
	Source   string
	Files    map[string]string
	Entry    string
	MaxSteps int64
	// Advance moves simulated time after the entry run, so cases can
	// observe delayed and assigned actions coming due.
	Advance float32
}

type Expectation struct {
	Output      []string
	Return      int32
	ErrContains string
}

type Result struct {
	Output []string
	Return int32
	Steps  int64
	Err    error
}

func Run(t *testing.T, opts Options) Result {
	t.Helper()

	game := opts.Game
	if game == 0 {
		game = routines.GameK1
	}
	entry := resource.NewRef(opts.Entry).String()
	if entry == "" {
		entry = "main"
	}
	provider := resource.NewMap()
	for name, src := range opts.Files {
		provider.PutSource(name, src)
	}

	switch opts.Mode {
	case ModeSource:
		provider.PutSource(entry, opts.Source)
	case ModeEncoded:
		c := compiler.New(compiler.Options{
			Game:   game,
			Source: resource.SourceOf(provider),
		})
		prog, err := c.Compile(entry+".nss", opts.Source)
		if err != nil {
			return Result{Err: err}
		}
		provider.Put(entry, resource.TypeNCS, ncs.Encode(prog))
	default:
		t.Fatalf("unknown mode %q", opts.Mode)
	}

	world := &captureWorld{}
	x := executor.New(executor.Options{
		Game:            game,
		Provider:        provider,
		World:           world,
		MaxStepsPerCall: opts.MaxSteps,
		Logger:          zerolog.Nop(),
	})
	res, err := x.RunScript(entry, value.ObjectID(1))
	if opts.Advance > 0 {
		x.Advance(opts.Advance)
	}
	return Result{Output: world.lines, Return: res.Return, Steps: res.Steps, Err: err}
}

func Assert(t *testing.T, res Result, exp Expectation) {
	t.Helper()

	if exp.ErrContains != "" {
		if res.Err == nil {
			t.Fatalf("expected error containing %q, got none", exp.ErrContains)
		}
		if !strings.Contains(res.Err.Error(), exp.ErrContains) {
			t.Fatalf("error mismatch: expected to contain %q, got %q", exp.ErrContains, res.Err)
		}
		return
	}
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}

	if len(res.Output) != len(exp.Output) {
		t.Fatalf("output mismatch:\n got  %q\n want %q", res.Output, exp.Output)
	}
	for i := range exp.Output {
		if res.Output[i] != exp.Output[i] {
			t.Fatalf("output line %d mismatch:\n got  %q\n want %q", i, res.Output[i], exp.Output[i])
		}
	}
	if res.Return != exp.Return {
		t.Fatalf("return mismatch: expected %d, got %d", exp.Return, res.Return)
	}
}

// captureWorld answers the host surface with zero values and records
// what the Print routines emitted.
type captureWorld struct {
	lines []string
}

func (w *captureWorld) IsValid(id value.ObjectID) bool { return id.Valid() }

func (w *captureWorld) Tag(id value.ObjectID) string { return "" }

func (w *captureWorld) Name(id value.ObjectID) string { return "" }

func (w *captureWorld) FindByTag(tag string, nth int32) value.ObjectID {
	return value.ObjectInvalid
}

func (w *captureWorld) Position(id value.ObjectID) value.Vector { return value.Vector{} }

func (w *captureWorld) Facing(id value.ObjectID) float32 { return 0 }

func (w *captureWorld) SetFacing(id value.ObjectID, facing float32) {}

func (w *captureWorld) Elapsed() float32 { return 0 }

func (w *captureWorld) ApplyEffect(target value.ObjectID, e value.Effect, durationType int32, duration float32) {
}

func (w *captureWorld) Print(text string) { w.lines = append(w.lines, text) }
