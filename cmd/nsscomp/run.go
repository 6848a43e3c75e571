package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"aurora/internal/executor"
	"aurora/internal/resource"
	"aurora/internal/routines"
	"aurora/internal/value"
)

var (
	maxStepsFlag int64
	advanceFlag  float32
)

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Run a script once against a console world",
	Long: "run loads FILE (.ncs, or .nss compiled on the fly), executes its\n" +
		"entry point, and prints the result. --advance moves simulated time\n" +
		"afterwards so delayed actions get their turn. The script's return\n" +
		"value becomes the exit status, so conditionals can be shell-tested.",
	Args: cobra.ExactArgs(1),
	Run:  runCommand,
}

func init() {
	runCmd.Flags().Int64Var(&maxStepsFlag, "max-steps", 0, "instruction ceiling for one call (0 = default)")
	runCmd.Flags().Float32Var(&advanceFlag, "advance", 0, "simulated seconds to advance after the run")
}

func runCommand(cmd *cobra.Command, args []string) {
	path := args[0]
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dirs := append([]string{filepath.Dir(path)}, includeDirs...)

	x := executor.New(executor.Options{
		Game:            gameVariant(),
		Provider:        resource.NewDir(dirs...),
		World:           newConsoleWorld(),
		MaxStepsPerCall: maxStepsFlag,
		Logger:          log.Logger,
	})

	res, err := x.RunScript(name, value.ObjectID(1))
	if err != nil {
		os.Exit(1)
	}
	if advanceFlag > 0 {
		x.Advance(advanceFlag)
	}
	fmt.Printf("return=%d steps=%d\n", res.Return, res.Steps)
	os.Exit(int(uint32(res.Return) & 0xff))
}

// consoleWorld is the barest world there is: prints go to stdout,
// nothing else exists.
type consoleWorld struct{ start time.Time }

func newConsoleWorld() *consoleWorld { return &consoleWorld{start: time.Now()} }

func (w *consoleWorld) IsValid(id value.ObjectID) bool { return id.Valid() }

func (w *consoleWorld) Tag(id value.ObjectID) string { return "" }

func (w *consoleWorld) Name(id value.ObjectID) string { return "" }

func (w *consoleWorld) FindByTag(tag string, nth int32) value.ObjectID {
	return value.ObjectInvalid
}

func (w *consoleWorld) Position(id value.ObjectID) value.Vector { return value.Vector{} }

func (w *consoleWorld) Facing(id value.ObjectID) float32 { return 0 }

func (w *consoleWorld) SetFacing(id value.ObjectID, facing float32) {}

func (w *consoleWorld) Elapsed() float32 {
	return float32(time.Since(w.start).Seconds())
}

func (w *consoleWorld) ApplyEffect(target value.ObjectID, e value.Effect, durationType int32, duration float32) {
	log.Debug().Stringer("target", target).Int32("type", e.Type).Msg("effect applied")
}

func (w *consoleWorld) Print(text string) { fmt.Println(text) }

var _ routines.World = (*consoleWorld)(nil)
