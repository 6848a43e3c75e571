package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"aurora/internal/config"
	"aurora/internal/executor"
	"aurora/internal/host"
	"aurora/internal/resource"
	"aurora/internal/termio"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "aurora [aurora.toml]",
	Short: "Script-driven demo world",
	Long: "aurora opens a window on the manifest's scene and hands control to\n" +
		"its scripts: heartbeats, zone enter/exit events, delayed actions.\n" +
		"Arrow keys move the player, space pings user-defined handlers,\n" +
		"escape quits.",
	Args:             cobra.MaximumNArgs(1),
	PersistentPreRun: setupLogging,
	Run:              runWorld,
}

func setupLogging(cmd *cobra.Command, args []string) {
	log.Logger = termio.Logger(os.Stderr)
	zerolog.SetGlobalLevel(termio.Level(logLevel))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runWorld(cmd *cobra.Command, args []string) {
	path := "aurora.toml"
	if len(args) == 1 {
		path = args[0]
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("load manifest")
	}

	world := host.NewWorld(log.Logger)
	x := executor.New(executor.Options{
		Game:             cfg.GameVariant(),
		Provider:         resource.NewDir(cfg.Paths.Scripts...),
		World:            world,
		MaxStepsPerCall:  cfg.Limits.MaxStepsPerCall,
		TickBudget:       cfg.Limits.TickBudget,
		Policy:           cfg.Policy(),
		HeartbeatSeconds: cfg.Heartbeat.Seconds,
		Logger:           log.Logger,
	})
	player := host.BuildScene(world, x, cfg.Entities, log.Logger)

	app := host.NewApp(host.Options{
		Title:    cfg.Name,
		Width:    cfg.Window.Width,
		Height:   cfg.Window.Height,
		Entry:    cfg.Entry,
		World:    world,
		Executor: x,
		Logger:   log.Logger,
		Player:   player,
	})
	log.Info().Str("world", cfg.Name).Stringer("game", cfg.GameVariant()).
		Int("entities", len(cfg.Entities)).Msg("starting")
	if err := app.Run(); err != nil {
		log.Fatal().Err(err).Msg("world loop failed")
	}
}
