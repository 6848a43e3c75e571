package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"aurora/internal/routines"
	"aurora/internal/termio"
)

const version = "0.1.0"

var (
	logLevel    string
	gameFlag    string
	includeDirs []string
)

var rootCmd = &cobra.Command{
	Use:   "nsscomp",
	Short: "Compiler and tooling for NSS game scripts",
	Long: "nsscomp compiles NSS source into NCS stack-machine bytecode,\n" +
		"disassembles compiled scripts, and runs them against a console world.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Logger = termio.Logger(os.Stderr)
		zerolog.SetGlobalLevel(termio.Level(logLevel))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&gameFlag, "game", "k1", "routine table variant (k1 or k2)")
	rootCmd.PersistentFlags().StringSliceVarP(&includeDirs, "include", "I", nil, "extra include directories")
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(routinesCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func gameVariant() routines.Game {
	switch gameFlag {
	case "k1":
		return routines.GameK1
	case "k2":
		return routines.GameK2
	}
	log.Fatal().Str("game", gameFlag).Msg("unknown game, want k1 or k2")
	return 0
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of nsscomp",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("nsscomp version " + version)
	},
}
