package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"aurora/internal/tools"
)

var binDirFlag string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Developer tooling",
}

var toolsInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Build the project binaries into a bin directory",
	Run: func(cmd *cobra.Command, args []string) {
		if err := tools.Install(tools.InstallOptions{BinDir: binDirFlag}); err != nil {
			log.Fatal().Err(err).Msg("install failed")
		}
	},
}

func init() {
	toolsInstallCmd.Flags().StringVar(&binDirFlag, "bin-dir", "bin", "output directory")
	toolsCmd.AddCommand(toolsInstallCmd)
}
