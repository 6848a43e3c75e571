package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"aurora/internal/routines"
)

var constantsFlag bool

var routinesCmd = &cobra.Command{
	Use:   "routines",
	Short: "List the engine routine table for the selected game",
	Run:   routinesCommand,
}

func init() {
	routinesCmd.Flags().BoolVar(&constantsFlag, "constants", false, "list named constants too")
}

func routinesCommand(cmd *cobra.Command, args []string) {
	game := gameVariant()
	table := routines.ForGame(game)
	for _, sig := range table.Signatures() {
		marker := " "
		if sig.Impl == nil {
			marker = "-"
		}
		fmt.Printf("%4d %s %s\n", sig.ID, marker, sig)
	}

	if !constantsFlag {
		return
	}
	consts := routines.Constants(game)
	names := make([]string, 0, len(consts))
	for name := range consts {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println()
	for _, name := range names {
		fmt.Printf("int %s = %d;\n", name, consts[name])
	}
}
