package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"aurora/internal/ncs"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm FILE",
	Short: "Disassemble a compiled script (or compile-and-disassemble source)",
	Args:  cobra.ExactArgs(1),
	Run:   disasmCommand,
}

func disasmCommand(cmd *cobra.Command, args []string) {
	path := args[0]
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var prog *ncs.Program
	if strings.EqualFold(filepath.Ext(path), ".nss") {
		src, err := os.ReadFile(path)
		if err != nil {
			log.Fatal().Err(err).Msg("read source")
		}
		prog, err = compileSource(path, string(src), gameVariant())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatal().Err(err).Msg("read bytecode")
		}
		prog, err = ncs.Decode(name, data)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	fmt.Print(ncs.Disassemble(prog))
}
