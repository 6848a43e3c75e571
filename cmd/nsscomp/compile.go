package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"aurora/internal/compiler"
	"aurora/internal/diag"
	"aurora/internal/lexer"
	"aurora/internal/lint"
	"aurora/internal/ncs"
	"aurora/internal/parser"
	"aurora/internal/resource"
	"aurora/internal/routines"
)

var (
	outFlag      string
	optimizeFlag bool
	verifyFlag   bool
)

var compileCmd = &cobra.Command{
	Use:   "compile FILE|DIR...",
	Short: "Compile NSS source into NCS bytecode",
	Long: "compile builds each named file, and every .nss file directly inside\n" +
		"each named directory. A failed file is reported and the batch keeps going.",
	Args: cobra.MinimumNArgs(1),
	Run:  compileCommand,
}

func init() {
	compileCmd.Flags().StringVarP(&outFlag, "out", "o", "", "output file (single input only)")
	compileCmd.Flags().BoolVarP(&optimizeFlag, "optimize", "O", false, "run the peephole optimizer")
	compileCmd.Flags().BoolVar(&verifyFlag, "verify", false, "re-decode emitted bytecode and compare listings")
}

func compileCommand(cmd *cobra.Command, args []string) {
	files, err := expandArgs(args)
	if err != nil {
		log.Fatal().Err(err).Msg("bad compile arguments")
	}
	if outFlag != "" && len(files) > 1 {
		log.Fatal().Msg("--out wants a single input file")
	}
	game := gameVariant()
	failed := false
	for _, path := range files {
		if err := compileFile(path, game); err != nil {
			fmt.Fprintln(os.Stderr, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

// expandArgs flattens the argument list: a directory stands for every
// .nss file directly inside it.
func expandArgs(args []string) ([]string, error) {
	var files []string
	for _, a := range args {
		fi, err := os.Stat(a)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			files = append(files, a)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(a, "*.nss"))
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%s: no .nss files", a)
		}
		files = append(files, matches...)
	}
	return files, nil
}

func compileFile(path string, game routines.Game) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lintFile(path, string(src))
	prog, err := compileSource(path, string(src), game)
	if err != nil {
		return err
	}

	data := ncs.Encode(prog)
	if verifyFlag {
		back, err := ncs.Decode(prog.Name, data)
		if err != nil {
			return fmt.Errorf("verify %s: %w", path, err)
		}
		if ncs.Disassemble(back) != ncs.Disassemble(prog) {
			return fmt.Errorf("verify %s: decoded listing differs from compiled program", path)
		}
	}

	out := outFlag
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".ncs"
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	log.Info().Str("in", path).Str("out", out).
		Int("instructions", len(prog.Code)).Int("bytes", len(data)).Msg("compiled")
	return nil
}

// lintFile prints style warnings for a file that parses. They never
// fail the build; the compiler has the last word.
func lintFile(path, src string) {
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	if diag.List(p.Diagnostics()).HasErrors() {
		return
	}
	for _, d := range lint.Run(prog) {
		fmt.Fprintln(os.Stderr, d.Format(path))
	}
}

// compileSource builds one source file, resolving includes against the
// file's own directory plus the -I search path. Compile failures come
// back prefixed with the path so they read like diagnostics.
func compileSource(path, src string, game routines.Game) (*ncs.Program, error) {
	dirs := append([]string{filepath.Dir(path)}, includeDirs...)
	c := compiler.New(compiler.Options{
		Game:     game,
		Source:   resource.SourceOf(resource.NewDir(dirs...)),
		Optimize: optimizeFlag,
	})
	prog, err := c.Compile(filepath.Base(path), src)
	if err != nil {
		return nil, fmt.Errorf("%s:%v", path, err)
	}
	return prog, nil
}
