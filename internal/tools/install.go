// Package tools builds the project's binaries into a local bin
// directory, so editors and launch scripts have a stable path to them.
package tools

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

type InstallOptions struct {
	BinDir string
}

func Install(opts InstallOptions) error {
	if opts.BinDir == "" {
		opts.BinDir = "bin"
	}

	if err := os.MkdirAll(opts.BinDir, 0o755); err != nil {
		return err
	}

	for _, name := range []string{"nsscomp", "aurora", "aurora-lsp"} {
		if err := goBuild("./cmd/"+name, filepath.Join(opts.BinDir, name)); err != nil {
			return fmt.Errorf("build %s: %w", name, err)
		}
	}
	return nil
}

func goBuild(pkg, out string) error {
	cmd := exec.Command("go", "build", "-o", out, pkg)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
