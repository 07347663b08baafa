// Command zacoc is a thin, spec-external demonstration driver for the
// Lowerer and Code Generator: it reads a source-less IR-construction
// request (a driverconfig batch file) or drops into an interactive
// shell, runs Lower→Codegen, and reports errors. It stands in for the
// real driver — import resolution, module ordering, linking — which
// remains an external collaborator outside this module's scope.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version info, set by ldflags during release builds, following
	// the teacher's cmd/ailang convention.
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	bold = color.New(color.Bold).SprintFunc()
	red  = color.New(color.FgRed).SprintFunc()
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "zacoc",
		Short: "AST-to-IR lowering and IR-to-object codegen driver",
		Long: bold("zacoc") + ` drives the Lowerer and Code Generator over a batch
of source modules described in a driverconfig YAML file, or lets you
explore the pipeline interactively one expression at a time.`,
		Version: versionString(),
	}
	root.AddCommand(newLowerCmd())
	root.AddCommand(newCompileCmd())
	root.AddCommand(newReplCmd())
	root.AddCommand(newAbiCmd())
	return root
}

func versionString() string {
	if BuildTime != "unknown" {
		return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime)
	}
	return Version
}
