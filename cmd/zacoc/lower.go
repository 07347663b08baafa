package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zacostudio/zacoc/internal/ast"
	"github.com/zacostudio/zacoc/internal/diagnostics"
	"github.com/zacostudio/zacoc/internal/driverconfig"
	"github.com/zacostudio/zacoc/internal/ir"
	"github.com/zacostudio/zacoc/internal/lower"
	"github.com/zacostudio/zacoc/internal/replshell"
)

func newLowerCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "lower",
		Short: "Run the Lowerer over every module in a batch config and report diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := driverconfig.Load(configPath)
			if err != nil {
				return err
			}
			failed := 0
			for _, job := range spec.Modules {
				prog, err := programFor(job)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s: %v\n", red("Error"), job.Name, err)
					failed++
					continue
				}
				_, lowerErrs := lower.Lower(prog, lower.Config{
					ModuleName:     job.ModuleName,
					SourceFile:     job.SourcePath,
					FuncIDOffset:   ir.FuncID(job.FuncIDOffset),
					StructIDOffset: ir.StructID(job.StructIDOffset),
				})
				if len(lowerErrs) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", bold(job.Name))
					diagnostics.Render(cmd.OutOrStdout(), diagnostics.FromLowerErrors(lowerErrs))
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s ok\n", bold(job.Name))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d modules failed to lower", failed, len(spec.Modules))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a driverconfig batch YAML file")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

// programFor builds the synthetic single-expression ast.Program a
// driverconfig job describes, using the same replshell grammar the
// interactive shell uses, since this module has no real source
// frontend to parse job.SourcePath with.
func programFor(job driverconfig.ModuleJob) (*ast.Program, error) {
	file := job.SourcePath
	if file == "" {
		file = job.Name
	}
	expr, err := replshell.ParseExpr(job.Expr, file)
	if err != nil {
		return nil, fmt.Errorf("parsing expr: %w", err)
	}
	return &ast.Program{
		Pos: ast.Pos{File: file, Line: 1, Column: 1},
		Decls: []ast.Node{
			&ast.ReturnStmt{Value: expr, Pos: ast.Pos{File: file, Line: 1, Column: 1}},
		},
	}, nil
}
