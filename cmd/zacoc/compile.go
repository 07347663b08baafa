package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zacostudio/zacoc/internal/codegen"
	"github.com/zacostudio/zacoc/internal/diagnostics"
	"github.com/zacostudio/zacoc/internal/driverconfig"
	"github.com/zacostudio/zacoc/internal/ir"
	"github.com/zacostudio/zacoc/internal/lower"
)

func newCompileCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Lower and compile every module in a batch config, writing object bytes to output_dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := driverconfig.Load(configPath)
			if err != nil {
				return err
			}
			if spec.OutputDir != "" {
				if err := os.MkdirAll(spec.OutputDir, 0o755); err != nil {
					return fmt.Errorf("creating output_dir %s: %w", spec.OutputDir, err)
				}
			}

			failed := 0
			for _, job := range spec.Modules {
				prog, err := programFor(job)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s: %v\n", red("Error"), job.Name, err)
					failed++
					continue
				}
				mod, lowerErrs := lower.Lower(prog, lower.Config{
					ModuleName:     job.ModuleName,
					SourceFile:     job.SourcePath,
					FuncIDOffset:   ir.FuncID(job.FuncIDOffset),
					StructIDOffset: ir.StructID(job.StructIDOffset),
				})
				if len(lowerErrs) > 0 {
					diagnostics.Render(cmd.OutOrStdout(), diagnostics.FromLowerErrors(lowerErrs))
					failed++
					continue
				}

				objBytes, cgErr := codegen.CompileModule(mod)
				if cgErr != nil {
					diagnostics.Render(cmd.OutOrStdout(), diagnostics.FromCodegenError(cgErr))
					failed++
					continue
				}

				if spec.OutputDir == "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %d bytes (no output_dir set, discarding)\n", bold(job.Name), len(objBytes))
					continue
				}
				outPath := filepath.Join(spec.OutputDir, job.Name+".o")
				if err := os.WriteFile(outPath, objBytes, 0o644); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s: %v\n", red("Error"), job.Name, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d bytes)\n", bold(job.Name), outPath, len(objBytes))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d modules failed to compile", failed, len(spec.Modules))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a driverconfig batch YAML file")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
