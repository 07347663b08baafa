package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zacostudio/zacoc/internal/replshell"
)

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start the interactive lowering and codegen shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			replshell.New().Start(os.Stdin, cmd.OutOrStdout())
			return nil
		},
	}
}
