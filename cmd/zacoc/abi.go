package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zacostudio/zacoc/internal/abi"
)

func newAbiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abi",
		Short: "List the runtime ABI symbols the Code Generator can resolve calls against",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := abi.Names()
			sort.Strings(names)
			for _, name := range names {
				sig, ok := abi.Lookup(name)
				if !ok {
					continue
				}
				params := make([]string, len(sig.Params))
				for i, p := range sig.Params {
					params[i] = p.String()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s(%s) -> %s\n", name, strings.Join(params, ", "), sig.Ret.String())
			}
			return nil
		},
	}
}
