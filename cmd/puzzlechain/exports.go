package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var exportsCmd = &cobra.Command{
	Use:   "exports [program]",
	Short: "List programs, or the methods a program exports",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			for _, name := range programNames() {
				fmt.Fprintln(out, name)
			}
			return nil
		}
		p, err := lookupProgram(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, strings.Join(p.code.Exports().Names(), "\n"))
		return nil
	},
}
