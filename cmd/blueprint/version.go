package main

import (
	"fmt"

	"github.com/aretw0/blueprint"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of blueprint",
		// Skip config loading.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "blueprint version %s\n", blueprint.Version)
		},
	}
}
