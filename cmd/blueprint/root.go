package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "blueprint",
		Short: "Blueprint recommends a software architecture for your project",
		Long: `Blueprint interviews you about a project, scores the known architecture patterns
against your priorities and constraints, and delivers a reviewed blueprint with
a roadmap, ADRs and risks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default blueprint.yaml when present)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log level: debug, info, warn or error")

	root.AddCommand(
		newChatCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newSessionCmd(a),
		newPatternsCmd(a),
		newVersionCmd(),
	)
	return root
}
