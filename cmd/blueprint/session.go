package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/blueprint/internal/presentation/graph"
	"github.com/spf13/cobra"
)

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage saved sessions",
		Long:  `List, inspect, and remove sessions held by the configured store.`,
	}
	cmd.AddCommand(newSessionLsCmd(a), newSessionInspectCmd(a), newSessionRmCmd(a))
	return cmd
}

func newSessionLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List saved sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, closeStore, err := a.sessions()
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			ids, err := sessions.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No saved sessions found.")
				return nil
			}
			fmt.Fprintln(out, "Saved sessions:")
			for _, id := range ids {
				fmt.Fprintln(out, "- "+id)
			}
			return nil
		},
	}
}

func newSessionInspectCmd(a *app) *cobra.Command {
	var workflow bool
	cmd := &cobra.Command{
		Use:   "inspect <session-id>",
		Short: "Print a session as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, closeStore, err := a.sessions()
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			s, err := sessions.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("loading session %q: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			if workflow {
				fmt.Fprint(out, graph.WorkflowMermaid(graph.OverlayFor(s)))
				return nil
			}
			data, err := json.MarshalIndent(s, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&workflow, "workflow", false, "Print the workflow as a Mermaid diagram with the session's progress")
	return cmd
}

func newSessionRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <session-id>...",
		Short: "Remove one or more sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, closeStore, err := a.sessions()
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			var errs []error
			for _, id := range args {
				if err := sessions.Delete(cmd.Context(), id); err != nil {
					errs = append(errs, fmt.Errorf("removing %q: %w", id, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", id)
			}
			return errors.Join(errs...)
		},
	}
}
