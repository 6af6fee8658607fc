package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/blueprint/internal/presentation/tui"
	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/spf13/cobra"
)

func newPatternsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List the architecture patterns and their scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := a.knowledgeBase()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			styled, width := terminal(out)
			render, err := tui.NewRenderer(styled, width)
			if err != nil {
				return err
			}
			text, err := render(patternTable(kb.LookupPatterns()))
			if err != nil {
				return err
			}
			fmt.Fprint(out, text)
			return nil
		},
	}
}

func patternTable(patterns []domain.PatternCandidate) string {
	var b strings.Builder
	b.WriteString("| Pattern |")
	for _, c := range domain.Criteria {
		fmt.Fprintf(&b, " %s |", c)
	}
	b.WriteString(" complexity |\n|---|")
	for range domain.Criteria {
		b.WriteString("---|")
	}
	b.WriteString("---|\n")
	for _, p := range patterns {
		fmt.Fprintf(&b, "| %s |", p.DisplayName)
		for _, c := range domain.Criteria {
			fmt.Fprintf(&b, " %d |", p.Score(c))
		}
		fmt.Fprintf(&b, " %d |\n", p.Complexity)
	}
	return b.String()
}
