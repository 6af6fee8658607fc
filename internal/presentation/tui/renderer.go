package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// When styling is disabled (stdout is not a terminal) markdown is returned untouched.
func NewRenderer(styled bool, width int) (func(string) (string, error), error) {
	if !styled {
		return func(md string) (string, error) { return md, nil }, nil
	}

	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}
