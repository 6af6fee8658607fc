package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Blueprint banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text, color string
	}{
		{" ___ _                 _     _   ", "#38bdf8"},
		{"| _ ) |_  _ ___ _ __ _(_)_ _| |_ ", "#60a5fa"},
		{"| _ \\ | || / -_) '_ \\ '_| | ' \\  _|", "#818cf8"},
		{"|___/_|\\_,_\\___| .__/_| |_|_||_\\__|", "#a78bfa"},
		{"               |_|               ", "#c084fc"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Status renders a short colored status line such as "awaiting your answers".
func Status(w io.Writer, label, color string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w, out.String(label).Foreground(out.Color(color)).Bold())
}
