package treeview

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the vizkit banner.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"        _     _    _ _   ", "#34d399"},
		{" __   _(_)___| | _(_) |_ ", "#2dd4bf"},
		{" \\ \\ / / |_  / |/ / | __|", "#22d3ee"},
		{"  \\ V /| |/ /|   <| | |_ ", "#38bdf8"},
		{"   \\_/ |_/___|_|\\_\\_|\\__|", "#60a5fa"},
	}
	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
