package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the startup banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	// Cold palette, cyan to deep blue
	lines := []struct {
		text  string
		color string
	}{
		{`            _     _      _           _       `, "#67e8f9"},
		{`   ___ ___ | | __| | ___| |__   __ _(_)_ __  `, "#22d3ee"},
		{`  / __/ _ \| |/ _' |/ __| '_ \ / _' | | '_ \ `, "#38bdf8"},
		{` | (_| (_) | | (_| | (__| | | | (_| | | | | |`, "#60a5fa"},
		{`  \___\___/|_|\__,_|\___|_| |_|\__,_|_|_| |_|`, "#3b82f6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  "+version).Faint())
	fmt.Fprintln(w)
}
