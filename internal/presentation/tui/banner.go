package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the MotherLink banner.
func PrintBanner(w io.Writer, p termenv.Profile) {
	lines := []struct{ text, color string }{
		{` __  __       _   _               _     _       _    `, "#f9a8d4"},
		{`|  \/  | ___ | |_| |__   ___ _ __| |   (_)_ __ | | __`, "#f472b6"},
		{`| |\/| |/ _ \| __| '_ \ / _ \ '__| |   | | '_ \| |/ /`, "#ec4899"},
		{`| |  | | (_) | |_| | | |  __/ |  | |___| | | | |   < `, "#db2777"},
		{`|_|  |_|\___/ \__|_| |_|\___|_|  |_____|_|_| |_|_|\_\`, "#be185d"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
