// Package tui renders USSD replies in a terminal for the simulator.
package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Screen draws replies the way a handset would show them.
type Screen struct {
	out     io.Writer
	profile termenv.Profile
}

// NewScreen writes to f, with colors only when f is a terminal.
func NewScreen(f *os.File) *Screen {
	p := termenv.Ascii
	if term.IsTerminal(int(f.Fd())) {
		p = termenv.ColorProfile()
	}
	return &Screen{out: f, profile: p}
}

// NewScreenWithProfile writes to w using profile p.
func NewScreenWithProfile(w io.Writer, p termenv.Profile) *Screen {
	return &Screen{out: w, profile: p}
}

// Profile is the color profile in use.
func (s *Screen) Profile() termenv.Profile {
	return s.profile
}

// Render prints a reply inside a frame and reports whether it ended the session.
func (s *Screen) Render(reply string) (ended bool) {
	body := reply
	border := s.profile.Color("#10b981")
	switch {
	case strings.HasPrefix(reply, domain.ContinuePrefix):
		body = strings.TrimPrefix(reply, domain.ContinuePrefix)
	case strings.HasPrefix(reply, domain.EndPrefix):
		body = strings.TrimPrefix(reply, domain.EndPrefix)
		border = s.profile.Color("#f43f5e")
		ended = true
	}

	lines := strings.Split(body, "\n")
	width := 0
	for _, l := range lines {
		width = max(width, len([]rune(l)))
	}

	edge := s.profile.String("+" + strings.Repeat("-", width+2) + "+").Foreground(border)
	side := s.profile.String("|").Foreground(border)

	fmt.Fprintln(s.out, edge)
	for _, l := range lines {
		pad := strings.Repeat(" ", width-len([]rune(l)))
		fmt.Fprintf(s.out, "%s %s%s %s\n", side, l, pad, side)
	}
	fmt.Fprintln(s.out, edge)

	if ended {
		fmt.Fprintln(s.out, s.profile.String("Session ended.").Faint())
	}
	return ended
}

// Prompt prints the input prompt with the path typed so far.
func (s *Screen) Prompt(path string) {
	label := "Reply"
	if path != "" {
		label = fmt.Sprintf("Reply [%s]", path)
	}
	fmt.Fprint(s.out, s.profile.String(label+": ").Bold())
}

// Info prints a dimmed status line.
func (s *Screen) Info(format string, args ...any) {
	fmt.Fprintln(s.out, s.profile.String(fmt.Sprintf(format, args...)).Faint())
}
