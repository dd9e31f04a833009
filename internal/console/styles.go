package console

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"astrocyber/internal/session"
)

var (
	primaryColor = lipgloss.Color("#00FF9F")
	accentColor  = lipgloss.Color("#FF2BD6")
	errorColor   = lipgloss.Color("#FF3B3B")
	dimColor     = lipgloss.Color("#5C6370")
)

type styles struct {
	prompt  lipgloss.Style
	title   lipgloss.Style
	echo    lipgloss.Style
	system  lipgloss.Style
	help    lipgloss.Style
	reply   lipgloss.Style
	err     lipgloss.Style
	dim     lipgloss.Style
	divider lipgloss.Style
}

// newStyles binds the palette to out so colors are only emitted when out
// supports them.
func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		prompt:  r.NewStyle().Foreground(accentColor).Bold(true),
		title:   r.NewStyle().Foreground(accentColor).Bold(true),
		echo:    r.NewStyle().Foreground(dimColor),
		system:  r.NewStyle().Foreground(primaryColor),
		help:    r.NewStyle().Foreground(primaryColor),
		reply:   r.NewStyle().Foreground(primaryColor).Bold(true),
		err:     r.NewStyle().Foreground(errorColor).Bold(true),
		dim:     r.NewStyle().Foreground(dimColor).Italic(true),
		divider: r.NewStyle().Foreground(dimColor),
	}
}

func (s styles) line(l session.Line) string {
	switch l.Kind {
	case session.LineEcho:
		return s.echo.Render(l.Text)
	case session.LineHelp:
		return s.help.Render(l.Text)
	case session.LineReply:
		return s.reply.Render(l.Text)
	case session.LineError:
		return s.err.Render(l.Text)
	default:
		return s.system.Render(l.Text)
	}
}
