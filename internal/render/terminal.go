package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hyperjump/cyborgbench/internal/evaluator"
)

// Terminal writes styled chat lines and a compact dashboard to a writer.
type Terminal struct {
	w io.Writer

	userStyle  lipgloss.Style
	botStyle   lipgloss.Style
	errorStyle lipgloss.Style
	labelStyle lipgloss.Style
	valueStyle lipgloss.Style
	badges     map[evaluator.Mode]lipgloss.Style
	overheads  map[evaluator.Qualifier]lipgloss.Style
}

// NewTerminal returns a renderer writing to w. Colors follow the writer's
// detected profile, so plain buffers get plain text.
func NewTerminal(w io.Writer) *Terminal {
	r := lipgloss.NewRenderer(w)
	return &Terminal{
		w:          w,
		userStyle:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		botStyle:   r.NewStyle().Foreground(lipgloss.Color("252")),
		errorStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		labelStyle: r.NewStyle().Faint(true).Width(22),
		valueStyle: r.NewStyle().Bold(true).Width(10),
		badges: map[evaluator.Mode]lipgloss.Style{
			evaluator.ModeSearch: r.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("34")).Padding(0, 1),
			evaluator.ModeChat:   r.NewStyle().Foreground(lipgloss.Color("244")).Background(lipgloss.Color("238")).Padding(0, 1),
		},
		overheads: map[evaluator.Qualifier]lipgloss.Style{
			evaluator.Slower:       r.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
			evaluator.Faster:       r.NewStyle().Bold(true).Foreground(lipgloss.Color("34")),
			evaluator.NotAvailable: r.NewStyle().Bold(true).Foreground(lipgloss.Color("244")),
		},
	}
}

// RenderUser prints the user line.
func (t *Terminal) RenderUser(text string) error {
	_, err := fmt.Fprintln(t.w, t.userStyle.Render("you ›")+" "+text)
	return err
}

// RenderBot prints the reply, indenting continuation lines under the prefix.
func (t *Terminal) RenderBot(reply string) error {
	lines := strings.Split(strings.ReplaceAll(reply, "\r\n", "\n"), "\n")
	prefix := t.botStyle.Render("bot ›") + " "
	indent := strings.Repeat(" ", lipgloss.Width(prefix))
	var b strings.Builder
	for i, line := range lines {
		if i == 0 {
			b.WriteString(prefix)
		} else {
			b.WriteString(indent)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}

// RenderError prints msg in the error style.
func (t *Terminal) RenderError(msg string) error {
	_, err := fmt.Fprintln(t.w, t.errorStyle.Render(msg))
	return err
}

// RenderDashboard prints the mode badge, latencies and overheads.
func (t *Terminal) RenderDashboard(m evaluator.DisplayModel) error {
	v := NewDashboardView(m)
	badge, ok := t.badges[m.Mode]
	if !ok {
		badge = t.badges[evaluator.ModeChat]
	}
	var b strings.Builder
	b.WriteString(badge.Render(v.Badge.Label))
	b.WriteByte('\n')
	for _, l := range v.Latency {
		b.WriteString("  " + t.labelStyle.Render(l.Label) + t.valueStyle.Render(l.Value) + "\n")
	}
	for _, o := range v.Overhead {
		style, ok := t.overheads[o.Qualifier]
		if !ok {
			style = t.overheads[evaluator.NotAvailable]
		}
		b.WriteString("  " + t.labelStyle.Render(o.Label) + style.Render(o.Value) + "\n")
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}
