package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/ppiankov/termslens/internal/model"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	mutedStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	youStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// TerminalOptions controls terminal rendering
type TerminalOptions struct {
	Width int
	// Style is a glamour standard style name ("dark", "light", "notty").
	// Empty picks one from the terminal.
	Style string
}

// Markdown renders markdown for the terminal, falling back to the plain
// wrapped text when glamour cannot render it.
func Markdown(md string, opts TerminalOptions) string {
	width := opts.Width
	if width < 20 {
		width = 20
	}

	style := glamour.WithAutoStyle()
	if opts.Style != "" {
		style = glamour.WithStandardStyle(opts.Style)
	}

	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return lipgloss.NewStyle().Width(width).Render(md)
	}
	out, err := r.Render(md)
	if err != nil {
		return lipgloss.NewStyle().Width(width).Render(md)
	}
	return strings.TrimRight(out, "\n")
}

// Terminal renders the analysis part of a view: summary, user types and
// notices. Empty sections produce no output.
func Terminal(v View, opts TerminalOptions) string {
	var sections []string

	if v.Summary != "" {
		sections = append(sections, headingStyle.Render("Summary")+"\n"+Markdown(v.Summary, opts))
	}

	if len(v.UserTypes) > 0 {
		var b strings.Builder
		b.WriteString(headingStyle.Render("Rules for Different Kinds of Users"))
		for _, panel := range v.UserTypes {
			b.WriteString("\n")
			b.WriteString(renderPanel(panel, opts.Width))
		}
		sections = append(sections, b.String())
	}

	if len(v.Notices) > 0 {
		var b strings.Builder
		b.WriteString(headingStyle.Render("Important Notices"))
		for _, n := range v.Notices {
			b.WriteString("\n")
			b.WriteString(noticeStyle.Render("! " + n))
		}
		sections = append(sections, b.String())
	}

	return strings.Join(sections, "\n\n")
}

func renderPanel(p UserTypePanel, width int) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render(p.Label))

	switch p.Kind {
	case model.PointsFreeform:
		b.WriteString("\n")
		b.WriteString(p.Text)
	case model.PointsStructured:
		for _, g := range p.Groups {
			b.WriteString("\n")
			b.WriteString(titleStyle.Render(g.Title))
			if g.Empty() {
				b.WriteString("\n")
				b.WriteString(mutedStyle.Render(NoDetails))
				continue
			}
			for _, item := range g.Items {
				b.WriteString("\n  • ")
				b.WriteString(item)
			}
		}
	}

	style := panelStyle
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(b.String())
}

// Transcript renders the chat log followed by any pending error
func Transcript(v View, width int) string {
	if len(v.Chat) == 0 && v.Error == "" {
		return mutedStyle.Render("No questions yet. Type one below and press Enter.")
	}

	wrap := lipgloss.NewStyle()
	if width > 0 {
		wrap = wrap.Width(width)
	}

	var b strings.Builder
	for i, entry := range v.Chat {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(wrap.Render(youStyle.Render("You: ") + entry.Question))
		b.WriteString("\n")
		b.WriteString(wrap.Render(entry.Answer))
	}
	if v.Error != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(wrap.Render(errorStyle.Render("Could not get an answer: " + v.Error)))
	}
	return b.String()
}
