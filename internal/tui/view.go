package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ppiankov/termslens/internal/session"
)

var (
	appTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	buttonStyle   = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("33"))
	disabledButtonStyle = buttonStyle.
				Foreground(lipgloss.Color("246")).
				Background(lipgloss.Color("237"))
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))
	focusedPaneStyle = paneStyle.BorderForeground(lipgloss.Color("39"))
)

const (
	chatShare     = 0.4
	headerHeight  = 3
	composeHeight = 6
)

// layout sizes the components for the current window
func (m *Model) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}

	m.urlInput.Width = max(m.width-30, 20)

	chatWidth := int(float64(m.width) * chatShare)
	resultWidth := m.width - chatWidth
	bodyHeight := max(m.height-headerHeight-2, 4)

	m.result.Width = max(resultWidth-2, 10)
	m.result.Height = bodyHeight

	m.chat.Width = max(chatWidth-2, 10)
	m.chat.Height = max(bodyHeight-composeHeight-1, 2)

	m.question.SetWidth(max(chatWidth-4, 10))
}

// View renders the screen
func (m Model) View() string {
	if m.view.Mode == session.Unanalyzed {
		return m.landingView()
	}
	return m.analyzedView()
}

func (m Model) submitButton() string {
	if m.view.Loading {
		return disabledButtonStyle.Render(m.spinner.View() + " Analyzing...")
	}
	return buttonStyle.Render("Submit")
}

func (m Model) sendButton() string {
	switch {
	case m.view.Asking:
		return disabledButtonStyle.Render(m.spinner.View() + " Sending...")
	case strings.TrimSpace(m.question.Value()) == "":
		return disabledButtonStyle.Render("Send")
	}
	return buttonStyle.Render("Send")
}

func (m Model) landingView() string {
	var b strings.Builder
	b.WriteString(appTitleStyle.Render("Terms Lens"))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Paste the link to an API's terms or documentation."))
	b.WriteString("\n\n")
	b.WriteString(m.urlInput.View())
	b.WriteString("  ")
	b.WriteString(m.submitButton())
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render(fmt.Sprintf("%s submit • %s quit", Keys.Submit.Help().Key, Keys.Quit.Help().Key)))

	if m.width <= 0 || m.height <= 0 {
		return b.String()
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, b.String())
}

func (m Model) analyzedView() string {
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		appTitleStyle.Render("Terms Lens "),
		m.urlInput.View(),
		"  ",
		m.submitButton(),
	)

	chatPane := lipgloss.JoinVertical(lipgloss.Left,
		appTitleStyle.Render("Ask a Question"),
		m.chat.View(),
		m.question.View(),
		m.sendButton(),
	)
	chatBox := paneStyle
	if m.focus == focusQuestion {
		chatBox = focusedPaneStyle
	}

	resultBox := paneStyle
	if m.focus == focusResult {
		resultBox = focusedPaneStyle
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		chatBox.Render(chatPane),
		resultBox.Render(m.result.View()),
	)

	help := hintStyle.Render(fmt.Sprintf("%s send • %s new line • %s switch pane • %s quit",
		Keys.Submit.Help().Key, Keys.Newline.Help().Key, Keys.Focus.Help().Key, Keys.Quit.Help().Key))

	return lipgloss.JoinVertical(lipgloss.Left, header, body, help)
}
