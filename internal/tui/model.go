// Package tui is the interactive terminal client. It owns no analysis data:
// every key press is forwarded to the session and the screen is re-derived
// from a session snapshot after each change.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ppiankov/termslens/internal/render"
	"github.com/ppiankov/termslens/internal/session"
)

type focusArea int

const (
	focusURL focusArea = iota
	focusQuestion
	focusResult
)

// analyzedMsg is sent when an analyze call resolves
type analyzedMsg struct {
	outcome session.AnalyzeOutcome
}

// answeredMsg is sent when an ask call resolves
type answeredMsg struct {
	outcome session.AskOutcome
	err     error
}

// Options configures the client model
type Options struct {
	// InitialURL, when set, is analyzed as soon as the program starts
	InitialURL string
	// MarkdownStyle is passed to the summary renderer
	MarkdownStyle string
}

// Model is the bubbletea model of the client
type Model struct {
	ctx  context.Context
	sess *session.Session
	opts Options

	urlInput textinput.Model
	question textarea.Model
	result   viewport.Model
	chat     viewport.Model
	spinner  spinner.Model

	focus  focusArea
	view   render.View
	width  int
	height int
	ready  bool
}

// New creates the client model around a session
func New(ctx context.Context, sess *session.Session, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Paste API documentation URL..."
	ti.CharLimit = 2048
	ti.SetValue(opts.InitialURL)
	ti.Focus()

	ta := textarea.New()
	ta.Placeholder = "Ask something about the terms..."
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.SetHeight(4)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	if opts.InitialURL != "" {
		sess.SetURL(opts.InitialURL)
	}

	m := Model{
		ctx:      ctx,
		sess:     sess,
		opts:     opts,
		urlInput: ti,
		question: ta,
		spinner:  sp,
		focus:    focusURL,
		result:   viewport.New(0, 0),
		chat:     viewport.New(0, 0),
	}
	m.view = render.Project(sess.Snapshot())
	return m
}

// Init starts the initial analysis when a URL was given
func (m Model) Init() tea.Cmd {
	if m.opts.InitialURL == "" {
		return textinput.Blink
	}
	return tea.Batch(m.analyzeCmd(m.opts.InitialURL), m.spinner.Tick)
}

func (m Model) analyzeCmd(url string) tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		return analyzedMsg{outcome: sess.Analyze(ctx, url)}
	}
}

func (m Model) askCmd(question string) tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		out, err := sess.Ask(ctx, question)
		return answeredMsg{outcome: out, err: err}
	}
}

// Update handles a message
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case analyzedMsg:
		m.refresh()
		if msg.outcome.Applied {
			if m.view.Pending == "" {
				m.question.Reset()
			}
			m.result.GotoTop()
			if msg.outcome.Err == nil {
				m.setFocus(focusQuestion)
			}
		}
		return m, nil

	case answeredMsg:
		m.refresh()
		if msg.outcome.Applied {
			m.question.Reset()
		}
		m.chat.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if !m.view.Loading && !m.view.Asking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Focus):
		m.cycleFocus()
		return m, nil

	case key.Matches(msg, Keys.Newline):
		if m.focus == focusQuestion {
			m.question.InsertString("\n")
			m.sess.SetPendingQuestion(m.question.Value())
		}
		return m, nil

	case key.Matches(msg, Keys.Submit):
		switch m.focus {
		case focusURL:
			return m.submit()
		case focusQuestion:
			return m.send()
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

// submit starts an analysis unless one is already running
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.view.Loading || m.sess.IsLoadingAnalysis() {
		return m, nil
	}
	url := strings.TrimSpace(m.urlInput.Value())
	m.sess.SetURL(url)

	cmd := m.analyzeCmd(url)
	m.view.Loading = true
	return m, tea.Batch(cmd, m.spinner.Tick)
}

// send asks the typed question. Blank questions, a missing analysis and an
// outstanding ask all make this a no-op.
func (m Model) send() (tea.Model, tea.Cmd) {
	q := m.question.Value()
	st := m.sess.Snapshot()
	if strings.TrimSpace(q) == "" || !st.HasContext() || st.IsAsking {
		return m, nil
	}
	m.view.Asking = true
	return m, tea.Batch(m.askCmd(q), m.spinner.Tick)
}

func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusURL:
		m.urlInput, cmd = m.urlInput.Update(msg)
		m.sess.SetURL(m.urlInput.Value())
	case focusQuestion:
		m.question, cmd = m.question.Update(msg)
		m.sess.SetPendingQuestion(m.question.Value())
	case focusResult:
		m.result, cmd = m.result.Update(msg)
	}
	return m, cmd
}

func (m *Model) cycleFocus() {
	if m.view.Mode == session.Unanalyzed {
		m.setFocus(focusURL)
		return
	}
	m.setFocus((m.focus + 1) % 3)
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	m.urlInput.Blur()
	m.question.Blur()
	switch f {
	case focusURL:
		m.urlInput.Focus()
	case focusQuestion:
		m.question.Focus()
	}
}

// refresh re-derives the view from the session
func (m *Model) refresh() {
	m.view = render.Project(m.sess.Snapshot())
	if !m.ready {
		return
	}
	m.result.SetContent(render.Terminal(m.view, render.TerminalOptions{
		Width: m.result.Width,
		Style: m.opts.MarkdownStyle,
	}))
	m.chat.SetContent(render.Transcript(m.view, m.chat.Width))
}
