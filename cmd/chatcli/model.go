package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vadim/tosembanda/internal/apperr"
	"github.com/vadim/tosembanda/internal/client"
	"github.com/vadim/tosembanda/internal/domain/chat/entity"
)

// composer is the unsent text of the open conversation
type composer interface {
	Type(text string)
	Draft() string
	Submit(ctx context.Context) (*entity.Message, error)
}

// state is what the screen renders from
type state interface {
	Entries() []client.Entry
	PeerTyping() bool
	Unread() int64
}

type inbox interface {
	Summaries() []entity.Summary
	Hide(ctx context.Context, conversationID string) error
}

// --- Messages ---

// changedMsg tells the model to re-read the state
type changedMsg struct{}

type noticeMsg struct{ text string }

type sentMsg struct{ err error }

type hiddenMsg struct {
	conversationID string
	err            error
}

// --- Styles ---

var (
	primaryColor = lipgloss.Color("#7C3AED")
	mutedColor   = lipgloss.Color("#9CA3AF")
	errorColor   = lipgloss.Color("#EF4444")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Border(lipgloss.NormalBorder(), false, false, true, false)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	noticeStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	ownMessageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	otherMessageStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true)
)

// --- Model ---

type model struct {
	ctx      context.Context
	title    string
	selfID   string
	composer composer
	state    state
	inbox    inbox

	input    textinput.Model
	viewport viewport.Model

	entries    []client.Entry
	peerTyping bool
	unread     int64
	notice     string
	sending    bool
	width      int
}

func newModel(ctx context.Context, title, selfID string, c composer, s state, in inbox) model {
	input := textinput.New()
	input.Placeholder = "Write a message, /list, /hide <id> or /quit"
	input.CharLimit = entity.MaxMessageLength
	input.Focus()

	return model{
		ctx:      ctx,
		title:    title,
		selfID:   selfID,
		composer: c,
		state:    s,
		inbox:    in,
		input:    input,
		viewport: viewport.New(80, 20),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		func() tea.Msg { return changedMsg{} },
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.enter()
		}
		return m.edit(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		// header, status line, notice and input
		height := msg.Height - 6
		if height < 3 {
			height = 3
		}
		m.viewport = viewport.New(msg.Width, height)
		m.input.Width = msg.Width - 4
		m.render()
		return m, nil

	case changedMsg:
		m.entries = m.state.Entries()
		m.peerTyping = m.state.PeerTyping()
		m.unread = m.state.Unread()
		m.render()
		return m, nil

	case noticeMsg:
		m.notice = msg.text
		return m, nil

	case sentMsg:
		m.sending = false
		if msg.err != nil {
			// the composer keeps the failed text unless something newer was typed
			if draft := m.composer.Draft(); draft != "" {
				m.input.SetValue(draft)
				m.input.CursorEnd()
			}
			m.notice = apperr.MessageOf(msg.err)
		}
		return m, nil

	case hiddenMsg:
		if msg.err != nil {
			m.notice = apperr.MessageOf(msg.err)
		} else {
			m.notice = "hidden " + msg.conversationID
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// edit applies a key to the input and reports every change to the composer
func (m model) edit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	before := m.input.Value()

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	if after := m.input.Value(); after != before {
		m.composer.Type(after)
	}
	return m, cmd
}

func (m model) enter() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}

	if strings.HasPrefix(line, "/") {
		m.input.Reset()
		m.composer.Type("")
		return m.command(line)
	}

	if m.sending {
		return m, nil
	}
	m.sending = true
	m.notice = ""
	m.input.Reset()

	ctx, c := m.ctx, m.composer
	return m, func() tea.Msg {
		_, err := c.Submit(ctx)
		return sentMsg{err: err}
	}
}

func (m model) command(line string) (tea.Model, tea.Cmd) {
	switch {
	case line == "/quit":
		return m, tea.Quit

	case line == "/list":
		summaries := m.inbox.Summaries()
		if len(summaries) == 0 {
			m.notice = "no conversations"
			return m, nil
		}
		rows := make([]string, 0, len(summaries))
		for _, s := range summaries {
			rows = append(rows, fmt.Sprintf("%s  %s: %s", s.ConversationID, s.OtherParticipantName, s.LastMessage))
		}
		m.notice = strings.Join(rows, "\n")
		return m, nil

	case strings.HasPrefix(line, "/hide "):
		id := strings.TrimSpace(strings.TrimPrefix(line, "/hide "))
		ctx, in := m.ctx, m.inbox
		return m, func() tea.Msg {
			return hiddenMsg{conversationID: id, err: in.Hide(ctx, id)}
		}
	}

	m.notice = "unknown command " + line
	return m, nil
}

func (m *model) render() {
	m.viewport.SetContent(m.renderEntries())
	m.viewport.GotoBottom()
}

func (m *model) renderEntries() string {
	var content strings.Builder
	for _, e := range m.entries {
		who, style := "them", otherMessageStyle
		if e.Message.SenderID == m.selfID {
			who, style = "me", ownMessageStyle
		}

		line := fmt.Sprintf("%s %s: %s",
			mutedStyle.Render(e.Message.CreatedAt.Local().Format("15:04")),
			style.Render(who),
			e.Message.Content,
		)
		if e.State == client.Pending {
			line += mutedStyle.Render(" (sending)")
		}
		content.WriteString(line + "\n")
	}
	return content.String()
}

func (m model) statusLine() string {
	var parts []string
	if m.peerTyping {
		parts = append(parts, "typing...")
	}
	if m.sending {
		parts = append(parts, "sending")
	}
	if m.unread > 0 {
		parts = append(parts, fmt.Sprintf("%d unread", m.unread))
	}
	return mutedStyle.Render(strings.Join(parts, " | "))
}

func (m model) View() string {
	sections := []string{
		headerStyle.Render(m.title),
		m.viewport.View(),
		m.statusLine(),
	}
	if m.notice != "" {
		sections = append(sections, noticeStyle.Render(m.notice))
	}
	sections = append(sections, m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
