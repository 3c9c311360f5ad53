package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"curiosity/internal/registry"
	"curiosity/internal/session"
	"curiosity/internal/storage"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

type (
	loadMsg   struct{}
	replyMsg  struct{ reply session.Reply }
	settleMsg struct{ outcome session.DeleteOutcome }
)

// Model is the Bubble Tea program. It is also the controller's View, so every
// controller call made from Update renders straight into the model.
type Model struct {
	ctx    context.Context
	ctl    *session.Controller
	logger zerolog.Logger

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	transcript []storage.Message
	entries    []registry.Entry
	activeID   string
	cursor     int
	pending    bool
	focus      focusArea
	confirm    *confirmDialog
	status     string

	width  int
	height int
}

var _ session.View = (*Model)(nil)

func New(ctx context.Context, logger zerolog.Logger) *Model {
	ti := textinput.New()
	ti.Placeholder = "Type your message..."
	ti.Prompt = "> "
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:      ctx,
		logger:   logger.With().Str("component", "tui").Logger(),
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		width:    80 + sidebarWidth,
		height:   24,
	}
}

// Bind attaches the controller. The controller must have been built with this
// model as its View.
func (m *Model) Bind(ctl *session.Controller) {
	m.ctl = ctl
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		func() tea.Msg { return loadMsg{} },
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case loadMsg:
		m.report(m.ctl.RefreshChatList(m.ctx))
		return m, nil

	case replyMsg:
		m.report(m.ctl.DeliverReply(m.ctx, msg.reply))
		return m, nil

	case settleMsg:
		m.report(m.ctl.Settle(m.ctx, msg.outcome))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.confirm != nil {
		return m.handleConfirm(msg)
	}

	switch msg.String() {
	case "ctrl+n":
		_, err := m.ctl.StartNewChat(m.ctx)
		m.report(err)
		return m, m.focusOn(focusInput)
	case "tab":
		if m.focus == focusInput {
			return m, m.focusOn(focusSidebar)
		}
		return m, m.focusOn(focusInput)
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}

	if msg.String() == "enter" {
		ex, err := m.ctl.SendUserMessage(m.ctx, m.input.Value())
		m.report(err)
		if ex == nil {
			return m, nil
		}
		ctx, ctl := m.ctx, m.ctl
		return m, func() tea.Msg {
			return replyMsg{reply: ctl.Await(ctx, ex)}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "enter":
		if id := m.selectedID(); id != "" {
			m.report(m.ctl.OpenChat(m.ctx, id))
			return m, m.focusOn(focusInput)
		}
	case "d", "delete":
		if prompt, ok := m.ctl.RequestDelete(m.selectedID()); ok {
			m.confirm = newConfirmDialog(prompt)
		}
	}
	return m, nil
}

func (m *Model) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	yes, done := m.confirm.update(msg)
	if !done {
		return m, nil
	}
	m.confirm = nil

	out, err := m.ctl.ConfirmDelete(m.ctx, yes)
	m.report(err)
	if !out.WasCurrent {
		return m, nil
	}
	return m, tea.Tick(session.SettleDelay, func(time.Time) tea.Msg {
		return settleMsg{outcome: out}
	})
}

func (m *Model) focusOn(area focusArea) tea.Cmd {
	m.focus = area
	if area == focusInput {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

func (m *Model) selectedID() string {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return ""
	}
	return m.entries[m.cursor].ChatID
}

func (m *Model) report(err error) {
	if err == nil {
		return
	}
	m.logger.Error().Err(err).Msg("session operation failed")
	m.status = err.Error()
}

// session.View

func (m *Model) ClearTranscript() {
	m.transcript = nil
	m.refreshTranscript()
}

func (m *Model) AppendMessage(msg storage.Message) {
	m.transcript = append(m.transcript, msg)
	m.refreshTranscript()
}

func (m *Model) SetPending(pending bool) {
	m.pending = pending
}

func (m *Model) ClearInput() {
	m.input.Reset()
	m.status = ""
}

func (m *Model) SetChatList(entries []registry.Entry, activeID string) {
	m.entries = entries
	m.activeID = activeID
	for i, e := range entries {
		if e.ChatID == activeID {
			m.cursor = i
			return
		}
	}
	if m.cursor >= len(entries) {
		m.cursor = max(len(entries)-1, 0)
	}
}

func (m *Model) layout() {
	mainWidth := max(m.width-sidebarWidth-2, 20)
	// header, status line and the bordered input take five rows
	m.viewport.Width = mainWidth
	m.viewport.Height = max(m.height-5, 3)
	m.input.Width = max(mainWidth-4, 10)
	m.refreshTranscript()
}

func (m *Model) refreshTranscript() {
	width := max(m.viewport.Width, 20)
	body := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for i, msg := range m.transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		label := botLabelStyle.Render("Bot")
		if msg.Sender == storage.SenderUser {
			label = userLabelStyle.Render("You")
		}
		if t, ok := msg.Time(); ok {
			label += " " + timeStyle.Render(t.Local().Format("15:04"))
		}
		b.WriteString(label + "\n" + body.Render(msg.Text) + "\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *Model) View() string {
	if m.confirm != nil {
		return m.confirm.view(m.width, m.height)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), m.mainView())
}

func (m *Model) sidebarView() string {
	style := sidebarStyle
	if m.focus == focusSidebar {
		style = sidebarFocusedStyle
	}
	inner := sidebarWidth - 4

	lines := []string{titleStyle.Render("Chats"), ""}
	for i, e := range m.entries {
		text := e.Preview
		if runes := []rune(text); len(runes) > inner {
			text = string(runes[:inner-1]) + "…"
		}
		s := itemStyle
		if e.ChatID == m.activeID {
			s = activeItemStyle
		}
		if m.focus == focusSidebar && i == m.cursor {
			s = s.Inherit(cursorItemStyle)
		}
		lines = append(lines, s.Width(inner).Render(text))
	}
	lines = append(lines, "", helpStyle.Render("ctrl+n new  tab focus"), helpStyle.Render("d delete  ctrl+c quit"))

	return style.Width(sidebarWidth - 2).Height(max(m.height-2, 1)).Render(strings.Join(lines, "\n"))
}

func (m *Model) mainView() string {
	status := ""
	switch {
	case m.pending:
		status = statusStyle.Render(fmt.Sprintf("%s Thinking...", m.spinner.View()))
	case m.status != "":
		status = errorStyle.Render(m.status)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Curiosity"),
		m.viewport.View(),
		status,
		inputStyle.Render(m.input.View()),
	)
}
