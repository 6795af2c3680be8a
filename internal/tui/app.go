package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NicoPedraza/vidqa/internal/app/conversation"
	"github.com/NicoPedraza/vidqa/internal/domain"
)

type phase int

const (
	phaseEntry phase = iota
	phaseLoading
	phaseChat
)

// Model drives the single-session chat screen: an entry form for the video
// URL, a loading phase, and the chat view. The submit affordances are disabled
// while a load or an answer is in flight, so the controller's busy guard is
// never hit from this client.
type Model struct {
	svc       *conversation.Service
	sessionID domain.SessionID

	phase    phase
	video    *domain.VideoInfo
	messages []*domain.Message

	urlInput  textinput.Model
	chatInput textinput.Model
	spin      spinner.Model

	pending      bool   // answer in flight
	answerFailed bool   // last answer attempt failed; enter with empty input retries
	lastQuestion string // what to retry
	loadErr      string

	width  int
	height int
	offset int  // scroll offset into rendered lines
	follow bool // pinned to the newest entry
	lines  []string

	quitting bool
}

func NewModel(svc *conversation.Service, session *domain.Session) Model {
	ui := textinput.New()
	ui.Placeholder = "https://www.youtube.com/watch?v=..."
	ui.CharLimit = 500
	ui.Focus()

	ci := textinput.New()
	ci.Placeholder = "ask something about the video..."
	ci.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		svc:       svc,
		sessionID: session.ID,
		phase:     phaseEntry,
		urlInput:  ui,
		chatInput: ci,
		spin:      sp,
		follow:    true,
		width:     100,
		height:    30,
	}
}

// ─────────────────────────────────────────────
// Async commands and their result messages
// ─────────────────────────────────────────────

type videoLoadedMsg struct {
	out *conversation.LoadVideoOutput
	err error
}

type answerMsg struct {
	out *conversation.SendMessageOutput
	err error
}

type resetDoneMsg struct {
	err error
}

func (m Model) loadVideoCmd(reference string) tea.Cmd {
	svc, id := m.svc, m.sessionID
	return func() tea.Msg {
		out, err := svc.LoadVideo(context.Background(), conversation.LoadVideoInput{
			SessionID: id,
			Reference: reference,
		})
		return videoLoadedMsg{out: out, err: err}
	}
}

func (m Model) sendMessageCmd(text string) tea.Cmd {
	svc, id := m.svc, m.sessionID
	return func() tea.Msg {
		out, err := svc.SendMessage(context.Background(), conversation.SendMessageInput{
			SessionID: id,
			Text:      text,
		})
		return answerMsg{out: out, err: err}
	}
}

func (m Model) resetCmd() tea.Cmd {
	svc, id := m.svc, m.sessionID
	return func() tea.Msg {
		_, err := svc.Reset(context.Background(), id)
		return resetDoneMsg{err: err}
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// ─────────────────────────────────────────────
// Update
// ─────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rebuildLines()
		return m, nil

	case spinner.TickMsg:
		if m.phase != phaseLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case videoLoadedMsg:
		return m.updateVideoLoaded(msg)

	case answerMsg:
		return m.updateAnswer(msg)

	case resetDoneMsg:
		return m.updateResetDone(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.phase {
		case phaseEntry:
			return m.updateEntry(msg)
		case phaseLoading:
			// Submit affordance is disabled while the load is in flight.
			return m, nil
		case phaseChat:
			return m.updateChat(msg)
		}
	}
	return m, nil
}

func (m Model) updateEntry(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		reference := strings.TrimSpace(m.urlInput.Value())
		if reference == "" {
			return m, nil
		}
		m.phase = phaseLoading
		m.loadErr = ""
		return m, tea.Batch(m.spin.Tick, m.loadVideoCmd(reference))
	}

	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)
	return m, cmd
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, m.resetCmd()

	case "up", "k":
		m.scrollBy(-1)
		return m, nil
	case "down", "j":
		m.scrollBy(1)
		return m, nil
	case "pgup":
		m.scrollBy(-m.viewHeight())
		return m, nil
	case "pgdown":
		m.scrollBy(m.viewHeight())
		return m, nil

	case "enter":
		if m.pending {
			return m, nil
		}
		text := strings.TrimSpace(m.chatInput.Value())
		if text == "" {
			if m.answerFailed && m.lastQuestion != "" {
				// Retry resends the question, which the service appends as a
				// second user message; a second echo keeps the local view in
				// step with the canonical log.
				m.messages = append(m.messages, &domain.Message{
					SessionID: m.sessionID,
					Author:    domain.RoleUser,
					Text:      m.lastQuestion,
				})
				m.pending = true
				m.answerFailed = false
				m.follow = true
				m.rebuildLines()
				return m, m.sendMessageCmd(m.lastQuestion)
			}
			return m, nil
		}

		// Optimistic echo; replaced by the canonical message on success.
		m.messages = append(m.messages, &domain.Message{
			SessionID: m.sessionID,
			Author:    domain.RoleUser,
			Text:      text,
		})
		m.lastQuestion = text
		m.pending = true
		m.answerFailed = false
		m.chatInput.SetValue("")
		m.follow = true
		m.rebuildLines()
		return m, m.sendMessageCmd(text)
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

func (m Model) updateVideoLoaded(msg videoLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		// Load failure keeps the user on the entry screen (no session state lost).
		m.phase = phaseEntry
		m.loadErr = loadErrorText(msg.err)
		m.urlInput.Focus()
		return m, nil
	}

	m.phase = phaseChat
	m.video = msg.out.Session.Video
	m.messages = []*domain.Message{msg.out.SeedMessage}
	m.urlInput.Blur()
	m.chatInput.Focus()
	m.follow = true
	m.rebuildLines()
	return m, textinput.Blink
}

func (m Model) updateAnswer(msg answerMsg) (tea.Model, tea.Cmd) {
	m.pending = false

	if msg.err != nil {
		// The user message stays in the log without a reply; the status line
		// offers a retry.
		m.answerFailed = true
		m.rebuildLines()
		return m, nil
	}

	// Swap the optimistic echo for the canonical user message, if present.
	if n := len(m.messages); n > 0 && m.messages[n-1].Author == domain.RoleUser && m.messages[n-1].ID == "" {
		m.messages[n-1] = msg.out.UserMessage
	} else {
		m.messages = append(m.messages, msg.out.UserMessage)
	}
	m.messages = append(m.messages, msg.out.AssistantMessage)
	m.lastQuestion = ""
	m.follow = true
	m.rebuildLines()
	return m, nil
}

func (m Model) updateResetDone(msg resetDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		// Keep the chat; resetting again is always possible.
		return m, nil
	}

	m.phase = phaseEntry
	m.video = nil
	m.messages = nil
	m.lines = nil
	m.offset = 0
	m.pending = false
	m.answerFailed = false
	m.lastQuestion = ""
	m.chatInput.Blur()
	m.chatInput.SetValue("")
	m.urlInput.SetValue("")
	m.urlInput.Focus()
	return m, textinput.Blink
}

// ─────────────────────────────────────────────
// Scrolling
// ─────────────────────────────────────────────

func (m *Model) viewHeight() int {
	// header + status + input + help
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) maxOffset() int {
	max := len(m.lines) - m.viewHeight()
	if max < 0 {
		max = 0
	}
	return max
}

func (m *Model) scrollBy(delta int) {
	m.offset += delta
	if m.offset < 0 {
		m.offset = 0
	}
	if m.offset > m.maxOffset() {
		m.offset = m.maxOffset()
	}
	// Manual scrolling away from the end releases the pin; scrolling back to
	// the end restores it.
	m.follow = m.offset == m.maxOffset()
}

// rebuildLines re-renders the message log and, when following, advances the
// visible window to the newest entry.
func (m *Model) rebuildLines() {
	width := m.width - 2
	if width < 20 {
		width = 20
	}
	body := lipgloss.NewStyle().Width(width)

	var lines []string
	for i, msg := range m.messages {
		if i > 0 {
			lines = append(lines, "")
		}
		tag := userRoleStyle.Render(" You ")
		if msg.Author == domain.RoleAssistant {
			tag = assistantRoleStyle.Render(" Assistant ")
		}
		lines = append(lines, tag)
		lines = append(lines, strings.Split(body.Render(msg.Text), "\n")...)
	}
	m.lines = lines

	if m.follow {
		m.offset = m.maxOffset()
	} else if m.offset > m.maxOffset() {
		m.offset = m.maxOffset()
	}
}

// ─────────────────────────────────────────────
// View
// ─────────────────────────────────────────────

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.phase {
	case phaseEntry:
		return m.viewEntry()
	case phaseLoading:
		return m.viewLoading()
	default:
		return m.viewChat()
	}
}

func (m Model) viewEntry() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("vidqa — chat with a video") + "\n\n")
	b.WriteString("  Paste a YouTube link and press enter:\n\n")
	b.WriteString(inputStyle.Render(m.urlInput.View()) + "\n")
	if m.loadErr != "" {
		b.WriteString("\n  " + errorStyle.Render(m.loadErr) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("  enter: load video  ctrl+c: quit"))
	return b.String()
}

func (m Model) viewLoading() string {
	return titleStyle.Render("vidqa") + "\n\n  " +
		m.spin.View() + dimStyle.Render(" fetching video and transcript…")
}

func (m Model) viewChat() string {
	header := headerStyle.Render("vidqa")
	if m.video != nil {
		header = headerStyle.Render("vidqa — " + m.video.Title + " (" + m.video.Duration + ")")
	}

	var body string
	if len(m.lines) == 0 {
		body = dimStyle.Render("  no messages yet")
	} else {
		end := m.offset + m.viewHeight()
		if end > len(m.lines) {
			end = len(m.lines)
		}
		body = strings.Join(m.lines[m.offset:end], "\n")
	}

	status := ""
	switch {
	case m.pending:
		status = dimStyle.Render("  thinking…")
	case m.answerFailed:
		status = errorStyle.Render("  answer failed — press enter to retry")
	}

	input := inputStyle.Render(m.chatInput.View())
	if m.pending {
		input = dimStyle.Render(m.chatInput.View())
	}

	help := helpStyle.Render("  enter: send  j/k: scroll  esc: new video  ctrl+c: quit")

	return header + "\n" + body + "\n" + status + "\n" + input + "\n" + help
}

func loadErrorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidReference):
		return "That doesn't look like a valid video link."
	case errors.Is(err, domain.ErrTranscriptUnavailable):
		return "This video has no transcript available."
	case errors.Is(err, domain.ErrBusy):
		return "A video is already loading."
	default:
		return "Could not load the video. Try again in a moment."
	}
}
