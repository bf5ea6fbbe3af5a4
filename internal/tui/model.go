// Package tui is a terminal front end for a single chat session.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/usecase/chat"
)

// ChatPort is the TUI-facing subset of the chat service.
type ChatPort interface {
	Process(ctx context.Context, id string, up chat.Upload, opts chat.ProcessOptions) (chat.Snapshot, error)
	Ask(ctx context.Context, id, prompt string) ([]domain.Message, error)
	AskPreset(ctx context.Context, id string, index int) ([]domain.Message, error)
	Questions() []string
}

type mode int

const (
	modeUpload mode = iota
	modeChat
)

const sidebarWidth = 38

type processedMsg struct {
	snap chat.Snapshot
	err  error
}

type answeredMsg struct {
	prompt string
	turns  []domain.Message
	err    error
}

// Model is the Bubble Tea model of a chat session.
type Model struct {
	ctx       context.Context
	svc       ChatPort
	sessionID string
	readFile  func(string) ([]byte, error)

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	mode         mode
	busy         bool
	activateChat bool
	document     string
	messages     []domain.Message
	questions    []string
	selected     int
	status       string
	ready        bool
}

// New creates a model bound to an existing session.
func New(ctx context.Context, svc ChatPort, sessionID string) Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:       ctx,
		svc:       svc,
		sessionID: sessionID,
		readFile:  os.ReadFile,
		input:     ti,
		viewport:  viewport.New(0, 0),
		spinner:   sp,
		questions: svc.Questions(),
	}
	m.setMode(modeUpload)
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := transcriptStyle.GetFrameSize()
		m.viewport.Width = max(20, msg.Width-sidebarWidth-4)
		m.viewport.Height = max(3, msg.Height-fh-6)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case processedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			if m.activateChat {
				m.setMode(modeChat)
			}
			return m, nil
		}
		m.activateChat = msg.snap.ActivateChat
		m.document = msg.snap.Document
		m.status = fmt.Sprintf("Processed %s (%d chunks)", msg.snap.Document, msg.snap.Chunks)
		m.setMode(modeChat)
		return m, nil

	case answeredMsg:
		m.busy = false
		if msg.err != nil {
			// the service keeps the user turn of a failed remote query
			if domain.KindOf(msg.err) == domain.KindRemote {
				m.messages = append(m.messages, domain.NewUserMessage(msg.prompt, time.Now()))
			}
			m.status = "Error: " + msg.err.Error()
		} else {
			m.messages = append(m.messages, msg.turns...)
			m.status = ""
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil, true
		}
		m.input.Reset()
		if m.mode == modeUpload {
			return m.startProcess(text)
		}
		return m.startAsk(text, func(ctx context.Context) ([]domain.Message, error) {
			return m.svc.Ask(ctx, m.sessionID, text)
		})

	case "tab", "shift+tab":
		if m.mode != modeChat || len(m.questions) == 0 {
			return m, nil, false
		}
		step := 1
		if msg.String() == "shift+tab" {
			step = len(m.questions) - 1
		}
		m.selected = (m.selected + step) % len(m.questions)
		return m, nil, true

	case "ctrl+a":
		if m.mode != modeChat || len(m.questions) == 0 {
			return m, nil, true
		}
		index := m.selected
		return m.startAsk(m.questions[index], func(ctx context.Context) ([]domain.Message, error) {
			return m.svc.AskPreset(ctx, m.sessionID, index)
		})

	case "ctrl+o":
		m.setMode(modeUpload)
		return m, nil, true

	case "esc":
		if m.mode == modeUpload && m.activateChat {
			m.setMode(modeChat)
			return m, nil, true
		}
	}
	return m, nil, false
}

func (m Model) startProcess(path string) (Model, tea.Cmd, bool) {
	m.busy = true
	m.status = "Processing " + filepath.Base(path)

	ctx, svc, id, read := m.ctx, m.svc, m.sessionID, m.readFile
	process := func() tea.Msg {
		data, err := read(path)
		if err != nil {
			return processedMsg{err: domain.NewError(domain.KindLocalIO, chat.OpProcess, err)}
		}
		snap, err := svc.Process(ctx, id, chat.Upload{Filename: filepath.Base(path), Data: data}, chat.ProcessOptions{})
		return processedMsg{snap: snap, err: err}
	}
	return m, tea.Batch(m.spinner.Tick, process), true
}

func (m Model) startAsk(prompt string, ask func(context.Context) ([]domain.Message, error)) (Model, tea.Cmd, bool) {
	m.busy = true
	m.status = "Thinking"

	ctx := m.ctx
	run := func() tea.Msg {
		turns, err := ask(ctx)
		return answeredMsg{prompt: prompt, turns: turns, err: err}
	}
	return m, tea.Batch(m.spinner.Tick, run), true
}

func (m *Model) setMode(md mode) {
	m.mode = md
	if md == modeUpload {
		m.input.Prompt = "PDF path > "
		m.input.Placeholder = chat.UploadPrompt
	} else {
		m.input.Prompt = "> "
		m.input.Placeholder = chat.ChatPrompt
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the transcript, the preset-question sidebar, the input and the status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "pdfchat"
	if m.document != "" {
		title += "  " + documentStyle.Render(m.document)
	}
	header := headerStyle.Render(title)

	body := transcriptStyle.Render(m.viewport.View())
	if m.mode == modeChat {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.renderSidebar())
	}

	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	help := helpStyle.Render("enter send · tab/shift+tab select · ctrl+a ask selected · ctrl+o load PDF · ctrl+c quit")
	if m.mode == modeUpload {
		help = helpStyle.Render("enter process · esc back to chat · ctrl+c quit")
	}

	return header + "\n" + body + "\n" + inputStyle.Render(m.input.View()) + "\n" + statusStyle.Render(status) + "\n" + help
}

func (m Model) renderTranscript() string {
	if !m.activateChat && len(m.messages) == 0 {
		return chat.UploadPrompt
	}
	if len(m.messages) == 0 {
		return chat.ChatPrompt
	}
	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		style := assistantStyle
		if msg.Role == domain.RoleUser {
			style = userStyle
		}
		b.WriteString(msg.Avatar + " " + style.Width(max(10, m.viewport.Width-4)).Render(msg.Content))
	}
	return b.String()
}

func (m Model) renderSidebar() string {
	lines := make([]string, 0, len(m.questions)+1)
	lines = append(lines, headerStyle.Render("Questions"))
	for i, q := range m.questions {
		line := truncate(fmt.Sprintf("%2d. %s", i+1, q), sidebarWidth-4)
		if i == m.selected {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return sidebarStyle.Render(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	documentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	sidebarStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(sidebarWidth)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	assistantStyle  = lipgloss.NewStyle()
	selectedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)
