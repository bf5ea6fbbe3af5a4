package tui

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/usecase/chat"
)

type mockChat struct {
	processFn   func(ctx context.Context, id string, up chat.Upload, opts chat.ProcessOptions) (chat.Snapshot, error)
	askFn       func(ctx context.Context, id, prompt string) ([]domain.Message, error)
	askPresetFn func(ctx context.Context, id string, index int) ([]domain.Message, error)
}

func (m *mockChat) Process(
	ctx context.Context, id string, up chat.Upload, opts chat.ProcessOptions,
) (chat.Snapshot, error) {
	return m.processFn(ctx, id, up, opts)
}

func (m *mockChat) Ask(ctx context.Context, id, prompt string) ([]domain.Message, error) {
	return m.askFn(ctx, id, prompt)
}

func (m *mockChat) AskPreset(ctx context.Context, id string, index int) ([]domain.Message, error) {
	return m.askPresetFn(ctx, id, index)
}

func (m *mockChat) Questions() []string { return chat.DefaultQuestions }

func turns(prompt, answer string) []domain.Message {
	now := time.Now()
	return []domain.Message{domain.NewUserMessage(prompt, now), domain.NewAssistantMessage(answer, now)}
}

func readyModel(svc ChatPort) Model {
	m := New(context.Background(), svc, "s1")
	m.readFile = func(path string) ([]byte, error) {
		if strings.HasSuffix(path, "missing.pdf") {
			return nil, os.ErrNotExist
		}
		return []byte("%PDF-1.4 " + path), nil
	}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// settle runs cmd and feeds completion messages back into the model.
func settle(m Model, cmd tea.Cmd) Model {
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = settle(m, c)
		}
	case processedMsg, answeredMsg:
		m, _ = update(m, msg)
	}
	return m
}

func submit(m Model, text string) Model {
	m.input.SetValue(text)
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	return settle(m, cmd)
}

func processOK() func(context.Context, string, chat.Upload, chat.ProcessOptions) (chat.Snapshot, error) {
	return func(_ context.Context, id string, up chat.Upload, _ chat.ProcessOptions) (chat.Snapshot, error) {
		return chat.Snapshot{ID: id, State: chat.StateReady, ActivateChat: true, Document: up.Filename, Chunks: 4}, nil
	}
}

func TestNew_StartsWithoutDocument(t *testing.T) {
	m := readyModel(&mockChat{})

	if m.mode != modeUpload || m.activateChat {
		t.Fatalf("expected upload mode without active chat")
	}
	if m.input.Placeholder != chat.UploadPrompt {
		t.Errorf("placeholder = %q", m.input.Placeholder)
	}
	if !strings.Contains(m.View(), chat.UploadPrompt) {
		t.Error("view must show the upload prompt")
	}
}

func TestView_BeforeWindowSize(t *testing.T) {
	m := New(context.Background(), &mockChat{}, "s1")
	if m.View() != "Loading..." {
		t.Errorf("unexpected view %q", m.View())
	}
}

func TestProcess_ActivatesChat(t *testing.T) {
	var got chat.Upload
	svc := &mockChat{processFn: func(
		ctx context.Context, id string, up chat.Upload, opts chat.ProcessOptions,
	) (chat.Snapshot, error) {
		got = up
		return processOK()(ctx, id, up, opts)
	}}
	m := submit(readyModel(svc), "/tmp/docs/rfp.pdf")

	if got.Filename != "rfp.pdf" || string(got.Data) != "%PDF-1.4 /tmp/docs/rfp.pdf" {
		t.Errorf("unexpected upload: %+v", got)
	}
	if m.mode != modeChat || !m.activateChat || m.busy {
		t.Fatalf("expected chat mode, got mode=%d active=%v busy=%v", m.mode, m.activateChat, m.busy)
	}
	if m.input.Placeholder != chat.ChatPrompt {
		t.Errorf("placeholder = %q", m.input.Placeholder)
	}
	if !strings.Contains(m.View(), "Questions") {
		t.Error("chat view must show the preset-question sidebar")
	}
}

func TestProcess_FailureKeepsState(t *testing.T) {
	svc := &mockChat{processFn: processOK()}
	m := readyModel(svc)

	m = submit(m, "missing.pdf")
	if m.mode != modeUpload || m.activateChat {
		t.Fatalf("failed first upload must leave chat inactive")
	}
	if !strings.HasPrefix(m.status, "Error:") {
		t.Errorf("status = %q", m.status)
	}

	m = submit(m, "a.pdf")
	svc.processFn = func(context.Context, string, chat.Upload, chat.ProcessOptions) (chat.Snapshot, error) {
		return chat.Snapshot{}, domain.NewError(domain.KindInput, chat.OpProcess, domain.ErrInvalidDocument)
	}
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlO})
	m = submit(m, "broken.pdf")

	if m.mode != modeChat || !m.activateChat || m.document != "a.pdf" {
		t.Errorf("prior document must stay active: mode=%d active=%v doc=%q", m.mode, m.activateChat, m.document)
	}
}

func TestAsk_AppendsTurns(t *testing.T) {
	svc := &mockChat{
		processFn: processOK(),
		askFn: func(_ context.Context, _, prompt string) ([]domain.Message, error) {
			return turns(prompt, "Thirty days."), nil
		},
	}
	m := submit(readyModel(svc), "a.pdf")
	m = submit(m, "What is the refund window?")

	if len(m.messages) != 2 || m.messages[1].Content != "Thirty days." {
		t.Fatalf("unexpected transcript: %+v", m.messages)
	}
	if !strings.Contains(m.renderTranscript(), domain.AvatarAssistant+" ") {
		t.Error("transcript must show avatars")
	}
}

func TestAsk_RemoteFailureKeepsUserTurn(t *testing.T) {
	svc := &mockChat{
		processFn: processOK(),
		askFn: func(context.Context, string, string) ([]domain.Message, error) {
			return nil, domain.NewError(domain.KindRemote, chat.OpQuery, domain.ErrLLMProviderError)
		},
	}
	m := submit(submit(readyModel(svc), "a.pdf"), "refund?")

	if len(m.messages) != 1 || m.messages[0].Role != domain.RoleUser {
		t.Fatalf("expected only the user turn, got %+v", m.messages)
	}
	if !strings.Contains(m.status, "llm provider error") {
		t.Errorf("status = %q", m.status)
	}
}

func TestPresetQuestions(t *testing.T) {
	var asked []int
	svc := &mockChat{
		processFn: processOK(),
		askPresetFn: func(_ context.Context, _ string, index int) ([]domain.Message, error) {
			asked = append(asked, index)
			return turns(chat.DefaultQuestions[index], "answer"), nil
		},
	}
	m := submit(readyModel(svc), "a.pdf")

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.selected != 2 {
		t.Fatalf("selected = %d", m.selected)
	}
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.selected != len(chat.DefaultQuestions)-1 {
		t.Fatalf("shift+tab must wrap, selected = %d", m.selected)
	}

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlA})
	m = settle(m, cmd)
	if len(asked) != 1 || asked[0] != len(chat.DefaultQuestions)-1 {
		t.Fatalf("unexpected preset calls: %v", asked)
	}
	if m.messages[0].Content != chat.DefaultQuestions[len(chat.DefaultQuestions)-1] {
		t.Errorf("preset question must appear as the user turn: %+v", m.messages[0])
	}
}

func TestBusyIgnoresInput(t *testing.T) {
	calls := 0
	svc := &mockChat{processFn: func(ctx context.Context, id string, up chat.Upload, o chat.ProcessOptions) (chat.Snapshot, error) {
		calls++
		return processOK()(ctx, id, up, o)
	}}
	m := readyModel(svc)
	m.input.SetValue("a.pdf")
	m, pending := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.busy {
		t.Fatal("expected busy while processing")
	}

	m.input.SetValue("b.pdf")
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("enter must be ignored while busy")
	}

	m = settle(m, pending)
	if calls != 1 || m.busy {
		t.Errorf("expected exactly one process call, got %d (busy=%v)", calls, m.busy)
	}
}

func TestCtrlCQuits(t *testing.T) {
	_, cmd := update(readyModel(&mockChat{}), tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestEmptyEnterIsIgnored(t *testing.T) {
	m := readyModel(&mockChat{})
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.busy {
		t.Error("blank input must not start processing")
	}
}
