package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/pdfchat/internal/usecase/health"
)

type mockChat struct {
	createFn    func(ctx context.Context) chat.Snapshot
	getFn       func(ctx context.Context, id string) (chat.Snapshot, error)
	deleteFn    func(ctx context.Context, id string) error
	processFn   func(ctx context.Context, id string, up chat.Upload, opts chat.ProcessOptions) (chat.Snapshot, error)
	messagesFn  func(ctx context.Context, id string) ([]domain.Message, error)
	askFn       func(ctx context.Context, id, prompt string) ([]domain.Message, error)
	askPresetFn func(ctx context.Context, id string, index int) ([]domain.Message, error)
	questions   []string
}

func (m *mockChat) Create(ctx context.Context) chat.Snapshot { return m.createFn(ctx) }

func (m *mockChat) Get(ctx context.Context, id string) (chat.Snapshot, error) { return m.getFn(ctx, id) }

func (m *mockChat) Delete(ctx context.Context, id string) error { return m.deleteFn(ctx, id) }

func (m *mockChat) Process(
	ctx context.Context, id string, up chat.Upload, opts chat.ProcessOptions,
) (chat.Snapshot, error) {
	return m.processFn(ctx, id, up, opts)
}

func (m *mockChat) Messages(ctx context.Context, id string) ([]domain.Message, error) {
	return m.messagesFn(ctx, id)
}

func (m *mockChat) Ask(ctx context.Context, id, prompt string) ([]domain.Message, error) {
	return m.askFn(ctx, id, prompt)
}

func (m *mockChat) AskPreset(ctx context.Context, id string, index int) ([]domain.Message, error) {
	return m.askPresetFn(ctx, id, index)
}

func (m *mockChat) Questions() []string { return m.questions }

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func newTestRouter(t *testing.T, c *mockChat, h *mockHealth) http.Handler {
	t.Helper()
	if h == nil {
		h = &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}}
	}
	r := chi.NewRouter()
	NewServer(c, h, 1<<20, zap.NewNop()).Routes(r)
	return r
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
