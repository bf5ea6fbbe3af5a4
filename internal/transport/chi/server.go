// Package chi serves the chat HTTP API on a chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/logger"
	"github.com/kailas-cloud/pdfchat/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/pdfchat/internal/usecase/health"
)

// multipartMemory is the part of a multipart body kept in memory before spilling to disk.
const multipartMemory = 8 << 20

// ChatService is the consumer interface for chat sessions (ISP).
type ChatService interface {
	Create(ctx context.Context) chat.Snapshot
	Get(ctx context.Context, id string) (chat.Snapshot, error)
	Delete(ctx context.Context, id string) error
	Process(ctx context.Context, id string, up chat.Upload, opts chat.ProcessOptions) (chat.Snapshot, error)
	Messages(ctx context.Context, id string) ([]domain.Message, error)
	Ask(ctx context.Context, id, prompt string) ([]domain.Message, error)
	AskPreset(ctx context.Context, id string, index int) ([]domain.Message, error)
	Questions() []string
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

var _ ChatService = (*chat.Service)(nil)

// Server handles the chat HTTP API.
type Server struct {
	chat          ChatService
	health        HealthService
	maxUpload     int64
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. maxUpload bounds a document upload in bytes.
func NewServer(chatSvc ChatService, health HealthService, maxUpload int64, logger *zap.Logger) *Server {
	return &Server{
		chat:          chatSvc,
		health:        health,
		maxUpload:     maxUpload,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/questions", s.ListQuestions)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/document", s.UploadDocument)
			r.Get("/messages", s.ListMessages)
			r.Post("/messages", s.PostMessage)
			r.Post("/questions/{index}", s.AskPreset)
		})
	})
}

// MessageRequest is the body of POST /sessions/{id}/messages.
type MessageRequest struct {
	Content string `json:"content"`
}

// MessagesResponse wraps a list of conversation turns.
type MessagesResponse struct {
	Messages []domain.Message `json:"messages"`
}

// QuestionsResponse lists the preset questions; a question's index is its position.
type QuestionsResponse struct {
	Questions []string `json:"questions"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// ListQuestions handles GET /questions.
func (s *Server) ListQuestions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, QuestionsResponse{Questions: s.chat.Questions()})
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	snap := s.chat.Create(r.Context())
	w.Header().Set("Location", "/sessions/"+snap.ID)
	writeJSON(w, http.StatusCreated, snap)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.chat.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.chat.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadDocument handles POST /sessions/{id}/document: multipart field "file"
// with exactly one PDF, optional field "adapter_id".
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if s.maxUpload > 0 {
		// room for the multipart envelope and form fields
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1<<20)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeDocumentTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", s.maxUpload))
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "expected multipart/form-data with a file field")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["file"]
	switch len(files) {
	case 0:
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "no file uploaded")
		return
	case 1:
	default:
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("exactly one file is accepted, got %d", len(files)))
		return
	}

	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "cannot read uploaded file")
		return
	}
	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "cannot read uploaded file")
		return
	}

	up := chat.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}
	opts := chat.ProcessOptions{AdapterID: r.FormValue("adapter_id")}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	snap, err := s.chat.Process(ctx, chi.URLParam(r, "id"), up, opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, snap)
}

// ListMessages handles GET /sessions/{id}/messages.
func (s *Server) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.chat.Messages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessagesResponse{Messages: nonNil(msgs)})
}

// PostMessage handles POST /sessions/{id}/messages.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	turns, err := s.chat.Ask(ctx, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, MessagesResponse{Messages: turns})
}

// AskPreset handles POST /sessions/{id}/questions/{index}.
func (s *Server) AskPreset(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "question index must be an integer")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	turns, err := s.chat.AskPreset(ctx, chi.URLParam(r, "id"), index)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, MessagesResponse{Messages: turns})
}

func (s *Server) log(r *http.Request) *zap.Logger {
	return logger.FromContextOr(r.Context(), s.logger)
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.RequestUsage) {
	if usage == nil {
		return
	}
	if usage.EmbeddingTokens > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.EmbeddingTokens))
	}
	if usage.CompletionTokens > 0 {
		w.Header().Set("X-Completion-Tokens", strconv.Itoa(usage.CompletionTokens))
	}
}

func nonNil(msgs []domain.Message) []domain.Message {
	if msgs == nil {
		return []domain.Message{}
	}
	return msgs
}
