// Package chat runs per-user PDF chat sessions: upload and index one
// document, then answer questions against it.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/chunker"
	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/loader"
	"github.com/kailas-cloud/pdfchat/internal/logger"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
	"github.com/kailas-cloud/pdfchat/internal/usecase/retrieval"
)

// Operation names carried by returned errors.
const (
	OpProcess = "process"
	OpQuery   = "query"
)

// Upload is a single uploaded file held in memory.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProcessOptions override per-request settings.
type ProcessOptions struct {
	// AdapterID selects a fine-tuned adapter; empty uses the configured one.
	AdapterID string
}

// Options configure the service.
type Options struct {
	// Config is the template every session's retrieval configuration starts from.
	Config         domain.RetrievalConfig
	MaxUploadBytes int64
	Questions      []string
}

// Service manages chat sessions.
type Service struct {
	sessions  *sessionStore
	loader    Loader
	models    Models
	factory   retrieval.IndexFactory
	base      domain.RetrievalConfig
	maxUpload int64
	questions []string
	now       func() time.Time
	logger    *zap.Logger
}

// New creates a chat service.
func New(l Loader, models Models, factory retrieval.IndexFactory, opts Options, log *zap.Logger) *Service {
	questions := opts.Questions
	if len(questions) == 0 {
		questions = DefaultQuestions
	}
	return &Service{
		sessions:  newSessionStore(),
		loader:    l,
		models:    models,
		factory:   factory,
		base:      opts.Config,
		maxUpload: opts.MaxUploadBytes,
		questions: questions,
		now:       time.Now,
		logger:    log,
	}
}

// Create starts an empty session.
func (s *Service) Create(_ context.Context) Snapshot {
	now := s.now()
	sess := &session{
		id:         uuid.NewString(),
		state:      StateNoDocument,
		adapterID:  s.base.LLM.AdapterID,
		createdAt:  now,
		lastActive: now,
	}
	s.sessions.put(sess)
	metrics.ActiveSessions.Set(float64(s.sessions.len()))
	return sess.snapshot()
}

// Get returns a session snapshot. It never waits for an in-flight operation.
func (s *Service) Get(_ context.Context, id string) (Snapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.snapshot(), nil
}

// Messages returns a copy of the session's conversation log.
func (s *Service) Messages(_ context.Context, id string) ([]domain.Message, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.RLock()
	defer sess.mu.RUnlock()
	return append([]domain.Message(nil), sess.messages...), nil
}

// Questions returns the preset questions.
func (s *Service) Questions() []string {
	return append([]string(nil), s.questions...)
}

// Delete ends a session and drops its index.
func (s *Service) Delete(ctx context.Context, id string) error {
	sess, ok := s.sessions.remove(id)
	if !ok {
		return fmt.Errorf("delete %s: %w", id, domain.ErrSessionNotFound)
	}
	metrics.ActiveSessions.Set(float64(s.sessions.len()))

	sess.opMu.Lock()
	defer sess.opMu.Unlock()
	s.dropEngine(ctx, sess.takeEngine())
	return nil
}

// Process indexes one uploaded PDF for the session. On success the previous
// index is replaced; on failure the session keeps its previous state.
func (s *Service) Process(ctx context.Context, id string, up Upload, opts ProcessOptions) (Snapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.checkUpload(up); err != nil {
		return Snapshot{}, domain.NewError(domain.KindInput, OpProcess, err)
	}

	sess.mu.Lock()
	if sess.processing {
		sess.mu.Unlock()
		return Snapshot{}, domain.NewError(domain.KindInput, OpProcess,
			fmt.Errorf("session %s: %w", id, domain.ErrBusy))
	}
	prevState := sess.state
	sess.processing = true
	sess.state = StateProcessing
	sess.generation++
	gen := sess.generation
	adapterID := sess.adapterID
	sess.mu.Unlock()

	defer func() {
		sess.mu.Lock()
		sess.processing = false
		sess.mu.Unlock()
	}()

	sess.opMu.Lock()
	defer sess.opMu.Unlock()

	// A Delete or sweep that won the race has already dropped this session's engine.
	if cur, ok := s.sessions.get(id); !ok || cur != sess {
		sess.mu.Lock()
		sess.state = prevState
		sess.mu.Unlock()
		return Snapshot{}, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}

	if opts.AdapterID != "" {
		adapterID = opts.AdapterID
	}
	engine, err := s.build(ctx, sess.id, gen, up, adapterID)
	if err != nil {
		sess.mu.Lock()
		sess.state = prevState
		sess.mu.Unlock()
		metrics.DocumentsProcessedTotal.WithLabelValues("error").Inc()
		return Snapshot{}, err
	}

	sess.mu.Lock()
	old := sess.engine
	sess.engine = engine
	sess.state = StateReady
	sess.activateChat = true
	sess.document = up.Filename
	sess.adapterID = adapterID
	sess.lastActive = s.now()
	sess.mu.Unlock()

	s.dropEngine(ctx, old)
	metrics.DocumentsProcessedTotal.WithLabelValues("success").Inc()
	metrics.DocumentChunks.Observe(float64(engine.Index().Len()))

	return sess.snapshot(), nil
}

func (s *Service) checkUpload(up Upload) error {
	if len(up.Data) == 0 {
		return fmt.Errorf("no file uploaded: %w", domain.ErrNoDocument)
	}
	if s.maxUpload > 0 && int64(len(up.Data)) > s.maxUpload {
		return fmt.Errorf("%s is %d bytes, limit is %d: %w",
			up.Filename, len(up.Data), s.maxUpload, domain.ErrInvalidDocument)
	}
	if !loader.HasPDFExtension(up.Filename) && up.ContentType != "application/pdf" {
		return fmt.Errorf("%s is not a PDF: %w", up.Filename, domain.ErrInvalidDocument)
	}
	return nil
}

// build loads, chunks, embeds and indexes the upload under a fresh index name.
func (s *Service) build(
	ctx context.Context, sessionID string, gen int, up Upload, adapterID string,
) (*retrieval.QueryEngine, error) {
	log := logger.FromContextOr(ctx, s.logger).With(
		zap.String("session_id", sessionID),
		zap.String("document", up.Filename),
	)

	cfg := s.base.WithAdapter(adapterID)
	if err := cfg.Validate(); err != nil {
		return nil, domain.NewError(domain.KindConfig, OpProcess, err)
	}

	pages, err := s.loader.Load(ctx, up.Filename, up.Data)
	if err != nil {
		return nil, domain.NewError(kindForDocument(err), OpProcess, err)
	}

	chunks := chunker.NewSentenceChunker(cfg.ChunkSize, cfg.ChunkOverlap).Chunk(up.Filename, pages)
	embedder := s.models.Embedder(cfg.Embedding)

	indexName := sessionID + ":" + strconv.Itoa(gen)
	idx, err := retrieval.NewIndexer(embedder, s.factory, log).Build(ctx, indexName, chunks)
	if err != nil {
		return nil, domain.NewError(kindForDocument(err), OpProcess, err)
	}

	log.Info("Document processed",
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(chunks)),
		zap.String("adapter_id", adapterID),
	)
	return retrieval.NewQueryEngine(idx, embedder, s.models.LLM(cfg.LLM), cfg, log), nil
}

func kindForDocument(err error) domain.ErrorKind {
	switch {
	case errors.Is(err, domain.ErrInvalidDocument), errors.Is(err, domain.ErrNoDocument):
		return domain.KindInput
	default:
		return domain.KindRemote
	}
}

// Ask appends the user turn, queries the session's index and appends the answer.
// A failed query leaves the user turn in the log.
func (s *Service) Ask(ctx context.Context, id, prompt string) ([]domain.Message, error) {
	return s.ask(ctx, id, prompt, "typed")
}

// AskPreset asks the preset question at index exactly as if it had been typed.
func (s *Service) AskPreset(ctx context.Context, id string, index int) ([]domain.Message, error) {
	if index < 0 || index >= len(s.questions) {
		return nil, domain.NewError(domain.KindInput, OpQuery,
			fmt.Errorf("index %d of %d: %w", index, len(s.questions), domain.ErrQuestionOutOfRange))
	}
	return s.ask(ctx, id, s.questions[index], "preset")
}

func (s *Service) ask(ctx context.Context, id, prompt, origin string) ([]domain.Message, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.NewError(domain.KindInput, OpQuery, domain.ErrEmptyPrompt)
	}

	sess.opMu.Lock()
	defer sess.opMu.Unlock()

	sess.mu.RLock()
	engine := sess.engine
	sess.mu.RUnlock()
	if engine == nil {
		return nil, domain.NewError(domain.KindInput, OpQuery, domain.ErrNoDocument)
	}

	user := domain.NewUserMessage(prompt, s.now())
	sess.appendMessage(user)

	answer, err := engine.Query(ctx, prompt)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues(origin, "error").Inc()
		return nil, domain.NewError(domain.KindRemote, OpQuery, err)
	}
	metrics.QueriesTotal.WithLabelValues(origin, "success").Inc()

	assistant := domain.NewAssistantMessage(answer, s.now())
	sess.appendMessage(assistant)
	return []domain.Message{user, assistant}, nil
}

// SweepIdle ends sessions idle for longer than maxIdle. Sessions with an
// operation in flight are skipped. Returns the number of ended sessions.
func (s *Service) SweepIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)
	ended := 0

	for _, sess := range s.sessions.list() {
		sess.mu.RLock()
		idle := sess.lastActive.Before(cutoff) && !sess.processing
		sess.mu.RUnlock()
		if !idle || !sess.opMu.TryLock() {
			continue
		}
		if _, ok := s.sessions.remove(sess.id); ok {
			s.dropEngine(ctx, sess.takeEngine())
			ended++
		}
		sess.opMu.Unlock()
	}

	if ended > 0 {
		metrics.ActiveSessions.Set(float64(s.sessions.len()))
		s.logger.Info("Idle sessions ended", zap.Int("count", ended))
	}
	return ended
}

// RunSweeper calls SweepIdle every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepIdle(ctx, maxIdle)
		}
	}
}

// Close drops every session's index.
func (s *Service) Close(ctx context.Context) {
	for _, sess := range s.sessions.list() {
		if _, ok := s.sessions.remove(sess.id); ok {
			sess.opMu.Lock()
			s.dropEngine(ctx, sess.takeEngine())
			sess.opMu.Unlock()
		}
	}
	metrics.ActiveSessions.Set(0)
}

func (s *Service) session(id string) (*session, error) {
	sess, ok := s.sessions.get(id)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	return sess, nil
}

func (s *Service) dropEngine(ctx context.Context, engine *retrieval.QueryEngine) {
	if engine == nil {
		return
	}
	if err := engine.Index().Drop(context.WithoutCancel(ctx)); err != nil {
		logger.FromContextOr(ctx, s.logger).Warn("Failed to drop index", zap.Error(err))
	}
}
