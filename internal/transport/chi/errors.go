package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// ErrorCode is the machine-readable code of an error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeValidationFailed   ErrorCode = "validation_failed"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeSessionNotFound    ErrorCode = "session_not_found"
	CodeNotFound           ErrorCode = "not_found"
	CodeNoDocument         ErrorCode = "no_document"
	CodeInvalidDocument    ErrorCode = "invalid_document"
	CodeDocumentTooLarge   ErrorCode = "document_too_large"
	CodeEmptyPrompt        ErrorCode = "empty_prompt"
	CodeQuestionOutOfRange ErrorCode = "question_out_of_range"
	CodeSessionBusy        ErrorCode = "session_busy"
	CodeRateLimited        ErrorCode = "rate_limited"
	CodeEmbeddingProvider  ErrorCode = "embedding_provider_error"
	CodeLLMProvider        ErrorCode = "llm_provider_error"
	CodePlatform           ErrorCode = "platform_error"
	CodeNotConfigured      ErrorCode = "not_configured"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// defaultErrorHandlers are tried in order; the first match writes the response.
// Rate limiting is checked before the provider errors it can be joined with.
func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, CodeSessionNotFound),
		sentinelHandler(domain.ErrBusy, http.StatusConflict, CodeSessionBusy),
		sentinelHandler(domain.ErrNoDocument, http.StatusConflict, CodeNoDocument),
		sentinelHandler(domain.ErrInvalidDocument, http.StatusBadRequest, CodeInvalidDocument),
		sentinelHandler(domain.ErrEmptyPrompt, http.StatusBadRequest, CodeEmptyPrompt),
		sentinelHandler(domain.ErrQuestionOutOfRange, http.StatusBadRequest, CodeQuestionOutOfRange),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProvider),
		sentinelHandler(domain.ErrLLMProviderError, http.StatusBadGateway, CodeLLMProvider),
		sentinelHandler(domain.ErrPlatformError, http.StatusBadGateway, CodePlatform),
		sentinelHandler(domain.ErrInvalidConfig, http.StatusServiceUnavailable, CodeNotConfigured),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrSessionNotFound,
		domain.ErrBusy,
		domain.ErrNoDocument,
		domain.ErrInvalidDocument,
		domain.ErrEmptyPrompt,
		domain.ErrQuestionOutOfRange,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrLLMProviderError,
		domain.ErrPlatformError,
		domain.ErrInvalidConfig,
		domain.ErrNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.log(r)
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error",
				zap.String("kind", string(domain.KindOf(err))),
				zap.String("op", domain.OpOf(err)),
				zap.Error(err),
			)
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
