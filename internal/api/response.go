package api

import (
	"net/http"
	"time"

	apperrors "lunch-roulette/internal/common/errors"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
)

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    Meta        `json:"meta"`
}

// APIError carries the user-facing notice. Retryable tells the client to
// offer the retry action.
type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Notice    string      `json:"notice,omitempty"`
	Retryable bool        `json:"retryable"`
	Details   interface{} `json:"details,omitempty"`
}

type Meta struct {
	RequestID string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, status int, resp *APIResponse) {
	resp.Meta = Meta{
		RequestID: chimiddleware.GetReqID(r.Context()),
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error("failed to marshal response", map[string]interface{}{"error": err})
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("failed to write response", map[string]interface{}{"error": err})
	}
}

func (h *Handler) respondOK(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	h.respondJSON(w, r, status, &APIResponse{Success: true, Data: data})
}

// respondError maps err to its HTTP status. data, when non-nil, is still
// returned so clients can render the session state next to the notice.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, data interface{}) {
	stdErr := apperrors.FromDomain(err)
	status := statusFor(stdErr.Code)

	apiErr := &APIError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Notice:    stdErr.Notice,
		Retryable: apperrors.IsRetryableErrorCode(stdErr.Code),
	}
	if stdErr.Code != apperrors.ErrCodeInternal && stdErr.Details != "" {
		apiErr.Details = stdErr.Details
	}

	fields := map[string]interface{}{
		"code":      stdErr.Code,
		"status":    status,
		"path":      r.URL.Path,
		"requestId": chimiddleware.GetReqID(r.Context()),
		"error":     err,
	}
	switch {
	case status >= http.StatusInternalServerError:
		h.logger.Error("request failed", fields)
	case status != http.StatusOK:
		h.logger.Info("request rejected", fields)
	}

	h.respondJSON(w, r, status, &APIResponse{Success: false, Data: data, Error: apiErr})
}

// statusFor returns the HTTP status for an error code. Empty and
// insufficient candidate sets are ordinary outcomes and answer 200.
func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case apperrors.ErrCodeSessionNotFound, apperrors.ErrCodeEnrichmentUnavailable:
		return http.StatusNotFound
	case apperrors.ErrCodeInvalidSessionState, apperrors.ErrCodeRequestSuperseded:
		return http.StatusConflict
	case apperrors.ErrCodeEmptyCandidateSet,
		apperrors.ErrCodeInsufficientCandidates,
		apperrors.ErrCodeLocationUnavailable:
		return http.StatusOK
	case apperrors.ErrCodeUpstreamSearchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
