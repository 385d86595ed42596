// Package errors provides standardized error handling for the recommendation
// flow and its BPMN workflow integration.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeLocationUnavailable    ErrorCode = "LOCATION_UNAVAILABLE"
	ErrCodeUpstreamSearchFailed   ErrorCode = "UPSTREAM_SEARCH_FAILED"
	ErrCodeEmptyCandidateSet      ErrorCode = "EMPTY_CANDIDATE_SET"
	ErrCodeInsufficientCandidates ErrorCode = "INSUFFICIENT_CANDIDATES"
	ErrCodeEnrichmentUnavailable  ErrorCode = "ENRICHMENT_UNAVAILABLE"

	ErrCodeInvalidRequest      ErrorCode = "INVALID_REQUEST"
	ErrCodeSessionNotFound     ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeInvalidSessionState ErrorCode = "INVALID_SESSION_STATE"
	ErrCodeRequestSuperseded   ErrorCode = "REQUEST_SUPERSEDED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// User-facing notices shown by the frontend.
const (
	NoticeLocationUnavailable    = "위치 정보를 가져오는 데 실패했습니다."
	NoticeNoRecommendation       = "주변에 추천할 음식점을 찾지 못했어요!"
	NoticeInsufficientCandidates = "주변에 추첨할 음식점이 5개 미만입니다."
	NoticeUpstreamSearchFailed   = "음식점을 불러오는 데 실패했습니다."
	NoticeEnrichmentUnavailable  = "Google에서 추가 정보를 찾지 못했습니다."
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Notice    string                 `json:"notice,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithNotice returns a copy carrying a different user-facing notice.
func (e *StandardError) WithNotice(notice string) *StandardError {
	cp := *e
	cp.Notice = notice
	return &cp
}

// Sentinel is a domain error identified only by its code. Domain packages
// declare their sentinels with NewSentinel and wrap them with %w.
type Sentinel struct {
	code ErrorCode
}

func (s *Sentinel) Error() string { return string(s.code) }

// Code returns the error code the sentinel stands for.
func (s *Sentinel) Code() ErrorCode { return s.code }

func NewSentinel(code ErrorCode) error {
	return &Sentinel{code: code}
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func NewLocationUnavailableError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLocationUnavailable,
		Message:   "Current position could not be determined",
		Details:   details,
		Notice:    NoticeLocationUnavailable,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamSearchFailedError creates a retryable keyword-search error.
func NewUpstreamSearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamSearchFailed,
		Message:   "Keyword search request failed",
		Details:   errDetails(err),
		Notice:    NoticeUpstreamSearchFailed,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewEmptyCandidateSetError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyCandidateSet,
		Message:   "No places found nearby",
		Notice:    NoticeNoRecommendation,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInsufficientCandidatesError(size, required int) *StandardError {
	return &StandardError{
		Code:      ErrCodeInsufficientCandidates,
		Message:   "Not enough places to fill the roulette wheel",
		Details:   fmt.Sprintf("found %d, need %d", size, required),
		Notice:    NoticeInsufficientCandidates,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEnrichmentUnavailableError is informational only; enrichment never
// fails the recommendation itself.
func NewEnrichmentUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEnrichmentUnavailable,
		Message:   "Place details unavailable",
		Details:   errDetails(err),
		Notice:    NoticeEnrichmentUnavailable,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewSessionNotFoundError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "Session not found",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidSessionStateError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSessionState,
		Message:   "Operation not allowed in the current session state",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewRequestSupersededError() *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestSuperseded,
		Message:   "A newer request replaced this one",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   errDetails(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// FromDomain normalizes any error returned by the domain packages into a
// StandardError. Returns nil for a nil error.
func FromDomain(err error) *StandardError {
	if err == nil {
		return nil
	}

	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	var s *Sentinel
	if stderrors.As(err, &s) {
		out := fromCode(s.code, err)
		return out
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewUpstreamSearchFailedError(err)
	}
	return NewInternalError(err)
}

func fromCode(code ErrorCode, err error) *StandardError {
	var out *StandardError
	switch code {
	case ErrCodeLocationUnavailable:
		out = NewLocationUnavailableError("")
	case ErrCodeUpstreamSearchFailed:
		out = NewUpstreamSearchFailedError(nil)
	case ErrCodeEmptyCandidateSet:
		out = NewEmptyCandidateSetError()
	case ErrCodeInsufficientCandidates:
		out = NewInsufficientCandidatesError(0, 0)
	case ErrCodeEnrichmentUnavailable:
		out = NewEnrichmentUnavailableError(nil)
	case ErrCodeInvalidRequest:
		out = NewInvalidRequestError("")
	case ErrCodeSessionNotFound:
		out = NewSessionNotFoundError("")
	case ErrCodeInvalidSessionState:
		out = NewInvalidSessionStateError("")
	case ErrCodeRequestSuperseded:
		out = NewRequestSupersededError()
	default:
		out = NewInternalError(nil)
		out.Code = code
	}
	out.Details = err.Error()
	return out
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return FromDomain(err).Code == code
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for a job failing with code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeUpstreamSearchFailed:
		return 3
	case ErrCodeInternal:
		return 1
	default:
		return 0 // business outcomes are thrown, not retried
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"notice":            stdErr.Notice,
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "LOCATION"):
		return "GEOLOCATION"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "CANDIDATE"):
		return "SELECTION"
	case strings.Contains(codeStr, "ENRICHMENT"):
		return "ENRICHMENT"
	case strings.Contains(codeStr, "SESSION") || strings.Contains(codeStr, "SUPERSEDED"):
		return "SESSION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
