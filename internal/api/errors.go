package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// ErrorCode represents machine-readable error codes
type ErrorCode string

const (
	// General error codes
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeInvalidJSON     ErrorCode = "INVALID_JSON"
	ErrCodeRequestTooLarge ErrorCode = "REQUEST_TOO_LARGE"

	// Configure rejection codes
	ErrCodeEmptyCommand     ErrorCode = "EMPTY_COMMAND"
	ErrCodeMalformedCommand ErrorCode = "MALFORMED_COMMAND"
	ErrCodeHostMismatch     ErrorCode = "HOST_MISMATCH"
	ErrCodePathMismatch     ErrorCode = "PATH_MISMATCH"
	ErrCodeInvalidValue     ErrorCode = "INVALID_VALUE"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error     string            `json:"error"`                // HTTP status text
	Message   string            `json:"message"`              // Human-readable description
	Code      ErrorCode         `json:"code"`                 // Machine-readable error code
	Fields    map[string]string `json:"fields,omitempty"`     // Per-item details
	RequestID string            `json:"request_id,omitempty"` // Request ID for debugging
}

// NewErrorResponse creates a new error response
func NewErrorResponse(statusCode int, code ErrorCode, message string) *ErrorResponse {
	return &ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    code,
	}
}

// WithFields adds per-item details to the response
func (e *ErrorResponse) WithFields(fields map[string]string) *ErrorResponse {
	e.Fields = fields
	return e
}

// writeErrorResponse writes a structured error response to the http response writer
func writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, errResp *ErrorResponse) {
	// Add request ID from chi middleware if available
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		errResp.RequestID = reqID
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errResp)
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code ErrorCode, message string) {
	writeErrorResponse(w, r, statusCode, NewErrorResponse(statusCode, code, message))
}

// writeJSON encodes v before writing the status so an unencodable value becomes a
// 500 instead of a success with an empty body.
func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	blob, err := json.Marshal(v)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(append(blob, '\n'))
}
