package apierr

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"predictbattle/internal/model"
)

// ErrorResponse is the JSON body of every failed request. Stack is null in production.
type ErrorResponse struct {
	Message string  `json:"message"`
	Stack   *string `json:"stack"`
}

// ErrMalformedBody is returned when a request body is not valid JSON
var ErrMalformedBody = model.Invalid("invalid request body")

const internalMessage = "internal server error"

// Writer renders errors and payloads as JSON
type Writer struct {
	production bool
	logger     *slog.Logger
}

// NewWriter creates a response writer. In production error chains are hidden.
func NewWriter(production bool, logger *slog.Logger) *Writer {
	return &Writer{production: production, logger: logger}
}

// JSON writes data with the given status
func (wr *Writer) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		wr.logger.Error("encode response", slog.Any("error", err))
	}
}

// Error maps err to a status and writes the error body
func (wr *Writer) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)

	resp := ErrorResponse{Message: err.Error()}
	var domainErr *model.Error
	if errors.As(err, &domainErr) {
		resp.Message = domainErr.Message
	}

	if status == http.StatusInternalServerError {
		wr.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		if wr.production {
			resp.Message = internalMessage
		}
	}
	if !wr.production {
		chain := err.Error()
		resp.Stack = &chain
	}

	wr.JSON(w, status, resp)
}

// Internal writes a generic 500, used after a recovered panic
func (wr *Writer) Internal(w http.ResponseWriter) {
	wr.JSON(w, http.StatusInternalServerError, ErrorResponse{Message: internalMessage})
}

// StatusOf returns the HTTP status for an error kind
func StatusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrConflict),
		errors.Is(err, model.ErrInvalidState),
		errors.Is(err, model.ErrCapacityExceeded):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
