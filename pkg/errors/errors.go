// Package errors defines the sentinel errors shared across the index and its
// serving surface, plus the mapping from those errors to HTTP status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrDuplicateDocument = errors.New("duplicate document id")
	ErrInvalidTerm       = errors.New("term contains a reserved separator")
	ErrInvalidInput      = errors.New("invalid input")
	ErrDecode            = errors.New("malformed record")
	ErrRecordOutOfRange  = errors.New("record range exceeds file size")
	ErrCorruptRecord     = errors.New("record terminator missing")
	ErrIndexNotBuilt     = errors.New("index has not been built")
	ErrBuildInProgress   = errors.New("another build holds the index lock")
	ErrCatalogNotFound   = errors.New("catalog entry not found")
	ErrInternal          = errors.New("internal error")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode picks the response status for err. An AppError carries its
// own code; otherwise the wrapped sentinel decides.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrDocumentNotFound), errors.Is(err, ErrCatalogNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidTerm):
		return http.StatusBadRequest
	case errors.Is(err, ErrBuildInProgress), errors.Is(err, ErrDuplicateDocument):
		return http.StatusConflict
	case errors.Is(err, ErrIndexNotBuilt):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
