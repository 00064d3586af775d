package shared

import (
	"errors"
	"net/http"
)

// AppError carries an HTTP status and a user-facing message alongside the
// underlying error. Handlers return these and the fiber error handler maps
// them onto the response envelope.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
	Data       interface{}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func newAppError(status int, code string, err error, message string) *AppError {
	return &AppError{
		StatusCode: status,
		Code:       code,
		Message:    message,
		Err:        err,
	}
}

func NewBadRequestError(err error, message string) *AppError {
	return newAppError(http.StatusBadRequest, "BAD_REQUEST", err, message)
}

func NewUnauthorizedError(err error, message string) *AppError {
	return newAppError(http.StatusUnauthorized, "UNAUTHORIZED", err, message)
}

func NewForbiddenError(err error, message string) *AppError {
	return newAppError(http.StatusForbidden, "FORBIDDEN", err, message)
}

func NewNotFoundError(err error, message string) *AppError {
	return newAppError(http.StatusNotFound, "NOT_FOUND", err, message)
}

func NewConflictError(err error, message string) *AppError {
	return newAppError(http.StatusConflict, "CONFLICT", err, message)
}

func NewInternalError(err error, message string) *AppError {
	return newAppError(http.StatusInternalServerError, "INTERNAL_ERROR", err, message)
}

func NewTooManyRequestsError(err error, message string) *AppError {
	return newAppError(http.StatusTooManyRequests, "RATE_LIMITED", err, message)
}

// Import and gamification taxonomy.

func NewUnsupportedFormatError(message string) *AppError {
	return newAppError(http.StatusBadRequest, "UNSUPPORTED_FORMAT", nil, message)
}

func NewEmptyContentError(message string) *AppError {
	return newAppError(http.StatusBadRequest, "EMPTY_CONTENT", nil, message)
}

func NewNoValidDataError(message string) *AppError {
	return newAppError(http.StatusUnprocessableEntity, "NO_VALID_DATA", nil, message)
}

func NewExternalServiceError(err error, message string) *AppError {
	return newAppError(http.StatusBadGateway, "EXTERNAL_SERVICE", err, message)
}

func NewPersistenceError(err error, message string) *AppError {
	return newAppError(http.StatusInternalServerError, "PERSISTENCE", err, message)
}

// Distinguishable AI gateway failures. The import pipeline inspects these to
// report "rate limited" / "insufficient credits" instead of a generic failure.
var (
	ErrAIRateLimited         = errors.New("ai gateway rate limited")
	ErrAIInsufficientCredits = errors.New("ai gateway insufficient credits")
)
