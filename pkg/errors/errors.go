package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so sentinels survive Clone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Academic rule violations. All are bad-request class failures.
var (
	ErrOutOfScope          = New("OUT_OF_SCOPE", http.StatusBadRequest, "subject does not belong to the student's career")
	ErrPrerequisitesUnmet  = New("PREREQUISITES_UNMET", http.StatusBadRequest, "prerequisites not satisfied")
	ErrAlreadyEnrolled     = New("ALREADY_ENROLLED", http.StatusBadRequest, "already enrolled in subject")
	ErrCommissionFull      = New("COMMISSION_FULL", http.StatusBadRequest, "commission full")
	ErrSubjectMismatch     = New("SUBJECT_MISMATCH", http.StatusBadRequest, "mismatched subject")
	ErrNoSeats             = New("NO_SEATS", http.StatusBadRequest, "no seats")
	ErrInvalidStanding     = New("INVALID_STANDING", http.StatusBadRequest, "coursework not completed for subject")
	ErrAlreadyRegistered   = New("ALREADY_REGISTERED", http.StatusBadRequest, "already registered")
	ErrScheduleOverlap     = New("SCHEDULE_OVERLAP", http.StatusBadRequest, "schedule overlap")
	ErrPrerequisiteCycle   = New("PREREQUISITE_CYCLE", http.StatusBadRequest, "prerequisite would create a cycle")
	ErrInvalidAgendaWindow = New("INVALID_AGENDA_RANGE", http.StatusBadRequest, "invalid agenda date range")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithDetails returns a copy of err carrying structured details for API consumers.
func WithDetails(err *Error, message string, details interface{}) *Error {
	clone := Clone(err, message)
	if clone != nil {
		clone.Details = details
	}
	return clone
}

// IsCode reports whether err resolves to an *Error with the given code.
func IsCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
