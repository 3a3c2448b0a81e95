package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures the planner core knows how to react to.
type Kind string

const (
	// KindProvider marks a failed model-provider call. Fatal to the turn.
	KindProvider Kind = "provider"
	// KindToolArgument marks missing or malformed tool arguments. Recovered at
	// the tool boundary and fed back to the model as an error result.
	KindToolArgument Kind = "tool_argument"
	// KindParse marks model output that is not valid JSON even after extraction.
	KindParse Kind = "parse"
	// KindUnresolvedPoint marks a place name no resolution step could locate.
	KindUnresolvedPoint Kind = "unresolved_point"
	// KindPersistence marks a store failure. Logged and swallowed by the gatekeeper.
	KindPersistence Kind = "persistence"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// NotFoundMessage describes a missing record in any store.
	NotFoundMessage = "record not found"
	// MongoErrorMessage describes MongoDB related failures.
	MongoErrorMessage = "mongodb operation failed"
)

// AppError wraps an underlying error with a kind, an HTTP status and safe message.
type AppError struct {
	Err     error
	Kind    Kind
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// NewKind creates an AppError tagged with a failure kind.
func NewKind(kind Kind, err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Kind:    kind,
		Status:  status,
		Message: message,
	}
}

// Providerf builds a provider failure from a format string.
func Providerf(format string, args ...any) *AppError {
	return NewKind(KindProvider, fmt.Errorf(format, args...), http.StatusBadGateway, "model provider call failed")
}

// ToolArgument builds a recoverable tool-argument failure. The message is fed
// back to the model, so it should say what is wrong with the arguments.
func ToolArgument(message string) *AppError {
	return NewKind(KindToolArgument, nil, http.StatusBadRequest, message)
}

// UnresolvedPoint builds a failure for a place name that could not be located.
func UnresolvedPoint(message string) *AppError {
	return NewKind(KindUnresolvedPoint, nil, http.StatusUnprocessableEntity, message)
}

// Parse builds a failure for unparseable model output.
func Parse(err error, message string) *AppError {
	return NewKind(KindParse, err, http.StatusBadGateway, message)
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Kind == kind {
			return true
		}
		err = appErr.Err
	}
	return false
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
