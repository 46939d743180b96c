package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration means a required secret or key is missing; fatal at startup.
	ErrConfiguration = errors.New("configuration error")
	// ErrAuthRequired means the caller must be signed in.
	ErrAuthRequired = errors.New("authentication required")
	// ErrAlreadyExists marks idempotent no-ops (already following, already joined).
	ErrAlreadyExists = errors.New("already exists")
	// ErrSelfAction means a user tried to act on themselves (e.g. follow-self).
	ErrSelfAction = errors.New("self action rejected")
	// ErrNotFound means the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEngine means the calling engine reported a failure.
	ErrEngine = errors.New("engine error")
	// ErrDirectory means a directory query failed; no partial state was written.
	ErrDirectory = errors.New("directory error")
)

type AppError struct {
	Err     error  // taxonomy sentinel
	Message string // human-readable error message
	Details string // optional collaborator detail, surfaced in the "details" field
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func AuthRequired(action string) *AppError {
	return &AppError{
		Err:     ErrAuthRequired,
		Message: fmt.Sprintf("you must be logged in to %s", action),
	}
}

func AlreadyExists(message string) *AppError {
	return &AppError{
		Err:     ErrAlreadyExists,
		Message: message,
	}
}

func SelfAction(message string) *AppError {
	return &AppError{
		Err:     ErrSelfAction,
		Message: message,
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: resource + " not found",
	}
}

// Directory wraps a collaborator query failure. The underlying error text is
// carried in Details so handlers can put it in the JSON "details" field.
func Directory(op string, err error) *AppError {
	return &AppError{
		Err:     ErrDirectory,
		Message: op + " failed",
		Details: err.Error(),
	}
}

func Engine(op string, err error) *AppError {
	return &AppError{
		Err:     ErrEngine,
		Message: op + " failed",
		Details: err.Error(),
	}
}

func Configuration(message string) *AppError {
	return &AppError{
		Err:     ErrConfiguration,
		Message: message,
	}
}
