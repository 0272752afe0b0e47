package shared

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind uint8

// Error kinds understood by the HTTP layer.
const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindInvalidToken
	KindForbidden
	KindNotFound
	KindConflict
)

// Error is a domain error carrying a stable code and a message safe to show to clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError constructs a domain error.
func NewError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validationf builds a validation error with a formatted message.
func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Code: "validation_failed", Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of err, KindInternal when it is not a domain error.
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = NewError(KindNotFound, "not_found", "Not found")
	// ErrInvalidCredentials indicates login failure. Unknown email and wrong password share it.
	ErrInvalidCredentials = NewError(KindValidation, "invalid_credentials", "Invalid Credentials")
	// ErrAlreadyLoggedIn is returned while a live session token exists for the user.
	ErrAlreadyLoggedIn = NewError(KindConflict, "already_logged_in", "User is already logged in")
	// ErrEmailTaken indicates a duplicate registration.
	ErrEmailTaken = NewError(KindConflict, "user_exists", "User already exists")
	// ErrUnauthenticated indicates that no credential was presented.
	ErrUnauthenticated = NewError(KindUnauthenticated, "unauthenticated", "Access Denied. No Token Provided")
	// ErrInvalidToken indicates a bad signature, an expired claim or a malformed token.
	ErrInvalidToken = NewError(KindInvalidToken, "invalid_token", "Invalid Token")
	// ErrForbidden indicates an ownership mismatch.
	ErrForbidden = NewError(KindForbidden, "forbidden", "Unauthorized to access this task")

	// ErrTaskNotFound is returned for missing task ids.
	ErrTaskNotFound = NewError(KindNotFound, "task_not_found", "Task not found")
	// ErrNoTasks is returned by export when the owner has no tasks.
	ErrNoTasks = NewError(KindNotFound, "no_tasks", "No tasks found")
	// ErrInvalidStatus rejects statuses outside the closed set.
	ErrInvalidStatus = NewError(KindValidation, "invalid_status", "Invalid status value")
	// ErrUnknownUser rejects tasks referencing a user that does not exist.
	ErrUnknownUser = NewError(KindValidation, "unknown_user", "User not found")
	// ErrUserIDRequired is returned when an owner id is mandatory and absent.
	ErrUserIDRequired = NewError(KindValidation, "user_id_required", "User ID is required")
	// ErrInvalidUserID rejects owner ids that are not well-formed identifiers.
	ErrInvalidUserID = NewError(KindValidation, "invalid_user_id", "Invalid User ID")
	// ErrInvalidTaskID rejects task ids that are not well-formed identifiers.
	ErrInvalidTaskID = NewError(KindValidation, "invalid_task_id", "Invalid Task ID")
)
