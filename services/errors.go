package services

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindValidation
	KindDependency
	KindUnauthorized
)

// Error carries a message that is safe to show to the caller. Err keeps the
// underlying cause for logs and is never rendered to clients.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

const (
	msgTaskNotFound  = "Task not found or you don't have access to this task"
	msgAssetNotFound = "Asset not found"
	msgFileMissing   = "File not found on server"
	msgAdminOnly     = "Not authorized as admin. Try login as admin."
)

func notFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func dependency(message string, err error) *Error {
	return &Error{Kind: KindDependency, Message: message, Err: err}
}

func unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func kindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsNotFound(err error) bool   { return kindOf(err) == KindNotFound }
func IsValidation(err error) bool { return kindOf(err) == KindValidation }
func IsDependency(err error) bool { return kindOf(err) == KindDependency }

func IsUnauthorized(err error) bool { return kindOf(err) == KindUnauthorized }

// PublicMessage returns the caller-facing message for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Something went wrong, please try again later."
}
