package extract

import (
	"errors"
	"fmt"
)

// Kind classifies why a completion could not be turned into a structured value.
type Kind string

const (
	KindNoBlockFound       Kind = "NoBlockFound"
	KindMalformedStructure Kind = "MalformedStructure"
	KindSchemaInvalid      Kind = "SchemaInvalid"
)

// Sentinels for errors.Is.
var (
	ErrNoBlockFound       = errors.New("no structured block found")
	ErrMalformedStructure = errors.New("malformed structure")
	ErrSchemaInvalid      = errors.New("schema invalid")
)

// Error carries the kind of extraction failure plus a short detail.
type Error struct {
	Kind   Kind
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNoBlockFound:
		return e.Kind == KindNoBlockFound
	case ErrMalformedStructure:
		return e.Kind == KindMalformedStructure
	case ErrSchemaInvalid:
		return e.Kind == KindSchemaInvalid
	}
	return false
}

func noBlock(detail string) error {
	return &Error{Kind: KindNoBlockFound, Detail: detail}
}

func malformed(cause error) error {
	return &Error{Kind: KindMalformedStructure, Cause: cause}
}

func schemaInvalid(format string, args ...any) error {
	return &Error{Kind: KindSchemaInvalid, Detail: fmt.Sprintf(format, args...)}
}

// KindOf returns the extraction kind of err, or "" when err is not an extraction error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRecoverable reports whether a caller may retry the completion with a
// stricter prompt. Every extraction failure is recoverable; other errors are not.
func IsRecoverable(err error) bool {
	return KindOf(err) != ""
}
