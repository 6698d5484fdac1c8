// Package cobbleerr defines the fatal error kinds of spec §7 and formats
// them with enough context to identify the cause: a Format/ErrorContext/
// errors.As dispatch style, re-keyed to this system's eleven error kinds
// instead of a network/rate-limit/not-found classification.
package cobbleerr

import (
	"fmt"
)

// Kind identifies one of the fatal error conditions of spec §7. Every
// evaluation-run error surfaced by this module carries one of these.
type Kind string

const (
	DuplicatePackage              Kind = "DuplicatePackage"
	DuplicateTarget               Kind = "DuplicateTarget"
	DuplicateEnv                  Kind = "DuplicateEnv"
	UnknownTarget                 Kind = "UnknownTarget"
	UnknownEnvBase                Kind = "UnknownEnvBase"
	BadIdentifier                 Kind = "BadIdentifier"
	IncompatibleRule              Kind = "IncompatibleRule"
	IncompatibleDuplicateProducts Kind = "IncompatibleDuplicateProducts"
	InvalidEnvValue               Kind = "InvalidEnvValue"
	InterpolationMissingKey       Kind = "InterpolationMissingKey"
	Cycle                         Kind = "Cycle"
)

// Error is a structured, fatal evaluation-run error: a Kind plus whatever
// context fields are relevant to that kind (offending ident, rule name, the
// pair of conflicting records, ...). Values built with Wrap carry an
// underlying cause, exposed via Unwrap so errors.Is/errors.As keep working;
// values built with New have no cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// Context fields, populated as relevant to Kind. Left zero when unused.
	Ident      string
	Ident2     string
	PackageRel string
	TargetName string
	EnvName    string
	RuleName   string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// New constructs an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given kind around an existing cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err is a cobbleerr.Error of the given kind, following
// wrapped errors the way errors.As would.
func Is(err error, kind Kind) bool {
	var ce *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			ce = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ce != nil && ce.Kind == kind
}
