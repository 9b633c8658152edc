// Package apperr classifies failures so callers can decide how to surface
// them without inspecting messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the category of a failure.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindValidation covers bad input: unsupported files, out of range answers.
	KindValidation
	// KindNotFound is a missing session, file or result.
	KindNotFound
	// KindBusy means another operation is in flight or a limit is reached.
	KindBusy
	// KindDiscarded is returned when a session was reset while a call was in flight.
	KindDiscarded
	// KindBackend covers transport failures and empty or malformed responses.
	KindBackend
	// KindDecode is a text payload that could not be decoded.
	KindDecode
	// KindEncoderUnavailable is a missing or misconfigured audio encoder.
	KindEncoderUnavailable
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindValidation:         "validation",
	KindNotFound:           "not_found",
	KindBusy:               "busy",
	KindDiscarded:          "discarded",
	KindBackend:            "backend",
	KindDecode:             "decode",
	KindEncoderUnavailable: "encoder_unavailable",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error attaches a Kind and the failing operation to an underlying error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with a kind. A nil err yields nil.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
