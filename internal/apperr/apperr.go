package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller
type Kind string

const (
	KindConfig     Kind = "config"
	KindBackend    Kind = "backend"
	KindValidation Kind = "validation"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind) + " error"
}

func (e *Error) Unwrap() error { return e.Err }

// Config reports missing or invalid configuration; msg should say how to fix it.
func Config(msg string) *Error {
	return &Error{Kind: KindConfig, Msg: msg}
}

// Validation reports bad input or a malformed response.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Backend wraps a store or transport failure. Nil err yields nil.
func Backend(msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindBackend, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindBackend.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindBackend
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
