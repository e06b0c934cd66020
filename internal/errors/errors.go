// Package errors defines the closed error taxonomy shared by the expression
// pipeline: parsing, lowering, interpretation, and graph matching all report
// failures as *Error values carrying one of the kinds below.
//
// Mismatch is special: the JSON decoder and the subgraph matcher use it as a
// control-flow signal (try the next variant / the next candidate). It only
// becomes user-visible when every alternative has been exhausted.
package errors

import (
	"errors"
	"fmt"
)

// Kind tags an Error. The set is closed; new failure modes must map onto an
// existing kind.
type Kind string

const (
	Runtime         Kind = "RuntimeError"
	InvalidArgument Kind = "InvalidArgumentError"
	Attribute       Kind = "AttributeError"
	Name            Kind = "NameError"
	Value           Kind = "ValueError"
	Type            Kind = "TypeError"
	Index           Kind = "IndexError"
	Mismatch        Kind = "MismatchError"
	Syntax          Kind = "SyntaxError"
)

// Error is the canonical error type for the pipeline.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Msg }

// New creates an Error with an explicit kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Runtimef(format string, args ...any) *Error   { return New(Runtime, format, args...) }
func InvalidArgf(format string, args ...any) *Error { return New(InvalidArgument, format, args...) }
func Attributef(format string, args ...any) *Error { return New(Attribute, format, args...) }
func Namef(format string, args ...any) *Error      { return New(Name, format, args...) }
func Valuef(format string, args ...any) *Error     { return New(Value, format, args...) }
func Typef(format string, args ...any) *Error      { return New(Type, format, args...) }
func Indexf(format string, args ...any) *Error     { return New(Index, format, args...) }
func Mismatchf(format string, args ...any) *Error  { return New(Mismatch, format, args...) }
func Syntaxf(format string, args ...any) *Error    { return New(Syntax, format, args...) }

// KindOf extracts the kind from an error chain; Runtime if the chain carries
// no *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Runtime
}

// IsMismatch reports whether err is the matcher's try-next-candidate signal.
func IsMismatch(err error) bool {
	return KindOf(err) == Mismatch
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
