package errors

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Report pairs a pipeline error with the interpreter call stack that was
// active when it surfaced. The stack is outermost-first.
type Report struct {
	Err   *Error
	Stack []string
}

// NewReport builds a Report from any error. A non-taxonomy error is folded
// into a Runtime error so callers always render a known kind.
func NewReport(err error, stack []string) *Report {
	var e *Error
	if !errors.As(err, &e) {
		e = Runtimef("%s", err.Error())
	}
	return &Report{Err: e, Stack: stack}
}

// Render writes the report in the form the CLI and REPL show to users:
// the error kind and message, then the dimmed call stack.
func (r *Report) Render(w io.Writer) {
	red := color.New(color.FgRed).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	fmt.Fprintf(w, "%s: %s\n", red(string(r.Err.Kind)), r.Err.Msg)
	for _, frame := range r.Stack {
		fmt.Fprintf(w, "%s\n", dim("  at "+frame))
	}
}
