// Package repl provides an interactive loop over the JSON expression
// language: each line is parsed, lowered to the core form, and interpreted
// in a persistent top-level environment.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/sunholo/apexpr/internal/ast"
	"github.com/sunholo/apexpr/internal/core"
	"github.com/sunholo/apexpr/internal/elaborate"
	"github.com/sunholo/apexpr/internal/errors"
	"github.com/sunholo/apexpr/internal/eval"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
	dim   = color.New(color.Faint).SprintFunc()
)

// REPL is an interactive session over one interpreter.
type REPL struct {
	version string
	interp  *eval.Interpreter
}

// New creates a REPL session.
func New(version string) *REPL {
	return &REPL{version: version, interp: eval.New()}
}

// Start begins the session loop.
func (r *REPL) Start(out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(true)

	historyFile := filepath.Join(os.TempDir(), ".apexpr_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	fmt.Fprintf(out, "%s %s\n", bold("apexpr"), bold(r.version))
	fmt.Fprintln(out, dim("Enter a JSON expression, :help for help, :quit to exit"))
	fmt.Fprintln(out)

	line.SetCompleter(func(input string) (c []string) {
		if strings.HasPrefix(input, ":") {
			for _, cmd := range []string{":help", ":quit", ":core", ":clear"} {
				if strings.HasPrefix(cmd, input) {
					c = append(c, cmd)
				}
			}
		}
		return
	})

	r.interp.SetOutput(out)
	for {
		input, err := line.Prompt("axpr> ")
		if err == io.EOF {
			fmt.Fprintln(out, green("\nGoodbye!"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
			continue
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		if strings.HasPrefix(input, ":") {
			if r.command(input, out) {
				break
			}
			continue
		}
		r.evalLine(input, out)
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

// command handles a :command; returning true ends the session.
func (r *REPL) command(input string, out io.Writer) bool {
	cmd, rest, _ := strings.Cut(input, " ")
	switch cmd {
	case ":quit", ":q":
		fmt.Fprintln(out, green("Goodbye!"))
		return true
	case ":help", ":h":
		fmt.Fprintln(out, "Commands:")
		fmt.Fprintln(out, "  :help         show this help")
		fmt.Fprintln(out, "  :core <expr>  show the lowered core form")
		fmt.Fprintln(out, "  :clear        reset the top-level environment")
		fmt.Fprintln(out, "  :quit         exit")
	case ":core":
		r.showCore(rest, out)
	case ":clear":
		r.interp.EnvMgr().ClearAllFrames()
		r.interp = eval.New()
		r.interp.SetOutput(out)
		fmt.Fprintln(out, dim("environment cleared"))
	default:
		fmt.Fprintf(out, "%s: unknown command %s\n", red("Error"), cmd)
	}
	return false
}

func (r *REPL) showCore(src string, out io.Writer) {
	expr, err := ast.DecodeString(src)
	if err != nil {
		r.renderError(err, out)
		return
	}
	lowered, err := elaborate.Lower(expr)
	if err != nil {
		r.renderError(err, out)
		return
	}
	fmt.Fprintln(out, core.Inline(lowered))
}

// evalLine evaluates one expression. Bare expressions are wrapped into a
// zero-argument lambda so the interpreter entry point stays uniform.
func (r *REPL) evalLine(src string, out io.Writer) {
	expr, err := ast.DecodeString(src)
	if err != nil {
		r.renderError(err, out)
		return
	}
	lowered, err := elaborate.Lower(ast.NewLambda(nil, expr))
	if err != nil {
		r.renderError(err, out)
		return
	}
	lambda, ok := lowered.(*core.Lambda)
	if !ok {
		r.renderError(errors.Runtimef("lowering did not produce a lambda"), out)
		return
	}
	val, err := r.interp.Interpret(lambda, nil)
	if err != nil {
		r.renderError(err, out)
		return
	}
	fmt.Fprintln(out, green(val.String()))
}

func (r *REPL) renderError(err error, out io.Writer) {
	errors.NewReport(err, r.interp.Trace()).Render(out)
}
