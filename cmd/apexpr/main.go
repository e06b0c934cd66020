package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/sunholo/apexpr/internal/ast"
	"github.com/sunholo/apexpr/internal/core"
	"github.com/sunholo/apexpr/internal/elaborate"
	"github.com/sunholo/apexpr/internal/errors"
	"github.com/sunholo/apexpr/internal/eval"
	"github.com/sunholo/apexpr/internal/manifest"
	"github.com/sunholo/apexpr/internal/repl"
)

var (
	// Version info - set by ldflags during build
	Version = "dev"

	// Color output
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		versionFlag = flag.Bool("version", false, "Print version information")
		helpFlag    = flag.Bool("help", false, "Show help")
		inlineFlag  = flag.Bool("inline", false, "Inline identity chains in core dumps")
	)

	flag.Parse()

	if *versionFlag {
		fmt.Printf("apexpr %s\n", Version)
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	switch command := flag.Arg(0); command {
	case "parse":
		requireFileArg("parse")
		parseFile(flag.Arg(1))

	case "lower":
		requireFileArg("lower")
		lowerFile(flag.Arg(1), *inlineFlag)

	case "run":
		requireFileArg("run")
		runFile(flag.Arg(1), flag.Args()[2:])

	case "check":
		requireFileArg("check")
		checkManifest(flag.Arg(1))

	case "repl":
		repl.New(Version).Start(os.Stdout)

	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), command)
		printHelp()
		os.Exit(1)
	}
}

func requireFileArg(command string) {
	if flag.NArg() < 2 {
		fmt.Fprintf(os.Stderr, "%s: missing file argument\n", red("Error"))
		fmt.Printf("Usage: apexpr %s <file.json>\n", command)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Printf("%s - expression pipeline for pattern-driven kernel rewrites\n\n", bold("apexpr"))
	fmt.Println("Usage: apexpr [flags] <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  parse <file.json>             Parse a program and pretty-print the surface form")
	fmt.Println("  lower <file.json>             Lower a program and dump the core form")
	fmt.Println("  run <file.json> [args...]     Interpret a lambda program; args are JSON literals")
	fmt.Println("  check <manifest.yaml>         Validate a pass manifest")
	fmt.Println("  repl                          Start the interactive loop")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}

func loadExpr(path string) ast.AnfExpr {
	data, err := os.ReadFile(path)
	if err != nil {
		fail(err, nil)
	}
	expr, err := ast.DecodeString(string(data))
	if err != nil {
		fail(err, nil)
	}
	return expr
}

func parseFile(path string) {
	expr := loadExpr(path)
	fmt.Println(expr)
	encoded, err := ast.EncodeIndent(expr, "  ")
	if err != nil {
		fail(err, nil)
	}
	fmt.Println(string(encoded))
}

func lowerFile(path string, inline bool) {
	lowered, err := elaborate.Lower(loadExpr(path))
	if err != nil {
		fail(err, nil)
	}
	if inline {
		lowered = core.Inline(lowered)
	}
	fmt.Println(lowered)
}

func runFile(path string, rawArgs []string) {
	lowered, err := elaborate.Lower(loadExpr(path))
	if err != nil {
		fail(err, nil)
	}
	lambda, ok := lowered.(*core.Lambda)
	if !ok {
		fail(errors.Typef("program must be a lambda expression to run"), nil)
	}
	args := make([]eval.Value, len(rawArgs))
	for i, raw := range rawArgs {
		args[i] = literalArg(raw)
	}
	in := eval.New()
	defer in.EnvMgr().ClearAllFrames()
	val, err := in.Interpret(lambda, args)
	if err != nil {
		fail(err, in.Trace())
	}
	fmt.Println(green(val.String()))
}

// literalArg parses one command-line argument as a JSON literal.
func literalArg(raw string) eval.Value {
	var j any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&j); err != nil {
		fail(errors.InvalidArgf("argument %q is not a JSON literal: %v", raw, err), nil)
	}
	val, err := jsonToValue(j)
	if err != nil {
		fail(err, nil)
	}
	return val
}

func jsonToValue(j any) (eval.Value, error) {
	switch j := j.(type) {
	case nil:
		return eval.UnitVal, nil
	case bool:
		return &eval.Bool{Value: j}, nil
	case string:
		return &eval.Str{Value: j}, nil
	case json.Number:
		if i, err := j.Int64(); err == nil {
			return &eval.Int{Value: i}, nil
		}
		f, err := j.Float64()
		if err != nil {
			return nil, errors.InvalidArgf("bad number %q", j)
		}
		return &eval.Float{Value: f}, nil
	case []any:
		elems := make([]eval.Value, len(j))
		for i, e := range j {
			v, err := jsonToValue(e)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &eval.List{Elems: elems}, nil
	case map[string]any:
		obj := eval.NewObject()
		for k, e := range j {
			v, err := jsonToValue(e)
			if err != nil {
				return nil, err
			}
			obj.Set(k, v)
		}
		return obj, nil
	default:
		return nil, errors.InvalidArgf("unsupported argument shape %T", j)
	}
}

func checkManifest(path string) {
	m, err := manifest.Load(path)
	if err != nil {
		fail(err, nil)
	}
	for _, pass := range m.Passes {
		for _, rel := range []string{pass.DRR, pass.KernelDefiner, pass.KernelDispatcher} {
			if rel == "" {
				continue
			}
			text, err := m.ProgramText(rel)
			if err != nil {
				fail(err, nil)
			}
			if _, err := ast.DecodeString(text); err != nil {
				fail(err, nil)
			}
		}
	}
	fmt.Printf("%s %d passes\n", green("OK"), len(m.Passes))
}

func fail(err error, trace []string) {
	errors.NewReport(err, trace).Render(os.Stderr)
	os.Exit(1)
}
