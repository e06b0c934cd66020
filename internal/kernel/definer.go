package kernel

import (
	"sync"

	"github.com/sunholo/apexpr/internal/core"
	"github.com/sunholo/apexpr/internal/errors"
	"github.com/sunholo/apexpr/internal/eval"
)

// DefinerCtx is the context value a kernel-definer program receives. Its
// attributes expose the module/declaration/source constructors and every
// scalar and pointer type name.
type DefinerCtx struct{}

func NewDefinerCtx() *DefinerCtx { return &DefinerCtx{} }

func (c *DefinerCtx) Type() string   { return "DefinerCtx" }
func (c *DefinerCtx) String() string { return "<DefinerCtx>" }

func init() {
	eval.RegisterMethodClass("DefinerCtx", &eval.MethodClass{
		Binary: map[core.BuiltinSym]eval.BinaryFn{
			core.SymGetAttr: definerCtxGetAttr,
		},
	})
}

func definerCtxGetAttr(l, r eval.Value) (eval.Value, error) {
	ctx := l.(*DefinerCtx)
	name, err := eval.AsStr(r)
	if err != nil {
		return nil, err
	}
	switch name {
	case "module":
		return &eval.Method{Obj: ctx, Fn: makeModuleFn}, nil
	case "declare_func":
		return &eval.Method{Obj: ctx, Fn: declareFuncFn}, nil
	case "source_code":
		return &eval.Method{Obj: ctx, Fn: makeSourceFn}, nil
	case "void_ptr":
		return &PointerType{Void: true}, nil
	case "const_void_ptr":
		return &PointerType{Void: true, Const: true}, nil
	}
	if arg, ok := argTypeByName(name); ok {
		return arg.(eval.Value), nil
	}
	return nil, errors.Attributef("'DefinerCtx' object has no attribute '%s'", name)
}

// argTypeByName resolves dtype attribute spellings: "<t>", "const_<t>",
// "<t>_ptr", and "const_<t>_ptr" for every scalar type.
func argTypeByName(name string) (ArgType, bool) {
	isConst := false
	if len(name) > 6 && name[:6] == "const_" {
		isConst = true
		name = name[6:]
	}
	isPtr := false
	if len(name) > 4 && name[len(name)-4:] == "_ptr" {
		isPtr = true
		name = name[:len(name)-4]
	}
	for _, dt := range DTypes {
		if string(dt) != name {
			continue
		}
		if isPtr {
			return &PointerType{Pointee: dt, Const: isConst}, true
		}
		return &DataType{DT: dt, Const: isConst}, true
	}
	return nil, false
}

// makeModuleFn builds a Module from a declaration (or list of
// declarations) and a source-code value.
var makeModuleFn = &eval.BuiltinFunc{
	Name: "DefinerCtx.module",
	Fn: func(_ eval.Value, args []eval.Value) (eval.Value, error) {
		if len(args) != 2 {
			return nil, errors.Typef("DefinerCtx.module takes 2 arguments but %d were given", len(args))
		}
		var declareVals []eval.Value
		if list, ok := args[0].(*eval.List); ok {
			declareVals = list.Elems
		} else {
			declareVals = []eval.Value{args[0]}
		}
		declares := make([]*FuncDeclare, 0, len(declareVals))
		for _, v := range declareVals {
			declare, ok := v.(*FuncDeclare)
			if !ok {
				return nil, errors.Typef("the first argument of DefinerCtx.module must be a func_declare or a list of func_declares, got '%s'", v.Type())
			}
			declares = append(declares, declare)
		}
		source, ok := args[1].(*SourceCode)
		if !ok {
			return nil, errors.Typef("the second argument of DefinerCtx.module must be a source_code, got '%s'", args[1].Type())
		}
		return &Module{FuncDeclares: declares, Source: source}, nil
	},
}

var declareFuncFn = &eval.BuiltinFunc{
	Name: "DefinerCtx.declare_func",
	Fn: func(_ eval.Value, args []eval.Value) (eval.Value, error) {
		if len(args) != 2 {
			return nil, errors.Typef("DefinerCtx.declare_func takes 2 arguments but %d were given", len(args))
		}
		funcID, err := eval.AsStr(args[0])
		if err != nil {
			return nil, err
		}
		list, err := eval.AsList(args[1])
		if err != nil {
			return nil, err
		}
		argTypes := make([]ArgType, 0, len(list.Elems))
		for _, v := range list.Elems {
			argType, err := CastToArgType(v)
			if err != nil {
				return nil, err
			}
			argTypes = append(argTypes, argType)
		}
		return &FuncDeclare{FuncID: funcID, ArgTypes: argTypes}, nil
	},
}

var makeSourceFn = &eval.BuiltinFunc{
	Name: "DefinerCtx.source_code",
	Fn: func(_ eval.Value, args []eval.Value) (eval.Value, error) {
		if len(args) != 1 {
			return nil, errors.Typef("DefinerCtx.source_code takes 1 argument but %d were given", len(args))
		}
		text, err := eval.AsStr(args[0])
		if err != nil {
			return nil, errors.Typef("the argument of DefinerCtx.source_code must be a string, got '%s'", args[0].Type())
		}
		return &SourceCode{Text: text}, nil
	},
}

// ModuleHandle is the opaque result of compiling kernel source.
type ModuleHandle any

// Compiler turns kernel source into a loadable module handle.
type Compiler interface {
	Compile(source string) (ModuleHandle, error)
}

// CompiledKernel pairs the definer's module description with the compiled
// handle.
type CompiledKernel struct {
	Module *Module
	Handle ModuleHandle
}

type definerEntry struct {
	kernel *CompiledKernel
	err    error
}

type definerKey struct {
	definerText   string
	defineCtxText string
}

// Definer interprets kernel-definer programs and compiles their modules.
// Results — including failures — are cached by (definer text, context
// text).
type Definer struct {
	compiler Compiler

	mu      sync.Mutex
	entries map[definerKey]definerEntry
}

func NewDefiner(compiler Compiler) *Definer {
	return &Definer{compiler: compiler, entries: map[definerKey]definerEntry{}}
}

// Define runs the definer program against a fresh DefinerCtx extended with
// extraArgs (typically the match context) and compiles the resulting
// module. defineCtxText keys the cache alongside the program text.
func (d *Definer) Define(definerText, defineCtxText string, extraArgs []eval.Value) (*CompiledKernel, error) {
	key := definerKey{definerText: definerText, defineCtxText: defineCtxText}
	d.mu.Lock()
	if entry, ok := d.entries[key]; ok {
		d.mu.Unlock()
		return entry.kernel, entry.err
	}
	d.mu.Unlock()

	kernel, err := d.define(definerText, extraArgs)

	d.mu.Lock()
	defer d.mu.Unlock()
	if entry, ok := d.entries[key]; ok {
		return entry.kernel, entry.err
	}
	d.entries[key] = definerEntry{kernel: kernel, err: err}
	return kernel, err
}

func (d *Definer) define(definerText string, extraArgs []eval.Value) (*CompiledKernel, error) {
	lambda, err := eval.DefaultLambdaCache.Get(definerText)
	if err != nil {
		return nil, err
	}
	in := eval.New()
	defer in.EnvMgr().ClearAllFrames()
	args := append([]eval.Value{NewDefinerCtx()}, extraArgs...)
	ret, err := in.Interpret(lambda, args)
	if err != nil {
		return nil, err
	}
	module, ok := ret.(*Module)
	if !ok {
		return nil, errors.Typef("kernel definer must return a Module, got '%s'", ret.Type())
	}
	handle, err := d.compiler.Compile(module.Source.Text)
	if err != nil {
		return nil, err
	}
	return &CompiledKernel{Module: module, Handle: handle}, nil
}
