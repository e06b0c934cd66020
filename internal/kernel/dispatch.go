package kernel

import (
	"math"

	"github.com/sunholo/apexpr/internal/core"
	"github.com/sunholo/apexpr/internal/errors"
	"github.com/sunholo/apexpr/internal/eval"
)

// TensorView is the collaborator surface over runtime tensors.
type TensorView interface {
	DataPtr() uintptr
	DType() DType
	Dims() []int64
}

// Launcher invokes a named entry of a compiled module. Argument words are
// either data pointers or scalar bit patterns, per the entry's declared
// types.
type Launcher interface {
	Launch(handle ModuleHandle, name string, numBlocks, numThreads int64, args []uint64) error
}

// ConstTensor is a read-only tensor bound into the dispatch context.
type ConstTensor struct {
	View TensorView
}

func (t *ConstTensor) Type() string   { return "ConstTensor" }
func (t *ConstTensor) String() string { return "<const_tensor>" }

// MutableTensor is a writable tensor bound into the dispatch context.
type MutableTensor struct {
	View TensorView
}

func (t *MutableTensor) Type() string   { return "MutableTensor" }
func (t *MutableTensor) String() string { return "<mutable_tensor>" }

// DispatchCtx is the context value a kernel-dispatcher program receives:
// the compiled module, its declared entries, and the runtime tensors.
type DispatchCtx struct {
	Inputs   []eval.Value
	Outputs  []eval.Value
	kernel   *CompiledKernel
	launcher Launcher
}

// NewDispatchCtx wraps input tensors as const and output tensors as
// mutable.
func NewDispatchCtx(kernel *CompiledKernel, launcher Launcher, inputs, outputs []TensorView) *DispatchCtx {
	ctx := &DispatchCtx{kernel: kernel, launcher: launcher}
	for _, view := range inputs {
		ctx.Inputs = append(ctx.Inputs, &ConstTensor{View: view})
	}
	for _, view := range outputs {
		ctx.Outputs = append(ctx.Outputs, &MutableTensor{View: view})
	}
	return ctx
}

func (c *DispatchCtx) Type() string   { return "DispatchCtx" }
func (c *DispatchCtx) String() string { return "<DispatchCtx>" }

func init() {
	eval.RegisterMethodClass("DispatchCtx", &eval.MethodClass{
		Binary: map[core.BuiltinSym]eval.BinaryFn{
			core.SymGetAttr: dispatchCtxGetAttr,
		},
	})
	eval.RegisterMethodClass("ConstTensor", &eval.MethodClass{
		Binary: map[core.BuiltinSym]eval.BinaryFn{
			core.SymGetAttr: func(l, r eval.Value) (eval.Value, error) {
				return tensorGetAttr(l.(*ConstTensor).View, r)
			},
		},
	})
	eval.RegisterMethodClass("MutableTensor", &eval.MethodClass{
		Binary: map[core.BuiltinSym]eval.BinaryFn{
			core.SymGetAttr: func(l, r eval.Value) (eval.Value, error) {
				return tensorGetAttr(l.(*MutableTensor).View, r)
			},
		},
	})
}

func dispatchCtxGetAttr(l, r eval.Value) (eval.Value, error) {
	ctx := l.(*DispatchCtx)
	name, err := eval.AsStr(r)
	if err != nil {
		return nil, err
	}
	switch name {
	case "inputs":
		return &eval.List{Elems: ctx.Inputs}, nil
	case "outputs":
		return &eval.List{Elems: ctx.Outputs}, nil
	case "launch_cuda_kernel":
		return &eval.Method{Obj: ctx, Fn: launchKernelFn}, nil
	default:
		return nil, errors.Attributef("'DispatchCtx' object has no attribute '%s'", name)
	}
}

func tensorGetAttr(view TensorView, attr eval.Value) (eval.Value, error) {
	name, err := eval.AsStr(attr)
	if err != nil {
		return nil, err
	}
	switch name {
	case "data_ptr":
		return &eval.Int{Value: int64(view.DataPtr())}, nil
	case "dtype":
		return &DataType{DT: view.DType()}, nil
	case "dims":
		dims := view.Dims()
		elems := make([]eval.Value, len(dims))
		for i, d := range dims {
			elems[i] = &eval.Int{Value: d}
		}
		return &eval.List{Elems: elems}, nil
	default:
		return nil, errors.Attributef("tensor has no attribute '%s'", name)
	}
}

// launchKernelFn validates the launch against the entry's declaration and
// forwards it to the launcher:
// ctx.launch_cuda_kernel(name, num_blocks, num_threads, [args...]).
var launchKernelFn = &eval.BuiltinFunc{
	Name: "DispatchCtx.launch_cuda_kernel",
	Fn: func(obj eval.Value, args []eval.Value) (eval.Value, error) {
		ctx := obj.(*DispatchCtx)
		if len(args) != 4 {
			return nil, errors.Typef("launch_cuda_kernel takes 4 arguments but %d were given", len(args))
		}
		funcID, err := eval.AsStr(args[0])
		if err != nil {
			return nil, err
		}
		numBlocks, err := eval.AsInt(args[1])
		if err != nil {
			return nil, err
		}
		numThreads, err := eval.AsInt(args[2])
		if err != nil {
			return nil, err
		}
		argList, err := eval.AsList(args[3])
		if err != nil {
			return nil, err
		}
		declare, ok := ctx.kernel.Module.Declare(funcID)
		if !ok {
			return nil, errors.Namef("kernel has no entry '%s'", funcID)
		}
		words, err := kernelArgWords(declare, argList.Elems)
		if err != nil {
			return nil, err
		}
		if err := ctx.launcher.Launch(ctx.kernel.Handle, funcID, numBlocks, numThreads, words); err != nil {
			return nil, err
		}
		return eval.UnitVal, nil
	},
}

// kernelArgWords checks each argument against its declared type and packs
// it into a launch word: tensors contribute data pointers, scalars their
// bit patterns.
func kernelArgWords(declare *FuncDeclare, args []eval.Value) ([]uint64, error) {
	if len(args) != len(declare.ArgTypes) {
		return nil, errors.Typef("kernel '%s' takes %d arguments but %d were given",
			declare.FuncID, len(declare.ArgTypes), len(args))
	}
	words := make([]uint64, len(args))
	for i, arg := range args {
		argType := declare.ArgTypes[i]
		switch argType := argType.(type) {
		case *PointerType:
			view, err := tensorViewOf(arg)
			if err != nil {
				return nil, errors.Typef("argument %d of kernel '%s' is declared %s but got '%s'",
					i, declare.FuncID, argType.Name(), arg.Type())
			}
			if !argType.Void && view.DType() != argType.Pointee {
				return nil, errors.Typef("argument %d of kernel '%s' is declared %s but tensor dtype is %s",
					i, declare.FuncID, argType.Name(), view.DType())
			}
			words[i] = uint64(view.DataPtr())
		case *DataType:
			word, err := scalarWord(argType.DT, arg)
			if err != nil {
				return nil, errors.Typef("argument %d of kernel '%s': %v", i, declare.FuncID, err)
			}
			words[i] = word
		}
	}
	return words, nil
}

func tensorViewOf(v eval.Value) (TensorView, error) {
	switch v := v.(type) {
	case *ConstTensor:
		return v.View, nil
	case *MutableTensor:
		return v.View, nil
	default:
		return nil, errors.Typef("expected a tensor, got '%s'", v.Type())
	}
}

func scalarWord(dt DType, v eval.Value) (uint64, error) {
	switch dt {
	case DTFloat, DTDouble, DTFloat16:
		switch v := v.(type) {
		case *eval.Float:
			return math.Float64bits(v.Value), nil
		case *eval.Int:
			return math.Float64bits(float64(v.Value)), nil
		}
		return 0, errors.Typef("declared %s but got '%s'", dt, v.Type())
	case DTBool:
		b, ok := v.(*eval.Bool)
		if !ok {
			return 0, errors.Typef("declared bool but got '%s'", v.Type())
		}
		if b.Value {
			return 1, nil
		}
		return 0, nil
	default:
		i, ok := v.(*eval.Int)
		if !ok {
			return 0, errors.Typef("declared %s but got '%s'", dt, v.Type())
		}
		return uint64(i.Value), nil
	}
}

// Dispatcher interprets kernel-dispatcher programs.
type Dispatcher struct {
	launcher Launcher
}

func NewDispatcher(launcher Launcher) *Dispatcher {
	return &Dispatcher{launcher: launcher}
}

// Dispatch runs the dispatcher program against a dispatch context built
// from the compiled kernel and the runtime tensors.
func (d *Dispatcher) Dispatch(dispatcherText string, kernel *CompiledKernel, inputs, outputs []TensorView) error {
	lambda, err := eval.DefaultLambdaCache.Get(dispatcherText)
	if err != nil {
		return err
	}
	in := eval.New()
	defer in.EnvMgr().ClearAllFrames()
	ctx := NewDispatchCtx(kernel, d.launcher, inputs, outputs)
	_, err = in.Interpret(lambda, []eval.Value{ctx})
	return err
}
