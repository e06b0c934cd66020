// Package kernel binds kernel construction and dispatch into the value
// universe: kernel-definer programs assemble a compilable module (source
// text plus typed function declarations) and kernel-dispatcher programs
// bind runtime tensors to declared parameters and issue the launch. Actual
// compilation and launching stay behind the Compiler and Launcher
// collaborator interfaces.
package kernel

import (
	"github.com/sunholo/apexpr/internal/errors"
	"github.com/sunholo/apexpr/internal/eval"
)

// DType enumerates the scalar types kernels declare parameters with.
type DType string

const (
	DTBool    DType = "bool"
	DTInt8    DType = "int8"
	DTUint8   DType = "uint8"
	DTInt16   DType = "int16"
	DTUint16  DType = "uint16"
	DTInt32   DType = "int32"
	DTUint32  DType = "uint32"
	DTInt64   DType = "int64"
	DTUint64  DType = "uint64"
	DTFloat16 DType = "float16"
	DTFloat   DType = "float"
	DTDouble  DType = "double"
)

// DTypes lists every scalar type in declaration order.
var DTypes = []DType{
	DTBool,
	DTInt8, DTUint8, DTInt16, DTUint16,
	DTInt32, DTUint32, DTInt64, DTUint64,
	DTFloat16, DTFloat, DTDouble,
}

// ArgType is a declared kernel-parameter type: a scalar or a pointer.
type ArgType interface {
	Name() string
	argType()
}

// DataType is a scalar parameter type, optionally const-qualified.
type DataType struct {
	DT    DType
	Const bool
}

func (d *DataType) argType() {}
func (d *DataType) Name() string {
	if d.Const {
		return "const_" + string(d.DT)
	}
	return string(d.DT)
}
func (d *DataType) Type() string   { return "DataType" }
func (d *DataType) String() string { return d.Name() }

// PointerType is a pointer parameter type: mutable or const, typed or
// void.
type PointerType struct {
	Pointee DType
	Const   bool
	Void    bool
}

func (p *PointerType) argType() {}
func (p *PointerType) Name() string {
	base := string(p.Pointee)
	if p.Void {
		base = "void"
	}
	if p.Const {
		return "const_" + base + "_ptr"
	}
	return base + "_ptr"
}
func (p *PointerType) Type() string   { return "PointerType" }
func (p *PointerType) String() string { return p.Name() }

// CastToArgType views a value as an ArgType.
func CastToArgType(v eval.Value) (ArgType, error) {
	switch v := v.(type) {
	case *DataType:
		return v, nil
	case *PointerType:
		return v, nil
	default:
		return nil, errors.Typef("expected a DataType or PointerType, got '%s'", v.Type())
	}
}

func init() {
	eval.RegisterMethodClass("DataType", &eval.MethodClass{
		ToString: func(v eval.Value) (eval.Value, error) {
			return &eval.Str{Value: v.String()}, nil
		},
	})
	eval.RegisterMethodClass("PointerType", &eval.MethodClass{
		ToString: func(v eval.Value) (eval.Value, error) {
			return &eval.Str{Value: v.String()}, nil
		},
	})
}
