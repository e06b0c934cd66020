package kernel

import (
	"strings"

	"github.com/sunholo/apexpr/internal/core"
	"github.com/sunholo/apexpr/internal/errors"
	"github.com/sunholo/apexpr/internal/eval"
)

// FuncDeclare is one typed kernel entry declaration.
type FuncDeclare struct {
	FuncID   string
	ArgTypes []ArgType
}

func (f *FuncDeclare) Type() string { return "FuncDeclare" }
func (f *FuncDeclare) String() string {
	names := make([]string, len(f.ArgTypes))
	for i, t := range f.ArgTypes {
		names[i] = t.Name()
	}
	return f.FuncID + "(" + strings.Join(names, ", ") + ")"
}

// SourceCode is an opaque kernel source string.
type SourceCode struct {
	Text string
}

func (s *SourceCode) Type() string   { return "SourceCode" }
func (s *SourceCode) String() string { return "<source_code>" }

// Module is the kernel-definer's product: a source string plus the entry
// declarations the dispatcher validates launches against.
type Module struct {
	FuncDeclares []*FuncDeclare
	Source       *SourceCode
}

func (m *Module) Type() string   { return "Module" }
func (m *Module) String() string { return "<module>" }

// Declare looks up a declared entry by name.
func (m *Module) Declare(funcID string) (*FuncDeclare, bool) {
	for _, d := range m.FuncDeclares {
		if d.FuncID == funcID {
			return d, true
		}
	}
	return nil, false
}

func init() {
	eval.RegisterMethodClass("Module", &eval.MethodClass{
		Binary: map[core.BuiltinSym]eval.BinaryFn{
			core.SymGetAttr: func(l, r eval.Value) (eval.Value, error) {
				m := l.(*Module)
				name, err := eval.AsStr(r)
				if err != nil {
					return nil, err
				}
				switch name {
				case "func_declares":
					elems := make([]eval.Value, len(m.FuncDeclares))
					for i, d := range m.FuncDeclares {
						elems[i] = d
					}
					return &eval.List{Elems: elems}, nil
				case "source_code":
					return m.Source, nil
				default:
					return nil, errors.Attributef("'Module' object has no attribute '%s'", name)
				}
			},
		},
	})
	eval.RegisterMethodClass("FuncDeclare", &eval.MethodClass{
		ToString: func(v eval.Value) (eval.Value, error) {
			return &eval.Str{Value: v.String()}, nil
		},
	})
	eval.RegisterMethodClass("SourceCode", &eval.MethodClass{})
}
