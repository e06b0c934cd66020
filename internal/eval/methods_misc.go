package eval

import "github.com/sunholo/apexpr/internal/core"

func init() {
	identOnly := func() *MethodClass {
		return &MethodClass{
			ToString: func(v Value) (Value, error) { return &Str{Value: v.String()}, nil },
			Binary: map[core.BuiltinSym]BinaryFn{
				core.SymEQ: func(l, r Value) (Value, error) { return &Bool{Value: Equal(l, r)}, nil },
				core.SymNE: func(l, r Value) (Value, error) { return &Bool{Value: !Equal(l, r)}, nil },
			},
		}
	}
	RegisterMethodClass("unit", identOnly())
	RegisterMethodClass("closure", identOnly())
	RegisterMethodClass("method", identOnly())
	RegisterMethodClass("builtin_symbol", identOnly())
	RegisterMethodClass("builtin_function", identOnly())
	RegisterMethodClass("type", identOnly())
	RegisterMethodClass("starred", &MethodClass{
		ToString: func(v Value) (Value, error) { return &Str{Value: v.String()}, nil },
	})
}
