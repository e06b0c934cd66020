// Package eval implements the value universe, method dispatch, lexical
// environments, and the continuation-passing interpreter for the core form.
//
// The value universe is an open sum: the variants defined here form the
// built-in prefix, and domain packages (drr, kernel) append their own
// variants by implementing Value and registering a method class for their
// type name. Dispatch never switches on concrete domain types; everything
// beyond the built-in prefix goes through the method-class registry.
package eval

import (
	"fmt"
	"strings"

	"github.com/sunholo/apexpr/internal/core"
)

// Value is a runtime value.
type Value interface {
	Type() string
	String() string
}

// Unit is the unit value. It has no surface literal.
type Unit struct{}

func (u *Unit) Type() string   { return "unit" }
func (u *Unit) String() string { return "()" }

// UnitVal is the shared unit instance.
var UnitVal = &Unit{}

// Bool is a boolean value.
type Bool struct {
	Value bool
}

func (b *Bool) Type() string { return "bool" }
func (b *Bool) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

// Int is a 64-bit integer value.
type Int struct {
	Value int64
}

func (i *Int) Type() string   { return "int" }
func (i *Int) String() string { return fmt.Sprintf("%d", i.Value) }

// Float is a double value.
type Float struct {
	Value float64
}

func (f *Float) Type() string   { return "float" }
func (f *Float) String() string { return fmt.Sprintf("%v", f.Value) }

// Str is a string value.
type Str struct {
	Value string
}

func (s *Str) Type() string   { return "str" }
func (s *Str) String() string { return s.Value }

// List is an ordered list of values.
type List struct {
	Elems []Value
}

func (l *List) Type() string { return "list" }
func (l *List) String() string {
	parts := make([]string, len(l.Elems))
	for i, e := range l.Elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Object is a string-keyed record. Keys are unique; insertion order is not
// observable.
type Object struct {
	Fields map[string]Value
}

func NewObject() *Object { return &Object{Fields: map[string]Value{}} }

func (o *Object) Type() string { return "object" }
func (o *Object) String() string {
	parts := make([]string, 0, len(o.Fields))
	for k, v := range o.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", k, v.String()))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Get fetches a field; the second result reports presence.
func (o *Object) Get(name string) (Value, bool) {
	v, ok := o.Fields[name]
	return v, ok
}

// Set writes a field and reports whether the key was previously absent.
func (o *Object) Set(name string, v Value) bool {
	_, present := o.Fields[name]
	o.Fields[name] = v
	return !present
}

// Closure pairs a core lambda with its captured environment.
type Closure struct {
	Lambda *core.Lambda
	Env    *Environment
}

func (c *Closure) Type() string   { return "closure" }
func (c *Closure) String() string { return "<closure>" }

// Method is a function bound to a receiver. Calling it prepends the
// receiver to the arguments.
type Method struct {
	Obj Value
	Fn  Value
}

func (m *Method) Type() string   { return "method" }
func (m *Method) String() string { return "<method>" }

// Sym is a builtin symbol value.
type Sym struct {
	Sym core.BuiltinSym
}

func (s *Sym) Type() string   { return "builtin_symbol" }
func (s *Sym) String() string { return string(s.Sym) }

// Starred wraps a sequence for splicing into an enclosing list context. It
// is produced by the unary * symbol and is only valid inside
// __builtin_list__ arguments.
type Starred struct {
	Obj Value
}

func (s *Starred) Type() string   { return "starred" }
func (s *Starred) String() string { return "*" + s.Obj.String() }

// BuiltinFn is a plain builtin function. The receiver argument is UnitVal
// for free functions and the bound object for method calls.
type BuiltinFn func(obj Value, args []Value) (Value, error)

// BuiltinFunc names a plain builtin. Identity is by pointer, which is how
// the interpreter recognizes its halt sentinel.
type BuiltinFunc struct {
	Name string
	Fn   BuiltinFn
}

func (b *BuiltinFunc) Type() string   { return "builtin_function" }
func (b *BuiltinFunc) String() string { return "<builtin: " + b.Name + ">" }

// ApplyFn re-enters the interpreter: it applies fn to args and returns the
// final value.
type ApplyFn func(fn Value, args []Value) (Value, error)

// HigherOrderFunc is a builtin that needs to call back into user code. It
// receives an ApplyFn closed over the running interpreter.
type HigherOrderFunc struct {
	Name string
	Fn   func(apply ApplyFn, obj Value, args []Value) (Value, error)
}

func (h *HigherOrderFunc) Type() string   { return "builtin_function" }
func (h *HigherOrderFunc) String() string { return "<builtin: " + h.Name + ">" }

// CPSFunc is a builtin operating at the continuation level: it rewrites the
// interpreter record directly instead of returning a value.
type CPSFunc struct {
	Name string
	Fn   func(in *Interpreter, call *ComposedCall) error
}

func (c *CPSFunc) Type() string   { return "builtin_function" }
func (c *CPSFunc) String() string { return "<builtin: " + c.Name + ">" }

// TypeValue is a type descriptor: a unit value keyed by variant tag. Used
// as a callee it acts as a constructor through its method class.
type TypeValue struct {
	Name string
}

func (t *TypeValue) Type() string   { return "type" }
func (t *TypeValue) String() string { return "<type " + t.Name + ">" }

// Truthy implements the conditional's truthiness rules: unit and false are
// false; zero numbers and empty strings/lists/objects are false; everything
// else is true.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case *Unit:
		return false
	case *Bool:
		return v.Value
	case *Int:
		return v.Value != 0
	case *Float:
		return v.Value != 0
	case *Str:
		return len(v.Value) > 0
	case *List:
		return len(v.Elems) > 0
	case *Object:
		return len(v.Fields) > 0
	default:
		return true
	}
}

// Equal is structural equality over the built-in prefix. Closures, methods,
// and builtins compare by identity; domain values compare by identity
// unless their method class overrides __builtin_EQ__.
func Equal(l, r Value) bool {
	switch l := l.(type) {
	case *Unit:
		_, ok := r.(*Unit)
		return ok
	case *Bool:
		rb, ok := r.(*Bool)
		return ok && l.Value == rb.Value
	case *Int:
		switch r := r.(type) {
		case *Int:
			return l.Value == r.Value
		case *Float:
			return float64(l.Value) == r.Value
		}
		return false
	case *Float:
		switch r := r.(type) {
		case *Float:
			return l.Value == r.Value
		case *Int:
			return l.Value == float64(r.Value)
		}
		return false
	case *Str:
		rs, ok := r.(*Str)
		return ok && l.Value == rs.Value
	case *List:
		rl, ok := r.(*List)
		if !ok || len(l.Elems) != len(rl.Elems) {
			return false
		}
		for i := range l.Elems {
			if !Equal(l.Elems[i], rl.Elems[i]) {
				return false
			}
		}
		return true
	case *Object:
		ro, ok := r.(*Object)
		if !ok || len(l.Fields) != len(ro.Fields) {
			return false
		}
		for k, lv := range l.Fields {
			rv, ok := ro.Fields[k]
			if !ok || !Equal(lv, rv) {
				return false
			}
		}
		return true
	case *Sym:
		rs, ok := r.(*Sym)
		return ok && l.Sym == rs.Sym
	case *TypeValue:
		rt, ok := r.(*TypeValue)
		return ok && l.Name == rt.Name
	default:
		return l == r
	}
}
