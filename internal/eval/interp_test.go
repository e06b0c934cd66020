package eval

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sunholo/apexpr/internal/errors"
)

// run parses a lambda program, applies it to args, and returns the result.
func run(t *testing.T, src string, args ...Value) (Value, error) {
	t.Helper()
	lambda, err := ParseLambda(src)
	if err != nil {
		t.Fatalf("ParseLambda(%s) error: %v", src, err)
	}
	in := New()
	defer in.EnvMgr().ClearAllFrames()
	return in.Interpret(lambda, args)
}

func mustRun(t *testing.T, src string, args ...Value) Value {
	t.Helper()
	val, err := run(t, src, args...)
	if err != nil {
		t.Fatalf("Interpret(%s) error: %v", src, err)
	}
	return val
}

func TestIdentityRoundTrip(t *testing.T) {
	got := mustRun(t, `["lambda", ["x"], "x"]`, &Int{Value: 7})
	if diff := cmp.Diff(Value(&Int{Value: 7}), got); diff != "" {
		t.Errorf("identity(7) mismatch (-want +got):\n%s", diff)
	}
}

func TestArithmeticUnderLet(t *testing.T) {
	got := mustRun(t, `["lambda", [],
	  ["__builtin_let__", [["a", ["__builtin_Add__", 2, 3]]], "a"]]`)
	if diff := cmp.Diff(Value(&Int{Value: 5}), got); diff != "" {
		t.Errorf("let a = 2+3 in a mismatch (-want +got):\n%s", diff)
	}
}

func TestConditionalTruthiness(t *testing.T) {
	src := `["lambda", ["xs"], ["if", "xs", {"str": "nonempty"}, {"str": "empty"}]]`
	tests := []struct {
		name string
		arg  Value
		want string
	}{
		{"empty list", &List{}, "empty"},
		{"one-element list", &List{Elems: []Value{&Int{Value: 1}}}, "nonempty"},
		{"unit", UnitVal, "empty"},
		{"false", &Bool{Value: false}, "empty"},
		{"zero int", &Int{Value: 0}, "empty"},
		{"zero float", &Float{Value: 0}, "empty"},
		{"empty string", &Str{Value: ""}, "empty"},
		{"empty object", NewObject(), "empty"},
		{"nonzero int", &Int{Value: -2}, "nonempty"},
		{"nonempty string", &Str{Value: "a"}, "nonempty"},
		{"closure", &Closure{}, "nonempty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustRun(t, src, tt.arg)
			s, ok := got.(*Str)
			if !ok || s.Value != tt.want {
				t.Errorf("if(%s) = %s, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestStarredList(t *testing.T) {
	got := mustRun(t, `["lambda", [],
	  ["__builtin_let__",
	    [["inner", ["__builtin_list__", 2, 3]],
	     ["starred", ["__builtin_starred__", "inner"]],
	     ["all", ["__builtin_list__", 1, "starred", 4]]],
	    "all"]]`)
	want := &List{Elems: []Value{
		&Int{Value: 1}, &Int{Value: 2}, &Int{Value: 3}, &Int{Value: 4},
	}}
	if diff := cmp.Diff(Value(want), got); diff != "" {
		t.Errorf("starred list mismatch (-want +got):\n%s", diff)
	}
}

// The same starred program in nested-call form; the decoder normalizes the
// nesting into let-bindings.
func TestStarredListNestedForm(t *testing.T) {
	got := mustRun(t, `["lambda", [],
	  ["__builtin_list__", 1, ["__builtin_starred__", ["__builtin_list__", 2, 3]], 4]]`)
	want := &List{Elems: []Value{
		&Int{Value: 1}, &Int{Value: 2}, &Int{Value: 3}, &Int{Value: 4},
	}}
	if diff := cmp.Diff(Value(want), got); diff != "" {
		t.Errorf("nested starred list mismatch (-want +got):\n%s", diff)
	}
}

func TestAttributePath(t *testing.T) {
	inner := NewObject()
	inner.Set("b", &Int{Value: 9})
	outer := NewObject()
	outer.Set("a", inner)
	got := mustRun(t, `["lambda", ["o"],
	  ["__builtin_let__",
	    [["a", ["__builtin_getattr__", "o", {"str": "a"}]],
	     ["b", ["__builtin_getattr__", "a", {"str": "b"}]]],
	    "b"]]`, outer)
	if diff := cmp.Diff(Value(&Int{Value: 9}), got); diff != "" {
		t.Errorf("o.a.b mismatch (-want +got):\n%s", diff)
	}
}

// Attribute path in nested-call form.
func TestAttributePathNestedForm(t *testing.T) {
	inner := NewObject()
	inner.Set("b", &Int{Value: 9})
	outer := NewObject()
	outer.Set("a", inner)
	got := mustRun(t, `["lambda", ["o"],
	  ["__builtin_getattr__", ["__builtin_getattr__", "o", {"str": "a"}], {"str": "b"}]]`, outer)
	if diff := cmp.Diff(Value(&Int{Value: 9}), got); diff != "" {
		t.Errorf("nested o.a.b mismatch (-want +got):\n%s", diff)
	}
}

func TestSetAttr(t *testing.T) {
	obj := NewObject()
	got := mustRun(t, `["lambda", ["o"],
	  ["__builtin_let__",
	    [["setter", ["__builtin_setattr__", "o", {"str": "k"}]],
	     ["done", ["setter", {"str": "k"}, 11]],
	     ["back", ["__builtin_getattr__", "o", {"str": "k"}]]],
	    "back"]]`, obj)
	if diff := cmp.Diff(Value(&Int{Value: 11}), got); diff != "" {
		t.Errorf("setattr/getattr mismatch (-want +got):\n%s", diff)
	}
	if v, ok := obj.Get("k"); !ok || !Equal(v, &Int{Value: 11}) {
		t.Errorf("object not mutated: %v", obj)
	}
}

func TestGetItem(t *testing.T) {
	tests := []struct {
		name string
		src  string
		arg  Value
		want Value
	}{
		{
			name: "list positive index",
			src:  `["lambda", ["xs"], ["__builtin_getitem__", "xs", 1]]`,
			arg:  &List{Elems: []Value{&Int{Value: 10}, &Int{Value: 20}}},
			want: &Int{Value: 20},
		},
		{
			name: "list negative index",
			src:  `["lambda", ["xs"], ["__builtin_getitem__", "xs", -1]]`,
			arg:  &List{Elems: []Value{&Int{Value: 10}, &Int{Value: 20}}},
			want: &Int{Value: 20},
		},
		{
			name: "string index",
			src:  `["lambda", ["s"], ["__builtin_getitem__", "s", 0]]`,
			arg:  &Str{Value: "abc"},
			want: &Str{Value: "a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustRun(t, tt.src, tt.arg)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("%s mismatch (-want +got):\n%s", tt.name, diff)
			}
		})
	}
}

func TestOperators(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Value
	}{
		{"int add", `["lambda", [], ["__builtin_Add__", 2, 3]]`, &Int{Value: 5}},
		{"int sub", `["lambda", [], ["__builtin_Sub__", 2, 3]]`, &Int{Value: -1}},
		{"int mul", `["lambda", [], ["__builtin_Mul__", 4, 3]]`, &Int{Value: 12}},
		{"int div truncates", `["lambda", [], ["__builtin_Div__", 7, 2]]`, &Int{Value: 3}},
		{"int mod", `["lambda", [], ["__builtin_Mod__", 7, 2]]`, &Int{Value: 1}},
		{"mixed promotes", `["lambda", [], ["__builtin_Add__", 2, 0.5]]`, &Float{Value: 2.5}},
		{"float left", `["lambda", [], ["__builtin_Mul__", 1.5, 2]]`, &Float{Value: 3}},
		{"int lt", `["lambda", [], ["__builtin_LT__", 2, 3]]`, &Bool{Value: true}},
		{"int ge", `["lambda", [], ["__builtin_GE__", 2, 3]]`, &Bool{Value: false}},
		{"int eq", `["lambda", [], ["__builtin_EQ__", 3, 3]]`, &Bool{Value: true}},
		{"str concat", `["lambda", [], ["__builtin_Add__", {"str": "ab"}, {"str": "cd"}]]`, &Str{Value: "abcd"}},
		{"str eq", `["lambda", [], ["__builtin_EQ__", {"str": "x"}, {"str": "x"}]]`, &Bool{Value: true}},
		{"neg", `["lambda", [], ["__builtin_Neg__", 5]]`, &Int{Value: -5}},
		{"not", `["lambda", [], ["__builtin_Not__", false]]`, &Bool{Value: true}},
		{"to string", `["lambda", [], ["__builtin_ToString__", 12]]`, &Str{Value: "12"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustRun(t, tt.src)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("%s mismatch (-want +got):\n%s", tt.name, diff)
			}
		})
	}
}

// Structural equality is observable through __builtin_EQ__ on compound
// values, not pointer identity.
func TestStructuralEquality(t *testing.T) {
	l1 := &List{Elems: []Value{&Int{Value: 1}, &Str{Value: "a"}}}
	l2 := &List{Elems: []Value{&Int{Value: 1}, &Str{Value: "a"}}}
	got := mustRun(t, `["lambda", ["a", "b"], ["__builtin_EQ__", "a", "b"]]`, l1, l2)
	if b, ok := got.(*Bool); !ok || !b.Value {
		t.Errorf("structurally equal lists compare %s, want true", got)
	}
}

func TestApply(t *testing.T) {
	got := mustRun(t, `["lambda", ["f"],
	  ["__builtin_let__",
	    [["args", ["__builtin_list__", 2, 3]],
	     ["r", ["__builtin_apply__", "f", "args"]]],
	    "r"]]`,
		mustParseClosureArg(t, `["lambda", ["a", "b"], ["__builtin_Add__", "a", "b"]]`))
	if diff := cmp.Diff(Value(&Int{Value: 5}), got); diff != "" {
		t.Errorf("apply mismatch (-want +got):\n%s", diff)
	}
}

// mustParseClosureArg builds a closure value for use as a test argument.
func mustParseClosureArg(t *testing.T, src string) Value {
	t.Helper()
	lambda, err := ParseLambda(src)
	if err != nil {
		t.Fatalf("ParseLambda(%s) error: %v", src, err)
	}
	in := New()
	return &Closure{Lambda: lambda, Env: in.EnvMgr().New(nil)}
}

func TestHigherOrderUserFunction(t *testing.T) {
	// A user-level function passed to another user-level function.
	got := mustRun(t, `["lambda", ["x"],
	  ["__builtin_let__",
	    [["twice", ["__builtin_identity__", ["lambda", ["f", "v"],
	       ["__builtin_let__", [["once", ["f", "v"]], ["again", ["f", "once"]]], "again"]]]],
	     ["inc", ["__builtin_identity__", ["lambda", ["n"], ["__builtin_Add__", "n", 1]]]],
	     ["r", ["twice", "inc", "x"]]],
	    "r"]]`, &Int{Value: 40})
	if diff := cmp.Diff(Value(&Int{Value: 42}), got); diff != "" {
		t.Errorf("twice(inc, 40) mismatch (-want +got):\n%s", diff)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		args []Value
		kind errors.Kind
	}{
		{
			name: "unknown name",
			src:  `["lambda", [], ["no_such_fn"]]`,
			kind: errors.Name,
		},
		{
			name: "arity mismatch",
			src:  `["lambda", ["a", "b"], "a"]`,
			args: []Value{&Int{Value: 1}},
			kind: errors.Type,
		},
		{
			name: "duplicate parameters",
			src:  `["lambda", ["a", "a"], "a"]`,
			args: []Value{&Int{Value: 1}, &Int{Value: 2}},
			kind: errors.Syntax,
		},
		{
			name: "not callable",
			src:  `["lambda", [], [3, 1]]`,
			kind: errors.Type,
		},
		{
			name: "bad operand type",
			src:  `["lambda", [], ["__builtin_Add__", true, 1]]`,
			kind: errors.Type,
		},
		{
			name: "division by zero",
			src:  `["lambda", [], ["__builtin_Div__", 1, 0]]`,
			kind: errors.Value,
		},
		{
			name: "missing attribute",
			src:  `["lambda", ["o"], ["__builtin_getattr__", "o", {"str": "nope"}]]`,
			args: []Value{NewObject()},
			kind: errors.Attribute,
		},
		{
			name: "index out of range",
			src:  `["lambda", ["xs"], ["__builtin_getitem__", "xs", 5]]`,
			args: []Value{&List{}},
			kind: errors.Index,
		},
		{
			name: "starred outside list",
			src:  `["lambda", [], ["__builtin_starred__", 3]]`,
			kind: errors.Type,
		},
		{
			name: "starred wrapping non-list",
			src: `["lambda", ["s"],
			  ["__builtin_let__", [["l", ["__builtin_list__", "s"]]], "l"]]`,
			args: []Value{&Starred{Obj: &Int{Value: 1}}},
			kind: errors.Type,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.src, tt.args...)
			if err == nil {
				t.Fatalf("Interpret(%s) expected error", tt.src)
			}
			if got := errors.KindOf(err); got != tt.kind {
				t.Errorf("error kind = %s, want %s (err: %v)", got, tt.kind, err)
			}
		})
	}
}

// Interpreting the same program twice produces the same value and the same
// print output.
func TestDeterminism(t *testing.T) {
	src := `["lambda", ["x"],
	  ["__builtin_let__",
	    [["s", ["__builtin_ToString__", "x"]],
	     ["p", ["print", "s", {"str": "done"}]],
	     ["r", ["__builtin_Mul__", "x", "x"]]],
	    "r"]]`
	lambda, err := ParseLambda(src)
	if err != nil {
		t.Fatalf("ParseLambda error: %v", err)
	}
	outputs := make([]string, 2)
	values := make([]Value, 2)
	for i := 0; i < 2; i++ {
		in := New()
		var buf bytes.Buffer
		in.SetOutput(&buf)
		val, err := in.Interpret(lambda, []Value{&Int{Value: 6}})
		if err != nil {
			t.Fatalf("Interpret error: %v", err)
		}
		in.EnvMgr().ClearAllFrames()
		outputs[i] = buf.String()
		values[i] = val
	}
	if outputs[0] != outputs[1] {
		t.Errorf("print output differs between runs: %q vs %q", outputs[0], outputs[1])
	}
	if outputs[0] != "6 done\n" {
		t.Errorf("print output = %q, want %q", outputs[0], "6 done\n")
	}
	if !Equal(values[0], values[1]) {
		t.Errorf("values differ between runs: %s vs %s", values[0], values[1])
	}
}

func TestTypeConstructor(t *testing.T) {
	got := mustRun(t, `["lambda", ["xs"],
	  ["__builtin_let__", [["copy", ["list", "xs"]]], "copy"]]`,
		&List{Elems: []Value{&Int{Value: 1}}})
	want := &List{Elems: []Value{&Int{Value: 1}}}
	if diff := cmp.Diff(Value(want), got); diff != "" {
		t.Errorf("list(xs) mismatch (-want +got):\n%s", diff)
	}
}
