package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sunholo/apexpr/internal/errors"
)

func TestDecodeString(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want AnfExpr
	}{
		{
			name: "variable",
			src:  `"x"`,
			want: NewVar("x"),
		},
		{
			name: "bool literal",
			src:  `true`,
			want: NewBool(true),
		},
		{
			name: "int literal",
			src:  `42`,
			want: NewInt(42),
		},
		{
			name: "float literal",
			src:  `2.5`,
			want: NewFloat(2.5),
		},
		{
			name: "float with exponent",
			src:  `1e3`,
			want: NewFloat(1000),
		},
		{
			name: "string literal",
			src:  `{"str": "hello"}`,
			want: NewStr("hello"),
		},
		{
			name: "lambda",
			src:  `["lambda", ["x"], "x"]`,
			want: NewLambda([]string{"x"}, NewVar("x")),
		},
		{
			name: "zero-arg lambda",
			src:  `["lambda", [], 1]`,
			want: NewLambda(nil, NewInt(1)),
		},
		{
			name: "call",
			src:  `["f", "x", 1]`,
			want: NewCall(NewVar("f"), NewVar("x"), NewInt(1)),
		},
		{
			name: "if",
			src:  `["if", "c", 1, 2]`,
			want: NewIf(NewVar("c"), NewInt(1), NewInt(2)),
		},
		{
			name: "let",
			src:  `["__builtin_let__", [["a", ["__builtin_Add__", 2, 3]]], "a"]`,
			want: NewLet(
				[]Bind{NewBind("a", NewCall(NewVar("__builtin_Add__"), NewInt(2), NewInt(3)))},
				NewVar("a"),
			),
		},
		{
			name: "nested lambda in call",
			src:  `[["lambda", ["x"], "x"], 7]`,
			want: NewCall(NewLambda([]string{"x"}, NewVar("x")), NewInt(7)),
		},
		{
			// A 3-element "if" array does not resemble a conditional; it
			// falls through to the call variant.
			name: "short if is a call",
			src:  `["if", "c", 1]`,
			want: NewCall(NewVar("if"), NewVar("c"), NewInt(1)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeString(tt.src)
			if err != nil {
				t.Fatalf("DecodeString(%s) error: %v", tt.src, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeString(%s) mismatch (-want +got):\n%s", tt.src, diff)
			}
		})
	}
}

func TestDecodeStringErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind errors.Kind
	}{
		{
			name: "empty array",
			src:  `[]`,
			kind: errors.Syntax,
		},
		{
			name: "bad json",
			src:  `[`,
			kind: errors.InvalidArgument,
		},
		{
			name: "lambda with non-string param",
			src:  `["lambda", [1], "x"]`,
			kind: errors.Syntax,
		},
		{
			name: "string object with extra key",
			src:  `{"str": "a", "x": 1}`,
			kind: errors.Syntax,
		},
		{
			name: "string object with non-string payload",
			src:  `{"str": 3}`,
			kind: errors.Syntax,
		},
		{
			name: "let binding with atomic value",
			src:  `["__builtin_let__", [["a", 1]], "a"]`,
			kind: errors.Syntax,
		},
		{
			name: "if condition not atomic",
			src:  `["if", ["if", "c", 1, 2], 1, 2]`,
			kind: errors.Syntax,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeString(tt.src)
			if err == nil {
				t.Fatalf("DecodeString(%s) expected error", tt.src)
			}
			if got := errors.KindOf(err); got != tt.kind {
				t.Errorf("DecodeString(%s) error kind = %s, want %s (err: %v)", tt.src, got, tt.kind, err)
			}
		})
	}
}

// Combined call arguments are normalized into let-bindings over fresh
// temporaries, so the decoded AST is always in A-normal form.
func TestDecodeNormalizesNestedCalls(t *testing.T) {
	got, err := DecodeString(`["f", ["g", 1], 2]`)
	if err != nil {
		t.Fatalf("DecodeString error: %v", err)
	}
	want := NewLet(
		[]Bind{NewBind("__anf_expr_tmp0", NewCall(NewVar("g"), NewInt(1)))},
		NewCall(NewVar("f"), NewVar("__anf_expr_tmp0"), NewInt(2)),
	)
	if diff := cmp.Diff(AnfExpr(want), got); diff != "" {
		t.Errorf("normalized call mismatch (-want +got):\n%s", diff)
	}

	// Two levels of nesting splice into one binding list.
	got, err = DecodeString(`["f", ["g", ["h"]]]`)
	if err != nil {
		t.Fatalf("DecodeString error: %v", err)
	}
	let, ok := got.(*Let)
	if !ok {
		t.Fatalf("decoded %T, want *Let", got)
	}
	if len(let.Bindings) != 2 {
		t.Errorf("got %d bindings, want 2", len(let.Bindings))
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	exprs := []AnfExpr{
		NewVar("x"),
		NewBool(false),
		NewInt(-3),
		NewFloat(2.0),
		NewFloat(0.125),
		NewStr("s with spaces"),
		NewLambda([]string{"a", "b"}, NewCall(NewVar("f"), NewVar("a"), NewVar("b"))),
		NewIf(NewVar("c"), NewStr("yes"), NewStr("no")),
		NewLet(
			[]Bind{
				NewBind("t0", NewCall(NewVar("__builtin_getattr__"), NewVar("o"), NewStr("x"))),
				NewBind("t1", NewCall(NewVar("t0"), NewInt(1))),
			},
			NewVar("t1"),
		),
		NewLambda([]string{"xs"}, NewIf(NewVar("xs"), NewStr("nonempty"), NewStr("empty"))),
	}
	for _, expr := range exprs {
		encoded, err := Encode(expr)
		if err != nil {
			t.Fatalf("Encode(%s) error: %v", expr, err)
		}
		decoded, err := DecodeString(string(encoded))
		if err != nil {
			t.Fatalf("DecodeString(%s) error: %v", encoded, err)
		}
		if diff := cmp.Diff(expr, decoded); diff != "" {
			t.Errorf("round trip of %s mismatch (-want +got):\n%s", encoded, diff)
		}
	}
}

func TestNormalize(t *testing.T) {
	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`"x"`)...)
	got, err := DecodeString(string(withBOM))
	if err != nil {
		t.Fatalf("DecodeString with BOM error: %v", err)
	}
	if diff := cmp.Diff(NewVar("x"), got); diff != "" {
		t.Errorf("BOM-prefixed input mismatch (-want +got):\n%s", diff)
	}
}

func TestLambdaBuilder(t *testing.T) {
	var b LambdaBuilder
	o := NewVar("o")
	attr := b.GetAttr(o, "ap_native_op")
	op := b.Call(attr, NewStr("pd_op.softmax"))
	lambda := b.Lambda([]string{"o"}, op)

	if len(lambda.Params) != 1 || lambda.Params[0].Name != "o" {
		t.Fatalf("unexpected params: %v", lambda.Params)
	}
	let, ok := lambda.Body.(*Let)
	if !ok {
		t.Fatalf("builder body is %T, want *Let", lambda.Body)
	}
	if len(let.Bindings) != 2 {
		t.Fatalf("got %d bindings, want 2", len(let.Bindings))
	}
	// The built program must survive a JSON round trip.
	encoded, err := Encode(lambda)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	decoded, err := DecodeString(string(encoded))
	if err != nil {
		t.Fatalf("DecodeString error: %v", err)
	}
	if diff := cmp.Diff(AnfExpr(lambda), decoded); diff != "" {
		t.Errorf("builder round trip mismatch (-want +got):\n%s", diff)
	}
}
