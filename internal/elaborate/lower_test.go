package elaborate

import (
	"testing"

	"github.com/sunholo/apexpr/internal/ast"
	"github.com/sunholo/apexpr/internal/core"
)

func mustDecode(t *testing.T, src string) ast.AnfExpr {
	t.Helper()
	expr, err := ast.DecodeString(src)
	if err != nil {
		t.Fatalf("DecodeString(%s) error: %v", src, err)
	}
	return expr
}

func mustLower(t *testing.T, src string) core.CoreExpr {
	t.Helper()
	lowered, err := Lower(mustDecode(t, src))
	if err != nil {
		t.Fatalf("Lower(%s) error: %v", src, err)
	}
	return lowered
}

func TestLowerAtomicIsVerbatim(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"variable", `"x"`, "x"},
		{"int", `42`, "42"},
		{"symbol resolution", `"__builtin_list__"`, "__builtin_list__"},
		{"identity lambda", `["lambda", ["x"], "x"]`, "λ(x). x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustLower(t, tt.src).String(); got != tt.want {
				t.Errorf("Lower(%s) = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestLowerCall(t *testing.T) {
	lowered := mustLower(t, `["f", "x", 1]`)
	cc, ok := lowered.(*core.ComposedCall)
	if !ok {
		t.Fatalf("Lower(call) = %T, want *core.ComposedCall", lowered)
	}
	if outer, ok := cc.Outer.(*core.Var); !ok || outer.Name != core.KBuiltinReturn {
		t.Errorf("outer = %s, want %s", cc.Outer, core.KBuiltinReturn)
	}
	if inner, ok := cc.Inner.(*core.Var); !ok || inner.Name != "f" {
		t.Errorf("inner = %s, want f", cc.Inner)
	}
	if len(cc.Args) != 2 {
		t.Errorf("got %d args, want 2", len(cc.Args))
	}
}

func TestLowerLetChainsContinuations(t *testing.T) {
	lowered := mustLower(t, `["__builtin_let__", [["a", ["f"]], ["b", ["g", "a"]]], "b"]`)
	// The chain reads: __builtin_return__ <- λb <- λa <- f().
	cc, ok := lowered.(*core.ComposedCall)
	if !ok {
		t.Fatalf("Lower(let) = %T, want *core.ComposedCall", lowered)
	}
	if inner, ok := cc.Inner.(*core.Var); !ok || inner.Name != "f" {
		t.Fatalf("first call inner = %s, want f", cc.Inner)
	}
	bindA, ok := cc.Outer.(*core.Lambda)
	if !ok || len(bindA.Params) != 1 || bindA.Params[0].Name != "a" {
		t.Fatalf("first continuation = %s, want single-parameter lambda over a", cc.Outer)
	}
	next, ok := bindA.Body.(*core.ComposedCall)
	if !ok {
		t.Fatalf("second step = %T, want *core.ComposedCall", bindA.Body)
	}
	bindB, ok := next.Outer.(*core.Lambda)
	if !ok || len(bindB.Params) != 1 || bindB.Params[0].Name != "b" {
		t.Fatalf("second continuation = %s, want single-parameter lambda over b", next.Outer)
	}
}

func TestLowerIfMakesThunks(t *testing.T) {
	lowered := mustLower(t, `["if", "c", 1, 2]`)
	cc, ok := lowered.(*core.ComposedCall)
	if !ok {
		t.Fatalf("Lower(if) = %T, want *core.ComposedCall", lowered)
	}
	if sym, ok := cc.Inner.(*core.Sym); !ok || sym.Sym != core.SymIf {
		t.Fatalf("inner = %s, want %s", cc.Inner, core.SymIf)
	}
	if len(cc.Args) != 3 {
		t.Fatalf("got %d args, want 3", len(cc.Args))
	}
	for i := 1; i <= 2; i++ {
		thunk, ok := cc.Args[i].(*core.Lambda)
		if !ok {
			t.Fatalf("arg %d = %T, want *core.Lambda", i, cc.Args[i])
		}
		if len(thunk.Params) != 0 {
			t.Errorf("branch thunk %d has %d params, want 0", i, len(thunk.Params))
		}
	}
}

// Lowering must not bind free variables to its introduced parameters.
func TestLowerCaptureAvoidance(t *testing.T) {
	// The inner lambda references the outer "a"; the let also binds "a".
	// The reference inside the binding value is lowered before the binding
	// lambda wraps the rest, so it must keep referring to the parameter.
	src := `["lambda", ["a"],
	          ["__builtin_let__",
	            [["b", ["__builtin_Add__", "a", 1]],
	             ["a", ["__builtin_Add__", "b", 1]],
	             ["c", ["__builtin_Add__", "a", "b"]]],
	            "c"]]`
	lowered := mustLower(t, src)
	lambda, ok := lowered.(*core.Lambda)
	if !ok {
		t.Fatalf("Lower = %T, want *core.Lambda", lowered)
	}
	// b is computed from the outer a before the inner a exists.
	cc := lambda.Body.(*core.ComposedCall)
	if got := cc.Args[0].(*core.Var).Name; got != "a" {
		t.Errorf("first binding reads %s, want the parameter a", got)
	}
	bindB := cc.Outer.(*core.Lambda)
	if bindB.Params[0].Name != "b" {
		t.Fatalf("first continuation binds %s, want b", bindB.Params[0].Name)
	}
}

func TestReplaceLambdaArgName(t *testing.T) {
	lowered := mustLower(t, `["lambda", ["x"], ["f", "x"]]`)
	fresh := FreshNamer("__tmp")
	renamed := core.ReplaceLambdaArgName(lowered, "x", fresh)
	lambda, ok := renamed.(*core.Lambda)
	if !ok {
		t.Fatalf("renamed = %T, want *core.Lambda", renamed)
	}
	if lambda.Params[0].Name != "__tmp0" {
		t.Errorf("param = %s, want __tmp0", lambda.Params[0].Name)
	}
	cc := lambda.Body.(*core.ComposedCall)
	if got := cc.Args[0].(*core.Var).Name; got != "__tmp0" {
		t.Errorf("body occurrence = %s, want __tmp0", got)
	}
}

func TestInlineCollapsesIdentityChains(t *testing.T) {
	lowered := mustLower(t, `["__builtin_let__",
	  [["a", ["f"]],
	   ["b", ["__builtin_identity__", "a"]]],
	  "b"]`)
	inlined := core.Inline(lowered)
	cc, ok := inlined.(*core.ComposedCall)
	if !ok {
		t.Fatalf("Inline = %T, want *core.ComposedCall", inlined)
	}
	// The b-binding was a pure identity hop; inlining removes it, leaving
	// the a-continuation to return a directly.
	bindA, ok := cc.Outer.(*core.Lambda)
	if !ok || bindA.Params[0].Name != "a" {
		t.Fatalf("outer = %s, want the a-continuation", cc.Outer)
	}
	body, ok := bindA.Body.(*core.ComposedCall)
	if !ok {
		t.Fatalf("continuation body = %T, want *core.ComposedCall", bindA.Body)
	}
	if outer, ok := body.Outer.(*core.Var); !ok || outer.Name != core.KBuiltinReturn {
		t.Errorf("collapsed outer = %s, want %s", body.Outer, core.KBuiltinReturn)
	}
	if got := body.Args[0].(*core.Var).Name; got != "a" {
		t.Errorf("collapsed arg = %s, want a", got)
	}
}
