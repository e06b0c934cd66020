package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sunholo/apexpr/internal/errors"
)

// JSON keywords for the compound forms.
const (
	KeywordStr    = "str"
	KeywordLambda = "lambda"
	KeywordIf     = "if"
	KeywordLet    = "__builtin_let__"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// Normalize strips a UTF-8 BOM and applies Unicode NFC normalization so
// that lexically equivalent program text decodes identically.
func Normalize(src []byte) []byte {
	src = bytes.TrimPrefix(src, bomUTF8)
	if !norm.NFC.IsNormal(src) {
		src = norm.NFC.Bytes(src)
	}
	return src
}

// DecodeString parses JSON program text into a surface expression.
//
// The decoded AST is always in A-normal form. Call arguments that arrive as
// nested calls or conditionals are normalized into let-bindings over fresh
// temporaries, so `[f, [g, 1]]` decodes as `let tmp = g(1) in f(tmp)`.
func DecodeString(src string) (AnfExpr, error) {
	dec := json.NewDecoder(bytes.NewReader(Normalize([]byte(src))))
	dec.UseNumber()
	var j any
	if err := dec.Decode(&j); err != nil {
		return nil, errors.InvalidArgf("json parse failed: %v", err)
	}
	d := &decoder{}
	return d.decode(j)
}

// decoder carries the temporary-name counter used when normalizing nested
// call arguments.
type decoder struct {
	seq int
}

func (d *decoder) fresh() string {
	name := fmt.Sprintf("__anf_expr_tmp%d", d.seq)
	d.seq++
	return name
}

// decode attempts each variant in order. A mismatch (the JSON shape does not
// resemble the variant) moves on to the next; any other error aborts.
func (d *decoder) decode(j any) (AnfExpr, error) {
	parsers := []func(any) (AnfExpr, error){
		d.decodeLambda,
		d.decodeIf,
		d.decodeLet,
		d.decodeCall,
		d.decodeVar,
		d.decodeBool,
		d.decodeInt,
		d.decodeFloat,
		d.decodeStr,
	}
	for _, parse := range parsers {
		expr, err := parse(j)
		if err == nil {
			return expr, nil
		}
		if !errors.IsMismatch(err) {
			return nil, err
		}
	}
	return nil, errors.Syntaxf("no expression form matches json: %s", dumpJSON(j))
}

func (d *decoder) decodeAtomic(j any) (Atomic, error) {
	expr, err := d.decode(j)
	if err != nil {
		return nil, err
	}
	atom, ok := expr.(Atomic)
	if !ok {
		return nil, errors.Syntaxf("expected an atomic expression, got: %s", dumpJSON(j))
	}
	return atom, nil
}

func (d *decoder) decodeVar(j any) (AnfExpr, error) {
	s, ok := j.(string)
	if !ok {
		return nil, errors.Mismatchf("a variable is a bare json string")
	}
	return NewVar(s), nil
}

func (d *decoder) decodeBool(j any) (AnfExpr, error) {
	b, ok := j.(bool)
	if !ok {
		return nil, errors.Mismatchf("a bool literal is a json boolean")
	}
	return NewBool(b), nil
}

func (d *decoder) decodeInt(j any) (AnfExpr, error) {
	n, ok := j.(json.Number)
	if !ok || !isIntegral(n) {
		return nil, errors.Mismatchf("an int literal is an integral json number")
	}
	v, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return nil, errors.Syntaxf("integer literal out of range: %s", n)
	}
	return NewInt(v), nil
}

func (d *decoder) decodeFloat(j any) (AnfExpr, error) {
	n, ok := j.(json.Number)
	if !ok || isIntegral(n) {
		return nil, errors.Mismatchf("a float literal is a fractional json number")
	}
	v, err := n.Float64()
	if err != nil {
		return nil, errors.Syntaxf("float literal invalid: %s", n)
	}
	return NewFloat(v), nil
}

func isIntegral(n json.Number) bool {
	return !strings.ContainsAny(n.String(), ".eE")
}

func (d *decoder) decodeStr(j any) (AnfExpr, error) {
	obj, ok := j.(map[string]any)
	if !ok {
		return nil, errors.Mismatchf("a string literal is a json object")
	}
	raw, ok := obj[KeywordStr]
	if !ok {
		return nil, errors.Mismatchf("a string literal object has a %q key", KeywordStr)
	}
	if len(obj) != 1 {
		return nil, errors.Syntaxf("a string literal object has exactly one key: %s", dumpJSON(j))
	}
	s, ok := raw.(string)
	if !ok {
		return nil, errors.Syntaxf("the %q key must hold a string: %s", KeywordStr, dumpJSON(j))
	}
	return NewStr(s), nil
}

func (d *decoder) decodeLambda(j any) (AnfExpr, error) {
	arr, ok := j.([]any)
	if !ok {
		return nil, errors.Mismatchf("a lambda is a json array")
	}
	if len(arr) != 3 || !isKeyword(arr[0], KeywordLambda) {
		return nil, errors.Mismatchf("a lambda is [%q, params, body]", KeywordLambda)
	}
	rawParams, ok := arr[1].([]any)
	if !ok {
		return nil, errors.Syntaxf("lambda parameters must be a json array: %s", dumpJSON(j))
	}
	params := make([]string, len(rawParams))
	for i, p := range rawParams {
		name, ok := p.(string)
		if !ok {
			return nil, errors.Syntaxf("lambda parameters must be variable names: %s", dumpJSON(j))
		}
		params[i] = name
	}
	body, err := d.decode(arr[2])
	if err != nil {
		return nil, withSyntaxContext(err, "lambda body", j)
	}
	return NewLambda(params, body), nil
}

func (d *decoder) decodeIf(j any) (AnfExpr, error) {
	arr, ok := j.([]any)
	if !ok {
		return nil, errors.Mismatchf("a conditional is a json array")
	}
	if len(arr) != 4 || !isKeyword(arr[0], KeywordIf) {
		return nil, errors.Mismatchf("a conditional is [%q, cond, then, else]", KeywordIf)
	}
	cond, err := d.decodeAtomic(arr[1])
	if err != nil {
		return nil, withSyntaxContext(err, "conditional test", j)
	}
	then, err := d.decode(arr[2])
	if err != nil {
		return nil, withSyntaxContext(err, "then-branch", j)
	}
	els, err := d.decode(arr[3])
	if err != nil {
		return nil, withSyntaxContext(err, "else-branch", j)
	}
	return NewIf(cond, then, els), nil
}

func (d *decoder) decodeLet(j any) (AnfExpr, error) {
	arr, ok := j.([]any)
	if !ok {
		return nil, errors.Mismatchf("a let is a json array")
	}
	if len(arr) != 3 || !isKeyword(arr[0], KeywordLet) {
		return nil, errors.Mismatchf("a let is [%q, bindings, body]", KeywordLet)
	}
	rawBindings, ok := arr[1].([]any)
	if !ok {
		return nil, errors.Syntaxf("let bindings must be a json array: %s", dumpJSON(j))
	}
	bindings := make([]Bind, 0, len(rawBindings))
	for _, rb := range rawBindings {
		pair, ok := rb.([]any)
		if !ok || len(pair) != 2 {
			return nil, errors.Syntaxf("a let binding is a [name, value] pair: %s", dumpJSON(rb))
		}
		name, ok := pair[0].(string)
		if !ok {
			return nil, errors.Syntaxf("a let binding name must be a variable name: %s", dumpJSON(rb))
		}
		val, err := d.decode(pair[1])
		if err != nil {
			return nil, withSyntaxContext(err, "let binding value", rb)
		}
		combined, ok := val.(Combined)
		if !ok {
			return nil, errors.Syntaxf("a let binding value must be a combined expression: %s", dumpJSON(pair[1]))
		}
		bindings = append(bindings, Bind{Var: Var{Name: name}, Val: combined})
	}
	body, err := d.decode(arr[2])
	if err != nil {
		return nil, withSyntaxContext(err, "let body", j)
	}
	return NewLet(bindings, body), nil
}

// decodeCall parses a call array. Arguments that are themselves combined
// expressions are bound to fresh temporaries so the resulting AST stays in
// A-normal form.
func (d *decoder) decodeCall(j any) (AnfExpr, error) {
	arr, ok := j.([]any)
	if !ok {
		return nil, errors.Mismatchf("a call is a json array")
	}
	if len(arr) == 0 {
		return nil, errors.Syntaxf("a call array must not be empty")
	}
	fn, err := d.decodeAtomic(arr[0])
	if err != nil {
		return nil, withSyntaxContext(err, "callee", j)
	}
	var hoisted []Bind
	args := make([]Atomic, 0, len(arr)-1)
	for _, ra := range arr[1:] {
		expr, err := d.decode(ra)
		if err != nil {
			return nil, withSyntaxContext(err, "call argument", j)
		}
		switch expr := expr.(type) {
		case Atomic:
			args = append(args, expr)
		case Combined:
			tmp := d.fresh()
			hoisted = append(hoisted, Bind{Var: Var{Name: tmp}, Val: expr})
			args = append(args, NewVar(tmp))
		case *Let:
			// Nested normalization already produced a let; splice its
			// bindings into this call's prelude.
			hoisted = append(hoisted, expr.Bindings...)
			switch body := expr.Body.(type) {
			case Atomic:
				args = append(args, body)
			case Combined:
				tmp := d.fresh()
				hoisted = append(hoisted, Bind{Var: Var{Name: tmp}, Val: body})
				args = append(args, NewVar(tmp))
			default:
				return nil, errors.Syntaxf("call arguments must normalize to atomic expressions: %s", dumpJSON(ra))
			}
		default:
			return nil, errors.Syntaxf("call arguments must be atomic or combined expressions: %s", dumpJSON(ra))
		}
	}
	call := NewCall(fn, args...)
	if len(hoisted) == 0 {
		return call, nil
	}
	return NewLet(hoisted, call), nil
}

func isKeyword(j any, kw string) bool {
	s, ok := j.(string)
	return ok && s == kw
}

// withSyntaxContext upgrades a mismatch from a sub-part into a hard syntax
// error: once the outer shape has committed to a variant, inner shapes must
// parse.
func withSyntaxContext(err error, what string, j any) error {
	if errors.IsMismatch(err) {
		return errors.Syntaxf("invalid %s in: %s", what, dumpJSON(j))
	}
	return err
}

func dumpJSON(j any) string {
	data, err := json.Marshal(j)
	if err != nil {
		return "<unprintable>"
	}
	const limit = 160
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}

// Encode emits the canonical JSON form of an expression.
func Encode(e AnfExpr) ([]byte, error) {
	j, err := toJSON(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(j)
}

// EncodeIndent is Encode with indentation, for dumps meant to be read.
func EncodeIndent(e AnfExpr, indent string) ([]byte, error) {
	j, err := toJSON(e)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(j, "", indent)
}

func toJSON(e AnfExpr) (any, error) {
	switch e := e.(type) {
	case *Var:
		return e.Name, nil
	case *Bool:
		return e.Value, nil
	case *Int:
		return json.Number(strconv.FormatInt(e.Value, 10)), nil
	case *Float:
		return json.Number(formatFloat(e.Value)), nil
	case *Str:
		return map[string]any{KeywordStr: e.Value}, nil
	case *Lambda:
		params := make([]any, len(e.Params))
		for i, p := range e.Params {
			params[i] = p.Name
		}
		body, err := toJSON(e.Body)
		if err != nil {
			return nil, err
		}
		return []any{KeywordLambda, params, body}, nil
	case *Call:
		arr := make([]any, 0, len(e.Args)+1)
		fn, err := toJSON(e.Func)
		if err != nil {
			return nil, err
		}
		arr = append(arr, fn)
		for _, a := range e.Args {
			j, err := toJSON(a)
			if err != nil {
				return nil, err
			}
			arr = append(arr, j)
		}
		return arr, nil
	case *If:
		cond, err := toJSON(e.Cond)
		if err != nil {
			return nil, err
		}
		then, err := toJSON(e.Then)
		if err != nil {
			return nil, err
		}
		els, err := toJSON(e.Else)
		if err != nil {
			return nil, err
		}
		return []any{KeywordIf, cond, then, els}, nil
	case *Let:
		bindings := make([]any, len(e.Bindings))
		for i, b := range e.Bindings {
			val, err := toJSON(b.Val)
			if err != nil {
				return nil, err
			}
			bindings[i] = []any{b.Var.Name, val}
		}
		body, err := toJSON(e.Body)
		if err != nil {
			return nil, err
		}
		return []any{KeywordLet, bindings, body}, nil
	default:
		return nil, errors.InvalidArgf("cannot encode expression of type %T", e)
	}
}

// formatFloat keeps a fractional marker so the decoder maps the number back
// to a float literal rather than an int.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
