package core

// BuiltinSym names a builtin symbol. Free variables resolve against this
// vocabulary before the interpreter reports a name error.
type BuiltinSym string

const (
	SymIf       BuiltinSym = "__builtin_if__"
	SymApply    BuiltinSym = "__builtin_apply__"
	SymIdentity BuiltinSym = "__builtin_identity__"
	SymList     BuiltinSym = "__builtin_list__"
	SymStarred  BuiltinSym = "__builtin_starred__"
	SymCall     BuiltinSym = "__builtin_call__"
	SymToString BuiltinSym = "__builtin_ToString__"
	SymGetAttr  BuiltinSym = "__builtin_getattr__"
	SymSetAttr  BuiltinSym = "__builtin_setattr__"
	SymGetItem  BuiltinSym = "__builtin_getitem__"

	SymAdd BuiltinSym = "__builtin_Add__"
	SymSub BuiltinSym = "__builtin_Sub__"
	SymMul BuiltinSym = "__builtin_Mul__"
	SymDiv BuiltinSym = "__builtin_Div__"
	SymMod BuiltinSym = "__builtin_Mod__"
	SymEQ  BuiltinSym = "__builtin_EQ__"
	SymNE  BuiltinSym = "__builtin_NE__"
	SymGT  BuiltinSym = "__builtin_GT__"
	SymGE  BuiltinSym = "__builtin_GE__"
	SymLT  BuiltinSym = "__builtin_LT__"
	SymLE  BuiltinSym = "__builtin_LE__"

	SymNot BuiltinSym = "__builtin_Not__"
	SymNeg BuiltinSym = "__builtin_Neg__"
)

// KBuiltinReturn is the variable name the lowering threads the current
// continuation through. It is bound at every closure entry, never resolved
// as a symbol.
const KBuiltinReturn = "__builtin_return__"

var symbolSet = map[BuiltinSym]struct{}{
	SymIf: {}, SymApply: {}, SymIdentity: {}, SymList: {}, SymStarred: {},
	SymCall: {}, SymToString: {}, SymGetAttr: {}, SymSetAttr: {}, SymGetItem: {},
	SymAdd: {}, SymSub: {}, SymMul: {}, SymDiv: {}, SymMod: {},
	SymEQ: {}, SymNE: {}, SymGT: {}, SymGE: {}, SymLT: {}, SymLE: {},
	SymNot: {}, SymNeg: {},
}

// SymbolFromName resolves a variable name against the builtin vocabulary.
func SymbolFromName(name string) (BuiltinSym, bool) {
	sym := BuiltinSym(name)
	_, ok := symbolSet[sym]
	return sym, ok
}

// BinaryOps enumerates the binary operator symbols in dispatch order.
var BinaryOps = []BuiltinSym{
	SymAdd, SymSub, SymMul, SymDiv, SymMod,
	SymEQ, SymNE, SymGT, SymGE, SymLT, SymLE,
	SymGetAttr, SymSetAttr, SymGetItem,
}

// UnaryOps enumerates the unary operator symbols.
var UnaryOps = []BuiltinSym{SymNot, SymNeg, SymStarred, SymCall, SymToString}

// IsBinaryOp reports whether sym dispatches through the binary method
// tables (two operands, single dispatch on the left).
func (s BuiltinSym) IsBinaryOp() bool {
	switch s {
	case SymAdd, SymSub, SymMul, SymDiv, SymMod,
		SymEQ, SymNE, SymGT, SymGE, SymLT, SymLE,
		SymGetAttr, SymSetAttr, SymGetItem:
		return true
	}
	return false
}

// IsUnaryOp reports whether sym dispatches through the unary method tables.
func (s BuiltinSym) IsUnaryOp() bool {
	switch s {
	case SymNot, SymNeg, SymStarred, SymCall, SymToString:
		return true
	}
	return false
}

// OpName gives the operator spelling used in diagnostics.
func (s BuiltinSym) OpName() string {
	switch s {
	case SymAdd:
		return "+"
	case SymSub:
		return "-"
	case SymMul:
		return "*"
	case SymDiv:
		return "/"
	case SymMod:
		return "%"
	case SymEQ:
		return "=="
	case SymNE:
		return "!="
	case SymGT:
		return ">"
	case SymGE:
		return ">="
	case SymLT:
		return "<"
	case SymLE:
		return "<="
	case SymNot:
		return "!"
	case SymNeg:
		return "-"
	case SymStarred:
		return "*"
	case SymGetAttr, SymSetAttr:
		return "."
	case SymGetItem:
		return "[]"
	case SymToString:
		return "str"
	case SymCall:
		return "()"
	default:
		return string(s)
	}
}
