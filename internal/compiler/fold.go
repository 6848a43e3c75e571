package compiler

import (
	"aurora/internal/ast"
	"aurora/internal/value"
)

// ConstO operands: the interpreter resolves 0 to the running entity and
// 1 to the invalid object.
const (
	objSelf    int32 = 0
	objInvalid int32 = 1
)

// foldVal is a compile-time constant. Object constants carry the ConstO
// operand rather than a runtime object id.
type foldVal struct {
	kind value.Kind
	i    int32
	f    float32
	s    string
	obj  int32
}

func foldInt(v int32) foldVal     { return foldVal{kind: value.KindInt, i: v} }
func foldFloat(v float32) foldVal { return foldVal{kind: value.KindFloat, f: v} }
func foldStr(v string) foldVal    { return foldVal{kind: value.KindString, s: v} }
func foldObj(ref int32) foldVal   { return foldVal{kind: value.KindObject, obj: ref} }

func foldBool(b bool) foldVal {
	if b {
		return foldInt(1)
	}
	return foldInt(0)
}

// asFloat widens a numeric constant.
func (v foldVal) asFloat() float32 {
	if v.kind == value.KindInt {
		return float32(v.i)
	}
	return v.f
}

// fold evaluates expr at compile time. The result mirrors what the
// interpreter would compute, shift masking included, so folded and
// unfolded code agree. Division by zero does not fold.
func (c *Compiler) fold(expr ast.Expression) (foldVal, bool) {
	switch n := expr.(type) {
	case *ast.IntLiteral:
		return foldInt(n.Value), true
	case *ast.FloatLiteral:
		return foldFloat(n.Value), true
	case *ast.StringLiteral:
		return foldStr(n.Value), true
	case *ast.Identifier:
		// A local shadows any constant of the same name.
		if _, shadowed := c.resolveLocal(n.Value); shadowed {
			return foldVal{}, false
		}
		switch n.Value {
		case "OBJECT_SELF":
			return foldObj(objSelf), true
		case "OBJECT_INVALID":
			return foldObj(objInvalid), true
		}
		v, ok := c.consts[n.Value]
		return v, ok
	case *ast.PrefixExpression:
		return c.foldPrefix(n)
	case *ast.InfixExpression:
		return c.foldInfix(n)
	}
	return foldVal{}, false
}

func (c *Compiler) foldPrefix(n *ast.PrefixExpression) (foldVal, bool) {
	v, ok := c.fold(n.Right)
	if !ok {
		return foldVal{}, false
	}
	switch n.Operator {
	case "-":
		switch v.kind {
		case value.KindInt:
			return foldInt(-v.i), true
		case value.KindFloat:
			return foldFloat(-v.f), true
		}
	case "!":
		if v.kind == value.KindInt {
			return foldBool(v.i == 0), true
		}
	case "~":
		if v.kind == value.KindInt {
			return foldInt(^v.i), true
		}
	}
	return foldVal{}, false
}

func (c *Compiler) foldInfix(n *ast.InfixExpression) (foldVal, bool) {
	l, ok := c.fold(n.Left)
	if !ok {
		return foldVal{}, false
	}
	r, ok := c.fold(n.Right)
	if !ok {
		return foldVal{}, false
	}

	if l.kind == value.KindString && r.kind == value.KindString {
		switch n.Operator {
		case "+":
			return foldStr(l.s + r.s), true
		case "==":
			return foldBool(l.s == r.s), true
		case "!=":
			return foldBool(l.s != r.s), true
		}
		return foldVal{}, false
	}

	if l.kind == value.KindInt && r.kind == value.KindInt {
		return foldIntPair(n.Operator, l.i, r.i)
	}
	if isNumericKind(l.kind) && isNumericKind(r.kind) {
		return foldFloatPair(n.Operator, l.asFloat(), r.asFloat())
	}
	return foldVal{}, false
}

func foldIntPair(op string, a, b int32) (foldVal, bool) {
	switch op {
	case "+":
		return foldInt(a + b), true
	case "-":
		return foldInt(a - b), true
	case "*":
		return foldInt(a * b), true
	case "/":
		if b == 0 {
			return foldVal{}, false
		}
		return foldInt(a / b), true
	case "%":
		if b == 0 {
			return foldVal{}, false
		}
		return foldInt(a % b), true
	case "&":
		return foldInt(a & b), true
	case "|":
		return foldInt(a | b), true
	case "^":
		return foldInt(a ^ b), true
	case "<<":
		return foldInt(a << (uint32(b) & 31)), true
	case ">>":
		return foldInt(a >> (uint32(b) & 31)), true
	case ">>>":
		return foldInt(int32(uint32(a) >> (uint32(b) & 31))), true
	case "&&":
		return foldBool(a != 0 && b != 0), true
	case "||":
		return foldBool(a != 0 || b != 0), true
	case "==":
		return foldBool(a == b), true
	case "!=":
		return foldBool(a != b), true
	case "<":
		return foldBool(a < b), true
	case "<=":
		return foldBool(a <= b), true
	case ">":
		return foldBool(a > b), true
	case ">=":
		return foldBool(a >= b), true
	}
	return foldVal{}, false
}

func foldFloatPair(op string, a, b float32) (foldVal, bool) {
	switch op {
	case "+":
		return foldFloat(a + b), true
	case "-":
		return foldFloat(a - b), true
	case "*":
		return foldFloat(a * b), true
	case "/":
		if b == 0 {
			return foldVal{}, false
		}
		return foldFloat(a / b), true
	case "==":
		return foldBool(a == b), true
	case "!=":
		return foldBool(a != b), true
	case "<":
		return foldBool(a < b), true
	case "<=":
		return foldBool(a <= b), true
	case ">":
		return foldBool(a > b), true
	case ">=":
		return foldBool(a >= b), true
	}
	return foldVal{}, false
}

func isNumericKind(k value.Kind) bool {
	return k == value.KindInt || k == value.KindFloat
}
