package compiler

import (
	"fmt"

	"aurora/internal/ast"
	"aurora/internal/ncs"
	"aurora/internal/token"
	"aurora/internal/value"
)

// compileExpr emits code that leaves the expression's value on the
// stack and reports its static kind. Only a call can be void.
func (c *Compiler) compileExpr(expr ast.Expression) (value.Kind, error) {
	switch n := expr.(type) {
	case *ast.IntLiteral:
		c.emitA(ncs.OpConstI, n.Value)
		c.depth += 4
		return value.KindInt, nil

	case *ast.FloatLiteral:
		c.emit(ncs.Instruction{Op: ncs.OpConstF, F: n.Value})
		c.depth += 4
		return value.KindFloat, nil

	case *ast.StringLiteral:
		c.emit(ncs.Instruction{Op: ncs.OpConstS, S: n.Value})
		c.depth += 4
		return value.KindString, nil

	case *ast.VectorLiteral:
		for _, comp := range []ast.Expression{n.X, n.Y, n.Z} {
			if err := c.compileExprAs(comp, value.KindFloat, errTypeMismatch, "vector component"); err != nil {
				return 0, err
			}
		}
		return value.KindVector, nil

	case *ast.Identifier:
		return c.compileIdentifier(n)

	case *ast.PrefixExpression:
		if v, ok := c.fold(n); ok {
			c.emitConst(v)
			return v.kind, nil
		}
		return c.compilePrefix(n)

	case *ast.PostfixExpression:
		return c.compileCrement(n.Token, n.Operator, n.Left, true)

	case *ast.InfixExpression:
		if v, ok := c.fold(n); ok {
			c.emitConst(v)
			return v.kind, nil
		}
		return c.compileInfix(n)

	case *ast.AssignExpression:
		return c.compileAssign(n)

	case *ast.MemberExpression:
		return c.compileMember(n)

	case *ast.CallExpression:
		return c.compileCall(n)
	}
	return 0, c.errf(tokenOfExpr(expr), errInternal, "unexpected expression %T", expr)
}

// compileExprAs compiles expr and checks its kind. An integer constant
// widens where a float is wanted.
func (c *Compiler) compileExprAs(expr ast.Expression, want value.Kind, code, what string) error {
	if want == value.KindFloat {
		if v, ok := c.fold(expr); ok && v.kind == value.KindInt {
			c.emit(ncs.Instruction{Op: ncs.OpConstF, F: float32(v.i)})
			c.depth += 4
			return nil
		}
	}
	got, err := c.compileExpr(expr)
	if err != nil {
		return err
	}
	if got != want {
		return c.errf(tokenOfExpr(expr), code, "%s must be %s, got %s", what, want, got)
	}
	return nil
}

// emitConst pushes a folded constant.
func (c *Compiler) emitConst(v foldVal) {
	switch v.kind {
	case value.KindInt:
		c.emitA(ncs.OpConstI, v.i)
	case value.KindFloat:
		c.emit(ncs.Instruction{Op: ncs.OpConstF, F: v.f})
	case value.KindString:
		c.emit(ncs.Instruction{Op: ncs.OpConstS, S: v.s})
	case value.KindObject:
		c.emitA(ncs.OpConstO, v.obj)
	}
	c.depth += 4
}

// emitValue pushes a routine's declared default.
func (c *Compiler) emitValue(v value.Value) {
	switch v.Kind() {
	case value.KindFloat:
		c.emit(ncs.Instruction{Op: ncs.OpConstF, F: v.Float()})
		c.depth += 4
	case value.KindString:
		c.emit(ncs.Instruction{Op: ncs.OpConstS, S: v.Str()})
		c.depth += 4
	case value.KindObject:
		ref := objSelf
		if v.Object() == value.ObjectInvalid {
			ref = objInvalid
		}
		c.emitA(ncs.OpConstO, ref)
		c.depth += 4
	case value.KindVector:
		vec := v.Vector()
		for _, f := range []float32{vec.X, vec.Y, vec.Z} {
			c.emit(ncs.Instruction{Op: ncs.OpConstF, F: f})
		}
		c.depth += 12
	default:
		c.emitA(ncs.OpConstI, v.Int())
		c.depth += 4
	}
}

func (c *Compiler) compileIdentifier(n *ast.Identifier) (value.Kind, error) {
	if l, ok := c.resolveLocal(n.Value); ok {
		size := sizeOf(l.kind)
		c.emitAB(ncs.OpCopyTopSP, l.base-c.depth, size)
		c.depth += size
		return l.kind, nil
	}
	if v, ok := c.fold(n); ok {
		c.emitConst(v)
		return v.kind, nil
	}
	return 0, c.errf(n.Token, errUnknownIdent, "unknown identifier %s", n.Value)
}

func (c *Compiler) compilePrefix(n *ast.PrefixExpression) (value.Kind, error) {
	switch n.Operator {
	case "++", "--":
		return c.compileCrement(n.Token, n.Operator, n.Right, false)
	}

	kind, err := c.compileExpr(n.Right)
	if err != nil {
		return 0, err
	}
	switch n.Operator {
	case "-":
		if kind != value.KindInt && kind != value.KindFloat {
			return 0, c.errf(n.Token, errTypeMismatch, "unary - needs int or float, got %s", kind)
		}
		c.emit(ncs.Instruction{Op: ncs.OpNeg})
		return kind, nil
	case "!":
		if kind != value.KindInt {
			return 0, c.errf(n.Token, errTypeMismatch, "! needs int, got %s", kind)
		}
		c.emit(ncs.Instruction{Op: ncs.OpNot})
		return value.KindInt, nil
	case "~":
		if kind != value.KindInt {
			return 0, c.errf(n.Token, errTypeMismatch, "~ needs int, got %s", kind)
		}
		c.emit(ncs.Instruction{Op: ncs.OpComp})
		return value.KindInt, nil
	}
	return 0, c.errf(n.Token, errInternal, "unexpected prefix operator %s", n.Operator)
}

// compileCrement emits ++ and --. The prefix forms leave the updated
// value on the stack, the postfix forms the original.
func (c *Compiler) compileCrement(tok token.Token, op string, target ast.Expression, postfix bool) (value.Kind, error) {
	id, ok := target.(*ast.Identifier)
	if !ok {
		return 0, c.errf(tok, errNotAssignable, "%s needs a variable", op)
	}
	l, ok := c.resolveLocal(id.Value)
	if !ok {
		return 0, c.errf(id.Token, errUnknownIdent, "unknown variable %s", id.Value)
	}
	if l.kind != value.KindInt {
		return 0, c.errf(id.Token, errTypeMismatch, "%s needs an int variable, %s is %s", op, id.Value, l.kind)
	}

	arith := ncs.OpAdd
	if op == "--" {
		arith = ncs.OpSub
	}

	c.emitAB(ncs.OpCopyTopSP, l.base-c.depth, 4)
	c.depth += 4
	if postfix {
		c.emitAB(ncs.OpCopyTopSP, -4, 4)
		c.depth += 4
	}
	c.emitA(ncs.OpConstI, 1)
	c.depth += 4
	c.emitA(arith, ncs.PairScalar)
	c.depth -= 4
	c.emitAB(ncs.OpCopyDownSP, l.base-c.depth, 4)
	if postfix {
		c.emitA(ncs.OpMovSP, -4)
		c.depth -= 4
	}
	return value.KindInt, nil
}

func (c *Compiler) compileInfix(n *ast.InfixExpression) (value.Kind, error) {
	switch n.Operator {
	case "&&":
		return c.compileLogical(n, ncs.OpJz, 1, 0)
	case "||":
		return c.compileLogical(n, ncs.OpJnz, 0, 1)
	}

	left, err := c.compileExpr(n.Left)
	if err != nil {
		return 0, err
	}
	right, err := c.compileExpr(n.Right)
	if err != nil {
		return 0, err
	}
	return c.emitBinaryOp(n.Token, n.Operator, left, right)
}

// compileLogical emits short-circuit && and ||. The right operand runs
// only when the left has not already decided the answer; both decided
// paths meet with a single int on the stack.
func (c *Compiler) compileLogical(n *ast.InfixExpression, jump ncs.Opcode, through, cut int32) (value.Kind, error) {
	var cuts []int
	for _, side := range []ast.Expression{n.Left, n.Right} {
		kind, err := c.compileExpr(side)
		if err != nil {
			return 0, err
		}
		if kind != value.KindInt {
			return 0, c.errf(tokenOfExpr(side), errTypeMismatch, "%s needs int operands, got %s", n.Operator, kind)
		}
		c.depth -= 4
		cuts = append(cuts, len(c.code))
		c.emit(ncs.Instruction{Op: jump})
	}
	c.emitA(ncs.OpConstI, through)
	jmp := len(c.code)
	c.emit(ncs.Instruction{Op: ncs.OpJmp})
	c.patchJumps(cuts, len(c.code))
	c.emitA(ncs.OpConstI, cut)
	c.code[jmp].A = int32(len(c.code))
	c.depth += 4
	return value.KindInt, nil
}

// emitBinaryOp closes a binary operation whose operands are already on
// the stack, picking the opcode and pair shape from the operand kinds.
func (c *Compiler) emitBinaryOp(tok token.Token, op string, left, right value.Kind) (value.Kind, error) {
	mismatch := func() (value.Kind, error) {
		return 0, c.errf(tok, errTypeMismatch, "operator %s cannot take %s and %s", op, left, right)
	}
	numeric := isNumericKind(left) && isNumericKind(right)
	numKind := value.KindInt
	if left == value.KindFloat || right == value.KindFloat {
		numKind = value.KindFloat
	}

	switch op {
	case "+":
		switch {
		case numeric:
			c.emitA(ncs.OpAdd, ncs.PairScalar)
			c.depth -= 4
			return numKind, nil
		case left == value.KindString && right == value.KindString:
			c.emitA(ncs.OpAdd, ncs.PairScalar)
			c.depth -= 4
			return value.KindString, nil
		case left == value.KindVector && right == value.KindVector:
			c.emitA(ncs.OpAdd, ncs.PairVecVec)
			c.depth -= 12
			return value.KindVector, nil
		}
		return mismatch()

	case "-":
		switch {
		case numeric:
			c.emitA(ncs.OpSub, ncs.PairScalar)
			c.depth -= 4
			return numKind, nil
		case left == value.KindVector && right == value.KindVector:
			c.emitA(ncs.OpSub, ncs.PairVecVec)
			c.depth -= 12
			return value.KindVector, nil
		}
		return mismatch()

	case "*":
		switch {
		case numeric:
			c.emitA(ncs.OpMul, ncs.PairScalar)
			c.depth -= 4
			return numKind, nil
		case left == value.KindVector && right == value.KindFloat:
			c.emitA(ncs.OpMul, ncs.PairVecF)
			c.depth -= 4
			return value.KindVector, nil
		case left == value.KindFloat && right == value.KindVector:
			c.emitA(ncs.OpMul, ncs.PairFVec)
			c.depth -= 4
			return value.KindVector, nil
		}
		return mismatch()

	case "/":
		switch {
		case numeric:
			c.emitA(ncs.OpDiv, ncs.PairScalar)
			c.depth -= 4
			return numKind, nil
		case left == value.KindVector && right == value.KindFloat:
			c.emitA(ncs.OpDiv, ncs.PairVecF)
			c.depth -= 4
			return value.KindVector, nil
		}
		return mismatch()

	case "%":
		if left != value.KindInt || right != value.KindInt {
			return mismatch()
		}
		c.emit(ncs.Instruction{Op: ncs.OpMod})
		c.depth -= 4
		return value.KindInt, nil

	case "==", "!=":
		ok := numeric ||
			(left == value.KindString && right == value.KindString) ||
			(left == value.KindObject && right == value.KindObject)
		if !ok {
			return mismatch()
		}
		cmp := ncs.OpEq
		if op == "!=" {
			cmp = ncs.OpNeq
		}
		c.emit(ncs.Instruction{Op: cmp})
		c.depth -= 4
		return value.KindInt, nil

	case "<", "<=", ">", ">=":
		if !numeric {
			return mismatch()
		}
		var cmp ncs.Opcode
		switch op {
		case "<":
			cmp = ncs.OpLt
		case "<=":
			cmp = ncs.OpLe
		case ">":
			cmp = ncs.OpGt
		default:
			cmp = ncs.OpGe
		}
		c.emit(ncs.Instruction{Op: cmp})
		c.depth -= 4
		return value.KindInt, nil

	case "&", "|", "^", "<<", ">>", ">>>":
		if left != value.KindInt || right != value.KindInt {
			return mismatch()
		}
		bit := map[string]ncs.Opcode{
			"&": ncs.OpAnd, "|": ncs.OpOr, "^": ncs.OpXor,
			"<<": ncs.OpShl, ">>": ncs.OpShr, ">>>": ncs.OpUshr,
		}[op]
		c.emit(ncs.Instruction{Op: bit})
		c.depth -= 4
		return value.KindInt, nil
	}
	return 0, c.errf(tok, errInternal, "unexpected operator %s", op)
}

func (c *Compiler) compileAssign(n *ast.AssignExpression) (value.Kind, error) {
	switch target := n.Left.(type) {
	case *ast.Identifier:
		return c.compileAssignVar(n, target)
	case *ast.MemberExpression:
		return c.compileAssignMember(n, target)
	}
	return 0, c.errf(n.Token, errNotAssignable, "cannot assign to this expression")
}

// compileAssignVar stores into a whole variable. The stored value stays
// on the stack as the expression's result.
func (c *Compiler) compileAssignVar(n *ast.AssignExpression, id *ast.Identifier) (value.Kind, error) {
	l, ok := c.resolveLocal(id.Value)
	if !ok {
		if _, isConst := c.consts[id.Value]; isConst {
			return 0, c.errf(id.Token, errNotAssignable, "cannot assign to constant %s", id.Value)
		}
		return 0, c.errf(id.Token, errUnknownIdent, "unknown variable %s", id.Value)
	}

	if n.Op == token.ASSIGN {
		if err := c.compileExprAs(n.Value, l.kind, errTypeMismatch,
			fmt.Sprintf("assignment to %s %s", l.kind, id.Value)); err != nil {
			return 0, err
		}
	} else {
		// x op= e compiles as x = x op e.
		if _, err := c.compileIdentifier(id); err != nil {
			return 0, err
		}
		right, err := c.compileExpr(n.Value)
		if err != nil {
			return 0, err
		}
		got, err := c.emitBinaryOp(n.Token, compoundOp(n.Op), l.kind, right)
		if err != nil {
			return 0, err
		}
		if got != l.kind {
			return 0, c.errf(n.Token, errTypeMismatch, "operator %s yields %s, cannot store in %s %s",
				n.Token.Literal, got, l.kind, id.Value)
		}
	}

	c.emitAB(ncs.OpCopyDownSP, l.base-c.depth, sizeOf(l.kind))
	return l.kind, nil
}

// compileAssignMember stores into one component of a vector variable.
func (c *Compiler) compileAssignMember(n *ast.AssignExpression, m *ast.MemberExpression) (value.Kind, error) {
	id, ok := m.Object.(*ast.Identifier)
	if !ok {
		return 0, c.errf(m.Token, errNotAssignable, "cannot assign to this expression")
	}
	l, ok := c.resolveLocal(id.Value)
	if !ok {
		return 0, c.errf(id.Token, errUnknownIdent, "unknown variable %s", id.Value)
	}
	off, err := c.vectorField(l.kind, m)
	if err != nil {
		return 0, err
	}

	if n.Op == token.ASSIGN {
		if err := c.compileExprAs(n.Value, value.KindFloat, errTypeMismatch,
			fmt.Sprintf("assignment to %s.%s", id.Value, m.Property.Value)); err != nil {
			return 0, err
		}
	} else {
		c.emitAB(ncs.OpCopyTopSP, (l.base+off)-c.depth, 4)
		c.depth += 4
		right, err := c.compileExpr(n.Value)
		if err != nil {
			return 0, err
		}
		got, err := c.emitBinaryOp(n.Token, compoundOp(n.Op), value.KindFloat, right)
		if err != nil {
			return 0, err
		}
		if got != value.KindFloat {
			return 0, c.errf(n.Token, errTypeMismatch, "operator %s yields %s, component %s.%s is float",
				n.Token.Literal, got, id.Value, m.Property.Value)
		}
	}

	c.emitAB(ncs.OpCopyDownSP, (l.base+off)-c.depth, 4)
	return value.KindFloat, nil
}

func compoundOp(t token.Type) string {
	switch t {
	case token.PLUSASSIGN:
		return "+"
	case token.MINUSASSIGN:
		return "-"
	case token.STARASSIGN:
		return "*"
	default:
		return "/"
	}
}

// vectorField maps a .x .y .z access to its byte offset inside the
// three-cell vector block.
func (c *Compiler) vectorField(kind value.Kind, m *ast.MemberExpression) (int32, error) {
	if kind != value.KindVector {
		return 0, c.errf(m.Token, errMember, "%s has no components, only vectors do", kind)
	}
	switch m.Property.Value {
	case "x":
		return 0, nil
	case "y":
		return 4, nil
	case "z":
		return 8, nil
	}
	return 0, c.errf(m.Property.Token, errMember, "vectors have components x, y and z, not %s", m.Property.Value)
}

func (c *Compiler) compileMember(n *ast.MemberExpression) (value.Kind, error) {
	// A named vector reads its component in place.
	if id, ok := n.Object.(*ast.Identifier); ok {
		if l, ok := c.resolveLocal(id.Value); ok {
			off, err := c.vectorField(l.kind, n)
			if err != nil {
				return 0, err
			}
			c.emitAB(ncs.OpCopyTopSP, (l.base+off)-c.depth, 4)
			c.depth += 4
			return value.KindFloat, nil
		}
	}

	// Anything else materializes the vector and keeps one component.
	kind, err := c.compileExpr(n.Object)
	if err != nil {
		return 0, err
	}
	off, err := c.vectorField(kind, n)
	if err != nil {
		return 0, err
	}
	c.emit(ncs.Instruction{Op: ncs.OpDestruct, A: 12, B: off, C: 4})
	c.depth -= 8
	return value.KindFloat, nil
}

func (c *Compiler) compileCall(n *ast.CallExpression) (value.Kind, error) {
	id, ok := n.Function.(*ast.Identifier)
	if !ok {
		return 0, c.errf(n.Token, errUnknownFunc, "only named functions can be called")
	}
	if fi, ok := c.funcs[id.Value]; ok {
		return c.compileScriptCall(n, id, fi)
	}
	if rid, ok := c.table.LookupName(id.Value); ok {
		return c.compileEngineCall(n, id, rid)
	}
	return 0, c.errf(id.Token, errUnknownFunc, "unknown function %s", id.Value)
}

// compileScriptCall emits a call to a script function: reserve the
// return slot, push arguments first to last, jump. The callee drops
// the arguments on its way out.
func (c *Compiler) compileScriptCall(n *ast.CallExpression, id *ast.Identifier, fi *funcInfo) (value.Kind, error) {
	if len(n.Arguments) > len(fi.params) {
		return 0, c.errf(n.Token, errArgCount, "%s takes %d arguments, got %d",
			fi.name, len(fi.params), len(n.Arguments))
	}

	if fi.ret != value.KindVoid {
		c.emitA(ncs.OpReserve, int32(fi.ret))
		c.depth += sizeOf(fi.ret)
	}

	for i, p := range fi.params {
		if i < len(n.Arguments) {
			if err := c.compileExprAs(n.Arguments[i], p.kind, errArgType,
				fmt.Sprintf("argument %d of %s", i+1, fi.name)); err != nil {
				return 0, err
			}
			continue
		}
		if p.def == nil {
			return 0, c.errf(n.Token, errArgCount, "%s needs argument %d (%s)", fi.name, i+1, p.name)
		}
		c.emitConst(*p.def)
	}

	fi.calls = append(fi.calls, callSite{at: len(c.code), tok: id.Token, file: c.file})
	c.emit(ncs.Instruction{Op: ncs.OpJsr})
	c.depth -= fi.argBytes()
	return fi.ret, nil
}

// compileEngineCall emits a routine call. Arguments go on the stack
// last to first so the first parameter ends up on top, and omitted
// trailing arguments are materialized from the declared defaults, so
// the interpreter always sees the full argument count.
func (c *Compiler) compileEngineCall(n *ast.CallExpression, id *ast.Identifier, rid int32) (value.Kind, error) {
	sig := c.table.ByID(rid)
	if len(n.Arguments) > len(sig.Params) {
		return 0, c.errf(n.Token, errArgCount, "%s takes %d arguments, got %d",
			sig.Name, len(sig.Params), len(n.Arguments))
	}

	for i := len(sig.Params) - 1; i >= 0; i-- {
		p := sig.Params[i]
		if i >= len(n.Arguments) {
			if p.Default == nil {
				return 0, c.errf(n.Token, errArgCount, "%s needs argument %d (%s)", sig.Name, i+1, p.Name)
			}
			c.emitValue(*p.Default)
			continue
		}
		if p.Kind == value.KindAction {
			if err := c.compileActionArg(n.Arguments[i]); err != nil {
				return 0, err
			}
			continue
		}
		if err := c.compileExprAs(n.Arguments[i], p.Kind, errArgType,
			fmt.Sprintf("argument %d of %s", i+1, sig.Name)); err != nil {
			return 0, err
		}
	}

	c.emitAB(ncs.OpAction, rid, int32(len(sig.Params)))
	for _, p := range sig.Params {
		c.depth -= sizeOf(p.Kind)
	}
	c.depth += sizeOf(sig.Ret)
	return sig.Ret, nil
}

// compileActionArg wraps a call in a deferred action. The capture
// snapshots the running stack, so the body compiles against the same
// depth the capture point has; an unconditional jump keeps the body
// from running inline.
func (c *Compiler) compileActionArg(arg ast.Expression) error {
	call, ok := arg.(*ast.CallExpression)
	if !ok {
		return c.errf(tokenOfExpr(arg), errActionArg, "an action argument must be a function call")
	}

	ss := len(c.code)
	c.emit(ncs.Instruction{Op: ncs.OpStoreState})
	skip := len(c.code)
	c.emit(ncs.Instruction{Op: ncs.OpJmp})
	c.code[ss].A = int32(len(c.code))

	save := c.depth
	kind, err := c.compileCall(call)
	if err != nil {
		return err
	}
	if kind != value.KindVoid {
		c.emitA(ncs.OpMovSP, -sizeOf(kind))
	}
	c.emit(ncs.Instruction{Op: ncs.OpRet})
	c.depth = save

	c.code[skip].A = int32(len(c.code))
	c.depth += 4
	return nil
}
