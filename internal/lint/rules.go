package lint

import (
	"fmt"

	"aurora/internal/ast"
	"aurora/internal/diag"
	"aurora/internal/token"
)

// Warning codes. AW#### keeps lint out of the compiler's AC space.
const (
	warnUnusedVar   = "AW0001"
	warnUnusedParam = "AW0002"
	warnUnreachable = "AW0003"
	warnShadow      = "AW0004"
)

type symKind int

const (
	kindVar symKind = iota
	kindParam
	kindGlobal
	kindConst
	kindFunc
)

type sym struct {
	name string
	tok  token.Token
	used bool
	kind symKind
}

type scope struct {
	parent *scope
	syms   map[string]*sym
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, syms: map[string]*sym{}}
}

func (s *scope) lookup(name string) *sym {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.syms[name]; ok {
			return v
		}
	}
	return nil
}

type runner struct {
	diags []diag.Diagnostic
	sc    *scope
	opts  Options
}

func (r *runner) warn(tok token.Token, code string, msg string) {
	r.diags = append(r.diags, diag.Warnf(code, diag.Range{
		Line:   tok.Line,
		Col:    tok.Col,
		Length: tokLength(tok),
	}, "%s", msg))
}

func tokLength(tok token.Token) int {
	if tok.Literal == "" {
		return 1
	}
	return len([]rune(tok.Literal))
}

func (r *runner) push() { r.sc = newScope(r.sc) }

// pop reports dead locals. Top-level names stay quiet: include files
// declare globals and constants for other files to use.
func (r *runner) pop() {
	for name, sm := range r.sc.syms {
		if sm.used {
			continue
		}
		switch sm.kind {
		case kindVar:
			r.warn(sm.tok, warnUnusedVar, fmt.Sprintf("unused variable: %s", name))
		case kindParam:
			r.warn(sm.tok, warnUnusedParam, fmt.Sprintf("unused parameter: %s", name))
		}
	}
	r.sc = r.sc.parent
}

func (r *runner) declare(name string, tok token.Token, k symKind) {
	if name == "" {
		return
	}
	if r.opts.CheckShadowing && r.sc.parent != nil {
		if outer := r.sc.parent.lookup(name); outer != nil && (outer.kind == kindVar || outer.kind == kindParam) {
			r.warn(tok, warnShadow, fmt.Sprintf("declaration of %s shadows an outer variable", name))
		}
	}
	r.sc.syms[name] = &sym{name: name, tok: tok, kind: k}
}

func (r *runner) use(name string) {
	if name == "" {
		return
	}
	if sm := r.sc.lookup(name); sm != nil {
		sm.used = true
	}
}

// walkProgram declares every top-level name before walking bodies, so
// calls ahead of the lexical definition still resolve.
func (r *runner) walkProgram(p *ast.Program) {
	for _, st := range p.Statements {
		switch n := st.(type) {
		case *ast.ConstDecl:
			if n.Name != nil {
				r.declare(n.Name.Value, n.Name.Token, kindConst)
			}
		case *ast.VarDecl:
			if n.Name != nil {
				r.declare(n.Name.Value, n.Name.Token, kindGlobal)
			}
		case *ast.FuncDecl:
			if n.Name != nil {
				r.declare(n.Name.Value, n.Name.Token, kindFunc)
			}
		}
	}
	for _, st := range p.Statements {
		switch n := st.(type) {
		case *ast.ConstDecl:
			r.walkExpr(n.Value)
		case *ast.VarDecl:
			r.walkExpr(n.Init)
		case *ast.FuncDecl:
			r.walkFunc(n)
		}
	}
}

func (r *runner) walkFunc(fn *ast.FuncDecl) {
	if fn.Body == nil {
		return
	}
	r.push()
	for _, p := range fn.Params {
		r.walkExpr(p.Default)
		if p.Name != nil {
			r.declare(p.Name.Value, p.Name.Token, kindParam)
		}
	}
	r.walkBlock(fn.Body)
	r.pop()
}

func (r *runner) walkBlock(b *ast.BlockStatement) {
	if b == nil {
		return
	}
	r.push()
	r.walkStmts(b.Statements)
	r.pop()
}

func (r *runner) walkStmts(stmts []ast.Statement) {
	terminated := false
	for _, st := range stmts {
		if terminated {
			r.warn(firstTokenOfStmt(st), warnUnreachable, "unreachable code")
		}
		r.walkStmt(st)
		if isTerminator(st) {
			terminated = true
		}
	}
}

func (r *runner) walkStmt(st ast.Statement) {
	switch n := st.(type) {
	case *ast.VarDecl:
		r.walkExpr(n.Init)
		if n.Name != nil {
			r.declare(n.Name.Value, n.Name.Token, kindVar)
		}
	case *ast.ExpressionStatement:
		r.walkExpr(n.Expression)
	case *ast.ReturnStatement:
		r.walkExpr(n.Value)
	case *ast.BlockStatement:
		r.walkBlock(n)
	case *ast.IfStatement:
		r.walkExpr(n.Condition)
		r.walkBody(n.Consequence)
		r.walkBody(n.Alternative)
	case *ast.WhileStatement:
		r.walkExpr(n.Condition)
		r.walkBody(n.Body)
	case *ast.DoWhileStatement:
		r.walkBody(n.Body)
		r.walkExpr(n.Condition)
	case *ast.ForStatement:
		r.walkExpr(n.Init)
		r.walkExpr(n.Cond)
		r.walkExpr(n.Post)
		r.walkBody(n.Body)
	case *ast.SwitchStatement:
		r.walkExpr(n.Value)
		for _, c := range n.Cases {
			if c == nil {
				continue
			}
			r.walkExpr(c.Value)
			r.push()
			// Case bodies fall through, so the unreachable check does
			// not apply across clause boundaries.
			for _, cs := range c.Statements {
				r.walkStmt(cs)
			}
			r.pop()
		}
	}
}

// walkBody handles the single-statement and block forms of a control
// body. A bare statement still opens a scope so `if (x) int y = 1;`
// does not leak y.
func (r *runner) walkBody(st ast.Statement) {
	if st == nil {
		return
	}
	if b, ok := st.(*ast.BlockStatement); ok {
		r.walkBlock(b)
		return
	}
	r.push()
	r.walkStmt(st)
	r.pop()
}

func (r *runner) walkExpr(ex ast.Expression) {
	if ex == nil {
		return
	}
	switch n := ex.(type) {
	case *ast.Identifier:
		r.use(n.Value)
	case *ast.PrefixExpression:
		r.walkExpr(n.Right)
	case *ast.PostfixExpression:
		r.walkExpr(n.Left)
	case *ast.InfixExpression:
		r.walkExpr(n.Left)
		r.walkExpr(n.Right)
	case *ast.AssignExpression:
		// Plain = writes without reading; compound forms read first.
		if n.Op != token.ASSIGN {
			r.walkExpr(n.Left)
		} else if mem, ok := n.Left.(*ast.MemberExpression); ok {
			// Writing one vector component still reads the vector.
			r.walkExpr(mem.Object)
		}
		r.markAssigned(n.Left)
		r.walkExpr(n.Value)
	case *ast.MemberExpression:
		r.walkExpr(n.Object)
	case *ast.CallExpression:
		r.walkExpr(n.Function)
		for _, a := range n.Arguments {
			r.walkExpr(a)
		}
	case *ast.VectorLiteral:
		r.walkExpr(n.X)
		r.walkExpr(n.Y)
		r.walkExpr(n.Z)
	}
}

// markAssigned keeps a write from tripping the unused check when the
// target was never declared locally; reads alone decide usedness.
func (r *runner) markAssigned(ex ast.Expression) {
	if id, ok := ex.(*ast.Identifier); ok {
		// Assigning to a global or parameter counts as use: the value
		// escapes the local frame or the caller supplied it.
		if sm := r.sc.lookup(id.Value); sm != nil && sm.kind != kindVar {
			sm.used = true
		}
	}
}

func isTerminator(st ast.Statement) bool {
	switch st.(type) {
	case *ast.ReturnStatement:
		return true
	case *ast.BreakStatement:
		return true
	case *ast.ContinueStatement:
		return true
	}
	return false
}

func firstTokenOfStmt(st ast.Statement) token.Token {
	switch n := st.(type) {
	case *ast.VarDecl:
		return n.Token
	case *ast.ExpressionStatement:
		return n.Token
	case *ast.ReturnStatement:
		return n.Token
	case *ast.BreakStatement:
		return n.Token
	case *ast.ContinueStatement:
		return n.Token
	case *ast.BlockStatement:
		return n.Token
	case *ast.IfStatement:
		return n.Token
	case *ast.WhileStatement:
		return n.Token
	case *ast.DoWhileStatement:
		return n.Token
	case *ast.ForStatement:
		return n.Token
	case *ast.SwitchStatement:
		return n.Token
	}
	return token.Token{Line: 1, Col: 1}
}
