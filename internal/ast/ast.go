package ast

import (
	"bytes"

	"aurora/internal/token"
)

type Node interface {
	TokenLiteral() string
	String() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// Program is one translation unit: includes, file-scope constants,
// prototypes and function definitions, in source order.
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// TypeName is a type keyword as written in source.
type TypeName struct {
	Token token.Token // one of the type keywords
}

func (tn *TypeName) Name() string {
	if tn == nil {
		return "void"
	}
	return tn.Token.Literal
}

func (tn *TypeName) String() string { return tn.Name() }

/* -------------------- Statements -------------------- */

type IncludeDirective struct {
	Token token.Token // '#include'
	Path  *StringLiteral
}

func (*IncludeDirective) statementNode()          {}
func (id *IncludeDirective) TokenLiteral() string { return id.Token.Literal }
func (id *IncludeDirective) String() string {
	return "#include " + id.Path.String()
}

type ConstDecl struct {
	Token token.Token // 'const'
	Type  *TypeName
	Name  *Identifier
	Value Expression
}

func (*ConstDecl) statementNode()          {}
func (cd *ConstDecl) TokenLiteral() string { return cd.Token.Literal }
func (cd *ConstDecl) String() string {
	var out bytes.Buffer
	out.WriteString("const ")
	out.WriteString(cd.Type.String())
	out.WriteString(" ")
	out.WriteString(cd.Name.String())
	out.WriteString(" = ")
	if cd.Value != nil {
		out.WriteString(cd.Value.String())
	}
	out.WriteString(";")
	return out.String()
}

type Param struct {
	Token   token.Token // type keyword
	Type    *TypeName
	Name    *Identifier
	Default Expression // optional
}

func (p *Param) String() string {
	var out bytes.Buffer
	out.WriteString(p.Type.String())
	out.WriteString(" ")
	out.WriteString(p.Name.String())
	if p.Default != nil {
		out.WriteString(" = ")
		out.WriteString(p.Default.String())
	}
	return out.String()
}

// FuncDecl is a prototype when Body is nil, a definition otherwise.
type FuncDecl struct {
	Token      token.Token // return type keyword
	ReturnType *TypeName
	Name       *Identifier
	Params     []*Param
	Body       *BlockStatement
}

func (*FuncDecl) statementNode()          {}
func (fd *FuncDecl) TokenLiteral() string { return fd.Token.Literal }
func (fd *FuncDecl) String() string {
	var out bytes.Buffer
	out.WriteString(fd.ReturnType.String())
	out.WriteString(" ")
	out.WriteString(fd.Name.String())
	out.WriteString("(")
	for i, p := range fd.Params {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(p.String())
	}
	out.WriteString(")")
	if fd.Body == nil {
		out.WriteString(";")
		return out.String()
	}
	out.WriteString(" ")
	out.WriteString(fd.Body.String())
	return out.String()
}

type VarDecl struct {
	Token token.Token // type keyword
	Type  *TypeName
	Name  *Identifier
	Init  Expression // optional
}

func (*VarDecl) statementNode()          {}
func (vd *VarDecl) TokenLiteral() string { return vd.Token.Literal }
func (vd *VarDecl) String() string {
	var out bytes.Buffer
	out.WriteString(vd.Type.String())
	out.WriteString(" ")
	out.WriteString(vd.Name.String())
	if vd.Init != nil {
		out.WriteString(" = ")
		out.WriteString(vd.Init.String())
	}
	out.WriteString(";")
	return out.String()
}

type ExpressionStatement struct {
	Token      token.Token // first token of expression
	Expression Expression
}

func (*ExpressionStatement) statementNode()          {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) String() string {
	if es.Expression == nil {
		return ""
	}
	return es.Expression.String() + ";"
}

type ReturnStatement struct {
	Token token.Token // 'return'
	Value Expression  // nil in void functions
}

func (*ReturnStatement) statementNode()          {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) String() string {
	var out bytes.Buffer
	out.WriteString("return")
	if rs.Value != nil {
		out.WriteString(" ")
		out.WriteString(rs.Value.String())
	}
	out.WriteString(";")
	return out.String()
}

type BreakStatement struct {
	Token token.Token // 'break'
}

func (*BreakStatement) statementNode()          {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BreakStatement) String() string       { return "break;" }

type ContinueStatement struct {
	Token token.Token // 'continue'
}

func (*ContinueStatement) statementNode()          {}
func (cs *ContinueStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *ContinueStatement) String() string       { return "continue;" }

type BlockStatement struct {
	Token      token.Token // '{'
	Statements []Statement
}

func (*BlockStatement) statementNode()          {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	out.WriteString("{\n")
	for _, s := range bs.Statements {
		out.WriteString("  ")
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	out.WriteString("}")
	return out.String()
}

type IfStatement struct {
	Token       token.Token // 'if'
	Condition   Expression
	Consequence Statement
	Alternative Statement // may be nil
}

func (*IfStatement) statementNode()          {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("if (")
	out.WriteString(is.Condition.String())
	out.WriteString(") ")
	if is.Consequence != nil {
		out.WriteString(is.Consequence.String())
	}
	if is.Alternative != nil {
		out.WriteString(" else ")
		out.WriteString(is.Alternative.String())
	}
	return out.String()
}

type WhileStatement struct {
	Token     token.Token // 'while'
	Condition Expression
	Body      Statement
}

func (*WhileStatement) statementNode()          {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) String() string {
	var out bytes.Buffer
	out.WriteString("while (")
	out.WriteString(ws.Condition.String())
	out.WriteString(") ")
	out.WriteString(ws.Body.String())
	return out.String()
}

type DoWhileStatement struct {
	Token     token.Token // 'do'
	Body      Statement
	Condition Expression
}

func (*DoWhileStatement) statementNode()          {}
func (ds *DoWhileStatement) TokenLiteral() string { return ds.Token.Literal }
func (ds *DoWhileStatement) String() string {
	var out bytes.Buffer
	out.WriteString("do ")
	out.WriteString(ds.Body.String())
	out.WriteString(" while (")
	out.WriteString(ds.Condition.String())
	out.WriteString(");")
	return out.String()
}

type ForStatement struct {
	Token token.Token // 'for'
	Init  Expression  // may be nil
	Cond  Expression  // may be nil (treated as true)
	Post  Expression  // may be nil
	Body  Statement
}

func (*ForStatement) statementNode()          {}
func (fs *ForStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForStatement) String() string {
	var out bytes.Buffer
	out.WriteString("for (")
	if fs.Init != nil {
		out.WriteString(fs.Init.String())
	}
	out.WriteString("; ")
	if fs.Cond != nil {
		out.WriteString(fs.Cond.String())
	}
	out.WriteString("; ")
	if fs.Post != nil {
		out.WriteString(fs.Post.String())
	}
	out.WriteString(") ")
	out.WriteString(fs.Body.String())
	return out.String()
}

// CaseClause is one case or default label plus the statements under it.
// Execution falls through to the next clause unless it hits break.
type CaseClause struct {
	Token      token.Token // 'case' or 'default'
	Value      Expression  // nil for default
	Statements []Statement
}

func (cc *CaseClause) String() string {
	var out bytes.Buffer
	if cc.Value == nil {
		out.WriteString("default:")
	} else {
		out.WriteString("case ")
		out.WriteString(cc.Value.String())
		out.WriteString(":")
	}
	for _, s := range cc.Statements {
		out.WriteString(" ")
		out.WriteString(s.String())
	}
	return out.String()
}

type SwitchStatement struct {
	Token token.Token // 'switch'
	Value Expression
	Cases []*CaseClause
}

func (*SwitchStatement) statementNode()          {}
func (ss *SwitchStatement) TokenLiteral() string { return ss.Token.Literal }
func (ss *SwitchStatement) String() string {
	var out bytes.Buffer
	out.WriteString("switch (")
	out.WriteString(ss.Value.String())
	out.WriteString(") {")
	for _, c := range ss.Cases {
		out.WriteString(" ")
		out.WriteString(c.String())
	}
	out.WriteString(" }")
	return out.String()
}

/* -------------------- Expressions -------------------- */

type Identifier struct {
	Token token.Token // IDENT
	Value string
}

func (*Identifier) expressionNode()        {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }

type IntLiteral struct {
	Token token.Token // INT
	Value int32
}

func (*IntLiteral) expressionNode()         {}
func (il *IntLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntLiteral) String() string       { return il.Token.Literal }

type FloatLiteral struct {
	Token token.Token // FLOAT
	Value float32
}

func (*FloatLiteral) expressionNode()         {}
func (fl *FloatLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FloatLiteral) String() string       { return fl.Token.Literal }

type StringLiteral struct {
	Token token.Token // STRING
	Value string
}

func (*StringLiteral) expressionNode()         {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string       { return `"` + sl.Value + `"` }

// VectorLiteral is the bracket form [x, y, z]. Components must be
// float expressions.
type VectorLiteral struct {
	Token token.Token // '['
	X, Y, Z Expression
}

func (*VectorLiteral) expressionNode()         {}
func (vl *VectorLiteral) TokenLiteral() string { return vl.Token.Literal }
func (vl *VectorLiteral) String() string {
	var out bytes.Buffer
	out.WriteString("[")
	out.WriteString(vl.X.String())
	out.WriteString(", ")
	out.WriteString(vl.Y.String())
	out.WriteString(", ")
	out.WriteString(vl.Z.String())
	out.WriteString("]")
	return out.String()
}

type PrefixExpression struct {
	Token    token.Token // prefix token, e.g. '-'
	Operator string
	Right    Expression
}

func (*PrefixExpression) expressionNode()         {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(pe.Operator)
	out.WriteString(pe.Right.String())
	out.WriteString(")")
	return out.String()
}

type PostfixExpression struct {
	Token    token.Token // '++' or '--'
	Operator string
	Left     Expression
}

func (*PostfixExpression) expressionNode()         {}
func (pe *PostfixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PostfixExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(pe.Left.String())
	out.WriteString(pe.Operator)
	out.WriteString(")")
	return out.String()
}

type InfixExpression struct {
	Token    token.Token // operator token
	Left     Expression
	Operator string
	Right    Expression
}

func (*InfixExpression) expressionNode()         {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(ie.Left.String())
	out.WriteString(" ")
	out.WriteString(ie.Operator)
	out.WriteString(" ")
	out.WriteString(ie.Right.String())
	out.WriteString(")")
	return out.String()
}

// AssignExpression covers = and the compound forms. Left is an
// Identifier or a MemberExpression over a vector.
type AssignExpression struct {
	Token token.Token // assignment operator token
	Op    token.Type
	Left  Expression
	Value Expression
}

func (*AssignExpression) expressionNode()         {}
func (ae *AssignExpression) TokenLiteral() string { return ae.Token.Literal }
func (ae *AssignExpression) String() string {
	var out bytes.Buffer
	out.WriteString(ae.Left.String())
	out.WriteString(" ")
	if ae.Token.Literal != "" {
		out.WriteString(ae.Token.Literal)
	} else {
		out.WriteString("=")
	}
	out.WriteString(" ")
	if ae.Value != nil {
		out.WriteString(ae.Value.String())
	}
	return out.String()
}

// MemberExpression accesses a vector component: v.x, v.y, v.z.
type MemberExpression struct {
	Token    token.Token // '.'
	Object   Expression
	Property *Identifier
}

func (*MemberExpression) expressionNode()         {}
func (me *MemberExpression) TokenLiteral() string { return me.Token.Literal }
func (me *MemberExpression) String() string {
	var out bytes.Buffer
	out.WriteString(me.Object.String())
	out.WriteString(".")
	out.WriteString(me.Property.String())
	return out.String()
}

type CallExpression struct {
	Token     token.Token // '('
	Function  Expression  // identifier
	Arguments []Expression
}

func (*CallExpression) expressionNode()         {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) String() string {
	var out bytes.Buffer
	out.WriteString(ce.Function.String())
	out.WriteString("(")
	for i, a := range ce.Arguments {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(a.String())
	}
	out.WriteString(")")
	return out.String()
}
