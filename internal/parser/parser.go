package parser

import (
	"fmt"

	"aurora/internal/ast"
	"aurora/internal/diag"
	"aurora/internal/lexer"
	"aurora/internal/numlit"
	"aurora/internal/token"
)

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l      *lexer.Lexer
	errors []string
	diags  []diag.Diagnostic

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

/* -------------------- precedence -------------------- */

const (
	_ int = iota
	LOWEST
	ASSIGNPREC  // = += -= *= /=
	ORPREC      // ||
	ANDPREC     // &&
	BITOR       // |
	BITXOR      // ^
	BITAND      // &
	EQUALS      // == !=
	LESSGREATER // < <= > >=
	SHIFT       // << >> >>>
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -x !x ~x ++x --x
	POSTFIX     // x++ x--
	CALL        // fn(x), v.x
)

var precedences = map[token.Type]int{
	token.ASSIGN:      ASSIGNPREC,
	token.PLUSASSIGN:  ASSIGNPREC,
	token.MINUSASSIGN: ASSIGNPREC,
	token.STARASSIGN:  ASSIGNPREC,
	token.SLASHASSIGN: ASSIGNPREC,
	token.OR:          ORPREC,
	token.AND:         ANDPREC,
	token.PIPE:        BITOR,
	token.CARET:       BITXOR,
	token.AMP:         BITAND,
	token.EQ:          EQUALS,
	token.NE:          EQUALS,
	token.LT:          LESSGREATER,
	token.LE:          LESSGREATER,
	token.GT:          LESSGREATER,
	token.GE:          LESSGREATER,
	token.SHL:         SHIFT,
	token.SHR:         SHIFT,
	token.USHR:        SHIFT,
	token.PLUS:        SUM,
	token.MINUS:       SUM,
	token.STAR:        PRODUCT,
	token.SLASH:       PRODUCT,
	token.PERCENT:     PRODUCT,
	token.INC:         POSTFIX,
	token.DEC:         POSTFIX,
	token.LPAREN:      CALL,
	token.DOT:         CALL,
}

/* -------------------- constructor -------------------- */

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:              l,
		errors:         []string{},
		diags:          []diag.Diagnostic{},
		prefixParseFns: map[token.Type]prefixParseFn{},
		infixParseFns:  map[token.Type]infixParseFn{},
	}

	// read two tokens, so cur and peek are set
	p.nextToken()
	p.nextToken()

	// Prefix parsers
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseIntLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseVectorLiteral)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.BANG, p.parsePrefixExpression)
	p.registerPrefix(token.TILDE, p.parsePrefixExpression)
	p.registerPrefix(token.INC, p.parsePrefixExpression)
	p.registerPrefix(token.DEC, p.parsePrefixExpression)

	// Infix parsers
	for _, tt := range []token.Type{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE,
		token.AND, token.OR,
		token.AMP, token.PIPE, token.CARET,
		token.SHL, token.SHR, token.USHR,
	} {
		p.registerInfix(tt, p.parseInfixExpression)
	}
	for _, tt := range []token.Type{
		token.ASSIGN, token.PLUSASSIGN, token.MINUSASSIGN,
		token.STARASSIGN, token.SLASHASSIGN,
	} {
		p.registerInfix(tt, p.parseAssignExpression)
	}
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.DOT, p.parseMemberExpression)
	p.registerInfix(token.INC, p.parsePostfixExpression)
	p.registerInfix(token.DEC, p.parsePostfixExpression)

	return p
}

func (p *Parser) Diagnostics() []diag.Diagnostic { return p.diags }
func (p *Parser) Errors() []string               { return p.errors }

/* -------------------- program -------------------- */

// ParseProgram parses one translation unit. File scope admits include
// directives, const declarations, prototypes and function definitions.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Statements: []ast.Statement{}}

	for p.curToken.Type != token.EOF {
		if p.curToken.Type == token.SEMICOLON {
			p.nextToken()
			continue
		}

		stmt := p.parseTopLevel()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}

		p.nextToken()
	}

	return program
}

func (p *Parser) parseTopLevel() ast.Statement {
	switch {
	case p.curToken.Type == token.INCLUDE:
		return p.parseIncludeDirective()
	case p.curToken.Type == token.CONST:
		return p.parseConstDecl()
	case p.curToken.Type == token.KWSTRUCT:
		p.errorAt(p.curToken, "struct declarations are not supported")
		return nil
	case p.curToken.Type == token.KWVOID || token.IsType(p.curToken.Type):
		return p.parseFuncOrGlobal()
	default:
		p.errorAt(p.curToken, "expected declaration at file scope, got "+string(p.curToken.Type))
		return nil
	}
}

func (p *Parser) parseIncludeDirective() ast.Statement {
	stmt := &ast.IncludeDirective{Token: p.curToken}

	if !p.expectPeek(token.STRING) {
		return nil
	}
	stmt.Path = &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}

	return stmt
}

func (p *Parser) parseConstDecl() ast.Statement {
	stmt := &ast.ConstDecl{Token: p.curToken}

	p.nextToken()
	if !token.IsType(p.curToken.Type) {
		p.errorAt(p.curToken, "expected type after const")
		return nil
	}
	stmt.Type = &ast.TypeName{Token: p.curToken}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)

	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}

	return stmt
}

func (p *Parser) parseFuncOrGlobal() ast.Statement {
	typeTok := p.curToken

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if p.peekToken.Type == token.LPAREN {
		return p.parseFuncDeclFrom(typeTok, name)
	}

	// A file-scope variable. Whether the language admits one is the
	// compiler's call; here it is just a declaration.
	decl := &ast.VarDecl{Token: typeTok, Type: &ast.TypeName{Token: typeTok}, Name: name}

	if p.peekToken.Type == token.ASSIGN {
		p.nextToken() // consume '='
		p.nextToken()
		decl.Init = p.parseExpression(LOWEST)
	}

	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}

	return decl
}

// parseFuncDeclFrom finishes a function after "type name". A trailing
// semicolon instead of a body makes it a prototype.
func (p *Parser) parseFuncDeclFrom(typeTok token.Token, name *ast.Identifier) ast.Statement {
	fd := &ast.FuncDecl{
		Token:      typeTok,
		ReturnType: &ast.TypeName{Token: typeTok},
		Name:       name,
	}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	fd.Params = p.parseFuncParams()
	if fd.Params == nil && len(p.errors) > 0 {
		return nil
	}

	if p.peekToken.Type == token.SEMICOLON {
		p.nextToken()
		return fd
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	fd.Body = p.parseBlockStatement()

	return fd
}

func (p *Parser) parseFuncParams() []*ast.Param {
	params := []*ast.Param{}

	// curToken is '('
	if p.peekToken.Type == token.RPAREN {
		p.nextToken() // consume ')'
		return params
	}

	for {
		p.nextToken()
		if !token.IsType(p.curToken.Type) {
			p.errorAt(p.curToken, "expected parameter type, got "+string(p.curToken.Type))
			return nil
		}
		param := &ast.Param{Token: p.curToken, Type: &ast.TypeName{Token: p.curToken}}

		if !p.expectPeek(token.IDENT) {
			return nil
		}
		param.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

		if p.peekToken.Type == token.ASSIGN {
			p.nextToken() // consume '='
			p.nextToken()
			param.Default = p.parseExpression(LOWEST)
		}

		params = append(params, param)

		if p.peekToken.Type != token.COMMA {
			break
		}
		p.nextToken() // consume ','
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	return params
}

/* -------------------- statements -------------------- */

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.RETURN:
		return p.parseReturnStatement()
	case token.BREAK:
		stmt := &ast.BreakStatement{Token: p.curToken}
		if !p.expectPeek(token.SEMICOLON) {
			return nil
		}
		return stmt
	case token.CONTINUE:
		stmt := &ast.ContinueStatement{Token: p.curToken}
		if !p.expectPeek(token.SEMICOLON) {
			return nil
		}
		return stmt
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.DO:
		return p.parseDoWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.SWITCH:
		return p.parseSwitchStatement()
	case token.LBRACE:
		return p.parseBlockStatement()
	case token.SEMICOLON:
		// null statement
		return &ast.BlockStatement{Token: p.curToken}
	case token.KWSTRUCT:
		p.errorAt(p.curToken, "struct declarations are not supported")
		return nil
	case token.CONST:
		p.errorAt(p.curToken, "const declarations are only allowed at file scope")
		return nil
	default:
		if token.IsType(p.curToken.Type) {
			return p.parseVarDecl()
		}
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseVarDecl() ast.Statement {
	decl := &ast.VarDecl{Token: p.curToken, Type: &ast.TypeName{Token: p.curToken}}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	decl.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if p.peekToken.Type == token.ASSIGN {
		p.nextToken() // consume '='
		p.nextToken()
		decl.Init = p.parseExpression(LOWEST)
	}

	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}

	return decl
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken}

	if p.peekToken.Type == token.SEMICOLON {
		p.nextToken()
		return stmt
	}

	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)

	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}

	return stmt
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}

	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}

	return stmt
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)

	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	p.nextToken()
	stmt.Consequence = p.parseStatement()
	if stmt.Consequence == nil {
		return nil
	}

	if p.peekToken.Type == token.ELSE {
		p.nextToken() // move to ELSE
		p.nextToken() // first token of alternative
		stmt.Alternative = p.parseStatement()
		if stmt.Alternative == nil {
			return nil
		}
	}

	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)

	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	p.nextToken()
	stmt.Body = p.parseStatement()
	if stmt.Body == nil {
		return nil
	}

	return stmt
}

func (p *Parser) parseDoWhileStatement() ast.Statement {
	stmt := &ast.DoWhileStatement{Token: p.curToken}

	p.nextToken()
	stmt.Body = p.parseStatement()
	if stmt.Body == nil {
		return nil
	}

	if !p.expectPeek(token.WHILE) {
		return nil
	}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)

	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}

	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStatement{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}

	// init
	p.nextToken()
	if p.curToken.Type != token.SEMICOLON {
		stmt.Init = p.parseExpression(LOWEST)
		if !p.expectPeek(token.SEMICOLON) {
			return nil
		}
	}

	// cond
	p.nextToken()
	if p.curToken.Type != token.SEMICOLON {
		stmt.Cond = p.parseExpression(LOWEST)
		if !p.expectPeek(token.SEMICOLON) {
			return nil
		}
	}

	// post
	p.nextToken()
	if p.curToken.Type != token.RPAREN {
		stmt.Post = p.parseExpression(LOWEST)
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
	}

	p.nextToken()
	stmt.Body = p.parseStatement()
	if stmt.Body == nil {
		return nil
	}

	return stmt
}

func (p *Parser) parseSwitchStatement() ast.Statement {
	stmt := &ast.SwitchStatement{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	stmt.Cases = []*ast.CaseClause{}

	p.nextToken()
	for p.curToken.Type != token.RBRACE && p.curToken.Type != token.EOF {
		switch p.curToken.Type {
		case token.CASE:
			cc := &ast.CaseClause{Token: p.curToken}

			p.nextToken()
			cc.Value = p.parseExpression(LOWEST)
			if !p.expectPeek(token.COLON) {
				return nil
			}
			cc.Statements = p.parseCaseBody()
			stmt.Cases = append(stmt.Cases, cc)

		case token.DEFAULT:
			cc := &ast.CaseClause{Token: p.curToken}

			if !p.expectPeek(token.COLON) {
				return nil
			}
			cc.Statements = p.parseCaseBody()
			stmt.Cases = append(stmt.Cases, cc)

		default:
			p.errorAt(p.curToken, "unexpected token in switch: "+string(p.curToken.Type))
			return nil
		}
	}

	return stmt
}

// parseCaseBody collects the statements under a case label up to the
// next label or the closing brace. Fallthrough is the clause boundary,
// not a syntax feature, so nothing is consumed past the label.
func (p *Parser) parseCaseBody() []ast.Statement {
	stmts := []ast.Statement{}

	p.nextToken()
	for p.curToken.Type != token.CASE && p.curToken.Type != token.DEFAULT &&
		p.curToken.Type != token.RBRACE && p.curToken.Type != token.EOF {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		p.nextToken()
	}

	return stmts
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	// curToken is '{'
	block := &ast.BlockStatement{Token: p.curToken, Statements: []ast.Statement{}}

	p.nextToken()

	for p.curToken.Type != token.RBRACE && p.curToken.Type != token.EOF {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}

		p.nextToken()
	}

	return block
}

/* -------------------- expressions (Pratt) -------------------- */

func (p *Parser) parseExpression(precedence int) ast.Expression {
	if p.isTerminator(p.curToken.Type) {
		p.errorAt(p.curToken, "expected expression, got "+string(p.curToken.Type))
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken.Type)
		return nil
	}

	leftExp := prefix()

	for !p.peekIsTerminator() && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken() // advance to infix operator (or '(' for call)
		leftExp = infix(leftExp)
	}

	return leftExp
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseIntLiteral() ast.Expression {
	lit := &ast.IntLiteral{Token: p.curToken}
	v, err := numlit.ParseIntLiteral(p.curToken.Literal)
	if err != nil {
		p.errorAt(p.curToken, fmt.Sprintf("could not parse int %q: %v", p.curToken.Literal, err))
		return nil
	}
	lit.Value = v
	return lit
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	lit := &ast.FloatLiteral{Token: p.curToken}
	v, err := numlit.ParseFloatLiteral(p.curToken.Literal)
	if err != nil {
		p.errorAt(p.curToken, fmt.Sprintf("could not parse float %q: %v", p.curToken.Literal, err))
		return nil
	}
	lit.Value = v
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	// curToken is '('
	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parseVectorLiteral() ast.Expression {
	lit := &ast.VectorLiteral{Token: p.curToken}

	p.nextToken()
	lit.X = p.parseExpression(LOWEST)
	if !p.expectPeek(token.COMMA) {
		return nil
	}

	p.nextToken()
	lit.Y = p.parseExpression(LOWEST)
	if !p.expectPeek(token.COMMA) {
		return nil
	}

	p.nextToken()
	lit.Z = p.parseExpression(LOWEST)
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}

	return lit
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	exp := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}
	p.nextToken()
	exp.Right = p.parseExpression(PREFIX)
	return exp
}

func (p *Parser) parsePostfixExpression(left ast.Expression) ast.Expression {
	if _, ok := left.(*ast.Identifier); !ok {
		p.errorAt(p.curToken, p.curToken.Literal+" needs a variable operand")
		return nil
	}
	return &ast.PostfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Left:     left,
	}
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	exp := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Left:     left,
	}
	prec := p.curPrecedence()
	p.nextToken()
	exp.Right = p.parseExpression(prec)
	return exp
}

func (p *Parser) parseAssignExpression(left ast.Expression) ast.Expression {
	switch left.(type) {
	case *ast.Identifier, *ast.MemberExpression:
	default:
		p.errorAt(p.curToken, "invalid assignment target")
		return nil
	}

	exp := &ast.AssignExpression{
		Token: p.curToken,
		Op:    p.curToken.Type,
		Left:  left,
	}

	// Right associative: a = b = c parses as a = (b = c).
	p.nextToken()
	exp.Value = p.parseExpression(ASSIGNPREC - 1)
	return exp
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	if _, ok := function.(*ast.Identifier); !ok {
		p.errorAt(p.curToken, "only named functions can be called")
		return nil
	}

	// curToken is '('
	exp := &ast.CallExpression{
		Token:    p.curToken,
		Function: function,
	}
	exp.Arguments = p.parseCallArguments()
	return exp
}

func (p *Parser) parseMemberExpression(left ast.Expression) ast.Expression {
	exp := &ast.MemberExpression{Token: p.curToken, Object: left}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	exp.Property = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	return exp
}

func (p *Parser) parseCallArguments() []ast.Expression {
	args := []ast.Expression{}

	// If next token is ')', no args
	if p.peekToken.Type == token.RPAREN {
		p.nextToken() // consume ')'
		return args
	}

	p.nextToken() // first arg
	args = append(args, p.parseExpression(LOWEST))

	for p.peekToken.Type == token.COMMA {
		p.nextToken() // consume ','
		p.nextToken() // next arg
		args = append(args, p.parseExpression(LOWEST))
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	return args
}

/* -------------------- helpers -------------------- */

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) registerPrefix(t token.Type, fn prefixParseFn) {
	p.prefixParseFns[t] = fn
}

func (p *Parser) registerInfix(t token.Type, fn infixParseFn) {
	p.infixParseFns[t] = fn
}

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekToken.Type == t {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) errorAt(tok token.Token, msg string) {
	length := 1
	if tok.Literal != "" {
		length = len([]rune(tok.Literal))
	}
	p.diags = append(p.diags, diag.Diagnostic{
		Code:     "AP0001",
		Message:  msg,
		Severity: diag.SeverityError,
		Range: diag.Range{
			Line:   tok.Line,
			Col:    tok.Col,
			Length: length,
		},
	})
	p.errors = append(p.errors, msg)
}

func (p *Parser) peekError(t token.Type) {
	msg := fmt.Sprintf("expected next token to be %s, got %s instead", t, p.peekToken.Type)
	p.errorAt(p.peekToken, msg)
}

func (p *Parser) noPrefixParseFnError(t token.Type) {
	msg := fmt.Sprintf("no prefix parse function for %s", t)
	p.errorAt(p.curToken, msg)
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) isTerminator(t token.Type) bool {
	return t == token.SEMICOLON || t == token.RBRACE || t == token.RPAREN ||
		t == token.RBRACKET || t == token.COMMA || t == token.COLON || t == token.EOF
}

func (p *Parser) peekIsTerminator() bool {
	return p.isTerminator(p.peekToken.Type)
}
