// Package compiler translates script source into executable bytecode.
//
// Compilation is typed: every expression has a static kind, operator
// and argument rules are enforced before anything runs, and the
// compile scope tracks operand-stack depth in bytes so locals resolve
// to fixed offsets. After any complete statement the tracked depth is
// back where the statement found it; a violation is a compiler bug and
// surfaces as an internal error rather than bad code.
//
// Calls follow one convention. The caller reserves the return slot,
// pushes arguments left to right and jumps; the callee writes its
// result down into the slot and drops its locals and parameters before
// returning. Engine calls instead push arguments last to first and let
// the interpreter consume them.
package compiler

import (
	"fmt"

	"aurora/internal/ast"
	"aurora/internal/diag"
	"aurora/internal/lexer"
	"aurora/internal/ncs"
	"aurora/internal/parser"
	"aurora/internal/routines"
	"aurora/internal/token"
	"aurora/internal/value"
)

// SourceLoader resolves #include names to source text.
type SourceLoader interface {
	LoadSource(name string) (string, error)
}

type Options struct {
	// Game selects the engine routine table and named constants.
	Game routines.Game
	// Table overrides the routine table; defaults to the Game's table.
	Table *routines.Table
	// Source resolves includes. A nil loader makes #include an error.
	Source SourceLoader
	// Optimize runs the peephole passes over the emitted code.
	Optimize bool
}

// Error is a compile failure: a stable code, a message and a 1-based
// source position. Parse failures come through with their own codes.
type Error struct {
	Code    string
	Message string
	Line    int
	Col     int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: error %s: %s", e.Line, e.Col, e.Code, e.Message)
}

// Compile error codes.
const (
	errUnknownIdent  = "AC0001"
	errUnknownFunc   = "AC0002"
	errTypeMismatch  = "AC0003"
	errArgCount      = "AC0004"
	errArgType       = "AC0005"
	errCondition     = "AC0006"
	errNotAssignable = "AC0007"
	errReturnValue   = "AC0008"
	errMissingReturn = "AC0009"
	errBadJump       = "AC0010"
	errDuplicate     = "AC0011"
	errNotConstant   = "AC0012"
	errInclude       = "AC0013"
	errSwitchLabel   = "AC0014"
	errActionArg     = "AC0015"
	errMember        = "AC0016"
	errBadType       = "AC0017"
	errEntryPoint    = "AC0018"
	errSignature     = "AC0019"
	errInternal      = "AC0099"
)

// unit is one spliced source file: the statements of a file in order,
// with includes replaced by the included files' units.
type unit struct {
	file  string
	stmts []ast.Statement
}

type Compiler struct {
	opts  Options
	table *routines.Table

	consts map[string]foldVal
	funcs  map[string]*funcInfo

	code   []ncs.Instruction
	depth  int32
	scopes []scope
	breaks []breakable
	cur    *funcInfo

	file string
	root string
}

func New(opts Options) *Compiler {
	table := opts.Table
	if table == nil {
		table = routines.ForGame(opts.Game)
	}
	return &Compiler{opts: opts, table: table}
}

// Depth reports the tracked operand-stack depth in bytes. It is a
// probe for tests; between statements it equals the enclosing frame's
// size.
func (c *Compiler) Depth() int32 { return c.depth }

// Compile builds name's source into a program. src is the root file;
// includes are resolved through the configured loader.
func (c *Compiler) Compile(name, src string) (*ncs.Program, error) {
	c.consts = make(map[string]foldVal)
	for n, v := range routines.Constants(c.table.Game()) {
		c.consts[n] = foldInt(v)
	}
	c.funcs = make(map[string]*funcInfo)
	c.code = nil
	c.depth = 0
	c.scopes = nil
	c.breaks = nil
	c.cur = nil
	c.root = name
	c.file = name

	units, err := c.loadUnits(name, src, nil, make(map[string]bool))
	if err != nil {
		return nil, err
	}

	for _, u := range units {
		c.file = u.file
		for _, s := range u.stmts {
			switch n := s.(type) {
			case *ast.ConstDecl:
				if err := c.collectConst(n); err != nil {
					return nil, err
				}
			case *ast.FuncDecl:
				if err := c.collectFunc(n); err != nil {
					return nil, err
				}
			case *ast.VarDecl:
				return nil, c.errf(n.Name.Token, errNotConstant,
					"file-scope variable %s must be const; scripts share state through the variable-store routines", n.Name.Value)
			default:
				return nil, c.errf(tokenOf(s), errInternal, "unexpected file-scope statement %T", s)
			}
		}
	}

	entry, err := c.findEntry()
	if err != nil {
		return nil, err
	}

	// Preamble: reserve the exit value for conditional scripts, run
	// the entry function, halt when it returns.
	if entry.ret == value.KindInt {
		c.emitA(ncs.OpReserve, int32(value.KindInt))
	}
	entry.calls = append(entry.calls, callSite{at: len(c.code), tok: entry.decl, file: c.root})
	c.emit(ncs.Instruction{Op: ncs.OpJsr})
	c.emit(ncs.Instruction{Op: ncs.OpRet})

	for _, u := range units {
		c.file = u.file
		for _, s := range u.stmts {
			fd, ok := s.(*ast.FuncDecl)
			if !ok || fd.Body == nil {
				continue
			}
			if err := c.compileFunction(fd); err != nil {
				return nil, err
			}
		}
	}

	for _, fi := range c.funcs {
		if len(fi.calls) == 0 {
			continue
		}
		if !fi.defined {
			site := fi.calls[0]
			c.file = site.file
			return nil, c.errf(site.tok, errUnknownFunc, "function %s is declared but never defined", fi.name)
		}
		for _, site := range fi.calls {
			c.code[site.at].A = int32(fi.start)
		}
	}

	code := c.code
	if c.opts.Optimize {
		code = optimize(code)
	}
	return &ncs.Program{Name: name, Code: code}, nil
}

// loadUnits parses a file and splices its includes in textual order.
// A file is spliced once; re-including it later is a no-op, including
// it while it is still being loaded is a cycle.
func (c *Compiler) loadUnits(file, src string, stack []string, done map[string]bool) ([]unit, error) {
	for _, f := range stack {
		if f == file {
			return nil, &Error{Code: errInclude, Message: fmt.Sprintf("include cycle through %q", file)}
		}
	}
	if done[file] {
		return nil, nil
	}
	done[file] = true
	stack = append(stack, file)

	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	if err := c.firstParseError(file, p.Diagnostics()); err != nil {
		return nil, err
	}

	var units []unit
	cur := unit{file: file}
	for _, s := range prog.Statements {
		inc, ok := s.(*ast.IncludeDirective)
		if !ok {
			cur.stmts = append(cur.stmts, s)
			continue
		}
		if len(cur.stmts) > 0 {
			units = append(units, cur)
			cur = unit{file: file}
		}
		name := inc.Path.Value
		if c.opts.Source == nil {
			c.file = file
			return nil, c.errf(inc.Token, errInclude, "cannot include %q: no source loader configured", name)
		}
		text, err := c.opts.Source.LoadSource(name)
		if err != nil {
			c.file = file
			return nil, c.errf(inc.Token, errInclude, "cannot include %q: %v", name, err)
		}
		sub, err := c.loadUnits(name, text, stack, done)
		if err != nil {
			return nil, err
		}
		units = append(units, sub...)
	}
	units = append(units, cur)
	return units, nil
}

func (c *Compiler) firstParseError(file string, diags diag.List) error {
	for _, d := range diags {
		if d.Severity != diag.SeverityError {
			continue
		}
		msg := d.Message
		if file != c.root {
			msg = fmt.Sprintf("in %q: %s", file, msg)
		}
		return &Error{Code: d.Code, Message: msg, Line: d.Range.Line, Col: d.Range.Col}
	}
	return nil
}

func (c *Compiler) collectConst(cd *ast.ConstDecl) error {
	kind := kindOf(cd.Type)
	switch kind {
	case value.KindInt, value.KindFloat, value.KindString, value.KindObject:
	default:
		return c.errf(cd.Type.Token, errBadType, "const %s is not supported", kind)
	}
	name := cd.Name.Value
	if _, ok := c.consts[name]; ok {
		return c.errf(cd.Name.Token, errDuplicate, "constant %s is already defined", name)
	}
	if _, ok := c.funcs[name]; ok {
		return c.errf(cd.Name.Token, errDuplicate, "%s is already a function", name)
	}

	v, ok := c.fold(cd.Value)
	if !ok {
		return c.errf(cd.Name.Token, errNotConstant, "initializer of const %s is not a constant expression", name)
	}
	if kind == value.KindFloat && v.kind == value.KindInt {
		v = foldFloat(float32(v.i))
	}
	if v.kind != kind {
		return c.errf(cd.Name.Token, errTypeMismatch, "const %s %s initialized with %s", kind, name, v.kind)
	}
	c.consts[name] = v
	return nil
}

func (c *Compiler) collectFunc(fd *ast.FuncDecl) error {
	name := fd.Name.Value
	if _, ok := c.table.LookupName(name); ok {
		return c.errf(fd.Name.Token, errSignature, "%s redefines an engine routine", name)
	}
	if _, ok := c.consts[name]; ok {
		return c.errf(fd.Name.Token, errDuplicate, "%s is already a constant", name)
	}

	ret := kindOf(fd.ReturnType)
	if ret == value.KindAction {
		return c.errf(fd.ReturnType.Token, errBadType, "a function cannot return action")
	}

	params, err := c.collectParams(fd)
	if err != nil {
		return err
	}

	fi, exists := c.funcs[name]
	if !exists {
		c.funcs[name] = &funcInfo{
			name:    name,
			ret:     ret,
			params:  params,
			defined: fd.Body != nil,
			start:   -1,
			decl:    fd.Name.Token,
		}
		return nil
	}

	if fi.ret != ret || len(fi.params) != len(params) {
		return c.errf(fd.Name.Token, errSignature, "%s does not match its earlier declaration", name)
	}
	for i := range params {
		if fi.params[i].kind != params[i].kind {
			return c.errf(fd.Name.Token, errSignature, "%s does not match its earlier declaration", name)
		}
		// A prototype may carry the defaults; keep them if the
		// definition leaves them off.
		if params[i].def == nil {
			params[i].def = fi.params[i].def
		}
	}
	if fd.Body != nil {
		if fi.defined {
			return c.errf(fd.Name.Token, errDuplicate, "function %s is already defined", name)
		}
		fi.defined = true
		fi.params = params
	}
	return nil
}

func (c *Compiler) collectParams(fd *ast.FuncDecl) ([]param, error) {
	params := make([]param, 0, len(fd.Params))
	sawDefault := false
	for _, p := range fd.Params {
		kind := kindOf(p.Type)
		switch kind {
		case value.KindVoid, value.KindAction:
			return nil, c.errf(p.Type.Token, errBadType, "parameter %s cannot be %s", p.Name.Value, kind)
		}
		for _, prev := range params {
			if prev.name == p.Name.Value {
				return nil, c.errf(p.Name.Token, errDuplicate, "duplicate parameter %s", p.Name.Value)
			}
		}
		var def *foldVal
		if p.Default != nil {
			sawDefault = true
			v, ok := c.fold(p.Default)
			if !ok {
				return nil, c.errf(p.Name.Token, errNotConstant, "default of parameter %s is not a constant expression", p.Name.Value)
			}
			if kind == value.KindFloat && v.kind == value.KindInt {
				v = foldFloat(float32(v.i))
			}
			if v.kind != kind {
				return nil, c.errf(p.Name.Token, errArgType, "default of %s parameter %s has kind %s", kind, p.Name.Value, v.kind)
			}
			def = &v
		} else if sawDefault {
			return nil, c.errf(p.Name.Token, errArgCount, "required parameter %s follows a defaulted one", p.Name.Value)
		}
		params = append(params, param{name: p.Name.Value, kind: kind, def: def})
	}
	return params, nil
}

func (c *Compiler) findEntry() (*funcInfo, error) {
	main := c.funcs["main"]
	cond := c.funcs["StartingConditional"]
	if main != nil && cond != nil {
		return nil, &Error{Code: errEntryPoint, Message: "script defines both main and StartingConditional",
			Line: main.decl.Line, Col: main.decl.Col}
	}
	switch {
	case main != nil:
		if main.ret != value.KindVoid || len(main.params) > 0 {
			return nil, c.errf(main.decl, errEntryPoint, "main must be void main()")
		}
		return main, nil
	case cond != nil:
		if cond.ret != value.KindInt || len(cond.params) > 0 {
			return nil, c.errf(cond.decl, errEntryPoint, "StartingConditional must be int StartingConditional()")
		}
		return cond, nil
	}
	return nil, &Error{Code: errEntryPoint, Message: "no entry point: need void main() or int StartingConditional()", Line: 1, Col: 1}
}

func (c *Compiler) compileFunction(fd *ast.FuncDecl) error {
	fi := c.funcs[fd.Name.Value]
	fi.start = len(c.code)
	c.cur = fi
	c.depth = fi.argBytes()

	// Parameters share the body's outermost scope: the caller pushed
	// them, so they already sit at the frame bottom.
	c.scopes = append(c.scopes, scope{base: 0})
	for i, p := range fi.params {
		c.declareLocal(p.name, p.kind, fi.paramBase(i))
	}

	if err := c.compileStatements(fd.Body.Statements); err != nil {
		return err
	}

	if fi.ret == value.KindVoid {
		if c.depth > 0 {
			c.emitA(ncs.OpMovSP, -c.depth)
		}
		c.emit(ncs.Instruction{Op: ncs.OpRet})
	} else if !allPathsReturn(fd.Body) {
		return c.errf(fd.Name.Token, errMissingReturn, "%s does not return a value on every path", fi.name)
	}

	c.scopes = c.scopes[:len(c.scopes)-1]
	c.depth = 0
	c.cur = nil
	return nil
}

// allPathsReturn is deliberately conservative: a block returns when
// its last statement does, a conditional when both arms do. Loops and
// switches never count.
func allPathsReturn(s ast.Statement) bool {
	switch n := s.(type) {
	case *ast.ReturnStatement:
		return true
	case *ast.BlockStatement:
		if len(n.Statements) == 0 {
			return false
		}
		return allPathsReturn(n.Statements[len(n.Statements)-1])
	case *ast.IfStatement:
		return n.Alternative != nil && allPathsReturn(n.Consequence) && allPathsReturn(n.Alternative)
	}
	return false
}

func (c *Compiler) compileStatements(stmts []ast.Statement) error {
	for _, s := range stmts {
		before := c.depth
		if err := c.compileStatement(s); err != nil {
			return err
		}
		// Every statement is depth neutral except a declaration,
		// which leaves exactly its variable behind.
		want := before
		if vd, ok := s.(*ast.VarDecl); ok {
			want += sizeOf(kindOf(vd.Type))
		}
		if c.depth != want {
			return c.errf(tokenOf(s), errInternal,
				"internal: statement left stack depth at %d bytes, expected %d", c.depth, want)
		}
	}
	return nil
}

// compileBranch compiles a branch or loop body in its own scope, so a
// bare declaration used without braces cannot leak into the parent.
func (c *Compiler) compileBranch(s ast.Statement) error {
	if _, ok := s.(*ast.BlockStatement); ok {
		return c.compileStatement(s)
	}
	c.pushScope()
	if err := c.compileStatement(s); err != nil {
		return err
	}
	c.popScope()
	return nil
}

func (c *Compiler) compileStatement(s ast.Statement) error {
	switch n := s.(type) {
	case *ast.BlockStatement:
		c.pushScope()
		if err := c.compileStatements(n.Statements); err != nil {
			return err
		}
		c.popScope()
		return nil

	case *ast.VarDecl:
		return c.compileVarDecl(n)

	case *ast.ExpressionStatement:
		if n.Expression == nil {
			return nil
		}
		kind, err := c.compileExpr(n.Expression)
		if err != nil {
			return err
		}
		if kind != value.KindVoid {
			c.emitA(ncs.OpMovSP, -sizeOf(kind))
			c.depth -= sizeOf(kind)
		}
		return nil

	case *ast.ReturnStatement:
		return c.compileReturn(n)

	case *ast.IfStatement:
		return c.compileIf(n)

	case *ast.WhileStatement:
		return c.compileWhile(n)

	case *ast.DoWhileStatement:
		return c.compileDoWhile(n)

	case *ast.ForStatement:
		return c.compileFor(n)

	case *ast.SwitchStatement:
		return c.compileSwitch(n)

	case *ast.BreakStatement:
		b := c.innermostBreakable()
		if b == nil {
			return c.errf(n.Token, errBadJump, "break outside of loop or switch")
		}
		c.emitUnwind(b.base)
		b.breaks = append(b.breaks, len(c.code))
		c.emit(ncs.Instruction{Op: ncs.OpJmp})
		return nil

	case *ast.ContinueStatement:
		b := c.innermostLoop()
		if b == nil {
			return c.errf(n.Token, errBadJump, "continue outside of loop")
		}
		c.emitUnwind(b.contBase)
		b.conts = append(b.conts, len(c.code))
		c.emit(ncs.Instruction{Op: ncs.OpJmp})
		return nil

	default:
		return c.errf(tokenOf(s), errInternal, "unexpected statement %T", s)
	}
}

func (c *Compiler) compileVarDecl(n *ast.VarDecl) error {
	kind := kindOf(n.Type)
	switch kind {
	case value.KindVoid, value.KindAction:
		return c.errf(n.Type.Token, errBadType, "cannot declare a variable of type %s", kind)
	}

	base := c.depth
	if n.Init != nil {
		if err := c.compileExprAs(n.Init, kind, errTypeMismatch,
			fmt.Sprintf("initializer of %s %s", kind, n.Name.Value)); err != nil {
			return err
		}
	} else {
		c.emitA(ncs.OpReserve, int32(kind))
		c.depth += sizeOf(kind)
	}

	if !c.declareLocal(n.Name.Value, kind, base) {
		return c.errf(n.Name.Token, errDuplicate, "%s is already declared in this scope", n.Name.Value)
	}
	return nil
}

func (c *Compiler) compileReturn(n *ast.ReturnStatement) error {
	fi := c.cur
	if fi == nil {
		return c.errf(n.Token, errInternal, "return outside of a function")
	}

	if fi.ret == value.KindVoid {
		if n.Value != nil {
			return c.errf(n.Token, errReturnValue, "%s returns void", fi.name)
		}
		if c.depth > 0 {
			c.emitA(ncs.OpMovSP, -c.depth)
		}
		c.emit(ncs.Instruction{Op: ncs.OpRet})
		return nil
	}

	if n.Value == nil {
		return c.errf(n.Token, errReturnValue, "%s must return %s", fi.name, fi.ret)
	}
	size := sizeOf(fi.ret)
	if err := c.compileExprAs(n.Value, fi.ret, errReturnValue,
		fmt.Sprintf("return value of %s", fi.name)); err != nil {
		return err
	}
	// Write the value into the slot the caller reserved just below the
	// frame, then drop the whole frame. Only the jumping path runs
	// these, so the tracked depth stays put.
	c.emitAB(ncs.OpCopyDownSP, -(c.depth+size), size)
	c.emitA(ncs.OpMovSP, -c.depth)
	c.emit(ncs.Instruction{Op: ncs.OpRet})
	c.depth -= size
	return nil
}

func (c *Compiler) compileCondition(expr ast.Expression) error {
	kind, err := c.compileExpr(expr)
	if err != nil {
		return err
	}
	if kind != value.KindInt {
		return c.errf(tokenOfExpr(expr), errCondition, "condition must be int, got %s", kind)
	}
	c.depth -= 4
	return nil
}

func (c *Compiler) compileIf(n *ast.IfStatement) error {
	if err := c.compileCondition(n.Condition); err != nil {
		return err
	}
	jz := len(c.code)
	c.emit(ncs.Instruction{Op: ncs.OpJz})

	if err := c.compileBranch(n.Consequence); err != nil {
		return err
	}
	if n.Alternative == nil {
		c.code[jz].A = int32(len(c.code))
		return nil
	}

	// No merge jump after a branch that already returned; it would
	// be dead and could point past the end of the code.
	jmp := -1
	if !allPathsReturn(n.Consequence) {
		jmp = len(c.code)
		c.emit(ncs.Instruction{Op: ncs.OpJmp})
	}
	c.code[jz].A = int32(len(c.code))
	if err := c.compileBranch(n.Alternative); err != nil {
		return err
	}
	if jmp >= 0 {
		c.code[jmp].A = int32(len(c.code))
	}
	return nil
}

func (c *Compiler) compileWhile(n *ast.WhileStatement) error {
	cond := len(c.code)
	if err := c.compileCondition(n.Condition); err != nil {
		return err
	}
	jz := len(c.code)
	c.emit(ncs.Instruction{Op: ncs.OpJz})

	c.pushBreakable(breakable{loop: true, base: c.depth, contBase: c.depth})
	if err := c.compileBranch(n.Body); err != nil {
		return err
	}
	c.emitA(ncs.OpJmp, int32(cond))

	b := c.popBreakable()
	end := len(c.code)
	c.code[jz].A = int32(end)
	c.patchJumps(b.breaks, end)
	c.patchJumps(b.conts, cond)
	return nil
}

func (c *Compiler) compileDoWhile(n *ast.DoWhileStatement) error {
	body := len(c.code)
	c.pushBreakable(breakable{loop: true, base: c.depth, contBase: c.depth})
	if err := c.compileBranch(n.Body); err != nil {
		return err
	}

	cond := len(c.code)
	if err := c.compileCondition(n.Condition); err != nil {
		return err
	}
	c.emitA(ncs.OpJnz, int32(body))

	b := c.popBreakable()
	end := len(c.code)
	c.patchJumps(b.breaks, end)
	c.patchJumps(b.conts, cond)
	return nil
}

func (c *Compiler) compileFor(n *ast.ForStatement) error {
	if n.Init != nil {
		if err := c.discardExpr(n.Init); err != nil {
			return err
		}
	}

	cond := len(c.code)
	jz := -1
	if n.Cond != nil {
		if err := c.compileCondition(n.Cond); err != nil {
			return err
		}
		jz = len(c.code)
		c.emit(ncs.Instruction{Op: ncs.OpJz})
	}

	c.pushBreakable(breakable{loop: true, base: c.depth, contBase: c.depth})
	if err := c.compileBranch(n.Body); err != nil {
		return err
	}

	post := len(c.code)
	if n.Post != nil {
		if err := c.discardExpr(n.Post); err != nil {
			return err
		}
	}
	c.emitA(ncs.OpJmp, int32(cond))

	b := c.popBreakable()
	end := len(c.code)
	if jz >= 0 {
		c.code[jz].A = int32(end)
	}
	c.patchJumps(b.breaks, end)
	c.patchJumps(b.conts, post)
	return nil
}

// discardExpr compiles an expression for effect only.
func (c *Compiler) discardExpr(expr ast.Expression) error {
	kind, err := c.compileExpr(expr)
	if err != nil {
		return err
	}
	if kind != value.KindVoid {
		c.emitA(ncs.OpMovSP, -sizeOf(kind))
		c.depth -= sizeOf(kind)
	}
	return nil
}

func (c *Compiler) compileSwitch(n *ast.SwitchStatement) error {
	kind, err := c.compileExpr(n.Value)
	if err != nil {
		return err
	}
	if kind != value.KindInt {
		return c.errf(n.Token, errCondition, "switch value must be int, got %s", kind)
	}

	// The tests duplicate the value and compare against each folded
	// label; the value stays on the stack through the bodies and is
	// dropped at the end.
	type caseTest struct {
		clause *ast.CaseClause
		val    int32
		jump   int
	}
	var tests []caseTest
	seen := make(map[int32]bool)
	defaultIdx := -1
	for i, cc := range n.Cases {
		if cc.Value == nil {
			if defaultIdx >= 0 {
				return c.errf(cc.Token, errSwitchLabel, "multiple default labels")
			}
			defaultIdx = i
			continue
		}
		v, ok := c.fold(cc.Value)
		if !ok || v.kind != value.KindInt {
			return c.errf(cc.Token, errSwitchLabel, "case label must be a constant int expression")
		}
		if seen[v.i] {
			return c.errf(cc.Token, errSwitchLabel, "duplicate case label %d", v.i)
		}
		seen[v.i] = true

		c.emitAB(ncs.OpCopyTopSP, -4, 4)
		c.emitA(ncs.OpConstI, v.i)
		c.emit(ncs.Instruction{Op: ncs.OpEq})
		tests = append(tests, caseTest{clause: cc, val: v.i, jump: len(c.code)})
		c.emit(ncs.Instruction{Op: ncs.OpJnz})
	}
	missJump := len(c.code)
	c.emit(ncs.Instruction{Op: ncs.OpJmp})

	c.pushBreakable(breakable{base: c.depth})
	labels := make([]int, len(n.Cases))
	ti := 0
	for i, cc := range n.Cases {
		labels[i] = len(c.code)
		if cc.Value != nil {
			c.code[tests[ti].jump].A = int32(len(c.code))
			ti++
		}
		for _, st := range cc.Statements {
			if _, isDecl := st.(*ast.VarDecl); isDecl {
				return c.errf(tokenOf(st), errSwitchLabel, "declaration in a case body needs an enclosing block")
			}
		}
		if err := c.compileStatements(cc.Statements); err != nil {
			return err
		}
	}

	b := c.popBreakable()
	end := len(c.code)
	if defaultIdx >= 0 {
		c.code[missJump].A = int32(labels[defaultIdx])
	} else {
		c.code[missJump].A = int32(end)
	}
	c.patchJumps(b.breaks, end)

	c.emitA(ncs.OpMovSP, -4)
	c.depth -= 4
	return nil
}

/* -------------------- emission helpers -------------------- */

func (c *Compiler) emit(ins ncs.Instruction) int {
	c.code = append(c.code, ins)
	return len(c.code) - 1
}

func (c *Compiler) emitA(op ncs.Opcode, a int32) int {
	return c.emit(ncs.Instruction{Op: op, A: a})
}

func (c *Compiler) emitAB(op ncs.Opcode, a, b int32) int {
	return c.emit(ncs.Instruction{Op: op, A: a, B: b})
}

// emitUnwind emits the MovSP that drops the stack to a breakable's
// depth. Only the jumping path executes it, so tracking is untouched.
func (c *Compiler) emitUnwind(to int32) {
	if n := c.depth - to; n > 0 {
		c.emitA(ncs.OpMovSP, -n)
	}
}

func (c *Compiler) patchJumps(sites []int, target int) {
	for _, at := range sites {
		c.code[at].A = int32(target)
	}
}

func (c *Compiler) errf(tok token.Token, code, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if c.file != c.root {
		msg = fmt.Sprintf("in %q: %s", c.file, msg)
	}
	return &Error{Code: code, Message: msg, Line: tok.Line, Col: tok.Col}
}

func tokenOf(s ast.Statement) token.Token {
	switch n := s.(type) {
	case *ast.IncludeDirective:
		return n.Token
	case *ast.ConstDecl:
		return n.Token
	case *ast.FuncDecl:
		return n.Token
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
	return token.Token{}
}

func tokenOfExpr(e ast.Expression) token.Token {
	switch n := e.(type) {
	case *ast.Identifier:
		return n.Token
	case *ast.IntLiteral:
		return n.Token
	case *ast.FloatLiteral:
		return n.Token
	case *ast.StringLiteral:
		return n.Token
	case *ast.VectorLiteral:
		return n.Token
	case *ast.PrefixExpression:
		return n.Token
	case *ast.PostfixExpression:
		return n.Token
	case *ast.InfixExpression:
		return n.Token
	case *ast.AssignExpression:
		return n.Token
	case *ast.MemberExpression:
		return n.Token
	case *ast.CallExpression:
		return n.Token
	}
	return token.Token{}
}
