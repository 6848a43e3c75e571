package compiler

import (
	"aurora/internal/ast"
	"aurora/internal/ncs"
	"aurora/internal/token"
	"aurora/internal/value"
)

// sizeOf is the operand-stack footprint of a kind in bytes. A vector is
// three float cells, void leaves nothing behind, every other type is
// one cell.
func sizeOf(k value.Kind) int32 {
	switch k {
	case value.KindVector:
		return 12
	case value.KindVoid:
		return 0
	}
	return 4
}

var typeKinds = map[token.Type]value.Kind{
	token.KWVOID:   value.KindVoid,
	token.KWINT:    value.KindInt,
	token.KWFLOAT:  value.KindFloat,
	token.KWSTR:    value.KindString,
	token.KWOBJECT: value.KindObject,
	token.KWVECTOR: value.KindVector,
	token.KWLOC:    value.KindLocation,
	token.KWEFFECT: value.KindEffect,
	token.KWEVENT:  value.KindEvent,
	token.KWTALENT: value.KindTalent,
	token.KWACTION: value.KindAction,
}

func kindOf(tn *ast.TypeName) value.Kind {
	if tn == nil {
		return value.KindVoid
	}
	return typeKinds[tn.Token.Type]
}

// local is one live variable. Its storage starts base bytes into the
// current function's frame, so its offset from the stack top at any
// emit point is base minus the tracked depth.
type local struct {
	name string
	kind value.Kind
	base int32
}

// scope is one brace level. base records the frame depth at entry;
// leaving the scope releases everything above it.
type scope struct {
	base   int32
	locals []local
}

// param is one declared parameter of a script function. def holds the
// folded default for parameters a call site may omit, nil otherwise.
type param struct {
	name string
	kind value.Kind
	def  *foldVal
}

// callSite is an emitted Jsr waiting for its target.
type callSite struct {
	at   int
	tok  token.Token
	file string
}

// funcInfo carries a script function across the two passes: collected
// from its prototype or definition first, assigned a code index when
// the body is emitted, with recorded call sites patched at the end.
type funcInfo struct {
	name    string
	ret     value.Kind
	params  []param
	defined bool
	start   int
	decl    token.Token
	calls   []callSite
}

func (f *funcInfo) argBytes() int32 {
	var n int32
	for _, p := range f.params {
		n += sizeOf(p.kind)
	}
	return n
}

// paramBase is the frame offset of parameter i: arguments are pushed
// left to right, so the first parameter sits at the frame bottom.
func (f *funcInfo) paramBase(i int) int32 {
	var n int32
	for j := 0; j < i; j++ {
		n += sizeOf(f.params[j].kind)
	}
	return n
}

func (c *Compiler) pushScope() {
	c.scopes = append(c.scopes, scope{base: c.depth})
}

// popScope releases the scope's locals, emitting the MovSP that drops
// them at run time.
func (c *Compiler) popScope() {
	s := c.scopes[len(c.scopes)-1]
	c.scopes = c.scopes[:len(c.scopes)-1]
	if n := c.depth - s.base; n > 0 {
		c.emitA(ncs.OpMovSP, -n)
		c.depth = s.base
	}
}

func (c *Compiler) declareLocal(name string, kind value.Kind, base int32) bool {
	s := &c.scopes[len(c.scopes)-1]
	for _, l := range s.locals {
		if l.name == name {
			return false
		}
	}
	s.locals = append(s.locals, local{name: name, kind: kind, base: base})
	return true
}

func (c *Compiler) resolveLocal(name string) (local, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		for _, l := range c.scopes[i].locals {
			if l.name == name {
				return l, true
			}
		}
	}
	return local{}, false
}

// breakable is an enclosing loop or switch. base is the frame depth a
// break unwinds to before jumping; contBase the same for continue.
type breakable struct {
	loop     bool
	base     int32
	contBase int32
	breaks   []int
	conts    []int
}

func (c *Compiler) pushBreakable(b breakable) {
	c.breaks = append(c.breaks, b)
}

func (c *Compiler) popBreakable() breakable {
	b := c.breaks[len(c.breaks)-1]
	c.breaks = c.breaks[:len(c.breaks)-1]
	return b
}

func (c *Compiler) innermostBreakable() *breakable {
	if len(c.breaks) == 0 {
		return nil
	}
	return &c.breaks[len(c.breaks)-1]
}

func (c *Compiler) innermostLoop() *breakable {
	for i := len(c.breaks) - 1; i >= 0; i-- {
		if c.breaks[i].loop {
			return &c.breaks[i]
		}
	}
	return nil
}
