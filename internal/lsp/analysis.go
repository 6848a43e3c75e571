package lsp

import (
	"fmt"
	"strings"

	"aurora/internal/ast"
	"aurora/internal/diag"
	"aurora/internal/lexer"
	"aurora/internal/parser"
	"aurora/internal/token"
)

// IncludeRef is one #include directive and where it sits.
type IncludeRef struct {
	Name  string
	Token token.Token
}

// Analysis is the parse-derived view of one document: its top-level
// declarations plus any parse diagnostics.
type Analysis struct {
	Program  *ast.Program
	Funcs    []*ast.FuncDecl // definitions and prototypes, in order
	Consts   []*ast.ConstDecl
	Globals  []*ast.VarDecl
	Includes []IncludeRef
	Diags    []diag.Diagnostic
}

func Analyze(text string) *Analysis {
	p := parser.New(lexer.New(text))
	prog := p.ParseProgram()
	an := &Analysis{Program: prog, Diags: p.Diagnostics()}
	if prog == nil {
		return an
	}
	for _, st := range prog.Statements {
		switch n := st.(type) {
		case *ast.FuncDecl:
			an.Funcs = append(an.Funcs, n)
		case *ast.ConstDecl:
			an.Consts = append(an.Consts, n)
		case *ast.VarDecl:
			an.Globals = append(an.Globals, n)
		case *ast.IncludeDirective:
			if n.Path != nil {
				an.Includes = append(an.Includes, IncludeRef{Name: n.Path.Value, Token: n.Token})
			}
		}
	}
	return an
}

// FuncByName prefers the definition when both a prototype and a body
// are present.
func (a *Analysis) FuncByName(name string) *ast.FuncDecl {
	var proto *ast.FuncDecl
	for _, fn := range a.Funcs {
		if fn.Name == nil || fn.Name.Value != name {
			continue
		}
		if fn.Body != nil {
			return fn
		}
		if proto == nil {
			proto = fn
		}
	}
	return proto
}

// HasEntryPoint reports whether the file defines a runnable entry.
// Include files have none, and full compilation only makes sense for
// files that do.
func (a *Analysis) HasEntryPoint() bool {
	for _, fn := range a.Funcs {
		if fn.Body == nil || fn.Name == nil {
			continue
		}
		if fn.Name.Value == "main" || fn.Name.Value == "StartingConditional" {
			return true
		}
	}
	return false
}

// funcLabel renders a declaration the way the routine table renders
// prototypes: return type, name, typed parameters with defaults.
func funcLabel(fn *ast.FuncDecl) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s(", fn.ReturnType.Name(), fn.Name.Value)
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		name := ""
		if p.Name != nil {
			name = p.Name.Value
		}
		fmt.Fprintf(&b, "%s %s", p.Type.Name(), name)
		if p.Default != nil {
			fmt.Fprintf(&b, "=%s", p.Default.String())
		}
	}
	b.WriteString(")")
	return b.String()
}

func funcParamLabels(fn *ast.FuncDecl) []string {
	out := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		name := ""
		if p.Name != nil {
			name = p.Name.Value
		}
		out = append(out, fmt.Sprintf("%s %s", p.Type.Name(), name))
	}
	return out
}
