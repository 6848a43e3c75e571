package lsp

import (
	"aurora/internal/ast"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// DocumentSymbols lists the document's top-level declarations in
// source order. Prototypes stay out of the outline; the definition
// carries the symbol.
func DocumentSymbols(an *Analysis, text string) []protocol.DocumentSymbol {
	out := []protocol.DocumentSymbol{}
	if an == nil || an.Program == nil {
		return out
	}

	add := func(name string, line, col int, detail string, kind protocol.SymbolKind) {
		r := rangeOfToken(text, line, col, name)
		sym := protocol.DocumentSymbol{
			Name:           name,
			Kind:           kind,
			Range:          r,
			SelectionRange: r,
		}
		if detail != "" {
			sym.Detail = ptrString(detail)
		}
		out = append(out, sym)
	}

	for _, st := range an.Program.Statements {
		switch n := st.(type) {
		case *ast.FuncDecl:
			if n.Name == nil || n.Body == nil {
				continue
			}
			add(n.Name.Value, n.Name.Token.Line, n.Name.Token.Col, funcLabel(n), protocol.SymbolKindFunction)
		case *ast.ConstDecl:
			if n.Name == nil {
				continue
			}
			add(n.Name.Value, n.Name.Token.Line, n.Name.Token.Col, n.String(), protocol.SymbolKindConstant)
		case *ast.VarDecl:
			if n.Name == nil {
				continue
			}
			add(n.Name.Value, n.Name.Token.Line, n.Name.Token.Col, n.String(), protocol.SymbolKindVariable)
		}
	}
	return out
}

// DefinitionAt resolves the identifier under the cursor to its
// declaration in the same document. Engine routines have no source to
// jump to.
func DefinitionAt(an *Analysis, uri string, text string, pos protocol.Position) []protocol.Location {
	if an == nil {
		return nil
	}
	posByte, ok := positionToByte(text, pos)
	if !ok {
		return nil
	}
	name := identAt(text, posByte)
	if name == "" {
		return nil
	}

	loc := func(line, col int) []protocol.Location {
		return []protocol.Location{{
			URI:   protocol.DocumentUri(uri),
			Range: rangeOfToken(text, line, col, name),
		}}
	}

	if fn := an.FuncByName(name); fn != nil && fn.Name != nil {
		return loc(fn.Name.Token.Line, fn.Name.Token.Col)
	}
	for _, cd := range an.Consts {
		if cd.Name != nil && cd.Name.Value == name {
			return loc(cd.Name.Token.Line, cd.Name.Token.Col)
		}
	}
	for _, g := range an.Globals {
		if g.Name != nil && g.Name.Value == name {
			return loc(g.Name.Token.Line, g.Name.Token.Col)
		}
	}
	return nil
}
