package lsp

import (
	"errors"
	"strings"

	"aurora/internal/compiler"
	"aurora/internal/diag"
	"aurora/internal/lint"
	"aurora/internal/routines"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Checker runs a document through the full front end: parse, lint,
// and, when the file defines an entry point, a compile against the
// configured game's routine table. Include files stop at the parse
// view since they cannot compile standalone.
type Checker struct {
	Game   routines.Game
	Loader compiler.SourceLoader // resolves #include; nil makes includes an error
}

func (c Checker) Check(name string, text string, an *Analysis) []diag.Diagnostic {
	diags := append([]diag.Diagnostic{}, an.Diags...)
	if an.Program != nil {
		diags = append(diags, lint.Run(an.Program)...)
	}
	if an.Program != nil && len(an.Diags) == 0 && an.HasEntryPoint() {
		comp := compiler.New(compiler.Options{Game: c.Game, Source: c.Loader})
		if _, err := comp.Compile(name, text); err != nil {
			diags = append(diags, c.compileDiag(err, an))
		}
	}
	out := diag.List(diags)
	out.Sort()
	return out
}

// compileDiag pins an error from an included file onto its #include
// directive; the compiler's position would otherwise point into a
// file the editor is not showing.
func (c Checker) compileDiag(err error, an *Analysis) diag.Diagnostic {
	var cerr *compiler.Error
	if !errors.As(err, &cerr) {
		return diag.Errorf("AC0099", diag.Range{Line: 1, Col: 1, Length: 1}, "%s", err.Error())
	}
	r := diag.Range{Line: cerr.Line, Col: cerr.Col, Length: 1}
	if rest, ok := strings.CutPrefix(cerr.Message, "in \""); ok {
		file, _, _ := strings.Cut(rest, "\"")
		r = diag.Range{Line: 1, Col: 1, Length: 1}
		for _, inc := range an.Includes {
			if inc.Name == file {
				r = diag.Range{Line: inc.Token.Line, Col: inc.Token.Col, Length: len(inc.Token.Literal)}
				break
			}
		}
	}
	return diag.Errorf(cerr.Code, r, "%s", cerr.Message)
}

// ToProtocol converts front-end diagnostics to protocol ones. Columns
// pass through as UTF-16 offsets directly; script sources are ASCII
// outside string literals, so the approximation holds where squiggles
// land.
func ToProtocol(ds []diag.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(ds))
	for _, d := range ds {
		start := toProtocolPosition(d.Range.Line, d.Range.Col)
		end := start
		if d.Range.Length > 0 {
			end.Character = start.Character + uint32(d.Range.Length)
		} else {
			end.Character = start.Character + 1
		}

		severity := protocol.DiagnosticSeverityError
		switch d.Severity {
		case diag.SeverityWarning:
			severity = protocol.DiagnosticSeverityWarning
		case diag.SeverityInfo:
			severity = protocol.DiagnosticSeverityInformation
		}

		pd := protocol.Diagnostic{
			Range:    protocol.Range{Start: start, End: end},
			Severity: &severity,
			Source:   ptrString("aurora"),
			Message:  d.Message,
		}
		if d.Code != "" {
			code := protocol.IntegerOrString{Value: d.Code}
			pd.Code = &code
		}
		out = append(out, pd)
	}
	return out
}

// Protocol positions are 0-based.
func toProtocolPosition(line1, col1 int) protocol.Position {
	line := uint32(0)
	char := uint32(0)
	if line1 > 0 {
		line = uint32(line1 - 1)
	}
	if col1 > 0 {
		char = uint32(col1 - 1)
	}
	return protocol.Position{Line: line, Character: char}
}

func ptrString(s string) *string { return &s }

func ptrUinteger(v protocol.UInteger) *protocol.UInteger { return &v }
