package lsp

import (
	"fmt"

	"aurora/internal/lexer"
	"aurora/internal/routines"
	"aurora/internal/token"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// callFrame is one unclosed bracket at the cursor. Only frames opened
// by an identifier-then-( pair carry a callable name.
type callFrame struct {
	name string
	arg  int
}

// SignatureHelpAt reports the innermost call the cursor sits in and
// which argument it is on. One token scan is enough: a call is the
// only construct where an identifier directly precedes '('.
func SignatureHelpAt(table *routines.Table, an *Analysis, text string, pos protocol.Position) (*protocol.SignatureHelp, error) {
	posByte, ok := positionToByte(text, pos)
	if !ok {
		return nil, nil
	}

	frames := openCallsAt(text, posByte)
	for i := len(frames) - 1; i >= 0; i-- {
		fr := frames[i]
		if fr.name == "" {
			continue
		}
		label, params := signatureFor(table, an, fr.name)
		if label == "" {
			return nil, nil
		}

		paramInfos := make([]protocol.ParameterInformation, 0, len(params))
		for _, p := range params {
			paramInfos = append(paramInfos, protocol.ParameterInformation{Label: p})
		}
		sig := protocol.SignatureInformation{Label: label, Parameters: paramInfos}
		active := protocol.UInteger(fr.arg)
		return &protocol.SignatureHelp{
			Signatures:      []protocol.SignatureInformation{sig},
			ActiveSignature: ptrUinteger(0),
			ActiveParameter: &active,
		}, nil
	}
	return nil, nil
}

// openCallsAt scans tokens up to the cursor and returns the stack of
// brackets still open there. Commas advance the innermost frame's
// argument counter, so vector literals and grouping parens do not
// leak counts into the surrounding call.
func openCallsAt(text string, pos Pos) []callFrame {
	lx := lexer.New(text)
	var frames []callFrame
	prevIdent := ""
	prevWasIdent := false
	for {
		tok := lx.NextToken()
		if tok.Type == token.EOF {
			break
		}
		if tok.Line > pos.Line || (tok.Line == pos.Line && tok.Col >= pos.Col) {
			break
		}
		switch tok.Type {
		case token.IDENT:
			prevIdent = tok.Literal
			prevWasIdent = true
			continue
		case token.LPAREN:
			name := ""
			if prevWasIdent {
				name = prevIdent
			}
			frames = append(frames, callFrame{name: name})
		case token.LBRACKET, token.LBRACE:
			frames = append(frames, callFrame{})
		case token.RPAREN, token.RBRACKET, token.RBRACE:
			if len(frames) > 0 {
				frames = frames[:len(frames)-1]
			}
		case token.COMMA:
			if len(frames) > 0 {
				frames[len(frames)-1].arg++
			}
		}
		prevWasIdent = false
	}
	return frames
}

func signatureFor(table *routines.Table, an *Analysis, name string) (string, []string) {
	if an != nil {
		if fn := an.FuncByName(name); fn != nil {
			return funcLabel(fn), funcParamLabels(fn)
		}
	}
	if table != nil {
		if id, ok := table.LookupName(name); ok {
			sig := table.ByID(id)
			params := make([]string, 0, len(sig.Params))
			for _, p := range sig.Params {
				params = append(params, fmt.Sprintf("%s %s", p.Kind, p.Name))
			}
			return sig.String(), params
		}
	}
	return "", nil
}
