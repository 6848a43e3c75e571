package lexer

import (
	"testing"

	"aurora/internal/token"
)

func TestLexer_TourProgram(t *testing.T) {
	input := `#include "k_inc_debug"

void main() {
    int nCount = GetLocalInt(OBJECT_SELF, "count");
    if (nCount > 3) {
        PrintString("big");
    } else {
        PrintString("small");
    }
    while (nCount < 10) {
        nCount = nCount + 1;
    }
}`

	tests := []struct {
		typ token.Type
		lit string
	}{
		{token.INCLUDE, "#include"},
		{token.STRING, "k_inc_debug"},

		{token.KWVOID, "void"},
		{token.IDENT, "main"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},

		{token.KWINT, "int"},
		{token.IDENT, "nCount"},
		{token.ASSIGN, "="},
		{token.IDENT, "GetLocalInt"},
		{token.LPAREN, "("},
		{token.IDENT, "OBJECT_SELF"},
		{token.COMMA, ","},
		{token.STRING, "count"},
		{token.RPAREN, ")"},
		{token.SEMICOLON, ";"},

		{token.IF, "if"},
		{token.LPAREN, "("},
		{token.IDENT, "nCount"},
		{token.GT, ">"},
		{token.INT, "3"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},

		{token.IDENT, "PrintString"},
		{token.LPAREN, "("},
		{token.STRING, "big"},
		{token.RPAREN, ")"},
		{token.SEMICOLON, ";"},

		{token.RBRACE, "}"},
		{token.ELSE, "else"},
		{token.LBRACE, "{"},

		{token.IDENT, "PrintString"},
		{token.LPAREN, "("},
		{token.STRING, "small"},
		{token.RPAREN, ")"},
		{token.SEMICOLON, ";"},

		{token.RBRACE, "}"},

		{token.WHILE, "while"},
		{token.LPAREN, "("},
		{token.IDENT, "nCount"},
		{token.LT, "<"},
		{token.INT, "10"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},

		{token.IDENT, "nCount"},
		{token.ASSIGN, "="},
		{token.IDENT, "nCount"},
		{token.PLUS, "+"},
		{token.INT, "1"},
		{token.SEMICOLON, ";"},

		{token.RBRACE, "}"},
		{token.RBRACE, "}"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.typ {
			t.Fatalf("tests[%d] - wrong type. expected=%q got=%q (lit=%q line=%d col=%d)",
				i, tt.typ, tok.Type, tok.Literal, tok.Line, tok.Col)
		}

		if tok.Literal != tt.lit {
			t.Fatalf("tests[%d] - wrong literal. expected=%q got=%q (type=%q line=%d col=%d)",
				i, tt.lit, tok.Literal, tok.Type, tok.Line, tok.Col)
		}
	}
}

func TestLexer_BitwiseTokens(t *testing.T) {
	input := `a|b & c ^ d ~e << 2 >> 1 >>> 3`

	tests := []struct {
		typ token.Type
		lit string
	}{
		{token.IDENT, "a"},
		{token.PIPE, "|"},
		{token.IDENT, "b"},
		{token.AMP, "&"},
		{token.IDENT, "c"},
		{token.CARET, "^"},
		{token.IDENT, "d"},
		{token.TILDE, "~"},
		{token.IDENT, "e"},
		{token.SHL, "<<"},
		{token.INT, "2"},
		{token.SHR, ">>"},
		{token.INT, "1"},
		{token.USHR, ">>>"},
		{token.INT, "3"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.typ {
			t.Fatalf("tests[%d] - wrong type. expected=%q got=%q (lit=%q)", i, tt.typ, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.lit {
			t.Fatalf("tests[%d] - wrong literal. expected=%q got=%q (type=%q)", i, tt.lit, tok.Literal, tok.Type)
		}
	}
}

func TestLexer_LogicalTokens(t *testing.T) {
	input := `a && b || !c != d == e`

	tests := []struct {
		typ token.Type
		lit string
	}{
		{token.IDENT, "a"},
		{token.AND, "&&"},
		{token.IDENT, "b"},
		{token.OR, "||"},
		{token.BANG, "!"},
		{token.IDENT, "c"},
		{token.NE, "!="},
		{token.IDENT, "d"},
		{token.EQ, "=="},
		{token.IDENT, "e"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.typ {
			t.Fatalf("tests[%d] - wrong type. expected=%q got=%q (lit=%q)", i, tt.typ, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.lit {
			t.Fatalf("tests[%d] - wrong literal. expected=%q got=%q (type=%q)", i, tt.lit, tok.Literal, tok.Type)
		}
	}
}

func TestLexer_CompoundAssignAndSteps(t *testing.T) {
	input := "x += 1; x -= 2; x *= 3; x /= 4; x++; x--;"

	tests := []struct {
		typ token.Type
		lit string
	}{
		{token.IDENT, "x"},
		{token.PLUSASSIGN, "+="},
		{token.INT, "1"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "x"},
		{token.MINUSASSIGN, "-="},
		{token.INT, "2"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "x"},
		{token.STARASSIGN, "*="},
		{token.INT, "3"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "x"},
		{token.SLASHASSIGN, "/="},
		{token.INT, "4"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "x"},
		{token.INC, "++"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "x"},
		{token.DEC, "--"},
		{token.SEMICOLON, ";"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.typ {
			t.Fatalf("tests[%d] - wrong type. expected=%q got=%q (lit=%q)", i, tt.typ, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.lit {
			t.Fatalf("tests[%d] - wrong literal. expected=%q got=%q (type=%q)", i, tt.lit, tok.Literal, tok.Type)
		}
	}
}

func TestLexer_NumberLiterals(t *testing.T) {
	input := `0 42 0x1F 1.5 1.5f 0.25F 3f 7. .5 vPos.x`

	tests := []struct {
		typ token.Type
		lit string
	}{
		{token.INT, "0"},
		{token.INT, "42"},
		{token.INT, "0x1F"},
		{token.FLOAT, "1.5"},
		{token.FLOAT, "1.5f"},
		{token.FLOAT, "0.25F"},
		{token.FLOAT, "3f"},
		{token.FLOAT, "7."},
		{token.FLOAT, ".5"},
		{token.IDENT, "vPos"},
		{token.DOT, "."},
		{token.IDENT, "x"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.typ {
			t.Fatalf("tests[%d] - wrong type. expected=%q got=%q (lit=%q)", i, tt.typ, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.lit {
			t.Fatalf("tests[%d] - wrong literal. expected=%q got=%q (type=%q)", i, tt.lit, tok.Literal, tok.Type)
		}
	}
}

func TestLexer_IncludeDirective(t *testing.T) {
	input := `#include "nw_i0_generic"
#define x`

	tests := []struct {
		typ token.Type
		lit string
	}{
		{token.INCLUDE, "#include"},
		{token.STRING, "nw_i0_generic"},
		{token.ILLEGAL, "#define"},
		{token.IDENT, "x"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.typ {
			t.Fatalf("tests[%d] - wrong type. expected=%q got=%q (lit=%q)", i, tt.typ, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.lit {
			t.Fatalf("tests[%d] - wrong literal. expected=%q got=%q (type=%q)", i, tt.lit, tok.Literal, tok.Type)
		}
	}
}

func TestLexer_TypeKeywords(t *testing.T) {
	input := `int float string object vector location effect event talent action void struct intx`

	tests := []struct {
		typ token.Type
		lit string
	}{
		{token.KWINT, "int"},
		{token.KWFLOAT, "float"},
		{token.KWSTR, "string"},
		{token.KWOBJECT, "object"},
		{token.KWVECTOR, "vector"},
		{token.KWLOC, "location"},
		{token.KWEFFECT, "effect"},
		{token.KWEVENT, "event"},
		{token.KWTALENT, "talent"},
		{token.KWACTION, "action"},
		{token.KWVOID, "void"},
		{token.KWSTRUCT, "struct"},
		{token.IDENT, "intx"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.typ {
			t.Fatalf("tests[%d] - wrong type. expected=%q got=%q (lit=%q)", i, tt.typ, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.lit {
			t.Fatalf("tests[%d] - wrong literal. expected=%q got=%q (type=%q)", i, tt.lit, tok.Literal, tok.Type)
		}
	}
}

func TestLexer_LineAndColumn(t *testing.T) {
	input := "int a;\n  a = 1;"

	l := New(input)

	tok := l.NextToken() // int
	if tok.Line != 1 || tok.Col != 1 {
		t.Fatalf("int at %d:%d, want 1:1", tok.Line, tok.Col)
	}
	tok = l.NextToken() // a
	if tok.Line != 1 || tok.Col != 5 {
		t.Fatalf("a at %d:%d, want 1:5", tok.Line, tok.Col)
	}
	l.NextToken()       // ;
	tok = l.NextToken() // a on line 2
	if tok.Line != 2 || tok.Col != 3 {
		t.Fatalf("second a at %d:%d, want 2:3", tok.Line, tok.Col)
	}
}
