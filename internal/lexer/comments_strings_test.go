package lexer

import (
	"testing"

	"aurora/internal/token"
)

func TestComments(t *testing.T) {
	input := "\n" +
		"x = 1; // comment\n" +
		"/* block\n" +
		"comment */ y = 2;\n"
	l := New(input)
	types := []token.Type{
		token.IDENT, token.ASSIGN, token.INT, token.SEMICOLON,
		token.IDENT, token.ASSIGN, token.INT, token.SEMICOLON,
		token.EOF,
	}

	for i, tt := range types {
		tok := l.NextToken()
		if tok.Type != tt {
			t.Fatalf("i=%d expected=%q got=%q (%q)", i, tt, tok.Type, tok.Literal)
		}
	}
}

func TestBlockCommentAdjacentToTokens(t *testing.T) {
	input := "a/*c*/+b;"
	l := New(input)
	types := []token.Type{
		token.IDENT, token.PLUS, token.IDENT, token.SEMICOLON, token.EOF,
	}

	for i, tt := range types {
		tok := l.NextToken()
		if tok.Type != tt {
			t.Fatalf("i=%d expected=%q got=%q (%q)", i, tt, tok.Type, tok.Literal)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	input := `s = "he said \"hi\"\nnext\tcol \\ done";`

	l := New(input)

	if l.NextToken().Type != token.IDENT {
		t.Fatal("expected IDENT")
	}
	if l.NextToken().Type != token.ASSIGN {
		t.Fatal("expected =")
	}
	s := l.NextToken()
	if s.Type != token.STRING {
		t.Fatalf("expected STRING, got %v (%q)", s.Type, s.Literal)
	}
	want := "he said \"hi\"\nnext\tcol \\ done"
	if s.Literal != want {
		t.Fatalf("bad escapes: %q, want %q", s.Literal, want)
	}
	if s.Raw != `"he said \"hi\"\nnext\tcol \\ done"` {
		t.Fatalf("Raw not preserved: %q", s.Raw)
	}
}

func TestUnterminatedString(t *testing.T) {
	input := "s = \"broken\nnext"

	l := New(input)
	l.NextToken() // s
	l.NextToken() // =
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("string broken by newline should be ILLEGAL, got %v (%q)", tok.Type, tok.Literal)
	}
}

func TestUnclosedBlockComment(t *testing.T) {
	input := "x /* never closed"

	l := New(input)
	if tok := l.NextToken(); tok.Type != token.IDENT {
		t.Fatalf("expected IDENT, got %v", tok.Type)
	}
	if tok := l.NextToken(); tok.Type != token.EOF {
		t.Fatalf("unclosed block comment should run to EOF, got %v (%q)", tok.Type, tok.Literal)
	}
}
