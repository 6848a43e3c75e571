package lexer

import (
	"strings"
	"unicode"

	"aurora/internal/token"
)

type Lexer struct {
	input string

	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination

	line int // 1-based
	col  int // 1-based column of current char
}

func New(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0, // readChar() will advance to col=1 for first char
	}
	l.readChar()
	return l
}

func (l *Lexer) NextToken() token.Token {
	// Skip whitespace (newlines included) and comments.
	for {
		l.skipWhitespace()

		if l.ch == '/' && l.peekChar() == '/' {
			l.skipLineComment()
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			l.skipBlockComment()
			continue
		}

		break
	}

	if l.ch == 0 {
		return l.newToken(token.EOF, "", l.line, l.col)
	}

	startLine, startCol := l.line, l.col
	startIdx := l.position

	switch l.ch {
	case ';':
		return l.opToken(token.SEMICOLON, 1, startLine, startCol)
	case '(':
		return l.opToken(token.LPAREN, 1, startLine, startCol)
	case ')':
		return l.opToken(token.RPAREN, 1, startLine, startCol)
	case '{':
		return l.opToken(token.LBRACE, 1, startLine, startCol)
	case '}':
		return l.opToken(token.RBRACE, 1, startLine, startCol)
	case '[':
		return l.opToken(token.LBRACKET, 1, startLine, startCol)
	case ']':
		return l.opToken(token.RBRACKET, 1, startLine, startCol)
	case ',':
		return l.opToken(token.COMMA, 1, startLine, startCol)
	case ':':
		return l.opToken(token.COLON, 1, startLine, startCol)

	case '#':
		// Only the include directive lives here.
		l.readChar()
		if !isIdentStart(l.ch) {
			return l.newToken(token.ILLEGAL, "#", startLine, startCol)
		}
		name := l.readIdentifier()
		if name == "include" {
			return l.newToken(token.INCLUDE, "#include", startLine, startCol)
		}
		return l.newToken(token.ILLEGAL, "#"+name, startLine, startCol)

	case '.':
		if isDigit(l.peekChar()) {
			lit, _ := l.readNumber()
			return l.newToken(token.FLOAT, lit, startLine, startCol)
		}
		return l.opToken(token.DOT, 1, startLine, startCol)

	case '+':
		switch l.peekChar() {
		case '+':
			return l.opToken(token.INC, 2, startLine, startCol)
		case '=':
			return l.opToken(token.PLUSASSIGN, 2, startLine, startCol)
		}
		return l.opToken(token.PLUS, 1, startLine, startCol)

	case '-':
		switch l.peekChar() {
		case '-':
			return l.opToken(token.DEC, 2, startLine, startCol)
		case '=':
			return l.opToken(token.MINUSASSIGN, 2, startLine, startCol)
		}
		return l.opToken(token.MINUS, 1, startLine, startCol)

	case '*':
		if l.peekChar() == '=' {
			return l.opToken(token.STARASSIGN, 2, startLine, startCol)
		}
		return l.opToken(token.STAR, 1, startLine, startCol)

	case '/':
		// Comments were consumed above.
		if l.peekChar() == '=' {
			return l.opToken(token.SLASHASSIGN, 2, startLine, startCol)
		}
		return l.opToken(token.SLASH, 1, startLine, startCol)

	case '%':
		return l.opToken(token.PERCENT, 1, startLine, startCol)

	case '=':
		if l.peekChar() == '=' {
			return l.opToken(token.EQ, 2, startLine, startCol)
		}
		return l.opToken(token.ASSIGN, 1, startLine, startCol)

	case '!':
		if l.peekChar() == '=' {
			return l.opToken(token.NE, 2, startLine, startCol)
		}
		return l.opToken(token.BANG, 1, startLine, startCol)

	case '~':
		return l.opToken(token.TILDE, 1, startLine, startCol)

	case '&':
		if l.peekChar() == '&' {
			return l.opToken(token.AND, 2, startLine, startCol)
		}
		return l.opToken(token.AMP, 1, startLine, startCol)

	case '|':
		if l.peekChar() == '|' {
			return l.opToken(token.OR, 2, startLine, startCol)
		}
		return l.opToken(token.PIPE, 1, startLine, startCol)

	case '^':
		return l.opToken(token.CARET, 1, startLine, startCol)

	case '<':
		switch l.peekChar() {
		case '=':
			return l.opToken(token.LE, 2, startLine, startCol)
		case '<':
			return l.opToken(token.SHL, 2, startLine, startCol)
		}
		return l.opToken(token.LT, 1, startLine, startCol)

	case '>':
		if l.peekChar() == '=' {
			return l.opToken(token.GE, 2, startLine, startCol)
		}
		if l.peekChar() == '>' {
			if l.peekSecondChar() == '>' {
				return l.opToken(token.USHR, 3, startLine, startCol)
			}
			return l.opToken(token.SHR, 2, startLine, startCol)
		}
		return l.opToken(token.GT, 1, startLine, startCol)

	case '"':
		return l.readStringToken(startLine, startCol, startIdx)
	}

	// Identifiers / keywords
	if isIdentStart(l.ch) {
		lit := l.readIdentifier()
		tt := token.LookupIdent(lit)
		return l.newToken(tt, lit, startLine, startCol)
	}

	// Numbers (int or float)
	if isDigit(l.ch) {
		lit, isFloat := l.readNumber()
		if isFloat {
			return l.newToken(token.FLOAT, lit, startLine, startCol)
		}
		return l.newToken(token.INT, lit, startLine, startCol)
	}

	// Unknown character
	illegal := string(l.ch)
	tok := l.newToken(token.ILLEGAL, illegal, startLine, startCol)
	l.readChar()
	return tok
}

func (l *Lexer) newToken(t token.Type, lit string, line, col int) token.Token {
	return token.Token{
		Type:    t,
		Literal: lit,
		Line:    line,
		Col:     col,
	}
}

// opToken consumes n chars and emits them verbatim as a token of type t.
func (l *Lexer) opToken(t token.Type, n, line, col int) token.Token {
	start := l.position
	for i := 0; i < n; i++ {
		l.readChar()
	}
	return l.newToken(t, l.input[start:l.position], line, col)
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}

	l.ch = l.input[l.readPosition]
	l.position = l.readPosition
	l.readPosition++

	// Track line/col for current char
	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) peekSecondChar() byte {
	if l.readPosition+1 >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition+1]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
		l.readChar()
	}
}

func (l *Lexer) skipLineComment() {
	// We are at first '/' and next is '/'
	l.readChar()
	l.readChar()

	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

func (l *Lexer) skipBlockComment() {
	// We are at first '/' and next is '*'
	l.readChar()
	l.readChar()

	for l.ch != 0 {
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar() // consume '*'
			l.readChar() // consume '/', lands on the next char
			return
		}
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isIdentPart(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber scans decimal ints, hex ints, and floats. Floats may start
// or end with a bare dot and may carry the f suffix: 1.5, .5, 7., 1.5f, 3f.
func (l *Lexer) readNumber() (string, bool) {
	start := l.position

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) {
			l.readChar()
		}
		return l.input[start:l.position], false
	}

	isFloat := l.ch == '.'
	if isFloat {
		l.readChar()
	}
	for isDigit(l.ch) {
		l.readChar()
	}

	if !isFloat && l.ch == '.' {
		next := l.peekChar()
		if isDigit(next) || next == 'f' || next == 'F' || !isIdentPart(next) {
			isFloat = true
			l.readChar()
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	if (l.ch == 'f' || l.ch == 'F') && !isIdentPart(l.peekChar()) {
		isFloat = true
		l.readChar()
	}

	return l.input[start:l.position], isFloat
}

func (l *Lexer) readStringToken(startLine, startCol, startIdx int) token.Token {
	// Current l.ch == '"'
	l.readChar() // move past opening quote

	var b strings.Builder
	for {
		if l.ch == 0 || l.ch == '\n' {
			return l.newToken(token.ILLEGAL, "unterminated string", startLine, startCol)
		}
		if l.ch == '"' {
			break
		}

		if l.ch == '\\' {
			switch l.peekChar() {
			case '"':
				l.readChar()
				b.WriteByte('"')
				l.readChar()
				continue
			case '\\':
				l.readChar()
				b.WriteByte('\\')
				l.readChar()
				continue
			case 'n':
				l.readChar()
				b.WriteByte('\n')
				l.readChar()
				continue
			case 't':
				l.readChar()
				b.WriteByte('\t')
				l.readChar()
				continue
			default:
				// Unknown escape: keep the backslash literally
				b.WriteByte(l.ch)
				l.readChar()
				continue
			}
		}

		b.WriteByte(l.ch)
		l.readChar()
	}

	l.readChar() // consume closing quote
	tok := l.newToken(token.STRING, b.String(), startLine, startCol)
	tok.Raw = l.input[startIdx:l.position]
	return tok
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= 128 && unicode.IsLetter(rune(ch)))
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
