package token

type Type string

type Token struct {
	Type    Type
	Literal string
	// Raw preserves the original lexeme when Literal is normalized (e.g., strings).
	Raw  string
	Line int
	Col  int
}

const (
	// Special
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"

	// Identifiers + literals
	IDENT  Type = "IDENT"
	INT    Type = "INT"
	FLOAT  Type = "FLOAT"
	STRING Type = "STRING"

	// Type keywords
	KWVOID   Type = "void"
	KWINT    Type = "int"
	KWFLOAT  Type = "float"
	KWSTR    Type = "string"
	KWOBJECT Type = "object"
	KWVECTOR Type = "vector"
	KWLOC    Type = "location"
	KWEFFECT Type = "effect"
	KWEVENT  Type = "event"
	KWTALENT Type = "talent"
	KWACTION Type = "action"
	KWSTRUCT Type = "struct"

	// Keywords
	IF       Type = "if"
	ELSE     Type = "else"
	WHILE    Type = "while"
	DO       Type = "do"
	FOR      Type = "for"
	SWITCH   Type = "switch"
	CASE     Type = "case"
	DEFAULT  Type = "default"
	BREAK    Type = "break"
	CONTINUE Type = "continue"
	RETURN   Type = "return"
	CONST    Type = "const"

	// Preprocessor
	INCLUDE Type = "#include"

	// Operators
	ASSIGN      Type = "="
	PLUS        Type = "+"
	MINUS       Type = "-"
	STAR        Type = "*"
	SLASH       Type = "/"
	PERCENT     Type = "%"
	BANG        Type = "!"
	TILDE       Type = "~"
	AMP         Type = "&"
	PIPE        Type = "|"
	CARET       Type = "^"
	SHL         Type = "<<"
	SHR         Type = ">>"
	USHR        Type = ">>>"
	AND         Type = "&&"
	OR          Type = "||"
	INC         Type = "++"
	DEC         Type = "--"
	PLUSASSIGN  Type = "+="
	MINUSASSIGN Type = "-="
	STARASSIGN  Type = "*="
	SLASHASSIGN Type = "/="

	EQ Type = "=="
	NE Type = "!="
	LT Type = "<"
	LE Type = "<="
	GT Type = ">"
	GE Type = ">="

	// Delimiters
	SEMICOLON Type = ";"
	COMMA     Type = ","
	COLON     Type = ":"
	DOT       Type = "."
	LPAREN    Type = "("
	RPAREN    Type = ")"
	LBRACKET  Type = "["
	RBRACKET  Type = "]"
	LBRACE    Type = "{"
	RBRACE    Type = "}"
)

var keywords = map[string]Type{
	"void":     KWVOID,
	"int":      KWINT,
	"float":    KWFLOAT,
	"string":   KWSTR,
	"object":   KWOBJECT,
	"vector":   KWVECTOR,
	"location": KWLOC,
	"effect":   KWEFFECT,
	"event":    KWEVENT,
	"talent":   KWTALENT,
	"action":   KWACTION,
	"struct":   KWSTRUCT,
	"if":       IF,
	"else":     ELSE,
	"while":    WHILE,
	"do":       DO,
	"for":      FOR,
	"switch":   SWITCH,
	"case":     CASE,
	"default":  DEFAULT,
	"break":    BREAK,
	"continue": CONTINUE,
	"return":   RETURN,
	"const":    CONST,
}

func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsType reports whether t names a declarable value type. void is the
// function-return pseudo type and struct only backs vector's fields,
// so neither counts.
func IsType(t Type) bool {
	switch t {
	case KWINT, KWFLOAT, KWSTR, KWOBJECT, KWVECTOR, KWLOC, KWEFFECT, KWEVENT, KWTALENT, KWACTION:
		return true
	}
	return false
}
