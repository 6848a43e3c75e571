package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf16"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Pos is a 1-based byte position, the convention the lexer's tokens
// use. Protocol positions are 0-based UTF-16 column offsets.
type Pos struct {
	Line int
	Col  int
}

func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

func byteColToUTF16(lineText string, byteCol int) uint32 {
	if byteCol <= 1 {
		return 0
	}
	limit := byteCol - 1
	if limit > len(lineText) {
		limit = len(lineText)
	}
	var count uint32
	for _, r := range lineText[:limit] {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		count += uint32(n)
	}
	return count
}

func utf16ColToByte(lineText string, utf16Col int) int {
	if utf16Col <= 0 {
		return 1
	}
	count := 0
	for idx, r := range lineText {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if count+n > utf16Col {
			return idx + 1
		}
		count += n
	}
	return len(lineText) + 1
}

func utf16Len(s string) int {
	count := 0
	for _, r := range s {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		count += n
	}
	return count
}

func positionToByte(text string, pos protocol.Position) (Pos, bool) {
	lines := splitLines(text)
	lineIdx := int(pos.Line)
	if lineIdx < 0 || lineIdx >= len(lines) {
		return Pos{}, false
	}
	byteCol := utf16ColToByte(lines[lineIdx], int(pos.Character))
	return Pos{Line: lineIdx + 1, Col: byteCol}, true
}

// rangeOfToken converts a token position and literal into a protocol
// range on the same line.
func rangeOfToken(text string, line int, col int, literal string) protocol.Range {
	lines := splitLines(text)
	if line <= 0 || line > len(lines) {
		return protocol.Range{}
	}
	lineText := lines[line-1]
	start := protocol.Position{Line: uint32(line - 1), Character: byteColToUTF16(lineText, col)}
	length := utf16Len(literal)
	if length < 1 {
		length = 1
	}
	end := protocol.Position{Line: start.Line, Character: start.Character + uint32(length)}
	return protocol.Range{Start: start, End: end}
}

// URIToPath maps a file:// document URI onto a filesystem path.
// Non-file schemes (untitled buffers, virtual documents) come back
// empty and the document is treated as pathless.
func URIToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return ""
	}
	return filepath.FromSlash(u.Path)
}

// PathToURI renders an absolute path as a file:// URI.
func PathToURI(path string) string {
	u := &url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z') ||
		('0' <= b && b <= '9')
}

// identAt returns the identifier the position touches, if any. A
// cursor sitting just past the last character still counts, which is
// where hover lands after typing a name.
func identAt(text string, pos Pos) string {
	lines := splitLines(text)
	if pos.Line < 1 || pos.Line > len(lines) {
		return ""
	}
	lineText := lines[pos.Line-1]
	i := pos.Col - 1
	if i > len(lineText) {
		i = len(lineText)
	}
	if i == len(lineText) || !isIdentByte(lineText[i]) {
		if i == 0 || !isIdentByte(lineText[i-1]) {
			return ""
		}
		i--
	}
	start := i
	for start > 0 && isIdentByte(lineText[start-1]) {
		start--
	}
	end := i + 1
	for end < len(lineText) && isIdentByte(lineText[end]) {
		end++
	}
	word := lineText[start:end]
	if word == "" || (word[0] >= '0' && word[0] <= '9') {
		return ""
	}
	return word
}
