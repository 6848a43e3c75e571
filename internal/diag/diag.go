package diag

import (
	"fmt"
	"sort"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

type Range struct {
	Line   int // 1-based
	Col    int // 1-based
	Length int // best-effort; can be 1 if unknown
}

// Diagnostic codes are stable strings: AP#### parse, AC#### compile,
// AW#### lint, AV#### runtime.
type Diagnostic struct {
	Code     string
	Message  string
	Severity Severity
	Range    Range
}

func (d Diagnostic) Format(path string) string {
	if d.Code != "" {
		return fmt.Sprintf("%s:%d:%d: %s %s: %s", path, d.Range.Line, d.Range.Col, d.Severity.String(), d.Code, d.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", path, d.Range.Line, d.Range.Col, d.Severity.String(), d.Message)
}

func Errorf(code string, r Range, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
		Range:    r,
	}
}

func Warnf(code string, r Range, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityWarning,
		Range:    r,
	}
}

// List is an ordered collection of diagnostics for one source unit.
type List []Diagnostic

func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Sort orders by line, then column, then code. Stable for golden output.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		if l[i].Range.Line != l[j].Range.Line {
			return l[i].Range.Line < l[j].Range.Line
		}
		if l[i].Range.Col != l[j].Range.Col {
			return l[i].Range.Col < l[j].Range.Col
		}
		return l[i].Code < l[j].Code
	})
}
