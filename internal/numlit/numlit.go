package numlit

import (
	"fmt"
	"strconv"
	"strings"
)

type IntLiteral struct {
	Base       int
	Digits     string
	Normalized string
}

type FloatLiteral struct {
	Normalized string
	HasSuffix  bool
}

func NormalizeIntLiteral(lit string) (IntLiteral, error) {
	base := 10
	digits := lit
	if len(lit) >= 2 && lit[0] == '0' && (lit[1] == 'x' || lit[1] == 'X') {
		base = 16
		digits = lit[2:]
	}
	if err := validateDigits(digits, base); err != nil {
		return IntLiteral{}, fmt.Errorf("invalid integer literal: %w", err)
	}
	return IntLiteral{
		Base:       base,
		Digits:     digits,
		Normalized: digits,
	}, nil
}

// ParseIntLiteral evaluates a decimal or hex literal to the 32-bit int
// the bytecode carries. Hex literals are bit patterns, so 0xFFFFFFFF
// parses to -1.
func ParseIntLiteral(lit string) (int32, error) {
	info, err := NormalizeIntLiteral(lit)
	if err != nil {
		return 0, err
	}
	if info.Base == 16 {
		v, err := strconv.ParseUint(info.Normalized, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("integer literal out of range")
		}
		return int32(uint32(v)), nil
	}
	v, err := strconv.ParseInt(info.Normalized, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("integer literal out of range")
	}
	return int32(v), nil
}

func NormalizeFloatLiteral(lit string) (FloatLiteral, error) {
	hasSuffix := false
	body := lit
	if n := len(body); n > 0 && (body[n-1] == 'f' || body[n-1] == 'F') {
		hasSuffix = true
		body = body[:n-1]
	}
	if body == "" {
		return FloatLiteral{}, fmt.Errorf("float literal requires digits")
	}
	if strings.IndexAny(body, "eE") >= 0 {
		return FloatLiteral{}, fmt.Errorf("float literal cannot use an exponent")
	}

	norm, err := normalizeMantissa(body)
	if err != nil {
		return FloatLiteral{}, err
	}
	return FloatLiteral{
		Normalized: norm,
		HasSuffix:  hasSuffix,
	}, nil
}

func ParseFloatLiteral(lit string) (float32, error) {
	info, err := NormalizeFloatLiteral(lit)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(info.Normalized, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid float literal")
	}
	return float32(v), nil
}

func normalizeMantissa(mantissa string) (string, error) {
	if !strings.Contains(mantissa, ".") {
		if err := validateDigits(mantissa, 10); err != nil {
			return "", fmt.Errorf("invalid float literal: %w", err)
		}
		return mantissa, nil
	}
	parts := strings.SplitN(mantissa, ".", 2)
	whole, frac := parts[0], parts[1]
	if whole == "" && frac == "" {
		return "", fmt.Errorf("float literal requires digits")
	}
	if whole != "" {
		if err := validateDigits(whole, 10); err != nil {
			return "", fmt.Errorf("invalid float literal: %w", err)
		}
	} else {
		whole = "0"
	}
	if frac != "" {
		if err := validateDigits(frac, 10); err != nil {
			return "", fmt.Errorf("invalid float literal: %w", err)
		}
	} else {
		frac = "0"
	}
	return whole + "." + frac, nil
}

func validateDigits(s string, base int) error {
	if s == "" {
		return fmt.Errorf("digits required")
	}
	for i := 0; i < len(s); i++ {
		if !isDigitForBase(s[i], base) {
			return fmt.Errorf("invalid digit %q for base %d", s[i], base)
		}
	}
	return nil
}

func isDigitForBase(ch byte, base int) bool {
	switch {
	case ch >= '0' && ch <= '9':
		return true
	case base == 16 && ch >= 'a' && ch <= 'f':
		return true
	case base == 16 && ch >= 'A' && ch <= 'F':
		return true
	default:
		return false
	}
}
