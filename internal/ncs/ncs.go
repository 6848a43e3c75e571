// Package ncs holds the compiled script format: the in-memory
// instruction model and the wire codec used for .ncs resources.
package ncs

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Signature opens every encoded program. The trailing byte after it is
// a fixed size marker, then a big-endian uint32 with the total file
// length including the header.
const (
	Signature  = "NCS V1.0"
	SizeMarker = 0x42

	headerLen = len(Signature) + 1 + 4
)

// Instruction is one decoded operation. A, B and C carry int operands
// in order, F the float operand, S the string operand. Jump operands
// are absolute instruction indexes into Program.Code.
type Instruction struct {
	Op Opcode
	A  int32
	B  int32
	C  int32
	F  float32
	S  string
}

// Program is an executable unit, named after the resource it was
// loaded from or compiled as.
type Program struct {
	Name string
	Code []Instruction
}

// FormatError reports malformed bytecode. Loading code that returns a
// FormatError must treat the resource as unusable; it never reaches
// the interpreter.
type FormatError struct {
	Name   string
	Offset int
	Msg    string
}

func (e *FormatError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("ncs: offset %d: %s", e.Offset, e.Msg)
	}
	return fmt.Sprintf("ncs: %s: offset %d: %s", e.Name, e.Offset, e.Msg)
}

func formatErr(name string, offset int, format string, args ...any) error {
	return &FormatError{Name: name, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// Encode serializes prog into the wire format.
func Encode(prog *Program) []byte {
	var body []byte
	for _, ins := range prog.Code {
		body = append(body, byte(ins.Op))
		def, ok := Lookup(ins.Op)
		if !ok {
			continue
		}
		ints := 0
		for _, kind := range def.Operands {
			switch kind {
			case OperandInt, OperandTarget:
				body = binary.BigEndian.AppendUint32(body, uint32(intOperand(ins, ints)))
				ints++
			case OperandFloat:
				body = binary.BigEndian.AppendUint32(body, math.Float32bits(ins.F))
			case OperandString:
				body = binary.BigEndian.AppendUint16(body, uint16(len(ins.S)))
				body = append(body, ins.S...)
			}
		}
	}

	out := make([]byte, 0, headerLen+len(body))
	out = append(out, Signature...)
	out = append(out, SizeMarker)
	out = binary.BigEndian.AppendUint32(out, uint32(headerLen+len(body)))
	out = append(out, body...)
	return out
}

// Decode parses data into a program named name. Every violation of
// the format, from a bad signature to a jump outside the code, comes
// back as a *FormatError.
func Decode(name string, data []byte) (*Program, error) {
	if len(data) < headerLen {
		return nil, formatErr(name, 0, "truncated header: %d bytes, need %d", len(data), headerLen)
	}
	if string(data[:len(Signature)]) != Signature {
		return nil, formatErr(name, 0, "bad signature %q, want %q", data[:len(Signature)], Signature)
	}
	pos := len(Signature)
	if data[pos] != SizeMarker {
		return nil, formatErr(name, pos, "bad size marker 0x%02X, want 0x%02X", data[pos], SizeMarker)
	}
	pos++
	declared := binary.BigEndian.Uint32(data[pos:])
	pos += 4
	if int(declared) != len(data) {
		return nil, formatErr(name, pos-4, "declared length %d, have %d bytes", declared, len(data))
	}

	prog := &Program{Name: name}
	for pos < len(data) {
		at := pos
		op := Opcode(data[pos])
		pos++

		def, ok := Lookup(op)
		if !ok {
			return nil, formatErr(name, at, "unknown opcode 0x%02X", byte(op))
		}

		ins := Instruction{Op: op}
		ints := 0
		for _, kind := range def.Operands {
			switch kind {
			case OperandInt, OperandTarget:
				if pos+4 > len(data) {
					return nil, formatErr(name, at, "%s: truncated int operand", def.Name)
				}
				v := int32(binary.BigEndian.Uint32(data[pos:]))
				pos += 4
				setIntOperand(&ins, ints, v)
				ints++
			case OperandFloat:
				if pos+4 > len(data) {
					return nil, formatErr(name, at, "%s: truncated float operand", def.Name)
				}
				ins.F = math.Float32frombits(binary.BigEndian.Uint32(data[pos:]))
				pos += 4
			case OperandString:
				if pos+2 > len(data) {
					return nil, formatErr(name, at, "%s: truncated string length", def.Name)
				}
				n := int(binary.BigEndian.Uint16(data[pos:]))
				pos += 2
				if pos+n > len(data) {
					return nil, formatErr(name, at, "%s: string operand of %d bytes overruns data", def.Name, n)
				}
				ins.S = string(data[pos : pos+n])
				pos += n
			}
		}

		prog.Code = append(prog.Code, ins)
	}

	if err := validateTargets(name, prog); err != nil {
		return nil, err
	}
	return prog, nil
}

// validateTargets checks that every jump lands inside the program.
// Jsr may not target index 0 sensibly but any in-range index is legal.
func validateTargets(name string, prog *Program) error {
	n := int32(len(prog.Code))
	for i, ins := range prog.Code {
		def, _ := Lookup(ins.Op)
		if def == nil {
			continue
		}
		ints := 0
		for _, kind := range def.Operands {
			if kind == OperandInt {
				ints++
				continue
			}
			if kind != OperandTarget {
				continue
			}
			t := intOperand(ins, ints)
			ints++
			if t < 0 || t >= n {
				return formatErr(name, i, "%s target %d outside code of %d instructions", def.Name, t, n)
			}
		}
	}
	return nil
}

func intOperand(ins Instruction, idx int) int32 {
	switch idx {
	case 0:
		return ins.A
	case 1:
		return ins.B
	default:
		return ins.C
	}
}

func setIntOperand(ins *Instruction, idx int, v int32) {
	switch idx {
	case 0:
		ins.A = v
	case 1:
		ins.B = v
	default:
		ins.C = v
	}
}
