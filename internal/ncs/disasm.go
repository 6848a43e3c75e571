package ncs

import (
	"fmt"
	"strings"
)

// Disassemble renders a listing with one instruction per line, indexed
// so jump targets can be followed by eye.
func Disassemble(prog *Program) string {
	var sb strings.Builder

	if prog.Name != "" {
		sb.WriteString(fmt.Sprintf("; %s\n", prog.Name))
	}
	sb.WriteString(fmt.Sprintf("; %d instructions\n", len(prog.Code)))

	for i, ins := range prog.Code {
		sb.WriteString(fmt.Sprintf("%04d: %s\n", i, formatInstruction(ins)))
	}
	return sb.String()
}

func formatInstruction(ins Instruction) string {
	def, ok := Lookup(ins.Op)
	if !ok {
		return fmt.Sprintf("0x%02X ???", byte(ins.Op))
	}

	parts := []string{def.Name}
	ints := 0
	for _, kind := range def.Operands {
		switch kind {
		case OperandInt:
			parts = append(parts, fmt.Sprintf("%d", intOperand(ins, ints)))
			ints++
		case OperandTarget:
			parts = append(parts, fmt.Sprintf("-> %d", intOperand(ins, ints)))
			ints++
		case OperandFloat:
			parts = append(parts, fmt.Sprintf("%g", ins.F))
		case OperandString:
			parts = append(parts, fmt.Sprintf("%q", ins.S))
		}
	}
	return strings.Join(parts, " ")
}
