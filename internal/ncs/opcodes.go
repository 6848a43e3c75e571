package ncs

import "fmt"

// Opcode is one bytecode instruction. Values are grouped into ranges
// by category so a hex dump reads sensibly.
type Opcode byte

const (
	OpNop Opcode = 0x00 // No operation

	// Constants (0x01-0x0F)

	OpConstI Opcode = 0x01 // Push int: ConstI <value:i32>
	OpConstF Opcode = 0x02 // Push float: ConstF <value:f32>
	OpConstS Opcode = 0x03 // Push string: ConstS <value:str>
	OpConstO Opcode = 0x04 // Push object ref: ConstO <ref:i32> (0=self, 1=invalid)

	// Stack addressing (0x10-0x1F). Offsets are in bytes, negative,
	// relative to the top of the operand stack. One cell is 4 bytes.

	OpCopyTopSP  Opcode = 0x10 // Copy cells to top: CopyTopSP <offset:i32> <size:i32>
	OpCopyDownSP Opcode = 0x11 // Copy top cells down: CopyDownSP <offset:i32> <size:i32>
	OpMovSP      Opcode = 0x12 // Adjust stack pointer: MovSP <delta:i32>
	OpReserve    Opcode = 0x13 // Push default of kind: Reserve <kind:i32>
	OpDestruct   Opcode = 0x14 // Remove <total:i32> bytes, keeping <size:i32> at <offset:i32>

	// Arithmetic (0x20-0x2F). Add through Div carry a pair shape operand.

	OpAdd Opcode = 0x20 // Pop two, push sum: Add <shape:i32> (int, float, string concat, vector)
	OpSub Opcode = 0x21 // Pop two, push difference: Sub <shape:i32>
	OpMul Opcode = 0x22 // Pop two, push product: Mul <shape:i32> (incl. vector * float)
	OpDiv Opcode = 0x23 // Pop two, push quotient: Div <shape:i32>
	OpMod Opcode = 0x24 // Pop two, push remainder (int only)
	OpNeg Opcode = 0x25 // Negate top (int or float)

	// Comparison (0x30-0x3F). Result is int 0 or 1.

	OpEq  Opcode = 0x30
	OpNeq Opcode = 0x31
	OpLt  Opcode = 0x32
	OpGt  Opcode = 0x33
	OpLe  Opcode = 0x34
	OpGe  Opcode = 0x35

	// Logic and bitwise (0x40-0x4F). Int operands.

	OpNot  Opcode = 0x40 // !x: push 1 if zero, else 0
	OpComp Opcode = 0x41 // ~x: bitwise complement
	OpAnd  Opcode = 0x42 // x & y
	OpOr   Opcode = 0x43 // x | y
	OpXor  Opcode = 0x44 // x ^ y
	OpShl  Opcode = 0x45 // x << y
	OpShr  Opcode = 0x46 // x >> y (arithmetic)
	OpUshr Opcode = 0x47 // x >>> y (logical)

	// Control flow (0x50-0x5F). Targets are absolute instruction indexes.

	OpJmp Opcode = 0x50 // Jmp <target>
	OpJz  Opcode = 0x51 // Pop int, jump if zero: Jz <target>
	OpJnz Opcode = 0x52 // Pop int, jump if nonzero: Jnz <target>
	OpJsr Opcode = 0x53 // Call subroutine: Jsr <target>
	OpRet Opcode = 0x54 // Return from subroutine (or finish at depth 0)

	// Engine interface (0x60-0x6F)

	OpAction     Opcode = 0x60 // Call engine routine: Action <routine:i32> <argc:i32>
	OpStoreState Opcode = 0x61 // Push deferred-action value: StoreState <entry>
)

// Pair shapes for the A operand of Add, Sub, Mul and Div. A vector is
// three plain float cells on the stack, so the interpreter cannot tell a
// vector operand from three floats at runtime; the shape says how many
// cells each side occupies. Scalar pairs resolve int/float/string by the
// kinds of the popped cells.
const (
	PairScalar int32 = 0 // one cell each side
	PairVecVec int32 = 1 // three float cells each side
	PairVecF   int32 = 2 // vector left, float right
	PairFVec   int32 = 3 // float left, vector right
)

// OperandKind says how one operand of an instruction is encoded and
// which Instruction field carries it.
type OperandKind uint8

const (
	OperandInt    OperandKind = iota // 4-byte big-endian int32, fills A then B then C
	OperandFloat                     // 4-byte big-endian IEEE754, fills F
	OperandString                    // u16 length + bytes, fills S
	OperandTarget                    // like OperandInt but validated as a code index
)

// Definition is the metadata for one opcode.
type Definition struct {
	Name     string
	Operands []OperandKind
}

var definitions = map[Opcode]*Definition{
	OpNop:        {"Nop", nil},
	OpConstI:     {"ConstI", []OperandKind{OperandInt}},
	OpConstF:     {"ConstF", []OperandKind{OperandFloat}},
	OpConstS:     {"ConstS", []OperandKind{OperandString}},
	OpConstO:     {"ConstO", []OperandKind{OperandInt}},
	OpCopyTopSP:  {"CopyTopSP", []OperandKind{OperandInt, OperandInt}},
	OpCopyDownSP: {"CopyDownSP", []OperandKind{OperandInt, OperandInt}},
	OpMovSP:      {"MovSP", []OperandKind{OperandInt}},
	OpReserve:    {"Reserve", []OperandKind{OperandInt}},
	OpDestruct:   {"Destruct", []OperandKind{OperandInt, OperandInt, OperandInt}},
	OpAdd:        {"Add", []OperandKind{OperandInt}},
	OpSub:        {"Sub", []OperandKind{OperandInt}},
	OpMul:        {"Mul", []OperandKind{OperandInt}},
	OpDiv:        {"Div", []OperandKind{OperandInt}},
	OpMod:        {"Mod", nil},
	OpNeg:        {"Neg", nil},
	OpEq:         {"Eq", nil},
	OpNeq:        {"Neq", nil},
	OpLt:         {"Lt", nil},
	OpGt:         {"Gt", nil},
	OpLe:         {"Le", nil},
	OpGe:         {"Ge", nil},
	OpNot:        {"Not", nil},
	OpComp:       {"Comp", nil},
	OpAnd:        {"And", nil},
	OpOr:         {"Or", nil},
	OpXor:        {"Xor", nil},
	OpShl:        {"Shl", nil},
	OpShr:        {"Shr", nil},
	OpUshr:       {"Ushr", nil},
	OpJmp:        {"Jmp", []OperandKind{OperandTarget}},
	OpJz:         {"Jz", []OperandKind{OperandTarget}},
	OpJnz:        {"Jnz", []OperandKind{OperandTarget}},
	OpJsr:        {"Jsr", []OperandKind{OperandTarget}},
	OpRet:        {"Ret", nil},
	OpAction:     {"Action", []OperandKind{OperandInt, OperandInt}},
	OpStoreState: {"StoreState", []OperandKind{OperandTarget}},
}

func Lookup(op Opcode) (*Definition, bool) {
	def, ok := definitions[op]
	return def, ok
}

func (op Opcode) String() string {
	if def, ok := definitions[op]; ok {
		return def.Name
	}
	return fmt.Sprintf("Opcode(0x%02X)", byte(op))
}
