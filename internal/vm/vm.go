// Package vm interprets compiled script bytecode.
//
// One machine runs one call. The executor builds a fresh machine per
// script invocation (and per replayed action) and reads the executed
// instruction count off the Result; nothing here is shared or reentrant.
// The operand stack is a slice of 4-byte cells and a vector occupies
// three float cells, so the byte offsets carried by the stack-addressing
// instructions divide by four to index it.
package vm

import (
	"fmt"

	"aurora/internal/ncs"
	"aurora/internal/value"
)

const StackSize = 1024
const MaxFrames = 128

// DefaultMaxSteps is the per-call instruction ceiling used when Options
// does not set one. The ceiling always exists: a runaway script comes
// back as an InstructionLimitError instead of hanging the host.
const DefaultMaxSteps = 1 << 20

// Fault codes. Stable strings, same shape as the compiler's AC codes.
const (
	FaultStackOverflow  = "AV0001"
	FaultStackUnderflow = "AV0002"
	FaultBadAddress     = "AV0003"
	FaultCallDepth      = "AV0004"
	FaultBadTarget      = "AV0005"
	FaultBadOpcode      = "AV0006"
	FaultRoutine        = "AV0007"
	FaultKinds          = "AV0008"
	FaultDivByZero      = "AV0009"
)

// Fault reports broken bytecode or broken execution state: underflow,
// wild jumps, unknown opcodes or routines, operand kinds the compiler
// can never emit. The host receives it as an ordinary error.
type Fault struct {
	Code string
	IP   int
	Op   ncs.Opcode
	Msg  string
}

func (e *Fault) Error() string {
	return fmt.Sprintf("%s: %s (%s @ %d)", e.Code, e.Msg, e.Op, e.IP)
}

// InstructionLimitError reports that a call hit its step ceiling. It is
// not a Fault: the program may be fine, it just ran too long.
type InstructionLimitError struct {
	Limit int64
}

func (e *InstructionLimitError) Error() string {
	return fmt.Sprintf("max instruction count exceeded (%d)", e.Limit)
}

// RoutineSet is the engine dispatcher bound to the current execution
// context. The interpreter needs the parameter shapes, so it knows how
// many cells each argument occupies, and a way to call through.
type RoutineSet interface {
	// ParamKinds reports the declared parameter kinds of a routine.
	// The second result is false for IDs outside the table.
	ParamKinds(id int32) ([]value.Kind, bool)
	// Call dispatches a routine with fully materialized arguments and
	// returns its result, value.Void for void routines.
	Call(id int32, args []value.Value) (value.Value, error)
}

// Options configures one call.
type Options struct {
	// MaxSteps is the hard instruction ceiling for this call. Zero or
	// negative selects DefaultMaxSteps.
	MaxSteps int64
	// Routines handles Action instructions. A program that makes engine
	// calls faults without one.
	Routines RoutineSet
	// Self is the entity ConstO 0 resolves to.
	Self value.ObjectID
	// Entry overrides the start instruction when replaying a stored
	// action. The default of zero is the normal program start.
	Entry int
	// Stack pre-seeds the operand stack when replaying a stored action.
	Stack []value.Value
}

// Result is what one finished call leaves behind.
type Result struct {
	// Return is the program's int result: the top-of-stack int after the
	// final return when the program left one, else zero.
	Return int32
	// Steps counts the instructions this call executed. It is valid on
	// errors too.
	Steps int64
}

// Run interprets prog until its outermost return. Broken programs and
// exhausted ceilings come back as errors; Run never panics.
func Run(prog *ncs.Program, opts Options) (Result, error) {
	if prog == nil {
		return Result{}, &Fault{Code: FaultBadTarget, Msg: "no program"}
	}
	if len(opts.Stack) > StackSize {
		return Result{}, &Fault{
			Code: FaultStackOverflow,
			Msg:  fmt.Sprintf("seed stack of %d cells exceeds %d", len(opts.Stack), StackSize),
		}
	}
	m := newMachine(prog, opts)
	return m.run()
}

type machine struct {
	prog *ncs.Program
	code []ncs.Instruction

	stack []value.Value
	sp    int

	calls []int

	ip     int
	at     int
	halted bool

	steps    int64
	maxSteps int64

	routines RoutineSet
	self     value.ObjectID
}

func newMachine(prog *ncs.Program, opts Options) *machine {
	max := opts.MaxSteps
	if max <= 0 {
		max = DefaultMaxSteps
	}
	m := &machine{
		prog:     prog,
		code:     prog.Code,
		stack:    make([]value.Value, StackSize),
		calls:    make([]int, 0, 16),
		ip:       opts.Entry,
		maxSteps: max,
		routines: opts.Routines,
		self:     opts.Self,
	}
	copy(m.stack, opts.Stack)
	m.sp = len(opts.Stack)
	return m
}

func (m *machine) run() (Result, error) {
	for !m.halted {
		if m.steps >= m.maxSteps {
			return Result{Steps: m.steps}, &InstructionLimitError{Limit: m.maxSteps}
		}
		m.at = m.ip
		if m.at < 0 || m.at >= len(m.code) {
			err := m.fault(FaultBadTarget, "instruction pointer %d outside code of %d instructions", m.at, len(m.code))
			return Result{Steps: m.steps}, err
		}
		if err := m.step(); err != nil {
			return Result{Steps: m.steps}, err
		}
	}

	ret := int32(0)
	if m.sp > 0 && m.stack[m.sp-1].Kind() == value.KindInt {
		ret = m.stack[m.sp-1].Int()
	}
	return Result{Return: ret, Steps: m.steps}, nil
}

func (m *machine) step() error {
	ins := m.code[m.at]
	m.ip++
	m.steps++

	switch ins.Op {
	case ncs.OpNop:
		return nil

	case ncs.OpConstI:
		return m.push(value.Int(ins.A))

	case ncs.OpConstF:
		return m.push(value.Float(ins.F))

	case ncs.OpConstS:
		return m.push(value.Str(ins.S))

	case ncs.OpConstO:
		switch ins.A {
		case 0:
			return m.push(value.Obj(m.self))
		case 1:
			return m.push(value.Obj(value.ObjectInvalid))
		default:
			return m.push(value.Obj(value.ObjectID(uint32(ins.A))))
		}

	case ncs.OpCopyTopSP:
		return m.copyTopSP(ins.A, ins.B)

	case ncs.OpCopyDownSP:
		return m.copyDownSP(ins.A, ins.B)

	case ncs.OpMovSP:
		return m.movSP(ins.A)

	case ncs.OpReserve:
		return m.reserve(ins.A)

	case ncs.OpDestruct:
		return m.destruct(ins.A, ins.B, ins.C)

	case ncs.OpAdd, ncs.OpSub, ncs.OpMul, ncs.OpDiv:
		return m.binary(ins.Op, ins.A)

	case ncs.OpMod:
		b, err := m.popInt()
		if err != nil {
			return err
		}
		a, err := m.popInt()
		if err != nil {
			return err
		}
		if b == 0 {
			return m.fault(FaultDivByZero, "integer modulo by zero")
		}
		return m.push(value.Int(a % b))

	case ncs.OpNeg:
		v, err := m.pop()
		if err != nil {
			return err
		}
		switch v.Kind() {
		case value.KindInt:
			return m.push(value.Int(-v.Int()))
		case value.KindFloat:
			return m.push(value.Float(-v.Float()))
		default:
			return m.fault(FaultKinds, "negate of %s", v.Kind())
		}

	case ncs.OpEq, ncs.OpNeq, ncs.OpLt, ncs.OpGt, ncs.OpLe, ncs.OpGe:
		return m.compare(ins.Op)

	case ncs.OpNot:
		v, err := m.popInt()
		if err != nil {
			return err
		}
		return m.push(value.Bool(v == 0))

	case ncs.OpComp:
		v, err := m.popInt()
		if err != nil {
			return err
		}
		return m.push(value.Int(^v))

	case ncs.OpAnd, ncs.OpOr, ncs.OpXor, ncs.OpShl, ncs.OpShr, ncs.OpUshr:
		return m.bitwise(ins.Op)

	case ncs.OpJmp:
		m.ip = int(ins.A)
		return nil

	case ncs.OpJz:
		c, err := m.popInt()
		if err != nil {
			return err
		}
		if c == 0 {
			m.ip = int(ins.A)
		}
		return nil

	case ncs.OpJnz:
		c, err := m.popInt()
		if err != nil {
			return err
		}
		if c != 0 {
			m.ip = int(ins.A)
		}
		return nil

	case ncs.OpJsr:
		if len(m.calls) >= MaxFrames {
			return m.fault(FaultCallDepth, "call depth exceeds %d", MaxFrames)
		}
		m.calls = append(m.calls, m.ip)
		m.ip = int(ins.A)
		return nil

	case ncs.OpRet:
		if len(m.calls) == 0 {
			m.halted = true
			return nil
		}
		m.ip = m.calls[len(m.calls)-1]
		m.calls = m.calls[:len(m.calls)-1]
		return nil

	case ncs.OpAction:
		return m.engineCall(ins.A, ins.B)

	case ncs.OpStoreState:
		snap := make([]value.Value, m.sp)
		copy(snap, m.stack[:m.sp])
		return m.push(value.Act(value.Action{Entry: ins.A, Saved: snap}))

	default:
		return m.fault(FaultBadOpcode, "unknown opcode 0x%02X", byte(ins.Op))
	}
}

func (m *machine) push(v value.Value) error {
	if m.sp >= len(m.stack) {
		return m.fault(FaultStackOverflow, "operand stack overflow (%d cells)", len(m.stack))
	}
	m.stack[m.sp] = v
	m.sp++
	return nil
}

func (m *machine) pop() (value.Value, error) {
	if m.sp == 0 {
		return value.Void, m.fault(FaultStackUnderflow, "pop from empty operand stack")
	}
	m.sp--
	v := m.stack[m.sp]
	m.stack[m.sp] = value.Void
	return v, nil
}

func (m *machine) popInt() (int32, error) {
	v, err := m.pop()
	if err != nil {
		return 0, err
	}
	if v.Kind() != value.KindInt {
		return 0, m.fault(FaultKinds, "expected int cell, have %s", v.Kind())
	}
	return v.Int(), nil
}

func (m *machine) popFloat() (float32, error) {
	v, err := m.pop()
	if err != nil {
		return 0, err
	}
	if v.Kind() != value.KindFloat {
		return 0, m.fault(FaultKinds, "expected float cell, have %s", v.Kind())
	}
	return v.Float(), nil
}

// popVector pops the three float cells of a vector, Z first.
func (m *machine) popVector() (value.Vector, error) {
	z, err := m.popFloat()
	if err != nil {
		return value.Vector{}, err
	}
	y, err := m.popFloat()
	if err != nil {
		return value.Vector{}, err
	}
	x, err := m.popFloat()
	if err != nil {
		return value.Vector{}, err
	}
	return value.Vector{X: x, Y: y, Z: z}, nil
}

// pushVector spreads a vector into its three float cells, X first.
func (m *machine) pushVector(v value.Vector) error {
	if err := m.push(value.Float(v.X)); err != nil {
		return err
	}
	if err := m.push(value.Float(v.Y)); err != nil {
		return err
	}
	return m.push(value.Float(v.Z))
}

// cells converts a byte count from the wire into whole stack cells.
func (m *machine) cells(n int32) (int, error) {
	if n%4 != 0 {
		return 0, m.fault(FaultBadAddress, "byte count %d is not cell aligned", n)
	}
	return int(n / 4), nil
}

func (m *machine) copyTopSP(offset, size int32) error {
	off, err := m.cells(offset)
	if err != nil {
		return err
	}
	n, err := m.cells(size)
	if err != nil {
		return err
	}
	start := m.sp + off
	if n <= 0 || off >= 0 || start < 0 || start+n > m.sp {
		return m.fault(FaultBadAddress, "CopyTopSP %d %d outside live stack of %d cells", offset, size, m.sp)
	}
	for i := 0; i < n; i++ {
		if err := m.push(m.stack[start+i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *machine) copyDownSP(offset, size int32) error {
	off, err := m.cells(offset)
	if err != nil {
		return err
	}
	n, err := m.cells(size)
	if err != nil {
		return err
	}
	src := m.sp - n
	dst := m.sp + off
	if n <= 0 || off >= 0 || src < 0 || dst < 0 || dst+n > m.sp {
		return m.fault(FaultBadAddress, "CopyDownSP %d %d outside live stack of %d cells", offset, size, m.sp)
	}
	copy(m.stack[dst:dst+n], m.stack[src:src+n])
	return nil
}

func (m *machine) movSP(delta int32) error {
	n, err := m.cells(delta)
	if err != nil {
		return err
	}
	if n > 0 {
		return m.fault(FaultBadAddress, "MovSP by +%d", delta)
	}
	if m.sp+n < 0 {
		return m.fault(FaultStackUnderflow, "MovSP %d below empty stack", delta)
	}
	for i := m.sp + n; i < m.sp; i++ {
		m.stack[i] = value.Void
	}
	m.sp += n
	return nil
}

func (m *machine) reserve(kind int32) error {
	if kind < int32(value.KindInt) || kind > int32(value.KindAction) {
		return m.fault(FaultBadOpcode, "Reserve of kind %d", kind)
	}
	k := value.Kind(kind)
	if k == value.KindVector {
		return m.pushVector(value.Vector{})
	}
	return m.push(value.Default(k))
}

// destruct removes total bytes off the top of the stack, except for the
// window of keepSize bytes that starts keepOff bytes into the removed
// block; the kept cells slide down to where the block began.
func (m *machine) destruct(total, keepOff, keepSize int32) error {
	tn, err := m.cells(total)
	if err != nil {
		return err
	}
	ko, err := m.cells(keepOff)
	if err != nil {
		return err
	}
	kn, err := m.cells(keepSize)
	if err != nil {
		return err
	}
	if tn <= 0 || ko < 0 || kn < 0 || ko+kn > tn {
		return m.fault(FaultBadAddress, "Destruct %d keeping %d at %d", total, keepSize, keepOff)
	}
	if tn > m.sp {
		return m.fault(FaultStackUnderflow, "Destruct of %d bytes with %d cells live", total, m.sp)
	}
	base := m.sp - tn
	for i := 0; i < kn; i++ {
		m.stack[base+i] = m.stack[base+ko+i]
	}
	for i := base + kn; i < m.sp; i++ {
		m.stack[i] = value.Void
	}
	m.sp = base + kn
	return nil
}

func (m *machine) binary(op ncs.Opcode, shape int32) error {
	switch shape {
	case ncs.PairScalar:
		return m.binaryScalar(op)
	case ncs.PairVecVec, ncs.PairVecF, ncs.PairFVec:
		return m.binaryVector(op, shape)
	default:
		return m.fault(FaultBadOpcode, "%s with pair shape %d", op, shape)
	}
}

func (m *machine) binaryScalar(op ncs.Opcode) error {
	right, err := m.pop()
	if err != nil {
		return err
	}
	left, err := m.pop()
	if err != nil {
		return err
	}

	lk, rk := left.Kind(), right.Kind()
	switch {
	case lk == value.KindInt && rk == value.KindInt:
		res, err := m.intOp(op, left.Int(), right.Int())
		if err != nil {
			return err
		}
		return m.push(value.Int(res))

	case lk == value.KindString && rk == value.KindString && op == ncs.OpAdd:
		return m.push(value.Str(left.Str() + right.Str()))

	case isNumeric(lk) && isNumeric(rk):
		return m.push(value.Float(floatOp(op, numf(left), numf(right))))

	default:
		return m.fault(FaultKinds, "%s of %s and %s", op, lk, rk)
	}
}

func (m *machine) intOp(op ncs.Opcode, a, b int32) (int32, error) {
	switch op {
	case ncs.OpAdd:
		return a + b, nil
	case ncs.OpSub:
		return a - b, nil
	case ncs.OpMul:
		return a * b, nil
	case ncs.OpDiv:
		if b == 0 {
			return 0, m.fault(FaultDivByZero, "integer division by zero")
		}
		return a / b, nil
	}
	return 0, m.fault(FaultBadOpcode, "%s on an int pair", op)
}

// floatOp follows IEEE semantics, so dividing by zero produces an
// infinity rather than an error.
func floatOp(op ncs.Opcode, a, b float32) float32 {
	switch op {
	case ncs.OpAdd:
		return a + b
	case ncs.OpSub:
		return a - b
	case ncs.OpMul:
		return a * b
	case ncs.OpDiv:
		return a / b
	}
	return 0
}

func (m *machine) binaryVector(op ncs.Opcode, shape int32) error {
	switch shape {
	case ncs.PairVecVec:
		b, err := m.popVector()
		if err != nil {
			return err
		}
		a, err := m.popVector()
		if err != nil {
			return err
		}
		switch op {
		case ncs.OpAdd:
			return m.pushVector(value.Vector{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z})
		case ncs.OpSub:
			return m.pushVector(value.Vector{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z})
		}
		return m.fault(FaultKinds, "%s of vector and vector", op)

	case ncs.PairVecF:
		f, err := m.popFloat()
		if err != nil {
			return err
		}
		v, err := m.popVector()
		if err != nil {
			return err
		}
		switch op {
		case ncs.OpMul:
			return m.pushVector(value.Vector{X: v.X * f, Y: v.Y * f, Z: v.Z * f})
		case ncs.OpDiv:
			return m.pushVector(value.Vector{X: v.X / f, Y: v.Y / f, Z: v.Z / f})
		}
		return m.fault(FaultKinds, "%s of vector and float", op)

	default:
		v, err := m.popVector()
		if err != nil {
			return err
		}
		f, err := m.popFloat()
		if err != nil {
			return err
		}
		if op == ncs.OpMul {
			return m.pushVector(value.Vector{X: f * v.X, Y: f * v.Y, Z: f * v.Z})
		}
		return m.fault(FaultKinds, "%s of float and vector", op)
	}
}

func (m *machine) compare(op ncs.Opcode) error {
	right, err := m.pop()
	if err != nil {
		return err
	}
	left, err := m.pop()
	if err != nil {
		return err
	}
	lk, rk := left.Kind(), right.Kind()

	if op == ncs.OpEq || op == ncs.OpNeq {
		eq, ok := equalValues(left, right)
		if !ok {
			return m.fault(FaultKinds, "%s of %s and %s", op, lk, rk)
		}
		if op == ncs.OpNeq {
			eq = !eq
		}
		return m.push(value.Bool(eq))
	}

	if !isNumeric(lk) || !isNumeric(rk) {
		return m.fault(FaultKinds, "%s of %s and %s", op, lk, rk)
	}
	var res bool
	if lk == value.KindInt && rk == value.KindInt {
		a, b := left.Int(), right.Int()
		res = orderedCmp(op, a < b, a <= b, a > b, a >= b)
	} else {
		a, b := numf(left), numf(right)
		res = orderedCmp(op, a < b, a <= b, a > b, a >= b)
	}
	return m.push(value.Bool(res))
}

func orderedCmp(op ncs.Opcode, lt, le, gt, ge bool) bool {
	switch op {
	case ncs.OpLt:
		return lt
	case ncs.OpLe:
		return le
	case ncs.OpGt:
		return gt
	default:
		return ge
	}
}

func equalValues(a, b value.Value) (bool, bool) {
	ak, bk := a.Kind(), b.Kind()
	switch {
	case ak == value.KindInt && bk == value.KindInt:
		return a.Int() == b.Int(), true
	case ak == value.KindString && bk == value.KindString:
		return a.Str() == b.Str(), true
	case ak == value.KindObject && bk == value.KindObject:
		return a.Object() == b.Object(), true
	case isNumeric(ak) && isNumeric(bk):
		return numf(a) == numf(b), true
	}
	return false, false
}

func (m *machine) bitwise(op ncs.Opcode) error {
	b, err := m.popInt()
	if err != nil {
		return err
	}
	a, err := m.popInt()
	if err != nil {
		return err
	}
	var r int32
	switch op {
	case ncs.OpAnd:
		r = a & b
	case ncs.OpOr:
		r = a | b
	case ncs.OpXor:
		r = a ^ b
	case ncs.OpShl:
		r = a << (uint32(b) & 31)
	case ncs.OpShr:
		r = a >> (uint32(b) & 31)
	case ncs.OpUshr:
		r = int32(uint32(a) >> (uint32(b) & 31))
	}
	return m.push(value.Int(r))
}

func (m *machine) engineCall(id, argc int32) error {
	if m.routines == nil {
		return m.fault(FaultRoutine, "no routine table bound (routine %d)", id)
	}
	kinds, ok := m.routines.ParamKinds(id)
	if !ok {
		return m.fault(FaultRoutine, "unknown routine %d", id)
	}
	if int(argc) != len(kinds) {
		return m.fault(FaultRoutine, "routine %d takes %d arguments, bytecode passed %d", id, len(kinds), argc)
	}

	// Arguments sit first-on-top; a vector argument is gathered from its
	// three cells.
	args := make([]value.Value, len(kinds))
	for i, k := range kinds {
		if k == value.KindVector {
			v, err := m.popVector()
			if err != nil {
				return err
			}
			args[i] = value.VecOf(v)
			continue
		}
		v, err := m.pop()
		if err != nil {
			return err
		}
		args[i] = v
	}

	res, err := m.routines.Call(id, args)
	if err != nil {
		return m.fault(FaultRoutine, "routine %d: %v", id, err)
	}
	switch res.Kind() {
	case value.KindVoid:
		return nil
	case value.KindVector:
		return m.pushVector(res.Vector())
	default:
		return m.push(res)
	}
}

func (m *machine) fault(code string, format string, args ...any) error {
	f := &Fault{Code: code, IP: m.at, Msg: fmt.Sprintf(format, args...)}
	if m.at >= 0 && m.at < len(m.code) {
		f.Op = m.code[m.at].Op
	}
	return f
}

func isNumeric(k value.Kind) bool {
	return k == value.KindInt || k == value.KindFloat
}

func numf(v value.Value) float32 {
	if v.Kind() == value.KindInt {
		return float32(v.Int())
	}
	return v.Float()
}
