package value

import (
	"fmt"
	"strconv"
)

// Kind tags a runtime script value.
type Kind uint8

const (
	KindVoid Kind = iota
	KindInt
	KindFloat
	KindString
	KindObject
	KindVector
	KindLocation
	KindEffect
	KindEvent
	KindTalent
	KindAction
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindVector:
		return "vector"
	case KindLocation:
		return "location"
	case KindEffect:
		return "effect"
	case KindEvent:
		return "event"
	case KindTalent:
		return "talent"
	case KindAction:
		return "action"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ObjectID is an opaque 32-bit entity handle owned by the host world.
type ObjectID uint32

// ObjectInvalid is the sentinel handle for "no object".
const ObjectInvalid ObjectID = 0xFFFFFFFF

func (id ObjectID) Valid() bool { return id != ObjectInvalid }

func (id ObjectID) String() string {
	if id == ObjectInvalid {
		return "OBJECT_INVALID"
	}
	return fmt.Sprintf("object#%d", uint32(id))
}

// Vector is a script 3-vector. Copied by value.
type Vector struct {
	X, Y, Z float32
}

// Location is a position plus facing inside the host world.
type Location struct {
	Position Vector
	Facing   float32
	Valid    bool
}

// Effect is an opaque engine structure built by effect-factory routines.
type Effect struct {
	Type      int32
	Magnitude int32
}

// Event is an opaque script event payload (user-defined event number).
type Event struct {
	Number int32
}

// Talent is an opaque spell/feat reference.
type Talent struct {
	Category int32
	ID       int32
}

// Action is a captured continuation: an entry index into the program that
// produced it plus a snapshot of the operand stack at capture time. The
// executor replays it on a fresh VM.
type Action struct {
	Entry int32
	Saved []Value
}

// Value is the tagged union for every runtime script value. The zero Value
// is Void. Scalar payloads are stored inline; Location, Effect, Event,
// Talent and Action are boxed and share their payload across copies.
type Value struct {
	kind Kind
	i    int32
	f    float32
	s    string
	vec  Vector
	box  any
}

// Void is the absent value. Identical to the zero Value.
var Void Value

func Int(v int32) Value     { return Value{kind: KindInt, i: v} }
func Float(v float32) Value { return Value{kind: KindFloat, f: v} }
func Str(v string) Value    { return Value{kind: KindString, s: v} }
func Obj(id ObjectID) Value { return Value{kind: KindObject, i: int32(id)} }
func Vec(x, y, z float32) Value {
	return Value{kind: KindVector, vec: Vector{X: x, Y: y, Z: z}}
}
func VecOf(v Vector) Value { return Value{kind: KindVector, vec: v} }
func Loc(l Location) Value { return Value{kind: KindLocation, box: &l} }
func Eff(e Effect) Value   { return Value{kind: KindEffect, box: &e} }
func Evt(e Event) Value    { return Value{kind: KindEvent, box: &e} }
func Tal(t Talent) Value   { return Value{kind: KindTalent, box: &t} }
func Act(a Action) Value   { return Value{kind: KindAction, box: &a} }

// Bool maps a Go bool onto the script int convention (TRUE=1, FALSE=0).
func Bool(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsVoid() bool { return v.kind == KindVoid }

// Scalar accessors return the zero payload when the kind does not match;
// the dispatcher boundary absorbs mismatches instead of panicking.

func (v Value) Int() int32 {
	if v.kind != KindInt {
		return 0
	}
	return v.i
}

func (v Value) Float() float32 {
	if v.kind != KindFloat {
		return 0
	}
	return v.f
}

func (v Value) Str() string {
	if v.kind != KindString {
		return ""
	}
	return v.s
}

func (v Value) Object() ObjectID {
	if v.kind != KindObject {
		return ObjectInvalid
	}
	return ObjectID(uint32(v.i))
}

func (v Value) Vector() Vector {
	if v.kind != KindVector {
		return Vector{}
	}
	return v.vec
}

// Truthy follows the script condition convention: a nonzero int.
func (v Value) Truthy() bool { return v.kind == KindInt && v.i != 0 }

func (v Value) Location() (Location, bool) {
	if l, ok := v.box.(*Location); ok && v.kind == KindLocation {
		return *l, true
	}
	return Location{}, false
}

func (v Value) Effect() (Effect, bool) {
	if e, ok := v.box.(*Effect); ok && v.kind == KindEffect {
		return *e, true
	}
	return Effect{}, false
}

func (v Value) Event() (Event, bool) {
	if e, ok := v.box.(*Event); ok && v.kind == KindEvent {
		return *e, true
	}
	return Event{}, false
}

func (v Value) Talent() (Talent, bool) {
	if t, ok := v.box.(*Talent); ok && v.kind == KindTalent {
		return *t, true
	}
	return Talent{}, false
}

func (v Value) Action() (Action, bool) {
	if a, ok := v.box.(*Action); ok && v.kind == KindAction {
		return *a, true
	}
	return Action{}, false
}

// Default returns the kind's zero/default value: 0, 0.0, "", OBJECT_INVALID,
// the zero vector, or an invalid engine structure. Used for reserved stack
// slots and as the sentinel a failing routine resolves to.
func Default(k Kind) Value {
	switch k {
	case KindInt:
		return Int(0)
	case KindFloat:
		return Float(0)
	case KindString:
		return Str("")
	case KindObject:
		return Obj(ObjectInvalid)
	case KindVector:
		return Vec(0, 0, 0)
	case KindLocation:
		return Loc(Location{})
	case KindEffect:
		return Eff(Effect{})
	case KindEvent:
		return Evt(Event{})
	case KindTalent:
		return Tal(Talent{})
	case KindAction:
		return Act(Action{})
	default:
		return Void
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindVoid:
		return "void"
	case KindInt:
		return strconv.FormatInt(int64(v.i), 10)
	case KindFloat:
		return strconv.FormatFloat(float64(v.f), 'g', -1, 32)
	case KindString:
		return strconv.Quote(v.s)
	case KindObject:
		return v.Object().String()
	case KindVector:
		return fmt.Sprintf("[%g, %g, %g]", v.vec.X, v.vec.Y, v.vec.Z)
	case KindLocation:
		if l, ok := v.Location(); ok && l.Valid {
			return fmt.Sprintf("location([%g, %g, %g], %g)", l.Position.X, l.Position.Y, l.Position.Z, l.Facing)
		}
		return "location(invalid)"
	case KindEffect:
		if e, ok := v.Effect(); ok {
			return fmt.Sprintf("effect(type=%d)", e.Type)
		}
		return "effect"
	case KindEvent:
		if e, ok := v.Event(); ok {
			return fmt.Sprintf("event(%d)", e.Number)
		}
		return "event"
	case KindTalent:
		if t, ok := v.Talent(); ok {
			return fmt.Sprintf("talent(%d:%d)", t.Category, t.ID)
		}
		return "talent"
	case KindAction:
		if a, ok := v.Action(); ok {
			return fmt.Sprintf("action(entry=%d)", a.Entry)
		}
		return "action"
	default:
		return v.kind.String()
	}
}
