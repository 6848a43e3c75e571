package routines

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"aurora/internal/value"
	"aurora/internal/vars"
)

type scheduledAct struct {
	target value.ObjectID
	delay  float32
	act    value.Action
}

type signaledEvent struct {
	target value.ObjectID
	ev     value.Event
}

type appliedEffect struct {
	target   value.ObjectID
	effect   value.Effect
	duration int32
	seconds  float32
}

type stubObject struct {
	tag, name string
	pos       value.Vector
	facing    float32
}

type stubWorld struct {
	objects map[value.ObjectID]*stubObject
	elapsed float32
	printed []string
	applied []appliedEffect
}

func newStubWorld() *stubWorld {
	return &stubWorld{objects: make(map[value.ObjectID]*stubObject)}
}

func (w *stubWorld) IsValid(id value.ObjectID) bool { _, ok := w.objects[id]; return ok }

func (w *stubWorld) Tag(id value.ObjectID) string {
	if o, ok := w.objects[id]; ok {
		return o.tag
	}
	return ""
}

func (w *stubWorld) Name(id value.ObjectID) string {
	if o, ok := w.objects[id]; ok {
		return o.name
	}
	return ""
}

func (w *stubWorld) FindByTag(tag string, nth int32) value.ObjectID {
	// Deterministic order for tests: scan ascending IDs.
	seen := int32(0)
	for id := value.ObjectID(0); id < 64; id++ {
		o, ok := w.objects[id]
		if !ok || o.tag != tag {
			continue
		}
		if seen == nth {
			return id
		}
		seen++
	}
	return value.ObjectInvalid
}

func (w *stubWorld) Position(id value.ObjectID) value.Vector {
	if o, ok := w.objects[id]; ok {
		return o.pos
	}
	return value.Vector{}
}

func (w *stubWorld) Facing(id value.ObjectID) float32 {
	if o, ok := w.objects[id]; ok {
		return o.facing
	}
	return 0
}

func (w *stubWorld) SetFacing(id value.ObjectID, facing float32) {
	if o, ok := w.objects[id]; ok {
		o.facing = facing
	}
}

func (w *stubWorld) Elapsed() float32 { return w.elapsed }

func (w *stubWorld) ApplyEffect(target value.ObjectID, e value.Effect, durationType int32, duration float32) {
	w.applied = append(w.applied, appliedEffect{target, e, durationType, duration})
}

func (w *stubWorld) Print(text string) { w.printed = append(w.printed, text) }

// partyWorld layers the optional roster surface on top of stubWorld.
type partyWorld struct {
	*stubWorld
	members map[int32]value.ObjectID
}

func (w *partyWorld) AddPartyMember(npc int32, creature value.ObjectID) bool {
	if !w.IsValid(creature) {
		return false
	}
	w.members[npc] = creature
	return true
}

func (w *partyWorld) RemovePartyMember(npc int32) bool {
	if _, ok := w.members[npc]; !ok {
		return false
	}
	delete(w.members, npc)
	return true
}

func (w *partyWorld) IsPartyMember(id value.ObjectID) bool {
	for _, m := range w.members {
		if m == id {
			return true
		}
	}
	return false
}

func (w *partyWorld) PartyMemberByIndex(index int32) value.ObjectID {
	ids := make([]value.ObjectID, 0, len(w.members))
	for npc := int32(0); npc < 16; npc++ {
		if id, ok := w.members[npc]; ok {
			ids = append(ids, id)
		}
	}
	if index < 0 || int(index) >= len(ids) {
		return value.ObjectInvalid
	}
	return ids[index]
}

type eventKey struct {
	target value.ObjectID
	event  int32
}

type stubCtx struct {
	caller    value.ObjectID
	triggerer value.ObjectID
	userEvent int32
	scriptVar int32
	store     *vars.Store
	world     World

	ran       []string
	runErr    error
	scheduled []scheduledAct
	cleared   []value.ObjectID
	signaled  []signaledEvent
	handlers  map[eventKey]string
}

func newStubCtx(w World) *stubCtx {
	return &stubCtx{
		caller:   1,
		store:    vars.NewStore(),
		world:    w,
		handlers: make(map[eventKey]string),
	}
}

func (c *stubCtx) Caller() value.ObjectID         { return c.caller }
func (c *stubCtx) Triggerer() value.ObjectID      { return c.triggerer }
func (c *stubCtx) UserDefinedEventNumber() int32  { return c.userEvent }
func (c *stubCtx) ScriptVar() int32               { return c.scriptVar }
func (c *stubCtx) Vars() *vars.Store              { return c.store }
func (c *stubCtx) World() World                   { return c.world }
func (c *stubCtx) ClearActions(id value.ObjectID) { c.cleared = append(c.cleared, id) }

func (c *stubCtx) RunScript(script string, target value.ObjectID, scriptVar int32) error {
	c.ran = append(c.ran, script)
	return c.runErr
}

func (c *stubCtx) ScheduleAction(target value.ObjectID, delay float32, act value.Action) error {
	c.scheduled = append(c.scheduled, scheduledAct{target, delay, act})
	return nil
}

func (c *stubCtx) SignalEvent(target value.ObjectID, ev value.Event) error {
	c.signaled = append(c.signaled, signaledEvent{target, ev})
	return nil
}

func (c *stubCtx) SetEventScript(target value.ObjectID, event int32, script string) bool {
	if event < EventHeartbeat || event > EventUserDefined {
		return false
	}
	c.handlers[eventKey{target, event}] = script
	return true
}

func (c *stubCtx) EventScript(target value.ObjectID, event int32) string {
	return c.handlers[eventKey{target, event}]
}

func call(t *testing.T, tbl *Table, ctx Context, name string, args ...value.Value) value.Value {
	t.Helper()
	id, ok := tbl.LookupName(name)
	if !ok {
		t.Fatalf("routine %q not in table", name)
	}
	res, err := tbl.Call(ctx, id, args)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", name, err)
	}
	return res
}

func TestScalarRoutines(t *testing.T) {
	tbl := Base()
	ctx := newStubCtx(newStubWorld())

	tests := []struct {
		name string
		args []value.Value
		want value.Value
	}{
		{"Random", []value.Value{value.Int(0)}, value.Int(0)},
		{"Random", []value.Value{value.Int(-5)}, value.Int(0)},
		{"Random", []value.Value{value.Int(1)}, value.Int(0)},
		{"IntToString", []value.Value{value.Int(-17)}, value.Str("-17")},
		{"StringToInt", []value.Value{value.Str(" 42 ")}, value.Int(42)},
		{"StringToInt", []value.Value{value.Str("bantha")}, value.Int(0)},
		{"StringToInt", []value.Value{value.Str("3.5")}, value.Int(0)},
		{"IntToFloat", []value.Value{value.Int(3)}, value.Float(3)},
		{"FloatToInt", []value.Value{value.Float(3.9)}, value.Int(3)},
		{"FloatToInt", []value.Value{value.Float(-3.9)}, value.Int(-3)},
		{"StringToFloat", []value.Value{value.Str("2.5")}, value.Float(2.5)},
		{"StringToFloat", []value.Value{value.Str("junk")}, value.Float(0)},
		{"GetStringLength", []value.Value{value.Str("Taris")}, value.Int(5)},
		{"GetStringUpperCase", []value.Value{value.Str("kreia")}, value.Str("KREIA")},
		{"GetStringLowerCase", []value.Value{value.Str("HK-47")}, value.Str("hk-47")},
		{"GetSubString", []value.Value{value.Str("Taris"), value.Int(1), value.Int(3)}, value.Str("ari")},
		{"GetSubString", []value.Value{value.Str("Taris"), value.Int(4), value.Int(10)}, value.Str("s")},
		{"GetSubString", []value.Value{value.Str("Taris"), value.Int(-1), value.Int(2)}, value.Str("")},
		{"GetSubString", []value.Value{value.Str("Taris"), value.Int(9), value.Int(1)}, value.Str("")},
		{"FindSubString", []value.Value{value.Str("ebon hawk"), value.Str("hawk")}, value.Int(5)},
		{"FindSubString", []value.Value{value.Str("ebon hawk"), value.Str("sith")}, value.Int(-1)},
		{"abs", []value.Value{value.Int(-9)}, value.Int(9)},
		{"abs", []value.Value{value.Int(9)}, value.Int(9)},
		{"FloatToString", []value.Value{value.Float(1.5), value.Int(0), value.Int(2)}, value.Str("1.50")},
		{"FloatToString", []value.Value{value.Float(1.5), value.Int(6), value.Int(2)}, value.Str("  1.50")},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s(%v)", tt.name, tt.args), func(t *testing.T) {
			got := call(t, tbl, ctx, tt.name, tt.args...)
			if got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMathRoutines(t *testing.T) {
	tbl := Base()
	ctx := newStubCtx(newStubWorld())

	approx := func(name string, got value.Value, want float64) {
		t.Helper()
		if got.Kind() != value.KindFloat {
			t.Fatalf("%s: got kind %s, want float", name, got.Kind())
		}
		if math.Abs(float64(got.Float())-want) > 1e-5 {
			t.Fatalf("%s: got %v, want %v", name, got.Float(), want)
		}
	}

	approx("fabs", call(t, tbl, ctx, "fabs", value.Float(-2.5)), 2.5)
	approx("sqrt", call(t, tbl, ctx, "sqrt", value.Float(9)), 3)
	approx("pow", call(t, tbl, ctx, "pow", value.Float(2), value.Float(10)), 1024)
	approx("cos", call(t, tbl, ctx, "cos", value.Float(0)), 1)
	approx("sin", call(t, tbl, ctx, "sin", value.Float(0)), 0)
}

func TestVectorRoutines(t *testing.T) {
	tbl := Base()
	ctx := newStubCtx(newStubWorld())

	v := call(t, tbl, ctx, "Vector", value.Float(3), value.Float(4), value.Float(0))
	if got := v.Vector(); got != (value.Vector{X: 3, Y: 4}) {
		t.Fatalf("Vector: got %v", got)
	}

	mag := call(t, tbl, ctx, "VectorMagnitude", v)
	if mag.Float() != 5 {
		t.Fatalf("VectorMagnitude: got %v, want 5", mag.Float())
	}

	norm := call(t, tbl, ctx, "VectorNormalize", v).Vector()
	if math.Abs(float64(norm.X)-0.6) > 1e-6 || math.Abs(float64(norm.Y)-0.8) > 1e-6 {
		t.Fatalf("VectorNormalize: got %v", norm)
	}

	zero := call(t, tbl, ctx, "VectorNormalize", value.Vec(0, 0, 0)).Vector()
	if zero != (value.Vector{}) {
		t.Fatalf("VectorNormalize of zero: got %v, want zero vector", zero)
	}

	angles := []struct {
		vec  value.Value
		want float64
	}{
		{value.Vec(1, 0, 0), 0},
		{value.Vec(0, 1, 0), 90},
		{value.Vec(-1, 0, 0), 180},
		{value.Vec(0, -1, 0), 270},
	}
	for _, tt := range angles {
		got := call(t, tbl, ctx, "VectorToAngle", tt.vec).Float()
		if math.Abs(float64(got)-tt.want) > 1e-4 {
			t.Fatalf("VectorToAngle(%s): got %v, want %v", tt.vec, got, tt.want)
		}
	}

	east := call(t, tbl, ctx, "AngleToVector", value.Float(0)).Vector()
	if math.Abs(float64(east.X)-1) > 1e-6 || math.Abs(float64(east.Y)) > 1e-6 {
		t.Fatalf("AngleToVector(0): got %v", east)
	}
	north := call(t, tbl, ctx, "AngleToVector", value.Float(90)).Vector()
	if math.Abs(float64(north.X)) > 1e-6 || math.Abs(float64(north.Y)-1) > 1e-6 {
		t.Fatalf("AngleToVector(90): got %v", north)
	}
}

func TestDiceRollsStayInRange(t *testing.T) {
	tbl := Base()
	ctx := newStubCtx(newStubWorld())

	for i := 0; i < 200; i++ {
		got := call(t, tbl, ctx, "d6", value.Int(3)).Int()
		if got < 3 || got > 18 {
			t.Fatalf("d6(3): got %d, want 3..18", got)
		}
	}
	// A zero dice count still rolls one die.
	got := call(t, tbl, ctx, "d6", value.Int(0)).Int()
	if got < 1 || got > 6 {
		t.Fatalf("d6(0): got %d, want 1..6", got)
	}
}

func TestPrintRoutinesReachTheWorld(t *testing.T) {
	w := newStubWorld()
	tbl := Base()
	ctx := newStubCtx(w)

	call(t, tbl, ctx, "PrintString", value.Str("hello"))
	call(t, tbl, ctx, "PrintInteger", value.Int(42))
	call(t, tbl, ctx, "PrintFloat", value.Float(1.5), value.Int(0), value.Int(1))

	want := []string{"hello", "42", "1.5"}
	if len(w.printed) != len(want) {
		t.Fatalf("printed %v, want %v", w.printed, want)
	}
	for i := range want {
		if w.printed[i] != want[i] {
			t.Fatalf("printed[%d] = %q, want %q", i, w.printed[i], want[i])
		}
	}
}

func TestLocalAndGlobalVariableRoutines(t *testing.T) {
	tbl := Base()
	ctx := newStubCtx(newStubWorld())
	door := value.Obj(7)

	call(t, tbl, ctx, "SetLocalInt", door, value.Str("opened"), value.Int(3))
	if got := call(t, tbl, ctx, "GetLocalInt", door, value.Str("opened")); got.Int() != 3 {
		t.Fatalf("GetLocalInt: got %d, want 3", got.Int())
	}
	// Name spaces are per type: the float slot named "opened" is untouched.
	if got := call(t, tbl, ctx, "GetLocalFloat", door, value.Str("opened")); got.Float() != 0 {
		t.Fatalf("GetLocalFloat: got %v, want 0", got.Float())
	}

	call(t, tbl, ctx, "SetGlobalString", value.Str("PLOT_STAGE"), value.Str("act2"))
	if got := call(t, tbl, ctx, "GetGlobalString", value.Str("PLOT_STAGE")); got.Str() != "act2" {
		t.Fatalf("GetGlobalString: got %q, want %q", got.Str(), "act2")
	}

	loc := value.Location{Position: value.Vector{X: 1, Y: 2, Z: 3}, Facing: 90, Valid: true}
	call(t, tbl, ctx, "SetGlobalLocation", value.Str("CAMP"), value.Loc(loc))
	got, ok := call(t, tbl, ctx, "GetGlobalLocation", value.Str("CAMP")).Location()
	if !ok || got != loc {
		t.Fatalf("GetGlobalLocation: got %v %v, want %v", got, ok, loc)
	}
}

func TestWorldQueryRoutines(t *testing.T) {
	w := newStubWorld()
	w.objects[5] = &stubObject{tag: "door_a", name: "Blast Door", pos: value.Vector{X: 3}}
	w.objects[6] = &stubObject{tag: "door_a", name: "Blast Door 2"}
	w.objects[9] = &stubObject{tag: "pc", name: "Revan", pos: value.Vector{X: 0, Y: 4}}
	w.elapsed = 12.5

	tbl := Base()
	ctx := newStubCtx(w)
	ctx.caller = 9

	if got := call(t, tbl, ctx, "GetIsObjectValid", value.Obj(5)); !got.Truthy() {
		t.Fatalf("GetIsObjectValid(5) = %s, want TRUE", got)
	}
	if got := call(t, tbl, ctx, "GetIsObjectValid", value.Obj(99)); got.Truthy() {
		t.Fatalf("GetIsObjectValid(99) = %s, want FALSE", got)
	}
	if got := call(t, tbl, ctx, "GetTag", value.Obj(5)); got.Str() != "door_a" {
		t.Fatalf("GetTag: got %q", got.Str())
	}
	if got := call(t, tbl, ctx, "GetName", value.Obj(9)); got.Str() != "Revan" {
		t.Fatalf("GetName: got %q", got.Str())
	}
	if got := call(t, tbl, ctx, "GetObjectByTag", value.Str("door_a"), value.Int(1)); got.Object() != 6 {
		t.Fatalf("GetObjectByTag nth=1: got %s", got)
	}
	if got := call(t, tbl, ctx, "GetObjectByTag", value.Str("nope"), value.Int(0)); got.Object() != value.ObjectInvalid {
		t.Fatalf("GetObjectByTag miss: got %s", got)
	}

	// 3-4-5 triangle between the caller at (0,4) and the door at (3,0).
	if got := call(t, tbl, ctx, "GetDistanceBetween", value.Obj(9), value.Obj(5)); got.Float() != 5 {
		t.Fatalf("GetDistanceBetween: got %v, want 5", got.Float())
	}
	if got := call(t, tbl, ctx, "GetDistanceBetween", value.Obj(9), value.Obj(99)); got.Float() != 0 {
		t.Fatalf("GetDistanceBetween with invalid: got %v, want 0", got.Float())
	}
	if got := call(t, tbl, ctx, "GetDistanceToObject", value.Obj(5)); got.Float() != 5 {
		t.Fatalf("GetDistanceToObject: got %v, want 5", got.Float())
	}
	if got := call(t, tbl, ctx, "GetDistanceToObject", value.Obj(99)); got.Float() != -1 {
		t.Fatalf("GetDistanceToObject with invalid: got %v, want -1", got.Float())
	}

	call(t, tbl, ctx, "SetFacing", value.Float(180))
	if w.objects[9].facing != 180 {
		t.Fatalf("SetFacing: facing = %v, want 180", w.objects[9].facing)
	}
	if got := call(t, tbl, ctx, "GetElapsedSeconds"); got.Float() != 12.5 {
		t.Fatalf("GetElapsedSeconds: got %v", got.Float())
	}

	loc, ok := call(t, tbl, ctx, "GetLocation", value.Obj(9)).Location()
	if !ok || !loc.Valid || loc.Position != (value.Vector{X: 0, Y: 4}) {
		t.Fatalf("GetLocation: got %+v", loc)
	}
	dead, _ := call(t, tbl, ctx, "GetLocation", value.Obj(99)).Location()
	if dead.Valid {
		t.Fatalf("GetLocation of invalid object: got valid location %+v", dead)
	}
	if got := call(t, tbl, ctx, "GetPositionFromLocation", value.Loc(loc)); got.Vector() != loc.Position {
		t.Fatalf("GetPositionFromLocation: got %v", got.Vector())
	}
	if got := call(t, tbl, ctx, "GetFacingFromLocation", value.Loc(value.Location{})); got.Float() != -1 {
		t.Fatalf("GetFacingFromLocation of invalid: got %v, want -1", got.Float())
	}
}

func TestEventRoutines(t *testing.T) {
	tbl := Base()
	ctx := newStubCtx(newStubWorld())
	ctx.triggerer = 4
	ctx.userEvent = 1003
	ctx.scriptVar = 55

	if got := call(t, tbl, ctx, "GetEnteringObject"); got.Object() != 4 {
		t.Fatalf("GetEnteringObject: got %s", got)
	}
	if got := call(t, tbl, ctx, "GetUserDefinedEventNumber"); got.Int() != 1003 {
		t.Fatalf("GetUserDefinedEventNumber: got %d", got.Int())
	}
	if got := call(t, tbl, ctx, "GetRunScriptVar"); got.Int() != 55 {
		t.Fatalf("GetRunScriptVar: got %d", got.Int())
	}

	ev := call(t, tbl, ctx, "EventUserDefined", value.Int(2100))
	call(t, tbl, ctx, "SignalEvent", value.Obj(8), ev)
	if len(ctx.signaled) != 1 || ctx.signaled[0].target != 8 || ctx.signaled[0].ev.Number != 2100 {
		t.Fatalf("SignalEvent: recorded %+v", ctx.signaled)
	}

	if got := call(t, tbl, ctx, "SetEventScript", value.Obj(8), value.Int(EventHeartbeat), value.Str("k_ai_heart")); !got.Truthy() {
		t.Fatalf("SetEventScript: got %s, want TRUE", got)
	}
	if got := call(t, tbl, ctx, "SetEventScript", value.Obj(8), value.Int(99), value.Str("bad")); got.Truthy() {
		t.Fatalf("SetEventScript with bad event: got %s, want FALSE", got)
	}
	if got := call(t, tbl, ctx, "GetEventScript", value.Obj(8), value.Int(EventHeartbeat)); got.Str() != "k_ai_heart" {
		t.Fatalf("GetEventScript: got %q", got.Str())
	}
}

func TestActionRoutinesSchedule(t *testing.T) {
	tbl := Base()
	ctx := newStubCtx(newStubWorld())
	ctx.caller = 2
	act := value.Act(value.Action{Entry: 40, Saved: []value.Value{value.Int(1)}})

	call(t, tbl, ctx, "AssignCommand", value.Obj(6), act)
	call(t, tbl, ctx, "DelayCommand", value.Float(2.5), act)
	call(t, tbl, ctx, "ActionDoCommand", act)

	want := []scheduledAct{
		{target: 6, delay: 0},
		{target: 2, delay: 2.5},
		{target: 2, delay: 0},
	}
	if len(ctx.scheduled) != len(want) {
		t.Fatalf("scheduled %d actions, want %d", len(ctx.scheduled), len(want))
	}
	for i, w := range want {
		got := ctx.scheduled[i]
		if got.target != w.target || got.delay != w.delay || got.act.Entry != 40 {
			t.Fatalf("scheduled[%d] = %+v, want target %d delay %v", i, got, w.target, w.delay)
		}
	}

	call(t, tbl, ctx, "ClearAllActions")
	if len(ctx.cleared) != 1 || ctx.cleared[0] != 2 {
		t.Fatalf("ClearAllActions: cleared %v", ctx.cleared)
	}

	call(t, tbl, ctx, "ExecuteScript", value.Str("k_def_spawn01"), value.Obj(6), value.Int(-1))
	if len(ctx.ran) != 1 || ctx.ran[0] != "k_def_spawn01" {
		t.Fatalf("ExecuteScript: ran %v", ctx.ran)
	}
}

func TestEffectAndTalentRoutines(t *testing.T) {
	w := newStubWorld()
	tbl := Base()
	ctx := newStubCtx(w)

	heal := call(t, tbl, ctx, "EffectHeal", value.Int(25))
	call(t, tbl, ctx, "ApplyEffectToObject", value.Int(1), heal, value.Obj(3), value.Float(6))
	if len(w.applied) != 1 {
		t.Fatalf("ApplyEffectToObject: applied %d effects", len(w.applied))
	}
	got := w.applied[0]
	if got.target != 3 || got.effect.Magnitude != 25 || got.duration != 1 || got.seconds != 6 {
		t.Fatalf("ApplyEffectToObject: recorded %+v", got)
	}

	dmg, _ := call(t, tbl, ctx, "EffectDamage", value.Int(10)).Effect()
	if dmg.Type == got.effect.Type {
		t.Fatalf("heal and damage share effect type %d", dmg.Type)
	}

	spell := call(t, tbl, ctx, "TalentSpell", value.Int(12))
	if got := call(t, tbl, ctx, "GetIsTalentValid", spell); !got.Truthy() {
		t.Fatalf("GetIsTalentValid(TalentSpell): got %s, want TRUE", got)
	}
	if got := call(t, tbl, ctx, "GetIsTalentValid", value.Default(value.KindTalent)); got.Truthy() {
		t.Fatalf("GetIsTalentValid(default): got %s, want FALSE", got)
	}
}

func TestUnknownRoutineIDIsAnError(t *testing.T) {
	tbl := Base()
	ctx := newStubCtx(newStubWorld())

	if _, err := tbl.Call(ctx, 9999, nil); err == nil {
		t.Fatal("expected error for unknown routine id")
	} else if !strings.Contains(err.Error(), "unknown routine 9999") {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tbl.Call(ctx, -1, nil); err == nil {
		t.Fatal("expected error for negative routine id")
	}
}

func TestFailingImplementationIsAbsorbed(t *testing.T) {
	var buf bytes.Buffer
	tbl := Base()
	tbl.SetLogger(zerolog.New(&buf))
	ctx := newStubCtx(newStubWorld())
	ctx.runErr = fmt.Errorf("no such script")

	id, _ := tbl.LookupName("ExecuteScript")
	res, err := tbl.Call(ctx, id, []value.Value{value.Str("gone"), value.Obj(1), value.Int(-1)})
	if err != nil {
		t.Fatalf("implementation failure leaked: %v", err)
	}
	if res.Kind() != value.KindVoid {
		t.Fatalf("got kind %s, want void default", res.Kind())
	}
	if !strings.Contains(buf.String(), "engine routine failed") {
		t.Fatalf("failure not logged: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "ExecuteScript") {
		t.Fatalf("log does not name the routine: %q", buf.String())
	}
}

func TestWrongReturnKindIsAbsorbed(t *testing.T) {
	var buf bytes.Buffer
	tbl := Base()
	tbl.SetLogger(zerolog.New(&buf))
	tbl.register(Signature{ID: 999, Name: "Broken", Ret: value.KindInt,
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Str("not an int"), nil
		}})

	res, err := tbl.Call(newStubCtx(newStubWorld()), 999, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != value.Int(0) {
		t.Fatalf("got %s, want int default 0", res)
	}
	if !strings.Contains(buf.String(), "wrong kind") {
		t.Fatalf("mismatch not logged: %q", buf.String())
	}
}

func TestUnimplementedRoutineCountsAsMiss(t *testing.T) {
	var buf bytes.Buffer
	tbl := ForGame(GameK2)
	tbl.SetLogger(zerolog.New(&buf))
	ctx := newStubCtx(newStubWorld())

	id, ok := tbl.LookupName("SWMG_GetPlayerSpeed")
	if !ok {
		t.Fatal("SWMG_GetPlayerSpeed not declared")
	}
	for i := 0; i < 3; i++ {
		res, err := tbl.Call(ctx, id, nil)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if !res.IsVoid() {
			t.Fatalf("call %d: got %s, want void", i, res)
		}
	}

	cov := tbl.Coverage()
	if cov.Misses != 3 {
		t.Fatalf("Misses = %d, want 3", cov.Misses)
	}
	if len(cov.MissingCalled) != 1 || cov.MissingCalled[0] != id {
		t.Fatalf("MissingCalled = %v, want [%d]", cov.MissingCalled, id)
	}
	if n := strings.Count(buf.String(), "no implementation"); n != 1 {
		t.Fatalf("miss logged %d times, want once", n)
	}
	if cov.Declared <= cov.Implemented {
		t.Fatalf("Declared %d should exceed Implemented %d", cov.Declared, cov.Implemented)
	}
}

func TestCoverageCountsHits(t *testing.T) {
	tbl := Base()
	ctx := newStubCtx(newStubWorld())

	cov := tbl.Coverage()
	if cov.Declared == 0 || cov.Declared != cov.Implemented {
		t.Fatalf("base table: Declared %d Implemented %d, want equal and nonzero", cov.Declared, cov.Implemented)
	}
	if cov.Hits != 0 || cov.Misses != 0 {
		t.Fatalf("fresh table has hits %d misses %d", cov.Hits, cov.Misses)
	}

	call(t, tbl, ctx, "abs", value.Int(-1))
	call(t, tbl, ctx, "abs", value.Int(-2))
	if cov := tbl.Coverage(); cov.Hits != 2 {
		t.Fatalf("Hits = %d, want 2", cov.Hits)
	}
}

func TestVariantLayering(t *testing.T) {
	base := Base()
	k1 := ForGame(GameK1)
	k2 := ForGame(GameK2)

	if _, ok := base.LookupName("AddPartyMember"); ok {
		t.Fatal("base table should not declare AddPartyMember")
	}
	if _, ok := k1.LookupName("AddPartyMember"); !ok {
		t.Fatal("k1 table missing AddPartyMember")
	}
	if _, ok := k1.LookupName("GetStealthXPEnabled"); ok {
		t.Fatal("k1 table should not declare GetStealthXPEnabled")
	}
	if _, ok := k2.LookupName("GetStealthXPEnabled"); !ok {
		t.Fatal("k2 table missing GetStealthXPEnabled")
	}
	// The sequel keeps the shared range and the party routines.
	if _, ok := k2.LookupName("AddPartyMember"); !ok {
		t.Fatal("k2 table missing AddPartyMember")
	}
	for _, tbl := range []*Table{base, k1, k2} {
		if id, ok := tbl.LookupName("Random"); !ok || id != 0 {
			t.Fatalf("%s: Random at id %d ok=%v, want 0", tbl.Game(), id, ok)
		}
	}
	if k1.Game() != GameK1 || k2.Game() != GameK2 {
		t.Fatalf("games: %s, %s", k1.Game(), k2.Game())
	}
}

func TestVariantOverrideReplacesBase(t *testing.T) {
	tbl := Base()
	seen := false
	tbl.register(Signature{ID: 0, Name: "Random", Ret: value.KindInt,
		Params: []Param{p("nMaxInteger", value.KindInt)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			seen = true
			return value.Int(7), nil
		}})

	got := call(t, tbl, newStubCtx(newStubWorld()), "Random", value.Int(100))
	if !seen || got.Int() != 7 {
		t.Fatalf("override not dispatched: seen=%v got=%s", seen, got)
	}
	if cov := tbl.Coverage(); cov.Declared != len(Base().Signatures()) {
		t.Fatalf("override changed declared count: %d", cov.Declared)
	}
}

func TestPartyRoutinesRequireRosterWorld(t *testing.T) {
	tbl := ForGame(GameK1)

	// A world without a roster absorbs the calls into defaults.
	plain := newStubCtx(newStubWorld())
	if got := call(t, tbl, plain, "IsObjectPartyMember", value.Obj(3)); got.Truthy() {
		t.Fatalf("roster-less world: got %s, want FALSE default", got)
	}

	w := &partyWorld{stubWorld: newStubWorld(), members: make(map[int32]value.ObjectID)}
	w.objects[3] = &stubObject{tag: "bastila"}
	ctx := newStubCtx(w)

	if got := call(t, tbl, ctx, "AddPartyMember", value.Int(0), value.Obj(3)); !got.Truthy() {
		t.Fatalf("AddPartyMember: got %s, want TRUE", got)
	}
	if got := call(t, tbl, ctx, "IsObjectPartyMember", value.Obj(3)); !got.Truthy() {
		t.Fatalf("IsObjectPartyMember: got %s, want TRUE", got)
	}
	if got := call(t, tbl, ctx, "GetPartyMemberByIndex", value.Int(0)); got.Object() != 3 {
		t.Fatalf("GetPartyMemberByIndex: got %s", got)
	}
	if got := call(t, tbl, ctx, "RemovePartyMember", value.Int(0)); !got.Truthy() {
		t.Fatalf("RemovePartyMember: got %s, want TRUE", got)
	}
	if got := call(t, tbl, ctx, "IsObjectPartyMember", value.Obj(3)); got.Truthy() {
		t.Fatalf("after removal: got %s, want FALSE", got)
	}
}

func TestStealthXPRoutinesShareGlobals(t *testing.T) {
	tbl := ForGame(GameK2)
	ctx := newStubCtx(newStubWorld())

	call(t, tbl, ctx, "SetStealthXPEnabled", value.Int(1))
	call(t, tbl, ctx, "SetStealthXPDecrement", value.Int(20))
	if got := call(t, tbl, ctx, "GetStealthXPEnabled"); got.Int() != 1 {
		t.Fatalf("GetStealthXPEnabled: got %d", got.Int())
	}
	if got := call(t, tbl, ctx, "GetStealthXPDecrement"); got.Int() != 20 {
		t.Fatalf("GetStealthXPDecrement: got %d", got.Int())
	}
	// The state rides the ordinary global store.
	if got := ctx.Vars().GlobalInt("STEALTH_XP_ENABLED"); got != 1 {
		t.Fatalf("global STEALTH_XP_ENABLED = %d", got)
	}
}

func TestBoundDispatcher(t *testing.T) {
	tbl := Base()
	ctx := newStubCtx(newStubWorld())
	b := tbl.Bind(ctx)

	id, _ := tbl.LookupName("GetStringLength")
	kinds, ok := b.ParamKinds(id)
	if !ok || len(kinds) != 1 || kinds[0] != value.KindString {
		t.Fatalf("ParamKinds: got %v %v", kinds, ok)
	}
	if _, ok := b.ParamKinds(9999); ok {
		t.Fatal("ParamKinds of unknown id should report false")
	}

	res, err := b.Call(id, []value.Value{value.Str("hk47")})
	if err != nil || res.Int() != 4 {
		t.Fatalf("Call: got %s, %v", res, err)
	}
}

func TestSignatureRendering(t *testing.T) {
	tbl := Base()

	tests := []struct {
		name string
		want string
	}{
		{"Random", "int Random(int nMaxInteger)"},
		{"PrintFloat", "void PrintFloat(float fFloat, int nWidth=18, int nDecimals=9)"},
		{"ExecuteScript", "void ExecuteScript(string sScript, object oTarget, int nScriptVar=-1)"},
		{"Vector", "vector Vector(float x=0.0, float y=0.0, float z=0.0)"},
		{"GetElapsedSeconds", "float GetElapsedSeconds()"},
	}
	for _, tt := range tests {
		id, ok := tbl.LookupName(tt.name)
		if !ok {
			t.Fatalf("%s not declared", tt.name)
		}
		if got := tbl.ByID(id).String(); got != tt.want {
			t.Fatalf("prototype of %s:\n got %q\nwant %q", tt.name, got, tt.want)
		}
	}
}

func TestRegisterRejectsBadSignatures(t *testing.T) {
	tbl := newTable(0)

	expectPanic := func(name string, f func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Fatalf("%s: expected panic", name)
			}
		}()
		f()
	}

	expectPanic("negative id", func() {
		tbl.register(Signature{ID: -1, Name: "Bad", Ret: value.KindVoid})
	})
	expectPanic("required after default", func() {
		tbl.register(Signature{ID: 1, Name: "Bad", Ret: value.KindVoid,
			Params: []Param{
				pd("a", value.KindInt, value.Int(0)),
				p("b", value.KindInt),
			}})
	})
}

func TestConstants(t *testing.T) {
	k1 := Constants(GameK1)
	k2 := Constants(GameK2)

	for _, c := range []struct {
		name string
		want int32
	}{
		{"TRUE", 1},
		{"FALSE", 0},
		{"DURATION_TYPE_TEMPORARY", 1},
		{"TALENT_TYPE_FEAT", 2},
		{"EVENT_HEARTBEAT", EventHeartbeat},
		{"EVENT_USER_DEFINED", EventUserDefined},
	} {
		if k1[c.name] != c.want || k2[c.name] != c.want {
			t.Fatalf("%s: k1=%d k2=%d, want %d", c.name, k1[c.name], k2[c.name], c.want)
		}
	}

	if _, ok := k1["NPC_BASTILA"]; !ok {
		t.Fatal("k1 constants missing NPC_BASTILA")
	}
	if _, ok := k2["NPC_BASTILA"]; ok {
		t.Fatal("k2 constants should not carry NPC_BASTILA")
	}
	if _, ok := k2["NPC_KREIA"]; !ok {
		t.Fatal("k2 constants missing NPC_KREIA")
	}
	// Shared companions keep their per-game slots.
	if k1["NPC_CANDEROUS"] == k2["NPC_CANDEROUS"] {
		t.Fatalf("NPC_CANDEROUS identical across games: %d", k1["NPC_CANDEROUS"])
	}
}
