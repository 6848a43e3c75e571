package executor

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"aurora/internal/ncs"
	"aurora/internal/resource"
	"aurora/internal/routines"
	"aurora/internal/value"
)

type recordWorld struct {
	tags    map[value.ObjectID]string
	elapsed float32
	printed []string
}

func newRecordWorld() *recordWorld {
	return &recordWorld{tags: map[value.ObjectID]string{}}
}

func (w *recordWorld) IsValid(id value.ObjectID) bool { _, ok := w.tags[id]; return ok }

func (w *recordWorld) Tag(id value.ObjectID) string { return w.tags[id] }

func (w *recordWorld) Name(id value.ObjectID) string { return w.tags[id] }

func (w *recordWorld) FindByTag(tag string, nth int32) value.ObjectID {
	seen := int32(0)
	for id := value.ObjectID(0); id < 64; id++ {
		if w.tags[id] != tag {
			continue
		}
		if seen == nth {
			return id
		}
		seen++
	}
	return value.ObjectInvalid
}

func (w *recordWorld) Position(id value.ObjectID) value.Vector { return value.Vector{} }

func (w *recordWorld) Facing(id value.ObjectID) float32 { return 0 }

func (w *recordWorld) SetFacing(id value.ObjectID, facing float32) {}

func (w *recordWorld) Elapsed() float32 { return w.elapsed }

func (w *recordWorld) ApplyEffect(target value.ObjectID, e value.Effect, durationType int32, duration float32) {
}

func (w *recordWorld) Print(text string) { w.printed = append(w.printed, text) }

// countingProvider wraps a provider and counts Open calls per type.
type countingProvider struct {
	inner resource.Provider
	opens map[resource.Type]int
}

func counting(inner resource.Provider) *countingProvider {
	return &countingProvider{inner: inner, opens: map[resource.Type]int{}}
}

func (p *countingProvider) Open(ref resource.Ref, typ resource.Type) ([]byte, error) {
	p.opens[typ]++
	return p.inner.Open(ref, typ)
}

type fixture struct {
	exec  *Executor
	world *recordWorld
	fails []Failure
}

func build(t *testing.T, opts Options, scripts map[string]string) *fixture {
	t.Helper()
	f := &fixture{world: newRecordWorld()}
	src := resource.NewMap()
	for name, text := range scripts {
		src.PutSource(name, text)
	}
	if opts.Game == 0 && opts.Table == nil {
		opts.Game = routines.GameK1
	}
	if opts.Provider == nil {
		opts.Provider = src
	}
	opts.World = f.world
	opts.Logger = zerolog.Nop()
	opts.OnFailure = func(fl Failure) { f.fails = append(f.fails, fl) }
	f.exec = New(opts)
	return f
}

// nops builds a program of n Nop instructions and a final Ret, so its
// step count is exactly n+1.
func nops(name string, n int) *ncs.Program {
	code := make([]ncs.Instruction, 0, n+1)
	for i := 0; i < n; i++ {
		code = append(code, ncs.Instruction{Op: ncs.OpNop})
	}
	code = append(code, ncs.Instruction{Op: ncs.OpRet})
	return &ncs.Program{Name: name, Code: code}
}

func TestFireEventRunsBoundScript(t *testing.T) {
	f := build(t, Options{}, map[string]string{
		"greet": `void main() { PrintString("hello"); }`,
	})
	ent := value.ObjectID(7)
	if !f.exec.Bind(ent, routines.EventEnter, "greet") {
		t.Fatalf("Bind rejected a valid event")
	}

	f.exec.FireEvent(ent, routines.EventEnter, value.ObjectInvalid)
	if want := []string{"hello"}; !reflect.DeepEqual(f.world.printed, want) {
		t.Fatalf("printed %q, want %q", f.world.printed, want)
	}

	// A different event type on the same entity has no binding.
	f.exec.FireEvent(ent, routines.EventExit, value.ObjectInvalid)
	if len(f.world.printed) != 1 {
		t.Fatalf("unbound event ran a script: printed %q", f.world.printed)
	}
	if len(f.fails) != 0 {
		t.Fatalf("unexpected failures: %+v", f.fails)
	}
}

func TestUnboundEventCostsNothing(t *testing.T) {
	f := build(t, Options{}, map[string]string{
		"greet": `void main() { PrintString("hello"); }`,
	})
	cp := counting(f.exec.provider)
	f.exec.provider = cp

	f.exec.FireEvent(value.ObjectID(3), routines.EventDamaged, value.ObjectInvalid)

	if got := cp.opens[resource.TypeNCS] + cp.opens[resource.TypeNSS]; got != 0 {
		t.Fatalf("unbound event touched the provider %d times", got)
	}
	if used := f.exec.GlobalInstructionsThisTick(); used != 0 {
		t.Fatalf("unbound event spent %d instructions", used)
	}
}

func TestTriggererIsVisibleToScript(t *testing.T) {
	f := build(t, Options{}, map[string]string{
		"onenter": `void main() { PrintString("enter:" + GetTag(GetEnteringObject())); }`,
	})
	door, pc := value.ObjectID(1), value.ObjectID(2)
	f.world.tags[pc] = "player"
	f.exec.Bind(door, routines.EventEnter, "onenter")

	f.exec.FireEvent(door, routines.EventEnter, pc)

	if want := []string{"enter:player"}; !reflect.DeepEqual(f.world.printed, want) {
		t.Fatalf("printed %q, want %q", f.world.printed, want)
	}
}

func TestHeartbeatFiresOncePerPeriod(t *testing.T) {
	f := build(t, Options{}, map[string]string{
		"hb": `void main() { PrintString("beat"); }`,
	})
	ent := value.ObjectID(5)
	f.exec.Bind(ent, routines.EventHeartbeat, "hb")

	// 1/64 s is exact in float32, so 384 ticks accumulate to exactly
	// the 6 s period with nothing carried.
	const dt = float32(1.0 / 64.0)
	for i := 0; i < 383; i++ {
		f.exec.Advance(dt)
	}
	if len(f.world.printed) != 0 {
		t.Fatalf("heartbeat fired early after 383 ticks: %q", f.world.printed)
	}
	f.exec.Advance(dt)
	if len(f.world.printed) != 1 {
		t.Fatalf("heartbeat fired %d times at the period, want 1", len(f.world.printed))
	}
	for i := 0; i < 384; i++ {
		f.exec.Advance(dt)
	}
	if len(f.world.printed) != 2 {
		t.Fatalf("heartbeat fired %d times after two periods, want 2", len(f.world.printed))
	}
}

func TestHeartbeatLongDeltaCatchesUp(t *testing.T) {
	f := build(t, Options{}, map[string]string{
		"hb": `void main() { PrintString("beat"); }`,
	})
	f.exec.Bind(value.ObjectID(1), routines.EventHeartbeat, "hb")

	f.exec.Advance(12.5)

	if len(f.world.printed) != 2 {
		t.Fatalf("12.5 s delta fired %d sweeps, want 2", len(f.world.printed))
	}
	// 0.5 s remainder carried: 5.5 s more completes the third period.
	f.exec.Advance(5.5)
	if len(f.world.printed) != 3 {
		t.Fatalf("remainder not carried: %d sweeps, want 3", len(f.world.printed))
	}
}

func TestHeartbeatSweepVisitsEntitiesInOrder(t *testing.T) {
	f := build(t, Options{}, map[string]string{
		"whoami": `void main() { PrintString(GetTag(OBJECT_SELF)); }`,
	})
	for id, tag := range map[value.ObjectID]string{30: "c", 10: "a", 20: "b"} {
		f.world.tags[id] = tag
		f.exec.Bind(id, routines.EventHeartbeat, "whoami")
	}

	f.exec.Advance(6)

	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(f.world.printed, want) {
		t.Fatalf("sweep order %q, want %q", f.world.printed, want)
	}
}

func TestBudgetAccountingAndReset(t *testing.T) {
	f := build(t, Options{}, nil)
	src := resource.NewMap()
	src.Put("busy", resource.TypeNCS, ncs.Encode(nops("busy", 5)))
	f.exec.provider = src
	ent := value.ObjectID(4)

	if _, err := f.exec.RunScript("busy", ent); err != nil {
		t.Fatalf("RunScript: %v", err)
	}

	if got := f.exec.InstructionsExecutedThisTick(ent); got != 6 {
		t.Fatalf("entity spend = %d, want 6", got)
	}
	if got := f.exec.GlobalInstructionsThisTick(); got != 6 {
		t.Fatalf("global spend = %d, want 6", got)
	}
	if got := f.exec.RemainingBudget(); got != -1 {
		t.Fatalf("unlimited budget remaining = %d, want -1", got)
	}

	f.exec.ResetInstructionBudget()
	if got := f.exec.InstructionsExecutedThisTick(ent); got != 0 {
		t.Fatalf("entity spend after reset = %d, want 0", got)
	}
	if got := f.exec.GlobalInstructionsThisTick(); got != 0 {
		t.Fatalf("global spend after reset = %d, want 0", got)
	}
}

func TestBudgetPolicyDrop(t *testing.T) {
	f := build(t, Options{TickBudget: 4, Policy: PolicyDrop}, nil)
	src := resource.NewMap()
	src.Put("busy", resource.TypeNCS, ncs.Encode(nops("busy", 5)))
	f.exec.provider = src
	ent := value.ObjectID(1)
	f.exec.Bind(ent, routines.EventSpawn, "busy")

	// First firing overruns the 4-instruction budget; it still runs to
	// completion and records its true spend.
	f.exec.FireEvent(ent, routines.EventSpawn, value.ObjectInvalid)
	if got := f.exec.GlobalInstructionsThisTick(); got != 6 {
		t.Fatalf("first firing spent %d, want 6", got)
	}

	// Second firing finds the budget spent and is dropped.
	f.exec.FireEvent(ent, routines.EventSpawn, value.ObjectInvalid)
	if got := f.exec.GlobalInstructionsThisTick(); got != 6 {
		t.Fatalf("dropped firing still spent instructions: %d", got)
	}

	// A fresh tick runs it again.
	f.exec.ResetInstructionBudget()
	f.exec.FireEvent(ent, routines.EventSpawn, value.ObjectInvalid)
	if got := f.exec.GlobalInstructionsThisTick(); got != 6 {
		t.Fatalf("post-reset firing spent %d, want 6", got)
	}
}

func TestBudgetPolicyDeferReleasesOnReset(t *testing.T) {
	f := build(t, Options{TickBudget: 4, Policy: PolicyDefer}, map[string]string{
		"mark": `void main() { PrintString("ran"); }`,
	})
	src := resource.NewMap()
	src.Put("busy", resource.TypeNCS, ncs.Encode(nops("busy", 5)))
	src.PutSource("mark", `void main() { PrintString("ran"); }`)
	f.exec.provider = src
	ent := value.ObjectID(1)
	f.exec.Bind(ent, routines.EventSpawn, "busy")
	f.exec.Bind(ent, routines.EventUserDefined, "mark")

	f.exec.FireEvent(ent, routines.EventSpawn, value.ObjectInvalid) // spends 6 of 4
	f.exec.SignalUserDefined(ent, 1, value.ObjectInvalid)           // deferred
	if len(f.world.printed) != 0 {
		t.Fatalf("deferred event ran inside the exhausted tick: %q", f.world.printed)
	}

	f.exec.ResetInstructionBudget()
	if want := []string{"ran"}; !reflect.DeepEqual(f.world.printed, want) {
		t.Fatalf("printed %q after reset, want %q", f.world.printed, want)
	}
}

func TestDelayCommandReplaysAfterDelay(t *testing.T) {
	f := build(t, Options{}, map[string]string{
		"plan": `void main() { DelayCommand(1.0, PrintString("later")); PrintString("now"); }`,
	})
	ent := value.ObjectID(2)

	if _, err := f.exec.RunScript("plan", ent); err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	if want := []string{"now"}; !reflect.DeepEqual(f.world.printed, want) {
		t.Fatalf("printed %q before the delay, want %q", f.world.printed, want)
	}

	f.exec.Advance(0.5)
	if len(f.world.printed) != 1 {
		t.Fatalf("action replayed before its due time: %q", f.world.printed)
	}

	f.exec.Advance(0.6)
	if want := []string{"now", "later"}; !reflect.DeepEqual(f.world.printed, want) {
		t.Fatalf("printed %q after the delay, want %q", f.world.printed, want)
	}
}

func TestDelayedActionSeesCapturedLocals(t *testing.T) {
	f := build(t, Options{}, map[string]string{
		"capture": `void main() {
			int n = 40 + 2;
			DelayCommand(0.5, PrintInteger(n));
		}`,
	})

	if _, err := f.exec.RunScript("capture", value.ObjectID(1)); err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	f.exec.Advance(1)

	if want := []string{"42"}; !reflect.DeepEqual(f.world.printed, want) {
		t.Fatalf("printed %q, want %q", f.world.printed, want)
	}
}

func TestClearAllActionsDropsQueuedWork(t *testing.T) {
	f := build(t, Options{}, map[string]string{
		"fickle": `void main() { DelayCommand(1.0, PrintString("x")); ClearAllActions(); }`,
	})

	if _, err := f.exec.RunScript("fickle", value.ObjectID(9)); err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	f.exec.Advance(2)

	if len(f.world.printed) != 0 {
		t.Fatalf("cleared action still replayed: %q", f.world.printed)
	}
}

func TestSameInstantActionsReplayInQueueOrder(t *testing.T) {
	f := build(t, Options{}, map[string]string{
		"pair": `void main() {
			DelayCommand(1.0, PrintString("first"));
			DelayCommand(1.0, PrintString("second"));
		}`,
	})

	if _, err := f.exec.RunScript("pair", value.ObjectID(1)); err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	f.exec.Advance(1)

	if want := []string{"first", "second"}; !reflect.DeepEqual(f.world.printed, want) {
		t.Fatalf("printed %q, want %q", f.world.printed, want)
	}
}

func TestExecuteScriptRunsSynchronously(t *testing.T) {
	f := build(t, Options{}, map[string]string{
		"outer": `void main() { ExecuteScript("inner", OBJECT_SELF, 7); PrintString("after"); }`,
		"inner": `void main() { PrintInteger(GetRunScriptVar()); }`,
	})

	if _, err := f.exec.RunScript("outer", value.ObjectID(3)); err != nil {
		t.Fatalf("RunScript: %v", err)
	}

	if want := []string{"7", "after"}; !reflect.DeepEqual(f.world.printed, want) {
		t.Fatalf("printed %q, want %q", f.world.printed, want)
	}
}

func TestExecuteScriptRecursionIsCapped(t *testing.T) {
	f := build(t, Options{}, map[string]string{
		"loop": `void main() { PrintString("in"); ExecuteScript("loop", OBJECT_SELF); }`,
	})

	if _, err := f.exec.RunScript("loop", value.ObjectID(1)); err != nil {
		t.Fatalf("outermost run failed: %v", err)
	}

	if len(f.world.printed) != maxNestedRuns {
		t.Fatalf("recursion reached depth %d, want %d", len(f.world.printed), maxNestedRuns)
	}
	if len(f.fails) != 1 || f.fails[0].Class != FailureRecursion {
		t.Fatalf("failures = %+v, want one recursion failure", f.fails)
	}
}

func TestSignalEventReachesUserDefinedHandler(t *testing.T) {
	f := build(t, Options{}, map[string]string{
		"handler": `void main() { PrintInteger(GetUserDefinedEventNumber()); }`,
		"sender":  `void main() { SignalEvent(OBJECT_SELF, EventUserDefined(42)); }`,
	})
	ent := value.ObjectID(6)
	f.exec.Bind(ent, routines.EventUserDefined, "handler")

	if _, err := f.exec.RunScript("sender", ent); err != nil {
		t.Fatalf("RunScript: %v", err)
	}

	if want := []string{"42"}; !reflect.DeepEqual(f.world.printed, want) {
		t.Fatalf("printed %q, want %q", f.world.printed, want)
	}
}

func TestSetEventScriptRebindsAtRuntime(t *testing.T) {
	f := build(t, Options{}, map[string]string{
		"rebind": `void main() { SetEventScript(OBJECT_SELF, EVENT_ENTER, "greet"); }`,
		"greet":  `void main() { PrintString("hello"); }`,
	})
	ent := value.ObjectID(2)

	if _, err := f.exec.RunScript("rebind", ent); err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	if got := f.exec.Binding(ent, routines.EventEnter); got != "greet" {
		t.Fatalf("binding = %q, want %q", got, "greet")
	}

	f.exec.FireEvent(ent, routines.EventEnter, value.ObjectInvalid)
	if want := []string{"hello"}; !reflect.DeepEqual(f.world.printed, want) {
		t.Fatalf("printed %q, want %q", f.world.printed, want)
	}
}

func TestBindRejectsUnknownEventType(t *testing.T) {
	f := build(t, Options{}, nil)
	if f.exec.Bind(value.ObjectID(1), 99, "x") {
		t.Fatalf("Bind accepted event type 99")
	}
	if f.exec.Bind(value.ObjectInvalid, routines.EventEnter, "x") {
		t.Fatalf("Bind accepted OBJECT_INVALID")
	}
}

func TestBindEmptyScriptClears(t *testing.T) {
	f := build(t, Options{}, nil)
	ent := value.ObjectID(1)
	f.exec.Bind(ent, routines.EventDeath, "boom")
	if !f.exec.Bind(ent, routines.EventDeath, "") {
		t.Fatalf("clearing Bind rejected")
	}
	if got := f.exec.Binding(ent, routines.EventDeath); got != "" {
		t.Fatalf("binding survived clear: %q", got)
	}
}

func TestDestroyEntityDropsAllState(t *testing.T) {
	f := build(t, Options{}, map[string]string{
		"hb":    `void main() { PrintString("beat"); }`,
		"stash": `void main() { SetLocalInt(OBJECT_SELF, "gold", 99); DelayCommand(1.0, PrintString("x")); }`,
	})
	ent := value.ObjectID(8)
	f.exec.Bind(ent, routines.EventHeartbeat, "hb")
	if _, err := f.exec.RunScript("stash", ent); err != nil {
		t.Fatalf("RunScript: %v", err)
	}

	f.exec.DestroyEntity(ent)

	f.exec.Advance(6)
	if len(f.world.printed) != 0 {
		t.Fatalf("destroyed entity still ran scripts: %q", f.world.printed)
	}
	if got := f.exec.Vars().LocalInt(ent, "gold"); got != 0 {
		t.Fatalf("local survived destroy: %d", got)
	}
}

func TestMissingScriptIsAbsorbed(t *testing.T) {
	f := build(t, Options{}, nil)
	ent := value.ObjectID(1)
	f.exec.Bind(ent, routines.EventSpawn, "ghost")

	f.exec.FireEvent(ent, routines.EventSpawn, value.ObjectInvalid)

	if len(f.fails) != 1 || f.fails[0].Class != FailureLoad {
		t.Fatalf("failures = %+v, want one load failure", f.fails)
	}
	var nf *resource.NotFound
	if !errors.As(f.fails[0].Err, &nf) {
		t.Fatalf("failure error = %v, want *resource.NotFound", f.fails[0].Err)
	}
}

func TestBrokenSourceIsAbsorbed(t *testing.T) {
	f := build(t, Options{}, map[string]string{
		"broken": `void main() { PrintString(3); }`,
	})
	ent := value.ObjectID(1)
	f.exec.Bind(ent, routines.EventSpawn, "broken")

	f.exec.FireEvent(ent, routines.EventSpawn, value.ObjectInvalid)

	if len(f.fails) != 1 || f.fails[0].Class != FailureCompile {
		t.Fatalf("failures = %+v, want one compile failure", f.fails)
	}
}

func TestRunawayScriptHitsCeiling(t *testing.T) {
	f := build(t, Options{MaxStepsPerCall: 500}, map[string]string{
		"spin": `void main() { while (TRUE) {} }`,
	})
	ent := value.ObjectID(1)
	f.exec.Bind(ent, routines.EventSpawn, "spin")

	f.exec.FireEvent(ent, routines.EventSpawn, value.ObjectInvalid)

	if len(f.fails) != 1 || f.fails[0].Class != FailureLimit {
		t.Fatalf("failures = %+v, want one instruction-limit failure", f.fails)
	}
	// The aborted run's spend still lands on the budget.
	if got := f.exec.InstructionsExecutedThisTick(ent); got != 500 {
		t.Fatalf("entity spend = %d, want 500", got)
	}
}

func TestCompiledFormPreferredOverSource(t *testing.T) {
	f := build(t, Options{}, nil)
	src := resource.NewMap()
	src.Put("both", resource.TypeNCS, ncs.Encode(nops("both", 1)))
	src.PutSource("both", `void main() { PrintString("from source"); }`)
	f.exec.provider = src

	res, err := f.exec.RunScript("both", value.ObjectID(1))
	if err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	if res.Steps != 2 {
		t.Fatalf("steps = %d, want the 2-step compiled form", res.Steps)
	}
	if len(f.world.printed) != 0 {
		t.Fatalf("source fallback ran despite compiled form: %q", f.world.printed)
	}
}

func TestProgramCacheLoadsOnce(t *testing.T) {
	f := build(t, Options{}, map[string]string{
		"greet": `void main() { PrintString("hello"); }`,
	})
	cp := counting(f.exec.provider)
	f.exec.provider = cp
	ent := value.ObjectID(1)
	f.exec.Bind(ent, routines.EventEnter, "greet")

	f.exec.FireEvent(ent, routines.EventEnter, value.ObjectInvalid)
	f.exec.FireEvent(ent, routines.EventEnter, value.ObjectInvalid)

	if got := cp.opens[resource.TypeNSS]; got != 1 {
		t.Fatalf("source opened %d times, want 1", got)
	}

	f.exec.InvalidateProgram("greet")
	f.exec.FireEvent(ent, routines.EventEnter, value.ObjectInvalid)
	if got := cp.opens[resource.TypeNSS]; got != 2 {
		t.Fatalf("source opened %d times after invalidate, want 2", got)
	}
}

func TestContextDerivationsCopy(t *testing.T) {
	base := Context{caller: 1, triggerer: 2}

	derived := base.WithCaller(9).WithTriggerer(8)

	if base.Caller() != 1 || base.Triggerer() != 2 {
		t.Fatalf("derivation mutated the base: caller=%v triggerer=%v", base.Caller(), base.Triggerer())
	}
	if derived.Caller() != 9 || derived.Triggerer() != 8 {
		t.Fatalf("derived context = caller %v, triggerer %v", derived.Caller(), derived.Triggerer())
	}
}
