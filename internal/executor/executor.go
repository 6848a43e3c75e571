// Package executor owns the script side of a running world: which
// script an entity's event fires, where its bytecode comes from, and
// how much it may spend executing.
//
// One Executor serves one world, driven from the host loop's goroutine:
// ResetInstructionBudget at the start of each tick, Advance with the
// simulated delta, FireEvent as gameplay demands. Scripts re-enter the
// executor through their Context (ExecuteScript, DelayCommand,
// SignalEvent) and every such invocation runs on a fresh VM. Nothing a
// script does can take the world down: failures are absorbed, logged
// and reported through OnFailure.
package executor

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"aurora/internal/compiler"
	"aurora/internal/limits"
	"aurora/internal/ncs"
	"aurora/internal/resource"
	"aurora/internal/routines"
	"aurora/internal/value"
	"aurora/internal/vars"
	"aurora/internal/vm"
)

// DefaultHeartbeatSeconds is the period of the aggregate heartbeat
// timer: every bound entity's heartbeat fires once per period, in one
// sweep.
const DefaultHeartbeatSeconds float32 = 6.0

// maxNestedRuns caps synchronous script nesting, ExecuteScript and
// SignalEvent alike, so mutually recursive scripts cannot grow the
// host call stack without bound.
const maxNestedRuns = 8

// BudgetPolicy decides what happens to work that arrives after the
// tick's aggregate instruction budget is spent.
type BudgetPolicy uint8

const (
	// PolicyLog runs the work anyway; the overrun is logged once per
	// tick and the query surface keeps reporting the true spend.
	PolicyLog BudgetPolicy = iota
	// PolicyDrop skips the work.
	PolicyDrop
	// PolicyDefer holds the work back and releases it after the next
	// budget reset.
	PolicyDefer
)

func (p BudgetPolicy) String() string {
	switch p {
	case PolicyLog:
		return "log"
	case PolicyDrop:
		return "drop"
	case PolicyDefer:
		return "defer"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// FailureClass says which stage of an invocation broke.
type FailureClass uint8

const (
	// FailureLoad: the resource is missing or unreadable.
	FailureLoad FailureClass = iota + 1
	// FailureDecode: the bytecode was rejected by the loader.
	FailureDecode
	// FailureCompile: the source fallback did not compile.
	FailureCompile
	// FailureFault: the VM faulted mid-run.
	FailureFault
	// FailureLimit: the call hit its instruction ceiling.
	FailureLimit
	// FailureRecursion: ExecuteScript nested too deep.
	FailureRecursion
)

func (c FailureClass) String() string {
	switch c {
	case FailureLoad:
		return "load"
	case FailureDecode:
		return "decode"
	case FailureCompile:
		return "compile"
	case FailureFault:
		return "fault"
	case FailureLimit:
		return "instruction-limit"
	case FailureRecursion:
		return "recursion"
	default:
		return fmt.Sprintf("failure(%d)", uint8(c))
	}
}

// Failure is one absorbed script failure: the simulation kept going,
// this is the record of what it shrugged off.
type Failure struct {
	Class  FailureClass
	Entity value.ObjectID
	// Event is the event type being handled, or -1 when the run was not
	// an event handler (RunScript, ExecuteScript, a replayed action).
	Event  int32
	Script string
	Err    error
}

// Options configures one Executor.
type Options struct {
	// Game selects the routine table when Table is nil.
	Game routines.Game
	// Table overrides the routine table.
	Table *routines.Table
	// Provider resolves script names, compiled bytecode first, source
	// as the fallback.
	Provider resource.Provider
	// World is the host surface routines query and mutate.
	World routines.World
	// Vars backs the script variable routines. Defaults to a fresh
	// store.
	Vars *vars.Store
	// MaxStepsPerCall caps each VM call. Zero selects
	// vm.DefaultMaxSteps.
	MaxStepsPerCall int64
	// TickBudget caps the aggregate instructions all scripts may spend
	// between budget resets. Zero means unlimited.
	TickBudget int64
	// Policy picks what happens to work past the tick budget.
	Policy BudgetPolicy
	// HeartbeatSeconds overrides the heartbeat period. Zero or negative
	// selects DefaultHeartbeatSeconds.
	HeartbeatSeconds float32
	// Logger receives absorbed failures and budget overruns.
	Logger zerolog.Logger
	// OnFailure, when set, sees every absorbed failure after it is
	// logged.
	OnFailure func(Failure)
}

// Executor routes entity events to scripts and runs them under the
// world's instruction budgets. Not safe for concurrent use; the host
// loop owns it.
type Executor struct {
	table    *routines.Table
	provider resource.Provider
	world    routines.World
	vars     *vars.Store
	log      zerolog.Logger
	onFail   func(Failure)

	maxSteps int64
	policy   BudgetPolicy
	budget   *limits.Budget
	perEnt   map[value.ObjectID]int64
	deferred []invocation
	overrun  bool

	period float32
	hbAcc  float32
	clock  float32

	hooks map[value.ObjectID]map[int32]string
	progs map[resource.Ref]*ncs.Program
	queue actionQueue
	seq   uint64
	depth int
}

func New(opts Options) *Executor {
	table := opts.Table
	if table == nil {
		table = routines.ForGame(opts.Game)
		table.SetLogger(opts.Logger)
	}
	period := opts.HeartbeatSeconds
	if period <= 0 {
		period = DefaultHeartbeatSeconds
	}
	maxSteps := opts.MaxStepsPerCall
	if maxSteps <= 0 {
		maxSteps = vm.DefaultMaxSteps
	}
	store := opts.Vars
	if store == nil {
		store = vars.NewStore()
	}
	return &Executor{
		table:    table,
		provider: opts.Provider,
		world:    opts.World,
		vars:     store,
		log:      opts.Logger,
		onFail:   opts.OnFailure,
		maxSteps: maxSteps,
		policy:   opts.Policy,
		budget:   limits.NewBudget(opts.TickBudget),
		perEnt:   map[value.ObjectID]int64{},
		period:   period,
		hooks:    map[value.ObjectID]map[int32]string{},
		progs:    map[resource.Ref]*ncs.Program{},
	}
}

// Table exposes the routine table the executor dispatches through.
func (x *Executor) Table() *routines.Table { return x.table }

// Vars exposes the variable store scripts read and write.
func (x *Executor) Vars() *vars.Store { return x.vars }

// Now reports the simulated clock in seconds.
func (x *Executor) Now() float32 { return x.clock }

func validEvent(event int32) bool {
	return event >= routines.EventHeartbeat && event <= routines.EventUserDefined
}

// Bind routes an entity's event type to a script and reports whether
// the event type was known. An empty script name clears the binding,
// same as Unbind.
func (x *Executor) Bind(id value.ObjectID, event int32, script string) bool {
	if !validEvent(event) || !id.Valid() {
		return false
	}
	ref := resource.NewRef(script).String()
	if ref == "" {
		x.Unbind(id, event)
		return true
	}
	m := x.hooks[id]
	if m == nil {
		m = map[int32]string{}
		x.hooks[id] = m
	}
	m[event] = ref
	return true
}

// Binding reads an entity's handler for an event type, "" when none.
func (x *Executor) Binding(id value.ObjectID, event int32) string {
	return x.hooks[id][event]
}

// Unbind removes an entity's handler for an event type.
func (x *Executor) Unbind(id value.ObjectID, event int32) {
	m, ok := x.hooks[id]
	if !ok {
		return
	}
	delete(m, event)
	if len(m) == 0 {
		delete(x.hooks, id)
	}
}

// DestroyEntity drops everything held for an entity: hooks, local
// variables, queued actions and its budget counter. An in-flight
// invocation for it still finishes.
func (x *Executor) DestroyEntity(id value.ObjectID) {
	delete(x.hooks, id)
	delete(x.perEnt, id)
	x.vars.ClearEntity(id)
	x.queue.dropEntity(id)
}

// FireEvent runs the script bound to an entity's event type, with
// other as the triggerer. An entity with no binding ignores the event:
// no load, no budget spend, no log.
func (x *Executor) FireEvent(target value.ObjectID, event int32, other value.ObjectID) {
	script := x.hooks[target][event]
	if script == "" {
		return
	}
	x.dispatch(invocation{script: script, target: target, event: event, other: other})
}

// SignalUserDefined fires an entity's user-defined handler carrying a
// script-chosen event number.
func (x *Executor) SignalUserDefined(target value.ObjectID, number int32, other value.ObjectID) {
	script := x.hooks[target][routines.EventUserDefined]
	if script == "" {
		return
	}
	x.dispatch(invocation{
		script: script, target: target, event: routines.EventUserDefined,
		other: other, userEvent: number,
	})
}

// RunScript loads and runs a script immediately against a target,
// outside any event. Host bootstrap and the CLI come through here; the
// run still charges the tick budget.
func (x *Executor) RunScript(script string, target value.ObjectID) (vm.Result, error) {
	return x.run(invocation{
		script: script, target: target, event: -1, other: value.ObjectInvalid,
	})
}

// Advance moves simulated time forward and runs what came due: delayed
// actions first, then one heartbeat sweep per period crossing. A sweep
// fires the heartbeat of every bound entity in ascending id order.
func (x *Executor) Advance(dt float32) {
	if dt < 0 {
		dt = 0
	}
	x.clock += dt
	x.drainDue()
	x.hbAcc += dt
	for x.hbAcc >= x.period {
		// Carry the fractional remainder so long-run drift stays bounded.
		x.hbAcc -= x.period
		x.heartbeatSweep()
	}
}

// InstructionsExecutedThisTick reports what an entity's scripts spent
// since the last reset.
func (x *Executor) InstructionsExecutedThisTick(id value.ObjectID) int64 {
	return x.perEnt[id]
}

// GlobalInstructionsThisTick reports the aggregate spend since the
// last reset.
func (x *Executor) GlobalInstructionsThisTick() int64 { return x.budget.Used() }

// RemainingBudget reports what the tick may still spend, negative when
// unlimited.
func (x *Executor) RemainingBudget() int64 { return x.budget.Remaining() }

// ResetInstructionBudget zeroes the tick counters and releases any
// work a PolicyDefer held back. The host loop calls it once at the
// start of each tick.
func (x *Executor) ResetInstructionBudget() {
	x.budget.Reset()
	x.perEnt = map[value.ObjectID]int64{}
	x.overrun = false
	if len(x.deferred) == 0 {
		return
	}
	held := x.deferred
	x.deferred = nil
	for _, inv := range held {
		x.dispatch(inv)
	}
}

// invocation is one pending script run with the identity its Context
// will carry.
type invocation struct {
	script    string
	target    value.ObjectID
	event     int32
	other     value.ObjectID
	userEvent int32
	scriptVar int32
}

func (x *Executor) dispatch(inv invocation) {
	if x.budget.Remaining() == 0 {
		switch x.policy {
		case PolicyDrop:
			x.log.Warn().Str("script", inv.script).Stringer("entity", inv.target).
				Int32("event", inv.event).Msg("tick budget spent, dropping event")
			return
		case PolicyDefer:
			x.deferred = append(x.deferred, inv)
			x.log.Debug().Str("script", inv.script).Stringer("entity", inv.target).
				Int32("event", inv.event).Msg("tick budget spent, deferring event")
			return
		}
	}
	x.run(inv)
}

func (x *Executor) run(inv invocation) (vm.Result, error) {
	if x.depth >= maxNestedRuns {
		err := fmt.Errorf("script nesting deeper than %d", maxNestedRuns)
		x.fail(Failure{Class: FailureRecursion, Entity: inv.target, Event: inv.event, Script: inv.script, Err: err})
		return vm.Result{}, err
	}
	x.depth++
	defer func() { x.depth-- }()
	prog, class, err := x.load(inv.script)
	if err != nil {
		x.fail(Failure{Class: class, Entity: inv.target, Event: inv.event, Script: inv.script, Err: err})
		return vm.Result{}, err
	}
	ctx := Context{
		exec: x, prog: prog,
		caller: inv.target, triggerer: inv.other,
		userEvent: inv.userEvent, scriptVar: inv.scriptVar,
	}
	res, err := vm.Run(prog, vm.Options{
		MaxSteps: x.maxSteps,
		Routines: x.table.Bind(ctx),
		Self:     inv.target,
	})
	x.charge(inv.target, res.Steps)
	if err != nil {
		class := FailureFault
		var limErr *vm.InstructionLimitError
		if errors.As(err, &limErr) {
			class = FailureLimit
		}
		x.fail(Failure{Class: class, Entity: inv.target, Event: inv.event, Script: inv.script, Err: err})
	}
	return res, err
}

// runNested backs ExecuteScript. run's depth guard absorbs runaway
// recursion; the outer script continues either way.
func (x *Executor) runNested(script string, target value.ObjectID, scriptVar int32) error {
	_, err := x.run(invocation{
		script: script, target: target, event: -1,
		other: value.ObjectInvalid, scriptVar: scriptVar,
	})
	return err
}

// load resolves a script name: compiled bytecode first, then source
// compiled on the spot. Both forms land in the program cache so an
// event storm does not reload its handler every firing.
func (x *Executor) load(name string) (*ncs.Program, FailureClass, error) {
	ref := resource.NewRef(name)
	if prog, ok := x.progs[ref]; ok {
		return prog, 0, nil
	}
	if x.provider == nil {
		return nil, FailureLoad, fmt.Errorf("no resource provider")
	}
	data, err := x.provider.Open(ref, resource.TypeNCS)
	if err == nil {
		prog, derr := ncs.Decode(ref.String(), data)
		if derr != nil {
			return nil, FailureDecode, derr
		}
		x.progs[ref] = prog
		return prog, 0, nil
	}
	var nf *resource.NotFound
	if !errors.As(err, &nf) {
		return nil, FailureLoad, err
	}
	data, err = x.provider.Open(ref, resource.TypeNSS)
	if err != nil {
		return nil, FailureLoad, err
	}
	c := compiler.New(compiler.Options{
		Table:    x.table,
		Source:   resource.SourceOf(x.provider),
		Optimize: true,
	})
	prog, cerr := c.Compile(ref.String()+resource.TypeNSS.Ext(), string(data))
	if cerr != nil {
		return nil, FailureCompile, cerr
	}
	x.progs[ref] = prog
	return prog, 0, nil
}

// InvalidateProgram drops a script from the program cache, so the next
// firing reloads it. Tooling that rewrites scripts at runtime calls
// this after a write.
func (x *Executor) InvalidateProgram(name string) {
	delete(x.progs, resource.NewRef(name))
}

func (x *Executor) charge(id value.ObjectID, steps int64) {
	if steps <= 0 {
		return
	}
	x.perEnt[id] += steps
	if err := x.budget.Charge(steps); err != nil && !x.overrun {
		x.overrun = true
		x.log.Warn().Int64("limit", x.budget.Limit()).Int64("used", x.budget.Used()).
			Stringer("policy", x.policy).Msg("tick instruction budget exceeded")
	}
}

func (x *Executor) fail(f Failure) {
	x.log.Warn().Stringer("class", f.Class).Stringer("entity", f.Entity).
		Int32("event", f.Event).Str("script", f.Script).Err(f.Err).
		Msg("script failure absorbed")
	if x.onFail != nil {
		x.onFail(f)
	}
}

func (x *Executor) heartbeatSweep() {
	ids := make([]value.ObjectID, 0, len(x.hooks))
	for id, m := range x.hooks {
		if m[routines.EventHeartbeat] != "" {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		x.FireEvent(id, routines.EventHeartbeat, value.ObjectInvalid)
	}
}

// schedule queues a captured action. Delay zero still waits for the
// next Advance; nothing replays inside the run that captured it.
func (x *Executor) schedule(target value.ObjectID, delay float32, prog *ncs.Program, act value.Action) {
	if delay < 0 {
		delay = 0
	}
	x.seq++
	heap.Push(&x.queue, &queuedAction{
		due: x.clock + delay, seq: x.seq,
		target: target, prog: prog, act: act,
	})
}

func (x *Executor) drainDue() {
	for x.queue.Len() > 0 && x.queue[0].due <= x.clock {
		if x.budget.Remaining() == 0 {
			if x.policy == PolicyDefer {
				// Leave the rest queued; it is due again next Advance.
				return
			}
			if x.policy == PolicyDrop {
				it := heap.Pop(&x.queue).(*queuedAction)
				x.log.Warn().Stringer("entity", it.target).Str("script", it.prog.Name).
					Msg("tick budget spent, dropping delayed action")
				continue
			}
		}
		x.replay(heap.Pop(&x.queue).(*queuedAction))
	}
}

// replay runs a captured action on a fresh VM, seeded with the stack
// snapshot and entered at the stored body.
func (x *Executor) replay(it *queuedAction) {
	ctx := Context{
		exec: x, prog: it.prog,
		caller: it.target, triggerer: value.ObjectInvalid,
	}
	res, err := vm.Run(it.prog, vm.Options{
		MaxSteps: x.maxSteps,
		Routines: x.table.Bind(ctx),
		Self:     it.target,
		Entry:    int(it.act.Entry),
		Stack:    it.act.Saved,
	})
	x.charge(it.target, res.Steps)
	if err != nil {
		class := FailureFault
		var limErr *vm.InstructionLimitError
		if errors.As(err, &limErr) {
			class = FailureLimit
		}
		x.fail(Failure{Class: class, Entity: it.target, Event: -1, Script: it.prog.Name, Err: err})
	}
}
