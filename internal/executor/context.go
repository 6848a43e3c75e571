package executor

import (
	"fmt"

	"aurora/internal/ncs"
	"aurora/internal/routines"
	"aurora/internal/value"
	"aurora/internal/vars"
)

// Context carries one invocation's identity: who the script runs as,
// who triggered it, and the numbers ExecuteScript and SignalEvent pass
// along. It is immutable; the With derivations return copies, so a
// routine re-targeting a call never disturbs the invocation that made
// it.
type Context struct {
	exec      *Executor
	prog      *ncs.Program
	caller    value.ObjectID
	triggerer value.ObjectID
	userEvent int32
	scriptVar int32
}

func (c Context) Caller() value.ObjectID        { return c.caller }
func (c Context) Triggerer() value.ObjectID     { return c.triggerer }
func (c Context) UserDefinedEventNumber() int32 { return c.userEvent }
func (c Context) ScriptVar() int32              { return c.scriptVar }

// WithCaller derives a context running as a different entity.
func (c Context) WithCaller(id value.ObjectID) Context {
	c.caller = id
	return c
}

// WithTriggerer derives a context with a different triggerer.
func (c Context) WithTriggerer(id value.ObjectID) Context {
	c.triggerer = id
	return c
}

func (c Context) Vars() *vars.Store     { return c.exec.vars }
func (c Context) World() routines.World { return c.exec.world }

func (c Context) RunScript(script string, target value.ObjectID, scriptVar int32) error {
	return c.exec.runNested(script, target, scriptVar)
}

func (c Context) ScheduleAction(target value.ObjectID, delay float32, act value.Action) error {
	if c.prog == nil {
		return fmt.Errorf("no program to replay the action against")
	}
	c.exec.schedule(target, delay, c.prog, act)
	return nil
}

func (c Context) ClearActions(target value.ObjectID) {
	c.exec.queue.dropEntity(target)
}

// SignalEvent fires target's user-defined handler right away, with the
// current caller as the triggerer.
func (c Context) SignalEvent(target value.ObjectID, ev value.Event) error {
	c.exec.SignalUserDefined(target, ev.Number, c.caller)
	return nil
}

func (c Context) SetEventScript(target value.ObjectID, event int32, script string) bool {
	return c.exec.Bind(target, event, script)
}

func (c Context) EventScript(target value.ObjectID, event int32) string {
	return c.exec.Binding(target, event)
}
