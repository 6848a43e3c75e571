package routines

import (
	"aurora/internal/value"
	"aurora/internal/vars"
)

// Script-visible event type numbers, shared by the EVENT_* constants,
// SetEventScript and the executor's hook map.
const (
	EventHeartbeat int32 = iota
	EventPerception
	EventAttacked
	EventDamaged
	EventDisturbed
	EventEndRound
	EventDialogue
	EventSpawn
	EventDeath
	EventBlocked
	EventEnter
	EventExit
	EventUserDefined
)

// Context is what a running script exposes to routine implementations.
// The executor implements it; tests use small fakes.
type Context interface {
	// Caller is the entity the script runs as, what OBJECT_SELF means.
	Caller() value.ObjectID
	// Triggerer is the entity that caused the current event, or
	// OBJECT_INVALID outside an event.
	Triggerer() value.ObjectID
	// UserDefinedEventNumber is the payload of the user-defined event
	// being handled, zero otherwise.
	UserDefinedEventNumber() int32
	// ScriptVar is the integer passed alongside ExecuteScript.
	ScriptVar() int32

	Vars() *vars.Store
	World() World

	// RunScript loads and runs another script against a target entity,
	// synchronously.
	RunScript(script string, target value.ObjectID, scriptVar int32) error
	// ScheduleAction queues a captured action against an entity, to be
	// replayed after delay simulated seconds.
	ScheduleAction(target value.ObjectID, delay float32, act value.Action) error
	// ClearActions drops an entity's queued actions.
	ClearActions(target value.ObjectID)
	// SignalEvent fires a user-defined script event immediately.
	SignalEvent(target value.ObjectID, ev value.Event) error
	// SetEventScript rebinds an entity's handler for an event type and
	// reports whether the event type was known.
	SetEventScript(target value.ObjectID, event int32, script string) bool
	// EventScript reads an entity's handler for an event type.
	EventScript(target value.ObjectID, event int32) string
}

// World is the host surface the shared routines query and mutate.
// Hosts implement it once; everything a script learns about the world
// flows through here.
type World interface {
	IsValid(id value.ObjectID) bool
	Tag(id value.ObjectID) string
	Name(id value.ObjectID) string
	// FindByTag returns the nth entity carrying a tag, counting from
	// zero, or OBJECT_INVALID.
	FindByTag(tag string, nth int32) value.ObjectID
	Position(id value.ObjectID) value.Vector
	Facing(id value.ObjectID) float32
	SetFacing(id value.ObjectID, facing float32)
	// Elapsed is the simulated seconds since the world started.
	Elapsed() float32
	ApplyEffect(target value.ObjectID, e value.Effect, durationType int32, duration float32)
	// Print receives the output of the Print* routine family.
	Print(text string)
}

// Party is the optional world surface the party routines need. Worlds
// that do not implement it make those routines resolve to their
// defaults.
type Party interface {
	AddPartyMember(npc int32, creature value.ObjectID) bool
	RemovePartyMember(npc int32) bool
	IsPartyMember(id value.ObjectID) bool
	PartyMemberByIndex(index int32) value.ObjectID
}
