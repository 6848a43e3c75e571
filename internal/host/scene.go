package host

import (
	"github.com/rs/zerolog"

	"aurora/internal/config"
	"aurora/internal/executor"
	"aurora/internal/routines"
	"aurora/internal/value"
)

// eventNames maps the manifest's script keys onto event types.
var eventNames = map[string]int32{
	"heartbeat":    routines.EventHeartbeat,
	"perception":   routines.EventPerception,
	"attacked":     routines.EventAttacked,
	"damaged":      routines.EventDamaged,
	"disturbed":    routines.EventDisturbed,
	"end_round":    routines.EventEndRound,
	"dialogue":     routines.EventDialogue,
	"spawn":        routines.EventSpawn,
	"death":        routines.EventDeath,
	"blocked":      routines.EventBlocked,
	"enter":        routines.EventEnter,
	"exit":         routines.EventExit,
	"user_defined": routines.EventUserDefined,
}

// BuildScene spawns the manifest's entities and binds their event
// scripts. It returns the player's id, OBJECT_INVALID when the scene
// has no player.
func BuildScene(w *World, x *executor.Executor, scene []config.Entity, log zerolog.Logger) value.ObjectID {
	player := value.ObjectInvalid
	for _, ce := range scene {
		e := Entity{Tag: ce.Tag, Name: ce.Name, Player: ce.Player}
		if len(ce.Pos) == 2 {
			e.Pos = value.Vector{X: ce.Pos[0], Y: ce.Pos[1]}
		}
		if len(ce.Size) == 2 {
			e.W, e.H = ce.Size[0], ce.Size[1]
		}
		spawned := w.Spawn(e)
		if ce.Player {
			player = spawned.ID
		}
		for name, script := range ce.Scripts {
			event, ok := eventNames[name]
			if !ok {
				log.Warn().Str("entity", ce.Tag).Str("event", name).
					Msg("unknown event name in scene")
				continue
			}
			x.Bind(spawned.ID, event, script)
		}
	}
	return player
}
