// Package host is the demo world: a small Ebiten scene whose entities
// are driven entirely by scripts. It implements the world surface the
// routine table queries, feeds the executor a tick per frame, and draws
// what the scripts do.
package host

import (
	"math"

	"github.com/rs/zerolog"

	"aurora/internal/value"
)

// transcriptLines caps the on-screen print history.
const transcriptLines = 8

// Entity is one thing in the scene. A non-zero size makes it a zone:
// drawn as an outline, entered and left by the player.
type Entity struct {
	ID     value.ObjectID
	Tag    string
	Name   string
	Pos    value.Vector
	Facing float32
	W, H   float32
	Player bool
}

// Zone reports whether the entity is an area rather than an actor.
func (e *Entity) Zone() bool { return e.W > 0 && e.H > 0 }

// Contains reports whether a point lies inside the entity's bounds.
func (e *Entity) Contains(p value.Vector) bool {
	return e.Zone() &&
		p.X >= e.Pos.X && p.X < e.Pos.X+e.W &&
		p.Y >= e.Pos.Y && p.Y < e.Pos.Y+e.H
}

// World owns the scene state scripts see. It satisfies the routine
// table's world and party surfaces; the executor reaches it through
// every script's context.
type World struct {
	log      zerolog.Logger
	entities map[value.ObjectID]*Entity
	order    []value.ObjectID
	party    map[int32]value.ObjectID
	flashes  map[value.ObjectID]float32
	printed  []string
	elapsed  float32
	nextID   value.ObjectID
}

func NewWorld(log zerolog.Logger) *World {
	return &World{
		log:      log,
		entities: map[value.ObjectID]*Entity{},
		party:    map[int32]value.ObjectID{},
		flashes:  map[value.ObjectID]float32{},
		nextID:   1,
	}
}

// Spawn adds an entity and returns it with its id assigned. IDs grow
// monotonically; the zero id never appears, OBJECT_SELF encodes as 0
// on the wire.
func (w *World) Spawn(e Entity) *Entity {
	e.ID = w.nextID
	w.nextID++
	ent := &e
	w.entities[ent.ID] = ent
	w.order = append(w.order, ent.ID)
	return ent
}

// Remove drops an entity from the scene.
func (w *World) Remove(id value.ObjectID) {
	if _, ok := w.entities[id]; !ok {
		return
	}
	delete(w.entities, id)
	delete(w.flashes, id)
	for i, oid := range w.order {
		if oid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	for npc, member := range w.party {
		if member == id {
			delete(w.party, npc)
		}
	}
}

// Entity resolves an id, nil when the entity is gone.
func (w *World) Entity(id value.ObjectID) *Entity { return w.entities[id] }

// Entities lists the scene in spawn order.
func (w *World) Entities() []*Entity {
	out := make([]*Entity, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.entities[id])
	}
	return out
}

// Player returns the player-driven entity, nil when the scene has
// none.
func (w *World) Player() *Entity {
	for _, id := range w.order {
		if e := w.entities[id]; e.Player {
			return e
		}
	}
	return nil
}

// Tick advances the world clock and decays effect flashes.
func (w *World) Tick(dt float32) {
	if dt < 0 {
		dt = 0
	}
	w.elapsed += dt
	for id, ttl := range w.flashes {
		ttl -= dt
		if ttl <= 0 {
			delete(w.flashes, id)
		} else {
			w.flashes[id] = ttl
		}
	}
}

// Flashing reports whether an entity has a live effect flash.
func (w *World) Flashing(id value.ObjectID) bool { return w.flashes[id] > 0 }

// Transcript is the recent print output, newest last.
func (w *World) Transcript() []string { return w.printed }

func (w *World) IsValid(id value.ObjectID) bool { _, ok := w.entities[id]; return ok }

func (w *World) Tag(id value.ObjectID) string {
	if e, ok := w.entities[id]; ok {
		return e.Tag
	}
	return ""
}

func (w *World) Name(id value.ObjectID) string {
	if e, ok := w.entities[id]; ok {
		if e.Name != "" {
			return e.Name
		}
		return e.Tag
	}
	return ""
}

func (w *World) FindByTag(tag string, nth int32) value.ObjectID {
	if nth < 0 {
		return value.ObjectInvalid
	}
	seen := int32(0)
	for _, id := range w.order {
		if w.entities[id].Tag != tag {
			continue
		}
		if seen == nth {
			return id
		}
		seen++
	}
	return value.ObjectInvalid
}

func (w *World) Position(id value.ObjectID) value.Vector {
	if e, ok := w.entities[id]; ok {
		return e.Pos
	}
	return value.Vector{}
}

func (w *World) Facing(id value.ObjectID) float32 {
	if e, ok := w.entities[id]; ok {
		return e.Facing
	}
	return 0
}

func (w *World) SetFacing(id value.ObjectID, facing float32) {
	e, ok := w.entities[id]
	if !ok {
		return
	}
	// Normalize into [0, 2pi) so scripts can spin forever.
	f := math.Mod(float64(facing), 2*math.Pi)
	if f < 0 {
		f += 2 * math.Pi
	}
	e.Facing = float32(f)
}

func (w *World) Elapsed() float32 { return w.elapsed }

func (w *World) ApplyEffect(target value.ObjectID, e value.Effect, durationType int32, duration float32) {
	if _, ok := w.entities[target]; !ok {
		return
	}
	ttl := float32(0.5)
	if duration > 0 {
		ttl = duration
	}
	w.flashes[target] = ttl
	w.log.Debug().Stringer("target", target).Int32("type", e.Type).
		Int32("magnitude", e.Magnitude).Float32("seconds", ttl).Msg("effect applied")
}

func (w *World) Print(text string) {
	w.printed = append(w.printed, text)
	if len(w.printed) > transcriptLines {
		w.printed = w.printed[len(w.printed)-transcriptLines:]
	}
	w.log.Info().Str("script", text).Msg("print")
}

func (w *World) AddPartyMember(npc int32, creature value.ObjectID) bool {
	if _, ok := w.entities[creature]; !ok {
		return false
	}
	w.party[npc] = creature
	return true
}

func (w *World) RemovePartyMember(npc int32) bool {
	if _, ok := w.party[npc]; !ok {
		return false
	}
	delete(w.party, npc)
	return true
}

func (w *World) IsPartyMember(id value.ObjectID) bool {
	for _, member := range w.party {
		if member == id {
			return true
		}
	}
	return false
}

func (w *World) PartyMemberByIndex(index int32) value.ObjectID {
	if index < 0 {
		return value.ObjectInvalid
	}
	// Roster order is NPC slot order, lowest first.
	seen := int32(0)
	for npc := int32(0); npc < 16; npc++ {
		member, ok := w.party[npc]
		if !ok {
			continue
		}
		if seen == index {
			return member
		}
		seen++
	}
	return value.ObjectInvalid
}
