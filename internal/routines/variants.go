package routines

import (
	"fmt"

	"aurora/internal/value"
)

// Stealth XP state lives in named globals so saves carry it for free.
const (
	stealthXPEnabledVar   = "STEALTH_XP_ENABLED"
	stealthXPDecrementVar = "STEALTH_XP_DECREMENT"
)

func party(ctx Context, name string) (Party, error) {
	pt, ok := ctx.World().(Party)
	if !ok {
		return nil, fmt.Errorf("%s: host world has no party roster", name)
	}
	return pt, nil
}

func registerK1(t *Table) {
	t.register(Signature{ID: 700, Name: "AddPartyMember", Ret: value.KindInt,
		Params: []Param{
			p("nNPC", value.KindInt),
			p("oCreature", value.KindObject),
		},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			pt, err := party(ctx, "AddPartyMember")
			if err != nil {
				return value.Void, err
			}
			return value.Bool(pt.AddPartyMember(args[0].Int(), args[1].Object())), nil
		}})

	t.register(Signature{ID: 701, Name: "RemovePartyMember", Ret: value.KindInt,
		Params: []Param{p("nNPC", value.KindInt)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			pt, err := party(ctx, "RemovePartyMember")
			if err != nil {
				return value.Void, err
			}
			return value.Bool(pt.RemovePartyMember(args[0].Int())), nil
		}})

	t.register(Signature{ID: 702, Name: "IsObjectPartyMember", Ret: value.KindInt,
		Params: []Param{p("oCreature", value.KindObject)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			pt, err := party(ctx, "IsObjectPartyMember")
			if err != nil {
				return value.Void, err
			}
			return value.Bool(pt.IsPartyMember(args[0].Object())), nil
		}})

	t.register(Signature{ID: 703, Name: "GetPartyMemberByIndex", Ret: value.KindObject,
		Params: []Param{p("nIndex", value.KindInt)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			pt, err := party(ctx, "GetPartyMemberByIndex")
			if err != nil {
				return value.Void, err
			}
			return value.Obj(pt.PartyMemberByIndex(args[0].Int())), nil
		}})
}

func registerK2(t *Table) {
	registerK1(t)

	t.register(Signature{ID: 800, Name: "GetStealthXPEnabled", Ret: value.KindInt,
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Int(ctx.Vars().GlobalInt(stealthXPEnabledVar)), nil
		}})

	t.register(Signature{ID: 801, Name: "SetStealthXPEnabled", Ret: value.KindVoid,
		Params: []Param{p("bEnabled", value.KindInt)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			ctx.Vars().SetGlobalInt(stealthXPEnabledVar, args[0].Int())
			return value.Void, nil
		}})

	t.register(Signature{ID: 802, Name: "GetStealthXPDecrement", Ret: value.KindInt,
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Int(ctx.Vars().GlobalInt(stealthXPDecrementVar)), nil
		}})

	t.register(Signature{ID: 803, Name: "SetStealthXPDecrement", Ret: value.KindVoid,
		Params: []Param{p("nDecrement", value.KindInt)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			ctx.Vars().SetGlobalInt(stealthXPDecrementVar, args[0].Int())
			return value.Void, nil
		}})

	// Minigame hooks ship declared but unimplemented. Calls land in the
	// coverage counters and return a default instead of faulting.
	t.register(Signature{ID: 810, Name: "SWMG_GetPlayerSpeed", Ret: value.KindFloat})
	t.register(Signature{ID: 811, Name: "SWMG_GetPlayerMinSpeed", Ret: value.KindFloat})
	t.register(Signature{ID: 812, Name: "SWMG_AdjustFollowerHitPoints", Ret: value.KindInt,
		Params: []Param{
			p("oFollower", value.KindObject),
			p("nHP", value.KindInt),
		}})
}

// Constants returns the named integer constants scripts may use for the
// given game. The compiler folds them at compile time.
func Constants(g Game) map[string]int32 {
	c := map[string]int32{
		"TRUE":  1,
		"FALSE": 0,

		"DURATION_TYPE_INSTANT":   0,
		"DURATION_TYPE_TEMPORARY": 1,
		"DURATION_TYPE_PERMANENT": 2,

		"TALENT_TYPE_SPELL": talentTypeSpell,
		"TALENT_TYPE_FEAT":  talentTypeFeat,

		"EVENT_HEARTBEAT":        EventHeartbeat,
		"EVENT_PERCEPTION":       EventPerception,
		"EVENT_ATTACKED":         EventAttacked,
		"EVENT_DAMAGED":          EventDamaged,
		"EVENT_DISTURBED":        EventDisturbed,
		"EVENT_END_COMBAT_ROUND": EventEndRound,
		"EVENT_DIALOGUE":         EventDialogue,
		"EVENT_SPAWN":            EventSpawn,
		"EVENT_DEATH":            EventDeath,
		"EVENT_ON_BLOCKED":       EventBlocked,
		"EVENT_ENTER":            EventEnter,
		"EVENT_EXIT":             EventExit,
		"EVENT_USER_DEFINED":     EventUserDefined,
	}

	switch g {
	case GameK1:
		for i, n := range []string{
			"NPC_BASTILA", "NPC_CANDEROUS", "NPC_CARTH", "NPC_HK_47",
			"NPC_JOLEE", "NPC_JUHANI", "NPC_MISSION", "NPC_T3_M4",
			"NPC_ZAALBAR",
		} {
			c[n] = int32(i)
		}
	case GameK2:
		for i, n := range []string{
			"NPC_ATTON", "NPC_BAO_DUR", "NPC_CANDEROUS", "NPC_G0T0",
			"NPC_HANDMAIDEN", "NPC_HK_47", "NPC_KREIA", "NPC_MIRA",
			"NPC_T3_M4", "NPC_VISAS", "NPC_HANHARR", "NPC_DISCIPLE",
		} {
			c[n] = int32(i)
		}
	}
	return c
}
