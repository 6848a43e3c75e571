package routines

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"aurora/internal/value"
)

// Condensed family table: 0..10 are the real head of the table, the
// rest groups the shipped surface into stable ranges (strings 11..20,
// math 21..26, local vars 27..36, vectors 37..38 and 61..66, global
// vars 39..48, world queries 49..60, events and actions 67..74,
// effects and talents 75..80, time 81). Variant extras start at 700.
const (
	talentTypeSpell int32 = 1
	talentTypeFeat  int32 = 2

	effectTypeHeal   int32 = 1
	effectTypeDamage int32 = 2
)

func p(name string, k value.Kind) Param { return Param{Name: name, Kind: k} }

func pd(name string, k value.Kind, def value.Value) Param {
	return Param{Name: name, Kind: k, Default: &def}
}

func formatFloat(f float32, width, decimals int32) string {
	return fmt.Sprintf("%*.*f", int(width), int(decimals), f)
}

func registerBase(t *Table) {
	t.register(Signature{ID: 0, Name: "Random", Ret: value.KindInt,
		Params: []Param{p("nMaxInteger", value.KindInt)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			n := args[0].Int()
			if n <= 0 {
				return value.Int(0), nil
			}
			return value.Int(rand.Int32N(n)), nil
		}})

	t.register(Signature{ID: 1, Name: "PrintString", Ret: value.KindVoid,
		Params: []Param{p("sString", value.KindString)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			ctx.World().Print(args[0].Str())
			return value.Void, nil
		}})

	t.register(Signature{ID: 2, Name: "PrintFloat", Ret: value.KindVoid,
		Params: []Param{
			p("fFloat", value.KindFloat),
			pd("nWidth", value.KindInt, value.Int(18)),
			pd("nDecimals", value.KindInt, value.Int(9)),
		},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			ctx.World().Print(formatFloat(args[0].Float(), args[1].Int(), args[2].Int()))
			return value.Void, nil
		}})

	t.register(Signature{ID: 3, Name: "FloatToString", Ret: value.KindString,
		Params: []Param{
			p("fFloat", value.KindFloat),
			pd("nWidth", value.KindInt, value.Int(18)),
			pd("nDecimals", value.KindInt, value.Int(9)),
		},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Str(formatFloat(args[0].Float(), args[1].Int(), args[2].Int())), nil
		}})

	t.register(Signature{ID: 4, Name: "PrintInteger", Ret: value.KindVoid,
		Params: []Param{p("nInteger", value.KindInt)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			ctx.World().Print(strconv.FormatInt(int64(args[0].Int()), 10))
			return value.Void, nil
		}})

	t.register(Signature{ID: 5, Name: "PrintObject", Ret: value.KindVoid,
		Params: []Param{p("oObject", value.KindObject)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			ctx.World().Print(args[0].Object().String())
			return value.Void, nil
		}})

	t.register(Signature{ID: 6, Name: "AssignCommand", Ret: value.KindVoid,
		Params: []Param{
			p("oActionSubject", value.KindObject),
			p("aActionToAssign", value.KindAction),
		},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			act, ok := args[1].Action()
			if !ok {
				return value.Void, fmt.Errorf("AssignCommand without a captured action")
			}
			return value.Void, ctx.ScheduleAction(args[0].Object(), 0, act)
		}})

	t.register(Signature{ID: 7, Name: "DelayCommand", Ret: value.KindVoid,
		Params: []Param{
			p("fSeconds", value.KindFloat),
			p("aActionToDelay", value.KindAction),
		},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			act, ok := args[1].Action()
			if !ok {
				return value.Void, fmt.Errorf("DelayCommand without a captured action")
			}
			delay := args[0].Float()
			if delay < 0 {
				delay = 0
			}
			return value.Void, ctx.ScheduleAction(ctx.Caller(), delay, act)
		}})

	t.register(Signature{ID: 8, Name: "ExecuteScript", Ret: value.KindVoid,
		Params: []Param{
			p("sScript", value.KindString),
			p("oTarget", value.KindObject),
			pd("nScriptVar", value.KindInt, value.Int(-1)),
		},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Void, ctx.RunScript(args[0].Str(), args[1].Object(), args[2].Int())
		}})

	t.register(Signature{ID: 9, Name: "ClearAllActions", Ret: value.KindVoid,
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			ctx.ClearActions(ctx.Caller())
			return value.Void, nil
		}})

	t.register(Signature{ID: 10, Name: "SetFacing", Ret: value.KindVoid,
		Params: []Param{p("fDirection", value.KindFloat)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			ctx.World().SetFacing(ctx.Caller(), args[0].Float())
			return value.Void, nil
		}})

	registerStrings(t)
	registerMath(t)
	registerLocals(t)
	registerVectors(t)
	registerGlobals(t)
	registerWorld(t)
	registerEvents(t)
	registerEffects(t)

	t.register(Signature{ID: 81, Name: "GetElapsedSeconds", Ret: value.KindFloat,
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Float(ctx.World().Elapsed()), nil
		}})
}

func registerStrings(t *Table) {
	t.register(Signature{ID: 11, Name: "IntToString", Ret: value.KindString,
		Params: []Param{p("nInteger", value.KindInt)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Str(strconv.FormatInt(int64(args[0].Int()), 10)), nil
		}})

	t.register(Signature{ID: 12, Name: "StringToInt", Ret: value.KindInt,
		Params: []Param{p("sNumber", value.KindString)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			// Garbage parses to zero, like the engine it mimics.
			n, err := strconv.ParseInt(strings.TrimSpace(args[0].Str()), 10, 32)
			if err != nil {
				return value.Int(0), nil
			}
			return value.Int(int32(n)), nil
		}})

	t.register(Signature{ID: 13, Name: "IntToFloat", Ret: value.KindFloat,
		Params: []Param{p("nInteger", value.KindInt)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Float(float32(args[0].Int())), nil
		}})

	t.register(Signature{ID: 14, Name: "FloatToInt", Ret: value.KindInt,
		Params: []Param{p("fFloat", value.KindFloat)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Int(int32(args[0].Float())), nil
		}})

	t.register(Signature{ID: 15, Name: "StringToFloat", Ret: value.KindFloat,
		Params: []Param{p("sNumber", value.KindString)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			f, err := strconv.ParseFloat(strings.TrimSpace(args[0].Str()), 32)
			if err != nil {
				return value.Float(0), nil
			}
			return value.Float(float32(f)), nil
		}})

	t.register(Signature{ID: 16, Name: "GetStringLength", Ret: value.KindInt,
		Params: []Param{p("sString", value.KindString)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Int(int32(len(args[0].Str()))), nil
		}})

	t.register(Signature{ID: 17, Name: "GetStringUpperCase", Ret: value.KindString,
		Params: []Param{p("sString", value.KindString)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Str(strings.ToUpper(args[0].Str())), nil
		}})

	t.register(Signature{ID: 18, Name: "GetStringLowerCase", Ret: value.KindString,
		Params: []Param{p("sString", value.KindString)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Str(strings.ToLower(args[0].Str())), nil
		}})

	t.register(Signature{ID: 19, Name: "GetSubString", Ret: value.KindString,
		Params: []Param{
			p("sString", value.KindString),
			p("nStart", value.KindInt),
			p("nCount", value.KindInt),
		},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			s := args[0].Str()
			start, count := int(args[1].Int()), int(args[2].Int())
			if start < 0 || count <= 0 || start >= len(s) {
				return value.Str(""), nil
			}
			if start+count > len(s) {
				count = len(s) - start
			}
			return value.Str(s[start : start+count]), nil
		}})

	t.register(Signature{ID: 20, Name: "FindSubString", Ret: value.KindInt,
		Params: []Param{
			p("sString", value.KindString),
			p("sSubString", value.KindString),
		},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Int(int32(strings.Index(args[0].Str(), args[1].Str()))), nil
		}})
}

func registerMath(t *Table) {
	unary := func(id int32, name string, f func(float64) float64) {
		t.register(Signature{ID: id, Name: name, Ret: value.KindFloat,
			Params: []Param{p("fValue", value.KindFloat)},
			Impl: func(ctx Context, args []value.Value) (value.Value, error) {
				return value.Float(float32(f(float64(args[0].Float())))), nil
			}})
	}
	unary(21, "fabs", math.Abs)
	unary(22, "cos", math.Cos)
	unary(23, "sin", math.Sin)
	unary(24, "sqrt", math.Sqrt)

	t.register(Signature{ID: 25, Name: "pow", Ret: value.KindFloat,
		Params: []Param{
			p("fValue", value.KindFloat),
			p("fExponent", value.KindFloat),
		},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Float(float32(math.Pow(float64(args[0].Float()), float64(args[1].Float())))), nil
		}})

	t.register(Signature{ID: 26, Name: "abs", Ret: value.KindInt,
		Params: []Param{p("nValue", value.KindInt)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			n := args[0].Int()
			if n < 0 {
				n = -n
			}
			return value.Int(n), nil
		}})
}

func registerLocals(t *Table) {
	obj := func(name string) Param { return p(name, value.KindObject) }
	varName := p("sVarName", value.KindString)

	t.register(Signature{ID: 27, Name: "GetLocalInt", Ret: value.KindInt,
		Params: []Param{obj("oObject"), varName},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Int(ctx.Vars().LocalInt(args[0].Object(), args[1].Str())), nil
		}})
	t.register(Signature{ID: 28, Name: "SetLocalInt", Ret: value.KindVoid,
		Params: []Param{obj("oObject"), varName, p("nValue", value.KindInt)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			ctx.Vars().SetLocalInt(args[0].Object(), args[1].Str(), args[2].Int())
			return value.Void, nil
		}})

	t.register(Signature{ID: 29, Name: "GetLocalFloat", Ret: value.KindFloat,
		Params: []Param{obj("oObject"), varName},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Float(ctx.Vars().LocalFloat(args[0].Object(), args[1].Str())), nil
		}})
	t.register(Signature{ID: 30, Name: "SetLocalFloat", Ret: value.KindVoid,
		Params: []Param{obj("oObject"), varName, p("fValue", value.KindFloat)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			ctx.Vars().SetLocalFloat(args[0].Object(), args[1].Str(), args[2].Float())
			return value.Void, nil
		}})

	t.register(Signature{ID: 31, Name: "GetLocalString", Ret: value.KindString,
		Params: []Param{obj("oObject"), varName},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Str(ctx.Vars().LocalString(args[0].Object(), args[1].Str())), nil
		}})
	t.register(Signature{ID: 32, Name: "SetLocalString", Ret: value.KindVoid,
		Params: []Param{obj("oObject"), varName, p("sValue", value.KindString)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			ctx.Vars().SetLocalString(args[0].Object(), args[1].Str(), args[2].Str())
			return value.Void, nil
		}})

	t.register(Signature{ID: 33, Name: "GetLocalObject", Ret: value.KindObject,
		Params: []Param{obj("oObject"), varName},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Obj(ctx.Vars().LocalObject(args[0].Object(), args[1].Str())), nil
		}})
	t.register(Signature{ID: 34, Name: "SetLocalObject", Ret: value.KindVoid,
		Params: []Param{obj("oObject"), varName, p("oValue", value.KindObject)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			ctx.Vars().SetLocalObject(args[0].Object(), args[1].Str(), args[2].Object())
			return value.Void, nil
		}})

	t.register(Signature{ID: 35, Name: "GetLocalLocation", Ret: value.KindLocation,
		Params: []Param{obj("oObject"), varName},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Loc(ctx.Vars().LocalLocation(args[0].Object(), args[1].Str())), nil
		}})
	t.register(Signature{ID: 36, Name: "SetLocalLocation", Ret: value.KindVoid,
		Params: []Param{obj("oObject"), varName, p("lValue", value.KindLocation)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			l, _ := args[2].Location()
			ctx.Vars().SetLocalLocation(args[0].Object(), args[1].Str(), l)
			return value.Void, nil
		}})
}

func registerVectors(t *Table) {
	t.register(Signature{ID: 37, Name: "PrintVector", Ret: value.KindVoid,
		Params: []Param{
			p("vVector", value.KindVector),
			pd("bPrepend", value.KindInt, value.Int(0)),
		},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			out := args[0].String()
			if args[1].Truthy() {
				out = "PRINTVECTOR:" + out
			}
			ctx.World().Print(out)
			return value.Void, nil
		}})

	t.register(Signature{ID: 38, Name: "VectorNormalize", Ret: value.KindVector,
		Params: []Param{p("vVector", value.KindVector)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			v := args[0].Vector()
			mag := float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
			if mag == 0 {
				return value.Vec(0, 0, 0), nil
			}
			return value.Vec(v.X/mag, v.Y/mag, v.Z/mag), nil
		}})

	t.register(Signature{ID: 61, Name: "Vector", Ret: value.KindVector,
		Params: []Param{
			pd("x", value.KindFloat, value.Float(0)),
			pd("y", value.KindFloat, value.Float(0)),
			pd("z", value.KindFloat, value.Float(0)),
		},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Vec(args[0].Float(), args[1].Float(), args[2].Float()), nil
		}})

	t.register(Signature{ID: 62, Name: "AngleToVector", Ret: value.KindVector,
		Params: []Param{p("fAngle", value.KindFloat)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			rad := float64(args[0].Float()) * math.Pi / 180
			return value.Vec(float32(math.Cos(rad)), float32(math.Sin(rad)), 0), nil
		}})

	t.register(Signature{ID: 63, Name: "VectorToAngle", Ret: value.KindFloat,
		Params: []Param{p("vVector", value.KindVector)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			v := args[0].Vector()
			deg := math.Atan2(float64(v.Y), float64(v.X)) * 180 / math.Pi
			if deg < 0 {
				deg += 360
			}
			return value.Float(float32(deg)), nil
		}})

	t.register(Signature{ID: 64, Name: "VectorMagnitude", Ret: value.KindFloat,
		Params: []Param{p("vVector", value.KindVector)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			v := args[0].Vector()
			return value.Float(float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))), nil
		}})

	t.register(Signature{ID: 65, Name: "Location", Ret: value.KindLocation,
		Params: []Param{
			p("vPosition", value.KindVector),
			p("fOrientation", value.KindFloat),
		},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Loc(value.Location{
				Position: args[0].Vector(),
				Facing:   args[1].Float(),
				Valid:    true,
			}), nil
		}})

	t.register(Signature{ID: 66, Name: "GetLocation", Ret: value.KindLocation,
		Params: []Param{p("oObject", value.KindObject)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			w := ctx.World()
			id := args[0].Object()
			if !w.IsValid(id) {
				return value.Loc(value.Location{}), nil
			}
			return value.Loc(value.Location{
				Position: w.Position(id),
				Facing:   w.Facing(id),
				Valid:    true,
			}), nil
		}})
}

func registerGlobals(t *Table) {
	name := p("sName", value.KindString)

	t.register(Signature{ID: 39, Name: "GetGlobalInt", Ret: value.KindInt,
		Params: []Param{name},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Int(ctx.Vars().GlobalInt(args[0].Str())), nil
		}})
	t.register(Signature{ID: 40, Name: "SetGlobalInt", Ret: value.KindVoid,
		Params: []Param{name, p("nValue", value.KindInt)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			ctx.Vars().SetGlobalInt(args[0].Str(), args[1].Int())
			return value.Void, nil
		}})

	t.register(Signature{ID: 41, Name: "GetGlobalFloat", Ret: value.KindFloat,
		Params: []Param{name},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Float(ctx.Vars().GlobalFloat(args[0].Str())), nil
		}})
	t.register(Signature{ID: 42, Name: "SetGlobalFloat", Ret: value.KindVoid,
		Params: []Param{name, p("fValue", value.KindFloat)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			ctx.Vars().SetGlobalFloat(args[0].Str(), args[1].Float())
			return value.Void, nil
		}})

	t.register(Signature{ID: 43, Name: "GetGlobalString", Ret: value.KindString,
		Params: []Param{name},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Str(ctx.Vars().GlobalString(args[0].Str())), nil
		}})
	t.register(Signature{ID: 44, Name: "SetGlobalString", Ret: value.KindVoid,
		Params: []Param{name, p("sValue", value.KindString)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			ctx.Vars().SetGlobalString(args[0].Str(), args[1].Str())
			return value.Void, nil
		}})

	t.register(Signature{ID: 45, Name: "GetGlobalObject", Ret: value.KindObject,
		Params: []Param{name},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Obj(ctx.Vars().GlobalObject(args[0].Str())), nil
		}})
	t.register(Signature{ID: 46, Name: "SetGlobalObject", Ret: value.KindVoid,
		Params: []Param{name, p("oValue", value.KindObject)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			ctx.Vars().SetGlobalObject(args[0].Str(), args[1].Object())
			return value.Void, nil
		}})

	t.register(Signature{ID: 47, Name: "GetGlobalLocation", Ret: value.KindLocation,
		Params: []Param{name},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Loc(ctx.Vars().GlobalLocation(args[0].Str())), nil
		}})
	t.register(Signature{ID: 48, Name: "SetGlobalLocation", Ret: value.KindVoid,
		Params: []Param{name, p("lValue", value.KindLocation)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			l, _ := args[1].Location()
			ctx.Vars().SetGlobalLocation(args[0].Str(), l)
			return value.Void, nil
		}})
}

func registerWorld(t *Table) {
	t.register(Signature{ID: 49, Name: "GetIsObjectValid", Ret: value.KindInt,
		Params: []Param{p("oObject", value.KindObject)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Bool(ctx.World().IsValid(args[0].Object())), nil
		}})

	t.register(Signature{ID: 50, Name: "GetTag", Ret: value.KindString,
		Params: []Param{p("oObject", value.KindObject)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Str(ctx.World().Tag(args[0].Object())), nil
		}})

	t.register(Signature{ID: 51, Name: "GetName", Ret: value.KindString,
		Params: []Param{p("oObject", value.KindObject)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Str(ctx.World().Name(args[0].Object())), nil
		}})

	t.register(Signature{ID: 52, Name: "GetObjectByTag", Ret: value.KindObject,
		Params: []Param{
			p("sTag", value.KindString),
			pd("nNth", value.KindInt, value.Int(0)),
		},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Obj(ctx.World().FindByTag(args[0].Str(), args[1].Int())), nil
		}})

	t.register(Signature{ID: 53, Name: "GetPosition", Ret: value.KindVector,
		Params: []Param{p("oTarget", value.KindObject)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.VecOf(ctx.World().Position(args[0].Object())), nil
		}})

	t.register(Signature{ID: 54, Name: "GetFacing", Ret: value.KindFloat,
		Params: []Param{p("oTarget", value.KindObject)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Float(ctx.World().Facing(args[0].Object())), nil
		}})

	t.register(Signature{ID: 55, Name: "GetDistanceBetween", Ret: value.KindFloat,
		Params: []Param{
			p("oObjectA", value.KindObject),
			p("oObjectB", value.KindObject),
		},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			w := ctx.World()
			a, b := args[0].Object(), args[1].Object()
			if !w.IsValid(a) || !w.IsValid(b) {
				return value.Float(0), nil
			}
			return value.Float(distance(w.Position(a), w.Position(b))), nil
		}})

	t.register(Signature{ID: 56, Name: "GetDistanceToObject", Ret: value.KindFloat,
		Params: []Param{p("oObject", value.KindObject)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			w := ctx.World()
			o := args[0].Object()
			if !w.IsValid(ctx.Caller()) || !w.IsValid(o) {
				return value.Float(-1), nil
			}
			return value.Float(distance(w.Position(ctx.Caller()), w.Position(o))), nil
		}})

	t.register(Signature{ID: 57, Name: "GetEnteringObject", Ret: value.KindObject,
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Obj(ctx.Triggerer()), nil
		}})

	t.register(Signature{ID: 58, Name: "GetExitingObject", Ret: value.KindObject,
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Obj(ctx.Triggerer()), nil
		}})

	t.register(Signature{ID: 59, Name: "GetPositionFromLocation", Ret: value.KindVector,
		Params: []Param{p("lLocation", value.KindLocation)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			l, _ := args[0].Location()
			return value.VecOf(l.Position), nil
		}})

	t.register(Signature{ID: 60, Name: "GetFacingFromLocation", Ret: value.KindFloat,
		Params: []Param{p("lLocation", value.KindLocation)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			l, ok := args[0].Location()
			if !ok || !l.Valid {
				return value.Float(-1), nil
			}
			return value.Float(l.Facing), nil
		}})
}

func registerEvents(t *Table) {
	t.register(Signature{ID: 67, Name: "SignalEvent", Ret: value.KindVoid,
		Params: []Param{
			p("oObject", value.KindObject),
			p("evToRun", value.KindEvent),
		},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			ev, ok := args[1].Event()
			if !ok {
				return value.Void, fmt.Errorf("SignalEvent without an event value")
			}
			return value.Void, ctx.SignalEvent(args[0].Object(), ev)
		}})

	t.register(Signature{ID: 68, Name: "EventUserDefined", Ret: value.KindEvent,
		Params: []Param{p("nUserDefinedEventNumber", value.KindInt)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Evt(value.Event{Number: args[0].Int()}), nil
		}})

	t.register(Signature{ID: 69, Name: "GetUserDefinedEventNumber", Ret: value.KindInt,
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Int(ctx.UserDefinedEventNumber()), nil
		}})

	t.register(Signature{ID: 70, Name: "SetEventScript", Ret: value.KindInt,
		Params: []Param{
			p("oObject", value.KindObject),
			p("nEvent", value.KindInt),
			p("sScript", value.KindString),
		},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Bool(ctx.SetEventScript(args[0].Object(), args[1].Int(), args[2].Str())), nil
		}})

	t.register(Signature{ID: 71, Name: "GetEventScript", Ret: value.KindString,
		Params: []Param{
			p("oObject", value.KindObject),
			p("nEvent", value.KindInt),
		},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Str(ctx.EventScript(args[0].Object(), args[1].Int())), nil
		}})

	t.register(Signature{ID: 72, Name: "ActionDoCommand", Ret: value.KindVoid,
		Params: []Param{p("aActionToDo", value.KindAction)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			act, ok := args[0].Action()
			if !ok {
				return value.Void, fmt.Errorf("ActionDoCommand without a captured action")
			}
			return value.Void, ctx.ScheduleAction(ctx.Caller(), 0, act)
		}})

	t.register(Signature{ID: 73, Name: "d6", Ret: value.KindInt,
		Params: []Param{pd("nNumDice", value.KindInt, value.Int(1))},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			n := args[0].Int()
			if n < 1 {
				n = 1
			}
			total := int32(0)
			for i := int32(0); i < n; i++ {
				total += rand.Int32N(6) + 1
			}
			return value.Int(total), nil
		}})

	t.register(Signature{ID: 74, Name: "GetRunScriptVar", Ret: value.KindInt,
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Int(ctx.ScriptVar()), nil
		}})
}

func registerEffects(t *Table) {
	t.register(Signature{ID: 75, Name: "EffectHeal", Ret: value.KindEffect,
		Params: []Param{p("nDamageToHeal", value.KindInt)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Eff(value.Effect{Type: effectTypeHeal, Magnitude: args[0].Int()}), nil
		}})

	t.register(Signature{ID: 76, Name: "EffectDamage", Ret: value.KindEffect,
		Params: []Param{p("nDamageAmount", value.KindInt)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Eff(value.Effect{Type: effectTypeDamage, Magnitude: args[0].Int()}), nil
		}})

	t.register(Signature{ID: 77, Name: "ApplyEffectToObject", Ret: value.KindVoid,
		Params: []Param{
			p("nDurationType", value.KindInt),
			p("eEffect", value.KindEffect),
			p("oTarget", value.KindObject),
			pd("fDuration", value.KindFloat, value.Float(0)),
		},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			e, ok := args[1].Effect()
			if !ok {
				return value.Void, fmt.Errorf("ApplyEffectToObject without an effect value")
			}
			ctx.World().ApplyEffect(args[2].Object(), e, args[0].Int(), args[3].Float())
			return value.Void, nil
		}})

	t.register(Signature{ID: 78, Name: "TalentSpell", Ret: value.KindTalent,
		Params: []Param{p("nSpell", value.KindInt)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Tal(value.Talent{Category: talentTypeSpell, ID: args[0].Int()}), nil
		}})

	t.register(Signature{ID: 79, Name: "TalentFeat", Ret: value.KindTalent,
		Params: []Param{p("nFeat", value.KindInt)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			return value.Tal(value.Talent{Category: talentTypeFeat, ID: args[0].Int()}), nil
		}})

	t.register(Signature{ID: 80, Name: "GetIsTalentValid", Ret: value.KindInt,
		Params: []Param{p("tTalent", value.KindTalent)},
		Impl: func(ctx Context, args []value.Value) (value.Value, error) {
			tal, ok := args[0].Talent()
			return value.Bool(ok && tal.Category != 0), nil
		}})
}

func distance(a, b value.Vector) float32 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	dz := float64(a.Z - b.Z)
	return float32(math.Sqrt(dx*dx + dy*dy + dz*dz))
}
