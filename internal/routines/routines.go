// Package routines is the engine-routine dispatcher: the table of
// engine calls a script can make, keyed by the routine IDs compiled
// into bytecode. The shared base table covers both supported games and
// each game layers its extras on top, so the shared ID range means the
// same thing everywhere and compiled scripts move between variants.
//
// Routine implementations never take the interpreter down. A failing
// implementation is logged and its call resolves to the return kind's
// default; a declared routine with no implementation resolves to the
// same and shows up in Coverage.
package routines

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"aurora/internal/value"
)

// Game selects a routine-table variant.
type Game uint8

const (
	GameK1 Game = iota + 1
	GameK2
)

func (g Game) String() string {
	switch g {
	case GameK1:
		return "k1"
	case GameK2:
		return "k2"
	default:
		return fmt.Sprintf("game(%d)", uint8(g))
	}
}

// Impl executes one engine routine against the current context. The
// argument slice is fully materialized: the compiler fills defaulted
// trailing parameters, so len(args) always equals the declared count.
type Impl func(ctx Context, args []value.Value) (value.Value, error)

// Param is one declared routine parameter. Default is non-nil for
// trailing parameters a call site may omit.
type Param struct {
	Name    string
	Kind    value.Kind
	Default *value.Value
}

// Signature declares one routine. A nil Impl marks a routine that is
// part of the family's table but not implemented here; calling it
// resolves to Void and counts as a miss.
type Signature struct {
	ID     int32
	Name   string
	Ret    value.Kind
	Params []Param
	Impl   Impl

	kinds []value.Kind
}

// ParamKinds reports the declared parameter kinds in order.
func (s *Signature) ParamKinds() []value.Kind { return s.kinds }

// String renders the script-level prototype, defaults included.
func (s *Signature) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s(", s.Ret, s.Name)
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", p.Kind, p.Name)
		if p.Default != nil {
			fmt.Fprintf(&b, "=%s", defaultLiteral(*p.Default))
		}
	}
	b.WriteString(")")
	return b.String()
}

func defaultLiteral(v value.Value) string {
	switch v.Kind() {
	case value.KindFloat:
		s := v.String()
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	case value.KindObject:
		if v.Object() == value.ObjectInvalid {
			return "OBJECT_INVALID"
		}
		return "OBJECT_SELF"
	default:
		return v.String()
	}
}

// Coverage summarizes the table's implementation state and how calls
// have landed so far.
type Coverage struct {
	Declared    int
	Implemented int
	Hits        int64
	Misses      int64
	// MissingCalled lists, sorted, the declared-but-unimplemented IDs
	// that scripts actually reached.
	MissingCalled []int32
}

// Table is the dense ID-indexed routine table for one game variant.
type Table struct {
	game   Game
	byID   []*Signature
	byName map[string]int32
	log    zerolog.Logger

	mu     sync.Mutex
	hits   int64
	misses map[int32]int64
}

func newTable(game Game) *Table {
	return &Table{
		game:   game,
		byName: make(map[string]int32),
		log:    zerolog.Nop(),
		misses: make(map[int32]int64),
	}
}

// SetLogger routes absorbed failures and miss warnings. The default
// logger discards everything.
func (t *Table) SetLogger(l zerolog.Logger) { t.log = l }

func (t *Table) Game() Game { return t.game }

// register installs a signature, growing the dense slice as needed.
// Re-registering an ID replaces it, which is how a variant overrides a
// base routine.
func (t *Table) register(sig Signature) {
	if sig.ID < 0 {
		panic(fmt.Sprintf("routine %q has negative id %d", sig.Name, sig.ID))
	}
	kinds := make([]value.Kind, len(sig.Params))
	sawDefault := false
	for i, p := range sig.Params {
		kinds[i] = p.Kind
		if p.Default != nil {
			sawDefault = true
		} else if sawDefault {
			panic(fmt.Sprintf("routine %q: required parameter %q follows a defaulted one", sig.Name, p.Name))
		}
	}
	sig.kinds = kinds

	for int(sig.ID) >= len(t.byID) {
		t.byID = append(t.byID, nil)
	}
	if old := t.byID[sig.ID]; old != nil {
		delete(t.byName, old.Name)
	}
	s := sig
	t.byID[sig.ID] = &s
	t.byName[sig.Name] = sig.ID
}

// ByID returns the declared signature, or nil for IDs outside the table.
func (t *Table) ByID(id int32) *Signature {
	if id < 0 || int(id) >= len(t.byID) {
		return nil
	}
	return t.byID[id]
}

// LookupName resolves a routine name to its ID.
func (t *Table) LookupName(name string) (int32, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// Signatures returns every declared routine in ID order.
func (t *Table) Signatures() []*Signature {
	out := make([]*Signature, 0, len(t.byName))
	for _, sig := range t.byID {
		if sig != nil {
			out = append(out, sig)
		}
	}
	return out
}

// Call dispatches a routine. Unknown IDs are the one hard error, which
// the interpreter turns into a fault; everything else resolves to a
// value. Implementation failures and unimplemented routines are logged
// and absorbed into the return kind's default.
func (t *Table) Call(ctx Context, id int32, args []value.Value) (value.Value, error) {
	sig := t.ByID(id)
	if sig == nil {
		return value.Void, fmt.Errorf("unknown routine %d", id)
	}

	if sig.Impl == nil {
		t.recordMiss(sig)
		return value.Void, nil
	}
	t.recordHit()

	res, err := sig.Impl(ctx, args)
	if err != nil {
		t.log.Warn().
			Int32("routine", id).
			Str("name", sig.Name).
			Err(err).
			Msg("engine routine failed")
		return value.Default(sig.Ret), nil
	}
	if res.Kind() != sig.Ret {
		t.log.Warn().
			Int32("routine", id).
			Str("name", sig.Name).
			Str("kind", res.Kind().String()).
			Str("want", sig.Ret.String()).
			Msg("engine routine returned the wrong kind")
		return value.Default(sig.Ret), nil
	}
	return res, nil
}

func (t *Table) recordHit() {
	t.mu.Lock()
	t.hits++
	t.mu.Unlock()
}

func (t *Table) recordMiss(sig *Signature) {
	t.mu.Lock()
	first := t.misses[sig.ID] == 0
	t.misses[sig.ID]++
	t.mu.Unlock()
	if first {
		t.log.Warn().
			Int32("routine", sig.ID).
			Str("name", sig.Name).
			Msg("declared routine has no implementation")
	}
}

// Coverage snapshots the counters.
func (t *Table) Coverage() Coverage {
	cov := Coverage{}
	for _, sig := range t.byID {
		if sig == nil {
			continue
		}
		cov.Declared++
		if sig.Impl != nil {
			cov.Implemented++
		}
	}
	t.mu.Lock()
	cov.Hits = t.hits
	for id, n := range t.misses {
		cov.Misses += n
		cov.MissingCalled = append(cov.MissingCalled, id)
	}
	t.mu.Unlock()
	sort.Slice(cov.MissingCalled, func(i, j int) bool { return cov.MissingCalled[i] < cov.MissingCalled[j] })
	return cov
}

// Bind couples the table to one execution context, producing the
// dispatcher one interpreter call consumes.
func (t *Table) Bind(ctx Context) *Bound {
	return &Bound{table: t, ctx: ctx}
}

// Bound is a table plus the context its calls run against.
type Bound struct {
	table *Table
	ctx   Context
}

func (b *Bound) ParamKinds(id int32) ([]value.Kind, bool) {
	sig := b.table.ByID(id)
	if sig == nil {
		return nil, false
	}
	return sig.kinds, true
}

func (b *Bound) Call(id int32, args []value.Value) (value.Value, error) {
	return b.table.Call(b.ctx, id, args)
}

// Base builds the shared table both games start from.
func Base() *Table {
	t := newTable(0)
	registerBase(t)
	return t
}

// ForGame builds a variant table: the shared base plus the variant's
// extras and overrides.
func ForGame(g Game) *Table {
	t := Base()
	t.game = g
	switch g {
	case GameK1:
		registerK1(t)
	case GameK2:
		registerK2(t)
	}
	return t
}
