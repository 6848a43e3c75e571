// Package vars holds script-visible variables. Globals live in one
// namespace shared by every script; locals hang off an entity and die
// with it. Each primitive type gets its own namespace, so an int "x"
// and a float "x" never collide.
package vars

import "aurora/internal/value"

type frame struct {
	ints      map[string]int32
	floats    map[string]float32
	strings   map[string]string
	objects   map[string]value.ObjectID
	locations map[string]value.Location
}

func (f *frame) setInt(name string, v int32) {
	if f.ints == nil {
		f.ints = map[string]int32{}
	}
	f.ints[name] = v
}

func (f *frame) setFloat(name string, v float32) {
	if f.floats == nil {
		f.floats = map[string]float32{}
	}
	f.floats[name] = v
}

func (f *frame) setString(name string, v string) {
	if f.strings == nil {
		f.strings = map[string]string{}
	}
	f.strings[name] = v
}

func (f *frame) setObject(name string, v value.ObjectID) {
	if f.objects == nil {
		f.objects = map[string]value.ObjectID{}
	}
	f.objects[name] = v
}

func (f *frame) setLocation(name string, v value.Location) {
	if f.locations == nil {
		f.locations = map[string]value.Location{}
	}
	f.locations[name] = v
}

// Store keeps the global frame plus one frame per entity. Reads of
// names never written return the type's zero: 0, 0.0, "", the invalid
// object, or an invalid location.
type Store struct {
	global frame
	locals map[value.ObjectID]*frame
}

func NewStore() *Store {
	return &Store{locals: map[value.ObjectID]*frame{}}
}

func (s *Store) local(id value.ObjectID) *frame {
	f, ok := s.locals[id]
	if !ok {
		f = &frame{}
		s.locals[id] = f
	}
	return f
}

func (s *Store) GlobalInt(name string) int32     { return s.global.ints[name] }
func (s *Store) GlobalFloat(name string) float32 { return s.global.floats[name] }
func (s *Store) GlobalString(name string) string { return s.global.strings[name] }
func (s *Store) GlobalLocation(name string) value.Location {
	return s.global.locations[name]
}

func (s *Store) GlobalObject(name string) value.ObjectID {
	if v, ok := s.global.objects[name]; ok {
		return v
	}
	return value.ObjectInvalid
}

func (s *Store) SetGlobalInt(name string, v int32)     { s.global.setInt(name, v) }
func (s *Store) SetGlobalFloat(name string, v float32) { s.global.setFloat(name, v) }
func (s *Store) SetGlobalString(name string, v string) { s.global.setString(name, v) }
func (s *Store) SetGlobalObject(name string, v value.ObjectID) {
	s.global.setObject(name, v)
}
func (s *Store) SetGlobalLocation(name string, v value.Location) {
	s.global.setLocation(name, v)
}

func (s *Store) LocalInt(id value.ObjectID, name string) int32 {
	if f, ok := s.locals[id]; ok {
		return f.ints[name]
	}
	return 0
}

func (s *Store) LocalFloat(id value.ObjectID, name string) float32 {
	if f, ok := s.locals[id]; ok {
		return f.floats[name]
	}
	return 0
}

func (s *Store) LocalString(id value.ObjectID, name string) string {
	if f, ok := s.locals[id]; ok {
		return f.strings[name]
	}
	return ""
}

func (s *Store) LocalObject(id value.ObjectID, name string) value.ObjectID {
	if f, ok := s.locals[id]; ok {
		if v, ok := f.objects[name]; ok {
			return v
		}
	}
	return value.ObjectInvalid
}

func (s *Store) LocalLocation(id value.ObjectID, name string) value.Location {
	if f, ok := s.locals[id]; ok {
		return f.locations[name]
	}
	return value.Location{}
}

func (s *Store) SetLocalInt(id value.ObjectID, name string, v int32) {
	s.local(id).setInt(name, v)
}

func (s *Store) SetLocalFloat(id value.ObjectID, name string, v float32) {
	s.local(id).setFloat(name, v)
}

func (s *Store) SetLocalString(id value.ObjectID, name string, v string) {
	s.local(id).setString(name, v)
}

func (s *Store) SetLocalObject(id value.ObjectID, name string, v value.ObjectID) {
	s.local(id).setObject(name, v)
}

func (s *Store) SetLocalLocation(id value.ObjectID, name string, v value.Location) {
	s.local(id).setLocation(name, v)
}

// ClearEntity drops every local bound to id. Called when an entity is
// destroyed so stale reads come back as zeroes.
func (s *Store) ClearEntity(id value.ObjectID) {
	delete(s.locals, id)
}

// Reset wipes globals and all locals, as on module transition.
func (s *Store) Reset() {
	s.global = frame{}
	s.locals = map[value.ObjectID]*frame{}
}
