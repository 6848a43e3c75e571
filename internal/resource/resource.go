// Package resource locates named script resources for the toolchain.
// A resref is a short case-insensitive name without extension; the
// provider pairs it with a type to produce bytes. Where those bytes
// come from (a directory, an archive, a test map) is the provider's
// business.
package resource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Ref is a resource reference, lowercase by construction.
type Ref string

// NewRef normalizes a name into a Ref: lowercased, extension dropped.
func NewRef(name string) Ref {
	name = strings.TrimSpace(name)
	if ext := filepath.Ext(name); ext == ".nss" || ext == ".ncs" {
		name = name[:len(name)-len(ext)]
	}
	return Ref(strings.ToLower(name))
}

func (r Ref) String() string { return string(r) }

// Type says which face of a script a request wants.
type Type uint8

const (
	TypeNSS Type = iota + 1 // source
	TypeNCS                 // compiled bytecode
)

func (t Type) Ext() string {
	if t == TypeNCS {
		return ".ncs"
	}
	return ".nss"
}

func (t Type) String() string {
	switch t {
	case TypeNSS:
		return "nss"
	case TypeNCS:
		return "ncs"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// NotFound reports that no provider location carries the resource.
// Callers treat it as a load failure, never a fault.
type NotFound struct {
	Ref  Ref
	Type Type
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("resource %s%s not found", e.Ref, e.Type.Ext())
}

// Provider hands out raw resource bytes. Implementations return
// *NotFound when the name does not resolve; any other error means the
// resource exists but could not be read.
type Provider interface {
	Open(ref Ref, typ Type) ([]byte, error)
}

// Dir serves resources from a list of directories searched in order;
// the first file that exists wins.
type Dir struct {
	paths []string
}

func NewDir(paths ...string) *Dir {
	d := &Dir{}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		d.paths = append(d.paths, p)
	}
	return d
}

// Paths reports the search list in order.
func (d *Dir) Paths() []string { return append([]string(nil), d.paths...) }

func (d *Dir) Open(ref Ref, typ Type) ([]byte, error) {
	name := string(ref) + typ.Ext()
	for _, root := range d.paths {
		p := filepath.Join(root, name)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("resource %s: %w", name, err)
		}
	}
	return nil, &NotFound{Ref: ref, Type: typ}
}

// Map is an in-memory provider keyed by ref and type. Tests and the
// conformance harness feed scripts through it without touching disk.
type Map struct {
	entries map[Type]map[Ref][]byte
}

func NewMap() *Map {
	return &Map{entries: make(map[Type]map[Ref][]byte)}
}

// Put stores data under a name; the name is normalized like NewRef.
func (m *Map) Put(name string, typ Type, data []byte) {
	byRef, ok := m.entries[typ]
	if !ok {
		byRef = make(map[Ref][]byte)
		m.entries[typ] = byRef
	}
	byRef[NewRef(name)] = data
}

// PutSource stores NSS source text.
func (m *Map) PutSource(name, src string) { m.Put(name, TypeNSS, []byte(src)) }

func (m *Map) Open(ref Ref, typ Type) ([]byte, error) {
	if data, ok := m.entries[typ][ref]; ok {
		return data, nil
	}
	return nil, &NotFound{Ref: ref, Type: typ}
}

// Source adapts a provider into a script-source resolver, the shape
// include resolution wants.
type Source struct{ p Provider }

func SourceOf(p Provider) Source { return Source{p} }

func (s Source) LoadSource(name string) (string, error) {
	data, err := s.p.Open(NewRef(name), TypeNSS)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
