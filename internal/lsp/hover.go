package lsp

import (
	"fmt"
	"strings"

	"aurora/internal/routines"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// HoverAt describes the identifier under the cursor: a declaration
// from this document, an engine routine, or a named constant.
func HoverAt(table *routines.Table, an *Analysis, text string, pos protocol.Position) (*protocol.Hover, error) {
	posByte, ok := positionToByte(text, pos)
	if !ok {
		return nil, nil
	}
	name := identAt(text, posByte)
	if name == "" {
		return nil, nil
	}

	var kindLabel string
	var signature string
	var doc string

	if an != nil {
		if fn := an.FuncByName(name); fn != nil {
			kindLabel = "function"
			signature = funcLabel(fn)
		}
		if kindLabel == "" {
			for _, cd := range an.Consts {
				if cd.Name != nil && cd.Name.Value == name {
					kindLabel = "constant"
					signature = cd.String()
					break
				}
			}
		}
		if kindLabel == "" {
			for _, g := range an.Globals {
				if g.Name != nil && g.Name.Value == name {
					kindLabel = "global"
					signature = g.String()
					break
				}
			}
		}
	}

	if kindLabel == "" && table != nil {
		if id, ok := table.LookupName(name); ok {
			sig := table.ByID(id)
			kindLabel = fmt.Sprintf("routine %d", id)
			signature = sig.String()
			if sig.Impl == nil {
				doc = "Declared but not implemented by this runtime; calls yield the return type's default."
			}
		} else if v, ok := routines.Constants(table.Game())[name]; ok {
			kindLabel = "constant"
			signature = fmt.Sprintf("int %s = %d", name, v)
		} else if name == "OBJECT_SELF" {
			kindLabel = "constant"
			signature = "object OBJECT_SELF"
			doc = "The object whose event handler is running."
		} else if name == "OBJECT_INVALID" {
			kindLabel = "constant"
			signature = "object OBJECT_INVALID"
		}
	}

	if kindLabel == "" {
		return nil, nil
	}

	lines := []string{fmt.Sprintf("%s: %s", kindLabel, name)}
	if signature != "" {
		lines = append(lines, signature)
	}
	if doc != "" {
		lines = append(lines, "", doc)
	}

	contents := protocol.MarkupContent{Kind: "markdown", Value: strings.Join(lines, "\n")}
	return &protocol.Hover{Contents: contents}, nil
}
