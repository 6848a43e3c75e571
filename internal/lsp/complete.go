package lsp

import (
	"fmt"
	"sort"

	"aurora/internal/routines"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

type completionCandidate struct {
	name   string
	detail string
	kind   protocol.CompletionItemKind
	weight int
}

// CompletionItems offers the document's own declarations first, then
// engine routines, named constants, and keywords.
func CompletionItems(table *routines.Table, an *Analysis) []protocol.CompletionItem {
	items := []completionCandidate{}
	seen := map[string]bool{}

	add := func(name, detail string, kind protocol.CompletionItemKind, weight int) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		items = append(items, completionCandidate{name: name, detail: detail, kind: kind, weight: weight})
	}

	if an != nil {
		for _, fn := range an.Funcs {
			if fn.Name == nil {
				continue
			}
			add(fn.Name.Value, funcLabel(fn), protocol.CompletionItemKindFunction, 0)
		}
		for _, cd := range an.Consts {
			if cd.Name == nil {
				continue
			}
			add(cd.Name.Value, cd.String(), protocol.CompletionItemKindConstant, 0)
		}
		for _, g := range an.Globals {
			if g.Name == nil {
				continue
			}
			add(g.Name.Value, g.String(), protocol.CompletionItemKindVariable, 0)
		}
	}

	if table != nil {
		for _, sig := range table.Signatures() {
			add(sig.Name, sig.String(), protocol.CompletionItemKindFunction, 1)
		}
		consts := routines.Constants(table.Game())
		names := make([]string, 0, len(consts))
		for name := range consts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			add(name, fmt.Sprintf("int %s = %d", name, consts[name]), protocol.CompletionItemKindConstant, 2)
		}
		add("OBJECT_SELF", "object OBJECT_SELF", protocol.CompletionItemKindConstant, 2)
		add("OBJECT_INVALID", "object OBJECT_INVALID", protocol.CompletionItemKindConstant, 2)
	}

	for _, kw := range keywordNames() {
		add(kw, "", protocol.CompletionItemKindKeyword, 3)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].weight != items[j].weight {
			return items[i].weight < items[j].weight
		}
		return items[i].name < items[j].name
	})

	out := make([]protocol.CompletionItem, 0, len(items))
	for _, it := range items {
		kind := it.kind
		item := protocol.CompletionItem{Label: it.name, Kind: &kind}
		if it.detail != "" {
			item.Detail = ptrString(it.detail)
		}
		out = append(out, item)
	}
	return out
}

func keywordNames() []string {
	return []string{
		"if", "else", "while", "do", "for", "switch", "case", "default",
		"break", "continue", "return", "const",
		"void", "int", "float", "string", "object", "vector", "location",
		"effect", "event", "talent", "action", "struct",
	}
}
