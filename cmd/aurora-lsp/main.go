package main

import (
	"path/filepath"
	"strings"

	"aurora/internal/compiler"
	"aurora/internal/lsp"
	"aurora/internal/resource"
	"aurora/internal/routines"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

const (
	lsName  = "aurora-lsp"
	version = "0.1.0"
)

var (
	store   = lsp.NewStore()
	handler protocol.Handler
	game    = routines.GameK1
	table   *routines.Table
	rootDir string
)

func main() {
	commonlog.Configure(1, nil)

	handler = protocol.Handler{
		Initialize:                 initialize,
		Initialized:                initialized,
		TextDocumentDidOpen:        textDocumentDidOpen,
		TextDocumentDidChange:      textDocumentDidChange,
		TextDocumentDidSave:        textDocumentDidSave,
		TextDocumentDidClose:       textDocumentDidClose,
		TextDocumentCompletion:     textDocumentCompletion,
		TextDocumentHover:          textDocumentHover,
		TextDocumentSignatureHelp:  textDocumentSignatureHelp,
		TextDocumentDocumentSymbol: textDocumentDocumentSymbol,
		TextDocumentDefinition:     textDocumentDefinition,
	}

	srv := server.NewServer(&handler, lsName, false)
	srv.RunStdio()
}

func initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir = ""
	if params.RootURI != nil {
		rootDir = lsp.URIToPath(*params.RootURI)
	}
	if rootDir == "" && params.RootPath != nil {
		rootDir = *params.RootPath
	}

	game = gameOption(params.InitializationOptions)
	table = routines.ForGame(game)

	full := protocol.TextDocumentSyncKindFull
	caps := protocol.ServerCapabilities{
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: &protocol.True,
			Change:    &full,
			Save:      protocol.SaveOptions{IncludeText: &protocol.False},
		},
		CompletionProvider: &protocol.CompletionOptions{},
		HoverProvider:      true,
		SignatureHelpProvider: &protocol.SignatureHelpOptions{
			TriggerCharacters:   []string{"(", ","},
			RetriggerCharacters: []string{")"},
		},
		DocumentSymbolProvider: true,
		DefinitionProvider:     true,
	}

	return protocol.InitializeResult{
		Capabilities: caps,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: ptrString(version),
		},
	}, nil
}

func initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

// gameOption reads {"game": "k1"|"k2"} from the client's
// initializationOptions; the variant picks the routine table and
// constant set every feature answers from.
func gameOption(opts any) routines.Game {
	m, ok := opts.(map[string]any)
	if !ok {
		return routines.GameK1
	}
	s, _ := m["game"].(string)
	switch strings.ToLower(s) {
	case "k2", "tsl":
		return routines.GameK2
	default:
		return routines.GameK1
	}
}

func routineTable() *routines.Table {
	if table == nil {
		table = routines.ForGame(game)
	}
	return table
}

func textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	store.Set(uri, params.TextDocument.Text, int32(params.TextDocument.Version))
	return publishDiagnostics(ctx, uri, params.TextDocument.Text)
}

func textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	if len(params.ContentChanges) == 0 {
		return nil
	}

	text, ok := extractFullText(params.ContentChanges[len(params.ContentChanges)-1])
	if !ok {
		return nil
	}

	store.Set(uri, text, int32(params.TextDocument.Version))
	return publishDiagnostics(ctx, uri, text)
}

func textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	if doc, ok := store.Get(uri); ok {
		return publishDiagnostics(ctx, uri, doc.Text)
	}
	return nil
}

func textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	store.Delete(uri)
	return publishDiagnostics(ctx, uri, "")
}

func textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	uri := string(params.TextDocument.URI)
	doc, ok := store.Get(uri)
	if !ok {
		return nil, nil
	}
	items := lsp.CompletionItems(routineTable(), lsp.Analyze(doc.Text))
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

func textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := string(params.TextDocument.URI)
	doc, ok := store.Get(uri)
	if !ok {
		return nil, nil
	}
	return lsp.HoverAt(routineTable(), lsp.Analyze(doc.Text), doc.Text, params.Position)
}

func textDocumentSignatureHelp(ctx *glsp.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	uri := string(params.TextDocument.URI)
	doc, ok := store.Get(uri)
	if !ok {
		return nil, nil
	}
	return lsp.SignatureHelpAt(routineTable(), lsp.Analyze(doc.Text), doc.Text, params.Position)
}

func textDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	uri := string(params.TextDocument.URI)
	doc, ok := store.Get(uri)
	if !ok {
		return []protocol.DocumentSymbol{}, nil
	}
	return lsp.DocumentSymbols(lsp.Analyze(doc.Text), doc.Text), nil
}

func textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := string(params.TextDocument.URI)
	doc, ok := store.Get(uri)
	if !ok {
		return nil, nil
	}
	locs := lsp.DefinitionAt(lsp.Analyze(doc.Text), uri, doc.Text, params.Position)
	if len(locs) == 0 {
		return nil, nil
	}
	return locs, nil
}

func publishDiagnostics(ctx *glsp.Context, uri string, text string) error {
	if !strings.HasSuffix(strings.ToLower(uri), ".nss") {
		ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
			URI:         protocol.DocumentUri(uri),
			Diagnostics: []protocol.Diagnostic{},
		})
		return nil
	}

	an := lsp.Analyze(text)
	checker := lsp.Checker{Game: game, Loader: loaderFor(uri)}
	diags := checker.Check(scriptName(uri), text, an)

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(uri),
		Diagnostics: lsp.ToProtocol(diags),
	})
	return nil
}

// loaderFor resolves #include against the document's directory first,
// then the workspace root.
func loaderFor(uri string) compiler.SourceLoader {
	dirs := []string{}
	if p := lsp.URIToPath(uri); p != "" {
		dirs = append(dirs, filepath.Dir(p))
	}
	if rootDir != "" {
		dirs = append(dirs, rootDir)
	}
	if len(dirs) == 0 {
		return nil
	}
	return resource.SourceOf(resource.NewDir(dirs...))
}

func scriptName(uri string) string {
	if p := lsp.URIToPath(uri); p != "" {
		return filepath.Base(p)
	}
	return "script.nss"
}

func extractFullText(change any) (string, bool) {
	switch typed := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return typed.Text, true
	case protocol.TextDocumentContentChangeEvent:
		return typed.Text, true
	default:
		return "", false
	}
}

func ptrString(s string) *string { return &s }
