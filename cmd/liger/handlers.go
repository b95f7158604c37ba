// cmd/liger/handlers.go
//
// ROLE: method routing and param decoding. Registers every handler named in
// spec.md §6 against the server's Dispatcher, translating between the wire
// JSON shapes in internal/lsptypes and internal/analyzer's Go-native calls.
package main

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/navid-m/liger/internal/analyzer"
	"github.com/navid-m/liger/internal/config"
	"github.com/navid-m/liger/internal/document"
	"github.com/navid-m/liger/internal/lsptypes"
	"github.com/navid-m/liger/internal/oracle"
	"github.com/navid-m/liger/internal/rpc"
	"github.com/navid-m/liger/internal/syntax"
	"github.com/navid-m/liger/internal/workspace"
)

type server struct {
	docs     *document.Store
	idx      *workspace.Index
	analyzer *analyzer.Analyzer
	orc      *oracle.Oracle
	disp     *rpc.Dispatcher
	cfg      *config.Config
	logger   *slog.Logger
}

func decodeParams[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, rpc.NewError(rpc.InvalidParams, err.Error())
	}
	return v, nil
}

func (s *server) register() {
	s.disp.HandleRequest("initialize", s.onInitialize)
	s.disp.HandleRequest("shutdown", s.onShutdown)
	s.disp.HandleRequest("textDocument/hover", s.onHover)
	s.disp.HandleRequest("textDocument/definition", s.onDefinition)
	s.disp.HandleRequest("textDocument/completion", s.onCompletion)
	s.disp.HandleRequest("textDocument/signatureHelp", s.onSignatureHelp)
	s.disp.HandleRequest("textDocument/references", s.onReferences)
	s.disp.HandleRequest("textDocument/documentSymbol", s.onDocumentSymbol)
	s.disp.HandleRequest("textDocument/prepareRename", s.onPrepareRename)
	s.disp.HandleRequest("textDocument/rename", s.onRename)
	s.disp.HandleRequest("workspace/symbol", s.onWorkspaceSymbol)

	s.disp.HandleNotification("initialized", func(json.RawMessage) error { return nil })
	s.disp.HandleNotification("exit", func(json.RawMessage) error { return nil })
	s.disp.HandleNotification("textDocument/didOpen", s.onDidOpen)
	s.disp.HandleNotification("textDocument/didChange", s.onDidChange)
	s.disp.HandleNotification("textDocument/didClose", s.onDidClose)
	s.disp.HandleNotification("textDocument/didSave", s.onDidSave)
}

// onInitialize advertises the capability set from spec.md §6. Incremental
// changes are still honored even though sync is advertised Full (1), since
// internal/document.Store.Change already applies the prefix/newText/suffix
// algorithm for ranged edits regardless of what was negotiated.
func (s *server) onInitialize(id json.RawMessage, raw json.RawMessage) (any, error) {
	params, err := decodeParams[lsptypes.InitializeParams](raw)
	if err != nil {
		return nil, err
	}
	if params.InitializationOptions.Strict {
		s.cfg.StrictMode = true
	}

	root := s.cfg.WorkspaceRoot
	if params.RootURI != "" {
		if p, err := oracle.URIToPath(params.RootURI); err == nil && p != "" {
			root = p
		}
	}

	// Project + lib scans run inline during initialize (spec.md §4.G); the
	// stdlib scan stays lazy and only fires on the first findSymbolInfo
	// miss, so its cost is paid only if a query actually needs it.
	s.idx.ProjectScan(root)
	s.idx.LibScan(root)
	s.idx.ConfigureStdlibDiscovery(func() []string {
		if s.orc == nil {
			return nil
		}
		return s.orc.CandidateStdlibRoots(context.Background())
	})

	return lsptypes.InitializeResult{
		Capabilities: lsptypes.ServerCapabilities{
			TextDocumentSync: lsptypes.TextDocumentSyncOptions{OpenClose: true, Change: 1},
			HoverProvider:    true,
			CompletionProvider: &lsptypes.CompletionOptions{
				TriggerCharacters: []string{".", ":", "@"},
				ResolveProvider:   false,
			},
			SignatureHelpProvider:  &lsptypes.SignatureHelpOptions{TriggerCharacters: []string{"(", ","}},
			DefinitionProvider:     true,
			ReferencesProvider:     true,
			DocumentSymbolProvider: true,
			WorkspaceSymbolProvider: true,
			RenameProvider:         &lsptypes.RenameOptions{PrepareProvider: true},
		},
		ServerInfo: map[string]string{"name": "liger", "version": version},
	}, nil
}

func (s *server) onShutdown(id json.RawMessage, raw json.RawMessage) (any, error) {
	return nil, nil
}

func (s *server) onDidOpen(raw json.RawMessage) error {
	params, err := decodeParams[lsptypes.DidOpenTextDocumentParams](raw)
	if err != nil {
		return err
	}
	s.docs.Open(params.TextDocument.URI, params.TextDocument.LanguageID, params.TextDocument.Version, params.TextDocument.Text)
	s.idx.UpdateSource(params.TextDocument.URI, params.TextDocument.Text)
	s.publishDiagnostics(params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (s *server) onDidChange(raw json.RawMessage) error {
	params, err := decodeParams[lsptypes.DidChangeTextDocumentParams](raw)
	if err != nil {
		return err
	}
	uri := params.TextDocument.URI
	changes := make([]document.ContentChange, 0, len(params.ContentChanges))
	for _, c := range params.ContentChanges {
		changes = append(changes, document.ContentChange{Range: c.Range, Text: c.Text})
	}
	s.docs.Change(uri, params.TextDocument.Version, changes)

	doc := s.docs.Get(uri)
	if doc == nil {
		return nil
	}
	s.idx.UpdateSource(uri, doc.Text)
	s.publishDiagnostics(uri, doc.Text)
	return nil
}

func (s *server) onDidClose(raw json.RawMessage) error {
	params, err := decodeParams[lsptypes.DidCloseTextDocumentParams](raw)
	if err != nil {
		return err
	}
	s.docs.Close(params.TextDocument.URI)
	s.idx.Forget(params.TextDocument.URI)
	return nil
}

func (s *server) onDidSave(raw json.RawMessage) error {
	params, err := decodeParams[lsptypes.DidSaveTextDocumentParams](raw)
	if err != nil {
		return err
	}
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}
	s.idx.ForceScan(params.TextDocument.URI, doc.Text)
	s.publishDiagnostics(params.TextDocument.URI, doc.Text)
	return nil
}

// publishDiagnostics re-parses text and notifies the client, never letting a
// parse panic (already recovered inside syntax.Analyze) reach the caller.
func (s *server) publishDiagnostics(uri, text string) {
	analysis := syntax.Analyze(text)
	s.disp.Notify("textDocument/publishDiagnostics", lsptypes.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: analysis.Diagnostics,
	})
}

func (s *server) onHover(id json.RawMessage, raw json.RawMessage) (any, error) {
	params, err := decodeParams[lsptypes.TextDocumentPositionParams](raw)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Hover(context.Background(), params.TextDocument.URI, params.Position)
}

func (s *server) onDefinition(id json.RawMessage, raw json.RawMessage) (any, error) {
	params, err := decodeParams[lsptypes.TextDocumentPositionParams](raw)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Definition(context.Background(), params.TextDocument.URI, params.Position)
}

func (s *server) onCompletion(id json.RawMessage, raw json.RawMessage) (any, error) {
	params, err := decodeParams[lsptypes.TextDocumentPositionParams](raw)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Completion(context.Background(), params.TextDocument.URI, params.Position)
}

func (s *server) onSignatureHelp(id json.RawMessage, raw json.RawMessage) (any, error) {
	params, err := decodeParams[lsptypes.TextDocumentPositionParams](raw)
	if err != nil {
		return nil, err
	}
	return s.analyzer.SignatureHelp(params.TextDocument.URI, params.Position)
}

func (s *server) onReferences(id json.RawMessage, raw json.RawMessage) (any, error) {
	params, err := decodeParams[lsptypes.TextDocumentPositionParams](raw)
	if err != nil {
		return nil, err
	}
	return s.analyzer.References(params.TextDocument.URI, params.Position)
}

func (s *server) onDocumentSymbol(id json.RawMessage, raw json.RawMessage) (any, error) {
	params, err := decodeParams[lsptypes.DocumentSymbolParams](raw)
	if err != nil {
		return nil, err
	}
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return []lsptypes.DocumentSymbol{}, nil
	}
	analysis := syntax.Analyze(doc.Text)
	return syntax.DocumentSymbols(analysis.Root), nil
}

func (s *server) onPrepareRename(id json.RawMessage, raw json.RawMessage) (any, error) {
	params, err := decodeParams[lsptypes.TextDocumentPositionParams](raw)
	if err != nil {
		return nil, err
	}
	return s.analyzer.PrepareRename(params.TextDocument.URI, params.Position)
}

func (s *server) onRename(id json.RawMessage, raw json.RawMessage) (any, error) {
	params, err := decodeParams[lsptypes.RenameParams](raw)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Rename(params.TextDocument.URI, params.Position, params.NewName)
}

func (s *server) onWorkspaceSymbol(id json.RawMessage, raw json.RawMessage) (any, error) {
	params, err := decodeParams[lsptypes.WorkspaceSymbolParams](raw)
	if err != nil {
		return nil, err
	}
	return s.idx.WorkspaceSymbols(params.Query), nil
}
