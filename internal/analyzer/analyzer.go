// Package analyzer is the semantic analyzer component from spec.md §4.F: it
// orchestrates the document store, the parser adapter, the workspace
// index, and the compiler oracle into the layered goto-definition, hover,
// completion, and rename operations the server exposes.
package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/navid-m/liger/internal/crystal"
	"github.com/navid-m/liger/internal/document"
	"github.com/navid-m/liger/internal/lsptypes"
	"github.com/navid-m/liger/internal/oracle"
	"github.com/navid-m/liger/internal/syntax"
	"github.com/navid-m/liger/internal/workspace"
)

// Analyzer ties every other package together into the request-answering
// layer cmd/liger's handlers call into directly.
type Analyzer struct {
	docs   *document.Store
	idx    *workspace.Index
	oracle *oracle.Oracle
	root   string
}

func New(docs *document.Store, idx *workspace.Index, orc *oracle.Oracle, workspaceRoot string) *Analyzer {
	return &Analyzer{docs: docs, idx: idx, oracle: orc, root: workspaceRoot}
}

// docContext bundles what every operation below needs: the document, its
// parsed tree, and the word under the cursor. hasWord is false when the
// cursor doesn't sit on an identifier; the rest of the context (doc, root,
// line) is still valid and usable, e.g. for completion at an empty prefix.
type docContext struct {
	doc     *document.Document
	root    crystal.Node
	word    string
	hasWord bool
	rng     lsptypes.Range
	line    string
}

// context loads everything needed to answer a request at pos, or reports
// false if uri names a document that isn't open.
func (a *Analyzer) context(uri string, pos lsptypes.Position) (docContext, bool) {
	doc := a.docs.Get(uri)
	if doc == nil {
		return docContext{}, false
	}
	li := doc.LineIndex()
	word, rng, hasWord := li.GetWordAtPosition(pos)
	var line string
	if l, ok := li.Line(pos.Line); ok {
		line = l
	}
	analysis := syntax.Analyze(doc.Text)
	return docContext{doc: doc, root: analysis.Root, word: word, hasWord: hasWord, rng: rng, line: line}, true
}

// enclosingContainer returns the fully-qualified name of the innermost
// class/module/struct enclosing the given 1-based line, or "" at top
// level.
func enclosingContainer(n crystal.Node, line int, prefix string) string {
	best := prefix
	for _, c := range n.Children {
		if !isContainerNode(c.Kind) {
			continue
		}
		if line < c.Span.StartLine || (c.Span.EndLine != 0 && line > c.Span.EndLine) {
			continue
		}
		fqn := c.Name
		if prefix != "" {
			fqn = prefix + "::" + c.Name
		}
		best = enclosingContainer(c, line, fqn)
	}
	return best
}

// Definition implements spec.md §4.F's layered goto-definition: require
// path -> fun self-reference -> ivar in current file -> member of the
// enclosing container via the workspace index -> declaration in the
// current file's own AST -> bare workspace symbol -> receiver.method via
// type walk-back -> builtin type (no location) -> compiler oracle ->
// empty.
func (a *Analyzer) Definition(ctx context.Context, uri string, pos lsptypes.Position) ([]lsptypes.Location, error) {
	dc, ok := a.context(uri, pos)
	if !ok {
		return nil, nil
	}

	// 1. require "path": cursor within the quoted path resolves to (0,0)
	// of the file it names, when that file can be found on disk.
	if req, ok := findRequireAtLine(dc.root, pos.Line); ok {
		if start, end, qok := requireQuoteRange(dc.line); qok && pos.Character >= start && pos.Character <= end {
			if resolved, ok := a.resolveRequirePath(ctx, uri, req.RequirePathLiteral()); ok {
				return []lsptypes.Location{{URI: resolved, Range: lsptypes.Range{}}}, nil
			}
		}
	}

	if !dc.hasWord {
		return nil, nil
	}

	// 2. fun extern declaration: the cursor on its own name is a
	// self-reference to the declaration itself.
	if fn, ok := findFunAtLine(dc.root, pos.Line, dc.word); ok {
		return []lsptypes.Location{{URI: uri, Range: spanRange(fn.NameSpan, fn.Name)}}, nil
	}

	// 3. ivar declared in the current file's own AST.
	if strings.HasPrefix(dc.word, "@") {
		if loc, ok := findIVarInTree(dc.root, strings.TrimPrefix(dc.word, "@")); ok {
			return []lsptypes.Location{{URI: uri, Range: loc}}, nil
		}
	}

	container := enclosingContainer(dc.root, pos.Line+1, "")

	// 4. member of the enclosing container.
	if container != "" {
		if e, ok := a.idx.FindMember(container, dc.word); ok {
			return []lsptypes.Location{{URI: e.URI, Range: e.Range()}}, nil
		}
	}

	// 5. declaration directly in the current file's own AST (covers
	// top-level defs/classes the workspace index may not have scanned
	// yet on this exact keystroke).
	if loc, ok := findDeclInTree(dc.root, dc.word); ok {
		return []lsptypes.Location{{URI: uri, Range: loc}}, nil
	}

	// 6. any workspace symbol matching the bare or fully-qualified name.
	if e, ok := a.idx.FindSymbolInfo(dc.word); ok {
		return []lsptypes.Location{{URI: e.URI, Range: e.Range()}}, nil
	}

	// 7. receiver.method: resolve the receiver's type by variable/ivar
	// walk-back, then look up that method on the type in the workspace
	// index.
	if receiver, ok := receiverBefore(dc.line, dc.rng.Start.Character); ok {
		if typ, ok := receiverType(dc.root, receiver); ok {
			if e, ok := a.idx.FindMember(typ, dc.word); ok {
				return []lsptypes.Location{{URI: e.URI, Range: e.Range()}}, nil
			}
		}
	}

	// 8. builtin type name: known to exist, but it has no source location
	// to offer without the oracle.
	if isBuiltinType(dc.word) && a.oracle == nil {
		return nil, nil
	}

	// 9. compiler oracle, if configured and reachable.
	if a.oracle != nil && a.oracle.Available() {
		locs, err := a.oracle.Implementations(ctx, a.root, uri, dc.doc.Text, pos.Line+1, pos.Character+1)
		if err == nil && len(locs) > 0 {
			return locs, nil
		}
	}

	// 10. nothing found.
	return nil, nil
}

// Hover implements spec.md §4.F's layered hover: require classification
// -> fun extern signature -> keyword (no hover) -> ivar annotation ->
// inferred local/const type -> enclosing-container member signature ->
// bare workspace symbol kind -> builtin type name -> compiler oracle
// context -> no hover.
func (a *Analyzer) Hover(ctx context.Context, uri string, pos lsptypes.Position) (*lsptypes.Hover, error) {
	dc, ok := a.context(uri, pos)
	if !ok {
		return nil, nil
	}

	// 1. require "path": hover shows the path alongside how it resolves
	// (relative, a shard under lib/, or the stdlib/unknown).
	if req, ok := findRequireAtLine(dc.root, pos.Line); ok {
		if start, end, qok := requireQuoteRange(dc.line); qok && pos.Character >= start && pos.Character <= end {
			path := req.RequirePathLiteral()
			text := fmt.Sprintf("require \"%s\" (%s)", path, a.classifyRequire(path))
			return markdownHover(text, lsptypes.Range{
				Start: lsptypes.Position{Line: pos.Line, Character: start},
				End:   lsptypes.Position{Line: pos.Line, Character: end},
			}), nil
		}
	}

	if !dc.hasWord {
		return nil, nil
	}

	// 2. fun extern declaration: show the Crystal-side name and any
	// aliased C name.
	if fn, ok := findFunAtLine(dc.root, pos.Line, dc.word); ok {
		return markdownHover(funHoverText(fn), dc.rng), nil
	}

	// 3. keywords carry no hover content.
	if isKeyword(dc.word) {
		return nil, nil
	}

	// 4. ivar declared in the current file.
	if strings.HasPrefix(dc.word, "@") {
		name := strings.TrimPrefix(dc.word, "@")
		if typ, ok := findIVarType(dc.root, name); ok {
			return markdownHover("@"+name+" : "+typ, dc.rng), nil
		}
	}

	// 5. inferred type of a local variable or constant assigned in this file.
	if typ, ok := findAssignedType(dc.root, dc.word); ok {
		return markdownHover(dc.word+" : "+typ, dc.rng), nil
	}

	container := enclosingContainer(dc.root, pos.Line+1, "")

	// 6. member of the enclosing container, with its declared detail.
	if container != "" {
		if e, ok := a.idx.FindMember(container, dc.word); ok {
			return markdownHover(memberSignature(e), dc.rng), nil
		}
	}

	// 7. bare workspace symbol (class/module/struct/enum/const anywhere).
	if e, ok := a.idx.FindSymbolInfo(dc.word); ok {
		return markdownHover(memberSignature(e), dc.rng), nil
	}

	// 8. builtin type name.
	if isBuiltinType(dc.word) {
		return markdownHover("`"+dc.word+"` (builtin)", dc.rng), nil
	}

	// 9. compiler oracle context.
	if a.oracle != nil && a.oracle.Available() {
		text, err := a.oracle.Context(ctx, a.root, uri, dc.doc.Text, pos.Line+1, pos.Character+1)
		if err == nil && text != "" {
			return markdownHover(text, dc.rng), nil
		}
	}

	return nil, nil
}

// Completion returns the builtin type names alone when the word before the
// cursor is a qualified path ("Foo::" or "Foo::Ba"). Otherwise it merges
// file-local completions (internal/syntax) with workspace member
// completions when the cursor follows "receiver." and a type for receiver
// can be resolved, deduping by label; spec.md §4.F leaves cross-source
// ordering unspecified (see DESIGN.md Open Question #2).
func (a *Analyzer) Completion(ctx context.Context, uri string, pos lsptypes.Position) ([]lsptypes.CompletionItem, error) {
	dc, ok := a.context(uri, pos)
	if !ok {
		return nil, nil
	}

	if runes := []rune(dc.line); pos.Character >= 0 && pos.Character <= len(runes) {
		start := pos.Character
		for start > 0 && (isIdentRune(runes[start-1]) || runes[start-1] == ':') {
			start--
		}
		if strings.Contains(string(runes[start:pos.Character]), "::") {
			var types []lsptypes.CompletionItem
			for _, t := range syntax.BuiltinTypes() {
				types = append(types, lsptypes.CompletionItem{Label: t, Kind: lsptypes.CIKClass})
			}
			return types, nil
		}
	}

	items := syntax.FileLocalCompletions(dc.line, pos.Character, dc.root)

	if receiver, ok := receiverBefore(dc.line, pos.Character); ok {
		if typ, ok := findAssignedType(dc.root, receiver); ok {
			items = append(items, a.idx.GetCompletionsForReceiver(typ)...)
		}
	}

	return dedupByLabel(items), nil
}

// PrepareRename reports the word range under the cursor, or nil if the
// cursor isn't on an identifier (the standard "can't rename here" signal).
func (a *Analyzer) PrepareRename(uri string, pos lsptypes.Position) (*lsptypes.Range, error) {
	dc, ok := a.context(uri, pos)
	if !ok || !dc.hasWord || isKeyword(dc.word) {
		return nil, nil
	}
	return &dc.rng, nil
}

// Rename performs a whole-word, current-document-only rename (spec.md §9
// Open Question #4: cross-file rename is out of scope), returning a
// WorkspaceEdit with one TextEdit per occurrence of the word.
func (a *Analyzer) Rename(uri string, pos lsptypes.Position, newName string) (*lsptypes.WorkspaceEdit, error) {
	dc, ok := a.context(uri, pos)
	if !ok || !dc.hasWord {
		return nil, nil
	}
	target := strings.TrimPrefix(dc.word, "@")
	isIVar := strings.HasPrefix(dc.word, "@")

	li := dc.doc.LineIndex()
	var edits []lsptypes.TextEdit
	for lineNo, line := range li.Lines() {
		for _, rng := range wholeWordOccurrences(line, target, isIVar) {
			edits = append(edits, lsptypes.TextEdit{
				Range: lsptypes.Range{
					Start: lsptypes.Position{Line: lineNo, Character: rng[0]},
					End:   lsptypes.Position{Line: lineNo, Character: rng[1]},
				},
				NewText: newName,
			})
		}
	}
	if len(edits) == 0 {
		return nil, nil
	}
	return &lsptypes.WorkspaceEdit{Changes: map[string][]lsptypes.TextEdit{uri: edits}}, nil
}

// References always returns an empty slice: spec.md §9 Open Question #3
// resolves that no reverse index exists in this design, so find-references
// never reports results instead of reporting an incomplete subset.
func (a *Analyzer) References(uri string, pos lsptypes.Position) ([]lsptypes.Location, error) {
	return []lsptypes.Location{}, nil
}

// SignatureHelp is not implemented and always returns nil. The initialize
// response still advertises a signatureHelp provider (triggered by "(" and
// ","), so clients do send these requests and receive a null result.
func (a *Analyzer) SignatureHelp(uri string, pos lsptypes.Position) (any, error) {
	return nil, nil
}

func markdownHover(text string, rng lsptypes.Range) *lsptypes.Hover {
	return &lsptypes.Hover{
		Contents: lsptypes.MarkupContent{Kind: "markdown", Value: text},
		Range:    &rng,
	}
}

func memberSignature(e workspace.Entry) string {
	switch e.Kind {
	case workspace.SymDef, workspace.SymFun:
		return "def " + e.Name
	case workspace.SymProperty:
		return e.Detail + " " + e.Name
	case workspace.SymIVar:
		return "@" + e.Name + " : " + e.Detail
	case workspace.SymConst:
		return e.Name + " = " + e.Detail
	case workspace.SymClass:
		return "class " + e.FQN
	case workspace.SymModule:
		return "module " + e.FQN
	case workspace.SymStruct:
		return "struct " + e.FQN
	case workspace.SymEnum:
		return "enum " + e.FQN
	default:
		return e.FQN
	}
}
