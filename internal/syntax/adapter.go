// Package syntax is the "parser adapter" component from spec.md §4.E: it
// drives internal/crystal's lexer/parser, turns a syntax failure into the
// single diagnostic the spec prescribes, and walks the resulting AST into
// DocumentSymbol trees and file-local completion items.
package syntax

import (
	"fmt"
	"strings"

	"github.com/navid-m/liger/internal/crystal"
	"github.com/navid-m/liger/internal/lsptypes"
	"github.com/navid-m/liger/internal/position"
)

// Analysis is the result of analyzing one document's text: the parsed tree
// (possibly the empty root if parsing failed) and the diagnostics to
// publish for it.
type Analysis struct {
	Root        crystal.Node
	Diagnostics []lsptypes.Diagnostic
	OK          bool
}

// Analyze lexes and parses text, recovering from any panic in the parser
// the same way spec.md §4.E asks ("any other parser exception becomes a
// single diagnostic at (0,0)") — internal/crystal.Parse does not itself
// panic, but callers that wrap a real compiler frontend in the future may,
// so the boundary is defended here.
func Analyze(text string) (result Analysis) {
	defer func() {
		if r := recover(); r != nil {
			result = Analysis{
				Diagnostics: []lsptypes.Diagnostic{{
					Range:    lsptypes.Range{Start: lsptypes.Position{}, End: lsptypes.Position{Character: 1}},
					Severity: lsptypes.SeverityError,
					Source:   "crystal",
					Message:  fmt.Sprintf("Parse error: %v", r),
				}},
			}
		}
	}()

	root, err := crystal.Parse(text)
	if err != nil {
		pe, ok := err.(*crystal.ParseError)
		line, col := 0, 0
		if ok {
			line, col = pe.Line-1, pe.Col-1
		}
		if line < 0 {
			line = 0
		}
		if col < 0 {
			col = 0
		}
		return Analysis{
			Root: root,
			Diagnostics: []lsptypes.Diagnostic{{
				Range:    lsptypes.Range{Start: lsptypes.Position{Line: line, Character: col}, End: lsptypes.Position{Line: line, Character: col + 1}},
				Severity: lsptypes.SeverityError,
				Source:   "crystal",
				Message:  err.Error(),
			}},
		}
	}
	return Analysis{Root: root, OK: true}
}

// DocumentSymbols walks the AST and emits a DocumentSymbol for every class,
// module, struct, enum, enum member, def, fun, property/getter/setter, ivar
// declaration, and assignment (at any nesting level), nesting children for
// nested declarations (spec.md §4.E).
func DocumentSymbols(root crystal.Node) []lsptypes.DocumentSymbol {
	return childSymbols(root.Children)
}

func childSymbols(nodes []crystal.Node) []lsptypes.DocumentSymbol {
	var out []lsptypes.DocumentSymbol
	for _, n := range nodes {
		if sym, ok := toDocumentSymbol(n); ok {
			out = append(out, sym)
		} else if len(n.Children) > 0 {
			// Anonymous blocks (if/while/do/...) don't get a symbol of
			// their own, but named declarations nested inside them still
			// surface at this level.
			out = append(out, childSymbols(n.Children)...)
		}
	}
	return out
}

func toDocumentSymbol(n crystal.Node) (lsptypes.DocumentSymbol, bool) {
	kind, ok := symbolKindFor(n.Kind)
	if !ok {
		return lsptypes.DocumentSymbol{}, false
	}
	return lsptypes.DocumentSymbol{
		Name:           n.Name,
		Detail:         n.Detail,
		Kind:           kind,
		Range:          spanToRange(n.Span, n.Name),
		SelectionRange: spanToRange(n.NameSpan, n.Name),
		Children:       childSymbols(n.Children),
	}, true
}

func symbolKindFor(k crystal.NodeKind) (int, bool) {
	switch k {
	case crystal.NodeClass:
		return lsptypes.SKClass, true
	case crystal.NodeModule:
		return lsptypes.SKModule, true
	case crystal.NodeStruct:
		return lsptypes.SKStruct, true
	case crystal.NodeEnum:
		return lsptypes.SKEnum, true
	case crystal.NodeEnumMember:
		return lsptypes.SKEnumMember, true
	case crystal.NodeDef, crystal.NodeFun:
		return lsptypes.SKMethod, true
	case crystal.NodeAssign:
		return lsptypes.SKVariable, true
	case crystal.NodeProperty:
		return lsptypes.SKProperty, true
	case crystal.NodeIVarDecl:
		return lsptypes.SKField, true
	default:
		return 0, false
	}
}

// spanToRange converts a crystal.Span to an LSP Range. When the span has no
// usable end location (EndLine == 0, the parser-adapter's "no end location
// supplied" case from spec.md §4.E), the range falls back to the start line
// and the name's length.
func spanToRange(sp crystal.Span, name string) lsptypes.Range {
	startLine := max0(sp.StartLine - 1)
	endLine := max0(sp.EndLine - 1)
	if sp.EndLine == 0 {
		endLine = startLine
	}
	startCol := 0
	endCol := position.RuneLen(name)
	if sp.EndByte > sp.StartByte && sp.EndLine != 0 {
		endCol = sp.EndByte - sp.StartByte
	}
	return lsptypes.Range{
		Start: lsptypes.Position{Line: startLine, Character: startCol},
		End:   lsptypes.Position{Line: endLine, Character: endCol},
	}
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// builtinTypes is the fixed list of common built-in Crystal type names
// advertised by both completion and the "::" qualified-path branch
// (spec.md §4.F).
var builtinTypes = []string{
	"Nil", "Bool", "Int8", "Int16", "Int32", "Int64", "UInt8", "UInt16",
	"UInt32", "UInt64", "Float32", "Float64", "String", "Symbol", "Char",
	"Array", "Hash", "Tuple", "NamedTuple", "Range", "Proc", "Regex", "Set",
	"Time", "IO", "File", "Exception",
}

var keywords = []string{
	"abstract", "alias", "as", "begin", "break", "case", "class", "def",
	"do", "else", "elsif", "end", "ensure", "enum", "extend", "false",
	"fun", "if", "in", "include", "lib", "macro", "module", "next", "nil",
	"of", "out", "private", "protected", "property", "getter", "setter",
	"require", "rescue", "return", "self", "struct", "then", "true",
	"unless", "until", "when", "while", "yield",
}

// commonMethods is the built-in set used both as the "looks like a receiver
// call" completion fallback and as the always-appended tail set in
// spec.md §4.F's completion algorithm.
var commonMethods = []string{
	"to_s", "to_i", "to_f", "inspect", "class", "hash", "dup", "clone",
	"nil?", "is_a?", "responds_to?", "each", "map", "select", "size",
}

// FileLocalCompletions implements the prefix-dispatch rule in spec.md §4.E:
// "." immediately before the cursor -> built-in method set; otherwise
// keywords + built-in types + names extracted from the AST.
func FileLocalCompletions(line string, character int, root crystal.Node) []lsptypes.CompletionItem {
	before := takeBefore(line, character)
	if strings.HasSuffix(before, ".") {
		return methodCompletionItems(commonMethods)
	}

	var items []lsptypes.CompletionItem
	for _, kw := range keywords {
		items = append(items, lsptypes.CompletionItem{Label: kw, Kind: lsptypes.CIKKeyword})
	}
	for _, t := range builtinTypes {
		items = append(items, lsptypes.CompletionItem{Label: t, Kind: lsptypes.CIKClass})
	}
	items = append(items, localSymbolItems(root.Children)...)
	return dedupByLabel(items)
}

func takeBefore(line string, character int) string {
	if character < 0 {
		return ""
	}
	runes := []rune(line)
	if character > len(runes) {
		character = len(runes)
	}
	return string(runes[:character])
}

func methodCompletionItems(names []string) []lsptypes.CompletionItem {
	out := make([]lsptypes.CompletionItem, 0, len(names))
	for _, n := range names {
		out = append(out, lsptypes.CompletionItem{Label: n, Kind: lsptypes.CIKMethod})
	}
	return out
}

func localSymbolItems(nodes []crystal.Node) []lsptypes.CompletionItem {
	var out []lsptypes.CompletionItem
	for _, n := range nodes {
		switch n.Kind {
		case crystal.NodeClass, crystal.NodeStruct:
			out = append(out, lsptypes.CompletionItem{Label: n.Name, Kind: lsptypes.CIKClass})
		case crystal.NodeModule:
			out = append(out, lsptypes.CompletionItem{Label: n.Name, Kind: lsptypes.CIKModule})
		case crystal.NodeDef:
			out = append(out, lsptypes.CompletionItem{Label: n.Name, Kind: lsptypes.CIKMethod, Detail: n.Detail})
		}
		out = append(out, localSymbolItems(n.Children)...)
	}
	return out
}

// dedupByLabel drops later duplicates, matching spec.md §4.F's "Dedup by
// label before returning" without imposing any ordering guarantee beyond
// first-seen-wins (spec.md §9 notes ordering is explicitly unstable).
func dedupByLabel(items []lsptypes.CompletionItem) []lsptypes.CompletionItem {
	seen := make(map[string]bool, len(items))
	out := make([]lsptypes.CompletionItem, 0, len(items))
	for _, it := range items {
		if seen[it.Label] {
			continue
		}
		seen[it.Label] = true
		out = append(out, it)
	}
	return out
}

// BuiltinTypes and CommonMethods and Keywords are exported read-only views
// for the semantic analyzer's completion orchestration (spec.md §4.F),
// which must merge file-local, workspace, and these fixed sets.
func BuiltinTypes() []string { return append([]string(nil), builtinTypes...) }
func CommonMethods() []string { return append([]string(nil), commonMethods...) }
func Keywords() []string      { return append([]string(nil), keywords...) }
