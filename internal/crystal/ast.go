package crystal

// NodeKind tags the shape of a parsed declaration node.
type NodeKind int

const (
	NodeBlock NodeKind = iota // synthetic root / anonymous nested block
	NodeClass
	NodeModule
	NodeStruct
	NodeEnum
	NodeLib
	NodeDef
	NodeFun
	NodeRequire
	NodeAlias
	NodeAssign   // CONST = expr, or top-level identifier = expr
	NodeProperty // property/getter/setter
	NodeIVarDecl // @name : T
	NodeEnumMember
)

// Span is a byte-offset range plus the 1-based start/end lines the teacher's own
// lexer/parser errors use, kept alongside so callers needing either
// convention don't have to re-derive one from the other.
type Span struct {
	StartByte, EndByte int
	StartLine, EndLine int // 1-based
}

// Node is one declaration in the parsed tree. NameSpan covers just the
// identifier token (for DocumentSymbol.SelectionRange); Span covers the
// whole declaration including its body up to (and including) its closing
// "end", when it has one.
type Node struct {
	Kind     NodeKind
	Name     string
	Detail   string // superclass, return type, signature tail — kind-dependent
	Doc      string
	Span     Span
	NameSpan Span
	Children []Node
}

// RequirePathLiteral is valid only for NodeRequire and holds the quoted path
// without its surrounding quotes.
func (n Node) RequirePathLiteral() string { return n.Detail }
