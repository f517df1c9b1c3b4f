package cssast

// Node is anything that can appear in a rule list: a Declaration, a
// StyleRule, an AtRule, or a Raw passthrough chunk (a statement the parser
// could not classify as a declaration or rule).
type Node interface {
	isNode()
}

// Stylesheet is the root of a parsed module: an ordered list of top-level
// nodes, almost always AtRule and StyleRule values.
type Stylesheet struct {
	Rules []Node
}

// Declaration is `property: value-tokens;`.
type Declaration struct {
	Property Token
	Value    []Token
}

func (*Declaration) isNode() {}

// StyleRule is `prelude { body }`, where prelude is everything up to the
// opening brace (a selector list, for the all-other-rules case in spec
// §4.7 step 3) and Body holds nested Declaration/StyleRule/AtRule nodes in
// source order.
type StyleRule struct {
	Prelude []Token
	Body    []Node
}

func (*StyleRule) isNode() {}

// AtRule is `@name prelude ;` or `@name prelude { body }`.
type AtRule struct {
	Name    string
	Prelude []Token
	Body    []Node
	HasBody bool
}

func (*AtRule) isNode() {}

// Raw is a verbatim token run the parser could not classify: a statement
// ended by ';' or '}' without a top-level colon, or one cut off by end of
// input. Comments and whitespace between rules are dropped, not kept as Raw.
type Raw struct {
	Tokens []Token
}

func (*Raw) isNode() {}
