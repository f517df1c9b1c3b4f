package cssast

import (
	"strings"

	"github.com/standardbeagle/xiss/internal/diag"
	"github.com/tdewolff/parse/v2/css"
)

// rawTok is the lexer's own (type, literal) pair before it is wrapped into
// a Token; kept separate so the cursor can push one back without forcing
// callers to unwrap a Token.
type rawTok struct {
	tt   css.TokenType
	data string
}

// cursor adds one-token pushback and approximate line/column tracking on
// top of the raw tdewolff lexer, since css.Lexer itself is forward-only.
type cursor struct {
	lex  *css.Lexer
	buf  *rawTok
	file string
	line int
	col  int
}

func (c *cursor) next() rawTok {
	if c.buf != nil {
		t := *c.buf
		c.buf = nil
		return t
	}
	tt, data := c.lex.Next()
	s := string(data)
	for _, ch := range s {
		if ch == '\n' {
			c.line++
			c.col = 1
		} else {
			c.col++
		}
	}
	return rawTok{tt, s}
}

func (c *cursor) pushback(t rawTok) { c.buf = &t }

func (c *cursor) span() diag.Span {
	return diag.Span{File: c.file, Line: c.line, Column: c.col}
}

func toToken(t rawTok) Token { return Token{Type: t.tt, Data: t.data} }

// Parse tokenizes and tree-builds src into a Stylesheet, reporting
// malformed structure to h. A Stylesheet is always returned, even in the
// presence of diagnostics — spec §4.7's failure mode discards artifacts
// for a module with any diagnostic, but parsing itself never panics.
func Parse(file string, src []byte, h *diag.Handler) *Stylesheet {
	c := &cursor{lex: newLexer(src), file: file, line: 1, col: 1}
	return &Stylesheet{Rules: parseRuleList(c, h, false)}
}

func parseRuleList(c *cursor, h *diag.Handler, nested bool) []Node {
	var out []Node
	for {
		t := c.next()
		switch t.tt {
		case css.ErrorToken:
			return out
		case css.RightBraceToken:
			if nested {
				return out
			}
			h.Report(diag.New(diag.UnexpectedComponentValue, c.span(), "unexpected '}' at top level"))
		case css.WhitespaceToken, css.CommentToken:
			continue
		case css.AtKeywordToken:
			out = append(out, parseAtRule(c, h, t))
		default:
			out = append(out, parseStatement(c, h, t))
		}
	}
}

func parseAtRule(c *cursor, h *diag.Handler, first rawTok) Node {
	name := strings.TrimPrefix(first.data, "@")
	prelude, stop := collectUntil(c, h, css.LeftBraceToken, css.SemicolonToken)
	if stop.tt == css.LeftBraceToken {
		body := parseRuleList(c, h, true)
		return &AtRule{Name: name, Prelude: prelude, Body: body, HasBody: true}
	}
	if stop.tt != css.SemicolonToken {
		h.Report(diag.New(diag.ExpectedSemicolon, c.span(), "expected ';' to close @%s", name))
	}
	return &AtRule{Name: name, Prelude: prelude}
}

// parseStatement classifies a rule-list entry as a Declaration or a
// StyleRule by scanning ahead (tracking bracket/paren/function nesting)
// for whichever of a left brace or a statement-ending semicolon/right
// brace actually terminates it — the same heuristic a hand-nesting-aware
// parser uses to support CSS rules and declarations interleaved in one
// body (spec §4.7: nested class/var/keyframe references still get
// rewritten, implying nested rules). The classification cannot be made
// at the first top-level colon alone: a qualified rule's pseudo-class
// prelude (".btn:hover") also contains one. Instead the first top-level
// colon's position is remembered and the decision deferred to whichever
// terminator is actually seen — a colon followed by '{' is just part of
// a selector, never a declaration.
func parseStatement(c *cursor, h *diag.Handler, first rawTok) Node {
	tokens := []Token{toToken(first)}
	depth := 0
	colonAt := -1
	for {
		t := c.next()
		switch t.tt {
		case css.ErrorToken:
			h.Report(diag.New(diag.ExpectedBlock, c.span(), "unexpected end of input"))
			return &Raw{Tokens: tokens}
		case css.LeftParenthesisToken, css.LeftBracketToken, css.FunctionToken:
			depth++
			tokens = append(tokens, toToken(t))
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
			tokens = append(tokens, toToken(t))
		case css.ColonToken:
			if depth == 0 && colonAt < 0 {
				colonAt = len(tokens)
			}
			tokens = append(tokens, toToken(t))
		case css.LeftBraceToken:
			if depth == 0 {
				body := parseRuleList(c, h, true)
				return &StyleRule{Prelude: trimEdges(tokens), Body: body}
			}
			tokens = append(tokens, toToken(t))
		case css.SemicolonToken:
			if depth == 0 {
				return endStatement(h, c.span(), tokens, colonAt)
			}
			tokens = append(tokens, toToken(t))
		case css.RightBraceToken:
			if depth == 0 {
				c.pushback(t)
				return endStatement(h, c.span(), tokens, colonAt)
			}
			tokens = append(tokens, toToken(t))
		case css.WhitespaceToken, css.CommentToken:
			tokens = appendSpace(tokens)
		default:
			tokens = append(tokens, toToken(t))
		}
	}
}

// endStatement builds the Declaration or Raw node once a statement's
// terminator (';' or a block-closing '}') has been seen. colonAt is the
// index within tokens of the first top-level colon, or -1 if none was
// seen — a declaration requires one.
func endStatement(h *diag.Handler, span diag.Span, tokens []Token, colonAt int) Node {
	if colonAt < 0 {
		h.Report(diag.New(diag.ExpectedColon, span, "expected ':' before ';'"))
		return &Raw{Tokens: trimEdges(tokens)}
	}
	prop := trimEdges(tokens[:colonAt])
	var property Token
	if len(prop) > 0 {
		property = prop[0]
	}
	value := trimEdges(tokens[colonAt+1:])
	return &Declaration{Property: property, Value: value}
}

// collectUntil gathers tokens up to (not including) the first of the given
// stop types seen at bracket/paren/brace depth 0, collapsing runs of
// whitespace/comments into single space tokens and trimming the ends.
func collectUntil(c *cursor, h *diag.Handler, stops ...css.TokenType) ([]Token, rawTok) {
	var out []Token
	depth := 0
	for {
		t := c.next()
		if t.tt == css.ErrorToken {
			h.Report(diag.New(diag.ExpectedSemicolon, c.span(), "unexpected end of input"))
			return trimEdges(out), t
		}
		if depth == 0 {
			for _, s := range stops {
				if t.tt == s {
					return trimEdges(out), t
				}
			}
		}
		switch t.tt {
		case css.LeftParenthesisToken, css.LeftBracketToken, css.LeftBraceToken, css.FunctionToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken, css.RightBraceToken:
			depth--
		}
		if t.tt == css.WhitespaceToken || t.tt == css.CommentToken {
			out = appendSpace(out)
		} else {
			out = append(out, toToken(t))
		}
	}
}

func appendSpace(tokens []Token) []Token {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type == css.WhitespaceToken {
		return tokens
	}
	return append(tokens, Token{Type: css.WhitespaceToken, Data: " "})
}

func trimEdges(tokens []Token) []Token {
	start := 0
	for start < len(tokens) && tokens[start].Type == css.WhitespaceToken {
		start++
	}
	end := len(tokens)
	for end > start && tokens[end-1].Type == css.WhitespaceToken {
		end--
	}
	return tokens[start:end]
}
