// Package cssast builds the small mutable rule tree the Module Compiler
// (spec §4.7) walks and rewrites, on top of the tdewolff/parse/v2/css
// tokenizer — the "external CSS parser" spec §1 treats as a black-box
// collaborator (lexing/parsing is explicitly out of scope for the
// compiler's own code). Grounded on other_examples' daaku/cssm, which
// drives the same lexer in a similar token-classification loop, though
// cssm never builds a tree — it rewrites tokens inline as it scans. xiss
// needs a tree because the compiler has to revisit `animation` values in a
// post-pass (spec §4.7 step 2's keyframes rewrite) and collect @classmap /
// @extern bodies before emission, neither of which a single forward pass
// over tokens can do cleanly.
package cssast

import (
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Token is a single lexical unit, keeping the tdewolff TokenType tag
// alongside the literal text so the compiler can rewrite idents in place
// and the serializer can re-emit everything else verbatim.
type Token struct {
	Type css.TokenType
	Data string
}

func (t Token) String() string { return t.Data }

// IsIdent reports whether the token is a bare CSS identifier.
func (t Token) IsIdent() bool { return t.Type == css.IdentToken }

// tokenize drains the lexer into a flat Token slice up to (but not
// including) one of the stop token types, returning the stop token
// (or a zero Token with ok=false at EOF).
func tokenize(lex *css.Lexer, stop ...css.TokenType) ([]Token, Token, bool) {
	var out []Token
	for {
		tt, data := lex.Next()
		if tt == css.ErrorToken {
			return out, Token{}, false
		}
		for _, s := range stop {
			if tt == s {
				return out, Token{Type: tt, Data: string(data)}, true
			}
		}
		out = append(out, Token{Type: tt, Data: string(data)})
	}
}

// newLexer wraps source bytes for tokenizing, mirroring cssm.Process's use
// of parse.NewInputBytes (which documents needing one spare trailing byte).
func newLexer(src []byte) *css.Lexer {
	in := make([]byte, len(src), len(src)+1)
	copy(in, src)
	return css.NewLexer(parse.NewInputBytes(in))
}
