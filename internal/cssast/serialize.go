package cssast

import "strings"

// Serialize re-emits a Stylesheet as CSS text (spec §4.7 step 4's "external
// CSS code generator"). Whitespace inside preludes/values is normalized to
// single spaces by the parser; Serialize itself adds only a newline after
// each top-level node, a space between nodes inside a block, and a space
// between an at-rule's name and its prelude.
func Serialize(ss *Stylesheet) []byte {
	var b strings.Builder
	for _, n := range ss.Rules {
		writeNode(&b, n)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func writeNode(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case *Declaration:
		b.WriteString(v.Property.Data)
		b.WriteByte(':')
		b.WriteString(tokenJoin(v.Value))
		b.WriteByte(';')
	case *StyleRule:
		b.WriteString(tokenJoin(v.Prelude))
		b.WriteByte('{')
		writeBody(b, v.Body)
		b.WriteByte('}')
	case *AtRule:
		b.WriteByte('@')
		b.WriteString(v.Name)
		if len(v.Prelude) > 0 {
			b.WriteByte(' ')
			b.WriteString(tokenJoin(v.Prelude))
		}
		if v.HasBody {
			b.WriteByte('{')
			writeBody(b, v.Body)
			b.WriteByte('}')
		} else {
			b.WriteByte(';')
		}
	case *Raw:
		b.WriteString(tokenJoin(v.Tokens))
	}
}

func writeBody(b *strings.Builder, nodes []Node) {
	for i, n := range nodes {
		if i > 0 {
			b.WriteByte(' ')
		}
		writeNode(b, n)
	}
}

func tokenJoin(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Data)
	}
	return b.String()
}
