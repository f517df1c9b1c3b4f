// Package constants implements the Constant-Value Index (spec §4.5): a
// single flat table of `--X: value-tokens;` bindings gathered from a
// parsed stylesheet before the Module Compiler's name-rewriting pass
// consumes it. Grounded on the teacher's small value-object packages
// (internal/idtypes-style plain structs) rather than any one specific
// teacher file — the spec gives this component no persistence or
// allocation concerns, just a walk and a map.
package constants

import "github.com/standardbeagle/xiss/internal/cssast"

// Index maps a dashed custom-property name (including its leading "--")
// to the token sequence most recently bound to it. There is no module
// scoping and no ordering guarantee across files: the last declaration
// visited wins (spec §4.5: "No scoping, no order-dependence across files;
// the last write wins").
type Index struct {
	values map[string][]cssast.Token
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{values: make(map[string][]cssast.Token)}
}

// Collect walks ss once, recording every declaration whose property is a
// dashed identifier. Safe to call repeatedly across multiple stylesheets
// against the same Index to build a project-wide table.
func (idx *Index) Collect(ss *cssast.Stylesheet) {
	collectNodes(idx, ss.Rules)
}

func collectNodes(idx *Index, nodes []cssast.Node) {
	for _, n := range nodes {
		switch v := n.(type) {
		case *cssast.Declaration:
			if isDashedIdent(v.Property.Data) {
				idx.values[v.Property.Data] = v.Value
			}
		case *cssast.StyleRule:
			collectNodes(idx, v.Body)
		case *cssast.AtRule:
			collectNodes(idx, v.Body)
		}
	}
}

// Lookup returns the token sequence bound to a dashed name (leading "--"
// included) and whether a binding exists.
func (idx *Index) Lookup(name string) ([]cssast.Token, bool) {
	v, ok := idx.values[name]
	return v, ok
}

func isDashedIdent(property string) bool {
	return len(property) > 2 && property[0] == '-' && property[1] == '-'
}
