// Package classmap implements the Class-Map Emitter (spec §4.6): parsing a
// `@classmap NAME { … }` block into a pure boolean-state function
// definition, and the two emission strategies (inline ternary tree, 2^N
// lookup table) the Module Compiler picks between per configuration.
// Built fresh — no single teacher file owns this shape — but kept in the
// small-pure-functions, table-driven-test style common across the
// teacher's internal/encoding and internal/idcodec packages.
package classmap

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/xiss/internal/cssast"
	"github.com/standardbeagle/xiss/internal/diag"
	"github.com/tdewolff/parse/v2/css"
)

// MaxStates and MinStates bound the number of boolean parameters a
// class-map may declare (spec §4.6: "2 ≤ N ≤ 8").
const (
	MinStates = 2
	MaxStates = 8
)

// Def is a fully parsed and id-resolved class-map, ready for emission.
// States are listed in declaration order; State i occupies bit i of the
// masks used throughout this package.
type Def struct {
	Name     string
	States   []string
	Static   []string
	PerState [][]string
	Excludes []uint32
}

// Resolver maps a module-local class identifier to its global name via
// the Global Map (spec §4.4); classmap.Parse resolves every token through
// it before storing the Def, so downstream emission never touches locals.
type Resolver func(local string) string

// Parse reads a `@classmap NAME { … }` at-rule's body and builds a Def,
// resolving every class token through resolve and reporting malformed
// entries via h. Returns nil if the block fails validation (wrong state
// count, or no states at all) — the caller (spec §4.7 step 3) then skips
// emission for this classmap as part of the module's failed-compile set.
func Parse(file string, block *cssast.AtRule, resolve Resolver, h *diag.Handler) *Def {
	name := identAt(block.Prelude, 0)
	if name == "" {
		h.Report(diag.New(diag.InvalidClassmap, diag.Span{File: file}, "@classmap requires a name"))
		return nil
	}

	var states []string
	stateIdx := make(map[string]int)
	var perState [][]string
	var staticLocal []string
	var excludeGroups [][]string

	for _, node := range block.Body {
		switch v := node.(type) {
		case *cssast.AtRule:
			switch v.Name {
			case "static":
				staticLocal = append(staticLocal, identTexts(v.Prelude)...)
			case "exclude":
				excludeGroups = append(excludeGroups, filterAnd(identTexts(v.Prelude)))
			default:
				h.Report(diag.New(diag.InvalidClassmap, diag.Span{File: file}, "unknown classmap entry @%s", v.Name))
			}
		case *cssast.Declaration:
			state := v.Property.Data
			i, ok := stateIdx[state]
			if !ok {
				i = len(states)
				stateIdx[state] = i
				states = append(states, state)
				perState = append(perState, nil)
			}
			perState[i] = append(perState[i], identTexts(v.Value)...)
		default:
			h.Report(diag.New(diag.InvalidClassmap, diag.Span{File: file}, "unexpected entry in @classmap %s", name))
		}
	}

	if len(states) < MinStates || len(states) > MaxStates {
		h.Report(diag.New(diag.InvalidClassmap, diag.Span{File: file},
			"@classmap %s declares %d states, want %d..%d", name, len(states), MinStates, MaxStates))
		return nil
	}

	def := &Def{Name: name, States: states}
	for _, local := range staticLocal {
		def.Static = append(def.Static, resolve(local))
	}
	def.PerState = make([][]string, len(states))
	for i, locals := range perState {
		for _, local := range locals {
			def.PerState[i] = append(def.PerState[i], resolve(local))
		}
	}
	for _, group := range excludeGroups {
		var mask uint32
		ok := true
		for _, s := range group {
			i, found := stateIdx[s]
			if !found {
				h.Report(diag.New(diag.InvalidClassmap, diag.Span{File: file}, "@exclude references unknown state %q in @classmap %s", s, name))
				ok = false
				break
			}
			mask |= 1 << uint(i)
		}
		if ok {
			def.Excludes = append(def.Excludes, mask)
		}
	}
	return def
}

// Satisfied reports whether mask obeys every exclude constraint: for
// every exclude mask E, mask & E != E (spec §4.6 "Semantics").
func (d *Def) Satisfied(mask uint32) bool {
	for _, e := range d.Excludes {
		if mask&e == e {
			return false
		}
	}
	return true
}

// Classes returns the resolved global class names active for mask, static
// classes first, then each active state in index order.
func (d *Def) Classes(mask uint32) []string {
	out := append([]string{}, d.Static...)
	for i := range d.States {
		if mask&(1<<uint(i)) != 0 {
			out = append(out, d.PerState[i]...)
		}
	}
	return out
}

// Join implements the §4.6 join rule: an empty prefix is replaced outright
// by the new token; otherwise a single space separates them. The open
// question about a trailing-space variant is resolved against the spec's
// own recommendation — see DESIGN.md.
func Join(prefix, token string) string {
	if prefix == "" {
		return token
	}
	if token == "" {
		return prefix
	}
	return prefix + " " + token
}

func joinAll(tokens []string) string {
	out := ""
	for _, t := range tokens {
		out = Join(out, t)
	}
	return out
}

// Composed returns the whitespace-joined class string for mask, or "" if
// mask is unsatisfied.
func (d *Def) Composed(mask uint32) string {
	if !d.Satisfied(mask) {
		return ""
	}
	return joinAll(d.Classes(mask))
}

// Table emits the 2^N-entry lookup table described in spec §4.6's "Table"
// mode, ordered by mask value (bit i = state i active).
func (d *Def) Table() []string {
	n := len(d.States)
	out := make([]string, 1<<uint(n))
	for mask := range out {
		out[mask] = d.Composed(uint32(mask))
	}
	return out
}

// InlineExpr emits the nested-ternary expression described in spec §4.6's
// "Inline" mode, referencing each state by its declared name.
func (d *Def) InlineExpr() string {
	return gen(d, 0, joinAll(d.Static), 0)
}

func gen(d *Def, i int, prefix string, mask uint32) string {
	if i == len(d.States) {
		return fmt.Sprintf("%q", prefix)
	}
	j := -1
	for k := i; k < len(d.States); k++ {
		if d.Satisfied(mask | (1 << uint(k))) {
			j = k
			break
		}
	}
	if j == -1 {
		return fmt.Sprintf("%q", prefix)
	}
	truePrefix := prefix
	for _, c := range d.PerState[j] {
		truePrefix = Join(truePrefix, c)
	}
	trueBranch := gen(d, j+1, truePrefix, mask|(1<<uint(j)))
	falseBranch := gen(d, j+1, prefix, mask)
	return fmt.Sprintf("(%s ? %s : %s)", d.States[j], trueBranch, falseBranch)
}

func identAt(tokens []cssast.Token, n int) string {
	count := 0
	for _, t := range tokens {
		if t.Type == css.WhitespaceToken {
			continue
		}
		if count == n {
			return t.Data
		}
		count++
	}
	return ""
}

func identTexts(tokens []cssast.Token) []string {
	var out []string
	for _, t := range tokens {
		if t.Type == css.IdentToken {
			out = append(out, t.Data)
		}
	}
	return out
}

func filterAnd(idents []string) []string {
	out := idents[:0:0]
	for _, id := range idents {
		if strings.EqualFold(id, "and") {
			continue
		}
		out = append(out, id)
	}
	return out
}
