// Package compiler implements the Module Compiler (spec §4.7): the
// mutating visitor that walks one module's parsed stylesheet, rewrites
// local class/var/keyframes names to their global equivalents via the
// Global Map, resolves `@extern` imports and `@classmap` definitions, and
// emits the module's CSS/JS/TS artifacts. Grounded on the AST-visitor
// note in spec §9 (a recursive pattern match plus a visit_children
// helper, no visitor-class hierarchy) and on the teacher's style of
// collecting multiple errors into one handler before deciding success or
// failure (internal/errors' multi-error pattern), adapted to
// internal/diag's per-compilation Handler.
package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/standardbeagle/xiss/internal/classmap"
	"github.com/standardbeagle/xiss/internal/constants"
	"github.com/standardbeagle/xiss/internal/cssast"
	"github.com/standardbeagle/xiss/internal/diag"
	"github.com/standardbeagle/xiss/internal/globalmap"
	"github.com/standardbeagle/xiss/internal/idtypes"
	"github.com/tdewolff/parse/v2/css"
)

// ClassmapMode selects the emission strategy from spec §4.6.
type ClassmapMode int

const (
	ModeInline ClassmapMode = iota
	ModeTable
)

// Artifacts holds the three UTF-8 text outputs spec §4.7 step 4 produces
// for one module. Only populated when Result.Failed is false.
type Artifacts struct {
	CSS string
	JS  string
	TS  string
}

// Result is the outcome of compiling one module.
type Result struct {
	Failed      bool
	Diagnostics []diag.Diagnostic
	Artifacts   Artifacts
}

// externBinding is a local name bound, via @extern, to another module's
// global id.
type externBinding struct {
	kind   idtypes.IdKind
	module string
	remote string // NAME in the other module
}

// compiler holds the per-compilation state threaded through the visit —
// the handler, the current module, and anything @extern/@classmap
// accumulate along the way. One compiler is used for exactly one module
// (spec §5: "Diagnostics accumulate in a per-compilation handler that is
// likewise not shared").
type compiler struct {
	file      string
	gmap      *globalmap.GlobalMap
	module    *idtypes.Module
	constants *constants.Index
	mode      ClassmapMode
	handler   *diag.Handler

	externs      map[string]externBinding // local name -> binding, class/var/keyframes share no namespace but local names rarely collide across kinds
	externByKind map[idtypes.IdKind]map[string]externBinding
	classmaps    []*classmap.Def
	localKF      map[string]string // local keyframes name -> global name, this module only
	sawKeyframes bool
}

// Compile runs the full spec §4.7 pipeline over src for the module
// identified by moduleID, using gmap for identifier resolution and
// consts for constant inlining.
func Compile(file, moduleID string, src []byte, gmap *globalmap.GlobalMap, consts *constants.Index, mode ClassmapMode) Result {
	h := diag.NewHandler()
	ss := cssast.Parse(file, src, h)

	c := &compiler{
		file:         file,
		gmap:         gmap,
		module:       gmap.ModuleByIndex(gmap.GetModuleIndex(moduleID)),
		constants:    consts,
		mode:         mode,
		handler:      h,
		externs:      make(map[string]externBinding),
		externByKind: make(map[idtypes.IdKind]map[string]externBinding),
		localKF:      make(map[string]string),
	}
	for _, k := range []idtypes.IdKind{idtypes.Class, idtypes.Var, idtypes.Keyframes} {
		c.externByKind[k] = make(map[string]externBinding)
	}

	c.inlineConstants(ss.Rules)
	top := c.visitTopLevel(ss.Rules)
	if c.sawKeyframes {
		c.rewriteAnimationPostPass(top)
	}

	if h.HasErrors() {
		return Result{Failed: true, Diagnostics: h.Diagnostics()}
	}

	out := &cssast.Stylesheet{Rules: top}
	return Result{
		Diagnostics: h.Diagnostics(),
		Artifacts: Artifacts{
			CSS: string(cssast.Serialize(out)),
			JS:  c.emitJS(),
			TS:  c.emitTS(moduleID),
		},
	}
}

// inlineConstants is spec §4.7 step 1: every const(--X) call in a
// declaration value is replaced by --X's bound token sequence before any
// other rewriting happens.
func (c *compiler) inlineConstants(nodes []cssast.Node) {
	for _, n := range nodes {
		switch v := n.(type) {
		case *cssast.Declaration:
			v.Value = c.inlineConstTokens(v.Value)
		case *cssast.StyleRule:
			c.inlineConstants(v.Body)
		case *cssast.AtRule:
			c.inlineConstants(v.Body)
		}
	}
}

func (c *compiler) inlineConstTokens(tokens []cssast.Token) []cssast.Token {
	var out []cssast.Token
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.Type == css.FunctionToken && strings.EqualFold(strings.TrimSuffix(t.Data, "("), "const") {
			arg, consumed, ok := readSingleArg(tokens[i+1:])
			if !ok {
				c.handler.Report(diag.New(diag.InvalidConstArgument, diag.Span{File: c.file}, "Invalid function argument in const(...)"))
				i += consumed
				continue
			}
			if !isDashedIdent(arg) {
				c.handler.Report(diag.New(diag.InvalidConstArgument, diag.Span{File: c.file}, "Invalid function argument %q", arg))
				i += consumed
				continue
			}
			bound, found := c.constants.Lookup(arg)
			if !found {
				c.handler.Report(diag.New(diag.MissingConstValue, diag.Span{File: c.file}, "Cannot find a const value '%s'", arg))
				i += consumed
				continue
			}
			out = append(out, bound...)
			i += consumed
			continue
		}
		out = append(out, t)
	}
	return out
}

// readSingleArg reads the single identifier argument of a const(...) call
// out of the tokens following the FunctionToken, consuming through the
// matching RightParenthesisToken. Returns the identifier text (or "" with
// ok=false on malformed input) and how many tokens were consumed.
func readSingleArg(rest []cssast.Token) (string, int, bool) {
	var arg string
	argSeen := false
	for i, t := range rest {
		switch t.Type {
		case css.WhitespaceToken:
			continue
		case css.RightParenthesisToken:
			if !argSeen {
				return "", i + 1, false
			}
			return arg, i + 1, true
		case css.IdentToken:
			if argSeen {
				return "", i + 1, false
			}
			arg = t.Data
			argSeen = true
		default:
			return "", i + 1, false
		}
	}
	return "", len(rest), false
}

func isDashedIdent(s string) bool {
	return len(s) > 2 && s[0] == '-' && s[1] == '-'
}

// visitTopLevel is spec §4.7 steps 2 and 3: at the root rule list,
// @extern and @classmap are consumed and dropped; every other rule is
// rewritten in place and kept.
func (c *compiler) visitTopLevel(nodes []cssast.Node) []cssast.Node {
	var out []cssast.Node
	for _, n := range nodes {
		switch v := n.(type) {
		case *cssast.AtRule:
			switch v.Name {
			case "extern":
				c.handleExtern(v)
				continue
			case "classmap":
				c.handleClassmap(v)
				continue
			case "keyframes":
				out = append(out, c.visitKeyframes(v))
				continue
			}
			out = append(out, c.visitGeneric(v))
		case *cssast.StyleRule:
			out = append(out, c.visitStyleRule(v))
		default:
			out = append(out, n)
		}
	}
	return out
}

func (c *compiler) visitGeneric(n cssast.Node) cssast.Node {
	switch v := n.(type) {
	case *cssast.AtRule:
		if v.Name == "keyframes" {
			return c.visitKeyframes(v)
		}
		v.Body = c.visitChildren(v.Body)
		return v
	case *cssast.StyleRule:
		return c.visitStyleRule(v)
	default:
		return n
	}
}

func (c *compiler) visitChildren(nodes []cssast.Node) []cssast.Node {
	out := make([]cssast.Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, c.visitGeneric(n))
	}
	return out
}

// visitStyleRule rewrites class selectors in the prelude and recurses
// into the body (spec §4.7 step 2, bullet 1; step 3's "all other rules").
func (c *compiler) visitStyleRule(rule *cssast.StyleRule) *cssast.StyleRule {
	rule.Prelude = c.rewriteSelectorTokens(rule.Prelude)
	var body []cssast.Node
	for _, n := range rule.Body {
		switch v := n.(type) {
		case *cssast.Declaration:
			body = append(body, c.visitDeclaration(v))
		default:
			body = append(body, c.visitGeneric(n))
		}
	}
	rule.Body = body
	return rule
}

// rewriteSelectorTokens rewrites every `.foo` class-selector token to
// `.G`, leaving all other selector tokens untouched.
func (c *compiler) rewriteSelectorTokens(tokens []cssast.Token) []cssast.Token {
	out := make([]cssast.Token, len(tokens))
	copy(out, tokens)
	for i := 0; i < len(out); i++ {
		if out[i].Type == css.DelimToken && out[i].Data == "." && i+1 < len(out) && out[i+1].Type == css.IdentToken {
			local := out[i+1].Data
			global := c.getID(idtypes.Class, local)
			out[i+1] = cssast.Token{Type: css.IdentToken, Data: global}
		}
	}
	return out
}

// visitDeclaration rewrites dashed identifiers used as property name or
// in the value (spec §4.7 step 2, bullet 2).
func (c *compiler) visitDeclaration(d *cssast.Declaration) *cssast.Declaration {
	if isDashedIdent(d.Property.Data) {
		global := c.getID(idtypes.Var, d.Property.Data[2:])
		d.Property = cssast.Token{Type: d.Property.Type, Data: "--" + global}
	}
	for i, t := range d.Value {
		if t.Type == css.IdentToken && isDashedIdent(t.Data) {
			global := c.getID(idtypes.Var, t.Data[2:])
			d.Value[i] = cssast.Token{Type: t.Type, Data: "--" + global}
		}
	}
	return d
}

// visitKeyframes rewrites a @keyframes custom-ident (spec §4.7 step 2,
// bullet 3) and records the local->global mapping for the animation
// post-pass. String-form keyframe names are left alone.
func (c *compiler) visitKeyframes(rule *cssast.AtRule) *cssast.AtRule {
	c.sawKeyframes = true
	name := strings.TrimSpace(cssPreludeText(rule.Prelude))
	if isIdentPrelude(rule.Prelude) {
		global := c.getID(idtypes.Keyframes, name)
		c.localKF[name] = global
		rule.Prelude = []cssast.Token{{Type: css.IdentToken, Data: global}}
	}
	rule.Body = c.visitChildren(rule.Body)
	return rule
}

func isIdentPrelude(tokens []cssast.Token) bool {
	n := 0
	for _, t := range tokens {
		if t.Type == css.WhitespaceToken {
			continue
		}
		n++
		if t.Type != css.IdentToken {
			return false
		}
	}
	return n == 1
}

func cssPreludeText(tokens []cssast.Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Data)
	}
	return b.String()
}

// rewriteAnimationPostPass is spec §4.7 step 2's post-pass: any bare
// identifier in an `animation` declaration's value that names a local
// keyframe is rewritten to its global name.
func (c *compiler) rewriteAnimationPostPass(nodes []cssast.Node) {
	for _, n := range nodes {
		switch v := n.(type) {
		case *cssast.StyleRule:
			for _, b := range v.Body {
				if d, ok := b.(*cssast.Declaration); ok {
					c.rewriteAnimationDecl(d)
				}
			}
			c.rewriteAnimationPostPass(v.Body)
		case *cssast.AtRule:
			c.rewriteAnimationPostPass(v.Body)
		}
	}
}

func (c *compiler) rewriteAnimationDecl(d *cssast.Declaration) {
	if !strings.EqualFold(d.Property.Data, "animation") && !strings.EqualFold(d.Property.Data, "animation-name") {
		return
	}
	for i, t := range d.Value {
		if t.Type != css.IdentToken {
			continue
		}
		if global, ok := c.localKF[t.Data]; ok {
			d.Value[i] = cssast.Token{Type: t.Type, Data: global}
		}
	}
}

// handleExtern is spec §4.7 step 3's @extern handling.
func (c *compiler) handleExtern(rule *cssast.AtRule) {
	ids := identTextsAll(rule.Prelude)
	kindTok, localName, moduleName, ok := parseExtern(rule.Prelude)
	if !ok {
		c.handler.Report(diag.New(diag.InvalidExtern, diag.Span{File: c.file}, "malformed @extern %s", strings.Join(ids, " ")))
		return
	}
	kind, found := idtypes.KindFromWord(kindTok)
	if !found {
		c.handler.Report(diag.New(diag.InvalidExtern, diag.Span{File: c.file}, "unknown @extern kind %q", kindTok))
		return
	}
	remoteIdx := c.gmap.GetModuleIndex(moduleName)
	remoteModule := c.gmap.ModuleByIndex(remoteIdx)
	id, already := remoteModule.Lookup(kind, localName.remote)
	if !already {
		id = c.gmap.GetID(remoteIdx, kind, localName.remote)
	}
	binding := externBinding{kind: kind, module: moduleName, remote: localName.remote}
	c.externs[localName.local] = binding
	c.externByKind[kind][localName.local] = binding
	if kind == idtypes.Keyframes {
		c.localKF[localName.local] = id.Global
	}
}

type externLocal struct{ local, remote string }

// parseExtern reads `(class|var|keyframes) NAME [as LOCAL] from "MODULE"`
// out of an @extern at-rule's prelude tokens.
func parseExtern(tokens []cssast.Token) (kind string, names externLocal, module string, ok bool) {
	idents := filteredIdents(tokens)
	str := firstString(tokens)
	if len(idents) < 2 || str == "" {
		return "", externLocal{}, "", false
	}
	kind = idents[0]
	remote := idents[1]
	local := remote
	if len(idents) >= 4 && strings.EqualFold(idents[2], "as") {
		local = idents[3]
	}
	return kind, externLocal{local: local, remote: remote}, str, true
}

func filteredIdents(tokens []cssast.Token) []string {
	var out []string
	for _, t := range tokens {
		if t.Type == css.IdentToken {
			out = append(out, t.Data)
		}
	}
	return out
}

func identTextsAll(tokens []cssast.Token) []string { return filteredIdents(tokens) }

func firstString(tokens []cssast.Token) string {
	for _, t := range tokens {
		if t.Type == css.StringToken {
			return unquote(t.Data)
		}
	}
	return ""
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

// handleClassmap is spec §4.7 step 3's @classmap handling.
func (c *compiler) handleClassmap(rule *cssast.AtRule) {
	def := classmap.Parse(c.file, rule, func(local string) string {
		return c.getID(idtypes.Class, local)
	}, c.handler)
	if def != nil {
		c.classmaps = append(c.classmaps, def)
	}
}

// getID resolves a local name through an @extern binding first, falling
// back to the current module's own Global Map entry.
func (c *compiler) getID(kind idtypes.IdKind, local string) string {
	if b, ok := c.externByKind[kind][local]; ok {
		idx := c.gmap.GetModuleIndex(b.module)
		id := c.gmap.GetID(idx, kind, b.remote)
		return id.Global
	}
	return c.gmap.GetID(c.module.Index, kind, local).Global
}

// emitJS renders one runtime function per class-map, in the mode chosen
// by configuration (spec §4.7 step 4, JS artifact).
func (c *compiler) emitJS() string {
	var b strings.Builder
	for _, def := range c.classmaps {
		b.WriteString(emitJSFunction(def, c.mode))
		b.WriteByte('\n')
	}
	return b.String()
}

func emitJSFunction(def *classmap.Def, mode ClassmapMode) string {
	params := strings.Join(def.States, ", ")
	var b strings.Builder
	fmt.Fprintf(&b, "// %s\n", def.Name)
	if mode == ModeTable {
		table := def.Table()
		fmt.Fprintf(&b, "const __CLASS_MAP_%s = [", def.Name)
		for i, entry := range table {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%q", entry)
		}
		b.WriteString("];\n")
		fmt.Fprintf(&b, "export function %s(%s) {\n", def.Name, params)
		fmt.Fprintf(&b, "  return __CLASS_MAP_%s[%s];\n", def.Name, indexExpr(def.States))
		b.WriteString("}\n")
		return b.String()
	}
	fmt.Fprintf(&b, "export function %s(%s) {\n", def.Name, params)
	fmt.Fprintf(&b, "  return %s;\n", def.InlineExpr())
	b.WriteString("}\n")
	return b.String()
}

func indexExpr(states []string) string {
	var parts []string
	for i, s := range states {
		parts = append(parts, fmt.Sprintf("(%s?%d:0)", s, 1<<uint(i)))
	}
	return strings.Join(parts, " | ")
}

// emitTS renders the three frozen string enumerations plus class-map type
// signatures (spec §4.7 step 4, TS artifact).
func (c *compiler) emitTS(moduleID string) string {
	var b strings.Builder
	c.emitEnum(&b, "Classes", idtypes.Class)
	c.emitEnum(&b, "Vars", idtypes.Var)
	c.emitEnum(&b, "Keyframes", idtypes.Keyframes)
	for _, def := range c.classmaps {
		fmt.Fprintf(&b, "/** %s */\n", def.Name)
		fmt.Fprintf(&b, "export declare function %s(%s): string;\n", def.Name, paramSignature(def.States))
	}
	_ = moduleID
	return b.String()
}

func paramSignature(states []string) string {
	var parts []string
	for _, s := range states {
		parts = append(parts, s+": boolean")
	}
	return strings.Join(parts, ", ")
}

func (c *compiler) emitEnum(b *strings.Builder, enumName string, kind idtypes.IdKind) {
	var entries []enumEntry
	for local, id := range c.module.All(kind) {
		entries = append(entries, enumEntry{local: local, global: id.Global})
	}
	for local, binding := range c.externByKind[kind] {
		id, _ := c.gmap.ModuleByIndex(c.gmap.GetModuleIndex(binding.module)).Lookup(kind, binding.remote)
		entries = append(entries, enumEntry{local: local, global: id.Global, externModule: binding.module, externRemote: binding.remote})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].local < entries[j].local })

	fmt.Fprintf(b, "export enum %s {\n", enumName)
	for _, e := range entries {
		if e.externModule != "" {
			if e.externRemote != e.local {
				fmt.Fprintf(b, "  /** extern from %q as %s */\n", e.externModule, e.externRemote)
			} else {
				fmt.Fprintf(b, "  /** extern from %q */\n", e.externModule)
			}
		}
		fmt.Fprintf(b, "  %s = %q,\n", e.local, e.global)
	}
	b.WriteString("}\n")
}

type enumEntry struct {
	local, global              string
	externModule, externRemote string
}
