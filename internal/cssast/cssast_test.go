package cssast

import (
	"strings"
	"testing"

	"github.com/standardbeagle/xiss/internal/diag"
)

func parseClean(t *testing.T, src string) *Stylesheet {
	t.Helper()
	h := diag.NewHandler()
	ss := Parse("t.xiss", []byte(src), h)
	if h.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", h.Diagnostics())
	}
	return ss
}

func TestParse_SimpleRule(t *testing.T) {
	ss := parseClean(t, ".title { color: red; }")
	if len(ss.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(ss.Rules))
	}
	rule, ok := ss.Rules[0].(*StyleRule)
	if !ok {
		t.Fatalf("expected *StyleRule, got %T", ss.Rules[0])
	}
	if tokenJoin(rule.Prelude) != ".title" {
		t.Fatalf("unexpected prelude: %q", tokenJoin(rule.Prelude))
	}
	if len(rule.Body) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(rule.Body))
	}
	decl, ok := rule.Body[0].(*Declaration)
	if !ok {
		t.Fatalf("expected *Declaration, got %T", rule.Body[0])
	}
	if decl.Property.Data != "color" || tokenJoin(decl.Value) != "red" {
		t.Fatalf("unexpected declaration: %q: %q", decl.Property.Data, tokenJoin(decl.Value))
	}
}

func TestParse_AtRuleWithSemicolon(t *testing.T) {
	ss := parseClean(t, `@extern class title as t from "foo";`)
	if len(ss.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(ss.Rules))
	}
	at, ok := ss.Rules[0].(*AtRule)
	if !ok {
		t.Fatalf("expected *AtRule, got %T", ss.Rules[0])
	}
	if at.Name != "extern" || at.HasBody {
		t.Fatalf("unexpected at-rule: %+v", at)
	}
}

func TestParse_NestedKeyframes(t *testing.T) {
	ss := parseClean(t, "@keyframes spin { 0% { opacity: 0; } 100% { opacity: 1; } }")
	at := ss.Rules[0].(*AtRule)
	if at.Name != "keyframes" || !at.HasBody {
		t.Fatalf("unexpected keyframes at-rule: %+v", at)
	}
	if len(at.Body) != 2 {
		t.Fatalf("expected 2 frame rules, got %d", len(at.Body))
	}
}

func TestSerialize_RoundTripsStructure(t *testing.T) {
	ss := parseClean(t, ".a { color: red; } @media screen { .b { color: blue; } }")
	out := string(Serialize(ss))
	if !strings.Contains(out, ".a{color:red;}") {
		t.Fatalf("missing rule .a in output: %q", out)
	}
	if !strings.Contains(out, "@media screen{") {
		t.Fatalf("missing @media in output: %q", out)
	}
}

func TestParse_DashedValueDeclaration(t *testing.T) {
	ss := parseClean(t, ".a { --pad: 4px 8px; padding: const(--pad); }")
	rule := ss.Rules[0].(*StyleRule)
	if len(rule.Body) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(rule.Body))
	}
	d0 := rule.Body[0].(*Declaration)
	if d0.Property.Data != "--pad" || tokenJoin(d0.Value) != "4px 8px" {
		t.Fatalf("unexpected first declaration: %q = %q", d0.Property.Data, tokenJoin(d0.Value))
	}
	d1 := rule.Body[1].(*Declaration)
	if tokenJoin(d1.Value) != "const(--pad)" {
		t.Fatalf("unexpected const() value: %q", tokenJoin(d1.Value))
	}
}

func TestParse_VarFunctionValueDoesNotOverconsume(t *testing.T) {
	ss := parseClean(t, ".a { color: var(--fg); } .b { color: blue; }")
	if len(ss.Rules) != 2 {
		t.Fatalf("expected 2 top-level rules, got %d", len(ss.Rules))
	}
	a := ss.Rules[0].(*StyleRule)
	decl := a.Body[0].(*Declaration)
	if tokenJoin(decl.Value) != "var(--fg)" {
		t.Fatalf("unexpected var() value: %q", tokenJoin(decl.Value))
	}
	b := ss.Rules[1].(*StyleRule)
	if tokenJoin(b.Prelude) != ".b" {
		t.Fatalf("second rule misparsed, got prelude %q", tokenJoin(b.Prelude))
	}
}

func TestParse_PseudoClassSelectorIsNotADeclaration(t *testing.T) {
	ss := parseClean(t, ".btn:hover { color: red; }")
	if len(ss.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(ss.Rules))
	}
	rule, ok := ss.Rules[0].(*StyleRule)
	if !ok {
		t.Fatalf("expected *StyleRule, got %T", ss.Rules[0])
	}
	if tokenJoin(rule.Prelude) != ".btn:hover" {
		t.Fatalf("unexpected prelude: %q", tokenJoin(rule.Prelude))
	}
}

func TestParse_PseudoElementSelectorIsNotADeclaration(t *testing.T) {
	ss := parseClean(t, ".x::before { content: \"\"; }")
	rule, ok := ss.Rules[0].(*StyleRule)
	if !ok {
		t.Fatalf("expected *StyleRule, got %T", ss.Rules[0])
	}
	if tokenJoin(rule.Prelude) != ".x::before" {
		t.Fatalf("unexpected prelude: %q", tokenJoin(rule.Prelude))
	}
	if len(rule.Body) != 1 {
		t.Fatalf("expected 1 declaration in body, got %d", len(rule.Body))
	}
}

func TestParse_DeclarationWithoutTrailingSemicolon(t *testing.T) {
	ss := parseClean(t, ".a { color: red }")
	rule := ss.Rules[0].(*StyleRule)
	if len(rule.Body) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(rule.Body))
	}
	decl := rule.Body[0].(*Declaration)
	if decl.Property.Data != "color" || tokenJoin(decl.Value) != "red" {
		t.Fatalf("unexpected declaration: %q: %q", decl.Property.Data, tokenJoin(decl.Value))
	}
}
