package constants

import (
	"testing"

	"github.com/standardbeagle/xiss/internal/cssast"
	"github.com/standardbeagle/xiss/internal/diag"
)

func TestCollect_RecordsDashedDeclarations(t *testing.T) {
	h := diag.NewHandler()
	ss := cssast.Parse("t.xiss", []byte(".a { --pad: 4px 8px; color: red; }"), h)
	if h.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", h.Diagnostics())
	}
	idx := NewIndex()
	idx.Collect(ss)

	toks, ok := idx.Lookup("--pad")
	if !ok {
		t.Fatal("expected --pad to be recorded")
	}
	if got := joinTokens(toks); got != "4px 8px" {
		t.Fatalf("unexpected value for --pad: %q", got)
	}
	if _, ok := idx.Lookup("--missing"); ok {
		t.Fatal("did not expect --missing to be recorded")
	}
	if _, ok := idx.Lookup("color"); ok {
		t.Fatal("non-dashed properties must not be recorded")
	}
}

func TestCollect_LastWriteWinsAcrossCalls(t *testing.T) {
	h := diag.NewHandler()
	idx := NewIndex()

	ss1 := cssast.Parse("a.xiss", []byte(":root { --pad: 4px; }"), h)
	idx.Collect(ss1)
	ss2 := cssast.Parse("b.xiss", []byte(":root { --pad: 8px; }"), h)
	idx.Collect(ss2)
	if h.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", h.Diagnostics())
	}

	toks, _ := idx.Lookup("--pad")
	if got := joinTokens(toks); got != "8px" {
		t.Fatalf("expected the later file to win, got %q", got)
	}
}

func TestCollect_NestedInAtRule(t *testing.T) {
	h := diag.NewHandler()
	ss := cssast.Parse("t.xiss", []byte(`@media screen { :root { --pad: 4px; } }`), h)
	if h.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", h.Diagnostics())
	}
	idx := NewIndex()
	idx.Collect(ss)
	if _, ok := idx.Lookup("--pad"); !ok {
		t.Fatal("expected --pad inside a nested at-rule to be recorded")
	}
}

func joinTokens(toks []cssast.Token) string {
	s := ""
	for _, t := range toks {
		s += t.Data
	}
	return s
}
