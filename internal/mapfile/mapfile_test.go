package mapfile

import (
	"strings"
	"testing"

	"github.com/standardbeagle/xiss/internal/idtypes"
)

func TestParseAll_DeltaEncoding(t *testing.T) {
	input := "C,foo,title,a\nC,foo,subtitle,b\nV,bar,pad,c\n"
	rows, err := ParseAll(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].ModuleID == nil || *rows[0].ModuleID != "foo" {
		t.Fatalf("first row must report explicit module, got %v", rows[0].ModuleID)
	}
	if rows[1].ModuleID != nil {
		t.Fatalf("second row (same module as previous) should be nil, got %v", *rows[1].ModuleID)
	}
	if rows[2].ModuleID == nil || *rows[2].ModuleID != "bar" {
		t.Fatalf("module change should report explicit module, got %v", rows[2].ModuleID)
	}
	if rows[0].Kind != idtypes.Class || rows[2].Kind != idtypes.Var {
		t.Fatalf("kind not parsed correctly: %+v %+v", rows[0], rows[2])
	}
}

func TestParseAll_InvalidKind(t *testing.T) {
	_, err := ParseAll(strings.NewReader("X,foo,title,a\n"))
	if err == nil {
		t.Fatal("expected error for invalid kind")
	}
	var ic *InvalidChar
	if !asInvalidChar(err, &ic) {
		t.Fatalf("expected *InvalidChar, got %v (%T)", err, err)
	}
}

func TestParseAll_UnexpectedEOL(t *testing.T) {
	_, err := ParseAll(strings.NewReader("C,foo,title"))
	if err == nil {
		t.Fatal("expected error for truncated row")
	}
}

func TestParseAll_NoTrailingNewlineStillParsesLastRow(t *testing.T) {
	rows, err := ParseAll(strings.NewReader("C,foo,title,a"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Global != "a" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestWriteRow_RoundTrips(t *testing.T) {
	var sb strings.Builder
	if err := WriteRow(&sb, idtypes.Class, "foo", "title", "a"); err != nil {
		t.Fatal(err)
	}
	rows, err := ParseAll(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Local != "title" || rows[0].Global != "a" {
		t.Fatalf("round trip mismatch: %+v", rows)
	}
}

func asInvalidChar(err error, target **InvalidChar) bool {
	if ic, ok := err.(*InvalidChar); ok {
		*target = ic
		return true
	}
	return false
}
