package globalmap

import (
	"bytes"
	"strings"
	"testing"

	"github.com/standardbeagle/xiss/internal/idtypes"
)

func TestGetID_FirstCompileOfModule(t *testing.T) {
	gm, err := New(ExcludePatterns{})
	if err != nil {
		t.Fatal(err)
	}
	idx := gm.GetModuleIndex("foo")
	id := gm.GetID(idx, idtypes.Class, "title")
	if id.Global != "a" {
		t.Fatalf("first class id should be %q, got %q", "a", id.Global)
	}

	var buf bytes.Buffer
	if err := gm.FlushNewIds(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "C,foo,title,a\n" {
		t.Fatalf("unexpected flushed buffer: %q", buf.String())
	}
}

func TestGetID_SecondCompileReusesExistingMapping(t *testing.T) {
	gm, err := New(ExcludePatterns{})
	if err != nil {
		t.Fatal(err)
	}
	if err := gm.Import(strings.NewReader("C,foo,title,a\n")); err != nil {
		t.Fatal(err)
	}
	idx := gm.GetModuleIndex("foo")
	if got := gm.GetID(idx, idtypes.Class, "title"); got.Global != "a" {
		t.Fatalf("title should still map to a, got %q", got.Global)
	}
	sub := gm.GetID(idx, idtypes.Class, "subtitle")
	if sub.Global == "a" {
		t.Fatalf("subtitle got the same id as title: %q", sub.Global)
	}

	var buf bytes.Buffer
	if err := gm.FlushNewIds(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "C,foo,subtitle,"+sub.Global+"\n" {
		t.Fatalf("only the new subtitle row should be pending: %q", buf.String())
	}
}

func TestImport_DuplicateEntryFails(t *testing.T) {
	gm, err := New(ExcludePatterns{})
	if err != nil {
		t.Fatal(err)
	}
	err = gm.Import(strings.NewReader("C,foo,title,a\nC,foo,title,b\n"))
	if err == nil {
		t.Fatal("expected DuplicateEntry")
	}
	if _, ok := err.(*DuplicateEntry); !ok {
		t.Fatalf("expected *DuplicateEntry, got %T: %v", err, err)
	}
}

func TestImport_FailurePartwayThroughLeavesSetsUnchanged(t *testing.T) {
	gm, err := New(ExcludePatterns{})
	if err != nil {
		t.Fatal(err)
	}
	// "a" is registered before the duplicate row that aborts the import;
	// if the set retained it, the next mint would skip straight to "b".
	err = gm.Import(strings.NewReader("C,foo,x,a\nC,foo,x,b\n"))
	if _, ok := err.(*DuplicateEntry); !ok {
		t.Fatalf("expected *DuplicateEntry, got %T: %v", err, err)
	}

	idx := gm.GetModuleIndex("bar")
	id := gm.GetID(idx, idtypes.Class, "title")
	if id.Global != "a" {
		t.Fatalf("a failed Import must not have registered %q into the live class set; minted %q instead of \"a\"", "a", id.Global)
	}
}

func TestRoundTrip_ImportedMapMatchesOriginal(t *testing.T) {
	gm, err := New(ExcludePatterns{})
	if err != nil {
		t.Fatal(err)
	}
	fooIdx := gm.GetModuleIndex("foo")
	gm.GetID(fooIdx, idtypes.Class, "title")
	gm.GetID(fooIdx, idtypes.Var, "pad")
	barIdx := gm.GetModuleIndex("bar")
	gm.GetID(barIdx, idtypes.Keyframes, "spin")

	var buf bytes.Buffer
	if err := gm.FlushNewIds(&buf); err != nil {
		t.Fatal(err)
	}

	gm2, err := New(ExcludePatterns{})
	if err != nil {
		t.Fatal(err)
	}
	if err := gm2.Import(strings.NewReader(buf.String())); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		module string
		kind   idtypes.IdKind
		local  string
	}{
		{"foo", idtypes.Class, "title"},
		{"foo", idtypes.Var, "pad"},
		{"bar", idtypes.Keyframes, "spin"},
	} {
		idx1 := gm.GetModuleIndex(tc.module)
		idx2 := gm2.GetModuleIndex(tc.module)
		id1 := gm.GetID(idx1, tc.kind, tc.local)
		id2 := gm2.GetID(idx2, tc.kind, tc.local)
		if id1.Global != id2.Global {
			t.Fatalf("%s/%s/%s: original=%q reimported=%q", tc.module, tc.kind, tc.local, id1.Global, id2.Global)
		}
	}
	if gm2.PendingLen() != 0 {
		t.Fatalf("re-requesting known ids must not append new rows, pending=%d", gm2.PendingLen())
	}
}

func TestFlushNewIds_ClearsBufferOnlyAfterWrite(t *testing.T) {
	gm, err := New(ExcludePatterns{})
	if err != nil {
		t.Fatal(err)
	}
	idx := gm.GetModuleIndex("foo")
	gm.GetID(idx, idtypes.Class, "title")
	if gm.PendingLen() == 0 {
		t.Fatal("expected a pending row before flush")
	}
	var buf bytes.Buffer
	if err := gm.FlushNewIds(&buf); err != nil {
		t.Fatal(err)
	}
	if gm.PendingLen() != 0 {
		t.Fatal("pending buffer should be empty after a successful flush")
	}
}
