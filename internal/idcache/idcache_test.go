package idcache

import (
	"path/filepath"
	"testing"
)

func TestUnchanged_UnseenModuleIsAlwaysChanged(t *testing.T) {
	c := New()
	if c.Unchanged("foo", []byte("a")) {
		t.Fatal("a module never recorded must report changed")
	}
}

func TestUnchanged_TracksContentHash(t *testing.T) {
	c := New()
	c.Record("foo", []byte(".a{color:red}"))
	if !c.Unchanged("foo", []byte(".a{color:red}")) {
		t.Fatal("identical content should report unchanged")
	}
	if c.Unchanged("foo", []byte(".a{color:blue}")) {
		t.Fatal("different content should report changed")
	}
}

func TestSaveLoad_RoundTrips(t *testing.T) {
	c := New()
	c.Record("foo", []byte("one"))
	c.Record("bar/baz", []byte("two"))

	path := filepath.Join(t.TempDir(), "cache")
	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}

	c2, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c2.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c2.Len())
	}
	if !c2.Unchanged("foo", []byte("one")) || !c2.Unchanged("bar/baz", []byte("two")) {
		t.Fatal("reloaded cache should agree with the saved one")
	}
}

func TestLoad_MissingFileIsEmptyCache(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected an empty cache, got %d entries", c.Len())
	}
}
