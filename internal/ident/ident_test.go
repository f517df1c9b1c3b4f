package ident

import "testing"

func TestGenerator_ExcludesSkipped(t *testing.T) {
	g, err := NewGenerator([]string{"^ad"})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 500; i++ {
		word := g.next()
		if g.excluded(word) {
			t.Fatalf("next() returned excluded candidate %q", word)
		}
	}
}

func TestGenerator_InvalidPattern(t *testing.T) {
	if _, err := NewGenerator([]string{"("}); err == nil {
		t.Fatal("expected error for invalid regex")
	}
}

func TestSet_NoDuplicatesAfterAdd(t *testing.T) {
	s, err := NewSet(nil)
	if err != nil {
		t.Fatal(err)
	}
	s.Add("a")
	s.Add("b")
	got := s.Next()
	if got == "a" || got == "b" {
		t.Fatalf("Next() returned already-added id %q", got)
	}
}

func TestSet_NextNeverRepeats(t *testing.T) {
	s, err := NewSet(nil)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := s.Next()
		if seen[id] {
			t.Fatalf("Next() repeated id %q", id)
		}
		seen[id] = true
	}
}

func TestSet_CounterNotRewoundAfterImport(t *testing.T) {
	s, err := NewSet(nil)
	if err != nil {
		t.Fatal(err)
	}
	// Simulate importing a large prior map: every short word already taken.
	for i := uint64(0); i < 200; i++ {
		s.Add(wordAt(i))
	}
	// The generator's internal counter still starts at 0, so early draws
	// collide with the imported set and are skipped rather than returned.
	id := s.Next()
	if s.gen.counter <= 200 {
		t.Fatalf("expected counter to advance past imported range, got %d", s.gen.counter)
	}
	if id == "" {
		t.Fatal("expected a fresh id")
	}
}

func wordAt(i uint64) string {
	g := &Generator{}
	return g.next2(i)
}

// next2 is a tiny test helper exposing deterministic word-at-index without
// consuming the real counter semantics under test above.
func (g *Generator) next2(i uint64) string {
	g.counter = i
	return g.next()
}
