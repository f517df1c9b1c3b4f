package ident

// Set wraps a Generator with a hash set of every global id ever observed,
// guaranteeing uniqueness within one kind across all modules (invariant I2).
// Counter policy (spec §4.2): the counter is never rewound, including after
// Add — imported ids are only registered, never used to fast-forward the
// counter, so early draws after a large import will frequently collide and
// be skipped. That is an accepted cost, not a bug.
type Set struct {
	gen  *Generator
	seen map[string]struct{}
}

// NewSet creates an Identifier Set backed by the given exclude patterns.
func NewSet(excludePatterns []string) (*Set, error) {
	gen, err := NewGenerator(excludePatterns)
	if err != nil {
		return nil, err
	}
	return &Set{gen: gen, seen: make(map[string]struct{})}, nil
}

// Add registers an externally observed global id (used while importing a
// persistent map) so that subsequent Next calls do not re-mint it.
func (s *Set) Add(id string) {
	s.seen[id] = struct{}{}
}

// Contains reports whether id has already been seen, whether via Add or a
// prior Next.
func (s *Set) Contains(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// Clone returns a Set with an independent seen-set, so mutations to the
// clone (e.g. via Add while speculatively importing) cannot leak back into
// the original until explicitly adopted. The generator is shared: Clone is
// only ever used on a copy that takes over from the original (or is
// discarded), never alongside it, so there is no concurrent-Next hazard.
func (s *Set) Clone() *Set {
	seen := make(map[string]struct{}, len(s.seen))
	for id := range s.seen {
		seen[id] = struct{}{}
	}
	return &Set{gen: s.gen, seen: seen}
}

// Next draws a fresh, previously-unseen, non-excluded global id and
// registers it as seen before returning it.
func (s *Set) Next() string {
	for {
		candidate := s.gen.next()
		if _, ok := s.seen[candidate]; ok {
			continue
		}
		s.seen[candidate] = struct{}{}
		return candidate
	}
}
