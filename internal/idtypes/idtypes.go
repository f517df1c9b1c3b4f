// Package idtypes holds the data model shared by the identifier allocator,
// the persistent map, and the module compiler: the three-valued IdKind tag,
// the immutable Id record, and the per-module scope tables.
package idtypes

// IdKind tags which local-name namespace an Id belongs to. The three kinds
// never share a namespace: a class "foo" and a var "foo" coexist.
type IdKind uint8

const (
	Class IdKind = iota
	Var
	Keyframes
)

// String renders the kind as its source-text word ("class", "var",
// "keyframes"); the CSV map format uses Letter instead.
func (k IdKind) String() string {
	switch k {
	case Class:
		return "class"
	case Var:
		return "var"
	case Keyframes:
		return "keyframes"
	default:
		return "unknown"
	}
}

// Letter is the single-character CSV tag for the kind (C, V, K).
func (k IdKind) Letter() byte {
	switch k {
	case Class:
		return 'C'
	case Var:
		return 'V'
	case Keyframes:
		return 'K'
	default:
		return '?'
	}
}

// KindFromLetter parses a CSV kind tag back into an IdKind.
func KindFromLetter(b byte) (IdKind, bool) {
	switch b {
	case 'C':
		return Class, true
	case 'V':
		return Var, true
	case 'K':
		return Keyframes, true
	default:
		return 0, false
	}
}

// KindFromWord parses the word form used in source text (e.g. the
// `(class|var|keyframes)` alternative in an `@extern` at-rule, spec §4.7
// step 3) back into an IdKind.
func KindFromWord(word string) (IdKind, bool) {
	switch word {
	case "class":
		return Class, true
	case "var":
		return Var, true
	case "keyframes":
		return Keyframes, true
	default:
		return 0, false
	}
}

// ModuleIndex is a dense handle into a GlobalMap's module table. Indices are
// never reused (invariant I1).
type ModuleIndex uint32

// Id is an immutable record binding a module-local name to a globally unique
// short name. Once inserted into a GlobalMap, an Id is never mutated.
type Id struct {
	Kind        IdKind
	ModuleIndex ModuleIndex
	Local       string
	Global      string
}

// Module is a compilation unit: a dense index into the global module table
// and three sibling local-id-to-Id maps, one per kind (invariant I3: unique
// local per (module, kind)).
type Module struct {
	ModuleID  string
	Index     ModuleIndex
	Classes   map[string]Id
	Vars      map[string]Id
	Keyframes map[string]Id
}

// NewModule creates an empty Module record for the given id and index.
func NewModule(moduleID string, index ModuleIndex) *Module {
	return &Module{
		ModuleID:  moduleID,
		Index:     index,
		Classes:   make(map[string]Id),
		Vars:      make(map[string]Id),
		Keyframes: make(map[string]Id),
	}
}

// subMap returns the per-kind local->Id table, or nil for an invalid kind.
func (m *Module) subMap(kind IdKind) map[string]Id {
	switch kind {
	case Class:
		return m.Classes
	case Var:
		return m.Vars
	case Keyframes:
		return m.Keyframes
	default:
		return nil
	}
}

// Lookup returns the Id already bound to local within this module for kind,
// if any.
func (m *Module) Lookup(kind IdKind, local string) (Id, bool) {
	sub := m.subMap(kind)
	if sub == nil {
		return Id{}, false
	}
	id, ok := sub[local]
	return id, ok
}

// All returns the kind's local->Id table directly, for callers (TS
// enumeration emission) that need to range over every entry of one kind.
func (m *Module) All(kind IdKind) map[string]Id {
	return m.subMap(kind)
}

// Insert records a freshly minted Id in the module's sub-map for its kind.
// Callers must have already verified the local name is not already bound
// (invariant I3); Insert itself does not check, since both of its callers
// (GlobalMap.GetID and GlobalMap.Import) look the name up first.
func (m *Module) Insert(id Id) {
	sub := m.subMap(id.Kind)
	if sub == nil {
		return
	}
	sub[id.Local] = id
}
