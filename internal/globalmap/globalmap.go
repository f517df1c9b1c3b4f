// Package globalmap implements the Global Map (spec §4.4): the module
// registry, the per-module-per-kind id tables, and the pending-append write
// buffer that feeds the persistent map file. Grounded on the teacher's
// internal/idcodec kind-dispatch style (a thin facade that switches on a
// kind tag to reach the right sub-table and the right allocator).
package globalmap

import (
	"bytes"
	"fmt"
	"io"

	"github.com/standardbeagle/xiss/internal/idtypes"
	"github.com/standardbeagle/xiss/internal/ident"
	"github.com/standardbeagle/xiss/internal/mapfile"
)

// DuplicateEntry is returned by Import when a (module, kind, local) tuple
// appears twice; fatal for the containing import call (spec §4.3/§7.1).
type DuplicateEntry struct {
	ModuleID, Local string
	Kind            idtypes.IdKind
}

func (e *DuplicateEntry) Error() string {
	return fmt.Sprintf("globalmap: duplicate entry for %s %s in module %q", e.Kind, e.Local, e.ModuleID)
}

// ExcludePatterns configures the regex exclude lists for each kind's
// identifier set (spec §6 "Configuration").
type ExcludePatterns struct {
	Class, Var, Keyframes []string
}

// GlobalMap is the single owned value a build holds for its lifetime (spec
// §5: "callers must not share it across compilation invocations running in
// parallel"). Zero value is not usable; construct with New.
type GlobalMap struct {
	moduleIndex map[string]idtypes.ModuleIndex
	modules     []*idtypes.Module
	sets        map[idtypes.IdKind]*ident.Set
	pending     bytes.Buffer
}

// New constructs an empty GlobalMap with the given per-kind exclude lists.
func New(excludes ExcludePatterns) (*GlobalMap, error) {
	classSet, err := ident.NewSet(excludes.Class)
	if err != nil {
		return nil, fmt.Errorf("globalmap: class excludes: %w", err)
	}
	varSet, err := ident.NewSet(excludes.Var)
	if err != nil {
		return nil, fmt.Errorf("globalmap: var excludes: %w", err)
	}
	kfSet, err := ident.NewSet(excludes.Keyframes)
	if err != nil {
		return nil, fmt.Errorf("globalmap: keyframes excludes: %w", err)
	}
	return &GlobalMap{
		moduleIndex: make(map[string]idtypes.ModuleIndex),
		sets: map[idtypes.IdKind]*ident.Set{
			idtypes.Class:     classSet,
			idtypes.Var:       varSet,
			idtypes.Keyframes: kfSet,
		},
	}, nil
}

// GetModuleIndex idempotently looks up (or creates) the dense index for a
// module id. New modules are appended to the module table; existing
// indices never change (invariant I1).
func (g *GlobalMap) GetModuleIndex(moduleID string) idtypes.ModuleIndex {
	if idx, ok := g.moduleIndex[moduleID]; ok {
		return idx
	}
	idx := idtypes.ModuleIndex(len(g.modules))
	g.modules = append(g.modules, idtypes.NewModule(moduleID, idx))
	g.moduleIndex[moduleID] = idx
	return idx
}

// ModuleByIndex returns the module record for a previously-issued index.
func (g *GlobalMap) ModuleByIndex(idx idtypes.ModuleIndex) *idtypes.Module {
	if int(idx) >= len(g.modules) {
		return nil
	}
	return g.modules[idx]
}

// ModuleCount returns the number of distinct modules registered so far.
func (g *GlobalMap) ModuleCount() int {
	return len(g.modules)
}

// GetID returns the Id already bound to (module, kind, local), minting and
// recording a fresh one if this is the first reference. A fresh mint
// appends a row to the pending buffer (invariant I5: exactly the rows
// minted since the last flush, in mint order). Re-lookups are silent — the
// duplicate-detection asymmetry spec §9 calls out: Import rejects repeats,
// GetID does not.
func (g *GlobalMap) GetID(moduleIndex idtypes.ModuleIndex, kind idtypes.IdKind, local string) idtypes.Id {
	module := g.ModuleByIndex(moduleIndex)
	if existing, ok := module.Lookup(kind, local); ok {
		return existing
	}

	global := g.sets[kind].Next()
	id := idtypes.Id{Kind: kind, ModuleIndex: moduleIndex, Local: local, Global: global}
	module.Insert(id)
	_ = mapfile.WriteRow(&g.pending, kind, module.ModuleID, local, global)
	return id
}

// Import stream-parses rows from r, registering each module/Id and each
// kind's identifier set. A duplicate (module, kind, local) aborts with
// DuplicateEntry — the caller must treat the map as unchanged on error
// (spec §4.3 "Failure is fatal... the map must be treated as unchanged").
//
// Because Import can fail partway through, it builds into a scratch copy —
// modules, module index, and identifier sets all deep-copied — and only
// swaps it into g on full success; a failed Import must not register any of
// its globals into g's live sets.
func (g *GlobalMap) Import(r io.Reader) error {
	scratch := &GlobalMap{
		moduleIndex: make(map[string]idtypes.ModuleIndex, len(g.moduleIndex)),
		sets:        cloneSets(g.sets),
	}
	for id, m := range g.moduleIndex {
		scratch.moduleIndex[id] = m
	}
	for _, m := range g.modules {
		cp := *m
		cp.Classes = cloneIDs(m.Classes)
		cp.Vars = cloneIDs(m.Vars)
		cp.Keyframes = cloneIDs(m.Keyframes)
		scratch.modules = append(scratch.modules, &cp)
	}

	rows, err := mapfile.ParseAll(r)
	if err != nil {
		return err
	}

	var currentModuleID string
	for _, row := range rows {
		if row.ModuleID != nil {
			currentModuleID = *row.ModuleID
		}
		idx := scratch.GetModuleIndex(currentModuleID)
		module := scratch.ModuleByIndex(idx)
		if _, exists := module.Lookup(row.Kind, row.Local); exists {
			return &DuplicateEntry{ModuleID: currentModuleID, Local: row.Local, Kind: row.Kind}
		}
		id := idtypes.Id{Kind: row.Kind, ModuleIndex: idx, Local: row.Local, Global: row.Global}
		module.Insert(id)
		scratch.sets[row.Kind].Add(row.Global)
	}

	g.moduleIndex = scratch.moduleIndex
	g.modules = scratch.modules
	g.sets = scratch.sets
	return nil
}

func cloneIDs(m map[string]idtypes.Id) map[string]idtypes.Id {
	out := make(map[string]idtypes.Id, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSets(sets map[idtypes.IdKind]*ident.Set) map[idtypes.IdKind]*ident.Set {
	out := make(map[idtypes.IdKind]*ident.Set, len(sets))
	for kind, set := range sets {
		out[kind] = set.Clone()
	}
	return out
}

// FlushNewIds writes the pending buffer to w, flushes if w implements
// Flusher, then clears the buffer — atomic from the caller's perspective in
// that the buffer is only cleared after the write (and flush) succeed.
func (g *GlobalMap) FlushNewIds(w io.Writer) error {
	if g.pending.Len() == 0 {
		return nil
	}
	if _, err := w.Write(g.pending.Bytes()); err != nil {
		return err
	}
	if f, ok := w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return err
		}
	}
	g.pending.Reset()
	return nil
}

// PendingLen reports how many bytes are buffered and unflushed, mostly for
// tests and build reporting.
func (g *GlobalMap) PendingLen() int {
	return g.pending.Len()
}
