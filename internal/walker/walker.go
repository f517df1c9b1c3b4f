// Package walker implements the File Walker (spec §6 "Module source
// extension" / SPEC_FULL.md §4.10): it finds every source file under an
// include root, applies .gitignore and doublestar include/exclude globs,
// and derives each file's module id from its root-relative path. Grounded
// on the teacher's internal/indexing file-scan idea (directory since
// deleted — see DESIGN.md) and internal/tools' GetModuleID helper for the
// relative-path-stripped-of-extension id derivation.
package walker

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ModuleFile is one discovered source file: its module id (the relative
// path from the include root with the extension stripped, forward-slash
// separated per spec §3) and its absolute filesystem path.
type ModuleFile struct {
	ModuleID string
	Path     string
}

// Options configures one walk.
type Options struct {
	Extension string // without the leading dot, e.g. "xiss"
	Include   []string
	Exclude   []string
}

// Walk finds every module source file under root, sorted by module id. A
// missing root is an error; a
// missing .gitignore is not.
func Walk(root string, opts Options) ([]ModuleFile, error) {
	gp := newGitignoreParser()
	if err := gp.load(root); err != nil {
		return nil, err
	}
	suffix := "." + opts.Extension

	var out []ModuleFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		relSlash := filepath.ToSlash(rel)

		if d.IsDir() {
			if gp.shouldIgnore(relSlash, true) || matchesAny(opts.Exclude, relSlash) {
				return fs.SkipDir
			}
			return nil
		}
		if gp.shouldIgnore(relSlash, false) || matchesAny(opts.Exclude, relSlash) {
			return nil
		}
		if !strings.HasSuffix(relSlash, suffix) {
			return nil
		}
		if len(opts.Include) > 0 && !matchesAny(opts.Include, relSlash) {
			return nil
		}
		out = append(out, ModuleFile{
			ModuleID: strings.TrimSuffix(relSlash, suffix),
			Path:     path,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModuleID < out[j].ModuleID })
	return out, nil
}

func matchesAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return true
		}
	}
	return false
}
