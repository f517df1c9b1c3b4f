// Package ident implements the Identifier Generator (spec §4.1) and the
// Identifier Set that wraps it with dedup against a reserved namespace
// (spec §4.2). It delegates the numeral grammar itself to internal/encoding,
// the way the teacher's internal/idcodec delegates to internal/encoding for
// base-63 — a thin, kind-dispatching wrapper rather than a reimplementation.
package ident

import (
	"fmt"
	"regexp"

	"github.com/standardbeagle/xiss/internal/encoding"
)

// Generator produces CSS-legal short identifiers in index order, skipping
// any candidate that matches one of its exclude patterns. It is not safe
// for concurrent use, matching the single-threaded compiler core (spec §5).
type Generator struct {
	counter  uint64
	excludes []*regexp.Regexp
}

// NewGenerator compiles the given exclude patterns (same regex dialect the
// external regex library accepts, i.e. Go's regexp/RE2 here) up front, so a
// bad pattern fails fast as a fatal error (spec §7.1) rather than lazily on
// first use.
func NewGenerator(excludePatterns []string) (*Generator, error) {
	compiled := make([]*regexp.Regexp, 0, len(excludePatterns))
	for _, p := range excludePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("ident: invalid exclude pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &Generator{excludes: compiled}, nil
}

// excluded reports whether candidate matches any configured exclude pattern.
func (g *Generator) excluded(candidate string) bool {
	for _, re := range g.excludes {
		if re.MatchString(candidate) {
			return true
		}
	}
	return false
}

// next draws the next candidate in index order, skipping excluded words. It
// never rewinds the counter: every call, whether it returns a fresh word or
// is later rejected by an Identifier Set as already-seen, consumes indices
// monotonically.
func (g *Generator) next() string {
	for {
		candidate := encoding.ShortID(g.counter)
		g.counter++
		if !g.excluded(candidate) {
			return candidate
		}
	}
}
