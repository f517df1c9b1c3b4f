// Package idcache implements the Incremental Cache (SPEC_FULL.md §4.11):
// a single-threaded, content-hash-keyed table the Build Orchestrator
// consults to skip recompiling a module whose source hasn't changed since
// the last build. This has no analog in spec.md's core (which only
// guarantees stable ids *across* builds via the map/lock files, not
// faster ones) — it is grounded on the teacher's internal/cache
// (internal/cache/metrics_cache.go), stripped to the single concern that
// survives outside a concurrent, TTL-evicting request cache: xxhash the
// module's bytes and compare. The compiler core stays single-threaded and
// non-suspending (spec §5); the cache is a plain map, no sync.Map, no
// atomics, no background cleanup goroutine.
package idcache

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Cache maps a module id to the xxhash of its source bytes as of the
// last successful compile.
type Cache struct {
	hashes map[string]uint64
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{hashes: make(map[string]uint64)}
}

// Hash returns the content hash idcache uses throughout.
func Hash(content []byte) uint64 {
	return xxhash.Sum64(content)
}

// Unchanged reports whether content's hash matches the last recorded
// hash for moduleID. A module never seen before is always "changed".
func (c *Cache) Unchanged(moduleID string, content []byte) bool {
	prev, ok := c.hashes[moduleID]
	return ok && prev == Hash(content)
}

// Record stores content's hash for moduleID, to be checked on the next
// build. Call only after moduleID compiled successfully — recording a
// failed module's hash would make the orchestrator skip a retry of a
// source that hasn't actually changed.
func (c *Cache) Record(moduleID string, content []byte) {
	c.hashes[moduleID] = Hash(content)
}

// Len reports how many modules the cache currently tracks.
func (c *Cache) Len() int {
	return len(c.hashes)
}

// Load reads a persisted cache from path in "moduleID hash\n" lines,
// replacing the in-memory table. A missing file leaves an empty cache and
// is not an error — an empty cache is just a cold start where every
// module is "changed".
func Load(path string) (*Cache, error) {
	c := New()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		idx := strings.LastIndexByte(line, ' ')
		if idx < 0 {
			continue
		}
		hash, err := strconv.ParseUint(line[idx+1:], 16, 64)
		if err != nil {
			continue
		}
		c.hashes[line[:idx]] = hash
	}
	return c, scanner.Err()
}

// Save persists the cache to path as "moduleID hash\n" lines.
func (c *Cache) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for moduleID, hash := range c.hashes {
		if _, err := fmt.Fprintf(w, "%s %016x\n", moduleID, hash); err != nil {
			return err
		}
	}
	return w.Flush()
}
