// Package resolutioncache persists resolved dependency graphs keyed by a
// digest of everything that could change a resolution's outcome
// (SPEC_FULL.md §4.6, spec.md §4.6), so repeated identical invocations
// can skip the Manifest Store / Runtime Map / Version Solver walk
// entirely.
package resolutioncache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/terassyi/vx/internal/cachemode"
	"github.com/terassyi/vx/internal/layout"
)

// DefaultTTL is the default freshness window for a resolution cache
// entry (spec.md §4.6: "10-30 minutes default").
const DefaultTTL = 15 * time.Minute

// storedEntry is the on-disk shape of <cache>/resolutions/<hash>.json.
type storedEntry struct {
	SchemaVersion int           `json:"schema_version"`
	CreatedAt     time.Time     `json:"created_at"`
	TTL           time.Duration `json:"ttl"`
	Graph         ResolvedGraph `json:"graph"`
}

// Validator inspects a cached graph against current ambient state (store
// layout still compatible, declared installs still present or
// installable) before it is trusted as a hit; returning false forces a
// cold resolution.
type Validator func(g *ResolvedGraph) bool

// Cache reads and writes per-key resolution cache files.
type Cache struct {
	layout *layout.Layout
	ttl    time.Duration
}

// New builds a Cache over l with the default TTL.
func New(l *layout.Layout) *Cache {
	return &Cache{layout: l, ttl: DefaultTTL}
}

// WithTTL overrides the default TTL.
func (c *Cache) WithTTL(ttl time.Duration) *Cache {
	c.ttl = ttl
	return c
}

// Lookup returns a cached ResolvedGraph for key under the given
// CacheMode, or (nil, false, nil) on a clean miss that the caller should
// resolve cold and then Store. It never itself performs resolution.
//
// Strong invalidation (project config hash, lock file hash, vx version,
// resolver schema version) is implicit: those fields are part of Key, so
// any change to them changes the digest and therefore always misses.
func (c *Cache) Lookup(key Key, mode cachemode.Mode, validate Validator) (*ResolvedGraph, bool, error) {
	if mode == cachemode.NoCache {
		return nil, false, nil
	}

	digest, err := key.Digest()
	if err != nil {
		return nil, false, err
	}
	path := c.layout.ResolutionCacheFile(digest)

	stored, err := c.read(path)
	if err != nil {
		return nil, false, nil // missing or unreadable: clean miss
	}
	if stored.SchemaVersion != GraphSchemaVersion {
		return nil, false, nil
	}
	if validate != nil && !validate(&stored.Graph) {
		return nil, false, nil
	}

	switch mode {
	case cachemode.Offline:
		// Offline allows expired hits (spec.md §4.6).
		return &stored.Graph, true, nil
	case cachemode.Refresh:
		// Refresh ignores any cached value outright, forcing the caller
		// to resolve cold and Store the result (cachemode.Refresh).
		return nil, false, nil
	default: // Normal
		if time.Since(stored.CreatedAt) >= stored.TTL {
			return nil, false, nil
		}
		return &stored.Graph, true, nil
	}
}

// Store writes graph under key, replacing any existing entry.
func (c *Cache) Store(key Key, graph ResolvedGraph) error {
	digest, err := key.Digest()
	if err != nil {
		return err
	}
	graph.SchemaVersion = GraphSchemaVersion
	return c.write(c.layout.ResolutionCacheFile(digest), graph)
}

// Invalidate removes the cache entry for key, if any.
func (c *Cache) Invalidate(key Key) error {
	digest, err := key.Digest()
	if err != nil {
		return err
	}
	path := c.layout.ResolutionCacheFile(digest)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear removes every cached resolution.
func (c *Cache) Clear() error {
	return os.RemoveAll(c.layout.ResolutionCacheDir())
}

func (c *Cache) read(path string) (*storedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e storedEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// write persists graph atomically: tempfile + rename, guarded by a flock
// exclusive lock, mirroring internal/versioncache.Cache.write and,
// beneath that, internal/state/store.go's Save.
func (c *Cache) write(path string, graph ResolvedGraph) error {
	if err := layout.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create resolution cache directory: %w", err)
	}

	lock := flock.New(path + ".flock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire resolution cache write lock: %w", err)
	}
	defer lock.Unlock() //nolint:errcheck

	e := storedEntry{SchemaVersion: GraphSchemaVersion, CreatedAt: time.Now(), TTL: c.ttl, Graph: graph}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal resolution cache entry: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp resolution cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename resolution cache file into place: %w", err)
	}
	return nil
}
