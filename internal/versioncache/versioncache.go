// Package versioncache persists upstream version lists per runtime
// under <cache>/versions/<runtime>.json, avoiding repeated network
// fetches (SPEC_FULL.md §4.5, spec.md §4.5/§6.4).
package versioncache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/terassyi/vx/internal/cachemode"
	"github.com/terassyi/vx/internal/layout"
	"github.com/terassyi/vx/internal/versionsolver"
	"github.com/terassyi/vx/internal/vxerrors"
)

// DefaultTTL is the default freshness window for a version cache entry
// (spec.md §4.5: "typically 1-24h").
const DefaultTTL = 6 * time.Hour

// entry is the on-disk shape of <cache>/versions/<runtime>.json.
type entry struct {
	FetchedAt  time.Time                  `json:"fetched_at"`
	TTL        time.Duration              `json:"ttl"`
	Candidates []versionsolver.Candidate `json:"candidates"`
}

// Cache reads and writes per-runtime version-list cache files.
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

// Fetcher retrieves the live candidate list for runtime from upstream
// (e.g. the GitHub releases client); Get calls it only when CacheMode
// requires a network round-trip.
type Fetcher func() ([]versionsolver.Candidate, error)

// Get returns the candidate list for runtime under the given CacheMode,
// invoking fetch only when mode requires fresh data. Returns a
// *vxerrors.ResolveError (KindCacheMiss) when mode is Offline and no
// cache entry exists.
func (c *Cache) Get(runtime string, mode cachemode.Mode, fetch Fetcher) ([]versionsolver.Candidate, error) {
	path := c.layout.VersionCacheFile(runtime)

	if mode == cachemode.NoCache {
		return fetch()
	}

	cached, err := c.read(path)
	hasCached := err == nil

	switch mode {
	case cachemode.Refresh:
		candidates, ferr := fetch()
		if ferr != nil {
			if hasCached {
				return cached.Candidates, nil
			}
			return nil, ferr
		}
		_ = c.write(path, candidates)
		return candidates, nil

	case cachemode.Offline:
		if !hasCached {
			return nil, vxerrors.NewResolveCacheMiss(runtime)
		}
		return cached.Candidates, nil

	default: // Normal
		if hasCached && time.Since(cached.FetchedAt) < cached.TTL {
			return cached.Candidates, nil
		}
		candidates, ferr := fetch()
		if ferr != nil {
			if hasCached {
				// Expired entries fall back to the stale value rather
				// than failing the whole resolution (spec.md §4.5).
				return cached.Candidates, nil
			}
			return nil, ferr
		}
		_ = c.write(path, candidates)
		return candidates, nil
	}
}

func (c *Cache) read(path string) (*entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// write persists candidates atomically: tempfile + rename, guarded by a
// flock exclusive lock, mirroring internal/state/store.go's Save.
func (c *Cache) write(path string, candidates []versionsolver.Candidate) error {
	if err := layout.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create version cache directory: %w", err)
	}

	lock := flock.New(path + ".flock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire version cache write lock: %w", err)
	}
	defer lock.Unlock() //nolint:errcheck

	e := entry{FetchedAt: time.Now(), TTL: c.ttl, Candidates: candidates}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal version cache entry: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp version cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename version cache file into place: %w", err)
	}
	return nil
}

// Clear removes every cached version-list file.
func (c *Cache) Clear() error {
	return os.RemoveAll(c.layout.VersionCacheDir())
}
