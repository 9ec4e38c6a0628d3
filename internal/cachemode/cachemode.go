// Package cachemode defines the per-invocation CacheMode scalar
// (spec.md §3/§5) shared by the Version Cache and the Resolution Cache.
package cachemode

import "fmt"

// Mode is a per-invocation cache-freshness policy, applied to both the
// version cache and the resolution cache (spec.md §3).
type Mode int

const (
	// Normal returns a fresh cache entry. In the version cache an expired
	// entry is refetched before Get returns, not in the background, and
	// the stale value is returned only if that fetch fails; the resolution
	// cache treats an expired entry as a miss.
	Normal Mode = iota
	// Refresh ignores any cached value and forces a fetch, rewriting the
	// cache with the result.
	Refresh
	// Offline returns stale cache entries without fetching, and reports
	// CacheMiss if nothing is cached.
	Offline
	// NoCache bypasses the cache entirely: never reads, never writes.
	NoCache
)

func (m Mode) String() string {
	switch m {
	case Normal:
		return "normal"
	case Refresh:
		return "refresh"
	case Offline:
		return "offline"
	case NoCache:
		return "nocache"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Parse converts a CLI/env string (e.g. "offline", "no-cache") into a
// Mode.
func Parse(s string) (Mode, error) {
	switch s {
	case "", "normal":
		return Normal, nil
	case "refresh":
		return Refresh, nil
	case "offline":
		return Offline, nil
	case "nocache", "no-cache":
		return NoCache, nil
	default:
		return Normal, fmt.Errorf("unknown cache mode %q", s)
	}
}
