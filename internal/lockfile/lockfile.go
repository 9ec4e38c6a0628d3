// Package lockfile reads and writes vx.lock, the reproducible pinning
// file spec.md §6.5 describes, and checks it for consistency against a
// project's vx.toml (SPEC_FULL.md §4.4).
package lockfile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"
)

// CurrentVersion is the lock file format version vx writes.
const CurrentVersion = 2

// Pinning describes how tightly a locked version is pinned relative to
// the user's original request (spec.md §6.5's `pinning` field).
type Pinning string

const (
	PinningExact Pinning = "exact"
	PinningPatch Pinning = "patch"
	PinningMinor Pinning = "minor"
	PinningMajor Pinning = "major"
	PinningNone  Pinning = "none"
)

// PlatformChecksum is one `[tools.<name>.platforms.<platform-label>]`
// entry.
type PlatformChecksum struct {
	Checksum string `toml:"checksum"`
}

// Tool is one `[tools.<name>]` table.
type Tool struct {
	Version        string                      `toml:"version"`
	OriginalRange  string                      `toml:"original_range,omitempty"`
	ResolvedFrom   string                      `toml:"resolved_from,omitempty"`
	Pinning        Pinning                     `toml:"pinning,omitempty"`
	Source         string                      `toml:"source,omitempty"`
	Checksum       string                      `toml:"checksum,omitempty"`
	AppliedDefault string                      `toml:"applied_default,omitempty"`
	Platforms      map[string]PlatformChecksum `toml:"platforms,omitempty"`
}

// Metadata is the `[metadata]` table.
type Metadata struct {
	GeneratedAt string `toml:"generated_at"`
	VXVersion   string `toml:"vx_version"`
	Platform    string `toml:"platform"`
}

// LockFile is the parsed, in-memory form of vx.lock (spec.md §6.5): a
// metadata header, a `[tools.<name>]` table per pinned runtime, and a
// `[dependencies]` adjacency table.
type LockFile struct {
	Version      int                 `toml:"version"`
	Metadata     Metadata            `toml:"metadata"`
	Tools        map[string]Tool     `toml:"tools"`
	Dependencies map[string][]string `toml:"dependencies,omitempty"`

	path string
}

// diskFormatV1 is the pre-v2 shape: a flat runtime -> version table with
// no metadata, checksums, or dependency adjacency.
type diskFormatV1 = map[string]string

// Load reads a lock file from path. A missing file returns an empty,
// version-CurrentVersion LockFile rather than an error — spec.md treats
// "no lock file yet" as a valid starting state (scenario E presumes a
// first `vx lock` write). A v1 file is migrated automatically; a file
// that parses as neither v1 nor v2 is returned as a parse error, surfaced rather than
// silently discarded (spec.md §4.4: "failure to upgrade is surfaced,
// never silently accepted").
func Load(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &LockFile{Version: CurrentVersion, Tools: map[string]Tool{}, path: path}, nil
		}
		return nil, fmt.Errorf("failed to read lock file: %w", err)
	}

	var lf LockFile
	if err := toml.Unmarshal(data, &lf); err == nil && lf.Version >= 2 {
		lf.path = path
		if lf.Tools == nil {
			lf.Tools = map[string]Tool{}
		}
		return &lf, nil
	}

	var v1 diskFormatV1
	if err := toml.Unmarshal(data, &v1); err != nil {
		return nil, fmt.Errorf("failed to parse lock file (not a valid v1 or v2 document): %w", err)
	}
	return migrateV1(v1, path), nil
}

func migrateV1(v1 diskFormatV1, path string) *LockFile {
	lf := &LockFile{
		Version: CurrentVersion,
		Tools:   make(map[string]Tool, len(v1)),
		path:    path,
	}
	for name, version := range v1 {
		lf.Tools[name] = Tool{Version: version, Pinning: PinningNone}
	}
	return lf
}

// Save writes the lock file atomically: marshal to a temp file in the
// same directory, then rename over the destination (grounded on the
// teacher's internal/state/store.go Save: tempfile write + os.Rename). A
// flock-based exclusive lock guards against concurrent writers, the same
// mechanism internal/state/store.go uses for its own state.json.
func Save(path string, lf *LockFile) error {
	lock := flock.New(path + ".flock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock file write lock: %w", err)
	}
	defer lock.Unlock() //nolint:errcheck

	lf.Version = CurrentVersion
	data, err := toml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("failed to marshal lock file: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp lock file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename lock file into place: %w", err)
	}
	return nil
}

// Get returns the pinned Tool entry for runtime, if any.
func (lf *LockFile) Get(runtime string) (Tool, bool) {
	t, ok := lf.Tools[runtime]
	return t, ok
}

// Set upserts the pinned entry for runtime.
func (lf *LockFile) Set(runtime string, t Tool) {
	if lf.Tools == nil {
		lf.Tools = map[string]Tool{}
	}
	lf.Tools[runtime] = t
}

// SetDependencies records runtime's direct dependency edges, as surfaced
// by the Runtime Map, into the `[dependencies]` adjacency table.
func (lf *LockFile) SetDependencies(runtime string, deps []string) {
	if lf.Dependencies == nil {
		lf.Dependencies = map[string][]string{}
	}
	if len(deps) == 0 {
		delete(lf.Dependencies, runtime)
		return
	}
	sorted := append([]string(nil), deps...)
	sort.Strings(sorted)
	lf.Dependencies[runtime] = sorted
}

// Hash returns a stable digest of the pinned tool table, for inclusion
// in a resolution cache key (SPEC_FULL.md §4.6): any edit to the lock
// file's pins changes the digest and therefore always misses the cache.
func (lf *LockFile) Hash() string {
	names := lf.names()
	h := sha256.New()
	for _, name := range names {
		t := lf.Tools[name]
		fmt.Fprintf(h, "%s=%s;", name, t.Version)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Names returns every runtime named in Tools, sorted — the public form
// of names(), for callers outside the package (e.g. `vx sync`'s install
// target enumeration).
func (lf *LockFile) Names() []string {
	return lf.names()
}

// names returns every runtime named in Tools, sorted.
func (lf *LockFile) names() []string {
	names := make([]string, 0, len(lf.Tools))
	for name := range lf.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
