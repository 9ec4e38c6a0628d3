// Package layout computes the deterministic directory scheme vx uses for
// its content-addressed store, caches, and manifest search paths
// (SPEC_FULL.md §4.14, spec.md §6.2-§6.4).
package layout

import (
	"os"
	"path/filepath"
	"strings"
)

// Environment variable names honored by the core (spec.md §6.2).
const (
	EnvStoreDir      = "VX_STORE_DIR"
	EnvCacheDir      = "VX_CACHE_DIR"
	EnvProvidersPath = "VX_PROVIDERS_PATH"
	EnvCacheMode     = "VX_CACHE_MODE"
	EnvOutput        = "VX_OUTPUT"
)

const (
	defaultStoreSuffix = ".vx/store"
	defaultCacheSuffix = ".vx/cache"
)

// Layout holds the resolved, absolute paths vx operates against.
type Layout struct {
	storeDir      string
	cacheDir      string
	providerPaths []string
}

// Option configures a Layout.
type Option func(*Layout)

// WithStoreDir overrides the store root.
func WithStoreDir(dir string) Option {
	return func(l *Layout) { l.storeDir = dir }
}

// WithCacheDir overrides the cache root.
func WithCacheDir(dir string) Option {
	return func(l *Layout) { l.cacheDir = dir }
}

// WithProviderPaths overrides the additional manifest search paths.
func WithProviderPaths(paths []string) Option {
	return func(l *Layout) { l.providerPaths = paths }
}

// New builds a Layout from the process environment, applying any opts on
// top (opts win over environment variables, matching how the teacher's
// Paths.New layers functional options over computed defaults).
func New(opts ...Option) (*Layout, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	l := &Layout{
		storeDir: envOr(EnvStoreDir, filepath.Join(home, defaultStoreSuffix)),
		cacheDir: envOr(EnvCacheDir, filepath.Join(home, defaultCacheSuffix)),
	}
	if raw := os.Getenv(EnvProvidersPath); raw != "" {
		l.providerPaths = filepath.SplitList(raw)
	}

	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// StoreDir returns the store root.
func (l *Layout) StoreDir() string { return l.storeDir }

// CacheDir returns the cache root.
func (l *Layout) CacheDir() string { return l.cacheDir }

// ProviderPaths returns the environment-variable-specified manifest
// search path tier (spec.md §4.1's "environment path" precedence level).
func (l *Layout) ProviderPaths() []string { return l.providerPaths }

// StorePath returns <store>/<runtime>/<version>/.
func (l *Layout) StorePath(runtime, version string) string {
	return filepath.Join(l.storeDir, runtime, version)
}

// StoreBinDir returns the canonical bin/ subdirectory of a StorePath.
func (l *Layout) StoreBinDir(runtime, version string) string {
	return filepath.Join(l.StorePath(runtime, version), "bin")
}

// VersionCacheFile returns <cache>/versions/<runtime>.json (spec.md §6.4).
func (l *Layout) VersionCacheFile(runtime string) string {
	return filepath.Join(l.cacheDir, "versions", runtime+".json")
}

// VersionCacheDir returns <cache>/versions.
func (l *Layout) VersionCacheDir() string {
	return filepath.Join(l.cacheDir, "versions")
}

// ResolutionCacheFile returns <cache>/resolutions/<key-digest>.json.
func (l *Layout) ResolutionCacheFile(keyDigest string) string {
	return filepath.Join(l.cacheDir, "resolutions", keyDigest+".json")
}

// ResolutionCacheDir returns <cache>/resolutions.
func (l *Layout) ResolutionCacheDir() string {
	return filepath.Join(l.cacheDir, "resolutions")
}

// InstallLockFile returns the path to the per-(runtime,version) exclusive
// install lock file, stored alongside the store path rather than inside
// it so a failed install never leaves a stray file in StorePath.
func (l *Layout) InstallLockFile(runtime, version string) string {
	return filepath.Join(l.storeDir, ".locks", runtime+"@"+version+".lock")
}

// StagingDir returns a fresh temporary staging directory under the store
// root for one in-progress install, so staging and the final store share
// a filesystem (making the final commit a cheap rename, not a copy).
func (l *Layout) StagingDir(runtime, version string) (string, error) {
	root := filepath.Join(l.storeDir, ".staging")
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", err
	}
	return os.MkdirTemp(root, runtime+"-"+version+"-*")
}

// EnsureDir creates a directory (and parents) if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// Expand replaces a leading "~" with the user's home directory.
func Expand(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" {
		return os.UserHomeDir()
	}
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[2:]), nil
	}
	return p, nil
}
