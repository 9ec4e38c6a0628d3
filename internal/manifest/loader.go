package manifest

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/terassyi/vx/internal/layout"
)

//go:embed builtin/*.toml
var builtinFS embed.FS

// Loader loads provider manifests from the three precedence tiers and
// merges them into a Store. Grounded on the teacher's CUE directory
// loader (internal/config/loader.go): scan a directory for declaration
// files, parse each independently, and report per-file failures as
// diagnostics rather than aborting the whole load.
// Validator performs structural/schema validation of a decoded Manifest
// beyond what TOML decoding itself guarantees. internal/schema provides
// the CUE-backed implementation; it is injected here to avoid a
// schema->manifest->schema import cycle.
type Validator interface {
	Validate(*Manifest) error
}

type Loader struct {
	layout *layout.Layout
	schema Validator
}

// NewLoader builds a Loader for the given path Layout. schema may be nil,
// in which case manifests are not structurally validated beyond TOML
// decoding.
func NewLoader(l *layout.Layout, schema Validator) *Loader {
	return &Loader{layout: l, schema: schema}
}

// LoadAll loads the built-in manifests, then every provider.toml under
// each configured provider path (VX_PROVIDERS_PATH), then the user-local
// override directory, and merges them in ascending precedence order:
// built-in < environment path < user-local (spec.md §4.1).
func (l *Loader) LoadAll(userLocalDir string) (*Store, Diagnostics) {
	var diags Diagnostics
	var manifests []*Manifest

	builtins, d := l.loadBuiltins()
	diags.merge(d)
	manifests = append(manifests, builtins...)

	for _, p := range l.layout.ProviderPaths() {
		ms, d := l.loadDir(p, TierEnvironmentPath)
		diags.merge(d)
		manifests = append(manifests, ms...)
	}

	if userLocalDir != "" {
		ms, d := l.loadDir(userLocalDir, TierUserLocal)
		diags.merge(d)
		manifests = append(manifests, ms...)
	}

	store := newStore()
	for _, m := range manifests {
		store.merge(m, &diags)
	}

	return store, diags
}

func (l *Loader) loadBuiltins() ([]*Manifest, Diagnostics) {
	var diags Diagnostics
	var out []*Manifest

	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		diags.addError("builtin", "failed to read embedded manifests", err)
		return nil, diags
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		path := "builtin/" + e.Name()
		data, err := builtinFS.ReadFile(path)
		if err != nil {
			diags.addError(path, "failed to read embedded manifest", err)
			continue
		}
		m, err := l.decode(data, path, TierBuiltin)
		if err != nil {
			diags.addError(path, "failed to parse embedded manifest", err)
			continue
		}
		out = append(out, m)
	}
	return out, diags
}

func (l *Loader) loadDir(dir string, tier Tier) ([]*Manifest, Diagnostics) {
	var diags Diagnostics
	var out []*Manifest

	expanded, err := layout.Expand(dir)
	if err != nil {
		diags.addWarning(dir, fmt.Sprintf("skipping unreadable provider path: %v", err))
		return nil, diags
	}

	info, err := os.Stat(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			// Provider paths and the user-local override directory are
			// optional; a missing directory is not an error.
			return nil, diags
		}
		diags.addWarning(expanded, fmt.Sprintf("skipping unreadable provider path: %v", err))
		return nil, diags
	}
	if !info.IsDir() {
		diags.addWarning(expanded, "provider path is not a directory")
		return nil, diags
	}

	entries, err := os.ReadDir(expanded)
	if err != nil {
		diags.addWarning(expanded, fmt.Sprintf("failed to read directory: %v", err))
		return nil, diags
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		path := filepath.Join(expanded, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			diags.addError(path, "failed to read manifest", err)
			continue
		}
		m, err := l.decode(data, path, tier)
		if err != nil {
			diags.addError(path, "failed to parse manifest", err)
			continue
		}
		out = append(out, m)
	}
	return out, diags
}

func (l *Loader) decode(data []byte, path string, tier Tier) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	m.SourcePath = path
	m.SourceTier = tier

	if l.schema != nil {
		if err := l.schema.Validate(&m); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

func (d *Diagnostics) merge(other Diagnostics) {
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Errors = append(d.Errors, other.Errors...)
}
