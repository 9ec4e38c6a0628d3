package runtimemap

import (
	"errors"
	"testing"

	"github.com/terassyi/vx/internal/manifest"
	"github.com/terassyi/vx/internal/vxerrors"
)

func storeFrom(entries ...manifest.RuntimeEntry) *manifest.Store {
	store, _ := manifest.Merge(&manifest.Manifest{
		Provider:   manifest.Provider{Name: "test", Ecosystem: "test"},
		Runtimes:   entries,
		SourcePath: "test.toml",
		SourceTier: manifest.TierBuiltin,
	})
	return store
}

func TestInstallOrderLinearChain(t *testing.T) {
	store := storeFrom(
		manifest.RuntimeEntry{Name: "npx", BundledWith: "node"},
		manifest.RuntimeEntry{Name: "node"},
	)

	m, err := New(store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	layers, err := m.InstallOrder("npx")
	if err != nil {
		t.Fatalf("InstallOrder: %v", err)
	}
	if len(layers) != 2 {
		t.Fatalf("expected 2 layers, got %d: %+v", len(layers), layers)
	}
	if layers[0].Runtimes[0] != "node" {
		t.Fatalf("expected node to install before npx, got %+v", layers)
	}
	if layers[1].Runtimes[0] != "npx" {
		t.Fatalf("expected npx in the final layer, got %+v", layers)
	}
}

func TestCycleDetection(t *testing.T) {
	store := storeFrom(
		manifest.RuntimeEntry{Name: "a", Constraints: []manifest.Constraint{
			{When: "always", Requires: []manifest.ConstraintRequires{{Runtime: "b"}}},
		}},
		manifest.RuntimeEntry{Name: "b", Constraints: []manifest.Constraint{
			{When: "always", Requires: []manifest.ConstraintRequires{{Runtime: "a"}}},
		}},
	)

	_, err := New(store)
	if err == nil {
		t.Fatal("expected a dependency cycle error")
	}
	var resolveErr *vxerrors.ResolveError
	if !errors.As(err, &resolveErr) {
		t.Fatalf("expected *vxerrors.ResolveError, got %T", err)
	}
	if resolveErr.Kind != vxerrors.KindDependencyCycle {
		t.Fatalf("Kind = %q", resolveErr.Kind)
	}
}

func TestDependents(t *testing.T) {
	store := storeFrom(
		manifest.RuntimeEntry{Name: "npx", BundledWith: "node"},
		manifest.RuntimeEntry{Name: "npm", BundledWith: "node"},
		manifest.RuntimeEntry{Name: "node"},
	)

	m, err := New(store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	deps := m.Dependents("node")
	if len(deps) != 2 || deps[0] != "npm" || deps[1] != "npx" {
		t.Fatalf("Dependents(node) = %v", deps)
	}
}
