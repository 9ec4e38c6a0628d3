package lockfile

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vx.lock")

	lf := &LockFile{
		Version:  CurrentVersion,
		Metadata: Metadata{GeneratedAt: "2026-01-01T00:00:00Z", VXVersion: "1.0.0", Platform: "x86_64-linux"},
		Tools: map[string]Tool{
			"node": {Version: "20.18.0", OriginalRange: "^20", ResolvedFrom: "vx.toml", Pinning: PinningMinor, Source: "nodejs.org"},
			"npm":  {Version: "10.8.2", Pinning: PinningNone},
		},
		Dependencies: map[string][]string{"npm": {"node"}},
	}

	if err := Save(path, lf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !reflect.DeepEqual(loaded.Tools, lf.Tools) {
		t.Fatalf("Tools mismatch: got %+v, want %+v", loaded.Tools, lf.Tools)
	}
	if !reflect.DeepEqual(loaded.Dependencies, lf.Dependencies) {
		t.Fatalf("Dependencies mismatch: got %+v, want %+v", loaded.Dependencies, lf.Dependencies)
	}
	if loaded.Metadata != lf.Metadata {
		t.Fatalf("Metadata mismatch: got %+v, want %+v", loaded.Metadata, lf.Metadata)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	lf, err := Load(filepath.Join(t.TempDir(), "does-not-exist.lock"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if lf.Version != CurrentVersion || len(lf.Tools) != 0 {
		t.Fatalf("expected empty v%d lock file, got %+v", CurrentVersion, lf)
	}
}

func TestLoadMigratesV1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vx.lock")
	v1 := []byte("node = \"20.18.0\"\nnpm = \"10.8.2\"\n")
	if err := os.WriteFile(path, v1, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	lf, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if lf.Version != CurrentVersion {
		t.Fatalf("expected migration to version %d, got %d", CurrentVersion, lf.Version)
	}
	tool, ok := lf.Get("node")
	if !ok || tool.Version != "20.18.0" {
		t.Fatalf("expected migrated node entry, got %+v ok=%v", tool, ok)
	}
}

func TestInstallOrderTopological(t *testing.T) {
	lf := &LockFile{
		Tools: map[string]Tool{
			"node": {Version: "20.18.0"},
			"npm":  {Version: "10.8.2"},
			"npx":  {Version: "10.8.2"},
		},
		Dependencies: map[string][]string{
			"npm": {"node"},
			"npx": {"node"},
		},
	}

	order := lf.InstallOrder()
	nodeIdx, npmIdx, npxIdx := indexOf(order, "node"), indexOf(order, "npm"), indexOf(order, "npx")
	if nodeIdx > npmIdx || nodeIdx > npxIdx {
		t.Fatalf("expected node before npm/npx, got %v", order)
	}
}

func TestInstallOrderFallsBackOnCycle(t *testing.T) {
	lf := &LockFile{
		Tools: map[string]Tool{
			"a": {Version: "1.0.0"},
			"b": {Version: "1.0.0"},
		},
		Dependencies: map[string][]string{
			"a": {"b"},
			"b": {"a"},
		},
	}
	order := lf.InstallOrder()
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("expected alphabetical fallback [a b], got %v", order)
	}
}

func TestCheckConsistencyVersionNoLongerSatisfies(t *testing.T) {
	lf := &LockFile{Tools: map[string]Tool{"vite": {Version: "5.4.0"}}}

	findings := lf.CheckConsistency([]DeclaredTool{
		{Runtime: "vite", Request: "^6.0", Ecosystem: "nodejs"},
	}, nil)
	if len(findings) != 1 || findings[0].Kind != KindVersionNoLongerSatisfies {
		t.Fatalf("expected one VersionNoLongerSatisfies finding, got %+v", findings)
	}
}

func TestCheckConsistencySatisfiedIsClean(t *testing.T) {
	lf := &LockFile{Tools: map[string]Tool{"vite": {Version: "5.4.0"}}}

	findings := lf.CheckConsistency([]DeclaredTool{
		{Runtime: "vite", Request: "^5.0", Ecosystem: "nodejs"},
	}, nil)
	if len(findings) != 0 {
		t.Fatalf("expected no findings, got %+v", findings)
	}
}

func TestCheckConsistencyAddedAndRemoved(t *testing.T) {
	lf := &LockFile{Tools: map[string]Tool{"old": {Version: "1.0.0"}}}

	findings := lf.CheckConsistency([]DeclaredTool{
		{Runtime: "new", Request: "latest", Ecosystem: "nodejs"},
	}, nil)

	var sawAdded, sawRemoved bool
	for _, f := range findings {
		if f.Runtime == "new" && f.Kind == KindToolAdded {
			sawAdded = true
		}
		if f.Runtime == "old" && f.Kind == KindToolRemoved {
			sawRemoved = true
		}
	}
	if !sawAdded || !sawRemoved {
		t.Fatalf("expected both added and removed findings, got %+v", findings)
	}
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

