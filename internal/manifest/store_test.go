package manifest

import "testing"

func newTestManifest(tier Tier, path string, entries ...RuntimeEntry) *Manifest {
	return &Manifest{
		Provider:   Provider{Name: "test", Ecosystem: "test"},
		Runtimes:   entries,
		SourcePath: path,
		SourceTier: tier,
	}
}

func TestStoreMergeBasic(t *testing.T) {
	s := newStore()
	var diags Diagnostics

	s.merge(newTestManifest(TierBuiltin, "builtin/node.toml",
		RuntimeEntry{Name: "node", Executable: "node"},
		RuntimeEntry{Name: "npm", Executable: "npm", BundledWith: "node"},
	), &diags)

	if len(diags.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", diags.Errors)
	}

	rt, ok := s.Get("node")
	if !ok {
		t.Fatal("expected to find node")
	}
	if rt.Executable != "node" {
		t.Fatalf("Executable = %q", rt.Executable)
	}

	npm, ok := s.Get("npm")
	if !ok || npm.BundledWith != "node" {
		t.Fatalf("expected npm bundled with node, got %+v ok=%v", npm, ok)
	}
}

func TestStorePrecedenceOverride(t *testing.T) {
	s := newStore()
	var diags Diagnostics

	s.merge(newTestManifest(TierBuiltin, "builtin/node.toml",
		RuntimeEntry{Name: "node", Executable: "node", Priority: 10},
	), &diags)
	s.merge(newTestManifest(TierUserLocal, "user/node.toml",
		RuntimeEntry{Name: "node", Executable: "node", Priority: 99},
	), &diags)

	rt, _ := s.Get("node")
	if rt.Priority != 99 {
		t.Fatalf("expected user-local override to win, got priority %d", rt.Priority)
	}
	if rt.Tier != TierUserLocal {
		t.Fatalf("expected Tier = TierUserLocal, got %v", rt.Tier)
	}
}

func TestStoreLowerPrecedenceIgnored(t *testing.T) {
	s := newStore()
	var diags Diagnostics

	s.merge(newTestManifest(TierUserLocal, "user/node.toml",
		RuntimeEntry{Name: "node", Executable: "node", Priority: 99},
	), &diags)
	s.merge(newTestManifest(TierBuiltin, "builtin/node.toml",
		RuntimeEntry{Name: "node", Executable: "node", Priority: 10},
	), &diags)

	rt, _ := s.Get("node")
	if rt.Priority != 99 {
		t.Fatalf("expected built-in load to leave user-local override intact, got %d", rt.Priority)
	}
	if len(diags.Warnings) != 1 {
		t.Fatalf("expected exactly one precedence warning, got %d: %+v", len(diags.Warnings), diags.Warnings)
	}
}

func TestStoreBundledRuntimeResolvesByName(t *testing.T) {
	s := newStore()
	var diags Diagnostics

	s.merge(newTestManifest(TierBuiltin, "builtin/python.toml",
		RuntimeEntry{Name: "uv", Executable: "uv"},
		RuntimeEntry{Name: "uvx", Executable: "uvx", BundledWith: "uv"},
	), &diags)

	if _, ok := s.Get("uvx"); !ok {
		t.Fatal("expected uvx to resolve directly by name")
	}
	if names := s.Names(); len(names) != 2 {
		t.Fatalf("expected 2 runtime names, got %v", names)
	}
}

func TestStoreConflictingAliasKeepsFirst(t *testing.T) {
	s := newStore()
	var diags Diagnostics

	s.merge(newTestManifest(TierBuiltin, "a.toml",
		RuntimeEntry{Name: "foo", Executable: "foo", Aliases: []string{"shared"}},
	), &diags)
	s.merge(newTestManifest(TierBuiltin, "b.toml",
		RuntimeEntry{Name: "bar", Executable: "bar", Aliases: []string{"shared"}},
	), &diags)

	rt, ok := s.Get("shared")
	if !ok || rt.Name != "foo" {
		t.Fatalf("expected alias collision to keep the first owner, got %+v ok=%v", rt, ok)
	}
	if len(diags.Warnings) != 1 {
		t.Fatalf("expected one alias-conflict warning, got %d", len(diags.Warnings))
	}
}
