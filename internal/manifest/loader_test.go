package manifest

import (
	"testing"

	"github.com/terassyi/vx/internal/layout"
)

func TestLoadAllBuiltins(t *testing.T) {
	t.Setenv(layout.EnvStoreDir, t.TempDir())
	t.Setenv(layout.EnvCacheDir, t.TempDir())
	t.Setenv(layout.EnvProvidersPath, "")

	l, err := layout.New()
	if err != nil {
		t.Fatalf("layout.New: %v", err)
	}

	loader := NewLoader(l, nil)
	store, diags := loader.LoadAll("")

	if len(diags.Errors) != 0 {
		t.Fatalf("unexpected errors loading built-ins: %+v", diags.Errors)
	}

	for _, name := range []string{"node", "npm", "npx", "uv", "uvx", "python", "go"} {
		if _, ok := store.Get(name); !ok {
			t.Errorf("expected built-in runtime %q to be loaded", name)
		}
	}
}

func TestLoadAllMissingProviderPathIsNotAnError(t *testing.T) {
	t.Setenv(layout.EnvStoreDir, t.TempDir())
	t.Setenv(layout.EnvCacheDir, t.TempDir())
	t.Setenv(layout.EnvProvidersPath, "/nonexistent/vx/providers/path")

	l, err := layout.New()
	if err != nil {
		t.Fatalf("layout.New: %v", err)
	}

	loader := NewLoader(l, nil)
	_, diags := loader.LoadAll("")

	if len(diags.Errors) != 0 {
		t.Fatalf("expected a missing provider path to be silently skipped, got errors: %+v", diags.Errors)
	}
}
