package projectfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsEmptyConfiguration(t *testing.T) {
	t.Parallel()
	cfg, err := Load(filepath.Join(t.TempDir(), "vx.toml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Versions)
	assert.Empty(t, cfg.Env)
}

func TestLoad_ParsesToolsAndEnv(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "vx.toml")
	body := "[tools]\nnode = \"^20\"\ngo = \"1.22.x\"\n\n[env]\nNODE_ENV = \"development\"\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "^20", cfg.Versions["node"])
	assert.Equal(t, "1.22.x", cfg.Versions["go"])
	assert.Equal(t, "development", cfg.Env["NODE_ENV"])
}

func TestLoad_InvalidTOMLIsError(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "vx.toml")
	require.NoError(t, os.WriteFile(path, []byte("[tools\nnode = "), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestFind_WalksUpToParentDirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(""), 0o644))

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := Find(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, FileName), found)
}

func TestFind_ReturnsEmptyWhenNoneFound(t *testing.T) {
	t.Parallel()
	found, err := Find(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, found)
}
