// Package manifestsync syncs a community provider-manifest repository into
// <cache>/providers/<name> (SPEC_FULL.md §4.16), so a shared,
// version-controlled source of provider.toml files can be fetched instead
// of hand-placed on every machine. The synced directory is not added to
// VX_PROVIDERS_PATH automatically.
// Adapted from internal/git/git.go's go-git based clone/pull, repurposed
// from fetching a CUE module dependency to fetching a manifest repository.
package manifestsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/terassyi/vx/internal/layout"
)

// Source identifies a community provider-manifest repository.
type Source struct {
	// URL is the repository's clone URL (https://... or git@...).
	URL string
	// Branch to track; empty means the repository's default branch.
	Branch string
}

// Name derives the destination directory name from the URL's final path
// segment, stripping a trailing ".git" the way a manual `git clone` would.
func (s Source) Name() string {
	base := path(s.URL)
	return strings.TrimSuffix(base, ".git")
}

func path(url string) string {
	url = strings.TrimSuffix(url, "/")
	if i := strings.LastIndexByte(url, '/'); i >= 0 {
		return url[i+1:]
	}
	return url
}

// Dir computes the destination under the layout's cache directory that a
// Source syncs into. Providers synced here are not automatically part of
// ProviderPaths()'s search tier — the caller must add Dir to
// VX_PROVIDERS_PATH (or pass it via layout.WithProviderPaths) once synced,
// exactly as it would for a hand-placed directory.
func Dir(l *layout.Layout, s Source) string {
	return filepath.Join(l.CacheDir(), "providers", s.Name())
}

// Result reports what Sync did.
type Result struct {
	Dir     string
	Cloned  bool
	Updated bool
}

// ProgressFunc receives a running count of progress-sideband bytes go-git
// reports during clone/fetch, for driving a progress indicator — the
// transfer has no a-priori total, so this is a rate signal, not a
// percentage.
type ProgressFunc func(writtenBytes int64)

// Sync clones src into the layout's provider cache if it isn't present
// there yet, or pulls the latest commit on its tracked branch otherwise.
func Sync(ctx context.Context, l *layout.Layout, src Source, onProgress ProgressFunc) (Result, error) {
	dest := Dir(l, src)

	if _, err := os.Stat(filepath.Join(dest, ".git")); err == nil {
		if err := pull(ctx, dest, onProgress); err != nil {
			return Result{}, err
		}
		return Result{Dir: dest, Updated: true}, nil
	} else if !os.IsNotExist(err) {
		return Result{}, fmt.Errorf("manifestsync: stat %s: %w", dest, err)
	}

	if err := clone(ctx, src, dest, onProgress); err != nil {
		return Result{}, err
	}
	return Result{Dir: dest, Cloned: true}, nil
}

func clone(ctx context.Context, src Source, dest string, onProgress ProgressFunc) error {
	slog.Debug("cloning provider manifest repository", "url", src.URL, "dest", dest)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("manifestsync: create parent of %s: %w", dest, err)
	}

	opts := &git.CloneOptions{URL: src.URL, Depth: 1, SingleBranch: true}
	if src.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(src.Branch)
	}
	if onProgress != nil {
		opts.Progress = &progressCounter{onProgress: onProgress}
	}

	if _, err := git.PlainCloneContext(ctx, dest, false, opts); err != nil {
		if errors.Is(err, git.ErrRepositoryAlreadyExists) {
			return fmt.Errorf("manifestsync: %s already exists at %s: %w", src.URL, dest, err)
		}
		return fmt.Errorf("manifestsync: clone %s: %w", src.URL, err)
	}

	slog.Debug("provider manifest repository cloned", "url", src.URL, "dest", dest)
	return nil
}

func pull(ctx context.Context, dest string, onProgress ProgressFunc) error {
	slog.Debug("pulling provider manifest repository", "dest", dest)

	repo, err := git.PlainOpen(dest)
	if err != nil {
		return fmt.Errorf("manifestsync: open %s: %w", dest, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("manifestsync: worktree for %s: %w", dest, err)
	}

	opts := &git.PullOptions{}
	if onProgress != nil {
		opts.Progress = &progressCounter{onProgress: onProgress}
	}

	if err := wt.PullContext(ctx, opts); err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			slog.Debug("provider manifest repository already up-to-date", "dest", dest)
			return nil
		}
		return fmt.Errorf("manifestsync: pull %s: %w", dest, err)
	}

	slog.Debug("provider manifest repository updated", "dest", dest)
	return nil
}

// progressCounter adapts go-git's sideband progress writer into a running
// byte count, driving a ProgressFunc.
type progressCounter struct {
	onProgress ProgressFunc
	written    int64
}

func (p *progressCounter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	p.onProgress(p.written)
	return len(b), nil
}
