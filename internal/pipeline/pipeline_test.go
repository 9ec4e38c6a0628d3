package pipeline

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terassyi/vx/internal/cachemode"
	"github.com/terassyi/vx/internal/coordinator"
	"github.com/terassyi/vx/internal/installer"
	"github.com/terassyi/vx/internal/layout"
	"github.com/terassyi/vx/internal/lockfile"
	"github.com/terassyi/vx/internal/manifest"
	"github.com/terassyi/vx/internal/platform"
	"github.com/terassyi/vx/internal/resolutioncache"
	"github.com/terassyi/vx/internal/runtimemap"
	"github.com/terassyi/vx/internal/versioncache"
	"github.com/terassyi/vx/internal/versionsolver"
)

func buildTarGz(t *testing.T, relPath string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: relPath, Mode: 0755, Size: int64(len(content))}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func testPlatform() platform.Platform {
	return platform.Platform{OS: platform.Linux, Arch: platform.X86_64}
}

// newTestPipeline builds a full Pipeline for a single standalone runtime
// "demo" served off an httptest archive server, and a dependent "demo2"
// bundled_with "demo" (exercising the proxy path).
func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	script := []byte("#!/bin/sh\nexit 0\n")
	archive := buildTarGz(t, "bin/demo", script)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	t.Cleanup(srv.Close)

	demo := manifest.RuntimeEntry{
		Name:       "demo",
		Executable: "demo",
		Ecosystem:  "system",
		Artifact:   manifest.Artifact{URLTemplate: srv.URL + "/demo.tar.gz", Format: "tar.gz"},
		Layout:     manifest.Layout{BinaryPaths: []string{"bin/demo"}},
	}
	demoProxy := manifest.RuntimeEntry{
		Name:        "demo-proxy",
		Executable:  "demo-proxy",
		BundledWith: "demo",
		Ecosystem:   "system",
		Normalize:   manifest.Normalize{TargetName: "demo"},
	}

	m := &manifest.Manifest{
		Provider: manifest.Provider{Name: "demo", Ecosystem: "system"},
		Runtimes: []manifest.RuntimeEntry{demo, demoProxy},
	}
	store, diags := manifest.Merge(m)
	require.Empty(t, diags.Errors)

	rm, err := runtimemap.New(store)
	require.NoError(t, err)

	l, err := layout.New(layout.WithStoreDir(t.TempDir()), layout.WithCacheDir(t.TempDir()))
	require.NoError(t, err)

	inst := installer.New(l)
	co := coordinator.New(l, inst)

	vc := versioncache.New(l)
	rc := resolutioncache.New(l)
	lf := &lockfile.LockFile{Version: lockfile.CurrentVersion, Tools: map[string]lockfile.Tool{}}

	fetch := func(rt *manifest.Runtime) ([]versionsolver.Candidate, error) {
		return []versionsolver.Candidate{{Version: "1.0.0"}}, nil
	}

	return New(store, rm, l, vc, rc, lf, co, fetch, "test")
}

func TestRunFreshInstallAndExecute(t *testing.T) {
	p := newTestPipeline(t)
	code, err := p.Run(context.Background(), RuntimeRequest{
		Runtime:   "demo",
		CacheMode: cachemode.Normal,
		Platform:  testPlatform(),
	}, Configuration{})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestRunProxyExecutionResolvesParentBinary(t *testing.T) {
	p := newTestPipeline(t)
	code, err := p.Run(context.Background(), RuntimeRequest{
		Runtime:   "demo-proxy",
		CacheMode: cachemode.Normal,
		Platform:  testPlatform(),
	}, Configuration{})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestResolveUnknownRuntimeFails(t *testing.T) {
	p := newTestPipeline(t)
	_, err := p.Resolve(context.Background(), RuntimeRequest{Runtime: "nope", Platform: testPlatform()}, Configuration{})
	require.Error(t, err)
}

func TestRunSkipsInstallWhenAlreadyPresent(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()
	req := RuntimeRequest{Runtime: "demo", CacheMode: cachemode.Normal, Platform: testPlatform()}

	_, err := p.Run(ctx, req, Configuration{})
	require.NoError(t, err)

	plan, err := p.Resolve(ctx, req, Configuration{})
	require.NoError(t, err)
	plan, err = p.Ensure(ctx, plan)
	require.NoError(t, err)
	require.Len(t, plan.EnsureSteps, 1)
	assert.Equal(t, coordinator.AlreadyInstalled, plan.EnsureSteps[0].Status)
}

func TestExecutableIsPlacedUnderStorePath(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()
	req := RuntimeRequest{Runtime: "demo", CacheMode: cachemode.Normal, Platform: testPlatform()}

	plan, err := p.Resolve(ctx, req, Configuration{})
	require.NoError(t, err)
	plan, err = p.Ensure(ctx, plan)
	require.NoError(t, err)
	prepared, err := p.Prepare(plan)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(p.Layout.StoreBinDir("demo", "1.0.0"), "demo"), prepared.Executable)
}
