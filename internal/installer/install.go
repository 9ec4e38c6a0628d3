// Package installer materializes one (runtime, resolved version,
// platform) into a normalized StorePath (SPEC_FULL.md §4.7, spec.md
// §4.7): URL construction, download, checksum verification, extraction,
// layout normalization, atomic commit, and post-install hooks.
package installer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/terassyi/vx/internal/checksum"
	"github.com/terassyi/vx/internal/installer/command"
	"github.com/terassyi/vx/internal/installer/provenance"
	"github.com/terassyi/vx/internal/layout"
	"github.com/terassyi/vx/internal/manifest"
	"github.com/terassyi/vx/internal/platform"
	"github.com/terassyi/vx/internal/vxerrors"
)

// Request describes one artifact to materialize.
type Request struct {
	Runtime  manifest.RuntimeEntry
	Version  string
	Platform platform.Platform
	// LockChecksum, when non-empty, overrides the manifest-declared
	// checksum source with a pinned "algorithm:hash" value from the lock
	// file (spec.md §6.5's per-platform checksum pinning).
	LockChecksum string
	// OnProgress, when set, overrides the Installer's default progress
	// callback for this call only — letting a concurrent caller (the
	// Installation Coordinator) bind a closure carrying this request's own
	// runtime identity without mutating shared Installer state.
	OnProgress ProgressFunc
}

// Installer drives the 7-step artifact pipeline.
type Installer struct {
	layout     *layout.Layout
	dlConfig   downloadConfig
	runner     *command.Executor
	onProgress ProgressFunc
}

// New builds an Installer rooted at l.
func New(l *layout.Layout) *Installer {
	return &Installer{layout: l, dlConfig: defaultDownloadConfig(), runner: command.NewExecutor("")}
}

// WithProgress attaches a progress callback for download byte counts.
func (i *Installer) WithProgress(fn ProgressFunc) *Installer {
	i.onProgress = fn
	return i
}

// Install materializes req into <store>/<runtime>/<version>/, returning
// the final StorePath. Any step failure aborts with a structured
// *vxerrors.EnsureError naming the runtime, version, and failing step;
// the staging directory is always cleaned up, successful or not.
func (i *Installer) Install(ctx context.Context, req Request) (string, error) {
	entry := req.Runtime
	finalPath := i.layout.StorePath(entry.Name, req.Version)

	if _, err := os.Stat(finalPath); err == nil {
		return finalPath, nil // idempotent resume (spec.md §4.8)
	}

	staging, err := i.layout.StagingDir(entry.Name, req.Version)
	if err != nil {
		return "", vxerrors.NewInstallFailed(entry.Name, req.Version, err)
	}
	defer os.RemoveAll(staging)

	if entry.Artifact.URLTemplate == "" {
		return "", vxerrors.NewInstallFailed(entry.Name, req.Version, fmt.Errorf("runtime %q declares no artifact to install (is it bundled_with another runtime?)", entry.Name))
	}

	format := resolveFormat(entry)
	if format == FormatSevenZ {
		return "", vxerrors.NewExtractionFailed(entry.Name, req.Version, string(format), ErrUnsupportedFormat)
	}

	artifactPath := filepath.Join(staging, "artifact"+artifactSuffix(format))

	url := BuildURL(ctx, entry, req.Version, req.Platform)
	if url == "" {
		return "", vxerrors.NewDownloadFailed(entry.Name, req.Version, url, fmt.Errorf("no artifact URL resolved for %q", entry.Name))
	}
	onProgress := i.onProgress
	if req.OnProgress != nil {
		onProgress = req.OnProgress
	}
	if err := download(ctx, i.dlConfig, url, artifactPath, onProgress); err != nil {
		return "", vxerrors.NewDownloadFailed(entry.Name, req.Version, url, err)
	}

	if err := i.verifyChecksum(ctx, entry, req, artifactPath); err != nil {
		return "", err
	}

	if err := i.verifyProvenance(ctx, entry, req, artifactPath); err != nil {
		return "", err
	}

	extractDir := filepath.Join(staging, "extracted")
	if err := extract(format, artifactPath, extractDir); err != nil {
		return "", vxerrors.NewExtractionFailed(entry.Name, req.Version, string(format), err)
	}

	root := extractDir
	if entry.Layout.StripPrefix != "" {
		root = filepath.Join(extractDir, expandStripPrefix(entry.Layout.StripPrefix, req.Version, req.Platform))
	}

	binDir := filepath.Join(staging, "bin")
	if err := normalizeLayout(entry, root, binDir, req.Platform); err != nil {
		return "", vxerrors.NewInstallFailed(entry.Name, req.Version, err)
	}

	if err := i.commit(staging, finalPath); err != nil {
		return "", vxerrors.NewInstallFailed(entry.Name, req.Version, err)
	}

	if err := i.runPostInstall(ctx, entry, req.Version, finalPath); err != nil {
		return "", err
	}

	return finalPath, nil
}

// Uninstall removes a runtime version's StorePath entirely (spec.md
// §6.1's `vx uninstall`). Removing a version that was never installed is
// not an error, matching Install's own idempotent-resume stance.
func (i *Installer) Uninstall(runtime, version string) error {
	path := i.layout.StorePath(runtime, version)
	if err := os.RemoveAll(path); err != nil {
		return vxerrors.NewInstallFailed(runtime, version, fmt.Errorf("removing %s: %w", path, err))
	}
	return nil
}

// resolveFormat returns the declared format, or binary when the
// manifest omits one and the runtime is bundled (no artifact of its
// own to fetch).
func resolveFormat(entry manifest.RuntimeEntry) ArchiveFormat {
	if entry.Artifact.Format != "" {
		return ArchiveFormat(entry.Artifact.Format)
	}
	if entry.Artifact.URLTemplate != "" {
		return DetectFormat(entry.Artifact.URLTemplate)
	}
	return FormatBinary
}

func artifactSuffix(format ArchiveFormat) string {
	switch format {
	case FormatTarGz:
		return ".tar.gz"
	case FormatTarXz:
		return ".tar.xz"
	case FormatTarBz2:
		return ".tar.bz2"
	case FormatZip:
		return ".zip"
	default:
		return ""
	}
}

// verifyChecksum checks artifactPath against the lock-pinned checksum
// when present, else the manifest-declared one; an absent checksum is a
// logged allowance, never an error (Open Question 1 in DESIGN.md).
func (i *Installer) verifyChecksum(ctx context.Context, entry manifest.RuntimeEntry, req Request, artifactPath string) error {
	value := req.LockChecksum
	if value == "" {
		value = entry.Artifact.Checksum.Value
	}
	if value == "" && entry.Artifact.Checksum.URL != "" {
		fetched, err := fetchChecksumFromURL(ctx, expandTemplate(entry.Artifact.Checksum.URL, req.Version, entry.Artifact.Ext, req.Platform), entry.Artifact.Checksum.FilePattern, filepath.Base(artifactPath))
		if err == nil {
			value = fetched
		}
	}
	if value == "" {
		slog.Warn("no checksum declared; skipping verification", "runtime", entry.Name, "version", req.Version)
		return nil
	}

	algorithm, expected, err := checksum.Parse(value)
	if err != nil {
		return nil
	}
	actual, err := checksum.Calculate(artifactPath, algorithm)
	if err != nil {
		return vxerrors.NewInstallFailed(entry.Name, req.Version, err)
	}
	if actual != expected {
		return vxerrors.NewChecksumMismatch(entry.Name, req.Version, expected, actual)
	}
	return nil
}

// verifyProvenance checks a downloaded artifact against its manifest's
// optional sigstore bundle (SPEC_FULL.md §4.7's checksum-verification
// enrichment). A runtime that declares no BundleURLTemplate carries no
// provenance attestation and this step is a no-op, same as an absent
// checksum.
func (i *Installer) verifyProvenance(ctx context.Context, entry manifest.RuntimeEntry, req Request, artifactPath string) error {
	tmpl := entry.Artifact.Provenance.BundleURLTemplate
	if tmpl == "" {
		return nil
	}

	bundlePath := artifactPath + ".sigstore.json"
	bundleURL := expandTemplate(tmpl, req.Version, entry.Artifact.Ext, req.Platform)
	if err := download(ctx, i.dlConfig, bundleURL, bundlePath, nil); err != nil {
		return vxerrors.NewProvenanceFailed(entry.Name, req.Version, fmt.Errorf("fetching bundle: %w", err))
	}

	identity := provenance.Identity{
		Issuer:   entry.Artifact.Provenance.Issuer,
		SANRegex: entry.Artifact.Provenance.SANRegex,
	}
	if err := provenance.Verify(bundlePath, artifactPath, identity); err != nil {
		return vxerrors.NewProvenanceFailed(entry.Name, req.Version, err)
	}
	return nil
}

// commit renames staging into its final StorePath atomically. If the
// destination already exists (NeedsUpdate), the old path is moved aside
// first, then removed after the rename succeeds (spec.md §4.7 step 6).
func (i *Installer) commit(staging, finalPath string) error {
	if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
		return err
	}

	if _, err := os.Stat(finalPath); err == nil {
		old := finalPath + ".old"
		if err := os.Rename(finalPath, old); err != nil {
			return fmt.Errorf("failed to move aside existing install: %w", err)
		}
		defer os.RemoveAll(old)
	}

	return os.Rename(staging, finalPath)
}

func (i *Installer) runPostInstall(ctx context.Context, entry manifest.RuntimeEntry, version, finalPath string) error {
	if len(entry.Artifact.PostInstall) == 0 {
		return nil
	}
	env := map[string]string{"VX_INSTALL_PATH": finalPath, "VX_RUNTIME_VERSION": version}
	vars := command.Vars{Name: entry.Name, Version: version, BinPath: filepath.Join(finalPath, "bin")}
	if err := i.runner.ExecuteWithEnv(ctx, entry.Artifact.PostInstall, vars, env); err != nil {
		return vxerrors.NewPostInstallFailed(entry.Name, version, fmt.Sprintf("%v", entry.Artifact.PostInstall), err)
	}
	return nil
}

// fetchChecksumFromURL downloads a checksums manifest (e.g. SHASUMS256.txt)
// and extracts the hash for the entry matching pattern (the artifact's own
// filename when pattern is empty), dispatching on the manifest's detected
// format (GNU, BSD, Go's JSON release index, or a bare hash) via
// checksum.ParseFile rather than assuming a single line shape.
func fetchChecksumFromURL(ctx context.Context, url, pattern, artifactName string) (string, error) {
	if pattern == "" {
		pattern = artifactName
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch checksums: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if algorithm, digest, err := checksum.ParseFile(body, pattern); err == nil {
		return string(algorithm) + ":" + string(digest), nil
	}

	// checksum.ParseFile requires an exact filename match; some providers
	// declare pattern as only a filename fragment (e.g. "linux-amd64"), so
	// fall back to a substring scan over GNU/BSD-style "<hash> <filename>"
	// lines before giving up.
	for _, line := range strings.Split(string(body), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if strings.Contains(fields[1], pattern) {
			if algorithm := checksum.DetectAlgorithm(fields[0]); algorithm != "" {
				return string(algorithm) + ":" + fields[0], nil
			}
		}
	}
	return "", fmt.Errorf("no checksum entry matching %q in %s", pattern, url)
}
