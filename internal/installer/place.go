package installer

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/terassyi/vx/internal/manifest"
	"github.com/terassyi/vx/internal/platform"
)

// normalizeLayout locates the declared executables inside extractDir and
// links/copies them into binDir under their canonical names, following
// entry.Layout/entry.Normalize (spec.md §4.7 step 5). Grounded on
// internal/installer/place/placer.go's Place/Symlink/findBinary, merged
// into one step since vx's StorePath-relative bin/ directory plays the
// role of the teacher's separate toolsDir/binDir pair.
func normalizeLayout(entry manifest.RuntimeEntry, extractDir, binDir string, p platform.Platform) error {
	if err := os.MkdirAll(binDir, 0755); err != nil {
		return fmt.Errorf("failed to create bin directory: %w", err)
	}

	strategy := platform.ProbeLinkStrategy(binDir)

	binaryPaths := entry.Layout.BinaryPaths
	if len(binaryPaths) == 0 {
		binaryPaths = []string{entry.Executable}
	}

	targetName := entry.Normalize.TargetName
	if targetName == "" {
		targetName = entry.Name
	}
	targetName += p.ExecutableExt()

	mode := os.FileMode(entry.Normalize.Mode)
	if mode == 0 {
		mode = 0755
	}

	var placed string
	for _, rel := range binaryPaths {
		src, err := resolveBinaryPath(extractDir, rel)
		if err != nil {
			continue
		}
		dst := filepath.Join(binDir, targetName)
		if err := linkOrCopy(strategy, src, dst, mode); err != nil {
			return err
		}
		placed = dst
		break
	}
	if placed == "" {
		return fmt.Errorf("no declared binary path resolved under %s (tried %v)", extractDir, binaryPaths)
	}

	for _, alias := range entry.Normalize.Aliases {
		aliasPath := filepath.Join(binDir, alias+p.ExecutableExt())
		if err := linkOrCopy(strategy, placed, aliasPath, mode); err != nil {
			return err
		}
	}
	return nil
}

// resolveBinaryPath finds rel under extractDir, expanding a strip_prefix
// style single-wildcard component (e.g. "node-{version}-{os}-{arch}/bin/node"
// already expanded by the caller) or falling back to a name search when
// the literal path doesn't exist (archives often nest one extra
// directory level vs. what the manifest declares).
func resolveBinaryPath(extractDir, rel string) (string, error) {
	direct := filepath.Join(extractDir, rel)
	if _, err := os.Stat(direct); err == nil {
		return direct, nil
	}

	want := filepath.Base(rel)
	var found string
	_ = filepath.WalkDir(extractDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || found != "" {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() == want {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if found == "" {
		return "", fmt.Errorf("binary %q not found under %s", rel, extractDir)
	}
	return found, nil
}

// expandStripPrefix expands {version}/{os}/{arch} tokens in a strip_prefix
// glob declared by the manifest (spec.md §4.7 step 5).
func expandStripPrefix(stripPrefix, version string, p platform.Platform) string {
	r := strings.NewReplacer(
		"{version}", version,
		"{os}", string(p.OS),
		"{arch}", string(p.Arch),
	)
	return r.Replace(stripPrefix)
}

func linkOrCopy(strategy platform.LinkStrategy, src, dst string, mode os.FileMode) error {
	if _, err := os.Lstat(dst); err == nil {
		os.Remove(dst)
	}

	switch strategy {
	case platform.LinkSymlink:
		target := src
		if rel, err := filepath.Rel(filepath.Dir(dst), src); err == nil {
			target = rel
		}
		if err := os.Symlink(target, dst); err == nil {
			return nil
		}
		fallthrough
	case platform.LinkHardlink:
		if err := os.Link(src, dst); err == nil {
			return nil
		}
	}
	return copyFile(src, dst, mode)
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Chmod(mode)
}
