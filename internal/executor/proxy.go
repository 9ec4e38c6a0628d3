package executor

import (
	"os"
	"path/filepath"

	"github.com/terassyi/vx/internal/manifest"
	"github.com/terassyi/vx/internal/platform"
	"github.com/terassyi/vx/internal/vxerrors"
)

// ResolveExecutable finds the absolute path of entry's executable inside
// storeBinDir, the bin/ directory of its own StorePath (or, for a
// bundled_with runtime like npm, the bin/ directory of the parent
// runtime it ships inside — the caller passes the parent's StorePath's
// bin dir in that case, since normalizeLayout places every declared
// binary, including a dependent's, under its owning runtime's bin/).
func ResolveExecutable(entry manifest.RuntimeEntry, storeBinDir string, p platform.Platform) (string, error) {
	name := entry.Normalize.TargetName
	if name == "" {
		name = entry.Name
	}
	path := filepath.Join(storeBinDir, name+p.ExecutableExt())
	if _, err := os.Stat(path); err != nil {
		if entry.BundledWith != "" {
			return "", vxerrors.NewProxyNotAvailable(entry.Name, entry.BundledWith)
		}
		return "", vxerrors.NewNoExecutable(entry.Name, storeBinDir)
	}
	return path, nil
}
