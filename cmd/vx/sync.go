package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/terassyi/vx/internal/pipeline"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Install every tool declared in vx.toml",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

// runSync ensures the local store matches vx.lock (spec.md §6.1):
// installs whatever the lock file (or, absent a lock entry, vx.toml)
// names, letting Resolve's own lock-preferred precedence (internal/
// pipeline/resolve.go's requestedVersion) pin each install to exactly
// what a prior `vx lock` committed.
func runSync(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(&flags)
	if err != nil {
		exitCode = 1
		return err
	}

	names := syncTargets(a)
	if len(names) == 0 {
		a.console.Println("nothing to sync: no tools in", a.lockPath, "or", projectFileOrDefault(a))
		return nil
	}

	installed := make([]string, 0, len(names))
	for _, name := range names {
		req := pipeline.RuntimeRequest{
			Runtime:   name,
			Platform:  a.platform(),
			CacheMode: a.cacheMode,
		}
		plan, err := a.console.Install(cmd.Context(), a.pipeline, a.coordinator, req, a.config)
		if err != nil {
			exitCode = pipelineExitCode(err)
			return nil
		}
		installed = append(installed, fmt.Sprintf("%s@%s", plan.Target, plan.Version))
	}

	if err := a.saveLockFile(); err != nil {
		a.console.Verbosef("warning: failed to update lock file: %v", err)
	}

	return a.console.Result(installed, func(w io.Writer) {
		for _, s := range installed {
			fmt.Fprintln(w, s)
		}
	})
}

// syncTargets is the union of the lock file's pinned tools and vx.toml's
// declared tools, lock-file names first so a reader sees what's actually
// reproducible pinned ahead of what's merely requested.
func syncTargets(a *app) []string {
	seen := make(map[string]bool)
	var names []string
	for _, name := range a.lockFile.Names() {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range a.config.Versions {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

func projectFileOrDefault(a *app) string {
	if a.projectPath == "" {
		return "vx.toml"
	}
	return a.projectPath
}
