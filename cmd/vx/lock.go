package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/terassyi/vx/internal/lockfile"
	"github.com/terassyi/vx/internal/pipeline"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "(Re)generate vx.lock from the current project configuration",
	Args:  cobra.NoArgs,
	RunE:  runLock,
}

func runLock(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(&flags)
	if err != nil {
		exitCode = 1
		return err
	}

	pinned := make(map[string]string, len(a.config.Versions))
	for name, versionRequest := range a.config.Versions {
		req := pipeline.RuntimeRequest{
			Runtime:        name,
			VersionRequest: versionRequest,
			Platform:       a.platform(),
			CacheMode:      a.cacheMode,
		}
		plan, err := a.pipeline.Resolve(cmd.Context(), req, a.config)
		if err != nil {
			exitCode = 3
			return err
		}
		a.lockFile.Set(plan.Target, lockfile.Tool{
			Version:       plan.Version,
			OriginalRange: versionRequest,
			ResolvedFrom:  "lock",
			Pinning:       lockfile.PinningExact,
		})
		pinned[plan.Target] = plan.Version
	}

	if err := a.saveLockFile(); err != nil {
		exitCode = 1
		return err
	}

	return a.console.Result(pinned, func(w io.Writer) {
		for name, version := range pinned {
			fmt.Fprintf(w, "%s = %s\n", name, version)
		}
	})
}
