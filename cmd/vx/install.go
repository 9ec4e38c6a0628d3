package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/terassyi/vx/internal/pipeline"
)

var installCmd = &cobra.Command{
	Use:   "install <tool>[@version]",
	Short: "Resolve and install a tool without running it",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstall,
}

func runInstall(cmd *cobra.Command, args []string) error {
	a, err := buildApp(&flags)
	if err != nil {
		exitCode = 1
		return err
	}

	tool, version := splitToolVersion(args[0])
	req := pipeline.RuntimeRequest{
		Runtime:        tool,
		VersionRequest: version,
		Platform:       a.platform(),
		CacheMode:      a.cacheMode,
	}

	plan, err := a.console.Install(cmd.Context(), a.pipeline, a.coordinator, req, a.config)
	if err != nil {
		exitCode = pipelineExitCode(err)
		return nil
	}
	if err := a.saveLockFile(); err != nil {
		a.console.Verbosef("warning: failed to update lock file: %v", err)
	}

	return a.console.Result(plan, func(w io.Writer) {
		fmt.Fprintf(w, "installed %s@%s\n", plan.Target, plan.Version)
	})
}
