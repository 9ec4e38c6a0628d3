package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/terassyi/vx/internal/pipeline"
)

var whichCmd = &cobra.Command{
	Use:   "which <tool>[@version]",
	Short: "Print the resolved executable path for a tool without running it",
	Args:  cobra.ExactArgs(1),
	RunE:  runWhich,
}

func runWhich(cmd *cobra.Command, args []string) error {
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

	prepared, err := a.pipeline.Prepare(plan)
	if err != nil {
		exitCode = 4
		return err
	}

	return a.console.Result(map[string]string{"executable": prepared.Executable, "version": plan.Version}, func(w io.Writer) {
		fmt.Fprintln(w, prepared.Executable)
	})
}
