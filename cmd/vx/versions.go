package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/terassyi/vx/internal/github"
	"github.com/terassyi/vx/internal/versionsolver"
	"github.com/terassyi/vx/internal/versionsource"
)

var versionsCmd = &cobra.Command{
	Use:   "versions <tool>",
	Short: "List the version candidates available for a tool",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersions,
}

func runVersions(cmd *cobra.Command, args []string) error {
	a, err := buildApp(&flags)
	if err != nil {
		exitCode = 1
		return err
	}

	rt, ok := a.store.Get(args[0])
	if !ok {
		exitCode = 3
		return fmt.Errorf("unknown tool %q", args[0])
	}

	httpClient := github.NewHTTPClient(github.TokenFromEnv())
	candidates, err := a.versionC.Get(rt.Name, a.cacheMode, func() ([]versionsolver.Candidate, error) {
		return versionsource.Fetch(context.Background(), rt, httpClient)
	})
	if err != nil {
		exitCode = 3
		return err
	}

	return a.console.Result(candidates, func(w io.Writer) {
		for _, c := range candidates {
			lts := ""
			if c.LTS {
				lts = " (lts)"
			}
			fmt.Fprintf(w, "%s%s\n", c.Version, lts)
		}
	})
}
