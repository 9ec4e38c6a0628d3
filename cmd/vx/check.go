package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/terassyi/vx/internal/lockfile"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate vx.toml against vx.lock and report inconsistencies",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

// runCheck implements spec.md §6.1's `vx check`: compares the project's
// declared tools against the committed lock file via
// lockfile.CheckConsistency and exits nonzero on any finding.
func runCheck(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(&flags)
	if err != nil {
		exitCode = 1
		return err
	}

	declared := make([]lockfile.DeclaredTool, 0, len(a.config.Versions))
	for name, request := range a.config.Versions {
		ecosystem := ""
		if rt, ok := a.store.Get(name); ok {
			ecosystem = rt.Ecosystem
		}
		declared = append(declared, lockfile.DeclaredTool{Runtime: name, Request: request, Ecosystem: ecosystem})
	}

	currentDeps := make(map[string][]string)
	for name := range a.lockFile.Tools {
		var deps []string
		for _, e := range a.runtimeMap.Dependencies(name) {
			deps = append(deps, e.Requires)
		}
		currentDeps[name] = deps
	}

	findings := a.lockFile.CheckConsistency(declared, currentDeps)
	if len(findings) > 0 {
		exitCode = 1
	}

	return a.console.Result(findings, func(w io.Writer) {
		if len(findings) == 0 {
			fmt.Fprintln(w, "vx.toml and vx.lock are consistent")
			return
		}
		for _, f := range findings {
			fmt.Fprintf(w, "%s: %s (%s)\n", f.Runtime, f.Message, f.Kind)
		}
	})
}
