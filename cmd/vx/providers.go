package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/terassyi/vx/internal/manifestsync"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Manage community provider-manifest repositories",
}

var providersSyncCmd = &cobra.Command{
	Use:   "sync <git-url> [branch]",
	Short: "Clone or update a provider-manifest repository under the cache directory",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runProvidersSync,
}

func init() {
	providersCmd.AddCommand(providersSyncCmd)
}

func runProvidersSync(cmd *cobra.Command, args []string) error {
	a, err := buildApp(&flags)
	if err != nil {
		exitCode = 1
		return err
	}

	src := manifestsync.Source{URL: args[0]}
	if len(args) > 1 {
		src.Branch = args[1]
	}

	onProgress, wait := manifestsync.NewMPBProgress(a.console.Stderr)
	result, err := manifestsync.Sync(cmd.Context(), a.layout, src, onProgress)
	wait()
	if err != nil {
		exitCode = 1
		return err
	}

	return a.console.Result(result, func(w io.Writer) {
		verb := "pulled"
		if result.Cloned {
			verb = "cloned"
		}
		fmt.Fprintf(w, "%s %s into %s\n", verb, src.Name(), result.Dir)
	})
}
