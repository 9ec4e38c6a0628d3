package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <tool>@<version>",
	Short: "Remove an installed tool version from the store",
	Args:  cobra.ExactArgs(1),
	RunE:  runUninstall,
}

func runUninstall(cmd *cobra.Command, args []string) error {
	a, err := buildApp(&flags)
	if err != nil {
		exitCode = 1
		return err
	}

	tool, version := splitToolVersion(args[0])
	if version == "" {
		exitCode = 2
		return fmt.Errorf("uninstall requires an explicit version: vx uninstall %s@<version>", tool)
	}

	if err := a.installerFor().Uninstall(tool, version); err != nil {
		exitCode = 1
		return err
	}

	return a.console.Result(map[string]string{"runtime": tool, "version": version}, func(w io.Writer) {
		fmt.Fprintf(w, "uninstalled %s@%s\n", tool, version)
	})
}
