package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every runtime known from the loaded provider manifests",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

type listEntry struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem,omitempty"`
	Provider  string `json:"provider"`
	Installed bool   `json:"installed"`
}

func runList(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(&flags)
	if err != nil {
		exitCode = 1
		return err
	}

	p := a.platform()
	entries := make([]listEntry, 0)
	for _, rt := range a.store.All(&p) {
		_, installed := a.lockFile.Get(rt.Name)
		entries = append(entries, listEntry{
			Name:      rt.Name,
			Ecosystem: rt.Ecosystem,
			Provider:  rt.Provider.Name,
			Installed: installed,
		})
	}

	return a.console.Result(entries, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tECOSYSTEM\tPROVIDER\tLOCKED")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", e.Name, e.Ecosystem, e.Provider, e.Installed)
		}
		tw.Flush()
	})
}
