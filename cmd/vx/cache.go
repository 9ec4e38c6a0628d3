package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the version and resolution caches",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache directory locations",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached version list and resolution graph",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
}

type cacheStats struct {
	VersionCacheDir    string `json:"version_cache_dir"`
	ResolutionCacheDir string `json:"resolution_cache_dir"`
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(&flags)
	if err != nil {
		exitCode = 1
		return err
	}
	stats := cacheStats{
		VersionCacheDir:    a.layout.VersionCacheDir(),
		ResolutionCacheDir: a.layout.ResolutionCacheDir(),
	}
	return a.console.Result(stats, func(w io.Writer) {
		fmt.Fprintf(w, "versions:    %s\n", stats.VersionCacheDir)
		fmt.Fprintf(w, "resolutions: %s\n", stats.ResolutionCacheDir)
	})
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(&flags)
	if err != nil {
		exitCode = 1
		return err
	}
	if err := a.versionC.Clear(); err != nil {
		exitCode = 1
		return err
	}
	if err := a.resolutionC.Clear(); err != nil {
		exitCode = 1
		return err
	}
	return a.console.Result(map[string]bool{"cleared": true}, func(w io.Writer) {
		fmt.Fprintln(w, "cache cleared")
	})
}
