package main

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"

	"github.com/terassyi/vx/internal/vxerrors"
)

func TestSplitToolVersion(t *testing.T) {
	cases := []struct {
		in          string
		wantTool    string
		wantVersion string
	}{
		{"node", "node", ""},
		{"node@20", "node", "20"},
		{"node@20.18.0", "node", "20.18.0"},
		{"go@1.22@beta", "go", "1.22@beta"},
	}
	for _, c := range cases {
		tool, version := splitToolVersion(c.in)
		if tool != c.wantTool || version != c.wantVersion {
			t.Errorf("splitToolVersion(%q) = (%q, %q), want (%q, %q)", c.in, tool, version, c.wantTool, c.wantVersion)
		}
	}
}

func TestExtractGlobalFlags(t *testing.T) {
	flags = globalFlags{}
	remaining := extractGlobalFlags([]string{"node", "--version"})
	if len(remaining) != 2 || remaining[0] != "node" || remaining[1] != "--version" {
		t.Fatalf("expected --version to pass through untouched, got %v", remaining)
	}

	flags = globalFlags{}
	remaining = extractGlobalFlags([]string{"node", "--version", "--cache-mode", "offline"})
	if len(remaining) != 2 || remaining[0] != "node" || remaining[1] != "--version" {
		t.Fatalf("expected --cache-mode offline extracted from after the tool name, got %v", remaining)
	}
	if flags.cacheMode != "offline" {
		t.Fatalf("cacheMode = %q, want offline", flags.cacheMode)
	}

	flags = globalFlags{}
	remaining = extractGlobalFlags([]string{"--verbose", "--format=json", "node"})
	if len(remaining) != 1 || remaining[0] != "node" {
		t.Fatalf("expected only the tool name to remain, got %v", remaining)
	}
	if !flags.verbose || flags.format != "json" {
		t.Fatalf("expected verbose=true format=json, got %+v", flags)
	}
}

func TestIsKnownSubcommand(t *testing.T) {
	for _, name := range []string{"install", "uninstall", "list", "versions", "which", "check", "sync", "lock", "cache", "providers", "completion", "help"} {
		if !isKnownSubcommand(name) {
			t.Errorf("expected %q to be a known subcommand", name)
		}
	}
	if isKnownSubcommand("node") {
		t.Error("expected node not to be treated as a subcommand")
	}
}

func TestUsageExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errors.New(`unknown command "badcmd" for "vx"`), 2},
		{errors.New("unknown flag: --bogus"), 2},
		{errors.New(`accepts 1 arg(s), received 0`), 2},
		{errors.New("requires at least 1 arg(s), only received 0"), 2},
		{errors.New("something else went wrong"), 1},
	}
	for _, c := range cases {
		if got := usageExitCode(c.err); got != c.want {
			t.Errorf("usageExitCode(%q) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestPipelineExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"resolve stage", vxerrors.Wrap(vxerrors.StageResolve, errors.New("boom")), 3},
		{"ensure stage", vxerrors.Wrap(vxerrors.StageEnsure, errors.New("boom")), 4},
		{"prepare stage", vxerrors.Wrap(vxerrors.StagePrepare, errors.New("boom")), 4},
		{"execute stage", vxerrors.Wrap(vxerrors.StageExecute, errors.New("boom")), 5},
		{"unwrapped error", errors.New("boom"), 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := pipelineExitCode(c.err); got != c.want {
				t.Errorf("pipelineExitCode(%v) = %d, want %d", c.err, got, c.want)
			}
		})
	}
}

func TestRootCmdRegistersEverySubcommand(t *testing.T) {
	want := []string{"install", "uninstall", "list", "versions", "which", "check", "sync", "lock", "cache", "providers", "completion"}
	got := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		got[c.Name()] = true
	}
	for _, name := range want {
		if !got[name] {
			t.Errorf("rootCmd missing subcommand %q", name)
		}
	}
}

func TestRootCmdHelpOnNoArgs(t *testing.T) {
	cmd := &cobra.Command{Use: "vx"}
	if err := runDispatch(cmd, nil); err != nil {
		t.Fatalf("runDispatch with no args: %v", err)
	}
}
