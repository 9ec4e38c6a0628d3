// Command vx is the universal development-tool manager's CLI entrypoint
// (spec.md §6.1): `vx <tool>[@version] [args...]` resolves, installs on
// demand, and execs a language runtime or CLI tool, alongside the
// management subcommands (install, uninstall, list, versions, which,
// check, sync, lock, cache, providers, completion).
//
// Grounded on the teacher's cmd/toto/main.go+root.go (the pack's only
// buildable CLI entrypoint): a package-level cobra rootCmd wired up in
// init(), a minimal main() that execs it and maps the result to a
// process exit code.
package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terassyi/vx/internal/pipeline"
	"github.com/terassyi/vx/internal/vxerrors"
)

var flags globalFlags

// exitCode is set by whichever command ran so Execute can report it
// back to main after cobra's own Execute() returns only an error.
var exitCode int

var rootCmd = &cobra.Command{
	Use:   "vx <tool>[@version] [-- args...]",
	Short: "Universal development tool version manager",
	Long: `vx resolves, installs, and runs language runtimes and CLI tools
on demand from declarative provider manifests, the way asdf/mise/aqua do,
without requiring a dedicated plugin per tool.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	DisableFlagParsing: false,
	Args:               cobra.ArbitraryArgs,
	RunE:               runDispatch,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.cacheMode, "cache-mode", "", "cache mode: normal, refresh, offline, no-cache")
	pf.BoolVar(&flags.verbose, "verbose", false, "verbose diagnostic output")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "suppress non-essential output")
	pf.BoolVar(&flags.jsonOut, "json", false, "alias for --format json")
	pf.StringVar(&flags.format, "format", "text", "output format: text or json")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		installCmd,
		uninstallCmd,
		listCmd,
		versionsCmd,
		whichCmd,
		checkCmd,
		syncCmd,
		lockCmd,
		cacheCmd,
		providersCmd,
		completionCmd,
	)
}

// Execute runs the command tree and returns the process exit code
// alongside any error cobra itself produced (flag-parsing/usage
// failures never touch exitCode, so those default to the usage code).
//
// The primary `vx <tool>[@version] [args...]` form bypasses cobra's own
// flag parser entirely: spec.md §6.1 requires every flag-looking token
// after the tool name (e.g. `vx node --version`) to reach the child
// verbatim, including ones that collide with vx's own global flags
// when they appear after the tool name (scenario D: `vx node --version
// --cache-mode offline`). cobra's pflag parser interleaves flags and
// positionals and would instead reject `--version` as unknown. So
// global flags are pulled out of argv by hand first; whatever's left
// is handed to cobra only when it actually names a subcommand.
func Execute() (int, error) {
	ctx := context.Background()
	rootCmd.SetContext(ctx)

	toolArgv := extractGlobalFlags(os.Args[1:])
	if len(toolArgv) == 0 || strings.HasPrefix(toolArgv[0], "-") || isKnownSubcommand(toolArgv[0]) {
		if err := rootCmd.Execute(); err != nil {
			if exitCode == 0 {
				exitCode = usageExitCode(err)
			}
			return exitCode, err
		}
		return exitCode, nil
	}

	if err := runDispatchRaw(ctx, toolArgv); err != nil {
		if exitCode == 0 {
			exitCode = 1
		}
		return exitCode, err
	}
	return exitCode, nil
}

// isKnownSubcommand reports whether name is a registered subcommand (or
// one of its aliases), consulting rootCmd.Commands() directly so this
// stays correct as commands are added.
func isKnownSubcommand(name string) bool {
	if name == "help" {
		return true
	}
	for _, c := range rootCmd.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}
	return false
}

// extractGlobalFlags pulls vx's own global flags out of argv wherever
// they appear, setting the package-level flags var, and returns the
// remaining tokens untouched and in order: a tool name (if any)
// followed by that tool's own argv, verbatim.
func extractGlobalFlags(argv []string) []string {
	remaining := make([]string, 0, len(argv))
	for i := 0; i < len(argv); i++ {
		a := argv[i]
		switch {
		case a == "--cache-mode" && i+1 < len(argv):
			flags.cacheMode = argv[i+1]
			i++
		case strings.HasPrefix(a, "--cache-mode="):
			flags.cacheMode = strings.TrimPrefix(a, "--cache-mode=")
		case a == "--verbose":
			flags.verbose = true
		case a == "--quiet" || a == "-q":
			flags.quiet = true
		case a == "--json":
			flags.jsonOut = true
		case a == "--format" && i+1 < len(argv):
			flags.format = argv[i+1]
			i++
		case strings.HasPrefix(a, "--format="):
			flags.format = strings.TrimPrefix(a, "--format=")
		case a == "--no-color":
			flags.noColor = true
		default:
			remaining = append(remaining, a)
		}
	}
	return remaining
}

// usageExitCode distinguishes a cobra flag/argument usage failure
// (spec.md §6.1: exit 2) from every other error surfaced before a
// command's own RunE set a more specific code (exit 1).
func usageExitCode(err error) int {
	msg := err.Error()
	if strings.Contains(msg, "unknown command") || strings.Contains(msg, "unknown flag") || strings.Contains(msg, "accepts") || strings.Contains(msg, "requires at least") {
		return 2
	}
	return 1
}

// runDispatch is rootCmd's own RunE. Execute only reaches cobra's
// parser when there's no tool name to dispatch to (bare flags, or no
// args at all), so this is just the help fallback.
func runDispatch(cmd *cobra.Command, _ []string) error {
	return cmd.Help()
}

// runDispatchRaw implements the primary `vx <tool>[@version] [args...]`
// invocation (spec.md §6.1's default dispatch path), working from the
// manually-split argv Execute produced rather than cobra's parser.
func runDispatchRaw(ctx context.Context, toolArgv []string) error {
	a, err := buildApp(&flags)
	if err != nil {
		exitCode = 1
		return err
	}

	tool, version := splitToolVersion(toolArgv[0])
	req := pipeline.RuntimeRequest{
		Runtime:        tool,
		VersionRequest: version,
		Args:           toolArgv[1:],
		WorkDir:        ".",
		Timeout:        0,
		CacheMode:      a.cacheMode,
		Platform:       a.platform(),
	}

	code, rerr := a.console.Run(ctx, a.pipeline, a.coordinator, req, a.config)
	exitCode = code
	if rerr != nil {
		exitCode = pipelineExitCode(rerr)
		return nil // already reported by console.Run's Error path
	}
	if err := a.saveLockFile(); err != nil {
		a.console.Verbosef("warning: failed to update lock file: %v", err)
	}
	return nil
}

// splitToolVersion splits "node@20" into ("node", "20"); a bare "node"
// yields ("node", "").
func splitToolVersion(s string) (string, string) {
	if i := strings.Index(s, "@"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// pipelineExitCode maps a *vxerrors.PipelineError's stage to the
// reserved exit-code range spec.md §6.1 defines: 3 (resolve), 4
// (ensure/install), 5 (execute). A prepare-stage failure is reported as
// an install failure (4), since it always follows directly from Ensure
// in this pipeline. Any other error is a general failure (1).
func pipelineExitCode(err error) int {
	var perr *vxerrors.PipelineError
	if errors.As(err, &perr) {
		switch perr.StageName {
		case vxerrors.StageResolve:
			return 3
		case vxerrors.StageEnsure, vxerrors.StagePrepare:
			return 4
		case vxerrors.StageExecute:
			return 5
		}
	}
	return 1
}
