// Package console is vx's single output surface: it owns the
// text/JSON/quiet/verbose/CI output-mode duality (spec.md §6.1/§7) and
// the Installation Coordinator's progress rendering (SPEC_FULL.md
// §4.13) — an interactive bubbletea+lipgloss multi-task view on a TTY,
// a flat line-per-event fallback otherwise.
package console

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/terassyi/vx/internal/vxerrors"
)

// Format selects how command results and errors are rendered.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Options configures a Console (spec.md §6.1's global output flags).
type Options struct {
	Format  Format
	Verbose bool
	Quiet   bool
	NoColor bool
}

// Console is the single point every vx command routes user-visible
// output through, so the text/JSON duality and the quiet/verbose
// toggles are applied uniformly (spec.md §7: "machine-readable
// diagnostics are requested, matching the Console's own text/JSON
// duality").
type Console struct {
	Stdout, Stderr io.Writer
	Format         Format
	Verbose        bool
	Quiet          bool
	isTTY          bool

	formatter *vxerrors.Formatter
}

// New builds a Console writing to stdout/stderr, detecting terminal
// capability via go-isatty the same way the teacher's ProgressManager
// does.
func New(stdout, stderr io.Writer, opts Options) *Console {
	tty := false
	if f, ok := stdout.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Console{
		Stdout:    stdout,
		Stderr:    stderr,
		Format:    opts.Format,
		Verbose:   opts.Verbose,
		Quiet:     opts.Quiet,
		isTTY:     tty,
		formatter: vxerrors.NewFormatter(stderr, opts.NoColor, opts.Verbose),
	}
}

// Interactive reports whether the default bubbletea renderer should
// drive progress display: a real TTY, not quiet, and rendering text
// (JSON mode always uses the flat fallback, since its consumer is a
// machine, not a scrolling terminal).
func (c *Console) Interactive() bool {
	return c.isTTY && !c.Quiet && c.Format == FormatText
}

// Error reports err to stderr in the Console's configured Format
// (spec.md §7's stated text/JSON error duality).
func (c *Console) Error(err error) {
	if err == nil {
		return
	}
	if c.Format == FormatJSON {
		data, merr := c.formatter.FormatJSON(err)
		if merr != nil {
			fmt.Fprintf(c.Stderr, "{\"error\":{\"kind\":\"Unknown\",\"message\":%q}}\n", err.Error())
			return
		}
		fmt.Fprintln(c.Stderr, string(data))
		return
	}
	fmt.Fprint(c.Stderr, c.formatter.Format(err))
}

// Result prints a command's successful output: JSON-marshals v under
// --format json, otherwise calls renderText to print the human
// rendering. Suppressed entirely in quiet mode except for JSON (a
// machine consumer's request for structured output is never silenced).
func (c *Console) Result(v any, renderText func(io.Writer)) error {
	if c.Format == FormatJSON {
		enc := json.NewEncoder(c.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	if c.Quiet {
		return nil
	}
	renderText(c.Stdout)
	return nil
}

// Printf writes to stdout unless quiet mode suppresses it.
func (c *Console) Printf(format string, args ...any) {
	if c.Quiet {
		return
	}
	fmt.Fprintf(c.Stdout, format, args...)
}

// Println writes to stdout unless quiet mode suppresses it.
func (c *Console) Println(args ...any) {
	if c.Quiet {
		return
	}
	fmt.Fprintln(c.Stdout, args...)
}

// Verbosef writes a diagnostic line to stderr only under --verbose.
func (c *Console) Verbosef(format string, args ...any) {
	if !c.Verbose {
		return
	}
	fmt.Fprintf(c.Stderr, format+"\n", args...)
}
