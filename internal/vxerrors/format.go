package vxerrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Formatter renders vx's structured errors for CLI output, in either
// human-readable text or machine-readable JSON (spec.md §7).
type Formatter struct {
	NoColor bool
	Verbose bool
	Writer  io.Writer

	errorColor   *color.Color
	kindColor    *color.Color
	runtimeColor *color.Color
	hintColor    *color.Color
	dimColor     *color.Color
}

// NewFormatter creates a Formatter writing to w.
func NewFormatter(w io.Writer, noColor, verbose bool) *Formatter {
	if noColor {
		color.NoColor = true
	}
	return &Formatter{
		NoColor:      noColor,
		Verbose:      verbose,
		Writer:       w,
		errorColor:   color.New(color.FgRed, color.Bold),
		kindColor:    color.New(color.FgRed),
		runtimeColor: color.New(color.FgCyan),
		hintColor:    color.New(color.FgGreen),
		dimColor:     color.New(color.FgHiBlack),
	}
}

// stager is implemented by every concrete stage error type, letting the
// formatter treat them uniformly without a type switch per kind.
type stager interface {
	error
	base() *Base
}

func (e *ResolveError) base() *Base { return &e.Base }
func (e *EnsureError) base() *Base  { return &e.Base }
func (e *PrepareError) base() *Base { return &e.Base }
func (e *ExecuteError) base() *Base { return &e.Base }

// Format renders err as text for stderr.
func (f *Formatter) Format(err error) string {
	if err == nil {
		return ""
	}

	var pipe *PipelineError
	if errors.As(err, &pipe) {
		var sb strings.Builder
		sb.WriteString(f.dimColor.Sprintf("[%s] ", pipe.StageName))
		sb.WriteString(f.Format(pipe.Cause))
		return sb.String()
	}

	var st stager
	if errors.As(err, &st) {
		return f.formatBase(st.base())
	}

	return f.errorColor.Sprint("Error: ") + err.Error() + "\n"
}

func (f *Formatter) formatBase(b *Base) string {
	var sb strings.Builder

	sb.WriteString(f.errorColor.Sprint("Error"))
	if b.Kind != "" {
		sb.WriteString(" ")
		sb.WriteString(f.kindColor.Sprintf("[%s]", b.Kind))
	}
	sb.WriteString(f.errorColor.Sprint(": "))
	sb.WriteString(b.Message)
	sb.WriteString("\n")

	if b.Runtime != "" {
		sb.WriteString("  ")
		sb.WriteString(f.dimColor.Sprint("runtime: "))
		sb.WriteString(f.runtimeColor.Sprint(b.Runtime))
		if b.Version != "" {
			sb.WriteString("@" + b.Version)
		}
		sb.WriteString("\n")
	}

	if chain, ok := b.Details["chain"].([]UnsatisfiableConstraintLink); ok {
		sb.WriteString("\n")
		for _, link := range chain {
			fmt.Fprintf(&sb, "  %s requires %s (%s)\n", f.runtimeColor.Sprint(link.Source), link.Runtime, link.Constraint)
		}
	}

	if cycle, ok := b.Details["cycle"].([]string); ok && len(cycle) > 0 {
		sb.WriteString("\n  " + strings.Join(cycle, " → ") + "\n")
	}

	for _, s := range b.Suggestions {
		sb.WriteString("  " + f.hintColor.Sprint(s) + "\n")
	}

	if f.Verbose && b.Cause != nil {
		sb.WriteString("\n")
		sb.WriteString(f.dimColor.Sprint("caused by: "))
		sb.WriteString(b.Cause.Error())
		sb.WriteString("\n")
	}

	return sb.String()
}

// jsonError is the wire shape described by spec.md §7:
// {"error": {"kind", "message", "suggestions", "context"}}.
type jsonError struct {
	Kind        string         `json:"kind"`
	Message     string         `json:"message"`
	Suggestions []string       `json:"suggestions,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
}

// FormatJSON renders err as the {"error": {...}} document for stdout
// under --format json.
func (f *Formatter) FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return nil, nil
	}

	var pipe *PipelineError
	if errors.As(err, &pipe) {
		return f.FormatJSON(pipe.Cause)
	}

	var st stager
	if errors.As(err, &st) {
		b := st.base()
		ctx := make(map[string]any, len(b.Details)+2)
		for k, v := range b.Details {
			ctx[k] = v
		}
		if b.Runtime != "" {
			ctx["runtime"] = b.Runtime
		}
		if b.Version != "" {
			ctx["version"] = b.Version
		}
		payload := struct {
			Error jsonError `json:"error"`
		}{jsonError{Kind: b.Kind, Message: b.Message, Suggestions: b.Suggestions, Context: ctx}}
		return json.MarshalIndent(payload, "", "  ")
	}

	payload := struct {
		Error jsonError `json:"error"`
	}{jsonError{Kind: "Unknown", Message: err.Error()}}
	return json.MarshalIndent(payload, "", "  ")
}
