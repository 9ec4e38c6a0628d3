package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/terassyi/vx/internal/coordinator"
)

// ciReporter is the non-interactive fallback: one printed line per
// Start/AlreadyInstalled/Complete/Failed event, no cursor control,
// suitable for a CI log or a piped, non-TTY stream (SPEC_FULL.md
// §4.13). Adapted from internal/ui/progress.go's non-TTY branch of
// ProgressManager, trimmed of its mpb/TTY half — that half lives in
// the Bubble Tea InstallModel here instead.
type ciReporter struct {
	w             io.Writer
	mu            sync.Mutex
	headerPrinted bool
}

func newCIReporter(w io.Writer) *ciReporter {
	return &ciReporter{w: w}
}

// Report implements coordinator.Reporter.
func (r *ciReporter) Report(event coordinator.Event) {
	if event.Type == coordinator.EventProgress {
		return // byte-level progress is noise outside a TTY
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.headerPrinted {
		fmt.Fprintln(r.w, "Installing:")
		r.headerPrinted = true
	}

	label := event.Runtime
	if event.Version != "" {
		label += " " + event.Version
	}

	switch event.Type {
	case coordinator.EventStart:
		fmt.Fprintf(r.w, " => %s\n", label)
	case coordinator.EventAlreadyInstalled:
		fmt.Fprintf(r.w, " %s %s (already installed)\n", doneMark, label)
	case coordinator.EventComplete:
		fmt.Fprintf(r.w, " %s %s\n", doneMark, label)
	case coordinator.EventFailed:
		fmt.Fprintf(r.w, " %s %s failed: %v\n", failMark, label, event.Err)
	}
}
