package console

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/terassyi/vx/internal/coordinator"
)

const progressThrottleInterval = 100 * time.Millisecond

// sender abstracts tea.Program.Send for testing, adapted from
// internal/ui/reporter.go.
type sender interface {
	Send(msg tea.Msg)
}

// throttledReporter bridges coordinator.Events to Bubble Tea,
// throttling EventProgress so a fast download doesn't flood the
// program's message queue.
type throttledReporter struct {
	target       sender
	mu           sync.Mutex
	lastProgress map[string]time.Time
}

func newThrottledReporter(target sender) *throttledReporter {
	return &throttledReporter{target: target, lastProgress: make(map[string]time.Time)}
}

// Report implements coordinator.Reporter.
func (r *throttledReporter) Report(event coordinator.Event) {
	if event.Type == coordinator.EventProgress {
		key := taskKey(event.Runtime, event.Version)
		r.mu.Lock()
		last, ok := r.lastProgress[key]
		now := time.Now()
		if ok && now.Sub(last) < progressThrottleInterval {
			r.mu.Unlock()
			return
		}
		r.lastProgress[key] = now
		r.mu.Unlock()
	}
	r.target.Send(installEventMsg{event: event})
}

func (r *throttledReporter) done(err error) {
	r.target.Send(doneMsg{err: err})
}
