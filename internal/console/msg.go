package console

import (
	"log/slog"
	"time"

	"github.com/terassyi/vx/internal/coordinator"
)

// installEventMsg wraps a coordinator.Event as a Bubble Tea message.
type installEventMsg struct {
	event coordinator.Event
}

// doneMsg signals that Coordinator.Ensure has returned.
type doneMsg struct {
	err error
}

// tickMsg drives periodic redraws (elapsed time, spinner phase).
type tickMsg time.Time

// slogMsg delivers one forwarded structured log record to the model.
type slogMsg struct {
	level   slog.Level
	message string
}
