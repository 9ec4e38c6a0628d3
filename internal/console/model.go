package console

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	tickInterval = 50 * time.Millisecond
	maxLogLines  = 5
)

// taskStatus is one runtime install's current state.
type taskStatus int

const (
	taskRunning taskStatus = iota
	taskDone
	taskFailed
)

// taskState tracks one (runtime, version) being ensured. Unlike the
// teacher's resource-graph model there are no layers or taint/remove
// phases to track — vx's Ensure settles one flat set of runtimes.
type taskState struct {
	runtime     string
	version     string
	status      taskStatus
	startTime   time.Time
	downloaded  int64
	total       int64
	hasProgress bool
	elapsed     time.Duration
	err         error
}

// InstallModel is the Bubble Tea model for the interactive Ensure
// progress view (SPEC_FULL.md §4.13), adapted from
// internal/ui/model.go with the resource-kind/layer/taint machinery
// trimmed: vx installs a flat dependency closure, not a tainted
// resource graph.
type InstallModel struct {
	tasks     map[string]*taskState
	taskOrder []string

	start        time.Time
	totalElapsed time.Duration

	slogLines []slogLine

	done  bool
	err   error
	width int
}

type slogLine struct {
	level   slog.Level
	message string
}

// NewInstallModel creates an empty InstallModel.
func NewInstallModel() *InstallModel {
	return &InstallModel{tasks: make(map[string]*taskState), width: 80, start: time.Time{}}
}

// Init implements tea.Model.
func (m *InstallModel) Init() tea.Cmd {
	return tick()
}

// Err returns the error Ensure finished with, if any.
func (m *InstallModel) Err() error {
	return m.err
}

// FinalView returns the same rendering as View, for reprinting to
// scrollback after the Bubble Tea program exits.
func (m *InstallModel) FinalView() string {
	return m.View()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func taskKey(runtime, version string) string {
	return runtime + "@" + version
}
