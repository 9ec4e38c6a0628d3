package console

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/terassyi/vx/internal/coordinator"
)

// Update implements tea.Model.
func (m *InstallModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		if m.start.IsZero() {
			m.start = time.Time(msg)
		}
		m.totalElapsed = time.Time(msg).Sub(m.start)
		return m, tick()

	case installEventMsg:
		return m.handleEvent(msg.event)

	case slogMsg:
		return m.handleSlogMsg(msg)

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m *InstallModel) handleEvent(event coordinator.Event) (tea.Model, tea.Cmd) {
	key := taskKey(event.Runtime, event.Version)

	switch event.Type {
	case coordinator.EventStart:
		if _, exists := m.tasks[key]; exists {
			return m, nil
		}
		m.tasks[key] = &taskState{runtime: event.Runtime, version: event.Version, status: taskRunning, startTime: time.Now()}
		m.taskOrder = append(m.taskOrder, key)

	case coordinator.EventProgress:
		if t, ok := m.tasks[key]; ok {
			t.downloaded, t.total, t.hasProgress = event.Downloaded, event.Total, true
		}

	case coordinator.EventAlreadyInstalled:
		if _, exists := m.tasks[key]; !exists {
			m.tasks[key] = &taskState{runtime: event.Runtime, version: event.Version, status: taskDone, startTime: time.Now()}
			m.taskOrder = append(m.taskOrder, key)
		}

	case coordinator.EventComplete:
		if t, ok := m.tasks[key]; ok {
			t.status = taskDone
			t.elapsed = time.Since(t.startTime)
		}

	case coordinator.EventFailed:
		if t, ok := m.tasks[key]; ok {
			t.status = taskFailed
			t.elapsed = time.Since(t.startTime)
			t.err = event.Err
		}
	}

	return m, nil
}

func (m *InstallModel) handleSlogMsg(msg slogMsg) (tea.Model, tea.Cmd) {
	m.slogLines = append(m.slogLines, slogLine(msg))
	if len(m.slogLines) > maxLogLines {
		m.slogLines = m.slogLines[len(m.slogLines)-maxLogLines:]
	}
	return m, nil
}
