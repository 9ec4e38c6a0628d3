package console

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// View implements tea.Model. The last frame rendered before tea.Quit
// persists in the terminal scrollback, matching the teacher's
// scrollback-preserving convention (no AltScreen — a single `vx`
// invocation's progress view is short enough to stay inline).
func (m *InstallModel) View() string {
	if len(m.taskOrder) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Installing:"))
	b.WriteByte('\n')

	for _, key := range m.taskOrder {
		t := m.tasks[key]
		if t == nil {
			continue
		}
		b.WriteString(renderTask(t, m.width))
		b.WriteByte('\n')
	}

	renderLogPanel(&b, m.slogLines, m.width)

	fmt.Fprintf(&b, "\nElapsed: %s", formatElapsed(m.totalElapsed))
	return b.String()
}

func renderTask(t *taskState, width int) string {
	elapsed := t.elapsed
	if t.status == taskRunning {
		elapsed = time.Since(t.startTime)
	}

	switch t.status {
	case taskDone:
		return rightAlign(fmt.Sprintf(" %s %s", doneMark, taskLabel(t)), formatElapsed(elapsed), width)
	case taskFailed:
		msg := "unknown error"
		if t.err != nil {
			msg = t.err.Error()
			if len(msg) > 50 {
				msg = msg[:47] + "..."
			}
		}
		return rightAlign(fmt.Sprintf(" %s %s  failed: %s", failMark, taskLabel(t), msg), formatElapsed(elapsed), width)
	default:
		if t.hasProgress {
			bar := renderProgressBar(t.downloaded, t.total)
			sizes := fmt.Sprintf("%s / %s", formatSize(t.downloaded), formatSize(t.total))
			return rightAlign(fmt.Sprintf(" %s %s  %s  %s", runningMark, taskLabel(t), bar, sizes), formatElapsed(elapsed), width)
		}
		frame := spinnerChars[int(time.Since(t.startTime).Milliseconds()/80)%len(spinnerChars)]
		return rightAlign(fmt.Sprintf(" %s %s  %s", runningMark, taskLabel(t), frame), formatElapsed(elapsed), width)
	}
}

func taskLabel(t *taskState) string {
	if t.version == "" {
		return t.runtime
	}
	return t.runtime + " " + t.version
}

func renderProgressBar(downloaded, total int64) string {
	if total <= 0 {
		return strings.Repeat(string(progressEmpty), progressBarWidth)
	}
	ratio := float64(downloaded) / float64(total)
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio * float64(progressBarWidth))
	return strings.Repeat(string(progressFull), filled) + strings.Repeat(string(progressEmpty), progressBarWidth-filled)
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatSize(n int64) string {
	const (
		kib = 1024
		mib = 1024 * kib
		gib = 1024 * mib
	)
	switch {
	case n >= gib:
		return fmt.Sprintf("%.1f GiB", float64(n)/float64(gib))
	case n >= mib:
		return fmt.Sprintf("%.1f MiB", float64(n)/float64(mib))
	case n >= kib:
		return fmt.Sprintf("%.1f KiB", float64(n)/float64(kib))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// rightAlign places suffix at the right edge of a width-wide line,
// ignoring ANSI escapes already baked into prefix (doneMark/failMark
// are pre-rendered lipgloss strings).
func rightAlign(prefix, suffix string, width int) string {
	gap := width - 1 - visibleWidth(prefix) - len(suffix)
	if gap < 1 {
		gap = 1
	}
	return prefix + strings.Repeat(" ", gap) + suffix
}

func visibleWidth(s string) int {
	width := 0
	inEscape := false
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		width++
	}
	return width
}

func renderLogPanel(b *strings.Builder, lines []slogLine, width int) {
	if len(lines) == 0 {
		return
	}
	b.WriteByte('\n')
	b.WriteString(dimStyle.Render("── Logs " + strings.Repeat("─", max(width-8, 0))))
	b.WriteByte('\n')
	for _, line := range lines {
		label, style := slogLevelLabel(line.level)
		text := fmt.Sprintf(" %s %s", label, line.message)
		b.WriteString(style.Render(text))
		b.WriteByte('\n')
	}
}

func slogLevelLabel(level slog.Level) (string, lipgloss.Style) {
	switch {
	case level >= slog.LevelError:
		return "ERROR", errorLogStyle
	case level >= slog.LevelWarn:
		return "WARN", warnLogStyle
	case level >= slog.LevelInfo:
		return "INFO", lipgloss.NewStyle()
	default:
		return "DEBUG", dimStyle
	}
}
