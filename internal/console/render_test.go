package console

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenderProgressBar_EmptyWhenNoTotal(t *testing.T) {
	t.Parallel()
	bar := renderProgressBar(0, 0)
	assert.Equal(t, progressBarWidth, visibleWidth(bar))
}

func TestRenderProgressBar_FullWhenDone(t *testing.T) {
	t.Parallel()
	bar := renderProgressBar(100, 100)
	assert.Equal(t, progressBarWidth, visibleWidth(bar))
}

func TestFormatSize_Units(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.0 KiB", formatSize(1024))
	assert.Equal(t, "1.0 MiB", formatSize(1024*1024))
	assert.Equal(t, "1.0 GiB", formatSize(1024*1024*1024))
}

func TestFormatElapsed(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "2.5s", formatElapsed(2500*time.Millisecond))
}

func TestVisibleWidth_IgnoresANSIEscapes(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 4, visibleWidth("\x1b[32mdone\x1b[0m"))
}

func TestSlogLevelLabel(t *testing.T) {
	t.Parallel()
	label, _ := slogLevelLabel(slog.LevelError)
	assert.Equal(t, "ERROR", label)

	label, _ = slogLevelLabel(slog.LevelWarn)
	assert.Equal(t, "WARN", label)

	label, _ = slogLevelLabel(slog.LevelInfo)
	assert.Equal(t, "INFO", label)

	label, _ = slogLevelLabel(slog.LevelDebug)
	assert.Equal(t, "DEBUG", label)
}

func TestRenderTask_DoneShowsCheckmark(t *testing.T) {
	t.Parallel()
	task := &taskState{runtime: "go", version: "1.22.0", status: taskDone, elapsed: time.Second}
	line := renderTask(task, 80)
	assert.Contains(t, line, "go 1.22.0")
	assert.Contains(t, line, "1.0s")
}

func TestRenderTask_FailedTruncatesLongMessage(t *testing.T) {
	t.Parallel()
	longMsg := ""
	for i := 0; i < 80; i++ {
		longMsg += "x"
	}
	task := &taskState{runtime: "go", status: taskFailed, err: assertErr(longMsg)}
	line := renderTask(task, 80)
	assert.Contains(t, line, "...")
}

type stubErr string

func (e stubErr) Error() string { return string(e) }

func assertErr(msg string) error { return stubErr(msg) }
