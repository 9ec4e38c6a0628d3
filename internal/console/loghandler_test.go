package console

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTUILogHandler_WarnAndErrorAreSent(t *testing.T) {
	t.Parallel()
	s := &mockSender{}
	handler := newTUILogHandler(s, slog.LevelWarn)
	logger := slog.New(handler)

	logger.Warn("first warning")
	logger.Error("first error")

	msgs := s.messages()
	require.Len(t, msgs, 2)

	msg0 := msgs[0].(slogMsg)
	assert.Equal(t, slog.LevelWarn, msg0.level)
	assert.Equal(t, "first warning", msg0.message)

	msg1 := msgs[1].(slogMsg)
	assert.Equal(t, slog.LevelError, msg1.level)
	assert.Equal(t, "first error", msg1.message)
}

func TestTUILogHandler_InfoIgnoredAtWarnLevel(t *testing.T) {
	t.Parallel()
	s := &mockSender{}
	handler := newTUILogHandler(s, slog.LevelWarn)
	logger := slog.New(handler)

	logger.Debug("debug msg")
	logger.Info("info msg")

	assert.Empty(t, s.messages())
}

func TestTUILogHandler_WithAttrsAreQualifiedIntoMessage(t *testing.T) {
	t.Parallel()
	s := &mockSender{}
	handler := newTUILogHandler(s, slog.LevelInfo).WithAttrs([]slog.Attr{slog.String("runtime", "go")})
	logger := slog.New(handler)

	logger.Info("installing")

	msgs := s.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].(slogMsg).message, `runtime="go"`)
}

func TestTUILogHandler_WithGroupQualifiesKeys(t *testing.T) {
	t.Parallel()
	s := &mockSender{}
	handler := newTUILogHandler(s, slog.LevelInfo).WithGroup("install")
	logger := slog.New(handler)

	logger.Info("installing", slog.String("runtime", "go"))

	msgs := s.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].(slogMsg).message, `install.runtime="go"`)
}
