package zaplogger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/icontent-lms/go-icontent/logger"
	"github.com/icontent-lms/go-icontent/logger/zaplogger"
)

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := zaplogger.Wrap(zap.New(core))

	logger.Debug(l, "debug message", logger.With("cmid", int64(42)))
	logger.Info(l, "info message")
	logger.Warn(l, "warn message")
	logger.Error(l, "error message", logger.Err(errors.New("boom")))

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, int64(42), entries[0].ContextMap()["cmid"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "boom", entries[3].ContextMap()["error"])
}

func TestNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		logger.Info(nil, "nobody listens")
	})
}
