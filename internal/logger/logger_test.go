package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/leafyhealth/accounting-management/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel(" DEBUG "))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestBuildHonoursLevel(t *testing.T) {
	for _, encoding := range []string{"json", "console"} {
		logger, err := Build(config.Observability{ServiceName: "accounting-management", LogLevel: "warn", LogEncoding: encoding})
		require.NoError(t, err, encoding)

		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel), encoding)
		assert.True(t, logger.Core().Enabled(zapcore.WarnLevel), encoding)
	}
}

func TestFxEventsLogAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	events := FxEvents(zap.New(core))
	events.LogEvent(&fxevent.Started{})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.DebugLevel, entry.Level)
	assert.Equal(t, "fx", entry.LoggerName)
}
