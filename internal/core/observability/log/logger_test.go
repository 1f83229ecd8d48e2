package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerLevelFiltering(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core), LevelWarn)

	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept", String("role", "fly"))
	l.Error("kept", Error(errors.New("boom")))

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, "fly", entries[0].ContextMap()["role"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestLoggerChildSharesLevel(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core), LevelInfo)
	child := l.Named("hub").With(Int("shard", 3))

	child.Debug("hidden")
	l.SetLevel(LevelDebug)
	child.Debug("visible")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "hub", entry.LoggerName)
	assert.EqualValues(t, 3, entry.ContextMap()["shard"])
	assert.Equal(t, LevelDebug, child.GetLevel())
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"":        LevelInfo,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.ErrorIs(t, err, ErrUnknownLevel)
	assert.Equal(t, "warn", LevelWarn.String())
}

func TestNopDiscards(t *testing.T) {
	l := NewNop()
	l.Error("nothing")
	assert.NoError(t, l.Sync())
}
