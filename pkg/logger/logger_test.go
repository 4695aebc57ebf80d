package logger

import (
	"bytes"
	"encoding/json"
	"talentedge_backend/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	cases := []struct {
		mode, level string
		want        zapcore.Level
	}{
		{"debug", "", zap.DebugLevel},
		{"release", "", zap.InfoLevel},
		{"debug", "warn", zap.WarnLevel},
		{"release", "nonsense", zap.InfoLevel},
	}
	for _, tc := range cases {
		cfg := &config.Config{}
		cfg.Server.Mode = tc.mode
		cfg.Log.Level = tc.level
		assert.Equal(t, tc.want, Level(cfg), "mode=%s level=%s", tc.mode, tc.level)
	}
}

func TestNew_WritesJSONWithServiceField(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{}
	cfg.Server.Mode = "release"

	log := New(cfg, zapcore.AddSync(&buf))
	log.Debug("dropped")
	log.Info("attempt evaluated", zap.Uint("attemptID", 7))
	require.NoError(t, log.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "attempt evaluated", entry["msg"])
	assert.Equal(t, "grading", entry["service"])
	assert.EqualValues(t, 7, entry["attemptID"])
}
