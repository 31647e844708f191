package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", "debug", slog.LevelDebug, false},
		{"大文字と空白", " WARN ", slog.LevelWarn, false},
		{"空文字はinfo", "", slog.LevelInfo, false},
		{"error", "error", slog.LevelError, false},
		{"未知のレベル", "verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromStrings_RejectsUnknownFormat(t *testing.T) {
	_, err := FromStrings("info", "xml")
	assert.Error(t, err)
}

func TestNew_WritesJSONAndFiltersLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	cfg, err := FromStrings("warn", "json")
	require.NoError(t, err)
	cfg.Output = &buf

	log := New(cfg)
	log.Info("hidden")
	log.Warn("shown", "space", "hr")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "hr", entry["space"])
}
