package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"error", false, false},
		{"nonsense", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, tt.level)

			logger.Debug("debug line")
			logger.Info("info line", "file", "chart.xml")

			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info line")))
			if tt.wantInfo {
				assert.Contains(t, buf.String(), "file=chart.xml")
				assert.Contains(t, buf.String(), "gantt")
			}
		})
	}
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gantt.log")

	logger, closer, err := NewFile(path, "info")
	require.NoError(t, err)
	logger.Info("saved", "tasks", 3)
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "saved")
	assert.Contains(t, string(b), "tasks=3")
}
