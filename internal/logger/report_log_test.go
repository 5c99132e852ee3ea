package logger

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewReportLog(t *testing.T) {
	t.Run("should reject nil filesystem", func(t *testing.T) {
		// Act
		rl, err := NewReportLog(nil, "./logs/reports.log", zap.NewNop())

		// Assert
		assert.Error(t, err)
		assert.Nil(t, rl)
		assert.Contains(t, err.Error(), "filesystem cannot be nil")
	})

	t.Run("should reject empty path", func(t *testing.T) {
		// Act
		rl, err := NewReportLog(afero.NewMemMapFs(), "", zap.NewNop())

		// Assert
		assert.Error(t, err)
		assert.Nil(t, rl)
	})

	t.Run("should accept nil logger", func(t *testing.T) {
		// Act
		rl, err := NewReportLog(afero.NewMemMapFs(), "logs/reports.log", nil)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "logs/reports.log", rl.GetFilePath())
	})
}

func TestReportLog_Record(t *testing.T) {
	t.Run("should append one JSON line per report", func(t *testing.T) {
		// Arrange
		fs := afero.NewMemMapFs()
		rl, err := NewReportLog(fs, "logs/reports.log", zap.NewNop())
		require.NoError(t, err)

		// Act
		require.NoError(t, rl.Record("render", map[string]int{"lines": 2}))
		require.NoError(t, rl.Record("corpus", map[string]int{"accepted": 5}))

		// Assert
		data, err := afero.ReadFile(fs, "logs/reports.log")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 2)

		var first ReportEntry
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
		assert.Equal(t, "render", first.Kind)
		assert.NotEmpty(t, first.Timestamp)

		var second ReportEntry
		require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
		assert.Equal(t, "corpus", second.Kind)
	})
}
