package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ReportEntry is one line of the run report log
type ReportEntry struct {
	Kind      string      `json:"kind"`
	Timestamp string      `json:"timestamp"`
	Report    interface{} `json:"report"`
}

// ReportLog appends corpus build and render reports as JSON lines to a file
type ReportLog struct {
	fs     afero.Fs
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewReportLog creates a ReportLog writing to path on fs
func NewReportLog(fs afero.Fs, path string, logger *zap.Logger) (*ReportLog, error) {
	if fs == nil {
		return nil, fmt.Errorf("filesystem cannot be nil")
	}
	if path == "" {
		return nil, fmt.Errorf("report log path cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportLog{fs: fs, path: path, logger: logger}, nil
}

// GetFilePath returns the report log location
func (rl *ReportLog) GetFilePath() string {
	return rl.path
}

// Record appends one report entry
func (rl *ReportLog) Record(kind string, report interface{}) error {
	entry := ReportEntry{
		Kind:      kind,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Report:    report,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal report entry: %w", err)
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if err := rl.fs.MkdirAll(filepath.Dir(rl.path), 0o755); err != nil {
		return fmt.Errorf("failed to create report log directory: %w", err)
	}

	f, err := rl.fs.OpenFile(rl.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open report log %s: %w", rl.path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s\n", line); err != nil {
		return fmt.Errorf("failed to write report log: %w", err)
	}

	rl.logger.Debug("recorded report", zap.String("kind", kind), zap.String("path", rl.path))
	return nil
}
