package backend

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"dialoguereel/internal/render"
)

// Backend rasterizes a render request into a media file
type Backend interface {
	Render(ctx context.Context, req *render.Request, outputPath string) error
}

// JSONBackend writes the request document for an external renderer
type JSONBackend struct {
	fs     afero.Fs
	logger *zap.Logger
}

var _ Backend = (*JSONBackend)(nil)

// NewJSONBackend creates a JSONBackend writing to fs
func NewJSONBackend(fs afero.Fs, logger *zap.Logger) *JSONBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONBackend{fs: fs, logger: logger}
}

// Render writes req as indented JSON to outputPath
func (b *JSONBackend) Render(ctx context.Context, req *render.Request, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.fs.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := b.fs.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}

	output := render.NewJSONOutput(file, true, b.logger)
	if err := output.OutputRequest(req); err != nil {
		output.Close()
		return err
	}
	if err := output.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", outputPath, err)
	}

	b.logger.Info("Render request written",
		zap.String("request_id", req.ID),
		zap.String("path", outputPath))
	return nil
}
