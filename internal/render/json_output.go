package render

import (
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// JSONOutput writes render requests as JSON documents to a writer
type JSONOutput struct {
	writer io.Writer
	indent bool
	logger *zap.Logger
}

// NewJSONOutput creates a new JSONOutput instance
func NewJSONOutput(writer io.Writer, indent bool, logger *zap.Logger) *JSONOutput {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONOutput{
		writer: writer,
		indent: indent,
		logger: logger,
	}
}

// OutputRequest writes req followed by a newline
func (jo *JSONOutput) OutputRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("invalid request: nil")
	}

	var (
		data []byte
		err  error
	)
	if jo.indent {
		data, err = json.MarshalIndent(req, "", "  ")
	} else {
		data, err = json.Marshal(req)
	}
	if err != nil {
		jo.logger.Error("failed to marshal request to JSON", zap.Error(err))
		return fmt.Errorf("failed to marshal request to JSON: %w", err)
	}

	if _, err := fmt.Fprintf(jo.writer, "%s\n", data); err != nil {
		jo.logger.Error("failed to write JSON output", zap.Error(err))
		return fmt.Errorf("failed to write JSON output: %w", err)
	}

	jo.logger.Debug("output render request",
		zap.String("request_id", req.ID),
		zap.Int("elements", len(req.Elements)))

	return nil
}

// Close closes the underlying writer when it is a Closer
func (jo *JSONOutput) Close() error {
	if closer, ok := jo.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
