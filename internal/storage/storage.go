package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ObjectStore is the subset of object storage used to publish a corpus
type ObjectStore interface {
	PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	ObjectExists(ctx context.Context, key string) (bool, error)
}

// PublishResult lists the keys uploaded by Publish
type PublishResult struct {
	Uploaded []string `json:"uploaded"`
	Skipped  []string `json:"skipped,omitempty"`
	Bytes    int64    `json:"bytes"`
}

// Publisher copies corpus files from a filesystem into an ObjectStore
type Publisher struct {
	store     ObjectStore
	fs        afero.Fs
	overwrite bool
	logger    *zap.Logger
}

// NewPublisher creates a Publisher that overwrites existing objects
func NewPublisher(store ObjectStore, fs afero.Fs) *Publisher {
	return NewPublisherWithLogger(store, fs, true, nil)
}

// NewPublisherWithLogger creates a Publisher. With overwrite disabled, keys
// that already exist are skipped.
func NewPublisherWithLogger(store ObjectStore, fs afero.Fs, overwrite bool, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		store:     store,
		fs:        fs,
		overwrite: overwrite,
		logger:    logger,
	}
}

// Publish uploads every file (relative to dir) under prefix. Object keys
// always use forward slashes.
func (p *Publisher) Publish(ctx context.Context, dir, prefix string, files []string) (*PublishResult, error) {
	result := &PublishResult{}
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("publish cancelled: %w", err)
		}

		key := ObjectKey(prefix, rel)
		if !p.overwrite {
			exists, err := p.store.ObjectExists(ctx, key)
			if err != nil {
				return result, fmt.Errorf("failed to check %s: %w", key, err)
			}
			if exists {
				result.Skipped = append(result.Skipped, key)
				continue
			}
		}

		size, err := p.upload(ctx, filepath.Join(dir, rel), key)
		if err != nil {
			return result, err
		}
		result.Uploaded = append(result.Uploaded, key)
		result.Bytes += size
	}

	p.logger.Info("Corpus published",
		zap.String("prefix", prefix),
		zap.Int("uploaded", len(result.Uploaded)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int64("bytes", result.Bytes))

	return result, nil
}

func (p *Publisher) upload(ctx context.Context, src, key string) (int64, error) {
	file, err := p.fs.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", src, err)
	}

	if err := p.store.PutObject(ctx, key, file, info.Size(), ContentType(src)); err != nil {
		return 0, fmt.Errorf("failed to upload %s: %w", key, err)
	}
	p.logger.Debug("Object uploaded", zap.String("key", key), zap.Int64("size", info.Size()))
	return info.Size(), nil
}

// ObjectKey joins prefix and a relative file path into an object key
func ObjectKey(prefix, rel string) string {
	rel = filepath.ToSlash(rel)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}

// ContentType maps corpus file extensions to MIME types
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".mp4":
		return "video/mp4"
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
