package storage

import (
	"context"
	"fmt"
	"io"

	miniosdk "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig holds connection settings for a MinIO or S3 compatible store
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Validate checks the required connection fields
func (c MinIOConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("storage endpoint cannot be empty")
	}
	if c.Bucket == "" {
		return fmt.Errorf("storage bucket cannot be empty")
	}
	return nil
}

// MinIOStore is an ObjectStore backed by minio-go
type MinIOStore struct {
	client *miniosdk.Client
	bucket string
}

var _ ObjectStore = (*MinIOStore)(nil)

// NewMinIOStore connects to the store and creates the bucket when missing
func NewMinIOStore(ctx context.Context, cfg MinIOConfig) (*MinIOStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := miniosdk.New(cfg.Endpoint, &miniosdk.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, miniosdk.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinIOStore{client: client, bucket: cfg.Bucket}, nil
}

// Bucket returns the configured bucket name
func (s *MinIOStore) Bucket() string {
	return s.bucket
}

// PutObject uploads an object
func (s *MinIOStore) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, miniosdk.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

// ObjectExists checks whether an object exists without downloading it
func (s *MinIOStore) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, miniosdk.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if miniosdk.ToErrorResponse(err).StatusCode == 404 {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object: %w", err)
}
