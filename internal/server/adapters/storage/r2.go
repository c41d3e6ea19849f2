// Package storage provides the R2/S3 object store adapter.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"notedrop/internal/server/config"
	"notedrop/internal/server/ports/services"
	"notedrop/pkg/logger"
)

// R2Store implements services.ObjectStorage against an S3-compatible
// endpoint. It is an explicitly constructed, owned instance; callers
// receive it through dependency injection.
type R2Store struct {
	client   *s3.Client
	presign  *s3.PresignClient
	bucket   string
}

// NewR2Store creates an object store client with static credentials and
// a custom endpoint, path-style addressing on.
func NewR2Store(cfg *config.StorageConfig) *R2Store {
	awsCfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Region:      cfg.Region,
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &R2Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
	}
}

// Put uploads the object bytes under the given key.
func (s *R2Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	log := logger.Log(ctx).With(zap.String("method", "R2Store.Put"), zap.String("key", key))
	log.Debug(ctx, "uploading object", zap.Int64("size", size), zap.String("content_type", contentType))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		log.Error(ctx, "failed to upload object", zap.Error(err))
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	return nil
}

// Delete removes the object. Callers treat failures as best-effort.
func (s *R2Store) Delete(ctx context.Context, key string) error {
	log := logger.Log(ctx).With(zap.String("method", "R2Store.Delete"), zap.String("key", key))

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Error(ctx, "failed to delete object", zap.Error(err))
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}

	return nil
}

// PresignGet returns a time-limited download URL for the object.
func (s *R2Store) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("failed to presign get for %s: %w", key, err)
	}
	return req.URL, nil
}

var _ services.ObjectStorage = (*R2Store)(nil)
