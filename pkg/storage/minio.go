// Package storage wraps the S3-compatible object store used for uploaded
// resumes.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"basal-backend-go/internal/config"
)

// FetchURLExpiry is how long a presigned fetch URL stays valid. It has to
// outlive the longest downstream analyze call.
const FetchURLExpiry = time.Hour

// Store is the object-storage collaborator: put bytes, hand back a
// temporary fetch URL plus a key, delete by key.
type Store interface {
	Put(ctx context.Context, r io.Reader, size int64, filename, contentType string) (fetchURL, key string, err error)
	Presign(ctx context.Context, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type minioStore struct {
	client *minio.Client
	bucket string
}

// New connects a MinIO client and ensures the bucket exists.
func New(cfg config.StorageConfig) (Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &minioStore{client: client, bucket: cfg.BucketName}, nil
}

// Put stores the object under resumes/<uuid>-<basename> and returns a
// presigned fetch URL valid for FetchURLExpiry.
func (s *minioStore) Put(ctx context.Context, r io.Reader, size int64, filename, contentType string) (string, string, error) {
	// Browsers may send a relative path; keep only the base name.
	key := fmt.Sprintf("resumes/%s-%s", uuid.New().String(), path.Base(filename))

	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to put object: %w", err)
	}

	url, err := s.Presign(ctx, key, FetchURLExpiry)
	if err != nil {
		return "", "", err
	}
	return url, key, nil
}

// Presign generates a temporary GET URL for an existing object.
func (s *minioStore) Presign(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign object: %w", err)
	}
	return u.String(), nil
}

// Delete removes an object. Callers treat failures as best-effort.
func (s *minioStore) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
