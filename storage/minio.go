package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/alanhabib/elmify-backend-sub000/config"
	"github.com/alanhabib/elmify-backend-sub000/logger"
)

var (
	// ErrObjectNotFound means the requested key does not exist in the bucket.
	ErrObjectNotFound = errors.New("object not found")
	// ErrStoreUnavailable wraps transient backend failures.
	ErrStoreUnavailable = errors.New("object store unavailable")
)

// ObjectInfo describes a stored object without its content.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// SignedURL is a time-limited URL granting direct read access to an object.
type SignedURL struct {
	URL       string
	ExpiresAt time.Time
}

// ObjectStore is the narrow boundary to the remote object store. The range
// proxy and the manifest resolver depend only on this interface so they can
// be tested against a fake backend.
type ObjectStore interface {
	HeadObject(ctx context.Context, key string) (ObjectInfo, error)
	GetRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error)
	SignURL(ctx context.Context, key string, ttl time.Duration) (SignedURL, error)
}

// minioStore implements ObjectStore on top of a MinIO / S3-compatible bucket.
// Safe for concurrent use.
type minioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO, verifies the bucket exists (creating it if
// missing) and returns the store.
func NewMinioStore(cfg *config.Config) (ObjectStore, error) {
	logger.Info("connecting to MinIO",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket),
		logger.String("region", cfg.MinioRegion))

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("created bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &minioStore{client: client, bucket: cfg.MinioBucket}, nil
}

// HeadObject returns size and content type for a key.
func (s *minioStore) HeadObject(ctx context.Context, key string) (ObjectInfo, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, mapMinioError("stat object", key, err)
	}
	return ObjectInfo{
		Key:         key,
		Size:        stat.Size,
		ContentType: stat.ContentType,
	}, nil
}

// GetRange opens a stream for the inclusive byte range [start, end].
func (s *minioStore) GetRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error) {
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(start, end); err != nil {
		return nil, fmt.Errorf("set range %d-%d: %w", start, end, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, opts)
	if err != nil {
		return nil, mapMinioError("get object", key, err)
	}

	// GetObject is lazy; Stat forces the request so backend errors surface
	// here instead of on the first Read into the response body.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, mapMinioError("get object", key, err)
	}

	return obj, nil
}

// SignURL produces a presigned GET URL valid for ttl.
func (s *minioStore) SignURL(ctx context.Context, key string, ttl time.Duration) (SignedURL, error) {
	expiresAt := time.Now().Add(ttl)
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return SignedURL{}, mapMinioError("presign object", key, err)
	}
	return SignedURL{URL: u.String(), ExpiresAt: expiresAt}, nil
}

// mapMinioError folds minio error responses into the package sentinels.
func mapMinioError(op, key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
		return fmt.Errorf("%s %s: %w", op, key, ErrObjectNotFound)
	}
	return fmt.Errorf("%s %s: %v: %w", op, key, err, ErrStoreUnavailable)
}
