package repository

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioBlobStore stores uploads in an S3-compatible bucket.
type MinioBlobStore struct {
	client     *minio.Client
	bucketName string
	publicURL  string
}

// MinioOptions configure NewMinioBlobStore.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL overrides the endpoint in returned URLs, e.g. a CDN host.
	PublicURL string
}

// NewMinioBlobStore connects to the object store and makes sure the bucket exists.
func NewMinioBlobStore(ctx context.Context, opts MinioOptions) (*MinioBlobStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", opts.Bucket, err)
		}
	}

	publicURL := opts.PublicURL
	if publicURL == "" {
		publicURL = client.EndpointURL().String()
	}

	return &MinioBlobStore{
		client:     client,
		bucketName: opts.Bucket,
		publicURL:  strings.TrimSuffix(publicURL, "/"),
	}, nil
}

// Upload puts the object into the bucket.
func (s *MinioBlobStore) Upload(ctx context.Context, name, contentType string, r io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucketName, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload file: %w", err)
	}
	return nil
}

// Open streams the object back.
func (s *MinioBlobStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucketName, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	return object, nil
}

// PublicURL returns the path-style URL of the object.
func (s *MinioBlobStore) PublicURL(name string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucketName, name)
}
