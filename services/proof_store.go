package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ProofStore hosts slab proof images in an S3-compatible bucket. The
// workflow persists only the returned URL, never the bytes.
type ProofStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewProofStore connects to the object store configured via MINIO_ENDPOINT,
// MINIO_ACCESS_KEY, MINIO_SECRET_KEY, MINIO_BUCKET, MINIO_USE_SSL and
// MINIO_PUBLIC_URL, creating the bucket when absent.
func NewProofStore(ctx context.Context) (*ProofStore, error) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "slab-proofs"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
		Secure: os.Getenv("MINIO_USE_SSL") == "true",
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	publicURL := os.Getenv("MINIO_PUBLIC_URL")
	if publicURL == "" {
		scheme := "http"
		if os.Getenv("MINIO_USE_SSL") == "true" {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, endpoint)
	}

	return &ProofStore{client: client, bucket: bucket, publicURL: publicURL}, nil
}

// UploadProof stores one proof image and returns its public URL. Object
// names are date-prefixed uuids so uploads never collide.
func (s *ProofStore) UploadProof(ctx context.Context, reader io.Reader, size int64, contentType string) (string, error) {
	objectName := path.Join(
		time.Now().Format("2006/01"),
		uuid.NewString()+extensionFor(contentType),
	)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, objectName), nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
