package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by S3Snapshotter.
// *s3.Client satisfies it.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Snapshotter stores the snapshot as a single S3 object.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(context.Background())
//	snap := persist.NewS3Snapshotter(s3.NewFromConfig(cfg), "my-bucket", "state/app.json")
type S3Snapshotter struct {
	client      S3API
	bucket      string
	key         string
	contentType string
}

// NewS3Snapshotter creates an S3-backed snapshotter.
//
// Parameters:
//   - client: AWS S3 client from aws-sdk-go-v2
//   - bucket: S3 bucket name
//   - key: object key for the snapshot (e.g., "state/app.json")
func NewS3Snapshotter(client S3API, bucket, key string) *S3Snapshotter {
	return &S3Snapshotter{
		client:      client,
		bucket:      bucket,
		key:         key,
		contentType: "application/json",
	}
}

// WithContentType sets the Content-Type written with the snapshot object.
func (s *S3Snapshotter) WithContentType(contentType string) *S3Snapshotter {
	s.contentType = contentType
	return s
}

// Save uploads the snapshot, replacing any previous object.
func (s *S3Snapshotter) Save(ctx context.Context, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(s.contentType),
	})
	if err != nil {
		return fmt.Errorf("persist: s3 upload failed: %w", err)
	}
	return nil
}

// Load downloads the snapshot. A missing object maps to ErrNoSnapshot.
func (s *S3Snapshotter) Load(ctx context.Context) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("persist: s3 download failed: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("persist: s3 read failed: %w", err)
	}
	return data, nil
}
