// Package s3 implements an ObjectStore on Amazon S3 or any S3-compatible
// endpoint (MinIO, Localstack). Each ObjectID maps to one key under an
// optional prefix; Truncate is read-modify-write because S3 objects are
// immutable.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dopd-io/dopd/pkg/store"
)

type S3ObjectStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// New creates an S3 store writing to bucket, with keys under keyPrefix.
func New(client *s3.Client, bucket, keyPrefix string) *S3ObjectStore {
	return &S3ObjectStore{
		client:    client,
		bucket:    bucket,
		keyPrefix: keyPrefix,
	}
}

func (s *S3ObjectStore) key(id store.ObjectID) string {
	return path.Join(s.keyPrefix, string(id))
}

// Init verifies the bucket is reachable so misconfiguration fails at
// startup rather than on the first request.
func (s *S3ObjectStore) Init(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *S3ObjectStore) Close() error {
	return nil
}

func (s *S3ObjectStore) Create(ctx context.Context, id store.ObjectID) error {
	exists, err := s.Exists(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.Write(ctx, id, []byte{})
}

func (s *S3ObjectStore) Read(ctx context.Context, id store.ObjectID) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("read %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", id, err)
	}
	return data, nil
}

func (s *S3ObjectStore) Write(ctx context.Context, id store.ObjectID, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", id, err)
	}
	return nil
}

func (s *S3ObjectStore) Truncate(ctx context.Context, id store.ObjectID, size uint64) error {
	data, err := s.Read(ctx, id)
	if err != nil {
		return err
	}
	return s.Write(ctx, id, store.Truncated(data, size))
}

func (s *S3ObjectStore) Remove(ctx context.Context, id store.ObjectID) error {
	exists, err := s.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("remove %s: %w", id, store.ErrNotFound)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	return nil
}

func (s *S3ObjectStore) Exists(ctx context.Context, id store.ObjectID) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", id, err)
	}
	return true, nil
}
