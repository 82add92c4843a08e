package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/dallangoldblatt/untappd-data/pkg/config"
	errs "github.com/dallangoldblatt/untappd-data/pkg/errors"
)

// S3Store implements ObjectStore backed by an S3 bucket
type S3Store struct {
	client *s3.S3
	bucket string
}

// NewS3Store creates a store over the configured bucket. Credentials fall
// back to the default AWS chain when none are configured explicitly.
func NewS3Store(cfg config.StoreConfig) (*S3Store, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Store{
		client: s3.New(sess),
		bucket: cfg.Bucket,
	}, nil
}

// Put writes value under key
func (s *S3Store) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(value),
	})
	if err != nil {
		return errs.NewStorage(fmt.Sprintf("failed to put %s", key), err)
	}
	return nil
}

// Get returns the object under key
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, errs.NewNotFound(fmt.Sprintf("object %s not found", key))
		}
		return nil, errs.NewStorage(fmt.Sprintf("failed to get %s", key), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errs.NewStorage(fmt.Sprintf("failed to read body of %s", key), err)
	}
	return data, nil
}

// Exists reports whether an object is stored under key
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, errs.NewStorage(fmt.Sprintf("failed to head %s", key), err)
	}
	return true, nil
}

// List returns all keys with the given prefix, sorted
func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}
	err := s.client.ListObjectsV2PagesWithContext(ctx, input,
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				keys = append(keys, aws.StringValue(obj.Key))
			}
			return true
		})
	if err != nil {
		return nil, errs.NewStorage(fmt.Sprintf("failed to list prefix %s", prefix), err)
	}

	sort.Strings(keys)
	return keys, nil
}

// Delete removes the object under key
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errs.NewStorage(fmt.Sprintf("failed to delete %s", key), err)
	}
	return nil
}

// Copy duplicates the object under key to newKey
func (s *S3Store) Copy(ctx context.Context, key, newKey string) error {
	source := s.bucket + "/" + key
	_, err := s.client.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(newKey),
		CopySource: aws.String(url.PathEscape(source)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return errs.NewNotFound(fmt.Sprintf("object %s not found", key))
		}
		return errs.NewStorage(fmt.Sprintf("failed to copy %s to %s", key, newKey), err)
	}
	return nil
}

// isNoSuchKey reports whether err is S3 saying the object does not exist
func isNoSuchKey(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
