package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/queuecast/paxcache/cache"
)

// S3API is the slice of the S3 client the substrate uses.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config configures an object-store substrate.
type S3Config struct {
	// Bucket holds the entries. Required.
	Bucket string

	// Prefix scopes every object key, so one bucket can carry several
	// mirrors alongside other data. Default: none.
	Prefix string

	// Region overrides the region resolution chain.
	// Default: environment, shared config, then instance metadata.
	Region string

	// Profile selects a shared config profile.
	// Default: the AWS_PROFILE environment chain.
	Profile string
}

// S3 stores each entry as one object. A bucket shared by several hosts
// gives them a common mirror; S3's read-after-write consistency keeps
// rebuilt tiers coherent.
type S3 struct {
	api    S3API
	bucket string
	prefix string
}

// OpenS3 resolves AWS configuration the standard way (environment, shared
// config files, instance metadata) and returns a substrate over the bucket.
func OpenS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	return NewS3(s3.NewFromConfig(awsCfg), cfg)
}

// NewS3 wraps an existing client. OpenS3 is the usual entry point.
func NewS3(api S3API, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}
	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3{api: api, bucket: cfg.Bucket, prefix: prefix}, nil
}

// Read returns the stored bytes for key.
func (s *S3) Read(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("storage: s3 get %q: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("storage: s3 get %q: %w", key, err)
	}
	return data, true, nil
}

// Write stores data under key, replacing any previous object.
func (s *S3) Write(ctx context.Context, key string, data []byte) error {
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("storage: s3 put %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. S3 object deletion is idempotent, so removing an
// absent key succeeds.
func (s *S3) Remove(ctx context.Context, key string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	if err != nil {
		return fmt.Errorf("storage: s3 delete %q: %w", key, err)
	}
	return nil
}

// Keys returns every stored key beginning with prefix, in S3's listing
// order, which is lexicographic.
func (s *S3) Keys(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("storage: s3 list %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), s.prefix))
		}
	}
	return keys, nil
}

// Close releases nothing; the S3 client holds no connection to tear down.
func (s *S3) Close() error { return nil }

var _ cache.Storage = (*S3)(nil)
