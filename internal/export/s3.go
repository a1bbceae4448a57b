package export

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/astro-otter/otter"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type bucketAPI interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

type uploaderAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// ValidateS3Config performs basic sanity checks on the upload settings.
func ValidateS3Config(cfg otter.ExportConfig) error {
	if cfg.S3Bucket == "" {
		return fmt.Errorf("export.s3Bucket is required for upload")
	}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey == "" {
		return fmt.Errorf("s3AccessKey provided without s3SecretKey")
	}
	if cfg.S3SecretKey != "" && cfg.S3AccessKey == "" {
		return fmt.Errorf("s3SecretKey provided without s3AccessKey")
	}
	return nil
}

// awsLoadOptions uses static credentials and a custom endpoint when configured,
// e.g. for MinIO, and the default credential chain otherwise.
func awsLoadOptions(cfg otter.ExportConfig) []func(*config.LoadOptions) error {
	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
	}
	if cfg.S3Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(cfg.S3Endpoint))
	}
	return opts
}

// NewS3Client builds an S3 client for the export settings. Path-style
// addressing is used with a custom endpoint.
func NewS3Client(ctx context.Context, cfg otter.ExportConfig) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, awsLoadOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3Endpoint != ""
	}), nil
}

// EnsureBucket creates bucket unless it already exists.
func EnsureBucket(ctx context.Context, client bucketAPI, bucket string) error {
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err == nil {
		return nil
	}

	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && bucketExistsCode(apiErr.ErrorCode()) {
			return nil
		}
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

func bucketExistsCode(code string) bool {
	return code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists"
}

// BucketHealthCheck reports whether bucket is reachable with the configured credentials.
func BucketHealthCheck(ctx context.Context, client bucketAPI, bucket string) error {
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("s3 bucket %s returned %s: %w", bucket, apiErr.ErrorCode(), err)
		}
		return fmt.Errorf("s3 bucket %s unreachable: %w", bucket, err)
	}
	return nil
}

// UploadFile streams the local file at path to bucket/key.
func UploadFile(ctx context.Context, uploader uploaderAPI, bucket, key, path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open src: %w", err)
	}
	defer in.Close()

	out, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        in,
		ContentType: aws.String("application/vnd.apache.parquet"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload: %w", err)
	}
	return out.Location, nil
}
