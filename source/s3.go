package source

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client is the narrow slice of the S3 API the fetcher needs.
// Declared as an interface so tests can substitute a fake.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config configures access to an S3 or S3-compatible endpoint.
type S3Config struct {
	Region         string
	AccessKeyID    string
	SecretKey      string
	Endpoint       string // optional, for S3-compatible services
	ForcePathStyle bool   // for services like MinIO
}

// S3Fetcher downloads objects so they can be wrapped in a CSV or JSONL
// source. Fetching is a single GET with no retry logic; transient-failure
// handling belongs to the caller's pipeline.
type S3Fetcher struct {
	client S3Client
}

// NewS3Fetcher creates a fetcher around an existing client.
func NewS3Fetcher(client S3Client) *S3Fetcher {
	return &S3Fetcher{client: client}
}

// NewS3FetcherFromConfig builds an S3 client from explicit credentials,
// falling back to the default AWS credential chain when none are given.
func NewS3FetcherFromConfig(ctx context.Context, cfg S3Config) (*S3Fetcher, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return &S3Fetcher{client: client}, nil
}

// Open returns the object body. The caller owns the ReadCloser and
// typically wraps it in NewCSV or NewJSONL:
//
//	body, err := fetcher.Open(ctx, "datasets", "transactions.csv")
//	if err != nil { ... }
//	defer body.Close()
//	result, err := v.ValidateSource(ctx, source.NewCSV(body))
func (f *S3Fetcher) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}
