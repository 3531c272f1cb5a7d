package plans

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client is the subset of the S3 API used by the S3 source.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config locates a YAML catalog in an S3 (or S3-compatible) bucket.
type S3Config struct {
	Bucket         string `env:"CATALOG_S3_BUCKET"`
	Key            string `env:"CATALOG_S3_KEY" envDefault:"plans.yaml"`
	Region         string `env:"CATALOG_S3_REGION" envDefault:"eu-west-3"`
	AccessKeyID    string `env:"CATALOG_S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"CATALOG_S3_SECRET_ACCESS_KEY"`
	Endpoint       string `env:"CATALOG_S3_ENDPOINT"`         // optional, for S3-compatible services
	ForcePathStyle bool   `env:"CATALOG_S3_FORCE_PATH_STYLE"` // MinIO and friends
}

// NewS3Client builds an S3 client from cfg. Static credentials are used when
// provided, otherwise the default AWS credential chain applies.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, fmt.Errorf("%w: bucket and region are required", ErrFailedToLoadCatalog)
	}

	awsOptions := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		awsOptions = append(awsOptions,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretKey,
				"",
			)),
		)
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}

	return s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	}), nil
}

type s3Source struct {
	client S3Client
	bucket string
	key    string
}

// NewS3Source returns a Source reading a YAML catalog object from S3.
func NewS3Source(client S3Client, bucket, key string) Source {
	if client == nil {
		panic("plans: S3 client is required")
	}
	return &s3Source{client: client, bucket: bucket, key: key}
}

func (s *s3Source) Load(ctx context.Context) (Snapshot, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NoSuchBucket") {
			return Snapshot{}, errors.Join(ErrCatalogNotFound, err)
		}
		return Snapshot{}, fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer out.Body.Close()

	return DecodeYAML(out.Body)
}
