// Package storage uploads rendered reports to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stwalsh4118/wealthmap/internal/config"
)

// S3Uploader uploads reports to S3 or to an S3-compatible endpoint
// (MinIO, R2, DigitalOcean Spaces).
type S3Uploader struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint string
}

// NewS3Uploader creates an uploader from the report configuration. Without
// static keys the default AWS credential chain is used.
func NewS3Uploader(ctx context.Context, cfg config.ReportConfig) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Uploader{
		client:   client,
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		endpoint: endpoint,
	}, nil
}

// Upload stores data under key and returns its public URL.
func (u *S3Uploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return u.PublicURL(key), nil
}

// PublicURL returns the URL an uploaded key is served from.
func (u *S3Uploader) PublicURL(key string) string {
	switch {
	case strings.Contains(u.endpoint, "digitaloceanspaces.com"):
		// DO Spaces: https://{bucket}.{region}.digitaloceanspaces.com/{key}
		host := strings.TrimPrefix(u.endpoint, "https://")
		return fmt.Sprintf("https://%s.%s/%s", u.bucket, host, key)
	case u.endpoint != "":
		return fmt.Sprintf("%s/%s/%s", u.endpoint, u.bucket, key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
	}
}
