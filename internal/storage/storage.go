// Package storage issues presigned upload URLs against an S3-compatible
// object store (AWS S3, Cloudflare R2, MinIO).
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Goodnews119/Marketplacesite/pkg/circuitbreaker"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sony/gobreaker/v2"
)

type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	PublicURL(key string) string
}

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // empty for AWS
	AccessKeyID     string // empty to use the default credential chain
	SecretAccessKey string
	PublicBaseURL   string // empty derives <endpoint>/<bucket>
}

type S3Presigner struct {
	presign       *s3.PresignClient
	bucket        string
	publicBaseURL string
	breaker       *gobreaker.CircuitBreaker[string]
}

func NewS3Presigner(ctx context.Context, cfg Config) (*S3Presigner, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Presigner(client, cfg), nil
}

func newS3Presigner(client *s3.Client, cfg Config) *S3Presigner {
	base := cfg.PublicBaseURL
	if base == "" {
		if cfg.Endpoint != "" {
			base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	return &S3Presigner{
		presign:       s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(base, "/"),
		breaker:       circuitbreaker.New[string]("object-store", circuitbreaker.DefaultSettings()),
	}
}

func (p *S3Presigner) PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error) {
	return p.breaker.Execute(func() (string, error) {
		req, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.bucket),
			Key:         aws.String(key),
			ContentType: aws.String(contentType),
		}, s3.WithPresignExpires(expires))
		if err != nil {
			return "", fmt.Errorf("presign put object: %w", err)
		}
		return req.URL, nil
	})
}

func (p *S3Presigner) PublicURL(key string) string {
	return p.publicBaseURL + "/" + key
}
