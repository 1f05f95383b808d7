// Package imagestore publishes rendered QR images to an S3-compatible bucket
// and hands back time-limited download links.
package imagestore

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/netx"
)

// ContentType is the media type of every stored object.
const ContentType = "image/png"

// Swappable in tests.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	upload = netx.UploadToPresignedURL
)

// Options describes the bucket and the credentials used to reach it.
type Options struct {
	User              string
	Password          string
	Bucket            string
	Region            string
	BaseEndpoint      string
	PresignExpiration time.Duration
	HTTPClient        *http.Client
}

// Stored is the location of a published image.
type Stored struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"url_expires_at"`
}

// Store uploads PNGs through presigned PUT URLs.
type Store struct {
	opts    Options
	presign *s3.PresignClient
	now     func() time.Time
}

// New builds the S3 presign client. It does not contact the endpoint.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("imagestore: bucket is required")
	}
	if opts.PresignExpiration <= 0 {
		opts.PresignExpiration = 15 * time.Minute
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.User, opts.Password, "")),
	)
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{opts: opts, presign: newS3PresignClient(client), now: time.Now}, nil
}

// ObjectKey returns the key under which the image of mint id is stored,
// partitioned by UTC day.
func ObjectKey(mintID string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("qr/%04d/%02d/%02d/%s.png", at.Year(), at.Month(), at.Day(), mintID)
}

// Put uploads png under the key for mintID and returns a presigned GET URL.
func (s *Store) Put(ctx context.Context, mintID string, png []byte) (*Stored, error) {
	now := s.now()
	key := ObjectKey(mintID, now)

	put, err := presignPutObject(s.presign, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.opts.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(ContentType),
	}, s3.WithPresignExpires(s.opts.PresignExpiration))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	if err := upload(ctx, s.opts.HTTPClient, put.URL, ContentType, png); err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	url, err := s.URL(ctx, key)
	if err != nil {
		return nil, err
	}

	return &Stored{Key: key, URL: url, ExpiresAt: now.Add(s.opts.PresignExpiration).UTC()}, nil
}

// URL presigns a GET for an existing key.
func (s *Store) URL(ctx context.Context, key string) (string, error) {
	get, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.opts.PresignExpiration))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return get.URL, nil
}
