// Package media stores profile photos in S3-compatible object storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrNotConfigured = errors.New("media storage is not configured")

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// package-level seams, replaced in tests
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newKey = func(userID, ext string) string {
		return path.Join("users", userID, uuid.NewString()+ext)
	}
)

type Config struct {
	Region    string
	Endpoint  string // empty for AWS, e.g. http://127.0.0.1:9000 for MinIO
	Bucket    string
	AccessKey string
	SecretKey string
}

type Store struct {
	api     objectAPI
	bucket  string
	baseURL string
}

func New(ctx context.Context, c Config) (*Store, error) {
	if c.Bucket == "" {
		return nil, ErrNotConfigured
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	base := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
	if c.Endpoint != "" {
		base = strings.TrimRight(c.Endpoint, "/") + "/" + c.Bucket
	}

	return &Store{api: api, bucket: c.Bucket, baseURL: base}, nil
}

// URL returns the public address of key.
func (s *Store) URL(key string) string {
	return s.baseURL + "/" + (&url.URL{Path: key}).EscapedPath()
}

// KeyFromURL is the inverse of URL. ok is false for foreign URLs.
func (s *Store) KeyFromURL(u string) (key string, ok bool) {
	rest, found := strings.CutPrefix(u, s.baseURL+"/")
	if !found || rest == "" {
		return "", false
	}
	key, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	return key, true
}

// UploadPhoto stores body under users/<userID>/<uuid><ext> and returns the
// object key and its URL.
func (s *Store) UploadPhoto(ctx context.Context, userID, ext, contentType string, body io.Reader) (key, url string, err error) {
	if userID == "" {
		return "", "", errors.New("user id is required")
	}

	key = newKey(userID, ext)
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, s.URL(key), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
