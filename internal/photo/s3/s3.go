// Package s3 stores profile photos in an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rhymednick/inw-radio-log/internal/photo"
)

var _ photo.Store = (*Store)(nil)

// Config holds the bucket connection settings.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, e.g. a MinIO URL
	Prefix          string // optional key prefix
	PathStyle       bool
	AccessKeyID     string // optional, falls back to the default credentials chain
	SecretAccessKey string
}

// Store implements photo.Store on top of a single bucket. Keys are
// <prefix>/<name>; archived photos go to <prefix>/archive/<name>.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
	opts   photo.Options
	now    func() time.Time
}

// New creates a Store from cfg.
func New(ctx context.Context, cfg Config, opts photo.Options) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// most S3-compatible servers reject the newer default checksums
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		}
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix, opts), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *s3.Client, bucket, prefix string, opts photo.Options) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix, opts: opts, now: time.Now}
}

func (s *Store) key(parts ...string) string {
	return path.Join(append([]string{s.prefix}, parts...)...)
}

// Save implements photo.Store.
func (s *Store) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := photo.ValidateName(name); err != nil {
		return "", err
	}
	normalized, err := photo.Normalize(data, name, s.opts)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(normalized),
		ContentType: aws.String(photo.ContentType(name)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}
	return photo.URL(name), nil
}

// Rename implements photo.Store.
func (s *Store) Rename(ctx context.Context, oldName, newName string) (string, error) {
	if err := photo.ValidateName(oldName); err != nil {
		return "", err
	}
	if err := photo.ValidateName(newName); err != nil {
		return "", err
	}
	if err := s.move(ctx, s.key(oldName), s.key(newName)); err != nil {
		return "", err
	}
	return photo.URL(newName), nil
}

// Archive implements photo.Store.
func (s *Store) Archive(ctx context.Context, name string) (string, error) {
	if err := photo.ValidateName(name); err != nil {
		return "", err
	}
	archived := name
	exists, err := s.exists(ctx, s.key(photo.ArchiveDir, archived))
	if err != nil {
		return "", err
	}
	if exists {
		archived = photo.ArchiveName(name, s.now())
	}
	if err := s.move(ctx, s.key(name), s.key(photo.ArchiveDir, archived)); err != nil {
		return "", err
	}
	return archived, nil
}

// Open implements photo.Store.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, photo.Info, error) {
	if err := photo.ValidateName(name); err != nil {
		return nil, photo.Info{}, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, photo.Info{}, photo.ErrPhotoNotFound
		}
		return nil, photo.Info{}, fmt.Errorf("failed to get photo: %w", err)
	}
	info := photo.Info{
		Name:        name,
		Size:        aws.ToInt64(out.ContentLength),
		ModTime:     aws.ToTime(out.LastModified),
		ContentType: aws.ToString(out.ContentType),
	}
	if info.ContentType == "" {
		info.ContentType = photo.ContentType(name)
	}
	return out.Body, info, nil
}

// Exists implements photo.Store.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if err := photo.ValidateName(name); err != nil {
		return false, err
	}
	return s.exists(ctx, s.key(name))
}

func (s *Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat photo: %w", err)
	}
	return true, nil
}

// move copies src to dst and deletes src. S3 has no rename.
func (s *Store) move(ctx context.Context, src, dst string) error {
	exists, err := s.exists(ctx, src)
	if err != nil {
		return err
	}
	if !exists {
		return photo.ErrPhotoNotFound
	}
	if _, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(dst),
		CopySource: aws.String(copySource(s.bucket, src)),
	}); err != nil {
		return fmt.Errorf("failed to copy photo: %w", err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(src),
	}); err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return nil
}

// copySource builds the x-amz-copy-source value, which S3 expects URL
// encoded one path segment at a time.
func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return bucket + "/" + strings.Join(segments, "/")
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return true
	}
	// HEAD responses carry no body, so the error code is not always decoded
	var re interface{ HTTPStatusCode() int }
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}
