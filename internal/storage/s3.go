package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options conveys the destination bucket of listing photos.
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	KeyPrefix string
}

// S3Service uploads listing photos to Amazon S3 (or compatible APIs).
type S3Service struct {
	client   *s3.Client
	uploader *manager.Uploader
	opts     S3Options
	baseURL  string
}

func NewS3Service(client *s3.Client, opts S3Options) (*S3Service, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	base := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	if opts.Endpoint != "" {
		base = strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
	}
	return &S3Service{
		client:   client,
		uploader: manager.NewUploader(client),
		opts:     opts,
		baseURL:  base,
	}, nil
}

func (s *S3Service) objectKey(key string) string {
	prefix := strings.Trim(s.opts.KeyPrefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

func (s *S3Service) Save(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	objKey := s.objectKey(key)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.opts.Bucket),
		Key:           aws.String(objKey),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		ACL:           types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objKey, err)
	}
	return s.baseURL + "/" + objKey, nil
}

// Delete removes the object behind ref. References outside the bucket are ignored.
func (s *S3Service) Delete(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, s.baseURL+"/") {
		return nil
	}
	objKey := strings.TrimPrefix(ref, s.baseURL+"/")
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", objKey, err)
	}
	return nil
}

var _ Service = (*S3Service)(nil)
