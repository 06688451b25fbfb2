// Package storage puts and deletes image objects in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ImagePrefix is the key prefix every uploaded image lives under.
const ImagePrefix = "images/"

type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	// Delete succeeds for keys that do not exist.
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Store struct {
	client    s3API
	bucket    string
	publicURL string
}

func NewS3Store(client *s3.Client, bucket, publicURL string) *S3Store {
	return newS3Store(client, bucket, publicURL)
}

func newS3Store(client s3API, bucket, publicURL string) *S3Store {
	return &S3Store{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("putting object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) URL(key string) string {
	return s.publicURL + "/" + key
}

// GenerateKey names an upload images/<md5(unixnano-name)><ext>. ext is used when
// the original name carries no extension; it should include the leading dot.
func GenerateKey(originalName, ext string, now time.Time) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%d-%s", now.UnixNano(), originalName)))
	if e := path.Ext(originalName); e != "" {
		ext = strings.ToLower(e)
	}
	return ImagePrefix + hex.EncodeToString(sum[:]) + ext
}

// ValidKey reports whether key names an object under ImagePrefix.
func ValidKey(key string) bool {
	if !strings.HasPrefix(key, ImagePrefix) || len(key) == len(ImagePrefix) {
		return false
	}
	return !strings.Contains(key, "..")
}
