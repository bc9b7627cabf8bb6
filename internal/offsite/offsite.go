// Package offsite copies finished archives to S3-compatible object storage.
package offsite

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrUploadFailed = errors.New("offsite upload failed")

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	UseSSL    bool
}

// Enabled reports whether an endpoint and bucket were configured.
func (o Options) Enabled() bool {
	return o.Endpoint != "" && o.Bucket != ""
}

// ObjectPutter is the part of *minio.Client the uploader uses.
type ObjectPutter interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Uploader struct {
	client ObjectPutter
	bucket string
	prefix string
}

func New(opts Options) (*Uploader, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return NewWithClient(client, opts.Bucket, opts.Prefix), nil
}

func NewWithClient(client ObjectPutter, bucket, prefix string) *Uploader {
	return &Uploader{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Key maps a path relative to the backup root onto an object name.
func (u *Uploader) Key(rel string) string {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "/")
	if u.prefix == "" {
		return rel
	}
	return path.Join(u.prefix, rel)
}

// Upload stores the file at localPath under Key(rel) and returns the number
// of bytes sent.
func (u *Uploader) Upload(ctx context.Context, localPath, rel string) (int64, error) {
	key := u.Key(rel)

	info, err := u.client.FPutObject(ctx, u.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType(localPath),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: s3://%s/%s: %w", ErrUploadFailed, u.bucket, key, err)
	}
	return info.Size, nil
}

func contentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".tar.gz"):
		return "application/gzip"
	case strings.HasSuffix(name, ".tar.bz2"):
		return "application/x-bzip2"
	case strings.HasSuffix(name, ".tar.xz"):
		return "application/x-xz"
	case strings.HasSuffix(name, ".tar"):
		return "application/x-tar"
	}
	return "application/octet-stream"
}
