package offsite

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type putCall struct {
	bucket, object, file, contentType string
}

type fakeClient struct {
	calls []putCall
	err   error
}

func (f *fakeClient) FPutObject(_ context.Context, bucket, object, file string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.calls = append(f.calls, putCall{bucket, object, file, opts.ContentType})
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: 42}, nil
}

func TestUpload(t *testing.T) {
	client := &fakeClient{}
	u := NewWithClient(client, "backups", "/hosts/storage1/")

	n, err := u.Upload(context.Background(), "/backup/data01/2024-03/data01_202403.tar.gz", "data01/2024-03/data01_202403.tar.gz")
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)
	assert.Equal(t, []putCall{{
		bucket:      "backups",
		object:      "hosts/storage1/data01/2024-03/data01_202403.tar.gz",
		file:        "/backup/data01/2024-03/data01_202403.tar.gz",
		contentType: "application/gzip",
	}}, client.calls)
}

func TestUploadFailure(t *testing.T) {
	u := NewWithClient(&fakeClient{err: errors.New("access denied")}, "backups", "")

	_, err := u.Upload(context.Background(), "/backup/a.snar", "data01/2024-03/a.snar")
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Equal(t, "data01/2024-03/a.snar", u.Key("/data01/2024-03/a.snar"))
}

func TestOptionsEnabled(t *testing.T) {
	assert.False(t, Options{}.Enabled())
	assert.False(t, Options{Endpoint: "s3.local:9000"}.Enabled())
	assert.True(t, Options{Endpoint: "s3.local:9000", Bucket: "backups"}.Enabled())
}
