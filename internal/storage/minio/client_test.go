package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	minioLib "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMinio implements minioAPI for testing without network.
type fakeMinio struct {
	bucketExists    bool
	bucketExistsErr error
	makeBucketErr   error

	putInfo minioLib.UploadInfo
	putErr  error
	putKey  string
	putSize int64

	removeErr error

	statInfo minioLib.ObjectInfo
	statErr  error
}

func (f *fakeMinio) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.bucketExists, f.bucketExistsErr
}
func (f *fakeMinio) MakeBucket(_ context.Context, _ string, _ minioLib.MakeBucketOptions) error {
	return f.makeBucketErr
}
func (f *fakeMinio) PutObject(_ context.Context, _ string, objectName string, _ io.Reader, objectSize int64, _ minioLib.PutObjectOptions) (minioLib.UploadInfo, error) {
	f.putKey = objectName
	f.putSize = objectSize
	return f.putInfo, f.putErr
}
func (f *fakeMinio) RemoveObject(_ context.Context, _ string, _ string, _ minioLib.RemoveObjectOptions) error {
	return f.removeErr
}
func (f *fakeMinio) StatObject(_ context.Context, _ string, _ string, _ minioLib.StatObjectOptions) (minioLib.ObjectInfo, error) {
	return f.statInfo, f.statErr
}

func TestNewArchiveStoreWithAPI_BucketExists(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{bucketExists: true}
	s, err := NewArchiveStoreWithAPI(ctx, api, "backups")
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.Equal(t, "backups", s.bucket)
}

func TestNewArchiveStoreWithAPI_CreatesBucket(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{bucketExists: false}
	s, err := NewArchiveStoreWithAPI(ctx, api, "backups")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestNewArchiveStoreWithAPI_BucketCheckError(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{bucketExistsErr: errors.New("boom")}
	s, err := NewArchiveStoreWithAPI(ctx, api, "backups")
	assert.Nil(t, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ensure bucket exists")
}

func TestNewArchiveStoreWithAPI_MakeBucketError(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{bucketExists: false, makeBucketErr: errors.New("denied")}
	s, err := NewArchiveStoreWithAPI(ctx, api, "backups")
	assert.Nil(t, s)
	require.Error(t, err)
}

func TestArchiveStore_Upload(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{bucketExists: true}
	s, err := NewArchiveStoreWithAPI(ctx, api, "backups")
	require.NoError(t, err)

	data := []byte("archive bytes")
	err = s.Upload(ctx, "backup_20260830_120000.tar.gz", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, "backup_20260830_120000.tar.gz", api.putKey)
	assert.Equal(t, int64(len(data)), api.putSize)
}

func TestArchiveStore_UploadError(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{bucketExists: true, putErr: errors.New("timeout")}
	s, err := NewArchiveStoreWithAPI(ctx, api, "backups")
	require.NoError(t, err)

	err = s.Upload(ctx, "k", bytes.NewReader(nil), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload object")
}

func TestArchiveStore_Exists(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{bucketExists: true}
	s, err := NewArchiveStoreWithAPI(ctx, api, "backups")
	require.NoError(t, err)

	exists, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestArchiveStore_Exists_NoSuchKey(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{
		bucketExists: true,
		statErr:      minioLib.ErrorResponse{Code: "NoSuchKey"},
	}
	s, err := NewArchiveStoreWithAPI(ctx, api, "backups")
	require.NoError(t, err)

	exists, err := s.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestArchiveStore_Remove(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{bucketExists: true}
	s, err := NewArchiveStoreWithAPI(ctx, api, "backups")
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, "k"))
}

func TestArchiveStore_RemoveError(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{bucketExists: true, removeErr: errors.New("denied")}
	s, err := NewArchiveStoreWithAPI(ctx, api, "backups")
	require.NoError(t, err)

	err = s.Remove(ctx, "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete object")
}
