package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEndpoint(t *testing.T) {
	host, secure := splitEndpoint("https://objects.example.com/", false)
	assert.Equal(t, "objects.example.com", host)
	assert.True(t, secure)

	host, secure = splitEndpoint("http://localhost:9000", true)
	assert.Equal(t, "localhost:9000", host)
	assert.False(t, secure)

	host, secure = splitEndpoint("minio:9000", true)
	assert.Equal(t, "minio:9000", host)
	assert.True(t, secure)
}

func TestNewMinioClientValidates(t *testing.T) {
	_, err := NewMinioClient(MinioConfig{})
	assert.Error(t, err)

	_, err = NewMinioClient(MinioConfig{Endpoint: "localhost:9000", Bucket: "sales"})
	assert.Error(t, err)

	_, err = NewMinioClient(MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err)

	client, err := NewMinioClient(MinioConfig{Endpoint: "http://localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "sales"})
	require.NoError(t, err)
	assert.Equal(t, "sales", client.bucket)
}

func TestLatestWithSuffix(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	objects := []ObjectInfo{
		{Key: "exports/b.xlsx", LastModified: base},
		{Key: "exports/a.XLSX", LastModified: base.Add(time.Hour)},
		{Key: "exports/z.csv", LastModified: base.Add(2 * time.Hour)},
	}
	latest, ok := LatestWithSuffix(objects, ".xlsx")
	require.True(t, ok)
	assert.Equal(t, "exports/a.XLSX", latest.Key)

	latest, ok = LatestWithSuffix([]ObjectInfo{{Key: "2024-05.xlsx"}, {Key: "2024-06.xlsx"}}, ".xlsx")
	require.True(t, ok)
	assert.Equal(t, "2024-06.xlsx", latest.Key)

	_, ok = LatestWithSuffix(objects[2:], ".xlsx")
	assert.False(t, ok)
}
