package storage

import (
	"context"
	"sort"
	"strings"
	"time"
)

// ObjectInfo describes one object of the bucket.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStorage is the bucket surface used to fetch and publish sales workbooks.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte) error
}

// LatestWithSuffix returns the most recently modified object whose key ends in
// suffix (case-insensitive). Equal timestamps fall back to the larger key.
func LatestWithSuffix(objects []ObjectInfo, suffix string) (ObjectInfo, bool) {
	suffix = strings.ToLower(suffix)

	var candidates []ObjectInfo
	for _, o := range objects {
		if strings.HasSuffix(strings.ToLower(o.Key), suffix) {
			candidates = append(candidates, o)
		}
	}
	if len(candidates) == 0 {
		return ObjectInfo{}, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].LastModified.Equal(candidates[j].LastModified) {
			return candidates[i].LastModified.Before(candidates[j].LastModified)
		}
		return candidates[i].Key < candidates[j].Key
	})
	return candidates[len(candidates)-1], true
}
