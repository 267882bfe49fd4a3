package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nineaccord/salesboard/internal/storage"
)

// ObjectSource downloads the workbook from a bucket before reading it. A key
// ending in "/" selects the newest .xlsx object under that prefix.
type ObjectSource struct {
	objects     storage.ObjectStorage
	key         string
	downloadDir string
}

func NewObjectSource(objects storage.ObjectStorage, key, downloadDir string) *ObjectSource {
	if downloadDir == "" {
		downloadDir = os.TempDir()
	}
	return &ObjectSource{objects: objects, key: key, downloadDir: downloadDir}
}

func (s *ObjectSource) Name() string {
	return SourceObject
}

func (s *ObjectSource) ReadTab(ctx context.Context, tab string) (*Table, error) {
	key, err := s.resolveKey(ctx)
	if err != nil {
		return nil, err
	}

	dest := filepath.Join(s.downloadDir, filepath.Base(key))
	if err := s.objects.DownloadObject(ctx, key, dest); err != nil {
		return nil, err
	}
	defer os.Remove(dest)

	log.Debug().Str("key", key).Str("tab", tab).Msg("workbook downloaded")
	return NewWorkbookSource(dest).ReadTab(ctx, tab)
}

func (s *ObjectSource) resolveKey(ctx context.Context) (string, error) {
	if !strings.HasSuffix(s.key, "/") {
		return s.key, nil
	}

	objects, err := s.objects.ListObjects(ctx, s.key)
	if err != nil {
		return "", err
	}
	latest, ok := storage.LatestWithSuffix(objects, ".xlsx")
	if !ok {
		return "", fmt.Errorf("no workbook found under %s", s.key)
	}
	return latest.Key, nil
}
