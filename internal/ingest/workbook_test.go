package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nineaccord/salesboard/internal/domain"
	"github.com/nineaccord/salesboard/internal/storage"
)

// writeWorkbook builds an .xlsx with one sheet per entry of tabs.
func writeWorkbook(t *testing.T, tabs map[string][][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for name, rows := range tabs {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func nineWorkbook(t *testing.T) []byte {
	return writeWorkbook(t, map[string][][]interface{}{
		domain.BrandNine.SheetTab(): {
			{"창고별", "구분", "월별", "품목별", "수량", "시리즈", "재고"},
			{"면세", "안경테", "24/01", "A-01", 3, "A", 10},
			{"안경원", "클립", "24/02", "C-01", -2, "C", 0},
		},
		"미송": {
			{"품목별", "미송"},
			{"A-01", 6},
		},
	})
}

func TestReadWorkbookTab(t *testing.T) {
	data := nineWorkbook(t)

	table, err := readWorkbookTab(bytes.NewReader(data), domain.BrandNine.SheetTab())
	require.NoError(t, err)
	assert.Equal(t, "창고별", table.Header[0])
	require.Len(t, table.Rows, 2)

	rows, err := CleanRows(table, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, rows[0].Quantity)
	assert.Equal(t, -2, rows[1].Quantity)

	_, err = readWorkbookTab(bytes.NewReader(data), domain.BrandCuru.SheetTab())
	assert.ErrorIs(t, err, ErrTabNotFound)
}

func TestWorkbookSourceReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, os.WriteFile(path, nineWorkbook(t), 0o600))

	src := NewWorkbookSource(path)
	assert.Equal(t, SourceXLSX, src.Name())

	table, err := src.ReadTab(context.Background(), "미송")
	require.NoError(t, err)
	lookup, err := BackorderLookup(table)
	require.NoError(t, err)
	assert.Equal(t, 6, lookup["A-01"])

	_, err = NewWorkbookSource(filepath.Join(t.TempDir(), "missing.xlsx")).ReadTab(context.Background(), "x")
	assert.Error(t, err)
}

type fakeObjects struct {
	objects    map[string][]byte
	downloaded []string
}

func (f *fakeObjects) ListObjects(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for key, data := range f.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return out, nil
}

func (f *fakeObjects) DownloadObject(_ context.Context, key, dest string) error {
	data, ok := f.objects[key]
	if !ok {
		return os.ErrNotExist
	}
	f.downloaded = append(f.downloaded, key)
	return os.WriteFile(dest, data, 0o600)
}

func (f *fakeObjects) UploadObject(_ context.Context, key string, data []byte) error {
	f.objects[key] = data
	return nil
}

func TestObjectSourcePicksLatestExport(t *testing.T) {
	objects := &fakeObjects{objects: map[string][]byte{
		"exports/2024-05-01.xlsx": writeWorkbook(t, map[string][][]interface{}{"other": {{"x"}}}),
		"exports/2024-06-01.xlsx": nineWorkbook(t),
		"exports/readme.txt":      []byte("notes"),
	}}
	dir := t.TempDir()
	src := NewObjectSource(objects, "exports/", dir)

	table, err := src.ReadTab(context.Background(), domain.BrandNine.SheetTab())
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"exports/2024-06-01.xlsx"}, objects.downloaded)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestObjectSourceEmptyPrefix(t *testing.T) {
	src := NewObjectSource(&fakeObjects{objects: map[string][]byte{}}, "exports/", t.TempDir())
	_, err := src.ReadTab(context.Background(), "x")
	assert.Error(t, err)
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(context.Background(), SourceOptions{Kind: SourceXLSX, WorkbookPath: "a.xlsx"}, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceXLSX, src.Name())

	_, err = NewSource(context.Background(), SourceOptions{Kind: SourceObject}, nil)
	assert.Error(t, err)

	src, err = NewSource(context.Background(), SourceOptions{Kind: SourceObject, ObjectKey: "k"}, &fakeObjects{})
	require.NoError(t, err)
	assert.Equal(t, SourceObject, src.Name())

	_, err = NewSource(context.Background(), SourceOptions{Kind: "ftp"}, nil)
	assert.Error(t, err)
}
