package ingest

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// WorkbookSource reads tabs from a local .xlsx file. The file is reopened on
// every read so a replaced export is picked up without a restart.
type WorkbookSource struct {
	path string
}

func NewWorkbookSource(path string) *WorkbookSource {
	return &WorkbookSource{path: path}
}

func (s *WorkbookSource) Name() string {
	return SourceXLSX
}

func (s *WorkbookSource) ReadTab(_ context.Context, tab string) (*Table, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", s.path, err)
	}
	defer f.Close()

	return readWorkbookTab(f, tab)
}

func readWorkbookTab(r io.Reader, tab string) (*Table, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer file.Close()

	if idx, err := file.GetSheetIndex(tab); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrTabNotFound, tab)
	}

	rows, err := file.GetRows(tab)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", tab, err)
	}
	return newTable(rows), nil
}
