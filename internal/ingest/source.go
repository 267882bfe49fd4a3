package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nineaccord/salesboard/internal/storage"
)

// ErrTabNotFound is returned when a workbook has no tab with the requested name.
var ErrTabNotFound = errors.New("spreadsheet tab not found")

// Table is a raw spreadsheet tab: a header row and the data rows below it.
// Rows may be shorter than Header when trailing cells are empty.
type Table struct {
	Header []string
	Rows   [][]string
}

// Source reads tabs of the sales workbook.
type Source interface {
	Name() string
	ReadTab(ctx context.Context, tab string) (*Table, error)
}

// newTable splits raw cell values into header and rows.
func newTable(values [][]string) *Table {
	if len(values) == 0 {
		return &Table{}
	}
	header := make([]string, len(values[0]))
	for i, h := range values[0] {
		header[i] = strings.TrimSpace(h)
	}
	return &Table{Header: header, Rows: values[1:]}
}

// SourceOptions carries the settings of every source kind.
type SourceOptions struct {
	Kind string

	WorkbookPath string

	SpreadsheetName string
	SpreadsheetID   string
	CredentialsJSON []byte

	ObjectKey   string
	DownloadDir string
}

// Supported source kinds.
const (
	SourceSheets = "sheets"
	SourceXLSX   = "xlsx"
	SourceObject = "object"
)

// NewSource builds the source selected by opts.Kind. objects is only
// required for the object source.
func NewSource(ctx context.Context, opts SourceOptions, objects storage.ObjectStorage) (Source, error) {
	switch opts.Kind {
	case SourceSheets, "":
		src, err := NewSheetsSource(ctx, opts.CredentialsJSON, opts.SpreadsheetName, opts.SpreadsheetID)
		if err != nil {
			return nil, err
		}
		return src, nil
	case SourceXLSX:
		return NewWorkbookSource(opts.WorkbookPath), nil
	case SourceObject:
		if objects == nil {
			return nil, errors.New("object source requires object storage settings")
		}
		return NewObjectSource(objects, opts.ObjectKey, opts.DownloadDir), nil
	default:
		return nil, fmt.Errorf("unknown ingest source %q", opts.Kind)
	}
}
