package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// SheetsSource reads tabs of a Google spreadsheet. The spreadsheet is either
// addressed by id or looked up by name through Drive.
type SheetsSource struct {
	drive  *drive.Service
	sheets *sheets.Service

	name string

	mu sync.Mutex
	id string
}

func NewSheetsSource(ctx context.Context, credentialsJSON []byte, name, id string) (*SheetsSource, error) {
	if len(credentialsJSON) == 0 {
		return nil, errors.New("google service account credentials are required")
	}
	if name == "" && id == "" {
		return nil, errors.New("spreadsheet name or id is required")
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, drive.DriveReadonlyScope, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}
	client := config.Client(ctx)

	driveSrv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %w", err)
	}
	sheetsSrv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Sheets client: %w", err)
	}

	return &SheetsSource{drive: driveSrv, sheets: sheetsSrv, name: name, id: id}, nil
}

func (s *SheetsSource) Name() string {
	return SourceSheets
}

// ReadTab fetches every value of the tab. Numbers come back unformatted;
// date cells keep their displayed text so month_year reads as YY/MM rather
// than a serial day number.
func (s *SheetsSource) ReadTab(ctx context.Context, tab string) (*Table, error) {
	id, err := s.spreadsheetID(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.sheets.Spreadsheets.Values.Get(id, quoteSheetRange(tab)).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %s", ErrTabNotFound, tab)
		}
		return nil, fmt.Errorf("unable to read tab %s: %w", tab, err)
	}

	values := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		values[i] = cells
	}
	return newTable(values), nil
}

func (s *SheetsSource) spreadsheetID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id != "" {
		return s.id, nil
	}

	result, err := s.drive.Files.List().
		Q(fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(s.name), spreadsheetMimeType)).
		Fields("files(id, name, modifiedTime)").
		OrderBy("modifiedTime desc").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("unable to search spreadsheet %q: %w", s.name, err)
	}
	if len(result.Files) == 0 {
		return "", fmt.Errorf("spreadsheet not found: %s", s.name)
	}
	if len(result.Files) > 1 {
		log.Warn().Str("spreadsheet", s.name).Int("matches", len(result.Files)).Msg("several spreadsheets share the name, using the most recently modified")
	}

	s.id = result.Files[0].Id
	return s.id, nil
}

func quoteSheetRange(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

func escapeQuery(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
