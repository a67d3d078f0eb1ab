// Package sheet reads artist/title lists from spreadsheet files.
//
// The first two columns of every row are the artist and the title. There is no header row.
// Rows whose artist and title are both blank are skipped; extra columns are ignored.
//
// Loading is all-or-nothing: any failure returns a nil slice and an error wrapping [shared.ErrLoad].
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/playsheet/internal/models"
	"github.com/desertthunder/playsheet/internal/shared"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

// Format is a supported spreadsheet encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatXLSX
	FormatCSV
	FormatTSV
)

func (f Format) String() string {
	switch f {
	case FormatXLSX:
		return "xlsx"
	case FormatCSV:
		return "csv"
	case FormatTSV:
		return "tsv"
	default:
		return "unknown"
	}
}

var ErrNoTracks = errors.New("no tracks found")

// DetectFormat chooses the reader by file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return FormatXLSX
	case ".csv":
		return FormatCSV
	case ".tsv":
		return FormatTSV
	default:
		return FormatUnknown
	}
}

// Load reads every track request from the spreadsheet at path in row order.
func Load(path string) ([]models.TrackRequest, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, shared.NewOpError("load "+path, shared.ErrLoad, err)
	}

	requests := toRequests(rows)
	if len(requests) == 0 {
		return nil, shared.NewOpError("load "+path, shared.ErrLoad, ErrNoTracks)
	}
	return requests, nil
}

func readRows(path string) ([][]string, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}

	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	switch format {
	case FormatXLSX:
		return readWorkbook(path)
	case FormatTSV:
		return readDelimited(path, '\t')
	default:
		return readDelimited(path, ',')
	}
}

// readWorkbook returns the rows of the first worksheet.
func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no worksheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readDelimited(path string, comma rune) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// toRequests keeps the source row numbers of skipped blank rows so diagnostics point at the right line.
func toRequests(rows [][]string) []models.TrackRequest {
	var requests []models.TrackRequest
	for i, row := range rows {
		artist, title := cell(row, 0), cell(row, 1)
		if artist == "" && title == "" {
			continue
		}
		requests = append(requests, models.TrackRequest{Artist: artist, Title: title, Row: i + 1})
	}
	return requests
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return norm.NFC.String(strings.TrimSpace(strings.TrimPrefix(row[idx], "\ufeff")))
}
