// Package ingest turns uploaded manifest files into raw AWB lists.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for file extensions other than
// .xlsx/.xls/.csv.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var awbHeaderPattern = regexp.MustCompile(`(?i)awb|track|serial|order`)

// ReadFile parses a manifest upload by extension and returns one raw AWB
// string per data row. Rows with no usable value come back as empty strings
// so the caller can count them as errors.
func ReadFile(r io.Reader, filename string) ([]string, error) {
	switch strings.ToLower(path.Ext(filename)) {
	case ".xlsx", ".xls":
		return ReadWorkbook(r)
	case ".csv":
		return ReadCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ReadWorkbook extracts AWBs from the first sheet of a spreadsheet.
func ReadWorkbook(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return extract(rows), nil
}

// ReadCSV extracts AWBs from CSV data with a header row.
func ReadCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return extract(rows), nil
}

func extract(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}
	col := awbColumn(rows[0])
	awbs := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		v := ""
		if col < len(row) {
			v = strings.TrimSpace(row[col])
		}
		awbs = append(awbs, v)
	}
	return awbs
}

// awbColumn picks the column holding the tracking number: a header literally
// named "awb" wins, then the first header matching awb|track|serial|order,
// then the first column.
func awbColumn(header []string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "awb") {
			return i
		}
	}
	for i, h := range header {
		if awbHeaderPattern.MatchString(h) {
			return i
		}
	}
	return 0
}
