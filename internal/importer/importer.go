// Package importer reads lead rows from uploaded spreadsheets.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/crm-service/internal/textutil"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv.
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .xlsx or .csv")
	// ErrNoNameColumn is returned when the header row has no recognizable name column.
	ErrNoNameColumn = errors.New("header row has no name column")
	// ErrEmptySheet is returned when the file has no header row.
	ErrEmptySheet = errors.New("spreadsheet is empty")
)

// Field is a lead attribute that a column can map to.
type Field string

const (
	FieldName       Field = "name"
	FieldPhone      Field = "phone"
	FieldEmail      Field = "email"
	FieldSource     Field = "source"
	FieldRegion     Field = "region"
	FieldProduct    Field = "product"
	FieldContent    Field = "content"
	FieldStatus     Field = "status"
	FieldValue      Field = "value"
	FieldAssignedTo Field = "assigned_to"
	FieldTags       Field = "tags"
)

// headerAliases maps folded header text to a field. English and Vietnamese
// column titles are both accepted.
var headerAliases = map[string]Field{
	"name":            FieldName,
	"full name":       FieldName,
	"ho ten":          FieldName,
	"ho va ten":       FieldName,
	"ten":             FieldName,
	"ten khach hang":  FieldName,
	"phone":           FieldPhone,
	"phone number":    FieldPhone,
	"so dien thoai":   FieldPhone,
	"sdt":             FieldPhone,
	"dien thoai":      FieldPhone,
	"email":           FieldEmail,
	"e mail":          FieldEmail,
	"source":          FieldSource,
	"nguon":           FieldSource,
	"region":          FieldRegion,
	"khu vuc":         FieldRegion,
	"tinh thanh":      FieldRegion,
	"product":         FieldProduct,
	"san pham":        FieldProduct,
	"content":         FieldContent,
	"notes":           FieldContent,
	"note":            FieldContent,
	"ghi chu":         FieldContent,
	"noi dung":        FieldContent,
	"status":          FieldStatus,
	"trang thai":      FieldStatus,
	"value":           FieldValue,
	"gia tri":         FieldValue,
	"assigned to":     FieldAssignedTo,
	"assignedto":      FieldAssignedTo,
	"assignee":        FieldAssignedTo,
	"nguoi phu trach": FieldAssignedTo,
	"tags":            FieldTags,
	"nhan":            FieldTags,
}

// Row is one data row keyed by field. Line is the 1-based line in the file.
type Row struct {
	Line   int
	Values map[Field]string
}

// Get returns the trimmed value for a field.
func (r Row) Get(field Field) string {
	return strings.TrimSpace(r.Values[field])
}

// Parse reads rows from an xlsx or csv file, chosen by filename extension.
// The first row is the header; blank rows are skipped.
func Parse(filename string, r io.Reader) ([]Row, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		records, err = readXLSX(r)
	case ".csv":
		records, err = readCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return mapRecords(records)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

func mapRecords(records [][]string) ([]Row, error) {
	if len(records) == 0 {
		return nil, ErrEmptySheet
	}
	columns := make(map[int]Field, len(records[0]))
	hasName := false
	for i, title := range records[0] {
		field, ok := headerAliases[normalizeHeader(title)]
		if !ok {
			continue
		}
		columns[i] = field
		if field == FieldName {
			hasName = true
		}
	}
	if !hasName {
		return nil, ErrNoNameColumn
	}

	rows := make([]Row, 0, len(records)-1)
	for idx, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		row := Row{Line: idx + 2, Values: make(map[Field]string, len(columns))}
		for i, cell := range record {
			if field, ok := columns[i]; ok {
				row.Values[field] = cell
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func normalizeHeader(title string) string {
	title = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(title)
	return textutil.Fold(title)
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
