package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Export column names.
const (
	ColDate         = "Date"
	ColAgent        = "Agent First Name"
	ColType         = "Type"
	ColStatus       = "Status"
	ColDisposition  = "Disposition"
	ColDuration     = "Duration"
	ColSource       = "Source"
	ColSourceLink   = "Source Link"
	ColCRMLink      = "CRM Link"
	ColCRMContactID = "CRM Contact ID"
	ColToNumber     = "To Number"
)

// RequiredColumns must be present in every export; the optional ones
// default to empty.
var RequiredColumns = []string{ColDate, ColAgent, ColType, ColStatus, ColDisposition, ColDuration, ColSource}

var OptionalColumns = []string{ColSourceLink, ColCRMLink, ColCRMContactID, ColToNumber}

var ErrMissingColumns = errors.New("missing required columns")

type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Unwrap() error { return ErrMissingColumns }

// Row is one data line looked up by column name.
type Row struct {
	Line   int
	values map[string]string
}

// Get returns the raw cell for a column, or "" when the column is absent.
func (r Row) Get(col string) string {
	return r.values[headerKey(col)]
}

// NewRow builds a Row from column name -> value pairs.
func NewRow(line int, values map[string]string) Row {
	m := make(map[string]string, len(values))
	for k, v := range values {
		m[headerKey(k)] = v
	}
	return Row{Line: line, values: m}
}

type Table struct {
	Header []string
	Rows   []Row
}

func headerKey(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// Load reads an export from disk. .xlsx files are read from their first
// sheet, anything else is parsed as CSV.
func Load(path string) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadXLSX(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads a delimited export from r. Row lines are physical line
// numbers, so quoted fields spanning lines do not shift them.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	var lines []int
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
	return buildTable(records, lines)
}

func loadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	// sheet row numbers
	lines := make([]int, len(rows))
	for i := range rows {
		lines[i] = i + 1
	}
	return buildTable(rows, lines)
}

// buildTable maps records onto the header; lines[i] is where records[i]
// starts in the source.
func buildTable(records [][]string, lines []int) (*Table, error) {
	if len(records) == 0 {
		return nil, &MissingColumnsError{Columns: append([]string(nil), RequiredColumns...)}
	}
	header := records[0]
	index := map[string]int{}
	for i, h := range header {
		k := headerKey(h)
		if _, dup := index[k]; !dup {
			index[k] = i
		}
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[headerKey(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	t := &Table{Header: header}
	for i, rec := range records {
		if i == 0 || blank(rec) {
			continue
		}
		values := make(map[string]string, len(index))
		for k, idx := range index {
			if idx < len(rec) {
				values[k] = rec[idx]
			}
		}
		t.Rows = append(t.Rows, Row{Line: lines[i], values: values})
	}
	return t, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
