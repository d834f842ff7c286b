package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"call-insights-go/internal/types"
)

// BasePath strips the extension so "exports/calls.csv" yields
// "exports/calls" and files land next to the input.
func BasePath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input))
}

// WriteCSV writes <base>_<table>.csv for every table and returns the paths
// in creation order.
func WriteCSV(base string, res types.AnalysisResult) ([]string, error) {
	var paths []string
	for _, t := range Tables(res) {
		path := fmt.Sprintf("%s_%s.csv", base, t.Name)
		if err := writeCSVFile(path, t); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeCSVFile(path string, t Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	for _, row := range t.Rows {
		if err := w.Write(cellStrings(row)); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func cellStrings(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch c := v.(type) {
		case string:
			out[i] = c
		case int:
			out[i] = strconv.Itoa(c)
		case float64:
			out[i] = strconv.FormatFloat(c, 'f', -1, 64)
		default:
			out[i] = fmt.Sprint(c)
		}
	}
	return out
}
