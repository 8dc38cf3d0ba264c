package encoder

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// missingMarkers are cell values treated as a missing answer.
var missingMarkers = []string{"", "NA", "N/A", "NaN", "null"}

// FileMetadata provides header information of a survey export.
type FileMetadata struct {
	Columns []string
	// Canonical holds the survey field each header resolved to.
	Canonical []string
	// Unknown lists headers that matched no survey field.
	Unknown []string
}

// ExtraColumn is an additional output column appended after the features,
// such as a training label or a model prediction.
type ExtraColumn struct {
	Name   string
	Values []float64
}

// ParseResponses reads a CSV or TSV survey export. The delimiter is chosen
// from the file extension.
func ParseResponses(path string) ([]Response, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	responses, err := ReadResponses(f, delimiterFor(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return responses, nil
}

// ReadResponses reads delimited survey rows. The first row is the header.
// Empty and NA cells become nil; Age cells are parsed as numbers when
// possible.
func ReadResponses(r io.Reader, comma rune) ([]Response, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty file")
	}
	header := resolveHeader(rows[0], getColumnAliases())
	out := make([]Response, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		resp := make(Response, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i >= len(row) {
				resp[name] = nil
				continue
			}
			resp[name] = parseCell(name, row[i])
		}
		out = append(out, resp)
	}
	return out, nil
}

// ReadFileMetadata returns the header of a survey export and how each column
// resolves against the survey fields.
func ReadFileMetadata(path string) (FileMetadata, error) {
	meta := FileMetadata{}
	f, err := os.Open(path)
	if err != nil {
		return meta, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.Comma = delimiterFor(path)
	reader.FieldsPerRecord = -1
	row, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return meta, nil
		}
		return meta, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	meta.Columns = make([]string, len(row))
	for i, cell := range row {
		meta.Columns[i] = cleanCell(cell)
	}
	meta.Canonical = resolveHeader(row, getColumnAliases())
	for _, name := range meta.Canonical {
		if name == "" {
			continue
		}
		if _, ok := LookupField(name); !ok {
			meta.Unknown = append(meta.Unknown, name)
		}
	}
	return meta, nil
}

// WriteFeatureCSV writes the feature table followed by any extra columns.
func WriteFeatureCSV(w io.Writer, table FeatureTable, extras ...ExtraColumn) error {
	for _, extra := range extras {
		if len(extra.Values) != len(table.Rows) {
			return fmt.Errorf("column %s has %d values for %d rows", extra.Name, len(extra.Values), len(table.Rows))
		}
	}
	writer := csv.NewWriter(w)
	header := cloneStrings(table.Columns)
	for _, extra := range extras {
		header = append(header, extra.Name)
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range table.Rows {
		record := make([]string, 0, len(header))
		for _, v := range row {
			record = append(record, formatValue(v))
		}
		for _, extra := range extras {
			record = append(record, formatValue(extra.Values[i]))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush features: %w", err)
	}
	return nil
}

func resolveHeader(row []string, aliases ColumnAliases) []string {
	header := make([]string, len(row))
	seen := make(map[string]struct{}, len(row))
	for i, cell := range row {
		name := canonicalColumn(cleanCell(cell), aliases)
		if _, dup := seen[name]; dup {
			// Keep the first occurrence of a repeated header.
			continue
		}
		seen[name] = struct{}{}
		header[i] = name
	}
	return header
}

func parseCell(field, cell string) any {
	v := cleanCell(cell)
	for _, marker := range missingMarkers {
		if v == marker {
			return nil
		}
	}
	if field == FieldAge {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return v
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if cleanCell(cell) != "" {
			return false
		}
	}
	return true
}

func delimiterFor(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '\t'
	}
	return ','
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
