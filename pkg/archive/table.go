package archive

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Table is one decoded tabular entry
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// DecodeTable parses CSV text; the first record is the header
func DecodeTable(name string, data []byte) (Table, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	table := Table{Name: name}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if table.Header == nil {
			table.Header = record
			continue
		}
		if blankRecord(record) {
			continue
		}
		table.Rows = append(table.Rows, record)
	}
	if table.Header == nil {
		return Table{}, fmt.Errorf("%s has no header", name)
	}
	return table, nil
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
