package service

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/costplane/costplane/internal/canonical"
)

// ReadCSV parses one export into folded headers plus one record map per
// data row, keyed by folded header. Short rows are padded with empty
// values; duplicate headers keep the last column's value.
func ReadCSV(r io.Reader) ([]string, []map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}

	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = canonical.FoldHeader(h)
	}

	var records []map[string]string
	for line := 2; ; line++ {
		raw, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		record := make(map[string]string, len(folded))
		for i, column := range folded {
			if column == "" {
				continue
			}
			if i < len(raw) {
				record[column] = raw[i]
			} else {
				record[column] = ""
			}
		}
		records = append(records, record)
	}

	return canonical.FoldHeaders(folded), records, nil
}
