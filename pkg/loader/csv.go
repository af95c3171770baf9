package loader

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

func readCSV(r io.Reader) ([]record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rowRecord(header, row))
	}
	return out, nil
}

// rowRecord pairs a header with a row. Short rows leave the trailing columns empty.
func rowRecord(header, row []string) record {
	rec := make(record, len(header))
	for i, h := range header {
		k := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if k == "" {
			continue
		}
		if i < len(row) {
			rec[k] = row[i]
		}
	}
	return rec
}
