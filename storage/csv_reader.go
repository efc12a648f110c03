package storage

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"morsel-sales/models"
)

const utf8BOM = "\ufeff"

// ReadCSV reads a delimited text file whose first row is the header.
// The delimiter is sniffed from the header: tab, then comma, then semicolon.
func ReadCSV(path string) (*models.RawBatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	batch, err := parseDelimited(path, f)
	if err != nil {
		return nil, fmt.Errorf("csv: read %q: %w", path, err)
	}
	return batch, nil
}

func parseDelimited(source string, r io.Reader) (*models.RawBatch, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(string(head))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &models.RawBatch{Source: source}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	batch := &models.RawBatch{Source: source, Columns: header}
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if blankRow(fields) {
			continue
		}
		batch.Records = append(batch.Records, toRecord(header, fields))
	}
	return batch, nil
}

func sniffDelimiter(head string) rune {
	line := strings.TrimPrefix(head, utf8BOM)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	switch {
	case strings.Contains(line, "\t"):
		return '\t'
	case strings.Contains(line, ","):
		return ','
	case strings.Contains(line, ";"):
		return ';'
	}
	return ','
}

// toRecord pairs header names with cells; short rows get empty cells.
func toRecord(header, fields []string) models.RawRecord {
	rec := make(models.RawRecord, len(header))
	for i, col := range header {
		if i < len(fields) {
			rec[col] = fields[i]
		} else {
			rec[col] = ""
		}
	}
	return rec
}

func blankRow(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
