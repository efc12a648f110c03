package storage

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"morsel-sales/models"
)

// ReadXLSX reads the first worksheet whose first non-empty row mentions a
// "product" column, falling back to the first sheet. Cells are read as their
// displayed text so they go through the same cleaning as CSV cells.
func ReadXLSX(path string) (*models.RawBatch, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open %q: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &models.RawBatch{Source: path}, nil
	}

	var rows [][]string
	for i, name := range sheets {
		sheetRows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("xlsx: read sheet %q of %q: %w", name, path, err)
		}
		if i == 0 {
			rows = sheetRows
		}
		if h := firstNonBlank(sheetRows); h >= 0 && hasColumn(sheetRows[h], "product") {
			rows = sheetRows
			break
		}
	}

	h := firstNonBlank(rows)
	if h < 0 {
		return &models.RawBatch{Source: path}, nil
	}

	batch := &models.RawBatch{Source: path, Columns: rows[h]}
	for _, r := range rows[h+1:] {
		if blankRow(r) {
			continue
		}
		batch.Records = append(batch.Records, toRecord(rows[h], r))
	}
	return batch, nil
}

func firstNonBlank(rows [][]string) int {
	for i, r := range rows {
		if !blankRow(r) {
			return i
		}
	}
	return -1
}

func hasColumn(header []string, name string) bool {
	for _, c := range header {
		if strings.EqualFold(strings.TrimSpace(c), name) {
			return true
		}
	}
	return false
}
