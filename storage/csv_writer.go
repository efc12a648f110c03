package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"morsel-sales/models"
)

// CanonicalHeader is the header of the persisted output table.
var CanonicalHeader = []string{"Sales", "Date", "Region"}

// CSVWriter writes the canonical dataset as Sales,Date,Region.
// It is safe for concurrent use.
type CSVWriter struct {
	mu   sync.Mutex
	path string
}

// NewCSVWriter prepares a writer for path. Intermediate directories are
// created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{path: path}, nil
}

// Path returns the output file path.
func (c *CSVWriter) Path() string { return c.path }

// Write replaces the output file with records. The file is written to a
// temporary sibling and renamed, so readers never see a partial table.
func (c *CSVWriter) Write(_ string, records []models.SalesRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".sales-*.csv")
	if err != nil {
		return fmt.Errorf("csv: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(CanonicalHeader); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Sales.StringFixed(2),
			r.Date.Format(models.DateLayout),
			r.Region,
		}
		if err := w.Write(row); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("csv: flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("csv: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("csv: replace %q: %w", c.path, err)
	}
	return nil
}

// FetchAll reads the output file back into records.
func (c *CSVWriter) FetchAll() ([]models.SalesRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	batch, err := ReadCSV(c.path)
	if err != nil {
		return nil, err
	}

	records := make([]models.SalesRecord, 0, len(batch.Records))
	for i, row := range batch.Records {
		sales, err := decimal.NewFromString(row["Sales"])
		if err != nil {
			return nil, fmt.Errorf("csv: row %d sales: %w", i+1, err)
		}
		day, err := time.Parse(models.DateLayout, row["Date"])
		if err != nil {
			return nil, fmt.Errorf("csv: row %d date: %w", i+1, err)
		}
		records = append(records, models.SalesRecord{Sales: sales, Date: day, Region: row["Region"]})
	}
	return records, nil
}

// Close is a no-op; every Write is self-contained.
func (c *CSVWriter) Close() error {
	return nil
}
