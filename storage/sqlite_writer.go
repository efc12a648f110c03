package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"morsel-sales/models"
)

// SQLiteWriter persists the canonical dataset to a SQLite file.
// Use ":memory:" for an in-memory database.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLiteWriter opens (or creates) the database at path and migrates it.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A second connection to ":memory:" would see a different database.
	db.SetMaxOpenConns(1)

	sw := &SQLiteWriter{db: db}
	if err := sw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return sw, nil
}

func (sw *SQLiteWriter) migrate() error {
	_, err := sw.db.Exec(`
	CREATE TABLE IF NOT EXISTS ` + SalesTable + ` (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		sales TEXT NOT NULL,
		date TEXT NOT NULL,
		region TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_morsel_sales_date ON ` + SalesTable + `(date);
	CREATE INDEX IF NOT EXISTS idx_morsel_sales_region ON ` + SalesTable + `(region);
	`)
	return err
}

// Write replaces the table contents with records inside one transaction.
func (sw *SQLiteWriter) Write(runID string, records []models.SalesRecord) error {
	tx, err := sw.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM " + SalesTable); err != nil {
		return fmt.Errorf("sqlite: clear: %w", err)
	}
	for _, batch := range chunks(records, insertBatchSize) {
		query, args := buildInsert(runID, batch, questionPlaceholder)
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("sqlite: insert batch: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// FetchAll retrieves every stored record in date order.
func (sw *SQLiteWriter) FetchAll() ([]models.SalesRecord, error) {
	rows, err := sw.db.Query(`SELECT sales, date, region FROM ` + SalesTable + ` ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetch all: %w", err)
	}
	defer rows.Close()

	var records []models.SalesRecord
	for rows.Next() {
		var (
			r   models.SalesRecord
			day string
		)
		if err := rows.Scan(&r.Sales, &day, &r.Region); err != nil {
			return nil, fmt.Errorf("sqlite: scan row: %w", err)
		}
		if r.Date, err = time.Parse(models.DateLayout, day); err != nil {
			return nil, fmt.Errorf("sqlite: parse date %q: %w", day, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// RunIDs returns the distinct run ids currently stored.
func (sw *SQLiteWriter) RunIDs() ([]string, error) {
	rows, err := sw.db.Query(`SELECT DISTINCT run_id FROM ` + SalesTable)
	if err != nil {
		return nil, fmt.Errorf("sqlite: run ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (sw *SQLiteWriter) Close() error {
	return sw.db.Close()
}
