package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"morsel-sales/models"
	"morsel-sales/utils"
)

// PostgresWriter persists the canonical dataset to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, waits for it to accept
// pings using retry, runs the schema migration, and returns a ready writer.
func NewPostgresWriter(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	err = retry.Do(ctx, "postgres-ping", func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS ` + SalesTable + ` (
			id      SERIAL PRIMARY KEY,
			run_id  UUID          NOT NULL,
			sales   NUMERIC(14,2) NOT NULL,
			date    DATE          NOT NULL,
			region  TEXT          NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_morsel_sales_date   ON ` + SalesTable + `(date);
		CREATE INDEX IF NOT EXISTS idx_morsel_sales_region ON ` + SalesTable + `(region);
	`)
	return err
}

// Write replaces the table contents with records inside one transaction.
func (pw *PostgresWriter) Write(runID string, records []models.SalesRecord) error {
	tx, err := pw.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM " + SalesTable); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	for _, batch := range chunks(records, insertBatchSize) {
		query, args := buildInsert(runID, batch, dollarPlaceholder)
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("postgres: insert batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves every stored record in date order.
func (pw *PostgresWriter) FetchAll() ([]models.SalesRecord, error) {
	rows, err := pw.db.Query(`
		SELECT sales, date, region
		FROM ` + SalesTable + `
		ORDER BY date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var records []models.SalesRecord
	for rows.Next() {
		var r models.SalesRecord
		if err := rows.Scan(&r.Sales, &r.Date, &r.Region); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		r.Date = r.Date.UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}
