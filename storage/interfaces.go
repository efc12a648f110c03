package storage

import "morsel-sales/models"

// SalesWriter is the interface any output backend must satisfy. Each Write
// replaces the previous contents of the flat output table.
type SalesWriter interface {
	Write(runID string, records []models.SalesRecord) error
	Close() error
}

// SalesReader is implemented by backends that can return what they stored.
type SalesReader interface {
	FetchAll() ([]models.SalesRecord, error)
}
