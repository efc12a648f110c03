package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"morsel-sales/models"
)

// ErrUnsupportedFormat is returned for input files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Supported reports whether ReadFile can parse path.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt", ".xlsx", ".xlsm":
		return true
	}
	return false
}

// ReadFile reads a source file into a RawBatch, choosing the parser by extension.
func ReadFile(path string) (*models.RawBatch, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return ReadCSV(path)
	case ".xlsx", ".xlsm":
		return ReadXLSX(path)
	default:
		return nil, fmt.Errorf("storage: %q: %w", path, ErrUnsupportedFormat)
	}
}
