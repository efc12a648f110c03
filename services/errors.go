package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse marks a cell that could not be coerced to its typed value.
	ErrParse = errors.New("unparseable value")

	// ErrSchema is returned when a source lacks a required column.
	ErrSchema = errors.New("missing required columns")

	// ErrEmptyInput is returned when no usable rows remain for the product.
	ErrEmptyInput = errors.New("no usable rows for product")

	// ErrNoInputFiles is returned when the pipeline is given no sources, or
	// a configured source resolves to no file.
	ErrNoInputFiles = errors.New("no input files")

	errNoMatch = errors.New("pattern matches no files")
)

// SchemaError lists the logical fields a source is missing.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: missing required columns: %s", e.Source, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// EmptyInputError reports that filtering and cleaning left nothing to serve.
type EmptyInputError struct {
	Product string
	Sources int
	Matched int
	Dropped int
}

func (e *EmptyInputError) Error() string {
	if e.Matched == 0 {
		return fmt.Sprintf("no rows for product %q across %d source(s)", e.Product, e.Sources)
	}
	return fmt.Sprintf("all %d row(s) for product %q were unparseable", e.Matched, e.Product)
}

func (e *EmptyInputError) Unwrap() error { return ErrEmptyInput }

// SourceError names a configured input source that resolved to no file.
// It matches both ErrNoInputFiles and the underlying cause.
type SourceError struct {
	Source string
	Err    error
}

// NoMatchError reports a glob pattern that matched nothing.
func NoMatchError(pattern string) *SourceError {
	return &SourceError{Source: pattern, Err: errNoMatch}
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("input source %q: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() []error { return []error{ErrNoInputFiles, e.Err} }
