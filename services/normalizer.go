package services

import (
	"sort"
	"strings"

	"morsel-sales/models"
	"morsel-sales/utils"
)

// Logical fields every source must provide.
const (
	FieldProduct  = "product"
	FieldPrice    = "price"
	FieldQuantity = "quantity"
	FieldDate     = "date"
	FieldRegion   = "region"
)

// RequiredFields lists the logical fields in the order they are reported.
var RequiredFields = []string{FieldProduct, FieldPrice, FieldQuantity, FieldDate, FieldRegion}

// Drop reasons reported in SourceStats.DropReasons.
const (
	DropPrice    = "price"
	DropQuantity = "quantity"
	DropDate     = "date"
)

// NormalizeResult is the cleaned output of one RawBatch.
type NormalizeResult struct {
	Records []models.SalesRecord
	Stats   models.SourceStats
}

// Normalizer maps heterogeneous rows onto the canonical schema.
type Normalizer struct {
	logger *utils.Logger
	fields *FieldCleaner
}

// NewNormalizer creates a Normalizer using fields to clean cells.
func NewNormalizer(logger *utils.Logger, fields *FieldCleaner) *Normalizer {
	if fields == nil {
		fields = NewFieldCleaner()
	}
	return &Normalizer{logger: logger, fields: fields}
}

// ResolveColumns maps each required logical field to the actual column name,
// matching case- and whitespace-insensitively. When two columns collapse to
// the same key the first one wins.
func ResolveColumns(columns []string) (map[string]string, []string) {
	lookup := make(map[string]string, len(columns))
	for _, c := range columns {
		key := normaliseKey(c)
		if _, dup := lookup[key]; !dup {
			lookup[key] = c
		}
	}

	resolved := make(map[string]string, len(RequiredFields))
	var missing []string
	for _, f := range RequiredFields {
		col, ok := lookup[f]
		if !ok {
			missing = append(missing, f)
			continue
		}
		resolved[f] = col
	}
	return resolved, missing
}

// Normalize filters batch to product and cleans every surviving row.
// Rows with an unparseable price, quantity or date are dropped and counted;
// only a missing required column is an error.
func (n *Normalizer) Normalize(batch models.RawBatch, product string) (*NormalizeResult, error) {
	columns := batch.Columns
	if len(columns) == 0 {
		columns = unionColumns(batch.Records)
	}

	cols, missing := ResolveColumns(columns)
	if len(missing) > 0 {
		return nil, &SchemaError{Source: batch.Source, Missing: missing}
	}

	target := normaliseKey(product)
	stats := models.SourceStats{
		Source:      batch.Source,
		Read:        len(batch.Records),
		DropReasons: make(map[string]int),
	}

	type candidate struct {
		row      int
		price    string
		quantity string
		region   string
		date     string
	}

	var candidates []candidate
	for i, r := range batch.Records {
		if normaliseKey(r[cols[FieldProduct]]) != target {
			continue
		}
		stats.Matched++
		candidates = append(candidates, candidate{
			row:      i + 1,
			price:    r[cols[FieldPrice]],
			quantity: r[cols[FieldQuantity]],
			region:   r[cols[FieldRegion]],
			date:     r[cols[FieldDate]],
		})
	}

	kept := make([]models.SalesRecord, 0, len(candidates))
	var rawDates []string
	var pending []models.SalesRecord
	var rows []int

	for _, c := range candidates {
		price, err := n.fields.CleanPrice(c.price)
		if err != nil {
			n.drop(&stats, DropPrice, c.row, err)
			continue
		}
		qty, err := n.fields.CleanQuantity(c.quantity)
		if err != nil {
			n.drop(&stats, DropQuantity, c.row, err)
			continue
		}
		pending = append(pending, models.SalesRecord{
			Sales:  price.Mul(qty).Round(2),
			Region: normaliseKey(c.region),
		})
		rawDates = append(rawDates, c.date)
		rows = append(rows, c.row)
	}

	dates := ParseDates(rawDates)
	stats.DayFirst = dates.Order == DayFirst
	for i, rec := range pending {
		if err := dates.Errs[i]; err != nil {
			n.drop(&stats, DropDate, rows[i], err)
			continue
		}
		if dates.Ambiguous[i] {
			n.logger.Debug("[normalizer] %s row %d: ambiguous date %q read %s",
				batch.Source, rows[i], rawDates[i], dates.Order)
		}
		rec.Date = dates.Dates[i]
		kept = append(kept, rec)
	}

	stats.Kept = len(kept)
	n.logger.Info("[normalizer] %s: read %d, matched %d, kept %d (dropped %d: price=%d quantity=%d date=%d, dates %s)",
		batch.Source, stats.Read, stats.Matched, stats.Kept, stats.Dropped,
		stats.DropReasons[DropPrice], stats.DropReasons[DropQuantity], stats.DropReasons[DropDate],
		dates.Order)

	return &NormalizeResult{Records: kept, Stats: stats}, nil
}

func (n *Normalizer) drop(stats *models.SourceStats, reason string, row int, err error) {
	stats.Dropped++
	stats.DropReasons[reason]++
	n.logger.Debug("[normalizer] %s row %d dropped: %v", stats.Source, row, err)
}

func unionColumns(records []models.RawRecord) []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, r := range records {
		for k := range r {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// normaliseKey trims and lowercases s for case-insensitive comparison.
func normaliseKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
