package storage

import (
	"fmt"
	"strings"

	"morsel-sales/models"
)

// SalesTable is the single flat output table shared by the SQL backends.
const SalesTable = "morsel_sales"

const insertBatchSize = 200

// buildInsert renders a multi-row INSERT for batch. placeholder maps a
// 1-based argument index to the driver's bind syntax.
func buildInsert(runID string, batch []models.SalesRecord, placeholder func(int) string) (string, []any) {
	const cols = 4
	values := make([]string, 0, len(batch))
	args := make([]any, 0, len(batch)*cols)

	for idx, r := range batch {
		base := idx * cols
		values = append(values, fmt.Sprintf("(%s,%s,%s,%s)",
			placeholder(base+1), placeholder(base+2), placeholder(base+3), placeholder(base+4)))
		args = append(args, runID, r.Sales.StringFixed(2), r.Date.Format(models.DateLayout), r.Region)
	}

	query := fmt.Sprintf("INSERT INTO %s (run_id, sales, date, region) VALUES %s",
		SalesTable, strings.Join(values, ","))
	return query, args
}

func dollarPlaceholder(i int) string { return fmt.Sprintf("$%d", i) }

func questionPlaceholder(int) string { return "?" }

// chunks splits records into slices of at most size elements.
func chunks(records []models.SalesRecord, size int) [][]models.SalesRecord {
	var out [][]models.SalesRecord
	for i := 0; i < len(records); i += size {
		end := i + size
		if end > len(records) {
			end = len(records)
		}
		out = append(out, records[i:end])
	}
	return out
}
