package services

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"morsel-sales/models"
	"morsel-sales/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLoggerTo(&bytes.Buffer{}, utils.LevelDebug) }

func row(product, price, qty, day, region string) models.RawRecord {
	return models.RawRecord{"product": product, "price": price, "quantity": qty, "date": day, "region": region}
}

func batchOf(records ...models.RawRecord) models.RawBatch {
	return models.RawBatch{
		Source:  "test.csv",
		Columns: []string{"product", "price", "quantity", "date", "region"},
		Records: records,
	}
}

func TestNormalizerScenario(t *testing.T) {
	n := NewNormalizer(newTestLogger(), nil)

	res, err := n.Normalize(batchOf(
		row("Pink Morsel", "$2.00", "3", "2021-01-10", "north"),
		row("Pink Morsel", "$2.00", "5", "2021-01-20", "north"),
	), "pink morsel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Records) != 2 {
		t.Fatalf("records: got %d, want 2", len(res.Records))
	}
	if got := res.Records[0].Sales.StringFixed(2); got != "6.00" {
		t.Errorf("sales[0]: got %s, want 6.00", got)
	}
	if got := res.Records[1].Sales.StringFixed(2); got != "10.00" {
		t.Errorf("sales[1]: got %s, want 10.00", got)
	}
	if !res.Records[0].Date.Equal(date(2021, 1, 10)) {
		t.Errorf("date[0]: got %s", res.Records[0].Date)
	}
}

func TestNormalizerFiltersOtherProducts(t *testing.T) {
	n := NewNormalizer(newTestLogger(), nil)

	res, err := n.Normalize(batchOf(
		row("Blue Morsel", "$2.00", "3", "2021-01-10", "north"),
		row("  PINK morsel ", "$1.00", "1", "2021-01-10", "south"),
	), " Pink Morsel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Records) != 1 || res.Records[0].Region != "south" {
		t.Fatalf("expected only the pink morsel row, got %+v", res.Records)
	}
	if res.Stats.Read != 2 || res.Stats.Matched != 1 || res.Stats.Dropped != 0 {
		t.Errorf("stats: %+v", res.Stats)
	}
}

func TestNormalizerDropsMalformedQuantity(t *testing.T) {
	n := NewNormalizer(newTestLogger(), nil)

	res, err := n.Normalize(batchOf(
		row("pink morsel", "$2.00", "abc", "2021-01-10", "north"),
		row("pink morsel", "$2.00", "2", "2021-01-11", "north"),
	), "pink morsel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Records) != 1 {
		t.Fatalf("records: got %d, want 1", len(res.Records))
	}
	if res.Stats.Dropped != 1 || res.Stats.DropReasons[DropQuantity] != 1 {
		t.Errorf("drop counter: got %d (%v), want exactly 1 quantity drop",
			res.Stats.Dropped, res.Stats.DropReasons)
	}
}

func TestNormalizerDropReasons(t *testing.T) {
	n := NewNormalizer(newTestLogger(), nil)

	res, err := n.Normalize(batchOf(
		row("pink morsel", "", "2", "2021-01-10", "north"),
		row("pink morsel", "$1", "", "2021-01-10", "north"),
		row("pink morsel", "$1", "2", "someday", "north"),
		row("pink morsel", "$1", "2", "2021-01-12", "north"),
	), "pink morsel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]int{DropPrice: 1, DropQuantity: 1, DropDate: 1}
	for reason, n := range want {
		if res.Stats.DropReasons[reason] != n {
			t.Errorf("%s drops: got %d, want %d", reason, res.Stats.DropReasons[reason], n)
		}
	}
	if res.Stats.Kept != 1 || res.Stats.Dropped != 3 {
		t.Errorf("stats: %+v", res.Stats)
	}
}

func TestNormalizerReconcilesColumnNames(t *testing.T) {
	n := NewNormalizer(newTestLogger(), nil)

	batch := models.RawBatch{
		Source:  "odd.csv",
		Columns: []string{" Product", "PRICE ", "Quantity", " date ", "Region"},
		Records: []models.RawRecord{
			{" Product": "pink morsel", "PRICE ": "£1,000.00", "Quantity": "2", " date ": "2021-02-01", "Region": " East "},
		},
	}

	res, err := n.Normalize(batch, "pink morsel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("records: got %d, want 1", len(res.Records))
	}
	rec := res.Records[0]
	if !rec.Sales.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("sales: got %s, want 2000", rec.Sales)
	}
	if rec.Region != "east" {
		t.Errorf("region: got %q, want %q", rec.Region, "east")
	}
}

func TestNormalizerSchemaError(t *testing.T) {
	n := NewNormalizer(newTestLogger(), nil)

	_, err := n.Normalize(models.RawBatch{
		Source:  "bad.csv",
		Columns: []string{"product", "Price", "when"},
	}, "pink morsel")

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if !errors.Is(err, ErrSchema) {
		t.Errorf("SchemaError should unwrap to ErrSchema")
	}
	if strings.Join(schemaErr.Missing, ",") != "quantity,date,region" {
		t.Errorf("missing: got %v", schemaErr.Missing)
	}
	if !strings.Contains(err.Error(), "bad.csv") {
		t.Errorf("error should name the source: %v", err)
	}
}

func TestNormalizerColumnsFromRecords(t *testing.T) {
	n := NewNormalizer(newTestLogger(), nil)

	res, err := n.Normalize(models.RawBatch{
		Source:  "mapped",
		Records: []models.RawRecord{row("pink morsel", "$1.50", "2", "2021-01-01", "west")},
	}, "pink morsel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].Sales.StringFixed(2) != "3.00" {
		t.Errorf("got %+v", res.Records)
	}
}

func TestNormalizerRoundsAndKeepsInputOrder(t *testing.T) {
	n := NewNormalizer(newTestLogger(), nil)

	res, err := n.Normalize(batchOf(
		row("pink morsel", "$0.333", "3", "2021-03-01", "north"),
		row("pink morsel", "$1.005", "1", "2021-01-01", "south"),
	), "pink morsel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := res.Records[0].Sales.StringFixed(2); got != "1.00" {
		t.Errorf("sales[0]: got %s, want 1.00", got)
	}
	if got := res.Records[1].Sales.StringFixed(2); got != "1.01" {
		t.Errorf("sales[1]: got %s, want 1.01", got)
	}
	if res.Records[0].Region != "north" {
		t.Errorf("normalizer must not reorder rows")
	}
}

func TestNormalizerDayFirstBatch(t *testing.T) {
	n := NewNormalizer(newTestLogger(), nil)

	res, err := n.Normalize(batchOf(
		row("pink morsel", "$1", "1", "25/01/2021", "north"),
		row("pink morsel", "$1", "1", "02/03/2021", "north"),
	), "pink morsel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.Stats.DayFirst {
		t.Fatalf("batch should be read day-first")
	}
	if !res.Records[1].Date.Equal(date(2021, 3, 2)) {
		t.Errorf("ambiguous row read as %s, want 2021-03-02", res.Records[1].Date)
	}
}
