package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFieldCleanerCleanPrice(t *testing.T) {
	c := NewFieldCleaner()

	tests := []struct {
		raw  string
		want string
	}{
		{"$2.00", "2"},
		{"$1,234.50", "1234.5"},
		{"1234.50", "1234.5"},
		{" £ 3.10 ", "3.1"},
		{"€12", "12"},
		{"1 000.25", "1000.25"},
		{" $0.99", "0.99"},
		{".5", "0.5"},
	}

	for _, tt := range tests {
		got, err := c.CleanPrice(tt.raw)
		if err != nil {
			t.Errorf("CleanPrice(%q) error: %v", tt.raw, err)
			continue
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("CleanPrice(%q) = %s; want %s", tt.raw, got, tt.want)
		}
	}
}

func TestFieldCleanerCleanPriceFailures(t *testing.T) {
	c := NewFieldCleaner()

	for _, raw := range []string{"", "   ", "$", "free", "12abc", "-3.00", "1e3", "¥5"} {
		if _, err := c.CleanPrice(raw); !errors.Is(err, ErrParse) {
			t.Errorf("CleanPrice(%q) error = %v; want ErrParse", raw, err)
		}
	}
}

func TestFieldCleanerCustomSymbols(t *testing.T) {
	c := NewFieldCleaner("¥", " ")

	got, err := c.CleanPrice("¥1,500")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("got %s, want 1500", got)
	}
	if _, err := c.CleanPrice("$3"); !errors.Is(err, ErrParse) {
		t.Errorf("$ is not configured, want ErrParse, got %v", err)
	}
}

func TestCleanPriceCurrencyInvariance(t *testing.T) {
	c := NewFieldCleaner()
	want := decimal.RequireFromString("1234.50")

	for _, raw := range []string{"$1,234.50", "1234.50", "£1234.50", "€ 1,234.50"} {
		got, err := c.CleanPrice(raw)
		if err != nil || !got.Equal(want) {
			t.Errorf("CleanPrice(%q) = %s, %v; want %s", raw, got, err, want)
		}
	}
}

func TestCleanPriceRoundTrip(t *testing.T) {
	c := NewFieldCleaner()

	for _, raw := range []string{"$0.01", "$3.00", "$1,234.56", "£999,999.99", "7"} {
		first, err := c.CleanPrice(raw)
		if err != nil {
			t.Fatalf("CleanPrice(%q): %v", raw, err)
		}
		second, err := c.CleanPrice(first.String())
		if err != nil {
			t.Fatalf("CleanPrice(%q): %v", first.String(), err)
		}
		if !first.Equal(second) {
			t.Errorf("round trip of %q: %s != %s", raw, first, second)
		}
	}
}

func TestFieldCleanerCleanQuantity(t *testing.T) {
	c := NewFieldCleaner()

	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"3", "3", false},
		{" 1,200 ", "1200", false},
		{"2.5", "2.5", false},
		{"", "", true},
		{"abc", "", true},
		{"$3", "", true},
	}

	for _, tt := range tests {
		got, err := c.CleanQuantity(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, ErrParse) {
				t.Errorf("CleanQuantity(%q) error = %v; want ErrParse", tt.raw, err)
			}
			continue
		}
		if err != nil || !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("CleanQuantity(%q) = %s, %v; want %s", tt.raw, got, err, tt.want)
		}
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw   string
		order DateOrder
		want  time.Time
	}{
		{"2021-01-10", MonthFirst, date(2021, 1, 10)},
		{"2021-01-10", DayFirst, date(2021, 1, 10)},
		{" 2021-1-5 ", MonthFirst, date(2021, 1, 5)},
		{"2021-01-10T23:30:00+05:00", MonthFirst, date(2021, 1, 10)},
		{"2021/02/03", DayFirst, date(2021, 2, 3)},
		{"Jan 15, 2021", MonthFirst, date(2021, 1, 15)},
		{"15 January 2021", DayFirst, date(2021, 1, 15)},
		{"01/20/2021", MonthFirst, date(2021, 1, 20)},
		{"20/01/2021", DayFirst, date(2021, 1, 20)},
		{"3/4/21", MonthFirst, date(2021, 3, 4)},
		{"3/4/21", DayFirst, date(2021, 4, 3)},
		{"20.01.2021", DayFirst, date(2021, 1, 20)},
		{"2021/1/10", MonthFirst, date(2021, 1, 10)},
		{"2021-01-10 00:00:00+00:00", MonthFirst, date(2021, 1, 10)},
		{"10-Jan-2021", DayFirst, date(2021, 1, 10)},
		{"January 10 2021", MonthFirst, date(2021, 1, 10)},
		{"Sun Jan 10 15:04:05 2021", MonthFirst, date(2021, 1, 10)},
		{"1/10/2021 8:30 PM", MonthFirst, date(2021, 1, 10)},
		{"10/1/2021 8:30 PM", DayFirst, date(2021, 1, 10)},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.raw, tt.order)
		if err != nil {
			t.Errorf("ParseDate(%q, %s) error: %v", tt.raw, tt.order, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q, %s) = %s; want %s", tt.raw, tt.order, got, tt.want)
		}
	}
}

func TestParseDateFailures(t *testing.T) {
	tests := []struct {
		raw   string
		order DateOrder
	}{
		{"", MonthFirst},
		{"not a date", MonthFirst},
		{"20/01/2021", MonthFirst},
		{"01/20/2021", DayFirst},
		{"2021-13-01", DayFirst},
	}

	for _, tt := range tests {
		if _, err := ParseDate(tt.raw, tt.order); !errors.Is(err, ErrParse) {
			t.Errorf("ParseDate(%q, %s) error = %v; want ErrParse", tt.raw, tt.order, err)
		}
	}
}

func TestParseDatesKeepsMonthFirst(t *testing.T) {
	b := ParseDates([]string{"01/10/2021", "01/20/2021", "garbage"})

	if b.Order != MonthFirst {
		t.Fatalf("order: got %s, want month-first", b.Order)
	}
	if !b.Dates[0].Equal(date(2021, 1, 10)) {
		t.Errorf("row 0: got %s", b.Dates[0])
	}
	if b.Failed() != 1 || !errors.Is(b.Errs[2], ErrParse) {
		t.Errorf("expected only the garbage row to fail, errs=%v", b.Errs)
	}
}

func TestParseDatesSwitchesWholeBatchToDayFirst(t *testing.T) {
	// "03/04/2021" is ambiguous; "25/04/2021" only parses day-first, so the
	// batch is read day-first and 03/04 becomes 3 April.
	b := ParseDates([]string{"03/04/2021", "25/04/2021", "2021-05-01"})

	if b.Order != DayFirst {
		t.Fatalf("order: got %s, want day-first", b.Order)
	}
	if b.Failed() != 0 {
		t.Fatalf("unexpected failures: %v", b.Errs)
	}
	if !b.Dates[0].Equal(date(2021, 4, 3)) {
		t.Errorf("ambiguous row: got %s, want 2021-04-03", b.Dates[0])
	}
	if !b.Ambiguous[0] {
		t.Errorf("03/04/2021 should be flagged ambiguous")
	}
	if b.Ambiguous[1] || b.Ambiguous[2] {
		t.Errorf("unambiguous rows flagged: %v", b.Ambiguous)
	}
}

func TestParseDatesRowOnlyValidUnderOtherOrder(t *testing.T) {
	// The batch goes day-first, but 01/20/2021 can only be month-first.
	b := ParseDates([]string{"20/01/2021", "01/20/2021"})

	if b.Order != DayFirst {
		t.Fatalf("order: got %s, want day-first", b.Order)
	}
	for i, d := range b.Dates {
		if b.Errs[i] != nil || !d.Equal(date(2021, 1, 20)) {
			t.Errorf("row %d: got %s, %v; want 2021-01-20", i, d, b.Errs[i])
		}
	}
}

func TestParseDatesFreeFormCells(t *testing.T) {
	b := ParseDates([]string{"2021/1/10", "2021-01-10 00:00:00+00:00", "10-Jan-2021", "January 10 2021"})

	if b.Failed() != 0 {
		t.Fatalf("unexpected failures: %v", b.Errs)
	}
	if b.Order != MonthFirst {
		t.Errorf("order: got %s, want month-first", b.Order)
	}
	for i, d := range b.Dates {
		if !d.Equal(date(2021, 1, 10)) {
			t.Errorf("row %d: got %s, want 2021-01-10", i, d)
		}
	}
}

func TestParseDatesAmbiguousOnlyBatch(t *testing.T) {
	// Every row is ambiguous, so nothing forces day-first; the reading is a
	// convention, not a fact, and the rows are flagged.
	b := ParseDates([]string{"03/04/2021", "05/06/2021"})

	if b.Order != MonthFirst {
		t.Fatalf("order: got %s, want month-first", b.Order)
	}
	for i := range b.Dates {
		if !b.Ambiguous[i] {
			t.Errorf("row %d should be flagged ambiguous", i)
		}
	}
}
