package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

// DefaultCurrencySymbols are stripped from price cells unless configured otherwise.
var DefaultCurrencySymbols = []string{"$", "£", "€"}

var (
	// numberRegexp accepts an unsigned plain decimal once symbols, thousands
	// separators and whitespace have been removed.
	numberRegexp = regexp.MustCompile(`^\+?(?:\d+(?:\.\d*)?|\.\d+)$`)
)

// DateOrder is the convention used to read all-numeric dates such as 03/04/2021.
type DateOrder int

const (
	MonthFirst DateOrder = iota
	DayFirst
)

func (o DateOrder) String() string {
	if o == DayFirst {
		return "day-first"
	}
	return "month-first"
}

var (
	// unambiguousLayouts carry a four-digit leading year or a month name, so
	// the day/month convention never applies.
	unambiguousLayouts = []string{
		"2006-01-02",
		"2006-1-2",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02 15:04:05-07:00",
		"2006/01/02",
		"2006/1/2",
		"2006.01.02",
		"Jan 2, 2006",
		"January 2, 2006",
		"Jan 2 2006",
		"January 2 2006",
		"2 Jan 2006",
		"2 January 2006",
		"02-Jan-2006",
		"2-Jan-06",
		"Mon, 02 Jan 2006",
	}
	monthFirstLayouts = []string{
		"1/2/2006", "1-2-2006", "1.2.2006",
		"1/2/06", "1-2-06",
		"1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	dayFirstLayouts = []string{
		"2/1/2006", "2-1-2006", "2.1.2006",
		"2/1/06", "2-1-06",
		"2/1/2006 15:04", "2/1/2006 15:04:05",
	}
)

// FieldCleaner coerces raw cells into typed values.
type FieldCleaner struct {
	symbols []string
}

// NewFieldCleaner creates a cleaner that strips the given currency symbols,
// or DefaultCurrencySymbols when none are given.
func NewFieldCleaner(currencySymbols ...string) *FieldCleaner {
	if len(currencySymbols) == 0 {
		currencySymbols = DefaultCurrencySymbols
	}
	symbols := make([]string, 0, len(currencySymbols))
	for _, s := range currencySymbols {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}
	return &FieldCleaner{symbols: symbols}
}

// CleanPrice parses a price cell such as "$1,234.50" or " € 3.00 ".
func (c *FieldCleaner) CleanPrice(raw string) (decimal.Decimal, error) {
	s := raw
	for _, sym := range c.symbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	return parseNumber("price", raw, s)
}

// CleanQuantity parses a quantity cell. Fractional quantities are allowed.
func (c *FieldCleaner) CleanQuantity(raw string) (decimal.Decimal, error) {
	return parseNumber("quantity", raw, raw)
}

func parseNumber(field, raw, s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	if s == "" {
		return decimal.Zero, fmt.Errorf("%s %q: empty: %w", field, raw, ErrParse)
	}
	if !numberRegexp.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%s %q: not a number: %w", field, raw, ErrParse)
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q: %v: %w", field, raw, err, ErrParse)
	}
	return d, nil
}

// ParseDate parses a single date under the given convention and returns it
// as midnight UTC.
func ParseDate(raw string, order DateOrder) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("date %q: empty: %w", raw, ErrParse)
	}

	for _, layout := range unambiguousLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return midnight(t), nil
		}
	}

	layouts := monthFirstLayouts
	if order == DayFirst {
		layouts = dayFirstLayouts
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return midnight(t), nil
		}
	}

	// Without RetryAmbiguousDateWithSwap an out-of-range month is an error,
	// never a silent day/month swap.
	t, err := dateparse.ParseIn(s, time.UTC, dateparse.PreferMonthFirst(order == MonthFirst))
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: not a %s date: %v: %w", raw, order, err, ErrParse)
	}
	return midnight(t), nil
}

// DateBatch is the outcome of parsing every date cell of one source.
type DateBatch struct {
	Order DateOrder
	Dates []time.Time
	Errs  []error
	// Ambiguous marks rows that parse under both conventions to different
	// dates; they were read using Order.
	Ambiguous []bool
}

// Failed reports how many cells could not be parsed under either convention.
func (b DateBatch) Failed() int {
	n := 0
	for _, err := range b.Errs {
		if err != nil {
			n++
		}
	}
	return n
}

// ParseDates decides the day/month convention once for the whole batch.
// Month-first is kept unless some cell fails month-first but parses
// day-first; then the batch switches to day-first. Under the chosen order a
// cell that only parses under the other convention still uses it, since it
// cannot be misread. A cell that fails both is an ErrParse.
func ParseDates(raws []string) DateBatch {
	n := len(raws)
	mf := make([]time.Time, n)
	mfErr := make([]error, n)
	switchOrder := false

	for i, raw := range raws {
		mf[i], mfErr[i] = ParseDate(raw, MonthFirst)
		if mfErr[i] != nil {
			if _, err := ParseDate(raw, DayFirst); err == nil {
				switchOrder = true
			}
		}
	}

	batch := DateBatch{
		Order:     MonthFirst,
		Dates:     make([]time.Time, n),
		Errs:      make([]error, n),
		Ambiguous: make([]bool, n),
	}
	if switchOrder {
		batch.Order = DayFirst
	}

	for i, raw := range raws {
		df, dfErr := ParseDate(raw, DayFirst)
		batch.Ambiguous[i] = mfErr[i] == nil && dfErr == nil && !mf[i].Equal(df)

		primary, primaryErr, fallback, fallbackErr := mf[i], mfErr[i], df, dfErr
		if batch.Order == DayFirst {
			primary, primaryErr, fallback, fallbackErr = df, dfErr, mf[i], mfErr[i]
		}
		switch {
		case primaryErr == nil:
			batch.Dates[i] = primary
		case fallbackErr == nil:
			batch.Dates[i] = fallback
		default:
			batch.Errs[i] = primaryErr
		}
	}
	return batch
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
