package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO-8601 calendar date format used for every date that
// leaves the pipeline.
const DateLayout = "2006-01-02"

// RawRecord is one unprocessed input row keyed by the column name exactly as
// it appeared in the source header.
type RawRecord map[string]string

// RawBatch holds the rows read from a single source file, with Columns in
// header order.
type RawBatch struct {
	Source  string
	Columns []string
	Records []RawRecord
}

// SalesRecord is a cleaned, product-filtered row with derived sales.
type SalesRecord struct {
	Sales  decimal.Decimal
	Date   time.Time
	Region string
}

type salesRecordJSON struct {
	Sales  json.RawMessage `json:"Sales"`
	Date   string          `json:"Date"`
	Region string          `json:"Region"`
}

// MarshalJSON renders the canonical output shape: Sales as a two-decimal
// number and Date as YYYY-MM-DD.
func (r SalesRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(salesRecordJSON{
		Sales:  json.RawMessage(r.Sales.StringFixed(2)),
		Date:   r.Date.Format(DateLayout),
		Region: r.Region,
	})
}

// DailyTotal is the summed sales for one calendar date.
type DailyTotal struct {
	Date  time.Time
	Sales decimal.Decimal
}

func (d DailyTotal) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date  string          `json:"date"`
		Sales json.RawMessage `json:"sales"`
	}{d.Date.Format(DateLayout), json.RawMessage(d.Sales.StringFixed(2))})
}

// MovingAveragePoint is a trailing-window average. Defined is false until
// the window has filled.
type MovingAveragePoint struct {
	Date    time.Time
	Average decimal.Decimal
	Defined bool
}

func (p MovingAveragePoint) MarshalJSON() ([]byte, error) {
	avg := json.RawMessage("null")
	if p.Defined {
		avg = json.RawMessage(p.Average.StringFixed(2))
	}
	return json.Marshal(struct {
		Date    string          `json:"date"`
		Average json.RawMessage `json:"average"`
	}{p.Date.Format(DateLayout), avg})
}

// PercentChange is either a finite percentage or the positive-infinity
// sentinel used when the "before" total is zero and the "after" total is not.
type PercentChange struct {
	Value    decimal.Decimal
	Infinite bool
}

// InfinitePercent is the sentinel for growth from a zero baseline.
var InfinitePercent = PercentChange{Infinite: true}

// String renders the change the way the summary card shows it.
func (p PercentChange) String() string {
	if p.Infinite {
		return "∞ %"
	}
	return p.Value.StringFixed(2) + "%"
}

// MarshalJSON emits a number, or the string "+Inf" for the sentinel.
func (p PercentChange) MarshalJSON() ([]byte, error) {
	if p.Infinite {
		return []byte(`"+Inf"`), nil
	}
	return []byte(p.Value.StringFixed(2)), nil
}

// ComparisonResult holds the before/after totals around the cutoff date.
type ComparisonResult struct {
	TotalBefore   decimal.Decimal
	TotalAfter    decimal.Decimal
	Delta         decimal.Decimal
	PercentChange PercentChange
}

func (c ComparisonResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TotalBefore   json.RawMessage `json:"total_before"`
		TotalAfter    json.RawMessage `json:"total_after"`
		Delta         json.RawMessage `json:"delta"`
		PercentChange PercentChange   `json:"percent_change"`
	}{
		json.RawMessage(c.TotalBefore.StringFixed(2)),
		json.RawMessage(c.TotalAfter.StringFixed(2)),
		json.RawMessage(c.Delta.StringFixed(2)),
		c.PercentChange,
	})
}

// SourceStats describes what happened to the rows of one input batch.
type SourceStats struct {
	Source      string         `json:"source"`
	Read        int            `json:"read"`
	Matched     int            `json:"matched"`
	Kept        int            `json:"kept"`
	Dropped     int            `json:"dropped"`
	DropReasons map[string]int `json:"drop_reasons,omitempty"`
	DayFirst    bool           `json:"day_first"`
}

// BuildStats aggregates SourceStats across every source of a build.
type BuildStats struct {
	Sources []SourceStats `json:"sources"`
	Read    int           `json:"read"`
	Matched int           `json:"matched"`
	Kept    int           `json:"kept"`
	Dropped int           `json:"dropped"`
}

// Add folds one source's stats into the totals.
func (b *BuildStats) Add(s SourceStats) {
	b.Sources = append(b.Sources, s)
	b.Read += s.Read
	b.Matched += s.Matched
	b.Kept += s.Kept
	b.Dropped += s.Dropped
}

// SalesView is everything a presentation layer needs for one filter state.
type SalesView struct {
	Region        string               `json:"region"`
	Start         *time.Time           `json:"-"`
	End           *time.Time           `json:"-"`
	Cutoff        time.Time            `json:"-"`
	Daily         []DailyTotal         `json:"daily"`
	MovingAverage []MovingAveragePoint `json:"moving_average,omitempty"`
	Comparison    ComparisonResult     `json:"comparison"`
}

// SalesReport holds the computed summary over a whole dataset.
type SalesReport struct {
	Product      string
	TotalRecords int
	FirstDate    time.Time
	LastDate     time.Time
	TotalSales   decimal.Decimal
	RegionTotals map[string]decimal.Decimal
	BestDay      *DailyTotal
	Cutoff       time.Time
	Comparison   ComparisonResult
	Dropped      int
}
