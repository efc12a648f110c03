package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"morsel-sales/models"
)

// AllRegions selects every region.
const AllRegions = "all"

// Dataset is an ordered, read-only sequence of sales records sorted by date.
// Filters return new Datasets; nothing ever modifies one in place, so a
// Dataset may be shared freely between goroutines.
type Dataset struct {
	records []models.SalesRecord
}

// Merge concatenates every input and stable-sorts the result by date.
// Records sharing a date and region are kept side by side, never merged.
func Merge(sets ...[]models.SalesRecord) Dataset {
	total := 0
	for _, s := range sets {
		total += len(s)
	}

	records := make([]models.SalesRecord, 0, total)
	for _, s := range sets {
		records = append(records, s...)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return Dataset{records: records}
}

// Len returns the number of records.
func (d Dataset) Len() int { return len(d.records) }

// Records returns a copy of the records in date order.
func (d Dataset) Records() []models.SalesRecord {
	out := make([]models.SalesRecord, len(d.records))
	copy(out, d.records)
	return out
}

// FilterByRegion keeps records whose region equals region, ignoring case and
// surrounding whitespace. "all" or an empty selector returns d unchanged.
func (d Dataset) FilterByRegion(region string) Dataset {
	key := normaliseKey(region)
	if key == "" || key == AllRegions {
		return d
	}
	return d.filter(func(r models.SalesRecord) bool { return r.Region == key })
}

// FilterByDateRange keeps records within [start, end]. A nil bound is open
// on that side; start after end yields an empty Dataset.
func (d Dataset) FilterByDateRange(start, end *time.Time) Dataset {
	if start == nil && end == nil {
		return d
	}
	var lo, hi time.Time
	if start != nil {
		lo = midnight(*start)
	}
	if end != nil {
		hi = midnight(*end)
	}
	if start != nil && end != nil && lo.After(hi) {
		return Dataset{}
	}
	return d.filter(func(r models.SalesRecord) bool {
		if start != nil && r.Date.Before(lo) {
			return false
		}
		if end != nil && r.Date.After(hi) {
			return false
		}
		return true
	})
}

func (d Dataset) filter(keep func(models.SalesRecord) bool) Dataset {
	out := make([]models.SalesRecord, 0, len(d.records))
	for _, r := range d.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return Dataset{records: out}
}

// DailyTotals sums sales per date. Dates without records are omitted.
func (d Dataset) DailyTotals() []models.DailyTotal {
	totals := make([]models.DailyTotal, 0)
	for _, r := range d.records {
		if n := len(totals); n > 0 && totals[n-1].Date.Equal(r.Date) {
			totals[n-1].Sales = totals[n-1].Sales.Add(r.Sales)
			continue
		}
		totals = append(totals, models.DailyTotal{Date: r.Date, Sales: r.Sales})
	}
	return totals
}

// Total sums every record's sales.
func (d Dataset) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, r := range d.records {
		sum = sum.Add(r.Sales)
	}
	return sum
}

// Regions returns the distinct regions in sorted order.
func (d Dataset) Regions() []string {
	seen := make(map[string]struct{})
	var regions []string
	for _, r := range d.records {
		if _, ok := seen[r.Region]; !ok {
			seen[r.Region] = struct{}{}
			regions = append(regions, r.Region)
		}
	}
	sort.Strings(regions)
	return regions
}

// Span returns the first and last dates, or ok=false when empty.
func (d Dataset) Span() (first, last time.Time, ok bool) {
	if len(d.records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return d.records[0].Date, d.records[len(d.records)-1].Date, true
}

// MovingAverage computes a trailing average over window points. The first
// window-1 points are undefined. A window below 1 yields nil.
func MovingAverage(totals []models.DailyTotal, window int) []models.MovingAveragePoint {
	if window < 1 {
		return nil
	}

	points := make([]models.MovingAveragePoint, len(totals))
	sum := decimal.Zero
	size := decimal.NewFromInt(int64(window))
	for i, t := range totals {
		sum = sum.Add(t.Sales)
		if i >= window {
			sum = sum.Sub(totals[i-window].Sales)
		}
		points[i] = models.MovingAveragePoint{Date: t.Date}
		if i >= window-1 {
			points[i].Average = sum.Div(size).Round(2)
			points[i].Defined = true
		}
	}
	return points
}
