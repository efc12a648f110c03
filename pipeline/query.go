package pipeline

import (
	"fmt"
	"strings"
	"time"

	"morsel-sales/models"
	"morsel-sales/services"
)

// Query is one filter state of the dashboard.
type Query struct {
	Region        string
	Start         *time.Time
	End           *time.Time
	MovingAverage bool
}

// Query evaluates q against the current snapshot.
func (p *Pipeline) Query(q Query) (models.SalesView, error) {
	return p.QuerySnapshot(p.Snapshot(), q)
}

// QuerySnapshot evaluates q against snap, which callers obtain from
// Snapshot when they need the view and the snapshot id to agree.
func (p *Pipeline) QuerySnapshot(snap *Snapshot, q Query) (models.SalesView, error) {
	if snap == nil {
		return models.SalesView{}, ErrNotBuilt
	}
	if !p.ValidRegion(q.Region) {
		return models.SalesView{}, fmt.Errorf("%w: %q", ErrUnknownRegion, q.Region)
	}
	region := strings.ToLower(strings.TrimSpace(q.Region))
	if region == "" {
		region = services.AllRegions
	}
	p.metrics.Queries.WithLabelValues(region).Inc()
	return snap.View(q, p.opts.Cutoff, p.opts.MovingAverageWindow), nil
}

// View computes the daily series and comparison for q. Missing bounds
// default to the span of the whole dataset.
func (s *Snapshot) View(q Query, cutoff time.Time, window int) models.SalesView {
	region := strings.ToLower(strings.TrimSpace(q.Region))
	if region == "" {
		region = services.AllRegions
	}

	start, end := q.Start, q.End
	if first, last, ok := s.Dataset.Span(); ok {
		if start == nil {
			start = &first
		}
		if end == nil {
			end = &last
		}
	}

	filtered := s.Dataset.FilterByRegion(region).FilterByDateRange(start, end)
	view := models.SalesView{
		Region:     region,
		Start:      start,
		End:        end,
		Cutoff:     cutoff,
		Daily:      filtered.DailyTotals(),
		Comparison: services.Compare(filtered, cutoff),
	}
	if q.MovingAverage {
		view.MovingAverage = services.MovingAverage(view.Daily, window)
	}
	return view
}
