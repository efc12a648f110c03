package api

import (
	"time"

	"morsel-sales/models"
)

// ViewParams are the query parameters shared by /api/view, /api/records and
// the dashboard page.
type ViewParams struct {
	Region string `json:"region" validate:"omitempty,region"`
	Start  string `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End    string `json:"end" validate:"omitempty,datetime=2006-01-02"`
	MA     string `json:"ma" validate:"omitempty,oneof=true false 1 0 on off"`
}

// RegionsResponse lists the selectable regions and the data span.
type RegionsResponse struct {
	Regions   []string `json:"regions"`
	Cutoff    string   `json:"cutoff"`
	FirstDate string   `json:"first_date,omitempty"`
	LastDate  string   `json:"last_date,omitempty"`
}

// ViewResponse is one filtered view of the current snapshot.
type ViewResponse struct {
	SnapshotID    string                      `json:"snapshot_id"`
	Region        string                      `json:"region"`
	Start         string                      `json:"start,omitempty"`
	End           string                      `json:"end,omitempty"`
	Cutoff        string                      `json:"cutoff"`
	Daily         []models.DailyTotal         `json:"daily"`
	MovingAverage []models.MovingAveragePoint `json:"moving_average,omitempty"`
	Comparison    models.ComparisonResult     `json:"comparison"`
}

// RecordsResponse carries canonical records.
type RecordsResponse struct {
	SnapshotID string               `json:"snapshot_id"`
	Count      int                  `json:"count"`
	Records    []models.SalesRecord `json:"records"`
}

// SnapshotResponse describes the current snapshot.
type SnapshotResponse struct {
	ID      string            `json:"id"`
	BuiltAt time.Time         `json:"built_at"`
	Records int               `json:"records"`
	Stats   models.BuildStats `json:"stats"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func formatDay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(models.DateLayout)
}
